package usecase

import (
	"testing"

	"github.com/iamvkosarev/pink-ai-bot/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestIntentUsecase_Classify(t *testing.T) {
	classifier := NewIntentUsecase()
	cases := []struct {
		text string
		want model.Intent
	}{
		{"hello", model.IntentGreeting},
		{"Hi there", model.IntentGreeting},
		{"HEY!", model.IntentGreeting},
		{"ok bye", model.IntentGoodbye},
		{"Goodbye for now", model.IntentGoodbye},
		{"please draw me a picture of a cat", model.IntentImage},
		{"Generate an IMAGE of the sea", model.IntentImage},
		{"thanks a lot", model.IntentThanks},
		{"Thank you!", model.IntentThanks},
		{"calculate 2+2", model.IntentMath},
		{"what is (3 + 4) * 2", model.IntentMath},
		{"compute 2^8", model.IntentMath},
		{"tell me about black holes", model.IntentUnknown},
		{"this is a history question", model.IntentUnknown},
		{"what is love", model.IntentUnknown},
		{"calculate abc", model.IntentUnknown},
		{"", model.IntentUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			assert.Equal(t, tc.want, classifier.Classify(tc.text))
		})
	}
}

func TestIntentUsecase_FirstMatchWins(t *testing.T) {
	classifier := NewIntentUsecase()
	assert.Equal(t, model.IntentGreeting, classifier.Classify("hey, thanks, bye"))
	assert.Equal(t, model.IntentGoodbye, classifier.Classify("bye, and calculate 2+2"))
	assert.Equal(t, model.IntentImage, classifier.Classify("thanks, now make a photo"))
}
