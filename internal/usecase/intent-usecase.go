package usecase

import (
	"regexp"

	"github.com/iamvkosarev/pink-ai-bot/internal/model"
)

type intentPatterns struct {
	intent   model.Intent
	patterns []*regexp.Regexp
}

// Order matters: the first intent with a matching pattern wins.
var defaultIntentPatterns = []intentPatterns{
	{
		intent:   model.IntentGreeting,
		patterns: []*regexp.Regexp{regexp.MustCompile(`(?i)\b(hello|hi|hey)\b`)},
	},
	{
		intent:   model.IntentGoodbye,
		patterns: []*regexp.Regexp{regexp.MustCompile(`(?i)\b(bye|goodbye)\b`)},
	},
	{
		intent:   model.IntentImage,
		patterns: []*regexp.Regexp{regexp.MustCompile(`(?i)\b(create|make|generate|draw).*(image|picture|photo)\b`)},
	},
	{
		intent:   model.IntentThanks,
		patterns: []*regexp.Regexp{regexp.MustCompile(`(?i)\b(thank you|thanks)\b`)},
	},
	{
		intent:   model.IntentMath,
		patterns: []*regexp.Regexp{regexp.MustCompile(`(?i)\b(calculate|math|solve|what is|compute)\s+[\d.+\-*/()^]+`)},
	},
}

type IntentUsecase struct {
	patterns []intentPatterns
}

func NewIntentUsecase() *IntentUsecase {
	return &IntentUsecase{
		patterns: defaultIntentPatterns,
	}
}

func (i *IntentUsecase) Classify(text string) model.Intent {
	for _, entry := range i.patterns {
		for _, pattern := range entry.patterns {
			if pattern.MatchString(text) {
				return entry.intent
			}
		}
	}
	return model.IntentUnknown
}
