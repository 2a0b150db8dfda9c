package openai_tools

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
	"github.com/sashabaranov/go-openai"
)

const fallbackEncoding = "cl100k_base"

// CountToken estimates the prompt size of messages for model, following the
// per-message overhead OpenAI documents for chat models.
func CountToken(messages []openai.ChatCompletionMessage, model string) (int, error) {
	tkm, err := tiktoken.EncodingForModel(model)
	if err != nil {
		tkm, err = tiktoken.GetEncoding(fallbackEncoding)
		if err != nil {
			return 0, fmt.Errorf("failed to get encoding: %w", err)
		}
	}

	tokensPerMessage, tokensPerName := 3, 1
	if strings.HasPrefix(model, "gpt-3.5-turbo-0301") {
		tokensPerMessage, tokensPerName = 4, -1
	}

	numTokens := 0
	for _, message := range messages {
		numTokens += tokensPerMessage
		numTokens += len(tkm.Encode(message.Content, nil, nil))
		numTokens += len(tkm.Encode(message.Role, nil, nil))
		if message.Name != "" {
			numTokens += len(tkm.Encode(message.Name, nil, nil))
			numTokens += tokensPerName
		}
	}
	numTokens += 3
	return numTokens, nil
}
