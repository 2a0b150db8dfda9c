package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/iamvkosarev/pink-ai-bot/config"
	"github.com/iamvkosarev/pink-ai-bot/internal/model"
	openai_tools "github.com/iamvkosarev/pink-ai-bot/pkg/openai-tools"

	"github.com/sashabaranov/go-openai"
)

const (
	OpenAIRoleUser = "user"
)

// OpenAIUsecase generates text through any OpenAI-compatible chat completion
// endpoint. Each prompt is sent as a single-turn conversation.
type OpenAIUsecase struct {
	cfg    config.OpenAI
	client *openai.Client
}

func NewOpenAIUsecase(cfg config.OpenAI) *OpenAIUsecase {
	clientConfig := openai.DefaultConfig(cfg.OpenAIAPIKey)
	if cfg.OpenAIBaseURL != "" {
		clientConfig.BaseURL = cfg.OpenAIBaseURL
	}
	return &OpenAIUsecase{
		cfg:    cfg,
		client: openai.NewClientWithConfig(clientConfig),
	}
}

func (o *OpenAIUsecase) GenerateText(ctx context.Context, prompt string) (string, error) {
	if o.cfg.OpenAIAPIKey == "" {
		return "", model.ErrMissingCredential
	}
	messages := []openai.ChatCompletionMessage{
		{
			Role:    OpenAIRoleUser,
			Content: prompt,
		},
	}

	if o.cfg.CountTokens {
		tokenCount, err := openai_tools.CountToken(messages, o.cfg.OpenAIModel)
		if err != nil {
			log.Printf("count token error: %v", err)
		} else {
			log.Printf("sending prompt of %d tokens to %s", tokenCount, o.cfg.OpenAIModel)
		}
	}

	req := openai.ChatCompletionRequest{
		Model:       o.cfg.OpenAIModel,
		Temperature: o.cfg.ModelTemperature,
		TopP:        1,
		N:           1,
		Messages:    messages,
		Stream:      true,
	}

	stream, err := o.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return "", convertOpenAIError(err)
	}
	defer stream.Close()

	var answer strings.Builder
	for {
		response, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to read completion stream: %w", convertOpenAIError(err))
		}
		if len(response.Choices) == 0 {
			continue
		}
		answer.WriteString(response.Choices[0].Delta.Content)
	}

	if answer.Len() == 0 {
		return "", model.ErrMalformedResponse
	}
	return answer.String(), nil
}

func convertOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return model.NewHTTPError(apiErr.HTTPStatusCode, apiErr.Message)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return model.NewHTTPError(reqErr.HTTPStatusCode, "")
	}
	return fmt.Errorf("failed to create chat completion: %w", err)
}
