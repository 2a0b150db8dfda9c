package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/iamvkosarev/pink-ai-bot/config"
	"github.com/iamvkosarev/pink-ai-bot/internal/model"
)

const (
	maxResponseBodySize = 10 << 20
	maxErrorBodySize    = 4 << 10
)

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content *geminiContent `json:"content"`
	} `json:"candidates"`
}

// GeminiUsecase calls the generateContent endpoint of the Generative Language
// API with a single-turn prompt.
type GeminiUsecase struct {
	cfg    config.Gemini
	client *http.Client
}

func NewGeminiUsecase(cfg config.Gemini, client *http.Client) *GeminiUsecase {
	if client == nil {
		client = http.DefaultClient
	}
	return &GeminiUsecase{
		cfg:    cfg,
		client: client,
	}
}

func (g *GeminiUsecase) GenerateText(ctx context.Context, prompt string) (string, error) {
	if g.cfg.APIKey == "" {
		return "", model.ErrMissingCredential
	}
	endpoint, err := g.endpoint()
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal gemini request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create gemini request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call gemini: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", model.NewHTTPError(resp.StatusCode, readErrorBody(resp.Body))
	}

	var parsed geminiResponse
	if err = json.NewDecoder(io.LimitReader(resp.Body, maxResponseBodySize)).Decode(&parsed); err != nil {
		return "", fmt.Errorf("%w: %v", model.ErrMalformedResponse, err)
	}
	if len(parsed.Candidates) == 0 ||
		parsed.Candidates[0].Content == nil ||
		len(parsed.Candidates[0].Content.Parts) == 0 ||
		parsed.Candidates[0].Content.Parts[0].Text == "" {
		return "", model.ErrMalformedResponse
	}
	return parsed.Candidates[0].Content.Parts[0].Text, nil
}

func (g *GeminiUsecase) endpoint() (string, error) {
	base := strings.TrimRight(g.cfg.BaseURL, "/")
	u, err := url.Parse(fmt.Sprintf("%s/models/%s:generateContent", base, g.cfg.Model))
	if err != nil {
		return "", fmt.Errorf("failed to parse gemini url: %w", err)
	}
	q := u.Query()
	q.Set("key", g.cfg.APIKey)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func readErrorBody(body io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(body, maxErrorBodySize))
	return strings.TrimSpace(string(raw))
}
