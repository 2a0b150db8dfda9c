package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/iamvkosarev/pink-ai-bot/config"
	"github.com/iamvkosarev/pink-ai-bot/internal/model"
)

const maxImageSize = 20 << 20

type imageParameters struct {
	NumInferenceSteps int     `json:"num_inference_steps"`
	GuidanceScale     float64 `json:"guidance_scale"`
}

type imageRequest struct {
	Inputs     string          `json:"inputs"`
	Parameters imageParameters `json:"parameters"`
}

// ImageUsecase talks to a Hugging Face style inference endpoint returning raw
// image bytes. When the primary model is missing or still loading the same
// request is sent once to the fallback model.
type ImageUsecase struct {
	cfg    config.ImageGeneration
	client *http.Client
}

func NewImageUsecase(cfg config.ImageGeneration, client *http.Client) *ImageUsecase {
	if client == nil {
		client = http.DefaultClient
	}
	return &ImageUsecase{
		cfg:    cfg,
		client: client,
	}
}

func (i *ImageUsecase) GenerateImage(ctx context.Context, prompt string) (model.Image, error) {
	if i.cfg.APIToken == "" {
		return model.Image{}, model.ErrMissingCredential
	}
	body, err := json.Marshal(imageRequest{
		Inputs: prompt,
		Parameters: imageParameters{
			NumInferenceSteps: i.cfg.NumInferenceSteps,
			GuidanceScale:     i.cfg.GuidanceScale,
		},
	})
	if err != nil {
		return model.Image{}, fmt.Errorf("failed to marshal image request: %w", err)
	}

	image, err := i.callModel(ctx, i.cfg.PrimaryURL, body)
	if err == nil {
		return image, nil
	}
	if !errors.Is(err, model.ErrModelUnavailable) || i.cfg.FallbackURL == "" {
		return model.Image{}, err
	}

	log.Printf("primary image model failed, attempting fallback model: %v", err)
	return i.callModel(ctx, i.cfg.FallbackURL, body)
}

func (i *ImageUsecase) callModel(ctx context.Context, modelURL string, body []byte) (model.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, modelURL, bytes.NewReader(body))
	if err != nil {
		return model.Image{}, fmt.Errorf("failed to create image request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+i.cfg.APIToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := i.client.Do(req)
	if err != nil {
		return model.Image{}, fmt.Errorf("failed to call image model %s: %w", modelURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return model.Image{}, model.NewHTTPError(resp.StatusCode, readErrorBody(resp.Body))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageSize))
	if err != nil {
		return model.Image{}, fmt.Errorf("failed to read image from %s: %w", modelURL, err)
	}
	contentType := resp.Header.Get("Content-Type")
	if len(data) == 0 || !strings.HasPrefix(strings.ToLower(contentType), "image/") {
		return model.Image{}, fmt.Errorf("%w: %d bytes of %q", model.ErrEmptyOrInvalidPayload, len(data), contentType)
	}
	return model.Image{
		Data:        data,
		ContentType: contentType,
		Model:       modelURL,
	}, nil
}
