package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/iamvkosarev/pink-ai-bot/internal/model"
)

type ThemeStorage interface {
	GetTheme(ctx context.Context) (model.Theme, error)
	SetTheme(ctx context.Context, theme model.Theme) error
}

type ThemeUsecaseDeps struct {
	ThemeStorage ThemeStorage
}

type ThemeUsecase struct {
	ThemeUsecaseDeps
	mu      sync.Mutex
	current model.Theme
}

func NewThemeUsecase(deps ThemeUsecaseDeps) *ThemeUsecase {
	return &ThemeUsecase{
		ThemeUsecaseDeps: deps,
		current:          model.DefaultTheme,
	}
}

func (t *ThemeUsecase) Load(ctx context.Context) model.Theme {
	theme, err := t.ThemeStorage.GetTheme(ctx)
	if err != nil && !errors.Is(err, model.ErrThemeDoesNotExist) {
		log.Printf("failed to load theme, using %s: %v", model.DefaultTheme, err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.current = model.ParseTheme(string(theme))
	return t.current
}

func (t *ThemeUsecase) Current() model.Theme {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

func (t *ThemeUsecase) Toggle(ctx context.Context) (model.Theme, error) {
	t.mu.Lock()
	t.current = t.current.Toggle()
	theme := t.current
	t.mu.Unlock()

	if err := t.ThemeStorage.SetTheme(ctx, theme); err != nil {
		return theme, fmt.Errorf("failed to persist theme: %w", err)
	}
	return theme, nil
}

func themeIcon(theme model.Theme) string {
	if theme == model.ThemeLight {
		return "☀️"
	}
	return "🌙"
}
