package in_memory

import (
	"context"
	"sync"

	"github.com/iamvkosarev/pink-ai-bot/internal/model"
)

type ThemeStorage struct {
	mu    sync.Mutex
	theme model.Theme
}

func NewThemeStorage() *ThemeStorage {
	return &ThemeStorage{}
}

func (s *ThemeStorage) GetTheme(_ context.Context) (model.Theme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.theme == "" {
		return "", model.ErrThemeDoesNotExist
	}
	return s.theme, nil
}

func (s *ThemeStorage) SetTheme(_ context.Context, theme model.Theme) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.theme = theme
	return nil
}
