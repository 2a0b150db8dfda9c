package key_value

import (
	"context"
	"errors"
	"fmt"

	"github.com/iamvkosarev/pink-ai-bot/internal/model"
	"github.com/redis/go-redis/v9"
)

type ThemeStorage struct {
	rdb    *redis.Client
	prefix string
}

func NewThemeStorage(rdb *redis.Client, prefix string) *ThemeStorage {
	return &ThemeStorage{
		rdb:    rdb,
		prefix: prefix,
	}
}

func (s *ThemeStorage) GetTheme(ctx context.Context) (model.Theme, error) {
	key := s.prefix + themeKey
	raw, err := s.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", model.ErrThemeDoesNotExist
		}
		return "", fmt.Errorf("failed to get theme %s: %w", key, err)
	}
	return model.Theme(raw), nil
}

func (s *ThemeStorage) SetTheme(ctx context.Context, theme model.Theme) error {
	key := s.prefix + themeKey
	if err := s.rdb.Set(ctx, key, string(theme), 0).Err(); err != nil {
		return fmt.Errorf("failed to save theme %s: %w", key, err)
	}
	return nil
}
