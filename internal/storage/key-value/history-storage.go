package key_value

import (
	"context"
	"errors"
	"fmt"

	"github.com/iamvkosarev/pink-ai-bot/internal/model"
	"github.com/redis/go-redis/v9"
)

const (
	historyKey = "chatHistory"
	themeKey   = "chatTheme"
)

type HistoryStorage struct {
	rdb    *redis.Client
	prefix string
}

func NewHistoryStorage(rdb *redis.Client, prefix string) *HistoryStorage {
	return &HistoryStorage{
		rdb:    rdb,
		prefix: prefix,
	}
}

func (h *HistoryStorage) GetHistory(ctx context.Context) ([]model.Message, error) {
	key := h.prefix + historyKey
	raw, err := h.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrHistoryDoesNotExist
		}
		return nil, fmt.Errorf("failed to get history %s: %w", key, err)
	}
	messages, err := model.DecodeMessages(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode history %s: %w", key, err)
	}
	return messages, nil
}

func (h *HistoryStorage) SetHistory(ctx context.Context, messages []model.Message) error {
	key := h.prefix + historyKey
	raw, err := model.EncodeMessages(messages, false)
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}
	if err = h.rdb.Set(ctx, key, raw, 0).Err(); err != nil {
		return fmt.Errorf("failed to save history %s: %w", key, err)
	}
	return nil
}
