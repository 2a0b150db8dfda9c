package in_memory

import (
	"context"
	"sync"

	"github.com/iamvkosarev/pink-ai-bot/internal/model"
)

type HistoryStorage struct {
	mu       sync.Mutex
	messages []model.Message
	exists   bool
}

func NewHistoryStorage() *HistoryStorage {
	return &HistoryStorage{}
}

func (h *HistoryStorage) GetHistory(_ context.Context) ([]model.Message, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.exists {
		return nil, model.ErrHistoryDoesNotExist
	}
	return append(make([]model.Message, 0, len(h.messages)), h.messages...), nil
}

func (h *HistoryStorage) SetHistory(_ context.Context, messages []model.Message) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(make([]model.Message, 0, len(messages)), messages...)
	h.exists = true
	return nil
}
