package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/iamvkosarev/pink-ai-bot/config"
	"github.com/iamvkosarev/pink-ai-bot/internal/model"
)

const exportFileNameFormat = "chat-history-%s.json"

type HistoryStorage interface {
	GetHistory(ctx context.Context) ([]model.Message, error)
	SetHistory(ctx context.Context, messages []model.Message) error
}

type HistoryUsecaseDeps struct {
	HistoryStorage HistoryStorage
}

// HistoryUsecase owns the conversation log. Every mutation rewrites the whole
// snapshot in storage.
type HistoryUsecase struct {
	HistoryUsecaseDeps
	maxHistory int
	now        func() time.Time
	newID      func() string

	mu       sync.Mutex
	messages []model.Message
}

func NewHistoryUsecase(deps HistoryUsecaseDeps, cfg config.Chat) *HistoryUsecase {
	return &HistoryUsecase{
		HistoryUsecaseDeps: deps,
		maxHistory:         cfg.MaxHistory,
		now:                time.Now,
		newID:              func() string { return uuid.New().String() },
		messages:           make([]model.Message, 0),
	}
}

// Load replaces the in-memory log with the stored snapshot. A missing or
// unreadable snapshot starts an empty log.
func (h *HistoryUsecase) Load(ctx context.Context) []model.Message {
	messages, err := h.HistoryStorage.GetHistory(ctx)
	if err != nil {
		if !errors.Is(err, model.ErrHistoryDoesNotExist) {
			log.Printf("failed to load history, starting empty: %v", err)
		}
		messages = make([]model.Message, 0)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = h.trim(messages)
	return h.copyLocked()
}

func (h *HistoryUsecase) Append(ctx context.Context, kind model.MessageKind, content string) (model.Message, error) {
	msg := model.Message{
		Kind:      kind,
		Content:   content,
		CreatedAt: h.now().UTC().Round(0),
		ID:        h.newID(),
	}

	h.mu.Lock()
	h.messages = h.trim(append(h.messages, msg))
	snapshot := h.copyLocked()
	h.mu.Unlock()

	if err := h.HistoryStorage.SetHistory(ctx, snapshot); err != nil {
		return msg, fmt.Errorf("failed to persist history: %w", err)
	}
	return msg, nil
}

func (h *HistoryUsecase) Clear(ctx context.Context) error {
	h.mu.Lock()
	h.messages = make([]model.Message, 0)
	h.mu.Unlock()

	if err := h.HistoryStorage.SetHistory(ctx, make([]model.Message, 0)); err != nil {
		return fmt.Errorf("failed to persist cleared history: %w", err)
	}
	return nil
}

// Export renders the current log as indented JSON without touching it.
func (h *HistoryUsecase) Export() ([]byte, error) {
	data, err := model.EncodeMessages(h.Messages(), true)
	if err != nil {
		return nil, fmt.Errorf("failed to encode history: %w", err)
	}
	return data, nil
}

func (h *HistoryUsecase) Messages() []model.Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.copyLocked()
}

func (h *HistoryUsecase) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.messages)
}

func ExportFileName(now time.Time) string {
	return fmt.Sprintf(exportFileNameFormat, now.Format(time.DateOnly))
}

func (h *HistoryUsecase) trim(messages []model.Message) []model.Message {
	if h.maxHistory > 0 && len(messages) > h.maxHistory {
		messages = messages[len(messages)-h.maxHistory:]
	}
	return append(make([]model.Message, 0, len(messages)), messages...)
}

func (h *HistoryUsecase) copyLocked() []model.Message {
	return append(make([]model.Message, 0, len(h.messages)), h.messages...)
}
