// Package bolt keeps the conversation log and theme preference in a single
// bbolt file, for deployments without Redis.
package bolt

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/iamvkosarev/pink-ai-bot/internal/model"
	bolt "go.etcd.io/bbolt"
)

var (
	bucketName = []byte("pink")
	historyKey = []byte("chatHistory")
	themeKey   = []byte("chatTheme")
)

type Storage struct {
	db *bolt.DB
}

func Open(path string) (*Storage, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create bolt dir: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}
	return &Storage{db: db}, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) GetHistory(_ context.Context) ([]model.Message, error) {
	raw, err := s.get(historyKey)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, model.ErrHistoryDoesNotExist
	}
	messages, err := model.DecodeMessages(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode history: %w", err)
	}
	return messages, nil
}

func (s *Storage) SetHistory(_ context.Context, messages []model.Message) error {
	raw, err := model.EncodeMessages(messages, false)
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}
	return s.put(historyKey, raw)
}

func (s *Storage) GetTheme(_ context.Context) (model.Theme, error) {
	raw, err := s.get(themeKey)
	if err != nil {
		return "", err
	}
	if raw == nil {
		return "", model.ErrThemeDoesNotExist
	}
	return model.Theme(raw), nil
}

func (s *Storage) SetTheme(_ context.Context, theme model.Theme) error {
	return s.put(themeKey, []byte(theme))
}

func (s *Storage) get(key []byte) ([]byte, error) {
	var out []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		if b == nil {
			return nil
		}
		if v := b.Get(key); v != nil {
			// v is only valid inside the transaction
			out = append([]byte{}, v...)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return out, nil
}

func (s *Storage) put(key, value []byte) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketName)
		if err != nil {
			return err
		}
		return b.Put(key, value)
	})
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}
