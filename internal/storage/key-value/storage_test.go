package key_value

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/iamvkosarev/pink-ai-bot/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestHistoryStorage(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newRedis(t)
	storage := NewHistoryStorage(rdb, "test:")

	_, err := storage.GetHistory(ctx)
	require.ErrorIs(t, err, model.ErrHistoryDoesNotExist)

	messages := []model.Message{
		{Kind: model.MessageKindUser, Content: "hi", CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), ID: "a"},
		{Kind: model.MessageKindAssistant, Content: "<b>hello</b>", CreatedAt: time.Date(2026, 1, 2, 3, 4, 6, 0, time.UTC), ID: "b"},
	}
	require.NoError(t, storage.SetHistory(ctx, messages))
	assert.True(t, mr.Exists("test:chatHistory"))

	got, err := storage.GetHistory(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "hi", got[0].Content)
	assert.Equal(t, model.MessageKindAssistant, got[1].Kind)
	assert.True(t, messages[1].CreatedAt.Equal(got[1].CreatedAt))

	require.NoError(t, storage.SetHistory(ctx, nil))
	got, err = storage.GetHistory(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestHistoryStorage_Corrupt(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newRedis(t)
	require.NoError(t, mr.Set("chatHistory", "{not json"))

	_, err := NewHistoryStorage(rdb, "").GetHistory(ctx)
	require.ErrorIs(t, err, model.ErrCorruptHistory)
}

func TestThemeStorage(t *testing.T) {
	ctx := context.Background()
	_, rdb := newRedis(t)
	storage := NewThemeStorage(rdb, "test:")

	_, err := storage.GetTheme(ctx)
	require.ErrorIs(t, err, model.ErrThemeDoesNotExist)

	require.NoError(t, storage.SetTheme(ctx, model.ThemeLight))
	theme, err := storage.GetTheme(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.ThemeLight, theme)
}
