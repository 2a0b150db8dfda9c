package usecase

import (
	"context"
	"testing"

	"github.com/iamvkosarev/pink-ai-bot/config"
	"github.com/iamvkosarev/pink-ai-bot/internal/model"
	in_memory "github.com/iamvkosarev/pink-ai-bot/internal/storage/in-memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThemeUsecase_DefaultsToDark(t *testing.T) {
	theme := NewThemeUsecase(ThemeUsecaseDeps{ThemeStorage: in_memory.NewThemeStorage()})
	assert.Equal(t, model.ThemeDark, theme.Load(context.Background()))
}

func TestThemeUsecase_InvalidStoredValue(t *testing.T) {
	ctx := context.Background()
	storage := in_memory.NewThemeStorage()
	require.NoError(t, storage.SetTheme(ctx, model.Theme("neon")))

	theme := NewThemeUsecase(ThemeUsecaseDeps{ThemeStorage: storage})
	assert.Equal(t, model.ThemeDark, theme.Load(ctx))
}

func TestThemeUsecase_TogglePersists(t *testing.T) {
	ctx := context.Background()
	storage := in_memory.NewThemeStorage()
	theme := NewThemeUsecase(ThemeUsecaseDeps{ThemeStorage: storage})
	theme.Load(ctx)

	got, err := theme.Toggle(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.ThemeLight, got)

	reloaded := NewThemeUsecase(ThemeUsecaseDeps{ThemeStorage: storage})
	assert.Equal(t, model.ThemeLight, reloaded.Load(ctx))

	got, err = reloaded.Toggle(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.ThemeDark, got)
}

func TestThemeUsecase_ClearHistoryKeepsTheme(t *testing.T) {
	ctx := context.Background()
	themeStorage := in_memory.NewThemeStorage()
	theme := NewThemeUsecase(ThemeUsecaseDeps{ThemeStorage: themeStorage})
	_, err := theme.Toggle(ctx)
	require.NoError(t, err)

	history := NewHistoryUsecase(HistoryUsecaseDeps{HistoryStorage: in_memory.NewHistoryStorage()}, config.Chat{MaxHistory: 50})
	require.NoError(t, history.Clear(ctx))

	assert.Equal(t, model.ThemeLight, theme.Load(ctx))
}
