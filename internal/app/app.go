package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/iamvkosarev/pink-ai-bot/config"
	"github.com/iamvkosarev/pink-ai-bot/internal/storage/bolt"
	in_memory "github.com/iamvkosarev/pink-ai-bot/internal/storage/in-memory"
	key_value "github.com/iamvkosarev/pink-ai-bot/internal/storage/key-value"
	"github.com/iamvkosarev/pink-ai-bot/internal/usecase"
	"github.com/redis/go-redis/v9"
)

const startupProbeTimeout = 15 * time.Second

type storages struct {
	history usecase.HistoryStorage
	theme   usecase.ThemeStorage
	close   func() error
}

func Run(ctx context.Context, cfg *config.Config) error {
	bot, err := api.NewBotAPI(cfg.Telegram.TelegramAPIToken)
	if err != nil {
		return fmt.Errorf("failed to create new bot: %w", err)
	}
	log.Printf("Authorized on account %s", bot.Self.UserName)

	store, err := openStorage(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.close(); err != nil {
			log.Printf("failed to close storage: %v", err)
		}
	}()

	httpClient := &http.Client{}

	historyUsecase := usecase.NewHistoryUsecase(
		usecase.HistoryUsecaseDeps{
			HistoryStorage: store.history,
		}, cfg.Chat,
	)
	historyUsecase.Load(ctx)

	themeUsecase := usecase.NewThemeUsecase(
		usecase.ThemeUsecaseDeps{
			ThemeStorage: store.theme,
		},
	)
	themeUsecase.Load(ctx)

	textGenerator, err := newTextGenerator(cfg.TextGeneration, httpClient)
	if err != nil {
		return err
	}

	chatUsecase := usecase.NewChatUsecase(
		usecase.ChatUsecaseDeps{
			Intent:  usecase.NewIntentUsecase(),
			History: historyUsecase,
			Text:    textGenerator,
			Image:   usecase.NewImageUsecase(cfg.ImageGeneration, httpClient),
		}, cfg.Chat,
	)

	authProbeUsecase := usecase.NewAuthProbeUsecase(cfg.ImageGeneration, httpClient)
	probeCtx, cancelProbe := context.WithTimeout(ctx, startupProbeTimeout)
	_ = authProbeUsecase.Probe(probeCtx)
	cancelProbe()
	if err = authProbeUsecase.Start(ctx); err != nil {
		return err
	}
	defer authProbeUsecase.Stop()

	telegramUsecase, err := usecase.NewTelegramUsecase(
		cfg.Telegram, usecase.TelegramUsecaseDeps{
			Bot:       bot,
			Chat:      chatUsecase,
			History:   historyUsecase,
			Theme:     themeUsecase,
			AuthProbe: authProbeUsecase,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to create telegram usecase: %w", err)
	}

	return telegramUsecase.Run(ctx)
}

func newTextGenerator(cfg config.TextGeneration, client *http.Client) (usecase.TextGenerator, error) {
	switch cfg.Provider {
	case config.TextProviderGemini:
		return usecase.NewGeminiUsecase(cfg.Gemini, client), nil
	case config.TextProviderOpenAI:
		return usecase.NewOpenAIUsecase(cfg.OpenAI), nil
	default:
		return nil, fmt.Errorf("unknown text provider %q", cfg.Provider)
	}
}

func openStorage(ctx context.Context, cfg config.Storage) (storages, error) {
	switch cfg.Driver {
	case config.StorageDriverRedis:
		rdb := redis.NewClient(
			&redis.Options{
				Addr:     cfg.Redis.Endpoint,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			},
		)
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return storages{}, fmt.Errorf("failed to connect to redis %s: %w", cfg.Redis.Endpoint, err)
		}
		return storages{
			history: key_value.NewHistoryStorage(rdb, cfg.Redis.KeyPrefix),
			theme:   key_value.NewThemeStorage(rdb, cfg.Redis.KeyPrefix),
			close:   rdb.Close,
		}, nil
	case config.StorageDriverBolt:
		db, err := bolt.Open(cfg.Bolt.Path)
		if err != nil {
			return storages{}, err
		}
		return storages{history: db, theme: db, close: db.Close}, nil
	case config.StorageDriverMemory:
		return storages{
			history: in_memory.NewHistoryStorage(),
			theme:   in_memory.NewThemeStorage(),
			close:   func() error { return nil },
		}, nil
	default:
		return storages{}, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
