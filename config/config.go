package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	TextProviderGemini = "gemini"
	TextProviderOpenAI = "openai"

	StorageDriverRedis  = "redis"
	StorageDriverBolt   = "bolt"
	StorageDriverMemory = "memory"
)

type Telegram struct {
	TelegramAPIToken string  `env:"TELEGRAM_APITOKEN" env-required:"true"`
	OwnerTelegramID  int64   `yaml:"owner_telegram_id" env:"OWNER_TELEGRAM_ID" env-required:"true"`
	SendRatePerSec   float64 `yaml:"send_rate_per_sec" env:"TELEGRAM_SEND_RATE" env-default:"20"`
	UpdateTimeout    int     `yaml:"update_timeout_seconds" env-default:"60"`
}

type Gemini struct {
	APIKey  string `env:"GEMINI_API_KEY"`
	BaseURL string `yaml:"base_url" env:"GEMINI_BASE_URL" env-default:"https://generativelanguage.googleapis.com/v1beta"`
	Model   string `yaml:"model" env:"GEMINI_MODEL" env-default:"gemini-1.5-flash"`
}

type OpenAI struct {
	OpenAIAPIKey     string  `env:"OPENAI_API_KEY"`
	OpenAIModel      string  `yaml:"openai_model" env:"OPENAI_MODEL" env-default:"gpt-4o-mini"`
	OpenAIBaseURL    string  `yaml:"open_ai_base_url" env:"OPENAI_BASE_URL" env-default:"https://api.openai.com/v1"`
	ModelTemperature float32 `yaml:"model_temperature" env:"MODEL_TEMPERATURE" env-default:"1"`
	CountTokens      bool    `yaml:"count_tokens" env:"OPENAI_COUNT_TOKENS"`
}

type TextGeneration struct {
	Provider string `yaml:"provider" env:"TEXT_PROVIDER" env-default:"gemini"`
	Gemini   Gemini `yaml:"gemini"`
	OpenAI   OpenAI `yaml:"openai"`
}

type ImageGeneration struct {
	APIToken          string  `env:"HF_API_TOKEN"`
	PrimaryURL        string  `yaml:"primary_url" env:"IMAGE_PRIMARY_URL" env-default:"https://api-inference.huggingface.co/models/stabilityai/stable-diffusion-xl-base-1.0"`
	FallbackURL       string  `yaml:"fallback_url" env:"IMAGE_FALLBACK_URL" env-default:"https://api-inference.huggingface.co/models/runwayml/stable-diffusion-v1-5"`
	WhoAmIURL         string  `yaml:"whoami_url" env:"IMAGE_WHOAMI_URL" env-default:"https://huggingface.co/api/whoami"`
	NumInferenceSteps int     `yaml:"num_inference_steps" env-default:"20"`
	GuidanceScale     float64 `yaml:"guidance_scale" env-default:"7.5"`
	// Cron schedule for repeating the token check; empty means startup only.
	AuthProbeSchedule string `yaml:"auth_probe_schedule" env:"IMAGE_AUTH_PROBE_SCHEDULE"`
}

type Chat struct {
	MaxHistory       int           `yaml:"max_history" env:"CHAT_MAX_HISTORY" env-default:"50"`
	RequestTimeout   time.Duration `yaml:"request_timeout" env:"CHAT_REQUEST_TIMEOUT" env-default:"60s"`
	RouteImageIntent bool          `yaml:"route_image_intent" env:"CHAT_ROUTE_IMAGE_INTENT"`
}

type Redis struct {
	Endpoint  string `yaml:"endpoint" env:"REDIS_ENDPOINT" env-default:"localhost:6379"`
	Password  string `env:"REDIS_PASSWORD"`
	DB        int    `yaml:"db" env:"REDIS_DB"`
	KeyPrefix string `yaml:"key_prefix" env:"REDIS_KEY_PREFIX" env-default:"pink:"`
}

type Bolt struct {
	Path string `yaml:"path" env:"BOLT_PATH" env-default:"data/pink.bolt"`
}

type Storage struct {
	Driver string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"redis"`
	Redis  Redis  `yaml:"redis"`
	Bolt   Bolt   `yaml:"bolt"`
}

type Config struct {
	Telegram        Telegram        `yaml:"telegram"`
	TextGeneration  TextGeneration  `yaml:"text_generation"`
	ImageGeneration ImageGeneration `yaml:"image_generation"`
	Chat            Chat            `yaml:"chat"`
	Storage         Storage         `yaml:"storage"`
}

func LoadConfig(cfgPath string) (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadConfig(cfgPath, &cfg); err != nil {
		return nil, err
	}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.TextGeneration.Provider {
	case TextProviderGemini:
		if c.TextGeneration.Gemini.APIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for provider %s", TextProviderGemini)
		}
	case TextProviderOpenAI:
		if c.TextGeneration.OpenAI.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for provider %s", TextProviderOpenAI)
		}
	default:
		return fmt.Errorf("unknown text provider %q", c.TextGeneration.Provider)
	}
	switch c.Storage.Driver {
	case StorageDriverRedis, StorageDriverBolt, StorageDriverMemory:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Chat.MaxHistory <= 0 {
		return fmt.Errorf("chat.max_history must be positive, got %d", c.Chat.MaxHistory)
	}
	if c.Chat.RequestTimeout <= 0 {
		return fmt.Errorf("chat.request_timeout must be positive, got %s", c.Chat.RequestTimeout)
	}
	return nil
}
