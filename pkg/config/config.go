package config

import (
	"fmt"
	"log"
	"sync"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	App struct {
		Env       string `env:"APP_ENV" env-default:"development"`
		Port      int    `env:"APP_PORT" env-default:"8080"`
		SentryDSN string `env:"SENTRY_DSN"`
	}
	Postgres struct {
		Port    int    `env:"POSTGRES_PORT" env-default:"5432"`
		Host    string `env:"POSTGRES_HOST" env-default:"localhost"`
		User    string `env:"POSTGRES_USER"`
		Pass    string `env:"POSTGRES_PASS"`
		Name    string `env:"POSTGRES_NAME"`
		SslMode string `env:"POSTGRES_SSL_MODE" env-default:"disable"`
	}
	TikTok struct {
		ClientKey    string `env:"TIKTOK_CLIENT_KEY"`
		ClientSecret string `env:"TIKTOK_CLIENT_SECRET"`
	}
	Google struct {
		ClientID     string `env:"GOOGLE_CLIENT_ID"`
		ClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	}
	Meta struct {
		AppID     string `env:"FACEBOOK_APP_ID"`
		AppSecret string `env:"FACEBOOK_APP_SECRET"`
	}
	Anthropic struct {
		APIKey    string `env:"ANTHROPIC_API_KEY"`
		Model     string `env:"ANTHROPIC_MODEL" env-default:"claude-sonnet-4-5"`
		MaxTokens int    `env:"ANTHROPIC_MAX_TOKENS" env-default:"8096"`
	}
	NLPService struct {
		URL    string `env:"NLP_SERVICE_URL" env-default:"http://localhost:8000"`
		Secret string `env:"NLP_SERVICE_SECRET"`
	}
	Notify struct {
		WebhookURL string `env:"NOTIFY_WEBHOOK_URL"`
	}
	Worker struct {
		PoolSize  int `env:"WORKER_POOL_SIZE" env-default:"4"`
		QueueSize int `env:"WORKER_QUEUE_SIZE" env-default:"64"`
	}
	Competitor struct {
		RefreshHours int `env:"COMPETITOR_REFRESH_HOURS" env-default:"24"`
	}
}

var (
	once sync.Once
	cfg  *Config
)

func New() (*Config, error) {
	once.Do(func() {
		cfg = &Config{}
		if err := cleanenv.ReadEnv(cfg); err != nil {
			help, _ := cleanenv.GetDescription(cfg, nil)
			log.Fatalf("Failed to read configuration: %v\n%v", err, help)
		}
	})
	return cfg, nil
}

func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Postgres.User,
		c.Postgres.Pass,
		c.Postgres.Host,
		c.Postgres.Port,
		c.Postgres.Name,
		c.Postgres.SslMode,
	)
}
