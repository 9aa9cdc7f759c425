package gateway

import (
	"context"

	"github.com/sethvargo/go-envconfig"
)

type Supabase struct {
	URL     string `env:"URL, required"`
	AnonKey string `env:"ANON_KEY, required"`
}

type Vision struct {
	APIKey  string `env:"API_KEY, required"`
	Model   string `env:"MODEL, default=gpt-4o-mini"`
	BaseURL string `env:"BASE_URL"`
}

type Config struct {
	ListenAddr   string   `env:"MEALSNAP_LISTEN_ADDR, default=0.0.0.0:3000"`
	CookieSecret string   `env:"MEALSNAP_COOKIE_SECRET, default=00000000000000000000000000000000"`
	DeviceSecret string   `env:"MEALSNAP_DEVICE_SECRET"`
	OutboxPath   string   `env:"MEALSNAP_OUTBOX_PATH, default=mealsnap.db"`
	Supabase     Supabase `env:",prefix=MEALSNAP_SUPABASE_"`
	Vision       Vision   `env:",prefix=MEALSNAP_VISION_"`

	// This disables device signature verification so use with caution.
	Dev bool `env:"MEALSNAP_DEV, default=false"`
}

func LoadConfig(ctx context.Context) (*Config, error) {
	var cfg Config
	err := envconfig.Process(ctx, &cfg)
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}
