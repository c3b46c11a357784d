// Package config aggregates the per-package configuration of the qalam
// binaries into one struct loaded from the environment.
package config

import (
	"errors"
	"fmt"

	loader "github.com/qalam-studio/qalam/pkg/config"
	"github.com/qalam-studio/qalam/pkg/email"
	"github.com/qalam-studio/qalam/pkg/httpserver"
	"github.com/qalam-studio/qalam/pkg/pg"
	"github.com/qalam-studio/qalam/pkg/redis"
	"github.com/qalam-studio/qalam/svc/billing"
	"github.com/qalam-studio/qalam/svc/dunning"
	"github.com/qalam-studio/qalam/svc/notify"
	"github.com/qalam-studio/qalam/svc/usage"
)

// Plan catalog sources.
const (
	PlansSourceYAML     = "yaml"
	PlansSourcePostgres = "postgres"
)

var (
	ErrMissingAPIKey      = errors.New("INTERNAL_API_KEY is required")
	ErrUnknownPlansSource = errors.New("unknown plans source")
)

type App struct {
	Env         string `env:"APP_ENV" envDefault:"development"` // Env is development, staging or production.
	ServiceName string `env:"SERVICE_NAME" envDefault:"qalam"`  // ServiceName is attached to every log record.
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`      // LogLevel is debug, info, warn or error.
	APIKey      string `env:"INTERNAL_API_KEY"`                 // APIKey authenticates internal API callers.
	CronSecret  string `env:"CRON_SECRET"`                      // CronSecret authenticates the dunning trigger. Empty disables it.
	PlansSource string `env:"PLANS_SOURCE" envDefault:"yaml"`   // PlansSource is yaml or postgres.
	PlansFile   string `env:"PLANS_FILE"`                       // PlansFile overrides the embedded YAML catalog.
}

// Config is the full application configuration.
type Config struct {
	App     App
	HTTP    httpserver.Config
	PG      pg.Config
	Redis   redis.Config
	Email   email.Config
	Notify  notify.Config
	Billing billing.Config
	PayPal  billing.PayPalConfig
	Paddle  billing.PaddleConfig
	Dunning dunning.Config
	Usage   usage.Config
}

// Load reads the configuration from the environment and an optional .env file.
func Load() (Config, error) {
	var cfg Config
	if err := loader.Load(&cfg); err != nil {
		return Config{}, err
	}
	switch cfg.App.PlansSource {
	case PlansSourceYAML, PlansSourcePostgres:
	default:
		return Config{}, fmt.Errorf("%w: %q", ErrUnknownPlansSource, cfg.App.PlansSource)
	}
	return cfg, nil
}

// ValidateServer checks the settings only the HTTP server needs.
func (c Config) ValidateServer() error {
	if c.App.APIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}
