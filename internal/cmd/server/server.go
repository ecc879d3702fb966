// Package server parses planning command flags and composes the entrypoint.
package server

import (
	"context"
	"flag"
	"fmt"
	"time"

	entrypoint "github.com/toninhor/scrum-poker-planning/internal/platform/cmd"
	app "github.com/toninhor/scrum-poker-planning/internal/services/planning/app"
)

// Config holds planning command configuration.
type Config struct {
	HTTPAddr    string        `env:"SCRUM_POKER_HTTP_ADDR"    envDefault:":8080"`
	StoragePath string        `env:"SCRUM_POKER_STORAGE_PATH" envDefault:"planning.db"`
	TokenSecret string        `env:"SCRUM_POKER_TOKEN_SECRET"`
	TokenTTL    time.Duration `env:"SCRUM_POKER_TOKEN_TTL"    envDefault:"24h"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "planning HTTP listen address")
	fs.StringVar(&cfg.StoragePath, "storage-path", cfg.StoragePath, "SQLite database path")
	fs.StringVar(&cfg.TokenSecret, "token-secret", cfg.TokenSecret, "session token signing secret")
	fs.DurationVar(&cfg.TokenTTL, "token-ttl", cfg.TokenTTL, "session token lifetime")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run builds the planning app and serves until the context ends.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServicePlanning, func(context.Context) error {
		if err := app.Run(ctx, app.Config{
			HTTPAddr:    cfg.HTTPAddr,
			StoragePath: cfg.StoragePath,
			TokenSecret: cfg.TokenSecret,
			TokenTTL:    cfg.TokenTTL,
		}); err != nil {
			return fmt.Errorf("serve planning: %w", err)
		}
		return nil
	})
}
