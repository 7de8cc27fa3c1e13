package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// demoConfig is read from the environment (and .env when present); flags
// override individual fields.
type demoConfig struct {
	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPrefix   string        `env:"AUTHSESSION_REDIS_PREFIX" envDefault:"authsession"`
	StoreTTL      time.Duration `env:"AUTHSESSION_STORE_TTL" envDefault:"24h"`
	Key           string        `env:"AUTHSESSION_KEY" envDefault:"__jwt"`
	Secret        string        `env:"AUTHSESSION_SECRET" envDefault:"demo-secret-change-me"`
	Issuer        string        `env:"AUTHSESSION_ISSUER" envDefault:"authsession-demo"`
	TokenTTL      time.Duration `env:"AUTHSESSION_TOKEN_TTL" envDefault:"3s"`
	CheckInterval time.Duration `env:"AUTHSESSION_CHECK_INTERVAL" envDefault:"1s"`
	Username      string        `env:"AUTHSESSION_USERNAME" envDefault:"demo"`
	Roles         []string      `env:"AUTHSESSION_ROLES" envSeparator:"," envDefault:"user"`
	Audit         bool          `env:"AUTHSESSION_AUDIT" envDefault:"true"`
	LogLevel      string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat     string        `env:"LOG_FORMAT" envDefault:"text"`
}

var errInvalidConfig = errors.New("invalid demo configuration")

// loadConfig loads dotenv files (missing ones are ignored), parses the
// environment and then applies command-line overrides from args.
func loadConfig(args []string, dotenv ...string) (demoConfig, error) {
	_ = godotenv.Load(dotenv...)

	var cfg demoConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("%w: %v", errInvalidConfig, err)
	}

	fs := flag.NewFlagSet("authsession-demo", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&cfg.RedisAddr, "redis-addr", cfg.RedisAddr, "redis address; in-process miniredis when empty")
	fs.StringVar(&cfg.Key, "key", cfg.Key, "token store key")
	fs.DurationVar(&cfg.TokenTTL, "ttl", cfg.TokenTTL, "lifetime of the issued token")
	fs.DurationVar(&cfg.CheckInterval, "interval", cfg.CheckInterval, "expiry watchdog interval")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	if err := fs.Parse(args); err != nil {
		return cfg, fmt.Errorf("%w: %v", errInvalidConfig, err)
	}

	if cfg.CheckInterval <= 0 {
		return cfg, fmt.Errorf("%w: interval must be positive", errInvalidConfig)
	}
	if cfg.Secret == "" {
		return cfg, fmt.Errorf("%w: secret is required", errInvalidConfig)
	}
	return cfg, nil
}

func newLogger(cfg demoConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(cfg.LogFormat, "json") {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler).With(slog.String("component", "authsession-demo"))
}
