package app

import (
	"errors"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// testModeEnv is set by the shared test bootstrap.
const testModeEnv = "STOREFRONT_TEST_MODE"

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"60s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"45s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`

	RedisAddr     string        `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	SessionSecret string        `envconfig:"SESSION_SECRET" required:"true"`
	SessionTTL    time.Duration `envconfig:"SESSION_TTL" default:"720h"`

	CSRFSecret string `envconfig:"CSRF_SECRET" required:"true"`

	CatalogAPIURL     string        `envconfig:"CATALOG_API_URL" default:"http://localhost:5001"`
	CatalogAPITimeout time.Duration `envconfig:"CATALOG_API_TIMEOUT" default:"15s"`

	EditorStateTTL time.Duration `envconfig:"EDITOR_STATE_TTL" default:"24h"`
	PreviewTTL     time.Duration `envconfig:"PREVIEW_TTL" default:"2h"`
	SubmitLockTTL  time.Duration `envconfig:"SUBMIT_LOCK_TTL" default:"2m"`
	MaxUploadBytes int64         `envconfig:"MAX_UPLOAD_BYTES" default:"52428800"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.SessionSecret == "" {
		return nil, errors.New("session secret must be provided")
	}
	if cfg.CSRFSecret == "" {
		return nil, errors.New("csrf secret must be provided")
	}
	if cfg.MaxUploadBytes <= 0 {
		return nil, errors.New("max upload bytes must be positive")
	}
	if cfg.SubmitLockTTL < cfg.CatalogAPITimeout {
		return nil, errors.New("submit lock ttl must cover the catalog api timeout")
	}
	return &cfg, nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

// Level maps LOG_LEVEL onto a slog level. Unknown values fall back to info.
func (c *Config) Level() slog.Level {
	if c == nil {
		return slog.LevelInfo
	}
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// InTestMode reports whether the binary runs under the test bootstrap and
// should not start the server.
func InTestMode() bool {
	return os.Getenv(testModeEnv) == "1"
}
