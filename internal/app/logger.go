package app

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// NewLogger returns a configured slog.Logger based on configuration and
// installs it as the default logger.
func NewLogger(cfg *Config) *slog.Logger {
	logger := slog.New(newHandler(os.Stdout, isatty.IsTerminal(os.Stdout.Fd()), cfg))
	slog.SetDefault(logger)
	return logger
}

func newHandler(out io.Writer, color bool, cfg *Config) slog.Handler {
	level := cfg.Level()
	if cfg != nil && cfg.LogFormat == "json" {
		return slog.NewJSONHandler(out, &slog.HandlerOptions{AddSource: true, Level: level})
	}
	return tint.NewHandler(out, &tint.Options{
		Level:      level,
		AddSource:  true,
		TimeFormat: time.RFC3339,
		NoColor:    !color,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Value.Kind() == slog.KindAny {
				if _, ok := a.Value.Any().(error); ok {
					return tint.Attr(9, a)
				}
			}
			return a
		},
	})
}
