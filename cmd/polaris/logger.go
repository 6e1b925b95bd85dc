package main

import (
	"log/slog"
	"os"

	"github.com/lmittmann/tint"

	"github.com/elee1766/polaris/src/config"
)

// createLogger builds the process logger. Text goes through tint on
// stderr; json is meant for log collectors.
func createLogger(cfg config.LoggingConfig) (*slog.Logger, error) {
	level := slog.LevelInfo
	if cfg.Level != "" {
		l, err := config.ParseLogLevel(cfg.Level)
		if err != nil {
			return nil, err
		}
		level = l
	}

	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		})), nil
	}
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level: level,
	})), nil
}
