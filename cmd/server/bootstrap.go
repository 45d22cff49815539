package main

import (
	"fmt"
	"log/slog"

	"github.com/phrazzld/faros-api/internal/config"
	"github.com/phrazzld/faros-api/internal/platform/logger"
)

func loadAppConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// setupAppLogger installs the configured logger as the slog default and
// records which optional integrations are active. Secrets are reported as
// present or absent only.
func setupAppLogger(cfg *config.Config) (*slog.Logger, error) {
	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	log.Info("configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.String("environment", cfg.Server.Environment),
		slog.String("email_provider", cfg.Email.Provider),
		slog.String("upload_dir", cfg.Storage.UploadDir),
		slog.Bool("redis", cfg.Redis.URL != ""),
		slog.Bool("rate_limit", cfg.RateLimit.Enabled),
		slog.Bool("sentry", cfg.Sentry.DSN != ""))
	return log, nil
}
