package main

import (
	"fmt"

	"github.com/getsentry/sentry-go"

	"github.com/phrazzld/faros-api/internal/config"
)

// setupSentry initializes the global Sentry client. It reports false
// without error when no DSN is configured.
func setupSentry(cfg config.SentryConfig, fallbackEnv string) (bool, error) {
	if cfg.DSN == "" {
		return false, nil
	}

	env := cfg.Environment
	if env == "" {
		env = fallbackEnv
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      env,
		EnableTracing:    cfg.TracesSampleRate > 0,
		TracesSampleRate: cfg.TracesSampleRate,
		AttachStacktrace: true,
	})
	if err != nil {
		return false, fmt.Errorf("failed to initialize sentry: %w", err)
	}
	return true, nil
}
