// Package main implements the entry point for the Faros API server,
// a multi-user task manager with sharing, comments, attachments and
// an activity feed.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/phrazzld/faros-api/internal/platform/postgres"
)

// options are the command-line flags accepted by the server binary.
type options struct {
	// migrate runs a single goose command and exits instead of serving.
	migrate string
}

func parseFlags(args []string, output io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("faros-api", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&opts.migrate, "migrate", "",
		"run a migration command (up, down, status, version, reset) and exit")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	switch opts.migrate {
	case "", postgres.MigrateUp, postgres.MigrateDown, postgres.MigrateStatus,
		postgres.MigrateVersion, postgres.MigrateReset:
	default:
		return options{}, fmt.Errorf("unknown migration command %q", opts.migrate)
	}
	return opts, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		log.Fatalf("Invalid arguments: %v", err)
	}

	if err := run(context.Background(), opts); err != nil {
		log.Fatalf("Faros API server failed: %v", err)
	}
}

// run loads configuration, prepares the database and either executes the
// requested migration or serves HTTP until shutdown.
func run(ctx context.Context, opts options) error {
	cfg, err := loadAppConfig()
	if err != nil {
		return err
	}

	logger, err := setupAppLogger(cfg)
	if err != nil {
		return err
	}

	sentryEnabled, err := setupSentry(cfg.Sentry, cfg.Server.Environment)
	if err != nil {
		return err
	}
	if sentryEnabled {
		defer sentry.Flush(2 * time.Second)
		logger.Info("Sentry error reporting enabled")
	}

	db, err := setupAppDatabase(ctx, cfg, logger)
	if err != nil {
		return err
	}

	if opts.migrate != "" {
		defer func() { _ = db.Close() }()
		return postgres.Migrate(ctx, db, opts.migrate, logger)
	}

	if cfg.Server.AutoMigrate {
		if err := postgres.Migrate(ctx, db, postgres.MigrateUp, logger); err != nil {
			_ = db.Close()
			return err
		}
	}

	app, err := newApplication(ctx, cfg, logger, db)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	app.sentry = sentryEnabled

	slog.Info("Faros API starting", "port", cfg.Server.Port, "environment", cfg.Server.Environment)
	return app.Run(ctx)
}
