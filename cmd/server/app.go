package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/phrazzld/faros-api/internal/api"
	"github.com/phrazzld/faros-api/internal/config"
	"github.com/phrazzld/faros-api/internal/events"
	"github.com/phrazzld/faros-api/internal/jobs"
	"github.com/phrazzld/faros-api/internal/notify"
	"github.com/phrazzld/faros-api/internal/platform/cache"
	"github.com/phrazzld/faros-api/internal/platform/email"
	"github.com/phrazzld/faros-api/internal/platform/metrics"
	"github.com/phrazzld/faros-api/internal/platform/postgres"
	"github.com/phrazzld/faros-api/internal/platform/ratelimit"
	"github.com/phrazzld/faros-api/internal/platform/storage"
	"github.com/phrazzld/faros-api/internal/service"
	"github.com/phrazzld/faros-api/internal/service/auth"
	"github.com/phrazzld/faros-api/internal/store"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB
	redis  *redis.Client

	metrics *metrics.Metrics
	emitter *events.InMemoryEventEmitter
	runner  *jobs.Runner
	sender  email.Sender

	authLimiter ratelimit.Limiter
	apiLimiter  ratelimit.Limiter

	jwtService auth.JWTService
	deps       service.Deps
	services   services

	// sentry enables the Sentry HTTP integration on the router.
	sentry bool
}

type services struct {
	users         *service.UserService
	tasks         *service.TaskService
	shares        *service.ShareService
	comments      *service.CommentService
	files         *service.FileService
	activity      *service.ActivityService
	notifications *service.NotificationService
}

// newApplication creates a new application instance with all dependencies initialized.
// It accepts core dependencies like configuration, logger, and database connection that
// must be established before application initialization.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config:  cfg,
		logger:  logger,
		db:      db,
		metrics: metrics.New(),
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	var resultCache cache.Cache = cache.Noop{}
	app.authLimiter, app.apiLimiter = ratelimit.Noop{}, ratelimit.Noop{}
	if cfg.Redis.URL != "" {
		app.redis, err = cache.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		resultCache = cache.NewRedisCache(app.redis, logger)
		if cfg.RateLimit.Enabled {
			app.authLimiter = ratelimit.NewRedisLimiter(app.redis, logger, "auth",
				cfg.RateLimit.AuthRate, cfg.RateLimit.AuthBurst)
			app.apiLimiter = ratelimit.NewRedisLimiter(app.redis, logger, "api",
				cfg.RateLimit.APIRate, cfg.RateLimit.APIBurst)
		}
		logger.Info("Redis connected", "rate_limit_enabled", cfg.RateLimit.Enabled)
	} else if cfg.RateLimit.Enabled {
		logger.Warn("rate limiting requires redis, continuing without it")
	}

	blobs, err := storage.NewOSStore(cfg.Storage.UploadDir, logger)
	if err != nil {
		app.closeRedis()
		return nil, fmt.Errorf("failed to initialize upload storage: %w", err)
	}

	app.sender = email.New(cfg.Email, logger)
	app.runner = setupJobRunner(cfg.Jobs, app.metrics, logger)
	app.emitter = events.NewInMemoryEventEmitter(logger)

	app.deps = service.Deps{
		Tx:          store.NewTxRunner(db),
		Users:       postgres.NewPostgresUserStore(db, logger),
		Tasks:       postgres.NewPostgresTaskStore(db, logger),
		Shares:      postgres.NewPostgresShareStore(db, logger),
		Comments:    postgres.NewPostgresCommentStore(db, logger),
		Files:       postgres.NewPostgresFileStore(db, logger),
		Activity:    postgres.NewPostgresActivityStore(db, logger),
		Preferences: postgres.NewPostgresPreferenceStore(db, logger),
		Emitter:     app.emitter,
		Cache:       resultCache,
		Metrics:     app.metrics,
		Logger:      logger,
	}

	app.emitter.RegisterHandler(jobs.NewAsyncEventHandler(app.runner, notify.NewDispatcher(
		app.deps.Users, app.deps.Preferences, app.sender, app.metrics, logger), logger))
	app.emitter.RegisterHandler(jobs.NewCleanupEventHandler(app.runner, blobs, logger))

	hasher := auth.NewBcryptHasher(cfg.Auth.BCryptCost)
	app.services = services{
		users:         service.NewUserService(app.deps, app.jwtService, hasher, app.sender, cfg.Server.FrontendURL),
		tasks:         service.NewTaskService(app.deps),
		shares:        service.NewShareService(app.deps),
		comments:      service.NewCommentService(app.deps),
		files:         service.NewFileService(app.deps, blobs, cfg.Storage),
		activity:      service.NewActivityService(app.deps),
		notifications: service.NewNotificationService(app.deps, app.sender),
	}

	app.runner.Start()
	logger.Info("Application initialized successfully")
	return app, nil
}

// setupJobRunner builds the background job runner and wires its outcomes
// into metrics. The runner is started by newApplication once every
// collaborator exists.
func setupJobRunner(cfg config.JobsConfig, m *metrics.Metrics, logger *slog.Logger) *jobs.Runner {
	runner := jobs.NewRunner(jobs.RunnerConfig{
		WorkerCount: cfg.WorkerCount,
		QueueSize:   cfg.QueueSize,
	}, logger)

	runner.SetResultHandler(func(job jobs.Job, err error) {
		result := "success"
		if err != nil {
			result = "error"
		}
		m.JobsProcessed.WithLabelValues(job.Type(), result).Inc()
	})
	runner.SetDroppedHandler(func(jobs.Job, error) {
		m.JobsDropped.Inc()
	})
	return runner
}

// health reports whether the database, and redis when configured, answer.
func (app *application) health(ctx context.Context) error {
	if err := app.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if app.redis != nil {
		if err := app.redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

// setupRouter builds the HTTP handler from the initialized services.
func (app *application) setupRouter() http.Handler {
	return api.NewRouter(api.RouterDeps{
		Users:         app.services.users,
		Tasks:         app.services.tasks,
		Shares:        app.services.shares,
		Comments:      app.services.comments,
		Files:         app.services.files,
		Activity:      app.services.activity,
		Notifications: app.services.notifications,
		JWT:           app.jwtService,
		Auth:          app.config.Auth,
		Metrics:       app.metrics,
		Logger:        app.logger,
		AuthLimiter:   app.authLimiter,
		APILimiter:    app.apiLimiter,
		Health:        app.health,
		Sentry:        app.sentry,
	})
}

// Run starts the application server, handling lifecycle and cleanup.
// It returns an error if the server fails to start or encounters problems.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func (app *application) closeRedis() {
	if app.redis == nil {
		return
	}
	if err := app.redis.Close(); err != nil {
		app.logger.Error("Error closing redis connection", "error", err)
	}
	app.redis = nil
}

// cleanup handles graceful shutdown of application resources. Queued jobs
// get until ctx expires to finish.
func (app *application) cleanup(ctx context.Context) {
	if app.runner != nil {
		if err := app.runner.Stop(ctx); err != nil {
			app.logger.Error("Job runner did not drain before shutdown", "error", err)
		}
	}

	app.closeRedis()

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
