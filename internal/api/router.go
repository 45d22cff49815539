package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	apimiddleware "github.com/phrazzld/faros-api/internal/api/middleware"
	"github.com/phrazzld/faros-api/internal/api/shared"
	"github.com/phrazzld/faros-api/internal/config"
	"github.com/phrazzld/faros-api/internal/platform/logger"
	"github.com/phrazzld/faros-api/internal/platform/metrics"
	"github.com/phrazzld/faros-api/internal/platform/ratelimit"
	"github.com/phrazzld/faros-api/internal/service"
	"github.com/phrazzld/faros-api/internal/service/auth"
)

// RequestTimeout bounds the handling time of a single request.
const RequestTimeout = 60 * time.Second

// RouterDeps are the collaborators the HTTP layer needs. AuthLimiter,
// APILimiter, Metrics and Health are optional.
type RouterDeps struct {
	Users         *service.UserService
	Tasks         *service.TaskService
	Shares        *service.ShareService
	Comments      *service.CommentService
	Files         *service.FileService
	Activity      *service.ActivityService
	Notifications *service.NotificationService
	JWT           auth.JWTService

	Auth    config.AuthConfig
	Metrics *metrics.Metrics
	Logger  *slog.Logger

	AuthLimiter ratelimit.Limiter
	APILimiter  ratelimit.Limiter

	// Health reports dependency health for GET /health.
	Health func(ctx context.Context) error

	// Sentry enables the sentry-go HTTP integration.
	Sentry bool
}

// NewRouter builds the chi router serving the whole API.
func NewRouter(d RouterDeps) http.Handler {
	log := d.Logger
	if log == nil {
		log = slog.Default()
	}
	authLimiter := d.AuthLimiter
	if authLimiter == nil {
		authLimiter = ratelimit.Noop{}
	}
	apiLimiter := d.APILimiter
	if apiLimiter == nil {
		apiLimiter = ratelimit.Noop{}
	}

	authHandler := NewAuthHandler(d.Users, d.Auth)
	userHandler := NewUserHandler(d.Users)
	taskHandler := NewTaskHandler(d.Tasks)
	shareHandler := NewShareHandler(d.Shares)
	commentHandler := NewCommentHandler(d.Comments)
	fileHandler := NewFileHandler(d.Files)
	activityHandler := NewActivityHandler(d.Activity)
	notificationHandler := NewNotificationHandler(d.Notifications)
	authMiddleware := apimiddleware.NewAuthMiddleware(d.JWT, d.Users, d.Auth.CookieName)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(apimiddleware.TraceMiddleware(log))
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
	}
	if d.Sentry {
		r.Use(sentryhttp.New(sentryhttp.Options{Repanic: true}).Handle)
	}
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(RequestTimeout))

	r.Get("/health", healthHandler(d.Health))
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	r.Route("/auth", func(r chi.Router) {
		r.Use(apimiddleware.RateLimit(authLimiter, "auth", d.Metrics))
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
		r.Post("/password-reset/request", authHandler.RequestPasswordReset)
		r.Post("/password-reset/verify", authHandler.VerifyPasswordReset)
	})

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)
		r.Use(apimiddleware.RateLimit(apiLimiter, "api", d.Metrics))

		r.Route("/users", func(r chi.Router) {
			r.Get("/me", userHandler.Me)
			r.Patch("/me/change-password", userHandler.ChangePassword)
			r.Get("/search", userHandler.Search)
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", taskHandler.List)
			r.Post("/", taskHandler.Create)
			r.Get("/stats", taskHandler.Stats)
			r.Get("/shared-with-me", taskHandler.SharedWithMe)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", taskHandler.Get)
				r.Patch("/", taskHandler.Update)
				r.Delete("/", taskHandler.Delete)

				r.Post("/tags", taskHandler.AddTags)
				r.Delete("/tags/{tag}", taskHandler.RemoveTag)

				r.Post("/share", shareHandler.Share)
				r.Get("/shares", shareHandler.List)
				r.Put("/share/{username}", shareHandler.UpdatePermission)
				r.Delete("/share/{username}", shareHandler.Unshare)

				r.Get("/comments", commentHandler.List)
				r.Post("/comments", commentHandler.Create)

				r.Get("/files", fileHandler.List)
				r.Post("/files", fileHandler.Upload)
			})
		})

		r.Patch("/comments/{id}", commentHandler.Update)
		r.Delete("/comments/{id}", commentHandler.Delete)

		r.Get("/files/{id}", fileHandler.Download)
		r.Delete("/files/{id}", fileHandler.Delete)

		r.Route("/activity", func(r chi.Router) {
			r.Get("/", activityHandler.List)
			r.Get("/stats", activityHandler.Stats)
			r.Get("/tasks/{id}", activityHandler.TaskTimeline)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/preferences", notificationHandler.Preferences)
			r.Patch("/preferences", notificationHandler.UpdatePreferences)
			r.Post("/verify/send", notificationHandler.SendVerification)
			r.Post("/verify", notificationHandler.Verify)
		})
	})

	return r
}

// healthHandler reports 200 {"status":"ok"}, or 503 when check fails.
func healthHandler(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(r.Context()); err != nil {
				logger.FromContext(r.Context()).Error("health check failed", slog.String("error", err.Error()))
				shared.RespondWithJSON(w, r, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		shared.RespondWithJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	}
}
