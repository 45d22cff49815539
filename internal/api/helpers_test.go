package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/faros-api/internal/api"
	"github.com/phrazzld/faros-api/internal/config"
	"github.com/phrazzld/faros-api/internal/mocks"
	"github.com/phrazzld/faros-api/internal/platform/logger"
	"github.com/phrazzld/faros-api/internal/platform/metrics"
	"github.com/phrazzld/faros-api/internal/platform/ratelimit"
	"github.com/phrazzld/faros-api/internal/platform/storage"
	"github.com/phrazzld/faros-api/internal/service"
	"github.com/phrazzld/faros-api/internal/service/auth"
)

const testCookieName = "faros_session"

var testAuthConfig = config.AuthConfig{
	JWTSecret:            "test-secret-that-is-at-least-32-characters",
	TokenLifetimeMinutes: 60,
	BCryptCost:           4,
	CookieName:           testCookieName,
	CookieSecure:         false,
	CookieSameSite:       "lax",
}

// apiTestEnv serves the real router over in-memory stores.
type apiTestEnv struct {
	db      *mocks.MemoryDB
	emitter *mocks.RecordingEmitter
	sender  *mocks.RecordingSender
	metrics *metrics.Metrics
	logs    *logger.TestLogBuffer
	handler http.Handler
}

type envOption func(*api.RouterDeps)

func withLimiters(authLimiter, apiLimiter ratelimit.Limiter) envOption {
	return func(d *api.RouterDeps) {
		d.AuthLimiter = authLimiter
		d.APILimiter = apiLimiter
	}
}

func withHealth(check func(context.Context) error) envOption {
	return func(d *api.RouterDeps) { d.Health = check }
}

func newAPITestEnv(t *testing.T, opts ...envOption) *apiTestEnv {
	t.Helper()

	log, buf := logger.GetTestLogger(t)
	env := &apiTestEnv{
		db:      mocks.NewMemoryDB(),
		emitter: &mocks.RecordingEmitter{},
		sender:  &mocks.RecordingSender{},
		metrics: metrics.New(),
		logs:    buf,
	}

	fs := afero.NewMemMapFs()
	blobs, err := storage.NewFSStore(fs, "/uploads", log)
	require.NoError(t, err)

	jwtService, err := auth.NewJWTService(testAuthConfig)
	require.NoError(t, err)

	deps := service.Deps{
		Tx:          env.db,
		Users:       env.db.Users(),
		Tasks:       env.db.Tasks(),
		Shares:      env.db.Shares(),
		Comments:    env.db.Comments(),
		Files:       env.db.Files(),
		Activity:    env.db.Activity(),
		Preferences: env.db.Preferences(),
		Emitter:     env.emitter,
		Cache:       mocks.NewMemoryCache(),
		Metrics:     env.metrics,
		Logger:      log,
		Clock:       func() time.Time { return time.Now().UTC() },
	}
	users := service.NewUserService(deps, jwtService, &mocks.MockPasswordHasher{}, env.sender, "http://localhost:3000")

	routerDeps := api.RouterDeps{
		Users:    users,
		Tasks:    service.NewTaskService(deps),
		Shares:   service.NewShareService(deps),
		Comments: service.NewCommentService(deps),
		Files: service.NewFileService(deps, blobs, config.StorageConfig{
			UploadDir:         "/uploads",
			MaxUploadSize:     1024,
			AllowedExtensions: []string{".txt", ".pdf"},
		}),
		Activity:      service.NewActivityService(deps),
		Notifications: service.NewNotificationService(deps, env.sender),
		JWT:           jwtService,
		Auth:          testAuthConfig,
		Metrics:       env.metrics,
		Logger:        log,
	}
	for _, opt := range opts {
		opt(&routerDeps)
	}
	env.handler = api.NewRouter(routerDeps)
	return env
}

// request sends req through the router.
func (e *apiTestEnv) request(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

// do sends a JSON request with an optional bearer token.
func (e *apiTestEnv) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return e.request(req)
}

// register creates username via the API.
func (e *apiTestEnv) register(t *testing.T, username string) {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/auth/register", "",
		`{"username":"`+username+`","email":"`+username+`@example.com","password":"password123"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

// login registers username and returns a bearer token for it.
func (e *apiTestEnv) login(t *testing.T, username string) string {
	t.Helper()
	e.register(t, username)
	rec := e.do(t, http.MethodPost, "/auth/login", "",
		`{"username":"`+username+`","password":"password123"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var tok api.TokenResponse
	decode(t, rec, &tok)
	return tok.AccessToken
}

// createTask creates a task and returns its id.
func (e *apiTestEnv) createTask(t *testing.T, token, title string) int64 {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/tasks", token, `{"title":"`+title+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var task struct {
		ID int64 `json:"id"`
	}
	decode(t, rec, &task)
	return task.ID
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

// errorMessage returns the "error" field of an error response.
func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error   string `json:"error"`
		TraceID string `json:"trace_id"`
	}
	decode(t, rec, &body)
	return body.Error
}

// limiterFunc adapts a function to ratelimit.Limiter.
type limiterFunc func(ctx context.Context, key string) (ratelimit.Decision, error)

func (f limiterFunc) Allow(ctx context.Context, key string) (ratelimit.Decision, error) {
	return f(ctx, key)
}
