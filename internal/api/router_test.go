package api_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/faros-api/internal/api/middleware"
	"github.com/phrazzld/faros-api/internal/platform/ratelimit"
)

func TestHealth(t *testing.T) {
	t.Parallel()

	env := newAPITestEnv(t)
	rec := env.do(t, http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	down := newAPITestEnv(t, withHealth(func(context.Context) error {
		return errors.New("database unreachable")
	}))
	rec = down.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"unavailable"}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()
	env := newAPITestEnv(t)

	env.do(t, http.MethodGet, "/health", "", "")
	rec := env.do(t, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "faros_http_requests_total{")
	assert.Contains(t, body, `route="/health"`)
	assert.Contains(t, body, "go_goroutines")
}

func TestTraceHeader(t *testing.T) {
	t.Parallel()
	env := newAPITestEnv(t)

	rec := env.do(t, http.MethodGet, "/tasks", "", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	traceID := rec.Header().Get(middleware.TraceHeader)
	require.NotEmpty(t, traceID)

	var body struct {
		TraceID string `json:"trace_id"`
	}
	decode(t, rec, &body)
	assert.Equal(t, traceID, body.TraceID)

	other := env.do(t, http.MethodGet, "/health", "", "")
	assert.NotEqual(t, traceID, other.Header().Get(middleware.TraceHeader))
}

func TestRateLimiting(t *testing.T) {
	t.Parallel()

	deny := limiterFunc(func(context.Context, string) (ratelimit.Decision, error) {
		return ratelimit.Decision{Allowed: false, RetryAfter: 1500 * time.Millisecond}, nil
	})
	env := newAPITestEnv(t, withLimiters(deny, nil))

	rec := env.do(t, http.MethodPost, "/auth/login", "", `{"username":"alice","password":"password123"}`)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))
	assert.Equal(t, "Too many requests", errorMessage(t, rec))
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.RateLimited.WithLabelValues("auth")))

	// Unlimited groups are unaffected.
	rec = env.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiting_KeysAuthenticatedCallersByUser(t *testing.T) {
	t.Parallel()

	var (
		mu   sync.Mutex
		keys []string
	)
	record := limiterFunc(func(_ context.Context, key string) (ratelimit.Decision, error) {
		mu.Lock()
		defer mu.Unlock()
		keys = append(keys, key)
		return ratelimit.Decision{Allowed: true}, nil
	})
	env := newAPITestEnv(t, withLimiters(nil, record))
	token := env.login(t, "alice")

	rec := env.do(t, http.MethodGet, "/tasks", token, "")
	require.Equal(t, http.StatusOK, rec.Code)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, keys, 1)
	assert.True(t, strings.HasPrefix(keys[0], "user_"), keys[0])
}

func TestRateLimiting_FailsOpen(t *testing.T) {
	t.Parallel()

	broken := limiterFunc(func(context.Context, string) (ratelimit.Decision, error) {
		return ratelimit.Decision{}, errors.New("redis: connection refused")
	})
	env := newAPITestEnv(t, withLimiters(broken, broken))

	token := env.login(t, "alice")
	rec := env.do(t, http.MethodGet, "/tasks", token, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, env.logs.String(), "rate limiter unavailable")
}
