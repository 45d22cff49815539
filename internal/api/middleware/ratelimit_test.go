package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/faros-api/internal/api/shared"
	"github.com/phrazzld/faros-api/internal/platform/metrics"
	"github.com/phrazzld/faros-api/internal/platform/ratelimit"
)

type fixedLimiter struct {
	decision ratelimit.Decision
	err      error
	keys     []string
}

func (l *fixedLimiter) Allow(_ context.Context, key string) (ratelimit.Decision, error) {
	l.keys = append(l.keys, key)
	return l.decision, l.err
}

var noContent = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func TestRateLimitKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.9:52114"
	assert.Equal(t, "ip_203.0.113.9", RateLimitKey(req))

	req.RemoteAddr = "203.0.113.9"
	assert.Equal(t, "ip_203.0.113.9", RateLimitKey(req))

	req = req.WithContext(shared.WithUser(req.Context(), 12, "alice"))
	assert.Equal(t, "user_12", RateLimitKey(req))
}

func TestRateLimit(t *testing.T) {
	t.Run("allowed", func(t *testing.T) {
		limiter := &fixedLimiter{decision: ratelimit.Decision{Allowed: true}}
		rec := httptest.NewRecorder()
		RateLimit(limiter, "api", nil)(noContent).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Len(t, limiter.keys, 1)
	})

	t.Run("denied", func(t *testing.T) {
		m := metrics.New()
		limiter := &fixedLimiter{decision: ratelimit.Decision{RetryAfter: 200 * time.Millisecond}}
		rec := httptest.NewRecorder()
		RateLimit(limiter, "auth", m)(noContent).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", nil))

		require.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "1", rec.Header().Get("Retry-After"), "rounded up to a whole second")
		assert.JSONEq(t, `{"error":"Too many requests"}`, rec.Body.String())
		assert.Equal(t, 1.0, testutil.ToFloat64(m.RateLimited.WithLabelValues("auth")))
	})

	t.Run("limiter failure", func(t *testing.T) {
		limiter := &fixedLimiter{err: assert.AnError}
		rec := httptest.NewRecorder()
		RateLimit(limiter, "api", nil)(noContent).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func TestTraceMiddleware(t *testing.T) {
	var inner string
	handler := TraceMiddleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inner = shared.GetTraceID(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Len(t, inner, 32)
	assert.Equal(t, inner, rec.Header().Get(TraceHeader))
}
