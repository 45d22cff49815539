package middleware

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"

	"github.com/phrazzld/faros-api/internal/api/shared"
	"github.com/phrazzld/faros-api/internal/platform/logger"
	"github.com/phrazzld/faros-api/internal/platform/metrics"
	"github.com/phrazzld/faros-api/internal/platform/ratelimit"
)

// RateLimitKey identifies the caller: user_<id> once authenticated,
// ip_<addr> otherwise.
func RateLimitKey(r *http.Request) string {
	if userID, _, ok := shared.UserFromContext(r.Context()); ok {
		return "user_" + strconv.FormatInt(userID, 10)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip_" + host
}

// RateLimit rejects callers that exhausted their bucket in limiter with 429.
// Limiter failures let the request through.
func RateLimit(limiter ratelimit.Limiter, group string, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := RateLimitKey(r)
			decision, err := limiter.Allow(r.Context(), key)
			if err != nil {
				logger.FromContext(r.Context()).Warn("rate limiter unavailable, allowing request",
					slog.String("group", group),
					slog.String("error", err.Error()))
				next.ServeHTTP(w, r)
				return
			}
			if !decision.Allowed {
				if m != nil {
					m.RateLimited.WithLabelValues(group).Inc()
				}
				retry := int(math.Ceil(decision.RetryAfter.Seconds()))
				if retry < 1 {
					retry = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				shared.RespondWithErrorAndLog(w, r, http.StatusTooManyRequests, "Too many requests", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
