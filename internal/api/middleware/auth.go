package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/phrazzld/faros-api/internal/api/shared"
	"github.com/phrazzld/faros-api/internal/domain"
	"github.com/phrazzld/faros-api/internal/platform/logger"
	"github.com/phrazzld/faros-api/internal/redact"
	"github.com/phrazzld/faros-api/internal/service/auth"
	"github.com/phrazzld/faros-api/internal/store"
)

// UserLookup resolves a token subject to the current user record.
type UserLookup interface {
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

// AuthMiddleware provides JWT authentication for routes. The token is read
// from the Authorization bearer header first, then from the session cookie.
type AuthMiddleware struct {
	jwtService auth.JWTService
	users      UserLookup
	cookieName string
}

// NewAuthMiddleware creates a new AuthMiddleware with the given dependencies.
func NewAuthMiddleware(jwtService auth.JWTService, users UserLookup, cookieName string) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
		users:      users,
		cookieName: cookieName,
	}
}

// tokenFromRequest returns the bearer token, falling back to the cookie.
func (m *AuthMiddleware) tokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.Fields(header)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
	}
	if m.cookieName != "" {
		if c, err := r.Cookie(m.cookieName); err == nil && c.Value != "" {
			return c.Value
		}
	}
	return ""
}

// Authenticate validates the session token and stores the user's id and
// username in the request context.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := m.tokenFromRequest(r)
		if token == "" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Not authenticated")
			return
		}

		claims, err := m.jwtService.ValidateToken(r.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrMissingSubject):
				shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid token payload")
			case errors.Is(err, auth.ErrExpiredToken),
				errors.Is(err, auth.ErrInvalidToken),
				errors.Is(err, auth.ErrTokenNotYetValid):
				shared.RespondWithErrorAndLog(w, r, http.StatusUnauthorized, "Invalid or expired token", err)
			default:
				shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Authentication error", err)
			}
			return
		}
		if claims == nil || claims.Subject == "" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid token payload")
			return
		}

		user, err := m.users.GetByUsername(r.Context(), claims.Subject)
		if err != nil {
			if errors.Is(err, store.ErrUserNotFound) {
				shared.RespondWithError(w, r, http.StatusUnauthorized, "User not found")
				return
			}
			logger.FromContext(r.Context()).Error("failed to load token subject",
				slog.String("error", redact.Error(err)))
			shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Authentication error", err)
			return
		}

		ctx := shared.WithUser(r.Context(), user.ID, user.Username)
		ctx = logger.WithLogger(ctx, logger.FromContext(ctx).With(slog.Int64("user_id", user.ID)))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
