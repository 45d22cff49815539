package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/phrazzld/faros-api/internal/api/shared"
	"github.com/phrazzld/faros-api/internal/config"
	"github.com/phrazzld/faros-api/internal/platform/logger"
	"github.com/phrazzld/faros-api/internal/service"
)

// AuthHandler handles authentication-related API requests.
type AuthHandler struct {
	users  *service.UserService
	cookie config.AuthConfig
}

// NewAuthHandler creates a new AuthHandler. The session cookie is named and
// flagged according to cookie.
func NewAuthHandler(users *service.UserService, cookie config.AuthConfig) *AuthHandler {
	return &AuthHandler{users: users, cookie: cookie}
}

func sameSite(mode string) http.SameSite {
	switch strings.ToLower(mode) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

// sessionCookie builds the session cookie. maxAge 0 is turned into a
// deletion (Max-Age=0 on the wire).
func (h *AuthHandler) sessionCookie(value string, maxAge int) *http.Cookie {
	if maxAge <= 0 {
		maxAge = -1
	}
	return &http.Cookie{
		Name:     h.cookie.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cookie.CookieSecure,
		SameSite: sameSite(h.cookie.CookieSameSite),
	}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.users.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create user")
		return
	}

	logger.FromContext(r.Context()).Info("user registered", slog.Int64("user_id", user.ID))
	shared.RespondWithJSON(w, r, http.StatusCreated, newUserResponse(user))
}

// Login handles POST /auth/login. The token is returned in the body and set
// as an HttpOnly session cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	token, user, err := h.users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to authenticate user")
		return
	}

	http.SetCookie(w, h.sessionCookie(token, int(h.users.TokenLifetime().Seconds())))
	logger.FromContext(r.Context()).Info("user logged in", slog.Int64("user_id", user.ID))
	shared.RespondWithJSON(w, r, http.StatusOK, TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
}

// Logout handles POST /auth/logout by expiring the session cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, h.sessionCookie("", 0))
	shared.RespondWithJSON(w, r, http.StatusOK, MessageResponse{Message: "Logged out successfully"})
}

// RequestPasswordReset handles POST /auth/password-reset/request. The
// response does not reveal whether the email is registered.
func (h *AuthHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req PasswordResetRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.users.RequestPasswordReset(r.Context(), req.Email); err != nil {
		HandleAPIError(w, r, err, "Failed to request password reset")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, MessageResponse{Message: "If email exists, password reset sent"})
}

// VerifyPasswordReset handles POST /auth/password-reset/verify.
func (h *AuthHandler) VerifyPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req PasswordResetVerifyRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.users.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		HandleAPIError(w, r, err, "Failed to reset password")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, MessageResponse{
		Message: "Password updated successfully. You can now log in with your new password.",
	})
}
