package api

import (
	"net/http"

	"github.com/phrazzld/faros-api/internal/api/shared"
	"github.com/phrazzld/faros-api/internal/service"
)

// NotificationHandler serves notification preferences and email verification.
type NotificationHandler struct {
	notifications *service.NotificationService
}

// NewNotificationHandler creates a NotificationHandler.
func NewNotificationHandler(notifications *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// Preferences handles GET /notifications/preferences.
func (h *NotificationHandler) Preferences(w http.ResponseWriter, r *http.Request) {
	actor, ok := handleActor(w, r)
	if !ok {
		return
	}
	prefs, err := h.notifications.Preferences(r.Context(), actor)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load preferences")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, prefs)
}

// UpdatePreferences handles PATCH /notifications/preferences.
func (h *NotificationHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	actor, ok := handleActor(w, r)
	if !ok {
		return
	}
	var req PreferencesRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	prefs, err := h.notifications.UpdatePreferences(r.Context(), actor, req.Patch())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update preferences")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, prefs)
}

// SendVerification handles POST /notifications/verify/send.
func (h *NotificationHandler) SendVerification(w http.ResponseWriter, r *http.Request) {
	actor, ok := handleActor(w, r)
	if !ok {
		return
	}
	if err := h.notifications.SendVerificationCode(r.Context(), actor); err != nil {
		HandleAPIError(w, r, err, "Failed to send verification code")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, MessageResponse{Message: "Verification code sent"})
}

// Verify handles POST /notifications/verify.
func (h *NotificationHandler) Verify(w http.ResponseWriter, r *http.Request) {
	actor, ok := handleActor(w, r)
	if !ok {
		return
	}
	var req VerifyEmailRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if err := h.notifications.VerifyEmail(r.Context(), actor, req.Code); err != nil {
		HandleAPIError(w, r, err, "Failed to verify email")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, MessageResponse{Message: "Email verified successfully"})
}
