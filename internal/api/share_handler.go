package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/faros-api/internal/api/shared"
	"github.com/phrazzld/faros-api/internal/domain"
	"github.com/phrazzld/faros-api/internal/service"
)

// ShareHandler serves the share registry endpoints under /tasks/{id}.
type ShareHandler struct {
	shares *service.ShareService
}

// NewShareHandler creates a ShareHandler.
func NewShareHandler(shares *service.ShareService) *ShareHandler {
	return &ShareHandler{shares: shares}
}

// Share handles POST /tasks/{id}/share.
func (h *ShareHandler) Share(w http.ResponseWriter, r *http.Request) {
	actor, taskID, ok := handleActorAndPathID(w, r, "id")
	if !ok {
		return
	}
	var req ShareRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	share, err := h.shares.Share(r.Context(), actor, taskID, req.Username, domain.Permission(req.Permission))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to share task")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, share)
}

// List handles GET /tasks/{id}/shares.
func (h *ShareHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, taskID, ok := handleActorAndPathID(w, r, "id")
	if !ok {
		return
	}
	shares, err := h.shares.List(r.Context(), actor, taskID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list shares")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, shares)
}

// UpdatePermission handles PUT /tasks/{id}/share/{username}.
func (h *ShareHandler) UpdatePermission(w http.ResponseWriter, r *http.Request) {
	actor, taskID, ok := handleActorAndPathID(w, r, "id")
	if !ok {
		return
	}
	var req UpdateShareRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	share, err := h.shares.UpdatePermission(r.Context(), actor, taskID,
		chi.URLParam(r, "username"), domain.Permission(req.Permission))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update share")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, share)
}

// Unshare handles DELETE /tasks/{id}/share/{username}.
func (h *ShareHandler) Unshare(w http.ResponseWriter, r *http.Request) {
	actor, taskID, ok := handleActorAndPathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.shares.Unshare(r.Context(), actor, taskID, chi.URLParam(r, "username")); err != nil {
		HandleAPIError(w, r, err, "Failed to remove share")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
