package api

import (
	"net/http"

	"github.com/phrazzld/faros-api/internal/api/shared"
	"github.com/phrazzld/faros-api/internal/service"
)

// CommentHandler serves task comments.
type CommentHandler struct {
	comments *service.CommentService
}

// NewCommentHandler creates a CommentHandler.
func NewCommentHandler(comments *service.CommentService) *CommentHandler {
	return &CommentHandler{comments: comments}
}

// Create handles POST /tasks/{id}/comments.
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, taskID, ok := handleActorAndPathID(w, r, "id")
	if !ok {
		return
	}
	var req CommentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	comment, err := h.comments.Create(r.Context(), actor, taskID, req.Content)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create comment")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, comment)
}

// List handles GET /tasks/{id}/comments.
func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, taskID, ok := handleActorAndPathID(w, r, "id")
	if !ok {
		return
	}
	comments, err := h.comments.List(r.Context(), actor, taskID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list comments")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, comments)
}

// Update handles PATCH /comments/{id}.
func (h *CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, commentID, ok := handleActorAndPathID(w, r, "id")
	if !ok {
		return
	}
	var req CommentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	comment, err := h.comments.Update(r.Context(), actor, commentID, req.Content)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update comment")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, comment)
}

// Delete handles DELETE /comments/{id}.
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, commentID, ok := handleActorAndPathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.comments.Delete(r.Context(), actor, commentID); err != nil {
		HandleAPIError(w, r, err, "Failed to delete comment")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
