package api

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/faros-api/internal/api/shared"
	"github.com/phrazzld/faros-api/internal/domain"
	"github.com/phrazzld/faros-api/internal/service"
)

// TaskHandler serves task CRUD, tags and statistics.
type TaskHandler struct {
	tasks *service.TaskService
}

// NewTaskHandler creates a TaskHandler.
func NewTaskHandler(tasks *service.TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

// parseTaskFilter reads the list query parameters. Bounds are checked by
// service.NormalizeTaskFilter.
func parseTaskFilter(r *http.Request) (domain.TaskFilter, error) {
	q := r.URL.Query()
	var f domain.TaskFilter

	completed, err := queryBool(r, "completed")
	if err != nil {
		return f, err
	}
	f.Completed = completed

	if raw := q.Get("priority"); raw != "" {
		p := domain.Priority(strings.ToLower(raw))
		f.Priority = &p
	}
	f.Tag = q.Get("tag")
	f.Search = strings.TrimSpace(q.Get("search"))

	overdue, err := queryBool(r, "overdue")
	if err != nil {
		return f, err
	}
	f.Overdue = overdue != nil && *overdue

	f.SortBy = q.Get("sort_by")
	switch strings.ToLower(q.Get("sort_order")) {
	case "", "asc":
	case "desc":
		f.SortDesc = true
	default:
		return f, domain.NewValidationError("sort_order", "must be asc or desc", nil)
	}

	if f.Skip, err = queryInt(r, "skip", 0); err != nil {
		return f, err
	}
	if f.Limit, err = queryInt(r, "limit", service.DefaultTaskLimit); err != nil {
		return f, err
	}
	// The service reads a zero limit as "default"; over HTTP it is out of range.
	if f.Limit < 1 {
		return f, service.ErrInvalidPagination
	}
	return f, nil
}

// List handles GET /tasks.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := handleActor(w, r)
	if !ok {
		return
	}
	filter, err := parseTaskFilter(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	tasks, err := h.tasks.List(r.Context(), actor, filter)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list tasks")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, tasks)
}

// Create handles POST /tasks.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := handleActor(w, r)
	if !ok {
		return
	}
	var req CreateTaskRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	task, err := h.tasks.Create(r.Context(), actor, service.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    domain.Priority(req.Priority),
		DueDate:     req.DueDate,
		Tags:        req.Tags,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create task")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, task)
}

// Stats handles GET /tasks/stats.
func (h *TaskHandler) Stats(w http.ResponseWriter, r *http.Request) {
	actor, ok := handleActor(w, r)
	if !ok {
		return
	}
	stats, err := h.tasks.Stats(r.Context(), actor)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to compute task statistics")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, stats)
}

// SharedWithMe handles GET /tasks/shared-with-me.
func (h *TaskHandler) SharedWithMe(w http.ResponseWriter, r *http.Request) {
	actor, ok := handleActor(w, r)
	if !ok {
		return
	}
	tasks, err := h.tasks.ListSharedWithMe(r.Context(), actor)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list shared tasks")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, tasks)
}

// Get handles GET /tasks/{id}.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, taskID, ok := handleActorAndPathID(w, r, "id")
	if !ok {
		return
	}
	task, err := h.tasks.Get(r.Context(), actor, taskID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get task")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// Update handles PATCH /tasks/{id}.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, taskID, ok := handleActorAndPathID(w, r, "id")
	if !ok {
		return
	}
	var req UpdateTaskRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	task, err := h.tasks.Update(r.Context(), actor, taskID, req.Patch())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update task")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// Delete handles DELETE /tasks/{id}.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, taskID, ok := handleActorAndPathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.tasks.Delete(r.Context(), actor, taskID); err != nil {
		HandleAPIError(w, r, err, "Failed to delete task")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddTags handles POST /tasks/{id}/tags.
func (h *TaskHandler) AddTags(w http.ResponseWriter, r *http.Request) {
	actor, taskID, ok := handleActorAndPathID(w, r, "id")
	if !ok {
		return
	}
	var req TagsRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	task, err := h.tasks.AddTags(r.Context(), actor, taskID, req.Tags)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to add tags")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// RemoveTag handles DELETE /tasks/{id}/tags/{tag}.
func (h *TaskHandler) RemoveTag(w http.ResponseWriter, r *http.Request) {
	actor, taskID, ok := handleActorAndPathID(w, r, "id")
	if !ok {
		return
	}
	tag, err := url.PathUnescape(chi.URLParam(r, "tag"))
	if err != nil {
		HandleAPIError(w, r, domain.NewValidationError("tag", "has invalid encoding", nil), "")
		return
	}
	task, err := h.tasks.RemoveTag(r.Context(), actor, taskID, tag)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to remove tag")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, task)
}
