package api

import (
	"net/http"

	"github.com/phrazzld/faros-api/internal/api/shared"
	"github.com/phrazzld/faros-api/internal/domain"
	"github.com/phrazzld/faros-api/internal/service"
)

// ActivityHandler serves the activity log.
type ActivityHandler struct {
	activity *service.ActivityService
}

// NewActivityHandler creates an ActivityHandler.
func NewActivityHandler(activity *service.ActivityService) *ActivityHandler {
	return &ActivityHandler{activity: activity}
}

// List handles GET /activity?action=&resource_type=&limit=&offset=.
func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := handleActor(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	filter := domain.ActivityFilter{
		Action:       domain.Action(q.Get("action")),
		ResourceType: domain.ResourceType(q.Get("resource_type")),
	}
	var err error
	if filter.Limit, err = queryInt(r, "limit", service.DefaultActivityLimit); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if filter.Offset, err = queryInt(r, "offset", 0); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if filter.Limit < 1 {
		HandleAPIError(w, r, service.ErrInvalidPagination, "")
		return
	}

	entries, err := h.activity.List(r.Context(), actor, filter)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list activity")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, entries)
}

// TaskTimeline handles GET /activity/tasks/{id}.
func (h *ActivityHandler) TaskTimeline(w http.ResponseWriter, r *http.Request) {
	actor, taskID, ok := handleActorAndPathID(w, r, "id")
	if !ok {
		return
	}
	entries, err := h.activity.TaskTimeline(r.Context(), actor, taskID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load task activity")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, entries)
}

// Stats handles GET /activity/stats.
func (h *ActivityHandler) Stats(w http.ResponseWriter, r *http.Request) {
	actor, ok := handleActor(w, r)
	if !ok {
		return
	}
	stats, err := h.activity.Stats(r.Context(), actor)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to compute activity statistics")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, stats)
}
