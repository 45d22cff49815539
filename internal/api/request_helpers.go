package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/faros-api/internal/api/shared"
	"github.com/phrazzld/faros-api/internal/domain"
	"github.com/phrazzld/faros-api/internal/platform/logger"
	"github.com/phrazzld/faros-api/internal/service"
	"github.com/phrazzld/faros-api/internal/service/auth"
)

// actorFromRequest returns the authenticated user placed in the context by
// the auth middleware.
func actorFromRequest(r *http.Request) (service.Actor, bool) {
	userID, username, ok := shared.UserFromContext(r.Context())
	if !ok {
		return service.Actor{}, false
	}
	return service.Actor{ID: userID, Username: username}, true
}

// getPathID extracts a positive integer id from the URL path parameters.
func getPathID(r *http.Request, paramName string) (int64, error) {
	raw := chi.URLParam(r, paramName)
	if raw == "" {
		return 0, domain.NewValidationError(paramName, "is required", domain.ErrInvalidID)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewValidationError(paramName, "has invalid format", domain.ErrInvalidID)
	}
	return id, nil
}

// handleActor writes 401 and returns false when the request is not
// authenticated.
func handleActor(w http.ResponseWriter, r *http.Request) (service.Actor, bool) {
	actor, ok := actorFromRequest(r)
	if !ok {
		logger.FromContext(r.Context()).Warn("user not found in request context")
		HandleAPIError(w, r, auth.ErrMissingToken, "")
		return service.Actor{}, false
	}
	return actor, true
}

// handleActorAndPathID is a composite helper that extracts both the actor
// and an integer path id. It writes an error response if either fails.
func handleActorAndPathID(w http.ResponseWriter, r *http.Request, paramName string) (service.Actor, int64, bool) {
	actor, ok := handleActor(w, r)
	if !ok {
		return service.Actor{}, 0, false
	}
	id, err := getPathID(r, paramName)
	if err != nil {
		logger.FromContext(r.Context()).Debug("invalid path parameter",
			slog.String("param_name", paramName),
			slog.String("value", chi.URLParam(r, paramName)))
		HandleAPIError(w, r, err, "")
		return service.Actor{}, 0, false
	}
	return actor, id, true
}

// decodeAndValidate decodes the JSON body into req and validates it,
// writing the error response on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, req interface{}) bool {
	if err := shared.DecodeJSON(w, r, req); err != nil {
		HandleAPIError(w, r, err, "")
		return false
	}
	if err := shared.ValidateRequest(req); err != nil {
		HandleAPIError(w, r, err, "")
		return false
	}
	return true
}

// queryInt parses an optional integer query parameter. def is returned when
// the parameter is absent.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.NewValidationError(name, "must be an integer", nil)
	}
	return n, nil
}

// queryBool parses an optional boolean query parameter. nil means absent.
func queryBool(r *http.Request, name string) (*bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, domain.NewValidationError(name, "must be true or false", nil)
	}
	return &b, nil
}
