package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/phrazzld/faros-api/internal/events"
	"github.com/phrazzld/faros-api/internal/platform/cache"
	"github.com/phrazzld/faros-api/internal/platform/logger"
	"github.com/phrazzld/faros-api/internal/platform/metrics"
	"github.com/phrazzld/faros-api/internal/store"
)

// Actor is the authenticated user performing an operation.
type Actor struct {
	ID       int64
	Username string
}

// Clock returns the current time.
type Clock func() time.Time

// Deps groups the collaborators shared by the services. Emitter, Cache,
// Metrics, Logger and Clock are optional.
type Deps struct {
	Tx          store.TxRunner
	Users       store.UserStore
	Tasks       store.TaskStore
	Shares      store.ShareStore
	Comments    store.CommentStore
	Files       store.FileStore
	Activity    store.ActivityStore
	Preferences store.PreferenceStore

	Emitter events.EventEmitter
	Cache   cache.Cache
	Metrics *metrics.Metrics
	Logger  *slog.Logger
	Clock   Clock
}

func (d Deps) logger(component string) *slog.Logger {
	log := d.Logger
	if log == nil {
		log = slog.Default()
	}
	return log.With(slog.String("component", component))
}

func (d Deps) now() time.Time {
	if d.Clock != nil {
		return d.Clock().UTC()
	}
	return time.Now().UTC()
}

func (d Deps) emitter() events.EventEmitter {
	if d.Emitter == nil {
		return events.NoopEmitter{}
	}
	return d.Emitter
}

// access builds the AccessChecker over d's task and share stores.
func (d Deps) access() *AccessChecker {
	return NewAccessChecker(d.Tasks, d.Shares, d.Logger)
}

// emit publishes an event after commit. Failures are logged and never
// reach the caller.
func emit(ctx context.Context, emitter events.EventEmitter, log *slog.Logger, eventType string, payload any) {
	log = logger.FromContextOrDefault(ctx, log)

	event, err := events.NewEvent(eventType, payload)
	if err != nil {
		log.Error("failed to build event",
			slog.String("event_type", eventType),
			slog.String("error", err.Error()))
		return
	}
	if err := emitter.EmitEvent(ctx, event); err != nil {
		log.Warn("event handler failed",
			slog.String("event_type", eventType),
			slog.String("event_id", event.ID.String()),
			slog.String("error", err.Error()))
	}
}
