package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/phrazzld/faros-api/internal/events"
)

// EventFilter is implemented by handlers that only care about some event
// types. AsyncEventHandler skips submitting jobs for the rest.
type EventFilter interface {
	Accepts(eventType string) bool
}

// EventJob delivers a single event to a handler on a worker.
type EventJob struct {
	id      uuid.UUID
	handler events.EventHandler
	event   *events.Event
}

var _ Job = (*EventJob)(nil)

func NewEventJob(handler events.EventHandler, event *events.Event) *EventJob {
	return &EventJob{id: uuid.New(), handler: handler, event: event}
}

// ID implements Job.
func (j *EventJob) ID() uuid.UUID { return j.id }

// Type implements Job.
func (j *EventJob) Type() string { return TypeEventDelivery }

// Event returns the event this job delivers.
func (j *EventJob) Event() *events.Event { return j.event }

// Execute passes the event to the handler under the worker's deadline.
func (j *EventJob) Execute(ctx context.Context) error {
	if err := j.handler.HandleEvent(ctx, j.event); err != nil {
		return fmt.Errorf("deliver %s event %s: %w", j.event.Type, j.event.ID, err)
	}
	return nil
}

// AsyncEventHandler wraps a handler so that the emitter only enqueues the
// event and a runner worker does the actual handling.
type AsyncEventHandler struct {
	runner Submitter
	next   events.EventHandler
	logger *slog.Logger
}

var _ events.EventHandler = (*AsyncEventHandler)(nil)

// NewAsyncEventHandler creates a handler that submits next's work to runner.
func NewAsyncEventHandler(runner Submitter, next events.EventHandler, logger *slog.Logger) *AsyncEventHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AsyncEventHandler{
		runner: runner,
		next:   next,
		logger: logger.With(slog.String("component", "async_event_handler")),
	}
}

// HandleEvent implements events.EventHandler. It returns once the job is
// queued, or with the submit error when the queue is full or stopped.
func (h *AsyncEventHandler) HandleEvent(ctx context.Context, event *events.Event) error {
	if f, ok := h.next.(EventFilter); ok && !f.Accepts(event.Type) {
		return nil
	}

	job := NewEventJob(h.next, event)
	if err := h.runner.Submit(ctx, job); err != nil {
		return err
	}

	h.logger.Debug("event delivery submitted",
		slog.String("job_id", job.ID().String()),
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", event.Type))
	return nil
}
