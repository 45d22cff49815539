package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/faros-api/internal/events"
)

// notifyingHandler only accepts task.shared and records what it handled.
type notifyingHandler struct {
	handled     []*events.Event
	sawDeadline bool
	err         error
}

func (h *notifyingHandler) Accepts(eventType string) bool {
	return eventType == events.TypeTaskShared
}

func (h *notifyingHandler) HandleEvent(ctx context.Context, event *events.Event) error {
	_, h.sawDeadline = ctx.Deadline()
	h.handled = append(h.handled, event)
	return h.err
}

func newSharedEvent(t *testing.T) *events.Event {
	t.Helper()
	event, err := events.NewEvent(events.TypeTaskShared, events.NotificationPayload{TaskID: 5, RecipientID: 2})
	require.NoError(t, err)
	return event
}

func TestAsyncEventHandler_SubmitsInsteadOfHandling(t *testing.T) {
	next := &notifyingHandler{}
	sub := &recordingSubmitter{}
	h := NewAsyncEventHandler(sub, next, setupTestLogger())

	event := newSharedEvent(t)
	require.NoError(t, h.HandleEvent(context.Background(), event))

	assert.Empty(t, next.handled, "nothing runs on the caller's goroutine")
	require.Len(t, sub.jobs, 1)
	job, ok := sub.jobs[0].(*EventJob)
	require.True(t, ok)
	assert.Equal(t, TypeEventDelivery, job.Type())
	assert.Same(t, event, job.Event())

	require.NoError(t, job.Execute(context.Background()))
	require.Len(t, next.handled, 1)
	assert.Same(t, event, next.handled[0])
}

func TestAsyncEventHandler_SkipsUnacceptedEvents(t *testing.T) {
	sub := &recordingSubmitter{}
	h := NewAsyncEventHandler(sub, &notifyingHandler{}, nil)

	event, err := events.NewEvent(events.TypeFilesOrphaned, events.FilesOrphanedPayload{TaskID: 5})
	require.NoError(t, err)
	require.NoError(t, h.HandleEvent(context.Background(), event))
	assert.Empty(t, sub.jobs)
}

func TestAsyncEventHandler_UnfilteredHandlerGetsEverything(t *testing.T) {
	sub := &recordingSubmitter{}
	var seen []string
	next := events.HandlerFunc(func(_ context.Context, e *events.Event) error {
		seen = append(seen, e.Type)
		return nil
	})
	h := NewAsyncEventHandler(sub, next, nil)

	event, err := events.NewEvent(events.TypeFilesOrphaned, events.FilesOrphanedPayload{TaskID: 5})
	require.NoError(t, err)
	require.NoError(t, h.HandleEvent(context.Background(), event))
	require.Len(t, sub.jobs, 1)
	require.NoError(t, sub.jobs[0].Execute(context.Background()))
	assert.Equal(t, []string{events.TypeFilesOrphaned}, seen)
}

func TestAsyncEventHandler_SubmitError(t *testing.T) {
	errFull := errors.New("queue is full")
	h := NewAsyncEventHandler(&recordingSubmitter{err: errFull}, &notifyingHandler{}, nil)

	assert.ErrorIs(t, h.HandleEvent(context.Background(), newSharedEvent(t)), errFull)
}

func TestEventJob_WrapsHandlerError(t *testing.T) {
	errSMTP := errors.New("smtp down")
	event := newSharedEvent(t)
	job := NewEventJob(&notifyingHandler{err: errSMTP}, event)

	err := job.Execute(context.Background())
	assert.ErrorIs(t, err, errSMTP)
	assert.ErrorContains(t, err, events.TypeTaskShared)
}

func TestEventJob_RunsUnderWorkerDeadline(t *testing.T) {
	next := &notifyingHandler{}
	runner := NewRunner(RunnerConfig{WorkerCount: 1, QueueSize: 4}, setupTestLogger())
	runner.Start()

	h := NewAsyncEventHandler(runner, next, nil)
	require.NoError(t, h.HandleEvent(context.Background(), newSharedEvent(t)))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, runner.Stop(ctx))

	require.Len(t, next.handled, 1)
	assert.True(t, next.sawDeadline)
}
