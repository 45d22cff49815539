package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/phrazzld/faros-api/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBlobs struct {
	mu      sync.Mutex
	removed []string
	fail    map[string]error
}

func (f *fakeBlobs) Remove(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail[name]; err != nil {
		return err
	}
	f.removed = append(f.removed, name)
	return nil
}

type recordingSubmitter struct {
	jobs []Job
	err  error
}

func (r *recordingSubmitter) Submit(_ context.Context, job Job) error {
	if r.err != nil {
		return r.err
	}
	r.jobs = append(r.jobs, job)
	return nil
}

func TestFileCleanupJob_Execute(t *testing.T) {
	blobs := &fakeBlobs{fail: map[string]error{"b.pdf": errors.New("disk error")}}
	job := NewFileCleanupJob(blobs, 7, []string{"a.txt", "b.pdf", "c.png"}, setupTestLogger())

	assert.Equal(t, TypeFileCleanup, job.Type())
	assert.NotEmpty(t, job.ID())

	err := job.Execute(context.Background())
	assert.ErrorContains(t, err, "remove b.pdf: disk error")
	assert.Equal(t, []string{"a.txt", "c.png"}, blobs.removed, "failures do not stop the remaining removals")
}

func TestFileCleanupJob_CancelledContext(t *testing.T) {
	blobs := &fakeBlobs{}
	job := NewFileCleanupJob(blobs, 7, []string{"a.txt"}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, job.Execute(ctx), context.Canceled)
	assert.Empty(t, blobs.removed)
}

func TestCleanupEventHandler(t *testing.T) {
	blobs := &fakeBlobs{}

	t.Run("submits a cleanup job", func(t *testing.T) {
		sub := &recordingSubmitter{}
		h := NewCleanupEventHandler(sub, blobs, setupTestLogger())

		event, err := events.NewEvent(events.TypeFilesOrphaned, events.FilesOrphanedPayload{
			TaskID:          3,
			StoredFilenames: []string{"x.txt", "y.txt"},
		})
		require.NoError(t, err)
		require.NoError(t, h.HandleEvent(context.Background(), event))

		require.Len(t, sub.jobs, 1)
		cleanup, ok := sub.jobs[0].(*FileCleanupJob)
		require.True(t, ok)
		assert.Equal(t, []string{"x.txt", "y.txt"}, cleanup.Names())
	})

	t.Run("ignores other events and empty lists", func(t *testing.T) {
		sub := &recordingSubmitter{}
		h := NewCleanupEventHandler(sub, blobs, nil)

		shared, err := events.NewEvent(events.TypeTaskShared, events.NotificationPayload{})
		require.NoError(t, err)
		require.NoError(t, h.HandleEvent(context.Background(), shared))

		empty, err := events.NewEvent(events.TypeFilesOrphaned, events.FilesOrphanedPayload{TaskID: 1})
		require.NoError(t, err)
		require.NoError(t, h.HandleEvent(context.Background(), empty))

		assert.Empty(t, sub.jobs)
	})

	t.Run("reports a full queue", func(t *testing.T) {
		sub := &recordingSubmitter{err: ErrQueueFull}
		h := NewCleanupEventHandler(sub, blobs, nil)

		event, err := events.NewEvent(events.TypeFilesOrphaned, events.FilesOrphanedPayload{
			TaskID:          3,
			StoredFilenames: []string{"x.txt"},
		})
		require.NoError(t, err)
		assert.ErrorIs(t, h.HandleEvent(context.Background(), event), ErrQueueFull)
	})

	t.Run("rejects malformed payloads", func(t *testing.T) {
		h := NewCleanupEventHandler(&recordingSubmitter{}, blobs, nil)
		event := &events.Event{Type: events.TypeFilesOrphaned, Payload: []byte("{")}
		assert.Error(t, h.HandleEvent(context.Background(), event))
	})
}
