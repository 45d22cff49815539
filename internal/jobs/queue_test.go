package jobs

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

// mockJob implements the Job interface for testing
type mockJob struct {
	id      uuid.UUID
	jobType string
	execFn  func(ctx context.Context) error
}

func (m *mockJob) ID() uuid.UUID { return m.id }

func (m *mockJob) Type() string { return m.jobType }

func (m *mockJob) Execute(ctx context.Context) error {
	if m.execFn != nil {
		return m.execFn(ctx)
	}
	return nil
}

func newMockJob(execFn func(ctx context.Context) error) *mockJob {
	return &mockJob{id: uuid.New(), jobType: "mock", execFn: execFn}
}

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestNewQueue(t *testing.T) {
	queue := NewQueue(10, setupTestLogger())
	assert.Equal(t, 10, cap(queue.jobs))
	assert.False(t, queue.closed)

	assert.Equal(t, 1, cap(NewQueue(0, nil).jobs), "non-positive sizes fall back to 1")
}

func TestEnqueue(t *testing.T) {
	queue := NewQueue(2, setupTestLogger())

	assert.NoError(t, queue.Enqueue(newMockJob(nil)))
	assert.NoError(t, queue.Enqueue(newMockJob(nil)))
	assert.Equal(t, 2, queue.Len())

	job3 := newMockJob(nil)
	err := queue.Enqueue(job3)
	assert.ErrorIs(t, err, ErrQueueFull)

	<-queue.Jobs()
	assert.NoError(t, queue.Enqueue(job3))
}

func TestClose(t *testing.T) {
	queue := NewQueue(10, setupTestLogger())

	job := newMockJob(nil)
	assert.NoError(t, queue.Enqueue(job))

	queue.Close()
	queue.Close()

	assert.ErrorIs(t, queue.Enqueue(newMockJob(nil)), ErrQueueClosed)

	received, ok := <-queue.Jobs()
	assert.True(t, ok)
	assert.Equal(t, job.ID(), received.ID())

	_, ok = <-queue.Jobs()
	assert.False(t, ok)
}
