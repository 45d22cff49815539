package jobs

import (
	"context"

	"github.com/google/uuid"
)

// Job type constants
const (
	// TypeFileCleanup removes stored attachment blobs.
	TypeFileCleanup = "file_cleanup"

	// TypeEventDelivery hands one event to a slow handler off the request path.
	TypeEventDelivery = "event_delivery"
)

// Job represents a unit of background work to be processed
type Job interface {
	// ID returns the job's unique identifier
	ID() uuid.UUID

	// Type returns the job type identifier
	Type() string

	// Execute runs the job logic
	Execute(ctx context.Context) error
}

// QueueReader provides read-only access to the job channel
// allowing workers to consume jobs without the ability to enqueue
type QueueReader interface {
	// Jobs returns a read-only channel for consuming jobs
	Jobs() <-chan Job
}

// QueueWriter provides write access to the job queue
type QueueWriter interface {
	// Enqueue adds a job to the queue for processing
	// Returns an error if the queue is full or closed
	Enqueue(job Job) error

	// Close closes the queue, preventing further job submission
	Close()
}
