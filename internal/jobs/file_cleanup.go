package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// BlobRemover deletes a stored blob by name.
type BlobRemover interface {
	Remove(ctx context.Context, name string) error
}

// FileCleanupJob removes the blobs of attachments whose rows were deleted.
type FileCleanupJob struct {
	id     uuid.UUID
	taskID int64
	names  []string
	blobs  BlobRemover
	logger *slog.Logger
}

var _ Job = (*FileCleanupJob)(nil)

// NewFileCleanupJob creates a job that removes names from blobs.
func NewFileCleanupJob(blobs BlobRemover, taskID int64, names []string, logger *slog.Logger) *FileCleanupJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileCleanupJob{
		id:     uuid.New(),
		taskID: taskID,
		names:  append([]string(nil), names...),
		blobs:  blobs,
		logger: logger,
	}
}

// ID implements Job.
func (j *FileCleanupJob) ID() uuid.UUID { return j.id }

// Type implements Job.
func (j *FileCleanupJob) Type() string { return TypeFileCleanup }

// Names returns the blobs this job removes.
func (j *FileCleanupJob) Names() []string { return append([]string(nil), j.names...) }

// Execute removes every blob, continuing past failures. The returned error
// joins each individual failure.
func (j *FileCleanupJob) Execute(ctx context.Context) error {
	var errs []error
	removed := 0
	for _, name := range j.names {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := j.blobs.Remove(ctx, name); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", name, err))
			continue
		}
		removed++
	}

	j.logger.Info("file cleanup finished",
		slog.Int64("task_id", j.taskID),
		slog.Int("removed", removed),
		slog.Int("failed", len(j.names)-removed))
	return errors.Join(errs...)
}
