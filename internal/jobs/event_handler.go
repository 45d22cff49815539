package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/faros-api/internal/events"
)

// CleanupEventHandler turns files.orphaned events into FileCleanupJobs and
// submits them to the runner.
type CleanupEventHandler struct {
	runner Submitter
	blobs  BlobRemover
	logger *slog.Logger
}

var _ events.EventHandler = (*CleanupEventHandler)(nil)

// NewCleanupEventHandler creates a handler submitting to runner.
func NewCleanupEventHandler(runner Submitter, blobs BlobRemover, logger *slog.Logger) *CleanupEventHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CleanupEventHandler{
		runner: runner,
		blobs:  blobs,
		logger: logger.With(slog.String("component", "cleanup_event_handler")),
	}
}

// HandleEvent implements events.EventHandler. Events of other types are ignored.
func (h *CleanupEventHandler) HandleEvent(ctx context.Context, event *events.Event) error {
	if event.Type != events.TypeFilesOrphaned {
		return nil
	}

	var payload events.FilesOrphanedPayload
	if err := event.UnmarshalPayload(&payload); err != nil {
		h.logger.Error("failed to unmarshal payload",
			slog.String("error", err.Error()),
			slog.String("event_id", event.ID.String()))
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	if len(payload.StoredFilenames) == 0 {
		return nil
	}

	job := NewFileCleanupJob(h.blobs, payload.TaskID, payload.StoredFilenames, h.logger)
	if err := h.runner.Submit(ctx, job); err != nil {
		return err
	}

	h.logger.Debug("file cleanup submitted",
		slog.String("job_id", job.ID().String()),
		slog.Int64("task_id", payload.TaskID),
		slog.Int("file_count", len(payload.StoredFilenames)))
	return nil
}
