package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/faros-api/internal/config"
	"github.com/phrazzld/faros-api/internal/domain"
	"github.com/phrazzld/faros-api/internal/events"
	"github.com/phrazzld/faros-api/internal/platform/cache"
	"github.com/phrazzld/faros-api/internal/platform/logger"
	"github.com/phrazzld/faros-api/internal/platform/storage"
	"github.com/phrazzld/faros-api/internal/store"
)

// UploadInput is one uploaded attachment.
type UploadInput struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// FileService manages task attachments. Metadata lives in the FileStore,
// bytes in the BlobStore.
type FileService struct {
	deps    Deps
	blobs   storage.BlobStore
	access  *AccessChecker
	stats   *statsCache
	emitter events.EventEmitter
	logger  *slog.Logger

	maxSize int64
	allowed map[string]struct{}
}

// NewFileService creates a FileService that accepts the extensions and
// size limit of cfg.
func NewFileService(deps Deps, blobs storage.BlobStore, cfg config.StorageConfig) *FileService {
	log := deps.logger("file_service")
	allowed := make(map[string]struct{}, len(cfg.AllowedExtensions))
	for _, ext := range cfg.AllowedExtensions {
		allowed[strings.ToLower(ext)] = struct{}{}
	}
	return &FileService{
		deps:    deps,
		blobs:   blobs,
		access:  deps.access(),
		stats:   newStatsCache(deps.Cache, deps.Metrics, log),
		emitter: deps.emitter(),
		logger:  log,
		maxSize: cfg.MaxUploadSize,
		allowed: allowed,
	}
}

// MaxUploadSize returns the largest accepted attachment in bytes.
func (s *FileService) MaxUploadSize() int64 {
	return s.maxSize
}

// Upload stores an attachment on a task the actor can edit. The bytes are
// written before the metadata row and removed again if the row cannot be
// written.
func (s *FileService) Upload(ctx context.Context, actor Actor, taskID int64, in UploadInput) (*domain.TaskFile, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if _, _, err := s.access.RequireEdit(ctx, taskID, actor.ID); err != nil {
		return nil, err
	}

	original := domain.SanitizeFilename(in.Filename)
	if original == "" {
		return nil, domain.NewValidationError("file", "filename is required", nil)
	}
	ext := domain.FileExtension(original)
	if _, ok := s.allowed[ext]; !ok {
		return nil, ErrFileTypeNotAllowed
	}
	contentType := in.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	stored := uuid.NewString() + ext
	size, err := s.blobs.Save(ctx, stored, in.Body, s.maxSize)
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			return nil, ErrFileTooLarge
		}
		log.Error("failed to store upload", slog.String("error", err.Error()), slog.Int64("task_id", taskID))
		return nil, NewServiceError("file", "upload", "failed to store file", err)
	}

	file := &domain.TaskFile{
		TaskID:           taskID,
		OriginalFilename: original,
		StoredFilename:   stored,
		FileSize:         size,
		ContentType:      contentType,
		UploadedAt:       s.deps.now(),
	}

	err = s.deps.Tx.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.deps.Files.WithTx(tx).Create(ctx, file); err != nil {
			return err
		}
		entry := domain.NewActivityLog(actor.ID, domain.ActionUploaded, domain.ResourceFile, file.ID, map[string]any{
			"task_id":      taskID,
			"filename":     original,
			"file_size":    size,
			"content_type": contentType,
		})
		return recordActivity(ctx, s.deps.Activity, tx, entry)
	})
	if err != nil {
		if rmErr := s.blobs.Remove(ctx, stored); rmErr != nil {
			log.Warn("failed to remove blob after failed upload",
				slog.String("stored_filename", stored),
				slog.String("error", rmErr.Error()))
		}
		log.Error("failed to record upload", slog.String("error", err.Error()), slog.Int64("task_id", taskID))
		return nil, NewServiceError("file", "upload", "failed to record file", err)
	}

	s.stats.invalidate(ctx, cache.ActivityStatsKey(actor.ID))
	log.Info("file uploaded",
		slog.Int64("task_id", taskID),
		slog.Int64("file_id", file.ID),
		slog.Int64("file_size", size))
	return file, nil
}

// List returns the attachments of a task the actor can read.
func (s *FileService) List(ctx context.Context, actor Actor, taskID int64) ([]*domain.TaskFile, error) {
	if _, _, err := s.access.RequireRead(ctx, taskID, actor.ID); err != nil {
		return nil, err
	}
	files, err := s.deps.Files.ListByTask(ctx, taskID)
	if err != nil {
		return nil, NewServiceError("file", "list", "failed to list files", err)
	}
	return files, nil
}

// Open returns an attachment's metadata and bytes. The caller closes the
// reader.
func (s *FileService) Open(ctx context.Context, actor Actor, fileID int64) (*domain.TaskFile, io.ReadCloser, error) {
	file, err := s.deps.Files.GetByID(ctx, fileID)
	if err != nil {
		return nil, nil, err
	}
	if _, _, err := s.access.RequireRead(ctx, file.TaskID, actor.ID); err != nil {
		return nil, nil, err
	}
	body, err := s.blobs.Open(ctx, file.StoredFilename)
	if err != nil {
		if errors.Is(err, storage.ErrBlobNotFound) {
			logger.FromContextOrDefault(ctx, s.logger).Warn("file row without blob",
				slog.Int64("file_id", fileID),
				slog.String("stored_filename", file.StoredFilename))
			return nil, nil, store.ErrFileNotFound
		}
		return nil, nil, NewServiceError("file", "download", "failed to open file", err)
	}
	return file, body, nil
}

// Delete removes an attachment from a task the actor can edit. The blob is
// removed after commit.
func (s *FileService) Delete(ctx context.Context, actor Actor, fileID int64) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	file, err := s.deps.Files.GetByID(ctx, fileID)
	if err != nil {
		return err
	}
	if _, _, err := s.access.RequireEdit(ctx, file.TaskID, actor.ID); err != nil {
		return err
	}

	err = s.deps.Tx.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.deps.Files.WithTx(tx).Delete(ctx, fileID); err != nil {
			return err
		}
		entry := domain.NewActivityLog(actor.ID, domain.ActionDeleted, domain.ResourceFile, fileID, map[string]any{
			"task_id":  file.TaskID,
			"filename": file.OriginalFilename,
		})
		return recordActivity(ctx, s.deps.Activity, tx, entry)
	})
	if err != nil {
		if errors.Is(err, store.ErrFileNotFound) {
			return err
		}
		log.Error("failed to delete file", slog.String("error", err.Error()), slog.Int64("file_id", fileID))
		return NewServiceError("file", "delete", "failed to delete file", err)
	}

	s.stats.invalidate(ctx, cache.ActivityStatsKey(actor.ID))
	emit(ctx, s.emitter, s.logger, events.TypeFilesOrphaned, events.FilesOrphanedPayload{
		TaskID:          file.TaskID,
		StoredFilenames: []string{file.StoredFilename},
	})
	return nil
}
