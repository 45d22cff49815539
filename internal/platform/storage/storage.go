// Package storage keeps attachment bytes on a filesystem addressed by the
// stored filename. The filesystem is an afero.Fs so tests run in memory.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/phrazzld/faros-api/internal/platform/logger"
	"github.com/spf13/afero"
)

// Storage errors.
var (
	ErrBlobNotFound = errors.New("blob not found")
	ErrInvalidName  = errors.New("invalid blob name")
	ErrTooLarge     = errors.New("blob exceeds size limit")
)

// BlobStore stores and retrieves attachment bytes.
type BlobStore interface {
	// Save writes at most limit bytes from r under name and returns the
	// number of bytes written. ErrTooLarge is returned, and nothing is
	// kept, when r holds more than limit bytes.
	Save(ctx context.Context, name string, r io.Reader, limit int64) (int64, error)
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Remove(ctx context.Context, name string) error
}

// FSStore implements BlobStore on an afero filesystem rooted at dir.
type FSStore struct {
	fs     afero.Fs
	dir    string
	logger *slog.Logger
}

var _ BlobStore = (*FSStore)(nil)

// NewFSStore creates dir on fs if needed and returns a store rooted there.
func NewFSStore(fs afero.Fs, dir string, log *slog.Logger) (*FSStore, error) {
	if log == nil {
		log = slog.Default()
	}
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory %s: %w", dir, err)
	}
	return &FSStore{
		fs:     fs,
		dir:    dir,
		logger: log.With(slog.String("component", "blob_store")),
	}, nil
}

// NewOSStore is NewFSStore on the host filesystem.
func NewOSStore(dir string, log *slog.Logger) (*FSStore, error) {
	return NewFSStore(afero.NewOsFs(), dir, log)
}

func (s *FSStore) path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", ErrInvalidName
	}
	return filepath.Join(s.dir, name), nil
}

// Save implements BlobStore.
func (s *FSStore) Save(ctx context.Context, name string, r io.Reader, limit int64) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	p, err := s.path(name)
	if err != nil {
		return 0, err
	}

	f, err := s.fs.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return 0, fmt.Errorf("failed to create blob: %w", err)
	}

	// One extra byte distinguishes "exactly limit" from "more than limit".
	n, copyErr := io.Copy(f, io.LimitReader(r, limit+1))
	closeErr := f.Close()

	switch {
	case copyErr != nil:
		err = fmt.Errorf("failed to write blob: %w", copyErr)
	case closeErr != nil:
		err = fmt.Errorf("failed to close blob: %w", closeErr)
	case n > limit:
		err = ErrTooLarge
	}
	if err != nil {
		if rmErr := s.fs.Remove(p); rmErr != nil {
			log.Warn("failed to remove partial blob", slog.String("name", name), slog.String("error", rmErr.Error()))
		}
		return 0, err
	}

	log.Debug("blob saved", slog.String("name", name), slog.Int64("size", n))
	return n, nil
}

// Open implements BlobStore.
func (s *FSStore) Open(_ context.Context, name string) (io.ReadCloser, error) {
	p, err := s.path(name)
	if err != nil {
		return nil, err
	}
	f, err := s.fs.Open(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrBlobNotFound
		}
		return nil, fmt.Errorf("failed to open blob: %w", err)
	}
	return f, nil
}

// Remove implements BlobStore. Removing a missing blob is not an error.
func (s *FSStore) Remove(ctx context.Context, name string) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}
	if err := s.fs.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.FromContextOrDefault(ctx, s.logger).Warn("failed to remove blob",
			slog.String("name", name),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to remove blob: %w", err)
	}
	return nil
}
