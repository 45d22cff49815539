package domain

import (
	"path/filepath"
	"strings"
	"time"
)

// TaskFile is the metadata of an attachment. The bytes live in the storage
// backend under StoredFilename.
type TaskFile struct {
	ID               int64     `json:"id"`
	TaskID           int64     `json:"task_id"`
	OriginalFilename string    `json:"original_filename"`
	StoredFilename   string    `json:"stored_filename"`
	FileSize         int64     `json:"file_size"`
	ContentType      string    `json:"content_type"`
	UploadedAt       time.Time `json:"uploaded_at"`
}

// FileExtension returns the lower-cased extension of name including the dot.
func FileExtension(name string) string {
	return strings.ToLower(filepath.Ext(name))
}

// SanitizeFilename strips any directory components a client may have sent.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	base := filepath.Base(name)
	if base == "." || base == "/" {
		return ""
	}
	return base
}
