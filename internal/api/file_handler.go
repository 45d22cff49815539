package api

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/phrazzld/faros-api/internal/api/shared"
	"github.com/phrazzld/faros-api/internal/domain"
	"github.com/phrazzld/faros-api/internal/platform/logger"
	"github.com/phrazzld/faros-api/internal/service"
)

// multipartOverhead is the allowance for multipart headers and boundaries on
// top of the upload size limit.
const multipartOverhead = 64 << 10

// uploadFormField is the multipart field carrying the file.
const uploadFormField = "file"

// FileHandler serves task attachments.
type FileHandler struct {
	files *service.FileService
}

// NewFileHandler creates a FileHandler.
func NewFileHandler(files *service.FileService) *FileHandler {
	return &FileHandler{files: files}
}

var filenameReplacer = strings.NewReplacer(`"`, "_", `\`, "_", "\r", "_", "\n", "_")

func contentDisposition(name string) string {
	return fmt.Sprintf(`attachment; filename="%s"`, filenameReplacer.Replace(name))
}

// Upload handles POST /tasks/{id}/files. The "file" part is streamed to the
// storage backend without buffering the request.
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	actor, taskID, ok := handleActorAndPathID(w, r, "id")
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.files.MaxUploadSize()+multipartOverhead)
	reader, err := r.MultipartReader()
	if err != nil {
		HandleAPIError(w, r, domain.NewValidationError(uploadFormField, "multipart form data required", nil), "")
		return
	}

	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			HandleAPIError(w, r, domain.NewValidationError(uploadFormField, "is required", nil), "")
			return
		}
		if err != nil {
			h.handleUploadError(w, r, err)
			return
		}
		if part.FormName() != uploadFormField {
			_ = part.Close()
			continue
		}

		file, err := h.files.Upload(r.Context(), actor, taskID, service.UploadInput{
			Filename:    part.FileName(),
			ContentType: part.Header.Get("Content-Type"),
			Body:        part,
		})
		_ = part.Close()
		if err != nil {
			h.handleUploadError(w, r, err)
			return
		}
		shared.RespondWithJSON(w, r, http.StatusCreated, file)
		return
	}
}

func (h *FileHandler) handleUploadError(w http.ResponseWriter, r *http.Request, err error) {
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		err = service.ErrFileTooLarge
	}
	HandleAPIError(w, r, err, "Failed to upload file")
}

// List handles GET /tasks/{id}/files.
func (h *FileHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, taskID, ok := handleActorAndPathID(w, r, "id")
	if !ok {
		return
	}
	files, err := h.files.List(r.Context(), actor, taskID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list files")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, files)
}

// Download handles GET /files/{id}.
func (h *FileHandler) Download(w http.ResponseWriter, r *http.Request) {
	actor, fileID, ok := handleActorAndPathID(w, r, "id")
	if !ok {
		return
	}
	file, body, err := h.files.Open(r.Context(), actor, fileID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to download file")
		return
	}
	defer func() { _ = body.Close() }()

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", contentDisposition(file.OriginalFilename))
	w.Header().Set("Content-Length", strconv.FormatInt(file.FileSize, 10))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		logger.FromContext(r.Context()).Warn("download interrupted",
			slog.Int64("file_id", fileID),
			slog.String("error", err.Error()))
	}
}

// Delete handles DELETE /files/{id}.
func (h *FileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, fileID, ok := handleActorAndPathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.files.Delete(r.Context(), actor, fileID); err != nil {
		HandleAPIError(w, r, err, "Failed to delete file")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
