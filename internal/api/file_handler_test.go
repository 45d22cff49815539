package api_test

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fileJSON struct {
	ID               int64  `json:"id"`
	TaskID           int64  `json:"task_id"`
	OriginalFilename string `json:"original_filename"`
	FileSize         int64  `json:"file_size"`
	ContentType      string `json:"content_type"`
}

func (e *apiTestEnv) upload(t *testing.T, token string, taskID int64, filename, contentType string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("note", "ignored"))

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/tasks/%d/files", taskID), &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return e.request(req)
}

func TestFileUploadAndDownload(t *testing.T) {
	t.Parallel()
	env := newAPITestEnv(t)
	alice := env.login(t, "alice")
	bob := env.login(t, "bob")
	id := env.createTask(t, alice, "with attachment")

	rec := env.upload(t, alice, id, "notes.txt", "text/plain", []byte("hello attachment"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var file fileJSON
	decode(t, rec, &file)
	assert.Equal(t, id, file.TaskID)
	assert.Equal(t, "notes.txt", file.OriginalFilename)
	assert.Equal(t, int64(len("hello attachment")), file.FileSize)
	assert.Equal(t, "text/plain", file.ContentType)

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/tasks/%d/files", id), alice, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var files []fileJSON
	decode(t, rec, &files)
	require.Len(t, files, 1)
	assert.Equal(t, file.ID, files[0].ID)

	filePath := fmt.Sprintf("/files/%d", file.ID)
	rec = env.do(t, http.MethodGet, filePath, alice, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello attachment", rec.Body.String())
	assert.Equal(t, "text/plain", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="notes.txt"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "16", rec.Header().Get("Content-Length"))

	rec = env.do(t, http.MethodGet, filePath, bob, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodDelete, filePath, alice, "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = env.do(t, http.MethodGet, filePath, alice, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "File not found", errorMessage(t, rec))
}

func TestFileUpload_Rejections(t *testing.T) {
	t.Parallel()
	env := newAPITestEnv(t)
	alice := env.login(t, "alice")
	bob := env.login(t, "bob")
	id := env.createTask(t, alice, "attachments")

	rec := env.upload(t, alice, id, "setup.exe", "application/octet-stream", []byte("MZ"))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "File type not allowed", errorMessage(t, rec))

	rec = env.upload(t, alice, id, "big.pdf", "application/pdf", bytes.Repeat([]byte("x"), 2048))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "File too large", errorMessage(t, rec))

	rec = env.upload(t, bob, id, "notes.txt", "text/plain", []byte("hi"))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPost, fmt.Sprintf("/tasks/%d/files", id), alice, `{"file":"nope"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("other", "value"))
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/tasks/%d/files", id), &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+alice)
	rec = env.request(req)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "file is required", errorMessage(t, rec))

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/tasks/%d/files", id), alice, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestFileDownload_EscapesFilename(t *testing.T) {
	t.Parallel()
	env := newAPITestEnv(t)
	alice := env.login(t, "alice")
	id := env.createTask(t, alice, "quoted")

	rec := env.upload(t, alice, id, `we\"ird.txt`, "text/plain", []byte("x"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var file fileJSON
	decode(t, rec, &file)

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/files/%d", file.ID), alice, "")
	require.Equal(t, http.StatusOK, rec.Code)
	disposition := rec.Header().Get("Content-Disposition")
	assert.True(t, strings.HasPrefix(disposition, `attachment; filename="`))
	assert.Equal(t, 2, strings.Count(disposition, `"`))
}
