package upload

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func fileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/upload", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["file"][0]
}

func TestAcceptWritesAndReleaseRemoves(t *testing.T) {
	dir := t.TempDir()
	buf, err := NewBuffer(dir, 1<<20)
	require.NoError(t, err)

	f, err := buf.Accept(fileHeader(t, "cat.png", pngHeader))
	require.NoError(t, err)
	assert.Equal(t, "cat.png", f.OriginalName)
	assert.Equal(t, int64(len(pngHeader)), f.Size)
	assert.Equal(t, "image/png", f.MimeType)
	assert.Equal(t, dir, filepath.Dir(f.Path))

	rc, err := f.Open()
	require.NoError(t, err)
	rc.Close()

	path := f.Path
	f.Release()
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "expected buffered file to be removed")

	// second release is a no-op
	f.Release()
	var nilFile *File
	nilFile.Release()
}

func TestAcceptRejectsOversizedFile(t *testing.T) {
	dir := t.TempDir()
	buf, err := NewBuffer(dir, 4)
	require.NoError(t, err)

	_, err = buf.Accept(fileHeader(t, "big.bin", []byte("0123456789")))
	require.ErrorIs(t, err, ErrTooLarge)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAcceptNilHeader(t *testing.T) {
	buf := &Buffer{Dir: t.TempDir()}
	_, err := buf.Accept(nil)
	require.ErrorIs(t, err, ErrNoFile)
}

func TestAcceptUniqueNames(t *testing.T) {
	buf, err := NewBuffer(t.TempDir(), 0)
	require.NoError(t, err)

	a, err := buf.Accept(fileHeader(t, "same.jpg", []byte("a")))
	require.NoError(t, err)
	defer a.Release()
	b, err := buf.Accept(fileHeader(t, "same.jpg", []byte("b")))
	require.NoError(t, err)
	defer b.Release()

	assert.NotEqual(t, a.Path, b.Path)
}

func TestSweepRemovesOnlyStaleUploads(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	stale := filepath.Join(dir, "upload-stale")
	fresh := filepath.Join(dir, "upload-fresh")
	other := filepath.Join(dir, "keep.txt")
	for _, p := range []string{stale, fresh, other} {
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o600))
	}
	require.NoError(t, os.Chtimes(stale, now.Add(-2*time.Hour), now.Add(-2*time.Hour)))
	require.NoError(t, os.Chtimes(fresh, now.Add(-time.Minute), now.Add(-time.Minute)))
	require.NoError(t, os.Chtimes(other, now.Add(-2*time.Hour), now.Add(-2*time.Hour)))

	s := NewSweeper(dir, 30*time.Minute)
	s.Now = func() time.Time { return now }

	assert.Equal(t, 1, s.Sweep())
	assert.NoFileExists(t, stale)
	assert.FileExists(t, fresh)
	assert.FileExists(t, other)
}

func TestSweeperStartRejectsBadSchedule(t *testing.T) {
	s := NewSweeper(t.TempDir(), time.Minute)
	require.Error(t, s.Start("not a schedule"))
	s.Stop()
}

func TestSweeperStartStop(t *testing.T) {
	s := NewSweeper(t.TempDir(), time.Minute)
	require.NoError(t, s.Start("@every 1h"))
	s.Stop()
}

func multipartRequest(t *testing.T, field, name string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	require.NoError(t, w.WriteField("user_id", "u1"))
	if field != "" {
		part, err := w.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = part.Write([]byte("data"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestFormFilePicksNamedOrFirstPart(t *testing.T) {
	fh, err := FormFile(multipartRequest(t, "file", "a.jpg"), "file")
	require.NoError(t, err)
	assert.Equal(t, "a.jpg", fh.Filename)

	fh, err = FormFile(multipartRequest(t, "photo", "b.jpg"), "file")
	require.NoError(t, err)
	assert.Equal(t, "b.jpg", fh.Filename)

	_, err = FormFile(multipartRequest(t, "", ""), "file")
	require.ErrorIs(t, err, ErrNoFile)

	plain := httptest.NewRequest(http.MethodPost, "/upload", nil)
	_, err = FormFile(plain, "file")
	require.ErrorIs(t, err, ErrNoFile)
}

func TestFormFileReportsBodyLimit(t *testing.T) {
	req := multipartRequest(t, "file", "a.jpg")
	rec := httptest.NewRecorder()
	req.Body = http.MaxBytesReader(rec, req.Body, 10)
	_, err := FormFile(req, "file")
	require.ErrorIs(t, err, ErrTooLarge)
}
