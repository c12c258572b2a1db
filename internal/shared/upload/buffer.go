package upload

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"image-gateway/internal/shared/telemetry"
)

var (
	// ErrNoFile is returned when a request carries no file part.
	ErrNoFile = errors.New("file is required")
	// ErrTooLarge is returned when the file exceeds the buffer limit.
	ErrTooLarge = errors.New("file exceeds upload limit")
)

// Buffer persists incoming file parts to a private directory so handlers can
// read them back by path.
type Buffer struct {
	Dir      string
	MaxBytes int64
}

// File is a buffered upload. Callers must call Release exactly once.
type File struct {
	Path         string
	OriginalName string
	MimeType     string
	Size         int64
}

// NewBuffer constructs a Buffer and creates its directory.
func NewBuffer(dir string, maxBytes int64) (*Buffer, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("upload dir required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Buffer{Dir: dir, MaxBytes: maxBytes}, nil
}

// Accept copies the multipart file into a uniquely named temp file.
func (b *Buffer) Accept(fh *multipart.FileHeader) (*File, error) {
	if fh == nil {
		return nil, ErrNoFile
	}
	if b.MaxBytes > 0 && fh.Size > b.MaxBytes {
		return nil, ErrTooLarge
	}

	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	dst, err := os.CreateTemp(b.Dir, "upload-*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	path := dst.Name()

	var reader io.Reader = src
	if b.MaxBytes > 0 {
		reader = io.LimitReader(src, b.MaxBytes+1)
	}
	size, copyErr := io.Copy(dst, reader)
	closeErr := dst.Close()
	if copyErr == nil && closeErr != nil {
		copyErr = closeErr
	}
	if copyErr == nil && b.MaxBytes > 0 && size > b.MaxBytes {
		copyErr = ErrTooLarge
	}
	if copyErr != nil {
		_ = os.Remove(path)
		if errors.Is(copyErr, ErrTooLarge) {
			return nil, copyErr
		}
		return nil, fmt.Errorf("buffer upload: %w", copyErr)
	}

	return &File{
		Path:         path,
		OriginalName: fh.Filename,
		MimeType:     detectMime(path, fh.Header.Get("Content-Type")),
		Size:         size,
	}, nil
}

// Open returns a reader over the buffered bytes.
func (f *File) Open() (*os.File, error) {
	return os.Open(f.Path)
}

// Release removes the buffered file. It is safe to call on a nil File.
func (f *File) Release() {
	if f == nil || f.Path == "" {
		return
	}
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		telemetry.Warn("upload.release_failed", map[string]any{
			"path": f.Path,
			"err":  err,
		})
	}
	f.Path = ""
}

func detectMime(path, declared string) string {
	declared = strings.TrimSpace(declared)
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	mt, err := mimetype.DetectFile(path)
	if err != nil || mt == nil {
		return "application/octet-stream"
	}
	return mt.String()
}
