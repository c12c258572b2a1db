package upload

import (
	"errors"
	"mime/multipart"
	"net/http"
	"sort"
)

const formMemory = 8 << 20

// FormFile returns the file part named field, or the first file part of the
// form when no part carries that name.
func FormFile(r *http.Request, field string) (*multipart.FileHeader, error) {
	if r.MultipartForm == nil {
		if err := r.ParseMultipartForm(formMemory); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return nil, ErrTooLarge
			}
			return nil, ErrNoFile
		}
	}
	form := r.MultipartForm
	if form == nil || len(form.File) == 0 {
		return nil, ErrNoFile
	}
	if fhs := form.File[field]; len(fhs) > 0 {
		return fhs[0], nil
	}
	names := make([]string, 0, len(form.File))
	for name := range form.File {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if fhs := form.File[name]; len(fhs) > 0 {
			return fhs[0], nil
		}
	}
	return nil, ErrNoFile
}

// CleanupForm removes spill files the multipart parser left on disk.
func CleanupForm(r *http.Request) {
	if r != nil && r.MultipartForm != nil {
		_ = r.MultipartForm.RemoveAll()
	}
}
