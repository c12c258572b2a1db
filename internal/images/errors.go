package images

import "errors"

var (
	// ErrNotFound indicates the image record does not exist.
	ErrNotFound = errors.New("image not found")

	// ErrInvalidInput indicates validation or bad input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrStorage wraps failures writing bytes to the object store.
	ErrStorage = errors.New("object storage failure")

	// ErrPersist wraps failures writing the image record.
	ErrPersist = errors.New("image record failure")
)
