package profiles

import (
	"context"
	"errors"

	"image-gateway/internal/shared/storage/object"
)

var ErrNotFound = errNotFound{}

type errNotFound struct{}

func (errNotFound) Error() string { return "user not found" }

var (
	// ErrNoProfileImage indicates the user exists but has no image yet.
	ErrNoProfileImage = errors.New("profile image not found")

	// ErrInvalidInput indicates validation or bad input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrStorage wraps failures writing the image to the object store.
	ErrStorage = errors.New("object storage failure")

	// ErrPersist wraps failures reading or writing the user record.
	ErrPersist = errors.New("user record failure")
)

// Repo defines persistence operations for user profiles. Create must keep at
// most one record per external identifier.
type Repo interface {
	GetByExternalID(ctx context.Context, externalID string) (User, error)
	Create(ctx context.Context, user User) error
	UpdateProfileImage(ctx context.Context, userID string, ref object.Ref) error
}
