package profiles

import (
	"time"

	"image-gateway/internal/shared/storage/object"
)

// User is a profile record keyed by the caller's external auth identifier.
type User struct {
	ID           string
	ExternalID   string
	ProfileImage *object.Ref
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
