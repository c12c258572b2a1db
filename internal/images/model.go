package images

import (
	"time"

	"image-gateway/internal/shared/storage/object"
)

// Image is a stored image record. Ref is either a public URL or a key in the
// images bucket; readers must handle both.
type Image struct {
	ID        string
	UserID    string
	Ref       object.Ref
	Latitude  *float64
	Longitude *float64
	Analysis  *string
	CreatedAt time.Time
}
