package images

import "context"

// Repo defines persistence operations for image records.
type Repo interface {
	Create(ctx context.Context, img Image) error
	ListAll(ctx context.Context) ([]Image, error)
	GetByID(ctx context.Context, id string) (Image, error)
	Delete(ctx context.Context, id string) error
}

// MetadataRepo removes secondary metadata rows keyed by stored reference.
type MetadataRepo interface {
	DeleteByStorageRef(ctx context.Context, ref string) (int64, error)
}
