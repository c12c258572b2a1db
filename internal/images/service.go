package images

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"image-gateway/internal/shared/metrics"
	"image-gateway/internal/shared/storage/object"
	"image-gateway/internal/shared/telemetry"
	"image-gateway/internal/shared/upload"
	"image-gateway/internal/shared/util"
)

const (
	keyPrefix       = "images/"
	defaultFileName = "image.jpg"
	cacheControl    = "max-age=3600"
)

// Service contains the image lifecycle logic.
type Service struct {
	Store    object.ObjectStore
	Resolver object.Resolver
	Repo     Repo
	Metadata MetadataRepo
	Bucket   string
	Now      func() time.Time
}

// UploadInput carries a buffered file and the form fields that accompany it.
type UploadInput struct {
	UserID    string
	File      *upload.File
	Latitude  *float64
	Longitude *float64
	Analysis  *string
}

// UploadResult is the persisted record and its public URL.
type UploadResult struct {
	Image     Image
	PublicURL string
}

// List returns every image with a fetchable URL, newest first. URL resolution
// failures degrade to the public URL and never fail the list.
func (s *Service) List(ctx context.Context) ([]ImageView, error) {
	imgs, err := s.Repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	out := make([]ImageView, 0, len(imgs))
	for _, img := range imgs {
		out = append(out, toView(img, s.Resolver.Signed(ctx, s.Bucket, img.Ref)))
	}
	return out, nil
}

// Upload stores the buffered file under a fresh key and records it.
func (s *Service) Upload(ctx context.Context, in UploadInput) (UploadResult, error) {
	userID := strings.TrimSpace(in.UserID)
	if userID == "" {
		return UploadResult{}, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}
	if in.File == nil {
		return UploadResult{}, fmt.Errorf("%w: file is required", ErrInvalidInput)
	}

	now := s.now()
	key := objectKey(now, in.File.OriginalName)

	f, err := in.File.Open()
	if err != nil {
		metrics.IncUpload("image", "storage_error")
		return UploadResult{}, fmt.Errorf("%w: open buffered file: %w", ErrStorage, err)
	}
	defer f.Close()

	err = s.Store.Put(ctx, s.Bucket, key, f, in.File.Size, object.PutOptions{
		ContentType:  in.File.MimeType,
		CacheControl: cacheControl,
		Upsert:       false,
	})
	if err != nil {
		metrics.IncUpload("image", "storage_error")
		return UploadResult{}, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	img := Image{
		ID:        uuid.NewString(),
		UserID:    userID,
		Ref:       object.KeyRef(key),
		Latitude:  in.Latitude,
		Longitude: in.Longitude,
		Analysis:  in.Analysis,
		CreatedAt: now,
	}
	if err := s.Repo.Create(ctx, img); err != nil {
		metrics.IncUpload("image", "db_error")
		return UploadResult{}, fmt.Errorf("%w: %w", ErrPersist, err)
	}

	metrics.IncUpload("image", "ok")
	telemetry.Info("image.uploaded", map[string]any{
		"image_id": img.ID,
		"user_id":  userID,
		"key":      key,
		"size":     in.File.Size,
	})
	return UploadResult{Image: img, PublicURL: s.Resolver.Public(s.Bucket, img.Ref)}, nil
}

// Delete removes the record and, best effort, its object and metadata rows.
func (s *Service) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidInput)
	}

	img, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			metrics.IncDelete("not_found")
			return ErrNotFound
		}
		metrics.IncDelete("error")
		return fmt.Errorf("load image: %w", err)
	}

	logOutcome(id, s.removeObject(ctx, img.Ref))

	if err := s.Repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			metrics.IncDelete("not_found")
			return ErrNotFound
		}
		metrics.IncDelete("error")
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}

	logOutcome(id, s.deleteMetadata(ctx, img.Ref))

	metrics.IncDelete("ok")
	return nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func objectKey(now time.Time, originalName string) string {
	name := util.SafeName(originalName, defaultFileName)
	return keyPrefix + strconv.FormatInt(now.UnixMilli(), 10) + "_" + name
}
