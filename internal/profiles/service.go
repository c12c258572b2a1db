package profiles

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"image-gateway/internal/shared/metrics"
	"image-gateway/internal/shared/storage/object"
	"image-gateway/internal/shared/telemetry"
	"image-gateway/internal/shared/upload"
)

// Service manages profile pictures.
type Service struct {
	Store    object.ObjectStore
	Resolver object.Resolver
	Repo     Repo
	Bucket   string
	Now      func() time.Time
}

// UploadProfileImage overwrites the user's profile picture and returns its
// public URL. Unknown users are created on first upload.
func (s *Service) UploadProfileImage(ctx context.Context, externalID string, file *upload.File) (string, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return "", fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}
	if file == nil {
		return "", fmt.Errorf("%w: file is required", ErrInvalidInput)
	}
	key := profileKey(externalID)

	f, err := file.Open()
	if err != nil {
		metrics.IncUpload("profile", "storage_error")
		return "", fmt.Errorf("%w: open buffered file: %w", ErrStorage, err)
	}
	defer f.Close()

	err = s.Store.Put(ctx, s.Bucket, key, f, file.Size, object.PutOptions{
		ContentType: file.MimeType,
		Upsert:      true,
	})
	if err != nil {
		metrics.IncUpload("profile", "storage_error")
		return "", fmt.Errorf("%w: %w", ErrStorage, err)
	}

	publicURL := s.Resolver.Public(s.Bucket, object.KeyRef(key))
	ref := object.URLRef(publicURL)

	user, err := s.Repo.GetByExternalID(ctx, externalID)
	switch {
	case err == nil:
		if err := s.Repo.UpdateProfileImage(ctx, user.ID, ref); err != nil {
			metrics.IncUpload("profile", "db_error")
			return "", fmt.Errorf("%w: update user: %w", ErrPersist, err)
		}
	case errors.Is(err, ErrNotFound):
		now := s.now()
		user = User{
			ID:           uuid.NewString(),
			ExternalID:   externalID,
			ProfileImage: &ref,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := s.Repo.Create(ctx, user); err != nil {
			metrics.IncUpload("profile", "db_error")
			return "", fmt.Errorf("%w: create user: %w", ErrPersist, err)
		}
	default:
		metrics.IncUpload("profile", "db_error")
		return "", fmt.Errorf("%w: lookup user: %w", ErrPersist, err)
	}

	metrics.IncUpload("profile", "ok")
	telemetry.Info("profile.uploaded", map[string]any{
		"user_id": externalID,
		"key":     key,
		"size":    file.Size,
	})
	return publicURL, nil
}

// ProfileImageURL returns a fetchable URL for the user's profile picture.
func (s *Service) ProfileImageURL(ctx context.Context, externalID string) (string, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return "", fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}
	user, err := s.Repo.GetByExternalID(ctx, externalID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: lookup user: %w", ErrPersist, err)
	}
	if user.ProfileImage == nil || user.ProfileImage.IsZero() {
		return "", ErrNoProfileImage
	}
	return s.Resolver.Public(s.Bucket, *user.ProfileImage), nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// profileKey escapes the id so every user gets a distinct single-segment key.
func profileKey(externalID string) string {
	return "profile_" + url.PathEscape(externalID) + ".jpg"
}
