package profiles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"image-gateway/internal/shared/storage/object"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// GetByExternalID returns the user for an external identifier.
func (r *PGRepo) GetByExternalID(ctx context.Context, externalID string) (User, error) {
	const query = `
SELECT id, external_id, profile_image, created_at, updated_at
FROM users
WHERE external_id = $1
LIMIT 1`
	var user User
	var profileImage sql.NullString
	var updatedAt sql.NullTime
	err := r.DB.QueryRowContext(ctx, query, externalID).Scan(
		&user.ID,
		&user.ExternalID,
		&profileImage,
		&user.CreatedAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	if profileImage.Valid && profileImage.String != "" {
		ref := object.ParseRef(profileImage.String)
		user.ProfileImage = &ref
	}
	if updatedAt.Valid {
		user.UpdatedAt = updatedAt.Time
	} else {
		user.UpdatedAt = user.CreatedAt
	}
	return user, nil
}

// Create inserts a user. A concurrent insert for the same external identifier
// turns into a profile image update.
func (r *PGRepo) Create(ctx context.Context, user User) error {
	const query = `
INSERT INTO users (id, external_id, profile_image, created_at, updated_at)
VALUES ($1, $2, $3, $4, $4)
ON CONFLICT (external_id) DO UPDATE SET
  profile_image = EXCLUDED.profile_image,
  updated_at = now()`
	_, err := r.DB.ExecContext(ctx, query,
		user.ID,
		user.ExternalID,
		nullableRef(user.ProfileImage),
		user.CreatedAt,
	)
	return err
}

// UpdateProfileImage sets the profile image reference for a user ID.
func (r *PGRepo) UpdateProfileImage(ctx context.Context, userID string, ref object.Ref) error {
	const query = `
UPDATE users
SET profile_image = $2, updated_at = now()
WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query, userID, ref.String())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullableRef(ref *object.Ref) sql.NullString {
	if ref == nil || ref.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: ref.String(), Valid: true}
}
