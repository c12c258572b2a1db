package images

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

const selectImageColumns = `id, user_id, url, latitude, longitude, analysis, created_at`

// Create inserts a new image record.
func (r *PGRepo) Create(ctx context.Context, img Image) error {
	const query = `
INSERT INTO images (
    id,
    user_id,
    url,
    latitude,
    longitude,
    analysis,
    created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.DB.ExecContext(
		ctx,
		query,
		img.ID,
		img.UserID,
		img.Ref.String(),
		nullFloat(img.Latitude),
		nullFloat(img.Longitude),
		nullString(img.Analysis),
		img.CreatedAt,
	)
	return err
}

// ListAll returns every record ordered by created_at descending.
func (r *PGRepo) ListAll(ctx context.Context) ([]Image, error) {
	query := `SELECT ` + selectImageColumns + `
FROM images
ORDER BY created_at DESC`

	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Image{}
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, img)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID fetches a record by ID.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Image, error) {
	query := `SELECT ` + selectImageColumns + `
FROM images
WHERE id = $1
LIMIT 1`

	img, err := scanImage(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Image{}, ErrNotFound
		}
		return Image{}, err
	}
	return img, nil
}

// Delete removes a record by ID.
func (r *PGRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM images WHERE id = $1`, id)
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanImage(row rowScanner) (Image, error) {
	var img Image
	var userID sql.NullString
	var ref string
	var lat, lng sql.NullFloat64
	var analysis sql.NullString
	if err := row.Scan(&img.ID, &userID, &ref, &lat, &lng, &analysis, &img.CreatedAt); err != nil {
		return Image{}, err
	}
	img.UserID = userID.String
	img.Ref = object.ParseRef(ref)
	if lat.Valid {
		img.Latitude = &lat.Float64
	}
	if lng.Valid {
		img.Longitude = &lng.Float64
	}
	if analysis.Valid {
		img.Analysis = &analysis.String
	}
	return img, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

// PGMetadataRepo implements MetadataRepo over images_metadata.
type PGMetadataRepo struct {
	DB *sql.DB
}

// DeleteByStorageRef removes metadata rows for the stored reference.
func (r *PGMetadataRepo) DeleteByStorageRef(ctx context.Context, ref string) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM images_metadata WHERE storage_ref = $1`, ref)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
