// Package conncheck verifies that the object store and database configured
// for the gateway are reachable.
package conncheck

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"image-gateway/internal/shared/storage/object"
)

const probeTTL = 5 * time.Minute

// Storage writes a probe object to bucket, prints its URLs and removes it.
func Storage(ctx context.Context, store object.ObjectStore, bucket string, out io.Writer) error {
	key := "conncheck/probe_" + strconv.FormatInt(time.Now().UTC().UnixMilli(), 10) + ".txt"
	body := "image-gateway connectivity probe"

	if err := store.Put(ctx, bucket, key, strings.NewReader(body), int64(len(body)), object.PutOptions{
		ContentType: "text/plain",
		Upsert:      true,
	}); err != nil {
		return fmt.Errorf("put probe object: %w", err)
	}
	fmt.Fprintf(out, "storage: wrote %s/%s\n", bucket, key)
	fmt.Fprintf(out, "storage: public url %s\n", store.PublicURL(bucket, key))

	signed, err := store.SignedURL(ctx, bucket, key, probeTTL)
	switch {
	case err == nil:
		fmt.Fprintf(out, "storage: signed url %s\n", signed)
	default:
		fmt.Fprintf(out, "storage: signed url unavailable: %v\n", err)
	}

	if err := store.Remove(ctx, bucket, key); err != nil {
		return fmt.Errorf("remove probe object: %w", err)
	}
	fmt.Fprintln(out, "storage: ok")
	return nil
}

// Database pings the database and reports row counts of the gateway tables.
func Database(ctx context.Context, database *sql.DB, out io.Writer) error {
	if err := database.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	for _, table := range []string{"images", "users"} {
		var n int64
		if err := database.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			return fmt.Errorf("count %s: %w", table, err)
		}
		fmt.Fprintf(out, "db: %s rows=%d\n", table, n)
	}
	fmt.Fprintln(out, "db: ok")
	return nil
}
