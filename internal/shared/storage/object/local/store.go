package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"image-gateway/internal/shared/storage/object"
)

// Store implements ObjectStore using the local filesystem. Buckets are
// directories under baseDir; objects are served by the router under publicBase.
type Store struct {
	baseDir    string
	publicBase string
}

// New creates a new local object store rooted at baseDir.
func New(baseDir, publicBase string) *Store {
	return &Store{baseDir: baseDir, publicBase: strings.TrimRight(publicBase, "/")}
}

// Dir returns the root directory, for mounting as a static file route.
func (s *Store) Dir() string {
	return s.baseDir
}

// Put writes the reader to baseDir/bucket/key.
func (s *Store) Put(ctx context.Context, bucket, key string, r io.Reader, size int64, opts object.PutOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	fullPath, err := s.path(bucket, key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	if !opts.Upsert {
		f, err := os.OpenFile(fullPath, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
		if err != nil {
			if errors.Is(err, os.ErrExist) {
				return fmt.Errorf("put %s/%s: %w", bucket, key, object.ErrObjectExists)
			}
			return fmt.Errorf("open file: %w", err)
		}
		if _, err := io.Copy(f, r); err != nil {
			f.Close()
			_ = os.Remove(fullPath)
			return fmt.Errorf("write body: %w", err)
		}
		return f.Close()
	}

	// Write beside the target and rename so readers never see a partial object.
	tmp, err := os.CreateTemp(filepath.Dir(fullPath), ".put-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write body: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

// PublicURL returns the URL under which the router serves the object.
func (s *Store) PublicURL(bucket, key string) string {
	return object.JoinURL(s.publicBase, bucket, key)
}

// SignedURL is not supported on the filesystem; callers fall back to PublicURL.
func (s *Store) SignedURL(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	return "", object.ErrSigningUnsupported
}

// Remove deletes the object from disk.
func (s *Store) Remove(ctx context.Context, bucket, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fullPath, err := s.path(bucket, key)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove %s/%s: %w", bucket, key, object.ErrNotFound)
		}
		return fmt.Errorf("remove %s/%s: %w", bucket, key, err)
	}
	return nil
}

func (s *Store) path(bucket, key string) (string, error) {
	cleanKey := filepath.Clean(key)
	if strings.TrimSpace(key) == "" || strings.HasPrefix(cleanKey, "..") || filepath.IsAbs(cleanKey) {
		return "", fmt.Errorf("invalid storage key")
	}
	if bucket == "" || strings.ContainsAny(bucket, `/\`) || bucket == ".." {
		return "", fmt.Errorf("invalid bucket")
	}
	return filepath.Join(s.baseDir, bucket, cleanKey), nil
}

var _ object.ObjectStore = (*Store)(nil)
