package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"image-gateway/internal/shared/storage/object"
)

// Store implements ObjectStore on Google Cloud Storage.
type Store struct {
	client     *storage.Client
	publicBase string
}

// New creates a GCS client. An empty credentialsFile uses application default credentials.
func New(ctx context.Context, credentialsFile, publicBase string) (*Store, error) {
	var opts []option.ClientOption
	if strings.TrimSpace(credentialsFile) != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	return &Store{client: client, publicBase: normalizeBase(publicBase)}, nil
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

// Put streams the reader into bucket/key. Without Upsert the write carries a
// DoesNotExist precondition.
func (s *Store) Put(ctx context.Context, bucket, key string, r io.Reader, size int64, opts object.PutOptions) error {
	obj := s.client.Bucket(bucket).Object(key)
	if !opts.Upsert {
		obj = obj.If(storage.Conditions{DoesNotExist: true})
	}

	// Cancelling the writer's context abandons the upload; Close would commit
	// whatever was written so far.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := obj.NewWriter(ctx)
	w.ContentType = opts.ContentType
	w.CacheControl = opts.CacheControl
	if _, err := io.Copy(w, r); err != nil {
		cancel()
		return fmt.Errorf("gcs write bucket=%s key=%s: %w", bucket, key, err)
	}
	if err := w.Close(); err != nil {
		if isPreconditionFailed(err) {
			return fmt.Errorf("gcs write bucket=%s key=%s: %w", bucket, key, object.ErrObjectExists)
		}
		return fmt.Errorf("gcs write bucket=%s key=%s: %w", bucket, key, err)
	}
	return nil
}

// PublicURL returns the permanent URL of bucket/key.
func (s *Store) PublicURL(bucket, key string) string {
	return object.JoinURL(s.publicBase, bucket, key)
}

// SignedURL returns a V4 signed GET URL valid for ttl, signed with the client's credentials.
func (s *Store) SignedURL(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	u, err := s.client.Bucket(bucket).SignedURL(key, &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  http.MethodGet,
		Expires: time.Now().Add(ttl),
	})
	if err != nil {
		return "", fmt.Errorf("gcs sign bucket=%s key=%s: %w", bucket, key, err)
	}
	return u, nil
}

// Remove deletes bucket/key.
func (s *Store) Remove(ctx context.Context, bucket, key string) error {
	if err := s.client.Bucket(bucket).Object(key).Delete(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return fmt.Errorf("gcs delete bucket=%s key=%s: %w", bucket, key, object.ErrNotFound)
		}
		return fmt.Errorf("gcs delete bucket=%s key=%s: %w", bucket, key, err)
	}
	return nil
}

func isPreconditionFailed(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusPreconditionFailed
	}
	return false
}

func normalizeBase(raw string) string {
	base := strings.TrimRight(strings.TrimSpace(raw), "/")
	if base == "" {
		return "https://storage.googleapis.com"
	}
	return base
}

var _ object.ObjectStore = (*Store)(nil)
