package object

import (
	"context"
	"errors"
	"io"
	"net/url"
	"strings"
	"time"
)

var (
	// ErrObjectExists is returned by Put when Upsert is false and the key is taken.
	ErrObjectExists = errors.New("object already exists")
	// ErrNotFound is returned when the addressed object does not exist.
	ErrNotFound = errors.New("object not found")
	// ErrSigningUnsupported is returned by stores that cannot mint signed URLs.
	ErrSigningUnsupported = errors.New("signed urls not supported by this store")
)

// PutOptions controls how an object is written.
type PutOptions struct {
	ContentType  string
	CacheControl string
	// Upsert overwrites an existing object at the same key. When false the write
	// fails with ErrObjectExists.
	Upsert bool
}

// ObjectStore is the contract for the bucketed object storage backend.
type ObjectStore interface {
	Put(ctx context.Context, bucket, key string, r io.Reader, size int64, opts PutOptions) error
	PublicURL(bucket, key string) string
	SignedURL(ctx context.Context, bucket, key string, ttl time.Duration) (string, error)
	Remove(ctx context.Context, bucket, key string) error
}

// JoinURL builds base/bucket/key, escaping each key segment.
func JoinURL(base, bucket, key string) string {
	segments := strings.Split(strings.TrimLeft(key, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	out := strings.TrimRight(base, "/")
	if bucket != "" {
		out += "/" + url.PathEscape(bucket)
	}
	return out + "/" + strings.Join(segments, "/")
}
