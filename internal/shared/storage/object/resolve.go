package object

import (
	"context"
	"time"

	"image-gateway/internal/shared/metrics"
	"image-gateway/internal/shared/telemetry"
)

// DefaultSignedTTL is the validity of signed URLs handed to clients.
const DefaultSignedTTL = time.Hour

// Resolver turns stored references into URLs a client can fetch.
type Resolver struct {
	Store     ObjectStore
	SignedTTL time.Duration
}

// Signed returns a usable URL for ref. URLs pass through; keys get a signed URL,
// falling back to the bucket's public URL when signing fails. It never fails.
func (r Resolver) Signed(ctx context.Context, bucket string, ref Ref) string {
	switch ref.Kind {
	case RefPublicURL:
		metrics.IncURLResolution(metrics.ResolvePassthrough)
		return ref.Value
	case RefStorageKey:
		ttl := r.SignedTTL
		if ttl <= 0 {
			ttl = DefaultSignedTTL
		}
		signed, err := r.Store.SignedURL(ctx, bucket, ref.Value, ttl)
		if err == nil && signed != "" {
			metrics.IncURLResolution(metrics.ResolveSigned)
			return signed
		}
		telemetry.Warn("object.signed_url.fallback", map[string]any{
			"bucket": bucket,
			"key":    ref.Value,
			"err":    err,
		})
		metrics.IncURLResolution(metrics.ResolvePublicFallback)
		return r.Store.PublicURL(bucket, ref.Value)
	}
	return ref.Value
}

// Public returns the permanent URL for ref.
func (r Resolver) Public(bucket string, ref Ref) string {
	switch ref.Kind {
	case RefPublicURL:
		metrics.IncURLResolution(metrics.ResolvePassthrough)
		return ref.Value
	case RefStorageKey:
		metrics.IncURLResolution(metrics.ResolvePublic)
		return r.Store.PublicURL(bucket, ref.Value)
	}
	return ref.Value
}
