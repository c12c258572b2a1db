package images

import (
	"context"

	"image-gateway/internal/shared/metrics"
	"image-gateway/internal/shared/storage/object"
	"image-gateway/internal/shared/telemetry"
)

const (
	stepRemoveObject   = "remove_object"
	stepDeleteMetadata = "delete_metadata"
)

// Outcome reports what a best-effort cleanup step did. It is logged and
// never returned to the caller.
type Outcome struct {
	Step      string
	Attempted bool
	Skipped   string
	Affected  int64
	Err       error
}

// removeObject deletes the bucket object behind ref. URL references are not
// bucket keys and are skipped.
func (s *Service) removeObject(ctx context.Context, ref object.Ref) Outcome {
	out := Outcome{Step: stepRemoveObject}
	switch {
	case ref.IsZero():
		out.Skipped = "empty reference"
		return out
	case ref.Kind == object.RefPublicURL:
		out.Skipped = "public url reference"
		return out
	}
	out.Attempted = true
	out.Err = s.Store.Remove(ctx, s.Bucket, ref.Value)
	if out.Err == nil {
		out.Affected = 1
	}
	return out
}

// deleteMetadata drops images_metadata rows keyed by the stored reference.
func (s *Service) deleteMetadata(ctx context.Context, ref object.Ref) Outcome {
	out := Outcome{Step: stepDeleteMetadata}
	if s.Metadata == nil {
		out.Skipped = "metadata store not configured"
		return out
	}
	if ref.IsZero() {
		out.Skipped = "empty reference"
		return out
	}
	out.Attempted = true
	out.Affected, out.Err = s.Metadata.DeleteByStorageRef(ctx, ref.String())
	return out
}

func logOutcome(imageID string, out Outcome) {
	fields := map[string]any{
		"image_id":  imageID,
		"step":      out.Step,
		"attempted": out.Attempted,
		"affected":  out.Affected,
	}
	if out.Skipped != "" {
		fields["skipped"] = out.Skipped
	}
	if out.Err != nil {
		fields["err"] = out.Err
		metrics.IncBestEffortFailure(out.Step)
		telemetry.Warn("image.delete.cleanup_failed", fields)
		return
	}
	telemetry.Info("image.delete.cleanup", fields)
}
