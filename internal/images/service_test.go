package images

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"image-gateway/internal/shared/storage/object"
	"image-gateway/internal/shared/storage/object/objecttest"
	"image-gateway/internal/shared/upload"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestService(store *objecttest.Store) (*Service, *MemoryRepo, *MemoryMetadataRepo) {
	repo := NewMemoryRepo()
	meta := NewMemoryMetadataRepo()
	svc := &Service{
		Store:    store,
		Resolver: object.Resolver{Store: store, SignedTTL: time.Hour},
		Repo:     repo,
		Metadata: meta,
		Bucket:   "images",
		Now:      func() time.Time { return fixedNow },
	}
	return svc, repo, meta
}

// failingRepo wraps MemoryRepo and fails the operations whose error is set.
type failingRepo struct {
	*MemoryRepo
	createErr error
	listErr   error
	deleteErr error
}

func (r *failingRepo) Create(ctx context.Context, img Image) error {
	if r.createErr != nil {
		return r.createErr
	}
	return r.MemoryRepo.Create(ctx, img)
}

func (r *failingRepo) ListAll(ctx context.Context) ([]Image, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	return r.MemoryRepo.ListAll(ctx)
}

func (r *failingRepo) Delete(ctx context.Context, id string) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	return r.MemoryRepo.Delete(ctx, id)
}

type failingMetadataRepo struct {
	err   error
	calls []string
}

func (r *failingMetadataRepo) DeleteByStorageRef(ctx context.Context, ref string) (int64, error) {
	r.calls = append(r.calls, ref)
	return 0, r.err
}

func bufferedFile(t *testing.T, name string, data []byte) *upload.File {
	t.Helper()
	path := filepath.Join(t.TempDir(), "upload-test")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write buffered file: %v", err)
	}
	return &upload.File{Path: path, OriginalName: name, MimeType: "image/jpeg", Size: int64(len(data))}
}

func TestListPassesURLsThroughAndSignsKeys(t *testing.T) {
	store := objecttest.New()
	svc, repo, _ := newTestService(store)
	ctx := context.Background()

	_ = repo.Create(ctx, Image{ID: "a", UserID: "u", Ref: object.ParseRef("HTTPS://legacy.example.com/a.jpg"), CreatedAt: fixedNow.Add(-time.Hour)})
	_ = repo.Create(ctx, Image{ID: "b", UserID: "u", Ref: object.ParseRef("images/1_b.jpg"), CreatedAt: fixedNow})

	views, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(views) != 2 || views[0].ID != "b" || views[1].ID != "a" {
		t.Fatalf("expected newest first, got %+v", views)
	}
	if views[1].URL != "HTTPS://legacy.example.com/a.jpg" {
		t.Fatalf("expected url unchanged, got %q", views[1].URL)
	}
	if !strings.Contains(views[0].URL, "sig=test") || !strings.Contains(views[0].URL, "ttl=1h0m0s") {
		t.Fatalf("expected signed url, got %q", views[0].URL)
	}
}

func TestListFallsBackToPublicURLWhenSigningFails(t *testing.T) {
	store := objecttest.New()
	store.SignErr = errors.New("signing unavailable")
	svc, repo, _ := newTestService(store)
	ctx := context.Background()
	_ = repo.Create(ctx, Image{ID: "b", UserID: "u", Ref: object.KeyRef("images/1_b.jpg"), CreatedAt: fixedNow})

	views, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if want := objecttest.PublicBase + "/images/images/1_b.jpg"; views[0].URL != want {
		t.Fatalf("expected public fallback %q, got %q", want, views[0].URL)
	}
}

func TestUploadStoresUnderTimestampedKey(t *testing.T) {
	store := objecttest.New()
	svc, repo, _ := newTestService(store)
	lat := -23.5
	analysis := `{"label":"cat"}`

	res, err := svc.Upload(context.Background(), UploadInput{
		UserID:   " user-1 ",
		File:     bufferedFile(t, "../cat.jpg", []byte("jpeg")),
		Latitude: &lat,
		Analysis: &analysis,
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	wantKey := "images/1714564800000_cat.jpg"
	obj, ok := store.Get("images", wantKey)
	if !ok {
		t.Fatalf("expected object at %q", wantKey)
	}
	if obj.Opts.Upsert || obj.Opts.CacheControl != "max-age=3600" || obj.Opts.ContentType != "image/jpeg" {
		t.Fatalf("unexpected put options: %+v", obj.Opts)
	}
	if string(obj.Data) != "jpeg" {
		t.Fatalf("unexpected object data %q", obj.Data)
	}

	saved, err := repo.GetByID(context.Background(), res.Image.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if saved.Ref != object.KeyRef(wantKey) {
		t.Fatalf("expected key reference, got %+v", saved.Ref)
	}
	if saved.UserID != "user-1" || !saved.CreatedAt.Equal(fixedNow) {
		t.Fatalf("unexpected record: %+v", saved)
	}
	if saved.Longitude != nil || saved.Latitude == nil || *saved.Latitude != lat {
		t.Fatalf("unexpected coordinates: %+v", saved)
	}
	if res.PublicURL != objecttest.PublicBase+"/images/"+wantKey {
		t.Fatalf("unexpected public url %q", res.PublicURL)
	}
}

func TestUploadStorageFailureSkipsRecord(t *testing.T) {
	store := objecttest.New()
	store.PutErr = errors.New("bucket offline")
	svc, repo, _ := newTestService(store)

	_, err := svc.Upload(context.Background(), UploadInput{UserID: "u", File: bufferedFile(t, "a.jpg", []byte("x"))})
	if !errors.Is(err, ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
	list, _ := repo.ListAll(context.Background())
	if len(list) != 0 {
		t.Fatalf("expected no records, got %d", len(list))
	}
}

func TestUploadRequiresUserID(t *testing.T) {
	svc, _, _ := newTestService(objecttest.New())
	_, err := svc.Upload(context.Background(), UploadInput{UserID: "  ", File: bufferedFile(t, "a.jpg", []byte("x"))})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestDeleteRemovesMetadataWhenObjectAlreadyMissing(t *testing.T) {
	store := objecttest.New()
	svc, repo, meta := newTestService(store)
	ctx := context.Background()

	_ = repo.Create(ctx, Image{ID: "img-1", UserID: "u", Ref: object.KeyRef("images/gone.jpg"), CreatedAt: fixedNow})
	meta.Add("images/gone.jpg")
	meta.Add("images/gone.jpg")

	if err := svc.Delete(ctx, "img-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, "img-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected record removed, got %v", err)
	}
	if meta.Count("images/gone.jpg") != 0 {
		t.Fatalf("expected metadata rows removed")
	}
	if len(store.Removed) != 1 || store.Removed[0] != "images/images/gone.jpg" {
		t.Fatalf("expected one remove attempt, got %v", store.Removed)
	}
}

func TestDeleteSkipsObjectRemovalForURLReference(t *testing.T) {
	store := objecttest.New()
	svc, repo, _ := newTestService(store)
	ctx := context.Background()
	_ = repo.Create(ctx, Image{ID: "img-1", UserID: "u", Ref: object.ParseRef("https://cdn.example.com/x.jpg"), CreatedAt: fixedNow})

	if err := svc.Delete(ctx, "img-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(store.Removed) != 0 {
		t.Fatalf("expected no remove attempts, got %v", store.Removed)
	}
}

func TestDeleteIgnoresRemoveErrors(t *testing.T) {
	store := objecttest.New()
	store.RemoveErr = errors.New("permission denied")
	svc, repo, _ := newTestService(store)
	ctx := context.Background()
	_ = repo.Create(ctx, Image{ID: "img-1", UserID: "u", Ref: object.KeyRef("images/a.jpg"), CreatedAt: fixedNow})

	if err := svc.Delete(ctx, "img-1"); err != nil {
		t.Fatalf("expected best-effort removal, got %v", err)
	}
}

func TestDeleteNotFound(t *testing.T) {
	svc, _, _ := newTestService(objecttest.New())
	if err := svc.Delete(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestObjectKeyFormat(t *testing.T) {
	cases := map[string]string{
		"cat.jpg":       "images/1714564800000_cat.jpg",
		"":              "images/1714564800000_image.jpg",
		"a/b/photo.png": "images/1714564800000_photo.png",
	}
	for in, want := range cases {
		if got := objectKey(fixedNow, in); got != want {
			t.Fatalf("objectKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestListRepoFailure(t *testing.T) {
	svc, repo, _ := newTestService(objecttest.New())
	svc.Repo = &failingRepo{MemoryRepo: repo, listErr: errors.New("connection reset")}

	if _, err := svc.List(context.Background()); err == nil || !strings.Contains(err.Error(), "connection reset") {
		t.Fatalf("expected wrapped list error, got %v", err)
	}
}

func TestUploadRecordFailureReturnsPersistError(t *testing.T) {
	store := objecttest.New()
	svc, repo, _ := newTestService(store)
	svc.Repo = &failingRepo{MemoryRepo: repo, createErr: errors.New("unique violation")}

	_, err := svc.Upload(context.Background(), UploadInput{UserID: "u", File: bufferedFile(t, "a.jpg", []byte("x"))})
	if !errors.Is(err, ErrPersist) {
		t.Fatalf("expected ErrPersist, got %v", err)
	}
	// The object stays in the bucket; there is no rollback.
	if store.Len() != 1 {
		t.Fatalf("expected stored object to remain, got %d", store.Len())
	}
}

func TestDeleteRecordFailure(t *testing.T) {
	store := objecttest.New()
	svc, repo, meta := newTestService(store)
	ctx := context.Background()
	_ = repo.Create(ctx, Image{ID: "img-1", UserID: "u", Ref: object.KeyRef("images/a.jpg"), CreatedAt: fixedNow})
	meta.Add("images/a.jpg")
	svc.Repo = &failingRepo{MemoryRepo: repo, deleteErr: errors.New("statement timeout")}

	err := svc.Delete(ctx, "img-1")
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("expected delete failure, got %v", err)
	}
	if meta.Count("images/a.jpg") != 1 {
		t.Fatalf("expected metadata untouched after failed record delete")
	}
}

func TestDeleteIgnoresMetadataFailure(t *testing.T) {
	svc, repo, _ := newTestService(objecttest.New())
	ctx := context.Background()
	_ = repo.Create(ctx, Image{ID: "img-1", UserID: "u", Ref: object.KeyRef("images/a.jpg"), CreatedAt: fixedNow})
	meta := &failingMetadataRepo{err: errors.New("relation does not exist")}
	svc.Metadata = meta

	if err := svc.Delete(ctx, "img-1"); err != nil {
		t.Fatalf("expected best-effort metadata cleanup, got %v", err)
	}
	if len(meta.calls) != 1 || meta.calls[0] != "images/a.jpg" {
		t.Fatalf("expected one metadata delete for the key, got %v", meta.calls)
	}
	if _, err := repo.GetByID(ctx, "img-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected record removed, got %v", err)
	}
}
