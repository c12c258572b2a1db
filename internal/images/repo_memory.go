package images

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Image
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]Image)}
}

// Create stores a new image record.
func (r *MemoryRepo) Create(ctx context.Context, img Image) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[img.ID] = img
	return nil
}

// ListAll returns every record, newest first.
func (r *MemoryRepo) ListAll(ctx context.Context) ([]Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]Image, 0, len(r.data))
	for _, img := range r.data {
		out = append(out, img)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// GetByID returns a record by ID.
func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Image, error) {
	if err := ctx.Err(); err != nil {
		return Image{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	img, ok := r.data[id]
	if !ok {
		return Image{}, ErrNotFound
	}
	return img, nil
}

// Delete removes a record by ID.
func (r *MemoryRepo) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[id]; !ok {
		return ErrNotFound
	}
	delete(r.data, id)
	return nil
}

// MemoryMetadataRepo counts metadata rows per stored reference.
type MemoryMetadataRepo struct {
	mu   sync.Mutex
	rows map[string]int
}

// NewMemoryMetadataRepo constructs a MemoryMetadataRepo.
func NewMemoryMetadataRepo() *MemoryMetadataRepo {
	return &MemoryMetadataRepo{rows: make(map[string]int)}
}

// Add records one metadata row for ref.
func (r *MemoryMetadataRepo) Add(ref string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[ref]++
}

// Count returns the rows held for ref.
func (r *MemoryMetadataRepo) Count(ref string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rows[ref]
}

// DeleteByStorageRef drops every row for ref.
func (r *MemoryMetadataRepo) DeleteByStorageRef(ctx context.Context, ref string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	n := r.rows[ref]
	delete(r.rows, ref)
	return int64(n), nil
}
