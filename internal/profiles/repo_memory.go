package profiles

import (
	"context"
	"sync"
	"time"

	"image-gateway/internal/shared/storage/object"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu    sync.RWMutex
	users map[string]User // externalID -> user
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{users: make(map[string]User)}
}

// GetByExternalID returns the user for an external identifier.
func (r *MemoryRepo) GetByExternalID(ctx context.Context, externalID string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[externalID]
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}

// Create inserts a user, or updates the profile image of an existing record
// with the same external identifier.
func (r *MemoryRepo) Create(ctx context.Context, user User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.users[user.ExternalID]; ok {
		existing.ProfileImage = user.ProfileImage
		existing.UpdatedAt = time.Now().UTC()
		r.users[user.ExternalID] = existing
		return nil
	}
	r.users[user.ExternalID] = user
	return nil
}

// UpdateProfileImage sets the profile image reference for a user ID.
func (r *MemoryRepo) UpdateProfileImage(ctx context.Context, userID string, ref object.Ref) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for ext, user := range r.users {
		if user.ID == userID {
			user.ProfileImage = &ref
			user.UpdatedAt = time.Now().UTC()
			r.users[ext] = user
			return nil
		}
	}
	return ErrNotFound
}

// Len reports how many users are stored.
func (r *MemoryRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}
