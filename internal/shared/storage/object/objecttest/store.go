// Package objecttest provides an in-memory object.ObjectStore for tests.
package objecttest

import (
	"context"
	"io"
	"sync"
	"time"

	"image-gateway/internal/shared/storage/object"
)

// PublicBase is the URL prefix Store uses for public URLs.
const PublicBase = "https://cdn.test"

// Object is a stored blob plus the options it was written with.
type Object struct {
	Data []byte
	Opts object.PutOptions
}

// Store keeps objects in memory. Set the *Err fields to force failures.
type Store struct {
	mu      sync.Mutex
	objects map[string]Object

	PutErr    error
	SignErr   error
	RemoveErr error

	Removed []string
}

// New constructs an empty Store.
func New() *Store {
	return &Store{objects: make(map[string]Object)}
}

func id(bucket, key string) string { return bucket + "/" + key }

// Put stores r under bucket/key honoring Upsert.
func (s *Store) Put(ctx context.Context, bucket, key string, r io.Reader, size int64, opts object.PutOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.PutErr != nil {
		return s.PutErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[id(bucket, key)]; ok && !opts.Upsert {
		return object.ErrObjectExists
	}
	s.objects[id(bucket, key)] = Object{Data: data, Opts: opts}
	return nil
}

// PublicURL returns PublicBase/bucket/key.
func (s *Store) PublicURL(bucket, key string) string {
	return object.JoinURL(PublicBase, bucket, key)
}

// SignedURL returns the public URL with a fake signature query.
func (s *Store) SignedURL(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	if s.SignErr != nil {
		return "", s.SignErr
	}
	return s.PublicURL(bucket, key) + "?sig=test&ttl=" + ttl.String(), nil
}

// Remove deletes bucket/key.
func (s *Store) Remove(ctx context.Context, bucket, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Removed = append(s.Removed, id(bucket, key))
	if s.RemoveErr != nil {
		return s.RemoveErr
	}
	if _, ok := s.objects[id(bucket, key)]; !ok {
		return object.ErrNotFound
	}
	delete(s.objects, id(bucket, key))
	return nil
}

// Get returns the stored object, if any.
func (s *Store) Get(bucket, key string) (Object, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[id(bucket, key)]
	return obj, ok
}

// Len reports how many objects are stored.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}
