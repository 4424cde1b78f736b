// Package memory provides an in-process ports.BlobStore for tests, the CLI,
// and single-instance deployments without Valkey.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/samirrijal/isstrack/internal/core/domain"
)

type entry struct {
	value    []byte
	expireAt time.Time // zero => no TTL
}

// Store is a mutex-guarded map of blobs with optional expiry.
type Store struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

// New creates an empty Store.
func New() *Store {
	return &Store{entries: make(map[string]entry), now: time.Now}
}

// Get returns a copy of the blob stored under key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok || s.expired(e) {
		return nil, domain.ErrCacheMiss
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

// Set replaces the blob under key. A non-positive ttl never expires.
func (s *Store) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := entry{value: make([]byte, len(value))}
	copy(e.value, value)
	if ttl > 0 {
		e.expireAt = s.now().Add(ttl)
	}

	s.mu.Lock()
	s.entries[key] = e
	s.mu.Unlock()
	return nil
}

// Exists reports whether key holds an unexpired blob.
func (s *Store) Exists(_ context.Context, key string) (bool, error) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	return ok && !s.expired(e), nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

func (s *Store) expired(e entry) bool {
	return !e.expireAt.IsZero() && !s.now().Before(e.expireAt)
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }
