package ports

import (
	"context"
	"time"
)

// BlobStore is the cache gateway: one opaque blob per key.
// Implementations must make Set atomic so readers see either the previous
// blob or the new one in full. Get returns domain.ErrCacheMiss for absent keys.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
}
