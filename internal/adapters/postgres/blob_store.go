package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/isstrack/internal/core/domain"
)

// BlobStore implements ports.BlobStore on the kv_blobs table.
// Each key is a single row, so Set is one atomic UPSERT.
type BlobStore struct {
	db *DB
}

// NewBlobStore creates a new BlobStore.
func NewBlobStore(db *DB) *BlobStore {
	return &BlobStore{db: db}
}

func (s *BlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.Pool.QueryRow(ctx, `
		SELECT value FROM kv_blobs
		WHERE key = $1 AND (expires_at IS NULL OR expires_at > now())
	`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("get blob %s: %w", key, err)
	}
	return value, nil
}

func (s *BlobStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	var expiresAt *time.Time
	if ttl > 0 {
		t := time.Now().Add(ttl)
		expiresAt = &t
	}
	_, err := s.db.Pool.Exec(ctx, `
		INSERT INTO kv_blobs (key, value, expires_at, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at, updated_at = now()
	`, key, value, expiresAt)
	if err != nil {
		return fmt.Errorf("set blob %s: %w", key, err)
	}
	return nil
}

func (s *BlobStore) Exists(ctx context.Context, key string) (bool, error) {
	var exists bool
	err := s.db.Pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM kv_blobs
			WHERE key = $1 AND (expires_at IS NULL OR expires_at > now())
		)
	`, key).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("exists blob %s: %w", key, err)
	}
	return exists, nil
}

func (s *BlobStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.Pool.Exec(ctx, `DELETE FROM kv_blobs WHERE key = $1`, key); err != nil {
		return fmt.Errorf("delete blob %s: %w", key, err)
	}
	return nil
}

// PurgeExpired removes rows whose TTL has passed and returns how many were deleted.
func (s *BlobStore) PurgeExpired(ctx context.Context) (int64, error) {
	tag, err := s.db.Pool.Exec(ctx, `DELETE FROM kv_blobs WHERE expires_at IS NOT NULL AND expires_at <= now()`)
	if err != nil {
		return 0, fmt.Errorf("purge expired blobs: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Ping checks the underlying pool.
func (s *BlobStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}
