package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/samirrijal/isstrack/internal/core/domain"
)

func TestStore_SetGet(t *testing.T) {
	s := New()
	ctx := context.Background()

	if _, err := s.Get(ctx, "k"); !errors.Is(err, domain.ErrCacheMiss) {
		t.Fatalf("expected cache miss, got %v", err)
	}

	if err := s.Set(ctx, "k", []byte("v1"), 0); err != nil {
		t.Fatal(err)
	}
	got, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "v1" {
		t.Errorf("got %q, want v1", got)
	}

	// Mutating the returned slice must not affect the stored blob.
	got[0] = 'x'
	again, _ := s.Get(ctx, "k")
	if string(again) != "v1" {
		t.Errorf("stored blob was mutated: %q", again)
	}

	if ok, _ := s.Exists(ctx, "k"); !ok {
		t.Error("expected key to exist")
	}
	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if ok, _ := s.Exists(ctx, "k"); ok {
		t.Error("expected key to be gone")
	}
}

func TestStore_TTL(t *testing.T) {
	s := New()
	now := time.Date(2024, 4, 9, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	_ = s.Set(ctx, "k", []byte("v"), time.Minute)
	if ok, _ := s.Exists(ctx, "k"); !ok {
		t.Fatal("expected key before expiry")
	}

	now = now.Add(time.Minute)
	if ok, _ := s.Exists(ctx, "k"); ok {
		t.Error("expected key to expire")
	}
	if _, err := s.Get(ctx, "k"); !errors.Is(err, domain.ErrCacheMiss) {
		t.Errorf("expected cache miss after expiry, got %v", err)
	}
}
