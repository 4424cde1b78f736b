package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// EpochLayout parses feed epochs such as "2024-100T12:04:00.000Z".
// The year-day field is three digits; fractional seconds of any length are
// accepted on parse.
const EpochLayout = "2006-002T15:04:05Z"

// ParseEpoch converts an epoch string into a UTC instant.
func ParseEpoch(epoch string) (time.Time, error) {
	t, err := time.Parse(EpochLayout, epoch)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: epoch %q: %v", ErrMalformedRecord, epoch, err)
	}
	return t.UTC(), nil
}

// FindByEpoch returns the first state vector whose epoch equals key byte for byte.
func FindByEpoch(vectors []StateVector, key string) (*StateVector, bool) {
	for i := range vectors {
		if vectors[i].Epoch == key {
			return &vectors[i], true
		}
	}
	return nil, false
}

// FindNearest returns the state vector whose epoch is closest to target.
// Ties go to the earlier entry in sequence order. Every epoch is parsed; a
// single unparseable epoch fails the whole lookup.
func FindNearest(vectors []StateVector, target time.Time) (*StateVector, error) {
	if len(vectors) == 0 {
		return nil, ErrDataUnavailable
	}

	best := -1
	var bestDist time.Duration
	for i := range vectors {
		t, err := ParseEpoch(vectors[i].Epoch)
		if err != nil {
			return nil, err
		}
		d := absDuration(t.Sub(target))
		if best < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return &vectors[best], nil
}

// DuplicateEpochs counts epochs that appear more than once.
func DuplicateEpochs(vectors []StateVector) int {
	seen := make(map[string]struct{}, len(vectors))
	dups := 0
	for _, v := range vectors {
		if _, ok := seen[v.Epoch]; ok {
			dups++
			continue
		}
		seen[v.Epoch] = struct{}{}
	}
	return dups
}

// Page selects a window of the stored sequence. A nil Limit means
// "everything after Offset".
type Page struct {
	Offset int
	Limit  *int
}

// Apply slices vectors according to the page. Negative offsets are treated
// as zero, a limit of zero or less yields no items, and an offset past the
// end yields an empty (non-nil) slice.
func (p Page) Apply(vectors []StateVector) []StateVector {
	offset := p.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(vectors) {
		return []StateVector{}
	}
	end := len(vectors)
	if p.Limit != nil {
		if *p.Limit <= 0 {
			return []StateVector{}
		}
		if offset+*p.Limit < end {
			end = offset + *p.Limit
		}
	}
	return vectors[offset:end]
}

// EncodeSnapshot serializes a snapshot for the blob store. A nil vector
// slice is written as [] so the blob still decodes as an empty collection.
func EncodeSnapshot(s *Snapshot) ([]byte, error) {
	if s.StateVectors == nil {
		cp := *s
		cp.StateVectors = []StateVector{}
		s = &cp
	}
	return json.Marshal(s)
}

// DecodeSnapshot parses a stored blob. Besides the snapshot object it
// accepts a bare array of state vectors, the layout the legacy tracker wrote.
func DecodeSnapshot(blob []byte) (*Snapshot, error) {
	blob = bytes.TrimSpace(blob)
	if len(blob) == 0 {
		return nil, fmt.Errorf("%w: empty blob", ErrMalformedFeed)
	}

	if blob[0] == '[' {
		vectors := []StateVector{}
		if err := json.Unmarshal(blob, &vectors); err != nil {
			return nil, fmt.Errorf("%w: decode legacy blob: %v", ErrMalformedFeed, err)
		}
		return &Snapshot{StateVectors: vectors}, nil
	}

	if blob[0] != '{' {
		return nil, fmt.Errorf("%w: blob is neither a snapshot object nor an array", ErrMalformedFeed)
	}
	var s Snapshot
	if err := json.Unmarshal(blob, &s); err != nil {
		return nil, fmt.Errorf("%w: decode snapshot: %v", ErrMalformedFeed, err)
	}
	// An absent or null state_vectors leaves the slice nil; "[]" does not.
	if s.StateVectors == nil {
		return nil, fmt.Errorf("%w: snapshot without state_vectors", ErrMalformedFeed)
	}
	return &s, nil
}

func absDuration(d time.Duration) time.Duration {
	if d == math.MinInt64 {
		return math.MaxInt64
	}
	if d < 0 {
		return -d
	}
	return d
}
