package ports

import (
	"context"

	"github.com/samirrijal/isstrack/internal/core/domain"
)

// FeedSource fetches and parses one full ephemeris document.
type FeedSource interface {
	// URL identifies the feed for logs and snapshots.
	URL() string
	Fetch(ctx context.Context) (*domain.Snapshot, error)
}

// Geocoder maps coordinates to a human-readable place name.
// An empty address with a nil error means the point has no address (open ocean).
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (string, error)
}

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishFeedRefreshed(ctx context.Context, event *domain.FeedRefreshed) error
}
