package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/samirrijal/isstrack/internal/core/domain"
	"github.com/samirrijal/isstrack/internal/core/ports"
	"github.com/samirrijal/isstrack/internal/pkg/geospatial"
	"github.com/samirrijal/isstrack/internal/pkg/metrics"
	"github.com/samirrijal/isstrack/internal/pkg/telemetry"
)

// DefaultCacheKey is the blob key holding the current snapshot.
const DefaultCacheKey = "iss_data"

var tracer = otel.Tracer("github.com/samirrijal/isstrack/internal/core/usecases")

// EphemerisService answers ephemeris queries from the cached snapshot and
// owns the refresh policy that keeps it populated.
type EphemerisService struct {
	store     ports.BlobStore
	feed      ports.FeedSource
	geocoder  ports.Geocoder
	publisher ports.EventPublisher

	key    string
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger

	refreshMu sync.Mutex
}

// Option configures an EphemerisService.
type Option func(*EphemerisService)

// WithCacheKey overrides the snapshot blob key.
func WithCacheKey(key string) Option {
	return func(s *EphemerisService) {
		if key != "" {
			s.key = key
		}
	}
}

// WithCacheTTL sets the snapshot expiry. Zero keeps it until the next refresh.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *EphemerisService) { s.ttl = ttl }
}

// WithClock replaces time.Now for nearest-to-now resolution.
func WithClock(now func() time.Time) Option {
	return func(s *EphemerisService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *EphemerisService) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewEphemerisService creates a new EphemerisService. geocoder and publisher
// may be nil.
func NewEphemerisService(
	store ports.BlobStore,
	feed ports.FeedSource,
	geocoder ports.Geocoder,
	publisher ports.EventPublisher,
	opts ...Option,
) *EphemerisService {
	s := &EphemerisService{
		store:     store,
		feed:      feed,
		geocoder:  geocoder,
		publisher: publisher,
		key:       DefaultCacheKey,
		now:       time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Warm reports whether a snapshot is currently cached, without fetching.
func (s *EphemerisService) Warm(ctx context.Context) (bool, error) {
	return s.store.Exists(ctx, s.key)
}

// Snapshot returns the cached snapshot, fetching the feed on a miss.
func (s *EphemerisService) Snapshot(ctx context.Context) (*domain.Snapshot, error) {
	snap, err := s.load(ctx)
	if err == nil {
		metrics.CacheHits.WithLabelValues("snapshot").Inc()
		return snap, nil
	}
	if !errors.Is(err, domain.ErrCacheMiss) {
		return nil, err
	}
	metrics.CacheMisses.WithLabelValues("snapshot").Inc()

	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	// Another caller may have refreshed while we waited for the lock.
	if snap, err := s.load(ctx); err == nil {
		return snap, nil
	} else if !errors.Is(err, domain.ErrCacheMiss) {
		return nil, err
	}
	return s.refreshLocked(ctx)
}

func (s *EphemerisService) load(ctx context.Context) (*domain.Snapshot, error) {
	data, err := s.store.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, domain.ErrCacheMiss) {
			return nil, err
		}
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return domain.DecodeSnapshot(data)
}

// Refresh fetches the feed and replaces the cached snapshot in one write.
func (s *EphemerisService) Refresh(ctx context.Context) (*domain.Snapshot, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()
	return s.refreshLocked(ctx)
}

func (s *EphemerisService) refreshLocked(ctx context.Context) (*domain.Snapshot, error) {
	ctx, span := tracer.Start(ctx, "EphemerisService.Refresh")
	defer span.End()
	span.SetAttributes(telemetry.AttrFeedURL.String(s.feed.URL()))

	start := time.Now()
	snap, err := s.feed.Fetch(ctx)
	metrics.FeedFetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.FeedFetchErrors.WithLabelValues("fetch").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return nil, err
	}

	if dups := domain.DuplicateEpochs(snap.StateVectors); dups > 0 {
		span.SetAttributes(telemetry.AttrFeedDuplicates.Int(dups))
		s.logger.Warn("feed contains duplicate epochs, first occurrence wins",
			"duplicates", dups,
			"source", snap.Source,
		)
	}

	blob, err := domain.EncodeSnapshot(snap)
	if err != nil {
		metrics.FeedFetchErrors.WithLabelValues("encode").Inc()
		span.RecordError(err)
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	if err := s.store.Set(ctx, s.key, blob, s.ttl); err != nil {
		metrics.FeedFetchErrors.WithLabelValues("store").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "store failed")
		return nil, fmt.Errorf("store snapshot: %w", err)
	}

	metrics.StateVectorsLoaded.Set(float64(snap.Len()))
	metrics.FeedLastRefresh.Set(float64(snap.FetchedAt.Unix()))
	span.SetAttributes(telemetry.AttrFeedStateVectors.Int(snap.Len()))

	s.logger.Info("ephemeris snapshot refreshed",
		"source", snap.Source,
		"state_vectors", snap.Len(),
		"bytes", len(blob),
	)

	if s.publisher != nil {
		event := &domain.FeedRefreshed{
			ID:           uuid.NewString(),
			Source:       snap.Source,
			FetchedAt:    snap.FetchedAt,
			StateVectors: snap.Len(),
		}
		if n := snap.Len(); n > 0 {
			event.FirstEpoch = snap.StateVectors[0].Epoch
			event.LastEpoch = snap.StateVectors[n-1].Epoch
		}
		// The snapshot is already published; a broker outage must not fail the refresh.
		if err := s.publisher.PublishFeedRefreshed(ctx, event); err != nil {
			s.logger.Warn("publish feed refreshed event", "error", err)
		}
	}

	return snap, nil
}

// StartRefresher refreshes the snapshot every interval until ctx is done.
// A non-positive interval disables it.
func (s *EphemerisService) StartRefresher(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.Refresh(ctx); err != nil {
					s.logger.Error("scheduled refresh failed", "error", err)
				}
			}
		}
	}()
}

// List returns a window of state vectors in feed order and the size of the
// whole collection.
func (s *EphemerisService) List(ctx context.Context, page domain.Page) ([]domain.StateVector, int, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, 0, err
	}
	return page.Apply(snap.StateVectors), snap.Len(), nil
}

// GetByEpoch returns the state vector whose epoch matches exactly.
func (s *EphemerisService) GetByEpoch(ctx context.Context, epoch string) (*domain.StateVector, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	sv, ok := domain.FindByEpoch(snap.StateVectors, epoch)
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *sv
	return &out, nil
}

// Speed returns the velocity magnitude at an epoch.
func (s *EphemerisService) Speed(ctx context.Context, epoch string) (*domain.SpeedReport, error) {
	sv, err := s.GetByEpoch(ctx, epoch)
	if err != nil {
		return nil, err
	}
	return &domain.SpeedReport{Epoch: sv.Epoch, Speed: geospatial.VectorSpeed(*sv)}, nil
}

// Location returns the geodetic position at an epoch with its place name.
func (s *EphemerisService) Location(ctx context.Context, epoch string) (*domain.LocationReport, error) {
	sv, err := s.GetByEpoch(ctx, epoch)
	if err != nil {
		return nil, err
	}
	g := geospatial.VectorGeodetic(*sv)
	return &domain.LocationReport{
		Epoch:       sv.Epoch,
		Latitude:    g.Latitude,
		Longitude:   g.Longitude,
		Altitude:    g.Altitude,
		Geoposition: s.geoposition(ctx, g.Point()),
	}, nil
}

// Nearest returns a copy of the state vector nearest the current time,
// without speed, geodesy or geocoding.
func (s *EphemerisService) Nearest(ctx context.Context) (*domain.StateVector, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	sv, err := domain.FindNearest(snap.StateVectors, s.now().UTC())
	if err != nil {
		return nil, err
	}
	out := *sv
	return &out, nil
}

// Now returns the state vector nearest the current time with derived fields.
func (s *EphemerisService) Now(ctx context.Context) (*domain.NowReport, error) {
	sv, err := s.Nearest(ctx)
	if err != nil {
		return nil, err
	}
	g := geospatial.VectorGeodetic(*sv)
	return &domain.NowReport{
		Epoch:       sv.Epoch,
		X:           sv.X,
		Y:           sv.Y,
		Z:           sv.Z,
		XDot:        sv.XDot,
		YDot:        sv.YDot,
		ZDot:        sv.ZDot,
		Speed:       geospatial.VectorSpeed(*sv),
		Latitude:    g.Latitude,
		Longitude:   g.Longitude,
		Altitude:    g.Altitude,
		Geoposition: s.geoposition(ctx, g.Point()),
	}, nil
}

// Metadata returns the OEM metadata block of the snapshot.
func (s *EphemerisService) Metadata(ctx context.Context) (*domain.Metadata, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	md := snap.Metadata
	return &md, nil
}

// Header returns the OEM header of the snapshot.
func (s *EphemerisService) Header(ctx context.Context) (*domain.Header, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	h := snap.Header
	return &h, nil
}

// Comments returns the data-block comments of the snapshot, never nil.
func (s *EphemerisService) Comments(ctx context.Context) ([]string, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if snap.Comments == nil {
		return []string{}, nil
	}
	return snap.Comments, nil
}

// geoposition never fails: lookup errors and empty answers become "Unknown".
func (s *EphemerisService) geoposition(ctx context.Context, p domain.GeoPoint) string {
	if s.geocoder == nil {
		return domain.UnknownGeoposition
	}

	ctx, span := tracer.Start(ctx, "EphemerisService.ReverseGeocode")
	defer span.End()
	span.SetAttributes(telemetry.AttrGeoLat.Float64(p.Lat), telemetry.AttrGeoLon.Float64(p.Lon))

	addr, err := s.geocoder.ReverseGeocode(ctx, p.Lat, p.Lon)
	if err != nil {
		metrics.GeocodeFailures.Inc()
		span.RecordError(err)
		s.logger.Warn("reverse geocode failed", "lat", p.Lat, "lon", p.Lon, "error", err)
		return domain.UnknownGeoposition
	}
	if addr == "" {
		return domain.UnknownGeoposition
	}
	return addr
}
