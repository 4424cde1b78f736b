// Package bootstrap wires the ephemeris service from configuration. The API
// server, the refresh worker and the operator CLI all share it.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/samirrijal/isstrack/internal/adapters/memory"
	natsadapter "github.com/samirrijal/isstrack/internal/adapters/nats"
	"github.com/samirrijal/isstrack/internal/adapters/nominatim"
	"github.com/samirrijal/isstrack/internal/adapters/oem"
	"github.com/samirrijal/isstrack/internal/adapters/postgres"
	"github.com/samirrijal/isstrack/internal/adapters/valkey"
	"github.com/samirrijal/isstrack/internal/core/ports"
	"github.com/samirrijal/isstrack/internal/core/usecases"
	"github.com/samirrijal/isstrack/internal/pkg/config"
	"github.com/samirrijal/isstrack/internal/pkg/metrics"
)

// Store is a blob store the readiness check can ping.
type Store interface {
	ports.BlobStore
	Ping(ctx context.Context) error
}

// Runtime owns the service and the connections behind it.
type Runtime struct {
	Service   *usecases.EphemerisService
	Store     Store
	Publisher *natsadapter.Publisher // nil when NATS is disabled or down
	DB        *postgres.DB           // nil unless cache.backend is postgres

	closers []func()
}

// Options tune Build for short-lived processes.
type Options struct {
	// NoPublisher skips the NATS connection.
	NoPublisher bool
	// NoGeocoder leaves geoposition as "Unknown".
	NoGeocoder bool
}

// Build connects the configured cache backend, feed, geocoder and publisher.
// Optional collaborators that fail to connect are logged and left out.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts Options) (*Runtime, error) {
	rt := &Runtime{}

	store, err := rt.openStore(ctx, cfg)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.Store = store

	feed := oem.NewFetcher(
		oem.WithURL(cfg.Feed.URL),
		oem.WithTimeout(cfg.Feed.Timeout),
		oem.WithMaxBodyBytes(cfg.Feed.MaxBodyBytes),
		oem.WithUserAgent(cfg.Feed.UserAgent),
	)

	var geocoder ports.Geocoder
	if cfg.Geocoder.Enabled && !opts.NoGeocoder {
		geocoder = nominatim.New(
			nominatim.WithBaseURL(cfg.Geocoder.BaseURL),
			nominatim.WithUserAgent(cfg.Geocoder.UserAgent),
			nominatim.WithZoom(cfg.Geocoder.Zoom),
			nominatim.WithRateLimit(cfg.Geocoder.RateLimit),
			nominatim.WithTimeout(cfg.Geocoder.Timeout),
		)
	}

	var publisher ports.EventPublisher
	if cfg.NATS.Enabled && !opts.NoPublisher {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			logger.Warn("nats unavailable, refresh events disabled", "error", err)
		} else {
			rt.Publisher = pub
			publisher = pub
			rt.closers = append(rt.closers, pub.Close)
		}
	}

	rt.Service = usecases.NewEphemerisService(store, feed, geocoder, publisher,
		usecases.WithCacheKey(cfg.Cache.Key),
		usecases.WithCacheTTL(cfg.Feed.CacheTTL),
		usecases.WithLogger(logger),
	)
	return rt, nil
}

func (rt *Runtime) openStore(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.Cache.Backend {
	case config.BackendMemory:
		return memory.New(), nil

	case config.BackendPostgres:
		db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
		if err != nil {
			return nil, fmt.Errorf("database: %w", err)
		}
		rt.DB = db
		rt.closers = append(rt.closers, db.Close)
		return postgres.NewBlobStore(db), nil

	default:
		cache, err := valkey.New(cfg.Valkey.Addr)
		if err != nil {
			return nil, fmt.Errorf("valkey: %w", err)
		}
		rt.closers = append(rt.closers, cache.Close)
		return cache, nil
	}
}

// WatchDBPool exports pool statistics every interval until ctx is done.
// It is a no-op for non-postgres backends.
func (rt *Runtime) WatchDBPool(ctx context.Context, interval time.Duration) {
	if rt.DB == nil {
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
				metrics.UpdateDBPoolMetrics(rt.DB.Pool.Stat())
			}
		}
	}()
}

// Close releases connections in reverse order of opening.
func (rt *Runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
	rt.closers = nil
}
