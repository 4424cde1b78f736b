package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"go.temporal.io/sdk/client"

	natsadapter "github.com/samirrijal/isstrack/internal/adapters/nats"
	"github.com/samirrijal/isstrack/internal/adapters/oem"
	"github.com/samirrijal/isstrack/internal/bootstrap"
	"github.com/samirrijal/isstrack/internal/core/domain"
	"github.com/samirrijal/isstrack/internal/core/usecases"
	"github.com/samirrijal/isstrack/internal/pkg/config"
	"github.com/samirrijal/isstrack/internal/pkg/logging"
)

// Env opens the collaborators commands need. Tests replace the functions
// with in-memory versions.
type Env struct {
	// Feed returns the configured OEM fetcher.
	Feed func() (*oem.Fetcher, error)
	// Service opens the ephemeris service; close releases its connections.
	Service func(ctx context.Context, geocode bool) (svc *usecases.EphemerisService, close func(), err error)
	// Subscribe delivers refresh events until ctx is done.
	Subscribe func(ctx context.Context, durable string, handler func(context.Context, *domain.FeedRefreshed) error) (close func(), err error)
	// Temporal dials the workflow service and returns the refresh task queue.
	Temporal func() (c client.Client, taskQueue string, err error)
}

// DefaultEnv loads configuration lazily, once per command.
func DefaultEnv() *Env {
	var (
		cfg    *config.Config
		logger *slog.Logger
	)
	load := func() (*config.Config, error) {
		if cfg != nil {
			return cfg, nil
		}
		c, err := config.Load("issctl")
		if err != nil {
			return nil, err
		}
		cfg = c
		logger = logging.New(os.Stderr, c.Log.Level, "text")
		return cfg, nil
	}

	return &Env{
		Feed: func() (*oem.Fetcher, error) {
			c, err := load()
			if err != nil {
				return nil, err
			}
			return oem.NewFetcher(
				oem.WithURL(c.Feed.URL),
				oem.WithTimeout(c.Feed.Timeout),
				oem.WithMaxBodyBytes(c.Feed.MaxBodyBytes),
				oem.WithUserAgent(c.Feed.UserAgent),
			), nil
		},
		Service: func(ctx context.Context, geocode bool) (*usecases.EphemerisService, func(), error) {
			c, err := load()
			if err != nil {
				return nil, nil, err
			}
			rt, err := bootstrap.Build(ctx, c, logger, bootstrap.Options{NoGeocoder: !geocode})
			if err != nil {
				return nil, nil, err
			}
			return rt.Service, rt.Close, nil
		},
		Subscribe: func(ctx context.Context, durable string, handler func(context.Context, *domain.FeedRefreshed) error) (func(), error) {
			c, err := load()
			if err != nil {
				return nil, err
			}
			if !c.NATS.Enabled {
				return nil, fmt.Errorf("nats is disabled (nats.enabled=false)")
			}
			sub, err := natsadapter.NewSubscriber(c.NATS.URL)
			if err != nil {
				return nil, err
			}
			if err := sub.SubscribeFeedRefreshed(ctx, durable, handler); err != nil {
				sub.Close()
				return nil, err
			}
			return sub.Close, nil
		},
		Temporal: func() (client.Client, string, error) {
			c, err := load()
			if err != nil {
				return nil, "", err
			}
			tc, err := client.Dial(client.Options{
				HostPort:  c.Temporal.HostPort,
				Namespace: c.Temporal.Namespace,
				Logger:    logger,
			})
			if err != nil {
				return nil, "", fmt.Errorf("temporal client: %w", err)
			}
			return tc, c.Temporal.TaskQueue, nil
		},
	}
}
