package http

import (
	"context"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/isstrack/internal/core/usecases"
)

// Pinger is anything the readiness check can check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Ephemeris *usecases.EphemerisService
	NATS      *nats.Conn // optional, enables /ws
	Store     Pinger     // cache backend, checked by /ready
	Version   string
}
