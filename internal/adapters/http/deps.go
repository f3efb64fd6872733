package http

import (
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/pokemap/internal/adapters/valkey"
	"github.com/samirrijal/pokemap/internal/core/ports"
	"github.com/samirrijal/pokemap/internal/core/usecases"
	"github.com/samirrijal/pokemap/internal/pkg/config"
)

// BreakerState reports the data API circuit breaker state.
type BreakerState interface {
	State() string
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Sightings *usecases.SightingService
	// Source backs the map controller of every websocket session.
	Source    ports.SightingSource
	Sessions  *Sessions
	Publisher ports.EventPublisher
	Breaker   BreakerState
	NATS      *nats.Conn
	Cache     *valkey.Cache
	Map       config.MapConfig
	// DocsPath is the OpenAPI document served under /docs.
	DocsPath string
}
