package ports

import (
	"context"

	"github.com/samirrijal/pokemap/internal/core/domain"
)

// EventPublisher mirrors map session events to a message broker.
type EventPublisher interface {
	PublishViewport(ctx context.Context, sessionID string, ev domain.MoveEnd) error
	PublishRefreshError(ctx context.Context, sessionID string, refreshErr error) error
}

// EventSubscriber delivers upstream notifications that new sightings exist.
type EventSubscriber interface {
	SubscribeSightingUpdates(ctx context.Context, handler func(ctx context.Context) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
