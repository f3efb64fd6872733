package ports

import (
	"context"

	"github.com/samirrijal/pokemap/internal/core/domain"
)

// MapWidget is the rendering surface the controller drives. Implementations
// must be safe for concurrent use, must not hold internal locks while
// invoking move-end handlers, and must not invoke them from inside their own
// method calls.
type MapWidget interface {
	AddTileLayer(layer domain.TileLayer) error
	SetView(center domain.Coordinates, zoom int) error
	Center() domain.Coordinates
	Zoom() int
	Bounds() domain.Bounds
	AddMarker(m domain.Marker) error
	ClearMarkers() error
	OnMoveEnd(fn func())
}

// SightingSource fetches sightings from the remote data API.
type SightingSource interface {
	GetPastData(ctx context.Context, bounds domain.Bounds) ([]domain.Sighting, error)
	GetPredictedData(ctx context.Context, bounds domain.Bounds) ([]domain.Sighting, error)
	GetDetailsByID(ctx context.Context, pokemonID int) (*domain.SightingDetail, error)
	GetByTimeRange(ctx context.Context, tr domain.TimeRange) ([]domain.Sighting, error)
	IconURL(pokemonID int) string
}
