package usecases_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/samirrijal/pokemap/internal/core/domain"
)

// --- Fake MapWidget ---

type fakeWidget struct {
	mu       sync.Mutex
	center   domain.Coordinates
	zoom     int
	bounds   domain.Bounds
	layers   []domain.TileLayer
	markers  []domain.Marker
	clears   int
	handlers []func()
}

func boundsAround(c domain.Coordinates) domain.Bounds {
	return domain.Bounds{
		NorthWest: domain.Coordinates{Lat: c.Lat + 0.01, Lng: c.Lng - 0.01},
		SouthEast: domain.Coordinates{Lat: c.Lat - 0.01, Lng: c.Lng + 0.01},
	}
}

func (w *fakeWidget) AddTileLayer(layer domain.TileLayer) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.layers = append(w.layers, layer)
	return nil
}

func (w *fakeWidget) SetView(center domain.Coordinates, zoom int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.center = center
	w.zoom = zoom
	w.bounds = boundsAround(center)
	return nil
}

func (w *fakeWidget) Center() domain.Coordinates {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.center
}

func (w *fakeWidget) Zoom() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.zoom
}

func (w *fakeWidget) Bounds() domain.Bounds {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.bounds
}

func (w *fakeWidget) AddMarker(m domain.Marker) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.markers = append(w.markers, m)
	return nil
}

func (w *fakeWidget) ClearMarkers() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.markers = nil
	w.clears++
	return nil
}

func (w *fakeWidget) OnMoveEnd(fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers = append(w.handlers, fn)
}

// Move simulates the user panning/zooming and the view settling.
func (w *fakeWidget) Move(center domain.Coordinates, zoom int) {
	w.mu.Lock()
	w.center = center
	w.zoom = zoom
	w.bounds = boundsAround(center)
	handlers := append([]func(){}, w.handlers...)
	w.mu.Unlock()

	for _, h := range handlers {
		h()
	}
}

func (w *fakeWidget) Markers() []domain.Marker {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]domain.Marker(nil), w.markers...)
}

// --- Mock SightingSource ---

type mockSource struct {
	pastFn      func(ctx context.Context, b domain.Bounds) ([]domain.Sighting, error)
	predictedFn func(ctx context.Context, b domain.Bounds) ([]domain.Sighting, error)
	detailFn    func(ctx context.Context, id int) (*domain.SightingDetail, error)
	windowFn    func(ctx context.Context, tr domain.TimeRange) ([]domain.Sighting, error)

	mu             sync.Mutex
	pastCalls      []domain.Bounds
	predictedCalls []domain.Bounds
	detailCalls    int
}

func (m *mockSource) GetPastData(ctx context.Context, b domain.Bounds) ([]domain.Sighting, error) {
	m.mu.Lock()
	m.pastCalls = append(m.pastCalls, b)
	m.mu.Unlock()
	if m.pastFn != nil {
		return m.pastFn(ctx, b)
	}
	return nil, nil
}

func (m *mockSource) GetPredictedData(ctx context.Context, b domain.Bounds) ([]domain.Sighting, error) {
	m.mu.Lock()
	m.predictedCalls = append(m.predictedCalls, b)
	m.mu.Unlock()
	if m.predictedFn != nil {
		return m.predictedFn(ctx, b)
	}
	return nil, nil
}

func (m *mockSource) GetDetailsByID(ctx context.Context, id int) (*domain.SightingDetail, error) {
	m.mu.Lock()
	m.detailCalls++
	m.mu.Unlock()
	if m.detailFn != nil {
		return m.detailFn(ctx, id)
	}
	return nil, nil
}

func (m *mockSource) GetByTimeRange(ctx context.Context, tr domain.TimeRange) ([]domain.Sighting, error) {
	if m.windowFn != nil {
		return m.windowFn(ctx, tr)
	}
	return nil, nil
}

func (m *mockSource) IconURL(id int) string {
	return fmt.Sprintf("http://pokedata.test/api/pokemon/id/%d/icon", id)
}

func (m *mockSource) PastCalls() []domain.Bounds {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Bounds(nil), m.pastCalls...)
}

func (m *mockSource) PredictedCalls() []domain.Bounds {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Bounds(nil), m.predictedCalls...)
}

// --- Mock CacheService ---

type mockCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMockCache() *mockCache { return &mockCache{data: map[string][]byte{}} }

func (c *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, fmt.Errorf("miss")
	}
	return v, nil
}

func (c *mockCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *mockCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}
