package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/samirrijal/pokemap/internal/core/domain"
	"github.com/samirrijal/pokemap/internal/core/ports"
	"github.com/samirrijal/pokemap/internal/pkg/metrics"
)

// KeepZoom passed to Goto leaves the current zoom level untouched.
const KeepZoom = 0

// MapOptions configures a MapController. Coordinates, ZoomLevel and
// TimeRange are required.
type MapOptions struct {
	Coordinates *domain.Coordinates
	ZoomLevel   int
	TimeRange   *domain.TimeRange

	// TileLayer defaults to domain.DefaultTileLayer when its URL is empty.
	TileLayer domain.TileLayer

	// AccumulateMarkers keeps the markers of earlier refreshes on the map
	// instead of replacing them.
	AccumulateMarkers bool

	Logger *slog.Logger
}

// ErrorEvent reports a refresh that could not be applied.
type ErrorEvent struct {
	Seq    uint64
	Bounds domain.Bounds
	Err    error
}

// MarkersEvent reports the markers placed by a refresh.
type MarkersEvent struct {
	Seq     uint64
	Bounds  domain.Bounds
	Markers []domain.Marker
}

// Refresh is the pending result of one UpdatePoints call.
type Refresh struct {
	seq    uint64
	bounds domain.Bounds
	done   chan struct{}

	markers []domain.Marker
	err     error
}

func newRefresh(seq uint64, bounds domain.Bounds) *Refresh {
	return &Refresh{seq: seq, bounds: bounds, done: make(chan struct{})}
}

func (r *Refresh) resolve(markers []domain.Marker, err error) {
	r.markers = markers
	r.err = err
	close(r.done)
}

// Seq is the request sequence number; later refreshes have larger values.
func (r *Refresh) Seq() uint64 { return r.seq }

// Bounds is the viewport the refresh was issued for.
func (r *Refresh) Bounds() domain.Bounds { return r.bounds }

// Done is closed once the refresh has resolved.
func (r *Refresh) Done() <-chan struct{} { return r.done }

// Wait blocks until the refresh resolves or ctx ends. A superseded refresh
// resolves with domain.ErrStaleRefresh.
func (r *Refresh) Wait(ctx context.Context) ([]domain.Marker, error) {
	select {
	case <-r.done:
		return r.markers, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// MapController binds a map widget's viewport to the sighting feed.
type MapController struct {
	widget     ports.MapWidget
	source     ports.SightingSource
	log        *slog.Logger
	accumulate bool

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	timeRange domain.TimeRange
	seq       uint64
	inFlight  context.CancelFunc
	latest    *Refresh
	closed    bool

	moveEnd *Topic[domain.MoveEnd]
	errs    *Topic[ErrorEvent]
	markers *Topic[MarkersEvent]
}

// NewMapController validates opts, centres the widget and issues the first
// refresh. The returned controller is already active.
func NewMapController(ctx context.Context, widget ports.MapWidget, source ports.SightingSource, opts MapOptions) (*MapController, error) {
	if opts.Coordinates == nil {
		return nil, &domain.ConfigError{Field: "coordinates"}
	}
	if err := opts.Coordinates.Validate(); err != nil {
		return nil, &domain.ConfigError{Field: "coordinates", Reason: err.Error()}
	}
	if opts.ZoomLevel <= 0 {
		return nil, &domain.ConfigError{Field: "zoomLevel"}
	}
	if opts.TimeRange == nil {
		return nil, &domain.ConfigError{Field: "timeRange"}
	}
	if widget == nil {
		return nil, &domain.ConfigError{Field: "widget"}
	}
	if source == nil {
		return nil, &domain.ConfigError{Field: "source"}
	}

	layer := opts.TileLayer
	if layer.URL == "" {
		layer = domain.DefaultTileLayer()
	}

	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	cctx, cancel := context.WithCancel(ctx)
	c := &MapController{
		widget:     widget,
		source:     source,
		log:        log,
		accumulate: opts.AccumulateMarkers,
		ctx:        cctx,
		cancel:     cancel,
		timeRange:  *opts.TimeRange,
		moveEnd:    NewTopic[domain.MoveEnd](EventMoveEnd, log),
		errs:       NewTopic[ErrorEvent](EventError, log),
		markers:    NewTopic[MarkersEvent](EventMarkers, log),
	}

	if err := widget.AddTileLayer(layer); err != nil {
		cancel()
		return nil, fmt.Errorf("add tile layer: %w", err)
	}
	if err := c.setView(*opts.Coordinates, opts.ZoomLevel); err != nil {
		cancel()
		return nil, err
	}

	widget.OnMoveEnd(c.handleMoveEnd)
	c.UpdatePoints()

	return c, nil
}

// Goto recentres the map. KeepZoom (or any non-positive zoom) preserves the
// current zoom level. Like a settled pan, it refreshes the viewport and fires
// the move-end handlers.
func (c *MapController) Goto(coords domain.Coordinates, zoom int) error {
	if err := c.setView(coords, zoom); err != nil {
		return err
	}
	c.handleMoveEnd()
	return nil
}

func (c *MapController) setView(coords domain.Coordinates, zoom int) error {
	if err := coords.Validate(); err != nil {
		return fmt.Errorf("goto: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if zoom <= KeepZoom {
		zoom = c.widget.Zoom()
	}
	if err := c.widget.SetView(coords, zoom); err != nil {
		return fmt.Errorf("set view: %w", err)
	}
	return nil
}

// UpdatePoints requests the sightings inside the current viewport. Any
// refresh still in flight is cancelled and its result discarded.
func (c *MapController) UpdatePoints() *Refresh {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		r := newRefresh(0, domain.Bounds{})
		r.resolve(nil, domain.ErrControllerClosed)
		return r
	}

	if c.inFlight != nil {
		c.inFlight()
	}
	c.seq++
	ctx, cancel := context.WithCancel(c.ctx)
	c.inFlight = cancel

	r := newRefresh(c.seq, c.widget.Bounds())
	tr := c.timeRange
	c.latest = r
	c.mu.Unlock()

	go c.run(ctx, cancel, r, tr)
	return r
}

func (c *MapController) run(ctx context.Context, cancel context.CancelFunc, r *Refresh, tr domain.TimeRange) {
	defer cancel()

	sightings, err := FetchSightings(ctx, c.source, r.bounds, tr)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		r.resolve(nil, domain.ErrControllerClosed)
		return
	}
	if r.seq != c.seq {
		c.mu.Unlock()
		metrics.Refreshes.WithLabelValues("stale").Inc()
		c.log.Debug("discarded stale refresh", "seq", r.seq)
		r.resolve(nil, domain.ErrStaleRefresh)
		return
	}
	c.inFlight = nil

	var markers []domain.Marker
	if err == nil {
		markers, err = c.place(sightings)
	}
	c.mu.Unlock()

	if err != nil {
		metrics.Refreshes.WithLabelValues("failed").Inc()
		c.log.Warn("refresh failed", "seq", r.seq, "from", r.bounds.From(), "to", r.bounds.To(), "error", err)
		c.errs.Publish(ErrorEvent{Seq: r.seq, Bounds: r.bounds, Err: err})
		r.resolve(markers, err)
		return
	}

	metrics.Refreshes.WithLabelValues("applied").Inc()
	metrics.MarkersPlaced.Add(float64(len(markers)))
	c.markers.Publish(MarkersEvent{Seq: r.seq, Bounds: r.bounds, Markers: markers})
	r.resolve(markers, nil)
}

// place must be called with c.mu held.
func (c *MapController) place(sightings []domain.Sighting) ([]domain.Marker, error) {
	if !c.accumulate {
		if err := c.widget.ClearMarkers(); err != nil {
			return nil, fmt.Errorf("clear markers: %w", err)
		}
	}

	markers := make([]domain.Marker, 0, len(sightings))
	for _, s := range sightings {
		m := domain.Marker{
			ID:        uuid.NewString(),
			PokemonID: s.PokemonID,
			Position:  s.Location,
			Icon:      domain.PokemonIcon(c.source.IconURL(s.PokemonID)),
		}
		if err := c.widget.AddMarker(m); err != nil {
			return markers, fmt.Errorf("add marker for pokemon %d: %w", s.PokemonID, err)
		}
		markers = append(markers, m)
	}
	return markers, nil
}

func (c *MapController) handleMoveEnd() {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return
	}

	c.UpdatePoints()
	c.moveEnd.Publish(domain.MoveEnd{Center: c.widget.Center(), Zoom: c.widget.Zoom()})
}

// UpdateTimeRange stores a new time range and refreshes the viewport.
func (c *MapController) UpdateTimeRange(tr domain.TimeRange) *Refresh {
	c.mu.Lock()
	c.timeRange = tr
	c.mu.Unlock()
	return c.UpdatePoints()
}

// TimeRange returns the current time range.
func (c *MapController) TimeRange() domain.TimeRange {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timeRange
}

// Latest returns the most recently issued refresh.
func (c *MapController) Latest() *Refresh {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latest
}

// OnMoveEnd registers fn for viewport settle events.
func (c *MapController) OnMoveEnd(fn func(domain.MoveEnd)) Subscription {
	return c.moveEnd.Subscribe(fn)
}

// OnError registers fn for refresh failures.
func (c *MapController) OnError(fn func(ErrorEvent)) Subscription {
	return c.errs.Subscribe(fn)
}

// OnMarkers registers fn for applied refreshes.
func (c *MapController) OnMarkers(fn func(MarkersEvent)) Subscription {
	return c.markers.Subscribe(fn)
}

// Off removes a handler registered through one of the On methods.
func (c *MapController) Off(sub Subscription) bool {
	switch sub.Event {
	case EventMoveEnd:
		return c.moveEnd.Unsubscribe(sub)
	case EventError:
		return c.errs.Unsubscribe(sub)
	case EventMarkers:
		return c.markers.Unsubscribe(sub)
	default:
		return false
	}
}

// Close cancels in-flight work. Later refreshes resolve with
// domain.ErrControllerClosed and move-end events are ignored.
func (c *MapController) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.cancel()
}
