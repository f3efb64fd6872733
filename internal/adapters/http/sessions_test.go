package http_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/goccy/go-json"

	handler "github.com/samirrijal/pokemap/internal/adapters/http"
	"github.com/samirrijal/pokemap/internal/adapters/leaflet"
	"github.com/samirrijal/pokemap/internal/core/domain"
	"github.com/samirrijal/pokemap/internal/core/usecases"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []leaflet.Envelope
}

func (s *recordingSender) Send(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, v.(leaflet.Envelope))
	return nil
}

func (s *recordingSender) count(kind string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.sent {
		if e.Type == kind {
			n++
		}
	}
	return n
}

type mockPublisher struct {
	mu        sync.Mutex
	viewports []domain.MoveEnd
	errs      []string
}

func (p *mockPublisher) PublishViewport(ctx context.Context, sessionID string, ev domain.MoveEnd) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.viewports = append(p.viewports, ev)
	return nil
}

func (p *mockPublisher) PublishRefreshError(ctx context.Context, sessionID string, err error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errs = append(p.errs, err.Error())
	return nil
}

func (p *mockPublisher) counts() (viewports, errs int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.viewports), len(p.errs)
}

func newSession(t *testing.T, deps *handler.Dependencies) (*handler.Session, *recordingSender) {
	t.Helper()
	out := &recordingSender{}
	remote := leaflet.NewRemoteMap(out, 0, 0)
	ctrl, err := usecases.NewMapController(context.Background(), remote, deps.Source, handler.MapOptions(deps.Map, nil))
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	sess := &handler.Session{ID: "s1", Map: remote, Controller: ctrl}
	if deps.Sessions == nil {
		deps.Sessions = handler.NewSessions()
	}
	deps.Sessions.Add(sess)
	t.Cleanup(func() { deps.Sessions.Remove(sess.ID) })
	handler.BridgeEvents(context.Background(), deps, sess, nil)
	return sess, out
}

func message(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestSession_InitialViewAndMarkers(t *testing.T) {
	src := &mockSource{
		pastFn: func(ctx context.Context, b domain.Bounds) ([]domain.Sighting, error) {
			return []domain.Sighting{{PokemonID: 16, Location: domain.Coordinates{Lat: 48.135, Lng: 11.582}}}, nil
		},
	}
	sess, out := newSession(t, makeDeps(src))

	if _, err := sess.Controller.Latest().Wait(context.Background()); err != nil {
		t.Fatalf("initial refresh failed: %v", err)
	}
	if out.count(leaflet.TypeTileLayer) != 1 || out.count(leaflet.TypeSetView) != 1 {
		t.Error("expected tile layer and initial view to be sent")
	}
	if out.count(leaflet.TypeMarker) != 1 || sess.Map.MarkerCount() != 1 {
		t.Errorf("expected one marker, got %d", sess.Map.MarkerCount())
	}
}

func TestSession_MoveEndPublishesViewport(t *testing.T) {
	src := &mockSource{}
	pub := &mockPublisher{}
	deps := makeDeps(src, func(d *handler.Dependencies) { d.Publisher = pub })
	sess, _ := newSession(t, deps)

	sess.HandleMessage(context.Background(), deps, message(t, map[string]any{
		"type":   "moveend",
		"center": map[string]float64{"lat": 52.52, "lng": 13.405},
		"zoom":   11,
	}))

	waitFor(t, func() bool { n, _ := pub.counts(); return n == 1 })
	pub.mu.Lock()
	ev := pub.viewports[0]
	pub.mu.Unlock()
	if ev.Center.Lat != 52.52 || ev.Zoom != 11 {
		t.Errorf("unexpected viewport event %+v", ev)
	}
	waitFor(t, func() bool { past, _ := src.calls(); return past == 2 })
}

func TestSession_TimeRangeSwitchesFeed(t *testing.T) {
	src := &mockSource{}
	deps := makeDeps(src)
	sess, _ := newSession(t, deps)
	_, _ = sess.Controller.Latest().Wait(context.Background())

	sess.HandleMessage(context.Background(), deps, message(t, map[string]any{"type": "timeRange", "start": 5, "end": 60}))
	if _, err := sess.Controller.Latest().Wait(context.Background()); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if _, pred := src.calls(); pred != 1 {
		t.Errorf("expected predicted feed queried once, got %d", pred)
	}
	if tr := sess.Controller.TimeRange(); tr.Start != 5 || tr.End != 60 {
		t.Errorf("unexpected time range %+v", tr)
	}
}

func TestSession_BadMessages(t *testing.T) {
	deps := makeDeps(&mockSource{})
	sess, out := newSession(t, deps)

	for _, raw := range []string{
		`not json`,
		`{"type":"timeRange","start":1}`,
		`{"type":"goto"}`,
		`{"type":"resize","width":0,"height":0}`,
		`{"type":"dance"}`,
	} {
		sess.HandleMessage(context.Background(), deps, []byte(raw))
	}
	if n := out.count(leaflet.TypeError); n != 5 {
		t.Errorf("expected 5 error replies, got %d", n)
	}
}

func TestSession_Details(t *testing.T) {
	deps := makeDeps(&mockSource{})
	sess, out := newSession(t, deps)

	sess.HandleMessage(context.Background(), deps, []byte(`{"type":"details","id":16}`))
	waitFor(t, func() bool { return out.count(leaflet.TypeDetails) == 1 })
}

func TestSession_RefreshErrorReported(t *testing.T) {
	src := &mockSource{
		pastFn: func(ctx context.Context, b domain.Bounds) ([]domain.Sighting, error) {
			return nil, errors.New("connection refused")
		},
	}
	pub := &mockPublisher{}
	deps := makeDeps(src, func(d *handler.Dependencies) { d.Publisher = pub })
	sess, out := newSession(t, deps)

	// The initial refresh fails and is reported once.
	waitFor(t, func() bool { _, n := pub.counts(); return n == 1 })

	sess.HandleMessage(context.Background(), deps, []byte(`{"type":"refresh"}`))
	waitFor(t, func() bool { _, n := pub.counts(); return n == 2 })
	if out.count(leaflet.TypeError) != 2 {
		t.Errorf("expected 2 error envelopes, got %d", out.count(leaflet.TypeError))
	}
}

func TestSessions_RefreshAll(t *testing.T) {
	src := &mockSource{}
	deps := makeDeps(src, func(d *handler.Dependencies) { d.Sessions = handler.NewSessions() })
	sess, _ := newSession(t, deps)
	_, _ = sess.Controller.Latest().Wait(context.Background())

	if deps.Sessions.Len() != 1 {
		t.Fatalf("expected 1 session, got %d", deps.Sessions.Len())
	}
	if err := deps.Sessions.RefreshAll(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	waitFor(t, func() bool { past, _ := src.calls(); return past == 2 })

	deps.Sessions.Remove(sess.ID)
	if _, ok := deps.Sessions.Get(sess.ID); ok {
		t.Error("session should be gone")
	}
	if _, err := sess.Controller.UpdatePoints().Wait(context.Background()); !errors.Is(err, domain.ErrControllerClosed) {
		t.Errorf("expected closed controller after removal, got %v", err)
	}
}
