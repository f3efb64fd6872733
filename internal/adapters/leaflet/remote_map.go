// Package leaflet drives a Leaflet map running in a browser. The browser is
// reached through a Sender, normally a websocket connection.
package leaflet

import (
	"errors"
	"fmt"
	"sync"

	"github.com/goccy/go-json"

	"github.com/samirrijal/pokemap/internal/core/domain"
	"github.com/samirrijal/pokemap/internal/pkg/geospatial"
)

const (
	DefaultWidth  = 1024
	DefaultHeight = 768
)

// Outbound command types.
const (
	TypeTileLayer = "tileLayer"
	TypeSetView   = "setView"
	TypeMarker    = "marker"
	TypeClear     = "clear"
	TypeDetails   = "details"
	TypeError     = "error"
)

// Inbound event types understood by HandleMessage.
const (
	TypeMoveEnd = "moveend"
	TypeResize  = "resize"
)

// Sender delivers one JSON-encodable command to the browser. It must be safe
// for concurrent use.
type Sender interface {
	Send(v any) error
}

// Envelope is the wire form of every outbound command.
type Envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

type viewPayload struct {
	Center domain.Coordinates `json:"center"`
	Zoom   int                `json:"zoom"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ClientMessage is a message sent by the browser page.
type ClientMessage struct {
	Type   string              `json:"type"`
	Center *domain.Coordinates `json:"center,omitempty"`
	Zoom   int                 `json:"zoom,omitempty"`
	Width  int                 `json:"width,omitempty"`
	Height int                 `json:"height,omitempty"`

	// Used by session level requests.
	Start *int `json:"start,omitempty"`
	End   *int `json:"end,omitempty"`
	ID    int  `json:"id,omitempty"`
}

// ParseClientMessage decodes a browser message.
func ParseClientMessage(data []byte) (ClientMessage, error) {
	var m ClientMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("decode client message: %w", err)
	}
	if m.Type == "" {
		return m, errors.New("client message without type")
	}
	return m, nil
}

// RemoteMap implements ports.MapWidget for a browser map. View state is kept
// locally so Bounds reflects SetView before the browser confirms it.
type RemoteMap struct {
	out Sender

	mu       sync.Mutex
	center   domain.Coordinates
	zoom     int
	width    int
	height   int
	layer    *domain.TileLayer
	markers  map[string]domain.Marker
	handlers []func()
}

// NewRemoteMap creates a RemoteMap writing to out. Non-positive sizes take
// the defaults.
func NewRemoteMap(out Sender, width, height int) *RemoteMap {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	return &RemoteMap{
		out:     out,
		width:   width,
		height:  height,
		markers: make(map[string]domain.Marker),
	}
}

func (m *RemoteMap) AddTileLayer(layer domain.TileLayer) error {
	m.mu.Lock()
	m.layer = &layer
	m.mu.Unlock()
	return m.send(TypeTileLayer, layer)
}

func (m *RemoteMap) SetView(center domain.Coordinates, zoom int) error {
	if err := center.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	m.center = center
	m.zoom = zoom
	m.mu.Unlock()
	return m.send(TypeSetView, viewPayload{Center: center, Zoom: zoom})
}

func (m *RemoteMap) Center() domain.Coordinates {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.center
}

func (m *RemoteMap) Zoom() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.zoom
}

// Bounds projects the current view onto the viewport size.
func (m *RemoteMap) Bounds() domain.Bounds {
	m.mu.Lock()
	c, z, w, h := m.center, m.zoom, m.width, m.height
	m.mu.Unlock()

	north, west, south, east := geospatial.ViewportBounds(c.Lat, c.Lng, z, w, h)
	return domain.Bounds{
		NorthWest: domain.Coordinates{Lat: north, Lng: west},
		SouthEast: domain.Coordinates{Lat: south, Lng: east},
	}
}

func (m *RemoteMap) AddMarker(marker domain.Marker) error {
	m.mu.Lock()
	m.markers[marker.ID] = marker
	m.mu.Unlock()
	return m.send(TypeMarker, marker)
}

func (m *RemoteMap) ClearMarkers() error {
	m.mu.Lock()
	clear(m.markers)
	m.mu.Unlock()
	return m.send(TypeClear, nil)
}

func (m *RemoteMap) OnMoveEnd(fn func()) {
	if fn == nil {
		return
	}
	m.mu.Lock()
	m.handlers = append(m.handlers, fn)
	m.mu.Unlock()
}

// MarkerCount returns how many markers the browser currently shows.
func (m *RemoteMap) MarkerCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.markers)
}

// TileLayer returns the layer last added, if any.
func (m *RemoteMap) TileLayer() (domain.TileLayer, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.layer == nil {
		return domain.TileLayer{}, false
	}
	return *m.layer, true
}

// SendDetails pushes a detail lookup result to the page.
func (m *RemoteMap) SendDetails(d *domain.SightingDetail) error {
	return m.send(TypeDetails, d)
}

// SendError reports a failure to the page.
func (m *RemoteMap) SendError(err error) error {
	return m.send(TypeError, errorPayload{Message: err.Error()})
}

// HandleMessage applies a moveend or resize message and fires the move-end
// handlers. It reports false for message types it does not own.
func (m *RemoteMap) HandleMessage(msg ClientMessage) (bool, error) {
	switch msg.Type {
	case TypeMoveEnd:
		if msg.Center == nil {
			return true, errors.New("moveend without center")
		}
		if err := msg.Center.Validate(); err != nil {
			return true, fmt.Errorf("moveend: %w", err)
		}
		m.mu.Lock()
		m.center = *msg.Center
		if msg.Zoom > 0 {
			m.zoom = msg.Zoom
		}
		m.mu.Unlock()
	case TypeResize:
		if msg.Width <= 0 || msg.Height <= 0 {
			return true, fmt.Errorf("resize: invalid size %dx%d", msg.Width, msg.Height)
		}
		m.mu.Lock()
		m.width, m.height = msg.Width, msg.Height
		m.mu.Unlock()
	default:
		return false, nil
	}

	m.fireMoveEnd()
	return true, nil
}

func (m *RemoteMap) fireMoveEnd() {
	m.mu.Lock()
	handlers := make([]func(), len(m.handlers))
	copy(handlers, m.handlers)
	m.mu.Unlock()

	for _, fn := range handlers {
		fn()
	}
}

func (m *RemoteMap) send(kind string, payload any) error {
	if err := m.out.Send(Envelope{Type: kind, Payload: payload}); err != nil {
		return fmt.Errorf("send %s: %w", kind, err)
	}
	return nil
}
