package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/samirrijal/pokemap/internal/adapters/leaflet"
	"github.com/samirrijal/pokemap/internal/core/domain"
	"github.com/samirrijal/pokemap/internal/core/usecases"
	"github.com/samirrijal/pokemap/internal/pkg/config"
)

// Session level message types, on top of the map commands of the leaflet
// package.
const (
	TypeSession   = "session"
	TypeTimeRange = "timeRange"
	TypeGoto      = "goto"
	TypeRefresh   = "refresh"
)

const publishTimeout = 2 * time.Second

// wsSender serialises writes to one websocket connection.
type wsSender struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *wsSender) Send(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

func (s *wsSender) ping() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteMessage(websocket.PingMessage, nil)
}

// MapOptions turns the configured map defaults into controller options.
func MapOptions(cfg config.MapConfig, log *slog.Logger) usecases.MapOptions {
	center := cfg.Center()
	tr := cfg.TimeRange()
	return usecases.MapOptions{
		Coordinates:       &center,
		ZoomLevel:         cfg.Zoom,
		TimeRange:         &tr,
		TileLayer:         cfg.TileLayer(),
		AccumulateMarkers: cfg.AccumulateMarkers,
		Logger:            log,
	}
}

// MapSessionHandler returns a handler that upgrades to WebSocket and runs one
// map session per connection. The page may pass its viewport size as
// ?width=&height=.
func MapSessionHandler(deps *Dependencies) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		id := uuid.NewString()
		log := slog.Default().With("session_id", id, "remote_addr", c.RemoteAddr().String())
		log.Info("map session connected")

		width, _ := strconv.Atoi(c.Query("width"))
		height, _ := strconv.Atoi(c.Query("height"))
		if width <= 0 {
			width = deps.Map.ViewportWidth
		}
		if height <= 0 {
			height = deps.Map.ViewportHeight
		}

		out := &wsSender{conn: c}
		remote := leaflet.NewRemoteMap(out, width, height)
		if err := out.Send(leaflet.Envelope{Type: TypeSession, Payload: fiber.Map{"id": id}}); err != nil {
			log.Warn("map session hello failed", "error", err)
			return
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		ctrl, err := usecases.NewMapController(ctx, remote, deps.Source, MapOptions(deps.Map, log))
		if err != nil {
			log.Error("map controller setup failed", "error", err)
			_ = remote.SendError(err)
			return
		}

		sess := &Session{ID: id, Map: remote, Controller: ctrl}
		deps.Sessions.Add(sess)
		defer deps.Sessions.Remove(id)

		BridgeEvents(ctx, deps, sess, log)

		// Keep-alive ping
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					if err := out.ping(); err != nil {
						return
					}
				case <-ctx.Done():
					return
				}
			}
		}()

		for {
			_, data, err := c.ReadMessage()
			if err != nil {
				break
			}
			sess.HandleMessage(ctx, deps, data)
		}

		log.Info("map session disconnected")
	}
}

// BridgeEvents mirrors controller events to the page and the broker. The
// first refresh is issued before any handler can subscribe, so its outcome
// is awaited separately.
func BridgeEvents(ctx context.Context, deps *Dependencies, sess *Session, log *slog.Logger) {
	first := sess.Controller.Latest()

	report := func(err error) {
		if sendErr := sess.Map.SendError(err); sendErr != nil {
			log.Debug("send error to page failed", "error", sendErr)
		}
		if deps.Publisher == nil {
			return
		}
		pctx, cancel := context.WithTimeout(ctx, publishTimeout)
		defer cancel()
		if pubErr := deps.Publisher.PublishRefreshError(pctx, sess.ID, err); pubErr != nil {
			log.Warn("publish refresh error failed", "error", pubErr)
		}
	}

	sess.Controller.OnError(func(ev usecases.ErrorEvent) {
		if first != nil && ev.Seq == first.Seq() {
			return
		}
		report(ev.Err)
	})

	if first != nil {
		go func() {
			_, err := first.Wait(ctx)
			if err == nil || errors.Is(err, domain.ErrStaleRefresh) || errors.Is(err, domain.ErrControllerClosed) || ctx.Err() != nil {
				return
			}
			report(err)
		}()
	}

	sess.Controller.OnMoveEnd(func(ev domain.MoveEnd) {
		if deps.Publisher == nil {
			return
		}
		pctx, cancel := context.WithTimeout(ctx, publishTimeout)
		defer cancel()
		if err := deps.Publisher.PublishViewport(pctx, sess.ID, ev); err != nil {
			log.Warn("publish viewport failed", "error", err)
		}
	})
}

// HandleMessage applies one message from the page to the session.
func (sess *Session) HandleMessage(ctx context.Context, deps *Dependencies, data []byte) {
	msg, err := leaflet.ParseClientMessage(data)
	if err != nil {
		_ = sess.Map.SendError(err)
		return
	}

	if handled, err := sess.Map.HandleMessage(msg); handled {
		if err != nil {
			_ = sess.Map.SendError(err)
		}
		return
	}

	switch msg.Type {
	case TypeTimeRange:
		if msg.Start == nil || msg.End == nil {
			_ = sess.Map.SendError(errors.New("timeRange needs start and end"))
			return
		}
		sess.Controller.UpdateTimeRange(domain.TimeRange{Start: *msg.Start, End: *msg.End})

	case TypeGoto:
		if msg.Center == nil {
			_ = sess.Map.SendError(errors.New("goto needs center"))
			return
		}
		if err := sess.Controller.Goto(*msg.Center, msg.Zoom); err != nil {
			_ = sess.Map.SendError(err)
		}

	case TypeRefresh:
		sess.Controller.UpdatePoints()

	case leaflet.TypeDetails:
		go func() {
			detail, err := deps.Sightings.Details(ctx, msg.ID)
			if err != nil {
				_ = sess.Map.SendError(err)
				return
			}
			_ = sess.Map.SendDetails(detail)
		}()

	default:
		_ = sess.Map.SendError(fmt.Errorf("unknown message type %q", msg.Type))
	}
}
