package natsadapter

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/pokemap/internal/core/domain"
	"github.com/samirrijal/pokemap/internal/core/ports"
)

const (
	StreamName = "POKEMAP_EVENTS"

	SubjectSightingsUpdated = "pokemap.sightings.updated"

	subjectViewport = "pokemap.viewport."
	subjectErrors   = "pokemap.errors."
)

var _ ports.EventPublisher = (*Publisher)(nil)

// ViewportEvent is published whenever a session's map settles.
type ViewportEvent struct {
	SessionID string             `json:"session_id"`
	Center    domain.Coordinates `json:"center"`
	Zoom      int                `json:"zoom"`
	At        time.Time          `json:"at"`
}

// RefreshErrorEvent is published when a session fails to refresh its markers.
type RefreshErrorEvent struct {
	SessionID string    `json:"session_id"`
	Message   string    `json:"message"`
	At        time.Time `json:"at"`
}

// ViewportSubject is the subject viewport events of one session go to.
func ViewportSubject(sessionID string) string { return subjectViewport + sessionID }

// ErrorSubject is the subject refresh errors of one session go to.
func ErrorSubject(sessionID string) string { return subjectErrors + sessionID }

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
	now  func() time.Time
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	cfg := nats.StreamConfig{
		Name:      StreamName,
		Subjects:  []string{"pokemap.>"},
		Retention: nats.InterestPolicy,
		MaxAge:    1 * time.Hour,
		Storage:   nats.FileStorage,
	}
	if _, err := js.AddStream(&cfg); err != nil {
		// Stream may already exist, try update
		if _, err := js.UpdateStream(&cfg); err != nil {
			return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}

	return &Publisher{conn: conn, js: js, now: time.Now}, nil
}

func (p *Publisher) PublishViewport(ctx context.Context, sessionID string, ev domain.MoveEnd) error {
	data, err := json.Marshal(ViewportEvent{SessionID: sessionID, Center: ev.Center, Zoom: ev.Zoom, At: p.now().UTC()})
	if err != nil {
		return err
	}
	_, err = p.js.Publish(ViewportSubject(sessionID), data, nats.Context(ctx))
	return err
}

func (p *Publisher) PublishRefreshError(ctx context.Context, sessionID string, refreshErr error) error {
	data, err := json.Marshal(RefreshErrorEvent{SessionID: sessionID, Message: refreshErr.Error(), At: p.now().UTC()})
	if err != nil {
		return err
	}
	_, err = p.js.Publish(ErrorSubject(sessionID), data, nats.Context(ctx))
	return err
}

// PublishSightingsUpdated announces that the data API has new sightings.
func (p *Publisher) PublishSightingsUpdated(ctx context.Context) error {
	_, err := p.js.Publish(SubjectSightingsUpdated, nil, nats.Context(ctx))
	return err
}

// Conn exposes the underlying connection for health checks.
func (p *Publisher) Conn() *nats.Conn { return p.conn }

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection.
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("pokemap"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
