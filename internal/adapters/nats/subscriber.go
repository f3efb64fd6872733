package natsadapter

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/pokemap/internal/core/ports"
)

var _ ports.EventSubscriber = (*Subscriber)(nil)

// Subscriber implements ports.EventSubscriber using NATS JetStream.
type Subscriber struct {
	conn *nats.Conn
	js   nats.JetStreamContext
	subs []*nats.Subscription
}

// NewSubscriber creates a subscriber on its own connection.
func NewSubscriber(url string) (*Subscriber, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	return &Subscriber{conn: conn, js: js}, nil
}

// SubscribeSightingUpdates calls handler for every sightings-updated
// announcement. Each process gets its own ephemeral consumer so every
// instance refreshes its sessions.
func (s *Subscriber) SubscribeSightingUpdates(ctx context.Context, handler func(ctx context.Context) error) error {
	sub, err := s.js.Subscribe(SubjectSightingsUpdated, func(msg *nats.Msg) {
		if err := handler(ctx); err != nil {
			slog.Warn("sightings update handler failed", "error", err)
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.DeliverNew(),
		nats.ManualAck(),
		nats.MaxDeliver(3),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}
