package usecases

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/samirrijal/pokemap/internal/pkg/metrics"
)

// EventName is the closed set of events a MapController emits.
type EventName string

const (
	EventMoveEnd EventName = "moveend"
	EventError   EventName = "error"
	EventMarkers EventName = "markers"
)

var subscriptionSeq atomic.Uint64

// Subscription identifies one registered handler. The zero value matches
// nothing.
type Subscription struct {
	Event EventName
	id    uint64
}

type handlerEntry[T any] struct {
	id uint64
	fn func(T)
}

// Topic is an ordered list of handlers for one event payload type.
// Registering the same function twice runs it twice.
type Topic[T any] struct {
	name EventName
	log  *slog.Logger

	mu       sync.Mutex
	handlers []handlerEntry[T]
}

// NewTopic creates an empty topic. A nil logger falls back to slog.Default.
func NewTopic[T any](name EventName, log *slog.Logger) *Topic[T] {
	if log == nil {
		log = slog.Default()
	}
	return &Topic[T]{name: name, log: log}
}

// Subscribe appends fn to the handler list. A nil fn is ignored.
func (t *Topic[T]) Subscribe(fn func(T)) Subscription {
	if fn == nil {
		return Subscription{}
	}
	sub := Subscription{Event: t.name, id: subscriptionSeq.Add(1)}

	t.mu.Lock()
	t.handlers = append(t.handlers, handlerEntry[T]{id: sub.id, fn: fn})
	t.mu.Unlock()

	return sub
}

// Unsubscribe removes the handler registered under sub and reports whether
// one was found.
func (t *Topic[T]) Unsubscribe(sub Subscription) bool {
	if sub.Event != t.name || sub.id == 0 {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	for i, h := range t.handlers {
		if h.id == sub.id {
			t.handlers = append(t.handlers[:i:i], t.handlers[i+1:]...)
			return true
		}
	}
	return false
}

// Len returns the number of registered handlers.
func (t *Topic[T]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.handlers)
}

// Publish invokes every handler in registration order on the calling
// goroutine. A panicking handler is logged and skipped.
func (t *Topic[T]) Publish(v T) {
	t.mu.Lock()
	handlers := make([]handlerEntry[T], len(t.handlers))
	copy(handlers, t.handlers)
	t.mu.Unlock()

	for _, h := range handlers {
		t.invoke(h, v)
	}
}

func (t *Topic[T]) invoke(h handlerEntry[T], v T) {
	defer func() {
		if r := recover(); r != nil {
			metrics.HandlerPanics.WithLabelValues(string(t.name)).Inc()
			t.log.Error("event handler panicked", "event", string(t.name), "panic", r)
		}
	}()
	h.fn(v)
}
