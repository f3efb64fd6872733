package http

import (
	"context"
	"sync"

	"github.com/samirrijal/pokemap/internal/adapters/leaflet"
	"github.com/samirrijal/pokemap/internal/core/usecases"
	"github.com/samirrijal/pokemap/internal/pkg/metrics"
)

// Session is one browser map bound to its controller.
type Session struct {
	ID         string
	Map        *leaflet.RemoteMap
	Controller *usecases.MapController
}

// Sessions tracks the live map sessions of this process.
type Sessions struct {
	mu   sync.RWMutex
	byID map[string]*Session
}

func NewSessions() *Sessions {
	return &Sessions{byID: make(map[string]*Session)}
}

func (s *Sessions) Add(sess *Session) {
	s.mu.Lock()
	s.byID[sess.ID] = sess
	n := len(s.byID)
	s.mu.Unlock()
	metrics.ActiveSessions.Set(float64(n))
}

// Remove drops the session and closes its controller.
func (s *Sessions) Remove(id string) {
	s.mu.Lock()
	sess, ok := s.byID[id]
	delete(s.byID, id)
	n := len(s.byID)
	s.mu.Unlock()

	if ok {
		sess.Controller.Close()
	}
	metrics.ActiveSessions.Set(float64(n))
}

func (s *Sessions) Get(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.byID[id]
	return sess, ok
}

func (s *Sessions) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// RefreshAll re-issues the viewport refresh of every live session. It does
// not wait for the refreshes to resolve.
func (s *Sessions) RefreshAll(ctx context.Context) error {
	s.mu.RLock()
	live := make([]*Session, 0, len(s.byID))
	for _, sess := range s.byID {
		live = append(live, sess)
	}
	s.mu.RUnlock()

	for _, sess := range live {
		if err := ctx.Err(); err != nil {
			return err
		}
		sess.Controller.UpdatePoints()
	}
	LoggerFromCtx(ctx).Debug("refreshed map sessions", "count", len(live))
	return nil
}
