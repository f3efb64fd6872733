package pokedata

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/samirrijal/pokemap/internal/core/domain"
	"github.com/samirrijal/pokemap/internal/core/ports"
	"github.com/samirrijal/pokemap/internal/pkg/metrics"
)

// BreakerSource wraps a SightingSource with a circuit breaker so a failing
// data API is not hammered by every viewport change.
type BreakerSource struct {
	next ports.SightingSource
	cb   *gobreaker.CircuitBreaker[any]
	name string
}

// BreakerSettings tunes the breaker. Zero values take the defaults.
type BreakerSettings struct {
	MinRequests  uint32        // requests in a window before tripping is considered (default 10)
	FailureRatio float64       // ratio that opens the circuit (default 0.6)
	OpenTimeout  time.Duration // time spent open before probing (default 30s)
}

// NewBreakerSource creates a new BreakerSource.
func NewBreakerSource(next ports.SightingSource, name string, s BreakerSettings, log *slog.Logger) *BreakerSource {
	if log == nil {
		log = slog.Default()
	}
	if s.MinRequests == 0 {
		s.MinRequests = 10
	}
	if s.FailureRatio <= 0 {
		s.FailureRatio = 0.6
	}
	if s.OpenTimeout <= 0 {
		s.OpenTimeout = 30 * time.Second
	}

	metrics.BreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= s.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
			metrics.BreakerState.WithLabelValues(name).Set(stateValue(to))
			metrics.BreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
		IsSuccessful: isHealthy,
	})

	return &BreakerSource{next: next, cb: cb, name: name}
}

// isHealthy reports whether err leaves the upstream looking healthy. A request
// cancelled because the viewport moved on, or a 4xx such as an unknown
// Pokémon id, says nothing about upstream health.
func isHealthy(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var se *domain.StatusError
	if errors.As(err, &se) {
		return se.StatusCode >= 400 && se.StatusCode < 500
	}
	return false
}

// State reports the breaker state: closed, half-open or open.
func (b *BreakerSource) State() string {
	return b.cb.State().String()
}

func (b *BreakerSource) GetPastData(ctx context.Context, bounds domain.Bounds) ([]domain.Sighting, error) {
	return castResult[[]domain.Sighting](b.cb.Execute(func() (any, error) {
		return b.next.GetPastData(ctx, bounds)
	}))
}

func (b *BreakerSource) GetPredictedData(ctx context.Context, bounds domain.Bounds) ([]domain.Sighting, error) {
	return castResult[[]domain.Sighting](b.cb.Execute(func() (any, error) {
		return b.next.GetPredictedData(ctx, bounds)
	}))
}

func (b *BreakerSource) GetByTimeRange(ctx context.Context, tr domain.TimeRange) ([]domain.Sighting, error) {
	return castResult[[]domain.Sighting](b.cb.Execute(func() (any, error) {
		return b.next.GetByTimeRange(ctx, tr)
	}))
}

func (b *BreakerSource) GetDetailsByID(ctx context.Context, pokemonID int) (*domain.SightingDetail, error) {
	return castResult[*domain.SightingDetail](b.cb.Execute(func() (any, error) {
		return b.next.GetDetailsByID(ctx, pokemonID)
	}))
}

func (b *BreakerSource) IconURL(pokemonID int) string {
	return b.next.IconURL(pokemonID)
}

func castResult[T any](result any, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	if result == nil {
		return zero, nil
	}
	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
