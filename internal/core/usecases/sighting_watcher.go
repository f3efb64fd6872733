package usecases

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/samirrijal/pokemap/internal/core/domain"
	"github.com/samirrijal/pokemap/internal/core/ports"
)

// SightingWatcher polls a recent time window and reports when its contents
// change.
type SightingWatcher struct {
	source ports.SightingSource
	window domain.TimeRange

	mu   sync.Mutex
	last [sha256.Size]byte
	seen bool
}

// NewSightingWatcher watches the given window, e.g. {-300, 0} for the last
// five minutes.
func NewSightingWatcher(source ports.SightingSource, window domain.TimeRange) *SightingWatcher {
	return &SightingWatcher{source: source, window: window}
}

// Check fetches the window and reports whether it differs from the last
// announced contents. The first check always reports a change. On a change
// announce is called with the sighting count; the new contents are only
// remembered once it returns nil, so a failed announcement is retried by the
// next check. A nil announce accepts every change.
func (w *SightingWatcher) Check(ctx context.Context, announce func(ctx context.Context, count int) error) (bool, int, error) {
	sightings, err := w.source.GetByTimeRange(ctx, w.window)
	if err != nil {
		return false, 0, err
	}
	sum := fingerprint(sightings)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.seen && sum == w.last {
		return false, len(sightings), nil
	}
	if announce != nil {
		if err := announce(ctx, len(sightings)); err != nil {
			return true, len(sightings), fmt.Errorf("announce change: %w", err)
		}
	}
	w.last, w.seen = sum, true
	return true, len(sightings), nil
}

// fingerprint hashes sightings independently of their order.
func fingerprint(sightings []domain.Sighting) [sha256.Size]byte {
	sorted := make([]domain.Sighting, len(sightings))
	copy(sorted, sightings)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.PokemonID != b.PokemonID {
			return a.PokemonID < b.PokemonID
		}
		if a.Location.Lat != b.Location.Lat {
			return a.Location.Lat < b.Location.Lat
		}
		return a.Location.Lng < b.Location.Lng
	})

	h := sha256.New()
	var buf [24]byte
	for _, s := range sorted {
		binary.BigEndian.PutUint64(buf[0:], uint64(s.PokemonID))
		binary.BigEndian.PutUint64(buf[8:], math.Float64bits(s.Location.Lat))
		binary.BigEndian.PutUint64(buf[16:], math.Float64bits(s.Location.Lng))
		h.Write(buf[:])
	}
	var out [sha256.Size]byte
	copy(out[:], h.Sum(nil))
	return out
}
