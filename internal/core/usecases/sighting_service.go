package usecases

import (
	"context"
	"fmt"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/samirrijal/pokemap/internal/core/domain"
	"github.com/samirrijal/pokemap/internal/core/ports"
	"github.com/samirrijal/pokemap/internal/pkg/metrics"
)

// detailTTL is how long a by-identifier lookup stays cached, in seconds.
const detailTTL = 600

// SightingService answers sighting queries for the REST and GraphQL surfaces.
type SightingService struct {
	source ports.SightingSource
	cache  ports.CacheService
}

// NewSightingService creates a new SightingService. cache may be nil.
func NewSightingService(source ports.SightingSource, cache ports.CacheService) *SightingService {
	return &SightingService{source: source, cache: cache}
}

// InBounds returns the sightings inside bounds from the feed the time range
// selects.
func (s *SightingService) InBounds(ctx context.Context, bounds domain.Bounds, tr domain.TimeRange) ([]domain.Sighting, error) {
	if bounds.NorthWest.Lat < bounds.SouthEast.Lat {
		return nil, fmt.Errorf("%w: north-west corner lies south of the south-east corner", domain.ErrInvalidQuery)
	}
	return FetchSightings(ctx, s.source, bounds, tr)
}

// Details returns the detail record for one Pokémon.
func (s *SightingService) Details(ctx context.Context, pokemonID int) (*domain.SightingDetail, error) {
	if pokemonID <= 0 {
		return nil, fmt.Errorf("%w: pokemon id must be positive, got %d", domain.ErrInvalidQuery, pokemonID)
	}

	cacheKey := "sightings:detail:" + strconv.Itoa(pokemonID)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var detail domain.SightingDetail
			if err := json.Unmarshal(data, &detail); err == nil {
				metrics.CacheHits.WithLabelValues("detail").Inc()
				return &detail, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("detail").Inc()
	}

	detail, err := s.source.GetDetailsByID(ctx, pokemonID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(detail); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, detailTTL)
		}
	}

	return detail, nil
}

// Window returns the sightings reported inside a time window.
func (s *SightingService) Window(ctx context.Context, tr domain.TimeRange) ([]domain.Sighting, error) {
	if tr.End < tr.Start {
		return nil, fmt.Errorf("%w: time range end %d precedes start %d", domain.ErrInvalidQuery, tr.End, tr.Start)
	}
	return s.source.GetByTimeRange(ctx, tr)
}

// IconURL returns the marker image location for a Pokémon.
func (s *SightingService) IconURL(pokemonID int) string {
	return s.source.IconURL(pokemonID)
}
