package usecases

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/samirrijal/pokemap/internal/core/domain"
	"github.com/samirrijal/pokemap/internal/core/ports"
)

// FetchSightings reads the sightings inside bounds from the feed selected by
// the time range. The combined feed queries history and predictions
// concurrently and returns history first.
func FetchSightings(ctx context.Context, src ports.SightingSource, bounds domain.Bounds, tr domain.TimeRange) ([]domain.Sighting, error) {
	switch domain.SelectSource(tr) {
	case domain.SourcePast:
		return src.GetPastData(ctx, bounds)
	case domain.SourcePredicted:
		return src.GetPredictedData(ctx, bounds)
	}

	var past, predicted []domain.Sighting
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		past, err = src.GetPastData(gctx, bounds)
		return err
	})
	g.Go(func() error {
		var err error
		predicted, err = src.GetPredictedData(gctx, bounds)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]domain.Sighting, 0, len(past)+len(predicted))
	out = append(out, past...)
	return append(out, predicted...), nil
}
