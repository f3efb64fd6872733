package usecases_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/samirrijal/pokemap/internal/core/domain"
	"github.com/samirrijal/pokemap/internal/core/usecases"
)

func TestSightingService_Details_Cached(t *testing.T) {
	src := &mockSource{
		detailFn: func(ctx context.Context, id int) (*domain.SightingDetail, error) {
			return &domain.SightingDetail{PokemonID: id, Data: json.RawMessage(`{"name":"Pidgey"}`)}, nil
		},
	}
	svc := usecases.NewSightingService(src, newMockCache())

	for i := 0; i < 2; i++ {
		d, err := svc.Details(context.Background(), 16)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if d.PokemonID != 16 || string(d.Data) != `{"name":"Pidgey"}` {
			t.Errorf("unexpected detail %+v", d)
		}
	}
	if src.detailCalls != 1 {
		t.Errorf("expected 1 upstream lookup, got %d", src.detailCalls)
	}
}

func TestSightingService_Details_InvalidID(t *testing.T) {
	svc := usecases.NewSightingService(&mockSource{}, nil)
	if _, err := svc.Details(context.Background(), 0); !errors.Is(err, domain.ErrInvalidQuery) {
		t.Error("expected error for id 0")
	}
}

func TestSightingService_InBounds(t *testing.T) {
	src := &mockSource{
		pastFn: func(ctx context.Context, b domain.Bounds) ([]domain.Sighting, error) {
			return []domain.Sighting{{PokemonID: 16, Location: munich}}, nil
		},
	}
	svc := usecases.NewSightingService(src, nil)

	got, err := svc.InBounds(context.Background(), boundsAround(munich), domain.TimeRange{Start: -10, End: -5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("expected 1 sighting, got %d", len(got))
	}

	inverted := domain.Bounds{NorthWest: domain.Coordinates{Lat: 1}, SouthEast: domain.Coordinates{Lat: 2}}
	if _, err := svc.InBounds(context.Background(), inverted, domain.TimeRange{Start: -10, End: -5}); err == nil {
		t.Error("expected error for inverted bounds")
	}
}

func TestSightingService_Window(t *testing.T) {
	var gotRange domain.TimeRange
	src := &mockSource{
		windowFn: func(ctx context.Context, tr domain.TimeRange) ([]domain.Sighting, error) {
			gotRange = tr
			return []domain.Sighting{{PokemonID: 1}}, nil
		},
	}
	svc := usecases.NewSightingService(src, nil)

	if _, err := svc.Window(context.Background(), domain.TimeRange{Start: -60, End: -30}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotRange != (domain.TimeRange{Start: -60, End: -30}) {
		t.Errorf("unexpected range %+v", gotRange)
	}
	if _, err := svc.Window(context.Background(), domain.TimeRange{Start: 10, End: 5}); !errors.Is(err, domain.ErrInvalidQuery) {
		t.Error("expected error for reversed range")
	}
}
