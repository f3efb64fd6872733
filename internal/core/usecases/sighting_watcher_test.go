package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/samirrijal/pokemap/internal/core/domain"
	"github.com/samirrijal/pokemap/internal/core/usecases"
)

func TestSightingWatcher_Check(t *testing.T) {
	batches := [][]domain.Sighting{
		{{PokemonID: 16, Location: munich}, {PokemonID: 19, Location: munich}},
		{{PokemonID: 19, Location: munich}, {PokemonID: 16, Location: munich}}, // same set, new order
		{{PokemonID: 16, Location: munich}},
	}
	call := 0
	var gotWindow domain.TimeRange
	src := &mockSource{
		windowFn: func(ctx context.Context, tr domain.TimeRange) ([]domain.Sighting, error) {
			gotWindow = tr
			b := batches[call]
			call++
			return b, nil
		},
	}
	w := usecases.NewSightingWatcher(src, domain.TimeRange{Start: -300, End: 0})

	want := []struct {
		changed bool
		count   int
	}{{true, 2}, {false, 2}, {true, 1}}
	for i, tt := range want {
		changed, n, err := w.Check(context.Background(), nil)
		if err != nil {
			t.Fatalf("check %d: unexpected error: %v", i, err)
		}
		if changed != tt.changed || n != tt.count {
			t.Errorf("check %d: expected changed=%v count=%d, got %v %d", i, tt.changed, tt.count, changed, n)
		}
	}
	if gotWindow.Start != -300 || gotWindow.End != 0 {
		t.Errorf("unexpected window %+v", gotWindow)
	}
}

func TestSightingWatcher_ErrorKeepsState(t *testing.T) {
	fail := false
	src := &mockSource{
		windowFn: func(ctx context.Context, tr domain.TimeRange) ([]domain.Sighting, error) {
			if fail {
				return nil, errors.New("timeout")
			}
			return []domain.Sighting{{PokemonID: 1, Location: munich}}, nil
		},
	}
	w := usecases.NewSightingWatcher(src, domain.TimeRange{Start: -60, End: 0})

	if changed, _, _ := w.Check(context.Background(), nil); !changed {
		t.Fatal("first check should report a change")
	}
	fail = true
	if _, _, err := w.Check(context.Background(), nil); err == nil {
		t.Fatal("expected error")
	}
	fail = false
	if changed, _, _ := w.Check(context.Background(), nil); changed {
		t.Error("failed check must not reset the fingerprint")
	}
}

func TestSightingWatcher_FailedAnnounceRetried(t *testing.T) {
	src := &mockSource{
		windowFn: func(ctx context.Context, tr domain.TimeRange) ([]domain.Sighting, error) {
			return []domain.Sighting{{PokemonID: 25, Location: munich}}, nil
		},
	}
	w := usecases.NewSightingWatcher(src, domain.TimeRange{Start: -60, End: 0})

	var announced []int
	publishErr := errors.New("nats: no responders")
	announce := func(ctx context.Context, n int) error {
		announced = append(announced, n)
		return publishErr
	}

	changed, _, err := w.Check(context.Background(), announce)
	if !changed || !errors.Is(err, publishErr) {
		t.Fatalf("expected a change with the publish error, got %v %v", changed, err)
	}

	publishErr = nil
	changed, n, err := w.Check(context.Background(), announce)
	if err != nil || !changed || n != 1 {
		t.Fatalf("unannounced change should be reported again, got %v %d %v", changed, n, err)
	}

	if changed, _, _ := w.Check(context.Background(), announce); changed {
		t.Error("announced contents should not be reported again")
	}
	if len(announced) != 2 {
		t.Errorf("expected 2 announcements, got %d", len(announced))
	}
}
