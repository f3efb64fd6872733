package pokedata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/samirrijal/pokemap/internal/core/domain"
)

var testBounds = domain.Bounds{
	NorthWest: domain.Coordinates{Lat: 48.14, Lng: 11.57},
	SouthEast: domain.Coordinates{Lat: 48.12, Lng: 11.59},
}

func newTestServer(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL + "/api/pokemon", Timeout: 2 * time.Second})
}

func TestClient_GetPastData(t *testing.T) {
	var gotPath string
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"pokemonId":16,"location":{"coordinates":[11.58,48.13]}}]}`))
	})

	got, err := c.GetPastData(context.Background(), testBounds)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantPath := "/api/pokemon/sighting/coordinates/from/11.57,48.14/to/11.59,48.12"
	if gotPath != wantPath {
		t.Errorf("expected path %q, got %q", wantPath, gotPath)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 sighting, got %d", len(got))
	}
	if got[0].PokemonID != 16 || got[0].Location.Lat != 48.13 || got[0].Location.Lng != 11.58 {
		t.Errorf("unexpected sighting %+v", got[0])
	}
}

func TestClient_GetData_EmptyBody(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[]}`))
	})

	got, err := c.GetData(context.Background(), testBounds)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no sightings, got %d", len(got))
	}
}

func TestClient_StatusError(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := c.GetPastData(context.Background(), testBounds)
	if !errors.Is(err, domain.ErrUnexpectedStatus) {
		t.Fatalf("expected status error, got %v", err)
	}
	var se *domain.StatusError
	if !errors.As(err, &se) || se.StatusCode != 500 {
		t.Errorf("expected HTTP 500, got %v", err)
	}
}

func TestClient_MalformedResponse(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `{"data":[`},
		{"short coordinates", `{"data":[{"pokemonId":1,"location":{"coordinates":[11.5]}}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := c.GetPastData(context.Background(), testBounds)
			if !errors.Is(err, domain.ErrMalformedResponse) {
				t.Errorf("expected malformed response error, got %v", err)
			}
		})
	}
}

func TestClient_GetPredictedData_Path(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	t.Cleanup(srv.Close)

	c := New(Config{BaseURL: srv.URL, PredictedPath: "prediction/coordinates/"})
	if _, err := c.GetPredictedData(context.Background(), testBounds); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/prediction/coordinates/from/11.57,48.14/to/11.59,48.12" {
		t.Errorf("unexpected path %q", gotPath)
	}
}

func TestClient_GetDetailsByID(t *testing.T) {
	var gotPath string
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"pokemonId":16,"name":"Pidgey"}`))
	})

	d, err := c.GetDetailsByID(context.Background(), 16)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/api/pokemon/id/16" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if d.PokemonID != 16 || string(d.Data) != `{"pokemonId":16,"name":"Pidgey"}` {
		t.Errorf("unexpected detail %+v", d)
	}
}

func TestClient_GetByTimeRange(t *testing.T) {
	var gotPath string
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"data":[{"pokemonId":19,"location":{"coordinates":[11.58,48.13]}}]}`))
	})
	c.now = func() time.Time { return time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC) }

	got, err := c.GetByTimeRange(context.Background(), domain.TimeRange{Start: -600, End: -60})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "/api/pokemon/sighting/ts/Wed, 14 Oct 2026 11:50:00 GMT/range/540s"
	if gotPath != want {
		t.Errorf("expected path %q, got %q", want, gotPath)
	}
	if len(got) != 1 || got[0].PokemonID != 19 {
		t.Errorf("unexpected sightings %+v", got)
	}
}

func TestClient_IconURL(t *testing.T) {
	c := New(Config{})
	want := DefaultBaseURL + "/id/25/icon"
	if got := c.IconURL(25); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
