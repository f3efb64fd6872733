package domain_test

import (
	"errors"
	"testing"

	"github.com/samirrijal/pokemap/internal/core/domain"
)

func TestBounds_FromTo(t *testing.T) {
	b := domain.Bounds{
		NorthWest: domain.Coordinates{Lat: 48.1401, Lng: 11.5650},
		SouthEast: domain.Coordinates{Lat: 48.1201, Lng: 11.5950},
	}
	if got := b.From(); got != "11.565,48.1401" {
		t.Errorf("From() = %q", got)
	}
	if got := b.To(); got != "11.595,48.1201" {
		t.Errorf("To() = %q", got)
	}
	if !b.Contains(domain.Coordinates{Lat: 48.13, Lng: 11.58}) {
		t.Error("expected point inside bounds")
	}
	if b.Contains(domain.Coordinates{Lat: 48.2, Lng: 11.58}) {
		t.Error("expected point outside bounds")
	}
}

func TestParseLngLat(t *testing.T) {
	c, err := domain.ParseLngLat("11.58,48.13")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Lat != 48.13 || c.Lng != 11.58 {
		t.Errorf("got %+v", c)
	}

	for _, in := range []string{"", "11.58", "x,48", "11,y", "11,95"} {
		if _, err := domain.ParseLngLat(in); err == nil {
			t.Errorf("expected error for %q", in)
		}
	}
}

func TestCoordinates_Validate(t *testing.T) {
	if err := (domain.Coordinates{Lat: 48.13, Lng: 11.58}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := (domain.Coordinates{Lat: -91}).Validate(); err == nil {
		t.Error("expected latitude error")
	}
	if err := (domain.Coordinates{Lng: 181}).Validate(); err == nil {
		t.Error("expected longitude error")
	}
}

func TestSelectSource(t *testing.T) {
	tests := []struct {
		name string
		tr   domain.TimeRange
		want domain.Source
	}{
		{"past", domain.TimeRange{Start: -10, End: -5}, domain.SourcePast},
		{"future", domain.TimeRange{Start: 5, End: 60}, domain.SourcePredicted},
		{"spans now", domain.TimeRange{Start: -10, End: 10}, domain.SourceCombined},
		{"touches now", domain.TimeRange{Start: -10, End: 0}, domain.SourceCombined},
		{"zero", domain.TimeRange{}, domain.SourceCombined},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := domain.SelectSource(tt.tr); got != tt.want {
				t.Errorf("SelectSource(%+v) = %s, want %s", tt.tr, got, tt.want)
			}
		})
	}
}

func TestErrors_Unwrap(t *testing.T) {
	var cfgErr error = &domain.ConfigError{Field: "coordinates"}
	if !errors.Is(cfgErr, domain.ErrConfig) {
		t.Error("ConfigError should match ErrConfig")
	}
	if cfgErr.Error() != "coordinates is not defined" {
		t.Errorf("unexpected message %q", cfgErr.Error())
	}

	var statusErr error = &domain.StatusError{StatusCode: 500, URL: "http://x"}
	if !errors.Is(statusErr, domain.ErrUnexpectedStatus) {
		t.Error("StatusError should match ErrUnexpectedStatus")
	}

	inner := errors.New("unexpected end of JSON input")
	var decErr error = &domain.DecodeError{URL: "http://x", Err: inner}
	if !errors.Is(decErr, domain.ErrMalformedResponse) || !errors.Is(decErr, inner) {
		t.Error("DecodeError should match both ErrMalformedResponse and the cause")
	}
}

func TestPokemonIcon(t *testing.T) {
	icon := domain.PokemonIcon("http://x/id/16/icon")
	if icon.Size != (domain.Point{X: 30, Y: 30}) {
		t.Errorf("unexpected size %+v", icon.Size)
	}
	if icon.PopupAnchor != (domain.Point{X: -3, Y: -76}) {
		t.Errorf("unexpected popup anchor %+v", icon.PopupAnchor)
	}
}
