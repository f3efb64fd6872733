package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Coordinates represents a geographic coordinate (WGS 84).
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Validate reports whether the coordinate lies within the valid ranges.
func (c Coordinates) Validate() error {
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("latitude %v out of range [-90, 90]", c.Lat)
	}
	if c.Lng < -180 || c.Lng > 180 {
		return fmt.Errorf("longitude %v out of range [-180, 180]", c.Lng)
	}
	return nil
}

// LngLat renders the coordinate as "lng,lat", the order the data API expects.
func (c Coordinates) LngLat() string {
	return strconv.FormatFloat(c.Lng, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lat, 'f', -1, 64)
}

// ParseLngLat parses a "lng,lat" pair.
func ParseLngLat(s string) (Coordinates, error) {
	lngStr, latStr, ok := strings.Cut(s, ",")
	if !ok {
		return Coordinates{}, fmt.Errorf("expected \"lng,lat\", got %q", s)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngStr), 64)
	if err != nil {
		return Coordinates{}, fmt.Errorf("parse longitude %q: %w", lngStr, err)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return Coordinates{}, fmt.Errorf("parse latitude %q: %w", latStr, err)
	}
	c := Coordinates{Lat: lat, Lng: lng}
	if err := c.Validate(); err != nil {
		return Coordinates{}, err
	}
	return c, nil
}

// Bounds is the rectangular viewport, expressed by its north-west and
// south-east corners.
type Bounds struct {
	NorthWest Coordinates `json:"north_west"`
	SouthEast Coordinates `json:"south_east"`
}

// From returns the north-west corner as "lng,lat".
func (b Bounds) From() string { return b.NorthWest.LngLat() }

// To returns the south-east corner as "lng,lat".
func (b Bounds) To() string { return b.SouthEast.LngLat() }

// Contains reports whether c lies inside the bounds (edges inclusive).
func (b Bounds) Contains(c Coordinates) bool {
	return c.Lat <= b.NorthWest.Lat && c.Lat >= b.SouthEast.Lat &&
		c.Lng >= b.NorthWest.Lng && c.Lng <= b.SouthEast.Lng
}
