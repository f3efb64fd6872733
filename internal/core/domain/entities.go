package domain

import "encoding/json"

// Sighting is a single reported occurrence of a Pokémon at a location.
type Sighting struct {
	PokemonID int         `json:"pokemon_id"`
	Location  Coordinates `json:"location"`
}

// SightingDetail is the by-identifier lookup result. The payload is kept
// verbatim since its shape is owned by the data API.
type SightingDetail struct {
	PokemonID int             `json:"pokemon_id"`
	Data      json.RawMessage `json:"data"`
}

// Point is a pixel offset or size.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Icon describes a marker image and its anchoring.
type Icon struct {
	URL          string `json:"url"`
	Size         Point  `json:"size"`
	ShadowSize   Point  `json:"shadow_size"`
	ShadowAnchor Point  `json:"shadow_anchor"`
	PopupAnchor  Point  `json:"popup_anchor"`
}

// PokemonIcon returns the preset marker icon for the given image URL.
func PokemonIcon(url string) Icon {
	return Icon{
		URL:          url,
		Size:         Point{X: 30, Y: 30},
		ShadowSize:   Point{X: 50, Y: 64},
		ShadowAnchor: Point{X: 4, Y: 62},
		PopupAnchor:  Point{X: -3, Y: -76},
	}
}

// Marker is a sighting placed on the map.
type Marker struct {
	ID        string      `json:"id"`
	PokemonID int         `json:"pokemon_id"`
	Position  Coordinates `json:"position"`
	Icon      Icon        `json:"icon"`
}

// TileLayerOptions are the display options for the background imagery.
type TileLayerOptions struct {
	Attribution string `json:"attribution,omitempty"`
	MaxZoom     int    `json:"max_zoom,omitempty"`
}

// TileLayer is the background imagery source.
type TileLayer struct {
	URL     string           `json:"url"`
	Options TileLayerOptions `json:"options"`
}

const (
	DefaultTileLayerURL = "http://{s}.tile.thunderforest.com/cycle/{z}/{x}/{y}.png"

	DefaultAttribution = `JS16 <a href="https://github.com/PokemonGoers/PokeMap-1">PokeMap</a>, ` +
		`Map data &copy; <a href="http://openstreetmap.org">OpenStreetMap</a> ` +
		`contributors, <a href="http://creativecommons.org/licenses/by-sa/2.0/">CC-BY-SA</a>, ` +
		`Imagery © <a href="http://thunderforest.com">Thunderforest/OpenCycleMap</a>, ` +
		`Pokemon Images © <a href="http://pokemondb.net/">Pokémon Database</a>`

	DefaultMaxZoom = 18
)

// DefaultTileLayer returns the preset tile provider.
func DefaultTileLayer() TileLayer {
	return TileLayer{
		URL: DefaultTileLayerURL,
		Options: TileLayerOptions{
			Attribution: DefaultAttribution,
			MaxZoom:     DefaultMaxZoom,
		},
	}
}

// MoveEnd is emitted when the viewport has settled after a pan or zoom.
type MoveEnd struct {
	Center Coordinates `json:"center"`
	Zoom   int         `json:"zoom"`
}
