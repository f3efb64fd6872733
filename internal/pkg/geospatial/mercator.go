package geospatial

import "math"

const (
	// TileSize is the pixel edge of one Web-Mercator tile at zoom 0.
	TileSize = 256

	// MaxLatitude is the latitude at which Web-Mercator becomes square.
	MaxLatitude = 85.0511287798066
)

// Project converts a coordinate to world pixel space at the given zoom.
func Project(lat, lng float64, zoom int) (x, y float64) {
	size := worldSize(zoom)
	lat = clamp(lat, -MaxLatitude, MaxLatitude)

	sin := math.Sin(toRad(lat))
	x = (lng + 180) / 360 * size
	y = (0.5 - math.Log((1+sin)/(1-sin))/(4*math.Pi)) * size
	return x, y
}

// Unproject is the inverse of Project.
func Unproject(x, y float64, zoom int) (lat, lng float64) {
	size := worldSize(zoom)
	lng = x/size*360 - 180
	n := math.Pi - 2*math.Pi*y/size
	lat = toDeg(math.Atan(math.Sinh(n)))
	return lat, lng
}

// ViewportBounds returns the north-west and south-east corners of a
// width x height pixel viewport centred on (lat, lng). Results are clamped to
// the valid coordinate range.
func ViewportBounds(lat, lng float64, zoom, width, height int) (north, west, south, east float64) {
	cx, cy := Project(lat, lng, zoom)
	halfW, halfH := float64(width)/2, float64(height)/2

	north, west = Unproject(cx-halfW, cy-halfH, zoom)
	south, east = Unproject(cx+halfW, cy+halfH, zoom)

	north = clamp(north, -MaxLatitude, MaxLatitude)
	south = clamp(south, -MaxLatitude, MaxLatitude)
	west = clamp(west, -180, 180)
	east = clamp(east, -180, 180)
	return north, west, south, east
}

func worldSize(zoom int) float64 {
	if zoom < 0 {
		zoom = 0
	}
	return TileSize * math.Exp2(float64(zoom))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

func toDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}
