package geospatial

import "math"

// Half the Web-Mercator world extent in meters (earth radius * π).
const mercatorHalfWorld = 20037508.34

// MercatorPoint is a projected coordinate pair as used by the Baidu web map.
type MercatorPoint struct {
	X float64 // easting, meters
	Y float64 // northing, meters
}

// BD09ToMercator applies the spherical Web-Mercator forward projection to a
// BD-09 coordinate. (0,0) maps to (0,0) exactly. Inputs are not validated:
// a latitude of ±90 projects to ±Inf.
func BD09ToMercator(lng, lat float64) MercatorPoint {
	x := lng * mercatorHalfWorld / 180.0
	y := math.Log(math.Tan((90.0+lat)*math.Pi/360.0)) / (math.Pi / 180.0)
	y = y * mercatorHalfWorld / 180.0
	return MercatorPoint{X: x, Y: y}
}

// Midpoint is the arithmetic midpoint of two projected points, used as the
// initial map center of a route view.
func Midpoint(a, b MercatorPoint) MercatorPoint {
	return MercatorPoint{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
}
