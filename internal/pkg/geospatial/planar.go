package geospatial

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Project maps a coordinate onto a spherical Mercator plane, in meters.
// Latitudes of exactly ±90 project to ±Inf. orb's project.WGS84.ToMercator
// clamps there instead, which would hide a degenerate ring behind a finite area.
func Project(lat, lng float64) orb.Point {
	return orb.Point{
		EarthRadiusMeters * ToRadians(lng),
		EarthRadiusMeters * math.Log(math.Tan(math.Pi/4+ToRadians(lat)/2)),
	}
}

// RingArea returns the unsigned area enclosed by projected points. The ring
// closes implicitly, so the first point must not be repeated at the end.
func RingArea(points []orb.Point) float64 {
	return math.Abs(planar.Area(orb.Ring(points)))
}

// Extent returns the min/max latitude and longitude over the given pairs.
// ok is false for an empty input.
func Extent(lats, lngs []float64) (minLat, minLng, maxLat, maxLng float64, ok bool) {
	if len(lats) == 0 || len(lats) != len(lngs) {
		return 0, 0, 0, 0, false
	}

	minLat, maxLat = lats[0], lats[0]
	minLng, maxLng = lngs[0], lngs[0]
	for i := 1; i < len(lats); i++ {
		minLat = math.Min(minLat, lats[i])
		maxLat = math.Max(maxLat, lats[i])
		minLng = math.Min(minLng, lngs[i])
		maxLng = math.Max(maxLng, lngs[i])
	}
	return minLat, minLng, maxLat, maxLng, true
}
