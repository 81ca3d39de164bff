package geospatial

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// EarthRadiusMeters is the WGS 84 equatorial radius, used as a spherical
// approximation. Zones are local-scale, so the ellipsoid is ignored. It matches
// orb.EarthRadius, which geo.DistanceHaversine uses.
const EarthRadiusMeters = 6378137.0

// Haversine calculates the great-circle distance in meters between two points.
// The result is identical when the points are swapped.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	return geo.DistanceHaversine(orb.Point{lng1, lat1}, orb.Point{lng2, lat2})
}

// BoundingBox returns a bounding box around a point with the given radius in meters.
func BoundingBox(lat, lng, radiusMeters float64) (minLat, minLng, maxLat, maxLng float64) {
	latDelta := radiusMeters / 111320.0
	lngDelta := radiusMeters / (111320.0 * math.Cos(ToRadians(lat)))

	return lat - latDelta, lng - lngDelta, lat + latDelta, lng + lngDelta
}

// ToRadians converts degrees to radians.
func ToRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
