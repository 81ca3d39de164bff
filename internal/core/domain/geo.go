package domain

import "math"

// Vertex is a single WGS 84 coordinate of a zone outline.
// It is a value type: edits always store a new Vertex, never mutate one in place.
type Vertex struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether both coordinates are finite and inside their ranges.
func (v Vertex) Valid() bool {
	if math.IsNaN(v.Lat) || math.IsInf(v.Lat, 0) || math.IsNaN(v.Lng) || math.IsInf(v.Lng, 0) {
		return false
	}
	return v.Lat >= -90 && v.Lat <= 90 && v.Lng >= -180 && v.Lng <= 180
}

// Bounds represents a geographic bounding box.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLat float64 `json:"max_lat"`
	MaxLng float64 `json:"max_lng"`
}

// Center returns the midpoint of the box.
func (b Bounds) Center() Vertex {
	return Vertex{Lat: (b.MinLat + b.MaxLat) / 2, Lng: (b.MinLng + b.MaxLng) / 2}
}

// Metrics are the derived geometric properties of a ring.
// They are recomputed from the vertex list on every read and never stored.
type Metrics struct {
	AreaSqMeters    float64 `json:"area_sq_meters"`
	PerimeterMeters float64 `json:"perimeter_meters"`
}

// FormattedMetrics is the human-readable rendition of Metrics.
type FormattedMetrics struct {
	Area      string `json:"area"`
	Perimeter string `json:"perimeter"`
}
