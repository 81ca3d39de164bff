// Package geojsonadapter converts zones to and from GeoJSON. Stored outlines never
// repeat their first vertex; GeoJSON rings always do, so the closing vertex
// is added on export and stripped on import.
package geojsonadapter

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/samirrijal/zonedesk/internal/core/domain"
	"github.com/samirrijal/zonedesk/internal/core/editor"
)

var (
	// ErrUnsupportedGeometry is returned for anything but a single-ring Polygon.
	ErrUnsupportedGeometry = errors.New("only single-ring polygons are supported")
	// ErrMissingName is returned when a feature has no string "name" property.
	ErrMissingName = errors.New(`feature has no "name" property`)
)

// FeatureCollection builds a collection with one Polygon feature per zone.
func FeatureCollection(zones []domain.Zone) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, z := range zones {
		fc.Append(Feature(z))
	}
	return fc
}

// Feature converts a zone into a Polygon feature carrying its name,
// description and metrics as properties.
func Feature(z domain.Zone) *geojson.Feature {
	f := geojson.NewFeature(orb.Polygon{ring(z.Points)})
	f.ID = z.ID
	f.Properties["name"] = z.Name
	if z.Description != nil {
		f.Properties["description"] = *z.Description
	}

	m := editor.ComputeMetrics(z.Points)
	if z.Metrics != nil {
		m = *z.Metrics
	}
	f.Properties["area_sq_meters"] = m.AreaSqMeters
	f.Properties["perimeter_meters"] = m.PerimeterMeters
	return f
}

// Encode marshals zones as a FeatureCollection.
func Encode(zones []domain.Zone) ([]byte, error) {
	return FeatureCollection(zones).MarshalJSON()
}

// Decoded is one feature of an import file. Err is set when the feature could
// not be turned into a payload; the payload itself is not yet validated.
type Decoded struct {
	Index   int
	Payload domain.ZonePayload
	Err     error
}

// Decode parses a FeatureCollection into zone payloads, one per feature.
// Only a malformed document fails as a whole.
func Decode(data []byte) ([]Decoded, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse feature collection: %w", err)
	}

	out := make([]Decoded, len(fc.Features))
	for i, f := range fc.Features {
		p, err := payload(f)
		out[i] = Decoded{Index: i, Payload: p, Err: err}
	}
	return out, nil
}

func payload(f *geojson.Feature) (domain.ZonePayload, error) {
	name, ok := f.Properties["name"].(string)
	if !ok {
		return domain.ZonePayload{}, ErrMissingName
	}

	poly, ok := f.Geometry.(orb.Polygon)
	if !ok || len(poly) != 1 {
		return domain.ZonePayload{}, ErrUnsupportedGeometry
	}

	p := domain.ZonePayload{Name: name, Points: vertices(poly[0])}
	if d, ok := f.Properties["description"].(string); ok {
		p.Description = &d
	}
	return p, nil
}

// ring converts vertices to a GeoJSON ring ([lng, lat] order, closed).
func ring(points []domain.Vertex) orb.Ring {
	r := make(orb.Ring, 0, len(points)+1)
	for _, v := range points {
		r = append(r, orb.Point{v.Lng, v.Lat})
	}
	if len(r) > 0 {
		r = append(r, r[0])
	}
	return r
}

func vertices(r orb.Ring) []domain.Vertex {
	if n := len(r); n > 1 && r[0] == r[n-1] {
		r = r[:n-1]
	}
	out := make([]domain.Vertex, len(r))
	for i, p := range r {
		out[i] = domain.Vertex{Lat: p.Lat(), Lng: p.Lon()}
	}
	return out
}
