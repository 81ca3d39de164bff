package editor

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"

	"github.com/samirrijal/zonedesk/internal/core/domain"
	"github.com/samirrijal/zonedesk/internal/pkg/geospatial"
)

// Placeholder is displayed instead of metrics while fewer than two points exist.
const Placeholder = "—"

const (
	hectareSqMeters = 10_000.0
	sqKmSqMeters    = 1_000_000.0
	kmMeters        = 1000.0
)

// ComputeMetrics returns the area and perimeter of the ring described by vertices.
// The ring is always treated as closed, whether or not the user has closed it.
// Fewer than two vertices yield zero metrics.
func ComputeMetrics(vertices []domain.Vertex) domain.Metrics {
	n := len(vertices)
	if n < 2 {
		return domain.Metrics{}
	}

	var perimeter float64
	projected := make([]orb.Point, n)
	for i, v := range vertices {
		next := vertices[(i+1)%n]
		perimeter += geospatial.Haversine(v.Lat, v.Lng, next.Lat, next.Lng)
		projected[i] = geospatial.Project(v.Lat, v.Lng)
	}
	area := geospatial.RingArea(projected)

	return domain.Metrics{
		AreaSqMeters:    finiteOrZero(area),
		PerimeterMeters: finiteOrZero(perimeter),
	}
}

func finiteOrZero(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// FormatArea renders square meters as m², ha or km². A unit is chosen by the
// value as it would be printed, so 9999.6 m² reads "1.00 ha" and never "10000 m²".
func FormatArea(sqMeters float64) string {
	switch {
	case math.Round(sqMeters) < hectareSqMeters:
		return fmt.Sprintf("%d m²", int64(math.Round(sqMeters)))
	case math.Round(sqMeters/100) < sqKmSqMeters/100:
		return fmt.Sprintf("%.2f ha", sqMeters/hectareSqMeters)
	default:
		return fmt.Sprintf("%.2f km²", sqMeters/sqKmSqMeters)
	}
}

// FormatPerimeter renders meters as m or km, choosing the unit like FormatArea.
func FormatPerimeter(meters float64) string {
	if math.Round(meters) < kmMeters {
		return fmt.Sprintf("%d m", int64(math.Round(meters)))
	}
	return fmt.Sprintf("%.2f km", meters/kmMeters)
}

// Format renders both metrics.
func Format(m domain.Metrics) domain.FormattedMetrics {
	return domain.FormattedMetrics{
		Area:      FormatArea(m.AreaSqMeters),
		Perimeter: FormatPerimeter(m.PerimeterMeters),
	}
}

// Display is what the page shows next to the map: formatted metrics, or the
// placeholder while the outline has fewer than two points.
func Display(vertices []domain.Vertex) domain.FormattedMetrics {
	if len(vertices) < 2 {
		return domain.FormattedMetrics{Area: Placeholder, Perimeter: Placeholder}
	}
	return Format(ComputeMetrics(vertices))
}
