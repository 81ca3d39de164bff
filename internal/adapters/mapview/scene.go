// Package mapview translates an editor session into draw instructions for an
// external map widget and routes the widget's pointer events back into the
// session. It carries no geometry of its own.
package mapview

import (
	"math"
	"strconv"

	"github.com/samirrijal/zonedesk/internal/core/domain"
	"github.com/samirrijal/zonedesk/internal/core/editor"
	"github.com/samirrijal/zonedesk/internal/pkg/geospatial"
)

// View is the camera the widget is asked to show.
// Fit, when set, asks the widget to fit the camera to that box instead.
type View struct {
	Center domain.Vertex  `json:"center"`
	Zoom   int            `json:"zoom"`
	Fit    *domain.Bounds `json:"fit,omitempty"`
}

// fitMarginMeters pads the fitted box so edge vertices stay clear of the frame.
const fitMarginMeters = 100

// Ring is a polygon outline overlay. The widget closes it implicitly:
// the first point is never repeated at the end.
type Ring struct {
	Points []domain.Vertex `json:"points"`
	Closed bool            `json:"closed"`
}

// Marker is a draggable vertex handle captioned with its 1-based position.
type Marker struct {
	Index    int           `json:"index"`
	Position domain.Vertex `json:"position"`
	Caption  string        `json:"caption"`
}

// Scene is everything the widget draws for one frame.
type Scene struct {
	View    View     `json:"view"`
	Rings   []Ring   `json:"rings"`
	Markers []Marker `json:"markers"`
}

// Status is the live readout shown next to the map.
type Status struct {
	Vertices  int                     `json:"vertices"`
	Closed    bool                    `json:"closed"`
	State     editor.State            `json:"state"`
	Metrics   domain.Metrics          `json:"metrics"`
	Formatted domain.FormattedMetrics `json:"formatted"`
}

// Frame pairs a scene with its status readout.
type Frame struct {
	Scene  Scene  `json:"scene"`
	Status Status `json:"status"`
}

// BuildScene renders a vertex snapshot. A ring overlay is emitted once there
// are at least two points to connect.
func BuildScene(vertices []domain.Vertex, closed bool, view View) Scene {
	scene := Scene{
		View:    view,
		Rings:   []Ring{},
		Markers: make([]Marker, len(vertices)),
	}
	if len(vertices) >= 2 {
		points := make([]domain.Vertex, len(vertices))
		copy(points, vertices)
		scene.Rings = append(scene.Rings, Ring{Points: points, Closed: closed})
	}
	for i, v := range vertices {
		scene.Markers[i] = Marker{Index: i, Position: v, Caption: strconv.Itoa(i + 1)}
	}
	return scene
}

// BuildFrame renders the session's current state.
func BuildFrame(s *editor.Session, view View) Frame {
	vertices := s.Vertices()
	m := editor.ComputeMetrics(vertices)
	return Frame{
		Scene: BuildScene(vertices, s.Closed(), view),
		Status: Status{
			Vertices:  len(vertices),
			Closed:    s.Closed(),
			State:     s.State(),
			Metrics:   m,
			Formatted: editor.Display(vertices),
		},
	}
}

// FitView centers view on the outline's extent when there is one and sets Fit
// to that extent grown by fitMarginMeters.
func FitView(vertices []domain.Vertex, view View) View {
	lats := make([]float64, len(vertices))
	lngs := make([]float64, len(vertices))
	for i, v := range vertices {
		lats[i], lngs[i] = v.Lat, v.Lng
	}
	minLat, minLng, maxLat, maxLng, ok := geospatial.Extent(lats, lngs)
	if !ok {
		return view
	}
	view.Center = domain.Bounds{MinLat: minLat, MinLng: minLng, MaxLat: maxLat, MaxLng: maxLng}.Center()

	// Longitude degrees shrink toward the poles, so pad with the poleward edge.
	ref := maxLat
	if math.Abs(minLat) > math.Abs(maxLat) {
		ref = minLat
	}
	south, west, _, _ := geospatial.BoundingBox(ref, 0, fitMarginMeters)
	latPad, lngPad := ref-south, -west
	if math.IsInf(lngPad, 0) || math.IsNaN(lngPad) {
		return view
	}
	view.Fit = &domain.Bounds{
		MinLat: minLat - latPad,
		MinLng: minLng - lngPad,
		MaxLat: maxLat + latPad,
		MaxLng: maxLng + lngPad,
	}
	return view
}
