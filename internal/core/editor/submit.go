package editor

import (
	"strings"

	"github.com/samirrijal/zonedesk/internal/core/domain"
)

// PrepareForSubmission checks the session and builds the payload handed to the
// save call. The name is checked before the vertex count.
func PrepareForSubmission(s *Session, name string, description *string) (domain.ZonePayload, error) {
	return normalize(name, description, s.Vertices())
}

// ValidatePayload applies the same gate to a payload that did not come from an
// edit session (API bodies, imports). Coordinates must also be valid.
func ValidatePayload(p domain.ZonePayload) (domain.ZonePayload, error) {
	out, err := normalize(p.Name, p.Description, p.Points)
	if err != nil {
		return domain.ZonePayload{}, err
	}
	for _, v := range out.Points {
		if !v.Valid() {
			return domain.ZonePayload{}, domain.NewValidationError(domain.InvalidCoordinate)
		}
	}
	return out, nil
}

func normalize(name string, description *string, points []domain.Vertex) (domain.ZonePayload, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.ZonePayload{}, domain.NewValidationError(domain.EmptyName)
	}
	if len(points) < domain.MinZoneVertices {
		return domain.ZonePayload{}, domain.NewValidationError(domain.InsufficientVertices)
	}

	out := domain.ZonePayload{
		Name:   name,
		Points: make([]domain.Vertex, len(points)),
	}
	for i, v := range points {
		out.Points[i] = domain.Vertex{Lat: v.Lat, Lng: v.Lng}
	}
	if description != nil {
		if d := strings.TrimSpace(*description); d != "" {
			out.Description = &d
		}
	}
	return out, nil
}
