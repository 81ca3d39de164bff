package mapview

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/samirrijal/zonedesk/internal/core/domain"
)

// EventKind is a widget pointer gesture.
type EventKind string

const (
	PrimaryClick         EventKind = "primary_click"
	SecondaryClick       EventKind = "secondary_click"
	DoubleClick          EventKind = "double_click"
	MarkerDragEnd        EventKind = "marker_drag_end"
	MarkerSecondaryClick EventKind = "marker_secondary_click"
)

// ErrMalformedEvent is returned for widget payloads that cannot be translated.
var ErrMalformedEvent = errors.New("malformed map event")

// Event is a validated widget gesture. Position is set for map clicks and
// drags, Index for marker gestures.
type Event struct {
	Kind     EventKind
	Position domain.Vertex
	Index    int
}

// DecodeEvent translates a raw widget payload such as
// {"type":"marker_drag_end","index":2,"lat":43.26,"lng":-2.93}.
// Nothing untyped gets past this function.
func DecodeEvent(raw []byte) (Event, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	return EventFromMap(m)
}

// EventFromMap translates an already-decoded payload.
func EventFromMap(m map[string]any) (Event, error) {
	kind, _ := m["type"].(string)
	ev := Event{Kind: EventKind(kind)}

	switch ev.Kind {
	case PrimaryClick, SecondaryClick, DoubleClick:
		pos, err := position(m)
		if err != nil {
			return Event{}, err
		}
		ev.Position = pos
	case MarkerDragEnd:
		idx, err := index(m)
		if err != nil {
			return Event{}, err
		}
		pos, err := position(m)
		if err != nil {
			return Event{}, err
		}
		ev.Index, ev.Position = idx, pos
	case MarkerSecondaryClick:
		idx, err := index(m)
		if err != nil {
			return Event{}, err
		}
		ev.Index = idx
	default:
		return Event{}, fmt.Errorf("%w: unknown type %q", ErrMalformedEvent, kind)
	}
	return ev, nil
}

func position(m map[string]any) (domain.Vertex, error) {
	lat, okLat := m["lat"].(float64)
	lng, okLng := m["lng"].(float64)
	if !okLat || !okLng {
		return domain.Vertex{}, fmt.Errorf("%w: lat/lng must be numbers", ErrMalformedEvent)
	}
	v := domain.Vertex{Lat: lat, Lng: lng}
	if !v.Valid() {
		return domain.Vertex{}, fmt.Errorf("%w: coordinate out of range", ErrMalformedEvent)
	}
	return v, nil
}

func index(m map[string]any) (int, error) {
	f, ok := m["index"].(float64)
	if !ok || f < 0 || f != math.Trunc(f) || f > math.MaxInt32 {
		return 0, fmt.Errorf("%w: index must be a non-negative integer", ErrMalformedEvent)
	}
	return int(f), nil
}
