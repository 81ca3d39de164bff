// Package editor holds the interactive zone editor core: the edit session
// state machine, the metrics engine and the submission gate. It performs no
// I/O and is driven synchronously by one event loop per session.
package editor

import (
	"math"

	"github.com/samirrijal/zonedesk/internal/core/domain"
)

// CloseEpsilon is the closure hit box around the first vertex, in degrees on
// each axis. It is not scaled by latitude.
const CloseEpsilon = 0.0007

// State is the derived phase of a Session.
type State string

const (
	StateEmpty   State = "empty"
	StateDrawing State = "drawing"
	StatePartial State = "partial"
	StateClosed  State = "closed"
)

// Session is a single in-progress zone outline plus its closed flag.
// It exclusively owns its vertex list; readers only ever get copies.
type Session struct {
	vertices []domain.Vertex
	closed   bool
}

// NewSession starts a session, optionally seeded with an existing zone's
// outline. Invalid seed vertices are dropped. The session starts open.
func NewSession(initial []domain.Vertex) *Session {
	s := &Session{vertices: make([]domain.Vertex, 0, len(initial))}
	for _, v := range initial {
		if v.Valid() {
			s.vertices = append(s.vertices, v)
		}
	}
	return s
}

// AddPoint appends v when the outline is still open.
func (s *Session) AddPoint(v domain.Vertex) bool {
	if s.closed || !v.Valid() {
		return false
	}
	s.vertices = append(s.vertices, domain.Vertex{Lat: v.Lat, Lng: v.Lng})
	return true
}

// RemoveLast pops the most recent vertex and reopens the outline.
func (s *Session) RemoveLast() bool {
	if len(s.vertices) == 0 {
		return false
	}
	s.vertices = s.vertices[:len(s.vertices)-1]
	s.closed = false
	return true
}

// RemoveAt deletes the vertex at index and reopens the outline.
// An out-of-range index is ignored.
func (s *Session) RemoveAt(index int) bool {
	if index < 0 || index >= len(s.vertices) {
		return false
	}
	next := make([]domain.Vertex, 0, len(s.vertices)-1)
	next = append(next, s.vertices[:index]...)
	next = append(next, s.vertices[index+1:]...)
	s.vertices = next
	s.closed = false
	return true
}

// MoveVertex replaces the vertex at index. Allowed in every state, closed included.
func (s *Session) MoveVertex(index int, v domain.Vertex) bool {
	if index < 0 || index >= len(s.vertices) || !v.Valid() {
		return false
	}
	s.vertices[index] = domain.Vertex{Lat: v.Lat, Lng: v.Lng}
	return true
}

// AttemptClose closes the outline when candidate lands within CloseEpsilon of
// the first vertex on both axes. Anything else is silently ignored.
func (s *Session) AttemptClose(candidate domain.Vertex) bool {
	if s.closed || len(s.vertices) < domain.MinZoneVertices || !candidate.Valid() {
		return false
	}
	first := s.vertices[0]
	if math.Abs(candidate.Lat-first.Lat) < CloseEpsilon && math.Abs(candidate.Lng-first.Lng) < CloseEpsilon {
		s.closed = true
		return true
	}
	return false
}

// Clear drops every vertex and reopens the outline.
func (s *Session) Clear() bool {
	changed := len(s.vertices) > 0 || s.closed
	s.vertices = nil
	s.closed = false
	return changed
}

// Vertices returns a snapshot of the outline.
func (s *Session) Vertices() []domain.Vertex {
	out := make([]domain.Vertex, len(s.vertices))
	copy(out, s.vertices)
	return out
}

// Len returns the current vertex count.
func (s *Session) Len() int { return len(s.vertices) }

// Closed reports whether the user confirmed the outline as finished.
func (s *Session) Closed() bool { return s.closed }

// State derives the current phase from the vertex count and closed flag.
func (s *Session) State() State {
	switch n := len(s.vertices); {
	case n == 0:
		return StateEmpty
	case s.closed:
		return StateClosed
	case n < domain.MinZoneVertices:
		return StateDrawing
	default:
		return StatePartial
	}
}

// Metrics computes fresh metrics for the current outline.
func (s *Session) Metrics() domain.Metrics {
	return ComputeMetrics(s.vertices)
}
