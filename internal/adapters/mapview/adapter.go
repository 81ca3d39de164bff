package mapview

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/samirrijal/zonedesk/internal/core/editor"
	"github.com/samirrijal/zonedesk/internal/pkg/metrics"
)

// Widget is the external map component. Render replaces whatever it drew last.
type Widget interface {
	Render(ctx context.Context, frame Frame) error
	Close() error
}

// ErrNotMounted is returned when rendering without a widget.
var ErrNotMounted = errors.New("map widget not mounted")

// Adapter binds one session to one widget handle. It is not safe for
// concurrent use; a single event loop drives it.
type Adapter struct {
	session *editor.Session
	view    View
	widget  Widget
	limit   int
	log     *slog.Logger
}

// NewAdapter creates an adapter for session. The view is centered on the
// session's outline when it already has one.
func NewAdapter(session *editor.Session, view View, log *slog.Logger) *Adapter {
	if log == nil {
		log = slog.Default()
	}
	return &Adapter{
		session: session,
		view:    FitView(session.Vertices(), view),
		log:     log,
	}
}

// SetVertexLimit caps how many points map clicks may add. Zero means no cap.
func (a *Adapter) SetVertexLimit(n int) {
	a.limit = n
}

// Mount takes ownership of widget and draws the first frame.
// A previously mounted widget is closed first.
func (a *Adapter) Mount(ctx context.Context, w Widget) error {
	if a.widget != nil {
		_ = a.widget.Close()
	}
	a.widget = w
	return a.Render(ctx)
}

// Unmount closes and releases the widget handle.
func (a *Adapter) Unmount() error {
	if a.widget == nil {
		return nil
	}
	err := a.widget.Close()
	a.widget = nil
	return err
}

// Frame returns the current frame without drawing it.
func (a *Adapter) Frame() Frame {
	return BuildFrame(a.session, a.view)
}

// Render draws the current frame.
func (a *Adapter) Render(ctx context.Context) error {
	if a.widget == nil {
		return ErrNotMounted
	}
	return a.widget.Render(ctx, a.Frame())
}

// Apply routes a gesture to the matching session transition and reports
// whether the outline changed.
func (a *Adapter) Apply(ev Event) bool {
	var applied bool
	switch ev.Kind {
	case PrimaryClick:
		// A single click never closes the outline.
		if !a.session.Closed() && (a.limit <= 0 || a.session.Len() < a.limit) {
			applied = a.session.AddPoint(ev.Position)
		}
	case SecondaryClick:
		applied = a.session.RemoveLast()
	case DoubleClick:
		applied = a.session.AttemptClose(ev.Position)
	case MarkerDragEnd:
		applied = a.session.MoveVertex(ev.Index, ev.Position)
	case MarkerSecondaryClick:
		applied = a.session.RemoveAt(ev.Index)
	}
	metrics.EditorEvents.WithLabelValues(string(ev.Kind), strconv.FormatBool(applied)).Inc()
	return applied
}

// Handle applies ev and redraws. The frame is redrawn even when the gesture
// was ignored so the widget drops any optimistic state (e.g. a rejected drag).
func (a *Adapter) Handle(ctx context.Context, ev Event) (bool, error) {
	applied := a.Apply(ev)
	if !applied {
		a.log.Debug("map event ignored", "kind", ev.Kind, "index", ev.Index, "state", a.session.State())
	}
	return applied, a.Render(ctx)
}

// HandleRaw decodes a widget payload and handles it. Malformed payloads are
// dropped without touching the session or the widget.
func (a *Adapter) HandleRaw(ctx context.Context, raw []byte) (bool, error) {
	ev, err := DecodeEvent(raw)
	if err != nil {
		metrics.EditorRejectedEvents.Inc()
		a.log.Debug("map event rejected", "error", err)
		return false, nil
	}
	return a.Handle(ctx, ev)
}

// Clear empties the outline (toolbar action, not a map gesture) and redraws.
func (a *Adapter) Clear(ctx context.Context) error {
	a.session.Clear()
	return a.Render(ctx)
}
