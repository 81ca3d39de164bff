package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/samirrijal/zonedesk/internal/adapters/mapview"
	"github.com/samirrijal/zonedesk/internal/core/domain"
	"github.com/samirrijal/zonedesk/internal/core/editor"
	"github.com/samirrijal/zonedesk/internal/core/usecases"
	"github.com/samirrijal/zonedesk/internal/pkg/metrics"
)

const editorSaveTimeout = 15 * time.Second

// editorMessage is sent from the server to the editor page.
type editorMessage struct {
	Type    string            `json:"type"` // frame | zone | saved | validation_error | error | zone_event
	Frame   *mapview.Frame    `json:"frame,omitempty"`
	Zone    *domain.Zone      `json:"zone,omitempty"`
	Event   *domain.ZoneEvent `json:"event,omitempty"`
	Code    string            `json:"code,omitempty"`
	Message string            `json:"message,omitempty"`
}

// editorCommand is the envelope of every client message. Map gestures carry
// their own fields and are decoded by mapview.
type editorCommand struct {
	Type        string  `json:"type"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// wsWidget draws frames onto an editor connection. The read loop, the save
// goroutine and the keep-alive ping all write, so writes are serialized.
type wsWidget struct {
	conn   *websocket.Conn
	mu     sync.Mutex
	closed bool
}

func (w *wsWidget) send(msg editorMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return mapview.ErrNotMounted
	}
	return w.conn.WriteMessage(websocket.TextMessage, data)
}

func (w *wsWidget) ping() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return mapview.ErrNotMounted
	}
	return w.conn.WriteMessage(websocket.PingMessage, nil)
}

// Render implements mapview.Widget.
func (w *wsWidget) Render(ctx context.Context, frame mapview.Frame) error {
	return w.send(editorMessage{Type: "frame", Frame: &frame})
}

// Close implements mapview.Widget. It sends a close frame; the handler owns
// the underlying connection.
func (w *wsWidget) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	return w.conn.WriteMessage(websocket.CloseMessage, nil)
}

type zoneSubscriber interface {
	SubscribeZone(ctx context.Context, zoneID int64, handler func(ctx context.Context, event domain.ZoneEvent)) (func(), error)
}

// zoneFeed relays events for the zone a session is editing. A session that
// starts on a new outline has no zone until its first save, so the feed moves
// whenever the zone ID changes. Events carrying the session's own origin are
// dropped; the session has its "saved" reply for those.
type zoneFeed struct {
	sub    zoneSubscriber
	origin string
	send   func(editorMessage) error
	log    *slog.Logger

	mu          sync.Mutex
	zoneID      int64
	unsubscribe func()
	closed      bool
}

func (f *zoneFeed) follow(ctx context.Context, zoneID int64) {
	if f.sub == nil || zoneID == 0 {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed || zoneID == f.zoneID {
		return
	}

	unsubscribe, err := f.sub.SubscribeZone(ctx, zoneID, f.relay)
	if err != nil {
		f.log.Warn("zone event subscribe failed", "zone_id", zoneID, "error", err)
		return
	}
	if f.unsubscribe != nil {
		f.unsubscribe()
	}
	f.zoneID = zoneID
	f.unsubscribe = unsubscribe
}

func (f *zoneFeed) relay(ctx context.Context, event domain.ZoneEvent) {
	if event.Origin != "" && event.Origin == f.origin {
		return
	}
	_ = f.send(editorMessage{Type: "zone_event", Event: &event})
}

func (f *zoneFeed) close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	if f.unsubscribe != nil {
		f.unsubscribe()
		f.unsubscribe = nil
	}
}

// EditorHandler returns a handler that runs one edit session per connection.
// Connect with ?zone_id=<id> to edit an existing zone, without it to draw a
// new one. Clients send map gestures as
// {"type":"primary_click","lat":43.26,"lng":-2.93}, plus {"type":"clear"} and
// {"type":"save","name":"...","description":"..."}.
func EditorHandler(deps *Dependencies) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		log := slog.Default().With("remote", c.RemoteAddr().String())
		widget := &wsWidget{conn: c}

		metrics.ActiveEditorSessions.Inc()
		defer metrics.ActiveEditorSessions.Dec()

		var zoneID atomic.Int64
		var seed []domain.Vertex
		if raw := c.Query("zone_id"); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || id <= 0 {
				_ = widget.send(editorMessage{Type: "error", Message: "invalid zone id"})
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), editorSaveTimeout)
			zone, err := deps.Zones.GetByID(ctx, id)
			cancel()
			if err != nil {
				msg := "failed to load zone"
				if errors.Is(err, domain.ErrZoneNotFound) {
					msg = "Zone not found"
				}
				_ = widget.send(editorMessage{Type: "error", Message: msg})
				return
			}
			zoneID.Store(zone.ID)
			seed = zone.Points
			_ = widget.send(editorMessage{Type: "zone", Zone: zone})
		}

		session := editor.NewSession(seed)
		view := mapview.View{
			Center: domain.Vertex{Lat: deps.Editor.DefaultCenterLat, Lng: deps.Editor.DefaultCenterLng},
			Zoom:   deps.Editor.DefaultZoom,
		}
		adapter := mapview.NewAdapter(session, view, log)
		adapter.SetVertexLimit(deps.Editor.MaxVertices)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		if err := adapter.Mount(ctx, widget); err != nil {
			log.Warn("editor mount failed", "error", err)
			return
		}
		defer adapter.Unmount()
		log.Info("editor session opened", "zone_id", zoneID.Load())

		// Changes made elsewhere to the zone being edited
		feed := &zoneFeed{origin: uuid.NewString(), send: widget.send, log: log}
		if deps.Subscriber != nil {
			feed.sub = deps.Subscriber
		}
		defer feed.close()
		feed.follow(ctx, zoneID.Load())

		// Keep-alive ping
		go func() {
			interval := time.Duration(deps.Editor.PingInterval) * time.Second
			if interval <= 0 {
				interval = 30 * time.Second
			}
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					if err := widget.ping(); err != nil {
						return
					}
				case <-ctx.Done():
					return
				}
			}
		}()

		var saving atomic.Bool
		for {
			_, raw, err := c.ReadMessage()
			if err != nil {
				break
			}

			var cmd editorCommand
			if err := json.Unmarshal(raw, &cmd); err != nil {
				metrics.EditorRejectedEvents.Inc()
				continue
			}

			switch cmd.Type {
			case "clear":
				err = adapter.Clear(ctx)
			case "save":
				payload, verr := editor.PrepareForSubmission(session, cmd.Name, cmd.Description)
				if verr != nil {
					err = widget.send(validationMessage(verr))
					break
				}
				if !saving.CompareAndSwap(false, true) {
					err = widget.send(editorMessage{Type: "error", Message: "save already in progress"})
					break
				}
				var target *int64
				if id := zoneID.Load(); id != 0 {
					target = &id
				}
				// Edits keep flowing while the save is in flight. The session
				// is never rolled back when it fails.
				go func() {
					defer saving.Store(false)
					saveCtx, cancel := context.WithTimeout(usecases.WithOrigin(context.Background(), feed.origin), editorSaveTimeout)
					defer cancel()

					zone, err := deps.Zones.Save(saveCtx, target, payload)
					if err != nil {
						log.Warn("editor save failed", "zone_id", zoneID.Load(), "error", err)
						_ = widget.send(saveErrorMessage(err))
						return
					}
					zoneID.Store(zone.ID)
					log.Info("editor save succeeded", "zone_id", zone.ID, "vertices", len(zone.Points))
					_ = widget.send(editorMessage{Type: "saved", Zone: zone})
					feed.follow(ctx, zone.ID)
				}()
			default:
				_, err = adapter.HandleRaw(ctx, raw)
			}

			if err != nil {
				log.Debug("editor write failed", "error", err)
				break
			}
		}

		log.Info("editor session closed", "zone_id", zoneID.Load(), "vertices", session.Len())
	}
}

func validationMessage(err error) editorMessage {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return editorMessage{Type: "validation_error", Code: string(verr.Code), Message: verr.Message}
	}
	return editorMessage{Type: "validation_error", Message: err.Error()}
}

func saveErrorMessage(err error) editorMessage {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return validationMessage(err)
	}
	return editorMessage{Type: "error", Message: saveFailure(err)}
}

// saveFailure returns the detail the user sees for a failed persistence call.
func saveFailure(err error) string {
	var cerr *domain.ConflictError
	switch {
	case errors.As(err, &cerr):
		return cerr.Detail
	case errors.Is(err, domain.ErrZoneConflict):
		return "Zone with this name already exists"
	case errors.Is(err, domain.ErrZoneNotFound):
		return "Zone not found"
	default:
		return "failed to save zone"
	}
}
