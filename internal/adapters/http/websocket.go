package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"

	natsadapter "github.com/samirrijal/zonedesk/internal/adapters/nats"
	"github.com/samirrijal/zonedesk/internal/core/domain"
)

// wsMessage is sent from client to subscribe/unsubscribe to zone feeds.
type wsMessage struct {
	Action string `json:"action"`  // "subscribe" | "unsubscribe"
	ZoneID int64  `json:"zone_id"` // zone filter (optional, 0 = all zones)
}

// ZoneFeedHandler returns a handler that upgrades to WebSocket and relays
// zone change events to dashboards.
// Clients send JSON: {"action":"subscribe","zone_id":42}
// A zero zone_id means all zones, which is also the default subscription.
func ZoneFeedHandler(sub *natsadapter.Subscriber) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		remoteAddr := c.RemoteAddr().String()
		slog.Info("zone feed client connected", "remote", remoteAddr)

		var mu sync.Mutex
		subs := make(map[int64]func()) // zone id (0 = all) -> unsubscribe

		// Helper: thread-safe write
		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		if sub == nil || !sub.Connected() {
			_ = writeJSON(map[string]string{"error": "zone feed unavailable"})
			return
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		relay := func(ctx context.Context, event domain.ZoneEvent) {
			_ = writeJSON(event)
		}
		subscribe := func(zoneID int64) (func(), error) {
			if zoneID == 0 {
				return sub.SubscribeAll(ctx, relay)
			}
			return sub.SubscribeZone(ctx, zoneID, relay)
		}

		// Auto-subscribe to every zone by default
		unsub, err := subscribe(0)
		if err != nil {
			slog.Warn("zone feed default subscribe failed", "error", err)
			return
		}
		subs[0] = unsub

		// Keep-alive ping
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-ctx.Done():
					return
				}
			}
		}()

		// Read client messages for subscribe/unsubscribe
		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				_ = writeJSON(map[string]string{"error": "invalid JSON"})
				continue
			}
			if m.ZoneID < 0 {
				_ = writeJSON(map[string]string{"error": "invalid zone_id"})
				continue
			}
			scope := "all"
			if m.ZoneID != 0 {
				scope = strconv.FormatInt(m.ZoneID, 10)
			}

			switch m.Action {
			case "subscribe":
				if _, exists := subs[m.ZoneID]; exists {
					_ = writeJSON(map[string]string{"status": "already subscribed", "zone": scope})
					continue
				}
				unsub, err := subscribe(m.ZoneID)
				if err != nil {
					_ = writeJSON(map[string]string{"error": "subscribe failed: " + err.Error()})
					continue
				}
				subs[m.ZoneID] = unsub
				_ = writeJSON(map[string]string{"status": "subscribed", "zone": scope})

			case "unsubscribe":
				if unsub, exists := subs[m.ZoneID]; exists {
					unsub()
					delete(subs, m.ZoneID)
					_ = writeJSON(map[string]string{"status": "unsubscribed", "zone": scope})
				} else {
					_ = writeJSON(map[string]string{"error": "not subscribed to " + scope})
				}

			default:
				_ = writeJSON(map[string]string{"error": "unknown action: " + m.Action})
			}
		}

		// Cleanup
		for _, unsub := range subs {
			unsub()
		}
		slog.Info("zone feed client disconnected", "remote", remoteAddr)
	}
}
