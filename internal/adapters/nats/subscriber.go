package natsadapter

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/zonedesk/internal/core/domain"
)

// Subscriber delivers zone events to live connections (dashboards, open editors).
// Subscriptions are ephemeral core-NATS subscriptions: a client that is not
// connected has nothing to catch up on.
type Subscriber struct {
	conn *nats.Conn
}

// NewSubscriber wraps an existing connection.
func NewSubscriber(conn *nats.Conn) *Subscriber {
	return &Subscriber{conn: conn}
}

// Connected reports whether the underlying connection is up.
func (s *Subscriber) Connected() bool {
	return s.conn != nil && s.conn.IsConnected()
}

// SubscribeAll delivers every zone event. The returned func unsubscribes.
func (s *Subscriber) SubscribeAll(ctx context.Context, handler func(ctx context.Context, event domain.ZoneEvent)) (func(), error) {
	return s.subscribe(ctx, ZoneSubjectAll, handler)
}

// SubscribeZone delivers events about a single zone.
func (s *Subscriber) SubscribeZone(ctx context.Context, zoneID int64, handler func(ctx context.Context, event domain.ZoneEvent)) (func(), error) {
	return s.subscribe(ctx, ZoneSubjectPrefix+"*."+strconv.FormatInt(zoneID, 10), handler)
}

func (s *Subscriber) subscribe(ctx context.Context, subject string, handler func(ctx context.Context, event domain.ZoneEvent)) (func(), error) {
	sub, err := s.conn.Subscribe(subject, func(msg *nats.Msg) {
		var event domain.ZoneEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			slog.Warn("drop malformed zone event", "subject", msg.Subject, "error", err)
			return
		}
		handler(ctx, event)
	})
	if err != nil {
		return nil, err
	}
	return func() { _ = sub.Unsubscribe() }, nil
}
