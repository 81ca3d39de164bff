package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/zonedesk/internal/core/domain"
)

// ZoneSubjectPrefix is the subject root for zone lifecycle events,
// e.g. zones.updated.42.
const ZoneSubjectPrefix = "zones."

// ZoneSubjectAll matches every zone event.
const ZoneSubjectAll = ZoneSubjectPrefix + ">"

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	cfg := nats.StreamConfig{
		Name:      "ZONES",
		Subjects:  []string{ZoneSubjectAll},
		Retention: nats.LimitsPolicy,
		MaxAge:    7 * 24 * time.Hour,
		Storage:   nats.FileStorage,
	}
	if _, err := js.AddStream(&cfg); err != nil {
		// Stream may already exist, try update
		if _, err := js.UpdateStream(&cfg); err != nil {
			return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

// PublishZoneEvent publishes to zones.<type>.<id>.
func (p *Publisher) PublishZoneEvent(ctx context.Context, event domain.ZoneEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(ZoneSubject(event), data, nats.Context(ctx))
	return err
}

// ZoneSubject returns the subject an event is published on.
func ZoneSubject(event domain.ZoneEvent) string {
	return ZoneSubjectPrefix + string(event.Type) + "." + strconv.FormatInt(event.ZoneID, 10)
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("zonedesk"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
