package http

import (
	"github.com/nats-io/nats.go"

	natsadapter "github.com/samirrijal/zonedesk/internal/adapters/nats"
	"github.com/samirrijal/zonedesk/internal/adapters/postgres"
	"github.com/samirrijal/zonedesk/internal/adapters/valkey"
	"github.com/samirrijal/zonedesk/internal/core/usecases"
	"github.com/samirrijal/zonedesk/internal/pkg/config"
)

// Dependencies holds all services needed by HTTP handlers.
// Everything except Zones may be nil.
type Dependencies struct {
	Zones       *usecases.ZoneService
	Editor      config.EditorConfig
	RateLimit   int
	OpenAPIPath string
	NATS        *nats.Conn
	Subscriber  *natsadapter.Subscriber
	DB          *postgres.DB
	Cache       *valkey.Cache
}
