package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/samirrijal/zonedesk/internal/adapters/http"
	natsadapter "github.com/samirrijal/zonedesk/internal/adapters/nats"
	"github.com/samirrijal/zonedesk/internal/adapters/postgres"
	"github.com/samirrijal/zonedesk/internal/adapters/valkey"
	"github.com/samirrijal/zonedesk/internal/core/ports"
	"github.com/samirrijal/zonedesk/internal/core/usecases"
	"github.com/samirrijal/zonedesk/internal/pkg/config"
	"github.com/samirrijal/zonedesk/internal/pkg/logging"
	"github.com/samirrijal/zonedesk/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("zonedesk-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup("zonedesk-api", cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	go db.ReportPoolStats(ctx, 15*time.Second)

	// Cache and events are optional. Typed nils must not reach the
	// service as non-nil interfaces.
	var cache ports.CacheService
	vk, err := valkey.New(cfg.Valkey.Addr, cfg.Valkey.KeyPrefix)
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		defer vk.Close()
		cache = vk
	}

	var events ports.EventPublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		defer pub.Close()
		events = pub
	}

	// Raw NATS connection for the websocket relays
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	var sub *natsadapter.Subscriber
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
		natsConn = nil
	} else {
		defer natsConn.Close()
		sub = natsadapter.NewSubscriber(natsConn)
	}

	zones := usecases.NewZoneService(postgres.NewZoneRepo(db), cache, events)
	zones.SetVertexLimit(cfg.Editor.MaxVertices)

	deps := &http.Dependencies{
		Zones:      zones,
		Editor:     cfg.Editor,
		RateLimit:  cfg.Server.RateLimit,
		NATS:       natsConn,
		Subscriber: sub,
		DB:         db,
		Cache:      vk,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "ZoneDesk API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
