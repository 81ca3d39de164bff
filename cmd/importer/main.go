package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"sync/atomic"

	geojsonadapter "github.com/samirrijal/zonedesk/internal/adapters/geojson"
	natsadapter "github.com/samirrijal/zonedesk/internal/adapters/nats"
	"github.com/samirrijal/zonedesk/internal/adapters/postgres"
	"github.com/samirrijal/zonedesk/internal/core/domain"
	"github.com/samirrijal/zonedesk/internal/core/ports"
	"github.com/samirrijal/zonedesk/internal/core/usecases"
	"github.com/samirrijal/zonedesk/internal/pkg/config"
	"github.com/samirrijal/zonedesk/internal/pkg/logging"
)

const defaultWorkers = 4

// zoneCreator is the slice of the zone service the importer needs.
type zoneCreator interface {
	Create(ctx context.Context, payload domain.ZonePayload) (*domain.Zone, error)
}

// Summary counts the outcome of an import run.
type Summary struct {
	Created  int64
	Conflict int64
	Invalid  int64
	Failed   int64
}

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: importer <zones.geojson> [workers]")
	}

	cfg, err := config.Load("zonedesk-importer")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup("zonedesk-importer", cfg.Log.Level, cfg.Log.Format)

	workers := defaultWorkers
	if len(os.Args) > 2 {
		if n, err := strconv.Atoi(os.Args[2]); err == nil && n > 0 {
			workers = n
		}
	}

	data, err := os.ReadFile(os.Args[1])
	if err != nil {
		log.Fatalf("read %s: %v", os.Args[1], err)
	}
	features, err := geojsonadapter.Decode(data)
	if err != nil {
		log.Fatalf("parse %s: %v", os.Args[1], err)
	}

	ctx := context.Background()

	db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	// Imported zones are announced like any other write when NATS is up.
	var events ports.EventPublisher
	if pub, err := natsadapter.NewPublisher(cfg.NATS.URL); err != nil {
		slog.Warn("nats unavailable, importing without events", "error", err)
	} else {
		defer pub.Close()
		events = pub
	}

	svc := usecases.NewZoneService(postgres.NewZoneRepo(db), nil, events)
	svc.SetVertexLimit(cfg.Editor.MaxVertices)

	slog.Info("importing zones", "file", os.Args[1], "features", len(features), "workers", workers)
	sum := importFeatures(ctx, svc, features, workers)
	slog.Info("import complete",
		"created", sum.Created,
		"conflict", sum.Conflict,
		"invalid", sum.Invalid,
		"failed", sum.Failed,
	)

	if sum.Failed > 0 {
		os.Exit(1)
	}
}

// importFeatures creates every decodable feature with at most workers
// concurrent writes. Per-feature problems are logged and counted, never fatal.
func importFeatures(ctx context.Context, zones zoneCreator, features []geojsonadapter.Decoded, workers int) Summary {
	if workers <= 0 {
		workers = 1
	}

	var (
		sum Summary
		wg  sync.WaitGroup
		sem = make(chan struct{}, workers)
	)

	for _, f := range features {
		if f.Err != nil {
			slog.Warn("skipping feature", "index", f.Index, "error", f.Err)
			atomic.AddInt64(&sum.Invalid, 1)
			continue
		}

		wg.Add(1)
		go func(f geojsonadapter.Decoded) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			zone, err := zones.Create(ctx, f.Payload)
			var verr *domain.ValidationError
			switch {
			case err == nil:
				slog.Info("zone imported", "index", f.Index, "zone_id", zone.ID, "name", zone.Name)
				atomic.AddInt64(&sum.Created, 1)
			case errors.As(err, &verr):
				slog.Warn("zone rejected", "index", f.Index, "name", f.Payload.Name, "code", verr.Code)
				atomic.AddInt64(&sum.Invalid, 1)
			case errors.Is(err, domain.ErrZoneConflict):
				slog.Warn("zone already exists", "index", f.Index, "name", f.Payload.Name)
				atomic.AddInt64(&sum.Conflict, 1)
			default:
				slog.Error("zone import failed", "index", f.Index, "name", f.Payload.Name, "error", err)
				atomic.AddInt64(&sum.Failed, 1)
			}
		}(f)
	}

	wg.Wait()
	return sum
}
