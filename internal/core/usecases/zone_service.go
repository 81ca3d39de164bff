package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/samirrijal/zonedesk/internal/core/domain"
	"github.com/samirrijal/zonedesk/internal/core/editor"
	"github.com/samirrijal/zonedesk/internal/core/ports"
	"github.com/samirrijal/zonedesk/internal/pkg/metrics"
	"github.com/samirrijal/zonedesk/internal/pkg/telemetry"
)

const (
	zoneListCacheKey = "zones:list"
	zoneListTTL      = 60
	zoneByIDTTL      = 300
)

// ZoneService handles zone persistence behind the submission gate.
type ZoneService struct {
	zones       ports.ZoneRepository
	cache       ports.CacheService
	events      ports.EventPublisher
	now         func() time.Time
	maxVertices int
}

// NewZoneService creates a new ZoneService. cache and events may be nil.
func NewZoneService(zones ports.ZoneRepository, cache ports.CacheService, events ports.EventPublisher) *ZoneService {
	return &ZoneService{zones: zones, cache: cache, events: events, now: time.Now}
}

// SetVertexLimit caps the number of points a written zone may have.
// Zero or less disables the cap.
func (s *ZoneService) SetVertexLimit(n int) {
	s.maxVertices = n
}

// validate is the gate every write goes through.
func (s *ZoneService) validate(payload domain.ZonePayload) (domain.ZonePayload, error) {
	payload, err := editor.ValidatePayload(payload)
	if err != nil {
		return payload, err
	}
	if s.maxVertices > 0 && len(payload.Points) > s.maxVertices {
		return payload, domain.NewVertexLimitError(s.maxVertices)
	}
	return payload, nil
}

// List returns all zones ordered by name, with metrics attached.
func (s *ZoneService) List(ctx context.Context) ([]domain.Zone, error) {
	var zones []domain.Zone
	if s.cacheGet(ctx, "list", zoneListCacheKey, &zones) {
		return zones, nil
	}

	zones, err := s.zones.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list zones: %w", err)
	}
	for i := range zones {
		withMetrics(&zones[i])
	}

	s.cacheSet(ctx, zoneListCacheKey, zones, zoneListTTL)
	return zones, nil
}

// GetByID returns a single zone with metrics attached.
func (s *ZoneService) GetByID(ctx context.Context, id int64) (*domain.Zone, error) {
	key := zoneCacheKey(id)
	var cached domain.Zone
	if s.cacheGet(ctx, "get", key, &cached) {
		return &cached, nil
	}

	zone, err := s.zones.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	withMetrics(zone)

	s.cacheSet(ctx, key, zone, zoneByIDTTL)
	return zone, nil
}

// Metrics returns the computed area and perimeter of a stored zone.
func (s *ZoneService) Metrics(ctx context.Context, id int64) (domain.Metrics, error) {
	zone, err := s.GetByID(ctx, id)
	if err != nil {
		return domain.Metrics{}, err
	}
	return editor.ComputeMetrics(zone.Points), nil
}

// Create validates payload and stores a new zone.
func (s *ZoneService) Create(ctx context.Context, payload domain.ZonePayload) (*domain.Zone, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "ZoneService.Create",
		trace.WithAttributes(attribute.String(telemetry.AttrOperation, "create")))
	defer span.End()

	payload, err := s.validate(payload)
	if err != nil {
		return nil, s.fail(span, "create", err)
	}
	span.SetAttributes(attribute.Int(telemetry.AttrZoneVertices, len(payload.Points)))

	zone, err := s.zones.Create(ctx, payload)
	if err != nil {
		if errors.Is(err, domain.ErrZoneConflict) {
			err = &domain.ConflictError{Detail: "Zone with this name already exists"}
		}
		return nil, s.fail(span, "create", err)
	}
	withMetrics(zone)
	span.SetAttributes(attribute.Int64(telemetry.AttrZoneID, zone.ID))

	s.committed(ctx, "create", domain.ZoneCreated, zone.ID, zone.Name, len(zone.Points))
	return zone, nil
}

// Update validates payload and replaces the stored zone id.
func (s *ZoneService) Update(ctx context.Context, id int64, payload domain.ZonePayload) (*domain.Zone, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "ZoneService.Update",
		trace.WithAttributes(
			attribute.String(telemetry.AttrOperation, "update"),
			attribute.Int64(telemetry.AttrZoneID, id),
		))
	defer span.End()

	payload, err := s.validate(payload)
	if err != nil {
		return nil, s.fail(span, "update", err)
	}
	span.SetAttributes(attribute.Int(telemetry.AttrZoneVertices, len(payload.Points)))

	zone, err := s.zones.Update(ctx, id, payload)
	if err != nil {
		if errors.Is(err, domain.ErrZoneConflict) {
			err = &domain.ConflictError{Detail: fmt.Sprintf("Zone with name '%s' already exists", payload.Name)}
		}
		return nil, s.fail(span, "update", err)
	}
	withMetrics(zone)

	s.committed(ctx, "update", domain.ZoneUpdated, zone.ID, zone.Name, len(zone.Points))
	return zone, nil
}

// Save creates the zone when id is nil and updates it otherwise.
func (s *ZoneService) Save(ctx context.Context, id *int64, payload domain.ZonePayload) (*domain.Zone, error) {
	if id == nil {
		return s.Create(ctx, payload)
	}
	return s.Update(ctx, *id, payload)
}

// Delete removes a zone.
func (s *ZoneService) Delete(ctx context.Context, id int64) error {
	ctx, span := telemetry.Tracer().Start(ctx, "ZoneService.Delete",
		trace.WithAttributes(
			attribute.String(telemetry.AttrOperation, "delete"),
			attribute.Int64(telemetry.AttrZoneID, id),
		))
	defer span.End()

	if err := s.zones.Delete(ctx, id); err != nil {
		return s.fail(span, "delete", err)
	}

	s.committed(ctx, "delete", domain.ZoneDeleted, id, "", 0)
	return nil
}

func (s *ZoneService) fail(span trace.Span, op string, err error) error {
	result := "error"
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		result = "invalid"
	case errors.Is(err, domain.ErrZoneConflict):
		result = "conflict"
	case errors.Is(err, domain.ErrZoneNotFound):
		result = "not_found"
	}
	metrics.ZoneWrites.WithLabelValues(op, result).Inc()

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// committed runs the post-commit side effects. None of them can fail the write.
func (s *ZoneService) committed(ctx context.Context, op string, typ domain.ZoneEventType, id int64, name string, vertices int) {
	metrics.ZoneWrites.WithLabelValues(op, "ok").Inc()
	if vertices > 0 {
		metrics.ZoneVertices.Observe(float64(vertices))
	}

	s.invalidate(ctx, id)

	if s.events == nil {
		return
	}
	event := domain.ZoneEvent{Type: typ, ZoneID: id, Name: name, Time: s.now().UTC(), Origin: originFrom(ctx)}
	if err := s.events.PublishZoneEvent(ctx, event); err != nil {
		slog.WarnContext(ctx, "publish zone event failed", "zone_id", id, "type", typ, "error", err)
	}
}

func (s *ZoneService) invalidate(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Delete(ctx, zoneListCacheKey)
	_ = s.cache.Delete(ctx, zoneCacheKey(id))
}

func (s *ZoneService) cacheGet(ctx context.Context, op, key string, dst any) bool {
	if s.cache == nil {
		return false
	}
	data, err := s.cache.Get(ctx, key)
	if err == nil && json.Unmarshal(data, dst) == nil {
		metrics.CacheHits.WithLabelValues(op).Inc()
		return true
	}
	metrics.CacheMisses.WithLabelValues(op).Inc()
	return false
}

func (s *ZoneService) cacheSet(ctx context.Context, key string, v any, ttl int) {
	if s.cache == nil {
		return
	}
	if data, err := json.Marshal(v); err == nil {
		_ = s.cache.Set(ctx, key, data, ttl)
	}
}

func withMetrics(z *domain.Zone) {
	m := editor.ComputeMetrics(z.Points)
	z.Metrics = &m
}

func zoneCacheKey(id int64) string {
	return "zones:id:" + strconv.FormatInt(id, 10)
}
