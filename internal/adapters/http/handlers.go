package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	geojsonadapter "github.com/samirrijal/zonedesk/internal/adapters/geojson"
	"github.com/samirrijal/zonedesk/internal/core/domain"
	"github.com/samirrijal/zonedesk/internal/core/editor"
)

// MetricsResponse is a metrics pair plus its display strings.
type MetricsResponse struct {
	domain.Metrics
	Formatted domain.FormattedMetrics `json:"formatted"`
}

// geometryRequest is the body of POST /v1/geometry/metrics.
type geometryRequest struct {
	Points []domain.Vertex `json:"points"`
}

// ListZonesHandler returns all zones ordered by name.
func ListZonesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		zones, err := deps.Zones.List(c.UserContext())
		if err != nil {
			return writeDomainError(c, err, "failed to list zones")
		}

		offset, limit := pageParams(c)
		page, pg := paginate(zones, offset, limit)
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: page, Pagination: pg})
	}
}

// GetZoneHandler returns a single zone by ID.
func GetZoneHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := zoneID(c)
		if !ok {
			return errBadRequest(c, "invalid zone id")
		}
		zone, err := deps.Zones.GetByID(c.UserContext(), id)
		if err != nil {
			return writeDomainError(c, err, "failed to load zone")
		}
		return c.JSON(zone)
	}
}

// CreateZoneHandler stores a new zone.
func CreateZoneHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var payload domain.ZonePayload
		if err := c.BodyParser(&payload); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		zone, err := deps.Zones.Create(c.UserContext(), payload)
		if err != nil {
			return writeDomainError(c, err, "failed to save zone")
		}
		c.Location("/v1/zones/" + strconv.FormatInt(zone.ID, 10))
		return c.Status(fiber.StatusCreated).JSON(zone)
	}
}

// UpdateZoneHandler replaces the name, description and outline of a zone.
func UpdateZoneHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := zoneID(c)
		if !ok {
			return errBadRequest(c, "invalid zone id")
		}
		var payload domain.ZonePayload
		if err := c.BodyParser(&payload); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		zone, err := deps.Zones.Update(c.UserContext(), id, payload)
		if err != nil {
			return writeDomainError(c, err, "failed to save zone")
		}
		return c.JSON(zone)
	}
}

// DeleteZoneHandler removes a zone.
func DeleteZoneHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := zoneID(c)
		if !ok {
			return errBadRequest(c, "invalid zone id")
		}
		if err := deps.Zones.Delete(c.UserContext(), id); err != nil {
			return writeDomainError(c, err, "failed to delete zone")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ZoneMetricsHandler returns the area and perimeter of a stored zone.
func ZoneMetricsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := zoneID(c)
		if !ok {
			return errBadRequest(c, "invalid zone id")
		}
		m, err := deps.Zones.Metrics(c.UserContext(), id)
		if err != nil {
			return writeDomainError(c, err, "failed to load zone")
		}
		return c.JSON(MetricsResponse{Metrics: m, Formatted: editor.Format(m)})
	}
}

// GeometryMetricsHandler computes metrics for an ad-hoc outline without
// storing anything. Fewer than two points yield zeros and placeholders.
func GeometryMetricsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req geometryRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if err := checkVertexLimit(deps, len(req.Points)); err != nil {
			return errBadRequest(c, err.Error())
		}
		for _, v := range req.Points {
			if !v.Valid() {
				return errBadRequest(c, "points must be valid coordinates")
			}
		}
		return c.JSON(MetricsResponse{
			Metrics:   editor.ComputeMetrics(req.Points),
			Formatted: editor.Display(req.Points),
		})
	}
}

// ZonesGeoJSONHandler exports every zone as a GeoJSON FeatureCollection.
func ZonesGeoJSONHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		zones, err := deps.Zones.List(c.UserContext())
		if err != nil {
			return writeDomainError(c, err, "failed to list zones")
		}
		data, err := geojsonadapter.Encode(zones)
		if err != nil {
			return errInternal(c, "failed to encode zones")
		}
		c.Set(fiber.HeaderContentType, "application/geo+json")
		return c.Send(data)
	}
}

// checkVertexLimit applies editor.max_vertices to outlines that never reach
// the zone service, which enforces it for writes.
func checkVertexLimit(deps *Dependencies, n int) error {
	if deps.Editor.MaxVertices > 0 && n > deps.Editor.MaxVertices {
		return domain.NewVertexLimitError(deps.Editor.MaxVertices)
	}
	return nil
}

func zoneID(c *fiber.Ctx) (int64, bool) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
