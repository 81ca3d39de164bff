package http

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/zonedesk/internal/core/domain"
	"github.com/samirrijal/zonedesk/internal/core/editor"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	vertexType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Vertex",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lng": &graphql.Field{Type: graphql.Float},
		},
	})

	vertexInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "VertexInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"lat": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Float)},
			"lng": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Float)},
		},
	})

	metricsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ZoneMetrics",
		Fields: graphql.Fields{
			"area_sq_meters":   &graphql.Field{Type: graphql.Float},
			"perimeter_meters": &graphql.Field{Type: graphql.Float},
			"area":             &graphql.Field{Type: graphql.String},
			"perimeter":        &graphql.Field{Type: graphql.String},
		},
	})

	zoneType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Zone",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.Int},
			"name":        &graphql.Field{Type: graphql.String},
			"description": &graphql.Field{Type: graphql.String},
			"points":      &graphql.Field{Type: graphql.NewList(vertexType)},
			"metrics":     &graphql.Field{Type: metricsType},
			"created_at":  &graphql.Field{Type: graphql.String},
			"updated_at":  &graphql.Field{Type: graphql.String},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"zones": &graphql.Field{
				Type:        graphql.NewList(zoneType),
				Description: "List all zones ordered by name",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					zones, err := deps.Zones.List(p.Context)
					if err != nil {
						return nil, err
					}
					result := make([]map[string]interface{}, len(zones))
					for i, z := range zones {
						result[i] = zoneToMap(&z)
					}
					return result, nil
				},
			},
			"zone": &graphql.Field{
				Type:        zoneType,
				Description: "Get a zone by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id := p.Args["id"].(int)
					zone, err := deps.Zones.GetByID(p.Context, int64(id))
					if errors.Is(err, domain.ErrZoneNotFound) {
						return nil, nil
					}
					if err != nil {
						return nil, err
					}
					return zoneToMap(zone), nil
				},
			},
			"zoneMetrics": &graphql.Field{
				Type:        metricsType,
				Description: "Area and perimeter of an unsaved outline",
				Args: graphql.FieldConfigArgument{
					"points": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(vertexInput)))},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					points, err := verticesArg(p.Args["points"])
					if err != nil {
						return nil, err
					}
					if err := checkVertexLimit(deps, len(points)); err != nil {
						return nil, err
					}
					return metricsToMap(editor.ComputeMetrics(points), editor.Display(points)), nil
				},
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"saveZone": &graphql.Field{
				Type:        zoneType,
				Description: "Create a zone, or replace it when id is given",
				Args: graphql.FieldConfigArgument{
					"id":          &graphql.ArgumentConfig{Type: graphql.Int},
					"name":        &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"description": &graphql.ArgumentConfig{Type: graphql.String},
					"points":      &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(vertexInput)))},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					points, err := verticesArg(p.Args["points"])
					if err != nil {
						return nil, err
					}
					payload := domain.ZonePayload{Name: p.Args["name"].(string), Points: points}
					if d, ok := p.Args["description"].(string); ok {
						payload.Description = &d
					}
					var id *int64
					if raw, ok := p.Args["id"].(int); ok {
						v := int64(raw)
						id = &v
					}
					zone, err := deps.Zones.Save(p.Context, id, payload)
					if err != nil {
						return nil, err
					}
					return zoneToMap(zone), nil
				},
			},
			"deleteZone": &graphql.Field{
				Type:        graphql.Boolean,
				Description: "Delete a zone",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id := p.Args["id"].(int)
					if err := deps.Zones.Delete(p.Context, int64(id)); err != nil {
						return false, err
					}
					return true, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}

// Convert domain.Zone to a map for GraphQL
func zoneToMap(z *domain.Zone) map[string]interface{} {
	points := make([]map[string]interface{}, len(z.Points))
	for i, v := range z.Points {
		points[i] = map[string]interface{}{"lat": v.Lat, "lng": v.Lng}
	}

	m := editor.ComputeMetrics(z.Points)
	if z.Metrics != nil {
		m = *z.Metrics
	}

	out := map[string]interface{}{
		"id":         z.ID,
		"name":       z.Name,
		"points":     points,
		"metrics":    metricsToMap(m, editor.Format(m)),
		"created_at": z.CreatedAt.Format(time.RFC3339),
		"updated_at": z.UpdatedAt.Format(time.RFC3339),
	}
	if z.Description != nil {
		out["description"] = *z.Description
	}
	return out
}

func metricsToMap(m domain.Metrics, f domain.FormattedMetrics) map[string]interface{} {
	return map[string]interface{}{
		"area_sq_meters":   m.AreaSqMeters,
		"perimeter_meters": m.PerimeterMeters,
		"area":             f.Area,
		"perimeter":        f.Perimeter,
	}
}

func verticesArg(arg interface{}) ([]domain.Vertex, error) {
	list, _ := arg.([]interface{})
	out := make([]domain.Vertex, 0, len(list))
	for i, item := range list {
		m, _ := item.(map[string]interface{})
		lat, okLat := m["lat"].(float64)
		lng, okLng := m["lng"].(float64)
		v := domain.Vertex{Lat: lat, Lng: lng}
		if !okLat || !okLng || !v.Valid() {
			return nil, fmt.Errorf("points[%d] is not a valid coordinate", i)
		}
		out = append(out, v)
	}
	return out, nil
}
