package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	handler "github.com/samirrijal/zonedesk/internal/adapters/http"
	"github.com/samirrijal/zonedesk/internal/core/domain"
	"github.com/samirrijal/zonedesk/internal/core/usecases"
)

// ---- Mock repository ----

type mockZoneRepo struct {
	listFn    func(ctx context.Context) ([]domain.Zone, error)
	getByIDFn func(ctx context.Context, id int64) (*domain.Zone, error)
	createFn  func(ctx context.Context, p domain.ZonePayload) (*domain.Zone, error)
	updateFn  func(ctx context.Context, id int64, p domain.ZonePayload) (*domain.Zone, error)
	deleteFn  func(ctx context.Context, id int64) error
}

func (m *mockZoneRepo) List(ctx context.Context) ([]domain.Zone, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}
func (m *mockZoneRepo) GetByID(ctx context.Context, id int64) (*domain.Zone, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrZoneNotFound
}
func (m *mockZoneRepo) Create(ctx context.Context, p domain.ZonePayload) (*domain.Zone, error) {
	if m.createFn != nil {
		return m.createFn(ctx, p)
	}
	return &domain.Zone{ID: 1, Name: p.Name, Description: p.Description, Points: p.Points}, nil
}
func (m *mockZoneRepo) Update(ctx context.Context, id int64, p domain.ZonePayload) (*domain.Zone, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, p)
	}
	return &domain.Zone{ID: id, Name: p.Name, Description: p.Description, Points: p.Points}, nil
}
func (m *mockZoneRepo) Delete(ctx context.Context, id int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

// ---- Test helpers ----

func setupApp(deps *handler.Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, deps)
	return app
}

func makeDeps(opts ...func(*handler.Dependencies)) *handler.Dependencies {
	d := &handler.Dependencies{
		Zones: usecases.NewZoneService(&mockZoneRepo{}, nil, nil),
	}
	d.Editor.MaxVertices = 500
	for _, o := range opts {
		o(d)
	}
	d.Zones.SetVertexLimit(d.Editor.MaxVertices)
	return d
}

func withRepo(repo *mockZoneRepo) func(*handler.Dependencies) {
	return func(d *handler.Dependencies) {
		d.Zones = usecases.NewZoneService(repo, nil, nil)
	}
}

func readBody(t *testing.T, body io.Reader) []byte {
	t.Helper()
	b, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return b
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) (int, []byte) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	return resp.StatusCode, readBody(t, resp.Body)
}

func decodeAPIError(t *testing.T, body []byte) handler.APIError {
	t.Helper()
	var apiErr handler.APIError
	if err := json.Unmarshal(body, &apiErr); err != nil {
		t.Fatalf("decode error body %q: %v", body, err)
	}
	return apiErr
}

func square() []domain.Vertex {
	return []domain.Vertex{
		{Lat: 0, Lng: 0},
		{Lat: 0, Lng: 0.001},
		{Lat: 0.001, Lng: 0.001},
		{Lat: 0.001, Lng: 0},
	}
}

const squareJSON = `[{"lat":0,"lng":0},{"lat":0,"lng":0.001},{"lat":0.001,"lng":0.001},{"lat":0.001,"lng":0}]`

// ---- List ----

func TestListZones_Success(t *testing.T) {
	app := setupApp(makeDeps(withRepo(&mockZoneRepo{
		listFn: func(ctx context.Context) ([]domain.Zone, error) {
			return []domain.Zone{
				{ID: 2, Name: "Abando", Points: square()},
				{ID: 1, Name: "Deusto", Points: square()},
			}, nil
		},
	})))

	status, body := doJSON(t, app, "GET", "/v1/zones", "")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}

	var result struct {
		Data       []domain.Zone `json:"data"`
		Pagination struct {
			Total int `json:"total"`
		} `json:"pagination"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatal(err)
	}
	if result.Pagination.Total != 2 || len(result.Data) != 2 {
		t.Fatalf("expected 2 zones, got total=%d len=%d", result.Pagination.Total, len(result.Data))
	}
	if result.Data[0].Name != "Abando" {
		t.Errorf("expected repository order to be kept, got %q first", result.Data[0].Name)
	}
	if result.Data[0].Metrics == nil || result.Data[0].Metrics.AreaSqMeters <= 0 {
		t.Errorf("expected metrics on listed zones, got %+v", result.Data[0].Metrics)
	}
}

func TestListZones_Pagination(t *testing.T) {
	zones := make([]domain.Zone, 5)
	for i := range zones {
		zones[i] = domain.Zone{ID: int64(i + 1), Name: fmt.Sprintf("Zone %d", i), Points: square()}
	}
	app := setupApp(makeDeps(withRepo(&mockZoneRepo{
		listFn: func(ctx context.Context) ([]domain.Zone, error) { return zones, nil },
	})))

	req := httptest.NewRequest("GET", "/v1/zones?offset=2&limit=2", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if link := resp.Header.Get("Link"); !strings.Contains(link, `rel="next"`) || !strings.Contains(link, `rel="prev"`) {
		t.Errorf("expected prev and next links, got %q", link)
	}

	var result struct {
		Data       []domain.Zone `json:"data"`
		Pagination struct {
			Offset int `json:"offset"`
			Total  int `json:"total"`
		} `json:"pagination"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	if result.Pagination.Total != 5 || len(result.Data) != 2 || result.Pagination.Offset != 2 {
		t.Errorf("unexpected page: %+v (%d items)", result.Pagination, len(result.Data))
	}
	if result.Data[0].Name != "Zone 2" {
		t.Errorf("expected Zone 2 first, got %q", result.Data[0].Name)
	}
}

func TestListZones_PastTheEnd(t *testing.T) {
	app := setupApp(makeDeps())

	status, body := doJSON(t, app, "GET", "/v1/zones?offset=10", "")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	if !strings.Contains(string(body), `"data":[]`) {
		t.Errorf("expected empty data array, got %s", body)
	}
}

// ---- Get ----

func TestGetZone_Success(t *testing.T) {
	app := setupApp(makeDeps(withRepo(&mockZoneRepo{
		getByIDFn: func(ctx context.Context, id int64) (*domain.Zone, error) {
			return &domain.Zone{ID: id, Name: "Abando", Points: square()}, nil
		},
	})))

	status, body := doJSON(t, app, "GET", "/v1/zones/7", "")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	var zone domain.Zone
	json.Unmarshal(body, &zone)
	if zone.ID != 7 || zone.Name != "Abando" {
		t.Errorf("unexpected zone %+v", zone)
	}
	if zone.Description != nil {
		t.Errorf("expected null description, got %q", *zone.Description)
	}
}

func TestGetZone_NotFound(t *testing.T) {
	app := setupApp(makeDeps())

	status, body := doJSON(t, app, "GET", "/v1/zones/99", "")
	if status != 404 {
		t.Fatalf("expected 404, got %d", status)
	}
	apiErr := decodeAPIError(t, body)
	if apiErr.Code != "not_found" || apiErr.Message != "Zone not found" {
		t.Errorf("unexpected error %+v", apiErr)
	}
	if apiErr.RequestID == "" {
		t.Error("expected request id in error body")
	}
}

func TestGetZone_InvalidID(t *testing.T) {
	app := setupApp(makeDeps())

	for _, path := range []string{"/v1/zones/abc", "/v1/zones/0", "/v1/zones/-3"} {
		status, _ := doJSON(t, app, "GET", path, "")
		if status != 400 {
			t.Errorf("%s: expected 400, got %d", path, status)
		}
	}
}

// ---- Create ----

func TestCreateZone_Created(t *testing.T) {
	var got domain.ZonePayload
	app := setupApp(makeDeps(withRepo(&mockZoneRepo{
		createFn: func(ctx context.Context, p domain.ZonePayload) (*domain.Zone, error) {
			got = p
			return &domain.Zone{ID: 12, Name: p.Name, Description: p.Description, Points: p.Points}, nil
		},
	})))

	req := httptest.NewRequest("POST", "/v1/zones",
		strings.NewReader(`{"name":"  Abando  ","description":"   ","points":`+squareJSON+`}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 201 {
		t.Fatalf("expected 201, got %d: %s", resp.StatusCode, readBody(t, resp.Body))
	}
	if loc := resp.Header.Get("Location"); loc != "/v1/zones/12" {
		t.Errorf("expected Location /v1/zones/12, got %q", loc)
	}
	if got.Name != "Abando" {
		t.Errorf("expected trimmed name, got %q", got.Name)
	}
	if got.Description != nil {
		t.Errorf("expected blank description to be dropped, got %q", *got.Description)
	}
	if len(got.Points) != 4 {
		t.Errorf("expected 4 points, got %d", len(got.Points))
	}
}

func TestCreateZone_NameCheckedBeforePoints(t *testing.T) {
	app := setupApp(makeDeps())

	status, body := doJSON(t, app, "POST", "/v1/zones", `{"name":" ","points":[{"lat":1,"lng":1}]}`)
	if status != 422 {
		t.Fatalf("expected 422, got %d", status)
	}
	if apiErr := decodeAPIError(t, body); apiErr.Code != "empty_name" {
		t.Errorf("expected empty_name, got %q", apiErr.Code)
	}
}

func TestCreateZone_TooFewPoints(t *testing.T) {
	app := setupApp(makeDeps())

	status, body := doJSON(t, app, "POST", "/v1/zones", `{"name":"Abando","points":[{"lat":1,"lng":1},{"lat":2,"lng":2}]}`)
	if status != 422 {
		t.Fatalf("expected 422, got %d", status)
	}
	if apiErr := decodeAPIError(t, body); apiErr.Code != "insufficient_vertices" {
		t.Errorf("expected insufficient_vertices, got %q", apiErr.Code)
	}
}

func TestCreateZone_InvalidCoordinate(t *testing.T) {
	app := setupApp(makeDeps())

	status, body := doJSON(t, app, "POST", "/v1/zones",
		`{"name":"Abando","points":[{"lat":91,"lng":0},{"lat":0,"lng":1},{"lat":1,"lng":1}]}`)
	if status != 422 {
		t.Fatalf("expected 422, got %d", status)
	}
	if apiErr := decodeAPIError(t, body); apiErr.Code != "invalid_coordinate" {
		t.Errorf("expected invalid_coordinate, got %q", apiErr.Code)
	}
}

func TestCreateZone_Conflict(t *testing.T) {
	app := setupApp(makeDeps(withRepo(&mockZoneRepo{
		createFn: func(ctx context.Context, p domain.ZonePayload) (*domain.Zone, error) {
			return nil, fmt.Errorf("insert zone: %w", domain.ErrZoneConflict)
		},
	})))

	status, body := doJSON(t, app, "POST", "/v1/zones", `{"name":"Abando","points":`+squareJSON+`}`)
	if status != 409 {
		t.Fatalf("expected 409, got %d", status)
	}
	if apiErr := decodeAPIError(t, body); apiErr.Message != "Zone with this name already exists" {
		t.Errorf("unexpected message %q", apiErr.Message)
	}
}

func TestCreateZone_BadBody(t *testing.T) {
	app := setupApp(makeDeps())

	status, _ := doJSON(t, app, "POST", "/v1/zones", `{"name":`)
	if status != 400 {
		t.Fatalf("expected 400, got %d", status)
	}
}

func TestCreateZone_TooManyPoints(t *testing.T) {
	app := setupApp(makeDeps(func(d *handler.Dependencies) { d.Editor.MaxVertices = 3 }))

	status, body := doJSON(t, app, "POST", "/v1/zones", `{"name":"Abando","points":`+squareJSON+`}`)
	if status != 422 {
		t.Fatalf("expected 422, got %d", status)
	}
	apiErr := decodeAPIError(t, body)
	if apiErr.Code != "too_many_vertices" || apiErr.Message != "too many points (max 3)" {
		t.Errorf("unexpected error %+v", apiErr)
	}
}

func TestGeometryMetrics_TooManyPoints(t *testing.T) {
	app := setupApp(makeDeps(func(d *handler.Dependencies) { d.Editor.MaxVertices = 3 }))

	status, body := doJSON(t, app, "POST", "/v1/geometry/metrics", `{"points":`+squareJSON+`}`)
	if status != 400 {
		t.Fatalf("expected 400, got %d", status)
	}
	if apiErr := decodeAPIError(t, body); apiErr.Message != "too many points (max 3)" {
		t.Errorf("unexpected message %q", apiErr.Message)
	}
}

func TestCreateZone_RepositoryFailure(t *testing.T) {
	app := setupApp(makeDeps(withRepo(&mockZoneRepo{
		createFn: func(ctx context.Context, p domain.ZonePayload) (*domain.Zone, error) {
			return nil, fmt.Errorf("insert zone: connection refused")
		},
	})))

	status, body := doJSON(t, app, "POST", "/v1/zones", `{"name":"Abando","points":`+squareJSON+`}`)
	if status != 500 {
		t.Fatalf("expected 500, got %d", status)
	}
	if apiErr := decodeAPIError(t, body); apiErr.Message != "failed to save zone" {
		t.Errorf("expected generic message, got %q", apiErr.Message)
	}
}

// ---- Update / Delete ----

func TestUpdateZone_Conflict(t *testing.T) {
	app := setupApp(makeDeps(withRepo(&mockZoneRepo{
		updateFn: func(ctx context.Context, id int64, p domain.ZonePayload) (*domain.Zone, error) {
			return nil, domain.ErrZoneConflict
		},
	})))

	status, body := doJSON(t, app, "PUT", "/v1/zones/3", `{"name":"Deusto","points":`+squareJSON+`}`)
	if status != 409 {
		t.Fatalf("expected 409, got %d", status)
	}
	if apiErr := decodeAPIError(t, body); apiErr.Message != "Zone with name 'Deusto' already exists" {
		t.Errorf("unexpected message %q", apiErr.Message)
	}
}

func TestUpdateZone_NotFound(t *testing.T) {
	app := setupApp(makeDeps(withRepo(&mockZoneRepo{
		updateFn: func(ctx context.Context, id int64, p domain.ZonePayload) (*domain.Zone, error) {
			return nil, domain.ErrZoneNotFound
		},
	})))

	status, _ := doJSON(t, app, "PUT", "/v1/zones/3", `{"name":"Deusto","points":`+squareJSON+`}`)
	if status != 404 {
		t.Fatalf("expected 404, got %d", status)
	}
}

func TestUpdateZone_Success(t *testing.T) {
	app := setupApp(makeDeps())

	status, body := doJSON(t, app, "PUT", "/v1/zones/3", `{"name":"Deusto","description":"campus","points":`+squareJSON+`}`)
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	var zone domain.Zone
	json.Unmarshal(body, &zone)
	if zone.ID != 3 || zone.Description == nil || *zone.Description != "campus" {
		t.Errorf("unexpected zone %+v", zone)
	}
}

func TestDeleteZone(t *testing.T) {
	var deleted int64
	app := setupApp(makeDeps(withRepo(&mockZoneRepo{
		deleteFn: func(ctx context.Context, id int64) error {
			if id != 5 {
				return domain.ErrZoneNotFound
			}
			deleted = id
			return nil
		},
	})))

	status, body := doJSON(t, app, "DELETE", "/v1/zones/5", "")
	if status != 204 {
		t.Fatalf("expected 204, got %d", status)
	}
	if len(body) != 0 {
		t.Errorf("expected empty body, got %q", body)
	}
	if deleted != 5 {
		t.Errorf("expected zone 5 deleted, got %d", deleted)
	}

	status, _ = doJSON(t, app, "DELETE", "/v1/zones/6", "")
	if status != 404 {
		t.Fatalf("expected 404, got %d", status)
	}
}

// ---- Metrics ----

func TestZoneMetrics(t *testing.T) {
	app := setupApp(makeDeps(withRepo(&mockZoneRepo{
		getByIDFn: func(ctx context.Context, id int64) (*domain.Zone, error) {
			return &domain.Zone{ID: id, Name: "Abando", Points: square()}, nil
		},
	})))

	status, body := doJSON(t, app, "GET", "/v1/zones/4/metrics", "")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	var result handler.MetricsResponse
	json.Unmarshal(body, &result)
	if result.AreaSqMeters < 12000 || result.AreaSqMeters > 12500 {
		t.Errorf("expected ~12,392 m², got %f", result.AreaSqMeters)
	}
	if result.Formatted.Area != "1.24 ha" {
		t.Errorf("expected 1.24 ha, got %q", result.Formatted.Area)
	}
	if result.Formatted.Perimeter != "445 m" {
		t.Errorf("expected 445 m, got %q", result.Formatted.Perimeter)
	}
}

func TestGeometryMetrics_SinglePoint(t *testing.T) {
	app := setupApp(makeDeps())

	status, body := doJSON(t, app, "POST", "/v1/geometry/metrics", `{"points":[{"lat":43.26,"lng":-2.93}]}`)
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	var result handler.MetricsResponse
	json.Unmarshal(body, &result)
	if result.AreaSqMeters != 0 || result.PerimeterMeters != 0 {
		t.Errorf("expected zero metrics, got %+v", result.Metrics)
	}
	if result.Formatted.Area != "—" || result.Formatted.Perimeter != "—" {
		t.Errorf("expected placeholders, got %+v", result.Formatted)
	}
}

func TestGeometryMetrics_InvalidPoint(t *testing.T) {
	app := setupApp(makeDeps())

	status, _ := doJSON(t, app, "POST", "/v1/geometry/metrics", `{"points":[{"lat":0,"lng":0},{"lat":0,"lng":200}]}`)
	if status != 400 {
		t.Fatalf("expected 400, got %d", status)
	}
}

// ---- GeoJSON ----

func TestZonesGeoJSON(t *testing.T) {
	app := setupApp(makeDeps(withRepo(&mockZoneRepo{
		listFn: func(ctx context.Context) ([]domain.Zone, error) {
			return []domain.Zone{{ID: 1, Name: "Abando", Points: square()}}, nil
		},
	})))

	req := httptest.NewRequest("GET", "/v1/zones.geojson", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/geo+json" {
		t.Errorf("expected application/geo+json, got %q", ct)
	}

	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Geometry struct {
				Type        string        `json:"type"`
				Coordinates [][][]float64 `json:"coordinates"`
			} `json:"geometry"`
			Properties map[string]interface{} `json:"properties"`
		} `json:"features"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&fc); err != nil {
		t.Fatal(err)
	}
	if fc.Type != "FeatureCollection" || len(fc.Features) != 1 {
		t.Fatalf("unexpected collection %+v", fc)
	}
	ring := fc.Features[0].Geometry.Coordinates[0]
	if len(ring) != 5 {
		t.Errorf("expected closed ring of 5 positions, got %d", len(ring))
	}
	if fc.Features[0].Properties["name"] != "Abando" {
		t.Errorf("expected name property, got %v", fc.Features[0].Properties["name"])
	}
}

// ---- GraphQL ----

func TestGraphQL_Zones(t *testing.T) {
	app := setupApp(makeDeps(withRepo(&mockZoneRepo{
		listFn: func(ctx context.Context) ([]domain.Zone, error) {
			return []domain.Zone{{ID: 1, Name: "Abando", Points: square()}}, nil
		},
	})))

	status, body := doJSON(t, app, "POST", "/graphql", `{"query":"{ zones { id name points { lat lng } metrics { area perimeter } } }"}`)
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	var result struct {
		Data struct {
			Zones []struct {
				ID      int    `json:"id"`
				Name    string `json:"name"`
				Points  []domain.Vertex
				Metrics struct {
					Area string `json:"area"`
				} `json:"metrics"`
			} `json:"zones"`
		} `json:"data"`
		Errors []interface{} `json:"errors"`
	}
	json.Unmarshal(body, &result)
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Data.Zones) != 1 || result.Data.Zones[0].Name != "Abando" {
		t.Fatalf("unexpected zones %+v", result.Data.Zones)
	}
	if result.Data.Zones[0].Metrics.Area != "1.24 ha" {
		t.Errorf("expected 1.24 ha, got %q", result.Data.Zones[0].Metrics.Area)
	}
}

func TestGraphQL_ZoneNotFoundIsNull(t *testing.T) {
	app := setupApp(makeDeps())

	status, body := doJSON(t, app, "POST", "/graphql", `{"query":"{ zone(id: 42) { id } }"}`)
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	if !strings.Contains(string(body), `"zone":null`) {
		t.Errorf("expected null zone, got %s", body)
	}
}

func TestGraphQL_SaveZoneValidation(t *testing.T) {
	app := setupApp(makeDeps())

	query := `{"query":"mutation { saveZone(name: \"  \", points: [{lat: 0.5, lng: 0.5}]) { id } }"}`
	status, body := doJSON(t, app, "POST", "/graphql", query)
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	if !strings.Contains(string(body), "zone name must not be empty") {
		t.Errorf("expected empty name error, got %s", body)
	}
}

func TestGraphQL_ZoneMetrics(t *testing.T) {
	app := setupApp(makeDeps())

	query := `{"query":"{ zoneMetrics(points: [{lat: 0, lng: 0}, {lat: 0, lng: 0.001}, {lat: 0.001, lng: 0.001}, {lat: 0.001, lng: 0}]) { area perimeter } }"}`
	status, body := doJSON(t, app, "POST", "/graphql", query)
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	if !strings.Contains(string(body), `"area":"1.24 ha"`) {
		t.Errorf("expected 1.24 ha, got %s", body)
	}
}

func TestGraphQL_VertexLimit(t *testing.T) {
	app := setupApp(makeDeps(func(d *handler.Dependencies) { d.Editor.MaxVertices = 3 }))
	points := `[{lat: 0, lng: 0}, {lat: 0, lng: 0.001}, {lat: 0.001, lng: 0.001}, {lat: 0.001, lng: 0}]`

	for name, query := range map[string]string{
		"saveZone":    `mutation { saveZone(name: \"Abando\", points: ` + points + `) { id } }`,
		"zoneMetrics": `{ zoneMetrics(points: ` + points + `) { area } }`,
	} {
		status, body := doJSON(t, app, "POST", "/graphql", `{"query":"`+query+`"}`)
		if status != 200 {
			t.Fatalf("%s: expected 200, got %d", name, status)
		}
		if !strings.Contains(string(body), "too many points (max 3)") {
			t.Errorf("%s: expected vertex limit error, got %s", name, body)
		}
	}
}

// ---- Health ----

func TestHealth_Returns200(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/health", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if result["status"] != "healthy" {
		t.Errorf("expected healthy status, got %v", result["status"])
	}
}

func TestReady_NoDB(t *testing.T) {
	// DB, NATS, Cache are nil → should report not ready
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/ready", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 503 {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
}

// ---- Middleware ----

func TestZones_ETagRevalidation(t *testing.T) {
	app := setupApp(makeDeps(withRepo(&mockZoneRepo{
		listFn: func(ctx context.Context) ([]domain.Zone, error) {
			return []domain.Zone{{ID: 1, Name: "Abando", Points: square()}}, nil
		},
	})))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/zones", nil), -1)
	etag := resp.Header.Get("ETag")
	if etag == "" {
		t.Fatal("expected ETag header")
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "no-cache" {
		t.Errorf("expected no-cache for zones, got %q", cc)
	}

	req := httptest.NewRequest("GET", "/v1/zones", nil)
	req.Header.Set("If-None-Match", "W/\"other\", "+etag)
	resp, _ = app.Test(req, -1)
	if resp.StatusCode != 304 {
		t.Fatalf("expected 304, got %d", resp.StatusCode)
	}
}

func TestWebSocket_RequiresUpgrade(t *testing.T) {
	app := setupApp(makeDeps())

	for _, path := range []string{"/ws/editor", "/ws/zones"} {
		resp, _ := app.Test(httptest.NewRequest("GET", path, nil), -1)
		if resp.StatusCode != 426 {
			t.Errorf("%s: expected 426, got %d", path, resp.StatusCode)
		}
	}
}
