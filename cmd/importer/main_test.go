package main

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	geojsonadapter "github.com/samirrijal/zonedesk/internal/adapters/geojson"
	"github.com/samirrijal/zonedesk/internal/core/domain"
	"github.com/samirrijal/zonedesk/internal/core/usecases"
)

type fakeRepo struct {
	mu    sync.Mutex
	names map[string]bool
	next  int64
	fail  string
}

func (r *fakeRepo) List(ctx context.Context) ([]domain.Zone, error) { return nil, nil }
func (r *fakeRepo) GetByID(ctx context.Context, id int64) (*domain.Zone, error) {
	return nil, domain.ErrZoneNotFound
}
func (r *fakeRepo) Create(ctx context.Context, p domain.ZonePayload) (*domain.Zone, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.Name == r.fail {
		return nil, errors.New("connection reset")
	}
	if r.names[p.Name] {
		return nil, domain.ErrZoneConflict
	}
	r.names[p.Name] = true
	r.next++
	return &domain.Zone{ID: r.next, Name: p.Name, Points: p.Points}, nil
}
func (r *fakeRepo) Update(ctx context.Context, id int64, p domain.ZonePayload) (*domain.Zone, error) {
	return nil, domain.ErrZoneNotFound
}
func (r *fakeRepo) Delete(ctx context.Context, id int64) error { return nil }

const importFile = `{"type":"FeatureCollection","features":[
 {"type":"Feature","properties":{"name":"Abando"},"geometry":{"type":"Polygon","coordinates":[[[0,0],[0.001,0],[0.001,0.001],[0,0.001],[0,0]]]}},
 {"type":"Feature","properties":{"name":"Abando"},"geometry":{"type":"Polygon","coordinates":[[[0,0],[0.002,0],[0.002,0.002],[0,0]]]}},
 {"type":"Feature","properties":{"name":"Tiny"},"geometry":{"type":"Polygon","coordinates":[[[0,0],[0.001,0],[0,0]]]}},
 {"type":"Feature","properties":{},"geometry":{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]]]}},
 {"type":"Feature","properties":{"name":"Broken"},"geometry":{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]]]}}
]}`

func TestImportFeatures(t *testing.T) {
	features, err := geojsonadapter.Decode([]byte(importFile))
	require.NoError(t, err)
	require.Len(t, features, 5)

	repo := &fakeRepo{names: map[string]bool{}, fail: "Broken"}
	svc := usecases.NewZoneService(repo, nil, nil)

	sum := importFeatures(context.Background(), svc, features, 1)

	assert.Equal(t, int64(1), sum.Created)
	assert.Equal(t, int64(1), sum.Conflict)
	// "Tiny" has two distinct vertices, the unnamed feature fails decoding
	assert.Equal(t, int64(2), sum.Invalid)
	assert.Equal(t, int64(1), sum.Failed)
}

func TestImportFeatures_ZeroWorkers(t *testing.T) {
	features, err := geojsonadapter.Decode([]byte(importFile))
	require.NoError(t, err)

	repo := &fakeRepo{names: map[string]bool{}}
	sum := importFeatures(context.Background(), usecases.NewZoneService(repo, nil, nil), features[:1], 0)
	assert.Equal(t, int64(1), sum.Created)
}

func TestImportFeatures_VertexLimit(t *testing.T) {
	features, err := geojsonadapter.Decode([]byte(importFile))
	require.NoError(t, err)

	svc := usecases.NewZoneService(&fakeRepo{names: map[string]bool{}}, nil, nil)
	svc.SetVertexLimit(3)

	// The first feature is a square, one point over the limit
	sum := importFeatures(context.Background(), svc, features[:1], 1)
	assert.Equal(t, int64(0), sum.Created)
	assert.Equal(t, int64(1), sum.Invalid)
}
