package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/samirrijal/zonedesk/internal/core/domain"
)

const uniqueViolation = "23505"

const zoneColumns = `id, name, description, points, created_at, updated_at`

// ZoneRepo implements ports.ZoneRepository.
type ZoneRepo struct {
	db *DB
}

func NewZoneRepo(db *DB) *ZoneRepo {
	return &ZoneRepo{db: db}
}

func (r *ZoneRepo) List(ctx context.Context) ([]domain.Zone, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT `+zoneColumns+` FROM zones ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var zones []domain.Zone
	for rows.Next() {
		z, err := scanZone(rows)
		if err != nil {
			return nil, err
		}
		zones = append(zones, *z)
	}
	return zones, rows.Err()
}

func (r *ZoneRepo) GetByID(ctx context.Context, id int64) (*domain.Zone, error) {
	row := r.db.Pool.QueryRow(ctx, `SELECT `+zoneColumns+` FROM zones WHERE id = $1`, id)
	z, err := scanZone(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrZoneNotFound
	}
	return z, err
}

func (r *ZoneRepo) Create(ctx context.Context, p domain.ZonePayload) (*domain.Zone, error) {
	points, err := encodePoints(p.Points)
	if err != nil {
		return nil, err
	}

	row := r.db.Pool.QueryRow(ctx, `
		INSERT INTO zones (name, description, points)
		VALUES ($1, $2, $3::jsonb)
		RETURNING `+zoneColumns,
		p.Name, p.Description, points)
	z, err := scanZone(row)
	if err != nil {
		return nil, mapWriteError("insert zone", err)
	}
	return z, nil
}

func (r *ZoneRepo) Update(ctx context.Context, id int64, p domain.ZonePayload) (*domain.Zone, error) {
	points, err := encodePoints(p.Points)
	if err != nil {
		return nil, err
	}

	row := r.db.Pool.QueryRow(ctx, `
		UPDATE zones
		SET name = $2, description = $3, points = $4::jsonb, updated_at = now()
		WHERE id = $1
		RETURNING `+zoneColumns,
		id, p.Name, p.Description, points)
	z, err := scanZone(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrZoneNotFound
	}
	if err != nil {
		return nil, mapWriteError("update zone", err)
	}
	return z, nil
}

func (r *ZoneRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM zones WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrZoneNotFound
	}
	return nil
}

func scanZone(row pgx.Row) (*domain.Zone, error) {
	var (
		z   domain.Zone
		raw []byte
	)
	if err := row.Scan(&z.ID, &z.Name, &z.Description, &raw, &z.CreatedAt, &z.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &z.Points); err != nil {
		return nil, fmt.Errorf("decode points of zone %d: %w", z.ID, err)
	}
	return &z, nil
}

func encodePoints(points []domain.Vertex) (string, error) {
	if points == nil {
		points = []domain.Vertex{}
	}
	data, err := json.Marshal(points)
	if err != nil {
		return "", fmt.Errorf("encode points: %w", err)
	}
	return string(data), nil
}

func mapWriteError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %w", op, domain.ErrZoneConflict)
	}
	return fmt.Errorf("%s: %w", op, err)
}
