package ports

import (
	"context"

	"github.com/samirrijal/zonedesk/internal/core/domain"
)

// ZoneRepository persists zones.
// Implementations return domain.ErrZoneNotFound for unknown ids and wrap
// unique-name violations in domain.ErrZoneConflict.
type ZoneRepository interface {
	List(ctx context.Context) ([]domain.Zone, error)
	GetByID(ctx context.Context, id int64) (*domain.Zone, error)
	Create(ctx context.Context, payload domain.ZonePayload) (*domain.Zone, error)
	Update(ctx context.Context, id int64, payload domain.ZonePayload) (*domain.Zone, error)
	Delete(ctx context.Context, id int64) error
}
