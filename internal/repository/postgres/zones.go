package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/hryhoriev/parkgo/internal/domain"
	"github.com/hryhoriev/parkgo/internal/repository"
)

type ZoneRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *ZoneRepo) With(db DB) *ZoneRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *ZoneRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

const zoneColumns = `z.id, z.name, z.category_id, z.total_slots, z.occupied, z.open,
       COALESCE(array_agg(gz.gate_id ORDER BY gz.gate_id)
                FILTER (WHERE gz.gate_id IS NOT NULL), '{}')`

// List returns all zones with their gate links, ordered by name.
func (r *ZoneRepo) List(ctx context.Context) ([]domain.Zone, error) {
	const op = "postgres.ZoneRepo.List"

	rows, err := r.handle().Query(ctx,
		`SELECT `+zoneColumns+`
		   FROM zones z
		   LEFT JOIN gate_zones gz ON gz.zone_id = z.id
		  GROUP BY z.id
		  ORDER BY z.name`,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}
	defer rows.Close()

	var zones []domain.Zone
	for rows.Next() {
		var z domain.Zone
		if err := rows.Scan(&z.ID, &z.Name, &z.CategoryID, &z.TotalSlots, &z.Occupied, &z.Open, &z.GateIDs); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}
		zones = append(zones, z)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return zones, nil
}

func (r *ZoneRepo) Get(ctx context.Context, id string) (domain.Zone, error) {
	const op = "postgres.ZoneRepo.Get"

	var z domain.Zone
	err := r.handle().QueryRow(ctx,
		`SELECT `+zoneColumns+`
		   FROM zones z
		   LEFT JOIN gate_zones gz ON gz.zone_id = z.id
		  WHERE z.id = $1
		  GROUP BY z.id`,
		id,
	).Scan(&z.ID, &z.Name, &z.CategoryID, &z.TotalSlots, &z.Occupied, &z.Open, &z.GateIDs)
	if err != nil {
		return domain.Zone{}, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return z, nil
}

// UpdateOccupied sets the zone's occupied counter to an absolute value.
func (r *ZoneRepo) UpdateOccupied(ctx context.Context, id string, occupied int) error {
	const op = "postgres.ZoneRepo.UpdateOccupied"

	tag, err := r.handle().Exec(ctx,
		`UPDATE zones SET occupied = $2 WHERE id = $1`,
		id, occupied,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return nil
}

func (r *ZoneRepo) UpdateOpen(ctx context.Context, id string, open bool) error {
	const op = "postgres.ZoneRepo.UpdateOpen"

	tag, err := r.handle().Exec(ctx,
		`UPDATE zones SET open = $2 WHERE id = $1`,
		id, open,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return nil
}
