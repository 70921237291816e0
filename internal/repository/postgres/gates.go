package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/hryhoriev/parkgo/internal/domain"
)

type GateRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *GateRepo) With(db DB) *GateRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *GateRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

const gateColumns = `g.id, g.name, g.location,
       COALESCE(array_agg(gz.zone_id ORDER BY gz.zone_id)
                FILTER (WHERE gz.zone_id IS NOT NULL), '{}')`

func (r *GateRepo) List(ctx context.Context) ([]domain.Gate, error) {
	const op = "postgres.GateRepo.List"

	rows, err := r.handle().Query(ctx,
		`SELECT `+gateColumns+`
		   FROM gates g
		   LEFT JOIN gate_zones gz ON gz.gate_id = g.id
		  GROUP BY g.id
		  ORDER BY g.name`,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}
	defer rows.Close()

	var gates []domain.Gate
	for rows.Next() {
		var g domain.Gate
		if err := rows.Scan(&g.ID, &g.Name, &g.Location, &g.ZoneIDs); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}
		gates = append(gates, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return gates, nil
}

func (r *GateRepo) Get(ctx context.Context, id string) (domain.Gate, error) {
	const op = "postgres.GateRepo.Get"

	var g domain.Gate
	err := r.handle().QueryRow(ctx,
		`SELECT `+gateColumns+`
		   FROM gates g
		   LEFT JOIN gate_zones gz ON gz.gate_id = g.id
		  WHERE g.id = $1
		  GROUP BY g.id`,
		id,
	).Scan(&g.ID, &g.Name, &g.Location, &g.ZoneIDs)
	if err != nil {
		return domain.Gate{}, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return g, nil
}

func (s *Store) ListGates(ctx context.Context) ([]domain.Gate, error) {
	return s.Gates().List(ctx)
}

func (s *Store) GetGate(ctx context.Context, id string) (domain.Gate, error) {
	return s.Gates().Get(ctx, id)
}
