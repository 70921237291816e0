package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/hryhoriev/parkgo/internal/domain"
	"github.com/hryhoriev/parkgo/internal/repository"
)

type CategoryRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *CategoryRepo) With(db DB) *CategoryRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *CategoryRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

func (r *CategoryRepo) List(ctx context.Context) ([]domain.Category, error) {
	const op = "postgres.CategoryRepo.List"

	rows, err := r.handle().Query(ctx,
		`SELECT id, name, rate_normal, rate_special, description
		   FROM categories
		  ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.RateNormal, &c.RateSpecial, &c.Description); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return categories, nil
}

func (r *CategoryRepo) Get(ctx context.Context, id string) (domain.Category, error) {
	const op = "postgres.CategoryRepo.Get"

	var c domain.Category
	err := r.handle().QueryRow(ctx,
		`SELECT id, name, rate_normal, rate_special, description
		   FROM categories
		  WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.Name, &c.RateNormal, &c.RateSpecial, &c.Description)
	if err != nil {
		return domain.Category{}, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return c, nil
}

func (s *Store) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.Categories().List(ctx)
}

// UpdateRates persists new tariff rates for a category.
func (r *CategoryRepo) UpdateRates(ctx context.Context, id string, rateNormal, rateSpecial float64) error {
	const op = "postgres.CategoryRepo.UpdateRates"

	tag, err := r.handle().Exec(ctx,
		`UPDATE categories SET rate_normal = $2, rate_special = $3 WHERE id = $1`,
		id, rateNormal, rateSpecial,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return nil
}
