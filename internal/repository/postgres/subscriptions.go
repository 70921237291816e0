package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/hryhoriev/parkgo/internal/domain"
	"github.com/hryhoriev/parkgo/internal/repository"
)

// SubscriptionRepo stores subscriptions with the vehicle list and the open
// check-in list as jsonb documents; pgx maps them through encoding/json.
type SubscriptionRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *SubscriptionRepo) With(db DB) *SubscriptionRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *SubscriptionRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

func (r *SubscriptionRepo) List(ctx context.Context) ([]domain.Subscription, error) {
	const op = "postgres.SubscriptionRepo.List"

	rows, err := r.handle().Query(ctx,
		`SELECT id, user_name, active, category_id, cars, starts_at, expires_at, current_checkins
		   FROM subscriptions
		  ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}
	defer rows.Close()

	var subs []domain.Subscription
	for rows.Next() {
		var s domain.Subscription
		if err := rows.Scan(&s.ID, &s.UserName, &s.Active, &s.CategoryID,
			&s.Cars, &s.StartsAt, &s.ExpiresAt, &s.CurrentCheckins); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}
		subs = append(subs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return subs, nil
}

func (r *SubscriptionRepo) Get(ctx context.Context, id string) (domain.Subscription, error) {
	const op = "postgres.SubscriptionRepo.Get"

	var s domain.Subscription
	err := r.handle().QueryRow(ctx,
		`SELECT id, user_name, active, category_id, cars, starts_at, expires_at, current_checkins
		   FROM subscriptions
		  WHERE id = $1`,
		id,
	).Scan(&s.ID, &s.UserName, &s.Active, &s.CategoryID,
		&s.Cars, &s.StartsAt, &s.ExpiresAt, &s.CurrentCheckins)
	if err != nil {
		return domain.Subscription{}, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return s, nil
}

func (r *SubscriptionRepo) Insert(ctx context.Context, s domain.Subscription) error {
	const op = "postgres.SubscriptionRepo.Insert"

	_, err := r.handle().Exec(ctx,
		`INSERT INTO subscriptions
		        (id, user_name, active, category_id, cars, starts_at, expires_at, current_checkins)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		s.ID, s.UserName, s.Active, s.CategoryID,
		s.Cars, s.StartsAt, s.ExpiresAt, s.CurrentCheckins,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return nil
}

// UpdateCheckins replaces the subscription's open check-in list.
func (r *SubscriptionRepo) UpdateCheckins(ctx context.Context, id string, checkins []domain.CheckinEntry) error {
	const op = "postgres.SubscriptionRepo.UpdateCheckins"

	if checkins == nil {
		checkins = []domain.CheckinEntry{}
	}

	tag, err := r.handle().Exec(ctx,
		`UPDATE subscriptions SET current_checkins = $2 WHERE id = $1`,
		id, checkins,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return nil
}
