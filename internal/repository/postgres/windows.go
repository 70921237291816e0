package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/hryhoriev/parkgo/internal/domain"
	"github.com/hryhoriev/parkgo/internal/repository"
)

// WindowRepo stores the rate calendar: recurring rush windows and one-off
// vacation date ranges.
type WindowRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *WindowRepo) With(db DB) *WindowRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *WindowRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

func (r *WindowRepo) ListRush(ctx context.Context) ([]domain.RushWindow, error) {
	const op = "postgres.WindowRepo.ListRush"

	rows, err := r.handle().Query(ctx,
		`SELECT id, week_day, time_from, time_to, active
		   FROM rush_windows
		  ORDER BY week_day, time_from`,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}
	defer rows.Close()

	var windows []domain.RushWindow
	for rows.Next() {
		var w domain.RushWindow
		if err := rows.Scan(&w.ID, &w.WeekDay, &w.From, &w.To, &w.Active); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}
		windows = append(windows, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return windows, nil
}

func (r *WindowRepo) InsertRush(ctx context.Context, w domain.RushWindow) error {
	const op = "postgres.WindowRepo.InsertRush"

	_, err := r.handle().Exec(ctx,
		`INSERT INTO rush_windows (id, week_day, time_from, time_to, active)
		 VALUES ($1, $2, $3, $4, $5)`,
		w.ID, w.WeekDay, w.From, w.To, w.Active,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return nil
}

func (r *WindowRepo) UpdateRush(ctx context.Context, w domain.RushWindow) error {
	const op = "postgres.WindowRepo.UpdateRush"

	tag, err := r.handle().Exec(ctx,
		`UPDATE rush_windows SET week_day = $2, time_from = $3, time_to = $4, active = $5
		  WHERE id = $1`,
		w.ID, w.WeekDay, w.From, w.To, w.Active,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return nil
}

func (r *WindowRepo) SetRushActive(ctx context.Context, id string, active bool) error {
	const op = "postgres.WindowRepo.SetRushActive"

	tag, err := r.handle().Exec(ctx,
		`UPDATE rush_windows SET active = $2 WHERE id = $1`,
		id, active,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return nil
}

func (r *WindowRepo) DeleteRush(ctx context.Context, id string) error {
	const op = "postgres.WindowRepo.DeleteRush"

	tag, err := r.handle().Exec(ctx, `DELETE FROM rush_windows WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return nil
}

func (r *WindowRepo) ListVacations(ctx context.Context) ([]domain.VacationWindow, error) {
	const op = "postgres.WindowRepo.ListVacations"

	rows, err := r.handle().Query(ctx,
		`SELECT id, name, date_from, date_to, active
		   FROM vacation_windows
		  ORDER BY date_from`,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}
	defer rows.Close()

	var windows []domain.VacationWindow
	for rows.Next() {
		var w domain.VacationWindow
		if err := rows.Scan(&w.ID, &w.Name, &w.From, &w.To, &w.Active); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}
		windows = append(windows, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return windows, nil
}

func (r *WindowRepo) InsertVacation(ctx context.Context, w domain.VacationWindow) error {
	const op = "postgres.WindowRepo.InsertVacation"

	_, err := r.handle().Exec(ctx,
		`INSERT INTO vacation_windows (id, name, date_from, date_to, active)
		 VALUES ($1, $2, $3, $4, $5)`,
		w.ID, w.Name, w.From, w.To, w.Active,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return nil
}

func (r *WindowRepo) UpdateVacation(ctx context.Context, w domain.VacationWindow) error {
	const op = "postgres.WindowRepo.UpdateVacation"

	tag, err := r.handle().Exec(ctx,
		`UPDATE vacation_windows SET name = $2, date_from = $3, date_to = $4, active = $5
		  WHERE id = $1`,
		w.ID, w.Name, w.From, w.To, w.Active,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return nil
}

func (r *WindowRepo) SetVacationActive(ctx context.Context, id string, active bool) error {
	const op = "postgres.WindowRepo.SetVacationActive"

	tag, err := r.handle().Exec(ctx,
		`UPDATE vacation_windows SET active = $2 WHERE id = $1`,
		id, active,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return nil
}

func (r *WindowRepo) DeleteVacation(ctx context.Context, id string) error {
	const op = "postgres.WindowRepo.DeleteVacation"

	tag, err := r.handle().Exec(ctx, `DELETE FROM vacation_windows WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return nil
}

func (s *Store) ListRushWindows(ctx context.Context) ([]domain.RushWindow, error) {
	return s.Windows().ListRush(ctx)
}

func (s *Store) ListVacationWindows(ctx context.Context) ([]domain.VacationWindow, error) {
	return s.Windows().ListVacations(ctx)
}
