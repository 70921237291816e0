package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/hryhoriev/parkgo/internal/domain"
	"github.com/hryhoriev/parkgo/internal/repository"
)

type TicketRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *TicketRepo) With(db DB) *TicketRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *TicketRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

func (r *TicketRepo) Get(ctx context.Context, id string) (domain.Ticket, error) {
	const op = "postgres.TicketRepo.Get"

	var t domain.Ticket
	err := r.handle().QueryRow(ctx,
		`SELECT id, type, zone_id, gate_id, checkin_at, checkout_at
		   FROM tickets
		  WHERE id = $1`,
		id,
	).Scan(&t.ID, &t.Type, &t.ZoneID, &t.GateID, &t.CheckinAt, &t.CheckoutAt)
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return t, nil
}

func (r *TicketRepo) Insert(ctx context.Context, t domain.Ticket) error {
	const op = "postgres.TicketRepo.Insert"

	_, err := r.handle().Exec(ctx,
		`INSERT INTO tickets (id, type, zone_id, gate_id, checkin_at, checkout_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		t.ID, t.Type, t.ZoneID, t.GateID, t.CheckinAt, t.CheckoutAt,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return nil
}

func (r *TicketRepo) SetCheckout(ctx context.Context, id string, at time.Time) error {
	const op = "postgres.TicketRepo.SetCheckout"

	tag, err := r.handle().Exec(ctx,
		`UPDATE tickets SET checkout_at = $2 WHERE id = $1 AND checkout_at IS NULL`,
		id, at,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return nil
}

// ListOpenSubscriber returns subscriber tickets that have not checked out,
// used to rebuild reservation accounting at startup.
func (r *TicketRepo) ListOpenSubscriber(ctx context.Context) ([]domain.Ticket, error) {
	const op = "postgres.TicketRepo.ListOpenSubscriber"

	rows, err := r.handle().Query(ctx,
		`SELECT id, type, zone_id, gate_id, checkin_at, checkout_at
		   FROM tickets
		  WHERE type = $1 AND checkout_at IS NULL`,
		domain.TicketSubscriber,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}
	defer rows.Close()

	var tickets []domain.Ticket
	for rows.Next() {
		var t domain.Ticket
		if err := rows.Scan(&t.ID, &t.Type, &t.ZoneID, &t.GateID, &t.CheckinAt, &t.CheckoutAt); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}
		tickets = append(tickets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return tickets, nil
}

// GetTicket reads a single ticket outside of any transaction.
func (s *Store) GetTicket(ctx context.Context, id string) (domain.Ticket, error) {
	return s.Tickets().Get(ctx, id)
}

// SaveCheckin writes the ticket row, the zone counter, and, for subscriber
// tickets, the subscription's check-in list in one transaction.
func (s *Store) SaveCheckin(ctx context.Context, t domain.Ticket, occupied int, sub *domain.Subscription) error {
	const op = "postgres.Store.SaveCheckin"

	err := s.RunTx(ctx, nil, func(ctx context.Context, tx DB) error {
		if err := s.Tickets().With(tx).Insert(ctx, t); err != nil {
			return err
		}
		if err := s.Zones().With(tx).UpdateOccupied(ctx, t.ZoneID, occupied); err != nil {
			return err
		}
		if sub != nil {
			if err := s.Subscriptions().With(tx).UpdateCheckins(ctx, sub.ID, sub.CurrentCheckins); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

// SaveCheckout closes the ticket row and applies the zone counter and the
// subscription's check-in list in one transaction.
func (s *Store) SaveCheckout(ctx context.Context, t domain.Ticket, occupied int, sub *domain.Subscription) error {
	const op = "postgres.Store.SaveCheckout"

	if t.CheckoutAt == nil {
		return fmt.Errorf("%s: ticket %s has no checkout time", op, t.ID)
	}

	err := s.RunTx(ctx, nil, func(ctx context.Context, tx DB) error {
		if err := s.Tickets().With(tx).SetCheckout(ctx, t.ID, *t.CheckoutAt); err != nil {
			return err
		}
		if err := s.Zones().With(tx).UpdateOccupied(ctx, t.ZoneID, occupied); err != nil {
			return err
		}
		if sub != nil {
			if err := s.Subscriptions().With(tx).UpdateCheckins(ctx, sub.ID, sub.CurrentCheckins); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}
