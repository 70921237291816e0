// Package tickets orchestrates the ticket lifecycle: admission at check-in
// and release plus billing at check-out.
package tickets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/hryhoriev/parkgo/internal/clock"
	"github.com/hryhoriev/parkgo/internal/domain"
	"github.com/hryhoriev/parkgo/internal/ids"
	"github.com/hryhoriev/parkgo/internal/repository"
	redisrepo "github.com/hryhoriev/parkgo/internal/repository/redis"
	"github.com/hryhoriev/parkgo/internal/service/ledger"
	"github.com/hryhoriev/parkgo/internal/service/tariff"
)

// Store is the persistence the lifecycle writes through. SaveCheckin and
// SaveCheckout must apply the ticket row, the zone counter, and the
// subscription check-in list in a single transaction.
type Store interface {
	GetTicket(ctx context.Context, id string) (domain.Ticket, error)
	SaveCheckin(ctx context.Context, t domain.Ticket, occupied int, sub *domain.Subscription) error
	SaveCheckout(ctx context.Context, t domain.Ticket, occupied int, sub *domain.Subscription) error
	ListRushWindows(ctx context.Context) ([]domain.RushWindow, error)
	ListVacationWindows(ctx context.Context) ([]domain.VacationWindow, error)
}

// Publisher announces a zone state change after it has been committed;
// delivery to observers happens asynchronously from there.
type Publisher interface {
	PublishZoneChanged(ctx context.Context, zoneID string) error
}

type Service struct {
	ledger  *ledger.Service
	store   Store
	pub     Publisher
	cache   *redisrepo.Cache
	limiter *redisrepo.SlidingWindowLimiter
	clock   clock.Clock
	logger  *slog.Logger
}

func New(
	ledger *ledger.Service,
	store Store,
	pub Publisher,
	cache *redisrepo.Cache,
	limiter *redisrepo.SlidingWindowLimiter,
	clk clock.Clock,
	logger *slog.Logger,
) *Service {
	if clk == nil {
		clk = clock.NewSystem()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		ledger:  ledger,
		store:   store,
		pub:     pub,
		cache:   cache,
		limiter: limiter,
		clock:   clk,
		logger:  logger,
	}
}

type CheckinResult struct {
	Ticket       domain.Ticket
	Subscription *domain.Subscription
	ZoneState    domain.ZoneState
}

type CheckoutResult struct {
	Receipt   domain.Receipt
	ZoneState domain.ZoneState
}

// CheckIn admits a vehicle into the zone and creates an open ticket. A plate
// matching an active subscription's vehicle list yields a subscriber ticket
// and appends the stay to that subscription's check-in list; admission and
// ticket creation are all-or-nothing.
func (s *Service) CheckIn(ctx context.Context, zoneID, gateID, plate, rlKey string) (CheckinResult, error) {
	const op = "service.tickets.CheckIn"

	if s.limiter != nil && rlKey != "" {
		ok, _, retry, err := s.limiter.Allow(ctx, rlKey)
		if err != nil {
			return CheckinResult{}, fmt.Errorf("%s:%w", op, err)
		}
		if !ok {
			return CheckinResult{}, fmt.Errorf("%s: rate limited, retry in %s", op, retry)
		}
	}

	if _, ok := s.ledger.Zone(zoneID); !ok {
		return CheckinResult{}, fmt.Errorf("%s:%w", op, ErrZoneNotFound)
	}

	now := s.clock.Now()
	ticketType := domain.TicketVisitor
	var matched *domain.Subscription

	if plate != "" {
		if sub, ok := s.ledger.FindSubscriptionByPlate(plate); ok {
			ticketType = domain.TicketSubscriber
			matched = &sub
		}
	}

	ticket := domain.Ticket{
		ID:        ids.Issue(ids.KindTicket),
		Type:      ticketType,
		ZoneID:    zoneID,
		GateID:    gateID,
		CheckinAt: now,
	}

	var subCheckin *ledger.SubscriberCheckin
	if matched != nil {
		subCheckin = &ledger.SubscriberCheckin{
			SubscriptionID: matched.ID,
			TicketID:       ticket.ID,
			CheckinAt:      now,
		}
	}

	occupied, err := s.ledger.TryAdmit(zoneID, subCheckin)
	if err != nil {
		return CheckinResult{}, fmt.Errorf("%s:%w", op, translateLedgerErr(err))
	}

	var subToPersist *domain.Subscription
	if matched != nil {
		if sub, ok := s.ledger.Subscription(matched.ID); ok {
			subToPersist = &sub
		}
	}

	if err := s.store.SaveCheckin(ctx, ticket, occupied, subToPersist); err != nil {
		// compensate the in-memory admission so counters stay honest
		s.ledger.Release(zoneID, ticket.ID)
		s.logger.Error("checkin write-through failed",
			"ticket_id", ticket.ID, "zone_id", zoneID, "error", err)
		return CheckinResult{}, fmt.Errorf("%s:%w", op, ErrDataConsistency)
	}

	s.publishZoneChanged(ctx, zoneID)

	state, _ := s.ledger.Snapshot(zoneID)
	return CheckinResult{Ticket: ticket, Subscription: subToPersist, ZoneState: state}, nil
}

// CheckOut closes the ticket, releases its slot, and bills the stay. A second
// check-out of the same ticket is an error, not a no-op.
func (s *Service) CheckOut(ctx context.Context, ticketID string) (CheckoutResult, error) {
	const op = "service.tickets.CheckOut"

	ticket, err := s.store.GetTicket(ctx, ticketID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return CheckoutResult{}, fmt.Errorf("%s:%w", op, ErrTicketNotFound)
		}
		return CheckoutResult{}, fmt.Errorf("%s:%w", op, err)
	}

	if ticket.CheckoutAt != nil {
		return CheckoutResult{}, fmt.Errorf("%s:%w", op, ErrAlreadyCheckedOut)
	}

	category, _ := s.categoryForZone(ticket.ZoneID)

	calendar, err := s.loadCalendar(ctx)
	if err != nil {
		return CheckoutResult{}, fmt.Errorf("%s:%w", op, err)
	}

	now := s.clock.Now()
	breakdown, amount, err := tariff.ComputeCost(ticket.CheckinAt, now, category, calendar)
	if err != nil {
		return CheckoutResult{}, fmt.Errorf("%s:%w", op, err)
	}

	ticket.CheckoutAt = &now
	occupied, subID := s.ledger.Release(ticket.ZoneID, ticket.ID)

	var subToPersist *domain.Subscription
	if subID != "" {
		if sub, ok := s.ledger.Subscription(subID); ok {
			subToPersist = &sub
		}
	}

	if err := s.store.SaveCheckout(ctx, ticket, occupied, subToPersist); err != nil {
		s.logger.Error("checkout write-through failed",
			"ticket_id", ticket.ID, "zone_id", ticket.ZoneID, "error", err)
		return CheckoutResult{}, fmt.Errorf("%s:%w", op, ErrDataConsistency)
	}

	s.publishZoneChanged(ctx, ticket.ZoneID)

	receipt := domain.Receipt{
		TicketID:      ticket.ID,
		CheckinAt:     ticket.CheckinAt,
		CheckoutAt:    now,
		DurationHours: round4(now.Sub(ticket.CheckinAt).Hours()),
		Breakdown:     breakdown,
		Amount:        amount,
	}

	state, _ := s.ledger.Snapshot(ticket.ZoneID)
	return CheckoutResult{Receipt: receipt, ZoneState: state}, nil
}

// Ticket returns a ticket by id.
func (s *Service) Ticket(ctx context.Context, id string) (domain.Ticket, error) {
	const op = "service.tickets.Ticket"

	t, err := s.store.GetTicket(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Ticket{}, fmt.Errorf("%s:%w", op, ErrTicketNotFound)
		}
		return domain.Ticket{}, fmt.Errorf("%s:%w", op, err)
	}

	return t, nil
}

const windowsCacheTTL = 60 * time.Second

// loadCalendar builds the rate calendar from the configured windows, served
// from the shared cache when one is wired.
func (s *Service) loadCalendar(ctx context.Context) (*tariff.Calendar, error) {
	rush, err := s.rushWindows(ctx)
	if err != nil {
		return nil, err
	}

	vacations, err := s.vacationWindows(ctx)
	if err != nil {
		return nil, err
	}

	return tariff.NewCalendar(rush, vacations), nil
}

func (s *Service) rushWindows(ctx context.Context) ([]domain.RushWindow, error) {
	if s.cache == nil {
		return s.store.ListRushWindows(ctx)
	}

	return redisrepo.GetOrSetJSON(ctx, s.cache, redisrepo.KeyRushWindows(), windowsCacheTTL,
		func(ctx context.Context) ([]domain.RushWindow, error) {
			return s.store.ListRushWindows(ctx)
		})
}

func (s *Service) vacationWindows(ctx context.Context) ([]domain.VacationWindow, error) {
	if s.cache == nil {
		return s.store.ListVacationWindows(ctx)
	}

	return redisrepo.GetOrSetJSON(ctx, s.cache, redisrepo.KeyVacationWindows(), windowsCacheTTL,
		func(ctx context.Context) ([]domain.VacationWindow, error) {
			return s.store.ListVacationWindows(ctx)
		})
}

func (s *Service) categoryForZone(zoneID string) (domain.Category, bool) {
	zone, ok := s.ledger.Zone(zoneID)
	if !ok {
		return domain.Category{}, false
	}
	return s.ledger.Category(zone.CategoryID)
}

func (s *Service) publishZoneChanged(ctx context.Context, zoneID string) {
	if s.pub == nil {
		return
	}
	if err := s.pub.PublishZoneChanged(ctx, zoneID); err != nil {
		s.logger.Warn("zone change publish failed", "zone_id", zoneID, "error", err)
	}
}

func translateLedgerErr(err error) error {
	switch {
	case errors.Is(err, ledger.ErrZoneNotFound):
		return ErrZoneNotFound
	case errors.Is(err, ledger.ErrZoneClosed):
		return ErrZoneClosed
	case errors.Is(err, ledger.ErrZoneFull):
		return ErrZoneFull
	default:
		return err
	}
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
