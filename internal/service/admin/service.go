// Package admin applies control-plane changes: tariff rates, zone gating,
// the rate calendar, and subscription issuance. Every change is persisted
// first and only then reflected in memory and announced to observers.
package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/hryhoriev/parkgo/internal/clock"
	"github.com/hryhoriev/parkgo/internal/domain"
	"github.com/hryhoriev/parkgo/internal/ids"
	"github.com/hryhoriev/parkgo/internal/repository"
	postgresrepo "github.com/hryhoriev/parkgo/internal/repository/postgres"
	redisrepo "github.com/hryhoriev/parkgo/internal/repository/redis"
	"github.com/hryhoriev/parkgo/internal/service/ledger"
	"github.com/hryhoriev/parkgo/internal/uow"
)

// Notifier announces committed control-plane changes to observers.
type Notifier interface {
	PublishZoneChanged(ctx context.Context, zoneID string) error
	PublishAdminEvent(ctx context.Context, ev domain.AdminEvent) error
}

type Service struct {
	store    *postgresrepo.Store
	uow      *uow.UoW
	ledger   *ledger.Service
	cache    *redisrepo.Cache
	notifier Notifier
	clock    clock.Clock
	logger   *slog.Logger
}

func New(
	store *postgresrepo.Store,
	u *uow.UoW,
	ledger *ledger.Service,
	cache *redisrepo.Cache,
	notifier Notifier,
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
		store:    store,
		uow:      u,
		ledger:   ledger,
		cache:    cache,
		notifier: notifier,
		clock:    clk,
		logger:   logger,
	}
}

// SetCategoryRates changes a category's tariff rates. Tickets already open
// keep billing segments at the rates in effect when each segment starts, so
// the change applies from the moment it lands.
func (s *Service) SetCategoryRates(ctx context.Context, actorID, categoryID string, rateNormal, rateSpecial float64) (domain.Category, error) {
	const op = "service.admin.SetCategoryRates"

	if rateNormal < 0 || rateSpecial < 0 {
		return domain.Category{}, fmt.Errorf("%s: negative rate: %w", op, ErrInvalidInput)
	}
	if _, ok := s.ledger.Category(categoryID); !ok {
		return domain.Category{}, fmt.Errorf("%s:%w", op, ErrCategoryNotFound)
	}

	err := s.uow.Do(ctx, func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error {
		if err := s.store.Categories().With(tx).UpdateRates(ctx, categoryID, rateNormal, rateSpecial); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrCategoryNotFound
			}
			return err
		}

		after(func(ctx context.Context) {
			s.ledger.SetCategoryRates(categoryID, rateNormal, rateSpecial)
			s.invalidateMaster(ctx)
			s.publishAdminEvent(ctx, actorID, "category-rates-changed", "category", categoryID,
				map[string]any{"rateNormal": rateNormal, "rateSpecial": rateSpecial})
			for _, state := range s.ledger.SnapshotAll() {
				if state.CategoryID == categoryID {
					s.publishZoneChanged(ctx, state.ID)
				}
			}
		})

		return nil
	})
	if err != nil {
		return domain.Category{}, fmt.Errorf("%s:%w", op, err)
	}

	category, _ := s.ledger.Category(categoryID)
	return category, nil
}

// SetZoneOpen opens or closes a zone for new admissions. Vehicles already
// inside a closed zone can still check out.
func (s *Service) SetZoneOpen(ctx context.Context, actorID, zoneID string, open bool) (domain.ZoneState, error) {
	const op = "service.admin.SetZoneOpen"

	if _, ok := s.ledger.Zone(zoneID); !ok {
		return domain.ZoneState{}, fmt.Errorf("%s:%w", op, ErrZoneNotFound)
	}

	err := s.uow.Do(ctx, func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error {
		if err := s.store.Zones().With(tx).UpdateOpen(ctx, zoneID, open); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrZoneNotFound
			}
			return err
		}

		after(func(ctx context.Context) {
			if err := s.ledger.SetZoneOpen(zoneID, open); err != nil {
				s.logger.Error("zone open flag out of sync", "zone_id", zoneID, "error", err)
			}
			action := "zone-closed"
			if open {
				action = "zone-opened"
			}
			s.publishAdminEvent(ctx, actorID, action, "zone", zoneID, nil)
			s.publishZoneChanged(ctx, zoneID)
		})

		return nil
	})
	if err != nil {
		return domain.ZoneState{}, fmt.Errorf("%s:%w", op, err)
	}

	state, _ := s.ledger.Snapshot(zoneID)
	return state, nil
}

var hhmmRe = regexp.MustCompile(`^([01]\d|2[0-3]):([0-5]\d)$`)

// NewRushWindow describes a recurring special-rate window to create or replace.
type NewRushWindow struct {
	WeekDay int
	From    string
	To      string
	Active  bool
}

func (w NewRushWindow) validate() error {
	if w.WeekDay < 0 || w.WeekDay > 6 {
		return fmt.Errorf("weekDay out of range: %w", ErrInvalidInput)
	}
	if !hhmmRe.MatchString(w.From) || !hhmmRe.MatchString(w.To) {
		return fmt.Errorf("time must be HH:MM: %w", ErrInvalidInput)
	}
	if w.From >= w.To {
		return fmt.Errorf("window must start before it ends: %w", ErrInvalidInput)
	}
	return nil
}

func (s *Service) CreateRushWindow(ctx context.Context, actorID string, in NewRushWindow) (domain.RushWindow, error) {
	const op = "service.admin.CreateRushWindow"

	if err := in.validate(); err != nil {
		return domain.RushWindow{}, fmt.Errorf("%s:%w", op, err)
	}

	window := domain.RushWindow{
		ID:      ids.Issue(ids.KindRushWindow),
		WeekDay: in.WeekDay,
		From:    in.From,
		To:      in.To,
		Active:  in.Active,
	}

	err := s.uow.Do(ctx, func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error {
		if err := s.store.Windows().With(tx).InsertRush(ctx, window); err != nil {
			return err
		}

		after(func(ctx context.Context) {
			s.invalidateCalendar(ctx)
			s.publishAdminEvent(ctx, actorID, "rush-updated", "rush-window", window.ID, window)
		})

		return nil
	})
	if err != nil {
		return domain.RushWindow{}, fmt.Errorf("%s:%w", op, err)
	}

	return window, nil
}

func (s *Service) UpdateRushWindow(ctx context.Context, actorID, id string, in NewRushWindow) (domain.RushWindow, error) {
	const op = "service.admin.UpdateRushWindow"

	if err := in.validate(); err != nil {
		return domain.RushWindow{}, fmt.Errorf("%s:%w", op, err)
	}

	window := domain.RushWindow{
		ID:      id,
		WeekDay: in.WeekDay,
		From:    in.From,
		To:      in.To,
		Active:  in.Active,
	}

	err := s.uow.Do(ctx, func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error {
		if err := s.store.Windows().With(tx).UpdateRush(ctx, window); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrWindowNotFound
			}
			return err
		}

		after(func(ctx context.Context) {
			s.invalidateCalendar(ctx)
			s.publishAdminEvent(ctx, actorID, "rush-updated", "rush-window", window.ID, window)
		})

		return nil
	})
	if err != nil {
		return domain.RushWindow{}, fmt.Errorf("%s:%w", op, err)
	}

	return window, nil
}

func (s *Service) SetRushWindowActive(ctx context.Context, actorID, id string, active bool) error {
	const op = "service.admin.SetRushWindowActive"

	err := s.uow.Do(ctx, func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error {
		if err := s.store.Windows().With(tx).SetRushActive(ctx, id, active); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrWindowNotFound
			}
			return err
		}

		after(func(ctx context.Context) {
			s.invalidateCalendar(ctx)
			s.publishAdminEvent(ctx, actorID, "rush-updated", "rush-window", id,
				map[string]any{"active": active})
		})

		return nil
	})
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

func (s *Service) DeleteRushWindow(ctx context.Context, actorID, id string) error {
	const op = "service.admin.DeleteRushWindow"

	err := s.uow.Do(ctx, func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error {
		if err := s.store.Windows().With(tx).DeleteRush(ctx, id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrWindowNotFound
			}
			return err
		}

		after(func(ctx context.Context) {
			s.invalidateCalendar(ctx)
			s.publishAdminEvent(ctx, actorID, "rush-updated", "rush-window", id,
				map[string]any{"deleted": true})
		})

		return nil
	})
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

func (s *Service) ListRushWindows(ctx context.Context) ([]domain.RushWindow, error) {
	const op = "service.admin.ListRushWindows"

	windows, err := s.store.Windows().ListRush(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return windows, nil
}

// NewVacation describes a special-rate date range to create or replace.
type NewVacation struct {
	Name   string
	From   time.Time
	To     time.Time
	Active bool
}

func (v NewVacation) validate() error {
	if v.Name == "" {
		return fmt.Errorf("name required: %w", ErrInvalidInput)
	}
	if v.From.IsZero() || v.To.IsZero() {
		return fmt.Errorf("dates required: %w", ErrInvalidInput)
	}
	if v.To.Before(v.From) {
		return fmt.Errorf("range must not end before it starts: %w", ErrInvalidInput)
	}
	return nil
}

func (s *Service) CreateVacation(ctx context.Context, actorID string, in NewVacation) (domain.VacationWindow, error) {
	const op = "service.admin.CreateVacation"

	if err := in.validate(); err != nil {
		return domain.VacationWindow{}, fmt.Errorf("%s:%w", op, err)
	}

	window := domain.VacationWindow{
		ID:     ids.Issue(ids.KindVacation),
		Name:   in.Name,
		From:   in.From,
		To:     in.To,
		Active: in.Active,
	}

	err := s.uow.Do(ctx, func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error {
		if err := s.store.Windows().With(tx).InsertVacation(ctx, window); err != nil {
			return err
		}

		after(func(ctx context.Context) {
			s.invalidateCalendar(ctx)
			s.publishAdminEvent(ctx, actorID, "vacation-added", "vacation", window.ID, window)
		})

		return nil
	})
	if err != nil {
		return domain.VacationWindow{}, fmt.Errorf("%s:%w", op, err)
	}

	return window, nil
}

func (s *Service) UpdateVacation(ctx context.Context, actorID, id string, in NewVacation) (domain.VacationWindow, error) {
	const op = "service.admin.UpdateVacation"

	if err := in.validate(); err != nil {
		return domain.VacationWindow{}, fmt.Errorf("%s:%w", op, err)
	}

	window := domain.VacationWindow{
		ID:     id,
		Name:   in.Name,
		From:   in.From,
		To:     in.To,
		Active: in.Active,
	}

	err := s.uow.Do(ctx, func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error {
		if err := s.store.Windows().With(tx).UpdateVacation(ctx, window); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrWindowNotFound
			}
			return err
		}

		after(func(ctx context.Context) {
			s.invalidateCalendar(ctx)
			s.publishAdminEvent(ctx, actorID, "vacation-updated", "vacation", window.ID, window)
		})

		return nil
	})
	if err != nil {
		return domain.VacationWindow{}, fmt.Errorf("%s:%w", op, err)
	}

	return window, nil
}

func (s *Service) SetVacationActive(ctx context.Context, actorID, id string, active bool) error {
	const op = "service.admin.SetVacationActive"

	err := s.uow.Do(ctx, func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error {
		if err := s.store.Windows().With(tx).SetVacationActive(ctx, id, active); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrWindowNotFound
			}
			return err
		}

		after(func(ctx context.Context) {
			s.invalidateCalendar(ctx)
			s.publishAdminEvent(ctx, actorID, "vacation-updated", "vacation", id,
				map[string]any{"active": active})
		})

		return nil
	})
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

func (s *Service) DeleteVacation(ctx context.Context, actorID, id string) error {
	const op = "service.admin.DeleteVacation"

	err := s.uow.Do(ctx, func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error {
		if err := s.store.Windows().With(tx).DeleteVacation(ctx, id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrWindowNotFound
			}
			return err
		}

		after(func(ctx context.Context) {
			s.invalidateCalendar(ctx)
			s.publishAdminEvent(ctx, actorID, "vacation-updated", "vacation", id,
				map[string]any{"deleted": true})
		})

		return nil
	})
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

func (s *Service) ListVacations(ctx context.Context) ([]domain.VacationWindow, error) {
	const op = "service.admin.ListVacations"

	windows, err := s.store.Windows().ListVacations(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return windows, nil
}

// NewSubscription describes a subscription to issue.
type NewSubscription struct {
	UserName   string
	CategoryID string
	Cars       []domain.Car
	StartsAt   time.Time
	ExpiresAt  time.Time
}

// CreatedSubscription pairs the stored subscription with its display id,
// which keeps the secret-bearing middle groups masked.
type CreatedSubscription struct {
	Subscription domain.Subscription
	DisplayID    string
}

// CreateSubscription issues a subscription with a verifiable id and registers
// it with the reservation accounting.
func (s *Service) CreateSubscription(ctx context.Context, actorID string, in NewSubscription) (CreatedSubscription, error) {
	const op = "service.admin.CreateSubscription"

	if in.UserName == "" {
		return CreatedSubscription{}, fmt.Errorf("%s: userName required: %w", op, ErrInvalidInput)
	}
	if len(in.Cars) == 0 {
		return CreatedSubscription{}, fmt.Errorf("%s: at least one car required: %w", op, ErrInvalidInput)
	}
	for _, car := range in.Cars {
		if car.Plate == "" {
			return CreatedSubscription{}, fmt.Errorf("%s: car plate required: %w", op, ErrInvalidInput)
		}
	}
	if !in.ExpiresAt.After(in.StartsAt) {
		return CreatedSubscription{}, fmt.Errorf("%s: must expire after it starts: %w", op, ErrInvalidInput)
	}
	if _, ok := s.ledger.Category(in.CategoryID); !ok {
		return CreatedSubscription{}, fmt.Errorf("%s:%w", op, ErrCategoryNotFound)
	}

	sub := domain.Subscription{
		ID:              ids.Issue(ids.KindSubscription),
		UserName:        in.UserName,
		Active:          true,
		CategoryID:      in.CategoryID,
		Cars:            in.Cars,
		StartsAt:        in.StartsAt,
		ExpiresAt:       in.ExpiresAt,
		CurrentCheckins: []domain.CheckinEntry{},
	}

	err := s.uow.Do(ctx, func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error {
		if err := s.store.Subscriptions().With(tx).Insert(ctx, sub); err != nil {
			return err
		}

		after(func(ctx context.Context) {
			s.ledger.UpsertSubscription(sub)
			s.publishAdminEvent(ctx, actorID, "subscription-created", "subscription",
				ids.MaskSubscriptionID(sub.ID), nil)
		})

		return nil
	})
	if err != nil {
		return CreatedSubscription{}, fmt.Errorf("%s:%w", op, err)
	}

	return CreatedSubscription{
		Subscription: sub,
		DisplayID:    ids.MaskSubscriptionID(sub.ID),
	}, nil
}

// StateReport is a point-in-time operator view of the whole facility.
type StateReport struct {
	GeneratedAt time.Time          `json:"generatedAt"`
	Zones       []domain.ZoneState `json:"zones"`
	Categories  []CategoryUsage    `json:"categories"`
}

// CategoryUsage summarizes reservation pressure per category.
type CategoryUsage struct {
	CategoryID        string `json:"categoryId"`
	ActiveSubscribers int    `json:"activeSubscribers"`
}

// ParkingStateReport assembles the operator report from the live ledger.
func (s *Service) ParkingStateReport(ctx context.Context) (StateReport, error) {
	const op = "service.admin.ParkingStateReport"

	categories, err := s.store.Categories().List(ctx)
	if err != nil {
		return StateReport{}, fmt.Errorf("%s:%w", op, err)
	}

	usage := make([]CategoryUsage, 0, len(categories))
	for _, c := range categories {
		usage = append(usage, CategoryUsage{
			CategoryID:        c.ID,
			ActiveSubscribers: s.ledger.ActiveSubscriberCount(c.ID),
		})
	}

	return StateReport{
		GeneratedAt: s.clock.Now(),
		Zones:       s.ledger.SnapshotAll(),
		Categories:  usage,
	}, nil
}

func (s *Service) publishAdminEvent(ctx context.Context, actorID, action, targetType, targetID string, details any) {
	if s.notifier == nil {
		return
	}

	ev := domain.AdminEvent{
		ActorID:    actorID,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Details:    details,
		Timestamp:  s.clock.Now(),
	}
	if err := s.notifier.PublishAdminEvent(ctx, ev); err != nil {
		s.logger.Warn("admin event publish failed", "action", action, "error", err)
	}
}

func (s *Service) publishZoneChanged(ctx context.Context, zoneID string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.PublishZoneChanged(ctx, zoneID); err != nil {
		s.logger.Warn("zone change publish failed", "zone_id", zoneID, "error", err)
	}
}

func (s *Service) invalidateCalendar(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateCalendar(ctx); err != nil {
		s.logger.Warn("calendar cache invalidation failed", "error", err)
	}
}

func (s *Service) invalidateMaster(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateMaster(ctx); err != nil {
		s.logger.Warn("master cache invalidation failed", "error", err)
	}
}
