// Package query serves the read side: master data listings and live zone
// occupancy views.
package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hryhoriev/parkgo/internal/domain"
	"github.com/hryhoriev/parkgo/internal/ids"
	"github.com/hryhoriev/parkgo/internal/repository"
	redisrepo "github.com/hryhoriev/parkgo/internal/repository/redis"
	"github.com/hryhoriev/parkgo/internal/service/ledger"
)

// Store is the persistence the read side lists master data from.
type Store interface {
	ListGates(ctx context.Context) ([]domain.Gate, error)
	GetGate(ctx context.Context, id string) (domain.Gate, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
}

type Service struct {
	ledger *ledger.Service
	store  Store
	cache  *redisrepo.Cache
}

func New(ledger *ledger.Service, store Store, cache *redisrepo.Cache) *Service {
	return &Service{
		ledger: ledger,
		store:  store,
		cache:  cache,
	}
}

const masterCacheTTL = 60 * time.Second

// Gates lists all gates with the zones they serve.
func (s *Service) Gates(ctx context.Context) ([]domain.Gate, error) {
	const op = "service.query.Gates"

	if s.cache == nil {
		gates, err := s.store.ListGates(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s:%w", op, err)
		}
		return gates, nil
	}

	gates, err := redisrepo.GetOrSetJSON(ctx, s.cache, redisrepo.KeyGates(), masterCacheTTL,
		func(ctx context.Context) ([]domain.Gate, error) {
			return s.store.ListGates(ctx)
		})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return gates, nil
}

// Gate returns a single gate by id.
func (s *Service) Gate(ctx context.Context, id string) (domain.Gate, error) {
	const op = "service.query.Gate"

	gate, err := s.store.GetGate(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Gate{}, fmt.Errorf("%s:%w", op, ErrGateNotFound)
		}
		return domain.Gate{}, fmt.Errorf("%s:%w", op, err)
	}

	return gate, nil
}

// Categories lists all tariff categories.
func (s *Service) Categories(ctx context.Context) ([]domain.Category, error) {
	const op = "service.query.Categories"

	if s.cache == nil {
		categories, err := s.store.ListCategories(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s:%w", op, err)
		}
		return categories, nil
	}

	categories, err := redisrepo.GetOrSetJSON(ctx, s.cache, redisrepo.KeyCategories(), masterCacheTTL,
		func(ctx context.Context) ([]domain.Category, error) {
			return s.store.ListCategories(ctx)
		})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return categories, nil
}

// ZoneStates returns the current occupancy view of every zone.
func (s *Service) ZoneStates(ctx context.Context) []domain.ZoneState {
	return s.ledger.SnapshotAll()
}

// ZoneStatesForGate returns the occupancy view of the zones a gate serves.
func (s *Service) ZoneStatesForGate(ctx context.Context, gateID string) ([]domain.ZoneState, error) {
	const op = "service.query.ZoneStatesForGate"

	if _, err := s.store.GetGate(ctx, gateID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s:%w", op, ErrGateNotFound)
		}
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return s.ledger.SnapshotsForGate(gateID), nil
}

// ZoneState returns the occupancy view of one zone.
func (s *Service) ZoneState(ctx context.Context, zoneID string) (domain.ZoneState, error) {
	const op = "service.query.ZoneState"

	state, err := s.ledger.Snapshot(zoneID)
	if err != nil {
		return domain.ZoneState{}, fmt.Errorf("%s:%w", op, ErrZoneNotFound)
	}

	return state, nil
}

// Subscription returns a subscription by id with the subscription id masked
// for display.
func (s *Service) Subscription(ctx context.Context, id string) (domain.Subscription, string, error) {
	const op = "service.query.Subscription"

	sub, ok := s.ledger.Subscription(id)
	if !ok {
		return domain.Subscription{}, "", fmt.Errorf("%s:%w", op, ErrSubscriptionNotFound)
	}

	return sub, ids.MaskSubscriptionID(sub.ID), nil
}

// SubscriptionByPlate finds the active subscription covering a license plate.
func (s *Service) SubscriptionByPlate(ctx context.Context, plate string) (domain.Subscription, error) {
	const op = "service.query.SubscriptionByPlate"

	sub, ok := s.ledger.FindSubscriptionByPlate(plate)
	if !ok {
		return domain.Subscription{}, fmt.Errorf("%s:%w", op, ErrSubscriptionNotFound)
	}

	return sub, nil
}
