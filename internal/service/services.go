package service

import (
	"log/slog"

	"github.com/hryhoriev/parkgo/internal/clock"
	postgres "github.com/hryhoriev/parkgo/internal/repository/postgres"
	redis "github.com/hryhoriev/parkgo/internal/repository/redis"
	"github.com/hryhoriev/parkgo/internal/service/admin"
	"github.com/hryhoriev/parkgo/internal/service/ledger"
	"github.com/hryhoriev/parkgo/internal/service/query"
	"github.com/hryhoriev/parkgo/internal/service/tickets"
	"github.com/hryhoriev/parkgo/internal/uow"
)

type Services struct {
	Ledger  *ledger.Service
	Tickets *tickets.Service
	Query   *query.Service
	Admin   *admin.Service
}

// Notifier bridges committed mutations to the observer fan-out.
type Notifier interface {
	tickets.Publisher
	admin.Notifier
}

func NewServices(
	led *ledger.Service,
	store *postgres.Store,
	cache *redis.Cache,
	notifier Notifier,
	limiter *redis.SlidingWindowLimiter,
	clk clock.Clock,
	logger *slog.Logger,
) *Services {
	u := uow.NewUoW(store)

	return &Services{
		Ledger:  led,
		Tickets: tickets.New(led, store, notifier, cache, limiter, clk, logger),
		Query:   query.New(led, store, cache),
		Admin:   admin.New(store, u, led, cache, notifier, clk, logger),
	}
}
