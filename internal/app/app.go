package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hryhoriev/parkgo/internal/clock"
	"github.com/hryhoriev/parkgo/internal/config"
	"github.com/hryhoriev/parkgo/internal/domain"
	"github.com/hryhoriev/parkgo/internal/postgres"
	"github.com/hryhoriev/parkgo/internal/redisx"
	postgresrepo "github.com/hryhoriev/parkgo/internal/repository/postgres"
	redisrepo "github.com/hryhoriev/parkgo/internal/repository/redis"
	"github.com/hryhoriev/parkgo/internal/service"
	"github.com/hryhoriev/parkgo/internal/service/ledger"
	httpgin "github.com/hryhoriev/parkgo/internal/transport/http/gin"
	"github.com/hryhoriev/parkgo/internal/ws"
	"github.com/hryhoriev/parkgo/migrations"
	"golang.org/x/sync/errgroup"
)

type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	httpServer *http.Server
	broker     *redisx.Broker
	hub        *ws.Hub
}

func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	// Initialize dependencies
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.Postgres.User,
		cfg.Postgres.Password,
		cfg.Postgres.Host,
		cfg.Postgres.Port,
		cfg.Postgres.Name,
		cfg.Postgres.SSLMode,
	)

	pgxPool, err := postgres.New(context.Background(), postgres.Config{DSN: dsn})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize postgres: %w", err)
	}

	if err := migrations.Apply(context.Background(), pgxPool); err != nil {
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	rdb, err := redisx.New(context.Background(), redisx.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize redis: %w", err)
	}

	// Initialize repositories
	store := postgresrepo.NewStore(pgxPool)
	cache := redisrepo.New(rdb)
	broker := redisx.NewBroker(rdb)
	limiter := redisrepo.NewSlidingWindowLimiter(rdb, redisrepo.RateLimitPrefix("checkin"), 30, 1*time.Minute)
	idempotencyStore := redisrepo.NewIdempotencyStore(rdb, 2*time.Hour)

	// Hydrate the occupancy ledger from the store
	led := ledger.New()
	if err := hydrateLedger(context.Background(), led, store); err != nil {
		return nil, fmt.Errorf("failed to hydrate ledger: %w", err)
	}

	// Initialize services
	services := service.NewServices(led, store, cache, broker, limiter, clock.NewSystem(), logger)

	// Initialize observer fan-out
	hub := ws.NewHub(led, logger)

	// Initialize Gin router
	router := httpgin.NewRouter(services, hub, idempotencyStore, logger)

	return &App{
		cfg:    cfg,
		logger: logger,
		httpServer: &http.Server{
			Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler: router,
		},
		broker: broker,
		hub:    hub,
	}, nil
}

func hydrateLedger(ctx context.Context, led *ledger.Service, store *postgresrepo.Store) error {
	categories, err := store.Categories().List(ctx)
	if err != nil {
		return err
	}

	zones, err := store.Zones().List(ctx)
	if err != nil {
		return err
	}

	subs, err := store.Subscriptions().List(ctx)
	if err != nil {
		return err
	}

	openSubscriber, err := store.Tickets().ListOpenSubscriber(ctx)
	if err != nil {
		return err
	}

	led.Hydrate(categories, zones, subs, openSubscriber)
	return nil
}

func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)

	// Start HTTP server
	g.Go(func() error {
		a.logger.Info("HTTP server listening", "host", a.cfg.Server.Host, "port", a.cfg.Server.Port)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		return nil
	})

	// Forward committed zone changes to subscribed observers
	g.Go(func() error {
		err := a.broker.SubscribeZones(gCtx, func(ctx context.Context, zoneID string) {
			a.hub.BroadcastZoneUpdate(zoneID)
		})
		if err != nil && gCtx.Err() == nil {
			return fmt.Errorf("zone change subscription failed: %w", err)
		}
		return nil
	})

	// Forward administrative events to every connected observer
	g.Go(func() error {
		err := a.broker.SubscribeAdminEvents(gCtx, func(ctx context.Context, ev domain.AdminEvent) {
			a.hub.BroadcastAdminEvent(ev)
		})
		if err != nil && gCtx.Err() == nil {
			return fmt.Errorf("admin event subscription failed: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("shutting down HTTP server")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return a.httpServer.Shutdown(ctx)
	})

	return g.Wait()
}
