package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/delivery/internal/domain"
	"github.com/vladislavdragonenkov/delivery/internal/storage/memory"
	"github.com/vladislavdragonenkov/delivery/internal/storage/postgres"
)

// runtimeDependencies — репозитории выбранного хранилища.
type runtimeDependencies struct {
	customers       domain.CustomerRepository
	restaurants     domain.RestaurantRepository
	products        domain.ProductRepository
	orders          domain.OrderRepository
	reports         domain.ReportRepository
	timelineRepo    domain.TimelineRepository
	outboxRepo      domain.OutboxRepository
	idempotencyRepo domain.IdempotencyRepository

	// ping проверяет доступность хранилища для /readyz; nil для memory.
	ping  func(ctx context.Context) error
	close func() error
}

func initRuntimeDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*runtimeDependencies, error) {
	switch cfg.StorageDriver {
	case "", StorageDriverMemory:
		logger.Info("using in-memory storage")
		return newMemoryDependencies(), nil
	case StorageDriverPostgres:
		return newPostgresDependencies(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}
}

func newMemoryDependencies() *runtimeDependencies {
	customers := memory.NewCustomerRepository()
	restaurants := memory.NewRestaurantRepository()
	orders := memory.NewOrderRepository()
	return &runtimeDependencies{
		customers:       customers,
		restaurants:     restaurants,
		products:        memory.NewProductRepository(restaurants),
		orders:          orders,
		reports:         memory.NewReportRepository(orders, customers, restaurants),
		timelineRepo:    memory.NewTimelineRepository(),
		outboxRepo:      memory.NewOutboxRepository(),
		idempotencyRepo: memory.NewIdempotencyRepository(),
		close:           func() error { return nil },
	}
}

func newPostgresDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*runtimeDependencies, error) {
	if cfg.PostgresDSN == "" {
		return nil, fmt.Errorf("DELIVERY_POSTGRES_DSN is required for storage driver %q", StorageDriverPostgres)
	}

	store, err := postgres.Open(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	if cfg.PostgresAutoMigrate {
		applied, err := store.MigrateUp(ctx, 0)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("apply migrations: %w", err)
		}
		logger.WithField("applied", applied).Info("postgres migrations applied")
	}

	logger.Info("using postgres storage")
	return &runtimeDependencies{
		customers:       postgres.NewCustomerRepository(store),
		restaurants:     postgres.NewRestaurantRepository(store),
		products:        postgres.NewProductRepository(store),
		orders:          postgres.NewOrderRepository(store),
		reports:         postgres.NewReportRepository(store),
		timelineRepo:    postgres.NewTimelineRepository(store),
		outboxRepo:      postgres.NewOutboxRepository(store),
		idempotencyRepo: postgres.NewIdempotencyRepository(store),
		ping:            store.Ping,
		close:           store.Close,
	}, nil
}
