package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
	"github.com/vladislavdragonenkov/ecom/internal/health"
	"github.com/vladislavdragonenkov/ecom/internal/metrics"
	"github.com/vladislavdragonenkov/ecom/internal/service/shop"
	"github.com/vladislavdragonenkov/ecom/internal/storage/memory"
	"github.com/vladislavdragonenkov/ecom/internal/storage/postgres"
)

// Dependencies содержит все зависимости приложения.
type Dependencies struct {
	Repos      shop.Repositories
	OutboxRepo domain.OutboxRepository
	Shop       *shop.Service
	// StorageChecker проверяет доступность хранилища для /healthz и /readyz.
	StorageChecker health.Checker
	Logger         *log.Entry

	closeFn func() error
}

// NewDependencies создаёт репозитории выбранного драйвера и сервис магазина.
// Для postgres открывает пул соединений и, если включено, применяет миграции.
func NewDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*Dependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	deps := &Dependencies{Logger: logger}
	switch cfg.StorageDriver {
	case StorageDriverMemory:
		store := memory.NewStore()
		deps.Repos = shop.Repositories{
			Customers: memory.NewCustomerRepository(store),
			Products:  memory.NewProductRepository(store),
			Cart:      memory.NewCartRepository(store),
			Orders:    memory.NewOrderRepository(store),
		}
		deps.OutboxRepo = memory.NewOutboxRepository(store)
		deps.StorageChecker = health.NewPingChecker("storage", func(context.Context) error { return nil })
		logger.WithField("storage_driver", cfg.StorageDriver).Info("storage initialized")

	case StorageDriverPostgres:
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		if cfg.PostgresAutoMigrate {
			if err := store.EnsureSchema(ctx); err != nil {
				_ = store.Close()
				return nil, fmt.Errorf("apply postgres migrations: %w", err)
			}
		}
		deps.Repos = shop.Repositories{
			Customers: postgres.NewCustomerRepository(store),
			Products:  postgres.NewProductRepository(store),
			Cart:      postgres.NewCartRepository(store),
			Orders:    postgres.NewOrderRepository(store),
		}
		deps.OutboxRepo = postgres.NewOutboxRepository(store)
		deps.StorageChecker = health.NewPingChecker("storage", store.Ping)
		deps.closeFn = store.Close
		logger.WithFields(log.Fields{
			"storage_driver": cfg.StorageDriver,
			"auto_migrate":   cfg.PostgresAutoMigrate,
		}).Info("storage initialized")
	}

	deps.Shop = shop.NewService(deps.Repos,
		shop.WithLogger(logger.WithField("layer", "shop")),
		shop.WithMetrics(metrics.NewShopMetrics()),
	)
	return deps, nil
}

// Close освобождает ресурсы хранилища.
func (d *Dependencies) Close() error {
	if d == nil || d.closeFn == nil {
		return nil
	}
	err := d.closeFn()
	d.closeFn = nil
	return err
}
