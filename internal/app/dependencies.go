package app

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/yuridenisov/oims/internal/config"
	"github.com/yuridenisov/oims/internal/domain"
	"github.com/yuridenisov/oims/internal/storage/memory"
	"github.com/yuridenisov/oims/internal/storage/postgres"
)

// Dependencies содержит структурные зависимости приложения.
type Dependencies struct {
	Users    domain.UserRepository
	Products domain.ProductRepository
	Orders   domain.OrderRepository
	Store    *postgres.Store // nil при in-memory хранилище
	Logger   *log.Entry
}

// NewDependencies инициализирует хранилище по конфигурации:
// PostgreSQL при заданном DSN (с прогоном миграций), иначе in-memory.
func NewDependencies(ctx context.Context, cfg config.Config, logger *log.Entry) (*Dependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	if cfg.PostgresDSN == "" {
		logger.Info("no postgres dsn configured, using in-memory storage")
		return &Dependencies{
			Users:    memory.NewUserRepository(),
			Products: memory.NewProductRepository(),
			Orders:   memory.NewOrderRepository(),
			Logger:   logger,
		}, nil
	}

	store, err := postgres.Open(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}
	if err := store.EnsureSchema(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	logger.Info("postgres storage initialized")

	return &Dependencies{
		Users:    postgres.NewUserRepository(store),
		Products: postgres.NewProductRepository(store),
		Orders:   postgres.NewOrderRepository(store),
		Store:    store,
		Logger:   logger,
	}, nil
}

// Close освобождает ресурсы хранилища.
func (d *Dependencies) Close() error {
	if d.Store != nil {
		return d.Store.Close()
	}
	return nil
}
