package main

import (
	"context"
	"time"

	"github.com/vantagebill/vantagebill/internal/cache"
	"github.com/vantagebill/vantagebill/internal/config"
	"github.com/vantagebill/vantagebill/internal/domain/connection"
	"github.com/vantagebill/vantagebill/internal/integration/stripe"
	"github.com/vantagebill/vantagebill/internal/logger"
	"github.com/vantagebill/vantagebill/internal/payment"
	"github.com/vantagebill/vantagebill/internal/postgres"
	"github.com/vantagebill/vantagebill/internal/repository"
	"github.com/vantagebill/vantagebill/internal/service"
	"github.com/vantagebill/vantagebill/internal/validator"
	"go.uber.org/fx"
)

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	app := fx.New(
		fx.Provide(
			// Validator
			validator.NewValidator,

			// Config
			config.NewConfig,

			// Logger
			logger.NewLogger,

			// Cache
			cache.Initialize,

			// Postgres
			providePostgresClient,

			// Repositories
			repository.NewDiscountRepository,
			provideConnectionRepository,

			// Payment integration
			provideAccountResolver,
			stripe.NewMirror,

			// Services
			service.NewServiceParams,
			service.NewDiscountService,
			service.NewProductScopeService,
		),
		fx.Invoke(registerLifecycle),
	)

	app.Run()
}

func providePostgresClient(cfg *config.Configuration, logger *logger.Logger) (postgres.IClient, *postgres.DB, error) {
	db, err := postgres.NewDB(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return db, db, nil
}

func provideConnectionRepository(
	db postgres.IClient,
	logger *logger.Logger,
	c *cache.InMemoryCache,
) connection.Repository {
	return repository.NewConnectionRepository(db, logger, c)
}

func provideAccountResolver(
	connectionRepo connection.Repository,
	c *cache.InMemoryCache,
	logger *logger.Logger,
) payment.AccountResolver {
	return payment.NewAccountResolver(connectionRepo, c, logger)
}

func registerLifecycle(
	lc fx.Lifecycle,
	db *postgres.DB,
	logger *logger.Logger,
	discountService service.DiscountService,
	scopeService service.ProductScopeService,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Infow("discount sync engine started")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Infow("shutting down")
			db.Close()
			return nil
		},
	})
}
