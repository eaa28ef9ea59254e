package repository

import (
	"github.com/vantagebill/vantagebill/internal/cache"
	"github.com/vantagebill/vantagebill/internal/domain/connection"
	"github.com/vantagebill/vantagebill/internal/domain/discount"
	"github.com/vantagebill/vantagebill/internal/logger"
	"github.com/vantagebill/vantagebill/internal/postgres"
	postgresRepo "github.com/vantagebill/vantagebill/internal/repository/postgres"
)

func NewDiscountRepository(db postgres.IClient, logger *logger.Logger) discount.Repository {
	return postgresRepo.NewDiscountRepository(db, logger)
}

func NewConnectionRepository(db postgres.IClient, logger *logger.Logger, cache cache.Cache) connection.Repository {
	return postgresRepo.NewConnectionRepository(db, logger, cache)
}
