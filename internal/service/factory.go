package service

import (
	"github.com/vantagebill/vantagebill/internal/config"
	"github.com/vantagebill/vantagebill/internal/domain/connection"
	"github.com/vantagebill/vantagebill/internal/domain/discount"
	"github.com/vantagebill/vantagebill/internal/logger"
	"github.com/vantagebill/vantagebill/internal/payment"
	"github.com/vantagebill/vantagebill/internal/postgres"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	DB     postgres.IClient

	// Repositories
	DiscountRepo   discount.Repository
	ConnectionRepo connection.Repository

	// Payment integration
	AccountResolver payment.AccountResolver
	PaymentMirror   payment.Mirror
}

// NewServiceParams creates a new ServiceParams with all dependencies
func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	db postgres.IClient,
	discountRepo discount.Repository,
	connectionRepo connection.Repository,
	accountResolver payment.AccountResolver,
	paymentMirror payment.Mirror,
) ServiceParams {
	return ServiceParams{
		Logger:          logger,
		Config:          config,
		DB:              db,
		DiscountRepo:    discountRepo,
		ConnectionRepo:  connectionRepo,
		AccountResolver: accountResolver,
		PaymentMirror:   paymentMirror,
	}
}
