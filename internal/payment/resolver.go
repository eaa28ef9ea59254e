package payment

import (
	"context"

	"github.com/vantagebill/vantagebill/internal/cache"
	"github.com/vantagebill/vantagebill/internal/domain/connection"
	ierr "github.com/vantagebill/vantagebill/internal/errors"
	"github.com/vantagebill/vantagebill/internal/logger"
	"github.com/vantagebill/vantagebill/internal/types"
)

// AccountResolver maps an organization to the connected merchant account its
// remote mirror operations are scoped to. An empty account ID with a nil
// error means the organization has not completed payment onboarding, which
// is a normal state, not a failure.
type AccountResolver interface {
	Resolve(ctx context.Context, organizationID string) (string, error)
}

type connectionAccountResolver struct {
	connectionRepo connection.Repository
	cache          cache.Cache
	logger         *logger.Logger
}

// NewAccountResolver creates an AccountResolver backed by the organization's
// stored Stripe connection. Lookups are cached; the cache entry is keyed by
// organization so onboarding a new account is picked up after expiry.
func NewAccountResolver(
	connectionRepo connection.Repository,
	cache cache.Cache,
	logger *logger.Logger,
) AccountResolver {
	return &connectionAccountResolver{
		connectionRepo: connectionRepo,
		cache:          cache,
		logger:         logger,
	}
}

func (r *connectionAccountResolver) Resolve(ctx context.Context, organizationID string) (string, error) {
	cacheKey := cache.GenerateKey(cache.PrefixConnection, organizationID, types.PaymentProviderStripe)
	if cached, found := r.cache.Get(ctx, cacheKey); found {
		if accountID, ok := cached.(string); ok {
			return accountID, nil
		}
	}

	conn, err := r.connectionRepo.GetByProvider(ctx, organizationID, types.PaymentProviderStripe)
	if err != nil {
		if ierr.IsNotFound(err) {
			// Not onboarded (or the organization was soft deleted along with
			// its connections). Negative results are not cached so a fresh
			// onboarding is visible immediately.
			return "", nil
		}
		return "", err
	}

	if !conn.IsActive() {
		return "", nil
	}

	r.cache.Set(ctx, cacheKey, conn.AccountID, cache.DefaultExpiration)
	return conn.AccountID, nil
}
