package payment_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vantagebill/vantagebill/internal/cache"
	"github.com/vantagebill/vantagebill/internal/domain/connection"
	"github.com/vantagebill/vantagebill/internal/logger"
	"github.com/vantagebill/vantagebill/internal/payment"
	"github.com/vantagebill/vantagebill/internal/testutil"
	"github.com/vantagebill/vantagebill/internal/types"
)

func newResolver(t *testing.T) (payment.AccountResolver, *testutil.InMemoryConnectionStore) {
	t.Helper()

	log := logger.GetLogger()
	c := cache.NewInMemoryCache()
	store := testutil.NewInMemoryConnectionStore()

	ctx := testutil.SetupContext()
	t.Cleanup(func() { c.Flush(ctx) })

	return payment.NewAccountResolver(store, c, log), store
}

func TestResolveWithoutConnection(t *testing.T) {
	resolver, _ := newResolver(t)
	ctx := testutil.SetupContext()

	// Not onboarded is a normal state, not an error
	accountID, err := resolver.Resolve(ctx, types.DefaultOrganizationID)
	require.NoError(t, err)
	assert.Empty(t, accountID)
}

func TestResolvePublishedConnection(t *testing.T) {
	resolver, store := newResolver(t)
	ctx := testutil.SetupContext()

	conn := &connection.Connection{
		ID:           types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CONNECTION),
		Name:         "Stripe",
		ProviderType: types.PaymentProviderStripe,
		AccountID:    "acct_live42",
		BaseModel:    types.GetDefaultBaseModel(ctx),
	}
	require.NoError(t, store.Create(ctx, conn))

	accountID, err := resolver.Resolve(ctx, types.DefaultOrganizationID)
	require.NoError(t, err)
	assert.Equal(t, "acct_live42", accountID)

	// The second resolution is served from cache even if the row vanishes
	require.NoError(t, store.Delete(ctx, conn.ID))
	accountID, err = resolver.Resolve(ctx, types.DefaultOrganizationID)
	require.NoError(t, err)
	assert.Equal(t, "acct_live42", accountID)
}

func TestResolveArchivedConnection(t *testing.T) {
	resolver, store := newResolver(t)
	ctx := testutil.SetupContext()

	conn := &connection.Connection{
		ID:           types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CONNECTION),
		Name:         "Stripe",
		ProviderType: types.PaymentProviderStripe,
		AccountID:    "acct_old",
		BaseModel:    types.GetDefaultBaseModel(ctx),
	}
	conn.Status = types.StatusArchived
	require.NoError(t, store.Create(ctx, conn))

	accountID, err := resolver.Resolve(ctx, types.DefaultOrganizationID)
	require.NoError(t, err)
	assert.Empty(t, accountID)
}
