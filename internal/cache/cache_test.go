package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateKey(t *testing.T) {
	key := GenerateKey(PrefixConnection, "org_1", "stripe")
	assert.Equal(t, "connection:v1::org_1:stripe", key)
}

func TestDeleteByPrefixScopesToOrganization(t *testing.T) {
	c := GetInMemoryCache()
	ctx := context.Background()
	t.Cleanup(func() { c.Flush(ctx) })

	c.Set(ctx, GenerateKey(PrefixConnection, "org_1", "stripe"), "acct_1", DefaultExpiration)
	c.Set(ctx, GenerateKey(PrefixConnection, "org_2", "stripe"), "acct_2", DefaultExpiration)

	// Invalidation key used when an organization's connection changes
	c.DeleteByPrefix(ctx, GenerateKey(PrefixConnection, "org_1"))

	_, found := c.Get(ctx, GenerateKey(PrefixConnection, "org_1", "stripe"))
	assert.False(t, found)

	value, found := c.Get(ctx, GenerateKey(PrefixConnection, "org_2", "stripe"))
	assert.True(t, found)
	assert.Equal(t, "acct_2", value)
}
