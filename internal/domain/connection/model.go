package connection

import (
	"github.com/vantagebill/vantagebill/internal/types"
)

// Connection records an organization's link to an external payment provider,
// including the connected merchant account all mirror operations are scoped
// to. An organization without a published connection has not completed
// payment onboarding.
type Connection struct {
	ID             string                `db:"id" json:"id"`
	Name           string                `db:"name" json:"name"`
	ProviderType   types.PaymentProvider `db:"provider_type" json:"provider_type"`
	AccountID      string                `db:"account_id" json:"account_id"`
	Metadata       types.Metadata        `db:"metadata" json:"metadata"`
	types.BaseModel
}

// IsActive reports whether the connection can be used to scope remote calls
func (c *Connection) IsActive() bool {
	return c.Status == types.StatusPublished && c.AccountID != ""
}
