package connection

import (
	"context"

	"github.com/vantagebill/vantagebill/internal/types"
)

// Repository defines the interface for connection data access
type Repository interface {
	Create(ctx context.Context, conn *Connection) error
	Get(ctx context.Context, id string) (*Connection, error)
	// GetByProvider returns the published connection for the given
	// organization and provider, or a not-found error
	GetByProvider(ctx context.Context, organizationID string, provider types.PaymentProvider) (*Connection, error)
	Update(ctx context.Context, conn *Connection) error
	Delete(ctx context.Context, id string) error
}
