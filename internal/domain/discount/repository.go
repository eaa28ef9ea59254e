package discount

import (
	"context"

	"github.com/vantagebill/vantagebill/internal/types"
)

// Repository defines the interface for discount data access, including the
// product-association rows that scope a discount
type Repository interface {
	Create(ctx context.Context, d *Discount) error
	Get(ctx context.Context, id string) (*Discount, error)
	// GetByCode returns the live (non-deleted) discount with the given code
	// within an organization, or a not-found error
	GetByCode(ctx context.Context, organizationID string, code string) (*Discount, error)
	List(ctx context.Context, filter *types.DiscountFilter) ([]*Discount, error)
	Count(ctx context.Context, filter *types.DiscountFilter) (int, error)
	Update(ctx context.Context, d *Discount) error
	// SoftDelete marks the discount deleted without removing the row
	SoftDelete(ctx context.Context, id string) error

	// IncrementRedemptions bumps the monotonic redemption counter. The sync
	// engine never calls this; checkout-side consumers own it.
	IncrementRedemptions(ctx context.Context, id string) error

	CreateProductAssociations(ctx context.Context, discountID string, productIDs []string) error
	ReplaceProductAssociations(ctx context.Context, discountID string, productIDs []string) error
	// GetProductAssociations loads the associations for all given discounts in
	// a single batched lookup, keyed by discount ID. Discounts with no
	// associations are absent from the result.
	GetProductAssociations(ctx context.Context, discountIDs []string) (map[string][]string, error)
}
