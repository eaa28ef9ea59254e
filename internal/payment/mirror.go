package payment

import (
	"context"

	"github.com/vantagebill/vantagebill/internal/types"
)

// CouponSpec describes the remote coupon to create for a discount. Exactly
// one of PercentOff or (AmountOff, Currency) is set, matching the local
// pricing-shape invariant.
type CouponSpec struct {
	Name             string
	Duration         types.DiscountDuration
	DurationInMonths *int
	MaxRedemptions   *int

	// PercentOff is a whole-percent value (50 means 50% off)
	PercentOff *int64
	// AmountOff is in minor currency units and requires Currency
	AmountOff *int64
	Currency  *string
}

// Mirror is the narrow boundary to the payment processor's coupon and
// promotion-code objects. All operations are scoped to a connected merchant
// account. Implementations must not leak vendor SDK types through this
// interface, and must bound every call with a request timeout.
//
// Any call may fail transiently (network, rate limit) or permanently
// (invalid request). The sync engine treats both identically today;
// retrying transient failures is a known extension point.
type Mirror interface {
	// CreateCoupon creates the remote coupon and returns its identifier
	CreateCoupon(ctx context.Context, accountID string, spec CouponSpec) (string, error)

	// CreatePromotionCode binds a human-enterable code to an existing coupon
	CreatePromotionCode(ctx context.Context, accountID string, couponID string, code string) (string, error)

	// UpdateCouponName updates the coupon's name. Name (and metadata) is the
	// only field the remote object model allows to change after creation;
	// the discount magnitude must never be sent in an update.
	UpdateCouponName(ctx context.Context, accountID string, couponID string, name string) error

	// DeactivatePromotionCode disables a promotion code. Deactivating an
	// already-inactive code is not an error.
	DeactivatePromotionCode(ctx context.Context, accountID string, promotionCodeID string) error

	// DeleteCoupon deletes the remote coupon
	DeleteCoupon(ctx context.Context, accountID string, couponID string) error
}
