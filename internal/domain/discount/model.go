package discount

import (
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/vantagebill/vantagebill/internal/types"
)

// Discount is the authoritative local discount entity. The Stripe coupon and
// promotion code are best-effort mirrors of it; the mirror pointer fields are
// nil whenever the corresponding remote object does not exist, regardless of
// why.
type Discount struct {
	ID   string  `json:"id" db:"id"`
	Name string  `json:"name" db:"name"`
	Code *string `json:"code" db:"code"`

	// Pricing shape: exactly one of the two shapes is populated.
	// PercentOff is a whole-percent value (50 means 50% off).
	Type       types.DiscountType `json:"type" db:"type"`
	PercentOff *int64             `json:"percent_off" db:"percent_off"`
	AmountOff  *int64             `json:"amount_off" db:"amount_off"`
	Currency   *string            `json:"currency" db:"currency"`

	// Temporal shape: DurationInMonths is set iff Duration is repeating.
	Duration         types.DiscountDuration `json:"duration" db:"duration"`
	DurationInMonths *int                   `json:"duration_in_months" db:"duration_in_months"`

	MaxRedemptions   *int `json:"max_redemptions" db:"max_redemptions"`
	RedemptionsCount int  `json:"redemptions_count" db:"redemptions_count"`

	// Remote mirror pointers. StripeCouponID is set once and never rewritten;
	// StripePromotionCodeID is never set without a coupon pointer.
	StripeCouponID        *string `json:"stripe_coupon_id" db:"stripe_coupon_id"`
	StripePromotionCodeID *string `json:"stripe_promotion_code_id" db:"stripe_promotion_code_id"`

	DeletedAt *time.Time `json:"deleted_at" db:"deleted_at"`

	// ProductIDs is derived from the association rows and never stored
	// denormalized. An empty set means the discount applies to all products.
	ProductIDs []string `json:"product_ids" db:"-"`

	types.BaseModel
}

// ProductAssociation scopes a discount to a single product. A discount with
// zero associations is global.
type ProductAssociation struct {
	DiscountID string `json:"discount_id" db:"discount_id"`
	ProductID  string `json:"product_id" db:"product_id"`
}

// IsLive reports whether the discount has not been soft deleted
func (d *Discount) IsLive() bool {
	return d.DeletedAt == nil
}

// IsMirrored reports whether a remote coupon exists for this discount
func (d *Discount) IsMirrored() bool {
	return d.StripeCouponID != nil
}

// IsRedeemable checks if the discount can still be redeemed
func (d *Discount) IsRedeemable() bool {
	if !d.IsLive() {
		return false
	}

	if d.MaxRedemptions != nil && d.RedemptionsCount >= *d.MaxRedemptions {
		return false
	}

	return true
}

// AppliesToProduct reports whether the discount is eligible for the given
// product. Zero associations means the discount applies to every product;
// this is a load-bearing invariant, not a default.
func (d *Discount) AppliesToProduct(productID string) bool {
	if len(d.ProductIDs) == 0 {
		return true
	}
	return lo.Contains(d.ProductIDs, productID)
}

// CalculateDiscount calculates the discount amount for a given price in minor
// currency units. Used for local evaluation when the remote mirror is absent.
func (d *Discount) CalculateDiscount(originalPrice decimal.Decimal) decimal.Decimal {
	switch d.Type {
	case types.DiscountTypeFixed:
		if d.AmountOff == nil {
			return decimal.Zero
		}
		return decimal.NewFromInt(*d.AmountOff)
	case types.DiscountTypePercentage:
		if d.PercentOff == nil {
			return decimal.Zero
		}
		return originalPrice.Mul(decimal.NewFromInt(*d.PercentOff)).Div(decimal.NewFromInt(100))
	default:
		return decimal.Zero
	}
}

// ApplyDiscount applies the discount to a given price and returns the final price
func (d *Discount) ApplyDiscount(originalPrice decimal.Decimal) decimal.Decimal {
	finalPrice := originalPrice.Sub(d.CalculateDiscount(originalPrice))

	if finalPrice.LessThan(decimal.Zero) {
		return decimal.Zero
	}

	return finalPrice
}
