package dto

import (
	"strings"

	"github.com/vantagebill/vantagebill/internal/domain/discount"
	ierr "github.com/vantagebill/vantagebill/internal/errors"
	"github.com/vantagebill/vantagebill/internal/types"
	"github.com/vantagebill/vantagebill/internal/validator"
)

// CreateDiscountRequest represents the request to create a new discount
type CreateDiscountRequest struct {
	Name string `json:"name" validate:"required"`

	// Code is the optional human-enterable code. GenerateCode asks the
	// system to generate one instead; the two are mutually exclusive.
	Code         *string `json:"code,omitempty"`
	GenerateCode bool    `json:"generate_code,omitempty"`

	Type       types.DiscountType `json:"type" validate:"required,oneof=fixed percentage"`
	PercentOff *int64             `json:"percent_off,omitempty"`
	AmountOff  *int64             `json:"amount_off,omitempty"`
	Currency   *string            `json:"currency,omitempty"`

	Duration         types.DiscountDuration `json:"duration" validate:"required,oneof=once forever repeating"`
	DurationInMonths *int                   `json:"duration_in_months,omitempty"`

	MaxRedemptions *int `json:"max_redemptions,omitempty"`

	ProductIDs []string `json:"product_ids,omitempty"`
}

// Validate validates the CreateDiscountRequest, enforcing the pricing-shape
// and temporal-shape invariants before any side effect
func (r *CreateDiscountRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}

	switch r.Type {
	case types.DiscountTypePercentage:
		if r.PercentOff == nil {
			return ierr.NewError("percent_off is required for percentage discount").
				WithHint("Please provide a percentage between 1 and 100").
				Mark(ierr.ErrValidation)
		}
		if *r.PercentOff < 1 || *r.PercentOff > 100 {
			return ierr.NewError("percent_off must be between 1 and 100").
				WithHint("Please provide a valid percentage between 1 and 100").
				Mark(ierr.ErrValidation)
		}
		if r.AmountOff != nil || r.Currency != nil {
			return ierr.NewError("amount_off and currency must not be set for percentage discount").
				WithHint("A discount is either percentage-based or fixed, not both").
				Mark(ierr.ErrValidation)
		}
	case types.DiscountTypeFixed:
		if r.AmountOff == nil || *r.AmountOff <= 0 {
			return ierr.NewError("amount_off must be greater than zero for fixed discount").
				WithHint("Please provide a valid discount amount in minor currency units").
				Mark(ierr.ErrValidation)
		}
		if r.Currency == nil || *r.Currency == "" {
			return ierr.NewError("currency is required for fixed discount").
				WithHint("Please provide a currency code").
				Mark(ierr.ErrValidation)
		}
		if r.PercentOff != nil {
			return ierr.NewError("percent_off must not be set for fixed discount").
				WithHint("A discount is either percentage-based or fixed, not both").
				Mark(ierr.ErrValidation)
		}
	default:
		return ierr.NewError("type is required").
			WithHint("Please provide a discount type (fixed or percentage)").
			Mark(ierr.ErrValidation)
	}

	switch r.Duration {
	case types.DiscountDurationOnce, types.DiscountDurationForever:
		if r.DurationInMonths != nil {
			return ierr.NewError("duration_in_months should not be set for non-repeating duration").
				WithHint("Duration in months is only applicable for repeating duration").
				Mark(ierr.ErrValidation)
		}
	case types.DiscountDurationRepeating:
		if r.DurationInMonths == nil || *r.DurationInMonths <= 0 {
			return ierr.NewError("duration_in_months is required for repeating duration").
				WithHint("Please specify how many months this discount should apply for").
				Mark(ierr.ErrValidation)
		}
	default:
		return ierr.NewError("duration is required").
			WithHint("Please provide a discount duration (once, forever, or repeating)").
			Mark(ierr.ErrValidation)
	}

	if r.MaxRedemptions != nil && *r.MaxRedemptions <= 0 {
		return ierr.NewError("max_redemptions must be greater than zero").
			WithHint("Please provide a valid maximum redemption count").
			Mark(ierr.ErrValidation)
	}

	if r.Code != nil {
		if strings.TrimSpace(*r.Code) == "" {
			return ierr.NewError("code cannot be empty").
				WithHint("Please provide a non-empty discount code or omit it").
				Mark(ierr.ErrValidation)
		}
		if r.GenerateCode {
			return ierr.NewError("code and generate_code are mutually exclusive").
				WithHint("Either provide a code or ask for a generated one, not both").
				Mark(ierr.ErrValidation)
		}
	}

	return nil
}

// UpdateDiscountRequest represents the request to update an existing
// discount. The pricing magnitude is deliberately absent: the remote coupon
// cannot change it after creation, so the local model does not either.
type UpdateDiscountRequest struct {
	Name *string `json:"name,omitempty"`

	// Code semantics: nil leaves the code unchanged; an empty string removes
	// it; any other value replaces it.
	Code *string `json:"code,omitempty"`

	Duration         *types.DiscountDuration `json:"duration,omitempty"`
	DurationInMonths *int                    `json:"duration_in_months,omitempty"`

	MaxRedemptions *int `json:"max_redemptions,omitempty"`

	// ProductIDs replaces the product scope when present. An explicit empty
	// list widens the discount to all products.
	ProductIDs *[]string `json:"product_ids,omitempty"`
}

// Validate validates the UpdateDiscountRequest
func (r *UpdateDiscountRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}

	if r.Name != nil && *r.Name == "" {
		return ierr.NewError("name cannot be empty").
			WithHint("Please provide a non-empty discount name").
			Mark(ierr.ErrValidation)
	}

	if r.Duration != nil {
		switch *r.Duration {
		case types.DiscountDurationOnce, types.DiscountDurationForever:
			if r.DurationInMonths != nil {
				return ierr.NewError("duration_in_months should not be set for non-repeating duration").
					WithHint("Duration in months is only applicable for repeating duration").
					Mark(ierr.ErrValidation)
			}
		case types.DiscountDurationRepeating:
			if r.DurationInMonths == nil || *r.DurationInMonths <= 0 {
				return ierr.NewError("duration_in_months is required for repeating duration").
					WithHint("Please specify how many months this discount should apply for").
					Mark(ierr.ErrValidation)
			}
		default:
			return ierr.NewError("invalid duration").
				WithHint("Duration must be once, forever, or repeating").
				Mark(ierr.ErrValidation)
		}
	} else if r.DurationInMonths != nil && *r.DurationInMonths <= 0 {
		// A months-only patch is allowed when the stored duration is
		// repeating; the service checks that against the loaded discount
		return ierr.NewError("duration_in_months must be greater than zero").
			WithHint("Please specify how many months this discount should apply for").
			Mark(ierr.ErrValidation)
	}

	if r.MaxRedemptions != nil && *r.MaxRedemptions <= 0 {
		return ierr.NewError("max_redemptions must be greater than zero").
			WithHint("Please provide a valid maximum redemption count").
			Mark(ierr.ErrValidation)
	}

	return nil
}

// DiscountResponse represents a discount in API responses. ProductIDs is
// always populated from the association rows, and the mirror pointers are
// read-only: callers can never set them directly.
type DiscountResponse struct {
	*discount.Discount
}

// ListDiscountsResponse represents a paginated list of discounts
type ListDiscountsResponse = types.ListResponse[*DiscountResponse]
