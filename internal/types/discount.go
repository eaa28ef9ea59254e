package types

import (
	ierr "github.com/vantagebill/vantagebill/internal/errors"
)

// DiscountType represents the pricing shape of a discount (fixed or percentage)
type DiscountType string

const (
	// DiscountTypeFixed represents a fixed amount discount in minor currency units
	DiscountTypeFixed DiscountType = "fixed"
	// DiscountTypePercentage represents a percentage-based discount
	DiscountTypePercentage DiscountType = "percentage"
)

// DiscountDuration represents the temporal shape of a discount
type DiscountDuration string

const (
	// DiscountDurationOnce applies the discount a single time
	DiscountDurationOnce DiscountDuration = "once"
	// DiscountDurationForever applies the discount on every billing period
	DiscountDurationForever DiscountDuration = "forever"
	// DiscountDurationRepeating applies the discount for a fixed number of months
	DiscountDurationRepeating DiscountDuration = "repeating"
)

// DiscountFilter represents the filter options for listing discounts
type DiscountFilter struct {
	*QueryFilter

	DiscountIDs  []string      `json:"discount_ids,omitempty" form:"discount_ids"`
	DiscountType *DiscountType `json:"discount_type,omitempty" form:"discount_type"`
	NameContains *string       `json:"name_contains,omitempty" form:"name_contains"`
	Code         *string       `json:"code,omitempty" form:"code"`
}

// NewDiscountFilter creates a new discount filter with default options
func NewDiscountFilter() *DiscountFilter {
	return &DiscountFilter{
		QueryFilter: NewDefaultQueryFilter(),
	}
}

// NewNoLimitDiscountFilter creates a new discount filter without pagination
func NewNoLimitDiscountFilter() *DiscountFilter {
	return &DiscountFilter{
		QueryFilter: NewNoLimitQueryFilter(),
	}
}

// Validate validates the discount filter
func (f *DiscountFilter) Validate() error {
	if f.QueryFilter != nil {
		if err := f.QueryFilter.Validate(); err != nil {
			return ierr.WithError(err).
				WithHint("Invalid pagination parameters").
				Mark(ierr.ErrValidation)
		}
	}

	if f.DiscountType != nil {
		switch *f.DiscountType {
		case DiscountTypeFixed, DiscountTypePercentage:
		default:
			return ierr.NewError("invalid discount type").
				WithHint("Discount type must be fixed or percentage").
				Mark(ierr.ErrValidation)
		}
	}

	return nil
}

// GetLimit implements BaseFilter
func (f *DiscountFilter) GetLimit() int {
	if f.QueryFilter == nil {
		return NewDefaultQueryFilter().GetLimit()
	}
	return f.QueryFilter.GetLimit()
}

// GetOffset implements BaseFilter
func (f *DiscountFilter) GetOffset() int {
	if f.QueryFilter == nil {
		return NewDefaultQueryFilter().GetOffset()
	}
	return f.QueryFilter.GetOffset()
}

// GetStatus implements BaseFilter
func (f *DiscountFilter) GetStatus() string {
	if f.QueryFilter == nil {
		return NewDefaultQueryFilter().GetStatus()
	}
	return f.QueryFilter.GetStatus()
}

// GetSort implements BaseFilter
func (f *DiscountFilter) GetSort() string {
	if f.QueryFilter == nil {
		return NewDefaultQueryFilter().GetSort()
	}
	return f.QueryFilter.GetSort()
}

// GetOrder implements BaseFilter
func (f *DiscountFilter) GetOrder() string {
	if f.QueryFilter == nil {
		return NewDefaultQueryFilter().GetOrder()
	}
	return f.QueryFilter.GetOrder()
}

// IsUnlimited implements BaseFilter
func (f *DiscountFilter) IsUnlimited() bool {
	if f.QueryFilter == nil {
		return NewDefaultQueryFilter().IsUnlimited()
	}
	return f.QueryFilter.IsUnlimited()
}
