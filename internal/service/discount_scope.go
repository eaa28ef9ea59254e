package service

import (
	"context"

	"github.com/samber/lo"
	"github.com/vantagebill/vantagebill/internal/api/dto"
	"github.com/vantagebill/vantagebill/internal/domain/discount"
	"github.com/vantagebill/vantagebill/internal/types"
)

// ProductScopeService answers product-eligibility questions about discounts.
// A discount with no product associations applies to every product.
type ProductScopeService interface {
	// AppliesTo reports whether the discount can be applied to the product
	AppliesTo(ctx context.Context, discountID string, productID string) (bool, error)

	// FindApplicable returns all live, redeemable discounts eligible for the
	// product
	FindApplicable(ctx context.Context, productID string) ([]*dto.DiscountResponse, error)
}

type productScopeService struct {
	ServiceParams
}

// NewProductScopeService creates a new product scope service
func NewProductScopeService(
	params ServiceParams,
) ProductScopeService {
	return &productScopeService{
		ServiceParams: params,
	}
}

func (s *productScopeService) AppliesTo(ctx context.Context, discountID string, productID string) (bool, error) {
	d, err := s.DiscountRepo.Get(ctx, discountID)
	if err != nil {
		return false, err
	}

	if !d.IsLive() {
		return false, nil
	}

	associations, err := s.DiscountRepo.GetProductAssociations(ctx, []string{d.ID})
	if err != nil {
		return false, err
	}
	d.ProductIDs = associations[d.ID]

	return d.AppliesToProduct(productID), nil
}

func (s *productScopeService) FindApplicable(ctx context.Context, productID string) ([]*dto.DiscountResponse, error) {
	filter := types.NewNoLimitDiscountFilter()
	discounts, err := s.DiscountRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	if len(discounts) == 0 {
		return []*dto.DiscountResponse{}, nil
	}

	// One association query for the whole candidate set
	discountIDs := lo.Map(discounts, func(d *discount.Discount, _ int) string {
		return d.ID
	})
	associations, err := s.DiscountRepo.GetProductAssociations(ctx, discountIDs)
	if err != nil {
		return nil, err
	}

	var result []*dto.DiscountResponse
	for _, d := range discounts {
		d.ProductIDs = associations[d.ID]
		if !d.IsRedeemable() {
			continue
		}
		if !d.AppliesToProduct(productID) {
			continue
		}
		result = append(result, &dto.DiscountResponse{Discount: d})
	}

	return result, nil
}
