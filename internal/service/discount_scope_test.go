package service

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/suite"
	"github.com/vantagebill/vantagebill/internal/api/dto"
	"github.com/vantagebill/vantagebill/internal/domain/discount"
	"github.com/vantagebill/vantagebill/internal/testutil"
	"github.com/vantagebill/vantagebill/internal/types"
)

type ProductScopeServiceSuite struct {
	testutil.BaseServiceTestSuite
	scopeService ProductScopeService
	discountRepo *testutil.InMemoryDiscountStore
}

func TestProductScopeService(t *testing.T) {
	suite.Run(t, new(ProductScopeServiceSuite))
}

func (s *ProductScopeServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()

	stores := s.GetStores()
	s.discountRepo = stores.DiscountRepo.(*testutil.InMemoryDiscountStore)

	params := ServiceParams{
		Logger:       s.GetLogger(),
		Config:       s.GetConfig(),
		DB:           s.GetDB(),
		DiscountRepo: stores.DiscountRepo,
	}

	s.scopeService = NewProductScopeService(params)
}

// seedDiscount stores a discount directly with the given product scope
func (s *ProductScopeServiceSuite) seedDiscount(name string, productIDs []string, mutate func(*discount.Discount)) *discount.Discount {
	d := &discount.Discount{
		ID:         types.GenerateUUIDWithPrefix(types.UUID_PREFIX_DISCOUNT),
		Name:       name,
		Type:       types.DiscountTypePercentage,
		PercentOff: lo.ToPtr(int64(10)),
		Duration:   types.DiscountDurationOnce,
		BaseModel:  types.GetDefaultBaseModel(s.GetContext()),
	}
	if mutate != nil {
		mutate(d)
	}

	s.NoError(s.discountRepo.Create(s.GetContext(), d))
	s.NoError(s.discountRepo.CreateProductAssociations(s.GetContext(), d.ID, productIDs))
	return d
}

func (s *ProductScopeServiceSuite) TestAppliesTo() {
	global := s.seedDiscount("Global", nil, nil)
	scoped := s.seedDiscount("Scoped", []string{"prod_1", "prod_2"}, nil)

	testCases := []struct {
		name       string
		discountID string
		productID  string
		want       bool
	}{
		{
			name:       "global_discount_applies_to_any_product",
			discountID: global.ID,
			productID:  "prod_999",
			want:       true,
		},
		{
			name:       "scoped_discount_applies_to_member",
			discountID: scoped.ID,
			productID:  "prod_2",
			want:       true,
		},
		{
			name:       "scoped_discount_rejects_non_member",
			discountID: scoped.ID,
			productID:  "prod_3",
			want:       false,
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			got, err := s.scopeService.AppliesTo(s.GetContext(), tc.discountID, tc.productID)
			s.NoError(err)
			s.Equal(tc.want, got)
		})
	}
}

func (s *ProductScopeServiceSuite) TestAppliesToDeletedDiscount() {
	d := s.seedDiscount("Deleted", nil, nil)
	s.NoError(s.discountRepo.SoftDelete(s.GetContext(), d.ID))

	got, err := s.scopeService.AppliesTo(s.GetContext(), d.ID, "prod_1")
	s.NoError(err)
	s.False(got)
}

func (s *ProductScopeServiceSuite) TestFindApplicable() {
	s.seedDiscount("Global", nil, nil)
	s.seedDiscount("Matching", []string{"prod_1"}, nil)
	s.seedDiscount("Other Product", []string{"prod_2"}, nil)
	s.seedDiscount("Exhausted", []string{"prod_1"}, func(d *discount.Discount) {
		d.MaxRedemptions = lo.ToPtr(5)
		d.RedemptionsCount = 5
	})

	deleted := s.seedDiscount("Deleted", []string{"prod_1"}, nil)
	s.NoError(s.discountRepo.SoftDelete(s.GetContext(), deleted.ID))

	s.discountRepo.AssociationLookupCalls = 0

	result, err := s.scopeService.FindApplicable(s.GetContext(), "prod_1")
	s.NoError(err)

	names := lo.Map(result, func(r *dto.DiscountResponse, _ int) string {
		return r.Name
	})
	s.ElementsMatch([]string{"Global", "Matching"}, names)

	// Eligibility for the whole candidate set was resolved with one
	// association query
	s.Equal(1, s.discountRepo.AssociationLookupCalls)
}

func (s *ProductScopeServiceSuite) TestFindApplicableEmptyStore() {
	result, err := s.scopeService.FindApplicable(s.GetContext(), "prod_1")
	s.NoError(err)
	s.Empty(result)
}
