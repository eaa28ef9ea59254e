package service

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/suite"
	"github.com/vantagebill/vantagebill/internal/api/dto"
	"github.com/vantagebill/vantagebill/internal/cache"
	"github.com/vantagebill/vantagebill/internal/domain/connection"
	"github.com/vantagebill/vantagebill/internal/errors"
	"github.com/vantagebill/vantagebill/internal/payment"
	"github.com/vantagebill/vantagebill/internal/testutil"
	"github.com/vantagebill/vantagebill/internal/types"
)

type DiscountServiceSuite struct {
	testutil.BaseServiceTestSuite
	service      DiscountService
	discountRepo *testutil.InMemoryDiscountStore
	mirror       *testutil.MockPaymentMirror
}

func TestDiscountService(t *testing.T) {
	suite.Run(t, new(DiscountServiceSuite))
}

func (s *DiscountServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()

	stores := s.GetStores()
	s.discountRepo = stores.DiscountRepo.(*testutil.InMemoryDiscountStore)
	s.mirror = s.GetMirror()

	resolver := payment.NewAccountResolver(stores.ConnectionRepo, cache.GetInMemoryCache(), s.GetLogger())

	params := ServiceParams{
		Logger:          s.GetLogger(),
		Config:          s.GetConfig(),
		DB:              s.GetDB(),
		DiscountRepo:    stores.DiscountRepo,
		ConnectionRepo:  stores.ConnectionRepo,
		AccountResolver: resolver,
		PaymentMirror:   s.mirror,
	}

	s.service = NewDiscountService(params)
}

// onboardStripe stores a published Stripe connection for the test
// organization so mirror operations have an account to target
func (s *DiscountServiceSuite) onboardStripe() {
	conn := &connection.Connection{
		ID:           types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CONNECTION),
		Name:         "Stripe",
		ProviderType: types.PaymentProviderStripe,
		AccountID:    "acct_test123",
		BaseModel:    types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().ConnectionRepo.Create(s.GetContext(), conn))
}

func (s *DiscountServiceSuite) percentageRequest(code *string) dto.CreateDiscountRequest {
	return dto.CreateDiscountRequest{
		Name:       "Summer Sale",
		Code:       code,
		Type:       types.DiscountTypePercentage,
		PercentOff: lo.ToPtr(int64(25)),
		Duration:   types.DiscountDurationOnce,
	}
}

func (s *DiscountServiceSuite) TestCreateDiscountValidation() {
	testCases := []struct {
		name    string
		request dto.CreateDiscountRequest
	}{
		{
			name: "missing_name",
			request: dto.CreateDiscountRequest{
				Type:       types.DiscountTypePercentage,
				PercentOff: lo.ToPtr(int64(10)),
				Duration:   types.DiscountDurationOnce,
			},
		},
		{
			name: "percentage_without_percent_off",
			request: dto.CreateDiscountRequest{
				Name:     "Broken",
				Type:     types.DiscountTypePercentage,
				Duration: types.DiscountDurationOnce,
			},
		},
		{
			name: "percentage_with_amount_off",
			request: dto.CreateDiscountRequest{
				Name:       "Broken",
				Type:       types.DiscountTypePercentage,
				PercentOff: lo.ToPtr(int64(10)),
				AmountOff:  lo.ToPtr(int64(500)),
				Currency:   lo.ToPtr("usd"),
				Duration:   types.DiscountDurationOnce,
			},
		},
		{
			name: "fixed_without_currency",
			request: dto.CreateDiscountRequest{
				Name:      "Broken",
				Type:      types.DiscountTypeFixed,
				AmountOff: lo.ToPtr(int64(500)),
				Duration:  types.DiscountDurationOnce,
			},
		},
		{
			name: "repeating_without_months",
			request: dto.CreateDiscountRequest{
				Name:       "Broken",
				Type:       types.DiscountTypePercentage,
				PercentOff: lo.ToPtr(int64(10)),
				Duration:   types.DiscountDurationRepeating,
			},
		},
		{
			name: "once_with_months",
			request: dto.CreateDiscountRequest{
				Name:             "Broken",
				Type:             types.DiscountTypePercentage,
				PercentOff:       lo.ToPtr(int64(10)),
				Duration:         types.DiscountDurationOnce,
				DurationInMonths: lo.ToPtr(3),
			},
		},
		{
			name: "code_and_generate_code",
			request: dto.CreateDiscountRequest{
				Name:         "Broken",
				Code:         lo.ToPtr("SAVE25"),
				GenerateCode: true,
				Type:         types.DiscountTypePercentage,
				PercentOff:   lo.ToPtr(int64(10)),
				Duration:     types.DiscountDurationOnce,
			},
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			resp, err := s.service.CreateDiscount(s.GetContext(), tc.request)
			s.Error(err)
			s.Nil(resp)
			s.True(errors.IsValidation(err))

			// No side effects on validation failure
			s.Empty(s.mirror.Calls())
		})
	}
}

func (s *DiscountServiceSuite) TestCreateDiscountMirrorsCouponAndPromotionCode() {
	s.onboardStripe()

	resp, err := s.service.CreateDiscount(s.GetContext(), s.percentageRequest(lo.ToPtr("SUMMER25")))
	s.NoError(err)
	s.NotNil(resp)

	s.NotNil(resp.StripeCouponID)
	s.Equal("coupon_1", *resp.StripeCouponID)
	s.NotNil(resp.StripePromotionCodeID)
	s.Equal("promo_1", *resp.StripePromotionCodeID)

	couponCalls := s.mirror.CallsFor("create_coupon")
	s.Len(couponCalls, 1)
	s.Equal("acct_test123", couponCalls[0].AccountID)
	s.Equal("Summer Sale", couponCalls[0].Spec.Name)
	s.Equal(int64(25), *couponCalls[0].Spec.PercentOff)

	promoCalls := s.mirror.CallsFor("create_promotion_code")
	s.Len(promoCalls, 1)
	s.Equal("coupon_1", promoCalls[0].CouponID)
	s.Equal("SUMMER25", promoCalls[0].Code)

	// Pointers were persisted, not just returned
	stored, err := s.discountRepo.Get(s.GetContext(), resp.ID)
	s.NoError(err)
	s.Equal("coupon_1", *stored.StripeCouponID)
	s.Equal("promo_1", *stored.StripePromotionCodeID)
}

func (s *DiscountServiceSuite) TestCreateDiscountWithoutCodeSkipsPromotionCode() {
	s.onboardStripe()

	resp, err := s.service.CreateDiscount(s.GetContext(), s.percentageRequest(nil))
	s.NoError(err)
	s.NotNil(resp.StripeCouponID)
	s.Nil(resp.StripePromotionCodeID)
	s.Empty(s.mirror.CallsFor("create_promotion_code"))
}

func (s *DiscountServiceSuite) TestCreateDiscountWithoutOnboardingIsLocalOnly() {
	// No connection stored: the organization has not onboarded
	resp, err := s.service.CreateDiscount(s.GetContext(), s.percentageRequest(lo.ToPtr("SUMMER25")))
	s.NoError(err)
	s.NotNil(resp)

	s.Nil(resp.StripeCouponID)
	s.Nil(resp.StripePromotionCodeID)
	s.Empty(s.mirror.Calls())

	stored, err := s.discountRepo.Get(s.GetContext(), resp.ID)
	s.NoError(err)
	s.Equal("Summer Sale", stored.Name)
}

func (s *DiscountServiceSuite) TestCreateDiscountSurvivesRemoteFailure() {
	s.onboardStripe()
	s.mirror.FailCreateCoupon = true

	resp, err := s.service.CreateDiscount(s.GetContext(), s.percentageRequest(lo.ToPtr("SUMMER25")))
	s.NoError(err)
	s.NotNil(resp)

	// Local write went through, mirror pointers stayed nil
	s.Nil(resp.StripeCouponID)
	s.Nil(resp.StripePromotionCodeID)

	stored, err := s.discountRepo.Get(s.GetContext(), resp.ID)
	s.NoError(err)
	s.Nil(stored.StripeCouponID)
	s.Nil(stored.StripePromotionCodeID)

	// Promotion code creation was never attempted without a coupon
	s.Empty(s.mirror.CallsFor("create_promotion_code"))
}

func (s *DiscountServiceSuite) TestCreateDiscountSurvivesPromotionCodeFailure() {
	s.onboardStripe()
	s.mirror.FailCreatePromotionCode = true

	resp, err := s.service.CreateDiscount(s.GetContext(), s.percentageRequest(lo.ToPtr("SUMMER25")))
	s.NoError(err)

	// Coupon pointer set, promotion code pointer nil: the row describes
	// exactly what exists remotely
	s.NotNil(resp.StripeCouponID)
	s.Nil(resp.StripePromotionCodeID)
}

func (s *DiscountServiceSuite) TestCreateDiscountGeneratedCode() {
	resp, err := s.service.CreateDiscount(s.GetContext(), dto.CreateDiscountRequest{
		Name:         "Generated",
		GenerateCode: true,
		Type:         types.DiscountTypeFixed,
		AmountOff:    lo.ToPtr(int64(500)),
		Currency:     lo.ToPtr("usd"),
		Duration:     types.DiscountDurationForever,
	})
	s.NoError(err)
	s.NotNil(resp.Code)
	s.NotEmpty(*resp.Code)
}

func (s *DiscountServiceSuite) TestCreateDiscountRejectsDuplicateCode() {
	s.onboardStripe()

	_, err := s.service.CreateDiscount(s.GetContext(), s.percentageRequest(lo.ToPtr("SUMMER25")))
	s.NoError(err)
	s.mirror.Reset()

	second := s.percentageRequest(lo.ToPtr("SUMMER25"))
	second.Name = "Another"
	resp, err := s.service.CreateDiscount(s.GetContext(), second)
	s.Error(err)
	s.Nil(resp)
	s.True(errors.IsAlreadyExists(err))

	// The code check runs before account resolution, so the rejected
	// attempt never touched the remote account
	s.Empty(s.mirror.Calls())
}

func (s *DiscountServiceSuite) TestCodeReusableAfterSoftDelete() {
	first, err := s.service.CreateDiscount(s.GetContext(), s.percentageRequest(lo.ToPtr("SUMMER25")))
	s.NoError(err)

	s.NoError(s.service.DeleteDiscount(s.GetContext(), first.ID))

	// The soft-deleted discount released its code
	second, err := s.service.CreateDiscount(s.GetContext(), s.percentageRequest(lo.ToPtr("SUMMER25")))
	s.NoError(err)
	s.Equal("SUMMER25", *second.Code)
}

func (s *DiscountServiceSuite) TestUpdateDiscountNameMirrorsRename() {
	s.onboardStripe()

	created, err := s.service.CreateDiscount(s.GetContext(), s.percentageRequest(lo.ToPtr("SUMMER25")))
	s.NoError(err)
	s.mirror.Reset()

	resp, err := s.service.UpdateDiscount(s.GetContext(), created.ID, dto.UpdateDiscountRequest{
		Name: lo.ToPtr("Autumn Sale"),
	})
	s.NoError(err)
	s.Equal("Autumn Sale", resp.Name)

	// Only the rename went remote: no new coupon, no code choreography
	renameCalls := s.mirror.CallsFor("update_coupon_name")
	s.Len(renameCalls, 1)
	s.Equal("Autumn Sale", renameCalls[0].Name)
	s.Equal("coupon_1", renameCalls[0].CouponID)
	s.Len(s.mirror.Calls(), 1)
}

func (s *DiscountServiceSuite) TestUpdateDiscountCodeChangeChoreography() {
	s.onboardStripe()

	created, err := s.service.CreateDiscount(s.GetContext(), s.percentageRequest(lo.ToPtr("SUMMER25")))
	s.NoError(err)
	s.mirror.Reset()

	resp, err := s.service.UpdateDiscount(s.GetContext(), created.ID, dto.UpdateDiscountRequest{
		Code: lo.ToPtr("AUTUMN30"),
	})
	s.NoError(err)
	s.Equal("AUTUMN30", *resp.Code)

	// Old promotion code deactivated, new one bound to the same coupon
	deactivateCalls := s.mirror.CallsFor("deactivate_promotion_code")
	s.Len(deactivateCalls, 1)
	s.Equal("promo_1", deactivateCalls[0].PromotionCodeID)

	createCalls := s.mirror.CallsFor("create_promotion_code")
	s.Len(createCalls, 1)
	s.Equal("coupon_1", createCalls[0].CouponID)
	s.Equal("AUTUMN30", createCalls[0].Code)

	s.Empty(s.mirror.CallsFor("create_coupon"))

	stored, err := s.discountRepo.Get(s.GetContext(), created.ID)
	s.NoError(err)
	s.Equal("coupon_1", *stored.StripeCouponID)
	s.Equal("promo_1", *stored.StripePromotionCodeID)
}

func (s *DiscountServiceSuite) TestUpdateDiscountCodeRemoval() {
	s.onboardStripe()

	created, err := s.service.CreateDiscount(s.GetContext(), s.percentageRequest(lo.ToPtr("SUMMER25")))
	s.NoError(err)
	s.mirror.Reset()

	resp, err := s.service.UpdateDiscount(s.GetContext(), created.ID, dto.UpdateDiscountRequest{
		Code: lo.ToPtr(""),
	})
	s.NoError(err)
	s.Nil(resp.Code)
	s.Nil(resp.StripePromotionCodeID)
	s.NotNil(resp.StripeCouponID)

	s.Len(s.mirror.CallsFor("deactivate_promotion_code"), 1)
	s.Empty(s.mirror.CallsFor("create_promotion_code"))
}

func (s *DiscountServiceSuite) TestUpdateLocalOnlyDiscountSkipsMirror() {
	created, err := s.service.CreateDiscount(s.GetContext(), s.percentageRequest(lo.ToPtr("SUMMER25")))
	s.NoError(err)

	s.onboardStripe()
	s.mirror.Reset()

	resp, err := s.service.UpdateDiscount(s.GetContext(), created.ID, dto.UpdateDiscountRequest{
		Name: lo.ToPtr("Renamed"),
		Code: lo.ToPtr("NEWCODE"),
	})
	s.NoError(err)
	s.Equal("Renamed", resp.Name)
	s.Equal("NEWCODE", *resp.Code)

	// Never mirrored, so nothing to update remotely
	s.Empty(s.mirror.Calls())
}

func (s *DiscountServiceSuite) TestUpdateDiscountMonthsOnlyPatch() {
	created, err := s.service.CreateDiscount(s.GetContext(), dto.CreateDiscountRequest{
		Name:             "Quarterly",
		Type:             types.DiscountTypePercentage,
		PercentOff:       lo.ToPtr(int64(10)),
		Duration:         types.DiscountDurationRepeating,
		DurationInMonths: lo.ToPtr(3),
	})
	s.NoError(err)

	resp, err := s.service.UpdateDiscount(s.GetContext(), created.ID, dto.UpdateDiscountRequest{
		DurationInMonths: lo.ToPtr(6),
	})
	s.NoError(err)
	s.Equal(types.DiscountDurationRepeating, resp.Duration)
	s.Equal(6, *resp.DurationInMonths)

	stored, err := s.discountRepo.Get(s.GetContext(), created.ID)
	s.NoError(err)
	s.Equal(6, *stored.DurationInMonths)
}

func (s *DiscountServiceSuite) TestUpdateDiscountMonthsOnlyPatchRequiresRepeating() {
	created, err := s.service.CreateDiscount(s.GetContext(), s.percentageRequest(nil))
	s.NoError(err)

	resp, err := s.service.UpdateDiscount(s.GetContext(), created.ID, dto.UpdateDiscountRequest{
		DurationInMonths: lo.ToPtr(6),
	})
	s.Error(err)
	s.Nil(resp)
	s.True(errors.IsValidation(err))

	stored, err := s.discountRepo.Get(s.GetContext(), created.ID)
	s.NoError(err)
	s.Equal(types.DiscountDurationOnce, stored.Duration)
	s.Nil(stored.DurationInMonths)
}

func (s *DiscountServiceSuite) TestUpdateDiscountRejectsCodeHeldByOtherDiscount() {
	_, err := s.service.CreateDiscount(s.GetContext(), s.percentageRequest(lo.ToPtr("SUMMER25")))
	s.NoError(err)

	other := s.percentageRequest(lo.ToPtr("WINTER10"))
	created, err := s.service.CreateDiscount(s.GetContext(), other)
	s.NoError(err)

	resp, err := s.service.UpdateDiscount(s.GetContext(), created.ID, dto.UpdateDiscountRequest{
		Code: lo.ToPtr("SUMMER25"),
	})
	s.Error(err)
	s.Nil(resp)
	s.True(errors.IsAlreadyExists(err))
}

func (s *DiscountServiceSuite) TestUpdateDiscountProductScope() {
	created, err := s.service.CreateDiscount(s.GetContext(), dto.CreateDiscountRequest{
		Name:       "Scoped",
		Type:       types.DiscountTypePercentage,
		PercentOff: lo.ToPtr(int64(10)),
		Duration:   types.DiscountDurationOnce,
		ProductIDs: []string{"prod_1", "prod_2"},
	})
	s.NoError(err)
	s.ElementsMatch([]string{"prod_1", "prod_2"}, created.ProductIDs)

	// Narrow the scope
	resp, err := s.service.UpdateDiscount(s.GetContext(), created.ID, dto.UpdateDiscountRequest{
		ProductIDs: lo.ToPtr([]string{"prod_3"}),
	})
	s.NoError(err)
	s.Equal([]string{"prod_3"}, resp.ProductIDs)

	// An explicit empty list widens the discount to all products
	resp, err = s.service.UpdateDiscount(s.GetContext(), created.ID, dto.UpdateDiscountRequest{
		ProductIDs: lo.ToPtr([]string{}),
	})
	s.NoError(err)
	s.Empty(resp.ProductIDs)
}

func (s *DiscountServiceSuite) TestDeleteDiscountTearsDownRemote() {
	s.onboardStripe()

	created, err := s.service.CreateDiscount(s.GetContext(), s.percentageRequest(lo.ToPtr("SUMMER25")))
	s.NoError(err)
	s.mirror.Reset()

	s.NoError(s.service.DeleteDiscount(s.GetContext(), created.ID))

	s.Len(s.mirror.CallsFor("deactivate_promotion_code"), 1)
	deleteCalls := s.mirror.CallsFor("delete_coupon")
	s.Len(deleteCalls, 1)
	s.Equal("coupon_1", deleteCalls[0].CouponID)

	stored, err := s.discountRepo.Get(s.GetContext(), created.ID)
	s.NoError(err)
	s.NotNil(stored.DeletedAt)
	s.Nil(stored.StripeCouponID)
	s.Nil(stored.StripePromotionCodeID)
}

func (s *DiscountServiceSuite) TestDeleteDiscountSurvivesRemoteFailure() {
	s.onboardStripe()

	created, err := s.service.CreateDiscount(s.GetContext(), s.percentageRequest(lo.ToPtr("SUMMER25")))
	s.NoError(err)
	s.mirror.Reset()
	s.mirror.FailDeleteCoupon = true

	// Remote teardown fails, local soft delete proceeds anyway
	s.NoError(s.service.DeleteDiscount(s.GetContext(), created.ID))

	stored, err := s.discountRepo.Get(s.GetContext(), created.ID)
	s.NoError(err)
	s.NotNil(stored.DeletedAt)

	// The coupon pointer survives so the orphaned remote object stays findable
	s.NotNil(stored.StripeCouponID)
}

func (s *DiscountServiceSuite) TestDeleteDiscountTwiceReturnsNotFound() {
	created, err := s.service.CreateDiscount(s.GetContext(), s.percentageRequest(nil))
	s.NoError(err)

	s.NoError(s.service.DeleteDiscount(s.GetContext(), created.ID))

	err = s.service.DeleteDiscount(s.GetContext(), created.ID)
	s.Error(err)
	s.True(errors.IsNotFound(err))
}

func (s *DiscountServiceSuite) TestListDiscountsHydratesScopesInOneLookup() {
	for i, productIDs := range [][]string{
		{"prod_1"},
		{"prod_1", "prod_2"},
		nil,
	} {
		_, err := s.service.CreateDiscount(s.GetContext(), dto.CreateDiscountRequest{
			Name:       "Discount " + string(rune('A'+i)),
			Type:       types.DiscountTypePercentage,
			PercentOff: lo.ToPtr(int64(10)),
			Duration:   types.DiscountDurationOnce,
			ProductIDs: productIDs,
		})
		s.NoError(err)
	}

	s.discountRepo.AssociationLookupCalls = 0

	resp, err := s.service.ListDiscounts(s.GetContext(), types.NewDiscountFilter())
	s.NoError(err)
	s.Len(resp.Items, 3)
	s.Equal(3, resp.Pagination.Total)

	// The page was hydrated with a single batched association query
	s.Equal(1, s.discountRepo.AssociationLookupCalls)

	scoped := 0
	for _, item := range resp.Items {
		if len(item.ProductIDs) > 0 {
			scoped++
		}
	}
	s.Equal(2, scoped)
}

func (s *DiscountServiceSuite) TestListDiscountsExcludesDeleted() {
	first, err := s.service.CreateDiscount(s.GetContext(), s.percentageRequest(lo.ToPtr("SUMMER25")))
	s.NoError(err)

	_, err = s.service.CreateDiscount(s.GetContext(), s.percentageRequest(nil))
	s.NoError(err)

	s.NoError(s.service.DeleteDiscount(s.GetContext(), first.ID))

	resp, err := s.service.ListDiscounts(s.GetContext(), types.NewDiscountFilter())
	s.NoError(err)
	s.Len(resp.Items, 1)
}

func (s *DiscountServiceSuite) TestListDiscountsFilters() {
	_, err := s.service.CreateDiscount(s.GetContext(), dto.CreateDiscountRequest{
		Name:       "Summer Sale",
		Type:       types.DiscountTypePercentage,
		PercentOff: lo.ToPtr(int64(10)),
		Duration:   types.DiscountDurationOnce,
	})
	s.NoError(err)

	_, err = s.service.CreateDiscount(s.GetContext(), dto.CreateDiscountRequest{
		Name:      "Winter Fixed",
		Type:      types.DiscountTypeFixed,
		AmountOff: lo.ToPtr(int64(500)),
		Currency:  lo.ToPtr("usd"),
		Duration:  types.DiscountDurationOnce,
	})
	s.NoError(err)

	filter := types.NewDiscountFilter()
	filter.DiscountType = lo.ToPtr(types.DiscountTypeFixed)
	resp, err := s.service.ListDiscounts(s.GetContext(), filter)
	s.NoError(err)
	s.Len(resp.Items, 1)
	s.Equal("Winter Fixed", resp.Items[0].Name)

	filter = types.NewDiscountFilter()
	filter.NameContains = lo.ToPtr("summer")
	resp, err = s.service.ListDiscounts(s.GetContext(), filter)
	s.NoError(err)
	s.Len(resp.Items, 1)
	s.Equal("Summer Sale", resp.Items[0].Name)
}

func (s *DiscountServiceSuite) TestGetDiscount() {
	created, err := s.service.CreateDiscount(s.GetContext(), dto.CreateDiscountRequest{
		Name:       "Scoped",
		Type:       types.DiscountTypePercentage,
		PercentOff: lo.ToPtr(int64(10)),
		Duration:   types.DiscountDurationOnce,
		ProductIDs: []string{"prod_1"},
	})
	s.NoError(err)

	resp, err := s.service.GetDiscount(s.GetContext(), created.ID)
	s.NoError(err)
	s.Equal(created.ID, resp.ID)
	s.Equal([]string{"prod_1"}, resp.ProductIDs)

	_, err = s.service.GetDiscount(s.GetContext(), "disc_missing")
	s.Error(err)
}
