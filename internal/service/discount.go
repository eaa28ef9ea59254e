package service

import (
	"context"

	"github.com/samber/lo"
	"github.com/vantagebill/vantagebill/internal/api/dto"
	"github.com/vantagebill/vantagebill/internal/domain/discount"
	ierr "github.com/vantagebill/vantagebill/internal/errors"
	"github.com/vantagebill/vantagebill/internal/payment"
	"github.com/vantagebill/vantagebill/internal/types"
)

// DiscountService defines the interface for discount operations. Every write
// operation persists locally and mirrors the change into the organization's
// connected payment account on a best-effort basis: a remote failure is
// logged and absorbed, never surfaced to the caller, and never blocks the
// local write.
type DiscountService interface {
	CreateDiscount(ctx context.Context, req dto.CreateDiscountRequest) (*dto.DiscountResponse, error)
	GetDiscount(ctx context.Context, id string) (*dto.DiscountResponse, error)
	UpdateDiscount(ctx context.Context, id string, req dto.UpdateDiscountRequest) (*dto.DiscountResponse, error)
	DeleteDiscount(ctx context.Context, id string) error
	ListDiscounts(ctx context.Context, filter *types.DiscountFilter) (*dto.ListDiscountsResponse, error)
}

type discountService struct {
	ServiceParams
}

// NewDiscountService creates a new discount service
func NewDiscountService(
	params ServiceParams,
) DiscountService {
	return &discountService{
		ServiceParams: params,
	}
}

// CreateDiscount creates a new discount and mirrors it as a coupon (plus a
// promotion code when a code is set) in the connected payment account
func (s *discountService) CreateDiscount(ctx context.Context, req dto.CreateDiscountRequest) (*dto.DiscountResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if err := types.ValidateOrganizationContext(ctx); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Organization context is required").
			Mark(ierr.ErrValidation)
	}

	organizationID := types.GetOrganizationID(ctx)

	code := req.Code
	if req.GenerateCode {
		generated := types.GenerateDiscountCode()
		if generated == "" {
			return nil, ierr.NewError("failed to generate discount code").
				WithHint("Please retry or provide a code explicitly").
				Mark(ierr.ErrInternal)
		}
		code = &generated
	}

	if code != nil {
		if err := s.ensureCodeAvailable(ctx, organizationID, *code, ""); err != nil {
			return nil, err
		}
	}

	baseModel := types.GetDefaultBaseModel(ctx)
	d := &discount.Discount{
		ID:               types.GenerateUUIDWithPrefix(types.UUID_PREFIX_DISCOUNT),
		Name:             req.Name,
		Code:             code,
		Type:             req.Type,
		PercentOff:       req.PercentOff,
		AmountOff:        req.AmountOff,
		Currency:         req.Currency,
		Duration:         req.Duration,
		DurationInMonths: req.DurationInMonths,
		MaxRedemptions:   req.MaxRedemptions,
		RedemptionsCount: 0,
		ProductIDs:       lo.Uniq(req.ProductIDs),
		BaseModel:        baseModel,
	}

	// Mirror before the local write so the mirror pointers land in the same
	// insert. A remote failure leaves the pointers nil and the discount is
	// created locally anyway.
	accountID := s.resolveAccount(ctx, organizationID)
	if accountID != "" {
		s.mirrorCreate(ctx, accountID, d)
	}

	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		if err := s.DiscountRepo.Create(ctx, d); err != nil {
			return err
		}
		return s.DiscountRepo.CreateProductAssociations(ctx, d.ID, d.ProductIDs)
	})
	if err != nil {
		if d.StripeCouponID != nil {
			// The remote coupon now exists without a local owner. Surfaced
			// for manual cleanup; a reconciliation job is the longer-term
			// answer.
			s.Logger.Errorw("discount persist failed after remote coupon creation",
				"discount_id", d.ID,
				"stripe_coupon_id", *d.StripeCouponID,
				"error", err)
		}
		return nil, err
	}

	return &dto.DiscountResponse{Discount: d}, nil
}

// GetDiscount retrieves a discount by ID with its product scope hydrated
func (s *discountService) GetDiscount(ctx context.Context, id string) (*dto.DiscountResponse, error) {
	d, err := s.DiscountRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	associations, err := s.DiscountRepo.GetProductAssociations(ctx, []string{d.ID})
	if err != nil {
		return nil, err
	}
	d.ProductIDs = associations[d.ID]

	return &dto.DiscountResponse{Discount: d}, nil
}

// UpdateDiscount updates an existing discount and propagates the supported
// remote changes: the coupon name, and the promotion code choreography when
// the code changes
func (s *discountService) UpdateDiscount(ctx context.Context, id string, req dto.UpdateDiscountRequest) (*dto.DiscountResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	d, err := s.DiscountRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !d.IsLive() {
		return nil, ierr.NewError("discount not found").
			WithHint("The discount has been deleted").
			WithReportableDetails(map[string]interface{}{
				"id": id,
			}).
			Mark(ierr.ErrNotFound)
	}

	nameChanged := req.Name != nil && *req.Name != d.Name
	newCode, codeChanged := resolveCodeChange(d.Code, req.Code)

	if codeChanged && newCode != nil {
		if err := s.ensureCodeAvailable(ctx, d.OrganizationID, *newCode, d.ID); err != nil {
			return nil, err
		}
	}

	if req.Name != nil {
		d.Name = *req.Name
	}
	if req.Duration != nil {
		d.Duration = *req.Duration
		d.DurationInMonths = req.DurationInMonths
	} else if req.DurationInMonths != nil {
		if d.Duration != types.DiscountDurationRepeating {
			return nil, ierr.NewError("duration_in_months requires a repeating duration").
				WithHint("Duration in months is only applicable for repeating duration").
				WithReportableDetails(map[string]interface{}{
					"duration": d.Duration,
				}).
				Mark(ierr.ErrValidation)
		}
		d.DurationInMonths = req.DurationInMonths
	}
	if req.MaxRedemptions != nil {
		d.MaxRedemptions = req.MaxRedemptions
	}
	if codeChanged {
		d.Code = newCode
	}
	if req.ProductIDs != nil {
		d.ProductIDs = lo.Uniq(*req.ProductIDs)
	}

	if d.IsMirrored() {
		accountID := s.resolveAccount(ctx, d.OrganizationID)
		if accountID != "" {
			if nameChanged {
				s.mirrorRename(ctx, accountID, d)
			}
			if codeChanged {
				s.mirrorCodeChange(ctx, accountID, d)
			}
		}
	}

	err = s.DB.WithTx(ctx, func(ctx context.Context) error {
		if err := s.DiscountRepo.Update(ctx, d); err != nil {
			return err
		}
		if req.ProductIDs != nil {
			return s.DiscountRepo.ReplaceProductAssociations(ctx, d.ID, d.ProductIDs)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if req.ProductIDs == nil {
		associations, err := s.DiscountRepo.GetProductAssociations(ctx, []string{d.ID})
		if err != nil {
			return nil, err
		}
		d.ProductIDs = associations[d.ID]
	}

	return &dto.DiscountResponse{Discount: d}, nil
}

// DeleteDiscount soft deletes a discount. The remote coupon and promotion
// code are torn down best-effort first; the local soft delete proceeds
// unconditionally regardless of the remote outcome.
func (s *discountService) DeleteDiscount(ctx context.Context, id string) error {
	d, err := s.DiscountRepo.Get(ctx, id)
	if err != nil {
		return err
	}

	if !d.IsLive() {
		return ierr.NewError("discount not found").
			WithHint("The discount has already been deleted").
			WithReportableDetails(map[string]interface{}{
				"id": id,
			}).
			Mark(ierr.ErrNotFound)
	}

	if d.IsMirrored() {
		accountID := s.resolveAccount(ctx, d.OrganizationID)
		if accountID != "" {
			s.mirrorTeardown(ctx, accountID, d)
		}
	}

	return s.DB.WithTx(ctx, func(ctx context.Context) error {
		// Pointers cleared by the teardown are flushed alongside the delete
		// so the row stays self-describing
		if err := s.DiscountRepo.Update(ctx, d); err != nil {
			return err
		}
		return s.DiscountRepo.SoftDelete(ctx, d.ID)
	})
}

// ListDiscounts lists discounts with their product scopes hydrated through a
// single batched association lookup
func (s *discountService) ListDiscounts(ctx context.Context, filter *types.DiscountFilter) (*dto.ListDiscountsResponse, error) {
	if filter == nil {
		filter = types.NewDiscountFilter()
	}

	if err := filter.Validate(); err != nil {
		return nil, err
	}

	discounts, err := s.DiscountRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	count, err := s.DiscountRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	if err := s.hydrateProductScopes(ctx, discounts); err != nil {
		return nil, err
	}

	items := lo.Map(discounts, func(d *discount.Discount, _ int) *dto.DiscountResponse {
		return &dto.DiscountResponse{Discount: d}
	})

	response := types.NewListResponse(items, count, filter.GetLimit(), filter.GetOffset())
	return &response, nil
}

// hydrateProductScopes populates ProductIDs for the given discounts with one
// association query for the whole page
func (s *discountService) hydrateProductScopes(ctx context.Context, discounts []*discount.Discount) error {
	if len(discounts) == 0 {
		return nil
	}

	discountIDs := lo.Map(discounts, func(d *discount.Discount, _ int) string {
		return d.ID
	})

	associations, err := s.DiscountRepo.GetProductAssociations(ctx, discountIDs)
	if err != nil {
		return err
	}

	for _, d := range discounts {
		d.ProductIDs = associations[d.ID]
	}

	return nil
}

// ensureCodeAvailable rejects a code already held by another live discount
// in the organization. Codes released by soft-deleted discounts are free for
// reuse.
func (s *discountService) ensureCodeAvailable(ctx context.Context, organizationID string, code string, excludeID string) error {
	existing, err := s.DiscountRepo.GetByCode(ctx, organizationID, code)
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil
		}
		return err
	}

	if existing.ID == excludeID {
		return nil
	}

	return ierr.NewError("discount code already in use").
		WithHint("Another live discount already uses this code").
		WithReportableDetails(map[string]interface{}{
			"code": code,
		}).
		Mark(ierr.ErrAlreadyExists)
}

// resolveAccount maps the organization to its connected account. Resolution
// failures are treated like a missing connection: the local operation goes
// ahead without mirroring.
func (s *discountService) resolveAccount(ctx context.Context, organizationID string) string {
	accountID, err := s.AccountResolver.Resolve(ctx, organizationID)
	if err != nil {
		s.Logger.Warnw("failed to resolve connected account, skipping remote sync",
			"organization_id", organizationID,
			"error", err)
		return ""
	}
	return accountID
}

// mirrorCreate creates the remote coupon and, when a code is set, its
// promotion code. Failures are logged and absorbed; the mirror pointers are
// only set for objects that were actually created.
func (s *discountService) mirrorCreate(ctx context.Context, accountID string, d *discount.Discount) {
	couponID, err := s.PaymentMirror.CreateCoupon(ctx, accountID, couponSpecFromDiscount(d))
	if err != nil {
		// Don't fail the operation
		s.Logger.Warnw("failed to create remote coupon, discount will be local only",
			"discount_id", d.ID,
			"account_id", accountID,
			"error", err)
		return
	}
	d.StripeCouponID = &couponID

	if d.Code == nil {
		return
	}

	promotionCodeID, err := s.PaymentMirror.CreatePromotionCode(ctx, accountID, couponID, *d.Code)
	if err != nil {
		// Don't fail the operation
		s.Logger.Warnw("failed to create remote promotion code",
			"discount_id", d.ID,
			"account_id", accountID,
			"stripe_coupon_id", couponID,
			"error", err)
		return
	}
	d.StripePromotionCodeID = &promotionCodeID
}

// mirrorRename pushes the new name to the remote coupon. The name is the
// only coupon field the remote object model allows to change.
func (s *discountService) mirrorRename(ctx context.Context, accountID string, d *discount.Discount) {
	err := s.PaymentMirror.UpdateCouponName(ctx, accountID, *d.StripeCouponID, d.Name)
	if err != nil {
		// Don't fail the operation
		s.Logger.Warnw("failed to rename remote coupon",
			"discount_id", d.ID,
			"account_id", accountID,
			"stripe_coupon_id", *d.StripeCouponID,
			"error", err)
	}
}

// mirrorCodeChange runs the promotion code choreography: deactivate the old
// code, then bind the new one to the same coupon. Remote promotion codes are
// immutable, so a change is always deactivate-plus-create.
func (s *discountService) mirrorCodeChange(ctx context.Context, accountID string, d *discount.Discount) {
	if d.StripePromotionCodeID != nil {
		err := s.PaymentMirror.DeactivatePromotionCode(ctx, accountID, *d.StripePromotionCodeID)
		if err != nil {
			// Don't fail the operation
			s.Logger.Warnw("failed to deactivate remote promotion code",
				"discount_id", d.ID,
				"account_id", accountID,
				"stripe_promotion_code_id", *d.StripePromotionCodeID,
				"error", err)
		}
		// Dropped even when deactivation fails: the pointer must only ever
		// reference a promotion code matching the current local code, and the
		// old remote code no longer does. The delete path keeps pointers on
		// failure instead, since there the row is the last handle on the
		// surviving remote objects.
		d.StripePromotionCodeID = nil
	}

	if d.Code == nil {
		return
	}

	promotionCodeID, err := s.PaymentMirror.CreatePromotionCode(ctx, accountID, *d.StripeCouponID, *d.Code)
	if err != nil {
		// Don't fail the operation
		s.Logger.Warnw("failed to create remote promotion code for new code",
			"discount_id", d.ID,
			"account_id", accountID,
			"stripe_coupon_id", *d.StripeCouponID,
			"error", err)
		return
	}
	d.StripePromotionCodeID = &promotionCodeID
}

// mirrorTeardown deactivates the promotion code and deletes the coupon ahead
// of a local soft delete. Pointers are cleared only for objects that were
// actually removed so a later reconciliation can find the survivors.
func (s *discountService) mirrorTeardown(ctx context.Context, accountID string, d *discount.Discount) {
	if d.StripePromotionCodeID != nil {
		err := s.PaymentMirror.DeactivatePromotionCode(ctx, accountID, *d.StripePromotionCodeID)
		if err != nil {
			// Don't fail the operation
			s.Logger.Warnw("failed to deactivate remote promotion code during delete",
				"discount_id", d.ID,
				"account_id", accountID,
				"stripe_promotion_code_id", *d.StripePromotionCodeID,
				"error", err)
		} else {
			d.StripePromotionCodeID = nil
		}
	}

	err := s.PaymentMirror.DeleteCoupon(ctx, accountID, *d.StripeCouponID)
	if err != nil {
		// Don't fail the operation
		s.Logger.Warnw("failed to delete remote coupon during delete",
			"discount_id", d.ID,
			"account_id", accountID,
			"stripe_coupon_id", *d.StripeCouponID,
			"error", err)
		return
	}
	d.StripeCouponID = nil
	d.StripePromotionCodeID = nil
}

// resolveCodeChange interprets the update request's code field against the
// current value. An empty string removes the code; nil leaves it unchanged.
func resolveCodeChange(current *string, requested *string) (*string, bool) {
	if requested == nil {
		return current, false
	}

	if *requested == "" {
		return nil, current != nil
	}

	if current != nil && *current == *requested {
		return current, false
	}

	return requested, true
}

func couponSpecFromDiscount(d *discount.Discount) payment.CouponSpec {
	return payment.CouponSpec{
		Name:             d.Name,
		Duration:         d.Duration,
		DurationInMonths: d.DurationInMonths,
		MaxRedemptions:   d.MaxRedemptions,
		PercentOff:       d.PercentOff,
		AmountOff:        d.AmountOff,
		Currency:         d.Currency,
	}
}
