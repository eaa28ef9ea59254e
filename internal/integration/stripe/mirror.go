package stripe

import (
	"context"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/vantagebill/vantagebill/internal/config"
	ierr "github.com/vantagebill/vantagebill/internal/errors"
	"github.com/vantagebill/vantagebill/internal/logger"
	"github.com/vantagebill/vantagebill/internal/payment"
	"github.com/vantagebill/vantagebill/internal/types"
)

// mirror implements payment.Mirror against the Stripe API. Every call is
// scoped to the connected account passed by the caller and bounded by the
// configured request timeout so a stalled Stripe connection cannot hold a
// request indefinitely.
type mirror struct {
	client  *stripe.Client
	timeout time.Duration
	logger  *logger.Logger
}

// NewMirror creates a Stripe-backed payment mirror
func NewMirror(cfg *config.Configuration, logger *logger.Logger) payment.Mirror {
	return &mirror{
		client:  stripe.NewClient(cfg.Stripe.SecretKey, nil),
		timeout: cfg.Stripe.RequestTimeout,
		logger:  logger,
	}
}

func (m *mirror) CreateCoupon(ctx context.Context, accountID string, spec payment.CouponSpec) (string, error) {
	params := couponCreateParams(spec)
	params.SetStripeAccount(accountID)

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	coupon, err := m.client.V1Coupons.Create(ctx, params)
	if err != nil {
		return "", ierr.WithError(err).
			WithHint("Failed to create coupon in Stripe").
			WithReportableDetails(map[string]interface{}{
				"account_id": accountID,
			}).
			Mark(ierr.ErrHTTPClient)
	}

	return coupon.ID, nil
}

func (m *mirror) CreatePromotionCode(ctx context.Context, accountID string, couponID string, code string) (string, error) {
	params := &stripe.PromotionCodeCreateParams{
		Coupon: stripe.String(couponID),
		Code:   stripe.String(code),
	}
	params.SetStripeAccount(accountID)

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	promotionCode, err := m.client.V1PromotionCodes.Create(ctx, params)
	if err != nil {
		return "", ierr.WithError(err).
			WithHint("Failed to create promotion code in Stripe").
			WithReportableDetails(map[string]interface{}{
				"account_id": accountID,
				"coupon_id":  couponID,
			}).
			Mark(ierr.ErrHTTPClient)
	}

	return promotionCode.ID, nil
}

func (m *mirror) UpdateCouponName(ctx context.Context, accountID string, couponID string, name string) error {
	// Name is the only mutable field on a Stripe coupon. The discount
	// magnitude is immutable remotely and must never appear here.
	params := &stripe.CouponUpdateParams{
		Name: stripe.String(name),
	}
	params.SetStripeAccount(accountID)

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	_, err := m.client.V1Coupons.Update(ctx, couponID, params)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update coupon in Stripe").
			WithReportableDetails(map[string]interface{}{
				"account_id": accountID,
				"coupon_id":  couponID,
			}).
			Mark(ierr.ErrHTTPClient)
	}

	return nil
}

func (m *mirror) DeactivatePromotionCode(ctx context.Context, accountID string, promotionCodeID string) error {
	params := &stripe.PromotionCodeUpdateParams{
		Active: stripe.Bool(false),
	}
	params.SetStripeAccount(accountID)

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	// Setting active=false on an already-inactive code succeeds on the
	// Stripe side, keeping this call idempotent.
	_, err := m.client.V1PromotionCodes.Update(ctx, promotionCodeID, params)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to deactivate promotion code in Stripe").
			WithReportableDetails(map[string]interface{}{
				"account_id":        accountID,
				"promotion_code_id": promotionCodeID,
			}).
			Mark(ierr.ErrHTTPClient)
	}

	return nil
}

func (m *mirror) DeleteCoupon(ctx context.Context, accountID string, couponID string) error {
	params := &stripe.CouponDeleteParams{}
	params.SetStripeAccount(accountID)

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	_, err := m.client.V1Coupons.Delete(ctx, couponID, params)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to delete coupon in Stripe").
			WithReportableDetails(map[string]interface{}{
				"account_id": accountID,
				"coupon_id":  couponID,
			}).
			Mark(ierr.ErrHTTPClient)
	}

	return nil
}

// couponCreateParams maps the vendor-neutral coupon spec onto Stripe's
// create params. The local pricing shape maps 1:1, percentage to percent_off
// and fixed to amount_off plus currency.
func couponCreateParams(spec payment.CouponSpec) *stripe.CouponCreateParams {
	params := &stripe.CouponCreateParams{
		Name:     stripe.String(spec.Name),
		Duration: stripe.String(string(couponDuration(spec.Duration))),
	}

	if spec.PercentOff != nil {
		params.PercentOff = stripe.Float64(float64(*spec.PercentOff))
	} else if spec.AmountOff != nil && spec.Currency != nil {
		params.AmountOff = stripe.Int64(*spec.AmountOff)
		params.Currency = stripe.String(*spec.Currency)
	}

	if spec.DurationInMonths != nil {
		params.DurationInMonths = stripe.Int64(int64(*spec.DurationInMonths))
	}

	if spec.MaxRedemptions != nil {
		params.MaxRedemptions = stripe.Int64(int64(*spec.MaxRedemptions))
	}

	return params
}

func couponDuration(duration types.DiscountDuration) stripe.CouponDuration {
	switch duration {
	case types.DiscountDurationForever:
		return stripe.CouponDurationForever
	case types.DiscountDurationRepeating:
		return stripe.CouponDurationRepeating
	default:
		return stripe.CouponDurationOnce
	}
}
