package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/vantagebill/vantagebill/internal/payment"
)

// MirrorCall records a single call against the mock payment mirror
type MirrorCall struct {
	Op              string
	AccountID       string
	CouponID        string
	PromotionCodeID string
	Code            string
	Name            string
	Spec            payment.CouponSpec
}

// MockPaymentMirror implements payment.Mirror for testing. Each operation
// records its call and can be scripted to fail via the Fail* flags.
type MockPaymentMirror struct {
	mu    sync.Mutex
	calls []MirrorCall

	couponSeq    int
	promoCodeSeq int

	FailCreateCoupon            bool
	FailCreatePromotionCode     bool
	FailUpdateCouponName        bool
	FailDeactivatePromotionCode bool
	FailDeleteCoupon            bool
}

// NewMockPaymentMirror creates a new mock payment mirror
func NewMockPaymentMirror() *MockPaymentMirror {
	return &MockPaymentMirror{}
}

func (m *MockPaymentMirror) record(call MirrorCall) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

func (m *MockPaymentMirror) CreateCoupon(ctx context.Context, accountID string, spec payment.CouponSpec) (string, error) {
	m.record(MirrorCall{Op: "create_coupon", AccountID: accountID, Spec: spec})

	if m.FailCreateCoupon {
		return "", fmt.Errorf("stripe: coupon creation failed")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.couponSeq++
	return fmt.Sprintf("coupon_%d", m.couponSeq), nil
}

func (m *MockPaymentMirror) CreatePromotionCode(ctx context.Context, accountID string, couponID string, code string) (string, error) {
	m.record(MirrorCall{Op: "create_promotion_code", AccountID: accountID, CouponID: couponID, Code: code})

	if m.FailCreatePromotionCode {
		return "", fmt.Errorf("stripe: promotion code creation failed")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.promoCodeSeq++
	return fmt.Sprintf("promo_%d", m.promoCodeSeq), nil
}

func (m *MockPaymentMirror) UpdateCouponName(ctx context.Context, accountID string, couponID string, name string) error {
	m.record(MirrorCall{Op: "update_coupon_name", AccountID: accountID, CouponID: couponID, Name: name})

	if m.FailUpdateCouponName {
		return fmt.Errorf("stripe: coupon update failed")
	}
	return nil
}

func (m *MockPaymentMirror) DeactivatePromotionCode(ctx context.Context, accountID string, promotionCodeID string) error {
	m.record(MirrorCall{Op: "deactivate_promotion_code", AccountID: accountID, PromotionCodeID: promotionCodeID})

	if m.FailDeactivatePromotionCode {
		return fmt.Errorf("stripe: promotion code deactivation failed")
	}
	return nil
}

func (m *MockPaymentMirror) DeleteCoupon(ctx context.Context, accountID string, couponID string) error {
	m.record(MirrorCall{Op: "delete_coupon", AccountID: accountID, CouponID: couponID})

	if m.FailDeleteCoupon {
		return fmt.Errorf("stripe: coupon deletion failed")
	}
	return nil
}

// Calls returns a copy of all recorded calls
func (m *MockPaymentMirror) Calls() []MirrorCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MirrorCall(nil), m.calls...)
}

// CallsFor returns the recorded calls for a single operation
func (m *MockPaymentMirror) CallsFor(op string) []MirrorCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []MirrorCall
	for _, call := range m.calls {
		if call.Op == op {
			result = append(result, call)
		}
	}
	return result
}

// Reset clears all recorded calls and failure flags
func (m *MockPaymentMirror) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = nil
	m.couponSeq = 0
	m.promoCodeSeq = 0
	m.FailCreateCoupon = false
	m.FailCreatePromotionCode = false
	m.FailUpdateCouponName = false
	m.FailDeactivatePromotionCode = false
	m.FailDeleteCoupon = false
}
