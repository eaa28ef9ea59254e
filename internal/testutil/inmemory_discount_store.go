package testutil

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/vantagebill/vantagebill/internal/domain/discount"
	ierr "github.com/vantagebill/vantagebill/internal/errors"
	"github.com/vantagebill/vantagebill/internal/types"
)

// InMemoryDiscountStore implements discount.Repository, including the
// product-association rows. AssociationLookupCalls counts the number of
// batched association queries so tests can assert single-query behavior.
type InMemoryDiscountStore struct {
	*InMemoryStore[*discount.Discount]

	mu           sync.RWMutex
	associations map[string][]string

	AssociationLookupCalls int
}

// NewInMemoryDiscountStore creates a new in-memory discount store
func NewInMemoryDiscountStore() *InMemoryDiscountStore {
	return &InMemoryDiscountStore{
		InMemoryStore: NewInMemoryStore[*discount.Discount](),
		associations:  make(map[string][]string),
	}
}

// Helper to copy discount
func copyDiscount(d *discount.Discount) *discount.Discount {
	if d == nil {
		return nil
	}

	copied := &discount.Discount{
		ID:                    d.ID,
		Name:                  d.Name,
		Code:                  d.Code,
		Type:                  d.Type,
		PercentOff:            d.PercentOff,
		AmountOff:             d.AmountOff,
		Currency:              d.Currency,
		Duration:              d.Duration,
		DurationInMonths:      d.DurationInMonths,
		MaxRedemptions:        d.MaxRedemptions,
		RedemptionsCount:      d.RedemptionsCount,
		StripeCouponID:        d.StripeCouponID,
		StripePromotionCodeID: d.StripePromotionCodeID,
		DeletedAt:             d.DeletedAt,
		ProductIDs:            append([]string(nil), d.ProductIDs...),
		BaseModel: types.BaseModel{
			OrganizationID: d.OrganizationID,
			Status:         d.Status,
			CreatedAt:      d.CreatedAt,
			UpdatedAt:      d.UpdatedAt,
			CreatedBy:      d.CreatedBy,
			UpdatedBy:      d.UpdatedBy,
		},
	}

	return copied
}

func (s *InMemoryDiscountStore) Create(ctx context.Context, d *discount.Discount) error {
	if d == nil {
		return ierr.NewError("discount cannot be nil").
			WithHint("Discount cannot be nil").
			Mark(ierr.ErrValidation)
	}

	return s.InMemoryStore.Create(ctx, d.ID, copyDiscount(d))
}

func (s *InMemoryDiscountStore) Get(ctx context.Context, id string) (*discount.Discount, error) {
	d, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.NewError("discount not found").
			WithHint("Discount not found").
			WithReportableDetails(map[string]interface{}{
				"id": id,
			}).
			Mark(ierr.ErrNotFound)
	}
	return copyDiscount(d), nil
}

func (s *InMemoryDiscountStore) GetByCode(ctx context.Context, organizationID string, code string) (*discount.Discount, error) {
	filter := types.NewNoLimitDiscountFilter()
	items, err := s.InMemoryStore.List(ctx, filter, nil, nil)
	if err != nil {
		return nil, err
	}

	for _, d := range items {
		if d.OrganizationID != organizationID {
			continue
		}
		if d.Code == nil || *d.Code != code {
			continue
		}
		if d.DeletedAt != nil {
			continue
		}
		return copyDiscount(d), nil
	}

	return nil, ierr.NewError("discount not found").
		WithHint("No live discount exists with this code").
		WithReportableDetails(map[string]interface{}{
			"code": code,
		}).
		Mark(ierr.ErrNotFound)
}

func (s *InMemoryDiscountStore) List(ctx context.Context, filter *types.DiscountFilter) ([]*discount.Discount, error) {
	items, err := s.InMemoryStore.List(ctx, filter, discountFilterFn, discountSortFn)
	if err != nil {
		return nil, err
	}

	return lo.Map(items, func(d *discount.Discount, _ int) *discount.Discount {
		return copyDiscount(d)
	}), nil
}

func (s *InMemoryDiscountStore) Count(ctx context.Context, filter *types.DiscountFilter) (int, error) {
	return s.InMemoryStore.Count(ctx, filter, discountFilterFn)
}

func (s *InMemoryDiscountStore) Update(ctx context.Context, d *discount.Discount) error {
	if d == nil {
		return ierr.NewError("discount cannot be nil").
			WithHint("Discount cannot be nil").
			Mark(ierr.ErrValidation)
	}

	return s.InMemoryStore.Update(ctx, d.ID, copyDiscount(d))
}

func (s *InMemoryDiscountStore) SoftDelete(ctx context.Context, id string) error {
	d, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	d.DeletedAt = &now
	d.Status = types.StatusDeleted
	return s.Update(ctx, d)
}

func (s *InMemoryDiscountStore) IncrementRedemptions(ctx context.Context, id string) error {
	d, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	d.RedemptionsCount++
	return s.Update(ctx, d)
}

func (s *InMemoryDiscountStore) CreateProductAssociations(ctx context.Context, discountID string, productIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.associations[discountID] = append(s.associations[discountID], productIDs...)
	return nil
}

func (s *InMemoryDiscountStore) ReplaceProductAssociations(ctx context.Context, discountID string, productIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(productIDs) == 0 {
		delete(s.associations, discountID)
		return nil
	}

	s.associations[discountID] = append([]string(nil), productIDs...)
	return nil
}

func (s *InMemoryDiscountStore) GetProductAssociations(ctx context.Context, discountIDs []string) (map[string][]string, error) {
	s.mu.Lock()
	s.AssociationLookupCalls++
	s.mu.Unlock()

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string][]string)
	for _, id := range discountIDs {
		if productIDs, ok := s.associations[id]; ok {
			result[id] = append([]string(nil), productIDs...)
		}
	}
	return result, nil
}

// Clear removes all discounts and associations from the store
func (s *InMemoryDiscountStore) Clear() {
	s.InMemoryStore.Clear()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.associations = make(map[string][]string)
	s.AssociationLookupCalls = 0
}

// discountFilterFn implements filtering logic for discounts
func discountFilterFn(ctx context.Context, d *discount.Discount, filter interface{}) bool {
	f, ok := filter.(*types.DiscountFilter)
	if !ok {
		return false
	}

	// Apply organization filter
	organizationID := types.GetOrganizationID(ctx)
	if organizationID != "" && d.OrganizationID != organizationID {
		return false
	}

	// Soft-deleted discounts are excluded unless explicitly requested
	if f.GetStatus() != string(types.StatusDeleted) && d.DeletedAt != nil {
		return false
	}

	if len(f.DiscountIDs) > 0 && !lo.Contains(f.DiscountIDs, d.ID) {
		return false
	}

	if f.DiscountType != nil && d.Type != *f.DiscountType {
		return false
	}

	if f.NameContains != nil && !strings.Contains(strings.ToLower(d.Name), strings.ToLower(*f.NameContains)) {
		return false
	}

	if f.Code != nil {
		if d.Code == nil || *d.Code != *f.Code {
			return false
		}
	}

	return true
}

// discountSortFn implements sorting logic for discounts
func discountSortFn(i, j *discount.Discount) bool {
	// Default sort by created_at desc
	return i.CreatedAt.After(j.CreatedAt)
}
