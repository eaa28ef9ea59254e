package testutil

import (
	"context"

	"github.com/vantagebill/vantagebill/internal/domain/connection"
	ierr "github.com/vantagebill/vantagebill/internal/errors"
	"github.com/vantagebill/vantagebill/internal/types"
)

// InMemoryConnectionStore implements connection.Repository
type InMemoryConnectionStore struct {
	*InMemoryStore[*connection.Connection]
}

// NewInMemoryConnectionStore creates a new in-memory connection store
func NewInMemoryConnectionStore() *InMemoryConnectionStore {
	return &InMemoryConnectionStore{
		InMemoryStore: NewInMemoryStore[*connection.Connection](),
	}
}

func copyConnection(c *connection.Connection) *connection.Connection {
	if c == nil {
		return nil
	}

	copied := &connection.Connection{
		ID:           c.ID,
		Name:         c.Name,
		ProviderType: c.ProviderType,
		AccountID:    c.AccountID,
		Metadata:     c.Metadata,
		BaseModel: types.BaseModel{
			OrganizationID: c.OrganizationID,
			Status:         c.Status,
			CreatedAt:      c.CreatedAt,
			UpdatedAt:      c.UpdatedAt,
			CreatedBy:      c.CreatedBy,
			UpdatedBy:      c.UpdatedBy,
		},
	}

	return copied
}

func (s *InMemoryConnectionStore) Create(ctx context.Context, c *connection.Connection) error {
	if c == nil {
		return ierr.NewError("connection cannot be nil").
			WithHint("Connection cannot be nil").
			Mark(ierr.ErrValidation)
	}

	return s.InMemoryStore.Create(ctx, c.ID, copyConnection(c))
}

func (s *InMemoryConnectionStore) Get(ctx context.Context, id string) (*connection.Connection, error) {
	c, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.NewError("connection not found").
			WithHint("Connection not found").
			WithReportableDetails(map[string]interface{}{
				"id": id,
			}).
			Mark(ierr.ErrNotFound)
	}
	return copyConnection(c), nil
}

func (s *InMemoryConnectionStore) GetByProvider(ctx context.Context, organizationID string, provider types.PaymentProvider) (*connection.Connection, error) {
	items, err := s.InMemoryStore.List(ctx, nil, nil, nil)
	if err != nil {
		return nil, err
	}

	for _, c := range items {
		if c.OrganizationID != organizationID {
			continue
		}
		if c.ProviderType != provider {
			continue
		}
		if c.Status != types.StatusPublished {
			continue
		}
		return copyConnection(c), nil
	}

	return nil, ierr.NewError("connection not found").
		WithHint("No published connection exists for this provider").
		WithReportableDetails(map[string]interface{}{
			"organization_id": organizationID,
			"provider":        provider,
		}).
		Mark(ierr.ErrNotFound)
}

func (s *InMemoryConnectionStore) Update(ctx context.Context, c *connection.Connection) error {
	if c == nil {
		return ierr.NewError("connection cannot be nil").
			WithHint("Connection cannot be nil").
			Mark(ierr.ErrValidation)
	}

	return s.InMemoryStore.Update(ctx, c.ID, copyConnection(c))
}

func (s *InMemoryConnectionStore) Delete(ctx context.Context, id string) error {
	return s.InMemoryStore.Delete(ctx, id)
}
