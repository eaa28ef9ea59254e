package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/vantagebill/vantagebill/internal/cache"
	"github.com/vantagebill/vantagebill/internal/domain/connection"
	ierr "github.com/vantagebill/vantagebill/internal/errors"
	"github.com/vantagebill/vantagebill/internal/logger"
	"github.com/vantagebill/vantagebill/internal/postgres"
	"github.com/vantagebill/vantagebill/internal/types"
)

type connectionRepository struct {
	db     postgres.IClient
	logger *logger.Logger
	cache  cache.Cache
}

func NewConnectionRepository(db postgres.IClient, logger *logger.Logger, cache cache.Cache) connection.Repository {
	return &connectionRepository{db: db, logger: logger, cache: cache}
}

func (r *connectionRepository) Create(ctx context.Context, conn *connection.Connection) error {
	query := `
	INSERT INTO connections (
		id, organization_id, name, provider_type, account_id, metadata,
		status, created_at, updated_at, created_by, updated_by
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
	)
	`

	metadataJSON, err := json.Marshal(conn.Metadata)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to serialize connection metadata").
			Mark(ierr.ErrValidation)
	}

	_, err = r.db.GetQuerier(ctx).ExecContext(ctx, query,
		conn.ID,
		conn.OrganizationID,
		conn.Name,
		conn.ProviderType,
		conn.AccountID,
		metadataJSON,
		conn.Status,
		conn.CreatedAt,
		conn.UpdatedAt,
		conn.CreatedBy,
		conn.UpdatedBy,
	)

	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create connection").
			Mark(ierr.ErrDatabase)
	}

	return nil
}

func (r *connectionRepository) Get(ctx context.Context, id string) (*connection.Connection, error) {
	query := `
	SELECT id, organization_id, name, provider_type, account_id, metadata,
		status, created_at, updated_at, created_by, updated_by
	FROM connections
	WHERE id = $1 AND organization_id = $2
	`

	return r.scanConnection(ctx, query, id, types.GetOrganizationID(ctx))
}

func (r *connectionRepository) GetByProvider(ctx context.Context, organizationID string, provider types.PaymentProvider) (*connection.Connection, error) {
	query := `
	SELECT id, organization_id, name, provider_type, account_id, metadata,
		status, created_at, updated_at, created_by, updated_by
	FROM connections
	WHERE organization_id = $1 AND provider_type = $2 AND status = $3
	`

	return r.scanConnection(ctx, query, organizationID, provider, types.StatusPublished)
}

func (r *connectionRepository) Update(ctx context.Context, conn *connection.Connection) error {
	query := `
	UPDATE connections SET
		name = $1,
		account_id = $2,
		metadata = $3,
		status = $4,
		updated_at = $5,
		updated_by = $6
	WHERE id = $7 AND organization_id = $8
	`

	metadataJSON, err := json.Marshal(conn.Metadata)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to serialize connection metadata").
			Mark(ierr.ErrValidation)
	}

	result, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		conn.Name,
		conn.AccountID,
		metadataJSON,
		conn.Status,
		time.Now().UTC(),
		types.GetUserID(ctx),
		conn.ID,
		conn.OrganizationID,
	)

	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update connection").
			Mark(ierr.ErrDatabase)
	}

	if err := checkRowsAffected(result, "connection", conn.ID); err != nil {
		return err
	}

	r.invalidateCache(ctx, conn.OrganizationID)
	return nil
}

func (r *connectionRepository) Delete(ctx context.Context, id string) error {
	query := `
	UPDATE connections SET
		status = $1,
		updated_at = $2,
		updated_by = $3
	WHERE id = $4 AND organization_id = $5
	`

	result, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		types.StatusDeleted,
		time.Now().UTC(),
		types.GetUserID(ctx),
		id,
		types.GetOrganizationID(ctx),
	)

	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to delete connection").
			Mark(ierr.ErrDatabase)
	}

	if err := checkRowsAffected(result, "connection", id); err != nil {
		return err
	}

	r.invalidateCache(ctx, types.GetOrganizationID(ctx))
	return nil
}

// invalidateCache drops every cached account resolution for the organization
// so a changed or removed connection is visible on the next lookup instead of
// after cache expiry
func (r *connectionRepository) invalidateCache(ctx context.Context, organizationID string) {
	r.cache.DeleteByPrefix(ctx, cache.GenerateKey(cache.PrefixConnection, organizationID))
}

func (r *connectionRepository) scanConnection(ctx context.Context, query string, args ...interface{}) (*connection.Connection, error) {
	var conn connection.Connection
	var metadataJSON []byte

	err := r.db.GetQuerier(ctx).QueryRowContext(ctx, query, args...).Scan(
		&conn.ID,
		&conn.OrganizationID,
		&conn.Name,
		&conn.ProviderType,
		&conn.AccountID,
		&metadataJSON,
		&conn.Status,
		&conn.CreatedAt,
		&conn.UpdatedAt,
		&conn.CreatedBy,
		&conn.UpdatedBy,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.NewError("connection not found").
				WithHint("Connection not found").
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get connection").
			Mark(ierr.ErrDatabase)
	}

	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &conn.Metadata); err != nil {
			return nil, ierr.WithError(err).
				WithHint("Failed to parse connection metadata").
				Mark(ierr.ErrDatabase)
		}
	}

	return &conn, nil
}
