package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/vantagebill/vantagebill/internal/domain/discount"
	ierr "github.com/vantagebill/vantagebill/internal/errors"
	"github.com/vantagebill/vantagebill/internal/logger"
	"github.com/vantagebill/vantagebill/internal/postgres"
	"github.com/vantagebill/vantagebill/internal/types"
)

const discountColumns = `
	id, organization_id, name, code, type, percent_off, amount_off, currency,
	duration, duration_in_months, max_redemptions, redemptions_count,
	stripe_coupon_id, stripe_promotion_code_id, deleted_at,
	status, created_at, updated_at, created_by, updated_by`

type discountRepository struct {
	db     postgres.IClient
	logger *logger.Logger
}

func NewDiscountRepository(db postgres.IClient, logger *logger.Logger) discount.Repository {
	return &discountRepository{db: db, logger: logger}
}

func (r *discountRepository) Create(ctx context.Context, d *discount.Discount) error {
	query := `
	INSERT INTO discounts (` + discountColumns + `
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20
	)
	`

	_, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		d.ID,
		d.OrganizationID,
		d.Name,
		d.Code,
		d.Type,
		d.PercentOff,
		d.AmountOff,
		d.Currency,
		d.Duration,
		d.DurationInMonths,
		d.MaxRedemptions,
		d.RedemptionsCount,
		d.StripeCouponID,
		d.StripePromotionCodeID,
		d.DeletedAt,
		d.Status,
		d.CreatedAt,
		d.UpdatedAt,
		d.CreatedBy,
		d.UpdatedBy,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return ierr.WithError(err).
				WithHint("A discount with this code already exists").
				WithReportableDetails(map[string]interface{}{
					"code": d.Code,
				}).
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create discount").
			Mark(ierr.ErrDatabase)
	}

	return nil
}

func (r *discountRepository) Get(ctx context.Context, id string) (*discount.Discount, error) {
	query := `
	SELECT ` + discountColumns + `
	FROM discounts
	WHERE id = $1 AND organization_id = $2
	`

	var d discount.Discount
	err := r.db.GetQuerier(ctx).GetContext(ctx, &d, query, id, types.GetOrganizationID(ctx))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.NewError("discount not found").
				WithHint("Discount not found").
				WithReportableDetails(map[string]interface{}{
					"id": id,
				}).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get discount").
			Mark(ierr.ErrDatabase)
	}

	return &d, nil
}

func (r *discountRepository) GetByCode(ctx context.Context, organizationID string, code string) (*discount.Discount, error) {
	// Only live discounts hold the code; soft-deleted rows release it
	query := `
	SELECT ` + discountColumns + `
	FROM discounts
	WHERE organization_id = $1 AND code = $2 AND deleted_at IS NULL
	`

	var d discount.Discount
	err := r.db.GetQuerier(ctx).GetContext(ctx, &d, query, organizationID, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.NewError("discount not found").
				WithHint("No live discount exists with this code").
				WithReportableDetails(map[string]interface{}{
					"code": code,
				}).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get discount by code").
			Mark(ierr.ErrDatabase)
	}

	return &d, nil
}

func (r *discountRepository) List(ctx context.Context, filter *types.DiscountFilter) ([]*discount.Discount, error) {
	query := `
	SELECT ` + discountColumns + `
	FROM discounts
	`

	conditions, args := r.buildConditions(ctx, filter)
	query += " WHERE " + strings.Join(conditions, " AND ")

	sortColumn := sanitizeSortColumn(filter.GetSort())
	order := "DESC"
	if filter.GetOrder() == types.OrderAsc {
		order = "ASC"
	}
	query += fmt.Sprintf(" ORDER BY %s %s", sortColumn, order)

	if !filter.IsUnlimited() {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", filter.GetLimit(), filter.GetOffset())
	}

	var discounts []*discount.Discount
	err := r.db.GetQuerier(ctx).SelectContext(ctx, &discounts, query, args...)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list discounts").
			Mark(ierr.ErrDatabase)
	}

	return discounts, nil
}

func (r *discountRepository) Count(ctx context.Context, filter *types.DiscountFilter) (int, error) {
	query := `SELECT COUNT(*) FROM discounts`

	conditions, args := r.buildConditions(ctx, filter)
	query += " WHERE " + strings.Join(conditions, " AND ")

	var count int
	err := r.db.GetQuerier(ctx).GetContext(ctx, &count, query, args...)
	if err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to count discounts").
			Mark(ierr.ErrDatabase)
	}

	return count, nil
}

func (r *discountRepository) Update(ctx context.Context, d *discount.Discount) error {
	query := `
	UPDATE discounts SET
		name = $1,
		code = $2,
		duration = $3,
		duration_in_months = $4,
		max_redemptions = $5,
		stripe_coupon_id = $6,
		stripe_promotion_code_id = $7,
		status = $8,
		updated_at = $9,
		updated_by = $10
	WHERE id = $11 AND organization_id = $12
	`

	result, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		d.Name,
		d.Code,
		d.Duration,
		d.DurationInMonths,
		d.MaxRedemptions,
		d.StripeCouponID,
		d.StripePromotionCodeID,
		d.Status,
		time.Now().UTC(),
		types.GetUserID(ctx),
		d.ID,
		d.OrganizationID,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return ierr.WithError(err).
				WithHint("A discount with this code already exists").
				WithReportableDetails(map[string]interface{}{
					"code": d.Code,
				}).
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to update discount").
			Mark(ierr.ErrDatabase)
	}

	return checkRowsAffected(result, "discount", d.ID)
}

func (r *discountRepository) SoftDelete(ctx context.Context, id string) error {
	query := `
	UPDATE discounts SET
		deleted_at = $1,
		status = $2,
		updated_at = $1,
		updated_by = $3
	WHERE id = $4 AND organization_id = $5 AND deleted_at IS NULL
	`

	result, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		time.Now().UTC(),
		types.StatusDeleted,
		types.GetUserID(ctx),
		id,
		types.GetOrganizationID(ctx),
	)

	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to delete discount").
			Mark(ierr.ErrDatabase)
	}

	return checkRowsAffected(result, "discount", id)
}

func (r *discountRepository) IncrementRedemptions(ctx context.Context, id string) error {
	query := `
	UPDATE discounts SET
		redemptions_count = redemptions_count + 1,
		updated_at = $1
	WHERE id = $2 AND organization_id = $3 AND deleted_at IS NULL
	`

	result, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		time.Now().UTC(),
		id,
		types.GetOrganizationID(ctx),
	)

	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to increment redemptions").
			Mark(ierr.ErrDatabase)
	}

	return checkRowsAffected(result, "discount", id)
}

func (r *discountRepository) CreateProductAssociations(ctx context.Context, discountID string, productIDs []string) error {
	if len(productIDs) == 0 {
		return nil
	}

	query := `
	INSERT INTO discount_product_associations (discount_id, product_id)
	SELECT $1, unnest($2::text[])
	ON CONFLICT DO NOTHING
	`

	_, err := r.db.GetQuerier(ctx).ExecContext(ctx, query, discountID, pq.Array(productIDs))
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create product associations").
			WithReportableDetails(map[string]interface{}{
				"discount_id": discountID,
			}).
			Mark(ierr.ErrDatabase)
	}

	return nil
}

func (r *discountRepository) ReplaceProductAssociations(ctx context.Context, discountID string, productIDs []string) error {
	deleteQuery := `DELETE FROM discount_product_associations WHERE discount_id = $1`
	_, err := r.db.GetQuerier(ctx).ExecContext(ctx, deleteQuery, discountID)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to replace product associations").
			WithReportableDetails(map[string]interface{}{
				"discount_id": discountID,
			}).
			Mark(ierr.ErrDatabase)
	}

	return r.CreateProductAssociations(ctx, discountID, productIDs)
}

func (r *discountRepository) GetProductAssociations(ctx context.Context, discountIDs []string) (map[string][]string, error) {
	result := make(map[string][]string)
	if len(discountIDs) == 0 {
		return result, nil
	}

	// One query for the whole batch regardless of how many discounts are
	// being hydrated
	query := `
	SELECT discount_id, product_id
	FROM discount_product_associations
	WHERE discount_id = ANY($1)
	ORDER BY discount_id, product_id
	`

	var rows []discount.ProductAssociation
	err := r.db.GetQuerier(ctx).SelectContext(ctx, &rows, query, pq.Array(discountIDs))
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to get product associations").
			Mark(ierr.ErrDatabase)
	}

	for _, row := range rows {
		result[row.DiscountID] = append(result[row.DiscountID], row.ProductID)
	}

	return result, nil
}

func (r *discountRepository) buildConditions(ctx context.Context, filter *types.DiscountFilter) ([]string, []interface{}) {
	conditions := []string{"organization_id = $1"}
	args := []interface{}{types.GetOrganizationID(ctx)}

	if filter.GetStatus() == string(types.StatusDeleted) {
		conditions = append(conditions, "deleted_at IS NOT NULL")
	} else {
		conditions = append(conditions, "deleted_at IS NULL")
	}

	if len(filter.DiscountIDs) > 0 {
		args = append(args, pq.Array(filter.DiscountIDs))
		conditions = append(conditions, fmt.Sprintf("id = ANY($%d)", len(args)))
	}

	if filter.DiscountType != nil {
		args = append(args, *filter.DiscountType)
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)))
	}

	if filter.NameContains != nil {
		args = append(args, "%"+*filter.NameContains+"%")
		conditions = append(conditions, fmt.Sprintf("name ILIKE $%d", len(args)))
	}

	if filter.Code != nil {
		args = append(args, *filter.Code)
		conditions = append(conditions, fmt.Sprintf("code = $%d", len(args)))
	}

	return conditions, args
}

// sanitizeSortColumn restricts ORDER BY to known columns since the column
// name cannot be parameterized
func sanitizeSortColumn(sort string) string {
	switch sort {
	case "name", "created_at", "updated_at", "code", "type":
		return sort
	default:
		return "created_at"
	}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

func checkRowsAffected(result sql.Result, entity string, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to get rows affected").
			Mark(ierr.ErrDatabase)
	}

	if rows == 0 {
		return ierr.NewError(entity + " not found").
			WithHint("The record does not exist or was already deleted").
			WithReportableDetails(map[string]interface{}{
				"id": id,
			}).
			Mark(ierr.ErrNotFound)
	}

	return nil
}
