package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/janlord02/thryft-backend-sub000/internal/model"
	"github.com/janlord02/thryft-backend-sub000/internal/service"
	"github.com/janlord02/thryft-backend-sub000/pkg/database"
)

const claimColumns = `id, user_id, coupon_id, business_id, product_id, coupon_code, coupon_title,
	coupon_description, discount_type, discount_amount, discount_percentage, minimum_amount,
	expires_at, status, used_at, usage_notes, created_at, updated_at`

// claimDetailSelect joins a ledger row with the names shown to scanners and consumers.
const claimDetailSelect = `SELECT cc.id, cc.user_id, cc.coupon_id, cc.business_id, cc.product_id,
	cc.coupon_code, cc.coupon_title, cc.coupon_description, cc.discount_type, cc.discount_amount,
	cc.discount_percentage, cc.minimum_amount, cc.expires_at, cc.status, cc.used_at, cc.usage_notes,
	cc.created_at, cc.updated_at, u.name, u.email, b.name, p.name
	FROM claimed_coupons cc
	JOIN users u ON u.id = cc.user_id
	JOIN businesses b ON b.id = cc.business_id
	LEFT JOIN products p ON p.id = cc.product_id`

// ClaimRepository provides data access for the claim ledger using pgx.
type ClaimRepository struct {
	pool PoolInterface
}

// NewClaimRepository creates a new ClaimRepository with the given pool.
func NewClaimRepository(pool *pgxpool.Pool) *ClaimRepository {
	return &ClaimRepository{pool: pool}
}

// NewClaimRepositoryWithPool creates a new ClaimRepository with a custom pool interface.
// This is primarily used for testing.
func NewClaimRepositoryWithPool(pool PoolInterface) *ClaimRepository {
	return &ClaimRepository{pool: pool}
}

func claimFields(c *model.ClaimedCoupon) []any {
	return []any{
		&c.ID,
		&c.UserID,
		&c.CouponID,
		&c.BusinessID,
		&c.ProductID,
		&c.CouponCode,
		&c.CouponTitle,
		&c.CouponDescription,
		&c.DiscountType,
		&c.DiscountAmount,
		&c.DiscountPercentage,
		&c.MinimumAmount,
		&c.ExpiresAt,
		&c.Status,
		&c.UsedAt,
		&c.UsageNotes,
		&c.CreatedAt,
		&c.UpdatedAt,
	}
}

func scanClaim(row rowScanner, c *model.ClaimedCoupon) error {
	return row.Scan(claimFields(c)...)
}

func scanClaimDetail(row rowScanner, d *model.ClaimDetail) error {
	dest := append(claimFields(&d.ClaimedCoupon), &d.CustomerName, &d.CustomerEmail, &d.BusinessName, &d.ProductName)
	return row.Scan(dest...)
}

func (r *ClaimRepository) queryDetails(ctx context.Context, query string, args ...any) ([]model.ClaimDetail, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query claims: %w", err)
	}
	defer rows.Close()

	details := []model.ClaimDetail{}
	for rows.Next() {
		var d model.ClaimDetail
		if err := scanClaimDetail(rows, &d); err != nil {
			return nil, fmt.Errorf("scan claim: %w", err)
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate claim rows: %w", err)
	}
	return details, nil
}

func (r *ClaimRepository) queryDetail(ctx context.Context, query string, args ...any) (*model.ClaimDetail, error) {
	var d model.ClaimDetail
	if err := scanClaimDetail(r.pool.QueryRow(ctx, query, args...), &d); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get claim: %w", err)
	}
	return &d, nil
}

// HasActiveClaim reports whether the consumer holds a claimed or used entry of the coupon.
func (r *ClaimRepository) HasActiveClaim(ctx context.Context, tx database.TxQuerier, userID, couponID int64) (bool, error) {
	query := `SELECT EXISTS (
		SELECT 1 FROM claimed_coupons
		WHERE user_id = $1 AND coupon_id = $2 AND status IN ('claimed', 'used')
	)`

	var exists bool
	if err := tx.QueryRow(ctx, query, userID, couponID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check active claim: %w", err)
	}
	return exists, nil
}

// ProductBelongsTo reports whether the product exists and is sold by businessID.
func (r *ClaimRepository) ProductBelongsTo(ctx context.Context, tx database.TxQuerier, productID, businessID int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1 AND business_id = $2)`

	var exists bool
	if err := tx.QueryRow(ctx, query, productID, businessID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check product: %w", err)
	}
	return exists, nil
}

// CountByUserAndCoupon counts every claim the consumer has made of the coupon, in any status.
func (r *ClaimRepository) CountByUserAndCoupon(ctx context.Context, tx database.TxQuerier, userID, couponID int64) (int, error) {
	query := `SELECT COUNT(*) FROM claimed_coupons WHERE user_id = $1 AND coupon_id = $2`

	var n int
	if err := tx.QueryRow(ctx, query, userID, couponID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count user claims: %w", err)
	}
	return n, nil
}

// CountByCoupon counts every ledger entry for a coupon.
func (r *ClaimRepository) CountByCoupon(ctx context.Context, tx database.TxQuerier, couponID int64) (int, error) {
	var n int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM claimed_coupons WHERE coupon_id = $1`, couponID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count coupon claims: %w", err)
	}
	return n, nil
}

// Insert inserts a new claim within a transaction and fills its generated fields.
// Returns service.ErrAlreadyClaimed if the active-claim unique index rejects it.
func (r *ClaimRepository) Insert(ctx context.Context, tx database.TxQuerier, claim *model.ClaimedCoupon) error {
	query := `INSERT INTO claimed_coupons (
		user_id, coupon_id, business_id, product_id, coupon_code, coupon_title,
		coupon_description, discount_type, discount_amount, discount_percentage,
		minimum_amount, expires_at, status
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	RETURNING id, created_at, updated_at`

	err := tx.QueryRow(ctx, query,
		claim.UserID,
		claim.CouponID,
		claim.BusinessID,
		claim.ProductID,
		claim.CouponCode,
		claim.CouponTitle,
		claim.CouponDescription,
		string(claim.DiscountType),
		claim.DiscountAmount,
		claim.DiscountPercentage,
		claim.MinimumAmount,
		claim.ExpiresAt,
		string(claim.Status),
	).Scan(&claim.ID, &claim.CreatedAt, &claim.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return service.ErrAlreadyClaimed
		}
		if database.IsForeignKeyViolation(err) {
			return service.ErrProductNotFound
		}
		return fmt.Errorf("insert claim: %w", err)
	}
	return nil
}

// ListByUser returns one page of a consumer's claims, newest first, and the total count.
func (r *ClaimRepository) ListByUser(ctx context.Context, userID int64, filter model.ClaimListFilter) ([]model.ClaimDetail, int, error) {
	where := ` WHERE cc.user_id = $1`
	args := []any{userID}
	if filter.Status != nil {
		where += ` AND cc.status = $2`
		args = append(args, string(*filter.Status))
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM claimed_coupons cc` + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count claims for user %d: %w", userID, err)
	}

	n := len(args)
	query := claimDetailSelect + where +
		fmt.Sprintf(` ORDER BY cc.created_at DESC, cc.id DESC LIMIT $%d OFFSET $%d`, n+1, n+2)
	args = append(args, filter.Limit, filter.Offset())

	details, err := r.queryDetails(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list claims for user %d: %w", userID, err)
	}
	return details, total, nil
}

// FindByID retrieves one claim in any status.
// Returns nil, nil if it does not exist.
func (r *ClaimRepository) FindByID(ctx context.Context, id int64) (*model.ClaimDetail, error) {
	return r.queryDetail(ctx, claimDetailSelect+` WHERE cc.id = $1`, id)
}

// FindForDirect retrieves the claim identified by code, consumer and business.
// A claimed entry wins over historical ones so the caller can report why a
// non-redeemable entry was rejected. Returns nil, nil when none exists.
func (r *ClaimRepository) FindForDirect(ctx context.Context, code string, userID, businessID int64) (*model.ClaimDetail, error) {
	query := claimDetailSelect + ` WHERE cc.coupon_code = $1 AND cc.user_id = $2 AND cc.business_id = $3
		ORDER BY (cc.status = 'claimed') DESC, cc.created_at DESC
		LIMIT 1`
	return r.queryDetail(ctx, query, code, userID, businessID)
}

// FindActiveByCode retrieves every claimed entry of a code at a business, oldest first.
func (r *ClaimRepository) FindActiveByCode(ctx context.Context, code string, businessID int64) ([]model.ClaimDetail, error) {
	query := claimDetailSelect + ` WHERE cc.coupon_code = $1 AND cc.business_id = $2 AND cc.status = 'claimed'
		ORDER BY cc.created_at, cc.id`
	return r.queryDetails(ctx, query, code, businessID)
}

// SearchActiveByCode is FindActiveByCode narrowed by a case-insensitive match on
// the consumer's name or email. An empty query matches everyone.
func (r *ClaimRepository) SearchActiveByCode(ctx context.Context, code string, businessID int64, query string) ([]model.ClaimDetail, error) {
	sql := claimDetailSelect + ` WHERE cc.coupon_code = $1 AND cc.business_id = $2 AND cc.status = 'claimed'
		AND (u.name ILIKE $3 OR u.email ILIKE $3)
		ORDER BY cc.created_at, cc.id`
	return r.queryDetails(ctx, sql, code, businessID, likePattern(query))
}

// MarkUsed performs the claimed -> used transition as one conditional update.
// Returns nil, nil when no unexpired claimed entry with that id belongs to businessID.
func (r *ClaimRepository) MarkUsed(ctx context.Context, id, businessID int64, at time.Time, notes *string) (*model.ClaimedCoupon, error) {
	query := `UPDATE claimed_coupons
		SET status = 'used', used_at = $3, usage_notes = $4, updated_at = $3
		WHERE id = $1 AND business_id = $2 AND status = 'claimed'
		  AND (expires_at IS NULL OR expires_at >= $3)
		RETURNING ` + claimColumns

	return r.updateOne(ctx, query, id, businessID, at, notes)
}

// Cancel performs the claimed -> cancelled transition as one conditional update.
// Returns nil, nil when no claimed entry with that id exists.
func (r *ClaimRepository) Cancel(ctx context.Context, id int64, at time.Time, notes *string) (*model.ClaimedCoupon, error) {
	query := `UPDATE claimed_coupons
		SET status = 'cancelled', usage_notes = COALESCE($3, usage_notes), updated_at = $2
		WHERE id = $1 AND status = 'claimed'
		RETURNING ` + claimColumns

	return r.updateOne(ctx, query, id, at, notes)
}

// ExpireBefore moves claimed entries whose snapshot expiry is before now to expired.
func (r *ClaimRepository) ExpireBefore(ctx context.Context, now time.Time) (int64, error) {
	query := `UPDATE claimed_coupons SET status = 'expired', updated_at = $1
		WHERE status = 'claimed' AND expires_at IS NOT NULL AND expires_at < $1`

	tag, err := r.pool.Exec(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("expire claims: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *ClaimRepository) updateOne(ctx context.Context, query string, args ...any) (*model.ClaimedCoupon, error) {
	var claim model.ClaimedCoupon
	if err := scanClaim(r.pool.QueryRow(ctx, query, args...), &claim); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("update claim: %w", err)
	}
	return &claim, nil
}

// likePattern wraps q for a substring ILIKE, escaping the pattern metacharacters.
func likePattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(q) + "%"
}
