package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/janlord02/thryft-backend-sub000/internal/model"
	"github.com/janlord02/thryft-backend-sub000/internal/service"
	"github.com/janlord02/thryft-backend-sub000/pkg/database"
)

// PoolInterface defines the database operations needed by repositories.
// This allows for easier testing with mocks.
type PoolInterface interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// rowScanner is satisfied by both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

const couponColumns = `c.id, c.business_id, b.user_id, c.code, c.title, c.description,
	c.discount_type, c.discount_amount, c.discount_percentage, c.minimum_amount,
	c.usage_limit, c.used_count, c.per_user_limit, c.starts_at, c.expires_at,
	c.is_active, c.is_featured, c.created_at, c.updated_at`

const couponFrom = ` FROM coupons c JOIN businesses b ON b.id = c.business_id`

// CouponRepository provides data access for the coupon catalog using pgx.
type CouponRepository struct {
	pool PoolInterface
}

// NewCouponRepository creates a new CouponRepository with the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// NewCouponRepositoryWithPool creates a new CouponRepository with a custom pool interface.
// This is primarily used for testing.
func NewCouponRepositoryWithPool(pool PoolInterface) *CouponRepository {
	return &CouponRepository{pool: pool}
}

func scanCoupon(row rowScanner, c *model.Coupon) error {
	return row.Scan(
		&c.ID,
		&c.BusinessID,
		&c.OwnerUserID,
		&c.Code,
		&c.Title,
		&c.Description,
		&c.DiscountType,
		&c.DiscountAmount,
		&c.DiscountPercentage,
		&c.MinimumAmount,
		&c.UsageLimit,
		&c.UsedCount,
		&c.PerUserLimit,
		&c.StartsAt,
		&c.ExpiresAt,
		&c.IsActive,
		&c.IsFeatured,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
}

// Insert inserts a new coupon and fills its generated fields.
// Returns service.ErrCouponExists if the code is already taken.
func (r *CouponRepository) Insert(ctx context.Context, coupon *model.Coupon) error {
	query := `INSERT INTO coupons (
		business_id, code, title, description, discount_type, discount_amount,
		discount_percentage, minimum_amount, usage_limit, per_user_limit,
		starts_at, expires_at, is_active, is_featured
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	RETURNING id, used_count, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		coupon.BusinessID,
		coupon.Code,
		coupon.Title,
		coupon.Description,
		string(coupon.DiscountType),
		coupon.DiscountAmount,
		coupon.DiscountPercentage,
		coupon.MinimumAmount,
		coupon.UsageLimit,
		coupon.PerUserLimit,
		coupon.StartsAt,
		coupon.ExpiresAt,
		coupon.IsActive,
		coupon.IsFeatured,
	).Scan(&coupon.ID, &coupon.UsedCount, &coupon.CreatedAt, &coupon.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return service.ErrCouponExists
		}
		return fmt.Errorf("insert coupon: %w", err)
	}
	return nil
}

// GetByID retrieves a coupon by id.
// Returns nil, nil if the coupon is not found (service layer handles this).
func (r *CouponRepository) GetByID(ctx context.Context, id int64) (*model.Coupon, error) {
	query := `SELECT ` + couponColumns + couponFrom + ` WHERE c.id = $1`

	var coupon model.Coupon
	if err := scanCoupon(r.pool.QueryRow(ctx, query, id), &coupon); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get coupon %d: %w", id, err)
	}
	return &coupon, nil
}

// ListByBusiness returns a business's coupons, newest first.
// Returns an empty slice (not nil) when the business has none.
func (r *CouponRepository) ListByBusiness(ctx context.Context, businessID int64) ([]model.Coupon, error) {
	query := `SELECT ` + couponColumns + couponFrom + ` WHERE c.business_id = $1 ORDER BY c.created_at DESC, c.id DESC`

	rows, err := r.pool.Query(ctx, query, businessID)
	if err != nil {
		return nil, fmt.Errorf("list coupons for business %d: %w", businessID, err)
	}
	defer rows.Close()

	coupons := []model.Coupon{}
	for rows.Next() {
		var c model.Coupon
		if err := scanCoupon(rows, &c); err != nil {
			return nil, fmt.Errorf("scan coupon: %w", err)
		}
		coupons = append(coupons, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate coupon rows: %w", err)
	}
	return coupons, nil
}

// GetForUpdate retrieves a coupon with a row lock (SELECT FOR UPDATE OF c).
// This locks the coupon row, not the business row, until the transaction completes.
// Returns service.ErrCouponNotFound if the coupon doesn't exist.
func (r *CouponRepository) GetForUpdate(ctx context.Context, tx database.TxQuerier, id int64) (*model.Coupon, error) {
	query := `SELECT ` + couponColumns + couponFrom + ` WHERE c.id = $1 FOR UPDATE OF c`

	var coupon model.Coupon
	if err := scanCoupon(tx.QueryRow(ctx, query, id), &coupon); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrCouponNotFound
		}
		return nil, fmt.Errorf("get coupon for update %d: %w", id, err)
	}
	return &coupon, nil
}

// IncrementUsage atomically adds one claim to used_count.
// Must be called within the claim transaction.
func (r *CouponRepository) IncrementUsage(ctx context.Context, tx database.TxQuerier, id int64) error {
	query := `UPDATE coupons SET used_count = used_count + 1, updated_at = NOW() WHERE id = $1`

	tag, err := tx.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("increment usage for %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("increment usage for %d: %w", id, service.ErrCouponNotFound)
	}
	return nil
}

// Deactivate clears is_active on a coupon owned by businessID.
// Returns false when no such coupon exists.
func (r *CouponRepository) Deactivate(ctx context.Context, businessID, id int64) (bool, error) {
	query := `UPDATE coupons SET is_active = FALSE, updated_at = NOW() WHERE id = $1 AND business_id = $2`

	tag, err := r.pool.Exec(ctx, query, id, businessID)
	if err != nil {
		return false, fmt.Errorf("deactivate coupon %d: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

// Delete removes a coupon row inside tx.
func (r *CouponRepository) Delete(ctx context.Context, tx database.TxQuerier, id int64) error {
	if _, err := tx.Exec(ctx, `DELETE FROM coupons WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete coupon %d: %w", id, err)
	}
	return nil
}

// ListUsageDrift returns the ids of coupons whose used_count disagrees with the ledger.
func (r *CouponRepository) ListUsageDrift(ctx context.Context) ([]int64, error) {
	query := `SELECT c.id FROM coupons c
		LEFT JOIN claimed_coupons cc ON cc.coupon_id = c.id
		GROUP BY c.id, c.used_count
		HAVING c.used_count <> COUNT(cc.id)
		ORDER BY c.id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list usage drift: %w", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan coupon id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate drift rows: %w", err)
	}
	return ids, nil
}

// SyncUsageCount sets used_count to the ledger count for one coupon.
// Must run after the coupon row is locked in tx. Reports whether the value changed.
func (r *CouponRepository) SyncUsageCount(ctx context.Context, tx database.TxQuerier, id int64) (bool, error) {
	query := `UPDATE coupons c SET used_count = l.total, updated_at = NOW()
		FROM (SELECT COUNT(*)::int AS total FROM claimed_coupons WHERE coupon_id = $1) l
		WHERE c.id = $1 AND c.used_count <> l.total`

	tag, err := tx.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("sync usage count for %d: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}
