package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/janlord02/thryft-backend-sub000/internal/model"
)

var hundred = decimal.NewFromInt(100)

// CanBeUsed reports whether a coupon may be claimed at now.
// Checks short-circuit in order: active flag, start, expiry, global usage limit.
func CanBeUsed(c *model.Coupon, now time.Time) bool {
	return CouponStatusAt(c, now) == model.CouponStatusActive
}

// CouponStatusAt derives a coupon's availability at now.
func CouponStatusAt(c *model.Coupon, now time.Time) model.CouponStatus {
	switch {
	case !c.IsActive:
		return model.CouponStatusInactive
	case c.StartsAt != nil && now.Before(*c.StartsAt):
		return model.CouponStatusScheduled
	case c.ExpiresAt != nil && now.After(*c.ExpiresAt):
		return model.CouponStatusExpired
	case c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit:
		return model.CouponStatusLimitReached
	}
	return model.CouponStatusActive
}

// DiscountDisplay formats discount terms for scanners and lists, e.g. "$10.00 OFF" or "15% OFF".
func DiscountDisplay(t model.DiscountType, amount, percentage decimal.Decimal) string {
	if t == model.DiscountPercentage {
		return percentage.String() + "% OFF"
	}
	return "$" + amount.StringFixed(2) + " OFF"
}

// CatalogService provides business-side coupon management.
type CatalogService struct {
	pool       TxBeginner
	couponRepo CouponRepositoryInterface
	claimRepo  ClaimRepositoryInterface
	now        func() time.Time
}

// NewCatalogService creates a new CatalogService with the given pool and repositories.
func NewCatalogService(pool *pgxpool.Pool, couponRepo CouponRepositoryInterface, claimRepo ClaimRepositoryInterface) *CatalogService {
	return NewCatalogServiceWithTxBeginner(pool, couponRepo, claimRepo)
}

// NewCatalogServiceWithTxBeginner creates a CatalogService with a custom TxBeginner.
// Primarily used for testing.
func NewCatalogServiceWithTxBeginner(pool TxBeginner, couponRepo CouponRepositoryInterface, claimRepo ClaimRepositoryInterface) *CatalogService {
	return &CatalogService{
		pool:       pool,
		couponRepo: couponRepo,
		claimRepo:  claimRepo,
		now:        time.Now,
	}
}

// Create publishes a coupon for a business.
// Returns ErrCouponExists if the code is taken and ErrInvalidRequest for inconsistent terms.
func (s *CatalogService) Create(ctx context.Context, businessID int64, req *model.CreateCouponRequest) (*model.CouponResponse, error) {
	if req == nil {
		return nil, ErrInvalidRequest
	}
	if err := validateTerms(req); err != nil {
		return nil, err
	}

	perUser := req.PerUserLimit
	if perUser == nil {
		one := 1
		perUser = &one
	}

	coupon := &model.Coupon{
		BusinessID:         businessID,
		Code:               req.Code,
		Title:              req.Title,
		Description:        req.Description,
		DiscountType:       req.DiscountType,
		DiscountAmount:     decimalOrZero(req.DiscountAmount),
		DiscountPercentage: decimalOrZero(req.DiscountPercentage),
		MinimumAmount:      decimalOrZero(req.MinimumAmount),
		UsageLimit:         req.UsageLimit,
		PerUserLimit:       perUser,
		StartsAt:           req.StartsAt,
		ExpiresAt:          req.ExpiresAt,
		IsActive:           true,
		IsFeatured:         req.IsFeatured,
	}
	if err := s.couponRepo.Insert(ctx, coupon); err != nil {
		if errors.Is(err, ErrCouponExists) {
			return nil, ErrCouponExists
		}
		return nil, fmt.Errorf("insert coupon: %w", err)
	}
	return s.describe(coupon), nil
}

// Get retrieves one coupon with its derived status.
func (s *CatalogService) Get(ctx context.Context, id int64) (*model.CouponResponse, error) {
	coupon, err := s.couponRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get coupon: %w", err)
	}
	if coupon == nil {
		return nil, ErrCouponNotFound
	}
	return s.describe(coupon), nil
}

// ListForBusiness returns every coupon a business owns, newest first.
func (s *CatalogService) ListForBusiness(ctx context.Context, businessID int64) ([]model.CouponResponse, error) {
	coupons, err := s.couponRepo.ListByBusiness(ctx, businessID)
	if err != nil {
		return nil, fmt.Errorf("list coupons: %w", err)
	}
	out := make([]model.CouponResponse, 0, len(coupons))
	for i := range coupons {
		out = append(out, *s.describe(&coupons[i]))
	}
	return out, nil
}

// Deactivate stops a coupon from being claimed. Existing claims stay redeemable.
func (s *CatalogService) Deactivate(ctx context.Context, businessID, id int64) error {
	ok, err := s.couponRepo.Deactivate(ctx, businessID, id)
	if err != nil {
		return fmt.Errorf("deactivate coupon: %w", err)
	}
	if !ok {
		return ErrCouponNotFound
	}
	return nil
}

// Delete removes a coupon that has never been claimed.
// The coupon row is locked so a concurrent claim cannot slip in between the count and the delete.
func (s *CatalogService) Delete(ctx context.Context, businessID, id int64) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	coupon, err := s.couponRepo.GetForUpdate(ctx, tx, id)
	if err != nil {
		if errors.Is(err, ErrCouponNotFound) {
			return ErrCouponNotFound
		}
		return fmt.Errorf("get coupon for update: %w", err)
	}
	if coupon.BusinessID != businessID {
		return ErrCouponNotFound
	}

	claims, err := s.claimRepo.CountByCoupon(ctx, tx, id)
	if err != nil {
		return fmt.Errorf("count claims: %w", err)
	}
	if claims > 0 {
		return ErrCouponHasClaims
	}

	if err := s.couponRepo.Delete(ctx, tx, id); err != nil {
		return fmt.Errorf("delete coupon: %w", err)
	}
	return tx.Commit(ctx)
}

func (s *CatalogService) describe(c *model.Coupon) *model.CouponResponse {
	return &model.CouponResponse{
		Coupon:   *c,
		Status:   CouponStatusAt(c, s.now()),
		Discount: DiscountDisplay(c.DiscountType, c.DiscountAmount, c.DiscountPercentage),
	}
}

func validateTerms(req *model.CreateCouponRequest) error {
	switch req.DiscountType {
	case model.DiscountFixed:
		if req.DiscountAmount == nil || !req.DiscountAmount.IsPositive() {
			return fmt.Errorf("%w: discount_amount must be greater than 0", ErrInvalidRequest)
		}
	case model.DiscountPercentage:
		if req.DiscountPercentage == nil || !req.DiscountPercentage.IsPositive() || req.DiscountPercentage.GreaterThan(hundred) {
			return fmt.Errorf("%w: discount_percentage must be between 0 and 100", ErrInvalidRequest)
		}
	default:
		return fmt.Errorf("%w: discount_type must be fixed or percentage", ErrInvalidRequest)
	}
	if req.MinimumAmount != nil && req.MinimumAmount.IsNegative() {
		return fmt.Errorf("%w: minimum_amount cannot be negative", ErrInvalidRequest)
	}
	if req.StartsAt != nil && req.ExpiresAt != nil && !req.ExpiresAt.After(*req.StartsAt) {
		return fmt.Errorf("%w: expires_at must be after starts_at", ErrInvalidRequest)
	}
	return nil
}

func decimalOrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}
