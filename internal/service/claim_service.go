package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/janlord02/thryft-backend-sub000/internal/model"
)

// Pagination bounds for consumer claim lists.
const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
	MaxPage          = 1_000_000
)

// ClaimService creates claims and lists a consumer's claims.
type ClaimService struct {
	pool       TxBeginner
	couponRepo CouponRepositoryInterface
	claimRepo  ClaimRepositoryInterface
	events     EventEmitter
	now        func() time.Time
}

// NewClaimService creates a new ClaimService with the given pool, repositories and event emitter.
func NewClaimService(pool *pgxpool.Pool, couponRepo CouponRepositoryInterface, claimRepo ClaimRepositoryInterface, events EventEmitter) *ClaimService {
	return NewClaimServiceWithTxBeginner(pool, couponRepo, claimRepo, events)
}

// NewClaimServiceWithTxBeginner creates a ClaimService with a custom TxBeginner.
// Primarily used for testing.
func NewClaimServiceWithTxBeginner(pool TxBeginner, couponRepo CouponRepositoryInterface, claimRepo ClaimRepositoryInterface, events EventEmitter) *ClaimService {
	return &ClaimService{
		pool:       pool,
		couponRepo: couponRepo,
		claimRepo:  claimRepo,
		events:     emitterOrNop(events),
		now:        time.Now,
	}
}

// Claim records a consumer's claim of a coupon.
// The coupon row is locked (SELECT FOR UPDATE) for the whole transaction, so the
// eligibility check, the per-user checks, the insert and the usage increment are
// serialized per coupon. Returns:
//   - ErrCouponNotFound if the coupon doesn't exist or is inactive
//   - ErrCouponUnavailable if the coupon is scheduled, expired or at its usage limit
//   - ErrAlreadyClaimed if the consumer holds an active or used claim of it
//   - ErrUserLimitReached if the consumer has claimed it per_user_limit times
//   - ErrProductNotFound if productID is not a product of the coupon's business
func (s *ClaimService) Claim(ctx context.Context, consumerID, couponID int64, productID *int64) (*model.ClaimedCoupon, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }() // Safe: no-op if committed

	// 1. Lock the coupon row
	coupon, err := s.couponRepo.GetForUpdate(ctx, tx, couponID)
	if err != nil {
		if errors.Is(err, ErrCouponNotFound) {
			return nil, ErrCouponNotFound
		}
		return nil, fmt.Errorf("get coupon for update: %w", err)
	}
	if !coupon.IsActive {
		return nil, ErrCouponNotFound
	}

	// 2. Re-evaluate eligibility under the lock
	now := s.now()
	if !CanBeUsed(coupon, now) {
		return nil, ErrCouponUnavailable
	}

	// 3. One active or used claim per consumer
	active, err := s.claimRepo.HasActiveClaim(ctx, tx, consumerID, couponID)
	if err != nil {
		return nil, fmt.Errorf("check active claim: %w", err)
	}
	if active {
		return nil, ErrAlreadyClaimed
	}

	// 4. Lifetime claims against per_user_limit
	if coupon.PerUserLimit != nil {
		total, err := s.claimRepo.CountByUserAndCoupon(ctx, tx, consumerID, couponID)
		if err != nil {
			return nil, fmt.Errorf("count user claims: %w", err)
		}
		if total >= *coupon.PerUserLimit {
			return nil, ErrUserLimitReached
		}
	}

	// 5. The product, when given, must be sold by the coupon's business
	if productID != nil {
		ok, err := s.claimRepo.ProductBelongsTo(ctx, tx, *productID, coupon.BusinessID)
		if err != nil {
			return nil, fmt.Errorf("check product: %w", err)
		}
		if !ok {
			return nil, ErrProductNotFound
		}
	}

	// 6. Insert the snapshot (partial UNIQUE index catches races)
	claim := snapshot(coupon, consumerID, productID)
	if err := s.claimRepo.Insert(ctx, tx, claim); err != nil {
		switch {
		case errors.Is(err, ErrAlreadyClaimed):
			return nil, ErrAlreadyClaimed
		case errors.Is(err, ErrProductNotFound):
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("insert claim: %w", err)
	}

	// 7. Count the claim against the coupon
	if err := s.couponRepo.IncrementUsage(ctx, tx, couponID); err != nil {
		return nil, fmt.Errorf("increment usage: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit claim: %w", err)
	}
	coupon.UsedCount++

	// 8. Alert the business, outside the transaction
	s.events.CouponClaimed(ctx, coupon, claim)

	return claim, nil
}

// ListClaimed returns one page of a consumer's claims, newest first.
func (s *ClaimService) ListClaimed(ctx context.Context, consumerID int64, filter model.ClaimListFilter) (*model.ClaimPage, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidRequest, *filter.Status)
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Page > MaxPage {
		filter.Page = MaxPage
	}
	if filter.Limit < 1 {
		filter.Limit = DefaultPageLimit
	}
	if filter.Limit > MaxPageLimit {
		filter.Limit = MaxPageLimit
	}

	details, total, err := s.claimRepo.ListByUser(ctx, consumerID, filter)
	if err != nil {
		return nil, fmt.Errorf("list claims: %w", err)
	}

	data := make([]model.ClaimSummary, 0, len(details))
	for i := range details {
		d := &details[i]
		summary := model.ClaimSummary{
			ClaimedCoupon: d.ClaimedCoupon,
			Discount:      DiscountDisplay(d.DiscountType, d.DiscountAmount, d.DiscountPercentage),
			Business:      model.BusinessSummary{ID: d.BusinessID, Name: d.BusinessName},
		}
		if d.ProductID != nil && d.ProductName != nil {
			summary.Product = &model.ProductSummary{ID: *d.ProductID, Name: *d.ProductName}
		}
		data = append(data, summary)
	}

	lastPage := (total + filter.Limit - 1) / filter.Limit
	if lastPage < 1 {
		lastPage = 1
	}

	return &model.ClaimPage{
		Data: data,
		Pagination: model.Pagination{
			CurrentPage: filter.Page,
			PerPage:     filter.Limit,
			Total:       total,
			LastPage:    lastPage,
		},
	}, nil
}

// snapshot copies the coupon's terms onto a new claim.
func snapshot(c *model.Coupon, consumerID int64, productID *int64) *model.ClaimedCoupon {
	return &model.ClaimedCoupon{
		UserID:             consumerID,
		CouponID:           c.ID,
		BusinessID:         c.BusinessID,
		ProductID:          productID,
		CouponCode:         c.Code,
		CouponTitle:        c.Title,
		CouponDescription:  c.Description,
		DiscountType:       c.DiscountType,
		DiscountAmount:     c.DiscountAmount,
		DiscountPercentage: c.DiscountPercentage,
		MinimumAmount:      c.MinimumAmount,
		ExpiresAt:          c.ExpiresAt,
		Status:             model.ClaimStatusClaimed,
	}
}
