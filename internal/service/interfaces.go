package service

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/janlord02/thryft-backend-sub000/internal/model"
	"github.com/janlord02/thryft-backend-sub000/pkg/database"
)

// CouponRepositoryInterface defines the interface for catalog data access.
type CouponRepositoryInterface interface {
	Insert(ctx context.Context, coupon *model.Coupon) error
	GetByID(ctx context.Context, id int64) (*model.Coupon, error)
	ListByBusiness(ctx context.Context, businessID int64) ([]model.Coupon, error)
	GetForUpdate(ctx context.Context, tx database.TxQuerier, id int64) (*model.Coupon, error)
	IncrementUsage(ctx context.Context, tx database.TxQuerier, id int64) error
	Deactivate(ctx context.Context, businessID, id int64) (bool, error)
	Delete(ctx context.Context, tx database.TxQuerier, id int64) error
	ListUsageDrift(ctx context.Context) ([]int64, error)
	SyncUsageCount(ctx context.Context, tx database.TxQuerier, id int64) (bool, error)
}

// ClaimRepositoryInterface defines the interface for claim ledger data access.
type ClaimRepositoryInterface interface {
	HasActiveClaim(ctx context.Context, tx database.TxQuerier, userID, couponID int64) (bool, error)
	ProductBelongsTo(ctx context.Context, tx database.TxQuerier, productID, businessID int64) (bool, error)
	CountByUserAndCoupon(ctx context.Context, tx database.TxQuerier, userID, couponID int64) (int, error)
	CountByCoupon(ctx context.Context, tx database.TxQuerier, couponID int64) (int, error)
	Insert(ctx context.Context, tx database.TxQuerier, claim *model.ClaimedCoupon) error
	ListByUser(ctx context.Context, userID int64, filter model.ClaimListFilter) ([]model.ClaimDetail, int, error)
	FindByID(ctx context.Context, id int64) (*model.ClaimDetail, error)
	FindForDirect(ctx context.Context, code string, userID, businessID int64) (*model.ClaimDetail, error)
	FindActiveByCode(ctx context.Context, code string, businessID int64) ([]model.ClaimDetail, error)
	SearchActiveByCode(ctx context.Context, code string, businessID int64, query string) ([]model.ClaimDetail, error)
	MarkUsed(ctx context.Context, id, businessID int64, at time.Time, notes *string) (*model.ClaimedCoupon, error)
	Cancel(ctx context.Context, id int64, at time.Time, notes *string) (*model.ClaimedCoupon, error)
	ExpireBefore(ctx context.Context, now time.Time) (int64, error)
}

// TxBeginner defines the interface for beginning transactions.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// EventEmitter receives ledger events after they are committed.
// Implementations must not block and must not fail the caller.
type EventEmitter interface {
	CouponClaimed(ctx context.Context, coupon *model.Coupon, claim *model.ClaimedCoupon)
	ClaimStatusChanged(ctx context.Context, claim *model.ClaimedCoupon)
}

type nopEmitter struct{}

func (nopEmitter) CouponClaimed(context.Context, *model.Coupon, *model.ClaimedCoupon) {}
func (nopEmitter) ClaimStatusChanged(context.Context, *model.ClaimedCoupon)           {}

func emitterOrNop(e EventEmitter) EventEmitter {
	if e == nil {
		return nopEmitter{}
	}
	return e
}
