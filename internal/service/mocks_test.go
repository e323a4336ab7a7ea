package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/janlord02/thryft-backend-sub000/internal/model"
	"github.com/janlord02/thryft-backend-sub000/pkg/database"
)

// mockCouponRepository is a mock implementation of CouponRepositoryInterface.
type mockCouponRepository struct {
	insertFn         func(ctx context.Context, coupon *model.Coupon) error
	getByIDFn        func(ctx context.Context, id int64) (*model.Coupon, error)
	listByBusinessFn func(ctx context.Context, businessID int64) ([]model.Coupon, error)
	getForUpdateFn   func(ctx context.Context, tx database.TxQuerier, id int64) (*model.Coupon, error)
	incrementUsageFn func(ctx context.Context, tx database.TxQuerier, id int64) error
	deactivateFn     func(ctx context.Context, businessID, id int64) (bool, error)
	deleteFn         func(ctx context.Context, tx database.TxQuerier, id int64) error
	listUsageDriftFn func(ctx context.Context) ([]int64, error)
	syncUsageCountFn func(ctx context.Context, tx database.TxQuerier, id int64) (bool, error)
}

func (m *mockCouponRepository) Insert(ctx context.Context, coupon *model.Coupon) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, coupon)
	}
	return nil
}

func (m *mockCouponRepository) GetByID(ctx context.Context, id int64) (*model.Coupon, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockCouponRepository) ListByBusiness(ctx context.Context, businessID int64) ([]model.Coupon, error) {
	if m.listByBusinessFn != nil {
		return m.listByBusinessFn(ctx, businessID)
	}
	return []model.Coupon{}, nil
}

func (m *mockCouponRepository) GetForUpdate(ctx context.Context, tx database.TxQuerier, id int64) (*model.Coupon, error) {
	if m.getForUpdateFn != nil {
		return m.getForUpdateFn(ctx, tx, id)
	}
	return nil, ErrCouponNotFound
}

func (m *mockCouponRepository) IncrementUsage(ctx context.Context, tx database.TxQuerier, id int64) error {
	if m.incrementUsageFn != nil {
		return m.incrementUsageFn(ctx, tx, id)
	}
	return nil
}

func (m *mockCouponRepository) Deactivate(ctx context.Context, businessID, id int64) (bool, error) {
	if m.deactivateFn != nil {
		return m.deactivateFn(ctx, businessID, id)
	}
	return true, nil
}

func (m *mockCouponRepository) Delete(ctx context.Context, tx database.TxQuerier, id int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, tx, id)
	}
	return nil
}

func (m *mockCouponRepository) ListUsageDrift(ctx context.Context) ([]int64, error) {
	if m.listUsageDriftFn != nil {
		return m.listUsageDriftFn(ctx)
	}
	return nil, nil
}

func (m *mockCouponRepository) SyncUsageCount(ctx context.Context, tx database.TxQuerier, id int64) (bool, error) {
	if m.syncUsageCountFn != nil {
		return m.syncUsageCountFn(ctx, tx, id)
	}
	return false, nil
}

// mockClaimRepository is a mock implementation of ClaimRepositoryInterface.
type mockClaimRepository struct {
	hasActiveClaimFn       func(ctx context.Context, tx database.TxQuerier, userID, couponID int64) (bool, error)
	productBelongsToFn     func(ctx context.Context, tx database.TxQuerier, productID, businessID int64) (bool, error)
	countByUserAndCouponFn func(ctx context.Context, tx database.TxQuerier, userID, couponID int64) (int, error)
	countByCouponFn        func(ctx context.Context, tx database.TxQuerier, couponID int64) (int, error)
	insertFn               func(ctx context.Context, tx database.TxQuerier, claim *model.ClaimedCoupon) error
	listByUserFn           func(ctx context.Context, userID int64, filter model.ClaimListFilter) ([]model.ClaimDetail, int, error)
	findByIDFn             func(ctx context.Context, id int64) (*model.ClaimDetail, error)
	findForDirectFn        func(ctx context.Context, code string, userID, businessID int64) (*model.ClaimDetail, error)
	findActiveByCodeFn     func(ctx context.Context, code string, businessID int64) ([]model.ClaimDetail, error)
	searchActiveByCodeFn   func(ctx context.Context, code string, businessID int64, query string) ([]model.ClaimDetail, error)
	markUsedFn             func(ctx context.Context, id, businessID int64, at time.Time, notes *string) (*model.ClaimedCoupon, error)
	cancelFn               func(ctx context.Context, id int64, at time.Time, notes *string) (*model.ClaimedCoupon, error)
	expireBeforeFn         func(ctx context.Context, now time.Time) (int64, error)
}

func (m *mockClaimRepository) HasActiveClaim(ctx context.Context, tx database.TxQuerier, userID, couponID int64) (bool, error) {
	if m.hasActiveClaimFn != nil {
		return m.hasActiveClaimFn(ctx, tx, userID, couponID)
	}
	return false, nil
}

func (m *mockClaimRepository) ProductBelongsTo(ctx context.Context, tx database.TxQuerier, productID, businessID int64) (bool, error) {
	if m.productBelongsToFn != nil {
		return m.productBelongsToFn(ctx, tx, productID, businessID)
	}
	return true, nil
}

func (m *mockClaimRepository) CountByUserAndCoupon(ctx context.Context, tx database.TxQuerier, userID, couponID int64) (int, error) {
	if m.countByUserAndCouponFn != nil {
		return m.countByUserAndCouponFn(ctx, tx, userID, couponID)
	}
	return 0, nil
}

func (m *mockClaimRepository) CountByCoupon(ctx context.Context, tx database.TxQuerier, couponID int64) (int, error) {
	if m.countByCouponFn != nil {
		return m.countByCouponFn(ctx, tx, couponID)
	}
	return 0, nil
}

func (m *mockClaimRepository) Insert(ctx context.Context, tx database.TxQuerier, claim *model.ClaimedCoupon) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, tx, claim)
	}
	return nil
}

func (m *mockClaimRepository) ListByUser(ctx context.Context, userID int64, filter model.ClaimListFilter) ([]model.ClaimDetail, int, error) {
	if m.listByUserFn != nil {
		return m.listByUserFn(ctx, userID, filter)
	}
	return []model.ClaimDetail{}, 0, nil
}

func (m *mockClaimRepository) FindByID(ctx context.Context, id int64) (*model.ClaimDetail, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockClaimRepository) FindForDirect(ctx context.Context, code string, userID, businessID int64) (*model.ClaimDetail, error) {
	if m.findForDirectFn != nil {
		return m.findForDirectFn(ctx, code, userID, businessID)
	}
	return nil, nil
}

func (m *mockClaimRepository) FindActiveByCode(ctx context.Context, code string, businessID int64) ([]model.ClaimDetail, error) {
	if m.findActiveByCodeFn != nil {
		return m.findActiveByCodeFn(ctx, code, businessID)
	}
	return []model.ClaimDetail{}, nil
}

func (m *mockClaimRepository) SearchActiveByCode(ctx context.Context, code string, businessID int64, query string) ([]model.ClaimDetail, error) {
	if m.searchActiveByCodeFn != nil {
		return m.searchActiveByCodeFn(ctx, code, businessID, query)
	}
	return []model.ClaimDetail{}, nil
}

func (m *mockClaimRepository) MarkUsed(ctx context.Context, id, businessID int64, at time.Time, notes *string) (*model.ClaimedCoupon, error) {
	if m.markUsedFn != nil {
		return m.markUsedFn(ctx, id, businessID, at, notes)
	}
	return nil, nil
}

func (m *mockClaimRepository) Cancel(ctx context.Context, id int64, at time.Time, notes *string) (*model.ClaimedCoupon, error) {
	if m.cancelFn != nil {
		return m.cancelFn(ctx, id, at, notes)
	}
	return nil, nil
}

func (m *mockClaimRepository) ExpireBefore(ctx context.Context, now time.Time) (int64, error) {
	if m.expireBeforeFn != nil {
		return m.expireBeforeFn(ctx, now)
	}
	return 0, nil
}

// mockTx is a mock implementation of pgx.Tx for testing transactions.
type mockTx struct {
	commitFn   func(ctx context.Context) error
	rollbackFn func(ctx context.Context) error
	committed  bool
}

func (m *mockTx) Begin(ctx context.Context) (pgx.Tx, error) {
	return nil, errors.New("nested transactions not supported")
}

func (m *mockTx) Commit(ctx context.Context) error {
	if m.commitFn != nil {
		return m.commitFn(ctx)
	}
	m.committed = true
	return nil
}

func (m *mockTx) Rollback(ctx context.Context) error {
	if m.rollbackFn != nil {
		return m.rollbackFn(ctx)
	}
	return nil
}

func (m *mockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}

func (m *mockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	return nil
}

func (m *mockTx) LargeObjects() pgx.LargeObjects {
	return pgx.LargeObjects{}
}

func (m *mockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}

func (m *mockTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (m *mockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}

func (m *mockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}

func (m *mockTx) Conn() *pgx.Conn {
	return nil
}

// mockTxBeginner is a mock implementation of TxBeginner.
type mockTxBeginner struct {
	beginFn func(ctx context.Context) (pgx.Tx, error)
}

func (m *mockTxBeginner) Begin(ctx context.Context) (pgx.Tx, error) {
	if m.beginFn != nil {
		return m.beginFn(ctx)
	}
	return &mockTx{}, nil
}

func txBeginner(tx *mockTx) *mockTxBeginner {
	return &mockTxBeginner{
		beginFn: func(ctx context.Context) (pgx.Tx, error) {
			return tx, nil
		},
	}
}

// recordingEmitter captures events for assertions.
type recordingEmitter struct {
	mu      sync.Mutex
	claimed []*model.ClaimedCoupon
	changed []model.ClaimedCoupon
}

func (r *recordingEmitter) CouponClaimed(_ context.Context, _ *model.Coupon, claim *model.ClaimedCoupon) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.claimed = append(r.claimed, claim)
}

func (r *recordingEmitter) ClaimStatusChanged(_ context.Context, claim *model.ClaimedCoupon) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changed = append(r.changed, *claim)
}

func intPtr(i int) *int {
	return &i
}

func int64Ptr(i int64) *int64 {
	return &i
}

func strPtr(s string) *string {
	return &s
}

func timePtr(t time.Time) *time.Time {
	return &t
}

// fixedClock returns a now func pinned to t.
func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
