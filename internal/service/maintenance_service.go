package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/janlord02/thryft-backend-sub000/internal/model"
)

// MaintenanceService runs the administrative side of the ledger:
// expiry sweeps, cancellations and usage counter reconciliation.
type MaintenanceService struct {
	pool       TxBeginner
	couponRepo CouponRepositoryInterface
	claimRepo  ClaimRepositoryInterface
	events     EventEmitter
	now        func() time.Time
}

// NewMaintenanceService creates a new MaintenanceService.
func NewMaintenanceService(pool *pgxpool.Pool, couponRepo CouponRepositoryInterface, claimRepo ClaimRepositoryInterface, events EventEmitter) *MaintenanceService {
	return NewMaintenanceServiceWithTxBeginner(pool, couponRepo, claimRepo, events)
}

// NewMaintenanceServiceWithTxBeginner creates a MaintenanceService with a custom TxBeginner.
// Primarily used for testing.
func NewMaintenanceServiceWithTxBeginner(pool TxBeginner, couponRepo CouponRepositoryInterface, claimRepo ClaimRepositoryInterface, events EventEmitter) *MaintenanceService {
	return &MaintenanceService{
		pool:       pool,
		couponRepo: couponRepo,
		claimRepo:  claimRepo,
		events:     emitterOrNop(events),
		now:        time.Now,
	}
}

// ExpireClaims moves every claimed entry whose snapshot expiry has passed to expired.
func (s *MaintenanceService) ExpireClaims(ctx context.Context) (int64, error) {
	n, err := s.claimRepo.ExpireBefore(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("expire claims: %w", err)
	}
	return n, nil
}

// ReconcileUsageCounts rewrites coupons.used_count from the ledger where they disagree.
// Each coupon is recounted under its row lock so an in-flight claim is never undercounted.
func (s *MaintenanceService) ReconcileUsageCounts(ctx context.Context) (int64, error) {
	ids, err := s.couponRepo.ListUsageDrift(ctx)
	if err != nil {
		return 0, fmt.Errorf("list usage drift: %w", err)
	}

	var fixed int64
	for _, id := range ids {
		ok, err := s.syncUsage(ctx, id)
		if err != nil {
			return fixed, fmt.Errorf("sync usage for coupon %d: %w", id, err)
		}
		if ok {
			fixed++
		}
	}
	return fixed, nil
}

func (s *MaintenanceService) syncUsage(ctx context.Context, id int64) (bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := s.couponRepo.GetForUpdate(ctx, tx, id); err != nil {
		if errors.Is(err, ErrCouponNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("get coupon for update: %w", err)
	}
	changed, err := s.couponRepo.SyncUsageCount(ctx, tx, id)
	if err != nil {
		return false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return changed, nil
}

// Cancel moves a claimed entry to cancelled, recording the reason in the usage notes.
func (s *MaintenanceService) Cancel(ctx context.Context, claimID int64, reason string) (*model.ClaimedCoupon, error) {
	var notes *string
	if trimmed := strings.TrimSpace(reason); trimmed != "" {
		notes = &trimmed
	}

	claim, err := s.claimRepo.Cancel(ctx, claimID, s.now(), notes)
	if err != nil {
		return nil, fmt.Errorf("cancel claim: %w", err)
	}
	if claim == nil {
		detail, err := s.claimRepo.FindByID(ctx, claimID)
		if err != nil {
			return nil, fmt.Errorf("find claim: %w", err)
		}
		if detail == nil {
			return nil, ErrClaimNotFound
		}
		if err := transitionError(detail.Status, model.ClaimStatusCancelled); err != nil {
			return nil, err
		}
		return nil, ErrClaimNotFound
	}

	s.events.ClaimStatusChanged(ctx, claim)
	return claim, nil
}

// Sweep runs one expiry pass followed by one reconciliation pass.
// A failure in the first pass does not skip the second.
func (s *MaintenanceService) Sweep(ctx context.Context) {
	expired, err := s.ExpireClaims(ctx)
	if err != nil {
		log.Error().Err(err).Msg("claim expiry sweep failed")
	} else if expired > 0 {
		log.Info().Int64("expired", expired).Msg("expired stale claims")
	}

	fixed, err := s.ReconcileUsageCounts(ctx)
	if err != nil {
		log.Error().Err(err).Msg("usage reconciliation failed")
	} else if fixed > 0 {
		log.Warn().Int64("coupons", fixed).Msg("corrected drifted coupon usage counts")
	}
}

// DefaultSweepInterval is used when RunSweeper is given a non-positive interval.
const DefaultSweepInterval = 5 * time.Minute

// RunSweeper calls Sweep every interval until ctx is cancelled.
func (s *MaintenanceService) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		log.Warn().Dur("interval", interval).Dur("default", DefaultSweepInterval).Msg("invalid sweep interval, using default")
		interval = DefaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info().Dur("interval", interval).Msg("claim sweeper started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("claim sweeper stopped")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}
