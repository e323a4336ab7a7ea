package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/janlord02/thryft-backend-sub000/internal/model"
)

// RedemptionService validates claims for a business scanner and redeems them.
// Every operation takes the scanning business explicitly.
type RedemptionService struct {
	claimRepo ClaimRepositoryInterface
	events    EventEmitter
	now       func() time.Time
}

// NewRedemptionService creates a new RedemptionService.
func NewRedemptionService(claimRepo ClaimRepositoryInterface, events EventEmitter) *RedemptionService {
	return &RedemptionService{
		claimRepo: claimRepo,
		events:    emitterOrNop(events),
		now:       time.Now,
	}
}

// ValidateDirect checks a QR scan that carries the coupon code, the consumer and the business.
// Returns ErrWrongBusiness when the scanner is not the claim's business.
func (s *RedemptionService) ValidateDirect(ctx context.Context, scannerBusinessID int64, code string, consumerID, businessID int64) (*model.ClaimedCouponView, error) {
	if scannerBusinessID != businessID {
		return nil, ErrWrongBusiness
	}

	detail, err := s.claimRepo.FindForDirect(ctx, code, consumerID, businessID)
	if err != nil {
		return nil, fmt.Errorf("find claim: %w", err)
	}
	if detail == nil {
		return nil, ErrClaimNotFound
	}
	if err := checkRedeemable(&detail.ClaimedCoupon, s.now()); err != nil {
		return nil, err
	}
	return buildView(detail), nil
}

// ValidateManual resolves a typed-in code within a business.
// One active claim yields a single result; several yield candidates to pick from
// with ValidateSpecific.
func (s *RedemptionService) ValidateManual(ctx context.Context, businessID int64, code string) (*model.ManualResult, error) {
	details, err := s.claimRepo.FindActiveByCode(ctx, code, businessID)
	if err != nil {
		return nil, fmt.Errorf("find claims by code: %w", err)
	}

	switch len(details) {
	case 0:
		return nil, ErrClaimNotFound
	case 1:
		if err := checkRedeemable(&details[0].ClaimedCoupon, s.now()); err != nil {
			return nil, err
		}
		return &model.ManualResult{Kind: model.ManualResultSingle, Coupon: buildView(&details[0])}, nil
	}

	return &model.ManualResult{
		Kind:      model.ManualResultMultiple,
		Customers: s.candidates(details),
	}, nil
}

// ValidateSpecific confirms one claim by id for the scanning business.
// A claim of another business is reported as not found.
func (s *RedemptionService) ValidateSpecific(ctx context.Context, businessID, claimID int64) (*model.ClaimedCouponView, error) {
	detail, err := s.findOwned(ctx, businessID, claimID)
	if err != nil {
		return nil, err
	}
	if err := checkRedeemable(&detail.ClaimedCoupon, s.now()); err != nil {
		return nil, err
	}
	return buildView(detail), nil
}

// SearchCustomers narrows the active claims of a code by consumer name or email.
func (s *RedemptionService) SearchCustomers(ctx context.Context, businessID int64, code, query string) ([]model.CandidateView, error) {
	details, err := s.claimRepo.SearchActiveByCode(ctx, code, businessID, strings.TrimSpace(query))
	if err != nil {
		return nil, fmt.Errorf("search customers: %w", err)
	}
	return s.candidates(details), nil
}

// MarkAsUsed redeems a claim. Status and snapshot expiry are re-checked by the
// update itself, so two scanners racing on one claim cannot both win.
func (s *RedemptionService) MarkAsUsed(ctx context.Context, businessID, claimID int64, notes string) (*model.ClaimedCoupon, error) {
	var notesPtr *string
	if trimmed := strings.TrimSpace(notes); trimmed != "" {
		notesPtr = &trimmed
	}

	now := s.now()
	claim, err := s.claimRepo.MarkUsed(ctx, claimID, businessID, now, notesPtr)
	if err != nil {
		return nil, fmt.Errorf("mark claim used: %w", err)
	}
	if claim == nil {
		detail, err := s.findOwned(ctx, businessID, claimID)
		if err != nil {
			return nil, err
		}
		if err := checkRedeemable(&detail.ClaimedCoupon, now); err != nil {
			return nil, err
		}
		return nil, ErrClaimNotFound
	}

	s.events.ClaimStatusChanged(ctx, claim)
	return claim, nil
}

func (s *RedemptionService) findOwned(ctx context.Context, businessID, claimID int64) (*model.ClaimDetail, error) {
	detail, err := s.claimRepo.FindByID(ctx, claimID)
	if err != nil {
		return nil, fmt.Errorf("find claim: %w", err)
	}
	if detail == nil || detail.BusinessID != businessID {
		return nil, ErrClaimNotFound
	}
	return detail, nil
}

func (s *RedemptionService) candidates(details []model.ClaimDetail) []model.CandidateView {
	now := s.now()
	out := make([]model.CandidateView, 0, len(details))
	for i := range details {
		d := &details[i]
		out = append(out, model.CandidateView{
			ClaimedCouponID: d.ID,
			CustomerID:      d.UserID,
			CustomerName:    d.CustomerName,
			CustomerEmail:   d.CustomerEmail,
			ClaimedAt:       d.CreatedAt,
			IsExpired:       d.Status == model.ClaimStatusExpired || d.IsExpired(now),
			IsUsed:          d.Status == model.ClaimStatusUsed,
		})
	}
	return out
}

func buildView(d *model.ClaimDetail) *model.ClaimedCouponView {
	product := model.GeneralStoreDiscount
	if d.ProductName != nil && *d.ProductName != "" {
		product = *d.ProductName
	}
	return &model.ClaimedCouponView{
		ID:            d.ID,
		Code:          d.CouponCode,
		Title:         d.CouponTitle,
		Description:   d.CouponDescription,
		Discount:      DiscountDisplay(d.DiscountType, d.DiscountAmount, d.DiscountPercentage),
		Customer:      model.CustomerView{ID: d.UserID, Name: d.CustomerName, Email: d.CustomerEmail},
		Product:       product,
		MinimumAmount: d.MinimumAmount,
		ExpiresAt:     d.ExpiresAt,
		ClaimedAt:     d.CreatedAt,
		Status:        d.Status,
	}
}
