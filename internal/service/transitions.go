package service

import (
	"time"

	"github.com/janlord02/thryft-backend-sub000/internal/model"
)

// allowedTransitions is the complete claim state machine.
// used, expired and cancelled are terminal.
var allowedTransitions = map[model.ClaimStatus][]model.ClaimStatus{
	model.ClaimStatusClaimed: {
		model.ClaimStatusUsed,
		model.ClaimStatusExpired,
		model.ClaimStatusCancelled,
	},
}

// CanTransition reports whether a claim may move from one status to another.
func CanTransition(from, to model.ClaimStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// transitionError explains why a claim in status from cannot move to to.
// Returns nil when the transition is allowed.
func transitionError(from, to model.ClaimStatus) error {
	if CanTransition(from, to) {
		return nil
	}
	switch from {
	case model.ClaimStatusUsed:
		return ErrAlreadyUsed
	case model.ClaimStatusExpired:
		return ErrClaimExpired
	case model.ClaimStatusCancelled:
		return ErrClaimNotFound
	}
	return ErrInvalidTransition
}

// checkRedeemable returns the reason a claim cannot be redeemed at now, or nil.
func checkRedeemable(claim *model.ClaimedCoupon, now time.Time) error {
	if err := transitionError(claim.Status, model.ClaimStatusUsed); err != nil {
		return err
	}
	if claim.IsExpired(now) {
		return ErrClaimExpired
	}
	return nil
}
