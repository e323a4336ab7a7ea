package service

import "errors"

var (
	// ErrCouponExists is returned when attempting to create a coupon whose code is taken
	ErrCouponExists = errors.New("coupon already exists")

	// ErrCouponNotFound is returned when a coupon cannot be found or is inactive
	ErrCouponNotFound = errors.New("coupon not found")

	// ErrCouponUnavailable is returned when a coupon fails the eligibility check at claim time
	ErrCouponUnavailable = errors.New("coupon no longer available")

	// ErrCouponHasClaims is returned when deleting a coupon that has ledger entries
	ErrCouponHasClaims = errors.New("coupon has claims and cannot be deleted")

	// ErrInvalidRequest is returned when request data is invalid or incomplete
	ErrInvalidRequest = errors.New("invalid request")

	// ErrAlreadyClaimed is returned when a consumer already holds an active or used claim
	ErrAlreadyClaimed = errors.New("coupon already claimed")

	// ErrUserLimitReached is returned when a consumer has claimed a coupon per_user_limit times
	ErrUserLimitReached = errors.New("coupon claim limit reached")

	// ErrProductNotFound is returned when a claim names a product the coupon's business does not sell
	ErrProductNotFound = errors.New("product not found")

	// ErrClaimNotFound is returned when no claim matches the lookup
	ErrClaimNotFound = errors.New("claimed coupon not found")

	// ErrClaimExpired is returned when a claim's snapshot expiry has passed
	ErrClaimExpired = errors.New("coupon has expired")

	// ErrAlreadyUsed is returned when a claim has already been redeemed
	ErrAlreadyUsed = errors.New("coupon has already been used")

	// ErrWrongBusiness is returned when a business scans another business's claim
	ErrWrongBusiness = errors.New("coupon does not belong to this business")

	// ErrInvalidTransition is returned for a status change the ledger does not allow
	ErrInvalidTransition = errors.New("invalid claim status transition")
)
