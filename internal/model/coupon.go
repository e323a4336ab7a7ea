package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DiscountType enumerates the supported coupon discount strategies.
type DiscountType string

const (
	// DiscountFixed takes a fixed monetary amount off the purchase.
	DiscountFixed DiscountType = "fixed"
	// DiscountPercentage takes a percentage off the purchase.
	DiscountPercentage DiscountType = "percentage"
)

// CouponStatus is the derived, never stored, availability of a coupon.
type CouponStatus string

const (
	CouponStatusInactive     CouponStatus = "inactive"
	CouponStatusScheduled    CouponStatus = "scheduled"
	CouponStatusExpired      CouponStatus = "expired"
	CouponStatusLimitReached CouponStatus = "limit_reached"
	CouponStatusActive       CouponStatus = "active"
)

// Coupon is a catalog definition owned by a business.
// UsedCount counts claims ever made, not redemptions.
type Coupon struct {
	ID                 int64           `json:"id"`
	BusinessID         int64           `json:"business_id"`
	OwnerUserID        int64           `json:"-"` // businesses.user_id, recipient of claim alerts
	Code               string          `json:"code"`
	Title              string          `json:"title"`
	Description        string          `json:"description"`
	DiscountType       DiscountType    `json:"discount_type"`
	DiscountAmount     decimal.Decimal `json:"discount_amount"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
	MinimumAmount      decimal.Decimal `json:"minimum_amount"`
	UsageLimit         *int            `json:"usage_limit"`
	UsedCount          int             `json:"used_count"`
	PerUserLimit       *int            `json:"per_user_limit"`
	StartsAt           *time.Time      `json:"starts_at"`
	ExpiresAt          *time.Time      `json:"expires_at"`
	IsActive           bool            `json:"is_active"`
	IsFeatured         bool            `json:"is_featured"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// CouponResponse is the API response DTO for catalog reads.
type CouponResponse struct {
	Coupon
	Status   CouponStatus `json:"status"`
	Discount string       `json:"discount"`
}

// CreateCouponRequest is the DTO for a business publishing a coupon.
type CreateCouponRequest struct {
	Code               string           `json:"code" validate:"required,notblank,max=64"`
	Title              string           `json:"title" validate:"required,notblank,max=255"`
	Description        string           `json:"description" validate:"max=2000"`
	DiscountType       DiscountType     `json:"discount_type" validate:"required,oneof=fixed percentage"`
	DiscountAmount     *decimal.Decimal `json:"discount_amount"`
	DiscountPercentage *decimal.Decimal `json:"discount_percentage"`
	MinimumAmount      *decimal.Decimal `json:"minimum_amount"`
	UsageLimit         *int             `json:"usage_limit" validate:"omitempty,gte=1"`
	PerUserLimit       *int             `json:"per_user_limit" validate:"omitempty,gte=1"`
	StartsAt           *time.Time       `json:"starts_at"`
	ExpiresAt          *time.Time       `json:"expires_at"`
	IsFeatured         bool             `json:"is_featured"`
}
