package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ClaimStatus is the state of a ledger entry.
type ClaimStatus string

const (
	ClaimStatusClaimed   ClaimStatus = "claimed"
	ClaimStatusUsed      ClaimStatus = "used"
	ClaimStatusExpired   ClaimStatus = "expired"
	ClaimStatusCancelled ClaimStatus = "cancelled"
)

// Valid reports whether s is a known claim status.
func (s ClaimStatus) Valid() bool {
	switch s {
	case ClaimStatusClaimed, ClaimStatusUsed, ClaimStatusExpired, ClaimStatusCancelled:
		return true
	}
	return false
}

// GeneralStoreDiscount is the product label shown when a claim is not tied to a product.
const GeneralStoreDiscount = "General Store Discount"

// ClaimedCoupon is a consumer's claim of a coupon.
// The Coupon* and discount fields are a snapshot taken at claim time.
type ClaimedCoupon struct {
	ID                 int64           `json:"id"`
	UserID             int64           `json:"user_id"`
	CouponID           int64           `json:"coupon_id"`
	BusinessID         int64           `json:"business_id"`
	ProductID          *int64          `json:"product_id"`
	CouponCode         string          `json:"coupon_code"`
	CouponTitle        string          `json:"coupon_title"`
	CouponDescription  string          `json:"coupon_description"`
	DiscountType       DiscountType    `json:"discount_type"`
	DiscountAmount     decimal.Decimal `json:"discount_amount"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
	MinimumAmount      decimal.Decimal `json:"minimum_amount"`
	ExpiresAt          *time.Time      `json:"expires_at"`
	Status             ClaimStatus     `json:"status"`
	UsedAt             *time.Time      `json:"used_at"`
	UsageNotes         *string         `json:"usage_notes"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// IsExpired reports whether the snapshot expiry has passed at now.
func (c *ClaimedCoupon) IsExpired(now time.Time) bool {
	return c.ExpiresAt != nil && c.ExpiresAt.Before(now)
}

// ClaimDetail is a ledger entry joined with the consumer, business and product it refers to.
type ClaimDetail struct {
	ClaimedCoupon
	CustomerName  string
	CustomerEmail string
	BusinessName  string
	ProductName   *string
}

// CustomerView identifies the consumer holding a claim.
type CustomerView struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ClaimedCouponView is what a business scanner sees for a redeemable claim.
type ClaimedCouponView struct {
	ID            int64           `json:"id"`
	Code          string          `json:"code"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	Discount      string          `json:"discount"`
	Customer      CustomerView    `json:"customer"`
	Product       string          `json:"product"`
	MinimumAmount decimal.Decimal `json:"minimum_amount"`
	ExpiresAt     *time.Time      `json:"expires_at"`
	ClaimedAt     time.Time       `json:"claimed_at"`
	Status        ClaimStatus     `json:"status"`
}

// CandidateView is one entry of a disambiguation list.
type CandidateView struct {
	ClaimedCouponID int64     `json:"claimed_coupon_id"`
	CustomerID      int64     `json:"customer_id"`
	CustomerName    string    `json:"customer_name"`
	CustomerEmail   string    `json:"customer_email"`
	ClaimedAt       time.Time `json:"claimed_at"`
	IsExpired       bool      `json:"is_expired"`
	IsUsed          bool      `json:"is_used"`
}

// ManualResultKind tags the shape of a manual validation result.
type ManualResultKind string

const (
	ManualResultSingle   ManualResultKind = "single"
	ManualResultMultiple ManualResultKind = "multiple"
)

// ManualResult is either a single redeemable claim or a list of candidates to pick from.
type ManualResult struct {
	Kind      ManualResultKind
	Coupon    *ClaimedCouponView
	Customers []CandidateView
}

// ClaimSummary is a consumer-facing list entry.
type ClaimSummary struct {
	ClaimedCoupon
	Discount string          `json:"discount"`
	Business BusinessSummary `json:"business"`
	Product  *ProductSummary `json:"product"`
}

// BusinessSummary is the minimal business info shown with a claim.
type BusinessSummary struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ProductSummary is the minimal product info shown with a claim.
type ProductSummary struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ClaimListFilter narrows a consumer's claim list.
type ClaimListFilter struct {
	Status *ClaimStatus
	Page   int
	Limit  int
}

// Offset returns the row offset for the filter's page.
func (f ClaimListFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// Pagination describes a page of results.
type Pagination struct {
	CurrentPage int `json:"current_page"`
	PerPage     int `json:"per_page"`
	Total       int `json:"total"`
	LastPage    int `json:"last_page"`
}

// ClaimPage is a paginated list of a consumer's claims.
type ClaimPage struct {
	Data       []ClaimSummary `json:"data"`
	Pagination Pagination     `json:"pagination"`
}

// ClaimCouponRequest is the DTO for claiming a coupon.
type ClaimCouponRequest struct {
	CouponID  int64  `json:"coupon_id" validate:"required,gte=1"`
	ProductID *int64 `json:"product_id" validate:"omitempty,gte=1"`
}

// ValidateDirectRequest is the DTO for a QR scan carrying the full claim key.
type ValidateDirectRequest struct {
	CouponCode string `json:"couponCode" validate:"required,notblank,max=64"`
	UserID     int64  `json:"userId" validate:"required,gte=1"`
	BusinessID int64  `json:"businessId" validate:"required,gte=1"`
	Timestamp  int64  `json:"timestamp"`
}

// ValidateManualRequest is the DTO for a typed-in coupon code.
type ValidateManualRequest struct {
	CouponCode string `json:"couponCode" validate:"required,notblank,max=64"`
}

// ValidateSpecificRequest is the DTO for confirming one claim by id.
type ValidateSpecificRequest struct {
	ClaimedCouponID int64 `json:"claimedCouponId" validate:"required,gte=1"`
}

// SearchCustomersRequest is the DTO for narrowing candidates by name or email.
type SearchCustomersRequest struct {
	CouponCode string `json:"couponCode" validate:"required,notblank,max=64"`
	Query      string `json:"query" validate:"max=255"`
}

// MarkAsUsedRequest is the DTO for redeeming a claim.
type MarkAsUsedRequest struct {
	ClaimedCouponID int64  `json:"claimedCouponId" validate:"required,gte=1"`
	Notes           string `json:"notes" validate:"max=1000"`
}

// CancelClaimRequest is the DTO for an admin cancelling a claim.
type CancelClaimRequest struct {
	Reason string `json:"reason" validate:"max=1000"`
}
