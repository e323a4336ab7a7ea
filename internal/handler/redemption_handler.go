package handler

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/janlord02/thryft-backend-sub000/internal/model"
	"github.com/janlord02/thryft-backend-sub000/internal/service"
)

// RedemptionServiceInterface defines the interface for business-side redemption logic.
type RedemptionServiceInterface interface {
	ValidateDirect(ctx context.Context, scannerBusinessID int64, code string, consumerID, businessID int64) (*model.ClaimedCouponView, error)
	ValidateManual(ctx context.Context, businessID int64, code string) (*model.ManualResult, error)
	ValidateSpecific(ctx context.Context, businessID, claimID int64) (*model.ClaimedCouponView, error)
	SearchCustomers(ctx context.Context, businessID int64, code, query string) ([]model.CandidateView, error)
	MarkAsUsed(ctx context.Context, businessID, claimID int64, notes string) (*model.ClaimedCoupon, error)
}

// RedemptionHandler handles HTTP requests from business scanners.
type RedemptionHandler struct {
	service   RedemptionServiceInterface
	validator *validator.Validate
}

// NewRedemptionHandler creates a new RedemptionHandler with the given service and validator.
func NewRedemptionHandler(svc RedemptionServiceInterface, v *validator.Validate) *RedemptionHandler {
	return &RedemptionHandler{service: svc, validator: v}
}

// validationStatus maps lookup errors shared by the validate endpoints.
func (h *RedemptionHandler) validationStatus(c *fiber.Ctx, err error, msg string) error {
	switch {
	case errors.Is(err, service.ErrClaimNotFound):
		return errorJSON(c, fiber.StatusNotFound, "coupon not found")
	case errors.Is(err, service.ErrClaimExpired), errors.Is(err, service.ErrAlreadyUsed):
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrWrongBusiness):
		return errorJSON(c, fiber.StatusForbidden, err.Error())
	}
	return internalError(c, err, msg)
}

// ValidateDirect handles POST /api/coupons/validate-qr-direct.
func (h *RedemptionHandler) ValidateDirect(c *fiber.Ctx) error {
	var req model.ValidateDirectRequest
	if ok, err := parseBody(c, h.validator, &req); !ok {
		return err
	}

	view, err := h.service.ValidateDirect(c.Context(), identity(c).BusinessID, req.CouponCode, req.UserID, req.BusinessID)
	if err != nil {
		return h.validationStatus(c, err, "failed to validate qr code")
	}
	return c.JSON(fiber.Map{"coupon": view})
}

// ValidateManual handles POST /api/coupons/validate-manual.
// Several matching claims produce a candidate list instead of an error.
func (h *RedemptionHandler) ValidateManual(c *fiber.Ctx) error {
	var req model.ValidateManualRequest
	if ok, err := parseBody(c, h.validator, &req); !ok {
		return err
	}

	result, err := h.service.ValidateManual(c.Context(), identity(c).BusinessID, req.CouponCode)
	if err != nil {
		return h.validationStatus(c, err, "failed to validate coupon code")
	}

	if result.Kind == model.ManualResultMultiple {
		return c.JSON(fiber.Map{"status": result.Kind, "customers": result.Customers})
	}
	return c.JSON(fiber.Map{"status": result.Kind, "coupon": result.Coupon})
}

// ValidateSpecific handles POST /api/coupons/validate-specific.
func (h *RedemptionHandler) ValidateSpecific(c *fiber.Ctx) error {
	var req model.ValidateSpecificRequest
	if ok, err := parseBody(c, h.validator, &req); !ok {
		return err
	}

	view, err := h.service.ValidateSpecific(c.Context(), identity(c).BusinessID, req.ClaimedCouponID)
	if err != nil {
		return h.validationStatus(c, err, "failed to validate claimed coupon")
	}
	return c.JSON(fiber.Map{"coupon": view})
}

// SearchCustomers handles POST /api/coupons/search-customers.
func (h *RedemptionHandler) SearchCustomers(c *fiber.Ctx) error {
	var req model.SearchCustomersRequest
	if ok, err := parseBody(c, h.validator, &req); !ok {
		return err
	}

	customers, err := h.service.SearchCustomers(c.Context(), identity(c).BusinessID, req.CouponCode, req.Query)
	if err != nil {
		return internalError(c, err, "failed to search customers")
	}
	return c.JSON(fiber.Map{"customers": customers})
}

// MarkAsUsed handles POST /api/coupons/mark-as-used.
func (h *RedemptionHandler) MarkAsUsed(c *fiber.Ctx) error {
	var req model.MarkAsUsedRequest
	if ok, err := parseBody(c, h.validator, &req); !ok {
		return err
	}

	claim, err := h.service.MarkAsUsed(c.Context(), identity(c).BusinessID, req.ClaimedCouponID, req.Notes)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrClaimNotFound), errors.Is(err, service.ErrAlreadyUsed):
			return errorJSON(c, fiber.StatusNotFound, "coupon not found or already used")
		case errors.Is(err, service.ErrClaimExpired):
			return errorJSON(c, fiber.StatusBadRequest, err.Error())
		}
		return internalError(c, err, "failed to mark coupon as used")
	}

	requestLog(log.Info(), c).
		Int64("claimed_coupon_id", claim.ID).
		Int64("coupon_id", claim.CouponID).
		Msg("coupon redeemed")

	return c.JSON(fiber.Map{"claimedCoupon": claim})
}
