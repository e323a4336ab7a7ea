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

// ClaimServiceInterface defines the interface for consumer claim logic.
type ClaimServiceInterface interface {
	Claim(ctx context.Context, consumerID, couponID int64, productID *int64) (*model.ClaimedCoupon, error)
	ListClaimed(ctx context.Context, consumerID int64, filter model.ClaimListFilter) (*model.ClaimPage, error)
}

// ClaimHandler handles HTTP requests for claim operations.
type ClaimHandler struct {
	service   ClaimServiceInterface
	validator *validator.Validate
}

// NewClaimHandler creates a new ClaimHandler with the given service and validator.
func NewClaimHandler(svc ClaimServiceInterface, v *validator.Validate) *ClaimHandler {
	return &ClaimHandler{service: svc, validator: v}
}

// Claim handles POST /api/coupons/claim requests to claim a coupon.
func (h *ClaimHandler) Claim(c *fiber.Ctx) error {
	var req model.ClaimCouponRequest
	if ok, err := parseBody(c, h.validator, &req); !ok {
		return err
	}

	consumer := identity(c)
	claim, err := h.service.Claim(c.Context(), consumer.UserID, req.CouponID, req.ProductID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCouponNotFound):
			return errorJSON(c, fiber.StatusNotFound, "coupon not found")
		case errors.Is(err, service.ErrProductNotFound):
			return errorJSON(c, fiber.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrCouponUnavailable),
			errors.Is(err, service.ErrAlreadyClaimed),
			errors.Is(err, service.ErrUserLimitReached):
			return errorJSON(c, fiber.StatusBadRequest, err.Error())
		}
		return internalError(c, err, "failed to claim coupon")
	}

	requestLog(log.Info(), c).
		Int64("coupon_id", req.CouponID).
		Int64("claimed_coupon_id", claim.ID).
		Msg("coupon claimed successfully")

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"claimed_coupon": claim})
}

// ListClaimed handles GET /api/coupons/claimed?status=&page=&limit= requests.
func (h *ClaimHandler) ListClaimed(c *fiber.Ctx) error {
	filter := model.ClaimListFilter{
		Page:  c.QueryInt("page", 1),
		Limit: c.QueryInt("limit", service.DefaultPageLimit),
	}
	if s := c.Query("status"); s != "" {
		status := model.ClaimStatus(s)
		filter.Status = &status
	}

	page, err := h.service.ListClaimed(c.Context(), identity(c).UserID, filter)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRequest) {
			return errorJSON(c, fiber.StatusBadRequest, err.Error())
		}
		return internalError(c, err, "failed to list claimed coupons")
	}
	return c.JSON(page)
}
