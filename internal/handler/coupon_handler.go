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

// CatalogServiceInterface defines the interface for coupon catalog logic.
type CatalogServiceInterface interface {
	Create(ctx context.Context, businessID int64, req *model.CreateCouponRequest) (*model.CouponResponse, error)
	Get(ctx context.Context, id int64) (*model.CouponResponse, error)
	ListForBusiness(ctx context.Context, businessID int64) ([]model.CouponResponse, error)
	Deactivate(ctx context.Context, businessID, id int64) error
	Delete(ctx context.Context, businessID, id int64) error
}

// CouponHandler handles HTTP requests for coupon catalog operations.
type CouponHandler struct {
	service   CatalogServiceInterface
	validator *validator.Validate
}

// NewCouponHandler creates a new CouponHandler with the given service and validator.
func NewCouponHandler(svc CatalogServiceInterface, v *validator.Validate) *CouponHandler {
	return &CouponHandler{service: svc, validator: v}
}

// CreateCoupon handles POST /api/business/coupons.
func (h *CouponHandler) CreateCoupon(c *fiber.Ctx) error {
	var req model.CreateCouponRequest
	if ok, err := parseBody(c, h.validator, &req); !ok {
		return err
	}

	coupon, err := h.service.Create(c.Context(), identity(c).BusinessID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCouponExists):
			return errorJSON(c, fiber.StatusConflict, "coupon already exists")
		case errors.Is(err, service.ErrInvalidRequest):
			return errorJSON(c, fiber.StatusBadRequest, err.Error())
		}
		return internalError(c, err, "failed to create coupon")
	}

	requestLog(log.Info(), c).
		Int64("coupon_id", coupon.ID).
		Str("code", coupon.Code).
		Msg("coupon created successfully")

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"coupon": coupon})
}

// ListCoupons handles GET /api/business/coupons.
func (h *CouponHandler) ListCoupons(c *fiber.Ctx) error {
	coupons, err := h.service.ListForBusiness(c.Context(), identity(c).BusinessID)
	if err != nil {
		return internalError(c, err, "failed to list coupons")
	}
	return c.JSON(fiber.Map{"coupons": coupons})
}

// GetCoupon handles GET /api/coupons/:id.
func (h *CouponHandler) GetCoupon(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return errorJSON(c, fiber.StatusBadRequest, "invalid request: id must be a positive integer")
	}

	coupon, err := h.service.Get(c.Context(), int64(id))
	if err != nil {
		if errors.Is(err, service.ErrCouponNotFound) {
			return errorJSON(c, fiber.StatusNotFound, "coupon not found")
		}
		return internalError(c, err, "failed to get coupon")
	}
	return c.JSON(fiber.Map{"coupon": coupon})
}

// DeactivateCoupon handles PATCH /api/business/coupons/:id/deactivate.
func (h *CouponHandler) DeactivateCoupon(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return errorJSON(c, fiber.StatusBadRequest, "invalid request: id must be a positive integer")
	}

	if err := h.service.Deactivate(c.Context(), identity(c).BusinessID, int64(id)); err != nil {
		if errors.Is(err, service.ErrCouponNotFound) {
			return errorJSON(c, fiber.StatusNotFound, "coupon not found")
		}
		return internalError(c, err, "failed to deactivate coupon")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// DeleteCoupon handles DELETE /api/business/coupons/:id.
func (h *CouponHandler) DeleteCoupon(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return errorJSON(c, fiber.StatusBadRequest, "invalid request: id must be a positive integer")
	}

	if err := h.service.Delete(c.Context(), identity(c).BusinessID, int64(id)); err != nil {
		switch {
		case errors.Is(err, service.ErrCouponNotFound):
			return errorJSON(c, fiber.StatusNotFound, "coupon not found")
		case errors.Is(err, service.ErrCouponHasClaims):
			return errorJSON(c, fiber.StatusConflict, err.Error())
		}
		return internalError(c, err, "failed to delete coupon")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
