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

// MaintenanceServiceInterface defines the admin operations on the claim ledger.
type MaintenanceServiceInterface interface {
	Cancel(ctx context.Context, claimID int64, reason string) (*model.ClaimedCoupon, error)
}

// AdminHandler handles HTTP requests for admin claim operations.
type AdminHandler struct {
	service   MaintenanceServiceInterface
	validator *validator.Validate
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(svc MaintenanceServiceInterface, v *validator.Validate) *AdminHandler {
	return &AdminHandler{service: svc, validator: v}
}

// CancelClaim handles POST /api/admin/claims/:id/cancel. The body is optional.
func (h *AdminHandler) CancelClaim(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return errorJSON(c, fiber.StatusBadRequest, "invalid request: id must be a positive integer")
	}

	var req model.CancelClaimRequest
	if len(c.Body()) > 0 {
		if ok, err := parseBody(c, h.validator, &req); !ok {
			return err
		}
	}

	claim, err := h.service.Cancel(c.Context(), int64(id), req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrClaimNotFound):
			return errorJSON(c, fiber.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrAlreadyUsed), errors.Is(err, service.ErrClaimExpired):
			return errorJSON(c, fiber.StatusBadRequest, err.Error())
		}
		return internalError(c, err, "failed to cancel claim")
	}

	requestLog(log.Info(), c).
		Int64("claimed_coupon_id", claim.ID).
		Msg("claim cancelled")

	return c.JSON(fiber.Map{"claimedCoupon": claim})
}
