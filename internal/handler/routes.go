package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/janlord02/thryft-backend-sub000/internal/middleware"
)

// Handlers groups the route handlers mounted by RegisterRoutes.
type Handlers struct {
	Health     *HealthHandler
	Coupon     *CouponHandler
	Claim      *ClaimHandler
	Redemption *RedemptionHandler
	Admin      *AdminHandler
}

// RegisterRoutes mounts the public and authenticated routes on app.
func RegisterRoutes(app *fiber.App, h Handlers, jwtSecret string) {
	app.Get("/health", h.Health.Check)

	api := app.Group("/api", middleware.Authenticate(jwtSecret))

	consumer := middleware.RequireRole(middleware.RoleConsumer)
	business := middleware.RequireRole(middleware.RoleBusiness)

	coupons := api.Group("/coupons")
	coupons.Post("/claim", consumer, h.Claim.Claim)
	coupons.Get("/claimed", consumer, h.Claim.ListClaimed)
	coupons.Post("/validate-qr-direct", business, h.Redemption.ValidateDirect)
	coupons.Post("/validate-manual", business, h.Redemption.ValidateManual)
	coupons.Post("/validate-specific", business, h.Redemption.ValidateSpecific)
	coupons.Post("/search-customers", business, h.Redemption.SearchCustomers)
	coupons.Post("/mark-as-used", business, h.Redemption.MarkAsUsed)
	// Registered after the static paths above so "claimed" never matches :id.
	coupons.Get("/:id", h.Coupon.GetCoupon)

	biz := api.Group("/business/coupons", business)
	biz.Post("", h.Coupon.CreateCoupon)
	biz.Get("", h.Coupon.ListCoupons)
	biz.Patch("/:id/deactivate", h.Coupon.DeactivateCoupon)
	biz.Delete("/:id", h.Coupon.DeleteCoupon)

	admin := api.Group("/admin", middleware.RequireRole(middleware.RoleAdmin))
	admin.Post("/claims/:id/cancel", h.Admin.CancelClaim)
}
