package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/stretchr/testify/require"

	"github.com/janlord02/thryft-backend-sub000/internal/middleware"
	"github.com/janlord02/thryft-backend-sub000/internal/model"
	"github.com/janlord02/thryft-backend-sub000/internal/validator"
)

const testSecret = "test-secret"

var (
	consumerUser = middleware.Identity{UserID: 42, Role: middleware.RoleConsumer}
	businessUser = middleware.Identity{UserID: 30, Role: middleware.RoleBusiness, BusinessID: 3}
	adminUser    = middleware.Identity{UserID: 1, Role: middleware.RoleAdmin}
)

// mockClaimService is a mock implementation of ClaimServiceInterface.
type mockClaimService struct {
	claimFn       func(ctx context.Context, consumerID, couponID int64, productID *int64) (*model.ClaimedCoupon, error)
	listClaimedFn func(ctx context.Context, consumerID int64, filter model.ClaimListFilter) (*model.ClaimPage, error)
}

func (m *mockClaimService) Claim(ctx context.Context, consumerID, couponID int64, productID *int64) (*model.ClaimedCoupon, error) {
	if m.claimFn != nil {
		return m.claimFn(ctx, consumerID, couponID, productID)
	}
	return &model.ClaimedCoupon{ID: 1, UserID: consumerID, CouponID: couponID, Status: model.ClaimStatusClaimed}, nil
}

func (m *mockClaimService) ListClaimed(ctx context.Context, consumerID int64, filter model.ClaimListFilter) (*model.ClaimPage, error) {
	if m.listClaimedFn != nil {
		return m.listClaimedFn(ctx, consumerID, filter)
	}
	return &model.ClaimPage{Data: []model.ClaimSummary{}}, nil
}

// mockRedemptionService is a mock implementation of RedemptionServiceInterface.
type mockRedemptionService struct {
	validateDirectFn   func(ctx context.Context, scannerBusinessID int64, code string, consumerID, businessID int64) (*model.ClaimedCouponView, error)
	validateManualFn   func(ctx context.Context, businessID int64, code string) (*model.ManualResult, error)
	validateSpecificFn func(ctx context.Context, businessID, claimID int64) (*model.ClaimedCouponView, error)
	searchCustomersFn  func(ctx context.Context, businessID int64, code, query string) ([]model.CandidateView, error)
	markAsUsedFn       func(ctx context.Context, businessID, claimID int64, notes string) (*model.ClaimedCoupon, error)
}

func (m *mockRedemptionService) ValidateDirect(ctx context.Context, scannerBusinessID int64, code string, consumerID, businessID int64) (*model.ClaimedCouponView, error) {
	if m.validateDirectFn != nil {
		return m.validateDirectFn(ctx, scannerBusinessID, code, consumerID, businessID)
	}
	return &model.ClaimedCouponView{}, nil
}

func (m *mockRedemptionService) ValidateManual(ctx context.Context, businessID int64, code string) (*model.ManualResult, error) {
	if m.validateManualFn != nil {
		return m.validateManualFn(ctx, businessID, code)
	}
	return &model.ManualResult{Kind: model.ManualResultSingle, Coupon: &model.ClaimedCouponView{}}, nil
}

func (m *mockRedemptionService) ValidateSpecific(ctx context.Context, businessID, claimID int64) (*model.ClaimedCouponView, error) {
	if m.validateSpecificFn != nil {
		return m.validateSpecificFn(ctx, businessID, claimID)
	}
	return &model.ClaimedCouponView{ID: claimID}, nil
}

func (m *mockRedemptionService) SearchCustomers(ctx context.Context, businessID int64, code, query string) ([]model.CandidateView, error) {
	if m.searchCustomersFn != nil {
		return m.searchCustomersFn(ctx, businessID, code, query)
	}
	return []model.CandidateView{}, nil
}

func (m *mockRedemptionService) MarkAsUsed(ctx context.Context, businessID, claimID int64, notes string) (*model.ClaimedCoupon, error) {
	if m.markAsUsedFn != nil {
		return m.markAsUsedFn(ctx, businessID, claimID, notes)
	}
	return &model.ClaimedCoupon{ID: claimID, Status: model.ClaimStatusUsed}, nil
}

// mockCatalogService is a mock implementation of CatalogServiceInterface.
type mockCatalogService struct {
	createFn          func(ctx context.Context, businessID int64, req *model.CreateCouponRequest) (*model.CouponResponse, error)
	getFn             func(ctx context.Context, id int64) (*model.CouponResponse, error)
	listForBusinessFn func(ctx context.Context, businessID int64) ([]model.CouponResponse, error)
	deactivateFn      func(ctx context.Context, businessID, id int64) error
	deleteFn          func(ctx context.Context, businessID, id int64) error
}

func (m *mockCatalogService) Create(ctx context.Context, businessID int64, req *model.CreateCouponRequest) (*model.CouponResponse, error) {
	if m.createFn != nil {
		return m.createFn(ctx, businessID, req)
	}
	return &model.CouponResponse{Coupon: model.Coupon{ID: 7, BusinessID: businessID, Code: req.Code}}, nil
}

func (m *mockCatalogService) Get(ctx context.Context, id int64) (*model.CouponResponse, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return &model.CouponResponse{Coupon: model.Coupon{ID: id}}, nil
}

func (m *mockCatalogService) ListForBusiness(ctx context.Context, businessID int64) ([]model.CouponResponse, error) {
	if m.listForBusinessFn != nil {
		return m.listForBusinessFn(ctx, businessID)
	}
	return []model.CouponResponse{}, nil
}

func (m *mockCatalogService) Deactivate(ctx context.Context, businessID, id int64) error {
	if m.deactivateFn != nil {
		return m.deactivateFn(ctx, businessID, id)
	}
	return nil
}

func (m *mockCatalogService) Delete(ctx context.Context, businessID, id int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, businessID, id)
	}
	return nil
}

// mockMaintenanceService is a mock implementation of MaintenanceServiceInterface.
type mockMaintenanceService struct {
	cancelFn func(ctx context.Context, claimID int64, reason string) (*model.ClaimedCoupon, error)
}

func (m *mockMaintenanceService) Cancel(ctx context.Context, claimID int64, reason string) (*model.ClaimedCoupon, error) {
	if m.cancelFn != nil {
		return m.cancelFn(ctx, claimID, reason)
	}
	return &model.ClaimedCoupon{ID: claimID, Status: model.ClaimStatusCancelled}, nil
}

type testServices struct {
	claim       *mockClaimService
	redemption  *mockRedemptionService
	catalog     *mockCatalogService
	maintenance *mockMaintenanceService
}

// setupTestApp mounts the real routes and auth middleware over mock services.
func setupTestApp(s testServices) *fiber.App {
	if s.claim == nil {
		s.claim = &mockClaimService{}
	}
	if s.redemption == nil {
		s.redemption = &mockRedemptionService{}
	}
	if s.catalog == nil {
		s.catalog = &mockCatalogService{}
	}
	if s.maintenance == nil {
		s.maintenance = &mockMaintenanceService{}
	}

	app := fiber.New()
	app.Use(requestid.New())
	validate := validator.New()
	RegisterRoutes(app, Handlers{
		Health:     NewHealthHandler(&mockPool{}, nil),
		Coupon:     NewCouponHandler(s.catalog, validate),
		Claim:      NewClaimHandler(s.claim, validate),
		Redemption: NewRedemptionHandler(s.redemption, validate),
		Admin:      NewAdminHandler(s.maintenance, validate),
	}, testSecret)
	return app
}

func token(t *testing.T, id middleware.Identity) string {
	t.Helper()
	tok, err := middleware.GenerateToken(testSecret, id, time.Hour)
	require.NoError(t, err)
	return tok
}

// do sends an authenticated request and returns the status and decoded JSON body.
func do(t *testing.T, app *fiber.App, id *middleware.Identity, method, path, body string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if id != nil {
		req.Header.Set("Authorization", "Bearer "+token(t, *id))
	}

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	result := map[string]any{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &result), "body: %s", raw)
	}
	return resp.StatusCode, result
}
