package middleware

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "unit-test-secret"

func TestGenerateAndParseToken(t *testing.T) {
	testCases := []struct {
		name string
		id   Identity
	}{
		{"consumer", Identity{UserID: 42, Role: RoleConsumer}},
		{"business", Identity{UserID: 30, Role: RoleBusiness, BusinessID: 3}},
		{"admin", Identity{UserID: 1, Role: RoleAdmin}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tok, err := GenerateToken(secret, tc.id, time.Hour)
			require.NoError(t, err)

			got, err := ParseToken(secret, tok)
			require.NoError(t, err)
			assert.Equal(t, tc.id, got)
		})
	}
}

func TestParseToken_Expired(t *testing.T) {
	tok, err := GenerateToken(secret, Identity{UserID: 42, Role: RoleConsumer}, -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(secret, tok)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestParseToken_WrongSecret(t *testing.T) {
	tok, err := GenerateToken("other-secret", Identity{UserID: 42, Role: RoleConsumer}, time.Hour)
	require.NoError(t, err)

	_, err = ParseToken(secret, tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseToken_RejectsUnsignedToken(t *testing.T) {
	claims := Claims{
		UserID:           42,
		Role:             RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = ParseToken(secret, tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseToken_InvalidClaims(t *testing.T) {
	testCases := []struct {
		name string
		id   Identity
	}{
		{"zero_user", Identity{UserID: 0, Role: RoleConsumer}},
		{"negative_user", Identity{UserID: -5, Role: RoleConsumer}},
		{"business_without_business_id", Identity{UserID: 30, Role: RoleBusiness}},
		{"unknown_role", Identity{UserID: 42, Role: Role("superuser")}},
		{"empty_role", Identity{UserID: 42}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tok, err := GenerateToken(secret, tc.id, time.Hour)
			require.NoError(t, err)

			_, err = ParseToken(secret, tok)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestParseToken_Garbage(t *testing.T) {
	_, err := ParseToken(secret, "not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func setupAuthApp() *fiber.App {
	app := fiber.New()
	app.Use(Authenticate(secret))
	app.Get("/whoami", func(c *fiber.Ctx) error {
		id, ok := IdentityFrom(c)
		if !ok {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.JSON(fiber.Map{"user_id": id.UserID, "role": id.Role, "business_id": id.BusinessID})
	})
	app.Get("/business-only", RequireRole(RoleBusiness), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	app.Get("/staff", RequireRole(RoleBusiness, RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func send(t *testing.T, app *fiber.App, path, authorization string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	body := map[string]any{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &body))
	}
	return resp.StatusCode, body
}

func bearer(t *testing.T, id Identity, expiry time.Duration) string {
	t.Helper()
	tok, err := GenerateToken(secret, id, expiry)
	require.NoError(t, err)
	return "Bearer " + tok
}

func TestAuthenticate_StoresIdentity(t *testing.T) {
	app := setupAuthApp()

	status, body := send(t, app, "/whoami", bearer(t, Identity{UserID: 30, Role: RoleBusiness, BusinessID: 3}, time.Hour))

	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(30), body["user_id"])
	assert.Equal(t, "business", body["role"])
	assert.Equal(t, float64(3), body["business_id"])
}

func TestAuthenticate_Rejections(t *testing.T) {
	testCases := []struct {
		name          string
		authorization string
		wantError     string
	}{
		{"missing_header", "", "missing bearer token"},
		{"wrong_scheme", "Basic dXNlcjpwYXNz", "missing bearer token"},
		{"empty_token", "Bearer   ", "missing bearer token"},
		{"garbage_token", "Bearer abc.def.ghi", "invalid token"},
		{"expired_token", bearer(t, Identity{UserID: 42, Role: RoleConsumer}, -time.Minute), "token expired"},
	}

	app := setupAuthApp()
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := send(t, app, "/whoami", tc.authorization)

			assert.Equal(t, fiber.StatusUnauthorized, status)
			assert.Equal(t, tc.wantError, body["error"])
		})
	}
}

func TestRequireRole(t *testing.T) {
	app := setupAuthApp()
	consumer := bearer(t, Identity{UserID: 42, Role: RoleConsumer}, time.Hour)
	business := bearer(t, Identity{UserID: 30, Role: RoleBusiness, BusinessID: 3}, time.Hour)
	admin := bearer(t, Identity{UserID: 1, Role: RoleAdmin}, time.Hour)

	status, body := send(t, app, "/business-only", consumer)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "forbidden", body["error"])

	status, _ = send(t, app, "/business-only", business)
	assert.Equal(t, fiber.StatusNoContent, status)

	status, _ = send(t, app, "/staff", admin)
	assert.Equal(t, fiber.StatusNoContent, status)

	status, _ = send(t, app, "/staff", consumer)
	assert.Equal(t, fiber.StatusForbidden, status)
}

func TestRequireRole_WithoutAuthenticate(t *testing.T) {
	app := fiber.New()
	app.Get("/", RequireRole(RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	status, body := send(t, app, "/", "")

	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "unauthorized", body["error"])
}
