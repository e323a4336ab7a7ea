package middleware

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// Role is the kind of account behind a request.
type Role string

const (
	RoleConsumer Role = "consumer"
	RoleBusiness Role = "business"
	RoleAdmin    Role = "admin"
)

// Token validation errors.
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

const identityKey = "identity"

// Identity is the verified caller, passed explicitly into service calls.
// BusinessID is set only for business accounts.
type Identity struct {
	UserID     int64
	Role       Role
	BusinessID int64
}

// Claims is the JWT payload issued to marketplace users.
type Claims struct {
	UserID     int64 `json:"user_id"`
	Role       Role  `json:"role"`
	BusinessID int64 `json:"business_id,omitempty"`
	jwt.RegisteredClaims
}

// GenerateToken signs an HS256 token for id with the given expiry.
func GenerateToken(secret string, id Identity, expiry time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		UserID:     id.UserID,
		Role:       id.Role,
		BusinessID: id.BusinessID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseToken validates a token and returns the identity it carries.
func ParseToken(secret, tokenString string) (Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, ErrExpiredToken
		}
		return Identity{}, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID <= 0 {
		return Identity{}, ErrInvalidToken
	}
	switch claims.Role {
	case RoleConsumer, RoleAdmin:
	case RoleBusiness:
		if claims.BusinessID <= 0 {
			return Identity{}, ErrInvalidToken
		}
	default:
		return Identity{}, ErrInvalidToken
	}
	return Identity{UserID: claims.UserID, Role: claims.Role, BusinessID: claims.BusinessID}, nil
}

// Authenticate verifies the bearer token and stores the Identity on the request.
func Authenticate(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(tokenString) == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing bearer token"})
		}

		id, err := ParseToken(secret, strings.TrimSpace(tokenString))
		if err != nil {
			msg := "invalid token"
			if errors.Is(err, ErrExpiredToken) {
				msg = "token expired"
			}
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": msg})
		}

		c.Locals(identityKey, id)
		return c.Next()
	}
}

// RequireRole rejects requests whose identity has none of the given roles.
// Must run after Authenticate.
func RequireRole(roles ...Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := IdentityFrom(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
		}
		for _, r := range roles {
			if id.Role == r {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden"})
	}
}

// IdentityFrom returns the identity stored by Authenticate.
func IdentityFrom(c *fiber.Ctx) (Identity, bool) {
	id, ok := c.Locals(identityKey).(Identity)
	return id, ok
}
