package auth

import (
	"slices"
	"strings"

	"ricemill-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	CtxUserIDKey   = "user_id"
	CtxUserRoleKey = "user_role"
	CtxUsernameKey = "username"
)

// bearerToken extracts the token from an "Authorization: Bearer <token>" header.
func bearerToken(header string) (string, error) {
	if header == "" {
		return "", fiber.NewError(fiber.StatusUnauthorized, "Authorization header missing")
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
		return "", fiber.NewError(fiber.StatusUnauthorized, "Authorization must be 'Bearer <token>'")
	}
	return strings.TrimSpace(token), nil
}

// JWTMiddleware accepts HS256 tokens signed with secret and stores the
// caller's id, name and role in the request locals.
func JWTMiddleware(secret string) fiber.Handler {
	key := []byte(secret)
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	return func(c *fiber.Ctx) error {
		raw, err := bearerToken(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return err
		}

		var claims JWTCustomClaims
		if _, err := parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) { return key, nil }); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid or expired token")
		}

		c.Locals(CtxUserIDKey, claims.UserID)
		c.Locals(CtxUserRoleKey, claims.Role)
		c.Locals(CtxUsernameKey, claims.Username)
		return c.Next()
	}
}

// RequireRole lets the request through only when the caller holds one of roles.
func RequireRole(roles ...models.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if role, _ := c.Locals(CtxUserRoleKey).(models.UserRole); !slices.Contains(roles, role) {
			return fiber.NewError(fiber.StatusForbidden, "You are not allowed to do this")
		}
		return c.Next()
	}
}

// Actor is the authenticated user behind a request, as recorded in audit logs.
type Actor struct {
	UserID   uint
	Username string
}

// ActorFrom reads the actor set by JWTMiddleware. Unauthenticated requests
// yield the zero Actor.
func ActorFrom(c *fiber.Ctx) Actor {
	id, _ := c.Locals(CtxUserIDKey).(uint)
	name, _ := c.Locals(CtxUsernameKey).(string)
	return Actor{UserID: id, Username: name}
}
