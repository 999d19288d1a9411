package middleware

import (
	"strings"

	"task-manager/internal/models"
	"task-manager/pkg/logger"
	"task-manager/pkg/token"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const identityKey = "identity"

func unauthorized(c *fiber.Ctx, message string) error {
	logger.SecurityLogger.Warn("Unauthorized request",
		zap.String("reason", message),
		zap.String("method", c.Method()),
		zap.String("url", c.OriginalURL()),
		zap.String("ip", c.IP()),
	)
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"message": message,
		"error":   "Unauthorized",
		"success": false,
		"status":  fiber.StatusUnauthorized,
	})
}

// IdentityFromToken memvalidasi token mentah dan mengubah claims menjadi Identity.
func IdentityFromToken(tokens *token.Manager, raw string) (models.Identity, error) {
	claims, err := tokens.Validate(raw)
	if err != nil {
		return models.Identity{}, err
	}
	return models.Identity{
		ID:    claims.Subject,
		Email: claims.Email,
		Role:  models.Role(claims.Role),
	}, nil
}

// UseToken mewajibkan header "Authorization: Bearer <token>" yang valid.
func UseToken(tokens *token.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return unauthorized(c, "No token provided")
		}
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			return unauthorized(c, "Invalid token format")
		}
		identity, err := IdentityFromToken(tokens, parts[1])
		if err != nil {
			return unauthorized(c, "Invalid or expired token")
		}
		c.Locals(identityKey, identity)
		return c.Next()
	}
}

// IdentityFrom membaca identity yang disimpan UseToken.
func IdentityFrom(c *fiber.Ctx) (models.Identity, bool) {
	identity, ok := c.Locals(identityKey).(models.Identity)
	return identity, ok
}

// RequireRoles harus dipasang setelah UseToken.
func RequireRoles(roles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, ok := IdentityFrom(c)
		if !ok {
			return unauthorized(c, "No token provided")
		}
		for _, role := range roles {
			if identity.Role == role {
				return c.Next()
			}
		}
		logger.SecurityLogger.Warn("Forbidden request",
			zap.String("user_id", identity.ID),
			zap.String("role", string(identity.Role)),
			zap.String("url", c.OriginalURL()),
		)
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "Insufficient permissions",
			"error":   "Forbidden",
			"success": false,
			"status":  fiber.StatusForbidden,
		})
	}
}
