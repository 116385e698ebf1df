package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jonbarlo/onlineshop-api/common/auth"
	apperrors "github.com/jonbarlo/onlineshop-api/common/errors"
	"github.com/jonbarlo/onlineshop-api/common/response"
	"github.com/jonbarlo/onlineshop-api/models"
)

// Context keys set for authenticated admin requests.
const (
	AdminIDKey    = "admin_id"
	AdminEmailKey = "admin_email"
	AdminRoleKey  = "admin_role"
)

// TokenValidator validates bearer tokens.
type TokenValidator interface {
	Validate(tokenStr string) (*auth.Claims, error)
}

// AuthMiddleware validates the bearer token and stores the admin identity
// in the gin context.
func AuthMiddleware(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, apperrors.ErrUnauthorized.WithMessage("Authorization header required"))
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			response.Error(c, apperrors.ErrUnauthorized.WithMessage("Invalid authorization header format"))
			return
		}

		claims, err := tokens.Validate(strings.TrimSpace(parts[1]))
		if err != nil {
			response.Error(c, err)
			return
		}

		c.Set(AdminIDKey, claims.Subject)
		c.Set(AdminEmailKey, claims.Email)
		c.Set(AdminRoleKey, claims.Role)
		c.Next()
	}
}

// AdminOnly rejects authenticated callers without the admin role.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(AdminRoleKey) != models.RoleAdmin {
			response.Error(c, apperrors.ErrForbidden.WithMessage("Admin access required"))
			return
		}
		c.Next()
	}
}
