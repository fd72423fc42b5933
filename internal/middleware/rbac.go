package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/scheduler-engine/internal/models"
	appErrors "github.com/noah-isme/scheduler-engine/pkg/errors"
	"github.com/noah-isme/scheduler-engine/pkg/response"
)

// RBAC enforces role-based access control for routes, reading claims
// attached by JWT middleware.
func RBAC(allowed ...models.Role) gin.HandlerFunc {
	allowedRoles := make(map[models.Role]struct{}, len(allowed))
	for _, r := range allowed {
		allowedRoles[r] = struct{}{}
	}

	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrAuth)
			c.Abort()
			return
		}
		claims := claimsValue.(models.JWTClaims)

		if _, ok := allowedRoles[claims.Role]; ok {
			c.Next()
			return
		}

		response.Error(c, appErrors.ErrAuthz)
		c.Abort()
	}
}

// RequireAdmin restricts a route to SUPER_ADMIN/ADMIN callers.
func RequireAdmin() gin.HandlerFunc {
	return RBAC(models.RoleSuperAdmin, models.RoleAdmin)
}
