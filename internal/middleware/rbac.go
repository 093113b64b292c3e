package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/preschool-ops-api/internal/models"
	appErrors "github.com/noah-isme/preschool-ops-api/pkg/errors"
	"github.com/noah-isme/preschool-ops-api/pkg/response"
)

// RequireRoles enforces role-based access control. SUPERADMIN always passes.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles)+1)
	allowed[models.RoleSuperAdmin] = struct{}{}
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		claims := ClaimsFromContext(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequirePlatformOperator admits only SUPERADMIN tokens that are not bound to a
// school. Routes behind it act on every tenant at once.
func RequirePlatformOperator() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := ClaimsFromContext(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if claims.Role != models.RoleSuperAdmin || claims.SchoolID != "" {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}
