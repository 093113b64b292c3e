package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/preschool-ops-api/internal/models"
	appErrors "github.com/noah-isme/preschool-ops-api/pkg/errors"
	"github.com/noah-isme/preschool-ops-api/pkg/response"
)

// ContextTenantKey is the gin context key storing the resolved tenant scope.
const ContextTenantKey = "tenantScope"

// TenantResolver maps the :slug path parameter to a scope and checks the caller against it.
type TenantResolver interface {
	Resolve(ctx context.Context, slug string) (*models.TenantScope, error)
	Authorize(scope *models.TenantScope, claims *models.JWTClaims) error
}

// Tenant must run after JWT. It binds the request to the school named by :slug.
func Tenant(resolver TenantResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, err := resolver.Resolve(c.Request.Context(), c.Param("slug"))
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		if err := resolver.Authorize(scope, ClaimsFromContext(c)); err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		c.Set(ContextTenantKey, scope)
		c.Next()
	}
}

// TenantFromContext returns the scope stored by Tenant.
func TenantFromContext(c *gin.Context) (*models.TenantScope, error) {
	value, exists := c.Get(ContextTenantKey)
	if !exists {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "school not found")
	}
	scope, ok := value.(*models.TenantScope)
	if !ok || scope == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "school not found")
	}
	return scope, nil
}
