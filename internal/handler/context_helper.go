package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/preschool-ops-api/internal/middleware"
	"github.com/noah-isme/preschool-ops-api/internal/models"
)

func scopeFromContext(c *gin.Context) (*models.TenantScope, error) {
	return middleware.TenantFromContext(c)
}
