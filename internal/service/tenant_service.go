package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/preschool-ops-api/internal/models"
	appErrors "github.com/noah-isme/preschool-ops-api/pkg/errors"
)

type schoolLookup interface {
	FindBySlug(ctx context.Context, slug string) (*models.School, error)
}

// TenantService resolves school slugs into tenant scopes and checks that the
// caller belongs to the tenant.
type TenantService struct {
	schools schoolLookup
	logger  *zap.Logger
}

// NewTenantService constructs the tenant resolver.
func NewTenantService(schools schoolLookup, logger *zap.Logger) *TenantService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TenantService{schools: schools, logger: logger}
}

// Resolve maps a school slug to its scope.
func (s *TenantService) Resolve(ctx context.Context, slug string) (*models.TenantScope, error) {
	slug = strings.TrimSpace(strings.ToLower(slug))
	if slug == "" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "school not found")
	}
	school, err := s.schools.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "school not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load school")
	}
	return &models.TenantScope{SchoolID: school.ID, Slug: school.Slug, Name: school.Name}, nil
}

// Authorize rejects callers bound to another school. The rejection is a
// NotFound so the existence of other tenants is not revealed.
func (s *TenantService) Authorize(scope *models.TenantScope, claims *models.JWTClaims) error {
	if scope == nil || claims == nil {
		return appErrors.ErrUnauthorized
	}
	if claims.Role == models.RoleSuperAdmin && claims.SchoolID == "" {
		return nil
	}
	if claims.SchoolID != scope.SchoolID {
		s.logger.Warn("cross-tenant access rejected",
			zap.String("user_id", claims.UserID),
			zap.String("claims_school_id", claims.SchoolID),
			zap.String("school_id", scope.SchoolID))
		return appErrors.Clone(appErrors.ErrNotFound, "school not found")
	}
	return nil
}
