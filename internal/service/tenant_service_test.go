package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/preschool-ops-api/internal/models"
	appErrors "github.com/noah-isme/preschool-ops-api/pkg/errors"
)

type mockSchoolLookup struct {
	schools map[string]models.School
	err     error
}

func (m *mockSchoolLookup) FindBySlug(ctx context.Context, slug string) (*models.School, error) {
	if m.err != nil {
		return nil, m.err
	}
	if s, ok := m.schools[slug]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func TestTenantServiceResolve(t *testing.T) {
	svc := NewTenantService(&mockSchoolLookup{schools: map[string]models.School{
		"oakwood": {ID: "school-1", Name: "Oakwood", Slug: "oakwood"},
	}}, zap.NewNop())

	scope, err := svc.Resolve(context.Background(), " Oakwood ")
	require.NoError(t, err)
	assert.Equal(t, "school-1", scope.SchoolID)

	_, err = svc.Resolve(context.Background(), "ghost")
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestTenantServiceResolveStoreFailure(t *testing.T) {
	svc := NewTenantService(&mockSchoolLookup{err: errors.New("connection refused")}, nil)
	_, err := svc.Resolve(context.Background(), "oakwood")
	assert.True(t, appErrors.Is(err, appErrors.ErrInternal))
}

func TestTenantServiceAuthorize(t *testing.T) {
	svc := NewTenantService(&mockSchoolLookup{}, zap.NewNop())
	scope := &models.TenantScope{SchoolID: "school-1", Slug: "oakwood"}

	assert.NoError(t, svc.Authorize(scope, &models.JWTClaims{UserID: "u1", Role: models.RoleStaff, SchoolID: "school-1"}))
	assert.NoError(t, svc.Authorize(scope, &models.JWTClaims{UserID: "root", Role: models.RoleSuperAdmin}))

	err := svc.Authorize(scope, &models.JWTClaims{UserID: "u2", Role: models.RoleAdmin, SchoolID: "school-2"})
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))

	err = svc.Authorize(scope, nil)
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))
}
