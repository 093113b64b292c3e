package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/preschool-ops-api/internal/dto"
	"github.com/noah-isme/preschool-ops-api/internal/models"
	"github.com/noah-isme/preschool-ops-api/internal/repository"
	appErrors "github.com/noah-isme/preschool-ops-api/pkg/errors"
)

type branchRepository interface {
	ListBySchool(ctx context.Context, schoolID string) ([]models.Branch, error)
	FindByID(ctx context.Context, schoolID, id string) (*models.Branch, error)
	ExistsByName(ctx context.Context, schoolID, name string) (bool, error)
	Create(ctx context.Context, branch *models.Branch) error
	CountReferences(ctx context.Context, branchID string) (int, error)
	Delete(ctx context.Context, schoolID, id string) (int64, error)
}

// BranchService manages the campuses of a school.
type BranchService struct {
	repo      branchRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewBranchService constructs a BranchService.
func NewBranchService(repo branchRepository, validate *validator.Validate, logger *zap.Logger) *BranchService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BranchService{repo: repo, validator: validate, logger: logger}
}

// List returns the school's branches, oldest first.
func (s *BranchService) List(ctx context.Context, scope *models.TenantScope) ([]models.Branch, error) {
	branches, err := s.repo.ListBySchool(ctx, scope.SchoolID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list branches")
	}
	if branches == nil {
		branches = []models.Branch{}
	}
	return branches, nil
}

// Create registers a branch. Names are unique per school, case-insensitively.
func (s *BranchService) Create(ctx context.Context, scope *models.TenantScope, req dto.CreateBranchRequest) (*models.Branch, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid branch payload")
	}
	exists, err := s.repo.ExistsByName(ctx, scope.SchoolID, req.Name)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check branch name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "branch name already in use")
	}

	branch := &models.Branch{SchoolID: scope.SchoolID, Name: req.Name}
	if err := s.repo.Create(ctx, branch); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "branch name already in use")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create branch")
	}
	s.logger.Info("branch created", zap.String("school_id", scope.SchoolID), zap.String("branch_id", branch.ID))
	return branch, nil
}

// Delete removes a branch that nothing references any more.
func (s *BranchService) Delete(ctx context.Context, scope *models.TenantScope, branchID string) error {
	if _, err := uuid.Parse(branchID); err != nil {
		return appErrors.Clone(appErrors.ErrNotFound, "branch not found")
	}
	if _, err := s.repo.FindByID(ctx, scope.SchoolID, branchID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "branch not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load branch")
	}
	refs, err := s.repo.CountReferences(ctx, branchID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check branch references")
	}
	if refs > 0 {
		return appErrors.Clone(appErrors.ErrConflict, "branch still has assigned records")
	}

	rows, err := s.repo.Delete(ctx, scope.SchoolID, branchID)
	if err != nil {
		if repository.IsForeignKeyViolation(err) {
			return appErrors.Clone(appErrors.ErrConflict, "branch still has assigned records")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete branch")
	}
	if rows == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "branch not found")
	}
	s.logger.Info("branch deleted", zap.String("school_id", scope.SchoolID), zap.String("branch_id", branchID))
	return nil
}
