package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/preschool-ops-api/internal/dto"
	"github.com/noah-isme/preschool-ops-api/internal/models"
	appErrors "github.com/noah-isme/preschool-ops-api/pkg/errors"
)

type leadRepository interface {
	ListBySchool(ctx context.Context, schoolID string) ([]models.Lead, error)
	Create(ctx context.Context, lead *models.Lead) error
	UpdateStatus(ctx context.Context, schoolID, id string, status models.LeadStatus) (int64, error)
	Update(ctx context.Context, schoolID, id string, patch models.LeadUpdate) (int64, error)
}

type branchLookup interface {
	FindByID(ctx context.Context, schoolID, id string) (*models.Branch, error)
}

// LeadService runs the admissions pipeline of a school.
type LeadService struct {
	leads     leadRepository
	branches  branchLookup
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLeadService constructs a LeadService. cache and metrics may be nil.
func NewLeadService(leads leadRepository, branches branchLookup, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *LeadService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LeadService{
		leads:     leads,
		branches:  branches,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

func leadCacheKey(schoolID string) string {
	return fmt.Sprintf("leads:%s", schoolID)
}

// ListLeads returns the school's leads, newest first, with scores defaulted.
func (s *LeadService) ListLeads(ctx context.Context, scope *models.TenantScope) ([]dto.LeadItem, error) {
	key := leadCacheKey(scope.SchoolID)
	var cached []dto.LeadItem
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached, nil
	}

	leads, err := s.leads.ListBySchool(ctx, scope.SchoolID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list leads")
	}
	items := make([]dto.LeadItem, 0, len(leads))
	for _, lead := range leads {
		items = append(items, toLeadItem(lead))
	}
	_ = s.cache.Set(ctx, key, items, 0)
	return items, nil
}

// Board groups the school's leads into the pipeline columns.
func (s *LeadService) Board(ctx context.Context, scope *models.TenantScope) (*dto.LeadBoard, error) {
	items, err := s.ListLeads(ctx, scope)
	if err != nil {
		return nil, err
	}

	columns := make([]dto.LeadColumn, 0, len(models.LeadStages)+1)
	index := make(map[string]int, len(models.LeadStages))
	for i, stage := range models.LeadStages {
		index[string(stage)] = i
		columns = append(columns, dto.LeadColumn{Status: string(stage), Leads: []dto.LeadItem{}})
	}

	var unknown []dto.LeadItem
	for _, item := range items {
		i, ok := index[item.Status]
		if !ok {
			unknown = append(unknown, item)
			continue
		}
		columns[i].Leads = append(columns[i].Leads, item)
	}
	if len(unknown) > 0 {
		s.logger.Warn("leads with unrecognised status",
			zap.String("school_id", scope.SchoolID),
			zap.Int("count", len(unknown)))
		columns = append(columns, dto.LeadColumn{Status: string(models.LeadStatusUnknown), Leads: unknown})
	}
	for i := range columns {
		columns[i].Count = len(columns[i].Leads)
	}
	return &dto.LeadBoard{Columns: columns, Total: len(items)}, nil
}

// CreateLead records a new inquiry in the first stage with no score.
func (s *LeadService) CreateLead(ctx context.Context, scope *models.TenantScope, req dto.CreateLeadRequest) (*dto.LeadItem, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lead payload")
	}
	lead := &models.Lead{
		SchoolID:   scope.SchoolID,
		ParentName: strings.TrimSpace(req.ParentName),
		ChildName:  strings.TrimSpace(req.ChildName),
		Source:     strings.TrimSpace(req.Source),
		Status:     models.LeadStatusNew,
		Phone:      req.Phone,
		Email:      req.Email,
		Notes:      req.Notes,
	}
	if req.PreferredBranchID != nil && *req.PreferredBranchID != "" {
		if err := s.ensureBranch(ctx, scope, *req.PreferredBranchID); err != nil {
			return nil, err
		}
		lead.PreferredBranchID = req.PreferredBranchID
	}
	if err := s.leads.Create(ctx, lead); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create lead")
	}
	s.invalidate(ctx, scope)
	item := toLeadItem(*lead)
	return &item, nil
}

// UpdateLeadStatus moves a lead to any pipeline stage in one conditional write.
// Leads of other schools are indistinguishable from missing ones.
func (s *LeadService) UpdateLeadStatus(ctx context.Context, scope *models.TenantScope, leadID string, status string) error {
	target := models.LeadStatus(strings.ToUpper(strings.TrimSpace(status)))
	if !target.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid lead status %q", status))
	}
	if _, err := uuid.Parse(leadID); err != nil {
		return appErrors.Clone(appErrors.ErrNotFound, "lead not found")
	}

	rows, err := s.leads.UpdateStatus(ctx, scope.SchoolID, leadID, target)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update lead status")
	}
	if rows == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "lead not found")
	}

	s.metrics.RecordLeadStatusUpdate(string(target))
	s.invalidate(ctx, scope)
	s.logger.Info("lead status updated",
		zap.String("school_id", scope.SchoolID),
		zap.String("lead_id", leadID),
		zap.String("status", string(target)))
	return nil
}

// UpdateLead applies a partial update to a lead of the school.
func (s *LeadService) UpdateLead(ctx context.Context, scope *models.TenantScope, leadID string, req dto.UpdateLeadRequest) error {
	if req.Status != nil {
		normalised := strings.ToUpper(strings.TrimSpace(*req.Status))
		req.Status = &normalised
	}
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lead payload")
	}
	patch := models.LeadUpdate{
		Score:             req.Score,
		ParentName:        req.ParentName,
		ChildName:         req.ChildName,
		Source:            req.Source,
		Phone:             req.Phone,
		Email:             req.Email,
		Notes:             req.Notes,
		PreferredBranchID: req.PreferredBranchID,
	}
	if req.Status != nil {
		status := models.LeadStatus(*req.Status)
		patch.Status = &status
	}
	if patch.Empty() {
		return appErrors.Clone(appErrors.ErrValidation, "no fields to update")
	}
	if _, err := uuid.Parse(leadID); err != nil {
		return appErrors.Clone(appErrors.ErrNotFound, "lead not found")
	}
	if patch.PreferredBranchID != nil && *patch.PreferredBranchID != "" {
		if err := s.ensureBranch(ctx, scope, *patch.PreferredBranchID); err != nil {
			return err
		}
	}

	rows, err := s.leads.Update(ctx, scope.SchoolID, leadID, patch)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update lead")
	}
	if rows == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "lead not found")
	}
	if patch.Status != nil {
		s.metrics.RecordLeadStatusUpdate(string(*patch.Status))
	}
	s.invalidate(ctx, scope)
	return nil
}

// ensureBranch verifies a client-supplied branch id belongs to the school.
func (s *LeadService) ensureBranch(ctx context.Context, scope *models.TenantScope, branchID string) error {
	if _, err := uuid.Parse(branchID); err != nil {
		return appErrors.Clone(appErrors.ErrNotFound, "branch not found")
	}
	if _, err := s.branches.FindByID(ctx, scope.SchoolID, branchID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "branch not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load branch")
	}
	return nil
}

func (s *LeadService) invalidate(ctx context.Context, scope *models.TenantScope) {
	_ = s.cache.Invalidate(ctx, leadCacheKey(scope.SchoolID))
}

func toLeadItem(lead models.Lead) dto.LeadItem {
	return dto.LeadItem{
		ID:                lead.ID,
		ParentName:        lead.ParentName,
		ChildName:         lead.ChildName,
		Status:            string(lead.Status),
		Score:             lead.EffectiveScore(),
		Source:            lead.Source,
		Phone:             lead.Phone,
		Email:             lead.Email,
		Notes:             lead.Notes,
		PreferredBranchID: lead.PreferredBranchID,
		CreatedAt:         lead.CreatedAt,
		UpdatedAt:         lead.UpdatedAt,
	}
}
