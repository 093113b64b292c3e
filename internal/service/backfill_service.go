package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/preschool-ops-api/internal/models"
	"github.com/noah-isme/preschool-ops-api/internal/repository"
	appErrors "github.com/noah-isme/preschool-ops-api/pkg/errors"
)

type backfillSchoolRepository interface {
	List(ctx context.Context) ([]models.School, error)
}

type backfillBranchRepository interface {
	ListBySchool(ctx context.Context, schoolID string) ([]models.Branch, error)
	Create(ctx context.Context, branch *models.Branch) error
}

type backfillRepository interface {
	CountUnassigned(ctx context.Context, scope models.BranchScope, schoolID string) (int, error)
	AssignUnassigned(ctx context.Context, scope models.BranchScope, schoolID, branchID string) (int64, error)
	UnassignedIDs(ctx context.Context, scope models.BranchScope, schoolID string) ([]string, error)
	AssignByIDs(ctx context.Context, scope models.BranchScope, ids []string, branchID string) (int64, error)
}

// BackfillOptions tunes a backfill run.
type BackfillOptions struct {
	// DryRun resolves branches and counts pending rows without writing.
	DryRun bool
}

// BackfillService assigns legacy, branch-less records of every school to the
// school's default branch. Schools are processed one after another; a failing
// school is recorded and skipped so the others still make progress. Each step
// only touches rows whose branch reference is still NULL, so runs can be
// repeated or resumed after a crash.
type BackfillService struct {
	schools  backfillSchoolRepository
	branches backfillBranchRepository
	store    backfillRepository
	metrics  *MetricsService
	logger   *zap.Logger
	scopes   []models.BranchScope
	now      func() time.Time
}

// NewBackfillService constructs the backfill service over the standard entity table.
func NewBackfillService(schools backfillSchoolRepository, branches backfillBranchRepository, store backfillRepository, metrics *MetricsService, logger *zap.Logger) *BackfillService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BackfillService{
		schools:  schools,
		branches: branches,
		store:    store,
		metrics:  metrics,
		logger:   logger,
		scopes:   models.BranchScopes,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Run backfills every school. The returned error is non-nil only when the school
// registry cannot be read; per-school failures are reported in the result.
func (s *BackfillService) Run(ctx context.Context, opts BackfillOptions) (*models.BackfillReport, error) {
	report := &models.BackfillReport{
		RunID:     uuid.NewString(),
		DryRun:    opts.DryRun,
		StartedAt: s.now(),
		Schools:   []models.SchoolBackfill{},
	}
	log := s.logger.With(zap.String("run_id", report.RunID), zap.Bool("dry_run", opts.DryRun))

	schools, err := s.schools.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schools")
	}
	log.Info("branch backfill started", zap.Int("schools", len(schools)))

	for _, school := range schools {
		if ctx.Err() != nil {
			report.Cancelled = true
			log.Warn("branch backfill cancelled", zap.Error(ctx.Err()), zap.Int("remaining", len(schools)-report.SchoolsProcessed))
			break
		}

		result, err := s.backfillSchool(ctx, school, opts, log)
		report.SchoolsProcessed++
		if err != nil {
			result.Error = err.Error()
			report.SchoolsFailed++
			s.metrics.RecordBackfillSchoolFailure()
			log.Error("school backfill failed",
				zap.String("school_id", school.ID),
				zap.String("school", school.Name),
				zap.Error(err))
		}
		if result.BranchCreated {
			report.BranchesCreated++
		}
		report.RecordsMigrated += result.Updated()
		report.Schools = append(report.Schools, result)
	}

	report.FinishedAt = s.now()
	s.metrics.ObserveBackfillRun(report.FinishedAt.Sub(report.StartedAt))
	log.Info("branch backfill finished",
		zap.Int("schools_processed", report.SchoolsProcessed),
		zap.Int("schools_failed", report.SchoolsFailed),
		zap.Int("branches_created", report.BranchesCreated),
		zap.Int64("records_migrated", report.RecordsMigrated),
		zap.Bool("cancelled", report.Cancelled))
	return report, nil
}

func (s *BackfillService) backfillSchool(ctx context.Context, school models.School, opts BackfillOptions, log *zap.Logger) (models.SchoolBackfill, error) {
	result := models.SchoolBackfill{
		SchoolID:   school.ID,
		SchoolName: school.Name,
		Entities:   make([]models.EntityBackfill, 0, len(s.scopes)),
	}
	log = log.With(zap.String("school_id", school.ID))

	branch, created, err := s.resolveTargetBranch(ctx, school, opts.DryRun)
	if err != nil {
		return result, fmt.Errorf("resolve target branch: %w", err)
	}
	result.BranchID = branch.ID
	result.BranchName = branch.Name
	result.BranchCreated = created
	if created {
		log.Info("default branch provisioned", zap.String("branch_id", branch.ID))
	}

	for _, scope := range s.scopes {
		entity, err := s.backfillEntity(ctx, scope, school.ID, branch.ID, opts.DryRun)
		result.Entities = append(result.Entities, entity)
		if err != nil {
			return result, err
		}
		if entity.Pending == 0 {
			log.Info("entity up to date", zap.String("entity", scope.Entity))
			continue
		}
		log.Info("entity backfilled",
			zap.String("entity", scope.Entity),
			zap.Int("pending", entity.Pending),
			zap.Int64("updated", entity.Updated))
	}
	return result, nil
}

// resolveTargetBranch picks "Main Branch" when present, provisions it when the
// school has no branches, and otherwise falls back to the oldest branch.
func (s *BackfillService) resolveTargetBranch(ctx context.Context, school models.School, dryRun bool) (models.Branch, bool, error) {
	branches, err := s.branches.ListBySchool(ctx, school.ID)
	if err != nil {
		return models.Branch{}, false, err
	}
	for _, b := range branches {
		if b.Name == models.DefaultBranchName {
			return b, false, nil
		}
	}
	if len(branches) > 0 {
		return branches[0], false, nil
	}

	branch := models.Branch{SchoolID: school.ID, Name: models.DefaultBranchName}
	if dryRun {
		return branch, true, nil
	}
	if err := s.branches.Create(ctx, &branch); err != nil {
		if repository.IsUniqueViolation(err) {
			return s.concurrentDefaultBranch(ctx, school, err)
		}
		return models.Branch{}, false, err
	}
	s.metrics.RecordBackfillBranchCreated()
	return branch, true, nil
}

// concurrentDefaultBranch picks up the "Main Branch" another run inserted
// between our listing and our insert.
func (s *BackfillService) concurrentDefaultBranch(ctx context.Context, school models.School, createErr error) (models.Branch, bool, error) {
	branches, err := s.branches.ListBySchool(ctx, school.ID)
	if err != nil {
		return models.Branch{}, false, err
	}
	for _, b := range branches {
		if strings.EqualFold(b.Name, models.DefaultBranchName) {
			s.logger.Info("default branch provisioned concurrently, reusing it",
				zap.String("school_id", school.ID),
				zap.String("branch_id", b.ID))
			return b, false, nil
		}
	}
	return models.Branch{}, false, createErr
}

func (s *BackfillService) backfillEntity(ctx context.Context, scope models.BranchScope, schoolID, branchID string, dryRun bool) (models.EntityBackfill, error) {
	result := models.EntityBackfill{Entity: scope.Entity}

	if scope.Indirect() {
		ids, err := s.store.UnassignedIDs(ctx, scope, schoolID)
		if err != nil {
			return result, err
		}
		result.Pending = len(ids)
		if result.Pending == 0 || dryRun {
			return result, nil
		}
		updated, err := s.store.AssignByIDs(ctx, scope, ids, branchID)
		if err != nil {
			return result, err
		}
		result.Updated = updated
		s.metrics.RecordBackfillUpdate(scope.Entity, updated)
		return result, nil
	}

	pending, err := s.store.CountUnassigned(ctx, scope, schoolID)
	if err != nil {
		return result, err
	}
	result.Pending = pending
	if pending == 0 || dryRun {
		return result, nil
	}
	updated, err := s.store.AssignUnassigned(ctx, scope, schoolID, branchID)
	if err != nil {
		return result, err
	}
	result.Updated = updated
	s.metrics.RecordBackfillUpdate(scope.Entity, updated)
	return result, nil
}
