package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/preschool-ops-api/internal/models"
)

// BackfillRepository issues the bulk statements used by the branch backfill.
// Table and column names come from models.BranchScopes, never from callers.
// Every write is conditioned on the target column still being NULL, so a
// repeated run touches nothing.
type BackfillRepository struct {
	db *sqlx.DB
}

// NewBackfillRepository constructs a BackfillRepository.
func NewBackfillRepository(db *sqlx.DB) *BackfillRepository {
	return &BackfillRepository{db: db}
}

// CountUnassigned counts the school's rows whose branch reference is NULL.
func (r *BackfillRepository) CountUnassigned(ctx context.Context, scope models.BranchScope, schoolID string) (int, error) {
	if scope.Indirect() {
		return 0, fmt.Errorf("count %s: entity has no school_id column", scope.Entity)
	}
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE school_id = $1 AND %s IS NULL", scope.Table, scope.Column)
	var count int
	if err := r.db.GetContext(ctx, &count, query, schoolID); err != nil {
		return 0, fmt.Errorf("count unassigned %s: %w", scope.Entity, err)
	}
	return count, nil
}

// AssignUnassigned points every unassigned row of the school at the branch in one statement.
func (r *BackfillRepository) AssignUnassigned(ctx context.Context, scope models.BranchScope, schoolID, branchID string) (int64, error) {
	if scope.Indirect() {
		return 0, fmt.Errorf("assign %s: entity has no school_id column", scope.Entity)
	}
	query := fmt.Sprintf("UPDATE %s SET %s = $1 WHERE school_id = $2 AND %s IS NULL", scope.Table, scope.Column, scope.Column)
	res, err := r.db.ExecContext(ctx, query, branchID, schoolID)
	if err != nil {
		return 0, fmt.Errorf("assign %s: %w", scope.Entity, err)
	}
	return res.RowsAffected()
}

// UnassignedIDs resolves unassigned rows owned by the school through the parent relation.
func (r *BackfillRepository) UnassignedIDs(ctx context.Context, scope models.BranchScope, schoolID string) ([]string, error) {
	if !scope.Indirect() {
		return nil, fmt.Errorf("resolve %s: entity is directly scoped", scope.Entity)
	}
	query := fmt.Sprintf(`SELECT t.id FROM %s t JOIN %s p ON p.id = t.%s WHERE t.%s IS NULL AND p.school_id = $1 ORDER BY t.id`,
		scope.Table, scope.Via.ParentTable, scope.Via.ForeignKey, scope.Column)
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, schoolID); err != nil {
		return nil, fmt.Errorf("resolve unassigned %s: %w", scope.Entity, err)
	}
	return ids, nil
}

// AssignByIDs points the listed rows at the branch in one statement.
func (r *BackfillRepository) AssignByIDs(ctx context.Context, scope models.BranchScope, ids []string, branchID string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query := fmt.Sprintf("UPDATE %s SET %s = $1 WHERE id = ANY($2::uuid[]) AND %s IS NULL", scope.Table, scope.Column, scope.Column)
	res, err := r.db.ExecContext(ctx, query, branchID, pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("assign %s by id: %w", scope.Entity, err)
	}
	return res.RowsAffected()
}
