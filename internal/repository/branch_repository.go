package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/preschool-ops-api/internal/models"
)

// BranchRepository manages persistence for school branches.
type BranchRepository struct {
	db *sqlx.DB
}

// NewBranchRepository constructs a BranchRepository.
func NewBranchRepository(db *sqlx.DB) *BranchRepository {
	return &BranchRepository{db: db}
}

// ListBySchool returns the school's branches in creation order.
func (r *BranchRepository) ListBySchool(ctx context.Context, schoolID string) ([]models.Branch, error) {
	const query = `SELECT id, school_id, name, created_at, updated_at FROM branches WHERE school_id = $1 ORDER BY created_at ASC, id ASC`
	var branches []models.Branch
	if err := r.db.SelectContext(ctx, &branches, query, schoolID); err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	return branches, nil
}

// FindByID fetches a branch only when it belongs to the given school.
func (r *BranchRepository) FindByID(ctx context.Context, schoolID, id string) (*models.Branch, error) {
	const query = `SELECT id, school_id, name, created_at, updated_at FROM branches WHERE id = $1 AND school_id = $2`
	var branch models.Branch
	if err := r.db.GetContext(ctx, &branch, query, id, schoolID); err != nil {
		return nil, err
	}
	return &branch, nil
}

// ExistsByName checks for a branch with the same name in the school.
func (r *BranchRepository) ExistsByName(ctx context.Context, schoolID, name string) (bool, error) {
	const query = `SELECT 1 FROM branches WHERE school_id = $1 AND LOWER(name) = LOWER($2) LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, schoolID, name); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check branch name: %w", err)
	}
	return true, nil
}

// Create inserts a new branch.
func (r *BranchRepository) Create(ctx context.Context, branch *models.Branch) error {
	if branch.ID == "" {
		branch.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if branch.CreatedAt.IsZero() {
		branch.CreatedAt = now
	}
	branch.UpdatedAt = now
	const query = `INSERT INTO branches (id, school_id, name, created_at, updated_at)
        VALUES (:id, :school_id, :name, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, branch); err != nil {
		return fmt.Errorf("create branch: %w", err)
	}
	return nil
}

// CountReferences counts rows of every branch-scoped entity pointing at the branch.
func (r *BranchRepository) CountReferences(ctx context.Context, branchID string) (int, error) {
	parts := make([]string, 0, len(models.BranchScopes))
	for _, scope := range models.BranchScopes {
		parts = append(parts, fmt.Sprintf("SELECT COUNT(*) AS n FROM %s WHERE %s = $1", scope.Table, scope.Column))
	}
	query := fmt.Sprintf("SELECT COALESCE(SUM(n), 0) FROM (%s) refs", strings.Join(parts, " UNION ALL "))
	var total int
	if err := r.db.GetContext(ctx, &total, query, branchID); err != nil {
		return 0, fmt.Errorf("count branch references: %w", err)
	}
	return total, nil
}

// Delete removes a branch of the school and reports the affected row count.
func (r *BranchRepository) Delete(ctx context.Context, schoolID, id string) (int64, error) {
	const query = `DELETE FROM branches WHERE id = $1 AND school_id = $2`
	res, err := r.db.ExecContext(ctx, query, id, schoolID)
	if err != nil {
		return 0, fmt.Errorf("delete branch: %w", err)
	}
	return res.RowsAffected()
}
