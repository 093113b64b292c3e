package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/preschool-ops-api/internal/models"
)

const leadColumns = `id, school_id, preferred_branch_id, parent_name, child_name, source, status, score, phone, email, notes, created_at, updated_at`

// LeadRepository persists admissions inquiries. Every statement is keyed by school.
type LeadRepository struct {
	db *sqlx.DB
}

// NewLeadRepository constructs a LeadRepository.
func NewLeadRepository(db *sqlx.DB) *LeadRepository {
	return &LeadRepository{db: db}
}

// ListBySchool returns the school's leads, newest first.
func (r *LeadRepository) ListBySchool(ctx context.Context, schoolID string) ([]models.Lead, error) {
	query := fmt.Sprintf("SELECT %s FROM leads WHERE school_id = $1 ORDER BY created_at DESC, id ASC", leadColumns)
	var leads []models.Lead
	if err := r.db.SelectContext(ctx, &leads, query, schoolID); err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	return leads, nil
}

// FindByID fetches a lead of the school.
func (r *LeadRepository) FindByID(ctx context.Context, schoolID, id string) (*models.Lead, error) {
	query := fmt.Sprintf("SELECT %s FROM leads WHERE id = $1 AND school_id = $2", leadColumns)
	var lead models.Lead
	if err := r.db.GetContext(ctx, &lead, query, id, schoolID); err != nil {
		return nil, err
	}
	return &lead, nil
}

// Create inserts a new lead.
func (r *LeadRepository) Create(ctx context.Context, lead *models.Lead) error {
	if lead.ID == "" {
		lead.ID = uuid.NewString()
	}
	if lead.Status == "" {
		lead.Status = models.LeadStatusNew
	}
	now := time.Now().UTC()
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = now
	}
	lead.UpdatedAt = now
	query := fmt.Sprintf(`INSERT INTO leads (%s)
        VALUES (:id, :school_id, :preferred_branch_id, :parent_name, :child_name, :source, :status, :score, :phone, :email, :notes, :created_at, :updated_at)`, leadColumns)
	if _, err := r.db.NamedExecContext(ctx, query, lead); err != nil {
		return fmt.Errorf("create lead: %w", err)
	}
	return nil
}

// UpdateStatus sets the status unconditionally and reports affected rows;
// zero means the lead does not exist in the school.
func (r *LeadRepository) UpdateStatus(ctx context.Context, schoolID, id string, status models.LeadStatus) (int64, error) {
	const query = `UPDATE leads SET status = $1, updated_at = $2 WHERE id = $3 AND school_id = $4`
	res, err := r.db.ExecContext(ctx, query, status, time.Now().UTC(), id, schoolID)
	if err != nil {
		return 0, fmt.Errorf("update lead status: %w", err)
	}
	return res.RowsAffected()
}

// Update applies the non-nil fields of the patch and reports affected rows.
func (r *LeadRepository) Update(ctx context.Context, schoolID, id string, patch models.LeadUpdate) (int64, error) {
	setParts := []string{"updated_at = :updated_at"}
	params := map[string]interface{}{
		"id":         id,
		"school_id":  schoolID,
		"updated_at": time.Now().UTC(),
	}
	set := func(column string, value interface{}) {
		setParts = append(setParts, fmt.Sprintf("%s = :%s", column, column))
		params[column] = value
	}
	if patch.Status != nil {
		set("status", *patch.Status)
	}
	if patch.Score != nil {
		set("score", *patch.Score)
	}
	if patch.ParentName != nil {
		set("parent_name", *patch.ParentName)
	}
	if patch.ChildName != nil {
		set("child_name", *patch.ChildName)
	}
	if patch.Source != nil {
		set("source", *patch.Source)
	}
	if patch.Phone != nil {
		set("phone", *patch.Phone)
	}
	if patch.Email != nil {
		set("email", *patch.Email)
	}
	if patch.Notes != nil {
		set("notes", *patch.Notes)
	}
	if patch.PreferredBranchID != nil {
		// an empty id clears the preference
		var branchID interface{}
		if *patch.PreferredBranchID != "" {
			branchID = *patch.PreferredBranchID
		}
		set("preferred_branch_id", branchID)
	}

	query := fmt.Sprintf("UPDATE leads SET %s WHERE id = :id AND school_id = :school_id", strings.Join(setParts, ", "))
	res, err := r.db.NamedExecContext(ctx, query, params)
	if err != nil {
		return 0, fmt.Errorf("update lead: %w", err)
	}
	return res.RowsAffected()
}
