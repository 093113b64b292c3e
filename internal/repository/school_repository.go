package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/preschool-ops-api/internal/models"
)

// SchoolRepository reads the tenant registry.
type SchoolRepository struct {
	db *sqlx.DB
}

// NewSchoolRepository constructs a SchoolRepository.
func NewSchoolRepository(db *sqlx.DB) *SchoolRepository {
	return &SchoolRepository{db: db}
}

// List returns every school, oldest first.
func (r *SchoolRepository) List(ctx context.Context) ([]models.School, error) {
	const query = `SELECT id, name, slug, created_at FROM schools ORDER BY created_at ASC, id ASC`
	var schools []models.School
	if err := r.db.SelectContext(ctx, &schools, query); err != nil {
		return nil, fmt.Errorf("list schools: %w", err)
	}
	return schools, nil
}

// FindBySlug fetches a school by its public slug.
func (r *SchoolRepository) FindBySlug(ctx context.Context, slug string) (*models.School, error) {
	const query = `SELECT id, name, slug, created_at FROM schools WHERE slug = $1`
	var school models.School
	if err := r.db.GetContext(ctx, &school, query, slug); err != nil {
		return nil, err
	}
	return &school, nil
}
