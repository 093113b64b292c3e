package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/preschool-ops-api/internal/models"
)

func TestBranchRepositoryListBySchoolOrdersByCreation(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewBranchRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "school_id", "name", "created_at", "updated_at"}).
		AddRow("b1", "school-1", "North Campus", now.Add(-time.Hour), now).
		AddRow("b2", "school-1", "South Campus", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM branches WHERE school_id = $1 ORDER BY created_at ASC, id ASC")).
		WithArgs("school-1").
		WillReturnRows(rows)

	branches, err := repo.ListBySchool(context.Background(), "school-1")
	require.NoError(t, err)
	require.Len(t, branches, 2)
	assert.Equal(t, "b1", branches[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBranchRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewBranchRepository(db)

	mock.ExpectExec("INSERT INTO branches").
		WithArgs(sqlmock.AnyArg(), "school-1", models.DefaultBranchName, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	branch := &models.Branch{SchoolID: "school-1", Name: models.DefaultBranchName}
	require.NoError(t, repo.Create(context.Background(), branch))
	assert.NotEmpty(t, branch.ID)
	assert.False(t, branch.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBranchRepositoryCountReferencesCoversEveryScope(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewBranchRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(SUM(n), 0) FROM (SELECT COUNT(*) AS n FROM students WHERE branch_id = $1 UNION ALL") +
		".*" + regexp.QuoteMeta("FROM fees WHERE branch_id = $1") +
		".*" + regexp.QuoteMeta("FROM leads WHERE preferred_branch_id = $1) refs")).
		WithArgs("b1").
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(4))

	total, err := repo.CountReferences(context.Background(), "b1")
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBranchRepositoryDeleteScopedBySchool(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewBranchRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM branches WHERE id = $1 AND school_id = $2")).
		WithArgs("b1", "school-2").
		WillReturnResult(sqlmock.NewResult(0, 0))

	affected, err := repo.Delete(context.Background(), "school-2", "b1")
	require.NoError(t, err)
	assert.Zero(t, affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}
