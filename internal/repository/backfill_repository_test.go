package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/preschool-ops-api/internal/models"
)

func newSQLMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func scopeFor(t *testing.T, entity string) models.BranchScope {
	for _, s := range models.BranchScopes {
		if s.Entity == entity {
			return s
		}
	}
	t.Fatalf("unknown entity %s", entity)
	return models.BranchScope{}
}

func TestBackfillRepositoryDirectScope(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewBackfillRepository(db)
	students := scopeFor(t, "student")

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM students WHERE school_id = $1 AND branch_id IS NULL")).
		WithArgs("school-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE students SET branch_id = $1 WHERE school_id = $2 AND branch_id IS NULL")).
		WithArgs("branch-1", "school-1").
		WillReturnResult(sqlmock.NewResult(0, 2))

	count, err := repo.CountUnassigned(context.Background(), students, "school-1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	updated, err := repo.AssignUnassigned(context.Background(), students, "school-1", "branch-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBackfillRepositoryLeadUsesPreferredBranch(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewBackfillRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE leads SET preferred_branch_id = $1 WHERE school_id = $2 AND preferred_branch_id IS NULL")).
		WithArgs("branch-1", "school-1").
		WillReturnResult(sqlmock.NewResult(0, 3))

	updated, err := repo.AssignUnassigned(context.Background(), scopeFor(t, "lead"), "school-1", "branch-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), updated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBackfillRepositoryIndirectScope(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewBackfillRepository(db)
	fees := scopeFor(t, "fee")

	mock.ExpectQuery(regexp.QuoteMeta("SELECT t.id FROM fees t JOIN students p ON p.id = t.student_id WHERE t.branch_id IS NULL AND p.school_id = $1 ORDER BY t.id")).
		WithArgs("school-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("fee-1").AddRow("fee-2"))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE fees SET branch_id = $1 WHERE id = ANY($2::uuid[]) AND branch_id IS NULL")).
		WithArgs("branch-1", pq.Array([]string{"fee-1", "fee-2"})).
		WillReturnResult(sqlmock.NewResult(0, 2))

	ids, err := repo.UnassignedIDs(context.Background(), fees, "school-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"fee-1", "fee-2"}, ids)

	updated, err := repo.AssignByIDs(context.Background(), fees, ids, "branch-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBackfillRepositoryStaffAttendanceJoinsUsers(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewBackfillRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM staff_attendance t JOIN users p ON p.id = t.user_id")).
		WithArgs("school-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	ids, err := repo.UnassignedIDs(context.Background(), scopeFor(t, "staff_attendance"), "school-1")
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBackfillRepositoryRejectsMismatchedScopes(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewBackfillRepository(db)

	_, err := repo.CountUnassigned(context.Background(), scopeFor(t, "fee"), "school-1")
	assert.Error(t, err)
	_, err = repo.UnassignedIDs(context.Background(), scopeFor(t, "student"), "school-1")
	assert.Error(t, err)

	updated, err := repo.AssignByIDs(context.Background(), scopeFor(t, "fee"), nil, "branch-1")
	require.NoError(t, err)
	assert.Zero(t, updated)
	assert.NoError(t, mock.ExpectationsWereMet())
}
