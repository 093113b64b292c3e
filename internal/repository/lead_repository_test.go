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

var leadRowColumns = []string{"id", "school_id", "preferred_branch_id", "parent_name", "child_name", "source", "status", "score", "phone", "email", "notes", "created_at", "updated_at"}

func TestLeadRepositoryListBySchool(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewLeadRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(leadRowColumns).
		AddRow("l1", "school-1", nil, "Ana", "Budi", "walk-in", "NEW", nil, nil, nil, nil, now, now).
		AddRow("l2", "school-1", "b1", "Cici", "Dodi", "instagram", "ENROLLED", 80, "0812", nil, "sibling", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM leads WHERE school_id = $1 ORDER BY created_at DESC, id ASC")).
		WithArgs("school-1").
		WillReturnRows(rows)

	leads, err := repo.ListBySchool(context.Background(), "school-1")
	require.NoError(t, err)
	require.Len(t, leads, 2)
	assert.Nil(t, leads[0].Score)
	require.NotNil(t, leads[1].Score)
	assert.Equal(t, 80, *leads[1].Score)
	assert.Equal(t, models.LeadStatusEnrolled, leads[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeadRepositoryUpdateStatusScopedBySchool(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewLeadRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE leads SET status = $1, updated_at = $2 WHERE id = $3 AND school_id = $4")).
		WithArgs(models.LeadStatusContacted, sqlmock.AnyArg(), "l1", "school-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	affected, err := repo.UpdateStatus(context.Background(), "school-1", "l1", models.LeadStatusContacted)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeadRepositoryUpdateOnlyTouchesProvidedFields(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewLeadRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE leads SET updated_at = ?, score = ?, notes = ? WHERE id = ? AND school_id = ?")).
		WithArgs(sqlmock.AnyArg(), 70, "called back", "l1", "school-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	score := 70
	notes := "called back"
	affected, err := repo.Update(context.Background(), "school-1", "l1", models.LeadUpdate{Score: &score, Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeadRepositoryCreateDefaultsToNew(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewLeadRepository(db)

	mock.ExpectExec("INSERT INTO leads").
		WillReturnResult(sqlmock.NewResult(1, 1))

	lead := &models.Lead{SchoolID: "school-1", ParentName: "Ana", ChildName: "Budi", Source: "website"}
	require.NoError(t, repo.Create(context.Background(), lead))
	assert.NotEmpty(t, lead.ID)
	assert.Equal(t, models.LeadStatusNew, lead.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
