package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-substitution-api/internal/models"
)

func newSubstitution() *models.Substitution {
	sub := "t-sub"
	return &models.Substitution{
		SchoolID:            "school-1",
		Date:                time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		PeriodIndex:         3,
		OriginalTeacherID:   "t-orig",
		SubstituteTeacherID: &sub,
		Amount:              17000,
		Reason:              models.ExcuseSickLeave,
	}
}

func TestSubstitutionRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSubstitutionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO substitutions")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("generated"))

	sub := newSubstitution()
	require.NoError(t, repo.Create(context.Background(), sub))
	assert.NotEmpty(t, sub.ID)
	assert.Equal(t, models.SubstitutionApproved, sub.Status)
	assert.False(t, sub.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubstitutionRepositoryCreateSlotTaken(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSubstitutionRepository(db)

	// ON CONFLICT DO NOTHING returns no row.
	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (school_id, date, period_index, original_teacher_id) WHERE status <> 'cancelled' DO NOTHING")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	err := repo.Create(context.Background(), newSubstitution())
	assert.ErrorIs(t, err, ErrSlotTaken)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO substitutions")).
		WillReturnError(&pq.Error{Code: "23505"})
	err = repo.Create(context.Background(), newSubstitution())
	assert.ErrorIs(t, err, ErrSlotTaken)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO substitutions")).
		WillReturnError(errors.New("connection reset"))
	err = repo.Create(context.Background(), newSubstitution())
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrSlotTaken))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubstitutionRepositoryDeleteReportsRemoval(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSubstitutionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM substitutions WHERE school_id = $1 AND id = $2")).
		WithArgs("school-1", "s-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	removed, err := repo.Delete(context.Background(), "school-1", "s-1")
	require.NoError(t, err)
	assert.True(t, removed)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM substitutions")).
		WithArgs("school-1", "gone").
		WillReturnResult(sqlmock.NewResult(0, 0))
	removed, err = repo.Delete(context.Background(), "school-1", "gone")
	require.NoError(t, err)
	assert.False(t, removed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubstitutionRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSubstitutionRepository(db)

	day := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE school_id = $1 AND date = $2 AND substitute_teacher_id = $3 ORDER BY date DESC")).
		WithArgs("school-1", day, "t-sub").
		WillReturnRows(sqlmock.NewRows([]string{"id", "school_id"}).AddRow("s-1", "school-1"))

	subs, err := repo.List(context.Background(), models.SubstitutionFilter{SchoolID: "school-1", Date: &day, SubstituteTeacherID: "t-sub"})
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubstitutionRepositoryCounters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSubstitutionRepository(db)
	day := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT DISTINCT substitute_teacher_id FROM substitutions")).
		WithArgs("school-1", day, 3).
		WillReturnRows(sqlmock.NewRows([]string{"substitute_teacher_id"}).AddRow("t-sub"))
	ids, err := repo.ListSubstitutesAt(context.Background(), "school-1", day, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"t-sub"}, ids)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE school_id = $1 AND date = $2 AND status <> 'cancelled'")).
		WithArgs("school-1", day).
		WillReturnRows(sqlmock.NewRows([]string{"teacher_id", "count"}).AddRow("t-sub", 2))
	today, err := repo.CountAssignmentsOn(context.Background(), "school-1", day)
	require.NoError(t, err)
	assert.Equal(t, []models.TeacherCount{{TeacherID: "t-sub", Count: 2}}, today)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE school_id = $1 AND status <> 'cancelled'")).
		WithArgs("school-1").
		WillReturnRows(sqlmock.NewRows([]string{"teacher_id", "count"}).AddRow("t-sub", 9))
	lifetime, err := repo.CountLifetimeAssignments(context.Background(), "school-1")
	require.NoError(t, err)
	assert.Equal(t, 9, lifetime[0].Count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
