package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-substitution-api/internal/timetable"
)

func TestTimetableRepositoryListLessons(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	rows := sqlmock.NewRows([]string{"id", "school_id", "subject_id", "periods_per_week", "teacher_ids", "class_ids"}).
		AddRow("l-1", "school-1", "math", 4.0, "{t-a,t-b}", "{c-1}")
	mock.ExpectQuery(regexp.QuoteMeta("FROM timetable_lessons l WHERE l.school_id = $1 ORDER BY l.id ASC")).
		WithArgs("school-1").
		WillReturnRows(rows)

	lessons, err := repo.ListLessons(context.Background(), "school-1")
	require.NoError(t, err)
	require.Len(t, lessons, 1)
	assert.Equal(t, []string{"t-a", "t-b"}, []string(lessons[0].TeacherIDs))
	assert.Equal(t, []string{"c-1"}, []string(lessons[0].ClassIDs))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryListCardsParsesMask(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	rows := sqlmock.NewRows([]string{"id", "school_id", "lesson_id", "period_index", "days_mask"}).
		AddRow("card-1", "school-1", "l-1", 3, "01000")
	mock.ExpectQuery(regexp.QuoteMeta("FROM timetable_cards WHERE school_id = $1")).
		WithArgs("school-1").
		WillReturnRows(rows)

	cards, err := repo.ListCards(context.Background(), "school-1")
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.True(t, timetable.OccursOn(cards[0], timetable.Tuesday))
	assert.False(t, timetable.OccursOn(cards[0], timetable.Monday))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryListCardsRejectsBadMask(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	rows := sqlmock.NewRows([]string{"id", "school_id", "lesson_id", "period_index", "days_mask"}).
		AddRow("card-1", "school-1", "l-1", 3, "01x")
	mock.ExpectQuery(regexp.QuoteMeta("FROM timetable_cards")).WillReturnRows(rows)

	_, err := repo.ListCards(context.Background(), "school-1")
	assert.Error(t, err)
}

func TestTimetableRepositoryFindLessonContext(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM timetable_lessons l WHERE l.school_id = $1 AND l.id = $2")).
		WithArgs("school-1", "l-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "school_id", "subject_id", "periods_per_week", "teacher_ids", "class_ids"}).
			AddRow("l-1", "school-1", "math", 4.0, "{t-a}", "{c-1}"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM timetable_subjects WHERE id = $1")).
		WithArgs("math").
		WillReturnRows(sqlmock.NewRows([]string{"id", "school_id", "name", "short"}).AddRow("math", "school-1", "Math", "MAT"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM timetable_classes WHERE id = ANY($1)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "school_id", "name", "short", "grade_index"}).AddRow("c-1", "school-1", "7-A", "7A", 7))

	ctxLesson, err := repo.FindLessonContext(context.Background(), "school-1", "l-1")
	require.NoError(t, err)
	require.NotNil(t, ctxLesson.Subject)
	assert.Equal(t, "Math", ctxLesson.Subject.Name)
	require.Len(t, ctxLesson.Classes, 1)
	require.NotNil(t, ctxLesson.Classes[0].GradeIndex)
	assert.Equal(t, 7, *ctxLesson.Classes[0].GradeIndex)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryFindLessonContextMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM timetable_lessons l")).WillReturnError(sql.ErrNoRows)

	_, err := repo.FindLessonContext(context.Background(), "school-1", "ghost")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
