package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-substitution-api/internal/models"
)

func TestPayrollSettingsRepositoryGet(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPayrollSettingsRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM payroll_settings WHERE school_id = $1")).
		WithArgs("school-1").
		WillReturnRows(sqlmock.NewRows([]string{"school_id", "substitution_fee", "duty_fee", "evening_study_fee", "saturday_study_fee", "updated_at"}).
			AddRow("school-1", 25000, 20000, 40000, 100000, time.Now()))

	settings, err := repo.Get(context.Background(), "school-1")
	require.NoError(t, err)
	fee, ok := settings.FeeFor(models.FeeSubstitution)
	assert.True(t, ok)
	assert.Equal(t, int64(25000), fee)

	mock.ExpectQuery(regexp.QuoteMeta("FROM payroll_settings")).WillReturnError(sql.ErrNoRows)
	_, err = repo.Get(context.Background(), "school-2")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPayrollSettingsRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPayrollSettingsRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (school_id) DO UPDATE")).
		WithArgs("school-1", int64(18000), int64(20000), int64(40000), int64(100000), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	settings := models.DefaultPayrollSettings("school-1")
	settings.SubstitutionFee = 18000
	require.NoError(t, repo.Upsert(context.Background(), &settings))
	assert.False(t, settings.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}
