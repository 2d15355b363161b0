package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-substitution-api/internal/models"
)

// PayrollSettingsRepository stores the per-school fee schedule.
type PayrollSettingsRepository struct {
	db *sqlx.DB
}

// NewPayrollSettingsRepository constructs a PayrollSettingsRepository.
func NewPayrollSettingsRepository(db *sqlx.DB) *PayrollSettingsRepository {
	return &PayrollSettingsRepository{db: db}
}

// Get returns the school's saved fee schedule or sql.ErrNoRows.
func (r *PayrollSettingsRepository) Get(ctx context.Context, schoolID string) (*models.PayrollSettings, error) {
	const query = `SELECT school_id, substitution_fee, duty_fee, evening_study_fee, saturday_study_fee, updated_at
FROM payroll_settings WHERE school_id = $1`
	var settings models.PayrollSettings
	if err := r.db.GetContext(ctx, &settings, query, schoolID); err != nil {
		return nil, err
	}
	return &settings, nil
}

// Upsert saves the fee schedule. Existing substitutions keep their snapshot.
func (r *PayrollSettingsRepository) Upsert(ctx context.Context, settings *models.PayrollSettings) error {
	settings.UpdatedAt = time.Now().UTC()
	const query = `INSERT INTO payroll_settings (school_id, substitution_fee, duty_fee, evening_study_fee, saturday_study_fee, updated_at)
VALUES (:school_id, :substitution_fee, :duty_fee, :evening_study_fee, :saturday_study_fee, :updated_at)
ON CONFLICT (school_id) DO UPDATE
SET substitution_fee = EXCLUDED.substitution_fee,
    duty_fee = EXCLUDED.duty_fee,
    evening_study_fee = EXCLUDED.evening_study_fee,
    saturday_study_fee = EXCLUDED.saturday_study_fee,
    updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, settings); err != nil {
		return fmt.Errorf("upsert payroll settings: %w", err)
	}
	return nil
}
