package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-substitution-api/internal/models"
	"github.com/noah-isme/sma-substitution-api/pkg/database"
)

// ErrSlotTaken is returned when a live substitution already covers the
// (school, date, period, original teacher) slot.
var ErrSlotTaken = errors.New("substitution slot already taken")

const substitutionColumns = `id, school_id, date, period_index, period_name, original_teacher_id, original_teacher_name,
substitute_teacher_id, substitute_teacher_name, lesson_id, subject_name, class_names, amount, status, reason, created_at, updated_at`

// SubstitutionRepository persists substitution records.
type SubstitutionRepository struct {
	db *sqlx.DB
}

// NewSubstitutionRepository constructs a SubstitutionRepository.
func NewSubstitutionRepository(db *sqlx.DB) *SubstitutionRepository {
	return &SubstitutionRepository{db: db}
}

// Create inserts a substitution unless a non-cancelled one already covers the
// same slot. The check and the insert are one statement against the partial
// unique index, so concurrent callers see exactly one winner.
func (r *SubstitutionRepository) Create(ctx context.Context, sub *models.Substitution) error {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = now
	}
	sub.UpdatedAt = now
	if sub.Status == "" {
		sub.Status = models.SubstitutionApproved
	}

	const query = `INSERT INTO substitutions (` + substitutionColumns + `)
VALUES (:id, :school_id, :date, :period_index, :period_name, :original_teacher_id, :original_teacher_name,
:substitute_teacher_id, :substitute_teacher_name, :lesson_id, :subject_name, :class_names, :amount, :status, :reason, :created_at, :updated_at)
ON CONFLICT (school_id, date, period_index, original_teacher_id) WHERE status <> 'cancelled' DO NOTHING
RETURNING id`

	bound, args, err := r.db.BindNamed(query, sub)
	if err != nil {
		return fmt.Errorf("bind substitution insert: %w", err)
	}

	var id string
	if err := r.db.QueryRowxContext(ctx, bound, args...).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) || database.IsUniqueViolation(err) {
			return ErrSlotTaken
		}
		return fmt.Errorf("create substitution: %w", err)
	}
	return nil
}

// FindByID fetches a substitution of a school.
func (r *SubstitutionRepository) FindByID(ctx context.Context, schoolID, id string) (*models.Substitution, error) {
	query := `SELECT ` + substitutionColumns + ` FROM substitutions WHERE school_id = $1 AND id = $2`
	var sub models.Substitution
	if err := r.db.GetContext(ctx, &sub, query, schoolID, id); err != nil {
		return nil, err
	}
	return &sub, nil
}

// List returns substitutions matching the filter ordered by date and period.
func (r *SubstitutionRepository) List(ctx context.Context, filter models.SubstitutionFilter) ([]models.Substitution, error) {
	conditions := []string{"school_id = $1"}
	args := []interface{}{filter.SchoolID}

	if filter.Date != nil {
		args = append(args, *filter.Date)
		conditions = append(conditions, fmt.Sprintf("date = $%d", len(args)))
	}
	if filter.OriginalTeacherID != "" {
		args = append(args, filter.OriginalTeacherID)
		conditions = append(conditions, fmt.Sprintf("original_teacher_id = $%d", len(args)))
	}
	if filter.SubstituteTeacherID != "" {
		args = append(args, filter.SubstituteTeacherID)
		conditions = append(conditions, fmt.Sprintf("substitute_teacher_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	query := fmt.Sprintf("SELECT %s FROM substitutions WHERE %s ORDER BY date DESC, period_index ASC, created_at ASC",
		substitutionColumns, strings.Join(conditions, " AND "))
	var subs []models.Substitution
	if err := r.db.SelectContext(ctx, &subs, query, args...); err != nil {
		return nil, fmt.Errorf("list substitutions: %w", err)
	}
	return subs, nil
}

// Delete hard-deletes a substitution and reports whether a row was removed.
func (r *SubstitutionRepository) Delete(ctx context.Context, schoolID, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM substitutions WHERE school_id = $1 AND id = $2`, schoolID, id)
	if err != nil {
		return false, fmt.Errorf("delete substitution: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete substitution rows: %w", err)
	}
	return affected > 0, nil
}

// Cancel marks a live substitution cancelled, freeing its slot. It returns
// sql.ErrNoRows when no live record matched.
func (r *SubstitutionRepository) Cancel(ctx context.Context, schoolID, id string) error {
	const query = `UPDATE substitutions SET status = 'cancelled', updated_at = $3 WHERE school_id = $1 AND id = $2 AND status <> 'cancelled'`
	res, err := r.db.ExecContext(ctx, query, schoolID, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("cancel substitution: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("cancel substitution rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListSubstitutesAt returns teachers already covering another absence at the
// given date and period.
func (r *SubstitutionRepository) ListSubstitutesAt(ctx context.Context, schoolID string, date time.Time, periodIndex int) ([]string, error) {
	const query = `SELECT DISTINCT substitute_teacher_id FROM substitutions
WHERE school_id = $1 AND date = $2 AND period_index = $3 AND status <> 'cancelled' AND substitute_teacher_id IS NOT NULL`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, schoolID, date, periodIndex); err != nil {
		return nil, fmt.Errorf("list busy substitutes: %w", err)
	}
	return ids, nil
}

// CountAssignmentsOn counts live cover assignments per substitute on a date.
func (r *SubstitutionRepository) CountAssignmentsOn(ctx context.Context, schoolID string, date time.Time) ([]models.TeacherCount, error) {
	const query = `SELECT substitute_teacher_id AS teacher_id, COUNT(*) AS count FROM substitutions
WHERE school_id = $1 AND date = $2 AND status <> 'cancelled' AND substitute_teacher_id IS NOT NULL
GROUP BY substitute_teacher_id`
	var counts []models.TeacherCount
	if err := r.db.SelectContext(ctx, &counts, query, schoolID, date); err != nil {
		return nil, fmt.Errorf("count daily assignments: %w", err)
	}
	return counts, nil
}

// CountLifetimeAssignments counts live cover assignments per substitute.
func (r *SubstitutionRepository) CountLifetimeAssignments(ctx context.Context, schoolID string) ([]models.TeacherCount, error) {
	const query = `SELECT substitute_teacher_id AS teacher_id, COUNT(*) AS count FROM substitutions
WHERE school_id = $1 AND status <> 'cancelled' AND substitute_teacher_id IS NOT NULL
GROUP BY substitute_teacher_id`
	var counts []models.TeacherCount
	if err := r.db.SelectContext(ctx, &counts, query, schoolID); err != nil {
		return nil, fmt.Errorf("count lifetime assignments: %w", err)
	}
	return counts, nil
}
