package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-substitution-api/internal/models"
)

// ExtraTaskRepository persists paid duties.
type ExtraTaskRepository struct {
	db *sqlx.DB
}

// NewExtraTaskRepository constructs an ExtraTaskRepository.
func NewExtraTaskRepository(db *sqlx.DB) *ExtraTaskRepository {
	return &ExtraTaskRepository{db: db}
}

// Create inserts a task.
func (r *ExtraTaskRepository) Create(ctx context.Context, task *models.ExtraTask) error {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO extra_tasks (id, school_id, teacher_id, teacher_name, task_type, date, amount, created_at)
VALUES (:id, :school_id, :teacher_id, :teacher_name, :task_type, :date, :amount, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, task); err != nil {
		return fmt.Errorf("create extra task: %w", err)
	}
	return nil
}

// List returns tasks matching the filter, newest first.
func (r *ExtraTaskRepository) List(ctx context.Context, filter models.ExtraTaskFilter) ([]models.ExtraTask, error) {
	conditions := []string{"school_id = $1"}
	args := []interface{}{filter.SchoolID}
	if filter.Date != nil {
		args = append(args, *filter.Date)
		conditions = append(conditions, fmt.Sprintf("date = $%d", len(args)))
	}
	if filter.TeacherID != "" {
		args = append(args, filter.TeacherID)
		conditions = append(conditions, fmt.Sprintf("teacher_id = $%d", len(args)))
	}

	query := fmt.Sprintf(`SELECT id, school_id, teacher_id, teacher_name, task_type, date, amount, created_at
FROM extra_tasks WHERE %s ORDER BY date DESC, created_at DESC`, strings.Join(conditions, " AND "))
	var tasks []models.ExtraTask
	if err := r.db.SelectContext(ctx, &tasks, query, args...); err != nil {
		return nil, fmt.Errorf("list extra tasks: %w", err)
	}
	return tasks, nil
}

// Delete removes a task and reports whether a row was removed.
func (r *ExtraTaskRepository) Delete(ctx context.Context, schoolID, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM extra_tasks WHERE school_id = $1 AND id = $2`, schoolID, id)
	if err != nil {
		return false, fmt.Errorf("delete extra task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete extra task rows: %w", err)
	}
	return affected > 0, nil
}
