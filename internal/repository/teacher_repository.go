package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-substitution-api/internal/models"
)

const teacherColumns = `id, school_id, name, short, branch, grades, created_at, updated_at`

// TeacherRepository manages persistence for timetable teachers.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs a TeacherRepository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// ListBySchool returns every teacher of a school ordered by name.
func (r *TeacherRepository) ListBySchool(ctx context.Context, schoolID string) ([]models.Teacher, error) {
	query := `SELECT ` + teacherColumns + ` FROM timetable_teachers WHERE school_id = $1 ORDER BY name ASC, id ASC`
	var teachers []models.Teacher
	if err := r.db.SelectContext(ctx, &teachers, query, schoolID); err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	return teachers, nil
}

// FindByID fetches a teacher of a school.
func (r *TeacherRepository) FindByID(ctx context.Context, schoolID, id string) (*models.Teacher, error) {
	query := `SELECT ` + teacherColumns + ` FROM timetable_teachers WHERE school_id = $1 AND id = $2`
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, schoolID, id); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// UpdateProfile replaces a teacher's branch and grade tags. It returns
// sql.ErrNoRows when the teacher does not exist.
func (r *TeacherRepository) UpdateProfile(ctx context.Context, schoolID, id, branch string, grades []string) error {
	const query = `UPDATE timetable_teachers SET branch = $3, grades = $4, updated_at = $5 WHERE school_id = $1 AND id = $2`
	if grades == nil {
		grades = []string{}
	}
	res, err := r.db.ExecContext(ctx, query, schoolID, id, branch, pq.Array(grades), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update teacher profile: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update teacher profile rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
