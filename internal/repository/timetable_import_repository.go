package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-substitution-api/internal/models"
	"github.com/noah-isme/sma-substitution-api/internal/timetable"
)

// TimetableImportRepository writes an imported timetable. Every method takes
// the executor so the whole replace can run inside one transaction.
type TimetableImportRepository struct {
	db *sqlx.DB
}

// NewTimetableImportRepository constructs a TimetableImportRepository.
func NewTimetableImportRepository(db *sqlx.DB) *TimetableImportRepository {
	return &TimetableImportRepository{db: db}
}

func (r *TimetableImportRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// StoredReferences returns the ids of the school's teachers, subjects and
// classes. These rows survive every import.
func (r *TimetableImportRepository) StoredReferences(ctx context.Context, exec sqlx.ExtContext, schoolID string) (*models.ImportReferences, error) {
	target := r.exec(exec)
	refs := &models.ImportReferences{}
	for _, q := range []struct {
		table string
		dest  *[]string
	}{
		{"timetable_teachers", &refs.TeacherIDs},
		{"timetable_subjects", &refs.SubjectIDs},
		{"timetable_classes", &refs.ClassIDs},
	} {
		query := `SELECT id FROM ` + q.table + ` WHERE school_id = $1 ORDER BY id ASC`
		if err := sqlx.SelectContext(ctx, target, q.dest, query, schoolID); err != nil {
			return nil, fmt.Errorf("list stored %s: %w", q.table, err)
		}
	}
	return refs, nil
}

// UpsertTeachers inserts new teachers and refreshes names of known ones.
// Branch and grades of existing teachers are left to administrative edits.
func (r *TimetableImportRepository) UpsertTeachers(ctx context.Context, exec sqlx.ExtContext, schoolID string, teachers []models.ImportTeacher) error {
	target := r.exec(exec)
	now := time.Now().UTC()
	const query = `INSERT INTO timetable_teachers (id, school_id, name, short, branch, grades, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
ON CONFLICT (id) DO UPDATE
SET name = EXCLUDED.name,
    short = EXCLUDED.short,
    updated_at = EXCLUDED.updated_at`
	for _, t := range teachers {
		grades := t.Grades
		if grades == nil {
			grades = []string{}
		}
		if _, err := target.ExecContext(ctx, query, t.ID, schoolID, t.Name, t.Short, t.Branch, pq.Array(grades), now); err != nil {
			return fmt.Errorf("upsert teacher %s: %w", t.ID, err)
		}
	}
	return nil
}

// UpsertSubjects inserts or renames subjects.
func (r *TimetableImportRepository) UpsertSubjects(ctx context.Context, exec sqlx.ExtContext, schoolID string, subjects []models.ImportSubject) error {
	target := r.exec(exec)
	const query = `INSERT INTO timetable_subjects (id, school_id, name, short) VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, short = EXCLUDED.short`
	for _, s := range subjects {
		if _, err := target.ExecContext(ctx, query, s.ID, schoolID, s.Name, s.Short); err != nil {
			return fmt.Errorf("upsert subject %s: %w", s.ID, err)
		}
	}
	return nil
}

// UpsertClasses inserts or updates classes.
func (r *TimetableImportRepository) UpsertClasses(ctx context.Context, exec sqlx.ExtContext, schoolID string, classes []models.ImportClass) error {
	target := r.exec(exec)
	const query = `INSERT INTO timetable_classes (id, school_id, name, short, grade_index) VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, short = EXCLUDED.short, grade_index = EXCLUDED.grade_index`
	for _, c := range classes {
		if _, err := target.ExecContext(ctx, query, c.ID, schoolID, c.Name, c.Short, c.GradeIndex); err != nil {
			return fmt.Errorf("upsert class %s: %w", c.ID, err)
		}
	}
	return nil
}

// DetachSubstitutions clears lesson references so substitution history
// survives the lesson rebuild. It returns the number of detached rows.
func (r *TimetableImportRepository) DetachSubstitutions(ctx context.Context, exec sqlx.ExtContext, schoolID string) (int64, error) {
	const query = `UPDATE substitutions SET lesson_id = NULL, updated_at = $2 WHERE school_id = $1 AND lesson_id IS NOT NULL`
	res, err := r.exec(exec).ExecContext(ctx, query, schoolID, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("detach substitutions: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("detach substitutions rows: %w", err)
	}
	return affected, nil
}

// ClearStructure removes the school's cards, lessons and periods. Lesson
// teacher and class links cascade.
func (r *TimetableImportRepository) ClearStructure(ctx context.Context, exec sqlx.ExtContext, schoolID string) error {
	target := r.exec(exec)
	for _, stmt := range []string{
		`DELETE FROM timetable_cards WHERE school_id = $1`,
		`DELETE FROM timetable_lessons WHERE school_id = $1`,
		`DELETE FROM timetable_periods WHERE school_id = $1`,
	} {
		if _, err := target.ExecContext(ctx, stmt, schoolID); err != nil {
			return fmt.Errorf("clear timetable structure: %w", err)
		}
	}
	return nil
}

// InsertLessons inserts lessons with their teacher and class links.
func (r *TimetableImportRepository) InsertLessons(ctx context.Context, exec sqlx.ExtContext, schoolID string, lessons []models.ImportLesson) error {
	target := r.exec(exec)
	for _, l := range lessons {
		if _, err := target.ExecContext(ctx,
			`INSERT INTO timetable_lessons (id, school_id, subject_id, periods_per_week) VALUES ($1, $2, $3, $4)`,
			l.ID, schoolID, l.SubjectID, l.PeriodsPerWeek); err != nil {
			return fmt.Errorf("insert lesson %s: %w", l.ID, err)
		}
		if _, err := target.ExecContext(ctx,
			`INSERT INTO timetable_lesson_teachers (lesson_id, teacher_id) SELECT $1, unnest($2::text[]) ON CONFLICT DO NOTHING`,
			l.ID, pq.Array(l.TeacherIDs)); err != nil {
			return fmt.Errorf("link lesson teachers %s: %w", l.ID, err)
		}
		if _, err := target.ExecContext(ctx,
			`INSERT INTO timetable_lesson_classes (lesson_id, class_id) SELECT $1, unnest($2::text[]) ON CONFLICT DO NOTHING`,
			l.ID, pq.Array(l.ClassIDs)); err != nil {
			return fmt.Errorf("link lesson classes %s: %w", l.ID, err)
		}
	}
	return nil
}

// InsertCards inserts weekly slots. Masks must already be validated.
func (r *TimetableImportRepository) InsertCards(ctx context.Context, exec sqlx.ExtContext, schoolID string, cards []models.ImportCard) error {
	target := r.exec(exec)
	const query = `INSERT INTO timetable_cards (id, school_id, lesson_id, period_index, days_mask) VALUES ($1, $2, $3, $4, $5)`
	for _, c := range cards {
		mask, err := timetable.ParseDayMask(c.DaysMask)
		if err != nil {
			return fmt.Errorf("insert card %s: %w", c.ID, err)
		}
		id := c.ID
		if id == "" {
			id = uuid.NewString()
		}
		if _, err := target.ExecContext(ctx, query, id, schoolID, c.LessonID, c.PeriodIndex, mask); err != nil {
			return fmt.Errorf("insert card %s: %w", id, err)
		}
	}
	return nil
}

// InsertPeriods inserts the periods of the school day.
func (r *TimetableImportRepository) InsertPeriods(ctx context.Context, exec sqlx.ExtContext, schoolID string, periods []models.ImportPeriod) error {
	target := r.exec(exec)
	const query = `INSERT INTO timetable_periods (school_id, period_index, name, short, start_time, end_time) VALUES ($1, $2, $3, $4, $5, $6)`
	for _, p := range periods {
		if _, err := target.ExecContext(ctx, query, schoolID, p.PeriodIndex, p.Name, p.Short, p.StartTime, p.EndTime); err != nil {
			return fmt.Errorf("insert period %d: %w", p.PeriodIndex, err)
		}
	}
	return nil
}
