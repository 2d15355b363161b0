package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-substitution-api/internal/models"
)

const lessonSelect = `SELECT l.id, l.school_id, l.subject_id, l.periods_per_week,
    ARRAY(SELECT lt.teacher_id FROM timetable_lesson_teachers lt WHERE lt.lesson_id = l.id ORDER BY lt.teacher_id) AS teacher_ids,
    ARRAY(SELECT lc.class_id FROM timetable_lesson_classes lc WHERE lc.lesson_id = l.id ORDER BY lc.class_id) AS class_ids
FROM timetable_lessons l`

// TimetableRepository reads the imported weekly timetable.
type TimetableRepository struct {
	db *sqlx.DB
}

// NewTimetableRepository constructs a TimetableRepository.
func NewTimetableRepository(db *sqlx.DB) *TimetableRepository {
	return &TimetableRepository{db: db}
}

// ListLessons returns lessons with their teacher and class id sets.
func (r *TimetableRepository) ListLessons(ctx context.Context, schoolID string) ([]models.Lesson, error) {
	query := lessonSelect + ` WHERE l.school_id = $1 ORDER BY l.id ASC`
	var lessons []models.Lesson
	if err := r.db.SelectContext(ctx, &lessons, query, schoolID); err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	return lessons, nil
}

// FindLesson fetches one lesson of a school.
func (r *TimetableRepository) FindLesson(ctx context.Context, schoolID, lessonID string) (*models.Lesson, error) {
	query := lessonSelect + ` WHERE l.school_id = $1 AND l.id = $2`
	var lesson models.Lesson
	if err := r.db.GetContext(ctx, &lesson, query, schoolID, lessonID); err != nil {
		return nil, err
	}
	return &lesson, nil
}

// FindLessonContext loads a lesson with its subject and classes. A missing
// subject row yields a nil Subject rather than an error.
func (r *TimetableRepository) FindLessonContext(ctx context.Context, schoolID, lessonID string) (*models.LessonContext, error) {
	lesson, err := r.FindLesson(ctx, schoolID, lessonID)
	if err != nil {
		return nil, err
	}

	result := &models.LessonContext{Lesson: *lesson}

	const subjectQuery = `SELECT id, school_id, name, short FROM timetable_subjects WHERE id = $1`
	var subject models.Subject
	switch err := r.db.GetContext(ctx, &subject, subjectQuery, lesson.SubjectID); {
	case err == nil:
		result.Subject = &subject
	case errors.Is(err, sql.ErrNoRows):
	default:
		return nil, fmt.Errorf("load lesson subject: %w", err)
	}

	if len(lesson.ClassIDs) > 0 {
		const classQuery = `SELECT id, school_id, name, short, grade_index FROM timetable_classes WHERE id = ANY($1) ORDER BY name ASC`
		if err := r.db.SelectContext(ctx, &result.Classes, classQuery, pq.Array([]string(lesson.ClassIDs))); err != nil {
			return nil, fmt.Errorf("load lesson classes: %w", err)
		}
	}
	return result, nil
}

// ListSubjects returns the school's subjects.
func (r *TimetableRepository) ListSubjects(ctx context.Context, schoolID string) ([]models.Subject, error) {
	const query = `SELECT id, school_id, name, short FROM timetable_subjects WHERE school_id = $1 ORDER BY name ASC`
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query, schoolID); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return subjects, nil
}

// ListClasses returns the school's classes.
func (r *TimetableRepository) ListClasses(ctx context.Context, schoolID string) ([]models.SchoolClass, error) {
	const query = `SELECT id, school_id, name, short, grade_index FROM timetable_classes WHERE school_id = $1 ORDER BY name ASC`
	var classes []models.SchoolClass
	if err := r.db.SelectContext(ctx, &classes, query, schoolID); err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	return classes, nil
}

// ListCards returns every weekly slot of the school.
func (r *TimetableRepository) ListCards(ctx context.Context, schoolID string) ([]models.Card, error) {
	const query = `SELECT id, school_id, lesson_id, period_index, days_mask FROM timetable_cards WHERE school_id = $1 ORDER BY period_index ASC, id ASC`
	var cards []models.Card
	if err := r.db.SelectContext(ctx, &cards, query, schoolID); err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	return cards, nil
}

// ListPeriods returns the periods of the school day.
func (r *TimetableRepository) ListPeriods(ctx context.Context, schoolID string) ([]models.Period, error) {
	const query = `SELECT school_id, period_index, name, short, start_time, end_time FROM timetable_periods WHERE school_id = $1 ORDER BY period_index ASC`
	var periods []models.Period
	if err := r.db.SelectContext(ctx, &periods, query, schoolID); err != nil {
		return nil, fmt.Errorf("list periods: %w", err)
	}
	return periods, nil
}
