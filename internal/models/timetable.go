package models

import (
	"time"

	"github.com/lib/pq"

	"github.com/noah-isme/sma-substitution-api/internal/timetable"
)

// Subject is a taught subject.
type Subject struct {
	ID       string `db:"id" json:"id"`
	SchoolID string `db:"school_id" json:"school_id"`
	Name     string `db:"name" json:"name"`
	Short    string `db:"short" json:"short,omitempty"`
}

// SchoolClass is a class group. GradeIndex is optional; when absent the
// education level is inferred from the name.
type SchoolClass struct {
	ID         string `db:"id" json:"id"`
	SchoolID   string `db:"school_id" json:"school_id"`
	Name       string `db:"name" json:"name"`
	Short      string `db:"short" json:"short,omitempty"`
	GradeIndex *int   `db:"grade_index" json:"grade_index,omitempty"`
}

// Lesson is a recurring teaching assignment independent of dates.
type Lesson struct {
	ID             string         `db:"id" json:"id"`
	SchoolID       string         `db:"school_id" json:"school_id"`
	SubjectID      string         `db:"subject_id" json:"subject_id"`
	PeriodsPerWeek float64        `db:"periods_per_week" json:"periods_per_week"`
	TeacherIDs     pq.StringArray `db:"teacher_ids" json:"teacher_ids"`
	ClassIDs       pq.StringArray `db:"class_ids" json:"class_ids"`
}

// Card is a weekly slot of a lesson.
type Card struct {
	ID          string            `db:"id" json:"id"`
	SchoolID    string            `db:"school_id" json:"school_id"`
	LessonID    string            `db:"lesson_id" json:"lesson_id"`
	PeriodIndex int               `db:"period_index" json:"period_index"`
	DaysMask    timetable.DayMask `db:"days_mask" json:"days_mask"`
}

// Days exposes the weekly mask to the occurrence rule.
func (c Card) Days() timetable.DayMask { return c.DaysMask }

// Period is one teaching period of the school day.
type Period struct {
	SchoolID    string `db:"school_id" json:"school_id"`
	PeriodIndex int    `db:"period_index" json:"period_index"`
	Name        string `db:"name" json:"name"`
	Short       string `db:"short" json:"short,omitempty"`
	StartTime   string `db:"start_time" json:"start_time,omitempty"`
	EndTime     string `db:"end_time" json:"end_time,omitempty"`
}

// LessonContext is a lesson with the subject and classes needed for scoring.
type LessonContext struct {
	Lesson  Lesson        `json:"lesson"`
	Subject *Subject      `json:"subject,omitempty"`
	Classes []SchoolClass `json:"classes"`
}

// TimetableStructure is the static weekly timetable of one school. It only
// changes on import or administrative edits and is safe to cache.
type TimetableStructure struct {
	SchoolID string        `json:"school_id"`
	Teachers []Teacher     `json:"teachers"`
	Subjects []Subject     `json:"subjects"`
	Classes  []SchoolClass `json:"classes"`
	Lessons  []Lesson      `json:"lessons"`
	Cards    []Card        `json:"cards"`
	Periods  []Period      `json:"periods"`
	LoadedAt time.Time     `json:"loaded_at"`
}

// LessonByID indexes lessons by id.
func (s *TimetableStructure) LessonByID() map[string]*Lesson {
	out := make(map[string]*Lesson, len(s.Lessons))
	for i := range s.Lessons {
		out[s.Lessons[i].ID] = &s.Lessons[i]
	}
	return out
}

// ClassByID indexes classes by id.
func (s *TimetableStructure) ClassByID() map[string]*SchoolClass {
	out := make(map[string]*SchoolClass, len(s.Classes))
	for i := range s.Classes {
		out[s.Classes[i].ID] = &s.Classes[i]
	}
	return out
}

// SubjectByID indexes subjects by id.
func (s *TimetableStructure) SubjectByID() map[string]*Subject {
	out := make(map[string]*Subject, len(s.Subjects))
	for i := range s.Subjects {
		out[s.Subjects[i].ID] = &s.Subjects[i]
	}
	return out
}

// PeriodByIndex indexes periods by their 1-based index.
func (s *TimetableStructure) PeriodByIndex() map[int]*Period {
	out := make(map[int]*Period, len(s.Periods))
	for i := range s.Periods {
		out[s.Periods[i].PeriodIndex] = &s.Periods[i]
	}
	return out
}

// TimetableImport is a normalised weekly timetable submitted by the import
// collaborator. It replaces the school's lessons, cards and periods.
type TimetableImport struct {
	Teachers []ImportTeacher `json:"teachers" validate:"dive"`
	Subjects []ImportSubject `json:"subjects" validate:"dive"`
	Classes  []ImportClass   `json:"classes" validate:"dive"`
	Lessons  []ImportLesson  `json:"lessons" validate:"dive"`
	Cards    []ImportCard    `json:"cards" validate:"dive"`
	Periods  []ImportPeriod  `json:"periods" validate:"dive"`
}

// ImportTeacher upserts a teacher by id. Branch and grades are only written
// for new teachers so administrative edits survive re-imports.
type ImportTeacher struct {
	ID     string   `json:"id" validate:"required"`
	Name   string   `json:"name" validate:"required"`
	Short  string   `json:"short"`
	Branch string   `json:"branch"`
	Grades []string `json:"grades" validate:"dive,oneof=PRESCHOOL PRIMARY MIDDLE HIGH"`
}

// ImportSubject upserts a subject by id.
type ImportSubject struct {
	ID    string `json:"id" validate:"required"`
	Name  string `json:"name" validate:"required"`
	Short string `json:"short"`
}

// ImportClass upserts a class by id.
type ImportClass struct {
	ID         string `json:"id" validate:"required"`
	Name       string `json:"name" validate:"required"`
	Short      string `json:"short"`
	GradeIndex *int   `json:"grade_index" validate:"omitempty,min=0,max=12"`
}

// ImportLesson is inserted fresh on every import.
type ImportLesson struct {
	ID             string   `json:"id" validate:"required"`
	SubjectID      string   `json:"subject_id" validate:"required"`
	TeacherIDs     []string `json:"teacher_ids" validate:"required,min=1"`
	ClassIDs       []string `json:"class_ids" validate:"required,min=1"`
	PeriodsPerWeek float64  `json:"periods_per_week" validate:"min=0"`
}

// ImportCard is a weekly slot. DaysMask is a 5 or 7 character 0/1 string.
type ImportCard struct {
	ID          string `json:"id"`
	LessonID    string `json:"lesson_id" validate:"required"`
	PeriodIndex int    `json:"period_index" validate:"required,min=1"`
	DaysMask    string `json:"days_mask" validate:"required"`
}

// ImportPeriod describes one period of the school day.
type ImportPeriod struct {
	PeriodIndex int    `json:"period_index" validate:"required,min=1"`
	Name        string `json:"name"`
	Short       string `json:"short"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
}

// ImportReferences lists the dimension ids a school already has. Lessons of
// an import may point at them without repeating the records.
type ImportReferences struct {
	TeacherIDs []string
	SubjectIDs []string
	ClassIDs   []string
}

// TimetableImportResult summarises a replace.
type TimetableImportResult struct {
	Teachers              int `json:"teachers"`
	Subjects              int `json:"subjects"`
	Classes               int `json:"classes"`
	Lessons               int `json:"lessons"`
	Cards                 int `json:"cards"`
	Periods               int `json:"periods"`
	DetachedSubstitutions int `json:"detached_substitutions"`
}
