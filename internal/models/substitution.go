package models

import "time"

// SubstitutionStatus is the lifecycle state of a substitution.
type SubstitutionStatus string

const (
	SubstitutionApproved  SubstitutionStatus = "approved"
	SubstitutionCancelled SubstitutionStatus = "cancelled"
)

// ExcuseCategory records why the original teacher is absent.
type ExcuseCategory string

const (
	ExcuseSickLeave      ExcuseCategory = "sick_leave"
	ExcuseAdministrative ExcuseCategory = "administrative_leave"
	ExcuseAbsent         ExcuseCategory = "absent"
)

// Substitution is a committed cover assignment. Amount is the fee snapshot
// in minor currency units taken at creation. Subject, class and period names
// are denormalised so the record survives timetable rebuilds.
type Substitution struct {
	ID                    string             `db:"id" json:"id"`
	SchoolID              string             `db:"school_id" json:"school_id"`
	Date                  time.Time          `db:"date" json:"date"`
	PeriodIndex           int                `db:"period_index" json:"period_index"`
	PeriodName            string             `db:"period_name" json:"period_name"`
	OriginalTeacherID     string             `db:"original_teacher_id" json:"original_teacher_id"`
	OriginalTeacherName   string             `db:"original_teacher_name" json:"original_teacher_name"`
	SubstituteTeacherID   *string            `db:"substitute_teacher_id" json:"substitute_teacher_id,omitempty"`
	SubstituteTeacherName *string            `db:"substitute_teacher_name" json:"substitute_teacher_name,omitempty"`
	LessonID              *string            `db:"lesson_id" json:"lesson_id,omitempty"`
	SubjectName           string             `db:"subject_name" json:"subject_name"`
	ClassNames            string             `db:"class_names" json:"class_names"`
	Amount                int64              `db:"amount" json:"amount"`
	Status                SubstitutionStatus `db:"status" json:"status"`
	Reason                ExcuseCategory     `db:"reason" json:"reason"`
	CreatedAt             time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time          `db:"updated_at" json:"updated_at"`
}

// SubstitutionFilter narrows substitution listings.
type SubstitutionFilter struct {
	SchoolID            string
	Date                *time.Time
	OriginalTeacherID   string
	SubstituteTeacherID string
	Status              SubstitutionStatus
}

// CreateSubstitutionRequest commits a substitute for one absent slot.
type CreateSubstitutionRequest struct {
	SchoolID            string         `json:"-"`
	Date                string         `json:"date" validate:"required,datetime=2006-01-02"`
	PeriodIndex         int            `json:"period_index" validate:"required,min=1"`
	OriginalTeacherID   string         `json:"original_teacher_id" validate:"required"`
	SubstituteTeacherID *string        `json:"substitute_teacher_id" validate:"omitempty,min=1"`
	LessonID            *string        `json:"lesson_id" validate:"omitempty,min=1"`
	Reason              ExcuseCategory `json:"reason" validate:"required,oneof=sick_leave administrative_leave absent"`
}

// TeacherCount is a per-teacher aggregate.
type TeacherCount struct {
	TeacherID string `db:"teacher_id" json:"teacher_id"`
	Count     int    `db:"count" json:"count"`
}
