package models

import "time"

// ExtraTaskType is a paid non-teaching duty.
type ExtraTaskType string

const (
	TaskDuty          ExtraTaskType = "duty"
	TaskEveningStudy  ExtraTaskType = "evening_study"
	TaskSaturdayStudy ExtraTaskType = "saturday_study"
)

// FeeCategory maps the task to its payroll rate.
func (t ExtraTaskType) FeeCategory() FeeCategory {
	return FeeCategory(t)
}

// ExtraTask is a paid duty with a fee snapshot taken at creation.
type ExtraTask struct {
	ID          string        `db:"id" json:"id"`
	SchoolID    string        `db:"school_id" json:"school_id"`
	TeacherID   string        `db:"teacher_id" json:"teacher_id"`
	TeacherName string        `db:"teacher_name" json:"teacher_name"`
	TaskType    ExtraTaskType `db:"task_type" json:"task_type"`
	Date        time.Time     `db:"date" json:"date"`
	Amount      int64         `db:"amount" json:"amount"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
}

// CreateExtraTaskRequest records a duty for a teacher.
type CreateExtraTaskRequest struct {
	SchoolID  string        `json:"-"`
	TeacherID string        `json:"teacher_id" validate:"required"`
	TaskType  ExtraTaskType `json:"task_type" validate:"required,oneof=duty evening_study saturday_study"`
	Date      string        `json:"date" validate:"required,datetime=2006-01-02"`
}

// ExtraTaskFilter narrows extra task listings.
type ExtraTaskFilter struct {
	SchoolID  string
	Date      *time.Time
	TeacherID string
}
