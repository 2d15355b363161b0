package models

import (
	"time"

	"github.com/lib/pq"
)

// Teacher represents a staff member imported from the school timetable.
type Teacher struct {
	ID        string         `db:"id" json:"id"`
	SchoolID  string         `db:"school_id" json:"school_id"`
	Name      string         `db:"name" json:"name"`
	Short     string         `db:"short" json:"short,omitempty"`
	Branch    string         `db:"branch" json:"branch"`
	Grades    pq.StringArray `db:"grades" json:"grades"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}

// UpdateTeacherProfileRequest is the administrative edit of a teacher's
// branch and education level tags.
type UpdateTeacherProfileRequest struct {
	Branch string   `json:"branch" validate:"max=120"`
	Grades []string `json:"grades" validate:"dive,oneof=PRESCHOOL PRIMARY MIDDLE HIGH"`
}
