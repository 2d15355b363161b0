package models

import "time"

// TeacherDaySlot is one lesson a teacher gives on a particular day.
type TeacherDaySlot struct {
	CardID      string   `json:"card_id"`
	LessonID    string   `json:"lesson_id"`
	PeriodIndex int      `json:"period_index"`
	PeriodName  string   `json:"period_name,omitempty"`
	StartTime   string   `json:"start_time,omitempty"`
	EndTime     string   `json:"end_time,omitempty"`
	SubjectName string   `json:"subject_name"`
	ClassNames  []string `json:"class_names"`
}

// TeacherDay is a teacher's timetable for one date along with any
// substitutions already arranged for their absence.
type TeacherDay struct {
	TeacherID     string           `json:"teacher_id"`
	TeacherName   string           `json:"teacher_name"`
	Date          time.Time        `json:"date"`
	Weekday       string           `json:"weekday"`
	SchoolDay     bool             `json:"school_day"`
	Slots         []TeacherDaySlot `json:"slots"`
	Substitutions []Substitution   `json:"substitutions"`
}
