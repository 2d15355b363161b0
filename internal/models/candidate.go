package models

import (
	"sort"
	"time"

	"github.com/noah-isme/sma-substitution-api/internal/timetable"
)

// TeacherSet is a set of teacher ids.
type TeacherSet map[string]struct{}

// Add inserts ids.
func (s TeacherSet) Add(ids ...string) {
	for _, id := range ids {
		s[id] = struct{}{}
	}
}

// Has reports membership.
func (s TeacherSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the ids in ascending order.
func (s TeacherSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// AvailabilitySnapshot is the busy set and workload counters for one
// (school, date, period), computed once per request.
type AvailabilitySnapshot struct {
	SchoolID            string            `json:"school_id"`
	Date                time.Time         `json:"date"`
	Weekday             timetable.Weekday `json:"weekday"`
	PeriodIndex         int               `json:"period_index"`
	SchoolDay           bool              `json:"school_day"`
	TotalPeriods        int               `json:"total_periods"`
	Busy                TeacherSet        `json:"-"`
	DailyLoad           map[string]int    `json:"-"`
	AssignmentsToday    map[string]int    `json:"-"`
	LifetimeAssignments map[string]int    `json:"-"`

	// Timetable is the structure the snapshot was computed from. Nil on
	// non-school days.
	Timetable *TimetableStructure `json:"-"`
}

// Burden is a teacher's scheduled periods plus cover assignments that day.
func (s *AvailabilitySnapshot) Burden(teacherID string) int {
	return s.DailyLoad[teacherID] + s.AssignmentsToday[teacherID]
}

// BusyTeachers is the public view of a busy set.
type BusyTeachers struct {
	SchoolID    string    `json:"school_id"`
	Date        string    `json:"date"`
	Weekday     string    `json:"weekday"`
	PeriodIndex int       `json:"period_index"`
	SchoolDay   bool      `json:"school_day"`
	TeacherIDs  []string  `json:"teacher_ids"`
	ResolvedAt  time.Time `json:"resolved_at"`
}

// SubstituteCandidate is one ranked teacher able to cover a slot.
type SubstituteCandidate struct {
	TeacherID           string   `json:"teacher_id"`
	Name                string   `json:"name"`
	Branch              string   `json:"branch"`
	Score               int      `json:"score"`
	Reasons             []string `json:"reasons"`
	DailyLoad           int      `json:"daily_load"`
	AssignmentsToday    int      `json:"assignments_today"`
	LifetimeAssignments int      `json:"lifetime_assignments"`
	IsGuidance          bool     `json:"is_guidance"`
	IsSuperMatch        bool     `json:"is_super_match"`
}
