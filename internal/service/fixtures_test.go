package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-substitution-api/internal/models"
	"github.com/noah-isme/sma-substitution-api/internal/timetable"
)

const fixtureSchool = "school-1"

// tuesday is 2024-03-05.
var tuesday = time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

func intPtr(v int) *int { return &v }

func card(id, lessonID string, period int, mask string) models.Card {
	return models.Card{ID: id, SchoolID: fixtureSchool, LessonID: lessonID, PeriodIndex: period, DaysMask: timetable.MustParseDayMask(mask)}
}

// scenarioTimetable: X is absent from lesson L (Math, class 7-A) at period 3
// on Tuesday. A teaches Math to 7-A earlier that day, B teaches Math at the
// same period, G is a middle school counselor, H a high school counselor and
// Z only teaches on Mondays.
func scenarioTimetable() *models.TimetableStructure {
	periods := make([]models.Period, 0, 8)
	for i := 1; i <= 8; i++ {
		periods = append(periods, models.Period{SchoolID: fixtureSchool, PeriodIndex: i})
	}
	return &models.TimetableStructure{
		SchoolID: fixtureSchool,
		Teachers: []models.Teacher{
			{ID: "t-x", Name: "Xavier", Branch: "Mathematics"},
			{ID: "t-a", Name: "Ada", Branch: "Mathematics"},
			{ID: "t-b", Name: "Berk", Branch: "Mathematics"},
			{ID: "t-g", Name: "Gül", Branch: "Rehberlik", Grades: []string{"MIDDLE"}},
			{ID: "t-h", Name: "Hale", Branch: "PDR", Grades: []string{"HIGH"}},
			{ID: "t-z", Name: "Zeki", Branch: "Art"},
		},
		Subjects: []models.Subject{
			{ID: "math", SchoolID: fixtureSchool, Name: "Math"},
			{ID: "art", SchoolID: fixtureSchool, Name: "Art"},
		},
		Classes: []models.SchoolClass{
			{ID: "c-1", SchoolID: fixtureSchool, Name: "7-A", GradeIndex: intPtr(7)},
			{ID: "c-2", SchoolID: fixtureSchool, Name: "8-B"},
		},
		Lessons: []models.Lesson{
			{ID: "l-cover", SchoolID: fixtureSchool, SubjectID: "math", TeacherIDs: []string{"t-x"}, ClassIDs: []string{"c-1"}},
			{ID: "l-a", SchoolID: fixtureSchool, SubjectID: "math", TeacherIDs: []string{"t-a"}, ClassIDs: []string{"c-1"}},
			{ID: "l-b", SchoolID: fixtureSchool, SubjectID: "math", TeacherIDs: []string{"t-b"}, ClassIDs: []string{"c-2"}},
			{ID: "l-z", SchoolID: fixtureSchool, SubjectID: "art", TeacherIDs: []string{"t-z"}, ClassIDs: []string{"c-2"}},
		},
		Cards: []models.Card{
			card("card-cover", "l-cover", 3, "01000"),
			card("card-a", "l-a", 1, "01000"),
			card("card-b", "l-b", 3, "01100"),
			card("card-z", "l-z", 2, "10000"),
		},
		Periods: periods,
	}
}

type stubTimetableSource struct {
	structure *models.TimetableStructure
	err       error
	calls     int
	mu        sync.Mutex
}

func (s *stubTimetableSource) Structure(ctx context.Context, schoolID string) (*models.TimetableStructure, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.structure, nil
}

type stubCounters struct {
	substitutes []string
	today       []models.TeacherCount
	lifetime    []models.TeacherCount
	err         error
	calls       int
	mu          sync.Mutex
}

func (s *stubCounters) touch() {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
}

func (s *stubCounters) ListSubstitutesAt(ctx context.Context, schoolID string, date time.Time, periodIndex int) ([]string, error) {
	s.touch()
	return s.substitutes, s.err
}

func (s *stubCounters) CountAssignmentsOn(ctx context.Context, schoolID string, date time.Time) ([]models.TeacherCount, error) {
	s.touch()
	return s.today, s.err
}

func (s *stubCounters) CountLifetimeAssignments(ctx context.Context, schoolID string) ([]models.TeacherCount, error) {
	s.touch()
	return s.lifetime, s.err
}

func candidateIDs(t *testing.T, candidates []models.SubstituteCandidate) []string {
	t.Helper()
	ids := make([]string, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.TeacherID)
	}
	require.NotNil(t, ids)
	return ids
}
