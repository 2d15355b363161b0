package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-substitution-api/internal/models"
	"github.com/noah-isme/sma-substitution-api/internal/timetable"
	appErrors "github.com/noah-isme/sma-substitution-api/pkg/errors"
)

func newAvailability(source *stubTimetableSource, counters *stubCounters) *AvailabilityService {
	return NewAvailabilityService(source, counters, AvailabilityConfig{OperatingDays: 5}, nil)
}

func TestResolveBusyTeachersMatchesCards(t *testing.T) {
	source := &stubTimetableSource{structure: scenarioTimetable()}
	counters := &stubCounters{}
	svc := newAvailability(source, counters)

	busy, err := svc.ResolveBusyTeachers(context.Background(), fixtureSchool, tuesday, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"t-b", "t-x"}, busy.Sorted())

	busy, err = svc.ResolveBusyTeachers(context.Background(), fixtureSchool, tuesday, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"t-a"}, busy.Sorted())

	// Wednesday: only card-b runs, at period 3.
	busy, err = svc.ResolveBusyTeachers(context.Background(), fixtureSchool, tuesday.AddDate(0, 0, 1), 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"t-b"}, busy.Sorted())
}

func TestResolveBusyTeachersIncludesActiveSubstitutes(t *testing.T) {
	source := &stubTimetableSource{structure: scenarioTimetable()}
	counters := &stubCounters{substitutes: []string{"t-g"}}
	svc := newAvailability(source, counters)

	busy, err := svc.ResolveBusyTeachers(context.Background(), fixtureSchool, tuesday, 3)
	require.NoError(t, err)
	assert.True(t, busy.Has("t-g"))
}

func TestResolveBusyTeachersWeekendShortCircuits(t *testing.T) {
	source := &stubTimetableSource{err: errors.New("must not be called")}
	counters := &stubCounters{err: errors.New("must not be called")}
	svc := newAvailability(source, counters)

	for _, d := range []time.Time{tuesday.AddDate(0, 0, 4), tuesday.AddDate(0, 0, 5)} {
		busy, err := svc.ResolveBusyTeachers(context.Background(), fixtureSchool, d, 3)
		require.NoError(t, err)
		assert.Empty(t, busy)
	}
	assert.Zero(t, source.calls)
	assert.Zero(t, counters.calls)
}

func TestResolveBusyTeachersSevenDayWeek(t *testing.T) {
	structure := scenarioTimetable()
	structure.Cards = append(structure.Cards, card("card-sat", "l-a", 3, "0000010"))
	svc := NewAvailabilityService(&stubTimetableSource{structure: structure}, &stubCounters{}, AvailabilityConfig{OperatingDays: 7}, nil)

	saturday := tuesday.AddDate(0, 0, 4)
	require.Equal(t, timetable.Saturday, timetable.WeekdayOf(saturday))
	busy, err := svc.ResolveBusyTeachers(context.Background(), fixtureSchool, saturday, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"t-a"}, busy.Sorted())
}

func TestResolveBusyTeachersPropagatesStoreFailure(t *testing.T) {
	source := &stubTimetableSource{structure: scenarioTimetable()}
	counters := &stubCounters{err: errors.New("connection refused")}
	svc := newAvailability(source, counters)

	busy, err := svc.ResolveBusyTeachers(context.Background(), fixtureSchool, tuesday, 3)
	assert.Nil(t, busy)
	assert.True(t, appErrors.IsUpstreamUnavailable(err))
}

func TestResolveBusyTeachersRejectsBadPeriod(t *testing.T) {
	svc := newAvailability(&stubTimetableSource{}, &stubCounters{})
	_, err := svc.ResolveBusyTeachers(context.Background(), fixtureSchool, tuesday, 0)
	assert.True(t, appErrors.IsValidation(err))
}

func TestSnapshotCountsLoadAndAssignments(t *testing.T) {
	source := &stubTimetableSource{structure: scenarioTimetable()}
	counters := &stubCounters{
		today:    []models.TeacherCount{{TeacherID: "t-a", Count: 2}},
		lifetime: []models.TeacherCount{{TeacherID: "t-a", Count: 11}},
	}
	svc := newAvailability(source, counters)

	snap, err := svc.Snapshot(context.Background(), fixtureSchool, tuesday, 3)
	require.NoError(t, err)
	assert.True(t, snap.SchoolDay)
	assert.Equal(t, 8, snap.TotalPeriods)
	assert.Equal(t, 1, snap.DailyLoad["t-a"])
	assert.Equal(t, 0, snap.DailyLoad["t-z"])
	assert.Equal(t, 3, snap.Burden("t-a"))
	assert.Equal(t, 11, snap.LifetimeAssignments["t-a"])
	assert.Equal(t, 1, source.calls)
}

func TestSnapshotFallsBackToDefaultPeriods(t *testing.T) {
	structure := scenarioTimetable()
	structure.Periods = nil
	svc := NewAvailabilityService(&stubTimetableSource{structure: structure}, &stubCounters{}, AvailabilityConfig{DefaultPeriodsPerDay: 6}, nil)

	snap, err := svc.Snapshot(context.Background(), fixtureSchool, tuesday, 7)
	require.NoError(t, err)
	assert.Equal(t, 6, snap.TotalPeriods)
}

func TestSnapshotRejectsPeriodBeyondDay(t *testing.T) {
	svc := newAvailability(&stubTimetableSource{structure: scenarioTimetable()}, &stubCounters{})
	_, err := svc.Snapshot(context.Background(), fixtureSchool, tuesday, 9)
	assert.True(t, appErrors.IsValidation(err))
}
