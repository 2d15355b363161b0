package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-substitution-api/internal/models"
	appErrors "github.com/noah-isme/sma-substitution-api/pkg/errors"
)

func TestTeacherDayListsLessonsAndCover(t *testing.T) {
	structure := scenarioTimetable()
	structure.Periods[2].Name = "3. Ders"
	store := newMemorySubstitutionStore()
	require.NoError(t, store.Create(context.Background(), &models.Substitution{
		SchoolID:          fixtureSchool,
		Date:              tuesday,
		PeriodIndex:       3,
		OriginalTeacherID: "t-b",
		Status:            models.SubstitutionApproved,
	}))
	svc := NewScheduleService(&stubTimetableSource{structure: structure}, store, 5, nil)

	day, err := svc.TeacherDay(context.Background(), fixtureSchool, "t-b", tuesday)
	require.NoError(t, err)
	assert.True(t, day.SchoolDay)
	assert.Equal(t, "Tuesday", day.Weekday)
	require.Len(t, day.Slots, 1)
	assert.Equal(t, "card-b", day.Slots[0].CardID)
	assert.Equal(t, "Math", day.Slots[0].SubjectName)
	assert.Equal(t, []string{"8-B"}, day.Slots[0].ClassNames)
	assert.Equal(t, "3. Ders", day.Slots[0].PeriodName)
	assert.Len(t, day.Substitutions, 1)
}

func TestTeacherDayOnWeekend(t *testing.T) {
	svc := NewScheduleService(&stubTimetableSource{structure: scenarioTimetable()}, newMemorySubstitutionStore(), 5, nil)
	saturday := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)

	day, err := svc.TeacherDay(context.Background(), fixtureSchool, "t-a", saturday)
	require.NoError(t, err)
	assert.False(t, day.SchoolDay)
	assert.Empty(t, day.Slots)
	assert.NotNil(t, day.Substitutions)
}

func TestTeacherDayErrors(t *testing.T) {
	svc := NewScheduleService(&stubTimetableSource{structure: scenarioTimetable()}, newMemorySubstitutionStore(), 5, nil)
	_, err := svc.TeacherDay(context.Background(), fixtureSchool, "t-missing", tuesday)
	assert.True(t, appErrors.IsNotFound(err))

	failing := &stubTimetableSource{err: appErrors.Upstream(errors.New("down"), "failed to load timetable")}
	svc = NewScheduleService(failing, newMemorySubstitutionStore(), 5, nil)
	_, err = svc.TeacherDay(context.Background(), fixtureSchool, "t-a", tuesday)
	assert.True(t, appErrors.IsUpstreamUnavailable(err))
}
