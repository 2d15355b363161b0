package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-substitution-api/internal/models"
	"github.com/noah-isme/sma-substitution-api/internal/timetable"
	appErrors "github.com/noah-isme/sma-substitution-api/pkg/errors"
)

type stubTimetableReader struct {
	structure *models.TimetableStructure
	cardsErr  error
	mu        sync.Mutex
	calls     int
}

func (s *stubTimetableReader) touch() {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
}

func (s *stubTimetableReader) ListSubjects(ctx context.Context, schoolID string) ([]models.Subject, error) {
	s.touch()
	return s.structure.Subjects, nil
}

func (s *stubTimetableReader) ListClasses(ctx context.Context, schoolID string) ([]models.SchoolClass, error) {
	s.touch()
	return s.structure.Classes, nil
}

func (s *stubTimetableReader) ListLessons(ctx context.Context, schoolID string) ([]models.Lesson, error) {
	s.touch()
	return s.structure.Lessons, nil
}

func (s *stubTimetableReader) ListCards(ctx context.Context, schoolID string) ([]models.Card, error) {
	s.touch()
	return s.structure.Cards, s.cardsErr
}

func (s *stubTimetableReader) ListPeriods(ctx context.Context, schoolID string) ([]models.Period, error) {
	s.touch()
	return s.structure.Periods, nil
}

func (s *stubTimetableReader) ListBySchool(ctx context.Context, schoolID string) ([]models.Teacher, error) {
	s.touch()
	return s.structure.Teachers, nil
}

func TestTimetableStructureReadsThroughCache(t *testing.T) {
	reader := &stubTimetableReader{structure: scenarioTimetable()}
	cache := NewCacheService(newMemoryCacheRepo(), nil, time.Minute, nil, true)
	svc := NewTimetableService(reader, reader, cache, time.Minute, nil, nil)
	ctx := context.Background()

	first, err := svc.Structure(ctx, fixtureSchool)
	require.NoError(t, err)
	assert.Len(t, first.Cards, 4)
	assert.Equal(t, 6, reader.calls)

	second, err := svc.Structure(ctx, fixtureSchool)
	require.NoError(t, err)
	assert.Equal(t, 6, reader.calls)
	assert.Equal(t, timetable.MustParseDayMask("01100"), second.Cards[2].DaysMask)
	assert.Equal(t, []string{"MIDDLE"}, []string(second.Teachers[3].Grades))
	assert.Equal(t, 7, *second.Classes[0].GradeIndex)

	svc.Invalidate(ctx, fixtureSchool)
	_, err = svc.Structure(ctx, fixtureSchool)
	require.NoError(t, err)
	assert.Equal(t, 12, reader.calls)
}

func TestTimetableStructureFailureIsUpstreamAndNotCached(t *testing.T) {
	reader := &stubTimetableReader{structure: scenarioTimetable(), cardsErr: errors.New("timeout")}
	repo := newMemoryCacheRepo()
	svc := NewTimetableService(reader, reader, NewCacheService(repo, nil, time.Minute, nil, true), time.Minute, nil, nil)

	_, err := svc.Structure(context.Background(), fixtureSchool)
	require.Error(t, err)
	assert.True(t, appErrors.IsUpstreamUnavailable(err))
	assert.Empty(t, repo.items)
}

func TestTimetableStructureWithoutCache(t *testing.T) {
	reader := &stubTimetableReader{structure: scenarioTimetable()}
	svc := NewTimetableService(reader, reader, nil, 0, nil, nil)

	for i := 0; i < 2; i++ {
		_, err := svc.Structure(context.Background(), fixtureSchool)
		require.NoError(t, err)
	}
	assert.Equal(t, 12, reader.calls)
}
