package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/sma-substitution-api/internal/models"
	appErrors "github.com/noah-isme/sma-substitution-api/pkg/errors"
)

const timetableCachePrefix = "timetable:structure:"

type timetableReader interface {
	ListSubjects(ctx context.Context, schoolID string) ([]models.Subject, error)
	ListClasses(ctx context.Context, schoolID string) ([]models.SchoolClass, error)
	ListLessons(ctx context.Context, schoolID string) ([]models.Lesson, error)
	ListCards(ctx context.Context, schoolID string) ([]models.Card, error)
	ListPeriods(ctx context.Context, schoolID string) ([]models.Period, error)
}

type teacherLister interface {
	ListBySchool(ctx context.Context, schoolID string) ([]models.Teacher, error)
}

// TimetableService serves the static weekly timetable of a school, read
// through the Redis cache.
type TimetableService struct {
	timetable timetableReader
	teachers  teacherLister
	cache     *CacheService
	ttl       time.Duration
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewTimetableService constructs a TimetableService. cache and metrics may be nil.
func NewTimetableService(timetable timetableReader, teachers teacherLister, cache *CacheService, ttl time.Duration, metrics *MetricsService, logger *zap.Logger) *TimetableService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableService{timetable: timetable, teachers: teachers, cache: cache, ttl: ttl, metrics: metrics, logger: logger}
}

func timetableCacheKey(schoolID string) string {
	return timetableCachePrefix + schoolID
}

// Structure returns the school's timetable. Store failures surface as
// UpstreamUnavailable and are never cached.
func (s *TimetableService) Structure(ctx context.Context, schoolID string) (*models.TimetableStructure, error) {
	key := timetableCacheKey(schoolID)
	var cached models.TimetableStructure
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	start := time.Now()
	structure := &models.TimetableStructure{SchoolID: schoolID}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		structure.Teachers, err = s.teachers.ListBySchool(gctx, schoolID)
		return err
	})
	g.Go(func() (err error) {
		structure.Subjects, err = s.timetable.ListSubjects(gctx, schoolID)
		return err
	})
	g.Go(func() (err error) {
		structure.Classes, err = s.timetable.ListClasses(gctx, schoolID)
		return err
	})
	g.Go(func() (err error) {
		structure.Lessons, err = s.timetable.ListLessons(gctx, schoolID)
		return err
	})
	g.Go(func() (err error) {
		structure.Cards, err = s.timetable.ListCards(gctx, schoolID)
		return err
	})
	g.Go(func() (err error) {
		structure.Periods, err = s.timetable.ListPeriods(gctx, schoolID)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("load timetable failed", zap.String("school_id", schoolID), zap.Error(err))
		return nil, appErrors.Upstream(err, "failed to load timetable")
	}
	s.metrics.ObserveDBQuery("timetable_structure", time.Since(start))
	structure.LoadedAt = time.Now().UTC()

	s.cache.Set(ctx, key, structure, s.ttl)
	return structure, nil
}

// Invalidate drops the cached timetable of a school.
func (s *TimetableService) Invalidate(ctx context.Context, schoolID string) {
	s.cache.Invalidate(ctx, timetableCacheKey(schoolID))
}
