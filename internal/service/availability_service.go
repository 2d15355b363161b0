package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/sma-substitution-api/internal/models"
	"github.com/noah-isme/sma-substitution-api/internal/timetable"
	appErrors "github.com/noah-isme/sma-substitution-api/pkg/errors"
)

type timetableSource interface {
	Structure(ctx context.Context, schoolID string) (*models.TimetableStructure, error)
}

type substitutionCounter interface {
	ListSubstitutesAt(ctx context.Context, schoolID string, date time.Time, periodIndex int) ([]string, error)
	CountAssignmentsOn(ctx context.Context, schoolID string, date time.Time) ([]models.TeacherCount, error)
	CountLifetimeAssignments(ctx context.Context, schoolID string) ([]models.TeacherCount, error)
}

// AvailabilityConfig governs which weekdays are school days and the capacity
// fallback for schools without period rows.
type AvailabilityConfig struct {
	OperatingDays        int
	DefaultPeriodsPerDay int
}

// AvailabilityService resolves who is busy at a (date, period) and the
// workload counters used for fair ranking.
type AvailabilityService struct {
	timetable timetableSource
	subs      substitutionCounter
	config    AvailabilityConfig
	logger    *zap.Logger
}

// NewAvailabilityService constructs an AvailabilityService.
func NewAvailabilityService(source timetableSource, subs substitutionCounter, cfg AvailabilityConfig, logger *zap.Logger) *AvailabilityService {
	if cfg.OperatingDays != timetable.DaysInWeek {
		cfg.OperatingDays = 5
	}
	if cfg.DefaultPeriodsPerDay <= 0 {
		cfg.DefaultPeriodsPerDay = 8
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityService{timetable: source, subs: subs, config: cfg, logger: logger}
}

// IsSchoolDay reports whether lessons can occur on the date.
func (s *AvailabilityService) IsSchoolDay(date time.Time) bool {
	return timetable.IsOperating(timetable.WeekdayOf(date), s.config.OperatingDays)
}

// ResolveBusyTeachers returns teachers teaching at the slot or already
// covering another absence at it. Non-school days short-circuit to an empty
// set without touching any store.
func (s *AvailabilityService) ResolveBusyTeachers(ctx context.Context, schoolID string, date time.Time, periodIndex int) (models.TeacherSet, error) {
	if periodIndex < 1 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "period must be 1 or greater")
	}
	day := timetable.WeekdayOf(date)
	if !timetable.IsOperating(day, s.config.OperatingDays) {
		return models.TeacherSet{}, nil
	}

	var (
		structure   *models.TimetableStructure
		substitutes []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		structure, err = s.timetable.Structure(gctx, schoolID)
		return err
	})
	g.Go(func() (err error) {
		substitutes, err = s.subs.ListSubstitutesAt(gctx, schoolID, date, periodIndex)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, s.storeFailure(err, schoolID, "failed to resolve busy teachers")
	}

	busy := busyAt(structure, day, periodIndex)
	busy.Add(substitutes...)
	return busy, nil
}

// Snapshot computes the busy set, daily load and assignment counters for one
// ranking in a single pass so every figure comes from the same reads.
func (s *AvailabilityService) Snapshot(ctx context.Context, schoolID string, date time.Time, periodIndex int) (*models.AvailabilitySnapshot, error) {
	if periodIndex < 1 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "period must be 1 or greater")
	}
	day := timetable.WeekdayOf(date)
	snap := &models.AvailabilitySnapshot{
		SchoolID:            schoolID,
		Date:                date,
		Weekday:             day,
		PeriodIndex:         periodIndex,
		SchoolDay:           timetable.IsOperating(day, s.config.OperatingDays),
		Busy:                models.TeacherSet{},
		DailyLoad:           map[string]int{},
		AssignmentsToday:    map[string]int{},
		LifetimeAssignments: map[string]int{},
	}
	if !snap.SchoolDay {
		return snap, nil
	}

	var (
		structure   *models.TimetableStructure
		substitutes []string
		today       []models.TeacherCount
		lifetime    []models.TeacherCount
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		structure, err = s.timetable.Structure(gctx, schoolID)
		return err
	})
	g.Go(func() (err error) {
		substitutes, err = s.subs.ListSubstitutesAt(gctx, schoolID, date, periodIndex)
		return err
	})
	g.Go(func() (err error) {
		today, err = s.subs.CountAssignmentsOn(gctx, schoolID, date)
		return err
	})
	g.Go(func() (err error) {
		lifetime, err = s.subs.CountLifetimeAssignments(gctx, schoolID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, s.storeFailure(err, schoolID, "failed to load availability")
	}

	snap.Timetable = structure
	snap.TotalPeriods = len(structure.Periods)
	if snap.TotalPeriods == 0 {
		snap.TotalPeriods = s.config.DefaultPeriodsPerDay
	} else if periodIndex > snap.TotalPeriods {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("period %d exceeds the %d periods of the school day", periodIndex, snap.TotalPeriods))
	}

	snap.Busy = busyAt(structure, day, periodIndex)
	snap.Busy.Add(substitutes...)
	snap.DailyLoad = dailyLoad(structure, day)
	for _, c := range today {
		snap.AssignmentsToday[c.TeacherID] = c.Count
	}
	for _, c := range lifetime {
		snap.LifetimeAssignments[c.TeacherID] = c.Count
	}
	return snap, nil
}

func (s *AvailabilityService) storeFailure(err error, schoolID, message string) error {
	if appErrors.IsUpstreamUnavailable(err) {
		return err
	}
	s.logger.Error(message, zap.String("school_id", schoolID), zap.Error(err))
	return appErrors.Upstream(err, message)
}

// busyAt collects every teacher on a lesson whose card runs at the period on day.
func busyAt(structure *models.TimetableStructure, day timetable.Weekday, periodIndex int) models.TeacherSet {
	busy := models.TeacherSet{}
	lessons := structure.LessonByID()
	for _, card := range structure.Cards {
		if card.PeriodIndex != periodIndex || !timetable.OccursOn(card, day) {
			continue
		}
		if lesson, ok := lessons[card.LessonID]; ok {
			busy.Add(lesson.TeacherIDs...)
		}
	}
	return busy
}

// dailyLoad counts the cards each teacher gives on day.
func dailyLoad(structure *models.TimetableStructure, day timetable.Weekday) map[string]int {
	load := map[string]int{}
	lessons := structure.LessonByID()
	for _, card := range structure.Cards {
		if !timetable.OccursOn(card, day) {
			continue
		}
		lesson, ok := lessons[card.LessonID]
		if !ok {
			continue
		}
		for _, teacherID := range lesson.TeacherIDs {
			load[teacherID]++
		}
	}
	return load
}
