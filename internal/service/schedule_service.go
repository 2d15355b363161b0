package service

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/sma-substitution-api/internal/models"
	"github.com/noah-isme/sma-substitution-api/internal/timetable"
	appErrors "github.com/noah-isme/sma-substitution-api/pkg/errors"
)

type substitutionLister interface {
	List(ctx context.Context, filter models.SubstitutionFilter) ([]models.Substitution, error)
}

// ScheduleService answers what a teacher teaches on a given date, which is
// the starting point for arranging cover.
type ScheduleService struct {
	timetable     timetableSource
	subs          substitutionLister
	operatingDays int
	logger        *zap.Logger
}

// NewScheduleService constructs a ScheduleService.
func NewScheduleService(source timetableSource, subs substitutionLister, operatingDays int, logger *zap.Logger) *ScheduleService {
	if operatingDays != timetable.DaysInWeek {
		operatingDays = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{timetable: source, subs: subs, operatingDays: operatingDays, logger: logger}
}

// TeacherDay lists the teacher's lessons on the date ordered by period, with
// the live substitutions covering them.
func (s *ScheduleService) TeacherDay(ctx context.Context, schoolID, teacherID string, date time.Time) (*models.TeacherDay, error) {
	var (
		structure *models.TimetableStructure
		subs      []models.Substitution
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		structure, err = s.timetable.Structure(gctx, schoolID)
		return err
	})
	g.Go(func() (err error) {
		subs, err = s.subs.List(gctx, models.SubstitutionFilter{
			SchoolID:          schoolID,
			Date:              &date,
			OriginalTeacherID: teacherID,
			Status:            models.SubstitutionApproved,
		})
		return err
	})
	if err := g.Wait(); err != nil {
		if appErrors.FromError(err).Code != appErrors.ErrInternal.Code {
			return nil, err
		}
		s.logger.Error("load teacher day failed", zap.String("teacher_id", teacherID), zap.Error(err))
		return nil, appErrors.Upstream(err, "failed to load teacher day")
	}

	var teacher *models.Teacher
	for i := range structure.Teachers {
		if structure.Teachers[i].ID == teacherID {
			teacher = &structure.Teachers[i]
			break
		}
	}
	if teacher == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
	}

	day := timetable.WeekdayOf(date)
	result := &models.TeacherDay{
		TeacherID:     teacher.ID,
		TeacherName:   teacher.Name,
		Date:          date,
		Weekday:       day.String(),
		SchoolDay:     timetable.IsOperating(day, s.operatingDays),
		Slots:         []models.TeacherDaySlot{},
		Substitutions: subs,
	}
	if result.Substitutions == nil {
		result.Substitutions = []models.Substitution{}
	}
	if !result.SchoolDay {
		return result, nil
	}

	lessons := structure.LessonByID()
	subjects := structure.SubjectByID()
	classes := structure.ClassByID()
	periods := structure.PeriodByIndex()
	for _, card := range structure.Cards {
		lesson, ok := lessons[card.LessonID]
		if !ok || !containsString(lesson.TeacherIDs, teacherID) || !timetable.OccursOn(card, day) {
			continue
		}
		slot := models.TeacherDaySlot{
			CardID:      card.ID,
			LessonID:    lesson.ID,
			PeriodIndex: card.PeriodIndex,
			ClassNames:  []string{},
		}
		if subject, ok := subjects[lesson.SubjectID]; ok {
			slot.SubjectName = subject.Name
		}
		for _, classID := range lesson.ClassIDs {
			if class, ok := classes[classID]; ok {
				slot.ClassNames = append(slot.ClassNames, class.Name)
			}
		}
		if period, ok := periods[card.PeriodIndex]; ok {
			slot.PeriodName = period.Name
			slot.StartTime = period.StartTime
			slot.EndTime = period.EndTime
		}
		result.Slots = append(result.Slots, slot)
	}
	sort.SliceStable(result.Slots, func(i, j int) bool {
		return result.Slots[i].PeriodIndex < result.Slots[j].PeriodIndex
	})
	return result, nil
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
