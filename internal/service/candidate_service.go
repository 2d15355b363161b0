package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-substitution-api/internal/models"
	"github.com/noah-isme/sma-substitution-api/internal/timetable"
	appErrors "github.com/noah-isme/sma-substitution-api/pkg/errors"
)

// Score weights. Guidance staff receive the bonus after the topical criteria
// so they lead any tie.
const (
	scoreSameSubject = 100000
	scoreSameLevel   = 10000
	scoreSameClass   = 1000
	scoreGuidance    = 500000
)

// Match reasons attached to candidates.
const (
	ReasonSameSubject = "Same subject"
	ReasonSameLevel   = "Same grade level"
	ReasonSameClass   = "Same class"
	ReasonGuidance    = "Guidance / available"
	ReasonAvailable   = "Available"
)

type availabilitySnapshotter interface {
	Snapshot(ctx context.Context, schoolID string, date time.Time, periodIndex int) (*models.AvailabilitySnapshot, error)
}

// RankRequest identifies the lesson slot that needs covering.
type RankRequest struct {
	SchoolID    string
	LessonID    string
	Date        time.Time
	PeriodIndex int
}

// CandidateService ranks free teachers for a lesson slot.
type CandidateService struct {
	availability  availabilitySnapshotter
	operatingDays int
	metrics       *MetricsService
	logger        *zap.Logger
}

// NewCandidateService constructs a CandidateService.
func NewCandidateService(availability availabilitySnapshotter, operatingDays int, metrics *MetricsService, logger *zap.Logger) *CandidateService {
	if operatingDays != timetable.DaysInWeek {
		operatingDays = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CandidateService{availability: availability, operatingDays: operatingDays, metrics: metrics, logger: logger}
}

// Rank returns the teachers able to cover the slot, best first. An empty
// result is a valid outcome; lookup failures are returned as errors.
func (s *CandidateService) Rank(ctx context.Context, req RankRequest) ([]models.SubstituteCandidate, error) {
	if strings.TrimSpace(req.SchoolID) == "" || strings.TrimSpace(req.LessonID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "school and lesson are required")
	}
	if req.PeriodIndex < 1 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "period must be 1 or greater")
	}
	day := timetable.WeekdayOf(req.Date)
	if !timetable.IsOperating(day, s.operatingDays) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("no lessons are scheduled on %s", day))
	}

	start := time.Now()
	snap, err := s.availability.Snapshot(ctx, req.SchoolID, req.Date, req.PeriodIndex)
	if err != nil {
		return nil, err
	}

	target, err := lessonTargetFor(snap.Timetable, req.LessonID)
	if err != nil {
		return nil, err
	}

	candidates := rankCandidates(target, snap)
	s.metrics.ObserveRanking(len(candidates), time.Since(start))
	s.logger.Debug("ranked substitute candidates",
		zap.String("school_id", req.SchoolID),
		zap.String("lesson_id", req.LessonID),
		zap.Int("period", req.PeriodIndex),
		zap.Int("candidates", len(candidates)),
	)
	return candidates, nil
}

// lessonTarget is what a candidate is compared against.
type lessonTarget struct {
	lessonID  string
	subjectID string
	classIDs  map[string]struct{}
	levels    timetable.LevelSet
}

func lessonTargetFor(structure *models.TimetableStructure, lessonID string) (*lessonTarget, error) {
	if structure == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
	}
	lesson, ok := structure.LessonByID()[lessonID]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
	}
	if lesson.SubjectID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "lesson has no subject")
	}
	if _, ok := structure.SubjectByID()[lesson.SubjectID]; !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "lesson subject is unknown")
	}

	classes := structure.ClassByID()
	target := &lessonTarget{
		lessonID:  lesson.ID,
		subjectID: lesson.SubjectID,
		classIDs:  map[string]struct{}{},
		levels:    timetable.LevelSet{},
	}
	for _, classID := range lesson.ClassIDs {
		class, ok := classes[classID]
		if !ok {
			continue
		}
		target.classIDs[classID] = struct{}{}
		if level, ok := timetable.InferLevel(class.GradeIndex, class.Name); ok {
			target.levels.Add(level)
		}
	}
	if len(target.classIDs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "lesson has no classes")
	}
	return target, nil
}

// teacherProfile is what a teacher teaches across the whole week.
type teacherProfile struct {
	subjects map[string]struct{}
	classes  map[string]struct{}
	levels   timetable.LevelSet
}

func buildProfiles(structure *models.TimetableStructure) map[string]*teacherProfile {
	classes := structure.ClassByID()
	levelOf := make(map[string]timetable.EducationLevel, len(classes))
	for id, class := range classes {
		if level, ok := timetable.InferLevel(class.GradeIndex, class.Name); ok {
			levelOf[id] = level
		}
	}

	profiles := map[string]*teacherProfile{}
	for _, lesson := range structure.Lessons {
		for _, teacherID := range lesson.TeacherIDs {
			p, ok := profiles[teacherID]
			if !ok {
				p = &teacherProfile{subjects: map[string]struct{}{}, classes: map[string]struct{}{}, levels: timetable.LevelSet{}}
				profiles[teacherID] = p
			}
			p.subjects[lesson.SubjectID] = struct{}{}
			for _, classID := range lesson.ClassIDs {
				p.classes[classID] = struct{}{}
				if level, ok := levelOf[classID]; ok {
					p.levels.Add(level)
				}
			}
		}
	}
	return profiles
}

// rankCandidates filters, scores and orders the school's teachers for target.
// It performs no I/O.
func rankCandidates(target *lessonTarget, snap *models.AvailabilitySnapshot) []models.SubstituteCandidate {
	if snap == nil || snap.Timetable == nil {
		return []models.SubstituteCandidate{}
	}
	profiles := buildProfiles(snap.Timetable)

	candidates := make([]models.SubstituteCandidate, 0, len(snap.Timetable.Teachers))
	for _, teacher := range snap.Timetable.Teachers {
		guidance := timetable.IsGuidanceBranch(teacher.Branch)
		declared := timetable.NewLevelSet(teacher.Grades...)

		if guidance && !declared.Intersects(target.levels) {
			continue
		}
		load := snap.DailyLoad[teacher.ID]
		if !guidance {
			if snap.Busy.Has(teacher.ID) || load == 0 {
				continue
			}
		}
		if snap.Burden(teacher.ID) >= snap.TotalPeriods {
			continue
		}

		profile := profiles[teacher.ID]
		var sameSubject, sameClass, sameLevel bool
		if profile != nil {
			_, sameSubject = profile.subjects[target.subjectID]
			for classID := range target.classIDs {
				if _, ok := profile.classes[classID]; ok {
					sameClass = true
					break
				}
			}
		}
		if guidance {
			sameLevel = true
		} else if profile != nil {
			sameLevel = profile.levels.Intersects(target.levels)
		}

		score := 0
		reasons := make([]string, 0, 4)
		if sameSubject {
			score += scoreSameSubject
			reasons = append(reasons, ReasonSameSubject)
		}
		if sameLevel {
			score += scoreSameLevel
			reasons = append(reasons, ReasonSameLevel)
		}
		if sameClass {
			score += scoreSameClass
			reasons = append(reasons, ReasonSameClass)
		}
		switch {
		case guidance:
			reasons = append(reasons, ReasonGuidance)
			score += scoreGuidance
		case score == 0:
			reasons = append(reasons, ReasonAvailable)
		}

		candidates = append(candidates, models.SubstituteCandidate{
			TeacherID:           teacher.ID,
			Name:                teacher.Name,
			Branch:              teacher.Branch,
			Score:               score,
			Reasons:             reasons,
			DailyLoad:           load,
			AssignmentsToday:    snap.AssignmentsToday[teacher.ID],
			LifetimeAssignments: snap.LifetimeAssignments[teacher.ID],
			IsGuidance:          guidance,
			IsSuperMatch:        sameSubject && sameClass,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if burdenA, burdenB := a.DailyLoad+a.AssignmentsToday, b.DailyLoad+b.AssignmentsToday; burdenA != burdenB {
			return burdenA < burdenB
		}
		if a.LifetimeAssignments != b.LifetimeAssignments {
			return a.LifetimeAssignments < b.LifetimeAssignments
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.TeacherID < b.TeacherID
	})
	return candidates
}
