package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-substitution-api/internal/models"
	"github.com/noah-isme/sma-substitution-api/internal/timetable"
	appErrors "github.com/noah-isme/sma-substitution-api/pkg/errors"
)

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type timetableImportRepository interface {
	StoredReferences(ctx context.Context, exec sqlx.ExtContext, schoolID string) (*models.ImportReferences, error)
	UpsertTeachers(ctx context.Context, exec sqlx.ExtContext, schoolID string, teachers []models.ImportTeacher) error
	UpsertSubjects(ctx context.Context, exec sqlx.ExtContext, schoolID string, subjects []models.ImportSubject) error
	UpsertClasses(ctx context.Context, exec sqlx.ExtContext, schoolID string, classes []models.ImportClass) error
	DetachSubstitutions(ctx context.Context, exec sqlx.ExtContext, schoolID string) (int64, error)
	ClearStructure(ctx context.Context, exec sqlx.ExtContext, schoolID string) error
	InsertLessons(ctx context.Context, exec sqlx.ExtContext, schoolID string, lessons []models.ImportLesson) error
	InsertCards(ctx context.Context, exec sqlx.ExtContext, schoolID string, cards []models.ImportCard) error
	InsertPeriods(ctx context.Context, exec sqlx.ExtContext, schoolID string, periods []models.ImportPeriod) error
}

// TimetableImportService replaces a school's weekly timetable in one
// transaction.
type TimetableImportService struct {
	repo      timetableImportRepository
	tx        txProvider
	structure structureInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTimetableImportService constructs a TimetableImportService.
func NewTimetableImportService(repo timetableImportRepository, tx txProvider, structure structureInvalidator, validate *validator.Validate, logger *zap.Logger) *TimetableImportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableImportService{repo: repo, tx: tx, structure: structure, validator: validate, logger: logger}
}

// Replace upserts teachers, subjects and classes, then rebuilds lessons,
// cards and periods. Existing substitutions lose their lesson link but keep
// their denormalised names.
func (s *TimetableImportService) Replace(ctx context.Context, schoolID string, payload models.TimetableImport) (result *models.TimetableImportResult, err error) {
	if err := s.validator.Struct(payload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable payload")
	}
	stored, err := s.repo.StoredReferences(ctx, nil, schoolID)
	if err != nil {
		return nil, s.importFailure(err, schoolID, "references")
	}
	if err := checkImportReferences(payload, stored); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	if s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Upstream(err, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	steps := []struct {
		name string
		run  func() error
	}{
		{"teachers", func() error { return s.repo.UpsertTeachers(ctx, tx, schoolID, payload.Teachers) }},
		{"subjects", func() error { return s.repo.UpsertSubjects(ctx, tx, schoolID, payload.Subjects) }},
		{"classes", func() error { return s.repo.UpsertClasses(ctx, tx, schoolID, payload.Classes) }},
	}
	for _, step := range steps {
		if err = step.run(); err != nil {
			return nil, s.importFailure(err, schoolID, step.name)
		}
	}

	detached, err := s.repo.DetachSubstitutions(ctx, tx, schoolID)
	if err != nil {
		return nil, s.importFailure(err, schoolID, "substitutions")
	}

	steps = []struct {
		name string
		run  func() error
	}{
		{"clear", func() error { return s.repo.ClearStructure(ctx, tx, schoolID) }},
		{"lessons", func() error { return s.repo.InsertLessons(ctx, tx, schoolID, payload.Lessons) }},
		{"cards", func() error { return s.repo.InsertCards(ctx, tx, schoolID, payload.Cards) }},
		{"periods", func() error { return s.repo.InsertPeriods(ctx, tx, schoolID, payload.Periods) }},
	}
	for _, step := range steps {
		if err = step.run(); err != nil {
			return nil, s.importFailure(err, schoolID, step.name)
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, s.importFailure(err, schoolID, "commit")
	}

	if s.structure != nil {
		s.structure.Invalidate(ctx, schoolID)
	}

	result = &models.TimetableImportResult{
		Teachers:              len(payload.Teachers),
		Subjects:              len(payload.Subjects),
		Classes:               len(payload.Classes),
		Lessons:               len(payload.Lessons),
		Cards:                 len(payload.Cards),
		Periods:               len(payload.Periods),
		DetachedSubstitutions: int(detached),
	}
	s.logger.Info("timetable imported",
		zap.String("school_id", schoolID),
		zap.Int("lessons", result.Lessons),
		zap.Int("cards", result.Cards),
		zap.Int("detached_substitutions", result.DetachedSubstitutions),
	)
	return result, nil
}

func (s *TimetableImportService) importFailure(err error, schoolID, step string) error {
	s.logger.Error("timetable import failed", zap.String("school_id", schoolID), zap.String("step", step), zap.Error(err))
	return appErrors.Upstream(err, "failed to import timetable")
}

// checkImportReferences rejects payloads whose lessons or cards point at
// records found neither in the payload nor among the school's stored
// teachers, subjects and classes, or whose day masks are malformed.
func checkImportReferences(payload models.TimetableImport, stored *models.ImportReferences) error {
	if stored == nil {
		stored = &models.ImportReferences{}
	}
	teachers := idSet(stored.TeacherIDs)
	for _, t := range payload.Teachers {
		teachers[t.ID] = struct{}{}
	}
	subjects := idSet(stored.SubjectIDs)
	for _, sub := range payload.Subjects {
		subjects[sub.ID] = struct{}{}
	}
	classes := idSet(stored.ClassIDs)
	for _, c := range payload.Classes {
		classes[c.ID] = struct{}{}
	}

	lessons := make(map[string]struct{}, len(payload.Lessons))
	for _, l := range payload.Lessons {
		if _, dup := lessons[l.ID]; dup {
			return fmt.Errorf("lesson %s appears twice", l.ID)
		}
		lessons[l.ID] = struct{}{}
		if _, ok := subjects[l.SubjectID]; !ok {
			return fmt.Errorf("lesson %s references unknown subject %s", l.ID, l.SubjectID)
		}
		for _, id := range l.TeacherIDs {
			if _, ok := teachers[id]; !ok {
				return fmt.Errorf("lesson %s references unknown teacher %s", l.ID, id)
			}
		}
		for _, id := range l.ClassIDs {
			if _, ok := classes[id]; !ok {
				return fmt.Errorf("lesson %s references unknown class %s", l.ID, id)
			}
		}
	}

	periods := make(map[int]struct{}, len(payload.Periods))
	for _, p := range payload.Periods {
		if _, dup := periods[p.PeriodIndex]; dup {
			return fmt.Errorf("period %d appears twice", p.PeriodIndex)
		}
		periods[p.PeriodIndex] = struct{}{}
	}

	for _, c := range payload.Cards {
		if _, ok := lessons[c.LessonID]; !ok {
			return fmt.Errorf("card references unknown lesson %s", c.LessonID)
		}
		if _, err := timetable.ParseDayMask(c.DaysMask); err != nil {
			return fmt.Errorf("card for lesson %s: %w", c.LessonID, err)
		}
		if len(periods) > 0 {
			if _, ok := periods[c.PeriodIndex]; !ok {
				return fmt.Errorf("card for lesson %s uses undefined period %d", c.LessonID, c.PeriodIndex)
			}
		}
	}
	return nil
}

func idSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
