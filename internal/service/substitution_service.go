package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-substitution-api/internal/models"
	"github.com/noah-isme/sma-substitution-api/internal/repository"
	appErrors "github.com/noah-isme/sma-substitution-api/pkg/errors"
)

const dateLayout = "2006-01-02"

type substitutionStore interface {
	Create(ctx context.Context, sub *models.Substitution) error
	FindByID(ctx context.Context, schoolID, id string) (*models.Substitution, error)
	List(ctx context.Context, filter models.SubstitutionFilter) ([]models.Substitution, error)
	Delete(ctx context.Context, schoolID, id string) (bool, error)
	Cancel(ctx context.Context, schoolID, id string) error
}

type teacherFinder interface {
	FindByID(ctx context.Context, schoolID, id string) (*models.Teacher, error)
}

type lessonContextFinder interface {
	FindLessonContext(ctx context.Context, schoolID, lessonID string) (*models.LessonContext, error)
	ListPeriods(ctx context.Context, schoolID string) ([]models.Period, error)
}

type feeSchedule interface {
	Fee(ctx context.Context, schoolID string, category models.FeeCategory) (int64, error)
}

// SubstitutionService commits and reverses cover assignments.
type SubstitutionService struct {
	store     substitutionStore
	teachers  teacherFinder
	lessons   lessonContextFinder
	fees      feeSchedule
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewSubstitutionService constructs a SubstitutionService.
func NewSubstitutionService(store substitutionStore, teachers teacherFinder, lessons lessonContextFinder, fees feeSchedule, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger) *SubstitutionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubstitutionService{store: store, teachers: teachers, lessons: lessons, fees: fees, validator: validate, metrics: metrics, logger: logger}
}

// Create records a substitution with the fee in effect now. A live record for
// the same (school, date, period, original teacher) yields Conflict; the
// caller should refresh candidates instead of retrying.
func (s *SubstitutionService) Create(ctx context.Context, req models.CreateSubstitutionRequest) (*models.Substitution, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid substitution payload")
	}
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid date")
	}
	if req.SubstituteTeacherID != nil && *req.SubstituteTeacherID == req.OriginalTeacherID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "a teacher cannot cover their own absence")
	}

	original, err := s.findTeacher(ctx, req.SchoolID, req.OriginalTeacherID, "original teacher not found")
	if err != nil {
		return nil, err
	}

	sub := &models.Substitution{
		SchoolID:            req.SchoolID,
		Date:                date,
		PeriodIndex:         req.PeriodIndex,
		OriginalTeacherID:   original.ID,
		OriginalTeacherName: original.Name,
		LessonID:            req.LessonID,
		Status:              models.SubstitutionApproved,
		Reason:              req.Reason,
	}

	if req.SubstituteTeacherID != nil {
		substitute, err := s.findTeacher(ctx, req.SchoolID, *req.SubstituteTeacherID, "substitute teacher not found")
		if err != nil {
			return nil, err
		}
		sub.SubstituteTeacherID = &substitute.ID
		sub.SubstituteTeacherName = &substitute.Name
	}

	if req.LessonID != nil {
		lesson, err := s.lessons.FindLessonContext(ctx, req.SchoolID, *req.LessonID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
			}
			return nil, s.upstream(err, req.SchoolID, "failed to load lesson")
		}
		if lesson.Subject != nil {
			sub.SubjectName = lesson.Subject.Name
		}
		names := make([]string, 0, len(lesson.Classes))
		for _, class := range lesson.Classes {
			names = append(names, class.Name)
		}
		sub.ClassNames = strings.Join(names, ", ")
	}

	periods, err := s.lessons.ListPeriods(ctx, req.SchoolID)
	if err != nil {
		return nil, s.upstream(err, req.SchoolID, "failed to load periods")
	}
	for _, p := range periods {
		if p.PeriodIndex == req.PeriodIndex {
			sub.PeriodName = p.Name
			break
		}
	}

	fee, err := s.fees.Fee(ctx, req.SchoolID, models.FeeSubstitution)
	if err != nil {
		return nil, err
	}
	sub.Amount = fee

	if err := s.store.Create(ctx, sub); err != nil {
		if errors.Is(err, repository.ErrSlotTaken) {
			s.metrics.RecordAssignment(AssignmentOutcomeConflict)
			s.logger.Info("substitution slot already covered",
				zap.String("school_id", req.SchoolID),
				zap.String("date", req.Date),
				zap.Int("period", req.PeriodIndex),
				zap.String("original_teacher_id", req.OriginalTeacherID),
			)
			return nil, appErrors.Clone(appErrors.ErrConflict, "this slot already has a substitution")
		}
		s.metrics.RecordAssignment(AssignmentOutcomeError)
		return nil, s.upstream(err, req.SchoolID, "failed to create substitution")
	}

	s.metrics.RecordAssignment(AssignmentOutcomeCreated)
	s.logger.Info("substitution created",
		zap.String("id", sub.ID),
		zap.String("school_id", sub.SchoolID),
		zap.String("date", req.Date),
		zap.Int("period", sub.PeriodIndex),
		zap.Int64("amount", sub.Amount),
	)
	return sub, nil
}

// Get returns one substitution.
func (s *SubstitutionService) Get(ctx context.Context, schoolID, id string) (*models.Substitution, error) {
	sub, err := s.store.FindByID(ctx, schoolID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "substitution not found")
		}
		return nil, s.upstream(err, schoolID, "failed to load substitution")
	}
	return sub, nil
}

// List returns substitutions matching the filter.
func (s *SubstitutionService) List(ctx context.Context, filter models.SubstitutionFilter) ([]models.Substitution, error) {
	subs, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, s.upstream(err, filter.SchoolID, "failed to list substitutions")
	}
	if subs == nil {
		subs = []models.Substitution{}
	}
	return subs, nil
}

// Delete hard-deletes a substitution. Deleting an id that does not exist
// succeeds.
func (s *SubstitutionService) Delete(ctx context.Context, schoolID, id string) error {
	removed, err := s.store.Delete(ctx, schoolID, id)
	if err != nil {
		return s.upstream(err, schoolID, "failed to delete substitution")
	}
	s.logger.Info("substitution deleted", zap.String("id", id), zap.String("school_id", schoolID), zap.Bool("removed", removed))
	return nil
}

// Cancel marks a substitution cancelled so its slot can be covered again.
// Cancelling twice returns the cancelled record.
func (s *SubstitutionService) Cancel(ctx context.Context, schoolID, id string) (*models.Substitution, error) {
	if err := s.store.Cancel(ctx, schoolID, id); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, s.upstream(err, schoolID, "failed to cancel substitution")
	}
	sub, err := s.Get(ctx, schoolID, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info("substitution cancelled", zap.String("id", id), zap.String("school_id", schoolID))
	return sub, nil
}

func (s *SubstitutionService) findTeacher(ctx context.Context, schoolID, id, notFound string) (*models.Teacher, error) {
	teacher, err := s.teachers.FindByID(ctx, schoolID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, notFound)
		}
		return nil, s.upstream(err, schoolID, "failed to load teacher")
	}
	return teacher, nil
}

func (s *SubstitutionService) upstream(err error, schoolID, message string) error {
	s.logger.Error(message, zap.String("school_id", schoolID), zap.Error(err))
	return appErrors.Upstream(err, message)
}
