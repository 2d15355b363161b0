package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-substitution-api/internal/models"
	appErrors "github.com/noah-isme/sma-substitution-api/pkg/errors"
)

type extraTaskRepository interface {
	Create(ctx context.Context, task *models.ExtraTask) error
	List(ctx context.Context, filter models.ExtraTaskFilter) ([]models.ExtraTask, error)
	Delete(ctx context.Context, schoolID, id string) (bool, error)
}

// ExtraTaskService records paid duties with a fee snapshot.
type ExtraTaskService struct {
	repo      extraTaskRepository
	teachers  teacherFinder
	fees      feeSchedule
	validator *validator.Validate
	logger    *zap.Logger
}

// NewExtraTaskService constructs an ExtraTaskService.
func NewExtraTaskService(repo extraTaskRepository, teachers teacherFinder, fees feeSchedule, validate *validator.Validate, logger *zap.Logger) *ExtraTaskService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExtraTaskService{repo: repo, teachers: teachers, fees: fees, validator: validate, logger: logger}
}

// Create records a task at the rate configured for its type.
func (s *ExtraTaskService) Create(ctx context.Context, req models.CreateExtraTaskRequest) (*models.ExtraTask, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid extra task payload")
	}
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid date")
	}

	teacher, err := s.teachers.FindByID(ctx, req.SchoolID, req.TeacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		s.logger.Error("load teacher failed", zap.String("teacher_id", req.TeacherID), zap.Error(err))
		return nil, appErrors.Upstream(err, "failed to load teacher")
	}

	fee, err := s.fees.Fee(ctx, req.SchoolID, req.TaskType.FeeCategory())
	if err != nil {
		return nil, err
	}

	task := &models.ExtraTask{
		SchoolID:    req.SchoolID,
		TeacherID:   teacher.ID,
		TeacherName: teacher.Name,
		TaskType:    req.TaskType,
		Date:        date,
		Amount:      fee,
	}
	if err := s.repo.Create(ctx, task); err != nil {
		s.logger.Error("create extra task failed", zap.String("school_id", req.SchoolID), zap.Error(err))
		return nil, appErrors.Upstream(err, "failed to create extra task")
	}
	s.logger.Info("extra task created",
		zap.String("id", task.ID),
		zap.String("teacher_id", task.TeacherID),
		zap.String("task_type", string(task.TaskType)),
		zap.Int64("amount", task.Amount),
	)
	return task, nil
}

// List returns tasks matching the filter.
func (s *ExtraTaskService) List(ctx context.Context, filter models.ExtraTaskFilter) ([]models.ExtraTask, error) {
	tasks, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("list extra tasks failed", zap.String("school_id", filter.SchoolID), zap.Error(err))
		return nil, appErrors.Upstream(err, "failed to list extra tasks")
	}
	if tasks == nil {
		tasks = []models.ExtraTask{}
	}
	return tasks, nil
}

// Delete removes a task. Missing ids are not an error.
func (s *ExtraTaskService) Delete(ctx context.Context, schoolID, id string) error {
	removed, err := s.repo.Delete(ctx, schoolID, id)
	if err != nil {
		s.logger.Error("delete extra task failed", zap.String("id", id), zap.Error(err))
		return appErrors.Upstream(err, "failed to delete extra task")
	}
	s.logger.Info("extra task deleted", zap.String("id", id), zap.Bool("removed", removed))
	return nil
}
