package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-substitution-api/internal/models"
	appErrors "github.com/noah-isme/sma-substitution-api/pkg/errors"
)

type teacherRepository interface {
	ListBySchool(ctx context.Context, schoolID string) ([]models.Teacher, error)
	FindByID(ctx context.Context, schoolID, id string) (*models.Teacher, error)
	UpdateProfile(ctx context.Context, schoolID, id, branch string, grades []string) error
}

type structureInvalidator interface {
	Invalidate(ctx context.Context, schoolID string)
}

// TeacherService exposes teachers and their scoring profile.
type TeacherService struct {
	repo      teacherRepository
	structure structureInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeacherService constructs a TeacherService.
func NewTeacherService(repo teacherRepository, structure structureInvalidator, validate *validator.Validate, logger *zap.Logger) *TeacherService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{repo: repo, structure: structure, validator: validate, logger: logger}
}

// List returns the school's teachers ordered by name.
func (s *TeacherService) List(ctx context.Context, schoolID string) ([]models.Teacher, error) {
	teachers, err := s.repo.ListBySchool(ctx, schoolID)
	if err != nil {
		s.logger.Error("list teachers failed", zap.String("school_id", schoolID), zap.Error(err))
		return nil, appErrors.Upstream(err, "failed to list teachers")
	}
	if teachers == nil {
		teachers = []models.Teacher{}
	}
	return teachers, nil
}

// Get returns a teacher by id.
func (s *TeacherService) Get(ctx context.Context, schoolID, id string) (*models.Teacher, error) {
	teacher, err := s.repo.FindByID(ctx, schoolID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		s.logger.Error("load teacher failed", zap.String("teacher_id", id), zap.Error(err))
		return nil, appErrors.Upstream(err, "failed to load teacher")
	}
	return teacher, nil
}

// UpdateProfile replaces a teacher's branch and education level tags. The
// cached timetable is dropped so the next ranking sees the new profile.
func (s *TeacherService) UpdateProfile(ctx context.Context, schoolID, id string, req models.UpdateTeacherProfileRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher profile")
	}
	grades := dedupe(req.Grades)
	if err := s.repo.UpdateProfile(ctx, schoolID, id, strings.TrimSpace(req.Branch), grades); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		s.logger.Error("update teacher profile failed", zap.String("teacher_id", id), zap.Error(err))
		return nil, appErrors.Upstream(err, "failed to update teacher")
	}
	if s.structure != nil {
		s.structure.Invalidate(ctx, schoolID)
	}
	s.logger.Info("teacher profile updated", zap.String("teacher_id", id), zap.Strings("grades", grades))
	return s.Get(ctx, schoolID, id)
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
