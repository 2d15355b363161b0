package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-substitution-api/internal/models"
	appErrors "github.com/noah-isme/sma-substitution-api/pkg/errors"
)

type payrollSettingsRepository interface {
	Get(ctx context.Context, schoolID string) (*models.PayrollSettings, error)
	Upsert(ctx context.Context, settings *models.PayrollSettings) error
}

// PayrollService exposes the fee schedule consulted when substitutions and
// extra tasks are created.
type PayrollService struct {
	repo      payrollSettingsRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPayrollService constructs a PayrollService.
func NewPayrollService(repo payrollSettingsRepository, validate *validator.Validate, logger *zap.Logger) *PayrollService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PayrollService{repo: repo, validator: validate, logger: logger}
}

// Settings returns the school's fee schedule, or the defaults when none was saved.
func (s *PayrollService) Settings(ctx context.Context, schoolID string) (*models.PayrollSettings, error) {
	settings, err := s.repo.Get(ctx, schoolID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			defaults := models.DefaultPayrollSettings(schoolID)
			return &defaults, nil
		}
		s.logger.Error("load payroll settings failed", zap.String("school_id", schoolID), zap.Error(err))
		return nil, appErrors.Upstream(err, "failed to load payroll settings")
	}
	return settings, nil
}

// Fee resolves the current rate for a category.
func (s *PayrollService) Fee(ctx context.Context, schoolID string, category models.FeeCategory) (int64, error) {
	settings, err := s.Settings(ctx, schoolID)
	if err != nil {
		return 0, err
	}
	fee, ok := settings.FeeFor(category)
	if !ok {
		return 0, appErrors.Clone(appErrors.ErrValidation, "unknown fee category")
	}
	return fee, nil
}

// Update saves a new fee schedule. Records created earlier keep their amounts.
func (s *PayrollService) Update(ctx context.Context, schoolID string, settings models.PayrollSettings) (*models.PayrollSettings, error) {
	settings.SchoolID = schoolID
	if err := s.validator.Struct(settings); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payroll settings")
	}
	if err := s.repo.Upsert(ctx, &settings); err != nil {
		s.logger.Error("save payroll settings failed", zap.String("school_id", schoolID), zap.Error(err))
		return nil, appErrors.Upstream(err, "failed to save payroll settings")
	}
	s.logger.Info("payroll settings updated", zap.String("school_id", schoolID), zap.Int64("substitution_fee", settings.SubstitutionFee))
	return &settings, nil
}
