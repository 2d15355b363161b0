package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-substitution-api/internal/models"
	appErrors "github.com/noah-isme/sma-substitution-api/pkg/errors"
	"github.com/noah-isme/sma-substitution-api/pkg/response"
)

type payrollService interface {
	Settings(ctx context.Context, schoolID string) (*models.PayrollSettings, error)
	Update(ctx context.Context, schoolID string, settings models.PayrollSettings) (*models.PayrollSettings, error)
}

type extraTaskService interface {
	Create(ctx context.Context, req models.CreateExtraTaskRequest) (*models.ExtraTask, error)
	List(ctx context.Context, filter models.ExtraTaskFilter) ([]models.ExtraTask, error)
	Delete(ctx context.Context, schoolID, id string) error
}

// PayrollHandler exposes fee settings and paid extra tasks.
type PayrollHandler struct {
	payroll payrollService
	tasks   extraTaskService
}

// NewPayrollHandler constructs a PayrollHandler.
func NewPayrollHandler(payroll payrollService, tasks extraTaskService) *PayrollHandler {
	return &PayrollHandler{payroll: payroll, tasks: tasks}
}

// GetSettings godoc
// @Summary Get fee settings
// @Tags Payroll
// @Produce json
// @Param schoolId path string true "School ID"
// @Success 200 {object} response.Envelope
// @Router /schools/{schoolId}/payroll-settings [get]
func (h *PayrollHandler) GetSettings(c *gin.Context) {
	settings, err := h.payroll.Settings(c.Request.Context(), schoolID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, settings, nil)
}

// UpdateSettings godoc
// @Summary Replace fee settings
// @Description Amounts are minor currency units. Existing records keep the fee they were created with.
// @Tags Payroll
// @Accept json
// @Produce json
// @Param schoolId path string true "School ID"
// @Param payload body models.PayrollSettings true "Fee settings"
// @Success 200 {object} response.Envelope
// @Router /schools/{schoolId}/payroll-settings [put]
func (h *PayrollHandler) UpdateSettings(c *gin.Context) {
	var req models.PayrollSettings
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payroll payload"))
		return
	}
	settings, err := h.payroll.Update(c.Request.Context(), schoolID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, settings, nil)
}

// ListTasks godoc
// @Summary List extra tasks
// @Tags Payroll
// @Produce json
// @Param schoolId path string true "School ID"
// @Param date query string false "Date (YYYY-MM-DD)"
// @Param teacher_id query string false "Teacher"
// @Success 200 {object} response.Envelope
// @Router /schools/{schoolId}/extra-tasks [get]
func (h *PayrollHandler) ListTasks(c *gin.Context) {
	date, err := optionalQueryDate(c, "date")
	if err != nil {
		response.Error(c, err)
		return
	}
	tasks, err := h.tasks.List(c.Request.Context(), models.ExtraTaskFilter{
		SchoolID:  schoolID(c),
		Date:      date,
		TeacherID: c.Query("teacher_id"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tasks, nil)
}

// CreateTask godoc
// @Summary Record a paid extra task
// @Tags Payroll
// @Accept json
// @Produce json
// @Param schoolId path string true "School ID"
// @Param payload body models.CreateExtraTaskRequest true "Task payload"
// @Success 201 {object} response.Envelope
// @Router /schools/{schoolId}/extra-tasks [post]
func (h *PayrollHandler) CreateTask(c *gin.Context) {
	var req models.CreateExtraTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid extra task payload"))
		return
	}
	req.SchoolID = schoolID(c)
	task, err := h.tasks.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, task)
}

// DeleteTask godoc
// @Summary Delete an extra task
// @Tags Payroll
// @Param schoolId path string true "School ID"
// @Param id path string true "Task ID"
// @Success 204
// @Router /schools/{schoolId}/extra-tasks/{id} [delete]
func (h *PayrollHandler) DeleteTask(c *gin.Context) {
	if err := h.tasks.Delete(c.Request.Context(), schoolID(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
