package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-substitution-api/internal/models"
	appErrors "github.com/noah-isme/sma-substitution-api/pkg/errors"
	"github.com/noah-isme/sma-substitution-api/pkg/response"
)

type teacherService interface {
	List(ctx context.Context, schoolID string) ([]models.Teacher, error)
	Get(ctx context.Context, schoolID, id string) (*models.Teacher, error)
	UpdateProfile(ctx context.Context, schoolID, id string, req models.UpdateTeacherProfileRequest) (*models.Teacher, error)
}

type teacherDayService interface {
	TeacherDay(ctx context.Context, schoolID, teacherID string, date time.Time) (*models.TeacherDay, error)
}

// TeacherHandler wires teacher services to HTTP routes.
type TeacherHandler struct {
	teachers teacherService
	schedule teacherDayService
}

// NewTeacherHandler constructs a new TeacherHandler.
func NewTeacherHandler(teachers teacherService, schedule teacherDayService) *TeacherHandler {
	return &TeacherHandler{teachers: teachers, schedule: schedule}
}

// List godoc
// @Summary List teachers
// @Tags Teachers
// @Produce json
// @Param schoolId path string true "School ID"
// @Success 200 {object} response.Envelope
// @Router /schools/{schoolId}/teachers [get]
func (h *TeacherHandler) List(c *gin.Context) {
	teachers, err := h.teachers.List(c.Request.Context(), schoolID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teachers, &models.Pagination{Page: 1, PageSize: len(teachers), TotalCount: len(teachers)})
}

// Get godoc
// @Summary Get teacher detail
// @Tags Teachers
// @Produce json
// @Param schoolId path string true "School ID"
// @Param id path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Router /schools/{schoolId}/teachers/{id} [get]
func (h *TeacherHandler) Get(c *gin.Context) {
	teacher, err := h.teachers.Get(c.Request.Context(), schoolID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teacher, nil)
}

// UpdateProfile godoc
// @Summary Update teacher branch and education levels
// @Tags Teachers
// @Accept json
// @Produce json
// @Param schoolId path string true "School ID"
// @Param id path string true "Teacher ID"
// @Param payload body models.UpdateTeacherProfileRequest true "Profile payload"
// @Success 200 {object} response.Envelope
// @Router /schools/{schoolId}/teachers/{id}/profile [patch]
func (h *TeacherHandler) UpdateProfile(c *gin.Context) {
	var req models.UpdateTeacherProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid teacher payload"))
		return
	}
	teacher, err := h.teachers.UpdateProfile(c.Request.Context(), schoolID(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teacher, nil)
}

// Day godoc
// @Summary Teacher lessons on a date
// @Tags Teachers
// @Produce json
// @Param schoolId path string true "School ID"
// @Param id path string true "Teacher ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /schools/{schoolId}/teachers/{id}/day [get]
func (h *TeacherHandler) Day(c *gin.Context) {
	date, err := queryDate(c, "date")
	if err != nil {
		response.Error(c, err)
		return
	}
	day, err := h.schedule.TeacherDay(c.Request.Context(), schoolID(c), c.Param("id"), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, day, nil)
}
