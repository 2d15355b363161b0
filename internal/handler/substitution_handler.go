package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-substitution-api/internal/models"
	appErrors "github.com/noah-isme/sma-substitution-api/pkg/errors"
	"github.com/noah-isme/sma-substitution-api/pkg/response"
)

type substitutionService interface {
	Create(ctx context.Context, req models.CreateSubstitutionRequest) (*models.Substitution, error)
	Get(ctx context.Context, schoolID, id string) (*models.Substitution, error)
	List(ctx context.Context, filter models.SubstitutionFilter) ([]models.Substitution, error)
	Delete(ctx context.Context, schoolID, id string) error
	Cancel(ctx context.Context, schoolID, id string) (*models.Substitution, error)
}

// SubstitutionHandler manages committed cover assignments.
type SubstitutionHandler struct {
	subs substitutionService
}

// NewSubstitutionHandler constructs a SubstitutionHandler.
func NewSubstitutionHandler(subs substitutionService) *SubstitutionHandler {
	return &SubstitutionHandler{subs: subs}
}

// List godoc
// @Summary List substitutions
// @Tags Substitutions
// @Produce json
// @Param schoolId path string true "School ID"
// @Param date query string false "Date (YYYY-MM-DD)"
// @Param original_teacher_id query string false "Absent teacher"
// @Param substitute_teacher_id query string false "Covering teacher"
// @Param status query string false "approved or cancelled"
// @Success 200 {object} response.Envelope
// @Router /schools/{schoolId}/substitutions [get]
func (h *SubstitutionHandler) List(c *gin.Context) {
	date, err := optionalQueryDate(c, "date")
	if err != nil {
		response.Error(c, err)
		return
	}
	filter := models.SubstitutionFilter{
		SchoolID:            schoolID(c),
		Date:                date,
		OriginalTeacherID:   c.Query("original_teacher_id"),
		SubstituteTeacherID: c.Query("substitute_teacher_id"),
	}
	switch status := models.SubstitutionStatus(c.Query("status")); status {
	case "":
	case models.SubstitutionApproved, models.SubstitutionCancelled:
		filter.Status = status
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "status must be approved or cancelled"))
		return
	}

	subs, err := h.subs.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subs, &models.Pagination{Page: 1, PageSize: len(subs), TotalCount: len(subs)})
}

// Get godoc
// @Summary Get substitution
// @Tags Substitutions
// @Produce json
// @Param schoolId path string true "School ID"
// @Param id path string true "Substitution ID"
// @Success 200 {object} response.Envelope
// @Router /schools/{schoolId}/substitutions/{id} [get]
func (h *SubstitutionHandler) Get(c *gin.Context) {
	sub, err := h.subs.Get(c.Request.Context(), schoolID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sub, nil)
}

// Create godoc
// @Summary Commit a substitute for an absent slot
// @Tags Substitutions
// @Accept json
// @Produce json
// @Param schoolId path string true "School ID"
// @Param payload body models.CreateSubstitutionRequest true "Substitution payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope "Slot already covered; refresh candidates"
// @Router /schools/{schoolId}/substitutions [post]
func (h *SubstitutionHandler) Create(c *gin.Context) {
	var req models.CreateSubstitutionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid substitution payload"))
		return
	}
	req.SchoolID = schoolID(c)
	sub, err := h.subs.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, sub)
}

// Cancel godoc
// @Summary Cancel a substitution and free its slot
// @Tags Substitutions
// @Produce json
// @Param schoolId path string true "School ID"
// @Param id path string true "Substitution ID"
// @Success 200 {object} response.Envelope
// @Router /schools/{schoolId}/substitutions/{id}/cancel [post]
func (h *SubstitutionHandler) Cancel(c *gin.Context) {
	sub, err := h.subs.Cancel(c.Request.Context(), schoolID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sub, nil)
}

// Delete godoc
// @Summary Delete a substitution
// @Tags Substitutions
// @Param schoolId path string true "School ID"
// @Param id path string true "Substitution ID"
// @Success 204
// @Router /schools/{schoolId}/substitutions/{id} [delete]
func (h *SubstitutionHandler) Delete(c *gin.Context) {
	if err := h.subs.Delete(c.Request.Context(), schoolID(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
