package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-substitution-api/internal/models"
	appErrors "github.com/noah-isme/sma-substitution-api/pkg/errors"
	"github.com/noah-isme/sma-substitution-api/pkg/response"
)

type timetableImporter interface {
	Replace(ctx context.Context, schoolID string, payload models.TimetableImport) (*models.TimetableImportResult, error)
}

// TimetableHandler receives normalised timetables from the import collaborator.
type TimetableHandler struct {
	importer timetableImporter
}

// NewTimetableHandler constructs a TimetableHandler.
func NewTimetableHandler(importer timetableImporter) *TimetableHandler {
	return &TimetableHandler{importer: importer}
}

// Replace godoc
// @Summary Replace the weekly timetable
// @Description Upserts teachers, subjects and classes and rebuilds lessons, cards and periods in one transaction.
// @Tags Timetable
// @Accept json
// @Produce json
// @Param schoolId path string true "School ID"
// @Param payload body models.TimetableImport true "Normalised timetable"
// @Success 200 {object} response.Envelope
// @Router /schools/{schoolId}/timetable [put]
func (h *TimetableHandler) Replace(c *gin.Context) {
	var payload models.TimetableImport
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid timetable payload"))
		return
	}
	result, err := h.importer.Replace(c.Request.Context(), schoolID(c), payload)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
