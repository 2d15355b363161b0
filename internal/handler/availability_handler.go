package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-substitution-api/internal/middleware"
	"github.com/noah-isme/sma-substitution-api/internal/models"
	"github.com/noah-isme/sma-substitution-api/internal/service"
	"github.com/noah-isme/sma-substitution-api/internal/timetable"
	appErrors "github.com/noah-isme/sma-substitution-api/pkg/errors"
	"github.com/noah-isme/sma-substitution-api/pkg/response"
)

type busyResolver interface {
	ResolveBusyTeachers(ctx context.Context, schoolID string, date time.Time, periodIndex int) (models.TeacherSet, error)
	IsSchoolDay(date time.Time) bool
}

type candidateRanker interface {
	Rank(ctx context.Context, req service.RankRequest) ([]models.SubstituteCandidate, error)
}

// AvailabilityHandler exposes who is busy at a slot and who could cover it.
type AvailabilityHandler struct {
	availability busyResolver
	candidates   candidateRanker
}

// NewAvailabilityHandler constructs an AvailabilityHandler.
func NewAvailabilityHandler(availability busyResolver, candidates candidateRanker) *AvailabilityHandler {
	return &AvailabilityHandler{availability: availability, candidates: candidates}
}

// Busy godoc
// @Summary Teachers busy at a period
// @Tags Substitutions
// @Produce json
// @Param schoolId path string true "School ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Param period query int true "Period index, 1-based"
// @Success 200 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /schools/{schoolId}/availability/busy [get]
func (h *AvailabilityHandler) Busy(c *gin.Context) {
	date, err := queryDate(c, "date")
	if err != nil {
		response.Error(c, err)
		return
	}
	period, err := queryPeriod(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	busy, err := h.availability.ResolveBusyTeachers(c.Request.Context(), schoolID(c), date, period)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, models.BusyTeachers{
		SchoolID:    schoolID(c),
		Date:        date.Format(dateLayout),
		Weekday:     timetable.WeekdayOf(date).String(),
		PeriodIndex: period,
		SchoolDay:   h.availability.IsSchoolDay(date),
		TeacherIDs:  busy.Sorted(),
		ResolvedAt:  time.Now().UTC(),
	}, nil)
}

// Candidates godoc
// @Summary Rank substitute candidates for a lesson slot
// @Tags Substitutions
// @Produce json
// @Param schoolId path string true "School ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Param period query int true "Period index, 1-based"
// @Param lesson_id query string true "Lesson being covered"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /schools/{schoolId}/substitutions/candidates [get]
func (h *AvailabilityHandler) Candidates(c *gin.Context) {
	date, err := queryDate(c, "date")
	if err != nil {
		response.Error(c, err)
		return
	}
	period, err := queryPeriod(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	lessonID := strings.TrimSpace(c.Query("lesson_id"))
	if lessonID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "lesson_id is required"))
		return
	}

	candidates, err := h.candidates.Rank(c.Request.Context(), service.RankRequest{
		SchoolID:    schoolID(c),
		LessonID:    lessonID,
		Date:        date,
		PeriodIndex: period,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	if candidates == nil {
		candidates = []models.SubstituteCandidate{}
	}
	middleware.SetMeta(c, "candidate_count", len(candidates))
	response.JSON(c, http.StatusOK, candidates, nil, middleware.ExtractMeta(c))
}
