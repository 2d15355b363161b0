package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-substitution-api/internal/middleware"
	"github.com/noah-isme/sma-substitution-api/internal/models"
	"github.com/noah-isme/sma-substitution-api/internal/service"
	appErrors "github.com/noah-isme/sma-substitution-api/pkg/errors"
)

type fakeAvailability struct {
	busy   models.TeacherSet
	err    error
	school string
	date   time.Time
	period int
}

func (f *fakeAvailability) ResolveBusyTeachers(ctx context.Context, schoolID string, date time.Time, periodIndex int) (models.TeacherSet, error) {
	f.school, f.date, f.period = schoolID, date, periodIndex
	return f.busy, f.err
}

func (f *fakeAvailability) IsSchoolDay(date time.Time) bool {
	return date.Weekday() != time.Saturday && date.Weekday() != time.Sunday
}

type fakeRanker struct {
	candidates []models.SubstituteCandidate
	err        error
	last       service.RankRequest
}

func (f *fakeRanker) Rank(ctx context.Context, req service.RankRequest) ([]models.SubstituteCandidate, error) {
	f.last = req
	return f.candidates, f.err
}

func newAvailabilityRouter(h *AvailabilityHandler) http.Handler {
	router := newTestRouter()
	router.Use(middleware.WithResponseMeta())
	router.GET("/schools/:schoolId/availability/busy", h.Busy)
	router.GET("/schools/:schoolId/substitutions/candidates", h.Candidates)
	return router
}

func TestAvailabilityBusy(t *testing.T) {
	busy := models.TeacherSet{}
	busy.Add("t-x", "t-b")
	avail := &fakeAvailability{busy: busy}
	router := newAvailabilityRouter(NewAvailabilityHandler(avail, &fakeRanker{}))

	rec, env := serve(t, router, http.MethodGet, "/schools/school-1/availability/busy?date=2024-03-05&period=3", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var out models.BusyTeachers
	require.NoError(t, json.Unmarshal(env.Data, &out))
	assert.Equal(t, []string{"t-b", "t-x"}, out.TeacherIDs)
	assert.Equal(t, "Tuesday", out.Weekday)
	assert.True(t, out.SchoolDay)
	assert.Equal(t, "school-1", avail.school)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), avail.date)
	assert.Equal(t, 3, avail.period)
}

func TestAvailabilityBusyRejectsBadQuery(t *testing.T) {
	router := newAvailabilityRouter(NewAvailabilityHandler(&fakeAvailability{}, &fakeRanker{}))

	for _, path := range []string{
		"/schools/school-1/availability/busy?period=3",
		"/schools/school-1/availability/busy?date=05-03-2024&period=3",
		"/schools/school-1/availability/busy?date=2024-03-05&period=third",
	} {
		rec, env := serve(t, router, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
		require.NotNil(t, env.Error)
		assert.Equal(t, appErrors.ErrValidation.Code, env.Error.Code)
	}
}

func TestAvailabilityBusyStoreFailure(t *testing.T) {
	avail := &fakeAvailability{err: appErrors.Upstream(errors.New("timeout"), "failed to load timetable")}
	router := newAvailabilityRouter(NewAvailabilityHandler(avail, &fakeRanker{}))

	rec, env := serve(t, router, http.MethodGet, "/schools/school-1/availability/busy?date=2024-03-05&period=3", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "5", rec.Header().Get("Retry-After"))
	assert.Equal(t, appErrors.ErrUpstreamUnavailable.Code, env.Error.Code)
}

func TestCandidatesRanked(t *testing.T) {
	ranker := &fakeRanker{candidates: []models.SubstituteCandidate{
		{TeacherID: "t-g", Score: 510000, IsGuidance: true},
		{TeacherID: "t-a", Score: 111000, IsSuperMatch: true},
	}}
	router := newAvailabilityRouter(NewAvailabilityHandler(&fakeAvailability{}, ranker))

	rec, env := serve(t, router, http.MethodGet, "/schools/school-1/substitutions/candidates?date=2024-03-05&period=3&lesson_id=l-cover", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var out []models.SubstituteCandidate
	require.NoError(t, json.Unmarshal(env.Data, &out))
	require.Len(t, out, 2)
	assert.Equal(t, "t-g", out[0].TeacherID)
	assert.Equal(t, float64(2), env.Meta["candidate_count"])
	assert.Equal(t, "l-cover", ranker.last.LessonID)
	assert.Equal(t, 3, ranker.last.PeriodIndex)
}

func TestCandidatesEmptyIsArray(t *testing.T) {
	router := newAvailabilityRouter(NewAvailabilityHandler(&fakeAvailability{}, &fakeRanker{}))

	rec, env := serve(t, router, http.MethodGet, "/schools/school-1/substitutions/candidates?date=2024-03-05&period=3&lesson_id=l-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, string(env.Data))
}

func TestCandidatesErrors(t *testing.T) {
	router := newAvailabilityRouter(NewAvailabilityHandler(&fakeAvailability{}, &fakeRanker{}))
	rec, _ := serve(t, router, http.MethodGet, "/schools/school-1/substitutions/candidates?date=2024-03-05&period=3", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	router = newAvailabilityRouter(NewAvailabilityHandler(&fakeAvailability{}, &fakeRanker{err: appErrors.Clone(appErrors.ErrNotFound, "lesson not found")}))
	rec, env := serve(t, router, http.MethodGet, "/schools/school-1/substitutions/candidates?date=2024-03-05&period=3&lesson_id=nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "lesson not found", env.Error.Message)
}
