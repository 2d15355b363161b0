package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-substitution-api/internal/models"
	"github.com/noah-isme/sma-substitution-api/internal/service"
)

type fakeImporter struct {
	payload models.TimetableImport
}

func (f *fakeImporter) Replace(ctx context.Context, schoolID string, payload models.TimetableImport) (*models.TimetableImportResult, error) {
	f.payload = payload
	return &models.TimetableImportResult{Lessons: len(payload.Lessons), Cards: len(payload.Cards)}, nil
}

func TestTimetableReplace(t *testing.T) {
	importer := &fakeImporter{}
	router := newTestRouter()
	router.PUT("/schools/:schoolId/timetable", NewTimetableHandler(importer).Replace)

	rec, _ := serve(t, router, http.MethodPut, "/schools/school-1/timetable", map[string]interface{}{
		"lessons": []map[string]interface{}{{"id": "l-1", "subject_id": "math", "teacher_ids": []string{"t-a"}, "class_ids": []string{"c-1"}}},
		"cards":   []map[string]interface{}{{"lesson_id": "l-1", "period_index": 1, "days_mask": "10000"}},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, importer.payload.Cards, 1)
	assert.Equal(t, "10000", importer.payload.Cards[0].DaysMask)
}

func TestMetricsHandlerReady(t *testing.T) {
	router := newTestRouter()
	healthy := NewMetricsHandler(service.NewMetricsService(), map[string]Pinger{
		"postgres": PingFunc(func(ctx context.Context) error { return nil }),
	})
	router.GET("/ready", healthy.Ready)
	router.GET("/metrics/summary", healthy.Summary)

	rec, _ := serve(t, router, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = serve(t, router, http.MethodGet, "/metrics/summary", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	down := NewMetricsHandler(nil, map[string]Pinger{
		"redis": PingFunc(func(ctx context.Context) error { return errors.New("connection refused") }),
	})
	router = newTestRouter()
	router.GET("/ready", down.Ready)
	router.GET("/metrics", down.Prometheus)

	rec, _ = serve(t, router, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")

	rec, _ = serve(t, router, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
