package service

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsServiceSnapshot(t *testing.T) {
	m := NewMetricsService()
	m.RecordCacheOperation(true, time.Millisecond)
	m.RecordCacheOperation(false, time.Millisecond)
	m.ObserveRanking(3, 2*time.Millisecond)
	m.RecordAssignment(AssignmentOutcomeCreated)
	m.RecordAssignment(AssignmentOutcomeConflict)

	snap := m.Snapshot()
	assert.Equal(t, 0.5, snap.CacheHitRatio)
	assert.Equal(t, uint64(1), snap.RankingsTotal)
	assert.Equal(t, uint64(1), snap.AssignmentsCreated)
	assert.Equal(t, uint64(1), snap.AssignmentConflicts)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), `substitution_assignments_total{outcome="conflict"} 1`))
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService
	m.ObserveRanking(1, time.Millisecond)
	m.RecordAssignment(AssignmentOutcomeCreated)
	assert.Equal(t, uint64(0), m.Snapshot().RankingsTotal)
}
