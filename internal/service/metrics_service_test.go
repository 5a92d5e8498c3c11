package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsServiceTimetableCollectors(t *testing.T) {
	metrics := NewMetricsService()

	metrics.ObserveGeneration("success", 4, 1, 20*time.Millisecond)
	metrics.ObserveGeneration("success", 2, 0, 10*time.Millisecond)
	metrics.RecordManualConflict("teacher")
	metrics.RecordManualConflict("teacher")
	metrics.RecordAuditConflicts(0)
	metrics.RecordAuditConflicts(3)

	assert.Equal(t, 6.0, testutil.ToFloat64(metrics.periodsPlaced))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.periodsSkipped))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.manualConflicts.WithLabelValues("teacher")))
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.auditConflicts))

	w := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "timetable_periods_placed_total")
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var metrics *MetricsService
	assert.NotPanics(t, func() {
		metrics.ObserveHTTPRequest("GET", "/", 200, time.Millisecond)
		metrics.RecordCacheOperation(true, time.Millisecond)
		metrics.ObserveGeneration("error", 0, 0, time.Millisecond)
		metrics.RecordManualConflict("class")
		metrics.RecordAuditConflicts(1)
	})
}
