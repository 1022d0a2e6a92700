package service

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classroom-planner-api/internal/models"
	"github.com/noah-isme/classroom-planner-api/internal/planner"
)

func TestMetricsServiceSnapshot(t *testing.T) {
	metrics := NewMetricsService()

	metrics.ObserveHTTPRequest(http.MethodGet, "/api/v1/schedule", http.StatusOK, 20*time.Millisecond)
	metrics.ObserveHTTPRequest(http.MethodPost, "/api/v1/schedule/assign", http.StatusConflict, 40*time.Millisecond)
	metrics.RecordAssignment("")
	metrics.RecordAssignment(string(planner.ReasonBlockOccupied))
	metrics.RecordAssignment(string(planner.ReasonDurationExceedsBlock))
	metrics.RecordSeatingRun(12)
	metrics.RecordExport(models.ExportStatusFinished)

	snapshot := metrics.Snapshot()
	assert.Equal(t, uint64(2), snapshot.RequestsTotal)
	assert.InDelta(t, 30, snapshot.AverageRequestDurationMs, 0.5)
	assert.Equal(t, uint64(1), snapshot.AssignmentsAccepted)
	assert.Equal(t, uint64(2), snapshot.AssignmentsRejected)
	assert.Equal(t, uint64(1), snapshot.SeatingRuns)
	assert.Greater(t, snapshot.Goroutines, 0)
}

func TestMetricsServiceHandlerExposesPlannerSeries(t *testing.T) {
	metrics := NewMetricsService()
	metrics.RecordAssignment(string(planner.ReasonAlreadyAssignedElsewhere))
	metrics.RecordSeatsFilled(7)

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	text := string(body)
	assert.Contains(t, text, `planner_assignments_total{outcome="AlreadyAssignedElsewhere"} 1`)
	assert.Contains(t, text, "planner_seats_filled 7")
	assert.Contains(t, text, "goroutines_total")
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var metrics *MetricsService
	metrics.RecordAssignment("")
	metrics.RecordSeatingRun(3)
	metrics.RecordExport(models.ExportStatusFailed)
	assert.Equal(t, models.SystemMetrics{}, metrics.Snapshot())
}

func TestMetricsServiceTracksExportQueue(t *testing.T) {
	metrics := NewMetricsService()
	depth := 3
	metrics.TrackExportQueue(func() int { return depth })
	metrics.TrackExportQueue(func() int { return 99 })

	assert.Equal(t, 3, metrics.Snapshot().ExportsQueued)

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "planner_export_queue_depth 3")
}
