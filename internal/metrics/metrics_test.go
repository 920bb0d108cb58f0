package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorders(t *testing.T) {
	m := New()

	m.RecordHTTPRequest("GET", "/api/v1/mrp/requirements", 200, 10*time.Millisecond)
	m.RecordHTTPRequest("GET", "/api/v1/mrp/requirements", 200, 20*time.Millisecond)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/mrp/requirements", "200")))

	m.RecordCalculation("bulk", true, time.Millisecond)
	m.RecordCalculation("production", false, time.Millisecond)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CalculationsTotal.WithLabelValues("bulk", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CalculationsTotal.WithLabelValues("production", "failure")))

	m.SetShortageSnapshot(3, 1)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.MaterialShortages))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DataIssues))

	m.RecordStockAdjustment("receipt", true)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StockAdjustments.WithLabelValues("receipt", "success")))

	m.RecordTransition("order", "approved")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StatusTransitions.WithLabelValues("order", "approved")))

	m.IncrementHTTPRequestsInFlight()
	m.DecrementHTTPRequestsInFlight()
	assert.Equal(t, 0.0, testutil.ToFloat64(m.HTTPRequestsInFlight))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordHTTPRequest("GET", "/", 200, time.Second)
		m.RecordCalculation("bulk", true, time.Second)
		m.SetShortageSnapshot(1, 1)
		m.RecordRunArchived(true)
		m.RecordStockAdjustment("issue", false)
		m.RecordTransition("production", "completed")
		m.IncrementHTTPRequestsInFlight()
		m.DecrementHTTPRequestsInFlight()
	})
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.RecordRunArchived(true)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "battery_scm_mrp_runs_archived_total"))
}
