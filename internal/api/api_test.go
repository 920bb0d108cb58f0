package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/battery-scm/backend-go/internal/archive"
	"github.com/andresuchdata/battery-scm/backend-go/internal/metrics"
	"github.com/andresuchdata/battery-scm/backend-go/internal/mrp"
	"github.com/andresuchdata/battery-scm/backend-go/internal/repository/memory"
	"github.com/andresuchdata/battery-scm/backend-go/internal/seed"
	"github.com/andresuchdata/battery-scm/backend-go/internal/service"
	"github.com/andresuchdata/battery-scm/backend-go/internal/storage"
)

type errorBody struct {
	Error   string            `json:"error"`
	Code    string            `json:"code"`
	Details map[string]string `json:"details"`
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	clock := time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)
	now := func() time.Time { return clock }
	store := memory.NewStore().WithClock(now)
	require.NoError(t, seed.Apply(context.Background(), store, seed.Demo(time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC))))

	m := metrics.New()
	services := service.New(service.Deps{
		Store:   store,
		Engine:  mrp.NewEngine(store, mrp.WithClock(now), mrp.WithLocation(time.UTC)),
		Runs:    archive.NewRunArchive(storage.NewMemoryStorage(), "runs"),
		Metrics: m,
	})
	return NewRouter(services, []string{"http://dashboard.local"}, m)
}

func do(t *testing.T, r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t)
	w := do(t, r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestGetRequirements(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodGet, "/api/v1/mrp/requirements", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var report struct {
		Requirements []struct {
			Material struct {
				Code string `json:"code"`
			} `json:"material"`
			Required    int64 `json:"required"`
			Shortage    int64 `json:"shortage"`
			OrderNeeded bool  `json:"order_needed"`
		} `json:"requirements"`
		ActiveProductions int `json:"active_productions"`
	}
	decode(t, w, &report)
	assert.Equal(t, 2, report.ActiveProductions)
	require.NotEmpty(t, report.Requirements)
	assert.Equal(t, "CELL-001", report.Requirements[0].Material.Code)
	assert.Equal(t, int64(18000), report.Requirements[0].Required)
	assert.Equal(t, int64(3000), report.Requirements[0].Shortage)
}

func TestGetRequirementsFiltered(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodGet, "/api/v1/mrp/requirements?shortage_only=true&materials=cell-001,COOL-001&materials=BMS-001", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var report struct {
		Requirements []struct {
			Material struct {
				Code string `json:"code"`
			} `json:"material"`
		} `json:"requirements"`
	}
	decode(t, w, &report)
	var codes []string
	for _, req := range report.Requirements {
		codes = append(codes, req.Material.Code)
	}
	assert.Equal(t, []string{"CELL-001", "COOL-001"}, codes)

	w = do(t, r, http.MethodGet, "/api/v1/mrp/requirements?shortage_only=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetProductionRequirements(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodGet, "/api/v1/mrp/productions/PRD-001/requirements", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var res struct {
		ProductionID string `json:"production_id"`
		HasShortage  bool   `json:"has_shortage"`
	}
	decode(t, w, &res)
	assert.Equal(t, "PRD-001", res.ProductionID)
	assert.True(t, res.HasShortage)

	w = do(t, r, http.MethodGet, "/api/v1/mrp/productions/PRD-999/requirements", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	var body errorBody
	decode(t, w, &body)
	assert.Equal(t, "RESOURCE_NOT_FOUND", body.Code)
	assert.Equal(t, "production", body.Details["resource"])
	assert.Equal(t, "PRD-999", body.Details["id"])
}

func TestConfirmMaterialOrders(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/api/v1/mrp/orders", gin.H{"lines": []gin.H{
		{"material_code": "CELL-001", "order_quantity": 3000},
		{"material_code": "XX-999", "order_quantity": 10},
		{"material_code": "BMS-001", "order_quantity": 0},
	}})
	require.Equal(t, http.StatusOK, w.Code)

	var out struct {
		Results []struct {
			MaterialCode string `json:"material_code"`
			NewStock     int64  `json:"new_stock"`
		} `json:"results"`
		Rejected []struct {
			MaterialCode string `json:"material_code"`
			Reason       string `json:"reason"`
		} `json:"rejected"`
	}
	decode(t, w, &out)
	require.Len(t, out.Results, 1)
	assert.Equal(t, int64(18000), out.Results[0].NewStock)
	require.Len(t, out.Rejected, 2)
	assert.Equal(t, "material_not_found", out.Rejected[0].Reason)
	assert.Equal(t, "invalid_quantity", out.Rejected[1].Reason)

	// Shortage on CELL-001 is covered now.
	w = do(t, r, http.MethodGet, "/api/v1/mrp/requirements?materials=CELL-001", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"shortage":0`)
}

func TestConfirmMaterialOrdersValidation(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/api/v1/mrp/orders", gin.H{"lines": []gin.H{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/api/v1/mrp/orders", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConfirmMaterialOrders_MalformedCodeRejectsOnlyItsLine(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/api/v1/mrp/orders", gin.H{"lines": []gin.H{
		{"material_code": "cell 001", "order_quantity": 5},
		{"material_code": "CASE-001", "order_quantity": 20},
	}})
	require.Equal(t, http.StatusOK, w.Code)

	var out struct {
		Results []struct {
			MaterialCode string `json:"material_code"`
		} `json:"results"`
		Rejected []struct {
			MaterialCode string `json:"material_code"`
			Reason       string `json:"reason"`
		} `json:"rejected"`
	}
	decode(t, w, &out)
	require.Len(t, out.Results, 1)
	assert.Equal(t, "CASE-001", out.Results[0].MaterialCode)
	require.Len(t, out.Rejected, 1)
	assert.Equal(t, "cell 001", out.Rejected[0].MaterialCode)
	assert.Equal(t, "material_not_found", out.Rejected[0].Reason)
}

func TestRuns(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/api/v1/mrp/runs", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var run struct {
		ID        string `json:"id"`
		Shortages int    `json:"shortages"`
	}
	decode(t, w, &run)
	require.NotEmpty(t, run.ID)
	assert.Equal(t, 3, run.Shortages)

	w = do(t, r, http.MethodGet, "/api/v1/mrp/runs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), run.ID)

	w = do(t, r, http.MethodGet, "/api/v1/mrp/runs/"+run.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodGet, "/api/v1/mrp/runs/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMaterials(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodGet, "/api/v1/materials/low-stock", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var low struct {
		Materials []struct {
			Code string `json:"code"`
		} `json:"materials"`
	}
	decode(t, w, &low)
	require.Len(t, low.Materials, 1)
	assert.Equal(t, "COOL-001", low.Materials[0].Code)

	w = do(t, r, http.MethodGet, "/api/v1/materials/BMS-001", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodGet, "/api/v1/materials/bms", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodGet, "/api/v1/materials/NOPE-1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStockMovements(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/api/v1/materials/COOL-001/receipts", gin.H{"quantity": 60})
	require.Equal(t, http.StatusOK, w.Code)
	var movement struct {
		PreviousStock int64 `json:"previous_stock"`
		NewStock      int64 `json:"new_stock"`
	}
	decode(t, w, &movement)
	assert.Equal(t, int64(90), movement.PreviousStock)
	assert.Equal(t, int64(150), movement.NewStock)

	w = do(t, r, http.MethodPost, "/api/v1/materials/COOL-001/issues", gin.H{"quantity": 1000})
	require.Equal(t, http.StatusConflict, w.Code)
	var body errorBody
	decode(t, w, &body)
	assert.Equal(t, "INSUFFICIENT_STOCK", body.Code)

	w = do(t, r, http.MethodPost, "/api/v1/materials/COOL-001/issues", gin.H{"quantity": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBOMs(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodGet, "/api/v1/boms", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ESS-200")

	w = do(t, r, http.MethodGet, "/api/v1/boms/EV-100", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodGet, "/api/v1/boms/XX-1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOrderFlow(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/api/v1/orders", gin.H{
		"customer":           "Volta Buses",
		"product_code":       "EV-100",
		"category":           "ev",
		"predicted_quantity": 10,
		"unit_price":         "9500.00",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var order struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	decode(t, w, &order)
	assert.Equal(t, "predicted", order.Status)

	// Skipping confirmed is rejected.
	w = do(t, r, http.MethodPost, "/api/v1/orders/"+order.ID+"/transition", gin.H{"status": "approved"})
	require.Equal(t, http.StatusConflict, w.Code)
	var body errorBody
	decode(t, w, &body)
	assert.Equal(t, "INVALID_TRANSITION", body.Code)

	w = do(t, r, http.MethodPost, "/api/v1/orders/"+order.ID+"/confirm", gin.H{"confirmed_quantity": 12})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodPost, "/api/v1/orders/"+order.ID+"/transition", gin.H{"status": "approved", "line": "LINE-C"})
	require.Equal(t, http.StatusOK, w.Code)
	var res struct {
		Order struct {
			Status string `json:"status"`
		} `json:"order"`
		Production struct {
			ID              string `json:"id"`
			Line            string `json:"line"`
			PlannedQuantity int64  `json:"planned_quantity"`
			Status          string `json:"status"`
		} `json:"production"`
	}
	decode(t, w, &res)
	assert.Equal(t, "approved", res.Order.Status)
	assert.Equal(t, "LINE-C", res.Production.Line)
	assert.Equal(t, int64(12), res.Production.PlannedQuantity)
	assert.Equal(t, "planned", res.Production.Status)

	w = do(t, r, http.MethodGet, "/api/v1/orders?status=approved", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), order.ID)

	w = do(t, r, http.MethodGet, "/api/v1/orders?status=lost", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateOrderValidation(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/api/v1/orders", gin.H{
		"customer":           "Volta Buses",
		"product_code":       "ev100",
		"predicted_quantity": 0,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	var body errorBody
	decode(t, w, &body)
	assert.Equal(t, "VALIDATION_ERROR", body.Code)
	assert.Contains(t, body.Details, "product_code")
	assert.Contains(t, body.Details, "predicted_quantity")
}

func TestProductionFlow(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/api/v1/productions/PRD-001/transition", gin.H{"status": "in_progress"})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodGet, "/api/v1/orders/ORD-001", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"in_production"`)

	w = do(t, r, http.MethodPost, "/api/v1/productions/PRD-001/transition", gin.H{"status": "inspected"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, r, http.MethodPost, "/api/v1/productions/PRD-001/transition", gin.H{"status": "completed"})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodPost, "/api/v1/productions/PRD-001/transition", gin.H{"status": "inspected"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/api/v1/productions/PRD-001/transition", gin.H{"status": "inspected", "inspected_quantity": 118})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"inspected_quantity":118`)

	w = do(t, r, http.MethodGet, "/api/v1/productions?status=planned,in_progress", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "PRD-001")
	assert.Contains(t, w.Body.String(), "PRD-002")
}

func TestCreateProduction(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/api/v1/productions", gin.H{
		"order_id":      "ORD-003",
		"planned_start": "2026-10-20T00:00:00Z",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var p struct {
		Line            string `json:"line"`
		PlannedQuantity int64  `json:"planned_quantity"`
	}
	decode(t, w, &p)
	assert.Equal(t, "LINE-1", p.Line)
	assert.Equal(t, int64(300), p.PlannedQuantity)

	w = do(t, r, http.MethodPost, "/api/v1/productions", gin.H{
		"order_id":      "ORD-999",
		"planned_start": "2026-10-20T00:00:00Z",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, http.MethodGet, "/api/v1/productions/PRD-404", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	r := newTestRouter(t)

	do(t, r, http.MethodGet, "/api/v1/materials", nil)
	w := do(t, r, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "battery_scm_http_requests_total")
	assert.Contains(t, w.Body.String(), `path="/api/v1/materials"`)
}

func TestCORS(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/materials", nil)
	req.Header.Set("Origin", "http://dashboard.local")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "http://dashboard.local", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestNormalizeAllowedOrigins(t *testing.T) {
	origins, allowAll := normalizeAllowedOrigins([]string{"http://a.local, http://b.local", " ", "http://c.local"})
	assert.Equal(t, []string{"http://a.local", "http://b.local", "http://c.local"}, origins)
	assert.False(t, allowAll)

	origins, allowAll = normalizeAllowedOrigins([]string{"*"})
	assert.Empty(t, origins)
	assert.True(t, allowAll)
}

func TestGzipResponses(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/mrp/requirements", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.NotEqual(t, "gzip", w.Header().Get("Content-Encoding"))
}
