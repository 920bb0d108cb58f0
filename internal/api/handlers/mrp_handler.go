package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/battery-scm/backend-go/internal/api/middleware"
	"github.com/andresuchdata/battery-scm/backend-go/internal/domain"
	"github.com/andresuchdata/battery-scm/backend-go/internal/service"
	"github.com/andresuchdata/battery-scm/backend-go/pkg/apperror"
)

type MRPHandler struct {
	service *service.MRPService
}

func NewMRPHandler(svc *service.MRPService) *MRPHandler {
	return &MRPHandler{service: svc}
}

type idURI struct {
	ID string `uri:"id" binding:"required"`
}

type confirmOrdersRequest struct {
	Lines []materialOrderLine `json:"lines" binding:"required"`
}

// Lines are checked by the engine so one bad code is rejected on its own
// instead of failing the whole batch.
type materialOrderLine struct {
	MaterialCode  string `json:"material_code"`
	OrderQuantity int64  `json:"order_quantity"`
}

// GetRequirements serves the bulk report. Supports ?shortage_only=true and
// ?materials=A,B.
func (h *MRPHandler) GetRequirements(c *gin.Context) {
	filter := domain.RequirementsFilter{MaterialCodes: queryList(c, "materials")}
	if raw := c.Query("shortage_only"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			errorResponse(c, apperror.Validation("shortage_only must be a boolean").WithDetail("shortage_only", raw))
			return
		}
		filter.ShortageOnly = v
	}
	for i, code := range filter.MaterialCodes {
		filter.MaterialCodes[i] = strings.ToUpper(code)
	}

	report, err := h.service.GetRequirements(c.Request.Context(), filter)
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *MRPHandler) GetProductionRequirements(c *gin.Context) {
	var uri idURI
	if err := middleware.BindURI(c, &uri); err != nil {
		errorResponse(c, err)
		return
	}

	res, err := h.service.GetProductionRequirements(c.Request.Context(), uri.ID)
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ConfirmOrders receives purchase lines. Bad lines are reported as rejected
// in the body, not as a request error.
func (h *MRPHandler) ConfirmOrders(c *gin.Context) {
	var req confirmOrdersRequest
	if err := middleware.BindJSON(c, &req); err != nil {
		errorResponse(c, err)
		return
	}

	lines := make([]domain.MaterialOrderLine, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, domain.MaterialOrderLine{MaterialCode: l.MaterialCode, OrderQuantity: l.OrderQuantity})
	}

	out, err := h.service.ConfirmMaterialOrders(c.Request.Context(), lines)
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *MRPHandler) CreateRun(c *gin.Context) {
	run, err := h.service.CreateRun(c.Request.Context())
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusCreated, run)
}

func (h *MRPHandler) ListRuns(c *gin.Context) {
	runs, err := h.service.ListRuns(c.Request.Context())
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func (h *MRPHandler) GetRun(c *gin.Context) {
	var uri idURI
	if err := middleware.BindURI(c, &uri); err != nil {
		errorResponse(c, err)
		return
	}

	run, err := h.service.GetRun(c.Request.Context(), uri.ID)
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, run)
}
