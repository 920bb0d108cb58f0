package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/battery-scm/backend-go/internal/api/middleware"
	"github.com/andresuchdata/battery-scm/backend-go/internal/domain"
	"github.com/andresuchdata/battery-scm/backend-go/internal/service"
	"github.com/andresuchdata/battery-scm/backend-go/pkg/apperror"
)

type ProductionHandler struct {
	service *service.ProductionService
}

func NewProductionHandler(svc *service.ProductionService) *ProductionHandler {
	return &ProductionHandler{service: svc}
}

type createProductionRequest struct {
	OrderID         string    `json:"order_id" binding:"required"`
	Line            string    `json:"line" binding:"max=50"`
	PlannedQuantity int64     `json:"planned_quantity" binding:"gte=0"`
	PlannedStart    time.Time `json:"planned_start" binding:"required"`
}

type productionTransitionRequest struct {
	Status            string `json:"status" binding:"required"`
	InspectedQuantity *int64 `json:"inspected_quantity"`
}

// ListProductions supports ?status=planned,in_progress.
func (h *ProductionHandler) ListProductions(c *gin.Context) {
	var statuses []domain.ProductionStatus
	for _, raw := range queryList(c, "status") {
		s, ok := domain.ParseProductionStatus(raw)
		if !ok {
			errorResponse(c, apperror.Validation("unknown production status").WithDetail("status", raw))
			return
		}
		statuses = append(statuses, s)
	}

	productions, err := h.service.List(c.Request.Context(), statuses...)
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"productions": productions})
}

func (h *ProductionHandler) CreateProduction(c *gin.Context) {
	var req createProductionRequest
	if err := middleware.BindJSON(c, &req); err != nil {
		errorResponse(c, err)
		return
	}

	production, err := h.service.Create(c.Request.Context(), service.CreateProductionInput{
		OrderID:         req.OrderID,
		Line:            req.Line,
		PlannedQuantity: req.PlannedQuantity,
		PlannedStart:    req.PlannedStart,
	})
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusCreated, production)
}

func (h *ProductionHandler) GetProduction(c *gin.Context) {
	var uri idURI
	if err := middleware.BindURI(c, &uri); err != nil {
		errorResponse(c, err)
		return
	}

	production, err := h.service.Get(c.Request.Context(), uri.ID)
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, production)
}

func (h *ProductionHandler) TransitionProduction(c *gin.Context) {
	var uri idURI
	if err := middleware.BindURI(c, &uri); err != nil {
		errorResponse(c, err)
		return
	}
	var req productionTransitionRequest
	if err := middleware.BindJSON(c, &req); err != nil {
		errorResponse(c, err)
		return
	}
	status, ok := domain.ParseProductionStatus(req.Status)
	if !ok {
		errorResponse(c, apperror.Validation("unknown production status").WithDetail("status", req.Status))
		return
	}

	production, err := h.service.Transition(c.Request.Context(), uri.ID, service.ProductionTransitionInput{
		Status:            status,
		InspectedQuantity: req.InspectedQuantity,
	})
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, production)
}
