package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/andresuchdata/battery-scm/backend-go/internal/api/middleware"
	"github.com/andresuchdata/battery-scm/backend-go/internal/domain"
	"github.com/andresuchdata/battery-scm/backend-go/internal/service"
	"github.com/andresuchdata/battery-scm/backend-go/pkg/apperror"
)

type OrderHandler struct {
	service *service.OrderService
}

func NewOrderHandler(svc *service.OrderService) *OrderHandler {
	return &OrderHandler{service: svc}
}

type createOrderRequest struct {
	Customer          string          `json:"customer" binding:"required,max=200"`
	ProductCode       string          `json:"product_code" binding:"required,item_code"`
	Category          string          `json:"category" binding:"max=100"`
	PredictedQuantity int64           `json:"predicted_quantity" binding:"required,gt=0"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
}

type confirmOrderRequest struct {
	ConfirmedQuantity int64 `json:"confirmed_quantity" binding:"required,gt=0"`
}

type orderTransitionRequest struct {
	Status            string     `json:"status" binding:"required"`
	ConfirmedQuantity int64      `json:"confirmed_quantity" binding:"gte=0"`
	Line              string     `json:"line" binding:"max=50"`
	PlannedStart      *time.Time `json:"planned_start"`
}

// ListOrders supports ?status=approved,in_production.
func (h *OrderHandler) ListOrders(c *gin.Context) {
	var statuses []domain.OrderStatus
	for _, raw := range queryList(c, "status") {
		s, ok := domain.ParseOrderStatus(raw)
		if !ok {
			errorResponse(c, apperror.Validation("unknown order status").WithDetail("status", raw))
			return
		}
		statuses = append(statuses, s)
	}

	orders, err := h.service.List(c.Request.Context(), statuses...)
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := middleware.BindJSON(c, &req); err != nil {
		errorResponse(c, err)
		return
	}

	order, err := h.service.Create(c.Request.Context(), service.CreateOrderInput{
		Customer:          req.Customer,
		ProductCode:       req.ProductCode,
		Category:          req.Category,
		PredictedQuantity: req.PredictedQuantity,
		UnitPrice:         req.UnitPrice,
	})
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	var uri idURI
	if err := middleware.BindURI(c, &uri); err != nil {
		errorResponse(c, err)
		return
	}

	order, err := h.service.Get(c.Request.Context(), uri.ID)
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) ConfirmOrder(c *gin.Context) {
	var uri idURI
	if err := middleware.BindURI(c, &uri); err != nil {
		errorResponse(c, err)
		return
	}
	var req confirmOrderRequest
	if err := middleware.BindJSON(c, &req); err != nil {
		errorResponse(c, err)
		return
	}

	order, err := h.service.Confirm(c.Request.Context(), uri.ID, req.ConfirmedQuantity)
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// TransitionOrder answers 409 INVALID_TRANSITION for anything but the next
// step. Approving returns the planned production alongside the order.
func (h *OrderHandler) TransitionOrder(c *gin.Context) {
	var uri idURI
	if err := middleware.BindURI(c, &uri); err != nil {
		errorResponse(c, err)
		return
	}
	var req orderTransitionRequest
	if err := middleware.BindJSON(c, &req); err != nil {
		errorResponse(c, err)
		return
	}
	status, ok := domain.ParseOrderStatus(req.Status)
	if !ok {
		errorResponse(c, apperror.Validation("unknown order status").WithDetail("status", req.Status))
		return
	}

	res, err := h.service.Transition(c.Request.Context(), uri.ID, service.OrderTransitionInput{
		Status:            status,
		ConfirmedQuantity: req.ConfirmedQuantity,
		Line:              req.Line,
		PlannedStart:      req.PlannedStart,
	})
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
