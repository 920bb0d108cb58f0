package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/battery-scm/backend-go/internal/api/middleware"
	"github.com/andresuchdata/battery-scm/backend-go/internal/domain"
	"github.com/andresuchdata/battery-scm/backend-go/internal/service"
)

type MaterialHandler struct {
	service *service.InventoryService
}

func NewMaterialHandler(svc *service.InventoryService) *MaterialHandler {
	return &MaterialHandler{service: svc}
}

type materialURI struct {
	Code string `uri:"code" binding:"required,item_code"`
}

type bomURI struct {
	Product string `uri:"product" binding:"required,item_code"`
}

type stockMovementRequest struct {
	Quantity int64 `json:"quantity" binding:"required,gt=0"`
}

type stockMover func(ctx context.Context, code string, quantity int64) (*domain.StockMovement, error)

func (h *MaterialHandler) ListMaterials(c *gin.Context) {
	materials, err := h.service.ListMaterials(c.Request.Context())
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"materials": materials})
}

func (h *MaterialHandler) LowStock(c *gin.Context) {
	materials, err := h.service.LowStock(c.Request.Context())
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"materials": materials})
}

func (h *MaterialHandler) GetMaterial(c *gin.Context) {
	var uri materialURI
	if err := middleware.BindURI(c, &uri); err != nil {
		errorResponse(c, err)
		return
	}

	material, err := h.service.GetMaterial(c.Request.Context(), uri.Code)
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, material)
}

func (h *MaterialHandler) ReceiveStock(c *gin.Context) {
	h.moveStock(c, h.service.ReceiveStock)
}

// IssueStock answers 409 INSUFFICIENT_STOCK instead of going negative.
func (h *MaterialHandler) IssueStock(c *gin.Context) {
	h.moveStock(c, h.service.IssueStock)
}

func (h *MaterialHandler) moveStock(c *gin.Context, move stockMover) {
	var uri materialURI
	if err := middleware.BindURI(c, &uri); err != nil {
		errorResponse(c, err)
		return
	}
	var req stockMovementRequest
	if err := middleware.BindJSON(c, &req); err != nil {
		errorResponse(c, err)
		return
	}

	movement, err := move(c.Request.Context(), uri.Code, req.Quantity)
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, movement)
}

func (h *MaterialHandler) ListBOMs(c *gin.Context) {
	boms, err := h.service.ListBOMs(c.Request.Context())
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"boms": boms})
}

func (h *MaterialHandler) GetBOM(c *gin.Context) {
	var uri bomURI
	if err := middleware.BindURI(c, &uri); err != nil {
		errorResponse(c, err)
		return
	}

	bom, err := h.service.GetBOM(c.Request.Context(), uri.Product)
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, bom)
}
