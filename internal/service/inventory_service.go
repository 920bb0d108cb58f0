package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/battery-scm/backend-go/internal/cache"
	"github.com/andresuchdata/battery-scm/backend-go/internal/domain"
	"github.com/andresuchdata/battery-scm/backend-go/internal/metrics"
	"github.com/andresuchdata/battery-scm/backend-go/internal/repository"
	"github.com/andresuchdata/battery-scm/backend-go/pkg/apperror"
)

// Stock adjustment reasons.
const (
	ReasonReceipt = "receipt"
	ReasonIssue   = "issue"
)

// InventoryService covers materials, stock movements and BOM reference data.
type InventoryService struct {
	materials repository.MaterialRepository
	boms      repository.BOMRepository
	cache     cache.RequirementsCache
	metrics   *metrics.Metrics
}

func NewInventoryService(store repository.Store, cacheImpl cache.RequirementsCache, m *metrics.Metrics) *InventoryService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopRequirementsCache()
	}
	return &InventoryService{materials: store, boms: store, cache: cacheImpl, metrics: m}
}

func (s *InventoryService) ListMaterials(ctx context.Context) ([]domain.Material, error) {
	return s.materials.ListMaterials(ctx)
}

func (s *InventoryService) GetMaterial(ctx context.Context, code string) (*domain.Material, error) {
	m, err := s.materials.GetMaterial(ctx, code)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, apperror.NotFound("material", code)
	}
	return m, nil
}

// LowStock lists materials whose stock is under their minimum.
func (s *InventoryService) LowStock(ctx context.Context) ([]domain.Material, error) {
	all, err := s.materials.ListMaterials(ctx)
	if err != nil {
		return nil, err
	}
	low := make([]domain.Material, 0)
	for _, m := range all {
		if m.BelowMinimum() {
			low = append(low, m)
		}
	}
	return low, nil
}

// ReceiveStock adds quantity to a material's stock.
func (s *InventoryService) ReceiveStock(ctx context.Context, code string, quantity int64) (*domain.StockMovement, error) {
	return s.adjust(ctx, code, quantity, ReasonReceipt)
}

// IssueStock removes quantity from a material's stock. It never goes below zero.
func (s *InventoryService) IssueStock(ctx context.Context, code string, quantity int64) (*domain.StockMovement, error) {
	return s.adjust(ctx, code, quantity, ReasonIssue)
}

func (s *InventoryService) adjust(ctx context.Context, code string, quantity int64, reason string) (*domain.StockMovement, error) {
	if quantity <= 0 {
		return nil, apperror.Validation("quantity must be positive").WithDetail("quantity", fmt.Sprint(quantity))
	}
	delta := quantity
	if reason == ReasonIssue {
		delta = -quantity
	}

	movement, err := s.materials.AdjustStock(ctx, code, delta)
	if err == nil && movement == nil {
		err = apperror.NotFound("material", code)
	}
	s.metrics.RecordStockAdjustment(reason, err == nil)
	if err != nil {
		return nil, err
	}

	invalidateRequirements(ctx, s.cache)
	log.Info().
		Str("material_code", code).
		Str("reason", reason).
		Int64("previous_stock", movement.PreviousStock).
		Int64("new_stock", movement.NewStock).
		Msg("inventory: stock adjusted")
	return movement, nil
}

func (s *InventoryService) ListBOMs(ctx context.Context) ([]domain.BOM, error) {
	return s.boms.ListBOMs(ctx)
}

func (s *InventoryService) GetBOM(ctx context.Context, productCode string) (*domain.BOM, error) {
	bom, err := s.boms.GetBOM(ctx, productCode)
	if err != nil {
		return nil, err
	}
	if bom == nil {
		return nil, apperror.NotFound("bom", productCode)
	}
	return bom, nil
}
