package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/andresuchdata/battery-scm/backend-go/internal/domain"
	"github.com/andresuchdata/battery-scm/backend-go/internal/repository"
	"github.com/andresuchdata/battery-scm/backend-go/pkg/apperror"
)

// Store keeps every record in insertion order behind one RWMutex. Stock
// adjustments and status transitions check and write under the same write
// lock.
type Store struct {
	mu sync.RWMutex

	materials   []domain.Material
	materialIdx map[string]int

	boms   []domain.BOM
	bomIdx map[string]int

	orders   []domain.Order
	orderIdx map[string]int

	productions   []domain.Production
	productionIdx map[string]int

	now func() time.Time
}

// Verify interface compliance
var _ repository.Store = (*Store)(nil)

// NewStore creates an empty store. Seeding is the caller's job.
func NewStore() *Store {
	return &Store{
		materialIdx:   make(map[string]int),
		bomIdx:        make(map[string]int),
		orderIdx:      make(map[string]int),
		productionIdx: make(map[string]int),
		now:           time.Now,
	}
}

// WithClock overrides the timestamp source, mostly for tests.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Materials

func (s *Store) ListMaterials(ctx context.Context) ([]domain.Material, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Material, len(s.materials))
	copy(out, s.materials)
	return out, nil
}

func (s *Store) GetMaterial(ctx context.Context, code string) (*domain.Material, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.materialIdx[code]
	if !ok {
		return nil, nil
	}
	m := s.materials[i]
	return &m, nil
}

func (s *Store) CreateMaterial(ctx context.Context, material *domain.Material) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.materialIdx[material.Code]; exists {
		return apperror.Conflict(fmt.Sprintf("material %s already exists", material.Code))
	}
	s.materialIdx[material.Code] = len(s.materials)
	s.materials = append(s.materials, *material)
	return nil
}

func (s *Store) UpdateMaterial(ctx context.Context, material *domain.Material) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.materialIdx[material.Code]
	if !ok {
		return apperror.NotFound("material", material.Code)
	}
	s.materials[i] = *material
	return nil
}

func (s *Store) AdjustStock(ctx context.Context, code string, delta int64) (*domain.StockMovement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.materialIdx[code]
	if !ok {
		return nil, nil
	}

	m := &s.materials[i]
	next := m.CurrentStock + delta
	if next < 0 {
		return nil, apperror.InsufficientStock(code, m.CurrentStock, -delta)
	}

	movement := &domain.StockMovement{
		MaterialCode:  code,
		PreviousStock: m.CurrentStock,
		Delta:         delta,
		NewStock:      next,
		RecordedAt:    s.now(),
	}
	m.CurrentStock = next
	return movement, nil
}

// BOMs

func (s *Store) ListBOMs(ctx context.Context) ([]domain.BOM, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.BOM, len(s.boms))
	for i, b := range s.boms {
		out[i] = cloneBOM(b)
	}
	return out, nil
}

func (s *Store) GetBOM(ctx context.Context, productCode string) (*domain.BOM, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.bomIdx[productCode]
	if !ok {
		return nil, nil
	}
	b := cloneBOM(s.boms[i])
	return &b, nil
}

func (s *Store) CreateBOM(ctx context.Context, bom *domain.BOM) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.bomIdx[bom.ProductCode]; exists {
		return apperror.Conflict(fmt.Sprintf("bom for %s already exists", bom.ProductCode))
	}
	s.bomIdx[bom.ProductCode] = len(s.boms)
	s.boms = append(s.boms, cloneBOM(*bom))
	return nil
}

func cloneBOM(b domain.BOM) domain.BOM {
	lines := make([]domain.BOMLine, len(b.Lines))
	copy(lines, b.Lines)
	b.Lines = lines
	return b
}

// Productions

func (s *Store) ListProductions(ctx context.Context, statuses ...domain.ProductionStatus) ([]domain.Production, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Production, 0, len(s.productions))
	for _, p := range s.productions {
		if len(statuses) == 0 || containsStatus(statuses, p.Status) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Store) GetProduction(ctx context.Context, id string) (*domain.Production, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.productionIdx[id]
	if !ok {
		return nil, nil
	}
	p := s.productions[i]
	return &p, nil
}

func (s *Store) CreateProduction(ctx context.Context, production *domain.Production) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.productionIdx[production.ID]; exists {
		return apperror.Conflict(fmt.Sprintf("production %s already exists", production.ID))
	}
	now := s.now()
	if production.CreatedAt.IsZero() {
		production.CreatedAt = now
	}
	production.UpdatedAt = now

	s.productionIdx[production.ID] = len(s.productions)
	s.productions = append(s.productions, *production)
	return nil
}

func (s *Store) TransitionProduction(ctx context.Context, production *domain.Production, from domain.ProductionStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.productionIdx[production.ID]
	if !ok {
		return apperror.NotFound("production", production.ID)
	}
	current := &s.productions[i]
	if current.Status != from {
		return apperror.InvalidTransition("production", string(current.Status), string(production.Status))
	}

	current.Status = production.Status
	current.InspectedQuantity = production.InspectedQuantity
	current.UpdatedAt = s.now()
	*production = *current
	return nil
}

func (s *Store) SetMaterialShortage(ctx context.Context, id string, shortage bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.productionIdx[id]
	if !ok {
		return apperror.NotFound("production", id)
	}
	s.productions[i].MaterialShortage = shortage
	s.productions[i].UpdatedAt = s.now()
	return nil
}

// Orders

func (s *Store) ListOrders(ctx context.Context, statuses ...domain.OrderStatus) ([]domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Order, 0, len(s.orders))
	for _, o := range s.orders {
		if len(statuses) == 0 || containsStatus(statuses, o.Status) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *Store) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.orderIdx[id]
	if !ok {
		return nil, nil
	}
	o := s.orders[i]
	return &o, nil
}

func (s *Store) CreateOrder(ctx context.Context, order *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orderIdx[order.ID]; exists {
		return apperror.Conflict(fmt.Sprintf("order %s already exists", order.ID))
	}
	now := s.now()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now

	s.orderIdx[order.ID] = len(s.orders)
	s.orders = append(s.orders, *order)
	return nil
}

func (s *Store) TransitionOrder(ctx context.Context, order *domain.Order, from domain.OrderStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.transitionOrderLocked(order, from)
}

// ApproveOrder checks both records before touching either, so a refused
// approval leaves the store unchanged.
func (s *Store) ApproveOrder(ctx context.Context, order *domain.Order, production *domain.Production) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.productionIdx[production.ID]; exists {
		return apperror.Conflict(fmt.Sprintf("production %s already exists", production.ID))
	}
	order.Status = domain.OrderApproved
	if err := s.transitionOrderLocked(order, domain.OrderConfirmed); err != nil {
		return err
	}

	now := s.now()
	production.CreatedAt = now
	production.UpdatedAt = now
	s.productionIdx[production.ID] = len(s.productions)
	s.productions = append(s.productions, *production)
	return nil
}

func (s *Store) transitionOrderLocked(order *domain.Order, from domain.OrderStatus) error {
	i, ok := s.orderIdx[order.ID]
	if !ok {
		return apperror.NotFound("order", order.ID)
	}
	current := &s.orders[i]
	if current.Status != from {
		return apperror.InvalidTransition("order", string(current.Status), string(order.Status))
	}

	current.Status = order.Status
	current.ConfirmedQuantity = order.ConfirmedQuantity
	current.UpdatedAt = s.now()
	*order = *current
	return nil
}

func containsStatus[S comparable](statuses []S, s S) bool {
	for _, candidate := range statuses {
		if candidate == s {
			return true
		}
	}
	return false
}
