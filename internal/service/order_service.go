package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/andresuchdata/battery-scm/backend-go/internal/cache"
	"github.com/andresuchdata/battery-scm/backend-go/internal/domain"
	"github.com/andresuchdata/battery-scm/backend-go/internal/metrics"
	"github.com/andresuchdata/battery-scm/backend-go/internal/repository"
	"github.com/andresuchdata/battery-scm/backend-go/pkg/apperror"
)

// DefaultProductionLine is used when an approval does not name a line.
const DefaultProductionLine = "LINE-1"

type CreateOrderInput struct {
	Customer          string
	ProductCode       string
	Category          string
	PredictedQuantity int64
	UnitPrice         decimal.Decimal
}

// OrderTransitionInput moves an order one step. ConfirmedQuantity is read
// when confirming; Line and PlannedStart when approving.
type OrderTransitionInput struct {
	Status            domain.OrderStatus
	ConfirmedQuantity int64
	Line              string
	PlannedStart      *time.Time
}

// OrderTransitionResult carries the production an approval created.
type OrderTransitionResult struct {
	Order      *domain.Order      `json:"order"`
	Production *domain.Production `json:"production,omitempty"`
}

type OrderService struct {
	orders    repository.OrderRepository
	approvals repository.OrderApprover
	boms      repository.BOMRepository
	cache     cache.RequirementsCache
	metrics   *metrics.Metrics
	today     func() time.Time
}

func NewOrderService(store repository.Store, cacheImpl cache.RequirementsCache, m *metrics.Metrics, today func() time.Time) *OrderService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopRequirementsCache()
	}
	if today == nil {
		today = defaultToday
	}
	return &OrderService{
		orders:    store,
		approvals: store,
		boms:      store,
		cache:     cacheImpl,
		metrics:   m,
		today:     today,
	}
}

// Create registers a predicted order for a product that has a BOM.
func (s *OrderService) Create(ctx context.Context, in CreateOrderInput) (*domain.Order, error) {
	if in.PredictedQuantity <= 0 {
		return nil, apperror.Validation("predicted_quantity must be positive")
	}
	if in.UnitPrice.IsNegative() {
		return nil, apperror.Validation("unit_price must not be negative")
	}
	bom, err := s.boms.GetBOM(ctx, in.ProductCode)
	if err != nil {
		return nil, err
	}
	if bom == nil {
		return nil, apperror.NotFound("bom", in.ProductCode)
	}

	order := &domain.Order{
		ID:                newID("ORD"),
		Customer:          in.Customer,
		ProductCode:       in.ProductCode,
		Category:          in.Category,
		PredictedQuantity: in.PredictedQuantity,
		UnitPrice:         in.UnitPrice,
		Status:            domain.OrderPredicted,
	}
	if err := s.orders.CreateOrder(ctx, order); err != nil {
		return nil, err
	}
	log.Info().Str("order_id", order.ID).Str("product_code", order.ProductCode).Msg("orders: order created")
	return order, nil
}

func (s *OrderService) List(ctx context.Context, statuses ...domain.OrderStatus) ([]domain.Order, error) {
	return s.orders.ListOrders(ctx, statuses...)
}

func (s *OrderService) Get(ctx context.Context, id string) (*domain.Order, error) {
	order, err := s.orders.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, apperror.NotFound("order", id)
	}
	return order, nil
}

// Confirm records the customer's confirmed quantity on a predicted order.
func (s *OrderService) Confirm(ctx context.Context, id string, quantity int64) (*domain.Order, error) {
	res, err := s.Transition(ctx, id, OrderTransitionInput{Status: domain.OrderConfirmed, ConfirmedQuantity: quantity})
	if err != nil {
		return nil, err
	}
	return res.Order, nil
}

// Transition moves an order one step along its flow. Approving an order
// schedules a planned production for it. The write only lands if the order
// is still in the status it was read in, so of two racing callers one gets
// INVALID_TRANSITION.
func (s *OrderService) Transition(ctx context.Context, id string, in OrderTransitionInput) (*OrderTransitionResult, error) {
	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	from := order.Status
	if !from.CanTransitionTo(in.Status) {
		return nil, apperror.InvalidTransition("order", string(from), string(in.Status))
	}

	if in.Status == domain.OrderConfirmed {
		qty := in.ConfirmedQuantity
		if qty == 0 {
			qty = order.ConfirmedQuantity
		}
		if qty <= 0 {
			return nil, apperror.Validation("confirmed_quantity must be positive")
		}
		order.ConfirmedQuantity = qty
	}

	result := &OrderTransitionResult{Order: order}
	if in.Status == domain.OrderApproved {
		production := s.planProduction(order, in)
		if err := s.approvals.ApproveOrder(ctx, order, production); err != nil {
			return nil, fmt.Errorf("approve order %s: %w", order.ID, err)
		}
		result.Production = production
		log.Info().
			Str("order_id", order.ID).
			Str("production_id", production.ID).
			Int64("planned_quantity", production.PlannedQuantity).
			Msg("orders: production planned")
		invalidateRequirements(ctx, s.cache)
	} else {
		order.Status = in.Status
		if err := s.orders.TransitionOrder(ctx, order, from); err != nil {
			return nil, fmt.Errorf("update order %s: %w", order.ID, err)
		}
	}
	s.metrics.RecordTransition("order", string(in.Status))

	log.Info().Str("order_id", order.ID).Str("status", string(order.Status)).Msg("orders: status changed")
	return result, nil
}

func (s *OrderService) planProduction(order *domain.Order, in OrderTransitionInput) *domain.Production {
	line := in.Line
	if line == "" {
		line = DefaultProductionLine
	}
	start := s.today().AddDate(0, 0, 1)
	if in.PlannedStart != nil {
		start = *in.PlannedStart
	}

	return &domain.Production{
		ID:              newID("PRD"),
		OrderID:         order.ID,
		Line:            line,
		PlannedQuantity: order.Quantity(),
		Status:          domain.ProductionPlanned,
		PlannedStart:    start,
	}
}
