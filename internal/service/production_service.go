package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/battery-scm/backend-go/internal/cache"
	"github.com/andresuchdata/battery-scm/backend-go/internal/domain"
	"github.com/andresuchdata/battery-scm/backend-go/internal/metrics"
	"github.com/andresuchdata/battery-scm/backend-go/internal/repository"
	"github.com/andresuchdata/battery-scm/backend-go/pkg/apperror"
)

type CreateProductionInput struct {
	OrderID         string
	Line            string
	PlannedQuantity int64
	PlannedStart    time.Time
}

// ProductionTransitionInput moves a production one step. InspectedQuantity
// is required when moving to inspected.
type ProductionTransitionInput struct {
	Status            domain.ProductionStatus
	InspectedQuantity *int64
}

type ProductionService struct {
	productions repository.ProductionRepository
	orders      repository.OrderRepository
	cache       cache.RequirementsCache
	metrics     *metrics.Metrics
}

func NewProductionService(store repository.Store, cacheImpl cache.RequirementsCache, m *metrics.Metrics) *ProductionService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopRequirementsCache()
	}
	return &ProductionService{productions: store, orders: store, cache: cacheImpl, metrics: m}
}

func (s *ProductionService) List(ctx context.Context, statuses ...domain.ProductionStatus) ([]domain.Production, error) {
	return s.productions.ListProductions(ctx, statuses...)
}

func (s *ProductionService) Get(ctx context.Context, id string) (*domain.Production, error) {
	p, err := s.productions.GetProduction(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperror.NotFound("production", id)
	}
	return p, nil
}

// Create schedules a planned production for an existing order. The planned
// quantity defaults to the order's effective quantity.
func (s *ProductionService) Create(ctx context.Context, in CreateProductionInput) (*domain.Production, error) {
	if in.PlannedQuantity < 0 {
		return nil, apperror.Validation("planned_quantity must not be negative")
	}
	order, err := s.orders.GetOrder(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, apperror.NotFound("order", in.OrderID)
	}

	qty := in.PlannedQuantity
	if qty == 0 {
		qty = order.Quantity()
	}
	line := in.Line
	if line == "" {
		line = DefaultProductionLine
	}

	production := &domain.Production{
		ID:              newID("PRD"),
		OrderID:         order.ID,
		Line:            line,
		PlannedQuantity: qty,
		Status:          domain.ProductionPlanned,
		PlannedStart:    in.PlannedStart,
	}
	if err := s.productions.CreateProduction(ctx, production); err != nil {
		return nil, err
	}
	invalidateRequirements(ctx, s.cache)

	log.Info().Str("production_id", production.ID).Str("order_id", order.ID).Msg("production: production created")
	return production, nil
}

// Transition moves a production one step forward. Starting work moves an
// approved order into production; inspection records the inspected output.
func (s *ProductionService) Transition(ctx context.Context, id string, in ProductionTransitionInput) (*domain.Production, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	from := p.Status
	if !from.CanTransitionTo(in.Status) {
		return nil, apperror.InvalidTransition("production", string(from), string(in.Status))
	}

	if in.Status == domain.ProductionInspected {
		if in.InspectedQuantity == nil {
			return nil, apperror.Validation("inspected_quantity is required to mark a production inspected")
		}
		if *in.InspectedQuantity < 0 {
			return nil, apperror.Validation("inspected_quantity must not be negative")
		}
		p.InspectedQuantity = *in.InspectedQuantity
	}

	p.Status = in.Status
	if err := s.productions.TransitionProduction(ctx, p, from); err != nil {
		return nil, fmt.Errorf("update production %s: %w", p.ID, err)
	}
	s.metrics.RecordTransition("production", string(in.Status))

	if in.Status == domain.ProductionInProgress {
		if err := s.startOrder(ctx, p.OrderID); err != nil {
			return nil, err
		}
	}
	invalidateRequirements(ctx, s.cache)

	log.Info().Str("production_id", p.ID).Str("status", string(p.Status)).Msg("production: status changed")
	return p, nil
}

func (s *ProductionService) startOrder(ctx context.Context, orderID string) error {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if order == nil || order.Status != domain.OrderApproved {
		return nil
	}

	order.Status = domain.OrderInProduction
	if err := s.orders.TransitionOrder(ctx, order, domain.OrderApproved); err != nil {
		// Another production of the same order already started it.
		if errors.Is(err, apperror.ErrInvalidTransition) {
			return nil
		}
		return fmt.Errorf("start order %s: %w", order.ID, err)
	}
	s.metrics.RecordTransition("order", string(order.Status))
	return nil
}
