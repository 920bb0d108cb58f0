// Package mrp explodes active production through single-level BOMs into
// per-material demand and compares it with stock on hand.
package mrp

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/andresuchdata/battery-scm/backend-go/internal/domain"
	"github.com/andresuchdata/battery-scm/backend-go/internal/repository"
	"github.com/andresuchdata/battery-scm/backend-go/pkg/apperror"
)

// Engine implements the MRP calculations over the storage contract.
type Engine struct {
	materials   repository.MaterialRepository
	boms        repository.BOMRepository
	productions repository.ProductionRepository
	orders      repository.OrderRepository

	now func() time.Time
	loc *time.Location
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the time source used for "today".
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLocation sets the zone days are counted in.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// NewEngine creates an engine reading from store.
func NewEngine(store repository.Store, opts ...Option) *Engine {
	e := &Engine{
		materials:   store,
		boms:        store,
		productions: store,
		orders:      store,
		now:         time.Now,
		loc:         time.Local,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Today is midnight of the current day in the engine's location.
func (e *Engine) Today() time.Time {
	t := e.now().In(e.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, e.loc)
}

type snapshot struct {
	materials   []domain.Material
	productions []domain.Production
	orders      map[string]domain.Order
	boms        map[string]domain.BOM
}

// load reads the four inputs concurrently.
func (e *Engine) load(ctx context.Context) (*snapshot, error) {
	var (
		snap     snapshot
		orders   []domain.Order
		bomsList []domain.BOM
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snap.materials, err = e.materials.ListMaterials(gctx)
		if err != nil {
			return fmt.Errorf("list materials: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		snap.productions, err = e.productions.ListProductions(gctx, domain.ActiveProductionStatuses...)
		if err != nil {
			return fmt.Errorf("list productions: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		orders, err = e.orders.ListOrders(gctx)
		if err != nil {
			return fmt.Errorf("list orders: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		bomsList, err = e.boms.ListBOMs(gctx)
		if err != nil {
			return fmt.Errorf("list boms: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap.orders = make(map[string]domain.Order, len(orders))
	for _, o := range orders {
		snap.orders[o.ID] = o
	}
	snap.boms = make(map[string]domain.BOM, len(bomsList))
	for _, b := range bomsList {
		snap.boms[b.ProductCode] = b
	}
	return &snap, nil
}

// CalculateRequirements aggregates BOM demand over every planned or
// in-progress production. Missing orders, BOMs and materials contribute
// nothing and are listed in the report's Issues. Only storage errors are
// returned.
func (e *Engine) CalculateRequirements(ctx context.Context) (*domain.RequirementsReport, error) {
	snap, err := e.load(ctx)
	if err != nil {
		return nil, err
	}

	known := make(map[string]struct{}, len(snap.materials))
	for _, m := range snap.materials {
		known[m.Code] = struct{}{}
	}

	report := &domain.RequirementsReport{
		Requirements: make([]domain.MaterialRequirement, 0, len(snap.materials)),
		Issues:       []domain.DataIssue{},
		CalculatedAt: e.now(),
	}

	required := make(map[string]int64)
	for _, p := range snap.productions {
		// ListProductions already filters, but a store that ignores the
		// filter must not leak terminal demand into the totals.
		if !p.Active() {
			continue
		}
		report.ActiveProductions++

		order, ok := snap.orders[p.OrderID]
		if !ok {
			report.Issues = append(report.Issues, domain.DataIssue{
				ProductionID: p.ID,
				OrderID:      p.OrderID,
				Reason:       domain.IssueOrderNotFound,
			})
			continue
		}
		bom, ok := snap.boms[order.ProductCode]
		if !ok {
			report.Issues = append(report.Issues, domain.DataIssue{
				ProductionID: p.ID,
				OrderID:      order.ID,
				ProductCode:  order.ProductCode,
				Reason:       domain.IssueBOMNotFound,
			})
			continue
		}
		for _, line := range bom.Lines {
			if _, ok := known[line.MaterialCode]; !ok {
				report.Issues = append(report.Issues, domain.DataIssue{
					ProductionID: p.ID,
					OrderID:      order.ID,
					ProductCode:  order.ProductCode,
					MaterialCode: line.MaterialCode,
					Reason:       domain.IssueMaterialNotFound,
				})
				continue
			}
			required[line.MaterialCode] += line.QuantityPerUnit * p.PlannedQuantity
		}
	}

	for _, m := range snap.materials {
		req := required[m.Code]
		shortage := shortfall(req, m.CurrentStock)
		report.Requirements = append(report.Requirements, domain.MaterialRequirement{
			Material:    m,
			Required:    req,
			Available:   m.CurrentStock,
			Shortage:    shortage,
			OrderNeeded: shortage > 0,
		})
	}
	return report, nil
}

// CalculateForProduction breaks down the material needs of one production
// and stores the resulting shortage flag on it.
func (e *Engine) CalculateForProduction(ctx context.Context, productionID string) (*domain.ProductionRequirements, error) {
	production, err := e.productions.GetProduction(ctx, productionID)
	if err != nil {
		return nil, fmt.Errorf("get production %s: %w", productionID, err)
	}
	if production == nil {
		return nil, apperror.NotFound("production", productionID)
	}

	order, err := e.orders.GetOrder(ctx, production.OrderID)
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w", production.OrderID, err)
	}
	if order == nil {
		return nil, apperror.NotFound("order", production.OrderID)
	}

	bom, err := e.boms.GetBOM(ctx, order.ProductCode)
	if err != nil {
		return nil, fmt.Errorf("get bom %s: %w", order.ProductCode, err)
	}
	if bom == nil {
		return nil, apperror.NotFound("bom", order.ProductCode)
	}

	result := &domain.ProductionRequirements{
		ProductionID:      production.ID,
		OrderID:           order.ID,
		ProductCode:       bom.ProductCode,
		ProductName:       bom.ProductName,
		PlannedQuantity:   production.PlannedQuantity,
		Requirements:      make([]domain.ProductionRequirementLine, 0, len(bom.Lines)),
		TotalShortageCost: decimal.Zero,
	}

	for _, line := range bom.Lines {
		material, err := e.materials.GetMaterial(ctx, line.MaterialCode)
		if err != nil {
			return nil, fmt.Errorf("get material %s: %w", line.MaterialCode, err)
		}

		row := domain.ProductionRequirementLine{
			MaterialCode:    line.MaterialCode,
			QuantityPerUnit: line.QuantityPerUnit,
			Required:        line.QuantityPerUnit * production.PlannedQuantity,
			UnitPrice:       decimal.Zero,
		}
		if material == nil {
			row.MaterialMissing = true
		} else {
			row.MaterialName = material.Name
			row.Unit = material.Unit
			row.CurrentStock = material.CurrentStock
			row.UnitPrice = material.UnitPrice
			row.Supplier = material.Supplier
			row.LeadTimeDays = material.LeadTimeDays
		}
		row.Shortage = shortfall(row.Required, row.CurrentStock)
		row.TotalCost = row.UnitPrice.Mul(decimal.NewFromInt(row.Shortage))

		if row.Shortage > 0 {
			result.HasShortage = true
			if row.LeadTimeDays > result.MaxLeadTimeDays {
				result.MaxLeadTimeDays = row.LeadTimeDays
			}
			result.TotalShortageCost = result.TotalShortageCost.Add(row.TotalCost)
		}
		result.Requirements = append(result.Requirements, row)
	}

	if result.HasShortage {
		result.EstimatedProductionStart = e.Today().AddDate(0, 0, result.MaxLeadTimeDays)
	} else {
		result.EstimatedProductionStart = production.PlannedStart
	}

	if err := e.productions.SetMaterialShortage(ctx, production.ID, result.HasShortage); err != nil {
		return nil, fmt.Errorf("flag production %s: %w", production.ID, err)
	}
	return result, nil
}

// ConfirmMaterialOrders receives each purchase line into stock. Lines with a
// non-positive quantity or an unknown material are rejected; the rest are
// applied independently. A storage error stops the batch and is returned
// together with the lines already applied.
func (e *Engine) ConfirmMaterialOrders(ctx context.Context, lines []domain.MaterialOrderLine) (*domain.MaterialOrderConfirmation, error) {
	if len(lines) == 0 {
		return nil, apperror.Validation("at least one material order line is required")
	}

	today := e.Today()
	out := &domain.MaterialOrderConfirmation{
		Results:  make([]domain.MaterialOrderResult, 0, len(lines)),
		Rejected: []domain.RejectedOrderLine{},
	}

	for _, line := range lines {
		if line.OrderQuantity <= 0 {
			out.Rejected = append(out.Rejected, reject(line, domain.RejectInvalidQuantity))
			continue
		}

		material, err := e.materials.GetMaterial(ctx, line.MaterialCode)
		if err != nil {
			return out, fmt.Errorf("get material %s: %w", line.MaterialCode, err)
		}
		if material == nil {
			out.Rejected = append(out.Rejected, reject(line, domain.RejectMaterialNotFound))
			continue
		}

		movement, err := e.materials.AdjustStock(ctx, line.MaterialCode, line.OrderQuantity)
		if err != nil {
			return out, fmt.Errorf("adjust stock %s: %w", line.MaterialCode, err)
		}
		if movement == nil {
			out.Rejected = append(out.Rejected, reject(line, domain.RejectMaterialNotFound))
			continue
		}

		out.Results = append(out.Results, domain.MaterialOrderResult{
			MaterialCode:    line.MaterialCode,
			PreviousStock:   movement.PreviousStock,
			OrderedQuantity: line.OrderQuantity,
			NewStock:        movement.NewStock,
			LeadTimeDays:    material.LeadTimeDays,
			ExpectedArrival: today.AddDate(0, 0, material.LeadTimeDays),
		})
	}
	return out, nil
}

func reject(line domain.MaterialOrderLine, reason string) domain.RejectedOrderLine {
	return domain.RejectedOrderLine{
		MaterialCode:  line.MaterialCode,
		OrderQuantity: line.OrderQuantity,
		Reason:        reason,
	}
}

func shortfall(required, available int64) int64 {
	if required > available {
		return required - available
	}
	return 0
}
