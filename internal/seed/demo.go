// Package seed holds the demo reference data the dashboard boots with.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/andresuchdata/battery-scm/backend-go/internal/domain"
	"github.com/andresuchdata/battery-scm/backend-go/internal/repository"
	"github.com/andresuchdata/battery-scm/backend-go/pkg/apperror"
	"github.com/shopspring/decimal"
)

// Dataset is a full set of records to load into a store.
type Dataset struct {
	Materials   []domain.Material
	BOMs        []domain.BOM
	Orders      []domain.Order
	Productions []domain.Production
}

// Demo returns the battery plant demo data. Dates are relative to today.
func Demo(today time.Time) Dataset {
	day := func(offset int) time.Time {
		return today.AddDate(0, 0, offset)
	}

	return Dataset{
		Materials: []domain.Material{
			{Code: "CELL-001", Name: "21700 NMC cell", Unit: "ea", MinStock: 10000, CurrentStock: 15000, UnitPrice: decimal.RequireFromString("3.20"), Supplier: "Hanra Cell Co.", LeadTimeDays: 14},
			{Code: "CELL-002", Name: "LFP prismatic cell 280Ah", Unit: "ea", MinStock: 2000, CurrentStock: 4000, UnitPrice: decimal.RequireFromString("18.00"), Supplier: "Ningde Prismatic", LeadTimeDays: 20},
			{Code: "BMS-001", Name: "Battery management board", Unit: "ea", MinStock: 200, CurrentStock: 350, UnitPrice: decimal.RequireFromString("45.00"), Supplier: "Volt Controls", LeadTimeDays: 21},
			{Code: "CASE-001", Name: "Aluminium pack housing", Unit: "ea", MinStock: 100, CurrentStock: 180, UnitPrice: decimal.RequireFromString("60.00"), Supplier: "Alucast Industries", LeadTimeDays: 10},
			{Code: "WIRE-001", Name: "Busbar and harness kit", Unit: "set", MinStock: 300, CurrentStock: 500, UnitPrice: decimal.RequireFromString("12.50"), Supplier: "Linkwire", LeadTimeDays: 7},
			{Code: "COOL-001", Name: "Liquid cooling plate", Unit: "ea", MinStock: 100, CurrentStock: 90, UnitPrice: decimal.RequireFromString("38.00"), Supplier: "Thermaflow", LeadTimeDays: 18},
		},
		BOMs: []domain.BOM{
			{ProductCode: "EV-100", ProductName: "EV pack 100 kWh", Lines: []domain.BOMLine{
				{MaterialCode: "CELL-001", QuantityPerUnit: 150},
				{MaterialCode: "BMS-001", QuantityPerUnit: 1},
				{MaterialCode: "CASE-001", QuantityPerUnit: 1},
				{MaterialCode: "WIRE-001", QuantityPerUnit: 2},
				{MaterialCode: "COOL-001", QuantityPerUnit: 2},
			}},
			{ProductCode: "ESS-200", ProductName: "Stationary storage rack 200 kWh", Lines: []domain.BOMLine{
				{MaterialCode: "CELL-002", QuantityPerUnit: 16},
				{MaterialCode: "BMS-001", QuantityPerUnit: 1},
				{MaterialCode: "CASE-001", QuantityPerUnit: 1},
				{MaterialCode: "WIRE-001", QuantityPerUnit: 1},
			}},
			{ProductCode: "EB-050", ProductName: "E-bike pack 0.5 kWh", Lines: []domain.BOMLine{
				{MaterialCode: "CELL-001", QuantityPerUnit: 40},
				{MaterialCode: "BMS-001", QuantityPerUnit: 1},
				{MaterialCode: "WIRE-001", QuantityPerUnit: 1},
			}},
		},
		Orders: []domain.Order{
			{ID: "ORD-001", Customer: "Hyundai Mobility", ProductCode: "EV-100", Category: "ev", PredictedQuantity: 100, ConfirmedQuantity: 120, UnitPrice: decimal.RequireFromString("9800.00"), Status: domain.OrderApproved, CreatedAt: day(-10)},
			{ID: "ORD-002", Customer: "GridStore Energy", ProductCode: "ESS-200", Category: "ess", PredictedQuantity: 80, ConfirmedQuantity: 80, UnitPrice: decimal.RequireFromString("21500.00"), Status: domain.OrderInProduction, CreatedAt: day(-20)},
			{ID: "ORD-003", Customer: "Urban Cycle", ProductCode: "EB-050", Category: "micromobility", PredictedQuantity: 300, UnitPrice: decimal.RequireFromString("310.00"), Status: domain.OrderPredicted, CreatedAt: day(-2)},
			{ID: "ORD-004", Customer: "Hyundai Mobility", ProductCode: "EV-100", Category: "ev", PredictedQuantity: 60, ConfirmedQuantity: 60, UnitPrice: decimal.RequireFromString("9800.00"), Status: domain.OrderDelivered, CreatedAt: day(-60)},
		},
		Productions: []domain.Production{
			{ID: "PRD-001", OrderID: "ORD-001", Line: "LINE-A", PlannedQuantity: 120, Status: domain.ProductionPlanned, PlannedStart: day(3), CreatedAt: day(-9)},
			{ID: "PRD-002", OrderID: "ORD-002", Line: "LINE-B", PlannedQuantity: 80, Status: domain.ProductionInProgress, PlannedStart: day(-5), CreatedAt: day(-18)},
			{ID: "PRD-003", OrderID: "ORD-004", Line: "LINE-A", PlannedQuantity: 60, InspectedQuantity: 60, Status: domain.ProductionInspected, PlannedStart: day(-45), CreatedAt: day(-58)},
		},
	}
}

// Apply writes the dataset into store. Records that already exist are left
// alone, so applying twice is harmless.
func Apply(ctx context.Context, store repository.Store, d Dataset) error {
	for i := range d.Materials {
		if err := ignoreConflict(store.CreateMaterial(ctx, &d.Materials[i])); err != nil {
			return fmt.Errorf("seed material %s: %w", d.Materials[i].Code, err)
		}
	}
	for i := range d.BOMs {
		if err := ignoreConflict(store.CreateBOM(ctx, &d.BOMs[i])); err != nil {
			return fmt.Errorf("seed bom %s: %w", d.BOMs[i].ProductCode, err)
		}
	}
	for i := range d.Orders {
		if err := ignoreConflict(store.CreateOrder(ctx, &d.Orders[i])); err != nil {
			return fmt.Errorf("seed order %s: %w", d.Orders[i].ID, err)
		}
	}
	for i := range d.Productions {
		if err := ignoreConflict(store.CreateProduction(ctx, &d.Productions[i])); err != nil {
			return fmt.Errorf("seed production %s: %w", d.Productions[i].ID, err)
		}
	}
	return nil
}

func ignoreConflict(err error) error {
	if appErr, ok := apperror.As(err); ok && appErr.Code == apperror.CodeConflict {
		return nil
	}
	return err
}
