package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaterialRequirement is the derived demand for one material across all
// active production. It is recomputed on every request and never stored.
type MaterialRequirement struct {
	Material    Material `json:"material"`
	Required    int64    `json:"required"`
	Available   int64    `json:"available"`
	Shortage    int64    `json:"shortage"`
	OrderNeeded bool     `json:"order_needed"`
}

// Reasons attached to DataIssue.
const (
	IssueOrderNotFound    = "order_not_found"
	IssueBOMNotFound      = "bom_not_found"
	IssueMaterialNotFound = "material_not_found"
)

// DataIssue records reference data the calculation had to skip, so a missing
// BOM shows up as incomplete data rather than as "no shortage".
type DataIssue struct {
	ProductionID string `json:"production_id"`
	OrderID      string `json:"order_id,omitempty"`
	ProductCode  string `json:"product_code,omitempty"`
	MaterialCode string `json:"material_code,omitempty"`
	Reason       string `json:"reason"`
}

// RequirementsReport is the result of a bulk MRP calculation.
type RequirementsReport struct {
	Requirements      []MaterialRequirement `json:"requirements"`
	Issues            []DataIssue           `json:"issues"`
	ActiveProductions int                   `json:"active_productions"`
	CalculatedAt      time.Time             `json:"calculated_at"`
}

// Incomplete reports whether any production was skipped or partially counted.
func (r *RequirementsReport) Incomplete() bool {
	return len(r.Issues) > 0
}

// ShortageCount is the number of materials that need ordering.
func (r *RequirementsReport) ShortageCount() int {
	n := 0
	for _, req := range r.Requirements {
		if req.OrderNeeded {
			n++
		}
	}
	return n
}

// RequirementsFilter narrows the requirement rows of a report. Issues are
// never filtered.
type RequirementsFilter struct {
	ShortageOnly  bool
	MaterialCodes []string
}

// Apply returns a copy of r holding only the matching requirement rows.
func (f RequirementsFilter) Apply(r *RequirementsReport) *RequirementsReport {
	if !f.ShortageOnly && len(f.MaterialCodes) == 0 {
		return r
	}
	wanted := make(map[string]struct{}, len(f.MaterialCodes))
	for _, c := range f.MaterialCodes {
		wanted[c] = struct{}{}
	}

	out := *r
	out.Requirements = make([]MaterialRequirement, 0, len(r.Requirements))
	for _, req := range r.Requirements {
		if f.ShortageOnly && !req.OrderNeeded {
			continue
		}
		if len(wanted) > 0 {
			if _, ok := wanted[req.Material.Code]; !ok {
				continue
			}
		}
		out.Requirements = append(out.Requirements, req)
	}
	return &out
}

// ProductionRequirementLine is one BOM line of a single-production calculation.
type ProductionRequirementLine struct {
	MaterialCode    string          `json:"material_code"`
	MaterialName    string          `json:"material_name"`
	Unit            string          `json:"unit"`
	QuantityPerUnit int64           `json:"quantity_per_unit"`
	Required        int64           `json:"required"`
	CurrentStock    int64           `json:"current_stock"`
	Shortage        int64           `json:"shortage"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	TotalCost       decimal.Decimal `json:"total_cost"`
	Supplier        string          `json:"supplier"`
	LeadTimeDays    int             `json:"lead_time_days"`
	MaterialMissing bool            `json:"material_missing,omitempty"`
}

// ProductionRequirements is the material breakdown of one production order.
type ProductionRequirements struct {
	ProductionID             string                      `json:"production_id"`
	OrderID                  string                      `json:"order_id"`
	ProductCode              string                      `json:"product_code"`
	ProductName              string                      `json:"product_name"`
	PlannedQuantity          int64                       `json:"planned_quantity"`
	Requirements             []ProductionRequirementLine `json:"requirements"`
	HasShortage              bool                        `json:"has_shortage"`
	MaxLeadTimeDays          int                         `json:"max_lead_time_days"`
	EstimatedProductionStart time.Time                   `json:"estimated_production_start"`
	TotalShortageCost        decimal.Decimal             `json:"total_shortage_cost"`
}

// MaterialOrderLine asks for an order quantity of one material.
type MaterialOrderLine struct {
	MaterialCode  string `json:"material_code"`
	OrderQuantity int64  `json:"order_quantity"`
}

// MaterialOrderResult is the outcome of one confirmed purchase line.
type MaterialOrderResult struct {
	MaterialCode    string    `json:"material_code"`
	PreviousStock   int64     `json:"previous_stock"`
	OrderedQuantity int64     `json:"ordered_quantity"`
	NewStock        int64     `json:"new_stock"`
	LeadTimeDays    int       `json:"lead_time_days"`
	ExpectedArrival time.Time `json:"expected_arrival"`
}

// Reasons attached to RejectedOrderLine.
const (
	RejectInvalidQuantity  = "invalid_quantity"
	RejectMaterialNotFound = "material_not_found"
)

// RejectedOrderLine is a line ConfirmMaterialOrders refused to apply.
type RejectedOrderLine struct {
	MaterialCode  string `json:"material_code"`
	OrderQuantity int64  `json:"order_quantity"`
	Reason        string `json:"reason"`
}

// MaterialOrderConfirmation lists applied and rejected lines.
type MaterialOrderConfirmation struct {
	Results  []MaterialOrderResult `json:"results"`
	Rejected []RejectedOrderLine   `json:"rejected"`
}

// StockMovement is the before/after of a single stock adjustment.
type StockMovement struct {
	MaterialCode  string    `json:"material_code"`
	PreviousStock int64     `json:"previous_stock"`
	Delta         int64     `json:"delta"`
	NewStock      int64     `json:"new_stock"`
	RecordedAt    time.Time `json:"recorded_at"`
}

// MRPRun is an archived snapshot of a bulk calculation.
type MRPRun struct {
	ID        string              `json:"id"`
	CreatedAt time.Time           `json:"created_at"`
	Shortages int                 `json:"shortages"`
	Report    *RequirementsReport `json:"report,omitempty"`
}

// MRPRunSummary is an archive listing entry.
type MRPRunSummary struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Size int64  `json:"size"`
}
