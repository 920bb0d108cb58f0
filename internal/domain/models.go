// backend-go/internal/domain/models.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Material is a raw material or purchased component held in stock.
type Material struct {
	Code         string          `json:"code" db:"code"`
	Name         string          `json:"name" db:"name"`
	Unit         string          `json:"unit" db:"unit"`
	MinStock     int64           `json:"min_stock" db:"min_stock"`
	CurrentStock int64           `json:"current_stock" db:"current_stock"`
	UnitPrice    decimal.Decimal `json:"unit_price" db:"unit_price"`
	Supplier     string          `json:"supplier" db:"supplier"`
	LeadTimeDays int             `json:"lead_time_days" db:"lead_time_days"`
}

// BelowMinimum reports whether stock has dropped under the minimum threshold.
func (m Material) BelowMinimum() bool {
	return m.CurrentStock < m.MinStock
}

// BOM is the single-level bill of materials of one finished product.
type BOM struct {
	ProductCode string    `json:"product_code" db:"product_code"`
	ProductName string    `json:"product_name" db:"product_name"`
	Lines       []BOMLine `json:"lines"`
}

// BOMLine is the quantity of one material needed per unit of product.
type BOMLine struct {
	MaterialCode    string `json:"material_code" db:"material_code"`
	QuantityPerUnit int64  `json:"quantity_per_unit" db:"quantity_per_unit"`
}

// Order is a customer order for a finished product.
type Order struct {
	ID                string          `json:"id" db:"id"`
	Customer          string          `json:"customer" db:"customer"`
	ProductCode       string          `json:"product_code" db:"product_code"`
	Category          string          `json:"category" db:"category"`
	PredictedQuantity int64           `json:"predicted_quantity" db:"predicted_quantity"`
	ConfirmedQuantity int64           `json:"confirmed_quantity" db:"confirmed_quantity"`
	UnitPrice         decimal.Decimal `json:"unit_price" db:"unit_price"`
	Status            OrderStatus     `json:"status" db:"status"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at" db:"updated_at"`
}

// Quantity is the confirmed quantity once set, the prediction otherwise.
func (o Order) Quantity() int64 {
	if o.ConfirmedQuantity > 0 {
		return o.ConfirmedQuantity
	}
	return o.PredictedQuantity
}

// Production is a production order scheduled on a line for one customer order.
type Production struct {
	ID                string           `json:"id" db:"id"`
	OrderID           string           `json:"order_id" db:"order_id"`
	Line              string           `json:"line" db:"production_line"`
	PlannedQuantity   int64            `json:"planned_quantity" db:"planned_quantity"`
	InspectedQuantity int64            `json:"inspected_quantity" db:"inspected_quantity"`
	Status            ProductionStatus `json:"status" db:"status"`
	MaterialShortage  bool             `json:"material_shortage" db:"material_shortage"`
	PlannedStart      time.Time        `json:"planned_start" db:"planned_start"`
	CreatedAt         time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at" db:"updated_at"`
}

// Active reports whether the production still draws on material stock.
func (p Production) Active() bool {
	return p.Status.Active()
}
