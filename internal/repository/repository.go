// backend-go/internal/repository/repository.go
package repository

import (
	"context"

	"github.com/andresuchdata/battery-scm/backend-go/internal/domain"
)

// Lookups return (nil, nil) when the record does not exist. Callers decide
// whether a miss is an error.

type MaterialRepository interface {
	ListMaterials(ctx context.Context) ([]domain.Material, error)
	GetMaterial(ctx context.Context, code string) (*domain.Material, error)
	CreateMaterial(ctx context.Context, material *domain.Material) error
	UpdateMaterial(ctx context.Context, material *domain.Material) error

	// AdjustStock adds delta to the material's current stock as one atomic
	// read-modify-write. It refuses to take stock below zero and returns
	// (nil, nil) for an unknown code.
	AdjustStock(ctx context.Context, code string, delta int64) (*domain.StockMovement, error)
}

type BOMRepository interface {
	ListBOMs(ctx context.Context) ([]domain.BOM, error)
	GetBOM(ctx context.Context, productCode string) (*domain.BOM, error)
	CreateBOM(ctx context.Context, bom *domain.BOM) error
}

type ProductionRepository interface {
	// ListProductions returns every production when no status is given.
	ListProductions(ctx context.Context, statuses ...domain.ProductionStatus) ([]domain.Production, error)
	GetProduction(ctx context.Context, id string) (*domain.Production, error)
	CreateProduction(ctx context.Context, production *domain.Production) error

	// TransitionProduction writes production's status and inspected quantity
	// only while the stored status is still from. A stale from yields
	// INVALID_TRANSITION. On success production is refreshed from the store.
	TransitionProduction(ctx context.Context, production *domain.Production, from domain.ProductionStatus) error

	// SetMaterialShortage updates the shortage flag and nothing else.
	SetMaterialShortage(ctx context.Context, id string, shortage bool) error
}

type OrderRepository interface {
	ListOrders(ctx context.Context, statuses ...domain.OrderStatus) ([]domain.Order, error)
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	CreateOrder(ctx context.Context, order *domain.Order) error

	// TransitionOrder writes order's status and confirmed quantity only while
	// the stored status is still from, like TransitionProduction.
	TransitionOrder(ctx context.Context, order *domain.Order, from domain.OrderStatus) error
}

// OrderApprover moves a confirmed order to approved and schedules its
// production in one step. Either both happen or neither does.
type OrderApprover interface {
	ApproveOrder(ctx context.Context, order *domain.Order, production *domain.Production) error
}

// Store is the full storage contract both backends implement.
type Store interface {
	MaterialRepository
	BOMRepository
	ProductionRepository
	OrderRepository
	OrderApprover
}
