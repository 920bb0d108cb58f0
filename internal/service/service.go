package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/battery-scm/backend-go/internal/archive"
	"github.com/andresuchdata/battery-scm/backend-go/internal/cache"
	"github.com/andresuchdata/battery-scm/backend-go/internal/metrics"
	"github.com/andresuchdata/battery-scm/backend-go/internal/mrp"
	"github.com/andresuchdata/battery-scm/backend-go/internal/repository"
)

// Services bundles everything the HTTP layer calls into.
type Services struct {
	MRP        *MRPService
	Inventory  *InventoryService
	Orders     *OrderService
	Production *ProductionService
}

// Deps are the collaborators shared by all services. Cache and Metrics may
// be nil.
type Deps struct {
	Store   repository.Store
	Engine  *mrp.Engine
	Cache   cache.RequirementsCache
	Runs    *archive.RunArchive
	Metrics *metrics.Metrics
}

func New(d Deps) *Services {
	if d.Cache == nil {
		d.Cache = cache.NewNoopRequirementsCache()
	}
	return &Services{
		MRP:        NewMRPService(d.Engine, d.Cache, d.Runs, d.Metrics),
		Inventory:  NewInventoryService(d.Store, d.Cache, d.Metrics),
		Orders:     NewOrderService(d.Store, d.Cache, d.Metrics, d.Engine.Today),
		Production: NewProductionService(d.Store, d.Cache, d.Metrics),
	}
}

// invalidateRequirements drops cached reports after a write. Failures only
// leave stale data until the TTL runs out, so they are logged.
func invalidateRequirements(ctx context.Context, c cache.RequirementsCache) {
	if err := c.InvalidateAll(ctx); err != nil {
		log.Warn().Err(err).Msg("mrp: cache invalidation failed")
	}
}

func newID(prefix string) string {
	return prefix + "-" + uuid.NewString()[:8]
}

func defaultToday() time.Time {
	t := time.Now()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
