package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/battery-scm/backend-go/internal/archive"
	"github.com/andresuchdata/battery-scm/backend-go/internal/cache"
	"github.com/andresuchdata/battery-scm/backend-go/internal/domain"
	"github.com/andresuchdata/battery-scm/backend-go/internal/metrics"
	"github.com/andresuchdata/battery-scm/backend-go/internal/mrp"
)

type MRPService struct {
	engine  *mrp.Engine
	cache   cache.RequirementsCache
	runs    *archive.RunArchive
	metrics *metrics.Metrics
}

func NewMRPService(engine *mrp.Engine, cacheImpl cache.RequirementsCache, runs *archive.RunArchive, m *metrics.Metrics) *MRPService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopRequirementsCache()
	}
	return &MRPService{engine: engine, cache: cacheImpl, runs: runs, metrics: m}
}

// GetRequirements returns the bulk report, served from cache when possible.
func (s *MRPService) GetRequirements(ctx context.Context, filter domain.RequirementsFilter) (*domain.RequirementsReport, error) {
	if report, ok, err := s.cache.GetReport(ctx, filter); err == nil && ok {
		return report, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("mrp: cache get report failed")
	}

	full, err := s.calculate(ctx)
	if err != nil {
		return nil, err
	}
	report := filter.Apply(full)

	if err := s.cache.SetReport(ctx, filter, report); err != nil {
		log.Warn().Err(err).Msg("mrp: cache set report failed")
	}
	return report, nil
}

func (s *MRPService) calculate(ctx context.Context) (*domain.RequirementsReport, error) {
	start := time.Now()
	report, err := s.engine.CalculateRequirements(ctx)
	s.metrics.RecordCalculation("bulk", err == nil, time.Since(start))
	if err != nil {
		log.Error().Err(err).Msg("mrp: bulk calculation failed")
		return nil, err
	}

	s.metrics.SetShortageSnapshot(report.ShortageCount(), len(report.Issues))
	if report.Incomplete() {
		log.Warn().
			Int("issues", len(report.Issues)).
			Msg("mrp: calculation skipped productions with missing reference data")
	}
	return report, nil
}

// GetProductionRequirements runs the single-production calculation, which
// also stores the shortage flag on the production.
func (s *MRPService) GetProductionRequirements(ctx context.Context, productionID string) (*domain.ProductionRequirements, error) {
	start := time.Now()
	res, err := s.engine.CalculateForProduction(ctx, productionID)
	s.metrics.RecordCalculation("production", err == nil, time.Since(start))
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("production_id", productionID).
		Bool("has_shortage", res.HasShortage).
		Int("max_lead_time_days", res.MaxLeadTimeDays).
		Msg("mrp: production requirements calculated")
	return res, nil
}

// ConfirmMaterialOrders receives purchase lines into stock.
func (s *MRPService) ConfirmMaterialOrders(ctx context.Context, lines []domain.MaterialOrderLine) (*domain.MaterialOrderConfirmation, error) {
	out, err := s.engine.ConfirmMaterialOrders(ctx, lines)
	if out == nil {
		return nil, err
	}

	for range out.Results {
		s.metrics.RecordStockAdjustment("purchase", true)
	}
	for _, r := range out.Rejected {
		s.metrics.RecordStockAdjustment("purchase", false)
		log.Warn().
			Str("material_code", r.MaterialCode).
			Int64("order_quantity", r.OrderQuantity).
			Str("reason", r.Reason).
			Msg("mrp: material order line rejected")
	}
	// Applied lines stay applied even when a later line failed.
	if len(out.Results) > 0 {
		invalidateRequirements(ctx, s.cache)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CreateRun calculates a fresh report and archives it.
func (s *MRPService) CreateRun(ctx context.Context) (*domain.MRPRun, error) {
	report, err := s.calculate(ctx)
	if err != nil {
		return nil, err
	}

	run := &domain.MRPRun{
		ID:        uuid.NewString(),
		CreatedAt: report.CalculatedAt,
		Shortages: report.ShortageCount(),
		Report:    report,
	}

	key, err := s.runs.Save(ctx, run)
	s.metrics.RecordRunArchived(err == nil)
	if err != nil {
		log.Error().Err(err).Str("run_id", run.ID).Msg("mrp: archiving run failed")
		return nil, err
	}

	log.Info().Str("run_id", run.ID).Str("key", key).Int("shortages", run.Shortages).Msg("mrp: run archived")
	return run, nil
}

func (s *MRPService) ListRuns(ctx context.Context) ([]domain.MRPRunSummary, error) {
	return s.runs.List(ctx)
}

func (s *MRPService) GetRun(ctx context.Context, id string) (*domain.MRPRun, error) {
	return s.runs.Get(ctx, id)
}
