package postgres

import (
	"context"
	"fmt"

	"github.com/andresuchdata/battery-scm/backend-go/internal/domain"
	"github.com/andresuchdata/battery-scm/backend-go/pkg/apperror"
)

const materialColumns = `code, name, unit, min_stock, current_stock, unit_price, supplier, lead_time_days`

func (s *Store) ListMaterials(ctx context.Context) ([]domain.Material, error) {
	materials := []domain.Material{}
	query := `SELECT ` + materialColumns + ` FROM materials ORDER BY sort_order, code`
	if err := s.db.SelectContext(ctx, &materials, s.q(query)); err != nil {
		return nil, fmt.Errorf("failed to list materials: %w", err)
	}
	return materials, nil
}

func (s *Store) GetMaterial(ctx context.Context, code string) (*domain.Material, error) {
	var m domain.Material
	query := `SELECT ` + materialColumns + ` FROM materials WHERE code = ?`
	if err := s.db.GetContext(ctx, &m, s.q(query), code); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get material %s: %w", code, err)
	}
	return &m, nil
}

func (s *Store) CreateMaterial(ctx context.Context, m *domain.Material) error {
	query := `
		INSERT INTO materials (
			code, name, unit, min_stock, current_stock,
			unit_price, supplier, lead_time_days, sort_order
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ` + nextSortOrder("materials") + `)`

	_, err := s.db.ExecContext(ctx, s.q(query),
		m.Code, m.Name, m.Unit, m.MinStock, m.CurrentStock,
		m.UnitPrice, m.Supplier, m.LeadTimeDays,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict(fmt.Sprintf("material %s already exists", m.Code))
		}
		return fmt.Errorf("failed to insert material %s: %w", m.Code, err)
	}
	return nil
}

func (s *Store) UpdateMaterial(ctx context.Context, m *domain.Material) error {
	query := `
		UPDATE materials SET
			name = ?, unit = ?, min_stock = ?, current_stock = ?,
			unit_price = ?, supplier = ?, lead_time_days = ?
		WHERE code = ?`

	res, err := s.db.ExecContext(ctx, s.q(query),
		m.Name, m.Unit, m.MinStock, m.CurrentStock,
		m.UnitPrice, m.Supplier, m.LeadTimeDays, m.Code,
	)
	if err != nil {
		return fmt.Errorf("failed to update material %s: %w", m.Code, err)
	}
	return requireAffected(res, "material", m.Code)
}

// AdjustStock applies delta in a single guarded UPDATE, so concurrent
// adjustments are serialised by the database row lock.
func (s *Store) AdjustStock(ctx context.Context, code string, delta int64) (*domain.StockMovement, error) {
	query := `
		UPDATE materials
		SET current_stock = current_stock + ?
		WHERE code = ? AND current_stock + ? >= 0
		RETURNING current_stock`

	var newStock int64
	err := s.db.QueryRowxContext(ctx, s.q(query), delta, code, delta).Scan(&newStock)
	if err == nil {
		return &domain.StockMovement{
			MaterialCode:  code,
			PreviousStock: newStock - delta,
			Delta:         delta,
			NewStock:      newStock,
			RecordedAt:    s.now(),
		}, nil
	}
	if !isNoRows(err) {
		return nil, fmt.Errorf("failed to adjust stock %s: %w", code, err)
	}

	// Nothing matched: either the code is unknown or the guard refused.
	m, err := s.GetMaterial(ctx, code)
	if err != nil || m == nil {
		return nil, err
	}
	return nil, apperror.InsufficientStock(code, m.CurrentStock, -delta)
}
