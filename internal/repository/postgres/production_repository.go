package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/andresuchdata/battery-scm/backend-go/internal/domain"
	"github.com/andresuchdata/battery-scm/backend-go/pkg/apperror"
)

const productionColumns = `id, order_id, production_line, planned_quantity, inspected_quantity,
	status, material_shortage, planned_start, created_at, updated_at`

func (s *Store) ListProductions(ctx context.Context, statuses ...domain.ProductionStatus) ([]domain.Production, error) {
	where, args := buildStatusFilterClause("", statuses)
	query := `SELECT ` + productionColumns + ` FROM productions` + where + ` ORDER BY sort_order, id`

	productions := []domain.Production{}
	if err := s.db.SelectContext(ctx, &productions, s.q(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list productions: %w", err)
	}
	return productions, nil
}

func (s *Store) GetProduction(ctx context.Context, id string) (*domain.Production, error) {
	return s.getProduction(ctx, s.db, id)
}

func (s *Store) getProduction(ctx context.Context, q sqlx.QueryerContext, id string) (*domain.Production, error) {
	var p domain.Production
	if err := sqlx.GetContext(ctx, q, &p, s.q(`SELECT `+productionColumns+` FROM productions WHERE id = ?`), id); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get production %s: %w", id, err)
	}
	return &p, nil
}

func (s *Store) CreateProduction(ctx context.Context, p *domain.Production) error {
	return s.insertProduction(ctx, s.db, p)
}

func (s *Store) insertProduction(ctx context.Context, ext sqlx.ExtContext, p *domain.Production) error {
	now := s.timestamp()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	query := `
		INSERT INTO productions (` + productionColumns + `, sort_order)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ` + nextSortOrder("productions") + `)`

	_, err := ext.ExecContext(ctx, s.q(query),
		p.ID, p.OrderID, p.Line, p.PlannedQuantity, p.InspectedQuantity,
		string(p.Status), p.MaterialShortage, p.PlannedStart.UTC(), p.CreatedAt.UTC(), p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict(fmt.Sprintf("production %s already exists", p.ID))
		}
		return fmt.Errorf("failed to insert production %s: %w", p.ID, err)
	}
	return nil
}

// TransitionProduction is a compare-and-set on status; the row lock taken by
// the UPDATE makes a concurrent second writer see the new status and match
// nothing.
func (s *Store) TransitionProduction(ctx context.Context, p *domain.Production, from domain.ProductionStatus) error {
	query := `
		UPDATE productions SET status = ?, inspected_quantity = ?, updated_at = ?
		WHERE id = ? AND status = ?
		RETURNING ` + productionColumns

	var updated domain.Production
	err := sqlx.GetContext(ctx, s.db, &updated, s.q(query),
		string(p.Status), p.InspectedQuantity, s.timestamp(), p.ID, string(from),
	)
	if err == nil {
		*p = updated
		return nil
	}
	if !isNoRows(err) {
		return fmt.Errorf("failed to transition production %s: %w", p.ID, err)
	}

	current, err := s.GetProduction(ctx, p.ID)
	if err != nil {
		return err
	}
	if current == nil {
		return apperror.NotFound("production", p.ID)
	}
	return apperror.InvalidTransition("production", string(current.Status), string(p.Status))
}

func (s *Store) SetMaterialShortage(ctx context.Context, id string, shortage bool) error {
	res, err := s.db.ExecContext(ctx,
		s.q(`UPDATE productions SET material_shortage = ?, updated_at = ? WHERE id = ?`),
		shortage, s.timestamp(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to set material shortage on %s: %w", id, err)
	}
	return requireAffected(res, "production", id)
}
