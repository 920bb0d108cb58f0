package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/andresuchdata/battery-scm/backend-go/internal/domain"
	"github.com/andresuchdata/battery-scm/backend-go/pkg/apperror"
)

const orderColumns = `id, customer, product_code, category, predicted_quantity,
	confirmed_quantity, unit_price, status, created_at, updated_at`

func (s *Store) ListOrders(ctx context.Context, statuses ...domain.OrderStatus) ([]domain.Order, error) {
	where, args := buildStatusFilterClause("", statuses)
	query := `SELECT ` + orderColumns + ` FROM orders` + where + ` ORDER BY sort_order, id`

	orders := []domain.Order{}
	if err := s.db.SelectContext(ctx, &orders, s.q(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func (s *Store) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	return s.getOrder(ctx, s.db, id)
}

func (s *Store) getOrder(ctx context.Context, q sqlx.QueryerContext, id string) (*domain.Order, error) {
	var o domain.Order
	if err := sqlx.GetContext(ctx, q, &o, s.q(`SELECT `+orderColumns+` FROM orders WHERE id = ?`), id); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get order %s: %w", id, err)
	}
	return &o, nil
}

func (s *Store) CreateOrder(ctx context.Context, o *domain.Order) error {
	now := s.timestamp()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now

	query := `
		INSERT INTO orders (` + orderColumns + `, sort_order)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ` + nextSortOrder("orders") + `)`

	_, err := s.db.ExecContext(ctx, s.q(query),
		o.ID, o.Customer, o.ProductCode, o.Category, o.PredictedQuantity,
		o.ConfirmedQuantity, o.UnitPrice, string(o.Status), o.CreatedAt.UTC(), o.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict(fmt.Sprintf("order %s already exists", o.ID))
		}
		return fmt.Errorf("failed to insert order %s: %w", o.ID, err)
	}
	return nil
}

func (s *Store) TransitionOrder(ctx context.Context, o *domain.Order, from domain.OrderStatus) error {
	return s.transitionOrder(ctx, s.db, o, from)
}

// ApproveOrder flips the order and inserts its production in one
// transaction, so a failed insert leaves the order confirmed.
func (s *Store) ApproveOrder(ctx context.Context, o *domain.Order, p *domain.Production) error {
	o.Status = domain.OrderApproved
	return s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.transitionOrder(ctx, tx, o, domain.OrderConfirmed); err != nil {
			return err
		}
		return s.insertProduction(ctx, tx, p)
	})
}

func (s *Store) transitionOrder(ctx context.Context, ext sqlx.ExtContext, o *domain.Order, from domain.OrderStatus) error {
	query := `
		UPDATE orders SET status = ?, confirmed_quantity = ?, updated_at = ?
		WHERE id = ? AND status = ?
		RETURNING ` + orderColumns

	var updated domain.Order
	err := sqlx.GetContext(ctx, ext, &updated, s.q(query),
		string(o.Status), o.ConfirmedQuantity, s.timestamp(), o.ID, string(from),
	)
	if err == nil {
		*o = updated
		return nil
	}
	if !isNoRows(err) {
		return fmt.Errorf("failed to transition order %s: %w", o.ID, err)
	}

	current, err := s.getOrder(ctx, ext, o.ID)
	if err != nil {
		return err
	}
	if current == nil {
		return apperror.NotFound("order", o.ID)
	}
	return apperror.InvalidTransition("order", string(current.Status), string(o.Status))
}

func requireAffected(res sql.Result, resource, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return apperror.NotFound(resource, id)
	}
	return nil
}
