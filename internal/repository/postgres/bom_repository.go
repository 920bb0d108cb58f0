package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/andresuchdata/battery-scm/backend-go/internal/domain"
	"github.com/andresuchdata/battery-scm/backend-go/pkg/apperror"
)

type bomLineRow struct {
	ProductCode string `db:"product_code"`
	domain.BOMLine
}

func (s *Store) ListBOMs(ctx context.Context) ([]domain.BOM, error) {
	boms := []domain.BOM{}
	if err := s.db.SelectContext(ctx, &boms, s.q(`SELECT product_code, product_name FROM boms ORDER BY sort_order, product_code`)); err != nil {
		return nil, fmt.Errorf("failed to list boms: %w", err)
	}

	var rows []bomLineRow
	query := `SELECT product_code, material_code, quantity_per_unit FROM bom_lines ORDER BY product_code, position`
	if err := s.db.SelectContext(ctx, &rows, s.q(query)); err != nil {
		return nil, fmt.Errorf("failed to list bom lines: %w", err)
	}

	lines := make(map[string][]domain.BOMLine, len(boms))
	for _, r := range rows {
		lines[r.ProductCode] = append(lines[r.ProductCode], r.BOMLine)
	}
	for i := range boms {
		boms[i].Lines = lines[boms[i].ProductCode]
		if boms[i].Lines == nil {
			boms[i].Lines = []domain.BOMLine{}
		}
	}
	return boms, nil
}

func (s *Store) GetBOM(ctx context.Context, productCode string) (*domain.BOM, error) {
	var bom domain.BOM
	err := s.db.GetContext(ctx, &bom, s.q(`SELECT product_code, product_name FROM boms WHERE product_code = ?`), productCode)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get bom %s: %w", productCode, err)
	}

	bom.Lines = []domain.BOMLine{}
	query := `SELECT material_code, quantity_per_unit FROM bom_lines WHERE product_code = ? ORDER BY position`
	if err := s.db.SelectContext(ctx, &bom.Lines, s.q(query), productCode); err != nil {
		return nil, fmt.Errorf("failed to get bom lines %s: %w", productCode, err)
	}
	return &bom, nil
}

func (s *Store) CreateBOM(ctx context.Context, bom *domain.BOM) error {
	return s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `INSERT INTO boms (product_code, product_name, sort_order) VALUES (?, ?, ` + nextSortOrder("boms") + `)`
		if _, err := tx.ExecContext(ctx, s.q(query), bom.ProductCode, bom.ProductName); err != nil {
			if isUniqueViolation(err) {
				return apperror.Conflict(fmt.Sprintf("bom for %s already exists", bom.ProductCode))
			}
			return fmt.Errorf("failed to insert bom %s: %w", bom.ProductCode, err)
		}

		stmt, err := tx.PreparexContext(ctx, s.q(`
			INSERT INTO bom_lines (product_code, position, material_code, quantity_per_unit)
			VALUES (?, ?, ?, ?)`))
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for i, line := range bom.Lines {
			if _, err := stmt.ExecContext(ctx, bom.ProductCode, i, line.MaterialCode, line.QuantityPerUnit); err != nil {
				return fmt.Errorf("failed to insert bom line %s/%s: %w", bom.ProductCode, line.MaterialCode, err)
			}
		}
		return nil
	})
}
