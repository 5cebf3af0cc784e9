package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"mithril/internal/domain"
	"mithril/internal/errors"
)

type MySQLBomItemRepository struct {
	db *sql.DB
}

func NewMySQLBomItemRepository(db *sql.DB) *MySQLBomItemRepository {
	return &MySQLBomItemRepository{db: db}
}

const bomItemColumns = `id, bomId, componentId, reference, value, manufacturerPart, quantity, allocated,
		       estimatedUnitCost, actualUnitCost, totalEstimatedCost, totalActualCost,
		       costSource, costUpdatedAt, createdAt, updatedAt`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBomItem(row rowScanner) (*domain.ProjectBomItem, error) {
	var item domain.ProjectBomItem
	var estimatedUnit, actualUnit, totalEstimated, totalActual decimal.NullDecimal
	var costSource sql.NullString
	err := row.Scan(
		&item.ID, &item.BomID, &item.ComponentID, &item.Reference, &item.Value, &item.ManufacturerPart,
		&item.Quantity, &item.Allocated,
		&estimatedUnit, &actualUnit, &totalEstimated, &totalActual,
		&costSource, &item.CostUpdatedAt, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if estimatedUnit.Valid {
		item.EstimatedUnitCost = &estimatedUnit.Decimal
	}
	if actualUnit.Valid {
		item.ActualUnitCost = &actualUnit.Decimal
	}
	if totalEstimated.Valid {
		item.TotalEstimatedCost = &totalEstimated.Decimal
	}
	if totalActual.Valid {
		item.TotalActualCost = &totalActual.Decimal
	}
	if costSource.Valid {
		src := domain.CostSource(costSource.String)
		item.CostSource = &src
	}
	return &item, nil
}

func (r *MySQLBomItemRepository) FindByID(ctx context.Context, id int64) (*domain.ProjectBomItem, error) {
	query := fmt.Sprintf(`SELECT %s FROM ProjectBomItems WHERE id = ?`, bomItemColumns)

	item, err := scanBomItem(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("bom item with id %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("querying bom item by id: %w", err)
	}

	return item, nil
}

func (r *MySQLBomItemRepository) FindByBomID(ctx context.Context, bomID int64) ([]domain.ProjectBomItem, error) {
	query := fmt.Sprintf(`SELECT %s FROM ProjectBomItems WHERE bomId = ? ORDER BY id`, bomItemColumns)

	rows, err := r.db.QueryContext(ctx, query, bomID)
	if err != nil {
		return nil, fmt.Errorf("querying bom items: %w", err)
	}
	defer rows.Close()

	var items []domain.ProjectBomItem
	for rows.Next() {
		item, err := scanBomItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning bom item row: %w", err)
		}
		items = append(items, *item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating bom item rows: %w", err)
	}

	return items, nil
}

// UpdateCosts persists the cost fields recomputed by the reconciliation
// service. Totals are derived in the domain, never computed here.
func (r *MySQLBomItemRepository) UpdateCosts(ctx context.Context, item *domain.ProjectBomItem) error {
	query := `
		UPDATE ProjectBomItems
		SET estimatedUnitCost = ?, actualUnitCost = ?, totalEstimatedCost = ?, totalActualCost = ?,
		    costSource = ?, costUpdatedAt = ?
		WHERE id = ?
	`

	var costSource *string
	if item.CostSource != nil {
		src := string(*item.CostSource)
		costSource = &src
	}

	result, err := r.db.ExecContext(ctx, query,
		nullDecimal(item.EstimatedUnitCost), nullDecimal(item.ActualUnitCost),
		nullDecimal(item.TotalEstimatedCost), nullDecimal(item.TotalActualCost),
		costSource, item.CostUpdatedAt, item.ID,
	)
	if err != nil {
		return fmt.Errorf("updating bom item costs: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("bom item with id %d not found", item.ID))
	}

	return nil
}

func (r *MySQLBomItemRepository) MarkAllocated(ctx context.Context, tx *sql.Tx, id int64, allocated bool) error {
	query := `UPDATE ProjectBomItems SET allocated = ? WHERE id = ?`

	result, err := tx.ExecContext(ctx, query, allocated, id)
	if err != nil {
		return fmt.Errorf("updating bom item allocated flag: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("bom item with id %d not found", id))
	}

	return nil
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}
