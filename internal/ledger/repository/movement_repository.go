package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"mithril/internal/domain"
)

type MySQLMovementRepository struct {
	db *sql.DB
}

func NewMySQLMovementRepository(db *sql.DB) *MySQLMovementRepository {
	return &MySQLMovementRepository{db: db}
}

func (r *MySQLMovementRepository) Insert(ctx context.Context, tx *sql.Tx, m domain.InventoryMovement) (int64, error) {
	query := `
		INSERT INTO InventoryMovements
			(componentId, type, quantity, quantityBefore, quantityAfter,
			 unitCost, totalCost, sourceInvoiceId, destinationProjectId, allocationId, importId, note)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := tx.ExecContext(ctx, query,
		m.ComponentID, string(m.Type), m.Quantity, m.QuantityBefore, m.QuantityAfter,
		nullDecimal(m.UnitCost), nullDecimal(m.TotalCost),
		m.SourceInvoiceID, m.DestinationProjectID, m.AllocationID, m.ImportID, m.Note,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting inventory movement: %w", err)
	}

	lastInsertID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting last insert id: %w", err)
	}

	return lastInsertID, nil
}

// FindByImportID returns every movement tagged with the import, oldest first.
func (r *MySQLMovementRepository) FindByImportID(ctx context.Context, tx *sql.Tx, importID int) ([]domain.InventoryMovement, error) {
	query := `
		SELECT id, componentId, type, quantity, quantityBefore, quantityAfter,
		       unitCost, totalCost, sourceInvoiceId, destinationProjectId, allocationId, importId, note, createdAt
		FROM InventoryMovements
		WHERE importId = ?
		ORDER BY id
	`

	rows, err := tx.QueryContext(ctx, query, importID)
	if err != nil {
		return nil, fmt.Errorf("querying movements by import: %w", err)
	}
	defer rows.Close()

	var movements []domain.InventoryMovement
	for rows.Next() {
		var m domain.InventoryMovement
		var movementType string
		var unitCost, totalCost decimal.NullDecimal
		err := rows.Scan(
			&m.ID, &m.ComponentID, &movementType, &m.Quantity, &m.QuantityBefore, &m.QuantityAfter,
			&unitCost, &totalCost, &m.SourceInvoiceID, &m.DestinationProjectID,
			&m.AllocationID, &m.ImportID, &m.Note, &m.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning movement row: %w", err)
		}
		m.Type = domain.MovementType(movementType)
		if unitCost.Valid {
			m.UnitCost = &unitCost.Decimal
		}
		if totalCost.Valid {
			m.TotalCost = &totalCost.Decimal
		}
		movements = append(movements, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating movement rows: %w", err)
	}

	return movements, nil
}

// DeleteByImportID is the one place movements are ever deleted: the reversal
// of a whole import. Individual corrections use compensating entries instead.
func (r *MySQLMovementRepository) DeleteByImportID(ctx context.Context, tx *sql.Tx, importID int) (int, error) {
	query := `DELETE FROM InventoryMovements WHERE importId = ?`

	result, err := tx.ExecContext(ctx, query, importID)
	if err != nil {
		return 0, fmt.Errorf("deleting movements by import: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting rows affected: %w", err)
	}

	return int(rowsAffected), nil
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}
