package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"mithril/internal/domain"
	"mithril/internal/errors"
)

type MySQLAllocationRepository struct {
	db *sql.DB
}

func NewMySQLAllocationRepository(db *sql.DB) *MySQLAllocationRepository {
	return &MySQLAllocationRepository{db: db}
}

const allocationColumns = `id, projectId, componentId, bomItemId, quantityAllocated, quantityUsed, quantityRemaining,
		       status, unitCost, totalCost, sourceInvoiceId, allocatedAt, completedAt, createdAt, updatedAt`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAllocation(row rowScanner) (*domain.ProjectComponentAllocation, error) {
	var a domain.ProjectComponentAllocation
	var status string
	var unitCost, totalCost decimal.NullDecimal
	err := row.Scan(
		&a.ID, &a.ProjectID, &a.ComponentID, &a.BomItemID,
		&a.QuantityAllocated, &a.QuantityUsed, &a.QuantityRemaining,
		&status, &unitCost, &totalCost, &a.SourceInvoiceID,
		&a.AllocatedAt, &a.CompletedAt, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Status = domain.AllocationStatus(status)
	if unitCost.Valid {
		a.UnitCost = &unitCost.Decimal
	}
	if totalCost.Valid {
		a.TotalCost = &totalCost.Decimal
	}
	return &a, nil
}

func (r *MySQLAllocationRepository) Insert(ctx context.Context, tx *sql.Tx, a *domain.ProjectComponentAllocation) (int64, error) {
	query := `
		INSERT INTO ProjectComponentAllocations
			(projectId, componentId, bomItemId, quantityAllocated, quantityUsed, quantityRemaining,
			 status, unitCost, totalCost, sourceInvoiceId, allocatedAt)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := tx.ExecContext(ctx, query,
		a.ProjectID, a.ComponentID, a.BomItemID,
		a.QuantityAllocated, a.QuantityUsed, a.QuantityRemaining,
		string(a.Status), nullDecimal(a.UnitCost), nullDecimal(a.TotalCost),
		a.SourceInvoiceID, a.AllocatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting allocation: %w", err)
	}

	lastInsertID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting last insert id: %w", err)
	}

	return lastInsertID, nil
}

func (r *MySQLAllocationRepository) FindByID(ctx context.Context, id int64) (*domain.ProjectComponentAllocation, error) {
	query := fmt.Sprintf(`SELECT %s FROM ProjectComponentAllocations WHERE id = ?`, allocationColumns)

	allocation, err := scanAllocation(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("allocation with id %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("querying allocation by id: %w", err)
	}

	return allocation, nil
}

func (r *MySQLAllocationRepository) FindByIDForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*domain.ProjectComponentAllocation, error) {
	query := fmt.Sprintf(`SELECT %s FROM ProjectComponentAllocations WHERE id = ? FOR UPDATE`, allocationColumns)

	allocation, err := scanAllocation(tx.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("allocation with id %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("querying allocation for update: %w", err)
	}

	return allocation, nil
}

// FindActiveByBomItemForUpdate returns the single non-terminal allocation for
// a BOM item, locked for the enclosing transaction.
func (r *MySQLAllocationRepository) FindActiveByBomItemForUpdate(ctx context.Context, tx *sql.Tx, bomItemID int64) (*domain.ProjectComponentAllocation, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM ProjectComponentAllocations
		WHERE bomItemId = ? AND status NOT IN ('completed', 'returned')
		ORDER BY id DESC
		LIMIT 1
		FOR UPDATE`, allocationColumns)

	allocation, err := scanAllocation(tx.QueryRowContext(ctx, query, bomItemID))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("no active allocation for bom item %d", bomItemID))
	}
	if err != nil {
		return nil, fmt.Errorf("querying active allocation: %w", err)
	}

	return allocation, nil
}

// Update persists the mutable state-machine fields. The identity and
// quantityAllocated of an allocation never change after creation.
func (r *MySQLAllocationRepository) Update(ctx context.Context, tx *sql.Tx, a *domain.ProjectComponentAllocation) error {
	query := `
		UPDATE ProjectComponentAllocations
		SET quantityUsed = ?, quantityRemaining = ?, status = ?, completedAt = ?
		WHERE id = ?
	`

	result, err := tx.ExecContext(ctx, query,
		a.QuantityUsed, a.QuantityRemaining, string(a.Status), a.CompletedAt, a.ID,
	)
	if err != nil {
		return fmt.Errorf("updating allocation: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("allocation with id %d not found", a.ID))
	}

	return nil
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}
