package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"mithril/internal/domain"
	"mithril/internal/errors"
)

type MySQLComponentRepository struct {
	db *sql.DB
}

func NewMySQLComponentRepository(db *sql.DB) *MySQLComponentRepository {
	return &MySQLComponentRepository{db: db}
}

const componentColumns = `id, sku, name, stockQuantity, unitPrice, minStockLevel, reorderQuantity, importId, createdAt, updatedAt`

func scanComponent(row *sql.Row) (*domain.Component, error) {
	var c domain.Component
	var unitPrice decimal.NullDecimal
	err := row.Scan(
		&c.ID, &c.SKU, &c.Name, &c.StockQuantity, &unitPrice,
		&c.MinStockLevel, &c.ReorderQuantity, &c.ImportID,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if unitPrice.Valid {
		c.UnitPrice = &unitPrice.Decimal
	}
	return &c, nil
}

func (r *MySQLComponentRepository) FindByID(ctx context.Context, id int) (*domain.Component, error) {
	query := fmt.Sprintf(`SELECT %s FROM Components WHERE id = ?`, componentColumns)

	component, err := scanComponent(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("component with id %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("querying component by id: %w", err)
	}

	return component, nil
}

// FindByIDForUpdate locks the component row for the duration of the enclosing
// transaction. Every allocate/deallocate/ledger write goes through this lock.
func (r *MySQLComponentRepository) FindByIDForUpdate(ctx context.Context, tx *sql.Tx, id int) (*domain.Component, error) {
	query := fmt.Sprintf(`SELECT %s FROM Components WHERE id = ? FOR UPDATE`, componentColumns)

	component, err := scanComponent(tx.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("component with id %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("querying component for update: %w", err)
	}

	return component, nil
}

// UpdateStockQuantity is only called by the ledger as the second half of a
// movement write, inside the same transaction.
func (r *MySQLComponentRepository) UpdateStockQuantity(ctx context.Context, tx *sql.Tx, id int, quantity int) error {
	query := `UPDATE Components SET stockQuantity = ? WHERE id = ?`

	result, err := tx.ExecContext(ctx, query, quantity, id)
	if err != nil {
		return fmt.Errorf("updating component stock: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("component with id %d not found", id))
	}

	return nil
}

func (r *MySQLComponentRepository) UpdateUnitPrice(ctx context.Context, id int, price decimal.Decimal) error {
	query := `UPDATE Components SET unitPrice = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, price, id)
	if err != nil {
		return fmt.Errorf("updating component unit price: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("component with id %d not found", id))
	}

	return nil
}

// ClearImportRef nulls the import back-reference on components created by an
// import; the components themselves survive the reversal.
func (r *MySQLComponentRepository) ClearImportRef(ctx context.Context, tx *sql.Tx, importID int) error {
	query := `UPDATE Components SET importId = NULL WHERE importId = ?`

	if _, err := tx.ExecContext(ctx, query, importID); err != nil {
		return fmt.Errorf("clearing component import refs: %w", err)
	}

	return nil
}

func (r *MySQLComponentRepository) FindBelowMinStock(ctx context.Context) ([]domain.Component, error) {
	query := fmt.Sprintf(`SELECT %s FROM Components WHERE stockQuantity < minStockLevel ORDER BY sku`, componentColumns)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying low stock components: %w", err)
	}
	defer rows.Close()

	var components []domain.Component
	for rows.Next() {
		var c domain.Component
		var unitPrice decimal.NullDecimal
		err := rows.Scan(
			&c.ID, &c.SKU, &c.Name, &c.StockQuantity, &unitPrice,
			&c.MinStockLevel, &c.ReorderQuantity, &c.ImportID,
			&c.CreatedAt, &c.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning component row: %w", err)
		}
		if unitPrice.Valid {
			c.UnitPrice = &unitPrice.Decimal
		}
		components = append(components, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating component rows: %w", err)
	}

	return components, nil
}
