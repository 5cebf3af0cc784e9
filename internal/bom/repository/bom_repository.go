package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"mithril/internal/domain"
	"mithril/internal/errors"
)

type MySQLBomRepository struct {
	db *sql.DB
}

func NewMySQLBomRepository(db *sql.DB) *MySQLBomRepository {
	return &MySQLBomRepository{db: db}
}

func (r *MySQLBomRepository) FindByID(ctx context.Context, id int64) (*domain.ProjectBom, error) {
	query := `
		SELECT id, projectId, name, boardsCount,
		       totalEstimatedCost, totalActualCost, costVariance, costVariancePercentage,
		       costsCalculatedAt, createdAt, updatedAt
		FROM ProjectBoms
		WHERE id = ?
	`

	var bom domain.ProjectBom
	var totalEstimated, totalActual, variance, variancePct decimal.NullDecimal
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&bom.ID, &bom.ProjectID, &bom.Name, &bom.BoardsCount,
		&totalEstimated, &totalActual,
		&variance, &variancePct,
		&bom.CostsCalculatedAt, &bom.CreatedAt, &bom.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("bom with id %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("querying bom by id: %w", err)
	}

	// Never-calculated totals read back as zero.
	bom.TotalEstimatedCost = totalEstimated.Decimal
	bom.TotalActualCost = totalActual.Decimal
	bom.CostVariance = variance.Decimal
	bom.CostVariancePercentage = variancePct.Decimal

	return &bom, nil
}

// UpdateCostTotals persists the recomputed aggregate; the totals are never
// written from anywhere else.
func (r *MySQLBomRepository) UpdateCostTotals(ctx context.Context, id int64, estimated, actual, variance, variancePct decimal.Decimal, calculatedAt time.Time) error {
	query := `
		UPDATE ProjectBoms
		SET totalEstimatedCost = ?, totalActualCost = ?, costVariance = ?, costVariancePercentage = ?, costsCalculatedAt = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query, estimated, actual, variance, variancePct, calculatedAt, id)
	if err != nil {
		return fmt.Errorf("updating bom cost totals: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("bom with id %d not found", id))
	}

	return nil
}
