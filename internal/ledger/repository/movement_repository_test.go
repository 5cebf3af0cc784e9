package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mithril/internal/domain"
	"mithril/internal/testutil"
)

func intPtr(i int) *int {
	return &i
}

// Unit Tests

func TestNewMySQLMovementRepository(t *testing.T) {
	db := &sql.DB{}
	repo := NewMySQLMovementRepository(db)

	assert.NotNil(t, repo)
	assert.Equal(t, db, repo.db)
}

// Integration Tests

func TestMovementRepository_InsertAndFindByImportID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	defer testutil.CleanupTestDB(t, db)

	repo := NewMySQLMovementRepository(db)

	unitCost := decimal.RequireFromString("0.0500")
	totalCost := decimal.RequireFromString("2.0000")
	note := "invoice import"

	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err)

	id, err := repo.Insert(context.Background(), tx, domain.InventoryMovement{
		ComponentID:     12,
		Type:            domain.MovementIn,
		Quantity:        40,
		QuantityBefore:  0,
		QuantityAfter:   40,
		UnitCost:        &unitCost,
		TotalCost:       &totalCost,
		SourceInvoiceID: intPtr(77),
		ImportID:        intPtr(5),
		Note:            &note,
	})
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))

	_, err = repo.Insert(context.Background(), tx, domain.InventoryMovement{
		ComponentID:    13,
		Type:           domain.MovementIn,
		Quantity:       10,
		QuantityBefore: 5,
		QuantityAfter:  15,
		ImportID:       intPtr(5),
	})
	require.NoError(t, err)

	movements, err := repo.FindByImportID(context.Background(), tx, 5)
	require.NoError(t, err)
	require.Len(t, movements, 2)

	assert.Equal(t, 12, movements[0].ComponentID)
	assert.Equal(t, domain.MovementIn, movements[0].Type)
	assert.Equal(t, 40, movements[0].Quantity)
	assert.Equal(t, 0, movements[0].QuantityBefore)
	assert.Equal(t, 40, movements[0].QuantityAfter)
	assert.True(t, movements[0].UnitCost.Equal(unitCost))
	assert.True(t, movements[0].TotalCost.Equal(totalCost))
	assert.Equal(t, 77, *movements[0].SourceInvoiceID)
	assert.Equal(t, "invoice import", *movements[0].Note)

	assert.Nil(t, movements[1].UnitCost)
	assert.Nil(t, movements[1].SourceInvoiceID)

	require.NoError(t, tx.Commit())
}

func TestMovementRepository_FindByImportID_Empty(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	defer testutil.CleanupTestDB(t, db)

	repo := NewMySQLMovementRepository(db)

	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	defer tx.Rollback()

	movements, err := repo.FindByImportID(context.Background(), tx, 9999)
	require.NoError(t, err)
	assert.Empty(t, movements)
}

func TestMovementRepository_DeleteByImportID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	defer testutil.CleanupTestDB(t, db)

	repo := NewMySQLMovementRepository(db)

	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := repo.Insert(context.Background(), tx, domain.InventoryMovement{
			ComponentID:    12,
			Type:           domain.MovementIn,
			Quantity:       10,
			QuantityBefore: i * 10,
			QuantityAfter:  (i + 1) * 10,
			ImportID:       intPtr(5),
		})
		require.NoError(t, err)
	}
	_, err = repo.Insert(context.Background(), tx, domain.InventoryMovement{
		ComponentID:    12,
		Type:           domain.MovementOut,
		Quantity:       5,
		QuantityBefore: 30,
		QuantityAfter:  25,
	})
	require.NoError(t, err)

	deleted, err := repo.DeleteByImportID(context.Background(), tx, 5)
	require.NoError(t, err)
	assert.Equal(t, 3, deleted)

	movements, err := repo.FindByImportID(context.Background(), tx, 5)
	require.NoError(t, err)
	assert.Empty(t, movements)

	require.NoError(t, tx.Commit())

	// Movements outside the import survive.
	var count int
	err = db.QueryRow(`SELECT COUNT(*) FROM InventoryMovements`).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
