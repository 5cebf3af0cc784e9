package testutil

import (
	"database/sql"
	"fmt"
	"testing"

	_ "github.com/go-sql-driver/mysql"
)

// SetupTestDB opens the integration test database.
// Expects a MySQL instance on localhost:3306 with a 'mithril_test' schema.
func SetupTestDB(t *testing.T) *sql.DB {
	dsn := "root:@tcp(localhost:3306)/mithril_test?parseTime=true"
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	err = db.Ping()
	if err != nil {
		t.Skipf("test database not available: %v", err)
	}

	return db
}

// CleanupTestDB empties the test tables and closes the connection.
func CleanupTestDB(t *testing.T, db *sql.DB) {
	if db == nil {
		return
	}

	tables := []string{
		"ProjectComponentAllocations",
		"InventoryMovements",
		"ProjectBomItems",
		"ProjectBoms",
		"Components",
	}
	for _, table := range tables {
		_, err := db.Exec(fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}

	db.Close()
}

// SetupTestTables creates the tables the tests need.
func SetupTestTables(t *testing.T, db *sql.DB) {
	createComponentsTable := `
	CREATE TABLE IF NOT EXISTS Components (
		id INT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		sku VARCHAR(100) NOT NULL,
		name VARCHAR(255) NOT NULL,
		stockQuantity INT NOT NULL DEFAULT 0,
		unitPrice DECIMAL(12,4),
		minStockLevel INT NOT NULL DEFAULT 0,
		reorderQuantity INT NOT NULL DEFAULT 0,
		importId INT,
		createdAt DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updatedAt DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE INDEX idx_sku (sku),
		INDEX idx_import (importId)
	)`

	createInventoryMovementsTable := `
	CREATE TABLE IF NOT EXISTS InventoryMovements (
		id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		componentId INT NOT NULL,
		type VARCHAR(20) NOT NULL,
		quantity INT NOT NULL,
		quantityBefore INT NOT NULL,
		quantityAfter INT NOT NULL,
		unitCost DECIMAL(12,4),
		totalCost DECIMAL(12,4),
		sourceInvoiceId INT,
		destinationProjectId INT,
		allocationId BIGINT,
		importId INT,
		note VARCHAR(500),
		createdAt DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_component (componentId),
		INDEX idx_import (importId),
		INDEX idx_allocation (allocationId)
	)`

	createProjectBomsTable := `
	CREATE TABLE IF NOT EXISTS ProjectBoms (
		id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		projectId INT NOT NULL,
		name VARCHAR(255) NOT NULL,
		boardsCount INT NOT NULL DEFAULT 1,
		totalEstimatedCost DECIMAL(12,4),
		totalActualCost DECIMAL(12,4),
		costVariance DECIMAL(12,4),
		costVariancePercentage DECIMAL(8,2),
		costsCalculatedAt DATETIME,
		createdAt DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updatedAt DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		INDEX idx_project (projectId)
	)`

	createProjectBomItemsTable := `
	CREATE TABLE IF NOT EXISTS ProjectBomItems (
		id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		bomId BIGINT NOT NULL,
		componentId INT,
		reference VARCHAR(100) NOT NULL,
		value VARCHAR(255),
		manufacturerPart VARCHAR(255),
		quantity INT NOT NULL DEFAULT 1,
		allocated TINYINT(1) NOT NULL DEFAULT 0,
		estimatedUnitCost DECIMAL(12,4),
		actualUnitCost DECIMAL(12,4),
		totalEstimatedCost DECIMAL(12,4),
		totalActualCost DECIMAL(12,4),
		costSource VARCHAR(20),
		costUpdatedAt DATETIME,
		createdAt DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updatedAt DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		FOREIGN KEY (bomId) REFERENCES ProjectBoms(id) ON DELETE CASCADE,
		INDEX idx_bom (bomId),
		INDEX idx_component (componentId)
	)`

	createAllocationsTable := `
	CREATE TABLE IF NOT EXISTS ProjectComponentAllocations (
		id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		projectId INT NOT NULL,
		componentId INT NOT NULL,
		bomItemId BIGINT NOT NULL,
		quantityAllocated INT NOT NULL,
		quantityUsed INT NOT NULL DEFAULT 0,
		quantityRemaining INT NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'allocated',
		unitCost DECIMAL(12,4),
		totalCost DECIMAL(12,4),
		sourceInvoiceId INT,
		allocatedAt DATETIME NOT NULL,
		completedAt DATETIME,
		createdAt DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updatedAt DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		INDEX idx_bom_item (bomItemId),
		INDEX idx_component (componentId),
		INDEX idx_status (status)
	)`

	tables := []struct {
		name  string
		query string
	}{
		{"Components", createComponentsTable},
		{"InventoryMovements", createInventoryMovementsTable},
		{"ProjectBoms", createProjectBomsTable},
		{"ProjectBomItems", createProjectBomItemsTable},
		{"ProjectComponentAllocations", createAllocationsTable},
	}

	for _, tbl := range tables {
		_, err := db.Exec(tbl.query)
		if err != nil {
			t.Logf("failed to create table %s: %v", tbl.name, err)
		}
	}
}
