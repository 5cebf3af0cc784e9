package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Component is the current-state record of a trackable part. StockQuantity is
// only ever changed as the side effect of a ledger write.
type Component struct {
	ID              int
	SKU             string
	Name            string
	StockQuantity   int
	UnitPrice       *decimal.Decimal
	MinStockLevel   int
	ReorderQuantity int
	ImportID        *int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (c Component) HasSufficientStock(quantity int) bool {
	return c.StockQuantity >= quantity
}

func (c Component) BelowMinStock() bool {
	return c.StockQuantity < c.MinStockLevel
}
