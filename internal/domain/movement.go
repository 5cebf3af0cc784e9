package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementType classifies a ledger entry. The direction of the stock change is
// implied by the type; quantities are always stored positive.
type MovementType string

const (
	MovementIn         MovementType = "in"
	MovementOut        MovementType = "out"
	MovementAdjustment MovementType = "adjustment"
	MovementReturn     MovementType = "return"
)

// Direction returns +1 for types that increase stock and -1 for types that
// decrease it.
func (t MovementType) Direction() int {
	switch t {
	case MovementIn, MovementReturn:
		return 1
	case MovementOut, MovementAdjustment:
		return -1
	default:
		return 0
	}
}

func (t MovementType) Valid() bool {
	return t.Direction() != 0
}

// InventoryMovement is one immutable ledger entry. Corrections happen via
// compensating entries, never by updating or deleting an existing row.
type InventoryMovement struct {
	ID                   int64
	ComponentID          int
	Type                 MovementType
	Quantity             int
	QuantityBefore       int
	QuantityAfter        int
	UnitCost             *decimal.Decimal
	TotalCost            *decimal.Decimal
	SourceInvoiceID      *int
	DestinationProjectID *int
	AllocationID         *int64
	ImportID             *int
	Note                 *string
	CreatedAt            time.Time
}
