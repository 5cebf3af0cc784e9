package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type CostSource string

const (
	CostSourceManual      CostSource = "manual"
	CostSourceInventory   CostSource = "inventory"
	CostSourceSupplierAPI CostSource = "supplier_api"
)

// ProjectBomItem is one line of a project's bill of materials. The total cost
// fields are always derived from quantity × unit cost, never set directly.
type ProjectBomItem struct {
	ID                 int64
	BomID              int64
	ComponentID        *int
	Reference          string
	Value              *string
	ManufacturerPart   *string
	Quantity           int
	Allocated          bool
	EstimatedUnitCost  *decimal.Decimal
	ActualUnitCost     *decimal.Decimal
	TotalEstimatedCost *decimal.Decimal
	TotalActualCost    *decimal.Decimal
	CostSource         *CostSource
	CostUpdatedAt      *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// ApplyActualCost sets the actual unit cost from the inventory price and
// recomputes the derived total.
func (i *ProjectBomItem) ApplyActualCost(unitCost decimal.Decimal, now time.Time) {
	total := unitCost.Mul(decimal.NewFromInt(int64(i.Quantity)))
	src := CostSourceInventory
	i.ActualUnitCost = &unitCost
	i.TotalActualCost = &total
	i.CostSource = &src
	i.CostUpdatedAt = &now
}

// ApplyEstimatedCost sets the estimate-side unit cost, tagged with its origin.
func (i *ProjectBomItem) ApplyEstimatedCost(unitCost decimal.Decimal, source CostSource, now time.Time) {
	total := unitCost.Mul(decimal.NewFromInt(int64(i.Quantity)))
	i.EstimatedUnitCost = &unitCost
	i.TotalEstimatedCost = &total
	i.CostSource = &source
	i.CostUpdatedAt = &now
}

// VariancePercentage is (actual − estimated) / estimated × 100 over the item
// totals, 0 when the estimate is zero or either side is unknown.
func (i ProjectBomItem) VariancePercentage() decimal.Decimal {
	if i.TotalEstimatedCost == nil || i.TotalActualCost == nil || i.TotalEstimatedCost.IsZero() {
		return decimal.Zero
	}
	variance := i.TotalActualCost.Sub(*i.TotalEstimatedCost)
	return variance.Div(*i.TotalEstimatedCost).Mul(decimal.NewFromInt(100))
}

// ProjectBom is the aggregate root for a bill of materials. Its cost totals
// are recomputed from the items, never edited independently.
type ProjectBom struct {
	ID                     int64
	ProjectID              int
	Name                   string
	BoardsCount            int
	TotalEstimatedCost     decimal.Decimal
	TotalActualCost        decimal.Decimal
	CostVariance           decimal.Decimal
	CostVariancePercentage decimal.Decimal
	CostsCalculatedAt      *time.Time
	CreatedAt              time.Time
	UpdatedAt              time.Time
}
