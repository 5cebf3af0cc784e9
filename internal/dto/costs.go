package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// BomCostSummary is the derived cost view of one BOM. EstimatedBoardCost is
// the per-board component cost plus the standard PCB cost from the costing
// profile.
type BomCostSummary struct {
	BomID                  int64           `json:"bomId"`
	BoardsCount            int             `json:"boardsCount"`
	TotalEstimatedCost     decimal.Decimal `json:"totalEstimatedCost"`
	TotalActualCost        decimal.Decimal `json:"totalActualCost"`
	CostVariance           decimal.Decimal `json:"costVariance"`
	CostVariancePercentage decimal.Decimal `json:"costVariancePercentage"`
	EstimatedBoardCost     decimal.Decimal `json:"estimatedBoardCost"`
	CostsCalculatedAt      *time.Time      `json:"costsCalculatedAt,omitempty"`
}

type ItemCostStatus struct {
	BomItemID          int64            `json:"bomItemId"`
	Reference          string           `json:"reference"`
	Quantity           int              `json:"quantity"`
	ComponentID        *int             `json:"componentId,omitempty"`
	EstimatedUnitCost  *decimal.Decimal `json:"estimatedUnitCost,omitempty"`
	ActualUnitCost     *decimal.Decimal `json:"actualUnitCost,omitempty"`
	TotalEstimatedCost *decimal.Decimal `json:"totalEstimatedCost,omitempty"`
	TotalActualCost    *decimal.Decimal `json:"totalActualCost,omitempty"`
	VariancePercentage decimal.Decimal  `json:"variancePercentage"`
	CostStatus         string           `json:"costStatus,omitempty"`
}

type BomCostReport struct {
	Summary BomCostSummary   `json:"summary"`
	Items   []ItemCostStatus `json:"items"`
}

type UpdateEstimatedCostRequest struct {
	UnitCost string `json:"unitCost"`
	Source   string `json:"source"`
}

type LowStockComponent struct {
	ComponentID     int    `json:"componentId"`
	SKU             string `json:"sku"`
	Name            string `json:"name"`
	StockQuantity   int    `json:"stockQuantity"`
	MinStockLevel   int    `json:"minStockLevel"`
	ReorderQuantity int    `json:"reorderQuantity"`
}
