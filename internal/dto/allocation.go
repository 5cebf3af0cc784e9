package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type AllocateRequest struct {
	BoardsCount int `json:"boardsCount"`
}

type QuantityRequest struct {
	Quantity int `json:"quantity"`
}

type AllocationResponse struct {
	ID                int64            `json:"id"`
	ProjectID         int              `json:"projectId"`
	ComponentID       int              `json:"componentId"`
	BomItemID         *int64           `json:"bomItemId,omitempty"`
	QuantityAllocated int              `json:"quantityAllocated"`
	QuantityUsed      int              `json:"quantityUsed"`
	QuantityRemaining int              `json:"quantityRemaining"`
	Status            string           `json:"status"`
	UnitCost          *decimal.Decimal `json:"unitCost,omitempty"`
	TotalCost         *decimal.Decimal `json:"totalCost,omitempty"`
	AllocatedAt       time.Time        `json:"allocatedAt"`
	CompletedAt       *time.Time       `json:"completedAt,omitempty"`
}
