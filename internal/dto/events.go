package dto

import "time"

// Event payloads published for the notification/reporting layer. The core
// only produces these; nothing in this service consumes them.

type MovementRecordedEvent struct {
	MovementID     int64     `json:"movementId"`
	ComponentID    int       `json:"componentId"`
	Type           string    `json:"type"`
	Quantity       int       `json:"quantity"`
	QuantityBefore int       `json:"quantityBefore"`
	QuantityAfter  int       `json:"quantityAfter"`
	UnitCost       *string   `json:"unitCost,omitempty"`
	AllocationID   *int64    `json:"allocationId,omitempty"`
	ImportID       *int      `json:"importId,omitempty"`
	OccurredAt     time.Time `json:"occurredAt"`
}

type LowStockEvent struct {
	ComponentID     int       `json:"componentId"`
	SKU             string    `json:"sku"`
	StockQuantity   int       `json:"stockQuantity"`
	MinStockLevel   int       `json:"minStockLevel"`
	ReorderQuantity int       `json:"reorderQuantity"`
	OccurredAt      time.Time `json:"occurredAt"`
}

type ComponentAllocatedEvent struct {
	AllocationID int64     `json:"allocationId"`
	ProjectID    int       `json:"projectId"`
	ComponentID  int       `json:"componentId"`
	BomItemID    *int64    `json:"bomItemId,omitempty"`
	Quantity     int       `json:"quantity"`
	TotalCost    *string   `json:"totalCost,omitempty"`
	OccurredAt   time.Time `json:"occurredAt"`
}

type AllocationReturnedEvent struct {
	AllocationID     int64     `json:"allocationId"`
	ComponentID      int       `json:"componentId"`
	QuantityReturned int       `json:"quantityReturned"`
	OccurredAt       time.Time `json:"occurredAt"`
}

type BomCostsCalculatedEvent struct {
	BomID              int64     `json:"bomId"`
	TotalEstimatedCost string    `json:"totalEstimatedCost"`
	TotalActualCost    string    `json:"totalActualCost"`
	CostVariance       string    `json:"costVariance"`
	VariancePct        string    `json:"costVariancePercentage"`
	OccurredAt         time.Time `json:"occurredAt"`
}
