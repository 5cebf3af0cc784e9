package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type RecordMovementRequest struct {
	ComponentID          int     `json:"componentId"`
	Type                 string  `json:"type"`
	Quantity             int     `json:"quantity"`
	UnitCost             *string `json:"unitCost,omitempty"`
	SourceInvoiceID      *int    `json:"sourceInvoiceId,omitempty"`
	DestinationProjectID *int    `json:"destinationProjectId,omitempty"`
	ImportID             *int    `json:"importId,omitempty"`
	Note                 *string `json:"note,omitempty"`
}

type MovementResponse struct {
	ID             int64            `json:"id"`
	ComponentID    int              `json:"componentId"`
	Type           string           `json:"type"`
	Quantity       int              `json:"quantity"`
	QuantityBefore int              `json:"quantityBefore"`
	QuantityAfter  int              `json:"quantityAfter"`
	UnitCost       *decimal.Decimal `json:"unitCost,omitempty"`
	TotalCost      *decimal.Decimal `json:"totalCost,omitempty"`
	CreatedAt      time.Time        `json:"createdAt"`
}

type ImportReversalResponse struct {
	ImportID          int `json:"importId"`
	MovementsDeleted  int `json:"movementsDeleted"`
	ComponentsUpdated int `json:"componentsUpdated"`
}
