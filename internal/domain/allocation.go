package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"mithril/internal/errors"
)

type AllocationStatus string

const (
	AllocationStatusAllocated AllocationStatus = "allocated"
	AllocationStatusInUse     AllocationStatus = "in_use"
	AllocationStatusCompleted AllocationStatus = "completed"
	AllocationStatusReturned  AllocationStatus = "returned"
)

// ProjectComponentAllocation reserves a quantity of a component's stock
// against a project, optionally tied to a specific BOM item. It is never
// hard-deleted; it stays as the traceability record for the production run.
type ProjectComponentAllocation struct {
	ID                int64
	ProjectID         int
	ComponentID       int
	BomItemID         *int64
	QuantityAllocated int
	QuantityUsed      int
	QuantityRemaining int
	Status            AllocationStatus
	UnitCost          *decimal.Decimal
	TotalCost         *decimal.Decimal
	SourceInvoiceID   *int
	AllocatedAt       time.Time
	CompletedAt       *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NewAllocation builds an allocation in its initial state. The total cost is
// derived from the component's unit price when one is known.
func NewAllocation(projectID, componentID int, bomItemID *int64, quantity int, unitPrice *decimal.Decimal, now time.Time) *ProjectComponentAllocation {
	a := &ProjectComponentAllocation{
		ProjectID:         projectID,
		ComponentID:       componentID,
		BomItemID:         bomItemID,
		QuantityAllocated: quantity,
		QuantityUsed:      0,
		QuantityRemaining: quantity,
		Status:            AllocationStatusAllocated,
		AllocatedAt:       now,
	}
	if unitPrice != nil {
		cost := *unitPrice
		total := cost.Mul(decimal.NewFromInt(int64(quantity)))
		a.UnitCost = &cost
		a.TotalCost = &total
	}
	return a
}

func (a *ProjectComponentAllocation) Terminal() bool {
	return a.Status == AllocationStatusCompleted || a.Status == AllocationStatusReturned
}

func (a *ProjectComponentAllocation) Active() bool {
	return !a.Terminal()
}

// Use consumes qty units from the allocation. When nothing remains the
// allocation completes; otherwise it moves to in_use.
func (a *ProjectComponentAllocation) Use(qty int, now time.Time) error {
	if a.Terminal() {
		return errors.NewInvalidAllocationStateError(fmt.Sprintf("allocation %d is %s and cannot be used", a.ID, a.Status))
	}
	if qty <= 0 {
		return errors.NewValidationError("quantity must be positive", errors.ValidationDetail{Field: "quantity", Message: "quantity must be a positive integer"})
	}
	if qty > a.QuantityRemaining {
		return errors.NewValidationError("quantity exceeds remaining", errors.ValidationDetail{
			Field:   "quantity",
			Message: fmt.Sprintf("quantity %d exceeds remaining %d", qty, a.QuantityRemaining),
		})
	}

	a.QuantityUsed += qty
	a.QuantityRemaining = a.QuantityAllocated - a.QuantityUsed
	if a.QuantityRemaining <= 0 {
		a.Status = AllocationStatusCompleted
		a.CompletedAt = &now
	} else {
		a.Status = AllocationStatusInUse
	}
	return nil
}

// Complete force-terminates the allocation regardless of remaining quantity.
// Used when leftover stock is written off rather than returned.
func (a *ProjectComponentAllocation) Complete(now time.Time) error {
	if a.Terminal() {
		return errors.NewInvalidAllocationStateError(fmt.Sprintf("allocation %d is already %s", a.ID, a.Status))
	}
	a.Status = AllocationStatusCompleted
	a.CompletedAt = &now
	return nil
}

// ReturnComponents gives back qty previously used units. A return always
// terminates the allocation, even when partial; further Use calls on the
// remainder are rejected. This mirrors the behavior of the upstream system.
func (a *ProjectComponentAllocation) ReturnComponents(qty int) error {
	if a.Terminal() {
		return errors.NewInvalidAllocationStateError(fmt.Sprintf("allocation %d is %s and cannot accept returns", a.ID, a.Status))
	}
	if qty <= 0 {
		return errors.NewValidationError("quantity must be positive", errors.ValidationDetail{Field: "quantity", Message: "quantity must be a positive integer"})
	}
	if qty > a.QuantityUsed {
		return errors.NewValidationError("quantity exceeds used", errors.ValidationDetail{
			Field:   "quantity",
			Message: fmt.Sprintf("quantity %d exceeds used %d", qty, a.QuantityUsed),
		})
	}

	a.QuantityUsed -= qty
	a.QuantityRemaining = a.QuantityAllocated - a.QuantityUsed
	a.Status = AllocationStatusReturned
	return nil
}

// MarkReturned terminates the allocation when its unused remainder goes back
// to stock (deallocation path).
func (a *ProjectComponentAllocation) MarkReturned() error {
	if a.Terminal() {
		return errors.NewInvalidAllocationStateError(fmt.Sprintf("allocation %d is already %s", a.ID, a.Status))
	}
	a.Status = AllocationStatusReturned
	return nil
}
