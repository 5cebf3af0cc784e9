package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"mithril/internal/domain"
	"mithril/internal/dto"
	"mithril/internal/errors"
	"mithril/internal/infrastructure/metrics"
	ledgerservice "mithril/internal/ledger/service"
)

type TransactionManager interface {
	InTx(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error
}

type ComponentRepository interface {
	FindByIDForUpdate(ctx context.Context, tx *sql.Tx, id int) (*domain.Component, error)
}

type AllocationRepository interface {
	Insert(ctx context.Context, tx *sql.Tx, a *domain.ProjectComponentAllocation) (int64, error)
	FindByIDForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*domain.ProjectComponentAllocation, error)
	FindActiveByBomItemForUpdate(ctx context.Context, tx *sql.Tx, bomItemID int64) (*domain.ProjectComponentAllocation, error)
	Update(ctx context.Context, tx *sql.Tx, a *domain.ProjectComponentAllocation) error
}

type BomItemRepository interface {
	MarkAllocated(ctx context.Context, tx *sql.Tx, id int64, allocated bool) error
}

type Ledger interface {
	Record(ctx context.Context, tx *sql.Tx, component *domain.Component, input ledgerservice.RecordInput) (*domain.InventoryMovement, error)
}

type EventPublisher interface {
	PublishComponentAllocated(ctx context.Context, event dto.ComponentAllocatedEvent) error
	PublishAllocationReturned(ctx context.Context, event dto.AllocationReturnedEvent) error
}

// AllocationService orchestrates reserving component stock against BOM items.
// Every operation is all-or-nothing: the allocation row, the ledger entry and
// the stock update commit together or not at all.
type AllocationService struct {
	txm            TransactionManager
	componentRepo  ComponentRepository
	allocationRepo AllocationRepository
	bomItemRepo    BomItemRepository
	ledger         Ledger
	publisher      EventPublisher
	logger         *zap.Logger
}

func NewAllocationService(
	txm TransactionManager,
	componentRepo ComponentRepository,
	allocationRepo AllocationRepository,
	bomItemRepo BomItemRepository,
	ledger Ledger,
	publisher EventPublisher,
	logger *zap.Logger,
) *AllocationService {
	return &AllocationService{
		txm:            txm,
		componentRepo:  componentRepo,
		allocationRepo: allocationRepo,
		bomItemRepo:    bomItemRepo,
		ledger:         ledger,
		publisher:      publisher,
		logger:         logger,
	}
}

// Allocate reserves quantity × boardsCount units of the item's component. The
// caller has already validated that the item is linked and not yet allocated.
func (s *AllocationService) Allocate(ctx context.Context, item *domain.ProjectBomItem, projectID int, boardsCount int) (*domain.ProjectComponentAllocation, error) {
	start := time.Now()
	defer func() { metrics.AllocationLatency.Observe(time.Since(start).Seconds()) }()

	neededQty := item.Quantity * boardsCount
	var allocation *domain.ProjectComponentAllocation

	err := s.txm.InTx(ctx, func(txCtx context.Context, tx *sql.Tx) error {
		component, err := s.componentRepo.FindByIDForUpdate(txCtx, tx, *item.ComponentID)
		if err != nil {
			return err
		}

		if !component.HasSufficientStock(neededQty) {
			return errors.NewInsufficientStockError(component.ID, neededQty, component.StockQuantity)
		}

		allocation = domain.NewAllocation(projectID, component.ID, &item.ID, neededQty, component.UnitPrice, time.Now().UTC())
		id, err := s.allocationRepo.Insert(txCtx, tx, allocation)
		if err != nil {
			return err
		}
		allocation.ID = id

		_, err = s.ledger.Record(txCtx, tx, component, ledgerservice.RecordInput{
			Type:                 domain.MovementOut,
			Quantity:             neededQty,
			UnitCost:             component.UnitPrice,
			DestinationProjectID: &projectID,
			AllocationID:         &id,
		})
		if err != nil {
			return err
		}

		return s.bomItemRepo.MarkAllocated(txCtx, tx, item.ID, true)
	})
	if err != nil {
		return nil, err
	}

	item.Allocated = true
	metrics.AllocationsTotal.Inc()
	s.logger.Info("bom item allocated",
		zap.Int64("bomItemId", item.ID),
		zap.Int64("allocationId", allocation.ID),
		zap.Int("componentId", allocation.ComponentID),
		zap.Int("quantity", neededQty),
		zap.Int("boardsCount", boardsCount),
	)

	event := dto.ComponentAllocatedEvent{
		AllocationID: allocation.ID,
		ProjectID:    projectID,
		ComponentID:  allocation.ComponentID,
		BomItemID:    allocation.BomItemID,
		Quantity:     allocation.QuantityAllocated,
		OccurredAt:   time.Now().UTC(),
	}
	if allocation.TotalCost != nil {
		cost := allocation.TotalCost.String()
		event.TotalCost = &cost
	}
	if err := s.publisher.PublishComponentAllocated(ctx, event); err != nil {
		s.logger.Warn("failed to publish allocation event", zap.Int64("allocationId", allocation.ID), zap.Error(err))
	}

	return allocation, nil
}

// Deallocate returns the active allocation's remaining quantity to stock and
// terminates it.
func (s *AllocationService) Deallocate(ctx context.Context, item *domain.ProjectBomItem) (*domain.ProjectComponentAllocation, error) {
	start := time.Now()
	defer func() { metrics.AllocationLatency.Observe(time.Since(start).Seconds()) }()

	var allocation *domain.ProjectComponentAllocation

	err := s.txm.InTx(ctx, func(txCtx context.Context, tx *sql.Tx) error {
		var err error
		allocation, err = s.allocationRepo.FindActiveByBomItemForUpdate(txCtx, tx, item.ID)
		if err != nil {
			if _, ok := errors.IsNotFoundError(err); ok {
				return errors.NewInvalidAllocationStateError(fmt.Sprintf("bom item %d has no active allocation", item.ID))
			}
			return err
		}

		component, err := s.componentRepo.FindByIDForUpdate(txCtx, tx, allocation.ComponentID)
		if err != nil {
			return err
		}

		if allocation.QuantityRemaining > 0 {
			_, err = s.ledger.Record(txCtx, tx, component, ledgerservice.RecordInput{
				Type:         domain.MovementReturn,
				Quantity:     allocation.QuantityRemaining,
				UnitCost:     allocation.UnitCost,
				AllocationID: &allocation.ID,
			})
			if err != nil {
				return err
			}
		}

		if err := allocation.MarkReturned(); err != nil {
			return err
		}
		if err := s.allocationRepo.Update(txCtx, tx, allocation); err != nil {
			return err
		}

		return s.bomItemRepo.MarkAllocated(txCtx, tx, item.ID, false)
	})
	if err != nil {
		return nil, err
	}

	item.Allocated = false
	metrics.DeallocationsTotal.Inc()
	s.logger.Info("bom item deallocated",
		zap.Int64("bomItemId", item.ID),
		zap.Int64("allocationId", allocation.ID),
		zap.Int("quantityReturned", allocation.QuantityRemaining),
	)

	s.publishReturned(ctx, allocation, allocation.QuantityRemaining)

	return allocation, nil
}

// Use consumes qty units of an allocation during assembly.
func (s *AllocationService) Use(ctx context.Context, allocationID int64, qty int) (*domain.ProjectComponentAllocation, error) {
	var allocation *domain.ProjectComponentAllocation

	err := s.txm.InTx(ctx, func(txCtx context.Context, tx *sql.Tx) error {
		var err error
		allocation, err = s.allocationRepo.FindByIDForUpdate(txCtx, tx, allocationID)
		if err != nil {
			return err
		}

		if err := allocation.Use(qty, time.Now().UTC()); err != nil {
			return err
		}

		return s.allocationRepo.Update(txCtx, tx, allocation)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("allocation used",
		zap.Int64("allocationId", allocationID),
		zap.Int("quantity", qty),
		zap.String("status", string(allocation.Status)),
	)

	return allocation, nil
}

// Complete force-terminates an allocation, writing off whatever remains.
func (s *AllocationService) Complete(ctx context.Context, allocationID int64) (*domain.ProjectComponentAllocation, error) {
	var allocation *domain.ProjectComponentAllocation

	err := s.txm.InTx(ctx, func(txCtx context.Context, tx *sql.Tx) error {
		var err error
		allocation, err = s.allocationRepo.FindByIDForUpdate(txCtx, tx, allocationID)
		if err != nil {
			return err
		}

		if err := allocation.Complete(time.Now().UTC()); err != nil {
			return err
		}

		return s.allocationRepo.Update(txCtx, tx, allocation)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("allocation completed", zap.Int64("allocationId", allocationID))

	return allocation, nil
}

// Return gives back qty previously used units to stock and terminates the
// allocation, even when the return is partial.
func (s *AllocationService) Return(ctx context.Context, allocationID int64, qty int) (*domain.ProjectComponentAllocation, error) {
	var allocation *domain.ProjectComponentAllocation

	err := s.txm.InTx(ctx, func(txCtx context.Context, tx *sql.Tx) error {
		var err error
		allocation, err = s.allocationRepo.FindByIDForUpdate(txCtx, tx, allocationID)
		if err != nil {
			return err
		}

		component, err := s.componentRepo.FindByIDForUpdate(txCtx, tx, allocation.ComponentID)
		if err != nil {
			return err
		}

		if err := allocation.ReturnComponents(qty); err != nil {
			return err
		}

		_, err = s.ledger.Record(txCtx, tx, component, ledgerservice.RecordInput{
			Type:         domain.MovementReturn,
			Quantity:     qty,
			UnitCost:     allocation.UnitCost,
			AllocationID: &allocation.ID,
		})
		if err != nil {
			return err
		}

		return s.allocationRepo.Update(txCtx, tx, allocation)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("allocation returned",
		zap.Int64("allocationId", allocationID),
		zap.Int("quantityReturned", qty),
	)

	s.publishReturned(ctx, allocation, qty)

	return allocation, nil
}

func (s *AllocationService) publishReturned(ctx context.Context, allocation *domain.ProjectComponentAllocation, qty int) {
	event := dto.AllocationReturnedEvent{
		AllocationID:     allocation.ID,
		ComponentID:      allocation.ComponentID,
		QuantityReturned: qty,
		OccurredAt:       time.Now().UTC(),
	}
	if err := s.publisher.PublishAllocationReturned(ctx, event); err != nil {
		s.logger.Warn("failed to publish return event", zap.Int64("allocationId", allocation.ID), zap.Error(err))
	}
}
