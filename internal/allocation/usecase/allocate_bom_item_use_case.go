package usecase

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"mithril/internal/domain"
	apperrors "mithril/internal/errors"
	"mithril/internal/infrastructure/metrics"
	"mithril/internal/infrastructure/mysql"
)

type AllocationService interface {
	Allocate(ctx context.Context, item *domain.ProjectBomItem, projectID int, boardsCount int) (*domain.ProjectComponentAllocation, error)
	Deallocate(ctx context.Context, item *domain.ProjectBomItem) (*domain.ProjectComponentAllocation, error)
	Use(ctx context.Context, allocationID int64, qty int) (*domain.ProjectComponentAllocation, error)
	Complete(ctx context.Context, allocationID int64) (*domain.ProjectComponentAllocation, error)
	Return(ctx context.Context, allocationID int64, qty int) (*domain.ProjectComponentAllocation, error)
}

type BomItemRepository interface {
	FindByID(ctx context.Context, id int64) (*domain.ProjectBomItem, error)
}

type BomRepository interface {
	FindByID(ctx context.Context, id int64) (*domain.ProjectBom, error)
}

// AllocateBomItemUseCase validates allocation requests outside the
// transaction, then drives the allocation service with deadlock retry.
type AllocateBomItemUseCase struct {
	bomItemRepo      BomItemRepository
	bomRepo          BomRepository
	allocationSvc    AllocationService
	logger           *zap.Logger
	maxRetryAttempts int
}

func NewAllocateBomItemUseCase(
	bomItemRepo BomItemRepository,
	bomRepo BomRepository,
	allocationSvc AllocationService,
	logger *zap.Logger,
	maxRetryAttempts int,
) *AllocateBomItemUseCase {
	return &AllocateBomItemUseCase{
		bomItemRepo:      bomItemRepo,
		bomRepo:          bomRepo,
		allocationSvc:    allocationSvc,
		logger:           logger,
		maxRetryAttempts: maxRetryAttempts,
	}
}

func (uc *AllocateBomItemUseCase) AllocateBomItem(ctx context.Context, bomItemID int64, boardsCount int) (*domain.ProjectComponentAllocation, error) {
	uc.logger.Info("allocation started", zap.Int64("bomItemId", bomItemID), zap.Int("boardsCount", boardsCount))

	if boardsCount < 1 {
		metrics.AllocationFailuresTotal.WithLabelValues("validation").Inc()
		return nil, apperrors.NewValidationError("invalid boards count", apperrors.ValidationDetail{
			Field:   "boardsCount",
			Message: "boardsCount must be a positive integer",
		})
	}

	item, err := uc.bomItemRepo.FindByID(ctx, bomItemID)
	if err != nil {
		metrics.AllocationFailuresTotal.WithLabelValues("not_found").Inc()
		return nil, err
	}

	if item.ComponentID == nil {
		metrics.AllocationFailuresTotal.WithLabelValues("validation").Inc()
		return nil, apperrors.NewValidationError("bom item has no linked component", apperrors.ValidationDetail{
			Field:   "componentId",
			Message: fmt.Sprintf("bom item %d must be matched to a component before allocation", bomItemID),
		})
	}

	// Re-allocating an allocated item would double-count the stock decrement.
	if item.Allocated {
		metrics.AllocationFailuresTotal.WithLabelValues("already_allocated").Inc()
		return nil, apperrors.NewConflictError(fmt.Sprintf("bom item %d is already allocated; deallocate first", bomItemID))
	}

	bom, err := uc.bomRepo.FindByID(ctx, item.BomID)
	if err != nil {
		return nil, err
	}

	allocation, err := uc.withDeadlockRetry(ctx, bomItemID, func() (*domain.ProjectComponentAllocation, error) {
		return uc.allocationSvc.Allocate(ctx, item, bom.ProjectID, boardsCount)
	})
	if err != nil {
		if _, ok := apperrors.IsInsufficientStockError(err); ok {
			metrics.AllocationFailuresTotal.WithLabelValues("insufficient_stock").Inc()
		}
		return nil, err
	}

	return allocation, nil
}

func (uc *AllocateBomItemUseCase) DeallocateBomItem(ctx context.Context, bomItemID int64) (*domain.ProjectComponentAllocation, error) {
	uc.logger.Info("deallocation started", zap.Int64("bomItemId", bomItemID))

	item, err := uc.bomItemRepo.FindByID(ctx, bomItemID)
	if err != nil {
		return nil, err
	}

	if !item.Allocated {
		return nil, apperrors.NewInvalidAllocationStateError(fmt.Sprintf("bom item %d is not allocated", bomItemID))
	}

	return uc.withDeadlockRetry(ctx, bomItemID, func() (*domain.ProjectComponentAllocation, error) {
		return uc.allocationSvc.Deallocate(ctx, item)
	})
}

func (uc *AllocateBomItemUseCase) UseAllocation(ctx context.Context, allocationID int64, qty int) (*domain.ProjectComponentAllocation, error) {
	return uc.allocationSvc.Use(ctx, allocationID, qty)
}

func (uc *AllocateBomItemUseCase) CompleteAllocation(ctx context.Context, allocationID int64) (*domain.ProjectComponentAllocation, error) {
	return uc.allocationSvc.Complete(ctx, allocationID)
}

func (uc *AllocateBomItemUseCase) ReturnAllocation(ctx context.Context, allocationID int64, qty int) (*domain.ProjectComponentAllocation, error) {
	return uc.withDeadlockRetry(ctx, allocationID, func() (*domain.ProjectComponentAllocation, error) {
		return uc.allocationSvc.Return(ctx, allocationID, qty)
	})
}

func (uc *AllocateBomItemUseCase) withDeadlockRetry(
	ctx context.Context,
	entityID int64,
	op func() (*domain.ProjectComponentAllocation, error),
) (*domain.ProjectComponentAllocation, error) {
	maxAttempts := uc.maxRetryAttempts
	// Backoff intervals: attempt 1 (0ms), attempt 2 (100ms), attempt 3 (200ms), etc.
	backoffs := []time.Duration{0, 100 * time.Millisecond, 200 * time.Millisecond}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result, err := op()
		if err == nil {
			return result, nil
		}

		if mysql.IsDeadlockError(err) {
			if attempt < maxAttempts {
				backoff := backoffs[(attempt-1)%len(backoffs)]
				// Jitter: ±20% of the backoff base
				jitter := time.Duration(float64(backoff) * (0.8 + rand.Float64()*0.4))
				time.Sleep(jitter)
				uc.logger.Warn("deadlock detected, retrying",
					zap.Int("attempt", attempt),
					zap.Int("maxAttempts", maxAttempts),
					zap.Int64("entityId", entityID),
				)
				continue
			}
			break
		}

		return nil, err
	}

	metrics.AllocationFailuresTotal.WithLabelValues("deadlock").Inc()
	return nil, apperrors.NewDeadlockError("max retries exceeded")
}
