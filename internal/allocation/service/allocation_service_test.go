package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"mithril/internal/domain"
	"mithril/internal/dto"
	apperrors "mithril/internal/errors"
	ledgerservice "mithril/internal/ledger/service"
)

func int64Ptr(i int64) *int64 {
	return &i
}

// Mock implementations

type mockTransactionManager struct {
	InTxFunc func(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error
}

func (m *mockTransactionManager) InTx(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error {
	if m.InTxFunc != nil {
		return m.InTxFunc(ctx, fn)
	}
	return fn(ctx, nil)
}

type mockComponentRepository struct {
	FindByIDForUpdateFunc func(ctx context.Context, tx *sql.Tx, id int) (*domain.Component, error)
}

func (m *mockComponentRepository) FindByIDForUpdate(ctx context.Context, tx *sql.Tx, id int) (*domain.Component, error) {
	return m.FindByIDForUpdateFunc(ctx, tx, id)
}

type mockAllocationRepository struct {
	InsertFunc                       func(ctx context.Context, tx *sql.Tx, a *domain.ProjectComponentAllocation) (int64, error)
	FindByIDForUpdateFunc            func(ctx context.Context, tx *sql.Tx, id int64) (*domain.ProjectComponentAllocation, error)
	FindActiveByBomItemForUpdateFunc func(ctx context.Context, tx *sql.Tx, bomItemID int64) (*domain.ProjectComponentAllocation, error)
	UpdateFunc                       func(ctx context.Context, tx *sql.Tx, a *domain.ProjectComponentAllocation) error
}

func (m *mockAllocationRepository) Insert(ctx context.Context, tx *sql.Tx, a *domain.ProjectComponentAllocation) (int64, error) {
	return m.InsertFunc(ctx, tx, a)
}

func (m *mockAllocationRepository) FindByIDForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*domain.ProjectComponentAllocation, error) {
	return m.FindByIDForUpdateFunc(ctx, tx, id)
}

func (m *mockAllocationRepository) FindActiveByBomItemForUpdate(ctx context.Context, tx *sql.Tx, bomItemID int64) (*domain.ProjectComponentAllocation, error) {
	return m.FindActiveByBomItemForUpdateFunc(ctx, tx, bomItemID)
}

func (m *mockAllocationRepository) Update(ctx context.Context, tx *sql.Tx, a *domain.ProjectComponentAllocation) error {
	return m.UpdateFunc(ctx, tx, a)
}

type mockBomItemRepository struct {
	MarkAllocatedFunc func(ctx context.Context, tx *sql.Tx, id int64, allocated bool) error
}

func (m *mockBomItemRepository) MarkAllocated(ctx context.Context, tx *sql.Tx, id int64, allocated bool) error {
	return m.MarkAllocatedFunc(ctx, tx, id, allocated)
}

// mockLedger applies the stock change the way the real ledger does, so tests
// can assert the quantityAfter math.
type mockLedger struct {
	recorded []ledgerservice.RecordInput
	fail     error
}

func (m *mockLedger) Record(_ context.Context, _ *sql.Tx, component *domain.Component, input ledgerservice.RecordInput) (*domain.InventoryMovement, error) {
	if m.fail != nil {
		return nil, m.fail
	}

	before := component.StockQuantity
	after := before + input.Type.Direction()*input.Quantity
	component.StockQuantity = after
	m.recorded = append(m.recorded, input)

	return &domain.InventoryMovement{
		ComponentID:    component.ID,
		Type:           input.Type,
		Quantity:       input.Quantity,
		QuantityBefore: before,
		QuantityAfter:  after,
	}, nil
}

type mockEventPublisher struct {
	allocatedEvents []dto.ComponentAllocatedEvent
	returnedEvents  []dto.AllocationReturnedEvent
}

func (m *mockEventPublisher) PublishComponentAllocated(_ context.Context, event dto.ComponentAllocatedEvent) error {
	m.allocatedEvents = append(m.allocatedEvents, event)
	return nil
}

func (m *mockEventPublisher) PublishAllocationReturned(_ context.Context, event dto.AllocationReturnedEvent) error {
	m.returnedEvents = append(m.returnedEvents, event)
	return nil
}

// Tests

func TestAllocate_Success(t *testing.T) {
	unitPrice := decimal.RequireFromString("2.50")
	component := &domain.Component{ID: 12, StockQuantity: 100, UnitPrice: &unitPrice}

	componentRepo := &mockComponentRepository{
		FindByIDForUpdateFunc: func(ctx context.Context, tx *sql.Tx, id int) (*domain.Component, error) {
			return component, nil
		},
	}

	var inserted *domain.ProjectComponentAllocation
	allocationRepo := &mockAllocationRepository{
		InsertFunc: func(ctx context.Context, tx *sql.Tx, a *domain.ProjectComponentAllocation) (int64, error) {
			inserted = a
			return 55, nil
		},
	}

	markedAllocated := false
	bomItemRepo := &mockBomItemRepository{
		MarkAllocatedFunc: func(ctx context.Context, tx *sql.Tx, id int64, allocated bool) error {
			markedAllocated = allocated
			return nil
		},
	}

	ledger := &mockLedger{}
	publisher := &mockEventPublisher{}

	svc := NewAllocationService(&mockTransactionManager{}, componentRepo, allocationRepo, bomItemRepo, ledger, publisher, zap.NewNop())

	item := &domain.ProjectBomItem{ID: 7, BomID: 3, ComponentID: &component.ID, Quantity: 2}
	allocation, err := svc.Allocate(context.Background(), item, 9, 10)

	assert.NoError(t, err)
	assert.Equal(t, int64(55), allocation.ID)
	assert.Equal(t, 20, allocation.QuantityAllocated)
	assert.Equal(t, 20, allocation.QuantityRemaining)
	assert.Equal(t, domain.AllocationStatusAllocated, allocation.Status)
	assert.True(t, allocation.TotalCost.Equal(decimal.RequireFromString("50.00")))

	assert.NotNil(t, inserted)
	assert.Equal(t, int64(7), *inserted.BomItemID)

	// The ledger debit drained the stock: 100 − 20 = 80.
	assert.Equal(t, 80, component.StockQuantity)
	assert.Len(t, ledger.recorded, 1)
	assert.Equal(t, domain.MovementOut, ledger.recorded[0].Type)
	assert.Equal(t, 20, ledger.recorded[0].Quantity)
	assert.Equal(t, 9, *ledger.recorded[0].DestinationProjectID)
	assert.Equal(t, int64(55), *ledger.recorded[0].AllocationID)

	assert.True(t, markedAllocated)
	assert.True(t, item.Allocated)
	assert.Len(t, publisher.allocatedEvents, 1)
}

func TestAllocate_InsufficientStock(t *testing.T) {
	component := &domain.Component{ID: 12, StockQuantity: 10}

	componentRepo := &mockComponentRepository{
		FindByIDForUpdateFunc: func(ctx context.Context, tx *sql.Tx, id int) (*domain.Component, error) {
			return component, nil
		},
	}
	allocationRepo := &mockAllocationRepository{
		InsertFunc: func(ctx context.Context, tx *sql.Tx, a *domain.ProjectComponentAllocation) (int64, error) {
			t.Fatal("allocation must not be inserted when stock is insufficient")
			return 0, nil
		},
	}
	bomItemRepo := &mockBomItemRepository{
		MarkAllocatedFunc: func(ctx context.Context, tx *sql.Tx, id int64, allocated bool) error {
			t.Fatal("bom item must not be marked on failure")
			return nil
		},
	}

	ledger := &mockLedger{}
	publisher := &mockEventPublisher{}

	svc := NewAllocationService(&mockTransactionManager{}, componentRepo, allocationRepo, bomItemRepo, ledger, publisher, zap.NewNop())

	item := &domain.ProjectBomItem{ID: 7, ComponentID: &component.ID, Quantity: 4}
	_, err := svc.Allocate(context.Background(), item, 9, 3)

	assert.Error(t, err)
	stockErr, ok := apperrors.IsInsufficientStockError(err)
	assert.True(t, ok)
	assert.Equal(t, 12, stockErr.Requested)
	assert.Equal(t, 10, stockErr.Available)

	assert.Equal(t, 10, component.StockQuantity)
	assert.Empty(t, ledger.recorded)
	assert.False(t, item.Allocated)
	assert.Empty(t, publisher.allocatedEvents)
}

func TestDeallocate_ReturnsRemaining(t *testing.T) {
	unitCost := decimal.RequireFromString("0.10")
	component := &domain.Component{ID: 12, StockQuantity: 80}
	allocation := &domain.ProjectComponentAllocation{
		ID:                55,
		ComponentID:       12,
		BomItemID:         int64Ptr(7),
		QuantityAllocated: 20,
		QuantityUsed:      5,
		QuantityRemaining: 15,
		Status:            domain.AllocationStatusInUse,
		UnitCost:          &unitCost,
	}

	componentRepo := &mockComponentRepository{
		FindByIDForUpdateFunc: func(ctx context.Context, tx *sql.Tx, id int) (*domain.Component, error) {
			return component, nil
		},
	}

	var updated *domain.ProjectComponentAllocation
	allocationRepo := &mockAllocationRepository{
		FindActiveByBomItemForUpdateFunc: func(ctx context.Context, tx *sql.Tx, bomItemID int64) (*domain.ProjectComponentAllocation, error) {
			return allocation, nil
		},
		UpdateFunc: func(ctx context.Context, tx *sql.Tx, a *domain.ProjectComponentAllocation) error {
			updated = a
			return nil
		},
	}

	var marked *bool
	bomItemRepo := &mockBomItemRepository{
		MarkAllocatedFunc: func(ctx context.Context, tx *sql.Tx, id int64, allocated bool) error {
			marked = &allocated
			return nil
		},
	}

	ledger := &mockLedger{}
	publisher := &mockEventPublisher{}

	svc := NewAllocationService(&mockTransactionManager{}, componentRepo, allocationRepo, bomItemRepo, ledger, publisher, zap.NewNop())

	item := &domain.ProjectBomItem{ID: 7, Allocated: true}
	result, err := svc.Deallocate(context.Background(), item)

	assert.NoError(t, err)
	assert.Equal(t, domain.AllocationStatusReturned, result.Status)
	assert.Equal(t, 95, component.StockQuantity)

	assert.Len(t, ledger.recorded, 1)
	assert.Equal(t, domain.MovementReturn, ledger.recorded[0].Type)
	assert.Equal(t, 15, ledger.recorded[0].Quantity)

	assert.NotNil(t, updated)
	assert.NotNil(t, marked)
	assert.False(t, *marked)
	assert.False(t, item.Allocated)
	assert.Len(t, publisher.returnedEvents, 1)
	assert.Equal(t, 15, publisher.returnedEvents[0].QuantityReturned)
}

func TestDeallocate_FullyUsedSkipsLedger(t *testing.T) {
	component := &domain.Component{ID: 12, StockQuantity: 80}
	allocation := &domain.ProjectComponentAllocation{
		ID:                55,
		ComponentID:       12,
		QuantityAllocated: 20,
		QuantityUsed:      20,
		QuantityRemaining: 0,
		Status:            domain.AllocationStatusInUse,
	}

	componentRepo := &mockComponentRepository{
		FindByIDForUpdateFunc: func(ctx context.Context, tx *sql.Tx, id int) (*domain.Component, error) {
			return component, nil
		},
	}
	allocationRepo := &mockAllocationRepository{
		FindActiveByBomItemForUpdateFunc: func(ctx context.Context, tx *sql.Tx, bomItemID int64) (*domain.ProjectComponentAllocation, error) {
			return allocation, nil
		},
		UpdateFunc: func(ctx context.Context, tx *sql.Tx, a *domain.ProjectComponentAllocation) error {
			return nil
		},
	}
	bomItemRepo := &mockBomItemRepository{
		MarkAllocatedFunc: func(ctx context.Context, tx *sql.Tx, id int64, allocated bool) error {
			return nil
		},
	}

	ledger := &mockLedger{}

	svc := NewAllocationService(&mockTransactionManager{}, componentRepo, allocationRepo, bomItemRepo, ledger, &mockEventPublisher{}, zap.NewNop())

	item := &domain.ProjectBomItem{ID: 7, Allocated: true}
	result, err := svc.Deallocate(context.Background(), item)

	assert.NoError(t, err)
	assert.Equal(t, domain.AllocationStatusReturned, result.Status)
	// Nothing left to give back, so no ledger entry and no stock change.
	assert.Empty(t, ledger.recorded)
	assert.Equal(t, 80, component.StockQuantity)
}

func TestDeallocate_NoActiveAllocation(t *testing.T) {
	allocationRepo := &mockAllocationRepository{
		FindActiveByBomItemForUpdateFunc: func(ctx context.Context, tx *sql.Tx, bomItemID int64) (*domain.ProjectComponentAllocation, error) {
			return nil, apperrors.NewNotFoundError("no active allocation")
		},
	}

	svc := NewAllocationService(&mockTransactionManager{}, &mockComponentRepository{}, allocationRepo, &mockBomItemRepository{}, &mockLedger{}, &mockEventPublisher{}, zap.NewNop())

	item := &domain.ProjectBomItem{ID: 7}
	_, err := svc.Deallocate(context.Background(), item)

	assert.Error(t, err)
	_, ok := apperrors.IsInvalidAllocationStateError(err)
	assert.True(t, ok)
}

func TestUse_TransitionsToInUse(t *testing.T) {
	allocation := domain.NewAllocation(9, 12, int64Ptr(7), 20, nil, time.Now().UTC())
	allocation.ID = 55

	allocationRepo := &mockAllocationRepository{
		FindByIDForUpdateFunc: func(ctx context.Context, tx *sql.Tx, id int64) (*domain.ProjectComponentAllocation, error) {
			return allocation, nil
		},
		UpdateFunc: func(ctx context.Context, tx *sql.Tx, a *domain.ProjectComponentAllocation) error {
			return nil
		},
	}

	svc := NewAllocationService(&mockTransactionManager{}, &mockComponentRepository{}, allocationRepo, &mockBomItemRepository{}, &mockLedger{}, &mockEventPublisher{}, zap.NewNop())

	result, err := svc.Use(context.Background(), 55, 8)

	assert.NoError(t, err)
	assert.Equal(t, domain.AllocationStatusInUse, result.Status)
	assert.Equal(t, 8, result.QuantityUsed)
	assert.Equal(t, 12, result.QuantityRemaining)
}

func TestUse_CompletesWhenDrained(t *testing.T) {
	allocation := domain.NewAllocation(9, 12, int64Ptr(7), 20, nil, time.Now().UTC())
	allocation.ID = 55

	allocationRepo := &mockAllocationRepository{
		FindByIDForUpdateFunc: func(ctx context.Context, tx *sql.Tx, id int64) (*domain.ProjectComponentAllocation, error) {
			return allocation, nil
		},
		UpdateFunc: func(ctx context.Context, tx *sql.Tx, a *domain.ProjectComponentAllocation) error {
			return nil
		},
	}

	svc := NewAllocationService(&mockTransactionManager{}, &mockComponentRepository{}, allocationRepo, &mockBomItemRepository{}, &mockLedger{}, &mockEventPublisher{}, zap.NewNop())

	result, err := svc.Use(context.Background(), 55, 20)

	assert.NoError(t, err)
	assert.Equal(t, domain.AllocationStatusCompleted, result.Status)
	assert.NotNil(t, result.CompletedAt)
}

func TestComplete_AlreadyTerminal(t *testing.T) {
	now := time.Now().UTC()
	allocation := &domain.ProjectComponentAllocation{
		ID:          55,
		Status:      domain.AllocationStatusReturned,
		CompletedAt: &now,
	}

	allocationRepo := &mockAllocationRepository{
		FindByIDForUpdateFunc: func(ctx context.Context, tx *sql.Tx, id int64) (*domain.ProjectComponentAllocation, error) {
			return allocation, nil
		},
		UpdateFunc: func(ctx context.Context, tx *sql.Tx, a *domain.ProjectComponentAllocation) error {
			t.Fatal("update must not run for a terminal allocation")
			return nil
		},
	}

	svc := NewAllocationService(&mockTransactionManager{}, &mockComponentRepository{}, allocationRepo, &mockBomItemRepository{}, &mockLedger{}, &mockEventPublisher{}, zap.NewNop())

	_, err := svc.Complete(context.Background(), 55)

	assert.Error(t, err)
	_, ok := apperrors.IsInvalidAllocationStateError(err)
	assert.True(t, ok)
}

func TestReturn_RestoresStockAndTerminates(t *testing.T) {
	unitCost := decimal.RequireFromString("0.10")
	component := &domain.Component{ID: 12, StockQuantity: 80}
	allocation := &domain.ProjectComponentAllocation{
		ID:                55,
		ComponentID:       12,
		QuantityAllocated: 20,
		QuantityUsed:      10,
		QuantityRemaining: 10,
		Status:            domain.AllocationStatusInUse,
		UnitCost:          &unitCost,
	}

	componentRepo := &mockComponentRepository{
		FindByIDForUpdateFunc: func(ctx context.Context, tx *sql.Tx, id int) (*domain.Component, error) {
			return component, nil
		},
	}
	allocationRepo := &mockAllocationRepository{
		FindByIDForUpdateFunc: func(ctx context.Context, tx *sql.Tx, id int64) (*domain.ProjectComponentAllocation, error) {
			return allocation, nil
		},
		UpdateFunc: func(ctx context.Context, tx *sql.Tx, a *domain.ProjectComponentAllocation) error {
			return nil
		},
	}

	ledger := &mockLedger{}
	publisher := &mockEventPublisher{}

	svc := NewAllocationService(&mockTransactionManager{}, componentRepo, allocationRepo, &mockBomItemRepository{}, ledger, publisher, zap.NewNop())

	result, err := svc.Return(context.Background(), 55, 4)

	assert.NoError(t, err)
	assert.Equal(t, domain.AllocationStatusReturned, result.Status)
	assert.Equal(t, 6, result.QuantityUsed)
	assert.Equal(t, 84, component.StockQuantity)

	assert.Len(t, ledger.recorded, 1)
	assert.Equal(t, domain.MovementReturn, ledger.recorded[0].Type)
	assert.Equal(t, 4, ledger.recorded[0].Quantity)

	assert.Len(t, publisher.returnedEvents, 1)
	assert.Equal(t, 4, publisher.returnedEvents[0].QuantityReturned)
}

func TestReturn_ExceedsUsed(t *testing.T) {
	component := &domain.Component{ID: 12, StockQuantity: 80}
	allocation := &domain.ProjectComponentAllocation{
		ID:                55,
		ComponentID:       12,
		QuantityAllocated: 20,
		QuantityUsed:      3,
		QuantityRemaining: 17,
		Status:            domain.AllocationStatusInUse,
	}

	componentRepo := &mockComponentRepository{
		FindByIDForUpdateFunc: func(ctx context.Context, tx *sql.Tx, id int) (*domain.Component, error) {
			return component, nil
		},
	}
	allocationRepo := &mockAllocationRepository{
		FindByIDForUpdateFunc: func(ctx context.Context, tx *sql.Tx, id int64) (*domain.ProjectComponentAllocation, error) {
			return allocation, nil
		},
	}

	ledger := &mockLedger{}

	svc := NewAllocationService(&mockTransactionManager{}, componentRepo, allocationRepo, &mockBomItemRepository{}, ledger, &mockEventPublisher{}, zap.NewNop())

	_, err := svc.Return(context.Background(), 55, 5)

	assert.Error(t, err)
	_, ok := apperrors.IsValidationError(err)
	assert.True(t, ok)
	assert.Empty(t, ledger.recorded)
	assert.Equal(t, 80, component.StockQuantity)
}
