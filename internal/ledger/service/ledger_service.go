package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"mithril/internal/domain"
	"mithril/internal/dto"
	"mithril/internal/errors"
	"mithril/internal/infrastructure/metrics"
)

type TransactionManager interface {
	InTx(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error
}

type ComponentRepository interface {
	FindByIDForUpdate(ctx context.Context, tx *sql.Tx, id int) (*domain.Component, error)
	UpdateStockQuantity(ctx context.Context, tx *sql.Tx, id int, quantity int) error
	ClearImportRef(ctx context.Context, tx *sql.Tx, importID int) error
}

type MovementRepository interface {
	Insert(ctx context.Context, tx *sql.Tx, m domain.InventoryMovement) (int64, error)
	FindByImportID(ctx context.Context, tx *sql.Tx, importID int) ([]domain.InventoryMovement, error)
	DeleteByImportID(ctx context.Context, tx *sql.Tx, importID int) (int, error)
}

type EventPublisher interface {
	PublishMovementRecorded(ctx context.Context, event dto.MovementRecordedEvent) error
	PublishLowStock(ctx context.Context, event dto.LowStockEvent) error
}

// RecordInput describes one stock-affecting operation. Quantity is always
// positive; the type implies the direction.
type RecordInput struct {
	Type                 domain.MovementType
	Quantity             int
	UnitCost             *decimal.Decimal
	SourceInvoiceID      *int
	DestinationProjectID *int
	AllocationID         *int64
	ImportID             *int
	Note                 *string
}

// LedgerService owns every change to component stock. A movement row and the
// matching stock update always land in the same transaction.
type LedgerService struct {
	txm           TransactionManager
	componentRepo ComponentRepository
	movementRepo  MovementRepository
	publisher     EventPublisher
	logger        *zap.Logger
}

func NewLedgerService(
	txm TransactionManager,
	componentRepo ComponentRepository,
	movementRepo MovementRepository,
	publisher EventPublisher,
	logger *zap.Logger,
) *LedgerService {
	return &LedgerService{
		txm:           txm,
		componentRepo: componentRepo,
		movementRepo:  movementRepo,
		publisher:     publisher,
		logger:        logger,
	}
}

// Record writes one movement and applies it to the component's stock inside
// the caller's transaction. The caller must already hold the row lock on the
// component. The component's in-memory StockQuantity is advanced so callers
// can chain further writes.
func (s *LedgerService) Record(ctx context.Context, tx *sql.Tx, component *domain.Component, input RecordInput) (*domain.InventoryMovement, error) {
	if !input.Type.Valid() {
		return nil, errors.NewValidationError("invalid movement type", errors.ValidationDetail{
			Field:   "type",
			Message: fmt.Sprintf("type must be one of in, out, adjustment, return; got %q", input.Type),
		})
	}
	if input.Quantity <= 0 {
		return nil, errors.NewValidationError("invalid movement quantity", errors.ValidationDetail{
			Field:   "quantity",
			Message: "quantity must be a positive integer",
		})
	}

	direction := input.Type.Direction()
	if direction < 0 && component.StockQuantity-input.Quantity < 0 {
		return nil, errors.NewInsufficientStockError(component.ID, input.Quantity, component.StockQuantity)
	}

	before := component.StockQuantity
	after := before + direction*input.Quantity

	movement := domain.InventoryMovement{
		ComponentID:          component.ID,
		Type:                 input.Type,
		Quantity:             input.Quantity,
		QuantityBefore:       before,
		QuantityAfter:        after,
		UnitCost:             input.UnitCost,
		SourceInvoiceID:      input.SourceInvoiceID,
		DestinationProjectID: input.DestinationProjectID,
		AllocationID:         input.AllocationID,
		ImportID:             input.ImportID,
		Note:                 input.Note,
	}
	if input.UnitCost != nil {
		total := input.UnitCost.Mul(decimal.NewFromInt(int64(input.Quantity)))
		movement.TotalCost = &total
	}

	id, err := s.movementRepo.Insert(ctx, tx, movement)
	if err != nil {
		return nil, err
	}
	movement.ID = id

	if err := s.componentRepo.UpdateStockQuantity(ctx, tx, component.ID, after); err != nil {
		return nil, err
	}
	component.StockQuantity = after

	s.logger.Info("movement recorded",
		zap.Int64("movementId", id),
		zap.Int("componentId", component.ID),
		zap.String("type", string(input.Type)),
		zap.Int("quantity", input.Quantity),
		zap.Int("quantityBefore", before),
		zap.Int("quantityAfter", after),
	)

	return &movement, nil
}

// RecordMovement is the standalone entry point used by invoice processing and
// manual adjustments. It opens its own transaction and locks the component
// row for the duration.
func (s *LedgerService) RecordMovement(ctx context.Context, componentID int, input RecordInput) (*domain.InventoryMovement, error) {
	var movement *domain.InventoryMovement
	var component *domain.Component

	err := s.txm.InTx(ctx, func(txCtx context.Context, tx *sql.Tx) error {
		var err error
		component, err = s.componentRepo.FindByIDForUpdate(txCtx, tx, componentID)
		if err != nil {
			return err
		}

		movement, err = s.Record(txCtx, tx, component, input)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.MovementsRecordedTotal.WithLabelValues(string(input.Type)).Inc()
	s.publishMovementEvents(ctx, component, movement)

	return movement, nil
}

// ReverseImport undoes a bulk component import: each component's stock is
// reduced by the imported quantity, clamped at zero, then the movements are
// deleted and import back-references nulled. The clamp silently loses
// precision when unrelated movements happened since the import; the resulting
// stock figure is best-effort, preserved as-is from the upstream system.
func (s *LedgerService) ReverseImport(ctx context.Context, importID int) (movementsDeleted, componentsUpdated int, err error) {
	err = s.txm.InTx(ctx, func(txCtx context.Context, tx *sql.Tx) error {
		movements, err := s.movementRepo.FindByImportID(txCtx, tx, importID)
		if err != nil {
			return err
		}
		if len(movements) == 0 {
			return errors.NewNotFoundError(fmt.Sprintf("no movements found for import %d", importID))
		}

		updated := map[int]bool{}
		for _, m := range movements {
			component, err := s.componentRepo.FindByIDForUpdate(txCtx, tx, m.ComponentID)
			if err != nil {
				return err
			}

			newQty := component.StockQuantity - m.Quantity
			if newQty < 0 {
				newQty = 0
			}
			if err := s.componentRepo.UpdateStockQuantity(txCtx, tx, component.ID, newQty); err != nil {
				return err
			}
			updated[component.ID] = true
		}

		if err := s.componentRepo.ClearImportRef(txCtx, tx, importID); err != nil {
			return err
		}

		movementsDeleted, err = s.movementRepo.DeleteByImportID(txCtx, tx, importID)
		if err != nil {
			return err
		}
		componentsUpdated = len(updated)
		return nil
	})
	if err != nil {
		return 0, 0, err
	}

	metrics.ImportReversalsTotal.Inc()
	s.logger.Info("import reversed",
		zap.Int("importId", importID),
		zap.Int("movementsDeleted", movementsDeleted),
		zap.Int("componentsUpdated", componentsUpdated),
	)

	return movementsDeleted, componentsUpdated, nil
}

func (s *LedgerService) publishMovementEvents(ctx context.Context, component *domain.Component, movement *domain.InventoryMovement) {
	event := dto.MovementRecordedEvent{
		MovementID:     movement.ID,
		ComponentID:    movement.ComponentID,
		Type:           string(movement.Type),
		Quantity:       movement.Quantity,
		QuantityBefore: movement.QuantityBefore,
		QuantityAfter:  movement.QuantityAfter,
		AllocationID:   movement.AllocationID,
		ImportID:       movement.ImportID,
		OccurredAt:     time.Now().UTC(),
	}
	if movement.UnitCost != nil {
		cost := movement.UnitCost.String()
		event.UnitCost = &cost
	}
	if err := s.publisher.PublishMovementRecorded(ctx, event); err != nil {
		s.logger.Warn("failed to publish movement event", zap.Int64("movementId", movement.ID), zap.Error(err))
	}

	if component.BelowMinStock() {
		metrics.LowStockDetectedTotal.Inc()
		lowStock := dto.LowStockEvent{
			ComponentID:     component.ID,
			SKU:             component.SKU,
			StockQuantity:   component.StockQuantity,
			MinStockLevel:   component.MinStockLevel,
			ReorderQuantity: component.ReorderQuantity,
			OccurredAt:      time.Now().UTC(),
		}
		if err := s.publisher.PublishLowStock(ctx, lowStock); err != nil {
			s.logger.Warn("failed to publish low stock event", zap.Int("componentId", component.ID), zap.Error(err))
		}
	}
}
