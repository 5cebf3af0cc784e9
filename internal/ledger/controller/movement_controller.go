package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"mithril/internal/domain"
	"mithril/internal/dto"
	apperrors "mithril/internal/errors"
	"mithril/internal/httputil"
	ledgerservice "mithril/internal/ledger/service"
)

type LedgerService interface {
	RecordMovement(ctx context.Context, componentID int, input ledgerservice.RecordInput) (*domain.InventoryMovement, error)
	ReverseImport(ctx context.Context, importID int) (movementsDeleted, componentsUpdated int, err error)
}

type MovementController struct {
	ledger LedgerService
	logger *zap.Logger
}

func NewMovementController(ledger LedgerService, logger *zap.Logger) *MovementController {
	return &MovementController{
		ledger: ledger,
		logger: logger,
	}
}

func (c *MovementController) RecordMovement(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	var req dto.RecordMovementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid JSON body", zap.Error(err))
		httputil.WriteError(w, logger, traceID, apperrors.NewValidationError("invalid JSON body", apperrors.ValidationDetail{
			Field:   "body",
			Message: "request body must be valid JSON",
		}))
		return
	}

	if err := validateRecordMovementRequest(req); err != nil {
		httputil.WriteError(w, logger, traceID, err)
		return
	}

	input := ledgerservice.RecordInput{
		Type:                 domain.MovementType(req.Type),
		Quantity:             req.Quantity,
		SourceInvoiceID:      req.SourceInvoiceID,
		DestinationProjectID: req.DestinationProjectID,
		ImportID:             req.ImportID,
		Note:                 req.Note,
	}
	if req.UnitCost != nil {
		cost, err := decimal.NewFromString(*req.UnitCost)
		if err != nil {
			httputil.WriteError(w, logger, traceID, apperrors.NewValidationError("invalid unit cost", apperrors.ValidationDetail{
				Field:   "unitCost",
				Message: "unitCost must be a decimal string",
			}))
			return
		}
		input.UnitCost = &cost
	}

	movement, err := c.ledger.RecordMovement(r.Context(), req.ComponentID, input)
	if err != nil {
		httputil.WriteError(w, logger, traceID, err)
		return
	}

	httputil.WriteJSON(w, logger, http.StatusCreated, dto.MovementResponse{
		ID:             movement.ID,
		ComponentID:    movement.ComponentID,
		Type:           string(movement.Type),
		Quantity:       movement.Quantity,
		QuantityBefore: movement.QuantityBefore,
		QuantityAfter:  movement.QuantityAfter,
		UnitCost:       movement.UnitCost,
		TotalCost:      movement.TotalCost,
		CreatedAt:      movement.CreatedAt,
	})
}

func (c *MovementController) ReverseImport(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	importIDStr := chi.URLParam(r, "importId")
	importID, err := strconv.Atoi(importIDStr)
	if err != nil || importID <= 0 {
		httputil.WriteError(w, logger, traceID, apperrors.NewValidationError("invalid importId", apperrors.ValidationDetail{
			Field:   "importId",
			Message: "importId must be a positive integer",
		}))
		return
	}

	deleted, updated, err := c.ledger.ReverseImport(r.Context(), importID)
	if err != nil {
		httputil.WriteError(w, logger, traceID, err)
		return
	}

	httputil.WriteJSON(w, logger, http.StatusOK, dto.ImportReversalResponse{
		ImportID:          importID,
		MovementsDeleted:  deleted,
		ComponentsUpdated: updated,
	})
}

func validateRecordMovementRequest(req dto.RecordMovementRequest) error {
	var details []apperrors.ValidationDetail

	if req.ComponentID <= 0 {
		details = append(details, apperrors.ValidationDetail{
			Field:   "componentId",
			Message: "componentId must be a positive integer",
		})
	}

	if !domain.MovementType(req.Type).Valid() {
		details = append(details, apperrors.ValidationDetail{
			Field:   "type",
			Message: "type must be one of in, out, adjustment, return",
		})
	}

	if req.Quantity <= 0 {
		details = append(details, apperrors.ValidationDetail{
			Field:   "quantity",
			Message: "quantity must be a positive integer",
		})
	}

	if len(details) > 0 {
		return apperrors.NewValidationError("validation failed", details...)
	}

	return nil
}
