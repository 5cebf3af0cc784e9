package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"mithril/internal/domain"
	"mithril/internal/dto"
	apperrors "mithril/internal/errors"
	"mithril/internal/httputil"
)

type AllocationUseCase interface {
	AllocateBomItem(ctx context.Context, bomItemID int64, boardsCount int) (*domain.ProjectComponentAllocation, error)
	DeallocateBomItem(ctx context.Context, bomItemID int64) (*domain.ProjectComponentAllocation, error)
	UseAllocation(ctx context.Context, allocationID int64, qty int) (*domain.ProjectComponentAllocation, error)
	CompleteAllocation(ctx context.Context, allocationID int64) (*domain.ProjectComponentAllocation, error)
	ReturnAllocation(ctx context.Context, allocationID int64, qty int) (*domain.ProjectComponentAllocation, error)
}

type AllocationController struct {
	useCase AllocationUseCase
	logger  *zap.Logger
}

func NewAllocationController(useCase AllocationUseCase, logger *zap.Logger) *AllocationController {
	return &AllocationController{
		useCase: useCase,
		logger:  logger,
	}
}

func (c *AllocationController) Allocate(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	bomItemID, ok := c.parseID(w, traceID, chi.URLParam(r, "bomItemId"), "bomItemId")
	if !ok {
		return
	}

	var req dto.AllocateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid JSON body", zap.Error(err))
		httputil.WriteError(w, logger, traceID, apperrors.NewValidationError("invalid JSON body", apperrors.ValidationDetail{
			Field:   "body",
			Message: "request body must be valid JSON",
		}))
		return
	}

	allocation, err := c.useCase.AllocateBomItem(r.Context(), bomItemID, req.BoardsCount)
	if err != nil {
		httputil.WriteError(w, logger, traceID, err)
		return
	}

	httputil.WriteJSON(w, logger, http.StatusCreated, toAllocationResponse(allocation))
}

func (c *AllocationController) Deallocate(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	bomItemID, ok := c.parseID(w, traceID, chi.URLParam(r, "bomItemId"), "bomItemId")
	if !ok {
		return
	}

	allocation, err := c.useCase.DeallocateBomItem(r.Context(), bomItemID)
	if err != nil {
		httputil.WriteError(w, logger, traceID, err)
		return
	}

	httputil.WriteJSON(w, logger, http.StatusOK, toAllocationResponse(allocation))
}

func (c *AllocationController) Use(w http.ResponseWriter, r *http.Request) {
	c.quantityOp(w, r, "use", func(ctx context.Context, allocationID int64, qty int) (*domain.ProjectComponentAllocation, error) {
		return c.useCase.UseAllocation(ctx, allocationID, qty)
	})
}

func (c *AllocationController) Return(w http.ResponseWriter, r *http.Request) {
	c.quantityOp(w, r, "return", func(ctx context.Context, allocationID int64, qty int) (*domain.ProjectComponentAllocation, error) {
		return c.useCase.ReturnAllocation(ctx, allocationID, qty)
	})
}

func (c *AllocationController) Complete(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	allocationID, ok := c.parseID(w, traceID, chi.URLParam(r, "allocationId"), "allocationId")
	if !ok {
		return
	}

	allocation, err := c.useCase.CompleteAllocation(r.Context(), allocationID)
	if err != nil {
		httputil.WriteError(w, logger, traceID, err)
		return
	}

	httputil.WriteJSON(w, logger, http.StatusOK, toAllocationResponse(allocation))
}

func (c *AllocationController) quantityOp(
	w http.ResponseWriter,
	r *http.Request,
	name string,
	op func(ctx context.Context, allocationID int64, qty int) (*domain.ProjectComponentAllocation, error),
) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID), zap.String("op", name))

	allocationID, ok := c.parseID(w, traceID, chi.URLParam(r, "allocationId"), "allocationId")
	if !ok {
		return
	}

	var req dto.QuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid JSON body", zap.Error(err))
		httputil.WriteError(w, logger, traceID, apperrors.NewValidationError("invalid JSON body", apperrors.ValidationDetail{
			Field:   "body",
			Message: "request body must be valid JSON",
		}))
		return
	}

	allocation, err := op(r.Context(), allocationID, req.Quantity)
	if err != nil {
		httputil.WriteError(w, logger, traceID, err)
		return
	}

	httputil.WriteJSON(w, logger, http.StatusOK, toAllocationResponse(allocation))
}

func (c *AllocationController) parseID(w http.ResponseWriter, traceID string, raw, field string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		httputil.WriteError(w, c.logger, traceID, apperrors.NewValidationError("invalid "+field, apperrors.ValidationDetail{
			Field:   field,
			Message: field + " must be a positive integer",
		}))
		return 0, false
	}
	return id, true
}

func toAllocationResponse(a *domain.ProjectComponentAllocation) dto.AllocationResponse {
	return dto.AllocationResponse{
		ID:                a.ID,
		ProjectID:         a.ProjectID,
		ComponentID:       a.ComponentID,
		BomItemID:         a.BomItemID,
		QuantityAllocated: a.QuantityAllocated,
		QuantityUsed:      a.QuantityUsed,
		QuantityRemaining: a.QuantityRemaining,
		Status:            string(a.Status),
		UnitCost:          a.UnitCost,
		TotalCost:         a.TotalCost,
		AllocatedAt:       a.AllocatedAt,
		CompletedAt:       a.CompletedAt,
	}
}
