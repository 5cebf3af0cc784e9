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
)

type CostService interface {
	CalculateTotalCosts(ctx context.Context, bomID int64) (*dto.BomCostSummary, error)
	RefreshBomCosts(ctx context.Context, bomID int64) (*dto.BomCostSummary, error)
	BomCostReport(ctx context.Context, bomID int64) (*dto.BomCostReport, error)
	UpdateEstimatedCosts(ctx context.Context, itemID int64, unitCost decimal.Decimal, source domain.CostSource) (*domain.ProjectBomItem, error)
}

type CostController struct {
	costs  CostService
	logger *zap.Logger
}

func NewCostController(costs CostService, logger *zap.Logger) *CostController {
	return &CostController{
		costs:  costs,
		logger: logger,
	}
}

// RecalculateCosts refreshes item costs from inventory and recomputes the
// BOM aggregate.
func (c *CostController) RecalculateCosts(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	bomID, ok := c.parseID(w, traceID, chi.URLParam(r, "bomId"), "bomId")
	if !ok {
		return
	}

	summary, err := c.costs.RefreshBomCosts(r.Context(), bomID)
	if err != nil {
		httputil.WriteError(w, logger, traceID, err)
		return
	}

	httputil.WriteJSON(w, logger, http.StatusOK, summary)
}

func (c *CostController) GetCostReport(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	bomID, ok := c.parseID(w, traceID, chi.URLParam(r, "bomId"), "bomId")
	if !ok {
		return
	}

	report, err := c.costs.BomCostReport(r.Context(), bomID)
	if err != nil {
		httputil.WriteError(w, logger, traceID, err)
		return
	}

	httputil.WriteJSON(w, logger, http.StatusOK, report)
}

func (c *CostController) UpdateEstimatedCost(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	itemID, ok := c.parseID(w, traceID, chi.URLParam(r, "bomItemId"), "bomItemId")
	if !ok {
		return
	}

	var req dto.UpdateEstimatedCostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid JSON body", zap.Error(err))
		httputil.WriteError(w, logger, traceID, apperrors.NewValidationError("invalid JSON body", apperrors.ValidationDetail{
			Field:   "body",
			Message: "request body must be valid JSON",
		}))
		return
	}

	unitCost, err := decimal.NewFromString(req.UnitCost)
	if err != nil || unitCost.IsNegative() {
		httputil.WriteError(w, logger, traceID, apperrors.NewValidationError("invalid unit cost", apperrors.ValidationDetail{
			Field:   "unitCost",
			Message: "unitCost must be a non-negative decimal string",
		}))
		return
	}

	source := domain.CostSource(req.Source)
	switch source {
	case domain.CostSourceManual, domain.CostSourceSupplierAPI:
	case "":
		source = domain.CostSourceManual
	default:
		httputil.WriteError(w, logger, traceID, apperrors.NewValidationError("invalid cost source", apperrors.ValidationDetail{
			Field:   "source",
			Message: "source must be manual or supplier_api",
		}))
		return
	}

	item, err := c.costs.UpdateEstimatedCosts(r.Context(), itemID, unitCost, source)
	if err != nil {
		httputil.WriteError(w, logger, traceID, err)
		return
	}

	httputil.WriteJSON(w, logger, http.StatusOK, dto.ItemCostStatus{
		BomItemID:          item.ID,
		Reference:          item.Reference,
		Quantity:           item.Quantity,
		ComponentID:        item.ComponentID,
		EstimatedUnitCost:  item.EstimatedUnitCost,
		ActualUnitCost:     item.ActualUnitCost,
		TotalEstimatedCost: item.TotalEstimatedCost,
		TotalActualCost:    item.TotalActualCost,
		VariancePercentage: item.VariancePercentage(),
	})
}

func (c *CostController) parseID(w http.ResponseWriter, traceID string, raw, field string) (int64, bool) {
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
