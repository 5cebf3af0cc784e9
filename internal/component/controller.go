package component

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mithril/internal/domain"
	"mithril/internal/dto"
	"mithril/internal/httputil"
)

type LowStockFinder interface {
	FindBelowMinStock(ctx context.Context) ([]domain.Component, error)
}

// Controller serves the component read models consumed by the reorder
// dashboard.
type Controller struct {
	components LowStockFinder
	logger     *zap.Logger
}

func NewController(components LowStockFinder, logger *zap.Logger) *Controller {
	return &Controller{
		components: components,
		logger:     logger,
	}
}

func (c *Controller) LowStock(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	components, err := c.components.FindBelowMinStock(r.Context())
	if err != nil {
		httputil.WriteError(w, logger, traceID, err)
		return
	}

	result := make([]dto.LowStockComponent, len(components))
	for i, comp := range components {
		result[i] = dto.LowStockComponent{
			ComponentID:     comp.ID,
			SKU:             comp.SKU,
			Name:            comp.Name,
			StockQuantity:   comp.StockQuantity,
			MinStockLevel:   comp.MinStockLevel,
			ReorderQuantity: comp.ReorderQuantity,
		}
	}

	httputil.WriteJSON(w, logger, http.StatusOK, result)
}
