package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"mithril/internal/config"
	"mithril/internal/domain"
	"mithril/internal/dto"
	"mithril/internal/infrastructure/metrics"
)

type BomRepository interface {
	FindByID(ctx context.Context, id int64) (*domain.ProjectBom, error)
	UpdateCostTotals(ctx context.Context, id int64, estimated, actual, variance, variancePct decimal.Decimal, calculatedAt time.Time) error
}

type BomItemRepository interface {
	FindByID(ctx context.Context, id int64) (*domain.ProjectBomItem, error)
	FindByBomID(ctx context.Context, bomID int64) ([]domain.ProjectBomItem, error)
	UpdateCosts(ctx context.Context, item *domain.ProjectBomItem) error
}

type ComponentRepository interface {
	FindByID(ctx context.Context, id int) (*domain.Component, error)
}

type CostCache interface {
	Get(ctx context.Context, bomID int64) (*dto.BomCostSummary, error)
	Set(ctx context.Context, bomID int64, summary dto.BomCostSummary) error
	Invalidate(ctx context.Context, bomID int64) error
}

type EventPublisher interface {
	PublishBomCostsCalculated(ctx context.Context, event dto.BomCostsCalculatedEvent) error
}

// CostService keeps BOM item and BOM-level cost fields consistent with the
// component store. Reporting classifications are recomputed on every read.
type CostService struct {
	bomRepo       BomRepository
	bomItemRepo   BomItemRepository
	componentRepo ComponentRepository
	cache         CostCache
	publisher     EventPublisher
	costing       config.CostingConfig
	thresholds    domain.CostThresholds
	logger        *zap.Logger
}

func NewCostService(
	bomRepo BomRepository,
	bomItemRepo BomItemRepository,
	componentRepo ComponentRepository,
	cache CostCache,
	publisher EventPublisher,
	costing config.CostingConfig,
	logger *zap.Logger,
) *CostService {
	thresholds := domain.DefaultCostThresholds()
	if costing.AccurateVariancePct.IsPositive() {
		thresholds.Accurate = costing.AccurateVariancePct
	}
	if costing.AcceptableVariancePct.IsPositive() {
		thresholds.Acceptable = costing.AcceptableVariancePct
	}

	return &CostService{
		bomRepo:       bomRepo,
		bomItemRepo:   bomItemRepo,
		componentRepo: componentRepo,
		cache:         cache,
		publisher:     publisher,
		costing:       costing,
		thresholds:    thresholds,
		logger:        logger,
	}
}

// UpdateActualCosts refreshes the actual-cost side of an item from the
// inventory price. No-op when the item has no linked component or the
// component carries no price yet.
func (s *CostService) UpdateActualCosts(ctx context.Context, itemID int64) (*domain.ProjectBomItem, error) {
	item, err := s.bomItemRepo.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.ComponentID == nil {
		return item, nil
	}

	component, err := s.componentRepo.FindByID(ctx, *item.ComponentID)
	if err != nil {
		return nil, err
	}
	if component.UnitPrice == nil {
		return item, nil
	}

	item.ApplyActualCost(*component.UnitPrice, time.Now().UTC())
	if err := s.bomItemRepo.UpdateCosts(ctx, item); err != nil {
		return nil, err
	}

	s.logger.Debug("actual costs updated",
		zap.Int64("bomItemId", item.ID),
		zap.String("actualUnitCost", item.ActualUnitCost.String()),
	)

	return item, nil
}

// UpdateEstimatedCosts sets the estimate-side cost, tagged with its origin.
func (s *CostService) UpdateEstimatedCosts(ctx context.Context, itemID int64, unitCost decimal.Decimal, source domain.CostSource) (*domain.ProjectBomItem, error) {
	item, err := s.bomItemRepo.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	item.ApplyEstimatedCost(unitCost, source, time.Now().UTC())
	if err := s.bomItemRepo.UpdateCosts(ctx, item); err != nil {
		return nil, err
	}

	return item, nil
}

// CalculateTotalCosts recomputes the BOM aggregate from its items and
// persists it. Running it twice with no item changes yields identical totals.
func (s *CostService) CalculateTotalCosts(ctx context.Context, bomID int64) (*dto.BomCostSummary, error) {
	bom, err := s.bomRepo.FindByID(ctx, bomID)
	if err != nil {
		return nil, err
	}

	items, err := s.bomItemRepo.FindByBomID(ctx, bomID)
	if err != nil {
		return nil, err
	}

	totalEstimated := decimal.Zero
	totalActual := decimal.Zero
	for _, item := range items {
		if item.TotalEstimatedCost != nil {
			totalEstimated = totalEstimated.Add(*item.TotalEstimatedCost)
		}
		if item.TotalActualCost != nil {
			totalActual = totalActual.Add(*item.TotalActualCost)
		}
	}

	variance := totalActual.Sub(totalEstimated)
	variancePct := decimal.Zero
	if !totalEstimated.IsZero() {
		variancePct = variance.Div(totalEstimated).Mul(decimal.NewFromInt(100))
	}

	now := time.Now().UTC()
	if err := s.bomRepo.UpdateCostTotals(ctx, bomID, totalEstimated, totalActual, variance, variancePct, now); err != nil {
		return nil, err
	}

	bom.TotalEstimatedCost = totalEstimated
	bom.TotalActualCost = totalActual
	bom.CostVariance = variance
	bom.CostVariancePercentage = variancePct
	bom.CostsCalculatedAt = &now

	summary := s.buildSummary(bom)
	if err := s.cache.Set(ctx, bomID, summary); err != nil {
		s.logger.Warn("failed to cache cost summary", zap.Int64("bomId", bomID), zap.Error(err))
	}

	metrics.CostRecalculationsTotal.Inc()
	s.logger.Info("bom costs calculated",
		zap.Int64("bomId", bomID),
		zap.String("totalEstimatedCost", totalEstimated.String()),
		zap.String("totalActualCost", totalActual.String()),
		zap.String("costVariancePercentage", variancePct.String()),
	)

	event := dto.BomCostsCalculatedEvent{
		BomID:              bomID,
		TotalEstimatedCost: totalEstimated.String(),
		TotalActualCost:    totalActual.String(),
		CostVariance:       variance.String(),
		VariancePct:        variancePct.String(),
		OccurredAt:         now,
	}
	if err := s.publisher.PublishBomCostsCalculated(ctx, event); err != nil {
		s.logger.Warn("failed to publish cost event", zap.Int64("bomId", bomID), zap.Error(err))
	}

	return &summary, nil
}

// RefreshBomCosts pulls fresh inventory prices into every linked item, then
// recomputes the aggregate. This is the dashboard refresh path.
func (s *CostService) RefreshBomCosts(ctx context.Context, bomID int64) (*dto.BomCostSummary, error) {
	items, err := s.bomItemRepo.FindByBomID(ctx, bomID)
	if err != nil {
		return nil, err
	}

	for _, item := range items {
		if item.ComponentID == nil {
			continue
		}
		if _, err := s.UpdateActualCosts(ctx, item.ID); err != nil {
			return nil, err
		}
	}

	return s.CalculateTotalCosts(ctx, bomID)
}

// BomCostReport renders the read-only reporting view: the cached (or stored)
// summary plus a per-item cost status classification.
func (s *CostService) BomCostReport(ctx context.Context, bomID int64) (*dto.BomCostReport, error) {
	summary, err := s.cache.Get(ctx, bomID)
	if err != nil {
		s.logger.Warn("cost summary cache read failed", zap.Int64("bomId", bomID), zap.Error(err))
	}
	if summary == nil {
		bom, err := s.bomRepo.FindByID(ctx, bomID)
		if err != nil {
			return nil, err
		}
		built := s.buildSummary(bom)
		summary = &built
		if err := s.cache.Set(ctx, bomID, built); err != nil {
			s.logger.Warn("failed to cache cost summary", zap.Int64("bomId", bomID), zap.Error(err))
		}
	}

	items, err := s.bomItemRepo.FindByBomID(ctx, bomID)
	if err != nil {
		return nil, err
	}

	statuses := make([]dto.ItemCostStatus, 0, len(items))
	for _, item := range items {
		var componentUpdatedAt *time.Time
		if item.ComponentID != nil {
			component, err := s.componentRepo.FindByID(ctx, *item.ComponentID)
			if err != nil {
				return nil, err
			}
			componentUpdatedAt = &component.UpdatedAt
		}

		statuses = append(statuses, dto.ItemCostStatus{
			BomItemID:          item.ID,
			Reference:          item.Reference,
			Quantity:           item.Quantity,
			ComponentID:        item.ComponentID,
			EstimatedUnitCost:  item.EstimatedUnitCost,
			ActualUnitCost:     item.ActualUnitCost,
			TotalEstimatedCost: item.TotalEstimatedCost,
			TotalActualCost:    item.TotalActualCost,
			VariancePercentage: item.VariancePercentage(),
			CostStatus:         string(domain.ClassifyCostStatus(item, componentUpdatedAt, s.thresholds)),
		})
	}

	return &dto.BomCostReport{
		Summary: *summary,
		Items:   statuses,
	}, nil
}

func (s *CostService) buildSummary(bom *domain.ProjectBom) dto.BomCostSummary {
	estimatedBoardCost := s.costing.PcbStandardCost
	if bom.BoardsCount > 0 {
		perBoard := bom.TotalEstimatedCost.Div(decimal.NewFromInt(int64(bom.BoardsCount)))
		estimatedBoardCost = estimatedBoardCost.Add(perBoard)
	}

	return dto.BomCostSummary{
		BomID:                  bom.ID,
		BoardsCount:            bom.BoardsCount,
		TotalEstimatedCost:     bom.TotalEstimatedCost,
		TotalActualCost:        bom.TotalActualCost,
		CostVariance:           bom.CostVariance,
		CostVariancePercentage: bom.CostVariancePercentage,
		EstimatedBoardCost:     estimatedBoardCost,
		CostsCalculatedAt:      bom.CostsCalculatedAt,
	}
}
