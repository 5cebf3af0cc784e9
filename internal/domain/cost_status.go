package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CostStatus is a reporting classification of a BOM item's recorded costs.
// It is a pure function of current state, recomputed on every read and never
// persisted.
type CostStatus string

const (
	CostStatusMissing             CostStatus = "missing"
	CostStatusOutdated            CostStatus = "outdated"
	CostStatusAccurate            CostStatus = "accurate"
	CostStatusAcceptable          CostStatus = "acceptable"
	CostStatusSignificantVariance CostStatus = "significant_variance"
)

// CostThresholds bounds the variance buckets, in percent.
type CostThresholds struct {
	Accurate   decimal.Decimal
	Acceptable decimal.Decimal
}

func DefaultCostThresholds() CostThresholds {
	return CostThresholds{
		Accurate:   decimal.NewFromInt(5),
		Acceptable: decimal.NewFromInt(15),
	}
}

// ClassifyCostStatus buckets a BOM item: missing when no actual cost is
// recorded, outdated when the recorded cost predates the linked component's
// last price update, otherwise by absolute variance percentage.
func ClassifyCostStatus(item ProjectBomItem, componentUpdatedAt *time.Time, thresholds CostThresholds) CostStatus {
	if item.ActualUnitCost == nil {
		return CostStatusMissing
	}
	if item.ComponentID != nil && componentUpdatedAt != nil &&
		item.CostUpdatedAt != nil && item.CostUpdatedAt.Before(*componentUpdatedAt) {
		return CostStatusOutdated
	}

	variance := item.VariancePercentage().Abs()
	switch {
	case variance.LessThanOrEqual(thresholds.Accurate):
		return CostStatusAccurate
	case variance.LessThanOrEqual(thresholds.Acceptable):
		return CostStatusAcceptable
	default:
		return CostStatusSignificantVariance
	}
}
