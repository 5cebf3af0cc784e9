package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AllocationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bom_allocations_total",
		Help: "Total number of successful BOM item allocations",
	})

	AllocationFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bom_allocation_failures_total",
		Help: "Total number of failed BOM item allocations",
	}, []string{"reason"})

	DeallocationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bom_deallocations_total",
		Help: "Total number of BOM item deallocations",
	})

	AllocationLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bom_allocation_latency_seconds",
		Help:    "Latency of allocate/deallocate transactions",
		Buckets: prometheus.DefBuckets,
	})

	MovementsRecordedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_movements_recorded_total",
		Help: "Total number of inventory movements recorded",
	}, []string{"type"})

	ImportReversalsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inventory_import_reversals_total",
		Help: "Total number of import reversals applied to the ledger",
	})

	LowStockDetectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inventory_low_stock_detected_total",
		Help: "Times a movement left a component below its minimum stock level",
	})

	CostRecalculationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bom_cost_recalculations_total",
		Help: "Total number of BOM cost total recalculations",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
)
