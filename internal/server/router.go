package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	allocationctrl "mithril/internal/allocation/controller"
	bomctrl "mithril/internal/bom/controller"
	"mithril/internal/component"
	"mithril/internal/infrastructure/metrics"
	ledgerctrl "mithril/internal/ledger/controller"
)

func NewRouter(
	allocationCtrl *allocationctrl.AllocationController,
	movementCtrl *ledgerctrl.MovementController,
	costCtrl *bomctrl.CostController,
	componentCtrl *component.Controller,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(requestMetrics)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/bom-items/{bomItemId}/allocate", allocationCtrl.Allocate)
		r.Post("/bom-items/{bomItemId}/deallocate", allocationCtrl.Deallocate)
		r.Put("/bom-items/{bomItemId}/estimated-cost", costCtrl.UpdateEstimatedCost)

		r.Post("/allocations/{allocationId}/use", allocationCtrl.Use)
		r.Post("/allocations/{allocationId}/complete", allocationCtrl.Complete)
		r.Post("/allocations/{allocationId}/return", allocationCtrl.Return)

		r.Post("/movements", movementCtrl.RecordMovement)
		r.Delete("/imports/{importId}", movementCtrl.ReverseImport)

		r.Post("/boms/{bomId}/costs/recalculate", costCtrl.RecalculateCosts)
		r.Get("/boms/{bomId}/costs", costCtrl.GetCostReport)

		r.Get("/components/low-stock", componentCtrl.LowStock)
	})

	logger.Info("router configured")

	return r
}

func requestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		routePattern := chi.RouteContext(r.Context()).RoutePattern()
		metrics.HTTPRequestDuration.
			WithLabelValues(r.Method, routePattern, strconv.Itoa(ww.Status())).
			Observe(time.Since(start).Seconds())
	})
}
