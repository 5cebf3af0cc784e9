package bom

import (
	"database/sql"

	"go.uber.org/zap"

	"mithril/internal/bom/controller"
	bomrepo "mithril/internal/bom/repository"
	"mithril/internal/bom/service"
	componentrepo "mithril/internal/component/repository"
	"mithril/internal/config"
)

func NewModule(
	db *sql.DB,
	cache service.CostCache,
	publisher service.EventPublisher,
	costing config.CostingConfig,
	logger *zap.Logger,
) (*service.CostService, *controller.CostController) {
	bomRepo := bomrepo.NewMySQLBomRepository(db)
	bomItemRepo := bomrepo.NewMySQLBomItemRepository(db)
	componentRepo := componentrepo.NewMySQLComponentRepository(db)

	costSvc := service.NewCostService(bomRepo, bomItemRepo, componentRepo, cache, publisher, costing, logger)
	costCtrl := controller.NewCostController(costSvc, logger)

	return costSvc, costCtrl
}
