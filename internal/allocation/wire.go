package allocation

import (
	"database/sql"

	"go.uber.org/zap"

	"mithril/internal/allocation/controller"
	allocationrepo "mithril/internal/allocation/repository"
	"mithril/internal/allocation/service"
	"mithril/internal/allocation/usecase"
	bomrepo "mithril/internal/bom/repository"
	componentrepo "mithril/internal/component/repository"
	"mithril/internal/config"
)

func NewModule(
	db *sql.DB,
	txm service.TransactionManager,
	ledger service.Ledger,
	publisher service.EventPublisher,
	cfg config.AllocationConfig,
	logger *zap.Logger,
) (*usecase.AllocateBomItemUseCase, *controller.AllocationController) {
	componentRepo := componentrepo.NewMySQLComponentRepository(db)
	allocationRepo := allocationrepo.NewMySQLAllocationRepository(db)
	bomItemRepo := bomrepo.NewMySQLBomItemRepository(db)
	bomRepo := bomrepo.NewMySQLBomRepository(db)

	allocationSvc := service.NewAllocationService(
		txm,
		componentRepo,
		allocationRepo,
		bomItemRepo,
		ledger,
		publisher,
		logger,
	)

	allocateUC := usecase.NewAllocateBomItemUseCase(
		bomItemRepo,
		bomRepo,
		allocationSvc,
		logger,
		cfg.MaxRetryAttempts,
	)

	allocationCtrl := controller.NewAllocationController(allocateUC, logger)

	return allocateUC, allocationCtrl
}
