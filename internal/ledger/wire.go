package ledger

import (
	"database/sql"

	"go.uber.org/zap"

	componentrepo "mithril/internal/component/repository"
	"mithril/internal/ledger/controller"
	ledgerrepo "mithril/internal/ledger/repository"
	"mithril/internal/ledger/service"
)

func NewModule(
	db *sql.DB,
	txm service.TransactionManager,
	publisher service.EventPublisher,
	logger *zap.Logger,
) (*service.LedgerService, *controller.MovementController) {
	componentRepo := componentrepo.NewMySQLComponentRepository(db)
	movementRepo := ledgerrepo.NewMySQLMovementRepository(db)

	ledgerSvc := service.NewLedgerService(txm, componentRepo, movementRepo, publisher, logger)
	movementCtrl := controller.NewMovementController(ledgerSvc, logger)

	return ledgerSvc, movementCtrl
}
