package component

import (
	"database/sql"

	"go.uber.org/zap"

	"mithril/internal/component/repository"
)

func NewModule(db *sql.DB, logger *zap.Logger) *Controller {
	componentRepo := repository.NewMySQLComponentRepository(db)
	return NewController(componentRepo, logger)
}
