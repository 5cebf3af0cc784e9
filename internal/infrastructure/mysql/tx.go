package mysql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"
)

// TxManager runs units of work inside a RepeatableRead transaction with a
// bounded timeout. Every ledger write plus its component stock update (and any
// allocation state change belonging to them) must go through a single InTx
// call so concurrent allocations against the same component cannot lose
// updates.
type TxManager struct {
	db      *sql.DB
	timeout time.Duration
}

func NewTxManager(db *sql.DB, timeout time.Duration) *TxManager {
	return &TxManager{db: db, timeout: timeout}
}

func (m *TxManager) InTx(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error {
	txCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	tx, err := m.db.BeginTx(txCtx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
	if err != nil {
		return err
	}
	// MySQL ignores the rollback if the transaction already committed.
	defer tx.Rollback()

	if err := fn(txCtx, tx); err != nil {
		return err
	}

	return tx.Commit()
}

// IsDeadlockError reports MySQL deadlock (1213) and lock wait timeout (1205).
func IsDeadlockError(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1213 || mysqlErr.Number == 1205
	}
	return false
}
