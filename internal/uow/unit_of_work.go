// Package uow coordinates one atomic Postgres transaction across independent
// repositories. A UnitOfWork opens Sessions; repositories share the session's
// transaction through Executor clones and register as TransactionAware
// observers to be told, in registration order, whether the transaction
// committed or rolled back.
package uow

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

// UnitOfWork is a stateless factory for transaction sessions, bound to one
// connection pool.
type UnitOfWork struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// New binds the factory to a pool. No I/O happens until Begin.
func New(pool *pgxpool.Pool, logger *slog.Logger) *UnitOfWork {
	if logger == nil {
		logger = slog.Default()
	}
	return &UnitOfWork{pool: pool, logger: logger}
}

// Begin checks a connection out of the pool and opens a transaction on it.
// The connection stays checked out until the returned session finalizes.
// Acquisition failures surface as *TxError with Op OpAcquire, BEGIN failures
// as Op OpBegin.
func (u *UnitOfWork) Begin(ctx context.Context) (*Session, error) {
	conn, err := u.pool.Acquire(ctx)
	if err != nil {
		return nil, &TxError{Op: OpAcquire, Err: err}
	}
	tx, err := conn.Begin(ctx)
	if err != nil {
		conn.Release()
		return nil, &TxError{Op: OpBegin, Err: err}
	}
	return newSession(tx, conn, u.logger), nil
}
