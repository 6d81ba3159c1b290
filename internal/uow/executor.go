package uow

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB is the query surface repositories depend on. Both *pgxpool.Pool and
// *Executor satisfy it, so repository code is indifferent to whether it runs
// inside a transaction session or straight against the pool.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// txState is the single structure shared by a Session and every Executor
// cloned from it. The mutex guards the open/closed decision and the physical
// operations themselves, so every clone observes a terminal transition at the
// same instant and no statement can race a commit or rollback in flight.
type txState struct {
	mu        sync.Mutex
	tx        pgx.Tx        // nil once the session is terminal
	conn      *pgxpool.Conn // released on finalize; nil for sessions built in tests
	state     State
	observers []TransactionAware
}

// finish marks the state terminal, returns the checked-out connection to the
// pool, and hands back the observer snapshot to notify. Caller holds mu.
func (st *txState) finish(terminal State) []TransactionAware {
	st.tx = nil
	st.state = terminal
	if st.conn != nil {
		st.conn.Release()
		st.conn = nil
	}
	observers := st.observers
	st.observers = nil
	return observers
}

// Executor is the shared handle through which repositories issue statements
// against the session's one physical transaction. Cloning is free: all values
// returned by Session.Executor reference the same underlying state, and every
// one of them fails with ErrClosedTransaction once the session is terminal.
//
// The Executor makes no transaction-scope decisions; it only enforces
// open-vs-closed and forwards to the underlying pgx transaction.
type Executor struct {
	st *txState
}

var _ DB = (*Executor)(nil)

func (e *Executor) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	e.st.mu.Lock()
	defer e.st.mu.Unlock()
	if e.st.tx == nil {
		return pgconn.CommandTag{}, ErrClosedTransaction
	}
	return e.st.tx.Exec(ctx, sql, args...)
}

func (e *Executor) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	e.st.mu.Lock()
	defer e.st.mu.Unlock()
	if e.st.tx == nil {
		return nil, ErrClosedTransaction
	}
	return e.st.tx.Query(ctx, sql, args...)
}

func (e *Executor) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	e.st.mu.Lock()
	defer e.st.mu.Unlock()
	if e.st.tx == nil {
		return errRow{err: ErrClosedTransaction}
	}
	return e.st.tx.QueryRow(ctx, sql, args...)
}

// errRow satisfies pgx.Row for queries issued after the session finalized.
type errRow struct {
	err error
}

func (r errRow) Scan(...any) error { return r.err }
