package uow

import (
	"errors"
	"fmt"
)

// Op identifies the physical transaction operation behind a TxError.
type Op string

const (
	OpAcquire  Op = "acquire"
	OpBegin    Op = "begin"
	OpCommit   Op = "commit"
	OpRollback Op = "rollback"
)

// TxError wraps a driver failure during one of the physical transaction
// operations. A commit TxError means the data was NOT persisted; the session
// has already issued a compensating rollback. A rollback TxError means the
// connection is in an indeterminate state and pgx will discard it instead of
// returning it to the pool.
type TxError struct {
	Op  Op
	Err error
}

func (e *TxError) Error() string { return fmt.Sprintf("%s transaction: %v", e.Op, e.Err) }

func (e *TxError) Unwrap() error { return e.Err }

// NotificationError aggregates observer hook failures after a physical commit
// or rollback that itself succeeded. It is deliberately distinct from TxError:
// a commit that returns a NotificationError has durably persisted its writes,
// only some post-commit reaction misbehaved. Callers decide severity.
type NotificationError struct {
	Errs []error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("%d observer notification(s) failed: %v", len(e.Errs), errors.Join(e.Errs...))
}

func (e *NotificationError) Unwrap() []error { return e.Errs }

var (
	// ErrAlreadyFinalized is returned by Commit and Rollback once the session
	// reached a terminal state. The duplicate call performs no physical
	// operation and fires no hooks.
	ErrAlreadyFinalized = errors.New("session already finalized")

	// ErrClosedTransaction is returned by Executor operations once the owning
	// session reached a terminal state.
	ErrClosedTransaction = errors.New("transaction is closed")
)
