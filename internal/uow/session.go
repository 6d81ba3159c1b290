package uow

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// State is the lifecycle state of a Session. A session starts Active and
// transitions at most once, to Committed or RolledBack.
type State int

const (
	StateActive State = iota
	StateCommitted
	StateRolledBack
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateCommitted:
		return "committed"
	case StateRolledBack:
		return "rolled back"
	default:
		return "unknown"
	}
}

// Session owns one open Postgres transaction. Repositories share it through
// Executor clones and register themselves as TransactionAware observers; when
// the session finalizes, the corresponding hook fires on every observer in
// registration order, strictly after the physical outcome.
type Session struct {
	st     *txState
	logger *slog.Logger
}

func newSession(tx pgx.Tx, conn *pgxpool.Conn, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		st:     &txState{tx: tx, conn: conn, state: StateActive},
		logger: logger,
	}
}

// State reports the current lifecycle state.
func (s *Session) State() State {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	return s.st.state
}

// Executor returns a shared handle onto the session's transaction. It may be
// called any number of times; every returned value refers to the same
// physical transaction.
func (s *Session) Executor() *Executor {
	return &Executor{st: s.st}
}

// RegisterTransactionAware appends a component to the observer registry.
// Registration order is notification order. No deduplication is performed:
// registering the same component twice yields two notifications. Registrations
// after the session finalized are ignored — that hook set has already fired.
func (s *Session) RegisterTransactionAware(c TransactionAware) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	if s.st.state != StateActive {
		return
	}
	s.st.observers = append(s.st.observers, c)
}

// Commit finalizes the transaction. On success the session becomes Committed
// and every observer's OnCommit runs in registration order; hook failures are
// aggregated into a *NotificationError, but the persisted writes stand. If the
// physical commit fails, the session issues a compensating rollback, becomes
// RolledBack, fires OnRollback on every observer, and returns a *TxError with
// Op OpCommit. A second Commit or Rollback returns ErrAlreadyFinalized.
func (s *Session) Commit(ctx context.Context) error {
	s.st.mu.Lock()
	if s.st.state != StateActive {
		s.st.mu.Unlock()
		return ErrAlreadyFinalized
	}
	tx := s.st.tx
	if err := tx.Commit(ctx); err != nil {
		// Compensating rollback. pgx closes the transaction when a commit
		// fails, in which case Rollback reports ErrTxClosed and there is
		// nothing left to undo.
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			s.logger.Error("compensating rollback failed", "error", rbErr)
		}
		observers := s.st.finish(StateRolledBack)
		s.st.mu.Unlock()
		if nerr := notify(ctx, observers, false); nerr != nil {
			s.logger.Warn("observer notification failed after compensating rollback", "error", nerr)
		}
		return &TxError{Op: OpCommit, Err: err}
	}
	observers := s.st.finish(StateCommitted)
	s.st.mu.Unlock()
	if nerr := notify(ctx, observers, true); nerr != nil {
		return nerr
	}
	return nil
}

// Rollback finalizes the transaction by rolling it back. The session becomes
// RolledBack and every observer's OnRollback runs in registration order, with
// failures aggregated into a *NotificationError. If the physical rollback
// itself fails no hooks fire and a *TxError with Op OpRollback is returned;
// the connection is indeterminate at that point and is discarded by the pool
// rather than reused. A second Commit or Rollback returns ErrAlreadyFinalized.
func (s *Session) Rollback(ctx context.Context) error {
	s.st.mu.Lock()
	if s.st.state != StateActive {
		s.st.mu.Unlock()
		return ErrAlreadyFinalized
	}
	tx := s.st.tx
	if err := tx.Rollback(ctx); err != nil {
		s.st.finish(StateRolledBack)
		s.st.mu.Unlock()
		return &TxError{Op: OpRollback, Err: err}
	}
	observers := s.st.finish(StateRolledBack)
	s.st.mu.Unlock()
	if nerr := notify(ctx, observers, false); nerr != nil {
		return nerr
	}
	return nil
}

// Close finalizes a session that was never explicitly committed or rolled
// back, issuing a best-effort rollback so the connection never returns to the
// pool with an open transaction. Intended for defer: it is a no-op once the
// session is terminal, so `defer session.Close()` is always safe, on every
// path, any number of times. Failures are logged, not returned — there is no
// caller waiting for them.
func (s *Session) Close() {
	s.st.mu.Lock()
	if s.st.state != StateActive {
		s.st.mu.Unlock()
		return
	}
	ctx := context.Background()
	tx := s.st.tx
	err := tx.Rollback(ctx)
	observers := s.st.finish(StateRolledBack)
	s.st.mu.Unlock()
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		s.logger.Error("implicit rollback failed", "error", err)
	}
	if nerr := notify(ctx, observers, false); nerr != nil {
		s.logger.Warn("observer notification failed during session teardown", "error", nerr)
	}
}

// notify fires the appropriate hook on each observer in registration order,
// collecting failures instead of stopping at the first one.
func notify(ctx context.Context, observers []TransactionAware, committed bool) *NotificationError {
	var errs []error
	for _, obs := range observers {
		var err error
		if committed {
			err = obs.OnCommit(ctx)
		} else {
			err = obs.OnRollback(ctx)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return &NotificationError{Errs: errs}
}
