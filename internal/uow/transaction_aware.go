package uow

import "context"

// TransactionAware is implemented by components that need to react to the
// outcome of the transaction they participated in. Repositories typically use
// the hooks to reconcile in-memory state: promote caches after a commit,
// discard staged entries after a rollback.
//
// Exactly one of the two hooks is invoked per registration, strictly after the
// physical commit or rollback completed. Hooks must be safe to call even when
// the component did not initiate the finalization: a session torn down by
// Close fires OnRollback on everything registered.
type TransactionAware interface {
	// OnCommit is called after the physical commit succeeded.
	OnCommit(ctx context.Context) error

	// OnRollback is called after the physical rollback, whether requested by
	// the caller, compensating for a failed commit, or implicit on teardown.
	OnRollback(ctx context.Context) error
}
