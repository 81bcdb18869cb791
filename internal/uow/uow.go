// Package uow provides the transactional boundary shared by all command
// workflows. Every command's checks and writes run inside a single
// UnitOfWork so the decide-then-write sequence is atomic.
package uow

import (
	"context"

	entriesstore "rosterd/internal/entries/store"
	leavestore "rosterd/internal/leave/store"
	transferstore "rosterd/internal/transfer/store"
	workstore "rosterd/internal/work/store"
)

// Stores bundles every store a command workflow may touch, all bound to the
// same transaction (or the same lock, in memory).
type Stores struct {
	WorkPeriods      workstore.PeriodStore
	WorkCorrections  workstore.CorrectionStore
	Leaves           leavestore.EventStore
	LeaveCorrections leavestore.CorrectionStore
	Transfers        transferstore.Store
	Entries          entriesstore.Store
}

// UnitOfWork runs fn atomically. The lock key scopes contention: commands
// for the same driver serialize, commands for different drivers may run
// concurrently. Implementations may wrap a database transaction or,
// in-memory, a sharded lock.
type UnitOfWork interface {
	RunInTx(ctx context.Context, lockKey string, fn func(ctx context.Context, stores Stores) error) error
}
