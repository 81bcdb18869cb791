package uow

import (
	"context"
	"time"

	entriesstore "rosterd/internal/entries/store"
	leavestore "rosterd/internal/leave/store"
	transferstore "rosterd/internal/transfer/store"
	workstore "rosterd/internal/work/store"
	dErrors "rosterd/pkg/domain-errors"
	platformsync "rosterd/pkg/platform/sync"
)

const defaultTxTimeout = 5 * time.Second

// MemoryUnitOfWork serializes commands per lock key over a set of in-memory
// stores. The sharded mutex gives the same isolation the database gives
// postgres-backed deployments: no two commands for one driver interleave.
type MemoryUnitOfWork struct {
	mu      *platformsync.ShardedMutex
	stores  Stores
	timeout time.Duration
}

func NewMemory() *MemoryUnitOfWork {
	workCorrections := workstore.NewMemoryCorrectionStore()
	return &MemoryUnitOfWork{
		mu: platformsync.NewShardedMutex(),
		stores: Stores{
			WorkPeriods:      workstore.NewMemoryPeriodStore(workCorrections),
			WorkCorrections:  workCorrections,
			Leaves:           leavestore.NewMemoryEventStore(),
			LeaveCorrections: leavestore.NewMemoryCorrectionStore(),
			Transfers:        transferstore.NewMemoryStore(),
			Entries:          entriesstore.NewMemoryStore(),
		},
	}
}

// Stores exposes the underlying stores for read-only paths that do not need
// the transactional boundary.
func (u *MemoryUnitOfWork) Stores() Stores {
	return u.stores
}

func (u *MemoryUnitOfWork) RunInTx(ctx context.Context, lockKey string, fn func(ctx context.Context, stores Stores) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := u.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	u.mu.Lock(lockKey)
	defer u.mu.Unlock(lockKey)

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	return fn(ctx, u.stores)
}
