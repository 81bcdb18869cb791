package uow

import (
	"context"
	"database/sql"
	"time"

	entriesstore "rosterd/internal/entries/store"
	leavestore "rosterd/internal/leave/store"
	transferstore "rosterd/internal/transfer/store"
	workstore "rosterd/internal/work/store"
	dErrors "rosterd/pkg/domain-errors"
)

// PostgresUnitOfWork runs each command in a serializable transaction. The
// lock key is unused here: serializable isolation already prevents two
// concurrent commands from both passing their checks against stale reads.
type PostgresUnitOfWork struct {
	db      *sql.DB
	timeout time.Duration
}

func NewPostgres(db *sql.DB) *PostgresUnitOfWork {
	return &PostgresUnitOfWork{db: db}
}

func (u *PostgresUnitOfWork) RunInTx(ctx context.Context, _ string, fn func(ctx context.Context, stores Stores) error) error {
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

	tx, err := u.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stores := Stores{
		WorkPeriods:      workstore.NewPostgresPeriodStoreTx(tx),
		WorkCorrections:  workstore.NewPostgresCorrectionStoreTx(tx),
		Leaves:           leavestore.NewPostgresEventStoreTx(tx),
		LeaveCorrections: leavestore.NewPostgresCorrectionStoreTx(tx),
		Transfers:        transferstore.NewPostgresTx(tx),
		Entries:          entriesstore.NewPostgresTx(tx),
	}
	if err := fn(ctx, stores); err != nil {
		return err
	}
	return tx.Commit()
}
