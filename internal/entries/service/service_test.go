package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	entriesmodels "rosterd/internal/entries/models"
	leavemodels "rosterd/internal/leave/models"
	"rosterd/internal/uow"
	workmodels "rosterd/internal/work/models"
	"rosterd/pkg/domain"
	dErrors "rosterd/pkg/domain-errors"
)

var entriesWall = time.Date(2025, 3, 10, 6, 0, 0, 0, time.UTC)

type fixture struct {
	service  *Service
	unit     *uow.MemoryUnitOfWork
	driverID domain.DriverID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	unit := uow.NewMemory()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &fixture{
		service:  NewService(unit, logger),
		unit:     unit,
		driverID: domain.NewDriverID(),
	}
}

func (f *fixture) seedEntry(t *testing.T, start, end time.Time) *entriesmodels.EntryRecord {
	t.Helper()
	r, err := domain.NewTimeRange(start, end)
	require.NoError(t, err)
	entry := entriesmodels.FromWork(domain.NewEntryID(), f.driverID, domain.NewWorkPeriodID(), r, entriesWall)
	require.NoError(t, f.unit.Stores().Entries.Upsert(context.Background(), entry))
	return entry
}

func TestList(t *testing.T) {
	ctx := context.Background()

	t.Run("filters by window and sorts by start", func(t *testing.T) {
		f := newFixture(t)
		early := f.seedEntry(t, entriesWall, entriesWall.Add(8*time.Hour))
		late := f.seedEntry(t, entriesWall.Add(24*time.Hour), entriesWall.Add(32*time.Hour))
		f.seedEntry(t, entriesWall.Add(96*time.Hour), entriesWall.Add(100*time.Hour))

		out, err := f.service.List(ctx, f.driverID, entriesWall, entriesWall.Add(48*time.Hour))
		require.NoError(t, err)
		require.Len(t, out, 2)
		assert.Equal(t, early.SourceID, out[0].SourceID)
		assert.Equal(t, late.SourceID, out[1].SourceID)
	})

	t.Run("zero bounds are unbounded", func(t *testing.T) {
		f := newFixture(t)
		f.seedEntry(t, entriesWall, entriesWall.Add(time.Hour))
		f.seedEntry(t, entriesWall.Add(240*time.Hour), entriesWall.Add(248*time.Hour))

		out, err := f.service.List(ctx, f.driverID, time.Time{}, time.Time{})
		require.NoError(t, err)
		assert.Len(t, out, 2)
	})

	t.Run("inverted window is rejected", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.service.List(ctx, f.driverID, entriesWall.Add(time.Hour), entriesWall)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidDateRange))
	})

	t.Run("other drivers are invisible", func(t *testing.T) {
		f := newFixture(t)
		f.seedEntry(t, entriesWall, entriesWall.Add(time.Hour))

		out, err := f.service.List(ctx, domain.NewDriverID(), time.Time{}, time.Time{})
		require.NoError(t, err)
		assert.Empty(t, out)
	})
}

func TestGet(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the owner's entry", func(t *testing.T) {
		f := newFixture(t)
		entry := f.seedEntry(t, entriesWall, entriesWall.Add(time.Hour))

		got, err := f.service.Get(ctx, f.driverID, entry.ID)
		require.NoError(t, err)
		assert.Equal(t, entry.SourceID, got.SourceID)
	})

	t.Run("unknown id", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.service.Get(ctx, f.driverID, domain.NewEntryID())
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("another driver's entry reads as not found", func(t *testing.T) {
		f := newFixture(t)
		entry := f.seedEntry(t, entriesWall, entriesWall.Add(time.Hour))

		_, err := f.service.Get(ctx, domain.NewDriverID(), entry.ID)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func TestRebuild(t *testing.T) {
	ctx := context.Background()

	t.Run("regenerates from source tables", func(t *testing.T) {
		f := newFixture(t)
		stores := f.unit.Stores()

		closed, err := workmodels.StartWorkPeriod(domain.NewWorkPeriodID(), f.driverID, entriesWall, entriesWall)
		require.NoError(t, err)
		require.NoError(t, closed.Close(entriesWall.Add(8*time.Hour)))
		require.NoError(t, stores.WorkPeriods.Save(ctx, closed))

		// Correction shifts the effective start; the rebuilt row must carry it.
		correction, err := workmodels.NewWorkCorrection(domain.NewWorkCorrectionID(), closed,
			entriesWall.Add(time.Hour), entriesWall.Add(8*time.Hour), entriesWall.Add(9*time.Hour), "late clock-in")
		require.NoError(t, err)
		require.NoError(t, stores.WorkCorrections.Append(ctx, correction))

		open, err := workmodels.StartWorkPeriod(domain.NewWorkPeriodID(), f.driverID, entriesWall.Add(24*time.Hour), entriesWall)
		require.NoError(t, err)
		require.NoError(t, stores.WorkPeriods.Save(ctx, open))

		leave, err := leavemodels.NewLeaveEvent(domain.NewLeaveID(), f.driverID,
			entriesWall.Add(48*time.Hour), entriesWall.Add(56*time.Hour), entriesWall, "medical")
		require.NoError(t, err)
		require.NoError(t, stores.Leaves.Save(ctx, leave))

		// A stale row that the sources no longer back.
		f.seedEntry(t, entriesWall.Add(500*time.Hour), entriesWall.Add(508*time.Hour))

		n, err := f.service.Rebuild(ctx, f.driverID)
		require.NoError(t, err)
		assert.Equal(t, 3, n)

		out, err := f.service.List(ctx, f.driverID, time.Time{}, time.Time{})
		require.NoError(t, err)
		require.Len(t, out, 3)

		bySource := make(map[string]*entriesmodels.EntryRecord, len(out))
		for _, e := range out {
			bySource[e.SourceID] = e
		}
		rebuiltClosed := bySource[closed.ID.String()]
		require.NotNil(t, rebuiltClosed)
		assert.Equal(t, entriesWall.Add(time.Hour), rebuiltClosed.EffectiveStartTime)

		rebuiltOpen := bySource[open.ID.String()]
		require.NotNil(t, rebuiltOpen)
		assert.True(t, rebuiltOpen.IsOpenEnded())

		rebuiltLeave := bySource[leave.ID.String()]
		require.NotNil(t, rebuiltLeave)
		assert.Equal(t, entriesmodels.EntryTypeLeave, rebuiltLeave.Type)
		assert.Equal(t, "medical", rebuiltLeave.Reason)
	})

	t.Run("driver with no history rebuilds to zero", func(t *testing.T) {
		f := newFixture(t)
		n, err := f.service.Rebuild(ctx, f.driverID)
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}
