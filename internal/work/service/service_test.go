package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	leavemodels "rosterd/internal/leave/models"
	"rosterd/internal/policy"
	"rosterd/internal/uow"
	"rosterd/internal/work/models"
	"rosterd/pkg/domain"
	dErrors "rosterd/pkg/domain-errors"
)

var (
	shiftStart = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	wallClock  = time.Date(2025, 3, 10, 7, 0, 0, 0, time.UTC)
)

type fixture struct {
	service  *Service
	unit     *uow.MemoryUnitOfWork
	driverID domain.DriverID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	unit := uow.NewMemory()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(unit, policy.NewMaxShiftDurationPolicy(14), logger, nil,
		WithClock(func() time.Time { return wallClock }))
	return &fixture{service: svc, unit: unit, driverID: domain.NewDriverID()}
}

func (f *fixture) startAndClose(t *testing.T, start, end time.Time) domain.WorkPeriodID {
	t.Helper()
	ctx := context.Background()
	id, err := f.service.StartWork(ctx, f.driverID, domain.NewWorkPeriodID(), start)
	require.NoError(t, err)
	_, err = f.service.CloseWork(ctx, f.driverID, end)
	require.NoError(t, err)
	return id
}

func (f *fixture) recordLeave(t *testing.T, start, end time.Time) domain.LeaveID {
	t.Helper()
	leave, err := leavemodels.NewLeaveEvent(domain.NewLeaveID(), f.driverID, start, end, wallClock, "seeded")
	require.NoError(t, err)
	require.NoError(t, f.unit.Stores().Leaves.Save(context.Background(), leave))
	return leave.ID
}

func TestStartWork(t *testing.T) {
	ctx := context.Background()

	t.Run("opens a period and projects an open entry", func(t *testing.T) {
		f := newFixture(t)
		workPeriodID := domain.NewWorkPeriodID()

		got, err := f.service.StartWork(ctx, f.driverID, workPeriodID, shiftStart)
		require.NoError(t, err)
		assert.Equal(t, workPeriodID, got)

		status, err := f.service.GetWorkStatus(ctx, f.driverID)
		require.NoError(t, err)
		assert.True(t, status.HasOpenPeriod)

		entries, err := f.unit.Stores().Entries.FindByDriver(ctx, f.driverID, time.Time{}, time.Time{})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.True(t, entries[0].IsOpenEnded())
	})

	t.Run("resubmitting the same period id is idempotent", func(t *testing.T) {
		f := newFixture(t)
		workPeriodID := domain.NewWorkPeriodID()

		first, err := f.service.StartWork(ctx, f.driverID, workPeriodID, shiftStart)
		require.NoError(t, err)
		second, err := f.service.StartWork(ctx, f.driverID, workPeriodID, shiftStart)
		require.NoError(t, err)
		assert.Equal(t, first, second)

		periods, err := f.unit.Stores().WorkPeriods.FindByDriver(ctx, f.driverID)
		require.NoError(t, err)
		assert.Len(t, periods, 1)
	})

	t.Run("replaying another driver's period id is rejected", func(t *testing.T) {
		f := newFixture(t)
		workPeriodID := domain.NewWorkPeriodID()
		_, err := f.service.StartWork(ctx, f.driverID, workPeriodID, shiftStart)
		require.NoError(t, err)

		_, err = f.service.StartWork(ctx, domain.NewDriverID(), workPeriodID, shiftStart)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeWorkPeriodUnauthorized))
	})

	t.Run("a second open period is rejected", func(t *testing.T) {
		f := newFixture(t)
		openID, err := f.service.StartWork(ctx, f.driverID, domain.NewWorkPeriodID(), shiftStart)
		require.NoError(t, err)

		_, err = f.service.StartWork(ctx, f.driverID, domain.NewWorkPeriodID(), shiftStart.Add(time.Hour))
		require.True(t, dErrors.HasCode(err, dErrors.CodeActiveWorkPeriodExists))
		assert.Equal(t, openID.String(), dErrors.DetailsOf(err)["openWorkPeriodId"])
	})
}

func TestCloseWork(t *testing.T) {
	ctx := context.Background()

	t.Run("closes the open period and completes the entry", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.service.StartWork(ctx, f.driverID, domain.NewWorkPeriodID(), shiftStart)
		require.NoError(t, err)

		closed, err := f.service.CloseWork(ctx, f.driverID, shiftStart.Add(8*time.Hour))
		require.NoError(t, err)
		assert.True(t, closed.IsClosed())

		entries, err := f.unit.Stores().Entries.FindByDriver(ctx, f.driverID, time.Time{}, time.Time{})
		require.NoError(t, err)
		require.Len(t, entries, 1, "close updates the same entry, not a second one")
		assert.False(t, entries[0].IsOpenEnded())
	})

	t.Run("without an open period", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.service.CloseWork(ctx, f.driverID, shiftStart.Add(8*time.Hour))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNoActiveWorkPeriod))
	})

	t.Run("exactly fourteen hours is allowed", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.service.StartWork(ctx, f.driverID, domain.NewWorkPeriodID(), shiftStart)
		require.NoError(t, err)
		_, err = f.service.CloseWork(ctx, f.driverID, shiftStart.Add(14*time.Hour))
		assert.NoError(t, err)
	})

	t.Run("a hair over fourteen hours is rejected", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.service.StartWork(ctx, f.driverID, domain.NewWorkPeriodID(), shiftStart)
		require.NoError(t, err)

		_, err = f.service.CloseWork(ctx, f.driverID, shiftStart.Add(14*time.Hour+time.Second))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeShiftTooLong))

		status, err := f.service.GetWorkStatus(ctx, f.driverID)
		require.NoError(t, err)
		assert.True(t, status.HasOpenPeriod, "rejected close must leave the period open")
	})

	t.Run("leave starting exactly at the end time does not conflict", func(t *testing.T) {
		f := newFixture(t)
		end := shiftStart.Add(8 * time.Hour)
		f.recordLeave(t, end, end.Add(4*time.Hour))

		_, err := f.service.StartWork(ctx, f.driverID, domain.NewWorkPeriodID(), shiftStart)
		require.NoError(t, err)
		_, err = f.service.CloseWork(ctx, f.driverID, end)
		assert.NoError(t, err)
	})

	t.Run("overlapping effective leave rejects the close atomically", func(t *testing.T) {
		f := newFixture(t)
		end := shiftStart.Add(8 * time.Hour)
		leaveID := f.recordLeave(t, end.Add(-time.Minute), end.Add(4*time.Hour))

		_, err := f.service.StartWork(ctx, f.driverID, domain.NewWorkPeriodID(), shiftStart)
		require.NoError(t, err)
		_, err = f.service.CloseWork(ctx, f.driverID, end)
		require.True(t, dErrors.HasCode(err, dErrors.CodeWorkOverlapsLeave))
		assert.Equal(t, leaveID.String(), dErrors.DetailsOf(err)["leaveId"])

		status, err := f.service.GetWorkStatus(ctx, f.driverID)
		require.NoError(t, err)
		assert.True(t, status.HasOpenPeriod)

		entries, err := f.unit.Stores().Entries.FindByDriver(ctx, f.driverID, time.Time{}, time.Time{})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.True(t, entries[0].IsOpenEnded(), "failed close must not complete the entry")
	})

	t.Run("corrected leave no longer conflicts", func(t *testing.T) {
		f := newFixture(t)
		end := shiftStart.Add(8 * time.Hour)
		leaveID := f.recordLeave(t, end.Add(-time.Hour), end.Add(4*time.Hour))

		// Correct the leave clear of the shift; only the effective range counts.
		leave, err := f.unit.Stores().Leaves.FindByID(ctx, leaveID)
		require.NoError(t, err)
		correction, err := leavemodels.NewLeaveCorrection(domain.NewLeaveCorrectionID(), leave,
			end, end.Add(4*time.Hour), wallClock.Add(time.Minute), "moved after shift")
		require.NoError(t, err)
		require.NoError(t, f.unit.Stores().LeaveCorrections.Append(ctx, correction))

		_, err = f.service.StartWork(ctx, f.driverID, domain.NewWorkPeriodID(), shiftStart)
		require.NoError(t, err)
		_, err = f.service.CloseWork(ctx, f.driverID, end)
		assert.NoError(t, err)
	})

	t.Run("overlap with another closed period's effective time", func(t *testing.T) {
		f := newFixture(t)
		priorID := f.startAndClose(t, shiftStart, shiftStart.Add(8*time.Hour))

		_, err := f.service.StartWork(ctx, f.driverID, domain.NewWorkPeriodID(), shiftStart.Add(7*time.Hour))
		require.NoError(t, err)
		_, err = f.service.CloseWork(ctx, f.driverID, shiftStart.Add(12*time.Hour))
		require.True(t, dErrors.HasCode(err, dErrors.CodeWorkOverlapsWork))
		ids, ok := dErrors.DetailsOf(err)["overlappingWorkIds"].([]string)
		require.True(t, ok)
		assert.Contains(t, ids, priorID.String())
	})

	t.Run("back to back shifts are allowed", func(t *testing.T) {
		f := newFixture(t)
		f.startAndClose(t, shiftStart, shiftStart.Add(8*time.Hour))

		_, err := f.service.StartWork(ctx, f.driverID, domain.NewWorkPeriodID(), shiftStart.Add(8*time.Hour))
		require.NoError(t, err)
		_, err = f.service.CloseWork(ctx, f.driverID, shiftStart.Add(16*time.Hour))
		assert.NoError(t, err)
	})
}

func TestCorrectWork(t *testing.T) {
	ctx := context.Background()

	t.Run("appends a correction and reprojects the entry", func(t *testing.T) {
		f := newFixture(t)
		periodID := f.startAndClose(t, shiftStart, shiftStart.Add(8*time.Hour))

		correction, err := f.service.CorrectWork(ctx, f.driverID, periodID, domain.NewWorkCorrectionID(),
			shiftStart.Add(30*time.Minute), shiftStart.Add(9*time.Hour), "forgot to clock in")
		require.NoError(t, err)
		assert.Equal(t, periodID, correction.WorkPeriodID)

		entries, err := f.unit.Stores().Entries.FindByDriver(ctx, f.driverID, time.Time{}, time.Time{})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, shiftStart.Add(30*time.Minute), entries[0].EffectiveStartTime)
	})

	t.Run("an open period cannot be corrected", func(t *testing.T) {
		f := newFixture(t)
		periodID, err := f.service.StartWork(ctx, f.driverID, domain.NewWorkPeriodID(), shiftStart)
		require.NoError(t, err)

		_, err = f.service.CorrectWork(ctx, f.driverID, periodID, domain.NewWorkCorrectionID(),
			shiftStart, shiftStart.Add(8*time.Hour), "")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeWorkNotClosed))
	})

	t.Run("unknown and foreign periods read as not found", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.service.CorrectWork(ctx, f.driverID, domain.NewWorkPeriodID(), domain.NewWorkCorrectionID(),
			shiftStart, shiftStart.Add(8*time.Hour), "")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeWorkPeriodNotFound))

		periodID := f.startAndClose(t, shiftStart, shiftStart.Add(8*time.Hour))
		_, err = f.service.CorrectWork(ctx, domain.NewDriverID(), periodID, domain.NewWorkCorrectionID(),
			shiftStart, shiftStart.Add(8*time.Hour), "")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeWorkPeriodNotFound))
	})

	t.Run("correction to exactly fourteen hours passes, beyond fails", func(t *testing.T) {
		f := newFixture(t)
		periodID := f.startAndClose(t, shiftStart, shiftStart.Add(8*time.Hour))

		_, err := f.service.CorrectWork(ctx, f.driverID, periodID, domain.NewWorkCorrectionID(),
			shiftStart, shiftStart.Add(14*time.Hour), "long day")
		assert.NoError(t, err)

		_, err = f.service.CorrectWork(ctx, f.driverID, periodID, domain.NewWorkCorrectionID(),
			shiftStart, shiftStart.Add(14*time.Hour+time.Minute), "longer day")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeShiftTooLong))
	})

	t.Run("collision with another closed period", func(t *testing.T) {
		f := newFixture(t)
		f.startAndClose(t, shiftStart, shiftStart.Add(8*time.Hour))
		secondID := f.startAndClose(t, shiftStart.Add(10*time.Hour), shiftStart.Add(16*time.Hour))

		_, err := f.service.CorrectWork(ctx, f.driverID, secondID, domain.NewWorkCorrectionID(),
			shiftStart.Add(7*time.Hour), shiftStart.Add(16*time.Hour), "started earlier")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeWorkOverlapsExistingWork))
	})

	t.Run("prospective effective time is checked against leave", func(t *testing.T) {
		f := newFixture(t)
		periodID := f.startAndClose(t, shiftStart, shiftStart.Add(8*time.Hour))
		f.recordLeave(t, shiftStart.Add(9*time.Hour), shiftStart.Add(12*time.Hour))

		_, err := f.service.CorrectWork(ctx, f.driverID, periodID, domain.NewWorkCorrectionID(),
			shiftStart, shiftStart.Add(10*time.Hour), "ran long")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeWorkOverlapsLeave))

		log, err := f.unit.Stores().WorkCorrections.FindByWorkPeriod(ctx, periodID)
		require.NoError(t, err)
		assert.Empty(t, log, "rejected correction must not be appended")
	})

	t.Run("corrections accumulate, history is preserved", func(t *testing.T) {
		f := newFixture(t)
		periodID := f.startAndClose(t, shiftStart, shiftStart.Add(8*time.Hour))

		_, err := f.service.CorrectWork(ctx, f.driverID, periodID, domain.NewWorkCorrectionID(),
			shiftStart, shiftStart.Add(9*time.Hour), "first")
		require.NoError(t, err)
		_, err = f.service.CorrectWork(ctx, f.driverID, periodID, domain.NewWorkCorrectionID(),
			shiftStart, shiftStart.Add(10*time.Hour), "second")
		require.NoError(t, err)

		log, err := f.unit.Stores().WorkCorrections.FindByWorkPeriod(ctx, periodID)
		require.NoError(t, err)
		assert.Len(t, log, 2)

		period, err := f.unit.Stores().WorkPeriods.FindByID(ctx, periodID)
		require.NoError(t, err)
		effective, err := models.ResolveEffectiveWorkTime(period, log)
		require.NoError(t, err)
		assert.Equal(t, shiftStart.Add(10*time.Hour), effective.Range.End)
		assert.Equal(t, shiftStart.Add(8*time.Hour), *period.DeclaredEndTime, "declared end never changes")
	})
}

func TestGetWorkStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	status, err := f.service.GetWorkStatus(ctx, f.driverID)
	require.NoError(t, err)
	assert.False(t, status.HasOpenPeriod)
	assert.Nil(t, status.Period)

	_, err = f.service.StartWork(ctx, f.driverID, domain.NewWorkPeriodID(), shiftStart)
	require.NoError(t, err)

	status, err = f.service.GetWorkStatus(ctx, f.driverID)
	require.NoError(t, err)
	assert.True(t, status.HasOpenPeriod)
	require.NotNil(t, status.Period)
	assert.Equal(t, shiftStart, status.Period.DeclaredStartTime)
}
