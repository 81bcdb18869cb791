//go:build integration

package uow_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	entriesservice "rosterd/internal/entries/service"
	leaveservice "rosterd/internal/leave/service"
	"rosterd/internal/policy"
	transferservice "rosterd/internal/transfer/service"
	"rosterd/internal/uow"
	workservice "rosterd/internal/work/service"
	"rosterd/pkg/domain"
	dErrors "rosterd/pkg/domain-errors"
	"rosterd/pkg/testutil/containers"
)

func TestPostgresWorkflows(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	pc := containers.NewPostgresContainer(t)
	unit := uow.NewPostgres(pc.DB)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	wall := time.Date(2025, 3, 10, 6, 0, 0, 0, time.UTC)
	clock := func() time.Time { return wall }

	workSvc := workservice.NewService(unit, policy.NewMaxShiftDurationPolicy(14), logger, nil,
		workservice.WithClock(clock))
	leaveSvc := leaveservice.NewService(unit, logger, nil, leaveservice.WithClock(clock))
	transferSvc := transferservice.NewService(unit, logger, nil, transferservice.WithClock(clock))
	entriesSvc := entriesservice.NewService(unit, logger)

	ctx := context.Background()
	driverID := domain.NewDriverID()
	start := wall
	end := wall.Add(8 * time.Hour)

	periodID, err := workSvc.StartWork(ctx, driverID, domain.NewWorkPeriodID(), start)
	require.NoError(t, err)

	t.Run("open period is visible and exclusive", func(t *testing.T) {
		status, err := workSvc.GetWorkStatus(ctx, driverID)
		require.NoError(t, err)
		require.True(t, status.HasOpenPeriod)
		assert.Equal(t, periodID, status.Period.ID)

		_, err = workSvc.StartWork(ctx, driverID, domain.NewWorkPeriodID(), start.Add(time.Hour))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeActiveWorkPeriodExists))
	})

	t.Run("close and correct survive round trips", func(t *testing.T) {
		period, err := workSvc.CloseWork(ctx, driverID, end)
		require.NoError(t, err)
		require.NotNil(t, period.DeclaredEndTime)
		assert.Equal(t, end, period.DeclaredEndTime.UTC())

		correction, err := workSvc.CorrectWork(ctx, driverID, periodID, domain.NewWorkCorrectionID(),
			start.Add(time.Hour), end, "late clock-in")
		require.NoError(t, err)
		assert.Equal(t, periodID, correction.WorkPeriodID)

		entries, err := entriesSvc.List(ctx, driverID, time.Time{}, time.Time{})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, start.Add(time.Hour), entries[0].EffectiveStartTime.UTC())
	})

	t.Run("overlapping leave is rejected and not persisted", func(t *testing.T) {
		_, err := leaveSvc.RecordLeave(ctx, driverID, domain.NewLeaveID(),
			start.Add(4*time.Hour), start.Add(12*time.Hour), "medical")
		require.True(t, dErrors.HasCode(err, dErrors.CodeLeaveOverlapsWork))

		entries, err := entriesSvc.List(ctx, driverID, time.Time{}, time.Time{})
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})

	t.Run("non-overlapping leave lands on the timeline", func(t *testing.T) {
		_, err := leaveSvc.RecordLeave(ctx, driverID, domain.NewLeaveID(),
			start.Add(24*time.Hour), start.Add(32*time.Hour), "medical")
		require.NoError(t, err)

		entries, err := entriesSvc.List(ctx, driverID, time.Time{}, time.Time{})
		require.NoError(t, err)
		assert.Len(t, entries, 2)
	})

	t.Run("transfer references the stored period", func(t *testing.T) {
		target := domain.NewDriverID()
		event, err := transferSvc.RecordShiftTransfer(ctx, domain.NewShiftTransferID(),
			periodID, driverID, target, "handover")
		require.NoError(t, err)

		inbound, err := transferSvc.ListTransfers(ctx, target)
		require.NoError(t, err)
		require.Len(t, inbound, 1)
		assert.Equal(t, event.ID, inbound[0].ID)
	})

	t.Run("rebuild regenerates the projection", func(t *testing.T) {
		n, err := entriesSvc.Rebuild(ctx, driverID)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})
}
