package analytics

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
	workmodels "rosterd/internal/work/models"
	"rosterd/pkg/domain"
	dErrors "rosterd/pkg/domain-errors"
)

func bucketRange(t *testing.T, start, end time.Time) domain.TimeRange {
	t.Helper()
	r, err := domain.NewTimeRange(start, end)
	require.NoError(t, err)
	return r
}

func TestDailyBucketer(t *testing.T) {
	from := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)

	t.Run("splits an overnight shift across both days", func(t *testing.T) {
		b := NewDailyBucketer(from, to)
		b.AddWork(bucketRange(t, from.Add(22*time.Hour), from.Add(26*time.Hour)))

		report := b.Report()
		require.Len(t, report.Days, 2)
		assert.Equal(t, "2025-03-10", report.Days[0].Date)
		assert.InDelta(t, 120.0, report.Days[0].WorkMinutes, 1e-9)
		assert.Equal(t, "2025-03-11", report.Days[1].Date)
		assert.InDelta(t, 120.0, report.Days[1].WorkMinutes, 1e-9)
		assert.InDelta(t, 240.0, report.Summary.TotalWorkMinutes, 1e-9)
		assert.Equal(t, 2, report.Summary.TotalDays)
	})

	t.Run("clips intervals to the query window", func(t *testing.T) {
		b := NewDailyBucketer(from, to)
		// Starts the day before the window opens.
		b.AddWork(bucketRange(t, from.Add(-4*time.Hour), from.Add(4*time.Hour)))
		// Ends the day after the window closes.
		b.AddLeave(bucketRange(t, to.Add(-2*time.Hour), to.Add(6*time.Hour)))

		report := b.Report()
		require.Len(t, report.Days, 2)
		assert.InDelta(t, 240.0, report.Days[0].WorkMinutes, 1e-9)
		assert.InDelta(t, 120.0, report.Days[1].LeaveMinutes, 1e-9)
	})

	t.Run("work and leave accumulate in the same bucket", func(t *testing.T) {
		b := NewDailyBucketer(from, to)
		b.AddWork(bucketRange(t, from.Add(8*time.Hour), from.Add(16*time.Hour)))
		b.AddLeave(bucketRange(t, from.Add(18*time.Hour), from.Add(20*time.Hour)))

		report := b.Report()
		require.Len(t, report.Days, 1)
		assert.InDelta(t, 480.0, report.Days[0].WorkMinutes, 1e-9)
		assert.InDelta(t, 120.0, report.Days[0].LeaveMinutes, 1e-9)
	})

	t.Run("days come back in ascending date order", func(t *testing.T) {
		b := NewDailyBucketer(from, to)
		b.AddWork(bucketRange(t, from.AddDate(0, 0, 4), from.AddDate(0, 0, 4).Add(time.Hour)))
		b.AddWork(bucketRange(t, from.AddDate(0, 0, 1), from.AddDate(0, 0, 1).Add(time.Hour)))

		report := b.Report()
		require.Len(t, report.Days, 2)
		assert.Less(t, report.Days[0].Date, report.Days[1].Date)
	})

	t.Run("empty input yields an empty report", func(t *testing.T) {
		report := NewDailyBucketer(from, to).Report()
		assert.Empty(t, report.Days)
		assert.Zero(t, report.Summary.TotalDays)
	})
}

func TestGetDaily(t *testing.T) {
	ctx := context.Background()
	from := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)

	newService := func(t *testing.T) (*Service, *uow.MemoryUnitOfWork, domain.DriverID) {
		t.Helper()
		unit := uow.NewMemory()
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		svc := NewService(unit, policy.NewMaxAnalyticsRangePolicy(90), nil, logger, nil)
		return svc, unit, domain.NewDriverID()
	}

	t.Run("combines effective work and leave per day", func(t *testing.T) {
		svc, unit, driverID := newService(t)
		stores := unit.Stores()

		period, err := workmodels.StartWorkPeriod(domain.NewWorkPeriodID(), driverID, from.Add(8*time.Hour), from)
		require.NoError(t, err)
		require.NoError(t, period.Close(from.Add(16*time.Hour)))
		require.NoError(t, stores.WorkPeriods.Save(ctx, period))

		leave, err := leavemodels.NewLeaveEvent(domain.NewLeaveID(), driverID,
			from.AddDate(0, 0, 1).Add(8*time.Hour), from.AddDate(0, 0, 1).Add(12*time.Hour), from, "medical")
		require.NoError(t, err)
		require.NoError(t, stores.Leaves.Save(ctx, leave))

		report, err := svc.GetDaily(ctx, driverID, from, to)
		require.NoError(t, err)
		require.Len(t, report.Days, 2)
		assert.InDelta(t, 480.0, report.Days[0].WorkMinutes, 1e-9)
		assert.InDelta(t, 240.0, report.Days[1].LeaveMinutes, 1e-9)
		assert.Equal(t, 2, report.Summary.TotalDays)
	})

	t.Run("window over the cap is rejected", func(t *testing.T) {
		svc, _, driverID := newService(t)
		_, err := svc.GetDaily(ctx, driverID, from, from.AddDate(0, 0, 91))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeDateRangeTooLarge))
	})
}
