package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rosterd/internal/work/models"
	"rosterd/pkg/domain"
)

var storeStart = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

func newStores(t *testing.T) (*InMemoryPeriodStore, *InMemoryCorrectionStore) {
	t.Helper()
	corrections := NewMemoryCorrectionStore()
	return NewMemoryPeriodStore(corrections), corrections
}

func saveClosed(t *testing.T, s *InMemoryPeriodStore, driverID domain.DriverID, start, end time.Time) *models.WorkPeriod {
	t.Helper()
	period, err := models.StartWorkPeriod(domain.NewWorkPeriodID(), driverID, start, start)
	require.NoError(t, err)
	require.NoError(t, period.Close(end))
	require.NoError(t, s.Save(context.Background(), period))
	return period
}

func TestFindOpenByDriver(t *testing.T) {
	ctx := context.Background()
	periods, _ := newStores(t)
	driverID := domain.NewDriverID()

	_, err := periods.FindOpenByDriver(ctx, driverID)
	assert.ErrorIs(t, err, ErrNotFound)

	open, err := models.StartWorkPeriod(domain.NewWorkPeriodID(), driverID, storeStart, storeStart)
	require.NoError(t, err)
	require.NoError(t, periods.Save(ctx, open))

	found, err := periods.FindOpenByDriver(ctx, driverID)
	require.NoError(t, err)
	assert.Equal(t, open.ID, found.ID)

	// Another driver's open period is invisible.
	_, err = periods.FindOpenByDriver(ctx, domain.NewDriverID())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindEffectiveOverlapping(t *testing.T) {
	ctx := context.Background()
	driverID := domain.NewDriverID()

	t.Run("declared overlap is found", func(t *testing.T) {
		periods, _ := newStores(t)
		closed := saveClosed(t, periods, driverID, storeStart, storeStart.Add(8*time.Hour))

		candidate, _ := domain.NewTimeRange(storeStart.Add(7*time.Hour), storeStart.Add(12*time.Hour))
		hits, err := periods.FindEffectiveOverlapping(ctx, driverID, candidate, domain.WorkPeriodID{})
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, closed.ID, hits[0].Period.ID)
	})

	t.Run("touching declared ranges do not overlap", func(t *testing.T) {
		periods, _ := newStores(t)
		saveClosed(t, periods, driverID, storeStart, storeStart.Add(8*time.Hour))

		candidate, _ := domain.NewTimeRange(storeStart.Add(8*time.Hour), storeStart.Add(12*time.Hour))
		hits, err := periods.FindEffectiveOverlapping(ctx, driverID, candidate, domain.WorkPeriodID{})
		require.NoError(t, err)
		assert.Empty(t, hits)
	})

	t.Run("correction drifting into the candidate is found", func(t *testing.T) {
		// Declared [08:00, 12:00) does not touch the candidate, but a
		// correction moved the shift to [13:00, 18:00), which does.
		periods, corrections := newStores(t)
		closed := saveClosed(t, periods, driverID, storeStart, storeStart.Add(4*time.Hour))

		correction, err := models.NewWorkCorrection(domain.NewWorkCorrectionID(), closed,
			storeStart.Add(5*time.Hour), storeStart.Add(10*time.Hour), storeStart.Add(11*time.Hour), "late start")
		require.NoError(t, err)
		require.NoError(t, corrections.Append(ctx, correction))

		candidate, _ := domain.NewTimeRange(storeStart.Add(9*time.Hour), storeStart.Add(12*time.Hour))
		hits, err := periods.FindEffectiveOverlapping(ctx, driverID, candidate, domain.WorkPeriodID{})
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, storeStart.Add(5*time.Hour), hits[0].Effective.Start)
	})

	t.Run("correction drifting out of the candidate is not found", func(t *testing.T) {
		// Declared range overlaps the candidate but the latest correction
		// moved the shift clear of it; the effective recheck must win.
		periods, corrections := newStores(t)
		closed := saveClosed(t, periods, driverID, storeStart, storeStart.Add(8*time.Hour))

		correction, err := models.NewWorkCorrection(domain.NewWorkCorrectionID(), closed,
			storeStart.Add(24*time.Hour), storeStart.Add(30*time.Hour), storeStart.Add(11*time.Hour), "wrong day")
		require.NoError(t, err)
		require.NoError(t, corrections.Append(ctx, correction))

		candidate, _ := domain.NewTimeRange(storeStart.Add(7*time.Hour), storeStart.Add(12*time.Hour))
		hits, err := periods.FindEffectiveOverlapping(ctx, driverID, candidate, domain.WorkPeriodID{})
		require.NoError(t, err)
		assert.Empty(t, hits)
	})

	t.Run("excluded period is skipped", func(t *testing.T) {
		periods, _ := newStores(t)
		closed := saveClosed(t, periods, driverID, storeStart, storeStart.Add(8*time.Hour))

		candidate, _ := domain.NewTimeRange(storeStart.Add(time.Hour), storeStart.Add(9*time.Hour))
		hits, err := periods.FindEffectiveOverlapping(ctx, driverID, candidate, closed.ID)
		require.NoError(t, err)
		assert.Empty(t, hits)
	})

	t.Run("open periods are never returned", func(t *testing.T) {
		periods, _ := newStores(t)
		open, err := models.StartWorkPeriod(domain.NewWorkPeriodID(), driverID, storeStart, storeStart)
		require.NoError(t, err)
		require.NoError(t, periods.Save(ctx, open))

		candidate, _ := domain.NewTimeRange(storeStart, storeStart.Add(8*time.Hour))
		hits, err := periods.FindEffectiveOverlapping(ctx, driverID, candidate, domain.WorkPeriodID{})
		require.NoError(t, err)
		assert.Empty(t, hits)
	})
}

func TestCorrectionStorePreservesInsertionOrder(t *testing.T) {
	ctx := context.Background()
	periods, corrections := newStores(t)
	closed := saveClosed(t, periods, domain.NewDriverID(), storeStart, storeStart.Add(8*time.Hour))

	instant := storeStart.Add(10 * time.Hour)
	var appended []domain.WorkCorrectionID
	for i := 0; i < 3; i++ {
		c, err := models.NewWorkCorrection(domain.NewWorkCorrectionID(), closed,
			storeStart.Add(time.Duration(i)*time.Minute), storeStart.Add(8*time.Hour), instant, "same instant")
		require.NoError(t, err)
		require.NoError(t, corrections.Append(ctx, c))
		appended = append(appended, c.ID)
	}

	log, err := corrections.FindByWorkPeriod(ctx, closed.ID)
	require.NoError(t, err)
	require.Len(t, log, 3)
	for i, c := range log {
		assert.Equal(t, appended[i], c.ID)
	}
}
