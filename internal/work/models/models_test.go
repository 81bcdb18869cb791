package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rosterd/pkg/domain"
	dErrors "rosterd/pkg/domain-errors"
)

var (
	testStart = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	testNow   = time.Date(2025, 3, 10, 7, 55, 0, 0, time.UTC)
)

func closedPeriod(t *testing.T, start, end time.Time) *WorkPeriod {
	t.Helper()
	period, err := StartWorkPeriod(domain.NewWorkPeriodID(), domain.NewDriverID(), start, testNow)
	require.NoError(t, err)
	require.NoError(t, period.Close(end))
	return period
}

func TestStartWorkPeriod(t *testing.T) {
	t.Run("creates an open period", func(t *testing.T) {
		period, err := StartWorkPeriod(domain.NewWorkPeriodID(), domain.NewDriverID(), testStart, testNow)
		require.NoError(t, err)
		assert.True(t, period.IsOpen())
		assert.Nil(t, period.DeclaredEndTime)
	})

	t.Run("rejects a zero start time", func(t *testing.T) {
		_, err := StartWorkPeriod(domain.NewWorkPeriodID(), domain.NewDriverID(), time.Time{}, testNow)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTimeRange))
	})
}

func TestWorkPeriodClose(t *testing.T) {
	t.Run("transitions to closed", func(t *testing.T) {
		period, err := StartWorkPeriod(domain.NewWorkPeriodID(), domain.NewDriverID(), testStart, testNow)
		require.NoError(t, err)

		end := testStart.Add(8 * time.Hour)
		require.NoError(t, period.Close(end))
		assert.True(t, period.IsClosed())
		require.NotNil(t, period.DeclaredEndTime)
		assert.Equal(t, end, *period.DeclaredEndTime)
	})

	t.Run("closing twice fails", func(t *testing.T) {
		period := closedPeriod(t, testStart, testStart.Add(8*time.Hour))
		err := period.Close(testStart.Add(9 * time.Hour))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeWorkPeriodClosed))
	})

	t.Run("end at or before start fails", func(t *testing.T) {
		period, err := StartWorkPeriod(domain.NewWorkPeriodID(), domain.NewDriverID(), testStart, testNow)
		require.NoError(t, err)
		assert.Error(t, period.Close(testStart))
		assert.Error(t, period.Close(testStart.Add(-time.Minute)))
		assert.True(t, period.IsOpen(), "failed close must not change state")
	})
}

func TestNewWorkCorrection(t *testing.T) {
	t.Run("requires a closed period", func(t *testing.T) {
		open, err := StartWorkPeriod(domain.NewWorkPeriodID(), domain.NewDriverID(), testStart, testNow)
		require.NoError(t, err)
		_, err = NewWorkCorrection(domain.NewWorkCorrectionID(), open, testStart, testStart.Add(time.Hour), testNow, "typo")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeWorkNotClosed))
	})

	t.Run("rejects an invalid corrected range", func(t *testing.T) {
		period := closedPeriod(t, testStart, testStart.Add(8*time.Hour))
		_, err := NewWorkCorrection(domain.NewWorkCorrectionID(), period, testStart, testStart, testNow, "typo")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTimeRange))
	})
}

func TestResolveEffectiveWorkTime(t *testing.T) {
	t.Run("no corrections falls back to declared", func(t *testing.T) {
		period := closedPeriod(t, testStart, testStart.Add(8*time.Hour))
		effective, err := ResolveEffectiveWorkTime(period, nil)
		require.NoError(t, err)
		assert.Equal(t, testStart, effective.Range.Start)
		assert.Equal(t, testStart.Add(8*time.Hour), effective.Range.End)
	})

	t.Run("open period cannot be resolved", func(t *testing.T) {
		open, err := StartWorkPeriod(domain.NewWorkPeriodID(), domain.NewDriverID(), testStart, testNow)
		require.NoError(t, err)
		_, err = ResolveEffectiveWorkTime(open, nil)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeWorkPeriodNotClosed))
	})

	t.Run("latest correction wins regardless of order", func(t *testing.T) {
		period := closedPeriod(t, testStart, testStart.Add(8*time.Hour))
		first, err := NewWorkCorrection(domain.NewWorkCorrectionID(), period,
			testStart.Add(time.Hour), testStart.Add(9*time.Hour), testNow.Add(time.Hour), "first")
		require.NoError(t, err)
		second, err := NewWorkCorrection(domain.NewWorkCorrectionID(), period,
			testStart.Add(2*time.Hour), testStart.Add(10*time.Hour), testNow.Add(2*time.Hour), "second")
		require.NoError(t, err)

		for _, corrections := range [][]*WorkCorrection{
			{first, second},
			{second, first},
		} {
			effective, err := ResolveEffectiveWorkTime(period, corrections)
			require.NoError(t, err)
			assert.Equal(t, second.CorrectedStartTime, effective.Range.Start)
			assert.Equal(t, second.CorrectedEndTime, effective.Range.End)
		}
	})

	t.Run("created-at ties go to the later appended correction", func(t *testing.T) {
		period := closedPeriod(t, testStart, testStart.Add(8*time.Hour))
		sameInstant := testNow.Add(time.Hour)
		first, err := NewWorkCorrection(domain.NewWorkCorrectionID(), period,
			testStart.Add(time.Hour), testStart.Add(9*time.Hour), sameInstant, "first")
		require.NoError(t, err)
		second, err := NewWorkCorrection(domain.NewWorkCorrectionID(), period,
			testStart.Add(2*time.Hour), testStart.Add(10*time.Hour), sameInstant, "second")
		require.NoError(t, err)

		effective, err := ResolveEffectiveWorkTime(period, []*WorkCorrection{first, second})
		require.NoError(t, err)
		assert.Equal(t, second.CorrectedStartTime, effective.Range.Start)
	})

	t.Run("foreign corrections are a hard error", func(t *testing.T) {
		period := closedPeriod(t, testStart, testStart.Add(8*time.Hour))
		other := closedPeriod(t, testStart.Add(24*time.Hour), testStart.Add(30*time.Hour))
		foreign, err := NewWorkCorrection(domain.NewWorkCorrectionID(), other,
			testStart.Add(25*time.Hour), testStart.Add(31*time.Hour), testNow, "wrong period")
		require.NoError(t, err)

		_, err = ResolveEffectiveWorkTime(period, []*WorkCorrection{foreign})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidCorrectionsProvided))
	})

	t.Run("resolution never mutates the period or the log", func(t *testing.T) {
		period := closedPeriod(t, testStart, testStart.Add(8*time.Hour))
		correction, err := NewWorkCorrection(domain.NewWorkCorrectionID(), period,
			testStart.Add(time.Hour), testStart.Add(9*time.Hour), testNow.Add(time.Hour), "adjust")
		require.NoError(t, err)

		_, err = ResolveEffectiveWorkTime(period, []*WorkCorrection{correction})
		require.NoError(t, err)
		assert.Equal(t, testStart, period.DeclaredStartTime, "declared fields are immutable")
		assert.Equal(t, testStart.Add(8*time.Hour), *period.DeclaredEndTime)
	})
}

func TestClosingWorkTime(t *testing.T) {
	open, err := StartWorkPeriod(domain.NewWorkPeriodID(), domain.NewDriverID(), testStart, testNow)
	require.NoError(t, err)

	candidate, err := ClosingWorkTime(open, testStart.Add(8*time.Hour))
	require.NoError(t, err)
	assert.InDelta(t, 8.0, candidate.DurationHours(), 1e-9)

	_, err = ClosingWorkTime(open, testStart)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTimeRange))
}
