// Package analytics holds the read-side reducers over effective intervals.
// Every calculate function is pure given its inputs and performs no I/O.
package analytics

import (
	leavemodels "rosterd/internal/leave/models"
	transfermodels "rosterd/internal/transfer/models"
	workmodels "rosterd/internal/work/models"
	"rosterd/pkg/domain"
	dErrors "rosterd/pkg/domain-errors"
)

// WorkSummary totals the effective work hours falling inside the query range.
// OPEN periods never count; effective ranges are clipped to the query range.
type WorkSummary struct {
	TotalHours float64 `json:"totalHours"`
}

func CalculateWorkSummary(
	r domain.TimeRange,
	periods []*workmodels.WorkPeriod,
	correctionsByPeriod map[domain.WorkPeriodID][]*workmodels.WorkCorrection,
) (WorkSummary, error) {
	var totalMs int64
	for _, period := range periods {
		if !period.IsClosed() {
			continue
		}
		effective, err := workmodels.ResolveEffectiveWorkTime(period, correctionsByPeriod[period.ID])
		if err != nil {
			return WorkSummary{}, err
		}
		if !r.Overlaps(effective.Range) {
			continue
		}
		overlap, err := r.Intersect(effective.Range)
		if err != nil {
			// Overlaps and Intersect agree on half-open semantics.
			if dErrors.HasCode(err, dErrors.CodeNoIntersection) {
				continue
			}
			return WorkSummary{}, err
		}
		totalMs += overlap.DurationMs()
	}
	return WorkSummary{TotalHours: float64(totalMs) / (1000 * 60 * 60)}, nil
}

// LeaveCountSummary counts leaves whose effective range intersects the query
// range.
type LeaveCountSummary struct {
	TotalLeaves int `json:"totalLeaves"`
}

func CalculateLeaveCount(
	r domain.TimeRange,
	leaves []*leavemodels.LeaveEvent,
	correctionsByLeave map[domain.LeaveID][]*leavemodels.LeaveCorrection,
) (LeaveCountSummary, error) {
	count := 0
	for _, leave := range leaves {
		effective, err := leavemodels.ResolveEffectiveLeaveTime(leave, correctionsByLeave[leave.ID])
		if err != nil {
			return LeaveCountSummary{}, err
		}
		if r.Overlaps(effective.Range) {
			count++
		}
	}
	return LeaveCountSummary{TotalLeaves: count}, nil
}

// ShiftTransferCountSummary counts transfers created inside [start, end).
type ShiftTransferCountSummary struct {
	TotalTransfers int `json:"totalTransfers"`
}

func CalculateTransferCount(r domain.TimeRange, events []*transfermodels.ShiftTransferEvent) ShiftTransferCountSummary {
	count := 0
	for _, event := range events {
		if !event.CreatedAt.Before(r.Start) && event.CreatedAt.Before(r.End) {
			count++
		}
	}
	return ShiftTransferCountSummary{TotalTransfers: count}
}

// AcceptedShiftCountSummary counts transfers where the driver is the target,
// created inside [start, end).
type AcceptedShiftCountSummary struct {
	AcceptedShifts int `json:"acceptedShifts"`
}

func CalculateAcceptedShiftCount(r domain.TimeRange, driverID domain.DriverID, events []*transfermodels.ShiftTransferEvent) AcceptedShiftCountSummary {
	count := 0
	for _, event := range events {
		if event.ToDriverID != driverID {
			continue
		}
		if !event.CreatedAt.Before(r.Start) && event.CreatedAt.Before(r.End) {
			count++
		}
	}
	return AcceptedShiftCountSummary{AcceptedShifts: count}
}
