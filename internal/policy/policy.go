// Package policy holds the stateless cross-aggregate invariant checks. Each
// policy takes already-resolved effective ranges and is invoked by the
// orchestrating workflow, keeping the work and leave lifecycles untangled.
package policy

import (
	"fmt"
	"time"

	"rosterd/pkg/domain"
	dErrors "rosterd/pkg/domain-errors"
)

// DefaultMaxShiftHours is the hours-of-service ceiling for a single shift.
const DefaultMaxShiftHours = 14

// MaxShiftDurationPolicy rejects candidate work ranges longer than the
// configured ceiling. It is a gate on not-yet-committed ranges, never a
// post-hoc auditor of persisted ones.
type MaxShiftDurationPolicy struct {
	MaxHours float64
}

func NewMaxShiftDurationPolicy(maxHours float64) MaxShiftDurationPolicy {
	if maxHours <= 0 {
		maxHours = DefaultMaxShiftHours
	}
	return MaxShiftDurationPolicy{MaxHours: maxHours}
}

// Validate fails when the candidate range exceeds the ceiling. A range of
// exactly MaxHours passes.
func (p MaxShiftDurationPolicy) Validate(r domain.TimeRange) error {
	hours := r.DurationHours()
	if hours > p.MaxHours {
		return dErrors.NewWithDetails(dErrors.CodeShiftTooLong,
			fmt.Sprintf("shift duration %.1fh exceeds policy maximum of %.0fh", hours, p.MaxHours),
			map[string]any{
				"actualHours": hours,
				"maxHours":    p.MaxHours,
				"start":       r.Start.Format(time.RFC3339Nano),
				"end":         r.End.Format(time.RFC3339Nano),
			})
	}
	return nil
}

// LeaveRange pairs a leave id with its effective range for overlap checks.
type LeaveRange struct {
	ID    domain.LeaveID
	Range domain.TimeRange
}

// WorkRange pairs a work period id with its effective range for overlap checks.
type WorkRange struct {
	ID    domain.WorkPeriodID
	Range domain.TimeRange
}

// AssertWorkOverlapsNoLeave fails on the first leave whose effective range
// intersects the work's effective range. Used when the mutation originates on
// the work side.
func AssertWorkOverlapsNoLeave(work domain.TimeRange, leaves []LeaveRange) error {
	for _, leave := range leaves {
		if work.Overlaps(leave.Range) {
			return dErrors.NewWithDetails(dErrors.CodeWorkOverlapsLeave,
				"work time overlaps with recorded leave time",
				map[string]any{
					"leaveId":    leave.ID.String(),
					"workStart":  work.Start.Format(time.RFC3339Nano),
					"workEnd":    work.End.Format(time.RFC3339Nano),
					"leaveStart": leave.Range.Start.Format(time.RFC3339Nano),
					"leaveEnd":   leave.Range.End.Format(time.RFC3339Nano),
				})
		}
	}
	return nil
}

// AssertLeaveOverlapsNoWork checks a candidate leave range against every
// closed work period's effective range. All conflicting periods are reported
// in the error details, not just the first.
func AssertLeaveOverlapsNoWork(leave domain.TimeRange, works []WorkRange) error {
	var conflicting []string
	for _, work := range works {
		if leave.Overlaps(work.Range) {
			conflicting = append(conflicting, work.ID.String())
		}
	}
	if len(conflicting) > 0 {
		return dErrors.NewWithDetails(dErrors.CodeLeaveOverlapsWork,
			fmt.Sprintf("leave time overlaps %d work period(s)", len(conflicting)),
			map[string]any{
				"overlappingWorkIds": conflicting,
				"leaveStart":         leave.Start.Format(time.RFC3339Nano),
				"leaveEnd":           leave.End.Format(time.RFC3339Nano),
			})
	}
	return nil
}

// NewWorkOverlapError builds the rejection for a candidate work range that
// collides with other closed periods. The code distinguishes a close-time
// self-conflict from a correction-induced one.
func NewWorkOverlapError(code dErrors.Code, candidate domain.TimeRange, works []WorkRange) error {
	ids := make([]string, 0, len(works))
	for _, w := range works {
		ids = append(ids, w.ID.String())
	}
	return dErrors.NewWithDetails(code,
		fmt.Sprintf("work time overlaps %d prior period(s)", len(works)),
		map[string]any{
			"overlappingWorkIds": ids,
			"candidateStart":     candidate.Start.Format(time.RFC3339Nano),
			"candidateEnd":       candidate.End.Format(time.RFC3339Nano),
		})
}

// MaxAnalyticsRangePolicy caps the span of read-side queries.
type MaxAnalyticsRangePolicy struct {
	MaxDays int
}

func NewMaxAnalyticsRangePolicy(maxDays int) MaxAnalyticsRangePolicy {
	if maxDays <= 0 {
		maxDays = 90
	}
	return MaxAnalyticsRangePolicy{MaxDays: maxDays}
}

// AssertWithinLimit validates the [from, to) query window.
func (p MaxAnalyticsRangePolicy) AssertWithinLimit(from, to time.Time) error {
	if !to.After(from) {
		return dErrors.New(dErrors.CodeInvalidDateRange, "'from' must be before 'to'")
	}
	days := to.Sub(from).Hours() / 24
	if days > float64(p.MaxDays) {
		return dErrors.NewWithDetails(dErrors.CodeDateRangeTooLarge,
			fmt.Sprintf("maximum allowed range is %d days", p.MaxDays),
			map[string]any{"maxDays": p.MaxDays})
	}
	return nil
}
