package domain

import (
	"fmt"
	"time"

	dErrors "rosterd/pkg/domain-errors"
)

// TimeRange is a half-open interval [Start, End). End must be strictly after
// Start; zero-length ranges are rejected at construction. Values are immutable
// and constructed fresh on every computation.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// NewTimeRange validates and constructs a TimeRange.
func NewTimeRange(start, end time.Time) (TimeRange, error) {
	if start.IsZero() {
		return TimeRange{}, dErrors.New(dErrors.CodeInvalidTimeRange, "start time must be set")
	}
	if end.IsZero() {
		return TimeRange{}, dErrors.New(dErrors.CodeInvalidTimeRange, "end time must be set")
	}
	if !end.After(start) {
		return TimeRange{}, dErrors.NewWithDetails(dErrors.CodeInvalidTimeRange,
			"end time must be after start time",
			map[string]any{
				"start": start.Format(time.RFC3339Nano),
				"end":   end.Format(time.RFC3339Nano),
			})
	}
	return TimeRange{Start: start, End: end}, nil
}

// Overlaps reports whether two half-open intervals intersect. A range ending
// exactly when another starts does not overlap.
func (r TimeRange) Overlaps(other TimeRange) bool {
	return r.Start.Before(other.End) && other.Start.Before(r.End)
}

// Intersect returns the overlapping part of two ranges.
func (r TimeRange) Intersect(other TimeRange) (TimeRange, error) {
	if !r.Overlaps(other) {
		return TimeRange{}, dErrors.New(dErrors.CodeNoIntersection, "ranges do not overlap")
	}
	start := r.Start
	if other.Start.After(start) {
		start = other.Start
	}
	end := r.End
	if other.End.Before(end) {
		end = other.End
	}
	return TimeRange{Start: start, End: end}, nil
}

// Contains reports whether t falls inside the half-open interval.
func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

func (r TimeRange) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

func (r TimeRange) DurationMs() int64 {
	return r.Duration().Milliseconds()
}

func (r TimeRange) DurationMinutes() float64 {
	return r.Duration().Minutes()
}

func (r TimeRange) DurationHours() float64 {
	return r.Duration().Hours()
}

func (r TimeRange) String() string {
	return fmt.Sprintf("[%s, %s)", r.Start.Format(time.RFC3339), r.End.Format(time.RFC3339))
}
