package analytics

import (
	"sort"
	"time"

	"rosterd/pkg/domain"
)

// DayTotals is one UTC day's work and leave minute totals.
type DayTotals struct {
	Date         string  `json:"date"`
	WorkMinutes  float64 `json:"workMinutes"`
	LeaveMinutes float64 `json:"leaveMinutes"`
}

// DailySummary aggregates the per-day rows.
type DailySummary struct {
	TotalWorkMinutes  float64 `json:"totalWorkMinutes"`
	TotalLeaveMinutes float64 `json:"totalLeaveMinutes"`
	TotalDays         int     `json:"totalDays"`
}

// DailyReport is the daily analytics response: ascending per-day rows plus a
// totals summary. Only days with any allocated minutes appear.
type DailyReport struct {
	Days    []DayTotals  `json:"days"`
	Summary DailySummary `json:"summary"`
}

type dayBucket struct {
	workMinutes  float64
	leaveMinutes float64
}

// DailyBucketer allocates effective intervals to UTC day buckets, clipped to
// the [from, to) query window.
type DailyBucketer struct {
	from    time.Time
	to      time.Time
	buckets map[string]*dayBucket
}

func NewDailyBucketer(from, to time.Time) *DailyBucketer {
	return &DailyBucketer{from: from, to: to, buckets: make(map[string]*dayBucket)}
}

// AddWork allocates a work interval's minutes across its days.
func (b *DailyBucketer) AddWork(r domain.TimeRange) {
	b.allocate(r, func(bucket *dayBucket, minutes float64) { bucket.workMinutes += minutes })
}

// AddLeave allocates a leave interval's minutes across its days.
func (b *DailyBucketer) AddLeave(r domain.TimeRange) {
	b.allocate(r, func(bucket *dayBucket, minutes float64) { bucket.leaveMinutes += minutes })
}

func (b *DailyBucketer) allocate(r domain.TimeRange, add func(*dayBucket, float64)) {
	// Day boundaries are UTC days regardless of the inputs' locations.
	cursor := r.Start.UTC()
	if cursor.Before(b.from) {
		cursor = b.from.UTC()
	}
	hardEnd := r.End
	if hardEnd.After(b.to) {
		hardEnd = b.to
	}

	for cursor.Before(hardEnd) {
		dayStart := time.Date(cursor.Year(), cursor.Month(), cursor.Day(), 0, 0, 0, 0, time.UTC)
		nextDay := dayStart.AddDate(0, 0, 1)

		segmentEnd := nextDay
		if hardEnd.Before(nextDay) {
			segmentEnd = hardEnd
		}

		key := dayStart.Format("2006-01-02")
		bucket, ok := b.buckets[key]
		if !ok {
			bucket = &dayBucket{}
			b.buckets[key] = bucket
		}
		add(bucket, segmentEnd.Sub(cursor).Minutes())

		cursor = segmentEnd
	}
}

// Report returns the per-day rows sorted ascending by date plus totals.
func (b *DailyBucketer) Report() DailyReport {
	days := make([]DayTotals, 0, len(b.buckets))
	for key, bucket := range b.buckets {
		days = append(days, DayTotals{
			Date:         key,
			WorkMinutes:  bucket.workMinutes,
			LeaveMinutes: bucket.leaveMinutes,
		})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })

	var summary DailySummary
	for _, day := range days {
		summary.TotalWorkMinutes += day.WorkMinutes
		summary.TotalLeaveMinutes += day.LeaveMinutes
	}
	summary.TotalDays = len(days)

	return DailyReport{Days: days, Summary: summary}
}
