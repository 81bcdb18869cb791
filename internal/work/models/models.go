// Package models holds the work-period aggregate: the period itself, its
// append-only correction log, and the effective-time resolver.
package models

import (
	"time"

	"rosterd/pkg/domain"
	dErrors "rosterd/pkg/domain-errors"
)

// Status is the work period lifecycle state. A period is created OPEN and
// transitions to CLOSED exactly once; CLOSED is terminal.
type Status string

const (
	StatusOpen   Status = "OPEN"
	StatusClosed Status = "CLOSED"
)

// WorkPeriod is the aggregate root for one driver shift. DeclaredStartTime is
// immutable once set; DeclaredEndTime is nil while the period is OPEN. Declared
// fields never change after close - later adjustments are recorded as
// WorkCorrection facts.
type WorkPeriod struct {
	ID                domain.WorkPeriodID
	DriverID          domain.DriverID
	DeclaredStartTime time.Time
	DeclaredEndTime   *time.Time
	Status            Status
	CreatedAt         time.Time
}

// StartWorkPeriod creates a new OPEN period.
func StartWorkPeriod(id domain.WorkPeriodID, driverID domain.DriverID, startTime, createdAt time.Time) (*WorkPeriod, error) {
	if startTime.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidTimeRange, "start time must be set")
	}
	return &WorkPeriod{
		ID:                id,
		DriverID:          driverID,
		DeclaredStartTime: startTime,
		Status:            StatusOpen,
		CreatedAt:         createdAt,
	}, nil
}

func (w *WorkPeriod) IsOpen() bool   { return w.Status == StatusOpen }
func (w *WorkPeriod) IsClosed() bool { return w.Status == StatusClosed }

// Close transitions the period OPEN -> CLOSED. The end time must be strictly
// after the declared start.
func (w *WorkPeriod) Close(endTime time.Time) error {
	if w.IsClosed() {
		return dErrors.New(dErrors.CodeWorkPeriodClosed, "work period is already closed")
	}
	if _, err := domain.NewTimeRange(w.DeclaredStartTime, endTime); err != nil {
		return err
	}
	w.DeclaredEndTime = &endTime
	w.Status = StatusClosed
	return nil
}

// DeclaredRange returns the declared interval of a CLOSED period.
func (w *WorkPeriod) DeclaredRange() (domain.TimeRange, error) {
	if !w.IsClosed() {
		return domain.TimeRange{}, dErrors.New(dErrors.CodeWorkPeriodNotClosed,
			"open work period has no declared end time")
	}
	return domain.NewTimeRange(w.DeclaredStartTime, *w.DeclaredEndTime)
}

// WorkCorrection is an immutable, append-only fact adjusting the effective
// interval of a CLOSED work period. Corrections are never edited or deleted.
type WorkCorrection struct {
	ID                 domain.WorkCorrectionID
	WorkPeriodID       domain.WorkPeriodID
	CorrectedStartTime time.Time
	CorrectedEndTime   time.Time
	Reason             string
	CreatedAt          time.Time
}

// NewWorkCorrection validates and constructs a correction for the given
// period. The period must already be CLOSED.
func NewWorkCorrection(
	id domain.WorkCorrectionID,
	period *WorkPeriod,
	correctedStart, correctedEnd time.Time,
	createdAt time.Time,
	reason string,
) (*WorkCorrection, error) {
	if !period.IsClosed() {
		return nil, dErrors.New(dErrors.CodeWorkNotClosed,
			"work period must be closed before correction")
	}
	if _, err := domain.NewTimeRange(correctedStart, correctedEnd); err != nil {
		return nil, err
	}
	return &WorkCorrection{
		ID:                 id,
		WorkPeriodID:       period.ID,
		CorrectedStartTime: correctedStart,
		CorrectedEndTime:   correctedEnd,
		Reason:             reason,
		CreatedAt:          createdAt,
	}, nil
}

// Range returns the corrected interval.
func (c *WorkCorrection) Range() domain.TimeRange {
	return domain.TimeRange{Start: c.CorrectedStartTime, End: c.CorrectedEndTime}
}

// EffectiveWorkTime is the authoritative interval of a work period after
// resolving its correction log. It is derived, never persisted.
type EffectiveWorkTime struct {
	Range domain.TimeRange
}

// ResolveEffectiveWorkTime computes the effective interval of a CLOSED period
// from its declared interval and full correction list (any order). The latest
// correction by CreatedAt wins; when two corrections share a CreatedAt, the
// one appended later wins (stores return corrections in insertion order).
//
// Corrections belonging to a different period are a hard error - callers must
// only pass the period's own log.
func ResolveEffectiveWorkTime(period *WorkPeriod, corrections []*WorkCorrection) (EffectiveWorkTime, error) {
	if !period.IsClosed() {
		return EffectiveWorkTime{}, dErrors.NewWithDetails(dErrors.CodeWorkPeriodNotClosed,
			"effective work time can only be computed for closed work periods",
			map[string]any{"workPeriodId": period.ID.String()})
	}

	latest, err := latestCorrection(period.ID, corrections)
	if err != nil {
		return EffectiveWorkTime{}, err
	}

	start, end := period.DeclaredStartTime, *period.DeclaredEndTime
	if latest != nil {
		start, end = latest.CorrectedStartTime, latest.CorrectedEndTime
	}
	r, err := domain.NewTimeRange(start, end)
	if err != nil {
		return EffectiveWorkTime{}, err
	}
	return EffectiveWorkTime{Range: r}, nil
}

// ClosingWorkTime builds the candidate interval for a period being closed.
// Used only for validation during close - the period is still OPEN here.
func ClosingWorkTime(period *WorkPeriod, endTime time.Time) (EffectiveWorkTime, error) {
	r, err := domain.NewTimeRange(period.DeclaredStartTime, endTime)
	if err != nil {
		return EffectiveWorkTime{}, err
	}
	return EffectiveWorkTime{Range: r}, nil
}

func latestCorrection(periodID domain.WorkPeriodID, corrections []*WorkCorrection) (*WorkCorrection, error) {
	var latest *WorkCorrection
	for _, c := range corrections {
		if c.WorkPeriodID != periodID {
			return nil, dErrors.NewWithDetails(dErrors.CodeInvalidCorrectionsProvided,
				"corrections do not belong to the work period",
				map[string]any{
					"workPeriodId":        periodID.String(),
					"foreignCorrectionId": c.ID.String(),
				})
		}
		// >= keeps the later-appended correction on CreatedAt ties.
		if latest == nil || !c.CreatedAt.Before(latest.CreatedAt) {
			latest = c
		}
	}
	return latest, nil
}

func (e EffectiveWorkTime) DurationHours() float64 {
	return e.Range.DurationHours()
}
