// Package models holds the leave aggregate: the leave event, its append-only
// correction log, and the effective-time resolver. A leave has no OPEN/CLOSED
// state machine - it is a single declared interval from creation.
package models

import (
	"time"

	"rosterd/pkg/domain"
	dErrors "rosterd/pkg/domain-errors"
)

// LeaveEvent records one declared leave interval for a driver.
type LeaveEvent struct {
	ID                domain.LeaveID
	DriverID          domain.DriverID
	DeclaredStartTime time.Time
	DeclaredEndTime   time.Time
	Reason            string
	CreatedAt         time.Time
}

// NewLeaveEvent validates and constructs a leave event.
func NewLeaveEvent(
	id domain.LeaveID,
	driverID domain.DriverID,
	startTime, endTime time.Time,
	createdAt time.Time,
	reason string,
) (*LeaveEvent, error) {
	if _, err := domain.NewTimeRange(startTime, endTime); err != nil {
		return nil, err
	}
	return &LeaveEvent{
		ID:                id,
		DriverID:          driverID,
		DeclaredStartTime: startTime,
		DeclaredEndTime:   endTime,
		Reason:            reason,
		CreatedAt:         createdAt,
	}, nil
}

// DeclaredRange returns the originally declared interval.
func (l *LeaveEvent) DeclaredRange() domain.TimeRange {
	return domain.TimeRange{Start: l.DeclaredStartTime, End: l.DeclaredEndTime}
}

// LeaveCorrection is an immutable, append-only fact adjusting the effective
// interval of a leave event.
type LeaveCorrection struct {
	ID                 domain.LeaveCorrectionID
	LeaveID            domain.LeaveID
	CorrectedStartTime time.Time
	CorrectedEndTime   time.Time
	Reason             string
	CreatedAt          time.Time
}

// NewLeaveCorrection validates and constructs a correction for the given leave.
func NewLeaveCorrection(
	id domain.LeaveCorrectionID,
	leave *LeaveEvent,
	correctedStart, correctedEnd time.Time,
	createdAt time.Time,
	reason string,
) (*LeaveCorrection, error) {
	if _, err := domain.NewTimeRange(correctedStart, correctedEnd); err != nil {
		return nil, err
	}
	return &LeaveCorrection{
		ID:                 id,
		LeaveID:            leave.ID,
		CorrectedStartTime: correctedStart,
		CorrectedEndTime:   correctedEnd,
		Reason:             reason,
		CreatedAt:          createdAt,
	}, nil
}

// Range returns the corrected interval.
func (c *LeaveCorrection) Range() domain.TimeRange {
	return domain.TimeRange{Start: c.CorrectedStartTime, End: c.CorrectedEndTime}
}

// EffectiveLeaveTime is the authoritative interval of a leave after resolving
// its correction log. Derived, never persisted.
type EffectiveLeaveTime struct {
	Range domain.TimeRange
}

// ResolveEffectiveLeaveTime computes the effective interval from the declared
// interval and the full correction list (any order). Latest CreatedAt wins;
// ties go to the correction appended later. Corrections belonging to another
// leave are a hard error.
func ResolveEffectiveLeaveTime(leave *LeaveEvent, corrections []*LeaveCorrection) (EffectiveLeaveTime, error) {
	var latest *LeaveCorrection
	for _, c := range corrections {
		if c.LeaveID != leave.ID {
			return EffectiveLeaveTime{}, dErrors.NewWithDetails(dErrors.CodeInvalidCorrectionsProvided,
				"corrections do not belong to the leave event",
				map[string]any{
					"leaveId":             leave.ID.String(),
					"foreignCorrectionId": c.ID.String(),
				})
		}
		if latest == nil || !c.CreatedAt.Before(latest.CreatedAt) {
			latest = c
		}
	}

	start, end := leave.DeclaredStartTime, leave.DeclaredEndTime
	if latest != nil {
		start, end = latest.CorrectedStartTime, latest.CorrectedEndTime
	}
	r, err := domain.NewTimeRange(start, end)
	if err != nil {
		return EffectiveLeaveTime{}, err
	}
	return EffectiveLeaveTime{Range: r}, nil
}

func (e EffectiveLeaveTime) DurationHours() float64 {
	return e.Range.DurationHours()
}
