// Package models defines the unified timeline entry projection. An entry is
// a denormalized view of one work period or leave event with its effective
// time resolved; the event and correction tables remain the source of truth.
package models

import (
	"time"

	"rosterd/pkg/domain"
)

type EntryType string

const (
	EntryTypeWork  EntryType = "WORK"
	EntryTypeLeave EntryType = "LEAVE"
)

type SourceType string

const (
	SourceWorkPeriod SourceType = "work_period"
	SourceLeaveEvent SourceType = "leave_event"
)

// EntryRecord is one row of the driver timeline. SourceID points back at the
// originating work period or leave event; (SourceType, SourceID) is unique.
// A zero EffectiveEndTime marks a still-open work period.
type EntryRecord struct {
	ID                 domain.EntryID
	DriverID           domain.DriverID
	Type               EntryType
	SourceType         SourceType
	SourceID           string
	EffectiveStartTime time.Time
	EffectiveEndTime   time.Time
	Reason             string
	UpdatedAt          time.Time
}

// IsOpenEnded reports whether the entry has no end time yet.
func (e *EntryRecord) IsOpenEnded() bool {
	return e.EffectiveEndTime.IsZero()
}

// FromWork builds the projection row for a closed, resolved work period.
func FromWork(id domain.EntryID, driverID domain.DriverID, workPeriodID domain.WorkPeriodID, effective domain.TimeRange, updatedAt time.Time) *EntryRecord {
	return &EntryRecord{
		ID:                 id,
		DriverID:           driverID,
		Type:               EntryTypeWork,
		SourceType:         SourceWorkPeriod,
		SourceID:           workPeriodID.String(),
		EffectiveStartTime: effective.Start,
		EffectiveEndTime:   effective.End,
		UpdatedAt:          updatedAt,
	}
}

// FromOpenWork builds the projection row for a period that has not closed yet.
func FromOpenWork(id domain.EntryID, driverID domain.DriverID, workPeriodID domain.WorkPeriodID, start, updatedAt time.Time) *EntryRecord {
	return &EntryRecord{
		ID:                 id,
		DriverID:           driverID,
		Type:               EntryTypeWork,
		SourceType:         SourceWorkPeriod,
		SourceID:           workPeriodID.String(),
		EffectiveStartTime: start,
		UpdatedAt:          updatedAt,
	}
}

// FromLeave builds the projection row for a resolved leave event.
func FromLeave(id domain.EntryID, driverID domain.DriverID, leaveID domain.LeaveID, effective domain.TimeRange, reason string, updatedAt time.Time) *EntryRecord {
	return &EntryRecord{
		ID:                 id,
		DriverID:           driverID,
		Type:               EntryTypeLeave,
		SourceType:         SourceLeaveEvent,
		SourceID:           leaveID.String(),
		EffectiveStartTime: effective.Start,
		EffectiveEndTime:   effective.End,
		Reason:             reason,
		UpdatedAt:          updatedAt,
	}
}
