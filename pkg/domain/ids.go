// Package domain provides the shared value types of the rostering domain:
// type-safe identifiers and the TimeRange interval type.
package domain

import (
	"github.com/google/uuid"

	dErrors "rosterd/pkg/domain-errors"
)

// Distinct ID types - the compiler prevents passing a DriverID where a
// WorkPeriodID is expected.
type (
	DriverID           uuid.UUID
	WorkPeriodID       uuid.UUID
	WorkCorrectionID   uuid.UUID
	LeaveID            uuid.UUID
	LeaveCorrectionID  uuid.UUID
	ShiftTransferID    uuid.UUID
	EntryID            uuid.UUID
)

// Parse functions - use at trust boundaries (handlers, API inputs).

func ParseDriverID(s string) (DriverID, error) {
	id, err := parseUUID(s, "driver ID")
	return DriverID(id), err
}

func ParseWorkPeriodID(s string) (WorkPeriodID, error) {
	id, err := parseUUID(s, "work period ID")
	return WorkPeriodID(id), err
}

func ParseWorkCorrectionID(s string) (WorkCorrectionID, error) {
	id, err := parseUUID(s, "work correction ID")
	return WorkCorrectionID(id), err
}

func ParseLeaveID(s string) (LeaveID, error) {
	id, err := parseUUID(s, "leave ID")
	return LeaveID(id), err
}

func ParseLeaveCorrectionID(s string) (LeaveCorrectionID, error) {
	id, err := parseUUID(s, "leave correction ID")
	return LeaveCorrectionID(id), err
}

func ParseShiftTransferID(s string) (ShiftTransferID, error) {
	id, err := parseUUID(s, "shift transfer ID")
	return ShiftTransferID(id), err
}

func ParseEntryID(s string) (EntryID, error) {
	id, err := parseUUID(s, "entry ID")
	return EntryID(id), err
}

func parseUUID(s, what string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, "invalid "+what)
	}
	return id, nil
}

// String methods - for logging and error details.

func (id DriverID) String() string          { return uuid.UUID(id).String() }
func (id WorkPeriodID) String() string      { return uuid.UUID(id).String() }
func (id WorkCorrectionID) String() string  { return uuid.UUID(id).String() }
func (id LeaveID) String() string           { return uuid.UUID(id).String() }
func (id LeaveCorrectionID) String() string { return uuid.UUID(id).String() }
func (id ShiftTransferID) String() string   { return uuid.UUID(id).String() }
func (id EntryID) String() string           { return uuid.UUID(id).String() }

// IsNil checks - used for service-layer validation.

func (id DriverID) IsNil() bool          { return uuid.UUID(id) == uuid.Nil }
func (id WorkPeriodID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id WorkCorrectionID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id LeaveID) IsNil() bool           { return uuid.UUID(id) == uuid.Nil }
func (id LeaveCorrectionID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id ShiftTransferID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id EntryID) IsNil() bool           { return uuid.UUID(id) == uuid.Nil }

// New constructors - for tests and command handlers that mint ids server-side.

func NewDriverID() DriverID                   { return DriverID(uuid.New()) }
func NewWorkPeriodID() WorkPeriodID           { return WorkPeriodID(uuid.New()) }
func NewWorkCorrectionID() WorkCorrectionID   { return WorkCorrectionID(uuid.New()) }
func NewLeaveID() LeaveID                     { return LeaveID(uuid.New()) }
func NewLeaveCorrectionID() LeaveCorrectionID { return LeaveCorrectionID(uuid.New()) }
func NewShiftTransferID() ShiftTransferID     { return ShiftTransferID(uuid.New()) }
func NewEntryID() EntryID                     { return EntryID(uuid.New()) }
