// Package models holds the shift transfer audit fact. A transfer records
// provenance only - it never mutates the referenced work period's ownership
// or time fields.
package models

import (
	"time"

	"rosterd/pkg/domain"
	dErrors "rosterd/pkg/domain-errors"
)

// ShiftTransferEvent is an immutable audit fact that a shift changed hands.
type ShiftTransferEvent struct {
	ID           domain.ShiftTransferID
	WorkPeriodID domain.WorkPeriodID
	FromDriverID domain.DriverID
	ToDriverID   domain.DriverID
	Reason       string
	CreatedAt    time.Time
}

// NewShiftTransferEvent validates and constructs a transfer event. Every
// transfer has a known origin; self-transfers are rejected.
func NewShiftTransferEvent(
	id domain.ShiftTransferID,
	workPeriodID domain.WorkPeriodID,
	fromDriverID, toDriverID domain.DriverID,
	createdAt time.Time,
	reason string,
) (*ShiftTransferEvent, error) {
	if workPeriodID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidShiftTransfer, "work period must be specified")
	}
	if fromDriverID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidShiftTransfer, "origin driver must be specified")
	}
	if toDriverID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidShiftTransfer, "target driver must be specified")
	}
	if fromDriverID == toDriverID {
		return nil, dErrors.New(dErrors.CodeInvalidShiftTransfer, "cannot transfer a shift to the same driver")
	}
	if createdAt.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidShiftTransfer, "createdAt must be set")
	}
	return &ShiftTransferEvent{
		ID:           id,
		WorkPeriodID: workPeriodID,
		FromDriverID: fromDriverID,
		ToDriverID:   toDriverID,
		Reason:       reason,
		CreatedAt:    createdAt,
	}, nil
}
