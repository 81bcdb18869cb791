// Package store persists leave events and their correction logs.
//
// Error Contract:
// - Find methods return ErrNotFound when the requested entity does not exist
// - Save/Append are insert-only; leave facts are never updated in place
package store

import (
	"context"

	"rosterd/internal/leave/models"
	"rosterd/pkg/domain"
	dErrors "rosterd/pkg/domain-errors"
)

var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "record not found")

// EventStore persists leave events.
type EventStore interface {
	Save(ctx context.Context, leave *models.LeaveEvent) error
	FindByID(ctx context.Context, id domain.LeaveID) (*models.LeaveEvent, error)
	FindByDriver(ctx context.Context, driverID domain.DriverID) ([]*models.LeaveEvent, error)
}

// CorrectionStore persists the append-only leave correction log.
type CorrectionStore interface {
	Append(ctx context.Context, correction *models.LeaveCorrection) error
	// FindByLeave returns corrections in insertion order.
	FindByLeave(ctx context.Context, leaveID domain.LeaveID) ([]*models.LeaveCorrection, error)
	FindByLeaves(ctx context.Context, leaveIDs []domain.LeaveID) (map[domain.LeaveID][]*models.LeaveCorrection, error)
}
