// Package store persists the timeline entry projection.
package store

import (
	"context"
	"time"

	"rosterd/internal/entries/models"
	"rosterd/pkg/domain"
	dErrors "rosterd/pkg/domain-errors"
)

var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "record not found")

// Store is keyed on (SourceType, SourceID): Upsert replaces the row for a
// source when a correction moves its effective time.
type Store interface {
	Upsert(ctx context.Context, entry *models.EntryRecord) error
	FindByID(ctx context.Context, id domain.EntryID) (*models.EntryRecord, error)
	// FindByDriver returns entries whose effective range intersects [from, to),
	// ordered by effective start time. Zero from/to means unbounded on that side.
	FindByDriver(ctx context.Context, driverID domain.DriverID, from, to time.Time) ([]*models.EntryRecord, error)
	// DeleteByDriver clears a driver's projection rows ahead of a rebuild.
	DeleteByDriver(ctx context.Context, driverID domain.DriverID) error
}
