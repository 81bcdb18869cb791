// Package store persists shift transfer events. Transfers are append-only.
package store

import (
	"context"
	"time"

	"rosterd/internal/transfer/models"
	"rosterd/pkg/domain"
	dErrors "rosterd/pkg/domain-errors"
)

var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "record not found")

type Store interface {
	Save(ctx context.Context, event *models.ShiftTransferEvent) error
	// FindByDriver returns transfers where the driver is origin or target.
	FindByDriver(ctx context.Context, driverID domain.DriverID) ([]*models.ShiftTransferEvent, error)
	// FindCreatedBetween returns transfers with CreatedAt in [from, to).
	FindCreatedBetween(ctx context.Context, driverID domain.DriverID, from, to time.Time) ([]*models.ShiftTransferEvent, error)
}
