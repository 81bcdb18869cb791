// Package store persists driver accounts.
package store

import (
	"context"

	"rosterd/internal/auth/models"
	"rosterd/pkg/domain"
	dErrors "rosterd/pkg/domain-errors"
)

var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "record not found")

type Store interface {
	Save(ctx context.Context, driver *models.Driver) error
	FindByID(ctx context.Context, id domain.DriverID) (*models.Driver, error)
	FindByEmail(ctx context.Context, email string) (*models.Driver, error)
	FindByGoogleSubject(ctx context.Context, subject string) (*models.Driver, error)
}
