// Package models holds the driver identity record.
package models

import (
	"time"

	"rosterd/pkg/domain"
)

// Driver is one authenticated driver account. GoogleSubject is the stable
// Google account id the driver first signed in with.
type Driver struct {
	ID            domain.DriverID
	Email         string
	Name          string
	GoogleSubject string
	CreatedAt     time.Time
}
