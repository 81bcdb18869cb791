// Package store persists work periods and their correction logs.
//
// Error Contract:
// - Find methods return ErrNotFound when the requested entity does not exist
// - Save is create-or-transition only; there is no arbitrary update
// - Infrastructure failures are returned as wrapped errors
package store

import (
	"context"

	"rosterd/internal/work/models"
	"rosterd/pkg/domain"
	dErrors "rosterd/pkg/domain-errors"
)

// ErrNotFound keeps store-level 404s consistent across the in-memory and
// postgres implementations.
var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "record not found")

// OverlappingWork is one result of the effective-overlap query: a CLOSED
// period together with its resolved effective range.
type OverlappingWork struct {
	Period    *models.WorkPeriod
	Effective domain.TimeRange
}

// PeriodStore persists work periods.
type PeriodStore interface {
	// Save creates an OPEN period or transitions an existing one to CLOSED.
	Save(ctx context.Context, period *models.WorkPeriod) error
	FindByID(ctx context.Context, id domain.WorkPeriodID) (*models.WorkPeriod, error)
	FindOpenByDriver(ctx context.Context, driverID domain.DriverID) (*models.WorkPeriod, error)
	FindClosedByDriver(ctx context.Context, driverID domain.DriverID) ([]*models.WorkPeriod, error)
	FindByDriver(ctx context.Context, driverID domain.DriverID) ([]*models.WorkPeriod, error)

	// FindEffectiveOverlapping returns the CLOSED periods of the driver whose
	// effective range intersects the candidate, excluding excludeID. It runs
	// two phases: a cheap prefilter on declared times, then an authoritative
	// recheck on each candidate's effective range - the declared-time filter
	// can both over- and under-select relative to effective time.
	FindEffectiveOverlapping(ctx context.Context, driverID domain.DriverID, candidate domain.TimeRange, excludeID domain.WorkPeriodID) ([]OverlappingWork, error)
}

// CorrectionStore persists the append-only work correction log.
type CorrectionStore interface {
	Append(ctx context.Context, correction *models.WorkCorrection) error
	// FindByWorkPeriod returns corrections in insertion order.
	FindByWorkPeriod(ctx context.Context, periodID domain.WorkPeriodID) ([]*models.WorkCorrection, error)
	FindByWorkPeriods(ctx context.Context, periodIDs []domain.WorkPeriodID) (map[domain.WorkPeriodID][]*models.WorkCorrection, error)
}

// recheckEffective is the second phase of the overlap query, shared by both
// implementations: resolve each prefiltered period's effective range and keep
// only genuine intersections with the candidate.
func recheckEffective(
	periods []*models.WorkPeriod,
	correctionsByPeriod map[domain.WorkPeriodID][]*models.WorkCorrection,
	candidate domain.TimeRange,
	excludeID domain.WorkPeriodID,
) ([]OverlappingWork, error) {
	var hits []OverlappingWork
	for _, period := range periods {
		if period.ID == excludeID || !period.IsClosed() {
			continue
		}
		effective, err := models.ResolveEffectiveWorkTime(period, correctionsByPeriod[period.ID])
		if err != nil {
			return nil, err
		}
		if candidate.Overlaps(effective.Range) {
			hits = append(hits, OverlappingWork{Period: period, Effective: effective.Range})
		}
	}
	return hits, nil
}
