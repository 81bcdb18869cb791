// Package service answers the timeline read queries and rebuilds the
// projection from the source-of-truth tables.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	entriesmodels "rosterd/internal/entries/models"
	entriesstore "rosterd/internal/entries/store"
	leavemodels "rosterd/internal/leave/models"
	"rosterd/internal/uow"
	workmodels "rosterd/internal/work/models"
	"rosterd/pkg/domain"
	dErrors "rosterd/pkg/domain-errors"
)

// Service reads the entries projection.
type Service struct {
	uow    uow.UnitOfWork
	logger *slog.Logger
	now    func() time.Time
}

func NewService(u uow.UnitOfWork, logger *slog.Logger) *Service {
	return &Service{
		uow:    u,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// List returns the driver's timeline entries intersecting [from, to); zero
// bounds are unbounded.
func (s *Service) List(ctx context.Context, driverID domain.DriverID, from, to time.Time) ([]*entriesmodels.EntryRecord, error) {
	if !from.IsZero() && !to.IsZero() && !to.After(from) {
		return nil, dErrors.New(dErrors.CodeInvalidDateRange, "'from' must be before 'to'")
	}
	var out []*entriesmodels.EntryRecord
	err := s.uow.RunInTx(ctx, driverID.String(), func(ctx context.Context, stores uow.Stores) error {
		entries, err := stores.Entries.FindByDriver(ctx, driverID, from, to)
		if err != nil {
			return err
		}
		out = entries
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns one entry, provided it belongs to the driver.
func (s *Service) Get(ctx context.Context, driverID domain.DriverID, id domain.EntryID) (*entriesmodels.EntryRecord, error) {
	var out *entriesmodels.EntryRecord
	err := s.uow.RunInTx(ctx, driverID.String(), func(ctx context.Context, stores uow.Stores) error {
		entry, err := stores.Entries.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, entriesstore.ErrNotFound) {
				return entryNotFound(id)
			}
			return err
		}
		if entry.DriverID != driverID {
			return entryNotFound(id)
		}
		out = entry
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Rebuild drops and regenerates the driver's projection rows from the work
// and leave tables inside one transaction.
func (s *Service) Rebuild(ctx context.Context, driverID domain.DriverID) (int, error) {
	rebuilt := 0
	err := s.uow.RunInTx(ctx, driverID.String(), func(ctx context.Context, stores uow.Stores) error {
		if err := stores.Entries.DeleteByDriver(ctx, driverID); err != nil {
			return err
		}

		periods, err := stores.WorkPeriods.FindByDriver(ctx, driverID)
		if err != nil {
			return err
		}
		periodIDs := make([]domain.WorkPeriodID, 0, len(periods))
		for _, period := range periods {
			periodIDs = append(periodIDs, period.ID)
		}
		correctionsByPeriod, err := stores.WorkCorrections.FindByWorkPeriods(ctx, periodIDs)
		if err != nil {
			return err
		}
		for _, period := range periods {
			var entry *entriesmodels.EntryRecord
			if period.IsClosed() {
				effective, err := workmodels.ResolveEffectiveWorkTime(period, correctionsByPeriod[period.ID])
				if err != nil {
					return err
				}
				entry = entriesmodels.FromWork(domain.NewEntryID(), driverID, period.ID, effective.Range, s.now())
			} else {
				entry = entriesmodels.FromOpenWork(domain.NewEntryID(), driverID, period.ID, period.DeclaredStartTime, s.now())
			}
			if err := stores.Entries.Upsert(ctx, entry); err != nil {
				return err
			}
			rebuilt++
		}

		leaves, err := stores.Leaves.FindByDriver(ctx, driverID)
		if err != nil {
			return err
		}
		leaveIDs := make([]domain.LeaveID, 0, len(leaves))
		for _, leave := range leaves {
			leaveIDs = append(leaveIDs, leave.ID)
		}
		correctionsByLeave, err := stores.LeaveCorrections.FindByLeaves(ctx, leaveIDs)
		if err != nil {
			return err
		}
		for _, leave := range leaves {
			effective, err := leavemodels.ResolveEffectiveLeaveTime(leave, correctionsByLeave[leave.ID])
			if err != nil {
				return err
			}
			entry := entriesmodels.FromLeave(domain.NewEntryID(), driverID, leave.ID, effective.Range, leave.Reason, s.now())
			if err := stores.Entries.Upsert(ctx, entry); err != nil {
				return err
			}
			rebuilt++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.logger.InfoContext(ctx, "entries projection rebuilt",
		"driver_id", driverID.String(),
		"entries", rebuilt,
	)
	return rebuilt, nil
}

func entryNotFound(id domain.EntryID) error {
	return dErrors.NewWithDetails(dErrors.CodeNotFound,
		"entry not found",
		map[string]any{"entryId": id.String()})
}
