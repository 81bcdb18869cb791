// Package service orchestrates the work-period command workflows. Every
// command's reads, invariant checks and writes run inside one unit of work;
// any failed check aborts with no partial writes.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"rosterd/internal/audit"
	entriesmodels "rosterd/internal/entries/models"
	leavemodels "rosterd/internal/leave/models"
	"rosterd/internal/platform/metrics"
	"rosterd/internal/platform/tracing"
	"rosterd/internal/policy"
	"rosterd/internal/uow"
	"rosterd/internal/work/models"
	workstore "rosterd/internal/work/store"
	"rosterd/pkg/domain"
	dErrors "rosterd/pkg/domain-errors"
)

// Auditor receives audit events for accepted commands.
type Auditor interface {
	Emit(event audit.Event)
}

// CacheInvalidator drops cached read-side results for a driver after a
// successful mutation.
type CacheInvalidator interface {
	InvalidateDriver(ctx context.Context, driverID string)
}

// Service runs the StartWork, CloseWork and CorrectWork workflows.
type Service struct {
	uow      uow.UnitOfWork
	maxShift policy.MaxShiftDurationPolicy
	logger   *slog.Logger
	metrics  *metrics.Metrics
	auditor  Auditor
	cache    CacheInvalidator
	now      func() time.Time
}

type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithAuditor attaches an audit event publisher.
func WithAuditor(a Auditor) Option {
	return func(s *Service) { s.auditor = a }
}

// WithCacheInvalidator attaches a read-side cache to invalidate on mutation.
func WithCacheInvalidator(c CacheInvalidator) Option {
	return func(s *Service) { s.cache = c }
}

func NewService(u uow.UnitOfWork, maxShift policy.MaxShiftDurationPolicy, logger *slog.Logger, m *metrics.Metrics, opts ...Option) *Service {
	s := &Service{
		uow:      u,
		maxShift: maxShift,
		logger:   logger,
		metrics:  m,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartWork opens a new work period. Resubmitting an already-known period id
// is idempotent: the existing period is returned unchanged, provided it
// belongs to the same driver.
func (s *Service) StartWork(ctx context.Context, driverID domain.DriverID, workPeriodID domain.WorkPeriodID, startTime time.Time) (domain.WorkPeriodID, error) {
	ctx, span := tracing.Tracer().Start(ctx, "work.start")
	defer span.End()

	resultID := workPeriodID
	err := s.uow.RunInTx(ctx, driverID.String(), func(ctx context.Context, stores uow.Stores) error {
		existing, err := stores.WorkPeriods.FindByID(ctx, workPeriodID)
		if err == nil {
			if existing.DriverID != driverID {
				return dErrors.NewWithDetails(dErrors.CodeWorkPeriodUnauthorized,
					"work period belongs to another driver",
					map[string]any{"workPeriodId": workPeriodID.String()})
			}
			resultID = existing.ID
			return nil
		}
		if !errors.Is(err, workstore.ErrNotFound) {
			return err
		}

		open, err := stores.WorkPeriods.FindOpenByDriver(ctx, driverID)
		if err == nil {
			return dErrors.NewWithDetails(dErrors.CodeActiveWorkPeriodExists,
				"driver already has an active work period",
				map[string]any{"openWorkPeriodId": open.ID.String()})
		}
		if !errors.Is(err, workstore.ErrNotFound) {
			return err
		}

		period, err := models.StartWorkPeriod(workPeriodID, driverID, startTime, s.now())
		if err != nil {
			return err
		}
		if err := stores.WorkPeriods.Save(ctx, period); err != nil {
			return err
		}
		entry := entriesmodels.FromOpenWork(domain.NewEntryID(), driverID, period.ID, period.DeclaredStartTime, s.now())
		if err := stores.Entries.Upsert(ctx, entry); err != nil {
			return err
		}
		s.metrics.ProjectionWrite()
		return nil
	})
	if err != nil {
		s.reject(ctx, "work.start", driverID, err)
		return domain.WorkPeriodID{}, err
	}

	s.accept(ctx, "work.start", driverID, audit.NewEvent(driverID.String(), audit.ActionWorkStarted, resultID.String(), map[string]any{
		"startTime": startTime.Format(time.RFC3339Nano),
	}))
	return resultID, nil
}

// CloseWork transitions the driver's OPEN period to CLOSED after the full
// invariant gauntlet: range validity, maximum shift duration, no overlap with
// effective leave, no overlap with other closed periods' effective time.
func (s *Service) CloseWork(ctx context.Context, driverID domain.DriverID, endTime time.Time) (*models.WorkPeriod, error) {
	ctx, span := tracing.Tracer().Start(ctx, "work.close")
	defer span.End()

	var closed *models.WorkPeriod
	err := s.uow.RunInTx(ctx, driverID.String(), func(ctx context.Context, stores uow.Stores) error {
		open, err := stores.WorkPeriods.FindOpenByDriver(ctx, driverID)
		if err != nil {
			if errors.Is(err, workstore.ErrNotFound) {
				return dErrors.New(dErrors.CodeNoActiveWorkPeriod, "no active work period to close")
			}
			return err
		}

		candidate, err := models.ClosingWorkTime(open, endTime)
		if err != nil {
			return err
		}
		if err := s.maxShift.Validate(candidate.Range); err != nil {
			return err
		}

		leaves, err := effectiveLeaveRanges(ctx, stores, driverID)
		if err != nil {
			return err
		}
		if err := policy.AssertWorkOverlapsNoLeave(candidate.Range, leaves); err != nil {
			return err
		}

		overlapping, err := stores.WorkPeriods.FindEffectiveOverlapping(ctx, driverID, candidate.Range, domain.WorkPeriodID{})
		if err != nil {
			return err
		}
		if len(overlapping) > 0 {
			return policy.NewWorkOverlapError(dErrors.CodeWorkOverlapsWork, candidate.Range, workRanges(overlapping))
		}

		if err := open.Close(endTime); err != nil {
			return err
		}
		if err := stores.WorkPeriods.Save(ctx, open); err != nil {
			return err
		}
		entry := entriesmodels.FromWork(domain.NewEntryID(), driverID, open.ID, candidate.Range, s.now())
		if err := stores.Entries.Upsert(ctx, entry); err != nil {
			return err
		}
		s.metrics.ProjectionWrite()
		closed = open
		return nil
	})
	if err != nil {
		s.reject(ctx, "work.close", driverID, err)
		return nil, err
	}

	s.accept(ctx, "work.close", driverID, audit.NewEvent(driverID.String(), audit.ActionWorkClosed, closed.ID.String(), map[string]any{
		"endTime": endTime.Format(time.RFC3339Nano),
	}))
	return closed, nil
}

// CorrectWork appends a correction to a CLOSED period. The corrected range is
// the candidate: it must pass the duration ceiling, must not collide with any
// other closed period's effective time, and the prospective effective time
// must not overlap the driver's effective leave.
func (s *Service) CorrectWork(
	ctx context.Context,
	driverID domain.DriverID,
	workPeriodID domain.WorkPeriodID,
	correctionID domain.WorkCorrectionID,
	correctedStart, correctedEnd time.Time,
	reason string,
) (*models.WorkCorrection, error) {
	ctx, span := tracing.Tracer().Start(ctx, "work.correct")
	defer span.End()

	var appended *models.WorkCorrection
	err := s.uow.RunInTx(ctx, driverID.String(), func(ctx context.Context, stores uow.Stores) error {
		period, err := stores.WorkPeriods.FindByID(ctx, workPeriodID)
		if err != nil {
			if errors.Is(err, workstore.ErrNotFound) {
				return workPeriodNotFound(workPeriodID)
			}
			return err
		}
		if period.DriverID != driverID {
			return workPeriodNotFound(workPeriodID)
		}

		correction, err := models.NewWorkCorrection(correctionID, period, correctedStart, correctedEnd, s.now(), reason)
		if err != nil {
			return err
		}
		candidate := correction.Range()
		if err := s.maxShift.Validate(candidate); err != nil {
			return err
		}

		overlapping, err := stores.WorkPeriods.FindEffectiveOverlapping(ctx, driverID, candidate, workPeriodID)
		if err != nil {
			return err
		}
		if len(overlapping) > 0 {
			return policy.NewWorkOverlapError(dErrors.CodeWorkOverlapsExistingWork, candidate, workRanges(overlapping))
		}

		prior, err := stores.WorkCorrections.FindByWorkPeriod(ctx, workPeriodID)
		if err != nil {
			return err
		}
		prospective, err := models.ResolveEffectiveWorkTime(period, append(prior, correction))
		if err != nil {
			return err
		}
		leaves, err := effectiveLeaveRanges(ctx, stores, driverID)
		if err != nil {
			return err
		}
		if err := policy.AssertWorkOverlapsNoLeave(prospective.Range, leaves); err != nil {
			return err
		}

		if err := stores.WorkCorrections.Append(ctx, correction); err != nil {
			return err
		}
		entry := entriesmodels.FromWork(domain.NewEntryID(), driverID, period.ID, prospective.Range, s.now())
		if err := stores.Entries.Upsert(ctx, entry); err != nil {
			return err
		}
		s.metrics.ProjectionWrite()
		appended = correction
		return nil
	})
	if err != nil {
		s.reject(ctx, "work.correct", driverID, err)
		return nil, err
	}

	s.accept(ctx, "work.correct", driverID, audit.NewEvent(driverID.String(), audit.ActionWorkCorrected, workPeriodID.String(), map[string]any{
		"correctionId":   appended.ID.String(),
		"correctedStart": correctedStart.Format(time.RFC3339Nano),
		"correctedEnd":   correctedEnd.Format(time.RFC3339Nano),
	}))
	return appended, nil
}

// WorkStatus describes the driver's current work state.
type WorkStatus struct {
	HasOpenPeriod bool
	Period        *models.WorkPeriod
}

// GetWorkStatus reports whether the driver has an OPEN period right now.
func (s *Service) GetWorkStatus(ctx context.Context, driverID domain.DriverID) (WorkStatus, error) {
	var status WorkStatus
	err := s.uow.RunInTx(ctx, driverID.String(), func(ctx context.Context, stores uow.Stores) error {
		open, err := stores.WorkPeriods.FindOpenByDriver(ctx, driverID)
		if err != nil {
			if errors.Is(err, workstore.ErrNotFound) {
				return nil
			}
			return err
		}
		status = WorkStatus{HasOpenPeriod: true, Period: open}
		return nil
	})
	if err != nil {
		return WorkStatus{}, err
	}
	return status, nil
}

func (s *Service) accept(ctx context.Context, command string, driverID domain.DriverID, event audit.Event) {
	s.metrics.CommandAccepted(command)
	if s.auditor != nil {
		s.auditor.Emit(event)
	}
	if s.cache != nil {
		s.cache.InvalidateDriver(ctx, driverID.String())
	}
	s.logger.InfoContext(ctx, "command accepted", "command", command, "driver_id", driverID.String())
}

func (s *Service) reject(ctx context.Context, command string, driverID domain.DriverID, err error) {
	var dErr *dErrors.Error
	if errors.As(err, &dErr) {
		s.metrics.CommandRejected(command, string(dErr.Code))
		s.logger.WarnContext(ctx, "command rejected",
			"command", command,
			"driver_id", driverID.String(),
			"code", string(dErr.Code),
		)
		return
	}
	s.logger.ErrorContext(ctx, "command failed",
		"command", command,
		"driver_id", driverID.String(),
		"error", err,
	)
}

func workPeriodNotFound(id domain.WorkPeriodID) error {
	return dErrors.NewWithDetails(dErrors.CodeWorkPeriodNotFound,
		"work period not found",
		map[string]any{"workPeriodId": id.String()})
}

func workRanges(hits []workstore.OverlappingWork) []policy.WorkRange {
	out := make([]policy.WorkRange, 0, len(hits))
	for _, hit := range hits {
		out = append(out, policy.WorkRange{ID: hit.Period.ID, Range: hit.Effective})
	}
	return out
}

// effectiveLeaveRanges resolves every leave of the driver to its effective
// interval. Shared by the close and correct workflows.
func effectiveLeaveRanges(ctx context.Context, stores uow.Stores, driverID domain.DriverID) ([]policy.LeaveRange, error) {
	leaves, err := stores.Leaves.FindByDriver(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if len(leaves) == 0 {
		return nil, nil
	}
	ids := make([]domain.LeaveID, 0, len(leaves))
	for _, leave := range leaves {
		ids = append(ids, leave.ID)
	}
	correctionsByLeave, err := stores.LeaveCorrections.FindByLeaves(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]policy.LeaveRange, 0, len(leaves))
	for _, leave := range leaves {
		effective, err := leavemodels.ResolveEffectiveLeaveTime(leave, correctionsByLeave[leave.ID])
		if err != nil {
			return nil, err
		}
		out = append(out, policy.LeaveRange{ID: leave.ID, Range: effective.Range})
	}
	return out, nil
}
