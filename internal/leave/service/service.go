// Package service orchestrates the leave command workflows. Leave is checked
// against work from the leave side: a candidate leave range must not overlap
// the driver's open work (conservatively extended) nor any closed period's
// effective time.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"rosterd/internal/audit"
	entriesmodels "rosterd/internal/entries/models"
	"rosterd/internal/leave/models"
	leavestore "rosterd/internal/leave/store"
	"rosterd/internal/platform/metrics"
	"rosterd/internal/platform/tracing"
	"rosterd/internal/policy"
	"rosterd/internal/uow"
	workmodels "rosterd/internal/work/models"
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

// Service runs the RecordLeave and CorrectLeave workflows.
type Service struct {
	uow     uow.UnitOfWork
	logger  *slog.Logger
	metrics *metrics.Metrics
	auditor Auditor
	cache   CacheInvalidator
	now     func() time.Time
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

func NewService(u uow.UnitOfWork, logger *slog.Logger, m *metrics.Metrics, opts ...Option) *Service {
	s := &Service{
		uow:     u,
		logger:  logger,
		metrics: m,
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RecordLeave persists a new leave event after checking it against the
// driver's work. An OPEN work period is treated conservatively: its candidate
// range runs from the declared start to the leave's end, since the shift
// could close anywhere in between.
func (s *Service) RecordLeave(
	ctx context.Context,
	driverID domain.DriverID,
	leaveID domain.LeaveID,
	startTime, endTime time.Time,
	reason string,
) (*models.LeaveEvent, error) {
	ctx, span := tracing.Tracer().Start(ctx, "leave.record")
	defer span.End()

	var recorded *models.LeaveEvent
	err := s.uow.RunInTx(ctx, driverID.String(), func(ctx context.Context, stores uow.Stores) error {
		leave, err := models.NewLeaveEvent(leaveID, driverID, startTime, endTime, s.now(), reason)
		if err != nil {
			return err
		}
		candidate := leave.DeclaredRange()

		if err := assertNoOpenWorkConflict(ctx, stores, driverID, candidate, endTime); err != nil {
			return err
		}
		if err := assertNoClosedWorkConflict(ctx, stores, driverID, candidate); err != nil {
			return err
		}

		if err := stores.Leaves.Save(ctx, leave); err != nil {
			return err
		}
		entry := entriesmodels.FromLeave(domain.NewEntryID(), driverID, leave.ID, candidate, reason, s.now())
		if err := stores.Entries.Upsert(ctx, entry); err != nil {
			return err
		}
		s.metrics.ProjectionWrite()
		recorded = leave
		return nil
	})
	if err != nil {
		s.reject(ctx, "leave.record", driverID, err)
		return nil, err
	}

	s.accept(ctx, "leave.record", driverID, audit.NewEvent(driverID.String(), audit.ActionLeaveRecorded, recorded.ID.String(), map[string]any{
		"startTime": startTime.Format(time.RFC3339Nano),
		"endTime":   endTime.Format(time.RFC3339Nano),
	}))
	return recorded, nil
}

// CorrectLeave appends a correction to an existing leave. The prospective
// effective range must clear the same work-overlap checks as a new leave,
// with the open-work candidate capped at now.
func (s *Service) CorrectLeave(
	ctx context.Context,
	driverID domain.DriverID,
	leaveID domain.LeaveID,
	correctionID domain.LeaveCorrectionID,
	correctedStart, correctedEnd time.Time,
	reason string,
) (*models.LeaveCorrection, error) {
	ctx, span := tracing.Tracer().Start(ctx, "leave.correct")
	defer span.End()

	var appended *models.LeaveCorrection
	err := s.uow.RunInTx(ctx, driverID.String(), func(ctx context.Context, stores uow.Stores) error {
		leave, err := stores.Leaves.FindByID(ctx, leaveID)
		if err != nil {
			if errors.Is(err, leavestore.ErrNotFound) {
				return leaveNotFound(leaveID)
			}
			return err
		}
		if leave.DriverID != driverID {
			return leaveNotFound(leaveID)
		}

		correction, err := models.NewLeaveCorrection(correctionID, leave, correctedStart, correctedEnd, s.now(), reason)
		if err != nil {
			return err
		}
		prior, err := stores.LeaveCorrections.FindByLeave(ctx, leaveID)
		if err != nil {
			return err
		}
		prospective, err := models.ResolveEffectiveLeaveTime(leave, append(prior, correction))
		if err != nil {
			return err
		}

		if err := assertNoOpenWorkConflict(ctx, stores, driverID, prospective.Range, s.now()); err != nil {
			return err
		}
		if err := assertNoClosedWorkConflict(ctx, stores, driverID, prospective.Range); err != nil {
			return err
		}

		if err := stores.LeaveCorrections.Append(ctx, correction); err != nil {
			return err
		}
		entry := entriesmodels.FromLeave(domain.NewEntryID(), driverID, leave.ID, prospective.Range, leave.Reason, s.now())
		if err := stores.Entries.Upsert(ctx, entry); err != nil {
			return err
		}
		s.metrics.ProjectionWrite()
		appended = correction
		return nil
	})
	if err != nil {
		s.reject(ctx, "leave.correct", driverID, err)
		return nil, err
	}

	s.accept(ctx, "leave.correct", driverID, audit.NewEvent(driverID.String(), audit.ActionLeaveCorrected, leaveID.String(), map[string]any{
		"correctionId":   appended.ID.String(),
		"correctedStart": correctedStart.Format(time.RFC3339Nano),
		"correctedEnd":   correctedEnd.Format(time.RFC3339Nano),
	}))
	return appended, nil
}

// assertNoOpenWorkConflict rejects the leave when the driver's OPEN work
// period, extended to horizon, overlaps the candidate leave range.
func assertNoOpenWorkConflict(ctx context.Context, stores uow.Stores, driverID domain.DriverID, leave domain.TimeRange, horizon time.Time) error {
	open, err := stores.WorkPeriods.FindOpenByDriver(ctx, driverID)
	if err != nil {
		if errors.Is(err, workstore.ErrNotFound) {
			return nil
		}
		return err
	}
	if !horizon.After(open.DeclaredStartTime) {
		// Leave lies entirely before the shift started.
		return nil
	}
	workRange, err := domain.NewTimeRange(open.DeclaredStartTime, horizon)
	if err != nil {
		return err
	}
	if leave.Overlaps(workRange) {
		return dErrors.NewWithDetails(dErrors.CodeWorkOverlapsLeave,
			"leave time overlaps the active work period",
			map[string]any{
				"workPeriodId": open.ID.String(),
				"workStart":    workRange.Start.Format(time.RFC3339Nano),
				"leaveStart":   leave.Start.Format(time.RFC3339Nano),
				"leaveEnd":     leave.End.Format(time.RFC3339Nano),
			})
	}
	return nil
}

// assertNoClosedWorkConflict resolves every CLOSED period's effective range
// and rejects when any of them intersects the candidate leave. All
// conflicting periods are reported, not just the first.
func assertNoClosedWorkConflict(ctx context.Context, stores uow.Stores, driverID domain.DriverID, leave domain.TimeRange) error {
	closed, err := stores.WorkPeriods.FindClosedByDriver(ctx, driverID)
	if err != nil {
		return err
	}
	if len(closed) == 0 {
		return nil
	}
	ids := make([]domain.WorkPeriodID, 0, len(closed))
	for _, period := range closed {
		ids = append(ids, period.ID)
	}
	correctionsByPeriod, err := stores.WorkCorrections.FindByWorkPeriods(ctx, ids)
	if err != nil {
		return err
	}
	works := make([]policy.WorkRange, 0, len(closed))
	for _, period := range closed {
		effective, err := workmodels.ResolveEffectiveWorkTime(period, correctionsByPeriod[period.ID])
		if err != nil {
			return err
		}
		works = append(works, policy.WorkRange{ID: period.ID, Range: effective.Range})
	}
	return policy.AssertLeaveOverlapsNoWork(leave, works)
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

func leaveNotFound(id domain.LeaveID) error {
	return dErrors.NewWithDetails(dErrors.CodeLeaveNotFound,
		"leave event not found",
		map[string]any{"leaveId": id.String()})
}
