// Package service runs the RecordShiftTransfer workflow. A transfer is pure
// audit provenance: no time-range invariant applies and the referenced work
// period is never mutated.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"rosterd/internal/audit"
	"rosterd/internal/platform/metrics"
	"rosterd/internal/platform/tracing"
	"rosterd/internal/transfer/models"
	"rosterd/internal/uow"
	workstore "rosterd/internal/work/store"
	"rosterd/pkg/domain"
	dErrors "rosterd/pkg/domain-errors"
)

// Auditor receives audit events for accepted commands.
type Auditor interface {
	Emit(event audit.Event)
}

// Service records shift transfer events.
type Service struct {
	uow     uow.UnitOfWork
	logger  *slog.Logger
	metrics *metrics.Metrics
	auditor Auditor
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

// RecordShiftTransfer persists a transfer event for an existing work period.
func (s *Service) RecordShiftTransfer(
	ctx context.Context,
	transferID domain.ShiftTransferID,
	workPeriodID domain.WorkPeriodID,
	fromDriverID, toDriverID domain.DriverID,
	reason string,
) (*models.ShiftTransferEvent, error) {
	ctx, span := tracing.Tracer().Start(ctx, "transfer.record")
	defer span.End()

	var recorded *models.ShiftTransferEvent
	err := s.uow.RunInTx(ctx, fromDriverID.String(), func(ctx context.Context, stores uow.Stores) error {
		if _, err := stores.WorkPeriods.FindByID(ctx, workPeriodID); err != nil {
			if errors.Is(err, workstore.ErrNotFound) {
				return dErrors.NewWithDetails(dErrors.CodeWorkPeriodNotFound,
					"work period not found",
					map[string]any{"workPeriodId": workPeriodID.String()})
			}
			return err
		}

		event, err := models.NewShiftTransferEvent(transferID, workPeriodID, fromDriverID, toDriverID, s.now(), reason)
		if err != nil {
			return err
		}
		if err := stores.Transfers.Save(ctx, event); err != nil {
			return err
		}
		recorded = event
		return nil
	})
	if err != nil {
		s.reject(ctx, fromDriverID, err)
		return nil, err
	}

	s.metrics.CommandAccepted("transfer.record")
	if s.auditor != nil {
		s.auditor.Emit(audit.NewEvent(fromDriverID.String(), audit.ActionShiftTransferred, recorded.ID.String(), map[string]any{
			"workPeriodId": workPeriodID.String(),
			"toDriverId":   toDriverID.String(),
		}))
	}
	s.logger.InfoContext(ctx, "command accepted",
		"command", "transfer.record",
		"driver_id", fromDriverID.String(),
	)
	return recorded, nil
}

// ListTransfers returns all transfers where the driver is origin or target.
func (s *Service) ListTransfers(ctx context.Context, driverID domain.DriverID) ([]*models.ShiftTransferEvent, error) {
	var out []*models.ShiftTransferEvent
	err := s.uow.RunInTx(ctx, driverID.String(), func(ctx context.Context, stores uow.Stores) error {
		events, err := stores.Transfers.FindByDriver(ctx, driverID)
		if err != nil {
			return err
		}
		out = events
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) reject(ctx context.Context, driverID domain.DriverID, err error) {
	var dErr *dErrors.Error
	if errors.As(err, &dErr) {
		s.metrics.CommandRejected("transfer.record", string(dErr.Code))
		s.logger.WarnContext(ctx, "command rejected",
			"command", "transfer.record",
			"driver_id", driverID.String(),
			"code", string(dErr.Code),
		)
		return
	}
	s.logger.ErrorContext(ctx, "command failed",
		"command", "transfer.record",
		"driver_id", driverID.String(),
		"error", err,
	)
}
