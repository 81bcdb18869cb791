package analytics

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	leavemodels "rosterd/internal/leave/models"
	"rosterd/internal/platform/metrics"
	"rosterd/internal/policy"
	"rosterd/internal/uow"
	workmodels "rosterd/internal/work/models"
	"rosterd/pkg/domain"
)

// Service answers the read-side analytics queries. All loads go through the
// unit of work so each query sees one consistent snapshot per transaction.
type Service struct {
	uow        uow.UnitOfWork
	rangeLimit policy.MaxAnalyticsRangePolicy
	cache      *DailyCache
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

func NewService(u uow.UnitOfWork, rangeLimit policy.MaxAnalyticsRangePolicy, cache *DailyCache, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		uow:        u,
		rangeLimit: rangeLimit,
		cache:      cache,
		logger:     logger,
		metrics:    m,
	}
}

// GetWorkSummary totals the driver's effective work hours inside [from, to).
func (s *Service) GetWorkSummary(ctx context.Context, driverID domain.DriverID, from, to time.Time) (WorkSummary, error) {
	r, err := s.queryRange(from, to)
	if err != nil {
		return WorkSummary{}, err
	}

	var summary WorkSummary
	err = s.uow.RunInTx(ctx, driverID.String(), func(ctx context.Context, stores uow.Stores) error {
		periods, correctionsByPeriod, err := loadWork(ctx, stores, driverID)
		if err != nil {
			return err
		}
		summary, err = CalculateWorkSummary(r, periods, correctionsByPeriod)
		return err
	})
	if err != nil {
		return WorkSummary{}, err
	}
	return summary, nil
}

// GetLeaveCount counts the driver's leaves whose effective range intersects
// [from, to).
func (s *Service) GetLeaveCount(ctx context.Context, driverID domain.DriverID, from, to time.Time) (LeaveCountSummary, error) {
	r, err := s.queryRange(from, to)
	if err != nil {
		return LeaveCountSummary{}, err
	}

	var summary LeaveCountSummary
	err = s.uow.RunInTx(ctx, driverID.String(), func(ctx context.Context, stores uow.Stores) error {
		leaves, correctionsByLeave, err := loadLeave(ctx, stores, driverID)
		if err != nil {
			return err
		}
		summary, err = CalculateLeaveCount(r, leaves, correctionsByLeave)
		return err
	})
	if err != nil {
		return LeaveCountSummary{}, err
	}
	return summary, nil
}

// GetTransferCount counts transfers involving the driver created in [from, to).
func (s *Service) GetTransferCount(ctx context.Context, driverID domain.DriverID, from, to time.Time) (ShiftTransferCountSummary, error) {
	r, err := s.queryRange(from, to)
	if err != nil {
		return ShiftTransferCountSummary{}, err
	}

	var summary ShiftTransferCountSummary
	err = s.uow.RunInTx(ctx, driverID.String(), func(ctx context.Context, stores uow.Stores) error {
		events, err := stores.Transfers.FindByDriver(ctx, driverID)
		if err != nil {
			return err
		}
		summary = CalculateTransferCount(r, events)
		return nil
	})
	if err != nil {
		return ShiftTransferCountSummary{}, err
	}
	return summary, nil
}

// GetAcceptedShiftCount counts transfers handed to the driver in [from, to).
func (s *Service) GetAcceptedShiftCount(ctx context.Context, driverID domain.DriverID, from, to time.Time) (AcceptedShiftCountSummary, error) {
	r, err := s.queryRange(from, to)
	if err != nil {
		return AcceptedShiftCountSummary{}, err
	}

	var summary AcceptedShiftCountSummary
	err = s.uow.RunInTx(ctx, driverID.String(), func(ctx context.Context, stores uow.Stores) error {
		events, err := stores.Transfers.FindByDriver(ctx, driverID)
		if err != nil {
			return err
		}
		summary = CalculateAcceptedShiftCount(r, driverID, events)
		return nil
	})
	if err != nil {
		return AcceptedShiftCountSummary{}, err
	}
	return summary, nil
}

// GetDaily buckets the driver's effective work and leave minutes per UTC day
// over [from, to). Responses are cached per driver.
func (s *Service) GetDaily(ctx context.Context, driverID domain.DriverID, from, to time.Time) (DailyReport, error) {
	if err := s.rangeLimit.AssertWithinLimit(from, to); err != nil {
		return DailyReport{}, err
	}

	if report, ok := s.cache.Get(ctx, driverID.String(), from, to); ok {
		s.metrics.AnalyticsCacheHit()
		return report, nil
	}
	s.metrics.AnalyticsCacheMiss()

	var workRanges, leaveRanges []domain.TimeRange

	// The work and leave sides load in parallel, each in its own read
	// transaction.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.uow.RunInTx(gctx, driverID.String(), func(ctx context.Context, stores uow.Stores) error {
			periods, correctionsByPeriod, err := loadWork(ctx, stores, driverID)
			if err != nil {
				return err
			}
			for _, period := range periods {
				if !period.IsClosed() {
					continue
				}
				effective, err := workmodels.ResolveEffectiveWorkTime(period, correctionsByPeriod[period.ID])
				if err != nil {
					return err
				}
				workRanges = append(workRanges, effective.Range)
			}
			return nil
		})
	})
	g.Go(func() error {
		return s.uow.RunInTx(gctx, driverID.String(), func(ctx context.Context, stores uow.Stores) error {
			leaves, correctionsByLeave, err := loadLeave(ctx, stores, driverID)
			if err != nil {
				return err
			}
			for _, leave := range leaves {
				effective, err := leavemodels.ResolveEffectiveLeaveTime(leave, correctionsByLeave[leave.ID])
				if err != nil {
					return err
				}
				leaveRanges = append(leaveRanges, effective.Range)
			}
			return nil
		})
	})
	if err := g.Wait(); err != nil {
		return DailyReport{}, err
	}

	bucketer := NewDailyBucketer(from, to)
	for _, r := range workRanges {
		bucketer.AddWork(r)
	}
	for _, r := range leaveRanges {
		bucketer.AddLeave(r)
	}
	report := bucketer.Report()

	s.cache.Set(ctx, driverID.String(), from, to, report)
	s.logger.InfoContext(ctx, "daily analytics computed",
		"driver_id", driverID.String(),
		"days", report.Summary.TotalDays,
	)
	return report, nil
}

func (s *Service) queryRange(from, to time.Time) (domain.TimeRange, error) {
	if err := s.rangeLimit.AssertWithinLimit(from, to); err != nil {
		return domain.TimeRange{}, err
	}
	return domain.NewTimeRange(from, to)
}

func loadWork(ctx context.Context, stores uow.Stores, driverID domain.DriverID) ([]*workmodels.WorkPeriod, map[domain.WorkPeriodID][]*workmodels.WorkCorrection, error) {
	periods, err := stores.WorkPeriods.FindByDriver(ctx, driverID)
	if err != nil {
		return nil, nil, err
	}
	ids := make([]domain.WorkPeriodID, 0, len(periods))
	for _, period := range periods {
		ids = append(ids, period.ID)
	}
	correctionsByPeriod, err := stores.WorkCorrections.FindByWorkPeriods(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	return periods, correctionsByPeriod, nil
}

func loadLeave(ctx context.Context, stores uow.Stores, driverID domain.DriverID) ([]*leavemodels.LeaveEvent, map[domain.LeaveID][]*leavemodels.LeaveCorrection, error) {
	leaves, err := stores.Leaves.FindByDriver(ctx, driverID)
	if err != nil {
		return nil, nil, err
	}
	ids := make([]domain.LeaveID, 0, len(leaves))
	for _, leave := range leaves {
		ids = append(ids, leave.ID)
	}
	correctionsByLeave, err := stores.LeaveCorrections.FindByLeaves(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	return leaves, correctionsByLeave, nil
}
