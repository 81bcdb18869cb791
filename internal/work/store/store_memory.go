package store

import (
	"context"
	"sort"
	"sync"

	"rosterd/internal/work/models"
	"rosterd/pkg/domain"
)

// InMemoryPeriodStore stores work periods in memory for tests and local runs.
type InMemoryPeriodStore struct {
	mu      sync.RWMutex
	periods map[domain.WorkPeriodID]*models.WorkPeriod

	// corrections backs the effective recheck of the overlap query; wired via
	// SetCorrections so both memory stores share one correction log.
	corrections *InMemoryCorrectionStore
}

// NewMemoryPeriodStore constructs an empty in-memory period store.
func NewMemoryPeriodStore(corrections *InMemoryCorrectionStore) *InMemoryPeriodStore {
	return &InMemoryPeriodStore{
		periods:     make(map[domain.WorkPeriodID]*models.WorkPeriod),
		corrections: corrections,
	}
}

func (s *InMemoryPeriodStore) Save(_ context.Context, period *models.WorkPeriod) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copyPeriod := clonePeriod(period)
	s.periods[period.ID] = copyPeriod
	return nil
}

func (s *InMemoryPeriodStore) FindByID(_ context.Context, id domain.WorkPeriodID) (*models.WorkPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	period, ok := s.periods[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clonePeriod(period), nil
}

func (s *InMemoryPeriodStore) FindOpenByDriver(_ context.Context, driverID domain.DriverID) (*models.WorkPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, period := range s.periods {
		if period.DriverID == driverID && period.IsOpen() {
			return clonePeriod(period), nil
		}
	}
	return nil, ErrNotFound
}

func (s *InMemoryPeriodStore) FindClosedByDriver(_ context.Context, driverID domain.DriverID) ([]*models.WorkPeriod, error) {
	return s.findByDriver(driverID, true), nil
}

func (s *InMemoryPeriodStore) FindByDriver(_ context.Context, driverID domain.DriverID) ([]*models.WorkPeriod, error) {
	return s.findByDriver(driverID, false), nil
}

func (s *InMemoryPeriodStore) findByDriver(driverID domain.DriverID, closedOnly bool) []*models.WorkPeriod {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.WorkPeriod
	for _, period := range s.periods {
		if period.DriverID != driverID {
			continue
		}
		if closedOnly && !period.IsClosed() {
			continue
		}
		out = append(out, clonePeriod(period))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (s *InMemoryPeriodStore) FindEffectiveOverlapping(
	ctx context.Context,
	driverID domain.DriverID,
	candidate domain.TimeRange,
	excludeID domain.WorkPeriodID,
) ([]OverlappingWork, error) {
	closed, err := s.FindClosedByDriver(ctx, driverID)
	if err != nil {
		return nil, err
	}

	// Phase 1: declared-time prefilter. Corrected periods are kept regardless
	// since their effective range may have drifted away from the declared one.
	correctionsByPeriod := make(map[domain.WorkPeriodID][]*models.WorkCorrection)
	var prefiltered []*models.WorkPeriod
	for _, period := range closed {
		corrections, err := s.corrections.FindByWorkPeriod(ctx, period.ID)
		if err != nil {
			return nil, err
		}
		declared, err := period.DeclaredRange()
		if err != nil {
			return nil, err
		}
		if !declared.Overlaps(candidate) && len(corrections) == 0 {
			continue
		}
		correctionsByPeriod[period.ID] = corrections
		prefiltered = append(prefiltered, period)
	}

	// Phase 2: authoritative effective-time recheck.
	return recheckEffective(prefiltered, correctionsByPeriod, candidate, excludeID)
}

func clonePeriod(period *models.WorkPeriod) *models.WorkPeriod {
	copyPeriod := *period
	if period.DeclaredEndTime != nil {
		end := *period.DeclaredEndTime
		copyPeriod.DeclaredEndTime = &end
	}
	return &copyPeriod
}

// InMemoryCorrectionStore stores work corrections in memory, preserving
// insertion order per period.
type InMemoryCorrectionStore struct {
	mu          sync.RWMutex
	corrections map[domain.WorkPeriodID][]*models.WorkCorrection
}

// NewMemoryCorrectionStore constructs an empty in-memory correction store.
func NewMemoryCorrectionStore() *InMemoryCorrectionStore {
	return &InMemoryCorrectionStore{corrections: make(map[domain.WorkPeriodID][]*models.WorkCorrection)}
}

func (s *InMemoryCorrectionStore) Append(_ context.Context, correction *models.WorkCorrection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copyCorrection := *correction
	s.corrections[correction.WorkPeriodID] = append(s.corrections[correction.WorkPeriodID], &copyCorrection)
	return nil
}

func (s *InMemoryCorrectionStore) FindByWorkPeriod(_ context.Context, periodID domain.WorkPeriodID) ([]*models.WorkCorrection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored := s.corrections[periodID]
	out := make([]*models.WorkCorrection, 0, len(stored))
	for _, c := range stored {
		copyCorrection := *c
		out = append(out, &copyCorrection)
	}
	return out, nil
}

func (s *InMemoryCorrectionStore) FindByWorkPeriods(ctx context.Context, periodIDs []domain.WorkPeriodID) (map[domain.WorkPeriodID][]*models.WorkCorrection, error) {
	out := make(map[domain.WorkPeriodID][]*models.WorkCorrection, len(periodIDs))
	for _, id := range periodIDs {
		corrections, err := s.FindByWorkPeriod(ctx, id)
		if err != nil {
			return nil, err
		}
		out[id] = corrections
	}
	return out, nil
}
