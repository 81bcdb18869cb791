package store

import (
	"context"
	"sort"
	"sync"

	"rosterd/internal/leave/models"
	"rosterd/pkg/domain"
)

// InMemoryEventStore stores leave events in memory for tests and local runs.
type InMemoryEventStore struct {
	mu     sync.RWMutex
	leaves map[domain.LeaveID]*models.LeaveEvent
}

func NewMemoryEventStore() *InMemoryEventStore {
	return &InMemoryEventStore{leaves: make(map[domain.LeaveID]*models.LeaveEvent)}
}

func (s *InMemoryEventStore) Save(_ context.Context, leave *models.LeaveEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copyLeave := *leave
	s.leaves[leave.ID] = &copyLeave
	return nil
}

func (s *InMemoryEventStore) FindByID(_ context.Context, id domain.LeaveID) (*models.LeaveEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	leave, ok := s.leaves[id]
	if !ok {
		return nil, ErrNotFound
	}
	copyLeave := *leave
	return &copyLeave, nil
}

func (s *InMemoryEventStore) FindByDriver(_ context.Context, driverID domain.DriverID) ([]*models.LeaveEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.LeaveEvent
	for _, leave := range s.leaves {
		if leave.DriverID != driverID {
			continue
		}
		copyLeave := *leave
		out = append(out, &copyLeave)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// InMemoryCorrectionStore stores leave corrections in memory, preserving
// insertion order per leave.
type InMemoryCorrectionStore struct {
	mu          sync.RWMutex
	corrections map[domain.LeaveID][]*models.LeaveCorrection
}

func NewMemoryCorrectionStore() *InMemoryCorrectionStore {
	return &InMemoryCorrectionStore{corrections: make(map[domain.LeaveID][]*models.LeaveCorrection)}
}

func (s *InMemoryCorrectionStore) Append(_ context.Context, correction *models.LeaveCorrection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copyCorrection := *correction
	s.corrections[correction.LeaveID] = append(s.corrections[correction.LeaveID], &copyCorrection)
	return nil
}

func (s *InMemoryCorrectionStore) FindByLeave(_ context.Context, leaveID domain.LeaveID) ([]*models.LeaveCorrection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored := s.corrections[leaveID]
	out := make([]*models.LeaveCorrection, 0, len(stored))
	for _, c := range stored {
		copyCorrection := *c
		out = append(out, &copyCorrection)
	}
	return out, nil
}

func (s *InMemoryCorrectionStore) FindByLeaves(ctx context.Context, leaveIDs []domain.LeaveID) (map[domain.LeaveID][]*models.LeaveCorrection, error) {
	out := make(map[domain.LeaveID][]*models.LeaveCorrection, len(leaveIDs))
	for _, id := range leaveIDs {
		corrections, err := s.FindByLeave(ctx, id)
		if err != nil {
			return nil, err
		}
		out[id] = corrections
	}
	return out, nil
}
