package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"rosterd/internal/transfer/models"
	"rosterd/pkg/domain"
)

// InMemoryStore stores transfer events in memory for tests and local runs.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []*models.ShiftTransferEvent
}

func NewMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Save(_ context.Context, event *models.ShiftTransferEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copyEvent := *event
	s.events = append(s.events, &copyEvent)
	return nil
}

func (s *InMemoryStore) FindByDriver(_ context.Context, driverID domain.DriverID) ([]*models.ShiftTransferEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.ShiftTransferEvent
	for _, event := range s.events {
		if event.FromDriverID != driverID && event.ToDriverID != driverID {
			continue
		}
		copyEvent := *event
		out = append(out, &copyEvent)
	}
	sortByCreatedAt(out)
	return out, nil
}

func (s *InMemoryStore) FindCreatedBetween(_ context.Context, driverID domain.DriverID, from, to time.Time) ([]*models.ShiftTransferEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.ShiftTransferEvent
	for _, event := range s.events {
		if event.FromDriverID != driverID && event.ToDriverID != driverID {
			continue
		}
		if event.CreatedAt.Before(from) || !event.CreatedAt.Before(to) {
			continue
		}
		copyEvent := *event
		out = append(out, &copyEvent)
	}
	sortByCreatedAt(out)
	return out, nil
}

func sortByCreatedAt(events []*models.ShiftTransferEvent) {
	sort.Slice(events, func(i, j int) bool { return events[i].CreatedAt.Before(events[j].CreatedAt) })
}
