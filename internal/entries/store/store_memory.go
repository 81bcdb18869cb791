package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"rosterd/internal/entries/models"
	"rosterd/pkg/domain"
)

type sourceKey struct {
	sourceType models.SourceType
	sourceID   string
}

// InMemoryStore keeps the projection in memory for tests and local runs.
type InMemoryStore struct {
	mu       sync.RWMutex
	bySource map[sourceKey]*models.EntryRecord
}

func NewMemoryStore() *InMemoryStore {
	return &InMemoryStore{bySource: make(map[sourceKey]*models.EntryRecord)}
}

func (s *InMemoryStore) Upsert(_ context.Context, entry *models.EntryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := sourceKey{entry.SourceType, entry.SourceID}
	copyEntry := *entry
	if existing, ok := s.bySource[key]; ok {
		copyEntry.ID = existing.ID
	}
	s.bySource[key] = &copyEntry
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id domain.EntryID) (*models.EntryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, entry := range s.bySource {
		if entry.ID == id {
			copyEntry := *entry
			return &copyEntry, nil
		}
	}
	return nil, ErrNotFound
}

func (s *InMemoryStore) FindByDriver(_ context.Context, driverID domain.DriverID, from, to time.Time) ([]*models.EntryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.EntryRecord
	for _, entry := range s.bySource {
		if entry.DriverID != driverID {
			continue
		}
		if !from.IsZero() && !entry.IsOpenEnded() && !entry.EffectiveEndTime.After(from) {
			continue
		}
		if !to.IsZero() && !entry.EffectiveStartTime.Before(to) {
			continue
		}
		copyEntry := *entry
		out = append(out, &copyEntry)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].EffectiveStartTime.Before(out[j].EffectiveStartTime)
	})
	return out, nil
}

func (s *InMemoryStore) DeleteByDriver(_ context.Context, driverID domain.DriverID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, entry := range s.bySource {
		if entry.DriverID == driverID {
			delete(s.bySource, key)
		}
	}
	return nil
}
