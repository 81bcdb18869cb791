package store

import (
	"context"
	"sync"

	"rosterd/internal/auth/models"
	"rosterd/pkg/domain"
)

// InMemoryStore keeps drivers in memory for tests and local runs.
type InMemoryStore struct {
	mu      sync.RWMutex
	drivers map[domain.DriverID]*models.Driver
}

func NewMemoryStore() *InMemoryStore {
	return &InMemoryStore{drivers: make(map[domain.DriverID]*models.Driver)}
}

func (s *InMemoryStore) Save(_ context.Context, driver *models.Driver) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copyDriver := *driver
	s.drivers[driver.ID] = &copyDriver
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id domain.DriverID) (*models.Driver, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	driver, ok := s.drivers[id]
	if !ok {
		return nil, ErrNotFound
	}
	copyDriver := *driver
	return &copyDriver, nil
}

func (s *InMemoryStore) FindByEmail(_ context.Context, email string) (*models.Driver, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, driver := range s.drivers {
		if driver.Email == email {
			copyDriver := *driver
			return &copyDriver, nil
		}
	}
	return nil, ErrNotFound
}

func (s *InMemoryStore) FindByGoogleSubject(_ context.Context, subject string) (*models.Driver, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, driver := range s.drivers {
		if driver.GoogleSubject == subject {
			copyDriver := *driver
			return &copyDriver, nil
		}
	}
	return nil, ErrNotFound
}
