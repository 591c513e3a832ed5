package report

import (
	"context"
	"sync"
	"time"
)

// Store persists incident reports. Implementations must return ErrNotFound
// from Get for unknown IDs.
type Store interface {
	Save(ctx context.Context, rep *IncidentReport) error
	Get(ctx context.Context, reportID string) (*IncidentReport, error)
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

// MemoryStore is the in-process Store used in tests and local development.
type MemoryStore struct {
	mu      sync.RWMutex
	reports map[string]IncidentReport
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{reports: make(map[string]IncidentReport)}
}

func (s *MemoryStore) Save(_ context.Context, rep *IncidentReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[rep.ReportID] = *rep
	return nil
}

func (s *MemoryStore) Get(_ context.Context, reportID string) (*IncidentReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rep, ok := s.reports[reportID]
	if !ok {
		return nil, ErrNotFound
	}
	out := rep
	return &out, nil
}

func (s *MemoryStore) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := 0
	for id, rep := range s.reports {
		if rep.ExpiresAt.Before(now) {
			delete(s.reports, id)
			deleted++
		}
	}
	return deleted, nil
}

// Len reports the number of stored reports. Test helper.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.reports)
}

var _ Store = (*MemoryStore)(nil)
