// Package memory is an in-process backing store, used as the default
// backend in throwaway deployments and as a fixture in tests.
package memory

import (
	"context"
	"sync"

	"energi/internal/core"
	"energi/internal/dataset"
)

type Store struct {
	mu   sync.Mutex
	data map[string][]core.Event
}

var _ dataset.Store = (*Store)(nil)

func New() *Store {
	return &Store{data: map[string][]core.Event{}}
}

func (s *Store) Load(_ context.Context, name string) ([]core.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	events := make([]core.Event, len(s.data[name]))
	copy(events, s.data[name])
	return events, nil
}

func (s *Store) Save(_ context.Context, name string, events []core.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := make([]core.Event, len(events))
	copy(kept, events)
	s.data[name] = kept
	return nil
}
