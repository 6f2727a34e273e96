// Package subscriptions holds the in-memory registry of push delivery
// descriptors. The registry is process-lifetime state: it starts empty and
// is discarded at exit. Durable storage is deliberately out of scope.
package subscriptions

import (
	"sync"

	"weatherwatch/internal/types"
)

// Store maps a subscriber's push endpoint URL to its delivery descriptor.
// It is owned by the service instance and passed to request handlers and
// tick callbacks explicitly; there is no package-level singleton.
//
// Reads and writes for different endpoints never contend beyond the map
// lock itself; per-endpoint lifecycle ordering (replace vs. retire) is the
// orchestrator's responsibility.
type Store struct {
	mu   sync.RWMutex
	subs map[string]types.PushSubscription
}

// NewStore returns an empty subscription store.
func NewStore() *Store {
	return &Store{subs: make(map[string]types.PushSubscription)}
}

// Upsert registers or replaces the descriptor for its endpoint.
func (s *Store) Upsert(sub types.PushSubscription) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs[sub.Endpoint] = sub
}

// Get returns the descriptor for the endpoint, if registered.
func (s *Store) Get(endpoint string) (types.PushSubscription, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.subs[endpoint]
	return sub, ok
}

// Remove deletes the endpoint's descriptor. It reports whether an entry
// was present; removing an absent endpoint is a no-op.
func (s *Store) Remove(endpoint string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.subs[endpoint]
	delete(s.subs, endpoint)
	return ok
}

// Len returns the number of registered subscriptions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}
