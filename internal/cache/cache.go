// Package cache provides the TTL-keyed snapshot store sitting between the
// engine and the data platform.
package cache

import (
	"sync"
	"time"

	"example.com/engagement/internal/domain"
)

// DefaultTTL matches the dashboard's tolerance for slightly stale data.
const DefaultTTL = 5 * time.Minute

type entry struct {
	snapshot  domain.Snapshot
	writtenAt time.Time
	hits      int
}

// Store maps canonical query descriptors to fetched snapshots. Entries are
// evicted lazily: an expired entry is dropped on the read that finds it.
// There is no size bound; growth under many distinct filter combinations
// is a known limitation.
type Store struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]*entry
}

// Option configures optional behaviour for the Store.
type Option func(*Store)

// WithClock overrides the time source, letting tests control expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New constructs a Store with the given TTL. A non-positive TTL falls back
// to DefaultTTL.
func New(ttl time.Duration, opts ...Option) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &Store{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the snapshot stored under key. A missing or expired entry
// reports ok=false; the expired entry is removed on the way out.
func (s *Store) Get(key string) (domain.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return domain.Snapshot{}, false
	}
	if s.now().Sub(e.writtenAt) > s.ttl {
		delete(s.entries, key)
		return domain.Snapshot{}, false
	}
	e.hits++
	return e.snapshot, true
}

// Set stores the snapshot under key, overwriting unconditionally.
func (s *Store) Set(key string, snapshot domain.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = &entry{snapshot: snapshot, writtenAt: s.now()}
}

// Delete drops the entry under key, if present.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
}

// Clear drops every entry. Called after mutations that could invalidate
// any cached view.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]*entry)
}

// Len reports the number of resident entries, expired or not.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.entries)
}

// Hits reports how many reads the entry under key has served.
func (s *Store) Hits(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[key]; ok {
		return e.hits
	}
	return 0
}
