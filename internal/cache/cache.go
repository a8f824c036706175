// Package cache provides an in-process key/value store for provider
// responses with per-entry TTL expiration.
package cache

import (
	"strings"
	"sync"
	"time"
)

// Entry is a cached value with its insertion time and time-to-live.
// Entries are never mutated in place, only replaced or left to expire.
type Entry struct {
	Value     any
	FetchedAt time.Time
	TTL       time.Duration
}

func (e Entry) expired(now time.Time) bool {
	return e.TTL > 0 && now.After(e.FetchedAt.Add(e.TTL))
}

// Store is a TTL-bounded in-memory cache safe for concurrent use.
// Expired entries are masked on read; Sweep removes them for real.
type Store struct {
	mu      sync.RWMutex
	entries map[string]Entry
	now     func() time.Time
}

// New creates an empty Store
func New() *Store {
	return &Store{
		entries: make(map[string]Entry),
		now:     time.Now,
	}
}

// Get returns the value for key if present and not expired
func (s *Store) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[key]
	if !ok || e.expired(s.now()) {
		return nil, false
	}
	return e.Value, true
}

// Set stores value under key. A ttl of zero means the entry never expires.
// Last writer wins per key.
func (s *Store) Set(key string, value any, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = Entry{Value: value, FetchedAt: s.now(), TTL: ttl}
}

// Sweep removes expired entries and returns how many were dropped
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	dropped := 0
	for key, e := range s.entries {
		if e.expired(now) {
			delete(s.entries, key)
			dropped++
		}
	}
	return dropped
}

// Len returns the number of stored entries, expired ones included
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Key builds a deterministic fingerprint from an operation name and the
// parameters that affect its result, e.g. Key("tmdb:search", q, page).
func Key(op string, params ...string) string {
	if len(params) == 0 {
		return op
	}
	return op + ":" + strings.Join(params, ":")
}
