// Package cache implements the bounded, TTL-based store for verification
// results. Entries are owned exclusively by the store; callers receive values,
// never references into the store's internals.
package cache

import (
	"sync"
	"time"
)

// Kind partitions the key space by result type
type Kind string

const (
	KindCitation Kind = "citation"
	KindDomain   Kind = "domain"
	KindURL      Kind = "url"
)

// urlTTLCap bounds how long URL validation results may live: reachability
// changes faster than authority.
const urlTTLCap = 60 * time.Minute

// Entry wraps one cached result with its bookkeeping
type Entry struct {
	Key       string
	Result    any
	CreatedAt time.Time
	ExpiresAt time.Time
	HitCount  int64
}

// Stats is the aggregate view surfaced to monitoring
type Stats struct {
	Entries     int            `json:"entries"`
	ByKind      map[string]int `json:"by_kind"`
	TotalHits   int64          `json:"total_hits"`
	AverageHits float64        `json:"average_hits"`
	Enabled     bool           `json:"enabled"`
}

// Store is a bounded in-memory key-value store with TTL expiry, FIFO-by-age
// eviction, and per-entry hit accounting. Safe for concurrent use.
type Store struct {
	mu         sync.RWMutex
	entries    map[string]*Entry
	ttl        time.Duration
	maxEntries int
	enabled    bool

	sweepStop chan struct{}
	stopOnce  sync.Once

	now func() time.Time // injectable for tests
}

// Options configures a Store
type Options struct {
	Enabled       bool
	TTL           time.Duration
	MaxEntries    int
	SweepInterval time.Duration
}

// New creates a Store and starts its background expiry sweep when a sweep
// interval is configured. Call Close to stop the sweep.
func New(opts Options) *Store {
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = 1000
	}
	if opts.TTL < 0 {
		// TTL 0 is a valid configuration: entries expire immediately
		opts.TTL = 0
	}

	s := &Store{
		entries:    make(map[string]*Entry),
		ttl:        opts.TTL,
		maxEntries: opts.MaxEntries,
		enabled:    opts.Enabled,
		sweepStop:  make(chan struct{}),
		now:        time.Now,
	}

	if opts.SweepInterval > 0 {
		go s.sweepLoop(opts.SweepInterval)
	}

	return s
}

// Get returns the cached value for (kind, key) and whether it was present.
// An expired entry is deleted on access and reported as a miss. Each hit
// increments the entry's hit count.
func (s *Store) Get(kind Kind, key string) (any, bool) {
	if !s.enabled {
		return nil, false
	}

	composite := compositeKey(kind, key)

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[composite]
	if !ok {
		return nil, false
	}
	if s.now().After(entry.ExpiresAt) || s.now().Equal(entry.ExpiresAt) {
		delete(s.entries, composite)
		return nil, false
	}

	entry.HitCount++
	return entry.Result, true
}

// Set stores a value for (kind, key). URL entries use min(globalTTL, 60m).
// When the store exceeds its capacity, the oldest entries by creation time
// are evicted until the store is back at the limit.
func (s *Store) Set(kind Kind, key string, value any) {
	if !s.enabled {
		return
	}

	ttl := s.ttl
	if kind == KindURL && ttl > urlTTLCap {
		ttl = urlTTLCap
	}

	now := s.now()
	entry := &Entry{
		Key:       compositeKey(kind, key),
		Result:    value,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[entry.Key] = entry
	s.evictLocked()
}

// Delete removes one entry
func (s *Store) Delete(kind Kind, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, compositeKey(kind, key))
}

// Clear removes all entries
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]*Entry)
}

// Len returns the current entry count
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Stats reports aggregate cache statistics
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{
		Entries: len(s.entries),
		ByKind:  make(map[string]int),
		Enabled: s.enabled,
	}

	for key, entry := range s.entries {
		stats.TotalHits += entry.HitCount
		stats.ByKind[kindOf(key)]++
	}
	if stats.Entries > 0 {
		stats.AverageHits = float64(stats.TotalHits) / float64(stats.Entries)
	}

	return stats
}

// Close stops the background sweep
func (s *Store) Close() {
	s.stopOnce.Do(func() { close(s.sweepStop) })
}

// Sweep removes all expired entries and returns how many were dropped
func (s *Store) Sweep() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, entry := range s.entries {
		if now.After(entry.ExpiresAt) || now.Equal(entry.ExpiresAt) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

func (s *Store) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.sweepStop:
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// evictLocked drops oldest-by-creation entries until the store is at its
// limit. Pure FIFO by age, not LRU. Caller holds the write lock.
func (s *Store) evictLocked() {
	for len(s.entries) > s.maxEntries {
		var oldestKey string
		var oldest time.Time
		for key, entry := range s.entries {
			if oldestKey == "" || entry.CreatedAt.Before(oldest) {
				oldestKey = key
				oldest = entry.CreatedAt
			}
		}
		delete(s.entries, oldestKey)
	}
}

func compositeKey(kind Kind, key string) string {
	return string(kind) + ":" + key
}

func kindOf(compositeKey string) string {
	for i := 0; i < len(compositeKey); i++ {
		if compositeKey[i] == ':' {
			return compositeKey[:i]
		}
	}
	return "unknown"
}
