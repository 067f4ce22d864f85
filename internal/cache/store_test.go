package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(opts Options) *Store {
	s := New(opts)
	return s
}

func TestStore_SetGet(t *testing.T) {
	s := newTestStore(Options{Enabled: true, TTL: time.Hour, MaxEntries: 10})
	defer s.Close()

	s.Set(KindCitation, "key-1", "value-1")

	got, ok := s.Get(KindCitation, "key-1")
	require.True(t, ok)
	assert.Equal(t, "value-1", got)

	// Kinds partition the key space
	_, ok = s.Get(KindDomain, "key-1")
	assert.False(t, ok)
}

func TestStore_TTLZero_ImmediatelyExpired(t *testing.T) {
	s := newTestStore(Options{Enabled: true, TTL: 0, MaxEntries: 10})
	defer s.Close()

	s.Set(KindCitation, "key-1", "value-1")

	_, ok := s.Get(KindCitation, "key-1")
	assert.False(t, ok, "entry written with TTL=0 must be unretrievable")
	assert.Equal(t, 0, s.Len(), "expired entry is deleted on access")
}

func TestStore_Expiry(t *testing.T) {
	s := newTestStore(Options{Enabled: true, TTL: time.Hour, MaxEntries: 10})
	defer s.Close()

	now := time.Now()
	s.now = func() time.Time { return now }
	s.Set(KindDomain, "example.com", 42)

	// Advance past expiry
	s.now = func() time.Time { return now.Add(2 * time.Hour) }
	_, ok := s.Get(KindDomain, "example.com")
	assert.False(t, ok)
}

func TestStore_URLKindTTLCap(t *testing.T) {
	s := newTestStore(Options{Enabled: true, TTL: 24 * time.Hour, MaxEntries: 10})
	defer s.Close()

	now := time.Now()
	s.now = func() time.Time { return now }
	s.Set(KindURL, "https://example.com", "probe")
	s.Set(KindCitation, "key", "result")

	// 61 minutes later the URL entry is gone, the citation entry remains
	s.now = func() time.Time { return now.Add(61 * time.Minute) }

	_, ok := s.Get(KindURL, "https://example.com")
	assert.False(t, ok, "url entries are capped at 60 minutes")

	_, ok = s.Get(KindCitation, "key")
	assert.True(t, ok)
}

func TestStore_FIFOEviction(t *testing.T) {
	const maxEntries = 5
	s := newTestStore(Options{Enabled: true, TTL: time.Hour, MaxEntries: maxEntries})
	defer s.Close()

	now := time.Now()
	for i := 0; i < maxEntries+1; i++ {
		tick := now.Add(time.Duration(i) * time.Second)
		s.now = func() time.Time { return tick }
		s.Set(KindCitation, fmt.Sprintf("key-%d", i), i)
	}

	s.now = func() time.Time { return now.Add(time.Minute) }

	assert.Equal(t, maxEntries, s.Len(), "store stays at its limit")

	// Oldest-by-creation entry was evicted; all later entries survive
	_, ok := s.Get(KindCitation, "key-0")
	assert.False(t, ok, "oldest entry must be evicted first")
	for i := 1; i <= maxEntries; i++ {
		_, ok := s.Get(KindCitation, fmt.Sprintf("key-%d", i))
		assert.True(t, ok, "entry key-%d should survive", i)
	}
}

func TestStore_HitAccounting(t *testing.T) {
	s := newTestStore(Options{Enabled: true, TTL: time.Hour, MaxEntries: 10})
	defer s.Close()

	s.Set(KindCitation, "key", "value")
	s.Set(KindDomain, "example.com", "authority")

	for i := 0; i < 3; i++ {
		_, ok := s.Get(KindCitation, "key")
		require.True(t, ok)
	}
	_, ok := s.Get(KindDomain, "example.com")
	require.True(t, ok)

	stats := s.Stats()
	assert.Equal(t, 2, stats.Entries)
	assert.Equal(t, int64(4), stats.TotalHits)
	assert.Equal(t, 2.0, stats.AverageHits)
	assert.Equal(t, 1, stats.ByKind["citation"])
	assert.Equal(t, 1, stats.ByKind["domain"])
}

func TestStore_Disabled(t *testing.T) {
	s := newTestStore(Options{Enabled: false, TTL: time.Hour, MaxEntries: 10})
	defer s.Close()

	s.Set(KindCitation, "key", "value") // no-op

	_, ok := s.Get(KindCitation, "key")
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())
}

func TestStore_Sweep(t *testing.T) {
	s := newTestStore(Options{Enabled: true, TTL: time.Hour, MaxEntries: 10})
	defer s.Close()

	now := time.Now()
	s.now = func() time.Time { return now }
	s.Set(KindCitation, "old", 1)

	s.now = func() time.Time { return now.Add(30 * time.Minute) }
	s.Set(KindCitation, "newer", 2)

	// 89 minutes in: "old" is past its hour, "newer" has a minute left
	s.now = func() time.Time { return now.Add(89 * time.Minute) }
	removed := s.Sweep()

	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, s.Len())
}

func TestStore_Clear(t *testing.T) {
	s := newTestStore(Options{Enabled: true, TTL: time.Hour, MaxEntries: 10})
	defer s.Close()

	s.Set(KindCitation, "key", "value")
	s.Clear()

	assert.Equal(t, 0, s.Len())
}
