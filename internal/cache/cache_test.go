package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetGet(t *testing.T) {
	s := New()

	s.Set("k", "value", time.Minute)

	v, ok := s.Get("k")
	require.True(t, ok)
	assert.Equal(t, "value", v)

	_, ok = s.Get("missing")
	assert.False(t, ok)
}

func TestExpiredEntryIsMaskedOnRead(t *testing.T) {
	s := New()
	now := time.Now()
	s.now = func() time.Time { return now }

	s.Set("k", 42, 5*time.Minute)

	now = now.Add(4 * time.Minute)
	_, ok := s.Get("k")
	assert.True(t, ok, "entry should still be fresh")

	now = now.Add(2 * time.Minute)
	_, ok = s.Get("k")
	assert.False(t, ok, "entry should be expired")
	assert.Equal(t, 1, s.Len(), "masked, not removed")
}

func TestZeroTTLNeverExpires(t *testing.T) {
	s := New()
	now := time.Now()
	s.now = func() time.Time { return now }

	s.Set("k", "forever", 0)

	now = now.Add(1000 * time.Hour)
	_, ok := s.Get("k")
	assert.True(t, ok)
}

func TestSweepRemovesOnlyExpired(t *testing.T) {
	s := New()
	now := time.Now()
	s.now = func() time.Time { return now }

	s.Set("short", 1, time.Minute)
	s.Set("long", 2, time.Hour)

	now = now.Add(10 * time.Minute)
	dropped := s.Sweep()

	assert.Equal(t, 1, dropped)
	assert.Equal(t, 1, s.Len())
	_, ok := s.Get("long")
	assert.True(t, ok)
}

func TestLastWriterWins(t *testing.T) {
	s := New()

	s.Set("k", "first", time.Minute)
	s.Set("k", "second", time.Minute)

	v, _ := s.Get("k")
	assert.Equal(t, "second", v)
}

func TestKeyFingerprint(t *testing.T) {
	assert.Equal(t, "tmdb:search:matrix:1", Key("tmdb:search", "matrix", "1"))
	assert.Equal(t, "tmdb:config", Key("tmdb:config"))

	// identical parameters always yield the same fingerprint
	assert.Equal(t, Key("weather", "-23.5505", "-46.6333"), Key("weather", "-23.5505", "-46.6333"))
}

func TestConcurrentAccess(t *testing.T) {
	s := New()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.Set("shared", j, time.Minute)
				s.Get("shared")
				s.Sweep()
			}
		}()
	}
	wg.Wait()

	_, ok := s.Get("shared")
	assert.True(t, ok)
}
