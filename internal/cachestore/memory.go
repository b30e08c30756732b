package cachestore

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/tbourn/go-trip-backend/internal/sysutil"
)

type memEntry struct {
	val []byte
	exp time.Time // zero = no expiry
}

func (e memEntry) expired(now time.Time) bool {
	return !e.exp.IsZero() && !now.Before(e.exp)
}

// Memory is a process-local Backend guarded by a single mutex. Expired
// entries are dropped lazily on access and swept every sweepEvery writes.
type Memory struct {
	mu      sync.Mutex
	clock   sysutil.Clock
	entries map[string]memEntry
	writes  uint64
}

const sweepEvery = 1000

// NewMemory returns an empty Memory backend. A nil clock uses wall time.
func NewMemory(clock sysutil.Clock) *Memory {
	if clock == nil {
		clock = sysutil.SystemClock{}
	}
	return &Memory{clock: clock, entries: make(map[string]memEntry)}
}

// Len reports the number of live entries.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.clock.Now()
	n := 0
	for _, e := range m.entries {
		if !e.expired(now) {
			n++
		}
	}
	return n
}

func (m *Memory) lookup(key string, now time.Time) (memEntry, bool) {
	e, ok := m.entries[key]
	if !ok {
		return memEntry{}, false
	}
	if e.expired(now) {
		delete(m.entries, key)
		return memEntry{}, false
	}
	return e, true
}

func (m *Memory) expiry(now time.Time, ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return now.Add(ttl)
}

// store must be called with mu held.
func (m *Memory) store(key string, e memEntry, now time.Time) {
	m.entries[key] = e
	m.writes++
	if m.writes >= sweepEvery {
		for k, v := range m.entries {
			if v.expired(now) {
				delete(m.entries, k)
			}
		}
		m.writes = 0
	}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.lookup(key, m.clock.Now())
	if !ok {
		return nil, ErrMiss
	}
	out := make([]byte, len(e.val))
	copy(out, e.val)
	return out, nil
}

func (m *Memory) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.clock.Now()
	cp := make([]byte, len(val))
	copy(cp, val)
	m.store(key, memEntry{val: cp, exp: m.expiry(now, ttl)}, now)
	return nil
}

func (m *Memory) SetNX(_ context.Context, key string, val []byte, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.clock.Now()
	if _, ok := m.lookup(key, now); ok {
		return false, nil
	}
	cp := make([]byte, len(val))
	copy(cp, val)
	m.store(key, memEntry{val: cp, exp: m.expiry(now, ttl)}, now)
	return true, nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

func (m *Memory) GetInt(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.lookup(key, m.clock.Now())
	if !ok {
		return 0, nil
	}
	return strconv.ParseInt(string(e.val), 10, 64)
}

func (m *Memory) IncrInit(_ context.Context, key string, ttl time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.incr(key, ttl, m.clock.Now())
}

func (m *Memory) IncrIfBelow(_ context.Context, key string, limit int64, ttl time.Duration) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.clock.Now()
	var cur int64
	if e, ok := m.lookup(key, now); ok {
		n, err := strconv.ParseInt(string(e.val), 10, 64)
		if err != nil {
			return 0, false, err
		}
		cur = n
	}
	if cur >= limit {
		return cur, false, nil
	}
	v, err := m.incr(key, ttl, now)
	return v, err == nil, err
}

// incr must be called with mu held.
func (m *Memory) incr(key string, ttl time.Duration, now time.Time) (int64, error) {
	e, ok := m.lookup(key, now)
	if !ok {
		m.store(key, memEntry{val: []byte("1"), exp: m.expiry(now, ttl)}, now)
		return 1, nil
	}
	n, err := strconv.ParseInt(string(e.val), 10, 64)
	if err != nil {
		return 0, err
	}
	n++
	e.val = []byte(strconv.FormatInt(n, 10))
	m.store(key, e, now)
	return n, nil
}
