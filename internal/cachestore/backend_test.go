package cachestore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbourn/go-trip-backend/internal/sysutil"
)

// harness pairs a backend with a way to move its notion of time forward.
type harness struct {
	name    string
	backend Backend
	advance func(time.Duration)
}

func backends(t *testing.T) []harness {
	t.Helper()

	clock := sysutil.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	mem := NewMemory(clock)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return []harness{
		{name: "memory", backend: mem, advance: clock.Advance},
		{name: "redis", backend: NewRedisFromClient(client), advance: mr.FastForward},
	}
}

func TestBackend_GetSetAndExpiry(t *testing.T) {
	ctx := context.Background()
	for _, h := range backends(t) {
		t.Run(h.name, func(t *testing.T) {
			_, err := h.backend.Get(ctx, "k")
			require.ErrorIs(t, err, ErrMiss)

			require.NoError(t, h.backend.Set(ctx, "k", []byte("v"), time.Hour))

			h.advance(time.Hour - time.Second)
			got, err := h.backend.Get(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, "v", string(got))

			h.advance(2 * time.Second)
			_, err = h.backend.Get(ctx, "k")
			assert.ErrorIs(t, err, ErrMiss)
		})
	}
}

func TestBackend_SetNX(t *testing.T) {
	ctx := context.Background()
	for _, h := range backends(t) {
		t.Run(h.name, func(t *testing.T) {
			ok, err := h.backend.SetNX(ctx, "lock", []byte("a"), time.Minute)
			require.NoError(t, err)
			assert.True(t, ok)

			ok, err = h.backend.SetNX(ctx, "lock", []byte("b"), time.Minute)
			require.NoError(t, err)
			assert.False(t, ok, "second SetNX must not win")

			require.NoError(t, h.backend.Delete(ctx, "lock"))
			ok, err = h.backend.SetNX(ctx, "lock", []byte("c"), time.Minute)
			require.NoError(t, err)
			assert.True(t, ok)

			h.advance(time.Minute + time.Second)
			ok, err = h.backend.SetNX(ctx, "lock", []byte("d"), time.Minute)
			require.NoError(t, err)
			assert.True(t, ok, "expired lock is free again")
		})
	}
}

func TestBackend_IncrInitAppliesTTLOnCreate(t *testing.T) {
	ctx := context.Background()
	for _, h := range backends(t) {
		t.Run(h.name, func(t *testing.T) {
			n, err := h.backend.IncrInit(ctx, "c", 10*time.Second)
			require.NoError(t, err)
			assert.EqualValues(t, 1, n)

			h.advance(5 * time.Second)
			n, err = h.backend.IncrInit(ctx, "c", 10*time.Second)
			require.NoError(t, err)
			assert.EqualValues(t, 2, n)

			// TTL is not refreshed by later increments.
			h.advance(6 * time.Second)
			got, err := h.backend.GetInt(ctx, "c")
			require.NoError(t, err)
			assert.EqualValues(t, 0, got)
		})
	}
}

func TestBackend_IncrIfBelow(t *testing.T) {
	ctx := context.Background()
	for _, h := range backends(t) {
		t.Run(h.name, func(t *testing.T) {
			for i := int64(1); i <= 3; i++ {
				v, ok, err := h.backend.IncrIfBelow(ctx, "q", 3, time.Hour)
				require.NoError(t, err)
				assert.True(t, ok)
				assert.Equal(t, i, v)
			}
			v, ok, err := h.backend.IncrIfBelow(ctx, "q", 3, time.Hour)
			require.NoError(t, err)
			assert.False(t, ok)
			assert.EqualValues(t, 3, v)
		})
	}
}

func TestBackend_IncrIfBelow_ConcurrentAdmitsExactlyLimit(t *testing.T) {
	ctx := context.Background()
	for _, h := range backends(t) {
		t.Run(h.name, func(t *testing.T) {
			const limit = 10
			var (
				wg       sync.WaitGroup
				mu       sync.Mutex
				admitted int
			)
			for i := 0; i < 40; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, ok, err := h.backend.IncrIfBelow(ctx, "race", limit, time.Hour)
					if err == nil && ok {
						mu.Lock()
						admitted++
						mu.Unlock()
					}
				}()
			}
			wg.Wait()
			assert.Equal(t, limit, admitted)
		})
	}
}

func TestNewRedis_Errors(t *testing.T) {
	_, err := NewRedis(context.Background(), "http://localhost:6379")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse")

	mr := miniredis.RunT(t)
	r, err := NewRedis(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	require.NoError(t, r.Close())
}

func TestMemory_SweepDropsExpired(t *testing.T) {
	clock := sysutil.NewFakeClock(time.Unix(0, 0))
	m := NewMemory(clock)
	ctx := context.Background()
	_ = m.Set(ctx, "old", []byte("x"), time.Second)
	clock.Advance(2 * time.Second)
	for i := 0; i < sweepEvery; i++ {
		_ = m.Set(ctx, "k", []byte("y"), 0)
	}
	m.mu.Lock()
	_, stillThere := m.entries["old"]
	m.mu.Unlock()
	assert.False(t, stillThere)
	assert.Equal(t, 1, m.Len())
}
