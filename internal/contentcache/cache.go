// Package contentcache stores the results of expensive lookups (itineraries,
// place details, autocomplete suggestions) under deterministic fingerprints,
// with a TTL chosen per operation. Negative results are cached too so a
// missing place is not searched again for an hour.
package contentcache

import (
	"context"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	json "github.com/goccy/go-json"

	"github.com/tbourn/go-trip-backend/internal/cachestore"
)

// Operation names a cached lookup kind. It prefixes every key.
type Operation string

const (
	OpItinerary    Operation = "itinerary"
	OpPlaceDetails Operation = "place_details"
	OpAutocomplete Operation = "autocomplete"
)

// TTL policy.
const (
	TTLNegative     = time.Hour
	TTLAutocomplete = 24 * time.Hour
	TTLItinerary    = 72 * time.Hour
	TTLPlaceDetails = 7 * 24 * time.Hour
)

// TTLFor returns the positive-entry TTL for op.
func TTLFor(op Operation) time.Duration {
	switch op {
	case OpPlaceDetails:
		return TTLPlaceDetails
	case OpAutocomplete:
		return TTLAutocomplete
	case OpItinerary:
		return TTLItinerary
	default:
		return TTLNegative
	}
}

// Status is the outcome of a lookup.
type Status int

const (
	Miss Status = iota
	Hit
	NegativeHit
)

func (s Status) String() string {
	switch s {
	case Hit:
		return "hit"
	case NegativeHit:
		return "negative_hit"
	default:
		return "miss"
	}
}

// StatsRecorder receives hit/miss notifications. *quota.Guard satisfies it.
type StatsRecorder interface {
	TrackCacheHit(ctx context.Context)
	TrackCacheMiss(ctx context.Context)
}

type envelope struct {
	Value    json.RawMessage `json:"v,omitempty"`
	Negative bool            `json:"nf,omitempty"`
	StoredAt time.Time       `json:"at"`
}

// Cache is a typed view over a cachestore.Backend.
type Cache struct {
	backend cachestore.Backend
	stats   StatsRecorder
	now     func() time.Time
}

// New returns a Cache. stats may be nil.
func New(backend cachestore.Backend, stats StatsRecorder) *Cache {
	return &Cache{backend: backend, stats: stats, now: time.Now}
}

// Fingerprint derives the cache key for op over args. Arguments are trimmed,
// lowercased and whitespace-collapsed; their order is significant.
func Fingerprint(op Operation, args ...string) string {
	h := xxhash.New()
	_, _ = h.WriteString(string(op))
	for _, a := range args {
		_, _ = h.Write([]byte{0x1f})
		_, _ = h.WriteString(normalize(a))
	}
	var sum [8]byte
	return "cc:" + string(op) + ":" + hex.EncodeToString(h.Sum(sum[:0]))
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// Get looks key up and decodes a positive value into dst. Undecodable or
// missing entries are reported as Miss. Backend errors are returned along
// with Miss so callers can carry on uncached.
func (c *Cache) Get(ctx context.Context, key string, dst any) (Status, error) {
	st, err := c.get(ctx, key, dst)
	lookups.WithLabelValues(opOf(key), st.String()).Inc()
	if c.stats != nil {
		if st == Miss {
			c.stats.TrackCacheMiss(ctx)
		} else {
			c.stats.TrackCacheHit(ctx)
		}
	}
	return st, err
}

func (c *Cache) get(ctx context.Context, key string, dst any) (Status, error) {
	raw, err := c.backend.Get(ctx, key)
	if errors.Is(err, cachestore.ErrMiss) {
		return Miss, nil
	}
	if err != nil {
		return Miss, err
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Miss, nil
	}
	if env.Negative {
		return NegativeHit, nil
	}
	if dst != nil {
		if err := json.Unmarshal(env.Value, dst); err != nil {
			return Miss, nil
		}
	}
	return Hit, nil
}

// Set stores value under key with the TTL policy of op.
func (c *Cache) Set(ctx context.Context, op Operation, key string, value any) error {
	return c.SetWithTTL(ctx, key, value, TTLFor(op))
}

// SetWithTTL stores value under key for ttl.
func (c *Cache) SetWithTTL(ctx context.Context, key string, value any, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.put(ctx, key, envelope{Value: b, StoredAt: c.now().UTC()}, ttl)
}

// SetNegative records that key has no result, for TTLNegative.
func (c *Cache) SetNegative(ctx context.Context, key string) error {
	return c.put(ctx, key, envelope{Negative: true, StoredAt: c.now().UTC()}, TTLNegative)
}

// Invalidate drops key.
func (c *Cache) Invalidate(ctx context.Context, key string) error {
	return c.backend.Delete(ctx, key)
}

func (c *Cache) put(ctx context.Context, key string, env envelope, ttl time.Duration) error {
	b, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return c.backend.Set(ctx, key, b, ttl)
}

// opOf extracts the operation segment from a "cc:<op>:<hash>" key.
func opOf(key string) string {
	parts := strings.SplitN(key, ":", 3)
	if len(parts) == 3 && parts[0] == "cc" {
		return parts[1]
	}
	return "other"
}
