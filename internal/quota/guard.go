// Package quota implements per-service daily admission control and cost
// accounting for paid external APIs. Counters live in a cachestore.Backend so
// that every worker, and every server process sharing a Redis backend, draws
// from the same daily budget.
//
// Backend failures never block callers: admission fails open and tracking is
// skipped, both with a warning.
package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/tbourn/go-trip-backend/internal/cachestore"
	"github.com/tbourn/go-trip-backend/internal/sysutil"
)

// Service names a paid external API.
type Service string

const (
	ServiceLLM          Service = "llm"
	ServicePlaces       Service = "places"
	ServiceAutocomplete Service = "places_autocomplete"
)

// AllServices lists every tracked service in reporting order.
var AllServices = []Service{ServiceLLM, ServicePlaces, ServiceAutocomplete}

const (
	DefaultDailyLimit int64 = 100

	hourlyTTL     = 25 * time.Hour
	cacheStatsTTL = 24 * time.Hour

	keyCacheHits   = "quota:cache:hits"
	keyCacheMisses = "quota:cache:misses"
)

var defaultCosts = map[Service]float64{
	ServiceLLM:          0.002,
	ServicePlaces:       0.005,
	ServiceAutocomplete: 0.005,
}

// Options configures a Guard. Zero values fall back to defaults.
type Options struct {
	Limits   map[Service]int64
	Costs    map[Service]float64
	Location *time.Location
	Clock    sysutil.Clock
	Logger   zerolog.Logger
}

// Guard enforces daily call limits. It is safe for concurrent use.
type Guard struct {
	backend cachestore.Backend
	limits  map[Service]int64
	costs   map[Service]float64
	loc     *time.Location
	clock   sysutil.Clock
	log     zerolog.Logger
}

// New builds a Guard over backend.
func New(backend cachestore.Backend, opts Options) *Guard {
	g := &Guard{
		backend: backend,
		limits:  make(map[Service]int64, len(AllServices)),
		costs:   make(map[Service]float64, len(AllServices)),
		loc:     opts.Location,
		clock:   opts.Clock,
		log:     opts.Logger.With().Str("component", "quota").Logger(),
	}
	if g.loc == nil {
		g.loc = time.UTC
	}
	if g.clock == nil {
		g.clock = sysutil.SystemClock{}
	}
	for _, s := range AllServices {
		g.limits[s] = DefaultDailyLimit
		g.costs[s] = defaultCosts[s]
	}
	for s, l := range opts.Limits {
		g.limits[s] = l
	}
	for s, c := range opts.Costs {
		g.costs[s] = c
	}
	return g
}

// Limit returns the configured daily limit for svc.
func (g *Guard) Limit(svc Service) int64 {
	if l, ok := g.limits[svc]; ok {
		return l
	}
	return DefaultDailyLimit
}

func (g *Guard) dailyKey(svc Service, now time.Time) string {
	return fmt.Sprintf("quota:daily:%s:%s", svc, sysutil.DayKey(now, g.loc))
}

func (g *Guard) hourlyKey(svc Service, now time.Time) string {
	return fmt.Sprintf("quota:hourly:%s:%s", svc, now.In(g.loc).Format("2006010215"))
}

// ShouldAllow reports whether today's counter for svc is below its limit. It
// performs a single read and does not reserve capacity; use Acquire right
// before the external call.
func (g *Guard) ShouldAllow(ctx context.Context, svc Service) bool {
	n, err := g.backend.GetInt(ctx, g.dailyKey(svc, g.clock.Now()))
	if err != nil {
		backendErrors.WithLabelValues("read").Inc()
		g.log.Warn().Err(err).Str("service", string(svc)).Msg("quota read failed; allowing")
		return true
	}
	return n < g.Limit(svc)
}

// Acquire atomically admits and records one call to svc. It returns false
// once the daily limit is reached; concurrent callers can never push the
// counter past the limit.
func (g *Guard) Acquire(ctx context.Context, svc Service) bool {
	now := g.clock.Now()
	_, ok, err := g.backend.IncrIfBelow(ctx, g.dailyKey(svc, now), g.Limit(svc), sysutil.UntilMidnight(now, g.loc))
	if err != nil {
		backendErrors.WithLabelValues("acquire").Inc()
		g.log.Warn().Err(err).Str("service", string(svc)).Msg("quota acquire failed; allowing")
		return true
	}
	if !ok {
		deniedTotal.WithLabelValues(string(svc)).Inc()
		g.log.Info().Str("service", string(svc)).Int64("limit", g.Limit(svc)).Msg("daily quota exhausted")
		return false
	}
	callsTotal.WithLabelValues(string(svc)).Inc()
	g.trackHourly(ctx, svc, now)
	return true
}

// TrackCall records one call to svc without admission control and returns
// the new daily count (0 when the backend failed).
func (g *Guard) TrackCall(ctx context.Context, svc Service) int64 {
	now := g.clock.Now()
	n, err := g.backend.IncrInit(ctx, g.dailyKey(svc, now), sysutil.UntilMidnight(now, g.loc))
	if err != nil {
		backendErrors.WithLabelValues("track").Inc()
		g.log.Warn().Err(err).Str("service", string(svc)).Msg("quota tracking failed")
		return 0
	}
	callsTotal.WithLabelValues(string(svc)).Inc()
	g.trackHourly(ctx, svc, now)
	return n
}

// TrackHourly records one call to svc in the current hourly bucket.
func (g *Guard) TrackHourly(ctx context.Context, svc Service) {
	g.trackHourly(ctx, svc, g.clock.Now())
}

func (g *Guard) trackHourly(ctx context.Context, svc Service, now time.Time) {
	if _, err := g.backend.IncrInit(ctx, g.hourlyKey(svc, now), hourlyTTL); err != nil {
		backendErrors.WithLabelValues("hourly").Inc()
		g.log.Warn().Err(err).Str("service", string(svc)).Msg("hourly tracking failed")
	}
}

// TrackCacheHit increments the global cache hit counter.
func (g *Guard) TrackCacheHit(ctx context.Context) { g.trackCache(ctx, keyCacheHits) }

// TrackCacheMiss increments the global cache miss counter.
func (g *Guard) TrackCacheMiss(ctx context.Context) { g.trackCache(ctx, keyCacheMisses) }

func (g *Guard) trackCache(ctx context.Context, key string) {
	if _, err := g.backend.IncrInit(ctx, key, cacheStatsTTL); err != nil {
		backendErrors.WithLabelValues("cache_stats").Inc()
		g.log.Warn().Err(err).Str("key", key).Msg("cache stats tracking failed")
	}
}

// CacheStats summarizes content cache effectiveness.
type CacheStats struct {
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate"` // hits / (hits + misses), 0 when both are zero
}

// CacheStats reads the global hit/miss counters.
func (g *Guard) CacheStats(ctx context.Context) CacheStats {
	hits := g.readInt(ctx, keyCacheHits)
	misses := g.readInt(ctx, keyCacheMisses)
	st := CacheStats{Hits: hits, Misses: misses}
	if total := hits + misses; total > 0 {
		st.HitRate = float64(hits) / float64(total)
	}
	return st
}

func (g *Guard) readInt(ctx context.Context, key string) int64 {
	n, err := g.backend.GetInt(ctx, key)
	if err != nil {
		backendErrors.WithLabelValues("read").Inc()
		g.log.Warn().Err(err).Str("key", key).Msg("quota read failed")
		return 0
	}
	return n
}

// ServiceUsage is one service's share of today's budget.
type ServiceUsage struct {
	Calls         int64   `json:"calls"`
	Limit         int64   `json:"limit"`
	Remaining     int64   `json:"remaining"`
	EstimatedCost float64 `json:"estimated_cost"`
}

// Usage is a point-in-time snapshot of today's spend.
type Usage struct {
	Date      string                   `json:"date"`
	Services  map[Service]ServiceUsage `json:"services"`
	TotalCost float64                  `json:"total_cost"`
	Cache     CacheStats               `json:"cache"`
}

// DailyUsage reports today's usage for the given services, or for all
// services when none are named.
func (g *Guard) DailyUsage(ctx context.Context, services ...Service) Usage {
	if len(services) == 0 {
		services = AllServices
	}
	now := g.clock.Now()
	u := Usage{
		Date:     sysutil.DayKey(now, g.loc),
		Services: make(map[Service]ServiceUsage, len(services)),
		Cache:    g.CacheStats(ctx),
	}
	total := decimal.Zero
	for _, svc := range services {
		calls := g.readInt(ctx, g.dailyKey(svc, now))
		cost := decimal.NewFromFloat(g.costs[svc]).Mul(decimal.NewFromInt(calls)).Round(4)
		total = total.Add(cost)
		remaining := g.Limit(svc) - calls
		if remaining < 0 {
			remaining = 0
		}
		u.Services[svc] = ServiceUsage{
			Calls:         calls,
			Limit:         g.Limit(svc),
			Remaining:     remaining,
			EstimatedCost: cost.InexactFloat64(),
		}
	}
	u.TotalCost = total.Round(4).InexactFloat64()
	return u
}

// HourlyUsage holds per-service counts for the trailing hours, oldest first.
type HourlyUsage struct {
	Labels []string            `json:"labels"`
	Series map[Service][]int64 `json:"series"`
}

// HourlyUsage reports call counts for the last hoursBack hours (1..24).
func (g *Guard) HourlyUsage(ctx context.Context, hoursBack int) HourlyUsage {
	if hoursBack < 1 {
		hoursBack = 1
	}
	if hoursBack > 24 {
		hoursBack = 24
	}
	now := g.clock.Now()
	out := HourlyUsage{
		Labels: make([]string, 0, hoursBack),
		Series: make(map[Service][]int64, len(AllServices)),
	}
	for i := hoursBack - 1; i >= 0; i-- {
		at := now.Add(-time.Duration(i) * time.Hour)
		if i == 0 {
			out.Labels = append(out.Labels, "Now")
		} else {
			out.Labels = append(out.Labels, fmt.Sprintf("%dh ago", i))
		}
		for _, svc := range AllServices {
			out.Series[svc] = append(out.Series[svc], g.readInt(ctx, g.hourlyKey(svc, at)))
		}
	}
	return out
}
