// Package app assembles the trip planner: cache backend, quota guard,
// external clients, document storage and the application services. The HTTP
// layer and the server entry point only see the result.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tbourn/go-trip-backend/internal/cachestore"
	"github.com/tbourn/go-trip-backend/internal/config"
	"github.com/tbourn/go-trip-backend/internal/contentcache"
	"github.com/tbourn/go-trip-backend/internal/docstore"
	"github.com/tbourn/go-trip-backend/internal/http/handlers"
	"github.com/tbourn/go-trip-backend/internal/llm"
	"github.com/tbourn/go-trip-backend/internal/places"
	"github.com/tbourn/go-trip-backend/internal/quota"
	"github.com/tbourn/go-trip-backend/internal/render"
	"github.com/tbourn/go-trip-backend/internal/repo"
	"github.com/tbourn/go-trip-backend/internal/search"
	"github.com/tbourn/go-trip-backend/internal/services"
	"github.com/tbourn/go-trip-backend/internal/sysutil"
)

// App holds the wired services.
type App struct {
	Trips        *services.TripService
	Enrichment   *services.EnrichmentService
	Orchestrator *services.Orchestrator
	Quota        *quota.Guard
	Idempotency  handlers.IdempotencyStore

	backend cachestore.Backend
	log     zerolog.Logger

	stopJanitor context.CancelFunc
	janitorDone chan struct{}
}

// idempotencyPurgeEvery is how often expired Idempotency-Key records are
// deleted.
const idempotencyPurgeEvery = time.Hour

// Options overrides collaborators, mostly for tests. Nil fields are built
// from the configuration.
type Options struct {
	Backend cachestore.Backend
	LLM     llm.Client
	Places  places.Client
	Docs    docstore.Store
	Clock   sysutil.Clock
}

// New builds the application over db.
//
// Missing LLM or Places credentials are not fatal: generation then falls back
// to the template itinerary and enrichment only produces map links.
func New(ctx context.Context, cfg config.Config, db *gorm.DB, log zerolog.Logger, opts Options) (*App, error) {
	if db == nil {
		return nil, errors.New("app: nil database")
	}
	clock := opts.Clock
	if clock == nil {
		clock = sysutil.SystemClock{}
	}

	backend := opts.Backend
	if backend == nil {
		var err error
		if backend, err = newBackend(ctx, cfg, clock, log); err != nil {
			return nil, err
		}
	}

	guard := quota.New(backend, quota.Options{
		Limits: map[quota.Service]int64{
			quota.ServiceLLM:          cfg.Quota.LLMDailyLimit,
			quota.ServicePlaces:       cfg.Quota.PlacesDailyLimit,
			quota.ServiceAutocomplete: cfg.Quota.AutocompleteDailyLimit,
		},
		Costs: map[quota.Service]float64{
			quota.ServiceLLM:          cfg.Quota.LLMCost,
			quota.ServicePlaces:       cfg.Quota.PlacesCost,
			quota.ServiceAutocomplete: cfg.Quota.AutocompleteCost,
		},
		Location: cfg.Location(),
		Clock:    clock,
		Logger:   log,
	})
	cache := contentcache.New(backend, guard)

	llmClient := opts.LLM
	if llmClient == nil {
		llmClient = newLLMClient(cfg.LLM, log)
	}
	placesClient := opts.Places
	if placesClient == nil {
		placesClient = newPlacesClient(cfg.Places, log)
	}

	docs := opts.Docs
	if docs == nil {
		var err error
		if docs, err = newDocStore(ctx, cfg.Documents); err != nil {
			closeBackend(backend)
			return nil, err
		}
	}

	trips := services.NewTripService(db, tripRepoShim{})

	pipeline := services.NewGenerationPipeline(llmClient, cache, guard, trips, services.PipelineConfig{
		MaxAttempts: cfg.LLM.MaxAttempts,
		BackoffBase: cfg.LLM.BackoffBase,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: float32(cfg.LLM.Temperature),
		Timeout:     cfg.LLM.Timeout,
	}, log)
	if cfg.Generation.TipsPath != "" {
		idx, err := search.NewIndexFromMarkdown(cfg.Generation.TipsPath)
		if err != nil {
			// Tips only enrich prompts.
			log.Warn().Err(err).Str("path", cfg.Generation.TipsPath).Msg("travel tips unavailable")
		} else {
			pipeline.Tips = idx
			pipeline.TipCount = cfg.Generation.TipsPerRun
			log.Info().Int("tips", idx.Len()).Msg("travel tips loaded")
		}
	}

	enrichment := services.NewEnrichmentService(placesClient, cache, guard, services.EnrichmentConfig{
		MaxLocations:   cfg.Places.MaxLocations,
		MaxPhotos:      cfg.Places.MaxPhotos,
		SearchTimeout:  cfg.Places.SearchTimeout,
		DetailsTimeout: cfg.Places.DetailsTimeout,
	}, log)

	orch := services.NewOrchestrator(services.OrchestratorDeps{
		DB:       db,
		Repo:     generationRepoShim{},
		Pipeline: pipeline,
		Enricher: enrichment,
		Renderer: render.NewHTMLRenderer(),
		Docs:     docs,
		Locks:    backend,
		Quota:    guard,
		Log:      log,
	}, services.OrchestratorConfig{
		Workers:    cfg.Generation.Workers,
		LockTTL:    cfg.Generation.LockTTL,
		RunTimeout: cfg.Generation.RunTimeout,
	})

	jctx, stop := context.WithCancel(context.Background())
	a := &App{
		Trips:        trips,
		Enrichment:   enrichment,
		Orchestrator: orch,
		Quota:        guard,
		Idempotency:  idempotencyStore{db: db, ttl: cfg.IdempotencyTTL},
		backend:      backend,
		log:          log,
		stopJanitor:  stop,
		janitorDone:  make(chan struct{}),
	}
	go a.purgeIdempotency(jctx, db, clock, idempotencyPurgeEvery)
	return a, nil
}

// Shutdown drains in-flight generation runs, then releases the cache
// backend.
func (a *App) Shutdown(ctx context.Context) error {
	a.stopJanitor()
	<-a.janitorDone
	err := a.Orchestrator.Shutdown(ctx)
	closeBackend(a.backend)
	return err
}

func (a *App) purgeIdempotency(ctx context.Context, db *gorm.DB, clock sysutil.Clock, every time.Duration) {
	defer close(a.janitorDone)
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := repo.PurgeExpiredIdempotency(ctx, db, clock.Now())
			if err != nil {
				a.log.Warn().Err(err).Msg("purge idempotency keys")
				continue
			}
			if n > 0 {
				a.log.Debug().Int64("deleted", n).Msg("expired idempotency keys purged")
			}
		}
	}
}

func newBackend(ctx context.Context, cfg config.Config, clock sysutil.Clock, log zerolog.Logger) (cachestore.Backend, error) {
	if cfg.RedisURL == "" {
		log.Info().Msg("cache backend: in-process memory")
		return cachestore.NewMemory(clock), nil
	}
	r, err := cachestore.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("cache backend: %w", err)
	}
	log.Info().Msg("cache backend: redis")
	return r, nil
}

func closeBackend(b cachestore.Backend) {
	if c, ok := b.(interface{ Close() error }); ok {
		_ = c.Close()
	}
}

// newLLMClient returns nil (never a typed nil) when no key is configured.
func newLLMClient(cfg config.LLMConfig, log zerolog.Logger) llm.Client {
	c, err := llm.NewOpenAIClient(llm.OpenAIConfig{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		Timeout: cfg.Timeout,
	})
	if err != nil {
		log.Warn().Err(err).Msg("LLM client disabled; itineraries use the template fallback")
		return nil
	}
	return c
}

func newPlacesClient(cfg config.PlacesConfig, log zerolog.Logger) places.Client {
	if cfg.APIKey == "" {
		log.Warn().Msg("places client disabled; no API key")
		return nil
	}
	if cfg.PhotoKey == "" {
		log.Warn().Msg("PLACES_PHOTO_KEY unset; photo URLs carry the server key")
	}
	c, err := places.NewGoogleClient(places.GoogleConfig{APIKey: cfg.APIKey, PhotoKey: cfg.PhotoKey, RateLimit: cfg.RateLimit})
	if err != nil {
		log.Warn().Err(err).Msg("places client disabled")
		return nil
	}
	return c
}

func newDocStore(ctx context.Context, cfg config.DocumentConfig) (docstore.Store, error) {
	if cfg.S3Bucket == "" {
		return docstore.NewFileStore(cfg.Dir)
	}
	return docstore.NewS3Store(ctx, docstore.S3Config{
		Bucket:    cfg.S3Bucket,
		Region:    cfg.S3Region,
		Endpoint:  cfg.S3Endpoint,
		PathStyle: cfg.S3PathStyle,
		Prefix:    cfg.S3Prefix,
	})
}
