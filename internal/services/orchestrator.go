// Package services – Orchestrator
//
// Orchestrator owns the generation lifecycle of a trip. RequestGeneration is
// idempotent: a complete artifact short-circuits, and a short-TTL lock in
// the cache backend lets at most one run per trip be in flight. Runs execute
// on a bounded worker pool with immediate backpressure, detached from the
// request that triggered them.
//
// A run generates text, enriches locations, renders and stores the document,
// then upserts the artifact and finalizes the job. Renderer or document
// store failures never fail the run.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"
	"gorm.io/gorm"

	"github.com/tbourn/go-trip-backend/internal/docstore"
	"github.com/tbourn/go-trip-backend/internal/domain"
	"github.com/tbourn/go-trip-backend/internal/observability"
	"github.com/tbourn/go-trip-backend/internal/quota"
	"github.com/tbourn/go-trip-backend/internal/render"
	"github.com/tbourn/go-trip-backend/internal/repo"
)

// Caller-facing generation states.
const (
	StatusGenerating = "generating"
	StatusCompleted  = "completed"
	StatusError      = "error"
)

// Status is the answer of GetStatus.
type Status struct {
	State   string `json:"status"`
	Message string `json:"message,omitempty"`
}

// GenerationRepo is the persistence contract of the orchestrator.
type GenerationRepo interface {
	GetTrip(ctx context.Context, db *gorm.DB, id string) (*domain.TripSpec, error)
	GetOrCreateJob(ctx context.Context, db *gorm.DB, tripID string) (*domain.GenerationJob, error)
	GetJob(ctx context.Context, db *gorm.DB, tripID string) (*domain.GenerationJob, error)
	UpdateJob(ctx context.Context, db *gorm.DB, tripID string, u repo.JobUpdate) error
	GetArtifact(ctx context.Context, db *gorm.DB, tripID string) (*domain.Artifact, error)
	SaveArtifact(ctx context.Context, db *gorm.DB, a *domain.Artifact) error
	UpdateArtifactDocument(ctx context.Context, db *gorm.DB, tripID, key, contentType string, enr domain.Enrichments) error
}

// Generator produces itinerary text. *GenerationPipeline implements it.
type Generator interface {
	Generate(ctx context.Context, spec domain.TripSpec) (GenerationResult, error)
}

// Enricher resolves itinerary locations. *EnrichmentService implements it.
type Enricher interface {
	Enrich(ctx context.Context, text, city string) []domain.LocationEnrichment
}

// DocumentRenderer turns text and enrichments into document bytes.
type DocumentRenderer interface {
	Render(ctx context.Context, text string, enr []domain.LocationEnrichment) ([]byte, error)
	ContentType() string
}

// LockBackend provides the in-progress marker. cachestore.Backend
// implements it.
type LockBackend interface {
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, key string) error
}

// UsageReporter exposes cost accounting. *quota.Guard implements it.
type UsageReporter interface {
	DailyUsage(ctx context.Context, services ...quota.Service) quota.Usage
	HourlyUsage(ctx context.Context, hoursBack int) quota.HourlyUsage
}

// OrchestratorConfig sizes the worker pool and bounds runs.
type OrchestratorConfig struct {
	Workers    int
	LockTTL    time.Duration
	RunTimeout time.Duration
}

// OrchestratorDeps groups collaborators of the orchestrator.
type OrchestratorDeps struct {
	DB       *gorm.DB
	Repo     GenerationRepo
	Pipeline Generator
	Enricher Enricher
	Renderer DocumentRenderer
	// Degrade renders when Renderer fails; defaults to plain text.
	Degrade DocumentRenderer
	Docs    docstore.Store
	Locks   LockBackend
	Quota   UsageReporter
	Log     zerolog.Logger
}

// Orchestrator manages generation jobs.
type Orchestrator struct {
	OrchestratorDeps
	cfg OrchestratorConfig

	sem *semaphore.Weighted
	wg  sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewOrchestrator wires an orchestrator. Zero config fields get defaults.
func NewOrchestrator(deps OrchestratorDeps, cfg OrchestratorConfig) *Orchestrator {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = 10 * time.Minute
	}
	if cfg.LockTTL <= cfg.RunTimeout {
		cfg.LockTTL = cfg.RunTimeout + 2*persistTimeout
	}
	if deps.Degrade == nil {
		deps.Degrade = render.PlainTextRenderer{}
	}
	return &Orchestrator{
		OrchestratorDeps: deps,
		cfg:              cfg,
		sem:              semaphore.NewWeighted(int64(cfg.Workers)),
	}
}

func lockKey(tripID string) string { return "genlock:" + tripID }

// RequestGeneration starts a run for tripID unless its artifact is complete
// or a run is already in flight. It returns ErrBusy when every worker is
// occupied.
func (o *Orchestrator) RequestGeneration(ctx context.Context, tripID string) error {
	tr := otel.Tracer("services/Orchestrator")
	ctx, span := tr.Start(ctx, "RequestGeneration", trace.WithAttributes(observability.TripAttr(tripID)))
	defer span.End()

	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.closed {
		return ErrShuttingDown
	}

	trip, err := o.Repo.GetTrip(ctx, o.DB, tripID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrTripNotFound
		}
		return fmt.Errorf("load trip: %w", err)
	}
	if err := trip.Validate(); err != nil {
		return err
	}

	if art, err := o.Repo.GetArtifact(ctx, o.DB, tripID); err == nil && art.IsComplete() {
		span.SetAttributes(attribute.Bool("generation.skipped", true))
		return nil
	}

	acquired, err := o.Locks.SetNX(ctx, lockKey(tripID), []byte(time.Now().UTC().Format(time.RFC3339)), o.cfg.LockTTL)
	if err != nil {
		return fmt.Errorf("acquire generation lock: %w", err)
	}
	if !acquired {
		span.SetAttributes(attribute.Bool("generation.joined", true))
		return nil
	}

	if !o.sem.TryAcquire(1) {
		o.releaseLock(tripID)
		return ErrBusy
	}

	if _, err := o.Repo.GetOrCreateJob(ctx, o.DB, tripID); err != nil {
		o.sem.Release(1)
		o.releaseLock(tripID)
		return fmt.Errorf("create job: %w", err)
	}
	now := time.Now().UTC()
	zero := 0
	empty := ""
	if err := o.Repo.UpdateJob(ctx, o.DB, tripID, repo.JobUpdate{
		State:     domain.JobGenerating,
		Attempts:  &zero,
		LastError: &empty,
		StartedAt: &now,
	}); err != nil {
		o.sem.Release(1)
		o.releaseLock(tripID)
		return fmt.Errorf("mark job generating: %w", err)
	}

	o.wg.Add(1)
	runCtx := context.WithoutCancel(ctx)
	go o.run(runCtx, trip)
	return nil
}

func (o *Orchestrator) releaseLock(tripID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := o.Locks.Delete(ctx, lockKey(tripID)); err != nil {
		o.Log.Warn().Err(err).Str("trip_id", tripID).Msg("release generation lock")
	}
}

func (o *Orchestrator) run(parent context.Context, trip *domain.TripSpec) {
	start := time.Now()
	generationInflight.Inc()
	defer func() {
		generationInflight.Dec()
		generationDuration.Observe(time.Since(start).Seconds())
		o.releaseLock(trip.ID)
		o.sem.Release(1)
		o.wg.Done()
	}()

	ctx, cancel := context.WithTimeout(parent, o.cfg.RunTimeout)
	defer cancel()

	tr := otel.Tracer("services/Orchestrator")
	ctx, span := tr.Start(ctx, "Run", trace.WithAttributes(observability.TripAttr(trip.ID)))
	defer span.End()

	log := o.Log.With().Str("trip_id", trip.ID).Logger()
	result := o.execute(ctx, trip, log)
	generationRuns.WithLabelValues(result).Inc()
	log.Info().Str("result", result).Dur("took", time.Since(start)).Msg("generation run finished")
}

// execute performs one run and returns its result label.
func (o *Orchestrator) execute(ctx context.Context, trip *domain.TripSpec, log zerolog.Logger) string {
	// Another run may have finished between admission and now.
	if art, err := o.Repo.GetArtifact(ctx, o.DB, trip.ID); err == nil && art.IsComplete() {
		src := art.Source
		pctx, cancel := persistContext(ctx)
		defer cancel()
		o.finishJob(pctx, trip.ID, jobStateFor(src), 0, src, "", log)
		return "skipped"
	}

	res, err := o.Pipeline.Generate(ctx, *trip)
	if err != nil && !errors.Is(err, ErrMisconfigured) {
		msg := err.Error()
		pctx, cancel := persistContext(ctx)
		defer cancel()
		if uerr := o.Repo.UpdateJob(pctx, o.DB, trip.ID, repo.JobUpdate{State: domain.JobNotStarted, LastError: &msg}); uerr != nil {
			log.Error().Err(uerr).Msg("record failed run")
		}
		log.Warn().Err(err).Msg("generation rejected")
		return "invalid"
	}
	if err != nil {
		log.Error().Err(err).Msg("llm misconfigured; stored template itinerary")
		if res.LastError == "" {
			res.LastError = err.Error()
		}
	}

	enr := o.Enricher.Enrich(ctx, res.Text, trip.Destination)

	// The run deadline may already be spent by a slow LLM; whatever text
	// we have is still written.
	ctx, cancel := persistContext(ctx)
	defer cancel()
	key, ct := o.storeDocument(ctx, trip.ID, res.Text, enr, log)

	art := &domain.Artifact{
		TripSpecID:   trip.ID,
		ContentText:  res.Text,
		Source:       res.Source,
		Enrichments:  domain.Enrichments(enr),
		DocumentKey:  key,
		DocumentType: ct,
	}
	if err := o.Repo.SaveArtifact(ctx, o.DB, art); err != nil {
		msg := err.Error()
		log.Error().Err(err).Msg("save artifact")
		if uerr := o.Repo.UpdateJob(ctx, o.DB, trip.ID, repo.JobUpdate{State: domain.JobNotStarted, LastError: &msg}); uerr != nil {
			log.Error().Err(uerr).Msg("record failed run")
		}
		return "error"
	}

	o.finishJob(ctx, trip.ID, jobStateFor(res.Source), res.Attempts, res.Source, res.LastError, log)
	return string(res.Source)
}

// persistTimeout bounds the writes that close a run.
const persistTimeout = 10 * time.Second

// persistContext keeps ctx's values and span but not its deadline.
func persistContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
}

func jobStateFor(src domain.ContentSource) domain.JobState {
	if src == domain.SourceFallback {
		return domain.JobFailedFallback
	}
	return domain.JobCompleted
}

func (o *Orchestrator) finishJob(ctx context.Context, tripID string, state domain.JobState, attempts int, src domain.ContentSource, lastErr string, log zerolog.Logger) {
	now := time.Now().UTC()
	u := repo.JobUpdate{State: state, Source: &src, LastError: &lastErr, FinishedAt: &now}
	if attempts > 0 {
		u.Attempts = &attempts
	}
	if err := o.Repo.UpdateJob(ctx, o.DB, tripID, u); err != nil {
		log.Error().Err(err).Msg("finalize job")
	}
}

// storeDocument renders and stores the document. It returns an empty key
// when nothing could be stored.
func (o *Orchestrator) storeDocument(ctx context.Context, tripID, text string, enr []domain.LocationEnrichment, log zerolog.Logger) (string, string) {
	body, ct, err := o.render(ctx, text, enr)
	if err != nil {
		log.Error().Err(err).Msg("render document")
		return "", ""
	}
	if o.Docs == nil {
		return "", ""
	}
	key := docstore.KeyFor(tripID, ct)
	if err := o.Docs.Put(ctx, key, body, ct); err != nil {
		log.Error().Err(err).Str("key", key).Msg("store document")
		return "", ""
	}
	return key, ct
}

func (o *Orchestrator) render(ctx context.Context, text string, enr []domain.LocationEnrichment) ([]byte, string, error) {
	if o.Renderer != nil {
		body, err := o.Renderer.Render(ctx, text, enr)
		if err == nil {
			return body, o.Renderer.ContentType(), nil
		}
		o.Log.Warn().Err(&domain.RenderError{Err: err}).Msg("falling back to plain text document")
	}
	body, err := o.Degrade.Render(ctx, text, enr)
	if err != nil {
		return nil, "", &domain.RenderError{Err: err}
	}
	return body, o.Degrade.ContentType(), nil
}

// GetStatus reports the caller-facing state of tripID, starting a run when
// none is in flight and the artifact is incomplete.
func (o *Orchestrator) GetStatus(ctx context.Context, tripID string) (Status, error) {
	tr := otel.Tracer("services/Orchestrator")
	ctx, span := tr.Start(ctx, "GetStatus", trace.WithAttributes(observability.TripAttr(tripID)))
	defer span.End()

	trip, err := o.Repo.GetTrip(ctx, o.DB, tripID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return Status{State: StatusError, Message: "Trip not found"}, ErrTripNotFound
		}
		return Status{State: StatusError, Message: "Internal server error"}, err
	}
	if err := trip.Validate(); err != nil {
		return Status{State: StatusError, Message: err.Error()}, err
	}

	art, err := o.Repo.GetArtifact(ctx, o.DB, tripID)
	if err == nil && art.IsComplete() {
		return Status{State: StatusCompleted}, nil
	}
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return Status{State: StatusError, Message: "Internal server error"}, err
	}

	switch rerr := o.RequestGeneration(ctx, tripID); {
	case rerr == nil, errors.Is(rerr, ErrBusy), errors.Is(rerr, ErrShuttingDown):
		// Busy or draining: the next poll retries.
	default:
		o.Log.Warn().Err(rerr).Str("trip_id", tripID).Msg("trigger generation from status")
	}
	return Status{State: StatusGenerating}, nil
}

// GetArtifact returns the artifact of tripID.
func (o *Orchestrator) GetArtifact(ctx context.Context, tripID string) (*domain.Artifact, error) {
	art, err := o.Repo.GetArtifact(ctx, o.DB, tripID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrArtifactNotFound
		}
		return nil, err
	}
	return art, nil
}

// Job returns the generation job of tripID.
func (o *Orchestrator) Job(ctx context.Context, tripID string) (*domain.GenerationJob, error) {
	j, err := o.Repo.GetJob(ctx, o.DB, tripID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrArtifactNotFound
	}
	return j, err
}

// Document returns the stored document of tripID.
func (o *Orchestrator) Document(ctx context.Context, tripID string) ([]byte, string, error) {
	art, err := o.GetArtifact(ctx, tripID)
	if err != nil {
		return nil, "", err
	}
	if art.DocumentKey == "" || o.Docs == nil {
		return nil, "", ErrDocumentNotFound
	}
	body, ct, err := o.Docs.Get(ctx, art.DocumentKey)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, "", ErrDocumentNotFound
	}
	if err != nil {
		return nil, "", err
	}
	if art.DocumentType != "" {
		ct = art.DocumentType
	}
	return body, ct, nil
}

// RegenerateDocument re-enriches and re-renders a complete artifact and
// replaces its stored document.
func (o *Orchestrator) RegenerateDocument(ctx context.Context, tripID string) (*domain.Artifact, error) {
	tr := otel.Tracer("services/Orchestrator")
	ctx, span := tr.Start(ctx, "RegenerateDocument", trace.WithAttributes(observability.TripAttr(tripID)))
	defer span.End()

	trip, err := o.Repo.GetTrip(ctx, o.DB, tripID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrTripNotFound
		}
		return nil, err
	}
	art, err := o.GetArtifact(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if !art.IsComplete() {
		return nil, ErrArtifactNotFound
	}

	log := o.Log.With().Str("trip_id", tripID).Logger()
	enr := o.Enricher.Enrich(ctx, art.ContentText, trip.Destination)
	body, ct, err := o.render(ctx, art.ContentText, enr)
	if err != nil {
		return nil, err
	}
	if o.Docs == nil {
		return nil, ErrDocumentNotFound
	}
	key := docstore.KeyFor(tripID, ct)
	if err := o.Docs.Put(ctx, key, body, ct); err != nil {
		return nil, fmt.Errorf("store document: %w", err)
	}
	if err := o.Repo.UpdateArtifactDocument(ctx, o.DB, tripID, key, ct, domain.Enrichments(enr)); err != nil {
		return nil, err
	}
	log.Info().Str("key", key).Msg("document regenerated")

	art.DocumentKey, art.DocumentType, art.Enrichments = key, ct, domain.Enrichments(enr)
	return art, nil
}

// Usage returns today's usage snapshot.
func (o *Orchestrator) Usage(ctx context.Context) quota.Usage {
	return o.Quota.DailyUsage(ctx)
}

// Recommendations derives cost advice from today's usage.
func (o *Orchestrator) Recommendations(ctx context.Context) []string {
	return quota.Recommendations(o.Usage(ctx))
}

// HourlyUsage returns per-hour call counts for the last hoursBack hours.
func (o *Orchestrator) HourlyUsage(ctx context.Context, hoursBack int) quota.HourlyUsage {
	return o.Quota.HourlyUsage(ctx, hoursBack)
}

// Shutdown stops accepting work and waits for in-flight runs or ctx.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()

	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
