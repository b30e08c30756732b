// Package services – GenerationPipeline
//
// GenerationPipeline turns a TripSpec into itinerary text. It consults the
// content cache first, asks QuotaGuard for admission before every LLM
// attempt, retries transient failures with exponential backoff and, when the
// paid path is unavailable, returns the deterministic template itinerary.
// Callers therefore always get usable text.
package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-trip-backend/internal/contentcache"
	"github.com/tbourn/go-trip-backend/internal/domain"
	"github.com/tbourn/go-trip-backend/internal/llm"
	"github.com/tbourn/go-trip-backend/internal/observability"
	"github.com/tbourn/go-trip-backend/internal/quota"
)

// Admission is the QuotaGuard contract used before paid calls.
type Admission interface {
	Acquire(ctx context.Context, svc quota.Service) bool
}

// ContentCache is the subset of *contentcache.Cache the services use.
type ContentCache interface {
	Get(ctx context.Context, key string, dst any) (contentcache.Status, error)
	Set(ctx context.Context, op contentcache.Operation, key string, value any) error
	SetNegative(ctx context.Context, key string) error
}

// FallbackReason says why the template generator was used.
type FallbackReason string

const (
	FallbackNone          FallbackReason = ""
	FallbackQuota         FallbackReason = "quota"
	FallbackExhausted     FallbackReason = "exhausted"
	FallbackEmpty         FallbackReason = "empty"
	FallbackMisconfigured FallbackReason = "misconfigured"
)

// GenerationResult is the final state of one Generate call.
type GenerationResult struct {
	Text           string
	Source         domain.ContentSource
	Attempts       int
	FallbackReason FallbackReason
	LastError      string
}

// PipelineConfig tunes the LLM path.
type PipelineConfig struct {
	MaxAttempts int
	BackoffBase time.Duration
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
}

// DefaultPipelineConfig mirrors the production defaults.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		MaxAttempts: 3,
		BackoffBase: time.Second,
		MaxTokens:   2500,
		Temperature: 0.7,
		Timeout:     120 * time.Second,
	}
}

// GenerationPipeline produces itinerary text for a TripSpec.
type GenerationPipeline struct {
	LLM     llm.Client
	Cache   ContentCache
	Quota   Admission
	Context PromptContextSource
	Config  PipelineConfig
	Log     zerolog.Logger

	// Tips is an optional local-tips knowledge base.
	Tips     TipSource
	TipCount int

	// sleep waits between attempts; tests replace it.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewGenerationPipeline wires a pipeline. client may be nil when no LLM
// credentials are configured; Generate then reports ErrMisconfigured and
// falls back.
func NewGenerationPipeline(client llm.Client, cache ContentCache, q Admission, pc PromptContextSource, cfg PipelineConfig, log zerolog.Logger) *GenerationPipeline {
	def := DefaultPipelineConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = def.BackoffBase
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = def.MaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	return &GenerationPipeline{
		LLM:     client,
		Cache:   cache,
		Quota:   q,
		Context: pc,
		Config:  cfg,
		Log:     log,
		sleep:   sleepCtx,
	}
}

// ItineraryKey fingerprints the complete normalized spec.
func ItineraryKey(spec domain.TripSpec) string {
	return contentcache.Fingerprint(contentcache.OpItinerary,
		spec.Destination,
		spec.Country,
		strconv.Itoa(spec.DurationDays),
		spec.TotalBudget.StringFixed(2),
		strconv.Itoa(spec.TravelerCount),
		spec.Interests,
		spec.TransportPref,
		spec.ExperienceStyle,
	)
}

// Generate returns itinerary text for spec. The only errors are a
// *domain.ValidationError (no text) and ErrMisconfigured (fallback text is
// still returned).
func (p *GenerationPipeline) Generate(ctx context.Context, spec domain.TripSpec) (GenerationResult, error) {
	tr := otel.Tracer("services/GenerationPipeline")
	ctx, span := tr.Start(ctx, "Generate", trace.WithAttributes(
		observability.TripAttr(spec.ID),
		attribute.String("trip.destination", spec.Destination),
	))
	defer span.End()

	spec.Normalize()
	if err := spec.Validate(); err != nil {
		return GenerationResult{}, err
	}
	log := p.Log.With().Str("trip_id", spec.ID).Logger()

	key := ItineraryKey(spec)
	if p.Cache != nil {
		var cached string
		st, err := p.Cache.Get(ctx, key, &cached)
		if err != nil {
			log.Warn().Err(err).Msg("itinerary cache lookup failed")
		} else if st == contentcache.Hit && domain.IsCompleteText(cached) {
			span.SetAttributes(attribute.String("generation.source", string(domain.SourceCache)))
			return GenerationResult{Text: cached, Source: domain.SourceCache}, nil
		}
	}

	if p.LLM == nil {
		res := p.fallback(spec, FallbackMisconfigured, 0, "llm client not configured")
		return res, ErrMisconfigured
	}

	req := llm.Request{
		SystemPrompt: systemPrompt,
		UserPrompt:   p.userPrompt(ctx, spec),
		MaxTokens:    p.Config.MaxTokens,
		Temperature:  p.Config.Temperature,
		Timeout:      p.Config.Timeout,
	}

	var lastErr error
	attempts := 0
	for attempt := 1; attempt <= p.Config.MaxAttempts; attempt++ {
		if p.Quota != nil && !p.Quota.Acquire(ctx, quota.ServiceLLM) {
			llmAttempts.WithLabelValues("denied").Inc()
			log.Info().Int("attempt", attempt).Msg("llm quota exhausted, using template itinerary")
			return p.fallback(spec, FallbackQuota, attempts, errString(lastErr, domain.ErrQuotaExceeded)), nil
		}
		attempts++

		resp, err := p.LLM.Complete(ctx, req)
		if err == nil {
			text := strings.TrimSpace(resp.Text)
			if !domain.IsCompleteText(text) {
				llmAttempts.WithLabelValues("empty").Inc()
				log.Warn().Int("attempt", attempt).Int("chars", len(text)).Msg("llm returned unusable completion")
				return p.fallback(spec, FallbackEmpty, attempts, "empty or truncated completion"), nil
			}
			llmAttempts.WithLabelValues("success").Inc()
			if p.Cache != nil {
				if cerr := p.Cache.Set(ctx, contentcache.OpItinerary, key, text); cerr != nil {
					log.Warn().Err(cerr).Msg("itinerary cache store failed")
				}
			}
			span.SetAttributes(
				attribute.String("generation.source", string(domain.SourceLLM)),
				attribute.Int("generation.attempts", attempts),
			)
			return GenerationResult{Text: text, Source: domain.SourceLLM, Attempts: attempts}, nil
		}

		lastErr = err
		kind := llm.KindOf(err)
		llmAttempts.WithLabelValues(string(kind)).Inc()
		log.Warn().Err(err).Int("attempt", attempt).Str("kind", string(kind)).Msg("llm attempt failed")

		if !kind.Retryable() {
			if kind == llm.KindAuth {
				return p.fallback(spec, FallbackMisconfigured, attempts, err.Error()), fmt.Errorf("%w: %v", ErrMisconfigured, err)
			}
			return p.fallback(spec, FallbackQuota, attempts, err.Error()), nil
		}

		if attempt < p.Config.MaxAttempts {
			wait := backoff(attempt, p.Config.BackoffBase)
			if serr := p.sleep(ctx, wait); serr != nil {
				break
			}
		}
	}
	return p.fallback(spec, FallbackExhausted, attempts, errString(lastErr, nil)), nil
}

func (p *GenerationPipeline) fallback(spec domain.TripSpec, reason FallbackReason, attempts int, lastErr string) GenerationResult {
	generationFallbacks.WithLabelValues(string(reason)).Inc()
	return GenerationResult{
		Text:           TemplateFallbackGenerator(spec),
		Source:         domain.SourceFallback,
		Attempts:       attempts,
		FallbackReason: reason,
		LastError:      lastErr,
	}
}

func (p *GenerationPipeline) userPrompt(ctx context.Context, spec domain.TripSpec) string {
	var (
		history   []domain.TripHistory
		landmarks []domain.Landmark
	)
	if p.Context != nil {
		var err error
		if spec.UserID != "" {
			if history, err = p.Context.RecentHistory(ctx, spec.UserID, historyLimit); err != nil {
				p.Log.Debug().Err(err).Msg("travel history unavailable")
			}
		}
		if landmarks, err = p.Context.Landmarks(ctx, spec.Destination, landmarkLimit); err != nil {
			p.Log.Debug().Err(err).Msg("landmarks unavailable")
		}
	}
	var tips []string
	if p.Tips != nil {
		n := p.TipCount
		if n <= 0 {
			n = defaultTipCount
		}
		for _, t := range p.Tips.TopK(spec.Destination, spec.Interests, n) {
			tips = append(tips, t.Snippet)
		}
	}
	return buildUserPrompt(spec, history, landmarks, tips)
}

// backoff returns 2^attempt * base.
func backoff(attempt int, base time.Duration) time.Duration {
	return time.Duration(1<<uint(attempt)) * base
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func errString(err, def error) string {
	switch {
	case err != nil:
		return err.Error()
	case def != nil:
		return def.Error()
	}
	return ""
}
