package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-trip-backend/internal/contentcache"
	"github.com/tbourn/go-trip-backend/internal/domain"
	"github.com/tbourn/go-trip-backend/internal/llm"
	"github.com/tbourn/go-trip-backend/internal/quota"
	"github.com/tbourn/go-trip-backend/internal/search"
)

const llmItinerary = "# Paris\n\n## Day 1\nMorning at the Eiffel Tower, lunch near the Louvre Museum.\n"

type recordingSleep struct{ waits []time.Duration }

func (r *recordingSleep) sleep(_ context.Context, d time.Duration) error {
	r.waits = append(r.waits, d)
	return nil
}

func newTestPipeline(t *testing.T, client llm.Client, limits map[quota.Service]int64) (*GenerationPipeline, *recordingSleep) {
	t.Helper()
	cache, guard, _ := newCache(t, limits)
	p := NewGenerationPipeline(client, cache, guard, nil, PipelineConfig{}, zerolog.Nop())
	rs := &recordingSleep{}
	p.sleep = rs.sleep
	return p, rs
}

func TestGenerate_SuccessIsCached(t *testing.T) {
	fake := &scriptedLLM{steps: []llmStep{{text: llmItinerary}}}
	p, _ := newTestPipeline(t, fake, nil)

	res, err := p.Generate(context.Background(), parisSpec())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Source != domain.SourceLLM || res.Attempts != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Text != strings.TrimSpace(llmItinerary) {
		t.Fatalf("text not trimmed: %q", res.Text)
	}

	// Whitespace and case differences hit the same entry.
	spec := parisSpec()
	spec.Destination = "  paris "
	res2, err := p.Generate(context.Background(), spec)
	if err != nil {
		t.Fatalf("Generate (cached): %v", err)
	}
	if res2.Source != domain.SourceCache || res2.Text != res.Text {
		t.Fatalf("expected cache hit, got %+v", res2)
	}
	if fake.Calls() != 1 {
		t.Fatalf("llm calls = %d, want 1", fake.Calls())
	}
}

func TestGenerate_QuotaKindFallsBackWithoutRetry(t *testing.T) {
	fake := &scriptedLLM{steps: []llmStep{{err: llmErr(llm.KindQuota)}}}
	p, rs := newTestPipeline(t, fake, nil)

	res, err := p.Generate(context.Background(), parisSpec())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Source != domain.SourceFallback || res.FallbackReason != FallbackQuota {
		t.Fatalf("unexpected result: %+v", res)
	}
	if fake.Calls() != 1 || len(rs.waits) != 0 {
		t.Fatalf("calls=%d waits=%v; quota errors must not retry", fake.Calls(), rs.waits)
	}
	if !strings.Contains(res.Text, "Daily total: $150.00 per person") {
		t.Fatalf("fallback text missing totals:\n%s", res.Text)
	}
}

func TestGenerate_TransientRetriesThenExhausts(t *testing.T) {
	fake := &scriptedLLM{steps: []llmStep{
		{err: llmErr(llm.KindTimeout)},
		{err: llmErr(llm.KindConnection)},
		{err: llmErr(llm.KindUnknown)},
	}}
	p, rs := newTestPipeline(t, fake, nil)

	res, err := p.Generate(context.Background(), parisSpec())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.FallbackReason != FallbackExhausted || res.Attempts != 3 {
		t.Fatalf("unexpected result: %+v", res)
	}
	want := []time.Duration{2 * time.Second, 4 * time.Second}
	if len(rs.waits) != len(want) || rs.waits[0] != want[0] || rs.waits[1] != want[1] {
		t.Fatalf("waits = %v, want %v", rs.waits, want)
	}
	if !strings.Contains(res.LastError, "unknown") {
		t.Fatalf("last error = %q", res.LastError)
	}
}

func TestGenerate_RecoversOnRetry(t *testing.T) {
	fake := &scriptedLLM{steps: []llmStep{{err: llmErr(llm.KindTimeout)}, {text: llmItinerary}}}
	p, rs := newTestPipeline(t, fake, nil)

	res, err := p.Generate(context.Background(), parisSpec())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Source != domain.SourceLLM || res.Attempts != 2 || len(rs.waits) != 1 {
		t.Fatalf("unexpected result: %+v waits=%v", res, rs.waits)
	}
}

func TestGenerate_DeniedByGuard(t *testing.T) {
	fake := &scriptedLLM{steps: []llmStep{{text: llmItinerary}}}
	p, _ := newTestPipeline(t, fake, map[quota.Service]int64{quota.ServiceLLM: 0})

	res, err := p.Generate(context.Background(), parisSpec())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.FallbackReason != FallbackQuota || res.Attempts != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if fake.Calls() != 0 {
		t.Fatalf("llm must not be called once the quota is spent")
	}
}

func TestGenerate_NilClientIsMisconfigured(t *testing.T) {
	p, _ := newTestPipeline(t, nil, nil)

	res, err := p.Generate(context.Background(), parisSpec())
	if !errors.Is(err, ErrMisconfigured) {
		t.Fatalf("want ErrMisconfigured, got %v", err)
	}
	if res.Source != domain.SourceFallback || res.Text == "" {
		t.Fatalf("fallback text expected, got %+v", res)
	}
}

func TestGenerate_AuthIsMisconfigured(t *testing.T) {
	fake := &scriptedLLM{steps: []llmStep{{err: llmErr(llm.KindAuth)}}}
	p, rs := newTestPipeline(t, fake, nil)

	res, err := p.Generate(context.Background(), parisSpec())
	if !errors.Is(err, ErrMisconfigured) {
		t.Fatalf("want ErrMisconfigured, got %v", err)
	}
	if res.FallbackReason != FallbackMisconfigured || len(rs.waits) != 0 {
		t.Fatalf("unexpected result: %+v waits=%v", res, rs.waits)
	}
}

func TestGenerate_EmptyCompletionFallsBack(t *testing.T) {
	fake := &scriptedLLM{steps: []llmStep{{text: "   \n"}}}
	p, _ := newTestPipeline(t, fake, nil)

	res, err := p.Generate(context.Background(), parisSpec())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.FallbackReason != FallbackEmpty || res.Source != domain.SourceFallback {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestGenerate_TruncatedCompletionIsNotCached(t *testing.T) {
	fake := &scriptedLLM{steps: []llmStep{{text: "Day 1: Paris. Enjoy!"}, {text: llmItinerary}}}
	p, _ := newTestPipeline(t, fake, nil)

	res, err := p.Generate(context.Background(), parisSpec())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.FallbackReason != FallbackEmpty || res.Source != domain.SourceFallback || !domain.IsCompleteText(res.Text) {
		t.Fatalf("unexpected result: %+v", res)
	}

	// The short text was never stored, so the next run asks the LLM again.
	res, err = p.Generate(context.Background(), parisSpec())
	if err != nil {
		t.Fatalf("second Generate: %v", err)
	}
	if res.Source != domain.SourceLLM || fake.Calls() != 2 {
		t.Fatalf("source=%s calls=%d; want llm after 2 calls", res.Source, fake.Calls())
	}
}

func TestGenerate_IgnoresShortCacheEntry(t *testing.T) {
	fake := &scriptedLLM{steps: []llmStep{{text: llmItinerary}}}
	p, _ := newTestPipeline(t, fake, nil)
	spec := parisSpec()
	spec.Normalize()
	if err := p.Cache.Set(context.Background(), contentcache.OpItinerary, ItineraryKey(spec), "Day 1: Paris."); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	res, err := p.Generate(context.Background(), parisSpec())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Source != domain.SourceLLM || fake.Calls() != 1 {
		t.Fatalf("source=%s calls=%d; short cache entry must be skipped", res.Source, fake.Calls())
	}
}

func TestGenerate_ContextExpiryFallsBack(t *testing.T) {
	fake := &scriptedLLM{steps: []llmStep{{text: llmItinerary}}, gate: make(chan struct{})}
	p, _ := newTestPipeline(t, fake, nil)
	p.sleep = sleepCtx

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	res, err := p.Generate(ctx, parisSpec())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Source != domain.SourceFallback || res.FallbackReason != FallbackExhausted || res.LastError == "" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if fake.Calls() != 1 {
		t.Fatalf("llm calls = %d, want 1", fake.Calls())
	}
}

func TestGenerate_InvalidSpec(t *testing.T) {
	fake := &scriptedLLM{steps: []llmStep{{text: llmItinerary}}}
	p, _ := newTestPipeline(t, fake, nil)

	spec := parisSpec()
	spec.DurationDays = 0
	_, err := p.Generate(context.Background(), spec)
	if !domain.IsValidation(err) {
		t.Fatalf("want validation error, got %v", err)
	}
	if fake.Calls() != 0 {
		t.Fatal("invalid specs must not reach the llm")
	}
}

func TestBackoff(t *testing.T) {
	if got := backoff(1, time.Second); got != 2*time.Second {
		t.Fatalf("backoff(1) = %v", got)
	}
	if got := backoff(3, 100*time.Millisecond); got != 800*time.Millisecond {
		t.Fatalf("backoff(3) = %v", got)
	}
}

type stubContext struct{}

func (stubContext) RecentHistory(context.Context, string, int) ([]domain.TripHistory, error) {
	r := 5
	return []domain.TripHistory{{Destination: "Lisbon", Rating: &r}}, nil
}

func (stubContext) Landmarks(context.Context, string, int) ([]domain.Landmark, error) {
	return []domain.Landmark{{Name: "Sainte-Chapelle", Category: "church"}}, nil
}

func TestUserPrompt_IncludesContext(t *testing.T) {
	p := NewGenerationPipeline(nil, nil, nil, stubContext{}, PipelineConfig{}, zerolog.Nop())
	spec := parisSpec()
	spec.Country = "france"
	prompt := p.userPrompt(context.Background(), spec)

	for _, want := range []string{"3-day trip plan for Paris, France", "$150.00 per person per day", "Lisbon", "Sainte-Chapelle"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestUserPrompt_IncludesLocalTips(t *testing.T) {
	idx := search.NewIndexFromSections([]search.Section{
		{Destination: "Paris", Paragraphs: []string{
			"Museums are free on the first Sunday of the month.",
			"Buy a Navigo Easy card for metro rides.",
		}},
		{Destination: "Rome", Paragraphs: []string{"Validate bus tickets on board."}},
	})
	p := NewGenerationPipeline(nil, nil, nil, nil, PipelineConfig{}, zerolog.Nop())
	p.Tips = idx
	p.TipCount = 1

	spec := parisSpec()
	spec.Interests = "museums"
	prompt := p.userPrompt(context.Background(), spec)

	if !strings.Contains(prompt, "Local tips to weave in:\n- Museums are free") {
		t.Fatalf("prompt missing ranked tip:\n%s", prompt)
	}
	if strings.Contains(prompt, "Navigo") || strings.Contains(prompt, "Validate bus") {
		t.Fatalf("prompt holds more tips than requested:\n%s", prompt)
	}
}
