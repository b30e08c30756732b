package repo

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tbourn/go-trip-backend/internal/domain"
)

func TestGetOrCreateJob_CreatesOnceAndReuses(t *testing.T) {
	db := newTestDB(t, &domain.GenerationJob{})
	ctx := context.Background()

	j1, err := GetOrCreateJob(ctx, db, "t1")
	if err != nil {
		t.Fatalf("GetOrCreateJob: %v", err)
	}
	if j1.State != domain.JobNotStarted || j1.TripSpecID != "t1" {
		t.Fatalf("unexpected job: %+v", j1)
	}

	j2, err := GetOrCreateJob(ctx, db, "t1")
	if err != nil {
		t.Fatalf("GetOrCreateJob (2): %v", err)
	}
	if j2.ID != j1.ID {
		t.Fatalf("expected same job, got %s vs %s", j1.ID, j2.ID)
	}
}

func TestGetOrCreateJob_ConcurrentCallersConverge(t *testing.T) {
	db := newTestDB(t, &domain.GenerationJob{})
	ctx := context.Background()

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids = map[string]struct{}{}
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			j, err := GetOrCreateJob(ctx, db, "t1")
			if err != nil {
				t.Errorf("GetOrCreateJob: %v", err)
				return
			}
			mu.Lock()
			ids[j.ID] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(ids) != 1 {
		t.Fatalf("expected a single job id, got %d", len(ids))
	}
	var n int64
	db.Model(&domain.GenerationJob{}).Where("trip_spec_id = ?", "t1").Count(&n)
	if n != 1 {
		t.Fatalf("expected 1 row, got %d", n)
	}
}

func TestUpdateJob_AppliesFieldsAndMissing(t *testing.T) {
	db := newTestDB(t, &domain.GenerationJob{})
	ctx := context.Background()
	if _, err := GetOrCreateJob(ctx, db, "t1"); err != nil {
		t.Fatalf("GetOrCreateJob: %v", err)
	}

	attempts := 2
	src := domain.SourceFallback
	msg := "timeout"
	now := time.Now().UTC()
	err := UpdateJob(ctx, db, "t1", JobUpdate{
		State:      domain.JobFailedFallback,
		Attempts:   &attempts,
		Source:     &src,
		LastError:  &msg,
		FinishedAt: &now,
	})
	if err != nil {
		t.Fatalf("UpdateJob: %v", err)
	}

	j, err := GetJob(ctx, db, "t1")
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if j.State != domain.JobFailedFallback || j.Attempts != 2 || j.Source != domain.SourceFallback || j.LastError != "timeout" || j.FinishedAt == nil {
		t.Fatalf("unexpected job after update: %+v", j)
	}
	if j.StartedAt != nil {
		t.Fatalf("StartedAt should be untouched, got %v", j.StartedAt)
	}

	if err := UpdateJob(ctx, db, "missing", JobUpdate{State: domain.JobGenerating}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveArtifact_UpsertsAndUpdatesDocument(t *testing.T) {
	db := newTestDB(t, &domain.Artifact{})
	ctx := context.Background()

	if _, err := GetArtifact(ctx, db, "t1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound before save, got %v", err)
	}

	a := &domain.Artifact{TripSpecID: "t1", ContentText: "first", Source: domain.SourceFallback}
	if err := SaveArtifact(ctx, db, a); err != nil {
		t.Fatalf("SaveArtifact: %v", err)
	}
	b := &domain.Artifact{TripSpecID: "t1", ContentText: "second", Source: domain.SourceLLM}
	if err := SaveArtifact(ctx, db, b); err != nil {
		t.Fatalf("SaveArtifact (upsert): %v", err)
	}

	got, err := GetArtifact(ctx, db, "t1")
	if err != nil {
		t.Fatalf("GetArtifact: %v", err)
	}
	if got.ContentText != "second" || got.Source != domain.SourceLLM {
		t.Fatalf("expected replaced artifact, got %+v", got)
	}

	enr := domain.Enrichments{{Name: "Louvre Museum", MapsLink: "https://maps.google.com/?q=Louvre+Museum%2C+Paris"}}
	if err := UpdateArtifactDocument(ctx, db, "t1", "trips/t1.html", "text/html; charset=utf-8", enr); err != nil {
		t.Fatalf("UpdateArtifactDocument: %v", err)
	}
	got, _ = GetArtifact(ctx, db, "t1")
	if got.DocumentKey != "trips/t1.html" || len(got.Enrichments) != 1 || got.Enrichments[0].Name != "Louvre Museum" {
		t.Fatalf("unexpected document fields: %+v", got)
	}

	if err := UpdateArtifactDocument(ctx, db, "nope", "k", "text/plain", nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
