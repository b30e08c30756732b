package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-trip-backend/internal/cachestore"
	"github.com/tbourn/go-trip-backend/internal/contentcache"
	"github.com/tbourn/go-trip-backend/internal/domain"
	"github.com/tbourn/go-trip-backend/internal/llm"
	"github.com/tbourn/go-trip-backend/internal/places"
	"github.com/tbourn/go-trip-backend/internal/quota"
	"github.com/tbourn/go-trip-backend/internal/repo"
	"github.com/tbourn/go-trip-backend/internal/sysutil"
)

func newMemDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// repoShim forwards to the repo package, like the production wiring.
type repoShim struct{}

func (repoShim) CreateTrip(ctx context.Context, db *gorm.DB, s *domain.TripSpec) (*domain.TripSpec, error) {
	return repo.CreateTrip(ctx, db, s)
}
func (repoShim) GetTrip(ctx context.Context, db *gorm.DB, id string) (*domain.TripSpec, error) {
	return repo.GetTrip(ctx, db, id)
}
func (repoShim) GetTripForUser(ctx context.Context, db *gorm.DB, id, userID string) (*domain.TripSpec, error) {
	return repo.GetTripForUser(ctx, db, id, userID)
}
func (repoShim) CountTrips(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	return repo.CountTrips(ctx, db, userID)
}
func (repoShim) ListTripsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.TripSpec, error) {
	return repo.ListTripsPage(ctx, db, userID, offset, limit)
}
func (repoShim) TripsStats(ctx context.Context, db *gorm.DB, userID string) (int64, *time.Time, error) {
	return repo.TripsStats(ctx, db, userID)
}
func (repoShim) ListRecentHistory(ctx context.Context, db *gorm.DB, userID string, limit int) ([]domain.TripHistory, error) {
	return repo.ListRecentHistory(ctx, db, userID, limit)
}
func (repoShim) AddHistory(ctx context.Context, db *gorm.DB, h *domain.TripHistory) error {
	return repo.AddHistory(ctx, db, h)
}
func (repoShim) ListLandmarks(ctx context.Context, db *gorm.DB, dest string, limit int) ([]domain.Landmark, error) {
	return repo.ListLandmarks(ctx, db, dest, limit)
}
func (repoShim) AddLandmark(ctx context.Context, db *gorm.DB, l *domain.Landmark) error {
	return repo.AddLandmark(ctx, db, l)
}
func (repoShim) GetOrCreateJob(ctx context.Context, db *gorm.DB, tripID string) (*domain.GenerationJob, error) {
	return repo.GetOrCreateJob(ctx, db, tripID)
}
func (repoShim) GetJob(ctx context.Context, db *gorm.DB, tripID string) (*domain.GenerationJob, error) {
	return repo.GetJob(ctx, db, tripID)
}
func (repoShim) UpdateJob(ctx context.Context, db *gorm.DB, tripID string, u repo.JobUpdate) error {
	return repo.UpdateJob(ctx, db, tripID, u)
}
func (repoShim) GetArtifact(ctx context.Context, db *gorm.DB, tripID string) (*domain.Artifact, error) {
	return repo.GetArtifact(ctx, db, tripID)
}
func (repoShim) SaveArtifact(ctx context.Context, db *gorm.DB, a *domain.Artifact) error {
	return repo.SaveArtifact(ctx, db, a)
}
func (repoShim) UpdateArtifactDocument(ctx context.Context, db *gorm.DB, tripID, key, ct string, enr domain.Enrichments) error {
	return repo.UpdateArtifactDocument(ctx, db, tripID, key, ct, enr)
}

// newCache returns a memory-backed content cache and guard sharing a fake
// clock.
func newCache(t *testing.T, limits map[quota.Service]int64) (*contentcache.Cache, *quota.Guard, *sysutil.FakeClock) {
	t.Helper()
	clock := sysutil.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	backend := cachestore.NewMemory(clock)
	g := quota.New(backend, quota.Options{Limits: limits, Clock: clock, Logger: zerolog.Nop()})
	return contentcache.New(backend, g), g, clock
}

// scriptedLLM replays steps in order; the last step repeats.
type scriptedLLM struct {
	mu    sync.Mutex
	steps []llmStep
	calls int
	// gate, when set, blocks every call until closed.
	gate chan struct{}
}

type llmStep struct {
	text string
	err  error
}

func (s *scriptedLLM) Complete(ctx context.Context, _ llm.Request) (llm.Response, error) {
	s.mu.Lock()
	i := s.calls
	s.calls++
	s.mu.Unlock()
	if s.gate != nil {
		select {
		case <-s.gate:
		case <-ctx.Done():
			return llm.Response{}, &llm.Error{Kind: llm.KindTimeout, Err: ctx.Err()}
		}
	}
	if i >= len(s.steps) {
		i = len(s.steps) - 1
	}
	st := s.steps[i]
	if st.err != nil {
		return llm.Response{}, st.err
	}
	return llm.Response{Text: st.text}, nil
}

func (s *scriptedLLM) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func llmErr(k llm.Kind) error { return &llm.Error{Kind: k, Err: fmt.Errorf("simulated %s", k)} }

// fakePlaces counts calls per method.
type fakePlaces struct {
	mu          sync.Mutex
	results     map[string]*places.SearchResult // by query
	photos      []places.Photo
	preds       []places.Prediction
	searchCalls int
	detailCalls int
	autoCalls   int
	searchErr   error
}

func (f *fakePlaces) TextSearch(_ context.Context, q string) (*places.SearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchCalls++
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if r, ok := f.results[q]; ok {
		return r, nil
	}
	return nil, places.ErrNoResults
}

func (f *fakePlaces) PlaceDetails(context.Context, string) ([]places.Photo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detailCalls++
	return f.photos, nil
}

func (f *fakePlaces) Autocomplete(context.Context, string, string) ([]places.Prediction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.autoCalls++
	return f.preds, nil
}

func (f *fakePlaces) PhotoURL(ref string, w int) string {
	return fmt.Sprintf("https://photos.test/%s?w=%d", ref, w)
}
