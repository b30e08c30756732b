package app

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-trip-backend/internal/domain"
	"github.com/tbourn/go-trip-backend/internal/repo"
)

// tripRepoShim adapts the repository free functions to services.TripRepo.
type tripRepoShim struct{}

// CreateTrip proxies repo.CreateTrip.
func (tripRepoShim) CreateTrip(ctx context.Context, db *gorm.DB, spec *domain.TripSpec) (*domain.TripSpec, error) {
	return repo.CreateTrip(ctx, db, spec)
}

// GetTripForUser proxies repo.GetTripForUser.
func (tripRepoShim) GetTripForUser(ctx context.Context, db *gorm.DB, id, userID string) (*domain.TripSpec, error) {
	return repo.GetTripForUser(ctx, db, id, userID)
}

// CountTrips proxies repo.CountTrips.
func (tripRepoShim) CountTrips(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	return repo.CountTrips(ctx, db, userID)
}

// ListTripsPage proxies repo.ListTripsPage.
func (tripRepoShim) ListTripsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.TripSpec, error) {
	return repo.ListTripsPage(ctx, db, userID, offset, limit)
}

// TripsStats proxies repo.TripsStats.
func (tripRepoShim) TripsStats(ctx context.Context, db *gorm.DB, userID string) (int64, *time.Time, error) {
	return repo.TripsStats(ctx, db, userID)
}

// ListRecentHistory proxies repo.ListRecentHistory.
func (tripRepoShim) ListRecentHistory(ctx context.Context, db *gorm.DB, userID string, limit int) ([]domain.TripHistory, error) {
	return repo.ListRecentHistory(ctx, db, userID, limit)
}

// AddHistory proxies repo.AddHistory.
func (tripRepoShim) AddHistory(ctx context.Context, db *gorm.DB, h *domain.TripHistory) error {
	return repo.AddHistory(ctx, db, h)
}

// ListLandmarks proxies repo.ListLandmarks.
func (tripRepoShim) ListLandmarks(ctx context.Context, db *gorm.DB, destination string, limit int) ([]domain.Landmark, error) {
	return repo.ListLandmarks(ctx, db, destination, limit)
}

// AddLandmark proxies repo.AddLandmark.
func (tripRepoShim) AddLandmark(ctx context.Context, db *gorm.DB, l *domain.Landmark) error {
	return repo.AddLandmark(ctx, db, l)
}

// generationRepoShim adapts the repository free functions to
// services.GenerationRepo.
type generationRepoShim struct{}

func (generationRepoShim) GetTrip(ctx context.Context, db *gorm.DB, id string) (*domain.TripSpec, error) {
	return repo.GetTrip(ctx, db, id)
}

func (generationRepoShim) GetOrCreateJob(ctx context.Context, db *gorm.DB, tripID string) (*domain.GenerationJob, error) {
	return repo.GetOrCreateJob(ctx, db, tripID)
}

func (generationRepoShim) GetJob(ctx context.Context, db *gorm.DB, tripID string) (*domain.GenerationJob, error) {
	return repo.GetJob(ctx, db, tripID)
}

func (generationRepoShim) UpdateJob(ctx context.Context, db *gorm.DB, tripID string, u repo.JobUpdate) error {
	return repo.UpdateJob(ctx, db, tripID, u)
}

func (generationRepoShim) GetArtifact(ctx context.Context, db *gorm.DB, tripID string) (*domain.Artifact, error) {
	return repo.GetArtifact(ctx, db, tripID)
}

func (generationRepoShim) SaveArtifact(ctx context.Context, db *gorm.DB, a *domain.Artifact) error {
	return repo.SaveArtifact(ctx, db, a)
}

func (generationRepoShim) UpdateArtifactDocument(ctx context.Context, db *gorm.DB, tripID, key, contentType string, enr domain.Enrichments) error {
	return repo.UpdateArtifactDocument(ctx, db, tripID, key, contentType, enr)
}

// idempotencyStore records Idempotency-Key outcomes with a fixed TTL.
type idempotencyStore struct {
	db  *gorm.DB
	ttl time.Duration
}

// Save proxies repo.CreateIdempotency.
func (s idempotencyStore) Save(ctx context.Context, userID, scope, key, resourceID string, status int) error {
	_, err := repo.CreateIdempotency(ctx, s.db, userID, scope, key, resourceID, status, s.ttl)
	return err
}
