// Package services – TripService
//
// This file implements TripService, which owns trip specifications: it
// normalizes and validates new trips, enforces ownership on reads and lists
// trips with pagination. It also records travel history and curated
// landmarks, which the generation pipeline reads back as prompt context.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-trip-backend/internal/domain"
	"github.com/tbourn/go-trip-backend/internal/utils"
)

// TripRepo defines the repository contract required by TripService.
type TripRepo interface {
	// CreateTrip inserts a new trip.
	CreateTrip(ctx context.Context, db *gorm.DB, spec *domain.TripSpec) (*domain.TripSpec, error)

	// GetTripForUser fetches a trip by ID ensuring it belongs to the user.
	GetTripForUser(ctx context.Context, db *gorm.DB, id, userID string) (*domain.TripSpec, error)

	// CountTrips returns the total number of trips for pagination.
	CountTrips(ctx context.Context, db *gorm.DB, userID string) (int64, error)

	// ListTripsPage returns a page of trips belonging to the user.
	ListTripsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.TripSpec, error)

	// TripsStats returns count and latest UpdatedAt for conditional GETs.
	TripsStats(ctx context.Context, db *gorm.DB, userID string) (int64, *time.Time, error)

	// ListRecentHistory returns the user's most recent past trips.
	ListRecentHistory(ctx context.Context, db *gorm.DB, userID string, limit int) ([]domain.TripHistory, error)

	// AddHistory records a past trip.
	AddHistory(ctx context.Context, db *gorm.DB, h *domain.TripHistory) error

	// ListLandmarks returns curated landmarks for a destination.
	ListLandmarks(ctx context.Context, db *gorm.DB, destination string, limit int) ([]domain.Landmark, error)

	// AddLandmark stores a curated landmark.
	AddLandmark(ctx context.Context, db *gorm.DB, l *domain.Landmark) error
}

// TripService provides trip-level operations.
type TripService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the trip repository used by this service.
	Repo TripRepo
}

// NewTripService constructs a TripService.
func NewTripService(db *gorm.DB, r TripRepo) *TripService {
	return &TripService{DB: db, Repo: r}
}

// Create validates spec and stores it for userID.
func (s *TripService) Create(ctx context.Context, userID string, spec domain.TripSpec) (*domain.TripSpec, error) {
	spec.ID = ""
	spec.UserID = userID
	spec.Normalize()
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return s.Repo.CreateTrip(ctx, s.DB, &spec)
}

// Get returns the trip if it belongs to userID.
func (s *TripService) Get(ctx context.Context, userID, id string) (*domain.TripSpec, error) {
	t, err := s.Repo.GetTripForUser(ctx, s.DB, id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTripNotFound
		}
		return nil, err
	}
	return t, nil
}

// ListPage returns the requested page of trips and the total count.
func (s *TripService) ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.TripSpec, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	total, err := s.Repo.CountTrips(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	items, err := s.Repo.ListTripsPage(ctx, s.DB, userID, utils.Offset(page, pageSize), pageSize)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Stats returns count and latest update time of userID's trips.
func (s *TripService) Stats(ctx context.Context, userID string) (int64, *time.Time, error) {
	return s.Repo.TripsStats(ctx, s.DB, userID)
}

// AddHistory records a past trip of userID.
func (s *TripService) AddHistory(ctx context.Context, userID string, h domain.TripHistory) (*domain.TripHistory, error) {
	h.ID = ""
	h.UserID = userID
	h.Destination = strings.TrimSpace(h.Destination)
	if h.Destination == "" {
		return nil, &domain.ValidationError{Field: "destination", Reason: "must not be empty"}
	}
	if h.Rating != nil && (*h.Rating < 1 || *h.Rating > 5) {
		return nil, &domain.ValidationError{Field: "rating", Reason: "must be between 1 and 5"}
	}
	if h.TripDate.IsZero() {
		h.TripDate = time.Now().UTC()
	}
	if err := s.Repo.AddHistory(ctx, s.DB, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// ListHistory returns up to limit past trips of userID.
func (s *TripService) ListHistory(ctx context.Context, userID string, limit int) ([]domain.TripHistory, error) {
	return s.Repo.ListRecentHistory(ctx, s.DB, userID, limit)
}

// AddLandmark stores a curated landmark.
func (s *TripService) AddLandmark(ctx context.Context, l domain.Landmark) (*domain.Landmark, error) {
	l.ID = ""
	l.Destination = strings.TrimSpace(l.Destination)
	l.Name = strings.TrimSpace(l.Name)
	switch {
	case l.Destination == "":
		return nil, &domain.ValidationError{Field: "destination", Reason: "must not be empty"}
	case l.Name == "":
		return nil, &domain.ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if err := s.Repo.AddLandmark(ctx, s.DB, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// RecentHistory implements PromptContextSource.
func (s *TripService) RecentHistory(ctx context.Context, userID string, limit int) ([]domain.TripHistory, error) {
	return s.Repo.ListRecentHistory(ctx, s.DB, userID, limit)
}

// Landmarks implements PromptContextSource.
func (s *TripService) Landmarks(ctx context.Context, destination string, limit int) ([]domain.Landmark, error) {
	return s.Repo.ListLandmarks(ctx, s.DB, destination, limit)
}
