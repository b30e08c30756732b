// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the travel history and landmark
// queries that feed itinerary prompts.
package repo

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-trip-backend/internal/domain"
)

// ListRecentHistory returns up to limit past trips of userID, most recent
// first.
func ListRecentHistory(ctx context.Context, db *gorm.DB, userID string, limit int) ([]domain.TripHistory, error) {
	var out []domain.TripHistory
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("trip_date desc").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// AddHistory records a past trip.
func AddHistory(ctx context.Context, db *gorm.DB, h *domain.TripHistory) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(h).Error
}

// ListLandmarks returns up to limit landmarks for destination, matched
// case-insensitively.
func ListLandmarks(ctx context.Context, db *gorm.DB, destination string, limit int) ([]domain.Landmark, error) {
	var out []domain.Landmark
	err := db.WithContext(ctx).
		Where("LOWER(destination) = ?", strings.ToLower(strings.TrimSpace(destination))).
		Order("name asc").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// AddLandmark stores a curated landmark.
func AddLandmark(ctx context.Context, db *gorm.DB, l *domain.Landmark) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(l).Error
}
