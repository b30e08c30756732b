// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for TripSpec.
//
// Functions are thin: no business rules, only CRUD and query composition.
// Missing rows surface as ErrNotFound.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-trip-backend/internal/domain"
)

// CreateTrip inserts spec, assigning an ID when empty.
func CreateTrip(ctx context.Context, db *gorm.DB, spec *domain.TripSpec) (*domain.TripSpec, error) {
	if spec.ID == "" {
		spec.ID = uuid.NewString()
	}
	if spec.CreatedAt.IsZero() {
		spec.CreatedAt = time.Now().UTC()
	}
	if err := db.WithContext(ctx).Create(spec).Error; err != nil {
		return nil, err
	}
	return spec, nil
}

// GetTrip fetches a trip by ID regardless of owner. Used by the generation
// workers, which act on behalf of the system.
func GetTrip(ctx context.Context, db *gorm.DB, id string) (*domain.TripSpec, error) {
	var t domain.TripSpec
	if err := db.WithContext(ctx).Where("id = ?", id).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// GetTripForUser fetches a trip by ID and owner.
func GetTripForUser(ctx context.Context, db *gorm.DB, id, userID string) (*domain.TripSpec, error) {
	var t domain.TripSpec
	err := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CountTrips returns the number of trips owned by userID.
func CountTrips(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.TripSpec{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	return total, err
}

// ListTripsPage returns a page of userID's trips, newest first.
func ListTripsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.TripSpec, error) {
	var out []domain.TripSpec
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
