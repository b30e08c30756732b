// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file stores Idempotency-Key outcomes so that a retried
// POST /trips returns the trip created by the first attempt.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-trip-backend/internal/domain"
)

// ErrDuplicate reports that (user_id, scope, key) is already recorded.
var ErrDuplicate = errors.New("duplicate")

// GetIdempotency returns the live record for (userID, scope, key). Blank
// keys, unknown keys and records expired at now all yield ErrNotFound.
func GetIdempotency(ctx context.Context, db *gorm.DB, userID, scope, key string, now time.Time) (*domain.Idempotency, error) {
	if strings.TrimSpace(key) == "" {
		return nil, ErrNotFound
	}
	var rec domain.Idempotency
	err := db.WithContext(ctx).
		Where(map[string]any{"user_id": userID, "scope": scope, "key": key}).
		Where("expires_at > ?", now).
		Take(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// CreateIdempotency records that key produced resourceID with the given HTTP
// status. The record lives for ttl.
func CreateIdempotency(ctx context.Context, db *gorm.DB, userID, scope, key, resourceID string, status int, ttl time.Duration) (*domain.Idempotency, error) {
	now := time.Now().UTC()
	rec := domain.Idempotency{
		ID:         uuid.NewString(),
		UserID:     userID,
		Scope:      scope,
		Key:        key,
		ResourceID: resourceID,
		Status:     status,
		CreatedAt:  now,
		ExpiresAt:  now.Add(ttl),
	}
	switch err := db.WithContext(ctx).Create(&rec).Error; {
	case err == nil:
		return &rec, nil
	case isUniqueViolation(err):
		return nil, ErrDuplicate
	default:
		return nil, err
	}
}

// PurgeExpiredIdempotency deletes records expired at now and returns how
// many were removed.
func PurgeExpiredIdempotency(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&domain.Idempotency{})
	return res.RowsAffected, res.Error
}
