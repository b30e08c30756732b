package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-trip-backend/internal/domain"
)

// TripsStats reports how many trips userID owns and when the most recent one
// changed. It backs the weak ETag of the trip list; latest is nil when the
// user has no trips.
func TripsStats(ctx context.Context, db *gorm.DB, userID string) (count int64, latest *time.Time, err error) {
	owned := func() *gorm.DB {
		return db.WithContext(ctx).Model(&domain.TripSpec{}).Where("user_id = ?", userID)
	}

	// Ordering a typed column keeps the DATETIME affinity; MAX() comes back
	// as TEXT from SQLite.
	var newest domain.TripSpec
	err = owned().Select("updated_at").Order("updated_at DESC").Take(&newest).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return 0, nil, nil
	case err != nil:
		return 0, nil, err
	}

	if err = owned().Count(&count).Error; err != nil {
		return 0, nil, err
	}
	at := newest.UpdatedAt
	return count, &at, nil
}
