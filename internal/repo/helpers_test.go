package repo

import (
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-trip-backend/internal/domain"
)

// newTestDB opens a private in-memory database and migrates only the given
// models, so tests can also exercise a missing table.
func newTestDB(t *testing.T, models ...any) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	if len(models) > 0 {
		require.NoError(t, db.AutoMigrate(models...))
	}
	return db
}

func seedTrip(t *testing.T, db *gorm.DB, id, user string, at time.Time) *domain.TripSpec {
	t.Helper()
	tr := &domain.TripSpec{
		ID:            id,
		UserID:        user,
		Destination:   "Paris",
		DurationDays:  3,
		TotalBudget:   decimal.NewFromInt(900),
		TravelerCount: 2,
		CreatedAt:     at,
		UpdatedAt:     at,
	}
	require.NoError(t, db.Create(tr).Error)
	return tr
}
