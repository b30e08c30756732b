package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tbourn/go-trip-backend/internal/domain"
)

func TestCreateTrip_AssignsIDAndTimestamp(t *testing.T) {
	db := newTestDB(t, &domain.TripSpec{})
	ctx := context.Background()

	in := &domain.TripSpec{UserID: "u1", Destination: "Rome", DurationDays: 2, TotalBudget: decimal.NewFromInt(400), TravelerCount: 1}
	got, err := CreateTrip(ctx, db, in)
	if err != nil {
		t.Fatalf("CreateTrip: %v", err)
	}
	if got.ID == "" || got.CreatedAt.IsZero() {
		t.Fatalf("expected ID and CreatedAt to be set, got %+v", got)
	}

	back, err := GetTrip(ctx, db, got.ID)
	if err != nil {
		t.Fatalf("GetTrip: %v", err)
	}
	if back.Destination != "Rome" || !back.TotalBudget.Equal(decimal.NewFromInt(400)) {
		t.Fatalf("unexpected readback: %+v", back)
	}
}

func TestGetTripForUser_OwnerScoped(t *testing.T) {
	db := newTestDB(t, &domain.TripSpec{})
	ctx := context.Background()
	seedTrip(t, db, "t1", "u1", time.Now().UTC())

	if _, err := GetTripForUser(ctx, db, "t1", "u1"); err != nil {
		t.Fatalf("owner lookup: %v", err)
	}
	if _, err := GetTripForUser(ctx, db, "t1", "u2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for other user, got %v", err)
	}
	if _, err := GetTrip(ctx, db, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing id, got %v", err)
	}
}

func TestListTripsPage_NewestFirstAndCount(t *testing.T) {
	db := newTestDB(t, &domain.TripSpec{})
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		seedTrip(t, db, id, "u1", base.Add(time.Duration(i)*time.Hour))
	}
	seedTrip(t, db, "z", "u2", base)

	n, err := CountTrips(ctx, db, "u1")
	if err != nil || n != 3 {
		t.Fatalf("CountTrips = %d, %v", n, err)
	}

	page, err := ListTripsPage(ctx, db, "u1", 0, 2)
	if err != nil {
		t.Fatalf("ListTripsPage: %v", err)
	}
	if len(page) != 2 || page[0].ID != "c" || page[1].ID != "b" {
		t.Fatalf("unexpected first page: %+v", page)
	}

	page, err = ListTripsPage(ctx, db, "u1", 2, 2)
	if err != nil {
		t.Fatalf("ListTripsPage: %v", err)
	}
	if len(page) != 1 || page[0].ID != "a" {
		t.Fatalf("unexpected second page: %+v", page)
	}
}
