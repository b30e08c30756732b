package repo

import (
	"context"
	"testing"
	"time"

	"github.com/tbourn/go-trip-backend/internal/domain"
)

func TestListRecentHistory_LimitAndOrder(t *testing.T) {
	db := newTestDB(t, &domain.TripHistory{})
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, dest := range []string{"Lisbon", "Berlin", "Prague", "Vienna"} {
		h := &domain.TripHistory{UserID: "u1", Destination: dest, TripDate: base.AddDate(0, i, 0)}
		if err := AddHistory(ctx, db, h); err != nil {
			t.Fatalf("AddHistory: %v", err)
		}
	}
	if err := AddHistory(ctx, db, &domain.TripHistory{UserID: "u2", Destination: "Oslo", TripDate: base}); err != nil {
		t.Fatalf("AddHistory: %v", err)
	}

	got, err := ListRecentHistory(ctx, db, "u1", 3)
	if err != nil {
		t.Fatalf("ListRecentHistory: %v", err)
	}
	if len(got) != 3 || got[0].Destination != "Vienna" || got[2].Destination != "Berlin" {
		t.Fatalf("unexpected history: %+v", got)
	}
}

func TestListLandmarks_CaseInsensitive(t *testing.T) {
	db := newTestDB(t, &domain.Landmark{})
	ctx := context.Background()

	for _, n := range []string{"Louvre Museum", "Eiffel Tower"} {
		if err := AddLandmark(ctx, db, &domain.Landmark{Destination: "Paris", Name: n}); err != nil {
			t.Fatalf("AddLandmark: %v", err)
		}
	}
	if err := AddLandmark(ctx, db, &domain.Landmark{Destination: "Rome", Name: "Colosseum"}); err != nil {
		t.Fatalf("AddLandmark: %v", err)
	}

	got, err := ListLandmarks(ctx, db, "  PARIS ", 5)
	if err != nil {
		t.Fatalf("ListLandmarks: %v", err)
	}
	if len(got) != 2 || got[0].Name != "Eiffel Tower" {
		t.Fatalf("unexpected landmarks: %+v", got)
	}
}
