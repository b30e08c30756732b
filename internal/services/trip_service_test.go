package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tbourn/go-trip-backend/internal/domain"
)

// ----- Fake repo -----

type fakeTripRepo struct {
	created *domain.TripSpec

	getID, getUserID string
	getTrip          *domain.TripSpec
	getErr           error

	countTotal int64
	countErr   error

	pageOffset, pageLimit int
	pageItems             []domain.TripSpec

	history   []domain.TripHistory
	landmarks []domain.Landmark
	landDest  string
}

func (r *fakeTripRepo) CreateTrip(_ context.Context, _ *gorm.DB, s *domain.TripSpec) (*domain.TripSpec, error) {
	s.ID = "t1"
	r.created = s
	return s, nil
}

func (r *fakeTripRepo) GetTripForUser(_ context.Context, _ *gorm.DB, id, userID string) (*domain.TripSpec, error) {
	r.getID, r.getUserID = id, userID
	return r.getTrip, r.getErr
}

func (r *fakeTripRepo) CountTrips(context.Context, *gorm.DB, string) (int64, error) {
	return r.countTotal, r.countErr
}

func (r *fakeTripRepo) ListTripsPage(_ context.Context, _ *gorm.DB, _ string, offset, limit int) ([]domain.TripSpec, error) {
	r.pageOffset, r.pageLimit = offset, limit
	return r.pageItems, nil
}

func (r *fakeTripRepo) TripsStats(context.Context, *gorm.DB, string) (int64, *time.Time, error) {
	now := time.Unix(1700000000, 0).UTC()
	return r.countTotal, &now, nil
}

func (r *fakeTripRepo) ListRecentHistory(_ context.Context, _ *gorm.DB, _ string, limit int) ([]domain.TripHistory, error) {
	if limit < len(r.history) {
		return r.history[:limit], nil
	}
	return r.history, nil
}

func (r *fakeTripRepo) AddHistory(_ context.Context, _ *gorm.DB, h *domain.TripHistory) error {
	h.ID = "h1"
	r.history = append(r.history, *h)
	return nil
}

func (r *fakeTripRepo) ListLandmarks(_ context.Context, _ *gorm.DB, dest string, _ int) ([]domain.Landmark, error) {
	r.landDest = dest
	return r.landmarks, nil
}

func (r *fakeTripRepo) AddLandmark(_ context.Context, _ *gorm.DB, l *domain.Landmark) error {
	l.ID = "l1"
	r.landmarks = append(r.landmarks, *l)
	return nil
}

// ----- Tests -----

func TestTripService_Create(t *testing.T) {
	r := &fakeTripRepo{}
	svc := NewTripService(nil, r)

	in := domain.TripSpec{
		ID:            "client-chosen",
		UserID:        "someone-else",
		Destination:   "  New   York ",
		DurationDays:  4,
		TotalBudget:   decimal.NewFromInt(2000),
		TravelerCount: 2,
	}
	got, err := svc.Create(context.Background(), "u1", in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got.ID != "t1" || got.UserID != "u1" || got.Destination != "New York" {
		t.Fatalf("unexpected trip: %+v", got)
	}
}

func TestTripService_CreateRejectsInvalid(t *testing.T) {
	r := &fakeTripRepo{}
	svc := NewTripService(nil, r)

	cases := []domain.TripSpec{
		{Destination: "", DurationDays: 1, TravelerCount: 1},
		{Destination: "Rome", DurationDays: 0, TravelerCount: 1},
		{Destination: "Rome", DurationDays: 61, TravelerCount: 1},
		{Destination: "Rome", DurationDays: 2, TravelerCount: 0},
		{Destination: "Rome", DurationDays: 2, TravelerCount: 1, TotalBudget: decimal.NewFromInt(-1)},
	}
	for i, c := range cases {
		if _, err := svc.Create(context.Background(), "u1", c); !domain.IsValidation(err) {
			t.Errorf("case %d: want validation error, got %v", i, err)
		}
	}
	if r.created != nil {
		t.Fatal("invalid trips must not be stored")
	}
}

func TestTripService_GetMapsNotFound(t *testing.T) {
	r := &fakeTripRepo{getErr: gorm.ErrRecordNotFound}
	svc := NewTripService(nil, r)

	_, err := svc.Get(context.Background(), "u1", "t9")
	if !errors.Is(err, ErrTripNotFound) {
		t.Fatalf("want ErrTripNotFound, got %v", err)
	}
	if r.getID != "t9" || r.getUserID != "u1" {
		t.Fatalf("repo called with id=%q user=%q", r.getID, r.getUserID)
	}

	r.getErr = errors.New("db down")
	if _, err := svc.Get(context.Background(), "u1", "t9"); err == nil || errors.Is(err, ErrTripNotFound) {
		t.Fatalf("want raw error, got %v", err)
	}
}

func TestTripService_ListPage(t *testing.T) {
	r := &fakeTripRepo{countTotal: 42, pageItems: []domain.TripSpec{{ID: "a"}, {ID: "b"}}}
	svc := NewTripService(nil, r)

	items, total, err := svc.ListPage(context.Background(), "u1", 3, 10)
	if err != nil {
		t.Fatalf("ListPage: %v", err)
	}
	if total != 42 || len(items) != 2 {
		t.Fatalf("total=%d items=%d", total, len(items))
	}
	if r.pageOffset != 20 || r.pageLimit != 10 {
		t.Fatalf("offset=%d limit=%d", r.pageOffset, r.pageLimit)
	}

	if _, _, err := svc.ListPage(context.Background(), "u1", 0, 0); err != nil {
		t.Fatalf("ListPage defaults: %v", err)
	}
	if r.pageOffset != 0 || r.pageLimit != 20 {
		t.Fatalf("defaults offset=%d limit=%d", r.pageOffset, r.pageLimit)
	}

	r.countErr = errors.New("boom")
	if _, _, err := svc.ListPage(context.Background(), "u1", 1, 10); err == nil {
		t.Fatal("count error must propagate")
	}
}

func TestTripService_History(t *testing.T) {
	r := &fakeTripRepo{}
	svc := NewTripService(nil, r)
	ctx := context.Background()

	bad := 6
	if _, err := svc.AddHistory(ctx, "u1", domain.TripHistory{Destination: "Lisbon", Rating: &bad}); !domain.IsValidation(err) {
		t.Fatalf("rating 6: %v", err)
	}
	if _, err := svc.AddHistory(ctx, "u1", domain.TripHistory{Destination: "  "}); !domain.IsValidation(err) {
		t.Fatalf("blank destination: %v", err)
	}

	good := 4
	h, err := svc.AddHistory(ctx, "u1", domain.TripHistory{Destination: " Lisbon ", Rating: &good})
	if err != nil {
		t.Fatalf("AddHistory: %v", err)
	}
	if h.UserID != "u1" || h.Destination != "Lisbon" || h.TripDate.IsZero() {
		t.Fatalf("unexpected history: %+v", h)
	}

	list, err := svc.RecentHistory(ctx, "u1", 3)
	if err != nil || len(list) != 1 {
		t.Fatalf("RecentHistory = %v, %v", list, err)
	}
}

func TestTripService_Landmarks(t *testing.T) {
	r := &fakeTripRepo{}
	svc := NewTripService(nil, r)
	ctx := context.Background()

	if _, err := svc.AddLandmark(ctx, domain.Landmark{Destination: "Paris"}); !domain.IsValidation(err) {
		t.Fatalf("missing name: %v", err)
	}
	l, err := svc.AddLandmark(ctx, domain.Landmark{Destination: " Paris ", Name: "Sainte-Chapelle"})
	if err != nil || l.ID != "l1" || l.Destination != "Paris" {
		t.Fatalf("AddLandmark = %+v, %v", l, err)
	}
	got, err := svc.Landmarks(ctx, "paris", 8)
	if err != nil || len(got) != 1 || r.landDest != "paris" {
		t.Fatalf("Landmarks = %v, %v (dest %q)", got, err, r.landDest)
	}
}
