package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-trip-backend/internal/domain"
	"github.com/tbourn/go-trip-backend/internal/quota"
	"github.com/tbourn/go-trip-backend/internal/services"
)

// ---------- flexible service stubs ----------

type stubTrips struct {
	create      func(context.Context, string, domain.TripSpec) (*domain.TripSpec, error)
	get         func(context.Context, string, string) (*domain.TripSpec, error)
	listPage    func(context.Context, string, int, int) ([]domain.TripSpec, int64, error)
	stats       func(context.Context, string) (int64, *time.Time, error)
	addHistory  func(context.Context, string, domain.TripHistory) (*domain.TripHistory, error)
	listHistory func(context.Context, string, int) ([]domain.TripHistory, error)
	addLandmark func(context.Context, domain.Landmark) (*domain.Landmark, error)
	landmarks   func(context.Context, string, int) ([]domain.Landmark, error)
}

func (s stubTrips) Create(ctx context.Context, u string, spec domain.TripSpec) (*domain.TripSpec, error) {
	if s.create != nil {
		return s.create(ctx, u, spec)
	}
	spec.ID, spec.UserID = "trip-new", u
	return &spec, nil
}

// Get defaults to "any trip ID belongs to the caller".
func (s stubTrips) Get(ctx context.Context, u, id string) (*domain.TripSpec, error) {
	if s.get != nil {
		return s.get(ctx, u, id)
	}
	return &domain.TripSpec{ID: id, UserID: u, Destination: "Paris", DurationDays: 3, TravelerCount: 2}, nil
}

func (s stubTrips) ListPage(ctx context.Context, u string, p, ps int) ([]domain.TripSpec, int64, error) {
	if s.listPage != nil {
		return s.listPage(ctx, u, p, ps)
	}
	return nil, 0, nil
}

func (s stubTrips) Stats(ctx context.Context, u string) (int64, *time.Time, error) {
	if s.stats != nil {
		return s.stats(ctx, u)
	}
	return 0, nil, nil
}

func (s stubTrips) AddHistory(ctx context.Context, u string, h domain.TripHistory) (*domain.TripHistory, error) {
	if s.addHistory != nil {
		return s.addHistory(ctx, u, h)
	}
	h.ID, h.UserID = "h1", u
	return &h, nil
}

func (s stubTrips) ListHistory(ctx context.Context, u string, limit int) ([]domain.TripHistory, error) {
	if s.listHistory != nil {
		return s.listHistory(ctx, u, limit)
	}
	return nil, nil
}

func (s stubTrips) AddLandmark(ctx context.Context, l domain.Landmark) (*domain.Landmark, error) {
	if s.addLandmark != nil {
		return s.addLandmark(ctx, l)
	}
	l.ID = "l1"
	return &l, nil
}

func (s stubTrips) Landmarks(ctx context.Context, d string, limit int) ([]domain.Landmark, error) {
	if s.landmarks != nil {
		return s.landmarks(ctx, d, limit)
	}
	return nil, nil
}

type stubGen struct {
	request    func(context.Context, string) error
	status     func(context.Context, string) (services.Status, error)
	artifact   func(context.Context, string) (*domain.Artifact, error)
	job        func(context.Context, string) (*domain.GenerationJob, error)
	document   func(context.Context, string) ([]byte, string, error)
	regenerate func(context.Context, string) (*domain.Artifact, error)
}

func (s stubGen) RequestGeneration(ctx context.Context, id string) error {
	if s.request != nil {
		return s.request(ctx, id)
	}
	return nil
}

func (s stubGen) GetStatus(ctx context.Context, id string) (services.Status, error) {
	if s.status != nil {
		return s.status(ctx, id)
	}
	return services.Status{State: services.StatusGenerating}, nil
}

func (s stubGen) GetArtifact(ctx context.Context, id string) (*domain.Artifact, error) {
	if s.artifact != nil {
		return s.artifact(ctx, id)
	}
	return nil, services.ErrArtifactNotFound
}

func (s stubGen) Job(ctx context.Context, id string) (*domain.GenerationJob, error) {
	if s.job != nil {
		return s.job(ctx, id)
	}
	return nil, services.ErrArtifactNotFound
}

func (s stubGen) Document(ctx context.Context, id string) ([]byte, string, error) {
	if s.document != nil {
		return s.document(ctx, id)
	}
	return nil, "", services.ErrDocumentNotFound
}

func (s stubGen) RegenerateDocument(ctx context.Context, id string) (*domain.Artifact, error) {
	if s.regenerate != nil {
		return s.regenerate(ctx, id)
	}
	return nil, services.ErrArtifactNotFound
}

type stubPlaces struct {
	resolve      func(context.Context, string, string) *domain.PlaceDetails
	autocomplete func(context.Context, string) []domain.PlaceSuggestion
}

func (s stubPlaces) ResolvePlace(ctx context.Context, name, city string) *domain.PlaceDetails {
	if s.resolve != nil {
		return s.resolve(ctx, name, city)
	}
	return nil
}

func (s stubPlaces) Autocomplete(ctx context.Context, q string) []domain.PlaceSuggestion {
	if s.autocomplete != nil {
		return s.autocomplete(ctx, q)
	}
	return nil
}

type stubCosts struct {
	hoursSeen int
}

func (s *stubCosts) Usage(context.Context) quota.Usage {
	return quota.Usage{
		Date:      "2025-06-01",
		Services:  map[quota.Service]quota.ServiceUsage{quota.ServiceLLM: {Calls: 3, Limit: 100, Remaining: 97, EstimatedCost: 0.06}},
		TotalCost: 0.06,
	}
}

func (s *stubCosts) Recommendations(context.Context) []string { return nil }

func (s *stubCosts) HourlyUsage(_ context.Context, hours int) quota.HourlyUsage {
	s.hoursSeen = hours
	return quota.HourlyUsage{Labels: make([]string, hours), Series: map[quota.Service][]int64{}}
}

type idemCall struct {
	userID, scope, key, resourceID string
	status                         int
}

type stubIdem struct{ calls []idemCall }

func (s *stubIdem) Save(_ context.Context, userID, scope, key, resourceID string, status int) error {
	s.calls = append(s.calls, idemCall{userID, scope, key, resourceID, status})
	return nil
}

// ---------- request helpers ----------

func do(t *testing.T, r http.Handler, method, path string, body any, hdr map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			if err := json.NewEncoder(&buf).Encode(b); err != nil {
				t.Fatalf("encode body: %v", err)
			}
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("json: %v (body=%s)", err, w.Body.String())
	}
	return v
}

func errCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[ErrorResponse](t, w).Code
}

// newRouter mounts every endpoint the way the router does, without the
// global middleware stack.
func newRouter(h *Handlers, mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	r.POST("/trips", h.CreateTrip)
	r.GET("/trips", h.ListTrips)
	r.GET("/trips/:id", h.GetTrip)
	r.POST("/trips/:id/generation", h.RequestGeneration)
	r.GET("/trips/:id/status", h.GetStatus)
	r.GET("/trips/:id/artifact", h.GetArtifact)
	r.GET("/trips/:id/document", h.GetDocument)
	r.POST("/trips/:id/document", h.RegenerateDocument)
	r.GET("/places/photos", h.GetPlacePhotos)
	r.GET("/places/autocomplete", h.Autocomplete)
	r.GET("/costs/usage", h.GetUsage)
	r.GET("/costs/recommendations", h.GetRecommendations)
	r.GET("/costs/hourly", h.GetHourlyUsage)
	r.POST("/history", h.AddHistory)
	r.GET("/history", h.ListHistory)
	r.POST("/landmarks", h.AddLandmark)
	r.GET("/landmarks", h.ListLandmarks)
	return r
}
