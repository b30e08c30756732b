// Package handlers exposes the trip planner over REST.
//
// Handlers are transport-thin: they bind and bound input, enforce trip
// ownership, call the application services and translate service errors
// into stable error codes.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-trip-backend/internal/domain"
	"github.com/tbourn/go-trip-backend/internal/http/middleware"
	"github.com/tbourn/go-trip-backend/internal/quota"
	"github.com/tbourn/go-trip-backend/internal/services"
	"github.com/tbourn/go-trip-backend/internal/utils"
)

// TripService owns trip records, travel history and landmarks.
type TripService interface {
	Create(ctx context.Context, userID string, spec domain.TripSpec) (*domain.TripSpec, error)
	Get(ctx context.Context, userID, id string) (*domain.TripSpec, error)
	ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.TripSpec, int64, error)
	Stats(ctx context.Context, userID string) (int64, *time.Time, error)
	AddHistory(ctx context.Context, userID string, h domain.TripHistory) (*domain.TripHistory, error)
	ListHistory(ctx context.Context, userID string, limit int) ([]domain.TripHistory, error)
	AddLandmark(ctx context.Context, l domain.Landmark) (*domain.Landmark, error)
	Landmarks(ctx context.Context, destination string, limit int) ([]domain.Landmark, error)
}

// GenerationService drives itinerary generation. *services.Orchestrator
// implements it.
type GenerationService interface {
	RequestGeneration(ctx context.Context, tripID string) error
	GetStatus(ctx context.Context, tripID string) (services.Status, error)
	GetArtifact(ctx context.Context, tripID string) (*domain.Artifact, error)
	Job(ctx context.Context, tripID string) (*domain.GenerationJob, error)
	Document(ctx context.Context, tripID string) ([]byte, string, error)
	RegenerateDocument(ctx context.Context, tripID string) (*domain.Artifact, error)
}

// PlacesService resolves photos and destination suggestions.
// *services.EnrichmentService implements it.
type PlacesService interface {
	ResolvePlace(ctx context.Context, name, city string) *domain.PlaceDetails
	Autocomplete(ctx context.Context, query string) []domain.PlaceSuggestion
}

// CostService reports paid-API spend. *services.Orchestrator implements it.
type CostService interface {
	Usage(ctx context.Context) quota.Usage
	Recommendations(ctx context.Context) []string
	HourlyUsage(ctx context.Context, hoursBack int) quota.HourlyUsage
}

// IdempotencyStore remembers the resource created for an Idempotency-Key.
type IdempotencyStore interface {
	Save(ctx context.Context, userID, scope, key, resourceID string, status int) error
}

// Handlers groups the HTTP endpoints.
type Handlers struct {
	trips  TripService
	gen    GenerationService
	places PlacesService
	costs  CostService
	idem   IdempotencyStore
}

// New binds handlers to their services. idem may be nil, which disables
// replay recording for POST /trips.
func New(trips TripService, gen GenerationService, places PlacesService, costs CostService, idem IdempotencyStore) *Handlers {
	return &Handlers{trips: trips, gen: gen, places: places, costs: costs, idem: idem}
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.BoundedInt(c.Query("page_size"), defaultPageSize, 1, maxPageSize)
	return
}

func userID(c *gin.Context) string { return middleware.UserID(c) }

// ownedTrip loads the trip named by :id for the caller, answering 404 when
// it does not exist or belongs to someone else.
func (h *Handlers) ownedTrip(c *gin.Context) (*domain.TripSpec, bool) {
	t, err := h.trips.Get(c.Request.Context(), userID(c), c.Param("id"))
	switch {
	case err == nil:
		return t, true
	case errors.Is(err, services.ErrTripNotFound):
		fail(c, http.StatusNotFound, ErrCodeTripNotFound, "trip not found")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not load trip")
	}
	return nil, false
}

// failService maps service and domain errors shared by several endpoints.
func failService(c *gin.Context, err error, fallbackCode string) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		fail(c, http.StatusBadRequest, ErrCodeValidation, ve.Error())
	case errors.Is(err, services.ErrTripNotFound):
		fail(c, http.StatusNotFound, ErrCodeTripNotFound, "trip not found")
	case errors.Is(err, services.ErrArtifactNotFound):
		fail(c, http.StatusNotFound, ErrCodeArtifactNotFound, "itinerary not generated yet")
	case errors.Is(err, services.ErrDocumentNotFound):
		fail(c, http.StatusNotFound, ErrCodeDocumentNotFound, "document not available")
	case errors.Is(err, services.ErrBusy):
		c.Header("Retry-After", "2")
		fail(c, http.StatusServiceUnavailable, ErrCodeBusy, "all generation workers are busy, retry shortly")
	case errors.Is(err, services.ErrShuttingDown):
		fail(c, http.StatusServiceUnavailable, ErrCodeShuttingDown, "server is shutting down")
	default:
		fail(c, http.StatusInternalServerError, fallbackCode, err.Error())
	}
}

// weakETag answers 304 when If-None-Match equals etag and reports whether
// the response is finished.
func weakETag(c *gin.Context, etag string) bool {
	c.Header("ETag", etag)
	if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
		c.Status(http.StatusNotModified)
		return true
	}
	return false
}
