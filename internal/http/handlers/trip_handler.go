// Trip HTTP handlers.
//
//   - POST /trips      (create; Idempotency-Key replays the original trip)
//   - GET  /trips      (list, paginated, weak ETag)
//   - GET  /trips/{id} (fetch)
package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/tbourn/go-trip-backend/internal/domain"
	"github.com/tbourn/go-trip-backend/internal/http/middleware"
	"github.com/tbourn/go-trip-backend/internal/utils"
)

// CreateTripRequest is the JSON payload for creating a trip.
type CreateTripRequest struct {
	Destination     string          `json:"destination"      binding:"max=255"  example:"Paris"`
	Country         string          `json:"country"          binding:"max=128"  example:"France"`
	DurationDays    int             `json:"duration_days"                       example:"3"`
	TotalBudget     decimal.Decimal `json:"total_budget"     swaggertype:"string" example:"900.00"`
	TravelerCount   int             `json:"traveler_count"                      example:"2"`
	Interests       string          `json:"interests"        binding:"max=1000" example:"museums, food markets"`
	TransportPref   string          `json:"transport_pref"   binding:"max=64"   example:"public transport"`
	ExperienceStyle string          `json:"experience_style" binding:"max=64"   example:"relaxed"`
}

func (r CreateTripRequest) spec() domain.TripSpec {
	return domain.TripSpec{
		Destination:     r.Destination,
		Country:         r.Country,
		DurationDays:    r.DurationDays,
		TotalBudget:     r.TotalBudget,
		TravelerCount:   r.TravelerCount,
		Interests:       r.Interests,
		TransportPref:   r.TransportPref,
		ExperienceStyle: r.ExperienceStyle,
	}
}

// ListTripsResponse wraps a page of trips and pagination information.
type ListTripsResponse struct {
	Trips      []domain.TripSpec `json:"trips"`
	Pagination Pagination        `json:"pagination"`
}

// CreateTrip godoc
// @ID          createTrip
// @Summary     Create a trip
// @Description Validates and stores a trip request. Repeating the call with the same Idempotency-Key returns the original trip.
// @Tags        Trips
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID        header  string  false "User ID (demo header)"  example(user123)
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       body             body    handlers.CreateTripRequest  true  "Trip request"
//
// @Success     201  {object}  domain.TripSpec
// @Success     200  {object}  domain.TripSpec  "Replayed"
// @Header      200  {string}  Idempotency-Replayed  "true on replay"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /trips [post]
func (h *Handlers) CreateTrip(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)

	if rid, replayed := middleware.ReplayResource(c); replayed {
		if prev, err := h.trips.Get(ctx, uid, rid); err == nil {
			c.Header("Idempotency-Replayed", "true")
			ok(c, http.StatusOK, prev)
			return
		}
	}

	var req CreateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	trip, err := h.trips.Create(ctx, uid, req.spec())
	if err != nil {
		failService(c, err, ErrCodeCreateFailed)
		return
	}

	if key, has := middleware.GetIdempotencyKey(c); has && h.idem != nil {
		if err := h.idem.Save(ctx, uid, middleware.IdempotencyScope(c), key, trip.ID, http.StatusCreated); err != nil {
			middleware.LoggerFrom(c).Warn().Err(err).Msg("store idempotency key")
		}
	}
	ok(c, http.StatusCreated, trip)
}

// ListTrips godoc
// @ID          listTrips
// @Summary     List trips (paginated)
// @Description Returns a page of the caller's trips, newest first. Supports weak ETag via If-None-Match.
// @Tags        Trips
// @Produce     json
//
// @Param       X-User-ID      header  string  false "User ID (demo header)"       example(user123)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"trips:user123:3:1717000000\")
// @Param       page           query   int     false "Page number"     minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListTripsResponse
// @Header      200  {string} ETag  "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /trips [get]
func (h *Handlers) ListTrips(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	if count, maxTS, err := h.trips.Stats(ctx, uid); err == nil {
		var ts int64
		if maxTS != nil {
			ts = maxTS.Unix()
		}
		if weakETag(c, fmt.Sprintf(`W/"trips:%s:%d:%d:%d:%d"`, uid, count, ts, page, pageSize)) {
			return
		}
	}

	items, total, err := h.trips.ListPage(ctx, uid, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	if items == nil {
		items = []domain.TripSpec{}
	}

	totalPages := utils.TotalPages(total, pageSize)
	ok(c, http.StatusOK, ListTripsResponse{
		Trips: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// GetTrip godoc
// @ID          getTrip
// @Summary     Get a trip
// @Tags        Trips
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Trip ID (UUID)"         format(uuid)
//
// @Success     200  {object} domain.TripSpec
// @Failure     404  {object} handlers.ErrorResponse "Trip not found"
// @Router      /trips/{id} [get]
func (h *Handlers) GetTrip(c *gin.Context) {
	if t, found := h.ownedTrip(c); found {
		ok(c, http.StatusOK, t)
	}
}
