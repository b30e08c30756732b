// Personalization HTTP handlers.
//
//   - POST /history   (record a past trip)
//   - GET  /history   (recent past trips)
//   - POST /landmarks (curate a landmark)
//   - GET  /landmarks (landmarks of a destination)
//
// Both feed the itinerary prompt.
package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-trip-backend/internal/domain"
	"github.com/tbourn/go-trip-backend/internal/utils"
)

// AddHistoryRequest is the JSON payload for recording a past trip.
type AddHistoryRequest struct {
	Destination string    `json:"destination" binding:"max=255" example:"Lisbon"`
	TripDate    time.Time `json:"trip_date"   example:"2024-05-01T00:00:00Z"`
	Rating      *int      `json:"rating"      example:"5"`
	Notes       string    `json:"notes"       binding:"max=2000"`
}

// AddLandmarkRequest is the JSON payload for curating a landmark.
type AddLandmarkRequest struct {
	Destination     string `json:"destination"        binding:"max=255" example:"Paris"`
	Name            string `json:"name"               binding:"max=255" example:"Sainte-Chapelle"`
	Category        string `json:"category"           binding:"max=64"  example:"church"`
	Description     string `json:"description"        binding:"max=2000"`
	BestTimeToVisit string `json:"best_time_to_visit" binding:"max=128" example:"sunny mornings"`
}

// HistoryResponse lists past trips.
type HistoryResponse struct {
	History []domain.TripHistory `json:"history"`
}

// LandmarksResponse lists landmarks of a destination.
type LandmarksResponse struct {
	Landmarks []domain.Landmark `json:"landmarks"`
}

// AddHistory godoc
// @ID          addHistory
// @Summary     Record a past trip
// @Tags        Personalization
// @Accept      json
// @Produce     json
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       body       body    handlers.AddHistoryRequest  true  "Past trip"
// @Success     201  {object} domain.TripHistory
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Router      /history [post]
func (h *Handlers) AddHistory(c *gin.Context) {
	var req AddHistoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	rec, err := h.trips.AddHistory(c.Request.Context(), userID(c), domain.TripHistory{
		Destination: req.Destination,
		TripDate:    req.TripDate,
		Rating:      req.Rating,
		Notes:       strings.TrimSpace(req.Notes),
	})
	if err != nil {
		failService(c, err, ErrCodeCreateFailed)
		return
	}
	ok(c, http.StatusCreated, rec)
}

// ListHistory godoc
// @ID          listHistory
// @Summary     Recent past trips
// @Tags        Personalization
// @Produce     json
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       limit      query   int     false "Max items"  minimum(1) maximum(50) default(10)
// @Success     200  {object} handlers.HistoryResponse
// @Router      /history [get]
func (h *Handlers) ListHistory(c *gin.Context) {
	limit := utils.BoundedInt(c.Query("limit"), 10, 1, 50)
	items, err := h.trips.ListHistory(c.Request.Context(), userID(c), limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	if items == nil {
		items = []domain.TripHistory{}
	}
	ok(c, http.StatusOK, HistoryResponse{History: items})
}

// AddLandmark godoc
// @ID          addLandmark
// @Summary     Curate a landmark
// @Tags        Personalization
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.AddLandmarkRequest  true  "Landmark"
// @Success     201  {object} domain.Landmark
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Router      /landmarks [post]
func (h *Handlers) AddLandmark(c *gin.Context) {
	var req AddLandmarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	l, err := h.trips.AddLandmark(c.Request.Context(), domain.Landmark{
		Destination:     req.Destination,
		Name:            req.Name,
		Category:        strings.TrimSpace(req.Category),
		Description:     strings.TrimSpace(req.Description),
		BestTimeToVisit: strings.TrimSpace(req.BestTimeToVisit),
	})
	if err != nil {
		failService(c, err, ErrCodeCreateFailed)
		return
	}
	ok(c, http.StatusCreated, l)
}

// ListLandmarks godoc
// @ID          listLandmarks
// @Summary     Landmarks of a destination
// @Tags        Personalization
// @Produce     json
// @Param       destination  query  string  true   "Destination"  example(Paris)
// @Param       limit        query  int     false  "Max items"  minimum(1) maximum(50) default(20)
// @Success     200  {object} handlers.LandmarksResponse
// @Failure     400  {object} handlers.ErrorResponse "Missing destination"
// @Router      /landmarks [get]
func (h *Handlers) ListLandmarks(c *gin.Context) {
	dest := strings.TrimSpace(c.Query("destination"))
	if dest == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "destination is required")
		return
	}
	limit := utils.BoundedInt(c.Query("limit"), 20, 1, 50)
	items, err := h.trips.Landmarks(c.Request.Context(), dest, limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	if items == nil {
		items = []domain.Landmark{}
	}
	ok(c, http.StatusOK, LandmarksResponse{Landmarks: items})
}
