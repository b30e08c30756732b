// Places HTTP handlers.
//
//   - GET /places/photos       (photos and map link of a location)
//   - GET /places/autocomplete (destination suggestions)
//
// Both degrade to empty results when the places provider is unavailable or
// its daily budget is spent; they never fail because of it.
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-trip-backend/internal/domain"
	"github.com/tbourn/go-trip-backend/internal/services"
)

const maxPlaceQueryLen = 200

// PhotosResponse lists photo URLs for a location.
type PhotosResponse struct {
	Location string   `json:"location"    example:"Louvre Museum"`
	PlaceID  string   `json:"place_id,omitempty"`
	Address  string   `json:"address,omitempty"`
	MapsLink string   `json:"maps_link"   example:"https://maps.google.com/?q=Louvre+Museum%2C+Paris"`
	Photos   []string `json:"photos"`
}

// AutocompleteResponse lists destination suggestions.
type AutocompleteResponse struct {
	Suggestions []domain.PlaceSuggestion `json:"suggestions"`
}

// GetPlacePhotos godoc
// @ID          getPlacePhotos
// @Summary     Photos of a location
// @Description Resolves a location within a destination and returns up to three photo URLs plus a map link.
// @Tags        Places
// @Produce     json
//
// @Param       location     query  string  true   "Location name"  example(Louvre Museum)
// @Param       destination  query  string  false  "City or destination"  example(Paris)
//
// @Success     200  {object} handlers.PhotosResponse
// @Failure     400  {object} handlers.ErrorResponse "Missing location"
// @Router      /places/photos [get]
func (h *Handlers) GetPlacePhotos(c *gin.Context) {
	location := strings.TrimSpace(c.Query("location"))
	destination := strings.TrimSpace(c.Query("destination"))
	if location == "" || len(location) > maxPlaceQueryLen || len(destination) > maxPlaceQueryLen {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "location is required (max 200 chars)")
		return
	}

	resp := PhotosResponse{Location: location, Photos: []string{}}
	if h.places != nil {
		if d := h.places.ResolvePlace(c.Request.Context(), location, destination); d != nil {
			resp.PlaceID = d.PlaceID
			resp.Address = d.Address
			if len(d.Photos) > 0 {
				resp.Photos = d.Photos
			}
		}
	}
	resp.MapsLink = services.GenerateMapsLink(location, destination, resp.PlaceID)
	ok(c, http.StatusOK, resp)
}

// Autocomplete godoc
// @ID          autocompleteDestination
// @Summary     Destination suggestions
// @Description Returns up to five city suggestions for queries of at least two characters.
// @Tags        Places
// @Produce     json
//
// @Param       query  query  string  true  "Partial destination"  example(Par)
//
// @Success     200  {object} handlers.AutocompleteResponse
// @Failure     400  {object} handlers.ErrorResponse "Query too long"
// @Router      /places/autocomplete [get]
func (h *Handlers) Autocomplete(c *gin.Context) {
	q := c.Query("query")
	if len(q) > maxPlaceQueryLen {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "query too long (max 200 chars)")
		return
	}
	resp := AutocompleteResponse{Suggestions: []domain.PlaceSuggestion{}}
	if h.places != nil {
		if s := h.places.Autocomplete(c.Request.Context(), q); len(s) > 0 {
			resp.Suggestions = s
		}
	}
	c.Header("Cache-Control", "private, max-age=300")
	ok(c, http.StatusOK, resp)
}
