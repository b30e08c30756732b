// Package places looks up points of interest for itinerary enrichment:
// text search, place details (photos), destination autocomplete and photo
// URLs. The Client interface hides the provider; GoogleClient implements it
// on the Google Maps Places API.
package places

import (
	"context"
	"errors"
)

// ErrNoResults is returned when a search matches nothing.
var ErrNoResults = errors.New("places: no results")

// SearchResult is the best match of a text search.
type SearchResult struct {
	PlaceID   string
	Name      string
	Address   string
	Rating    float64
	Types     []string
	PhotoRefs []string
}

// Photo is a photo reference attached to a place.
type Photo struct {
	Reference string
	Width     int
	Height    int
}

// Prediction is one autocomplete suggestion.
type Prediction struct {
	Description   string
	PlaceID       string
	MainText      string
	SecondaryText string
}

// TypeCities restricts Autocomplete to cities.
const TypeCities = "(cities)"

// Client is the places provider.
type Client interface {
	TextSearch(ctx context.Context, query string) (*SearchResult, error)
	PlaceDetails(ctx context.Context, placeID string) ([]Photo, error)
	Autocomplete(ctx context.Context, query, typeFilter string) ([]Prediction, error)
	PhotoURL(ref string, maxWidth int) string
}
