package places

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"googlemaps.github.io/maps"
)

const photoEndpoint = "https://maps.googleapis.com/maps/api/place/photo"

// GoogleConfig configures GoogleClient.
type GoogleConfig struct {
	APIKey string
	// PhotoKey signs photo URLs handed to browsers. It should be a
	// referrer-restricted key; empty means APIKey.
	PhotoKey string
	// RateLimit caps requests per second; zero keeps the library default.
	RateLimit int
	// BaseURL overrides the API host (tests).
	BaseURL string
}

// GoogleClient implements Client with googlemaps.github.io/maps.
type GoogleClient struct {
	api      *maps.Client
	photoKey string
}

// NewGoogleClient builds a client. An empty key is rejected by the library.
func NewGoogleClient(cfg GoogleConfig) (*GoogleClient, error) {
	opts := []maps.ClientOption{maps.WithAPIKey(cfg.APIKey)}
	if cfg.RateLimit > 0 {
		opts = append(opts, maps.WithRateLimit(cfg.RateLimit))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, maps.WithBaseURL(cfg.BaseURL))
	}
	api, err := maps.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("places client: %w", err)
	}
	photoKey := cfg.PhotoKey
	if photoKey == "" {
		photoKey = cfg.APIKey
	}
	return &GoogleClient{api: api, photoKey: photoKey}, nil
}

// TextSearch returns the first match for query.
func (c *GoogleClient) TextSearch(ctx context.Context, query string) (*SearchResult, error) {
	tr := otel.Tracer("places")
	ctx, span := tr.Start(ctx, "TextSearch", trace.WithAttributes(attribute.String("places.query", query)))
	defer span.End()

	resp, err := c.api.TextSearch(ctx, &maps.TextSearchRequest{Query: query})
	if err != nil {
		return nil, mapErr(err)
	}
	if len(resp.Results) == 0 {
		return nil, ErrNoResults
	}
	r := resp.Results[0]
	out := &SearchResult{
		PlaceID: r.PlaceID,
		Name:    r.Name,
		Address: r.FormattedAddress,
		Rating:  float64(r.Rating),
		Types:   r.Types,
	}
	for _, p := range r.Photos {
		out.PhotoRefs = append(out.PhotoRefs, p.PhotoReference)
	}
	return out, nil
}

// PlaceDetails returns the photos of placeID.
func (c *GoogleClient) PlaceDetails(ctx context.Context, placeID string) ([]Photo, error) {
	tr := otel.Tracer("places")
	ctx, span := tr.Start(ctx, "PlaceDetails", trace.WithAttributes(attribute.String("places.place_id", placeID)))
	defer span.End()

	res, err := c.api.PlaceDetails(ctx, &maps.PlaceDetailsRequest{
		PlaceID: placeID,
		Fields: []maps.PlaceDetailsFieldMask{
			maps.PlaceDetailsFieldMaskName,
			maps.PlaceDetailsFieldMaskPhotos,
		},
	})
	if err != nil {
		return nil, mapErr(err)
	}
	out := make([]Photo, 0, len(res.Photos))
	for _, p := range res.Photos {
		out = append(out, Photo{Reference: p.PhotoReference, Width: p.Width, Height: p.Height})
	}
	return out, nil
}

// Autocomplete returns predictions for query. typeFilter may be empty or
// TypeCities.
func (c *GoogleClient) Autocomplete(ctx context.Context, query, typeFilter string) ([]Prediction, error) {
	tr := otel.Tracer("places")
	ctx, span := tr.Start(ctx, "Autocomplete")
	defer span.End()

	req := &maps.PlaceAutocompleteRequest{Input: query}
	if typeFilter == TypeCities {
		req.Types = maps.AutocompletePlaceTypeCities
	}
	resp, err := c.api.PlaceAutocomplete(ctx, req)
	if err != nil {
		return nil, mapErr(err)
	}
	out := make([]Prediction, 0, len(resp.Predictions))
	for _, p := range resp.Predictions {
		out = append(out, Prediction{
			Description:   p.Description,
			PlaceID:       p.PlaceID,
			MainText:      p.StructuredFormatting.MainText,
			SecondaryText: p.StructuredFormatting.SecondaryText,
		})
	}
	return out, nil
}

// PhotoURL builds the photo media URL for ref. It performs no request.
func (c *GoogleClient) PhotoURL(ref string, maxWidth int) string {
	if maxWidth <= 0 {
		maxWidth = 400
	}
	q := url.Values{}
	q.Set("maxwidth", strconv.Itoa(maxWidth))
	q.Set("photo_reference", ref)
	q.Set("key", c.photoKey)
	return photoEndpoint + "?" + q.Encode()
}

// mapErr turns provider "nothing there" statuses into ErrNoResults.
func mapErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}
	msg := err.Error()
	if strings.Contains(msg, "ZERO_RESULTS") || strings.Contains(msg, "NOT_FOUND") {
		return ErrNoResults
	}
	return err
}
