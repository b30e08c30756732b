// Package services – EnrichmentService
//
// EnrichmentService attaches map links and, budget permitting, place details
// to the locations mentioned in an itinerary. Every lookup is cache-first and
// admitted by QuotaGuard. Failures only drop the enrichment of the affected
// location.
package services

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-trip-backend/internal/contentcache"
	"github.com/tbourn/go-trip-backend/internal/domain"
	"github.com/tbourn/go-trip-backend/internal/places"
	"github.com/tbourn/go-trip-backend/internal/quota"
)

const mapsBase = "https://maps.google.com/?q="

// importantKeywords gate the paid place-details lookup for photos.
var importantKeywords = []string{
	"museum", "palace", "temple", "church", "cathedral", "tower",
	"bridge", "park", "square", "market", "beach", "gallery",
}

// EnrichmentConfig bounds the work per itinerary.
type EnrichmentConfig struct {
	MaxLocations   int
	MaxPhotos      int
	PhotoMaxWidth  int
	SearchTimeout  time.Duration
	DetailsTimeout time.Duration
	MaxSuggestions int
}

// DefaultEnrichmentConfig mirrors the production defaults.
func DefaultEnrichmentConfig() EnrichmentConfig {
	return EnrichmentConfig{
		MaxLocations:   5,
		MaxPhotos:      3,
		PhotoMaxWidth:  400,
		SearchTimeout:  10 * time.Second,
		DetailsTimeout: 15 * time.Second,
		MaxSuggestions: 5,
	}
}

// EnrichmentService resolves itinerary locations.
type EnrichmentService struct {
	Places places.Client // nil disables lookups; links are still produced
	Cache  ContentCache
	Quota  Admission
	Config EnrichmentConfig
	Log    zerolog.Logger
}

// NewEnrichmentService fills zero config fields with defaults.
func NewEnrichmentService(pc places.Client, cache ContentCache, q Admission, cfg EnrichmentConfig, log zerolog.Logger) *EnrichmentService {
	def := DefaultEnrichmentConfig()
	if cfg.MaxLocations <= 0 {
		cfg.MaxLocations = def.MaxLocations
	}
	if cfg.MaxPhotos <= 0 {
		cfg.MaxPhotos = def.MaxPhotos
	}
	if cfg.PhotoMaxWidth <= 0 {
		cfg.PhotoMaxWidth = def.PhotoMaxWidth
	}
	if cfg.SearchTimeout <= 0 {
		cfg.SearchTimeout = def.SearchTimeout
	}
	if cfg.DetailsTimeout <= 0 {
		cfg.DetailsTimeout = def.DetailsTimeout
	}
	if cfg.MaxSuggestions <= 0 {
		cfg.MaxSuggestions = def.MaxSuggestions
	}
	return &EnrichmentService{Places: pc, Cache: cache, Quota: q, Config: cfg, Log: log}
}

// Enrich extracts up to MaxLocations locations from text and resolves each.
func (s *EnrichmentService) Enrich(ctx context.Context, text, city string) []domain.LocationEnrichment {
	tr := otel.Tracer("services/EnrichmentService")
	ctx, span := tr.Start(ctx, "Enrich", trace.WithAttributes(attribute.String("trip.destination", city)))
	defer span.End()

	names := ExtractLocations(text)
	if len(names) > s.Config.MaxLocations {
		names = names[:s.Config.MaxLocations]
	}
	out := make([]domain.LocationEnrichment, 0, len(names))
	for _, name := range names {
		place := s.ResolvePlace(ctx, name, city)
		placeID := ""
		if place != nil {
			placeID = place.PlaceID
		}
		out = append(out, domain.LocationEnrichment{
			Name:     name,
			MapsLink: GenerateMapsLink(name, city, placeID),
			Place:    place,
		})
	}
	span.SetAttributes(attribute.Int("enrichment.locations", len(out)))
	return out
}

// ResolvePlace returns place details for name in city, or nil when the
// place is unknown, the budget is spent or the provider fails.
func (s *EnrichmentService) ResolvePlace(ctx context.Context, name, city string) *domain.PlaceDetails {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	log := s.Log.With().Str("location", name).Logger()
	key := contentcache.Fingerprint(contentcache.OpPlaceDetails, name, city)

	if s.Cache != nil {
		var pd domain.PlaceDetails
		st, err := s.Cache.Get(ctx, key, &pd)
		switch {
		case err != nil:
			log.Warn().Err(err).Msg("place cache lookup failed")
		case st == contentcache.Hit:
			enrichmentLookups.WithLabelValues("cache_hit").Inc()
			return &pd
		case st == contentcache.NegativeHit:
			enrichmentLookups.WithLabelValues("negative_hit").Inc()
			return nil
		}
	}

	if s.Places == nil {
		return nil
	}
	if s.Quota != nil && !s.Quota.Acquire(ctx, quota.ServicePlaces) {
		enrichmentLookups.WithLabelValues("denied").Inc()
		return nil
	}

	query := name
	if city != "" {
		query = name + ", " + city
	}
	sctx, cancel := context.WithTimeout(ctx, s.Config.SearchTimeout)
	res, err := s.Places.TextSearch(sctx, query)
	cancel()
	if errors.Is(err, places.ErrNoResults) {
		enrichmentLookups.WithLabelValues("not_found").Inc()
		if s.Cache != nil {
			if cerr := s.Cache.SetNegative(ctx, key); cerr != nil {
				log.Warn().Err(cerr).Msg("negative cache store failed")
			}
		}
		return nil
	}
	if err != nil {
		enrichmentLookups.WithLabelValues("error").Inc()
		log.Warn().Err(err).Msg("place search failed")
		return nil
	}

	pd := &domain.PlaceDetails{
		PlaceID: res.PlaceID,
		Name:    res.Name,
		Address: res.Address,
		Rating:  res.Rating,
		Types:   res.Types,
	}
	if IsImportantLocation(name) && res.PlaceID != "" {
		pd.Photos = s.photos(ctx, res, log)
	}
	enrichmentLookups.WithLabelValues("resolved").Inc()

	if s.Cache != nil {
		if cerr := s.Cache.Set(ctx, contentcache.OpPlaceDetails, key, pd); cerr != nil {
			log.Warn().Err(cerr).Msg("place cache store failed")
		}
	}
	return pd
}

func (s *EnrichmentService) photos(ctx context.Context, res *places.SearchResult, log zerolog.Logger) []string {
	refs := res.PhotoRefs
	if s.Quota == nil || s.Quota.Acquire(ctx, quota.ServicePlaces) {
		dctx, cancel := context.WithTimeout(ctx, s.Config.DetailsTimeout)
		ph, err := s.Places.PlaceDetails(dctx, res.PlaceID)
		cancel()
		if err != nil {
			log.Warn().Err(err).Msg("place details failed")
		} else {
			refs = refs[:0:0]
			for _, p := range ph {
				refs = append(refs, p.Reference)
			}
		}
	}
	out := make([]string, 0, s.Config.MaxPhotos)
	for _, ref := range refs {
		if len(out) == s.Config.MaxPhotos {
			break
		}
		if ref != "" {
			out = append(out, s.Places.PhotoURL(ref, s.Config.PhotoMaxWidth))
		}
	}
	return out
}

// Autocomplete suggests destination cities for query. Queries shorter than
// two characters yield nothing.
func (s *EnrichmentService) Autocomplete(ctx context.Context, query string) []domain.PlaceSuggestion {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < 2 {
		return []domain.PlaceSuggestion{}
	}
	key := contentcache.Fingerprint(contentcache.OpAutocomplete, query)
	if s.Cache != nil {
		var cached []domain.PlaceSuggestion
		if st, err := s.Cache.Get(ctx, key, &cached); err == nil && st == contentcache.Hit {
			return cached
		}
	}
	if s.Places == nil {
		return []domain.PlaceSuggestion{}
	}
	if s.Quota != nil && !s.Quota.Acquire(ctx, quota.ServiceAutocomplete) {
		return []domain.PlaceSuggestion{}
	}

	sctx, cancel := context.WithTimeout(ctx, s.Config.SearchTimeout)
	preds, err := s.Places.Autocomplete(sctx, query, places.TypeCities)
	cancel()
	if err != nil {
		s.Log.Warn().Err(err).Str("query", query).Msg("autocomplete failed")
		return []domain.PlaceSuggestion{}
	}

	out := make([]domain.PlaceSuggestion, 0, s.Config.MaxSuggestions)
	for _, p := range preds {
		if len(out) == s.Config.MaxSuggestions {
			break
		}
		out = append(out, domain.PlaceSuggestion{
			Description:   p.Description,
			PlaceID:       p.PlaceID,
			MainText:      p.MainText,
			SecondaryText: p.SecondaryText,
		})
	}
	if s.Cache != nil {
		if cerr := s.Cache.Set(ctx, contentcache.OpAutocomplete, key, out); cerr != nil {
			s.Log.Warn().Err(cerr).Msg("autocomplete cache store failed")
		}
	}
	return out
}

// GenerateMapsLink builds a maps URL without any API call.
func GenerateMapsLink(name, city, placeID string) string {
	if placeID != "" {
		return mapsBase + "place_id:" + placeID
	}
	q := strings.TrimSpace(name)
	if city = strings.TrimSpace(city); city != "" {
		q += ", " + city
	}
	return mapsBase + url.QueryEscape(q)
}

// IsImportantLocation reports whether name looks worth a photo lookup.
func IsImportantLocation(name string) bool {
	low := strings.ToLower(name)
	for _, k := range importantKeywords {
		if strings.Contains(low, k) {
			return true
		}
	}
	return false
}
