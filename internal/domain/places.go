package domain

import (
	"database/sql/driver"
	"errors"
	"strings"

	json "github.com/goccy/go-json"
)

// PlaceDetails is the resolved record of a location from the places service.
type PlaceDetails struct {
	PlaceID string   `json:"place_id"`
	Name    string   `json:"name"`
	Address string   `json:"address,omitempty"`
	Rating  float64  `json:"rating,omitempty"`
	Types   []string `json:"types,omitempty"`
	Photos  []string `json:"photos,omitempty"` // photo URLs, at most three
}

// LocationCandidate is a landmark phrase found in itinerary text.
type LocationCandidate struct {
	RawPhrase     string        `json:"raw_phrase"`
	NormalizedKey string        `json:"normalized_key"`
	Resolved      *PlaceDetails `json:"resolved,omitempty"`
}

// NormalizeKey lowercases s and collapses whitespace.
func NormalizeKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// LocationEnrichment is what an artifact stores per extracted location.
type LocationEnrichment struct {
	Name     string        `json:"name"`
	MapsLink string        `json:"maps_link"`
	Place    *PlaceDetails `json:"place,omitempty"`
}

// Enrichments is stored as a JSON text column.
type Enrichments []LocationEnrichment

// Value implements driver.Valuer.
func (e Enrichments) Value() (driver.Value, error) {
	if e == nil {
		return "[]", nil
	}
	b, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (e *Enrichments) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*e = nil
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return errors.New("enrichments: unsupported column type")
	}
	if len(raw) == 0 {
		*e = nil
		return nil
	}
	return json.Unmarshal(raw, e)
}

// PlaceSuggestion is one destination autocomplete result.
type PlaceSuggestion struct {
	Description   string `json:"description"`
	PlaceID       string `json:"place_id"`
	MainText      string `json:"main_text"`
	SecondaryText string `json:"secondary_text,omitempty"`
}
