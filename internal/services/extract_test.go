package services

import (
	"reflect"
	"strings"
	"testing"
)

func TestExtractLocations_CaseInsensitive(t *testing.T) {
	want := []string{"Eiffel Tower", "Louvre Museum"}
	base := "Visit Eiffel Tower and explore Louvre Museum today"
	for _, in := range []string{base, strings.ToLower(base), strings.ToUpper(base)} {
		got := ExtractLocations(in)
		if !reflect.DeepEqual(got, want) {
			t.Errorf("ExtractLocations(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestExtractLocations_Dedup(t *testing.T) {
	text := "Morning at the Eiffel Tower.\nEvening: eiffel tower again, then Tower Bridge."
	got := ExtractLocations(text)
	want := []string{"Eiffel Tower", "Tower Bridge"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestExtractLocations_Markdown(t *testing.T) {
	text := "## Day 1\n\n- **Morning:** Visit the British Museum\n- **Lunch:** Borough Market"
	got := ExtractLocations(text)
	want := []string{"British Museum", "Borough Market"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestExtractLocations_SuffixNeedsName(t *testing.T) {
	// A bare suffix, or one split across lines, is not a location.
	text := "Stroll along the Seine\nGarden\nthen a museum"
	if got := ExtractLocations(text); len(got) != 0 {
		t.Fatalf("expected nothing, got %v", got)
	}
}

func TestExtractLocations_Abbreviation(t *testing.T) {
	got := ExtractLocations("Climb to St. Paul's Cathedral at noon")
	want := []string{"St. Paul's Cathedral"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestExtractLocations_Empty(t *testing.T) {
	if got := ExtractLocations(""); got == nil || len(got) != 0 {
		t.Fatalf("want empty non-nil slice, got %#v", got)
	}
}
