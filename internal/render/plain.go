package render

import (
	"context"
	"strings"

	"github.com/tbourn/go-trip-backend/internal/domain"
)

// PlainTextRenderer emits the itinerary as-is followed by a list of map
// links. It never fails on non-empty text.
type PlainTextRenderer struct{}

// ContentType implements the renderer contract.
func (PlainTextRenderer) ContentType() string { return ContentTypePlain }

// Render implements the renderer contract.
func (PlainTextRenderer) Render(_ context.Context, text string, enr []domain.LocationEnrichment) ([]byte, error) {
	var b strings.Builder
	b.WriteString(strings.TrimRight(text, "\n"))
	b.WriteString("\n")
	if len(enr) > 0 {
		b.WriteString("\nLocations:\n")
		for _, e := range enr {
			b.WriteString("- " + e.Name + ": " + e.MapsLink + "\n")
		}
	}
	return []byte(b.String()), nil
}
