package services

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tbourn/go-trip-backend/internal/domain"
	"github.com/tbourn/go-trip-backend/internal/search"
)

const (
	systemPrompt = "You are a travel planning expert. Create detailed, budget-conscious itineraries."

	historyLimit    = 3
	landmarkLimit   = 8
	defaultTipCount = 3
)

// PromptContextSource supplies personalization for prompts. Lookup failures
// only shorten the prompt.
type PromptContextSource interface {
	RecentHistory(ctx context.Context, userID string, limit int) ([]domain.TripHistory, error)
	Landmarks(ctx context.Context, destination string, limit int) ([]domain.Landmark, error)
}

// TipSource ranks local tips for a destination. search.Index implements it.
type TipSource interface {
	TopK(destination, query string, k int) []search.Tip
}

// buildUserPrompt renders the structured request for spec.
func buildUserPrompt(spec domain.TripSpec, history []domain.TripHistory, landmarks []domain.Landmark, tips []string) string {
	title := cases.Title(language.Und)
	dest := title.String(spec.Destination)
	where := dest
	if spec.Country != "" {
		where = dest + ", " + title.String(spec.Country)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Create a %d-day trip plan for %s.\n\n", spec.DurationDays, where)
	fmt.Fprintf(&b, "Budget: $%s total for %d travelers ($%s per person per day)\n",
		spec.TotalBudget.StringFixed(2), spec.TravelerCount, spec.PerPersonDaily().StringFixed(2))
	fmt.Fprintf(&b, "Interests: %s\n", orDefault(spec.Interests, "General tourism"))
	if spec.TransportPref != "" {
		fmt.Fprintf(&b, "Transportation: %s\n", spec.TransportPref)
	}
	if spec.ExperienceStyle != "" {
		fmt.Fprintf(&b, "Experience style: %s\n", spec.ExperienceStyle)
	}

	if len(history) > 0 {
		parts := make([]string, 0, len(history))
		for _, h := range history {
			s := title.String(h.Destination)
			if h.Rating != nil {
				s += fmt.Sprintf(" (rated %d/5)", *h.Rating)
			}
			parts = append(parts, s)
		}
		fmt.Fprintf(&b, "\nPrevious trips: %s. Avoid repeating the same kind of experiences.\n", strings.Join(parts, ", "))
	}
	if len(landmarks) > 0 {
		parts := make([]string, 0, len(landmarks))
		for _, l := range landmarks {
			s := l.Name
			if l.BestTimeToVisit != "" {
				s += " (best: " + l.BestTimeToVisit + ")"
			}
			parts = append(parts, s)
		}
		fmt.Fprintf(&b, "Known landmarks in %s: %s\n", dest, strings.Join(parts, "; "))
	}
	if len(tips) > 0 {
		b.WriteString("\nLocal tips to weave in:\n")
		for _, t := range tips {
			fmt.Fprintf(&b, "- %s\n", t)
		}
	}

	fmt.Fprintf(&b, `
Format as markdown:
# Trip to %s

## Day 1: [Theme]
- Hotel: [name and cost estimate]
- Meals: [restaurant suggestions with costs]
- Activities: [specific places with timing]
- Daily cost: $[amount] per person

Continue for all %d days.

Use the full proper names of museums, landmarks, restaurants and hotels so they can be found on a map.
Include transportation tips and local tips. Keep it concise but informative.
`, dest, spec.DurationDays)
	return b.String()
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
