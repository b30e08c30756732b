package services

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tbourn/go-trip-backend/internal/domain"
)

type destinationGuide struct {
	attractions []string
	food        []string
	transport   string
	tip         string
}

// guides is matched by substring of the lowercased destination, in order.
var guides = []struct {
	key   string
	guide destinationGuide
}{
	{"paris", destinationGuide{
		attractions: []string{"Eiffel Tower", "Louvre Museum", "Notre-Dame Cathedral", "Arc de Triomphe", "Sacré-Cœur Basilica"},
		food:        []string{"French bistro", "Café de Flore", "Local boulangerie", "Seine-side restaurant"},
		transport:   "Metro day pass (about €7.50/day)",
		tip:         "Many museums are free on the first Sunday of the month",
	}},
	{"london", destinationGuide{
		attractions: []string{"Big Ben", "Tower Bridge", "British Museum", "Hyde Park", "Buckingham Palace"},
		food:        []string{"Traditional pub", "Borough Market", "Fish and chips shop", "Afternoon tea"},
		transport:   "Oyster card or contactless for the Tube (daily cap applies)",
		tip:         "Most national museums are free to enter",
	}},
	{"rome", destinationGuide{
		attractions: []string{"Colosseum", "Vatican City", "Trevi Fountain", "Roman Forum", "Pantheon"},
		food:        []string{"Trattoria", "Gelato shop", "Roman pizzeria", "Osteria"},
		transport:   "Roma Pass (72 hours, includes transit)",
		tip:         "Churches are free; eat a few streets away from the big landmarks",
	}},
	{"tokyo", destinationGuide{
		attractions: []string{"Senso-ji Temple", "Meiji Shrine", "Tsukiji Outer Market", "Shibuya Crossing", "Tokyo Tower"},
		food:        []string{"Ramen shop", "Sushi counter", "Izakaya", "Depachika food hall"},
		transport:   "Suica or Pasmo card for trains and subways",
		tip:         "Convenience stores offer cheap, good quality meals",
	}},
	{"new york", destinationGuide{
		attractions: []string{"Statue of Liberty", "Central Park", "Times Square", "Metropolitan Museum", "Brooklyn Bridge"},
		food:        []string{"Deli", "Pizza slice shop", "Food hall", "Diner"},
		transport:   "OMNY tap-to-pay on subway and buses (weekly fare cap)",
		tip:         "Several museums have pay-what-you-wish hours",
	}},
	{"barcelona", destinationGuide{
		attractions: []string{"Sagrada Familia Basilica", "Park Güell", "La Boqueria Market", "Gothic Quarter", "Barceloneta Beach"},
		food:        []string{"Tapas bar", "Paella restaurant", "Bodega", "Churros café"},
		transport:   "Hola Barcelona travel card for metro and buses",
		tip:         "Eat the menú del día at lunch for the best value",
	}},
}

var genericGuide = destinationGuide{
	attractions: []string{"Main attraction", "Cultural site", "Historic landmark", "Local market", "Scenic viewpoint"},
	food:        []string{"Local restaurant", "Traditional eatery", "Popular café", "Street food vendor"},
	transport:   "Research local public transport passes",
	tip:         "Look for free walking tours and local deals",
}

func guideFor(destination string) destinationGuide {
	d := strings.ToLower(destination)
	for _, g := range guides {
		if strings.Contains(d, g.key) {
			return g.guide
		}
	}
	return genericGuide
}

var (
	shareAccommodation = decimal.RequireFromString("0.35")
	shareLunch         = decimal.RequireFromString("0.15")
	shareDinner        = decimal.RequireFromString("0.20")
)

// TemplateFallbackGenerator renders a zero-cost markdown itinerary for spec.
// It is a pure function: identical specs yield identical bytes. Every day
// block carries "Daily total: $X per person" with X = budget / days /
// travelers rounded to cents.
func TemplateFallbackGenerator(spec domain.TripSpec) string {
	days := spec.DurationDays
	if days < 1 {
		days = 1
	}
	travelers := spec.TravelerCount
	if travelers < 1 {
		travelers = 1
	}
	dest := cases.Title(language.Und).String(strings.TrimSpace(spec.Destination))
	if dest == "" {
		dest = "Your Destination"
	}
	daily := spec.TotalBudget.
		Div(decimal.NewFromInt(int64(days))).
		Div(decimal.NewFromInt(int64(travelers))).
		Round(2)
	g := guideFor(spec.Destination)

	var b strings.Builder
	fmt.Fprintf(&b, "# %s Travel Plan\n\n", dest)
	fmt.Fprintf(&b, "%d days for %d %s, total budget $%s.\n", days, travelers, plural(travelers, "traveler", "travelers"), spec.TotalBudget.StringFixed(2))
	if spec.Interests != "" {
		fmt.Fprintf(&b, "Focus: %s.\n", spec.Interests)
	}
	b.WriteString("\n")

	for day := 1; day <= days; day++ {
		var theme string
		switch {
		case day == 1:
			theme = "Arrival & First Impressions"
		case day == days:
			theme = "Final Day & Departure"
		default:
			theme = "Exploring " + dest
		}
		fmt.Fprintf(&b, "## Day %d: %s\n\n", day, theme)
		fmt.Fprintf(&b, "- Accommodation: Budget hotel ($%s/person)\n", daily.Mul(shareAccommodation).StringFixed(2))
		fmt.Fprintf(&b, "- Visit: %s\n", g.attractions[(day-1)%len(g.attractions)])
		fmt.Fprintf(&b, "- Lunch: %s ($%s/person)\n", g.food[(day-1)%len(g.food)], daily.Mul(shareLunch).StringFixed(2))
		fmt.Fprintf(&b, "- Dinner: %s ($%s/person)\n", g.food[day%len(g.food)], daily.Mul(shareDinner).StringFixed(2))
		b.WriteString("- Evening: Local exploration\n")
		fmt.Fprintf(&b, "- Daily total: $%s per person\n\n", daily.StringFixed(2))
	}

	b.WriteString("## Getting Around\n\n")
	fmt.Fprintf(&b, "- Transportation: %s\n", g.transport)
	fmt.Fprintf(&b, "- Budget tip: %s\n", g.tip)
	return b.String()
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
