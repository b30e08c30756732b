package services

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tbourn/go-trip-backend/internal/domain"
)

// famousLandmarks are matched anywhere in a line, case-insensitively, and
// reported with this spelling.
var famousLandmarks = []string{
	"Eiffel Tower", "Louvre Museum", "Notre-Dame Cathedral", "Arc de Triomphe",
	"Sacré-Cœur Basilica", "Times Square", "Central Park", "Big Ben", "London Eye",
	"Statue of Liberty", "Golden Gate Bridge", "Colosseum", "Vatican City",
	"Trevi Fountain", "Roman Forum", "Pantheon",
}

var (
	famousRe        *regexp.Regexp
	famousCanonical = map[string]string{}
)

func init() {
	alts := make([]string, 0, len(famousLandmarks))
	for _, n := range famousLandmarks {
		alts = append(alts, regexp.QuoteMeta(n))
		famousCanonical[domain.NormalizeKey(n)] = n
	}
	famousRe = regexp.MustCompile(`(?i)\b(?:` + strings.Join(alts, "|") + `)\b`)
}

// landmarkSuffixes end a location phrase.
var landmarkSuffixes = map[string]struct{}{
	"museum": {}, "palace": {}, "temple": {}, "church": {}, "cathedral": {},
	"market": {}, "beach": {}, "square": {}, "tower": {}, "bridge": {},
	"garden": {}, "gardens": {}, "gallery": {}, "stadium": {}, "airport": {},
	"station": {}, "basilica": {}, "castle": {}, "park": {}, "fountain": {},
	"abbey": {}, "restaurant": {}, "café": {}, "cafe": {}, "hotel": {},
	"inn": {}, "lodge": {}, "bistro": {}, "brasserie": {}, "tavern": {},
}

// phraseBreakers never belong to a location name.
var phraseBreakers = map[string]struct{}{
	"visit": {}, "visiting": {}, "explore": {}, "exploring": {}, "see": {},
	"go": {}, "to": {}, "at": {}, "near": {}, "in": {}, "on": {}, "by": {},
	"from": {}, "for": {}, "with": {}, "and": {}, "or": {}, "then": {},
	"the": {}, "a": {}, "an": {}, "of": {}, "your": {}, "our": {},
	"tour": {}, "walk": {}, "stroll": {}, "head": {}, "enjoy": {},
	"lunch": {}, "dinner": {}, "breakfast": {}, "morning": {}, "afternoon": {},
	"evening": {}, "day": {}, "stay": {}, "check-in": {},
}

// abbreviations keep their trailing dot inside a name.
var abbreviations = map[string]struct{}{"st.": {}, "mt.": {}, "ste.": {}}

const maxNameWords = 4

type foundLocation struct {
	pos  int
	name string
}

// ExtractLocations finds landmark mentions in itinerary text. It scans line
// by line, returns canonical names for famous landmarks plus phrases of one
// to four name words ending in a landmark suffix, de-duplicated by
// normalized key in order of first appearance.
func ExtractLocations(text string) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		for _, f := range extractLine(line) {
			key := domain.NormalizeKey(f.name)
			if len(key) <= 3 {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, f.name)
		}
	}
	return out
}

func extractLine(line string) []foundLocation {
	var found []foundLocation
	for _, loc := range famousRe.FindAllStringIndex(line, -1) {
		name := famousCanonical[domain.NormalizeKey(line[loc[0]:loc[1]])]
		if name == "" {
			name = line[loc[0]:loc[1]]
		}
		found = append(found, foundLocation{pos: loc[0], name: name})
	}
	found = append(found, suffixPhrases(line)...)
	sort.SliceStable(found, func(i, j int) bool { return found[i].pos < found[j].pos })
	return found
}

type token struct {
	pos  int
	text string
}

func tokenize(line string) []token {
	var toks []token
	start := -1
	for i, r := range line {
		if unicode.IsSpace(r) {
			if start >= 0 {
				toks = append(toks, token{pos: start, text: line[start:i]})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		toks = append(toks, token{pos: start, text: line[start:]})
	}
	return toks
}

func suffixPhrases(line string) []foundLocation {
	mixed := isMixedCase(line)
	toks := tokenize(line)
	var out []foundLocation
	for i, tk := range toks {
		word, leadJunk := trimWord(tk.text)
		if word == "" || leadJunk {
			continue
		}
		if _, ok := landmarkSuffixes[strings.ToLower(word)]; !ok {
			continue
		}
		if mixed && !startsUpper(word) {
			continue
		}

		words := []string{word}
		pos := tk.pos
		for j := i - 1; j >= 0 && len(words) < maxNameWords+1; j-- {
			raw := toks[j].text
			lower := strings.ToLower(raw)
			if _, ok := abbreviations[lower]; ok {
				words = append([]string{raw}, words...)
				pos = toks[j].pos
				continue
			}
			if endsWithBreak(raw) {
				break
			}
			w, lead := trimWord(raw)
			if w == "" || !isNameWord(w) {
				break
			}
			if _, stop := phraseBreakers[strings.ToLower(w)]; stop {
				break
			}
			if mixed && !startsUpper(w) {
				break
			}
			words = append([]string{w}, words...)
			pos = toks[j].pos + strings.Index(raw, w)
			if lead {
				break
			}
		}
		if len(words) < 2 {
			continue
		}
		name := strings.Join(words, " ")
		if !mixed {
			name = cases.Title(language.Und).String(strings.ToLower(name))
		}
		out = append(out, foundLocation{pos: pos, name: name})
	}
	return out
}

// trimWord strips surrounding punctuation and markdown. lead reports that
// leading characters were removed, which marks a phrase boundary.
func trimWord(s string) (word string, lead bool) {
	start := strings.IndexFunc(s, unicode.IsLetter)
	if start < 0 {
		return "", false
	}
	end := strings.LastIndexFunc(s, unicode.IsLetter)
	_, size := utf8.DecodeRuneInString(s[end:])
	return s[start : end+size], start > 0
}

func endsWithBreak(s string) bool {
	if s == "" {
		return true
	}
	switch s[len(s)-1] {
	case ',', '.', ':', ';', '!', '?', ')', '(', '"', '*', '|':
		return true
	}
	return false
}

func isNameWord(w string) bool {
	for _, r := range w {
		if !(unicode.IsLetter(r) || r == '-' || r == '\'' || r == '’' || r == '&') {
			return false
		}
	}
	return true
}

func startsUpper(w string) bool {
	for _, r := range w {
		return unicode.IsUpper(r)
	}
	return false
}

// isMixedCase reports whether line holds both upper- and lower-case letters.
func isMixedCase(line string) bool {
	var upper, lower bool
	for _, r := range line {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		}
		if upper && lower {
			return true
		}
	}
	return false
}
