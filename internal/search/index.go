// Package search is an in-memory knowledge base of local travel tips loaded
// from Markdown. A level-2 heading ("## Paris") names a destination and the
// paragraphs below it belong to that destination; paragraphs before the
// first heading are general advice that applies everywhere.
//
// Lookups rank paragraphs by Jaccard similarity between the query tokens
// and each paragraph's tokens: |Q ∩ P| / |Q ∪ P|. The index is immutable
// after construction and safe for concurrent use.
package search

import (
	"bytes"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/tbourn/go-trip-backend/internal/domain"
)

// Tip is a ranked snippet. Destination is empty for general advice.
type Tip struct {
	Destination string
	Snippet     string
	Score       float64
}

// Index looks up tips for a destination.
type Index interface {
	// TopK returns up to k tips for destination ranked against query. An
	// empty query returns the destination's tips in file order.
	TopK(destination, query string, k int) []Tip
	// Len is the number of indexed paragraphs.
	Len() int
}

type Option func(*config)

type config struct {
	minParagraphRunes int
	stopwords         map[string]struct{}
	maxDocs           int
}

func defaultConfig() config {
	return config{minParagraphRunes: 20}
}

// WithMinParagraphRunes drops shorter paragraphs; negative values are ignored.
func WithMinParagraphRunes(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.minParagraphRunes = n
		}
	}
}

// WithStopwords removes words from both queries and paragraphs.
func WithStopwords(words []string) Option {
	return func(c *config) {
		m := make(map[string]struct{}, len(words))
		for _, w := range words {
			w = strings.ToLower(strings.TrimSpace(w))
			if w != "" {
				m[w] = struct{}{}
			}
		}
		if len(m) > 0 {
			c.stopwords = m
		}
	}
}

// WithMaxDocs caps the number of indexed paragraphs.
func WithMaxDocs(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxDocs = n
		}
	}
}

// Section is the raw input of one destination.
type Section struct {
	Destination string
	Paragraphs  []string
}

type doc struct {
	dest   string // normalized key, "" for general
	label  string
	text   string
	tokens map[string]struct{}
	order  int
}

type index struct {
	cfg  config
	docs []doc
}

// NewIndexFromMarkdown reads the knowledge base at path.
func NewIndexFromMarkdown(path string, opts ...Option) (Index, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return &index{cfg: defaultConfig()}, err
	}
	return NewIndexFromReader(bytes.NewReader(b), opts...)
}

// NewIndexFromReader builds an index from Markdown read from r.
func NewIndexFromReader(r io.Reader, opts ...Option) (Index, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	all, err := io.ReadAll(r)
	if err != nil {
		return &index{cfg: cfg}, err
	}
	return buildIndex(parseSections(FlattenTables(all)), cfg), nil
}

// NewIndexFromSections builds an index from already split sections.
func NewIndexFromSections(sections []Section, opts ...Option) Index {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	return buildIndex(sections, cfg)
}

func buildIndex(sections []Section, cfg config) *index {
	var docs []doc
	for _, s := range sections {
		key := domain.NormalizeKey(s.Destination)
		for _, raw := range s.Paragraphs {
			t := strings.TrimSpace(normalizeWhitespace(raw))
			if t == "" {
				continue
			}
			if cfg.minParagraphRunes > 0 && utf8.RuneCountInString(t) < cfg.minParagraphRunes {
				continue
			}
			toks := tokenize(t, cfg.stopwords)
			if len(toks) == 0 {
				continue
			}
			docs = append(docs, doc{dest: key, label: strings.TrimSpace(s.Destination), text: t, tokens: toks, order: len(docs)})
			if cfg.maxDocs > 0 && len(docs) >= cfg.maxDocs {
				return &index{cfg: cfg, docs: docs}
			}
		}
	}
	return &index{cfg: cfg, docs: docs}
}

func (i *index) Len() int { return len(i.docs) }

func (i *index) TopK(destination, query string, k int) []Tip {
	if k <= 0 {
		k = 3
	}
	dest := domain.NormalizeKey(destination)
	if dest == "" || len(i.docs) == 0 {
		return nil
	}

	type scored struct {
		d     doc
		score float64
	}
	var buf []scored
	qTokens := tokenize(query, i.cfg.stopwords)

	for _, d := range i.docs {
		if d.dest != dest && d.dest != "" {
			continue
		}
		if len(qTokens) == 0 {
			// General advice only joins ranked lookups.
			if d.dest == dest {
				buf = append(buf, scored{d: d, score: 1})
			}
			continue
		}
		over := overlap(qTokens, d.tokens)
		if over == 0 {
			if d.dest == dest {
				buf = append(buf, scored{d: d})
			}
			continue
		}
		union := float64(len(qTokens) + len(d.tokens) - over)
		buf = append(buf, scored{d: d, score: float64(over) / union})
	}
	if len(buf) == 0 {
		return nil
	}

	sort.SliceStable(buf, func(a, b int) bool {
		if buf[a].score != buf[b].score {
			return buf[a].score > buf[b].score
		}
		if (buf[a].d.dest == "") != (buf[b].d.dest == "") {
			return buf[a].d.dest != ""
		}
		return buf[a].d.order < buf[b].d.order
	})

	if k > len(buf) {
		k = len(buf)
	}
	out := make([]Tip, k)
	for n := 0; n < k; n++ {
		out[n] = Tip{Destination: buf[n].d.label, Snippet: buf[n].d.text, Score: buf[n].score}
	}
	return out
}

var wordRE = regexp.MustCompile(`\p{L}+\p{N}*`)

func tokenize(s string, stop map[string]struct{}) map[string]struct{} {
	words := wordRE.FindAllString(strings.ToLower(s), -1)
	if len(words) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		if _, skip := stop[w]; skip {
			continue
		}
		out[w] = struct{}{}
	}
	return out
}

func overlap(a, b map[string]struct{}) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	n := 0
	for k := range a {
		if _, ok := b[k]; ok {
			n++
		}
	}
	return n
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

var paraSplitRE = regexp.MustCompile(`\n\s*\n`)

// parseSections splits text into paragraphs and groups them under the
// preceding "## " heading.
func parseSections(all []byte) []Section {
	cur := Section{}
	var out []Section
	for _, chunk := range paraSplitRE.Split(string(all), -1) {
		for _, line := range splitHeadings(chunk) {
			if h, ok := headingText(line); ok {
				if len(cur.Paragraphs) > 0 {
					out = append(out, cur)
				}
				cur = Section{Destination: h}
				continue
			}
			if t := strings.TrimSpace(line); t != "" {
				cur.Paragraphs = append(cur.Paragraphs, t)
			}
		}
	}
	if len(cur.Paragraphs) > 0 {
		out = append(out, cur)
	}
	return out
}

// splitHeadings separates heading lines glued to the paragraph that follows.
func splitHeadings(chunk string) []string {
	lines := strings.Split(strings.TrimSpace(chunk), "\n")
	var out []string
	var body []string
	flush := func() {
		if len(body) > 0 {
			out = append(out, strings.Join(body, "\n"))
			body = nil
		}
	}
	for _, l := range lines {
		if _, ok := headingText(l); ok {
			flush()
			out = append(out, l)
			continue
		}
		body = append(body, l)
	}
	flush()
	return out
}

func headingText(line string) (string, bool) {
	t := strings.TrimSpace(line)
	if !strings.HasPrefix(t, "## ") {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(t, "## ")), true
}
