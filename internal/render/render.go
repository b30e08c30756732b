// Package render turns itinerary text and its location enrichments into a
// shareable document. HTMLRenderer converts the markdown with goldmark and
// sanitizes the result with bluemonday; PlainTextRenderer is the degrade
// path used when HTML rendering fails.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/tbourn/go-trip-backend/internal/domain"
)

const (
	ContentTypeHTML  = "text/html; charset=utf-8"
	ContentTypePlain = "text/plain; charset=utf-8"

	photosPerLocation = 2
)

// ErrEmpty is returned for blank itinerary text.
var ErrEmpty = errors.New("render: empty itinerary")

// HTMLRenderer renders markdown itineraries to standalone HTML pages.
type HTMLRenderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
	// Title is used for the <title> element when the text has no heading.
	Title string
}

// NewHTMLRenderer builds a renderer with GitHub-flavoured markdown.
func NewHTMLRenderer() *HTMLRenderer {
	p := bluemonday.UGCPolicy()
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return &HTMLRenderer{
		md:     goldmark.New(goldmark.WithExtensions(extension.GFM)),
		policy: p,
		Title:  "Trip Itinerary",
	}
}

// ContentType implements the renderer contract.
func (r *HTMLRenderer) ContentType() string { return ContentTypeHTML }

// Render links the first mention of every enriched location, appends a
// photo section and returns a complete HTML page.
func (r *HTMLRenderer) Render(ctx context.Context, text string, enr []domain.LocationEnrichment) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmpty
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	src := linkLocations(text, enr) + photoSection(enr)

	var body bytes.Buffer
	if err := r.md.Convert([]byte(src), &body); err != nil {
		return nil, fmt.Errorf("render: markdown: %w", err)
	}
	clean := r.policy.SanitizeBytes(body.Bytes())

	var page bytes.Buffer
	page.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&page, "<title>%s</title>\n", html.EscapeString(titleOf(text, r.Title)))
	page.WriteString("<style>body{font-family:sans-serif;max-width:48rem;margin:2rem auto;line-height:1.5}img{max-width:100%;margin:.25rem}</style>\n")
	page.WriteString("</head>\n<body>\n")
	page.Write(clean)
	page.WriteString("</body>\n</html>\n")
	return page.Bytes(), nil
}

// linkLocations wraps the first plain mention of each location in a
// markdown link to its maps URL. Headings are left untouched.
func linkLocations(text string, enr []domain.LocationEnrichment) string {
	lines := strings.Split(text, "\n")
	for _, e := range enr {
		if e.Name == "" || e.MapsLink == "" {
			continue
		}
		re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(e.Name))
		for i, line := range lines {
			if strings.HasPrefix(strings.TrimSpace(line), "#") {
				continue
			}
			loc := re.FindStringIndex(line)
			if loc == nil || inLink(line, loc[0]) {
				continue
			}
			lines[i] = line[:loc[0]] + "[" + line[loc[0]:loc[1]] + "](" + e.MapsLink + ")" + line[loc[1]:]
			break
		}
	}
	return strings.Join(lines, "\n")
}

// inLink reports whether pos sits inside an existing [text](url) link.
func inLink(line string, pos int) bool {
	open := strings.LastIndex(line[:pos], "[")
	if open < 0 {
		return false
	}
	return !strings.Contains(line[open:pos], "]")
}

func photoSection(enr []domain.LocationEnrichment) string {
	var b strings.Builder
	for _, e := range enr {
		if e.Place == nil || len(e.Place.Photos) == 0 {
			continue
		}
		if b.Len() == 0 {
			b.WriteString("\n\n## Destination Photos\n")
		}
		fmt.Fprintf(&b, "\n### %s\n\n", e.Name)
		if e.Place.Rating > 0 {
			fmt.Fprintf(&b, "Rating: %.1f/5\n\n", e.Place.Rating)
		}
		for i, u := range e.Place.Photos {
			if i == photosPerLocation {
				break
			}
			fmt.Fprintf(&b, "![%s](%s)\n", e.Name, u)
		}
	}
	return b.String()
}

func titleOf(text, def string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "# "))
		}
	}
	return def
}
