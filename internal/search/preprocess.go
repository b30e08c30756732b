package search

import (
	"bufio"
	"bytes"
	"strings"
)

// FlattenTables rewrites Markdown table rows into standalone paragraphs so
// that tables of tips ("| Metro | Buy a carnet of 10 tickets |") index like
// prose. Separator rows are dropped and every other line is kept as is.
func FlattenTables(src []byte) []byte {
	var b strings.Builder
	sc := bufio.NewScanner(bytes.NewReader(src))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	inTable := false
	for sc.Scan() {
		raw := sc.Text()
		line := strings.TrimSpace(raw)

		if strings.HasPrefix(line, "|") && strings.HasSuffix(line, "|") && len(line) > 1 {
			if !inTable {
				b.WriteByte('\n')
				inTable = true
			}
			if fact := tableFact(line); fact != "" {
				b.WriteString(fact)
				b.WriteString("\n\n")
			}
			continue
		}
		if inTable {
			inTable = false
			if line == "" {
				continue
			}
		}
		b.WriteString(raw)
		b.WriteByte('\n')
	}
	if sc.Err() != nil {
		return src
	}
	return []byte(b.String())
}

// tableFact joins the non-empty cells of a row, or returns "" for
// separator rows such as "|---|:--:|".
func tableFact(line string) string {
	cols := strings.Split(strings.Trim(line, "|"), "|")
	cells := make([]string, 0, len(cols))
	sep := true
	for _, c := range cols {
		cell := strings.TrimSpace(c)
		if strings.Trim(cell, ":- ") != "" {
			sep = false
		}
		if cell != "" {
			cells = append(cells, cell)
		}
	}
	if sep {
		return ""
	}
	return strings.Join(cells, " ")
}
