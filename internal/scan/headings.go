package scan

import (
	"regexp"
	"strings"
)

var (
	headingRe = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)
	slugDrop  = regexp.MustCompile(`[^\w\s]`)
	slugWs    = regexp.MustCompile(`\s+`)
)

// Heading is one markdown heading extracted from note content.
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
	ID    string `json:"id"`
	Line  int    `json:"line"`
}

// Headings extracts every markdown heading (levels 1–6) from content, in
// order, with 1-based line numbers. Pure function of its input.
func Headings(content string) []Heading {
	out := []Heading{}
	for i, line := range strings.Split(content, "\n") {
		m := headingRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		text := strings.TrimSpace(m[2])
		out = append(out, Heading{
			Level: len(m[1]),
			Text:  text,
			ID:    Slug(text),
			Line:  i + 1,
		})
	}
	return out
}

// Slug converts heading text to its anchor id: lowercased, with everything
// that is neither a word character nor whitespace stripped, and runs of
// whitespace replaced by a single hyphen. Rendered anchors use the same
// algorithm, so it must not drift.
func Slug(text string) string {
	s := strings.ToLower(text)
	s = slugDrop.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	return slugWs.ReplaceAllString(s, "-")
}
