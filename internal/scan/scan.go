// Package scan implements the derived views computed from note content:
// full-text search, backlink discovery, tag indexing, and heading extraction.
//
// Scanners re-read every note from storage on each invocation; there is no
// cache. That keeps them trivially consistent with disk and is acceptable
// for local note collections.
package scan

import (
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"sync/atomic"
	"unicode/utf8"

	"github.com/haldor/ansuz/internal/storage"
	"github.com/haldor/ansuz/internal/tree"
)

const (
	// maxMatchesPerNote caps the number of line matches reported per note.
	maxMatchesPerNote = 3
	// maxContextLen caps the length of a backlink context line.
	maxContextLen = 100
)

// tagRe matches inline #tags: a hash at start-of-text or after whitespace,
// followed by a letter then letters, digits, underscores, or hyphens. A
// markdown heading ("# Title") never matches because the hash is followed
// by a space.
var tagRe = regexp.MustCompile(`(?:^|\s)#([A-Za-z][A-Za-z0-9_-]*)`)

// Match is one matching line within a note.
type Match struct {
	Line int    `json:"line"`
	Text string `json:"text"`
}

// SearchResult is one note that matched a search query.
type SearchResult struct {
	Path    string  `json:"path"`
	Name    string  `json:"name"`
	Matches []Match `json:"matches"`
}

// Backlink is one note containing a wiki-link to the target note.
type Backlink struct {
	Path    string `json:"path"`
	Name    string `json:"name"`
	Context string `json:"context"`
}

// TagInfo is one tag with its occurrence count across the vault.
type TagInfo struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// Scanner walks a node tree and reads note bodies to build derived indexes.
// Per-note read failures are logged and skipped; a scan always produces a
// (possibly partial) result rather than failing hard.
type Scanner struct {
	store  storage.Provider
	logger *slog.Logger
	gen    atomic.Uint64
}

// NewScanner creates a Scanner over the given provider.
func NewScanner(store storage.Provider, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{store: store, logger: logger}
}

// Search walks every note in the tree and matches query case-insensitively
// against each line, collecting up to three matching lines per note. A note
// with a matching filename qualifies even with zero line matches. Results
// preserve tree traversal order.
//
// Each call bumps an internal generation counter; the returned bool is false
// when a newer Search started while this one was running, in which case the
// caller should discard the stale result.
func (s *Scanner) Search(query string, nodes []tree.Node) ([]SearchResult, bool) {
	gen := s.gen.Add(1)

	results := []SearchResult{}
	query = strings.TrimSpace(query)
	if query == "" {
		return results, true
	}
	needle := strings.ToLower(query)

	tree.Walk(nodes, func(n *tree.Node) bool {
		if n.IsDir {
			return true
		}
		matches := []Match{}
		data, err := s.store.Read(n.Path)
		if err != nil {
			s.logger.Warn("scan: read failed", slog.String("path", n.Path), slog.String("error", err.Error()))
		} else {
			for i, line := range strings.Split(string(data), "\n") {
				if strings.Contains(strings.ToLower(line), needle) {
					matches = append(matches, Match{Line: i + 1, Text: line})
					if len(matches) == maxMatchesPerNote {
						break
					}
				}
			}
		}
		if len(matches) > 0 || strings.Contains(strings.ToLower(n.Name), needle) {
			results = append(results, SearchResult{Path: n.Path, Name: n.Name, Matches: matches})
		}
		return true
	})

	return results, s.gen.Load() == gen
}

// Backlinks finds every note containing a [[noteName]] wiki-link, matching
// the name literally and case-insensitively. At most one backlink is
// recorded per note, using the first matching line truncated to 100
// characters as context.
func (s *Scanner) Backlinks(noteName string, nodes []tree.Node) []Backlink {
	linkRe, err := regexp.Compile(`(?i)\[\[` + regexp.QuoteMeta(noteName) + `\]\]`)
	if err != nil {
		return []Backlink{}
	}

	out := []Backlink{}
	tree.Walk(nodes, func(n *tree.Node) bool {
		if n.IsDir {
			return true
		}
		data, err := s.store.Read(n.Path)
		if err != nil {
			s.logger.Warn("scan: read failed", slog.String("path", n.Path), slog.String("error", err.Error()))
			return true
		}
		for _, line := range strings.Split(string(data), "\n") {
			if !linkRe.MatchString(line) {
				continue
			}
			ctx := truncate(strings.TrimSpace(line), maxContextLen)
			out = append(out, Backlink{
				Path:    n.Path,
				Name:    strings.TrimSuffix(n.Name, tree.NoteExt),
				Context: ctx,
			})
			break
		}
		return true
	})
	return out
}

// truncate cuts s to at most max bytes, backing up to a rune boundary so a
// multi-byte character is never split.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// Tags scans all note bodies for inline #tags, lowercases them, and
// accumulates counts across the vault. The result is sorted by descending
// count; equal counts order by tag name for determinism.
func (s *Scanner) Tags(nodes []tree.Node) []TagInfo {
	counts := map[string]int{}
	tree.Walk(nodes, func(n *tree.Node) bool {
		if n.IsDir {
			return true
		}
		data, err := s.store.Read(n.Path)
		if err != nil {
			s.logger.Warn("scan: read failed", slog.String("path", n.Path), slog.String("error", err.Error()))
			return true
		}
		for _, m := range tagRe.FindAllStringSubmatch(string(data), -1) {
			counts[strings.ToLower(m[1])]++
		}
		return true
	})

	out := make([]TagInfo, 0, len(counts))
	for tag, c := range counts {
		out = append(out, TagInfo{Tag: tag, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Tag < out[j].Tag
	})
	return out
}
