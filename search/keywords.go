// Package search derives the prefix tokens stored alongside each book.
// Tokens let the store emulate partial-match search with an exact
// array-membership filter instead of a full-text index. The token set
// grows with the square of the title length, which is acceptable for
// short titles and keeps the query side trivial.
package search

import (
	"sort"
	"strings"
)

// Keywords returns every prefix of the lowercased, trimmed input plus
// every prefix of each whitespace-separated word. It is pure and
// deterministic; empty input yields an empty set.
func Keywords(text string) []string {
	normalized := NormalizeTerm(text)
	if normalized == "" {
		return nil
	}

	set := make(map[string]struct{})
	addPrefixes(set, normalized)
	for _, word := range strings.Fields(normalized) {
		addPrefixes(set, word)
	}

	keywords := make([]string, 0, len(set))
	for k := range set {
		keywords = append(keywords, k)
	}
	sort.Strings(keywords)
	return keywords
}

// NormalizeTerm lowercases and trims a search term the same way Keywords
// normalizes titles, so an exact token lookup behaves as prefix search.
func NormalizeTerm(term string) string {
	return strings.ToLower(strings.TrimSpace(term))
}

// addPrefixes walks runes, not bytes: the catalog is mostly Urdu text.
func addPrefixes(set map[string]struct{}, s string) {
	var b strings.Builder
	for _, r := range s {
		b.WriteRune(r)
		set[b.String()] = struct{}{}
	}
}
