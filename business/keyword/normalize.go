package keyword

import (
	"myStyleFit/domain"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var folder = cases.Fold()

// Normalize applies NFKC, folds case, turns punctuation and symbols into
// spaces and collapses runs of whitespace.
func Normalize(s string) string {
	if s == "" {
		return ""
	}

	s = folder.String(norm.NFKC.String(s))

	var b strings.Builder
	b.Grow(len(s))
	space := true
	for _, r := range s {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) || unicode.IsSpace(r) || unicode.IsControl(r) {
			if !space {
				b.WriteByte(' ')
				space = true
			}
			continue
		}
		b.WriteRune(r)
		space = false
	}

	return strings.TrimRight(b.String(), " ")
}

// Tokens splits an already normalized string on spaces.
func Tokens(s string) []string {
	return strings.Fields(s)
}

// Keywords returns the normalized, de-duplicated terms of a descriptor in
// first-seen order.
func Keywords(d domain.StyleDescriptor) []string {
	terms := d.Terms()
	seen := make(map[string]struct{}, len(terms))
	out := make([]string, 0, len(terms))

	for _, t := range terms {
		k := Normalize(t)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

// TagSet normalizes tags into a lookup set, skipping empties.
func TagSet(tags []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		if k := Normalize(t); k != "" {
			set[k] = struct{}{}
		}
	}
	return set
}
