// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dedup

import (
	"math"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"

	"github.com/ahzs645/saturationsearch/internal/catalog"
)

// normalizeDOI lowercases a DOI and strips resolver prefixes so the same
// work registered as "https://doi.org/10.X" and "10.x" compares equal.
func normalizeDOI(doi string) string {
	d := strings.ToLower(strings.TrimSpace(doi))
	for _, prefix := range []string{"https://doi.org/", "http://doi.org/", "doi.org/", "doi:"} {
		d = strings.TrimPrefix(d, prefix)
	}
	return d
}

// normalizeTitle folds accents, lowercases, strips punctuation, and
// collapses whitespace. Two provider renderings of the same title should
// normalize identically or at least within the similarity threshold.
func normalizeTitle(title string) string {
	folded := catalog.Normalize(title)
	var b strings.Builder
	b.Grow(len(folded))
	lastSpace := true
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		case !lastSpace:
			b.WriteRune(' ')
			lastSpace = true
		}
	}
	return strings.TrimSpace(b.String())
}

// firstAuthorSurname extracts a comparable surname from the first author.
// Providers disagree on "Smith, J." versus "J. Smith" versus "Smith J.",
// so we take the longest alphabetic token.
func firstAuthorSurname(authors []string) string {
	if len(authors) == 0 {
		return ""
	}
	best := ""
	for _, tok := range strings.FieldsFunc(catalog.Normalize(authors[0]), func(r rune) bool {
		return !unicode.IsLetter(r)
	}) {
		if len(tok) > len(best) {
			best = tok
		}
	}
	return best
}

// titleSimilarity returns a 0..1 similarity between two normalized titles:
// the Levenshtein ratio over the summed lengths, rounded to the nearest
// percent. An inserted article ("the") in a ~35-char title must stay at
// or above the 0.95 threshold.
func titleSimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	la, lb := len([]rune(a)), len([]rune(b))
	dist := levenshtein.ComputeDistance(a, b)
	return math.Round(100*float64(la+lb-dist)/float64(la+lb)) / 100
}

// abstractSimilarity returns the Jaccard similarity of the two abstracts'
// word sets. Cheaper than edit distance on texts this long, and word overlap
// is what actually distinguishes reworded abstracts from different papers.
func abstractSimilarity(a, b string) float64 {
	sa, sb := tokenSet(a), tokenSet(b)
	if len(sa) == 0 || len(sb) == 0 {
		return 0
	}
	inter := 0
	for tok := range sa {
		if sb[tok] {
			inter++
		}
	}
	union := len(sa) + len(sb) - inter
	return float64(inter) / float64(union)
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(normalizeTitle(s)) {
		set[tok] = true
	}
	return set
}
