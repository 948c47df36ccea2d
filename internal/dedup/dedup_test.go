// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dedup

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahzs645/saturationsearch/pkg/types"
)

func newTestDedup() *Deduplicator {
	return New(types.DedupConfig{}, nil)
}

func TestExactDOIMatchKeepsMoreComplete(t *testing.T) {
	sparse := types.Record{
		SourceID:   "WOS:1",
		DOI:        "10.1139/f96-001",
		Title:      "Salmon habitat in the Nechako River",
		Provenance: "wos",
	}
	rich := types.Record{
		SourceID:   "2-s2.0-001",
		DOI:        "https://doi.org/10.1139/F96-001",
		Title:      "Salmon habitat in the Nechako River",
		Authors:    []string{"Hartman G."},
		Year:       1996,
		Journal:    "Canadian Journal of Fisheries",
		Abstract:   "Habitat survey of the Nechako watershed tributaries.",
		Provenance: "scopus",
	}

	res := newTestDedup().Deduplicate([]types.Record{sparse, rich})

	require.Len(t, res.Unique, 1)
	assert.Equal(t, "scopus", res.Unique[0].Provenance, "the more complete record wins")
	assert.Equal(t, 1, res.LevelCounts[LevelExact])

	dups := res.Duplicates["doi:10.1139/f96-001"]
	require.Len(t, dups, 1)
	assert.Equal(t, "WOS:1", dups[0].Record.SourceID)
	assert.Equal(t, LevelExact, dups[0].Level)
	assert.InDelta(t, 1.0, dups[0].Score, 1e-9)
}

func TestTitleMatchAcrossYearBoundary(t *testing.T) {
	// Same work; one provider reports the online-first year.
	a := types.Record{
		SourceID: "2-s2.0-002",
		Title:    "Flow regulation effects on the Nechako River",
		Year:     2016,
		Authors:  []string{"Picketts, I."},
	}
	b := types.Record{
		SourceID: "WOS:2",
		Title:    "Flow regulation effects on the Nechako River.",
		Year:     2017,
		Authors:  []string{"Picketts, I."},
	}

	res := newTestDedup().Deduplicate([]types.Record{a, b})

	require.Len(t, res.Unique, 1)
	assert.Equal(t, 1, res.LevelCounts[LevelTitle])

	for _, dups := range res.Duplicates {
		require.Len(t, dups, 1)
		assert.Equal(t, LevelTitle, dups[0].Level)
		assert.GreaterOrEqual(t, dups[0].Score, 0.95)
	}
}

func TestTitleMatchSurvivesInsertedArticle(t *testing.T) {
	// Case and an inserted "the" are provider noise, not a different work.
	a := types.Record{SourceID: "1", Title: "Effects of Logging on Nechako River", Year: 1999}
	b := types.Record{SourceID: "2", Title: "Effects of logging on the Nechako River", Year: 1999}

	res := newTestDedup().Deduplicate([]types.Record{a, b})

	require.Len(t, res.Unique, 1)
	assert.Equal(t, 1, res.LevelCounts[LevelTitle])
}

func TestTitleNearMissStaysDistinct(t *testing.T) {
	// A substituted river name is a different work, not noise.
	a := types.Record{SourceID: "1", Title: "Sediment transport in the Nechako River", Year: 1999}
	b := types.Record{SourceID: "2", Title: "Sediment transport in the Stuart River", Year: 1999}

	res := newTestDedup().Deduplicate([]types.Record{a, b})
	assert.Len(t, res.Unique, 2)
	assert.Empty(t, res.Duplicates)
}

func TestDistinctTitlesSurvive(t *testing.T) {
	a := types.Record{SourceID: "1", Title: "Sockeye migration in the Stuart River", Year: 2005}
	b := types.Record{SourceID: "2", Title: "White sturgeon recruitment failure in the Nechako River", Year: 2005}

	res := newTestDedup().Deduplicate([]types.Record{a, b})
	assert.Len(t, res.Unique, 2)
	assert.Empty(t, res.Duplicates)
}

func TestAuthorYearJournalMatch(t *testing.T) {
	// Titles differ too much for level 2 (subtitle dropped by one provider),
	// but author, year, and journal agree.
	a := types.Record{
		SourceID: "1",
		Title:    "Water temperature management",
		Authors:  []string{"Macdonald, J. S."},
		Year:     2012,
		Journal:  "River Research and Applications",
	}
	b := types.Record{
		SourceID: "2",
		Title:    "Water temperature management in the Nechako: a twenty-year retrospective of the summer cooling program",
		Authors:  []string{"J. S. Macdonald"},
		Year:     2012,
		Journal:  "River Research and Applications",
	}

	res := newTestDedup().Deduplicate([]types.Record{a, b})

	require.Len(t, res.Unique, 1)
	assert.Equal(t, 1, res.LevelCounts[LevelAuthorYearJournal])
}

func TestAbstractMatchOnlyForUnidentifiedRecords(t *testing.T) {
	abstract := strings.Repeat("nechako watershed cumulative effects assessment baseline ", 3)

	// No DOI or PMID on either side: abstract overlap folds them together.
	a := types.Record{SourceID: "1", Title: "Report A", Abstract: abstract}
	b := types.Record{SourceID: "2", Title: "Conference version of report", Abstract: abstract + "extended"}
	res := newTestDedup().Deduplicate([]types.Record{a, b})
	require.Len(t, res.Unique, 1)
	assert.Equal(t, 1, res.LevelCounts[LevelAbstract])

	// A DOI on one side disables level 4 for that record.
	c := a
	c.DOI = "10.1000/1"
	res = newTestDedup().Deduplicate([]types.Record{c, b})
	assert.Len(t, res.Unique, 2, "identified records never match on abstract alone")
}

func TestFirstMatchingLevelWins(t *testing.T) {
	a := types.Record{
		SourceID: "1", DOI: "10.1000/x",
		Title: "Identical title", Year: 2000,
		Authors: []string{"Smith"}, Journal: "Journal",
	}
	b := a
	b.SourceID = "2"

	res := newTestDedup().Deduplicate([]types.Record{a, b})

	require.Len(t, res.Unique, 1)
	assert.Equal(t, 1, res.LevelCounts[LevelExact])
	assert.Zero(t, res.LevelCounts[LevelTitle], "exact match short-circuits the title level")
}

func TestDeduplicateIsIdempotent(t *testing.T) {
	records := []types.Record{
		{SourceID: "1", DOI: "10.1000/a", Title: "Paper one", Year: 2001},
		{SourceID: "2", DOI: "10.1000/a", Title: "Paper one", Year: 2001, Journal: "J"},
		{SourceID: "3", Title: "Paper two", Year: 2002},
		{SourceID: "4", Title: "Paper three", Year: 2003},
	}

	first := newTestDedup().Deduplicate(records)
	second := newTestDedup().Deduplicate(first.Unique)

	assert.Equal(t, first.Unique, second.Unique)
	assert.Empty(t, second.Duplicates)
}

// Every input record ends up in Unique or in exactly one Duplicates list.
func TestAuditTrailIsComplete(t *testing.T) {
	records := []types.Record{
		{SourceID: "1", DOI: "10.1000/a", Title: "Paper one", Year: 2001},
		{SourceID: "2", DOI: "10.1000/a", Title: "Paper one (reprint)", Year: 2001},
		{SourceID: "3", Title: "Paper two", Year: 2002},
		{SourceID: "4", Title: "Paper two", Year: 2003},
		{SourceID: "5", Title: "Paper five", Year: 2005},
	}

	res := newTestDedup().Deduplicate(records)

	total := len(res.Unique)
	for _, dups := range res.Duplicates {
		total += len(dups)
	}
	assert.Equal(t, len(records), total)
}

func TestAnnotateBaseline(t *testing.T) {
	baseline := []types.Record{
		{DOI: "10.1000/known", Title: "Known paper", Year: 1998},
		{Title: "Another known paper", Year: 2003},
	}
	unique := []types.Record{
		{SourceID: "1", DOI: "10.1000/known", Title: "Known paper", Year: 1998},
		{SourceID: "2", Title: "Another known paper", Year: 2004},
		{SourceID: "3", Title: "Genuinely new paper", Year: 2020},
	}

	d := newTestDedup()
	matched := d.AnnotateBaseline(unique, baseline)

	assert.Equal(t, 2, matched)
	assert.True(t, unique[0].PreviouslyKnown)
	assert.True(t, unique[1].PreviouslyKnown, "year off by one still matches on title")
	assert.False(t, unique[2].PreviouslyKnown)
	assert.Len(t, unique, 3, "baseline matches are annotated, never removed")
}

func TestAnnotateBaselineCountsDistinct(t *testing.T) {
	baseline := []types.Record{{DOI: "10.1000/known", Title: "Known paper", Year: 1998}}
	unique := []types.Record{
		{SourceID: "1", DOI: "10.1000/known", Title: "Known paper", Year: 1998},
		{SourceID: "2", DOI: "10.1000/KNOWN", Title: "Known paper", Year: 1998},
	}

	matched := newTestDedup().AnnotateBaseline(unique, baseline)
	assert.Equal(t, 1, matched, "two hits on one baseline record count once")
}

func TestNormalizeDOI(t *testing.T) {
	for _, in := range []string{
		"10.1139/f96-001",
		"10.1139/F96-001",
		"https://doi.org/10.1139/f96-001",
		"doi:10.1139/f96-001",
	} {
		assert.Equal(t, "10.1139/f96-001", normalizeDOI(in), in)
	}
}

func TestNormalizeTitle(t *testing.T) {
	got := normalizeTitle("  Saumon du lac François: a re-assessment!  ")
	assert.Equal(t, "saumon du lac francois a re assessment", got)
}

func TestTitleSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, titleSimilarity("abc", "abc"), 1e-9)
	assert.Zero(t, titleSimilarity("", "abc"))

	// One inserted word in a 35-char title rounds up to the threshold.
	assert.InDelta(t, 0.95, titleSimilarity(
		"effects of logging on nechako river",
		"effects of logging on the nechako river"), 1e-9)

	assert.Less(t, titleSimilarity("completely different title", "nechako river salmon"), 0.8)
}
