// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dedup collapses provider results that describe the same work and
// annotates records already present in the baseline corpus.
package dedup

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ahzs645/saturationsearch/pkg/types"
)

// Match levels, in the order they are attempted. The first level that
// matches wins; later levels never see the pair.
const (
	LevelExact             = "exact"
	LevelTitle             = "title"
	LevelAuthorYearJournal = "author_year_journal"
	LevelAbstract          = "abstract"
	LevelBaseline          = "baseline"
)

const (
	defaultTitleThreshold    = 0.95
	defaultAbstractThreshold = 0.85

	// minAbstractLen gates level-4 comparison. Shorter abstracts are too
	// generic for word overlap to mean anything.
	minAbstractLen = 50
)

// Duplicate is one suppressed record with the evidence that folded it:
// the level that matched and the similarity score that triggered it
// (1.0 for the exact-key levels).
type Duplicate struct {
	Record types.Record
	Level  string
	Score  float64
}

// Result is the outcome of deduplicating one record set.
type Result struct {
	// Unique holds one record per detected work, in first-seen order. When
	// two records matched, the more complete one is kept.
	Unique []types.Record

	// Duplicates maps each kept record's identity to the records folded
	// into it, so every suppression decision is auditable: every input
	// record is in Unique or in exactly one Duplicates list.
	Duplicates map[string][]Duplicate

	// LevelCounts tallies matches per level.
	LevelCounts map[string]int
}

// Deduplicator detects duplicate records across provider result sets.
type Deduplicator struct {
	titleThreshold    float64
	abstractThreshold float64
	logger            *zap.Logger
}

// New builds a Deduplicator from config, applying the default thresholds
// where the config leaves them zero.
func New(cfg types.DedupConfig, logger *zap.Logger) *Deduplicator {
	tt := cfg.TitleThreshold
	if tt <= 0 {
		tt = defaultTitleThreshold
	}
	at := cfg.AbstractThreshold
	if at <= 0 {
		at = defaultAbstractThreshold
	}
	return &Deduplicator{titleThreshold: tt, abstractThreshold: at, logger: logger}
}

// cluster is one detected work: the kept record plus everything folded in.
type cluster struct {
	kept types.Record
	dups []Duplicate
}

// index locates existing clusters by the match keys of their kept records.
type index struct {
	byDOI      map[string]int
	byPMID     map[string]int
	bySourceID map[string]int

	// titleBuckets maps publication year to cluster indices. Title
	// comparison scans the record's year plus its neighbours, so a
	// one-off year discrepancy between providers still matches.
	// Bucket 0 collects records with no year and is always scanned.
	titleBuckets map[int][]int

	byAYJ map[string]int

	// noID lists clusters whose kept record has no DOI or PMID and an
	// abstract long enough for level-4 comparison.
	noID []int
}

func newIndex() *index {
	return &index{
		byDOI:        make(map[string]int),
		byPMID:       make(map[string]int),
		bySourceID:   make(map[string]int),
		titleBuckets: make(map[int][]int),
		byAYJ:        make(map[string]int),
	}
}

func ayjKey(r types.Record) string {
	surname := firstAuthorSurname(r.Authors)
	journal := normalizeTitle(r.Journal)
	if surname == "" || r.Year == 0 || journal == "" {
		return ""
	}
	return fmt.Sprintf("%s|%d|%s", surname, r.Year, journal)
}

// register adds the record's keys to the index, pointing at cluster ci.
func (ix *index) register(r types.Record, ci int) {
	if d := normalizeDOI(r.DOI); d != "" {
		ix.byDOI[d] = ci
	}
	if r.PMID != "" {
		ix.byPMID[r.PMID] = ci
	}
	if r.SourceID != "" {
		ix.bySourceID[r.SourceID] = ci
	}
	if normalizeTitle(r.Title) != "" {
		ix.titleBuckets[r.Year] = append(ix.titleBuckets[r.Year], ci)
	}
	if k := ayjKey(r); k != "" {
		ix.byAYJ[k] = ci
	}
	if !r.HasIdentifier() && len(r.Abstract) >= minAbstractLen {
		ix.noID = append(ix.noID, ci)
	}
}

// find locates the cluster the record belongs to, trying each level in
// order. Returns the cluster index, the level that matched, and the
// similarity score that triggered the match.
func (d *Deduplicator) find(ix *index, clusters []cluster, r types.Record) (int, string, float64, bool) {
	// Level 1: exact identifiers.
	if doi := normalizeDOI(r.DOI); doi != "" {
		if ci, ok := ix.byDOI[doi]; ok {
			return ci, LevelExact, 1, true
		}
	}
	if r.PMID != "" {
		if ci, ok := ix.byPMID[r.PMID]; ok {
			return ci, LevelExact, 1, true
		}
	}
	if r.SourceID != "" {
		if ci, ok := ix.bySourceID[r.SourceID]; ok {
			return ci, LevelExact, 1, true
		}
	}

	// Level 2: near-identical titles within a one-year window.
	if title := normalizeTitle(r.Title); title != "" {
		years := []int{r.Year - 1, r.Year, r.Year + 1, 0}
		if r.Year == 0 {
			years = []int{0}
			for y := range ix.titleBuckets {
				if y != 0 {
					years = append(years, y)
				}
			}
		}
		seen := make(map[int]bool)
		for _, y := range years {
			for _, ci := range ix.titleBuckets[y] {
				if seen[ci] {
					continue
				}
				seen[ci] = true
				if sim := titleSimilarity(title, normalizeTitle(clusters[ci].kept.Title)); sim >= d.titleThreshold {
					return ci, LevelTitle, sim, true
				}
			}
		}
	}

	// Level 3: first author + year + journal.
	if k := ayjKey(r); k != "" {
		if ci, ok := ix.byAYJ[k]; ok {
			return ci, LevelAuthorYearJournal, 1, true
		}
	}

	// Level 4: abstract overlap, only between records that have no DOI or
	// PMID to match on. Identified records either matched at level 1 or
	// genuinely differ.
	if !r.HasIdentifier() && len(r.Abstract) >= minAbstractLen {
		for _, ci := range ix.noID {
			if sim := abstractSimilarity(r.Abstract, clusters[ci].kept.Abstract); sim >= d.abstractThreshold {
				return ci, LevelAbstract, sim, true
			}
		}
	}

	return 0, "", 0, false
}

// Deduplicate collapses the records into one cluster per work. Input order
// is preserved for the kept records, and running the output through again
// changes nothing.
func (d *Deduplicator) Deduplicate(records []types.Record) Result {
	var clusters []cluster
	ix := newIndex()
	counts := make(map[string]int)

	for _, r := range records {
		ci, level, score, ok := d.find(ix, clusters, r)
		if !ok {
			clusters = append(clusters, cluster{kept: r})
			ix.register(r, len(clusters)-1)
			continue
		}
		counts[level]++
		if r.Completeness() > clusters[ci].kept.Completeness() {
			// The newcomer describes the work better: it becomes the
			// kept record and contributes its keys to the index.
			clusters[ci].dups = append(clusters[ci].dups, Duplicate{Record: clusters[ci].kept, Level: level, Score: score})
			clusters[ci].kept = r
			ix.register(r, ci)
		} else {
			clusters[ci].dups = append(clusters[ci].dups, Duplicate{Record: r, Level: level, Score: score})
		}
	}

	res := Result{
		Duplicates:  make(map[string][]Duplicate),
		LevelCounts: counts,
	}
	for _, c := range clusters {
		res.Unique = append(res.Unique, c.kept)
		if len(c.dups) > 0 {
			res.Duplicates[identity(c.kept)] = c.dups
		}
	}

	if d.logger != nil {
		d.logger.Info("deduplication complete",
			zap.Int("input", len(records)),
			zap.Int("unique", len(res.Unique)),
			zap.Any("levels", counts))
	}
	return res
}

// AnnotateBaseline marks unique records that match the baseline corpus as
// previously known. Matched records stay in the result set so the reviewer
// sees the overlap; nothing is removed. Returns the number of distinct
// baseline records matched, which drives recall validation.
func (d *Deduplicator) AnnotateBaseline(unique []types.Record, baseline []types.Record) int {
	if len(baseline) == 0 {
		return 0
	}

	clusters := make([]cluster, len(baseline))
	ix := newIndex()
	for i, b := range baseline {
		clusters[i] = cluster{kept: b}
		ix.register(b, i)
	}

	matched := make(map[int]bool)
	for i := range unique {
		if ci, _, _, ok := d.find(ix, clusters, unique[i]); ok {
			unique[i].PreviouslyKnown = true
			matched[ci] = true
		}
	}

	if d.logger != nil {
		d.logger.Info("baseline comparison complete",
			zap.Int("baseline", len(baseline)),
			zap.Int("matched", len(matched)))
	}
	return len(matched)
}

// identity returns a stable audit key for a kept record: the strongest
// identifier available, falling back to the normalized title.
func identity(r types.Record) string {
	switch {
	case r.DOI != "":
		return "doi:" + normalizeDOI(r.DOI)
	case r.PMID != "":
		return "pmid:" + r.PMID
	case r.SourceID != "":
		return "id:" + r.SourceID
	default:
		return "title:" + normalizeTitle(r.Title)
	}
}
