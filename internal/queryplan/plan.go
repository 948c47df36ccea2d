// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package queryplan packs a term catalog into boolean queries that fit a
// provider's character budget, using one of three strategies: direct (one
// query with everything), progressive (one query, best-effort coverage),
// or chunked (many queries, full coverage).
package queryplan

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ahzs645/saturationsearch/internal/catalog"
	"github.com/ahzs645/saturationsearch/pkg/types"
)

// Strategy selects how terms are packed into query segments.
type Strategy string

const (
	StrategyDirect      Strategy = "direct"
	StrategyProgressive Strategy = "progressive"
	StrategyChunked     Strategy = "chunked"
)

// ParseStrategy converts a config string into a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyDirect, StrategyProgressive, StrategyChunked:
		return Strategy(s), nil
	}
	return "", fmt.Errorf("unknown strategy %q (want direct, progressive, or chunked)", s)
}

// Segment is one provider-ready boolean query.
type Segment struct {
	// ID identifies the segment in logs and reports
	// (e.g. "creeks_chunk_2").
	ID string `json:"id" yaml:"id"`

	// Text is the rendered OR-join of quoted terms.
	Text string `json:"text" yaml:"text"`

	// Terms lists the terms the segment covers.
	Terms []string `json:"terms" yaml:"terms"`

	// TermCount is len(Terms).
	TermCount int `json:"term_count" yaml:"term_count"`

	// CharLength is len(Text); always within the budget that produced it.
	CharLength int `json:"char_length" yaml:"char_length"`
}

// Plan is the output of the budgeter: the strategy chosen and the segments
// to execute. Each segment costs one sequence of provider calls, so
// len(Segments) is the API-call floor callers trade off against coverage.
type Plan struct {
	Strategy Strategy  `json:"strategy" yaml:"strategy"`
	Segments []Segment `json:"segments" yaml:"segments"`

	// TotalTerms is the size of the candidate vocabulary.
	TotalTerms int `json:"total_terms" yaml:"total_terms"`

	// Included lists the terms covered by at least one segment.
	Included []string `json:"included" yaml:"included"`

	// Excluded lists the terms that did not fit (progressive only).
	Excluded []string `json:"excluded,omitempty" yaml:"excluded,omitempty"`
}

// APICalls returns the number of downstream API call sequences the plan
// requires.
func (p Plan) APICalls() int { return len(p.Segments) }

// Budgeter builds query plans for one provider budget.
type Budgeter struct {
	catalog      *catalog.Catalog
	budget       int
	maxChunkSize int
}

// NewBudgeter validates the budget and returns a Budgeter. A zero or
// negative budget is a configuration error, caught before any planning.
func NewBudgeter(cat *catalog.Catalog, budget int, cfg types.PlanConfig) (*Budgeter, error) {
	if budget <= 0 {
		return nil, fmt.Errorf("provider character budget must be positive, got %d", budget)
	}
	maxChunk := cfg.MaxChunkSize
	if maxChunk <= 0 {
		maxChunk = 50
	}
	return &Budgeter{catalog: cat, budget: budget, maxChunkSize: maxChunk}, nil
}

// renderQuery OR-joins quoted terms: `"a" OR "b" OR "c"`.
func renderQuery(terms []string) string {
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = `"` + t + `"`
	}
	return strings.Join(quoted, " OR ")
}

// validateTerms rejects any single term whose quoted rendering alone
// exceeds the budget. Silently truncating a term would corrupt the query,
// so this is fatal.
func (b *Budgeter) validateTerms(terms []string) error {
	for _, t := range terms {
		if quoted := len(t) + 2; quoted > b.budget {
			return fmt.Errorf("term %q is %d chars quoted, exceeding the %d-char budget", t, quoted, b.budget)
		}
	}
	return nil
}

// Direct builds a single segment containing every term. It fails when the
// rendered query exceeds the budget; callers fall back to Progressive or
// Chunked.
func (b *Budgeter) Direct(priorityOnly bool) (Plan, error) {
	terms := b.catalog.ExpandedTerms(priorityOnly)
	if err := b.validateTerms(terms); err != nil {
		return Plan{}, err
	}
	if len(terms) == 0 {
		return Plan{Strategy: StrategyDirect}, nil
	}

	sorted := append([]string(nil), terms...)
	sort.Strings(sorted)

	text := renderQuery(sorted)
	if len(text) > b.budget {
		return Plan{}, fmt.Errorf("direct query is %d chars, exceeding the %d-char budget", len(text), b.budget)
	}
	return Plan{
		Strategy: StrategyDirect,
		Segments: []Segment{{
			ID:         "direct",
			Text:       text,
			Terms:      sorted,
			TermCount:  len(sorted),
			CharLength: len(text),
		}},
		TotalTerms: len(sorted),
		Included:   sorted,
	}, nil
}

// Progressive builds a single segment seeded with the priority categories
// (watershed and core identifiers), then appends terms from the remaining
// categories in priority order until the next term would overflow the
// budget. Everything after that point is recorded as excluded, so callers
// can see exactly what coverage they traded for a single API call.
func (b *Budgeter) Progressive(priorityOnly bool) (Plan, error) {
	names := b.catalog.CategoryNames(true)
	if !priorityOnly {
		inPriority := make(map[string]bool, len(names))
		for _, n := range names {
			inPriority[n] = true
		}
		for _, n := range b.catalog.CategoryNames(false) {
			if !inPriority[n] {
				names = append(names, n)
			}
		}
	}
	if len(names) == 0 {
		return Plan{Strategy: StrategyProgressive}, nil
	}

	seen := make(map[string]bool)
	var ordered []string
	for _, name := range names {
		for _, t := range b.catalog.CategoryExpandedTerms(name) {
			key := catalog.Normalize(t)
			if seen[key] {
				continue
			}
			seen[key] = true
			ordered = append(ordered, t)
		}
	}
	if err := b.validateTerms(ordered); err != nil {
		return Plan{}, err
	}
	if len(ordered) == 0 {
		return Plan{Strategy: StrategyProgressive}, nil
	}

	var included []string
	length := 0
	cut := len(ordered)
	for i, t := range ordered {
		add := len(t) + 2
		if len(included) > 0 {
			add += len(" OR ")
		}
		if length+add > b.budget {
			cut = i
			break
		}
		included = append(included, t)
		length += add
	}
	excluded := append([]string(nil), ordered[cut:]...)

	text := renderQuery(included)
	return Plan{
		Strategy: StrategyProgressive,
		Segments: []Segment{{
			ID:         "progressive",
			Text:       text,
			Terms:      included,
			TermCount:  len(included),
			CharLength: len(text),
		}},
		TotalTerms: len(ordered),
		Included:   included,
		Excluded:   excluded,
	}, nil
}

// Chunked builds one or more segments per category so that every term is
// covered. Categories whose OR-join already fits become one segment;
// larger categories are split into batches bounded by both the character
// budget and the max terms-per-batch. Chunks are independent and their
// results are unioned downstream, so category order only fixes output
// determinism.
func (b *Budgeter) Chunked(priorityOnly bool) (Plan, error) {
	names := b.catalog.CategoryNames(priorityOnly)

	var plan Plan
	plan.Strategy = StrategyChunked
	seen := make(map[string]bool)

	for _, name := range names {
		terms := b.catalog.CategoryExpandedTerms(name)
		if err := b.validateTerms(terms); err != nil {
			return Plan{}, err
		}
		// Dedup across categories; earlier (higher-priority) categories
		// own the shared terms.
		var owned []string
		for _, t := range terms {
			key := catalog.Normalize(t)
			if seen[key] {
				continue
			}
			seen[key] = true
			owned = append(owned, t)
		}
		if len(owned) == 0 {
			continue
		}

		for i, batch := range b.chunkTerms(owned) {
			text := renderQuery(batch)
			plan.Segments = append(plan.Segments, Segment{
				ID:         fmt.Sprintf("%s_chunk_%d", name, i+1),
				Text:       text,
				Terms:      batch,
				TermCount:  len(batch),
				CharLength: len(text),
			})
			plan.Included = append(plan.Included, batch...)
		}
	}
	plan.TotalTerms = len(plan.Included)
	return plan, nil
}

// chunkTerms splits terms into batches whose rendered queries stay within
// the budget and whose sizes stay within maxChunkSize.
func (b *Budgeter) chunkTerms(terms []string) [][]string {
	var chunks [][]string
	var current []string
	length := 0

	for _, t := range terms {
		add := len(t) + 2
		if len(current) > 0 {
			add += len(" OR ")
		}
		if len(current) > 0 && (length+add > b.budget || len(current) >= b.maxChunkSize) {
			chunks = append(chunks, current)
			current = nil
			length = 0
			add = len(t) + 2
		}
		current = append(current, t)
		length += add
	}
	if len(current) > 0 {
		chunks = append(chunks, current)
	}
	return chunks
}

// Plan builds a query plan, auto-selecting the strategy unless one is
// forced. Selection follows the feasibility analysis: direct when it fits,
// progressive when it loses fewer than 10 terms, chunked otherwise.
func (b *Budgeter) Plan(priorityOnly bool, force Strategy) (Plan, error) {
	if force != "" {
		switch force {
		case StrategyDirect:
			return b.Direct(priorityOnly)
		case StrategyProgressive:
			return b.Progressive(priorityOnly)
		case StrategyChunked:
			return b.Chunked(priorityOnly)
		default:
			return Plan{}, fmt.Errorf("unknown strategy %q", force)
		}
	}

	analysis, err := b.Analyze(priorityOnly)
	if err != nil {
		return Plan{}, err
	}
	switch analysis.Recommended {
	case StrategyDirect:
		return b.Direct(priorityOnly)
	case StrategyChunked:
		return b.Chunked(priorityOnly)
	default:
		return b.Progressive(priorityOnly)
	}
}
