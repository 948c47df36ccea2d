// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package queryplan

import "fmt"

// StrategyStats summarizes one strategy's feasibility for a given catalog
// and budget.
type StrategyStats struct {
	Feasible    bool `json:"feasible" yaml:"feasible"`
	QueryLength int  `json:"query_length" yaml:"query_length"`
	TermCount   int  `json:"term_count" yaml:"term_count"`
	Excluded    int  `json:"excluded" yaml:"excluded"`
	APICalls    int  `json:"api_calls" yaml:"api_calls"`
}

// Analysis compares the three strategies so callers can trade API calls
// against term coverage before executing anything.
type Analysis struct {
	Budget      int                        `json:"budget" yaml:"budget"`
	Strategies  map[Strategy]StrategyStats `json:"strategies" yaml:"strategies"`
	Recommended Strategy                   `json:"recommended" yaml:"recommended"`
	Reasoning   string                     `json:"reasoning" yaml:"reasoning"`
}

// progressiveLossLimit is the excluded-term count above which progressive
// coverage is considered too lossy and chunked is preferred.
const progressiveLossLimit = 10

// Analyze evaluates every strategy against the budget and recommends one.
// Oversized single terms surface here as errors: they make every strategy
// infeasible, which is a configuration problem, not a planning outcome.
func (b *Budgeter) Analyze(priorityOnly bool) (Analysis, error) {
	a := Analysis{
		Budget:     b.budget,
		Strategies: make(map[Strategy]StrategyStats, 3),
	}

	if err := b.validateTerms(b.catalog.ExpandedTerms(priorityOnly)); err != nil {
		return Analysis{}, err
	}

	direct, directErr := b.Direct(priorityOnly)
	directStats := StrategyStats{Feasible: directErr == nil}
	if directErr == nil && len(direct.Segments) > 0 {
		directStats.QueryLength = direct.Segments[0].CharLength
		directStats.TermCount = direct.Segments[0].TermCount
		directStats.APICalls = 1
	}
	a.Strategies[StrategyDirect] = directStats

	progressive, err := b.Progressive(priorityOnly)
	if err != nil {
		return Analysis{}, err
	}
	progStats := StrategyStats{
		Feasible: len(progressive.Included) > 0,
		Excluded: len(progressive.Excluded),
		APICalls: 1,
	}
	if len(progressive.Segments) > 0 {
		progStats.QueryLength = progressive.Segments[0].CharLength
		progStats.TermCount = progressive.Segments[0].TermCount
	}
	a.Strategies[StrategyProgressive] = progStats

	chunked, err := b.Chunked(priorityOnly)
	if err != nil {
		return Analysis{}, err
	}
	a.Strategies[StrategyChunked] = StrategyStats{
		Feasible:  len(chunked.Segments) > 0,
		TermCount: chunked.TotalTerms,
		APICalls:  chunked.APICalls(),
	}

	switch {
	case directStats.Feasible:
		a.Recommended = StrategyDirect
		a.Reasoning = "direct query fits within the budget; simplest approach"
	case progStats.Feasible && progStats.Excluded < progressiveLossLimit:
		a.Recommended = StrategyProgressive
		a.Reasoning = fmt.Sprintf("progressive covers %d terms in one call, losing only %d", progStats.TermCount, progStats.Excluded)
	case a.Strategies[StrategyChunked].Feasible:
		a.Recommended = StrategyChunked
		a.Reasoning = fmt.Sprintf("full coverage requires chunking into %d API calls", chunked.APICalls())
	default:
		a.Recommended = StrategyProgressive
		a.Reasoning = "budget too restrictive for full coverage; progressive with reduced terms"
	}
	return a, nil
}
