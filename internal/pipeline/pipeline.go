// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs the full saturation search: plan, search, dedup,
// screen, route, deliver, persist, report.
package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ahzs645/saturationsearch/internal/catalog"
	"github.com/ahzs645/saturationsearch/internal/dedup"
	"github.com/ahzs645/saturationsearch/internal/queryplan"
	"github.com/ahzs645/saturationsearch/internal/route"
	"github.com/ahzs645/saturationsearch/internal/screen"
	"github.com/ahzs645/saturationsearch/internal/search"
	"github.com/ahzs645/saturationsearch/internal/store"
	"github.com/ahzs645/saturationsearch/internal/zotero"
	"github.com/ahzs645/saturationsearch/pkg/types"
)

// Pipeline wires the pipeline stages for one configuration.
type Pipeline struct {
	cfg       types.PipelineConfig
	cat       *catalog.Catalog
	providers []search.Provider
	deliverer *route.Deliverer
	store     *store.Store
	baseline  []types.Record
	logger    *zap.Logger
}

// New builds a Pipeline from configuration: the term catalog (built-in
// unless a path is given), the enabled providers, the optional reference
// manager, the optional run store, and the optional baseline corpus.
func New(cfg types.PipelineConfig, logger *zap.Logger) (*Pipeline, error) {
	cat := catalog.Nechako()
	if cfg.CatalogPath != "" {
		loaded, err := catalog.Load(cfg.CatalogPath)
		if err != nil {
			return nil, fmt.Errorf("loading catalog: %w", err)
		}
		cat = loaded
	}

	p := &Pipeline{
		cfg:       cfg,
		cat:       cat,
		providers: buildProviders(cfg.Search),
		logger:    logger,
	}

	if cfg.BaselinePath != "" {
		baseline, err := LoadBaseline(cfg.BaselinePath)
		if err != nil {
			return nil, err
		}
		p.baseline = baseline
	}

	if cfg.Zotero.Enabled {
		client, err := zotero.NewClient(cfg.Zotero)
		if err != nil {
			return nil, fmt.Errorf("configuring reference manager: %w", err)
		}
		p.deliverer = route.NewDeliverer(client, logger)
	}

	if cfg.Store.Path != "" {
		st, err := store.NewStore(cfg.Store)
		if err != nil {
			return nil, fmt.Errorf("opening run store: %w", err)
		}
		p.store = st
	}

	return p, nil
}

// Close releases the pipeline's resources.
func (p *Pipeline) Close() error {
	if p.store != nil {
		return p.store.Close()
	}
	return nil
}

func buildProviders(cfg types.SearchConfig) []search.Provider {
	var providers []search.Provider
	if cfg.Scopus.Enabled {
		providers = append(providers, &search.ScopusProvider{
			Client: httpClient(cfg.Scopus),
			APIKey: cfg.Scopus.APIKey,
			Cfg:    cfg.Scopus,
		})
	}
	if cfg.WebOfScience.Enabled {
		providers = append(providers, &search.WoSProvider{
			Client: httpClient(cfg.WebOfScience),
			APIKey: cfg.WebOfScience.APIKey,
			Cfg:    cfg.WebOfScience,
		})
	}
	return providers
}

func httpClient(cfg types.ProviderConfig) *http.Client {
	client := &http.Client{Timeout: 60 * time.Second}
	if cfg.Timeout > 0 {
		client.Timeout = cfg.Timeout
	}
	return client
}

// PlanOnly builds and analyzes the query plan without searching.
func (p *Pipeline) PlanOnly() (queryplan.Plan, *queryplan.Analysis, error) {
	budgeter, err := p.budgeter()
	if err != nil {
		return queryplan.Plan{}, nil, err
	}
	analysis, err := budgeter.Analyze(p.cfg.Plan.UsePriorityTerms)
	if err != nil {
		return queryplan.Plan{}, nil, err
	}
	plan, err := budgeter.Plan(p.cfg.Plan.UsePriorityTerms, p.forcedStrategy())
	if err != nil {
		return queryplan.Plan{}, nil, err
	}
	return plan, &analysis, nil
}

func (p *Pipeline) budgeter() (*queryplan.Budgeter, error) {
	if len(p.providers) == 0 {
		return nil, fmt.Errorf("no search providers enabled")
	}
	// Segments must fit every enabled provider, so plan against the
	// tightest budget.
	budget := p.providers[0].CharBudget()
	for _, prov := range p.providers[1:] {
		if b := prov.CharBudget(); b < budget {
			budget = b
		}
	}
	return queryplan.NewBudgeter(p.cat, budget, p.cfg.Plan)
}

func (p *Pipeline) forcedStrategy() queryplan.Strategy {
	return queryplan.Strategy(p.cfg.Plan.ForceStrategy)
}

// Run executes the whole pipeline. A run timeout cuts searching short but
// whatever was fetched still flows through the remaining stages, so a slow
// provider yields a partial result instead of nothing.
func (p *Pipeline) Run(ctx context.Context, dr search.DateRange) (*RunReport, error) {
	started := time.Now()

	budgeter, err := p.budgeter()
	if err != nil {
		return nil, err
	}
	if p.cfg.Plan.ForceStrategy != "" {
		if _, err := queryplan.ParseStrategy(p.cfg.Plan.ForceStrategy); err != nil {
			return nil, err
		}
	}
	plan, err := budgeter.Plan(p.cfg.Plan.UsePriorityTerms, p.forcedStrategy())
	if err != nil {
		return nil, fmt.Errorf("planning queries: %w", err)
	}

	var runID int64
	if p.store != nil {
		runID, err = p.store.BeginRun(ctx, string(plan.Strategy), len(plan.Segments))
		if err != nil {
			return nil, err
		}
	}

	searchCtx := ctx
	if p.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		searchCtx, cancel = context.WithTimeout(ctx, p.cfg.RunTimeout)
		defer cancel()
	}
	orch := search.NewOrchestrator(p.cfg.Search, p.logger)
	exec := orch.Execute(searchCtx, plan, p.providers, dr)

	deduper := dedup.New(p.cfg.Dedup, p.logger)
	dres := deduper.Deduplicate(exec.Records)

	matched := 0
	recall := 0.0
	if len(p.baseline) > 0 {
		matched = deduper.AnnotateBaseline(dres.Unique, p.baseline)
		recall = float64(matched) / float64(len(p.baseline))
	}

	screener := screen.New(p.cfg.Screen, p.cat, nil, p.logger)
	decisions := screener.ScreenAll(dres.Unique)
	partition := route.Split(decisions)

	report := &RunReport{
		RunID:             runID,
		Strategy:          plan.Strategy,
		Segments:          len(plan.Segments),
		TermsIncluded:     len(plan.Included),
		TermsExcluded:     len(plan.Excluded),
		SegmentsFailed:    exec.SegmentsFailed,
		Failures:          exec.Failures,
		RecordsFetched:    len(exec.Records),
		UniqueRecords:     len(dres.Unique),
		DuplicatesRemoved: len(exec.Records) - len(dres.Unique),
		LevelCounts:       dres.LevelCounts,
		BaselineTotal:     len(p.baseline),
		BaselineMatched:   matched,
		Recall:            recall,
		Included:          len(partition.Included),
		Excluded:          len(partition.Excluded),
		ManualReview:      len(partition.ManualReview),
		ThemeCounts:       themeCounts(partition.Included),
	}

	if p.deliverer != nil {
		delivery, err := p.deliverer.Deliver(ctx, partition, started)
		if err != nil && p.logger != nil {
			p.logger.Error("delivery incomplete", zap.Error(err))
		}
		report.Delivery = &delivery
	}

	if p.store != nil {
		if err := p.store.SaveRecords(ctx, runID, dres.Unique); err != nil {
			return nil, err
		}
		if err := p.store.SaveDecisions(ctx, runID, decisions); err != nil {
			return nil, err
		}
		if err := p.store.FinishRun(ctx, runID, store.RunSummary{
			RecordsFetched:  report.RecordsFetched,
			UniqueRecords:   report.UniqueRecords,
			Included:        report.Included,
			Excluded:        report.Excluded,
			ManualReview:    report.ManualReview,
			BaselineMatched: report.BaselineMatched,
			Recall:          report.Recall,
		}); err != nil {
			return nil, err
		}
	}

	report.Duration = time.Since(started)
	return report, nil
}

func themeCounts(included []types.ScreeningDecision) map[types.Theme]int {
	counts := make(map[types.Theme]int)
	for _, d := range included {
		counts[d.Theme]++
	}
	return counts
}
