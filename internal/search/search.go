// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search executes query plans against academic search providers
// and merges the paginated results into one raw record set.
package search

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/ahzs645/saturationsearch/internal/queryplan"
	"github.com/ahzs645/saturationsearch/pkg/types"
)

// DateRange bounds a search by publication date.
type DateRange struct {
	From time.Time
	To   time.Time
}

// Page is one page of provider results. An empty NextPageToken means the
// provider has no more pages.
type Page struct {
	Records       []types.Record
	NextPageToken string
}

// Provider searches a single academic API. Each provider (Scopus, Web of
// Science) implements this interface; the orchestrator never sees past the
// capability.
type Provider interface {
	Name() string

	// CharBudget is the provider's documented query length limit.
	// Queries longer than this are a caller bug, not a provider error.
	CharBudget() int

	// Search runs one page of a query. An empty pageToken requests the
	// first page.
	Search(ctx context.Context, query string, dr DateRange, pageToken string) (Page, error)
}

// SegmentFailure records one failed query segment for the run report.
type SegmentFailure struct {
	Provider  string `json:"provider" yaml:"provider"`
	SegmentID string `json:"segment_id" yaml:"segment_id"`
	Error     string `json:"error" yaml:"error"`
}

// Execution is the merged outcome of running a plan against providers.
// Records are a plain union: deduplication is the next stage's job.
type Execution struct {
	Records           []types.Record
	SegmentsAttempted int
	SegmentsFailed    int
	Failures          []SegmentFailure
}

// Orchestrator fans a query plan out to providers with bounded concurrency
// and per-provider rate limiting.
type Orchestrator struct {
	concurrency int64
	limiters    map[string]*rate.Limiter
	maxPages    map[string]int
	logger      *zap.Logger
}

// NewOrchestrator builds an orchestrator for the given providers. Each
// provider gets its own rate limiter from its configured requests-per-
// second; blocked calls wait on the limiter rather than failing.
func NewOrchestrator(cfg types.SearchConfig, logger *zap.Logger) *Orchestrator {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	o := &Orchestrator{
		concurrency: concurrency,
		limiters:    make(map[string]*rate.Limiter),
		maxPages:    make(map[string]int),
		logger:      logger,
	}
	o.configureProvider("scopus", cfg.Scopus)
	o.configureProvider("wos", cfg.WebOfScience)
	return o
}

func (o *Orchestrator) configureProvider(name string, cfg types.ProviderConfig) {
	rps := cfg.RateLimit
	if rps <= 0 {
		rps = 2
	}
	o.limiters[name] = rate.NewLimiter(rate.Limit(rps), 1)

	pages := cfg.MaxPages
	if pages <= 0 {
		pages = 10
	}
	o.maxPages[name] = pages
}

func (o *Orchestrator) limiter(name string) *rate.Limiter {
	if l, ok := o.limiters[name]; ok {
		return l
	}
	// Unconfigured providers (tests, future backends) get a default.
	l := rate.NewLimiter(rate.Limit(2), 1)
	o.limiters[name] = l
	return l
}

func (o *Orchestrator) pageCap(name string) int {
	if p, ok := o.maxPages[name]; ok {
		return p
	}
	return 10
}

// Execute runs every segment of the plan against every provider and
// unions the results. Segment failures are isolated: they are logged,
// recorded, and skipped, so one bad query or flaky provider cannot sink
// the run. Cancellation keeps whatever has already been fetched.
func (o *Orchestrator) Execute(ctx context.Context, plan queryplan.Plan, providers []Provider, dr DateRange) Execution {
	type job struct {
		provider Provider
		segment  queryplan.Segment
	}
	var jobs []job
	for _, p := range providers {
		for _, seg := range plan.Segments {
			jobs = append(jobs, job{provider: p, segment: seg})
		}
	}

	sem := semaphore.NewWeighted(o.concurrency)
	var (
		mu   sync.Mutex
		exec Execution
		wg   sync.WaitGroup
	)
	exec.SegmentsAttempted = len(jobs)

	for _, j := range jobs {
		if err := sem.Acquire(ctx, 1); err != nil {
			// Run cancelled while waiting for a slot: the remaining
			// segments are recorded as failed, fetched data is kept.
			mu.Lock()
			exec.SegmentsFailed++
			exec.Failures = append(exec.Failures, SegmentFailure{
				Provider:  j.provider.Name(),
				SegmentID: j.segment.ID,
				Error:     err.Error(),
			})
			mu.Unlock()
			continue
		}
		wg.Add(1)
		go func(j job) {
			defer wg.Done()
			defer sem.Release(1)

			records, err := o.runSegment(ctx, j.provider, j.segment, dr)
			mu.Lock()
			defer mu.Unlock()
			exec.Records = append(exec.Records, records...)
			if err != nil {
				exec.SegmentsFailed++
				exec.Failures = append(exec.Failures, SegmentFailure{
					Provider:  j.provider.Name(),
					SegmentID: j.segment.ID,
					Error:     err.Error(),
				})
				o.logger.Warn("segment failed",
					zap.String("provider", j.provider.Name()),
					zap.String("segment", j.segment.ID),
					zap.Error(err))
			}
		}(j)
	}
	wg.Wait()

	o.logger.Info("search complete",
		zap.Int("segments", exec.SegmentsAttempted),
		zap.Int("failed", exec.SegmentsFailed),
		zap.Int("records", len(exec.Records)))
	return exec
}

// runSegment paginates one segment on one provider up to the provider's
// page cap. Pages fetched before an error are returned alongside it, so a
// mid-pagination failure still contributes partial results.
func (o *Orchestrator) runSegment(ctx context.Context, p Provider, seg queryplan.Segment, dr DateRange) ([]types.Record, error) {
	if seg.CharLength > p.CharBudget() {
		return nil, fmt.Errorf("segment %s is %d chars, over the %s budget of %d",
			seg.ID, seg.CharLength, p.Name(), p.CharBudget())
	}

	limiter := o.limiter(p.Name())
	var records []types.Record
	token := ""
	for page := 0; page < o.pageCap(p.Name()); page++ {
		if err := limiter.Wait(ctx); err != nil {
			return records, err
		}
		result, err := p.Search(ctx, seg.Text, dr, token)
		if err != nil {
			return records, fmt.Errorf("page %d: %w", page+1, err)
		}
		records = append(records, result.Records...)
		if result.NextPageToken == "" {
			break
		}
		token = result.NextPageToken
	}
	return records, nil
}
