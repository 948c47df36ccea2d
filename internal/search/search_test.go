// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ahzs645/saturationsearch/internal/queryplan"
	"github.com/ahzs645/saturationsearch/pkg/types"
)

// fakeProvider serves canned pages keyed by query text. Each page holds up
// to pageSize records; failOn marks queries that error on their first page.
type fakeProvider struct {
	name     string
	budget   int
	pageSize int
	results  map[string][]types.Record
	failOn   map[string]bool

	mu    sync.Mutex
	calls int
}

func (f *fakeProvider) Name() string    { return f.name }
func (f *fakeProvider) CharBudget() int { return f.budget }

func (f *fakeProvider) Search(ctx context.Context, query string, dr DateRange, pageToken string) (Page, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return Page{}, err
	}
	if f.failOn[query] {
		return Page{}, errors.New("provider unavailable")
	}

	all := f.results[query]
	start := 0
	if pageToken != "" {
		start, _ = strconv.Atoi(pageToken)
	}
	end := start + f.pageSize
	if end > len(all) {
		end = len(all)
	}

	page := Page{Records: all[start:end]}
	if end < len(all) {
		page.NextPageToken = strconv.Itoa(end)
	}
	return page, nil
}

func fakeRecords(prefix string, n int) []types.Record {
	out := make([]types.Record, n)
	for i := range out {
		out[i] = types.Record{
			SourceID: fmt.Sprintf("%s-%d", prefix, i),
			Title:    fmt.Sprintf("%s paper %d", prefix, i),
		}
	}
	return out
}

func segmentPlan(texts ...string) queryplan.Plan {
	plan := queryplan.Plan{Strategy: queryplan.StrategyChunked}
	for i, text := range texts {
		plan.Segments = append(plan.Segments, queryplan.Segment{
			ID:         fmt.Sprintf("seg_%d", i+1),
			Text:       text,
			CharLength: len(text),
		})
	}
	return plan
}

func testOrchestrator() *Orchestrator {
	return NewOrchestrator(types.SearchConfig{
		Scopus:       types.ProviderConfig{RateLimit: 10000, MaxPages: 10},
		WebOfScience: types.ProviderConfig{RateLimit: 10000, MaxPages: 10},
		Concurrency:  4,
	}, zap.NewNop())
}

func TestExecuteMergesProviders(t *testing.T) {
	scopus := &fakeProvider{
		name: "scopus", budget: 7000, pageSize: 25,
		results: map[string][]types.Record{`"nechako"`: fakeRecords("scopus", 3)},
	}
	wos := &fakeProvider{
		name: "wos", budget: 8000, pageSize: 50,
		results: map[string][]types.Record{`"nechako"`: fakeRecords("wos", 2)},
	}

	exec := testOrchestrator().Execute(context.Background(), segmentPlan(`"nechako"`), []Provider{scopus, wos}, DateRange{})

	assert.Equal(t, 2, exec.SegmentsAttempted)
	assert.Zero(t, exec.SegmentsFailed)
	assert.Len(t, exec.Records, 5)
}

func TestExecutePaginates(t *testing.T) {
	p := &fakeProvider{
		name: "scopus", budget: 7000, pageSize: 10,
		results: map[string][]types.Record{`"nechako"`: fakeRecords("scopus", 35)},
	}

	exec := testOrchestrator().Execute(context.Background(), segmentPlan(`"nechako"`), []Provider{p}, DateRange{})

	require.Len(t, exec.Records, 35)
	assert.Equal(t, 4, p.calls)
}

func TestExecutePageCapStopsRunawayPagination(t *testing.T) {
	p := &fakeProvider{
		name: "scopus", budget: 7000, pageSize: 10,
		results: map[string][]types.Record{`"nechako"`: fakeRecords("scopus", 500)},
	}
	o := NewOrchestrator(types.SearchConfig{
		Scopus:      types.ProviderConfig{RateLimit: 10000, MaxPages: 3},
		Concurrency: 1,
	}, zap.NewNop())

	exec := o.Execute(context.Background(), segmentPlan(`"nechako"`), []Provider{p}, DateRange{})

	assert.Len(t, exec.Records, 30)
	assert.Equal(t, 3, p.calls)
}

func TestExecuteIsolatesSegmentFailures(t *testing.T) {
	p := &fakeProvider{
		name: "scopus", budget: 7000, pageSize: 25,
		results: map[string][]types.Record{
			`"good"`: fakeRecords("good", 4),
		},
		failOn: map[string]bool{`"bad"`: true},
	}

	exec := testOrchestrator().Execute(context.Background(), segmentPlan(`"good"`, `"bad"`), []Provider{p}, DateRange{})

	assert.Equal(t, 2, exec.SegmentsAttempted)
	assert.Equal(t, 1, exec.SegmentsFailed)
	assert.Len(t, exec.Records, 4, "healthy segment results survive a sibling failure")
	require.Len(t, exec.Failures, 1)
	assert.Equal(t, "seg_2", exec.Failures[0].SegmentID)
	assert.Equal(t, "scopus", exec.Failures[0].Provider)
}

func TestExecuteRejectsOverBudgetSegment(t *testing.T) {
	p := &fakeProvider{name: "scopus", budget: 20, pageSize: 25}

	exec := testOrchestrator().Execute(context.Background(), segmentPlan(`"a query well over twenty characters"`), []Provider{p}, DateRange{})

	assert.Equal(t, 1, exec.SegmentsFailed)
	assert.Zero(t, p.calls, "over-budget segments must not reach the provider")
	require.Len(t, exec.Failures, 1)
	assert.Contains(t, exec.Failures[0].Error, "budget")
}

func TestExecuteCancelledContextKeepsNothingNew(t *testing.T) {
	p := &fakeProvider{
		name: "scopus", budget: 7000, pageSize: 25,
		results: map[string][]types.Record{`"nechako"`: fakeRecords("scopus", 3)},
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	exec := testOrchestrator().Execute(ctx, segmentPlan(`"nechako"`, `"fraser"`), []Provider{p}, DateRange{})

	assert.Equal(t, 2, exec.SegmentsAttempted)
	assert.Equal(t, 2, exec.SegmentsFailed)
	assert.Empty(t, exec.Records)
}

func TestExecuteEmptyPlan(t *testing.T) {
	exec := testOrchestrator().Execute(context.Background(), queryplan.Plan{}, []Provider{&fakeProvider{name: "scopus", budget: 7000}}, DateRange{})

	assert.Zero(t, exec.SegmentsAttempted)
	assert.Empty(t, exec.Records)
}
