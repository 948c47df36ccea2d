// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ahzs645/saturationsearch/internal/catalog"
	"github.com/ahzs645/saturationsearch/internal/search"
	"github.com/ahzs645/saturationsearch/internal/store"
	"github.com/ahzs645/saturationsearch/pkg/types"
)

// cannedProvider returns the same record set for any query.
type cannedProvider struct {
	name    string
	records []types.Record
}

func (c *cannedProvider) Name() string    { return c.name }
func (c *cannedProvider) CharBudget() int { return 1 << 20 }

func (c *cannedProvider) Search(ctx context.Context, query string, dr search.DateRange, pageToken string) (search.Page, error) {
	return search.Page{Records: c.records}, nil
}

func testPipeline(t *testing.T, cfg types.PipelineConfig, providers ...search.Provider) *Pipeline {
	t.Helper()
	cfg.Search.Concurrency = 2
	cfg.Search.Scopus.RateLimit = 10000
	cfg.Search.WebOfScience.RateLimit = 10000

	p := &Pipeline{
		cfg:       cfg,
		cat:       catalog.Nechako(),
		providers: providers,
		logger:    zap.NewNop(),
	}
	if cfg.Store.Path != "" {
		st, err := store.NewStore(cfg.Store)
		require.NoError(t, err)
		t.Cleanup(func() { st.Close() })
		p.store = st
	}
	return p
}

func relevantRecord(id, doi string) types.Record {
	return types.Record{
		SourceID: id,
		DOI:      doi,
		Title:    "Salmon habitat in the Nechako River near Vanderhoof",
		Abstract: "Fish habitat and water quality survey of the Nechako Watershed " +
			"from Stuart Lake to Fraser Lake, covering salmon spawning ecosystem condition.",
		Year:       1996,
		Provenance: "scopus",
	}
}

func TestRunEndToEnd(t *testing.T) {
	records := []types.Record{
		relevantRecord("2-s2.0-001", "10.1139/f96-001"),
		func() types.Record {
			r := relevantRecord("WOS:1", "10.1139/f96-001")
			r.Provenance = "wos"
			return r
		}(),
		{
			SourceID: "2-s2.0-002",
			Title:    "Deep learning architectures for medical image segmentation",
			Abstract: "A survey of convolutional network design choices for radiology tasks.",
			Year:     2020,
		},
		{SourceID: "2-s2.0-003", Title: "Nechako River flows", Year: 2001},
	}

	cfg := types.PipelineConfig{
		Store: types.StoreConfig{Path: filepath.Join(t.TempDir(), "runs.db")},
	}
	p := testPipeline(t, cfg, &cannedProvider{name: "scopus", records: records})

	report, err := p.Run(context.Background(), search.DateRange{})
	require.NoError(t, err)

	assert.Equal(t, 4, report.RecordsFetched)
	assert.Equal(t, 3, report.UniqueRecords)
	assert.Equal(t, 1, report.DuplicatesRemoved)
	assert.Equal(t, 1, report.Included)
	assert.Equal(t, 1, report.Excluded)
	assert.Equal(t, 1, report.ManualReview)
	assert.Zero(t, report.SegmentsFailed)
	assert.NotZero(t, report.RunID)

	history, err := p.store.History(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 3, history[0].UniqueRecords)

	stored, err := p.store.Records(context.Background(), report.RunID)
	require.NoError(t, err)
	assert.Len(t, stored, 3)
}

// A complete baseline reappearing in the results yields recall 1.0, with
// every baseline hit annotated rather than removed.
func TestRunBaselineRecall(t *testing.T) {
	topics := []string{
		"sediment transport", "sockeye migration", "riparian vegetation",
		"flow regulation", "sturgeon recruitment", "thermal stratification",
		"groundwater exchange", "nutrient loading", "ice breakup timing",
		"channel morphology", "juvenile rearing", "spawning gravel quality",
		"turbidity regimes", "benthic invertebrates", "floodplain connectivity",
		"dissolved oxygen", "watershed land cover", "snowpack contribution",
		"bank erosion", "side channel restoration",
	}
	var baseline, fetched []types.Record
	for i, topic := range topics {
		r := relevantRecord(
			fmt.Sprintf("2-s2.0-%03d", i),
			fmt.Sprintf("10.1139/base-%03d", i))
		r.Title = fmt.Sprintf("Nechako River %s", topic)
		baseline = append(baseline, types.Record{DOI: r.DOI, Title: r.Title, Year: r.Year})
		fetched = append(fetched, r)
	}
	novel := relevantRecord("2-s2.0-900", "10.1139/new-900")
	novel.Title = "Newly surfaced Nechako Watershed assessment"
	fetched = append(fetched, novel)

	dir := t.TempDir()
	baselinePath := filepath.Join(dir, "baseline.yaml")
	writeBaselineYAML(t, baselinePath, baseline)

	cfg := types.PipelineConfig{BaselinePath: baselinePath}
	p := testPipeline(t, cfg, &cannedProvider{name: "scopus", records: fetched})
	loaded, err := LoadBaseline(baselinePath)
	require.NoError(t, err)
	p.baseline = loaded

	report, err := p.Run(context.Background(), search.DateRange{})
	require.NoError(t, err)

	assert.Equal(t, 20, report.BaselineTotal)
	assert.Equal(t, 20, report.BaselineMatched)
	assert.InDelta(t, 1.0, report.Recall, 1e-9)
	assert.Equal(t, 21, report.UniqueRecords, "baseline matches stay in the result set")
}

func writeBaselineYAML(t *testing.T, path string, records []types.Record) {
	t.Helper()
	var b []byte
	for _, r := range records {
		b = append(b, []byte(fmt.Sprintf("- doi: %q\n  title: %q\n  year: %d\n", r.DOI, r.Title, r.Year))...)
	}
	require.NoError(t, os.WriteFile(path, b, 0o644))
}

func TestLoadBaseline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "baseline.yaml")
	writeBaselineYAML(t, path, []types.Record{
		{DOI: "10.1139/f96-001", Title: "Salmon habitat in the Nechako River", Year: 1996},
	})

	records, err := LoadBaseline(path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "10.1139/f96-001", records[0].DOI)
	assert.Equal(t, 1996, records[0].Year)

	_, err = LoadBaseline(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestRunRequiresProviders(t *testing.T) {
	p := testPipeline(t, types.PipelineConfig{})
	_, err := p.Run(context.Background(), search.DateRange{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no search providers")
}

func TestPlanOnly(t *testing.T) {
	p := testPipeline(t, types.PipelineConfig{}, &cannedProvider{name: "scopus"})

	plan, analysis, err := p.PlanOnly()
	require.NoError(t, err)

	assert.NotEmpty(t, plan.Segments)
	assert.NotEmpty(t, analysis.Recommended)
	assert.NotZero(t, plan.TotalTerms)
}

func TestRunRejectsUnknownStrategy(t *testing.T) {
	cfg := types.PipelineConfig{Plan: types.PlanConfig{ForceStrategy: "fastest"}}
	p := testPipeline(t, cfg, &cannedProvider{name: "scopus"})

	_, err := p.Run(context.Background(), search.DateRange{})
	assert.Error(t, err)
}

func TestReportFormatText(t *testing.T) {
	report := &RunReport{
		RunID:             3,
		Strategy:          "chunked",
		Segments:          12,
		TermsIncluded:     240,
		RecordsFetched:    840,
		UniqueRecords:     790,
		DuplicatesRemoved: 50,
		LevelCounts:       map[string]int{"exact": 40, "title": 10},
		BaselineTotal:     748,
		BaselineMatched:   748,
		Recall:            1.0,
		Included:          610,
		Excluded:          120,
		ManualReview:      60,
		ThemeCounts:       map[types.Theme]int{types.ThemeEnvironment: 500, types.ThemeCommunity: 110},
	}

	text := report.FormatText()
	assert.Contains(t, text, "Run:           #3")
	assert.Contains(t, text, "chunked")
	assert.Contains(t, text, "748/748 matched (recall 1.000)")
	assert.Contains(t, text, "610 included, 120 excluded, 60 manual review")
	assert.Contains(t, text, "exact 40, title 10")
}
