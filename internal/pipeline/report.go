// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ahzs645/saturationsearch/internal/queryplan"
	"github.com/ahzs645/saturationsearch/internal/route"
	"github.com/ahzs645/saturationsearch/internal/search"
	"github.com/ahzs645/saturationsearch/pkg/types"
)

// RunReport summarizes one pipeline run end to end.
type RunReport struct {
	RunID    int64              `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Strategy queryplan.Strategy `json:"strategy" yaml:"strategy"`

	Segments      int `json:"segments" yaml:"segments"`
	TermsIncluded int `json:"terms_included" yaml:"terms_included"`
	TermsExcluded int `json:"terms_excluded" yaml:"terms_excluded"`

	SegmentsFailed int                     `json:"segments_failed" yaml:"segments_failed"`
	Failures       []search.SegmentFailure `json:"failures,omitempty" yaml:"failures,omitempty"`

	RecordsFetched    int            `json:"records_fetched" yaml:"records_fetched"`
	UniqueRecords     int            `json:"unique_records" yaml:"unique_records"`
	DuplicatesRemoved int            `json:"duplicates_removed" yaml:"duplicates_removed"`
	LevelCounts       map[string]int `json:"level_counts,omitempty" yaml:"level_counts,omitempty"`

	BaselineTotal   int     `json:"baseline_total" yaml:"baseline_total"`
	BaselineMatched int     `json:"baseline_matched" yaml:"baseline_matched"`
	Recall          float64 `json:"recall" yaml:"recall"`

	Included     int                 `json:"included" yaml:"included"`
	Excluded     int                 `json:"excluded" yaml:"excluded"`
	ManualReview int                 `json:"manual_review" yaml:"manual_review"`
	ThemeCounts  map[types.Theme]int `json:"theme_counts,omitempty" yaml:"theme_counts,omitempty"`

	Delivery *route.DeliveryReport `json:"delivery,omitempty" yaml:"delivery,omitempty"`

	Duration time.Duration `json:"duration" yaml:"duration"`
}

// FormatText renders the report for the terminal.
func (r *RunReport) FormatText() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Saturation search complete in %s\n\n", r.Duration.Round(time.Millisecond))
	if r.RunID != 0 {
		fmt.Fprintf(&b, "Run:           #%d\n", r.RunID)
	}
	fmt.Fprintf(&b, "Strategy:      %s (%d segments, %d terms", r.Strategy, r.Segments, r.TermsIncluded)
	if r.TermsExcluded > 0 {
		fmt.Fprintf(&b, ", %d excluded", r.TermsExcluded)
	}
	b.WriteString(")\n")

	fmt.Fprintf(&b, "Fetched:       %d records", r.RecordsFetched)
	if r.SegmentsFailed > 0 {
		fmt.Fprintf(&b, " (%d segments failed)", r.SegmentsFailed)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "Unique:        %d (%d duplicates removed", r.UniqueRecords, r.DuplicatesRemoved)
	if len(r.LevelCounts) > 0 {
		levels := make([]string, 0, len(r.LevelCounts))
		for level := range r.LevelCounts {
			levels = append(levels, level)
		}
		sort.Strings(levels)
		parts := make([]string, 0, len(levels))
		for _, level := range levels {
			parts = append(parts, fmt.Sprintf("%s %d", level, r.LevelCounts[level]))
		}
		fmt.Fprintf(&b, ": %s", strings.Join(parts, ", "))
	}
	b.WriteString(")\n")

	if r.BaselineTotal > 0 {
		fmt.Fprintf(&b, "Baseline:      %d/%d matched (recall %.3f)\n",
			r.BaselineMatched, r.BaselineTotal, r.Recall)
	}

	fmt.Fprintf(&b, "Screening:     %d included, %d excluded, %d manual review\n",
		r.Included, r.Excluded, r.ManualReview)

	if len(r.ThemeCounts) > 0 {
		themes := make([]string, 0, len(r.ThemeCounts))
		for theme := range r.ThemeCounts {
			themes = append(themes, string(theme))
		}
		sort.Strings(themes)
		parts := make([]string, 0, len(themes))
		for _, theme := range themes {
			parts = append(parts, fmt.Sprintf("%s %d", theme, r.ThemeCounts[types.Theme(theme)]))
		}
		fmt.Fprintf(&b, "Themes:        %s\n", strings.Join(parts, ", "))
	}

	if r.Delivery != nil {
		fmt.Fprintf(&b, "Delivered:     %d items to %d collections",
			r.Delivery.ItemsAdded, len(r.Delivery.Collections))
		if r.Delivery.ItemsFailed > 0 {
			fmt.Fprintf(&b, " (%d failed)", r.Delivery.ItemsFailed)
		}
		b.WriteString("\n")
	}

	for _, f := range r.Failures {
		fmt.Fprintf(&b, "  failed segment %s/%s: %s\n", f.Provider, f.SegmentID, f.Error)
	}

	return b.String()
}
