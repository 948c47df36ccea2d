// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Theme classifies an included article into one of the review's thematic
// streams.
type Theme string

const (
	ThemeEnvironment Theme = "Environment"
	ThemeCommunity   Theme = "Community"
	ThemeHealth      Theme = "Health"
	ThemeUnknown     Theme = "Unknown"
)

// ScreeningDecision is the outcome of screening a single record against the
// inclusion and exclusion criteria.
type ScreeningDecision struct {
	// Record is the screened record.
	Record Record `json:"record" yaml:"record"`

	// Included reports whether the record passed every exclusion rule.
	Included bool `json:"included" yaml:"included"`

	// Confidence is the screener's certainty in the decision, in [0,1].
	Confidence float64 `json:"confidence" yaml:"confidence"`

	// Theme is the classified theme. ThemeUnknown when classification was
	// not attempted (e.g. confidently excluded records).
	Theme Theme `json:"theme" yaml:"theme"`

	// Reasons lists the inclusion/exclusion reasons in evaluation order.
	Reasons []string `json:"reasons" yaml:"reasons"`

	// ManualReviewRequired is true exactly when Confidence is below the
	// configured threshold, for inclusions and exclusions alike.
	ManualReviewRequired bool `json:"manual_review_required" yaml:"manual_review_required"`

	// GeographicScore is the term-catalog relevance score, in [0,1].
	GeographicScore float64 `json:"geographic_score" yaml:"geographic_score"`

	// LocationMatches counts catalog terms found in the title and abstract.
	LocationMatches int `json:"location_matches" yaml:"location_matches"`

	// QualityScore is 10 × location matches + content relevance. Any
	// exclusion-rule hit forces it to 0.
	QualityScore float64 `json:"quality_score" yaml:"quality_score"`
}
