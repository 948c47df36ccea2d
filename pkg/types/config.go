// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "saturation-search/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// ProviderConfig holds settings for one search provider.
type ProviderConfig struct {
	HTTPConfig `yaml:",inline"`

	// Enabled controls whether the provider is queried.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// APIKey authenticates requests to the provider.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// CharBudget is the provider's documented maximum query length in
	// characters. Queries longer than this are a caller bug.
	CharBudget int `json:"char_budget" yaml:"char_budget"`

	// PageSize is the number of records requested per page.
	PageSize int `json:"page_size" yaml:"page_size"`

	// MaxPages caps pagination per query segment so a misbehaving
	// provider cannot keep the orchestrator looping.
	MaxPages int `json:"max_pages" yaml:"max_pages"`

	// RateLimit is the maximum request rate in requests per second.
	RateLimit float64 `json:"rate_limit" yaml:"rate_limit"`
}

// SearchConfig holds settings for the search stage.
type SearchConfig struct {
	// Scopus configures the Scopus provider (default budget 7000 chars).
	Scopus ProviderConfig `json:"scopus" yaml:"scopus"`

	// WebOfScience configures the Web of Science provider (default budget
	// 8000 chars).
	WebOfScience ProviderConfig `json:"web_of_science" yaml:"web_of_science"`

	// Concurrency caps in-flight segment calls across all providers.
	Concurrency int64 `json:"concurrency" yaml:"concurrency"`
}

// PlanConfig holds settings for query planning.
type PlanConfig struct {
	// MaxChunkSize is the maximum number of terms per chunked query
	// segment (default 50).
	MaxChunkSize int `json:"max_chunk_size" yaml:"max_chunk_size"`

	// UsePriorityTerms restricts planning to the priority categories.
	UsePriorityTerms bool `json:"use_priority_terms" yaml:"use_priority_terms"`

	// ForceStrategy overrides automatic strategy selection when set to
	// "direct", "progressive", or "chunked".
	ForceStrategy string `json:"force_strategy,omitempty" yaml:"force_strategy,omitempty"`
}

// DedupConfig holds similarity thresholds for duplicate detection.
type DedupConfig struct {
	// TitleThreshold is the minimum normalized-title similarity for a
	// level-2 match (default 0.95).
	TitleThreshold float64 `json:"title_threshold" yaml:"title_threshold"`

	// AbstractThreshold is the minimum abstract similarity for a level-4
	// match (default 0.85).
	AbstractThreshold float64 `json:"abstract_threshold" yaml:"abstract_threshold"`
}

// ExclusionRule excludes records matching any of its keywords, unless one of
// the context terms also appears. This filters institution-affiliated research
// that is topically unrelated without losing papers about the watershed itself.
type ExclusionRule struct {
	// Keywords trigger the rule when found in the title or abstract.
	Keywords []string `json:"keywords" yaml:"keywords"`

	// UnlessTerms suppress the rule when any of them is also present.
	UnlessTerms []string `json:"unless_terms,omitempty" yaml:"unless_terms,omitempty"`

	// Reason is recorded verbatim on excluded decisions.
	Reason string `json:"reason" yaml:"reason"`
}

// ScreenConfig holds settings for automated screening.
type ScreenConfig struct {
	// ConfidenceThreshold is the manual-review cutoff (default 0.8):
	// any decision below it is flagged for human eyes.
	ConfidenceThreshold float64 `json:"confidence_threshold" yaml:"confidence_threshold"`

	// RelevanceThreshold is the minimum geographic relevance score for a
	// record to stay in scope (default 0.3).
	RelevanceThreshold float64 `json:"relevance_threshold" yaml:"relevance_threshold"`

	// MinYear excludes records published before it (default 1930).
	MinYear int `json:"min_year" yaml:"min_year"`

	// ExclusionRules are the configured domain exclusion patterns.
	ExclusionRules []ExclusionRule `json:"exclusion_rules" yaml:"exclusion_rules"`
}

// ZoteroConfig holds settings for the reference-manager client.
type ZoteroConfig struct {
	HTTPConfig `yaml:",inline"`

	// Enabled controls whether screened records are delivered to Zotero.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// APIKey authenticates against the Zotero Web API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// LibraryID is the numeric group or user library identifier.
	LibraryID string `json:"library_id" yaml:"library_id"`

	// LibraryType is "group" or "user" (default "group").
	LibraryType string `json:"library_type" yaml:"library_type"`
}

// StoreConfig holds settings for the run store.
type StoreConfig struct {
	// Path is the SQLite database file (default "results/saturation.db").
	Path string `json:"path" yaml:"path"`
}

// PipelineConfig groups all stage configurations for a run.
type PipelineConfig struct {
	Plan   PlanConfig   `json:"plan" yaml:"plan"`
	Search SearchConfig `json:"search" yaml:"search"`
	Dedup  DedupConfig  `json:"dedup" yaml:"dedup"`
	Screen ScreenConfig `json:"screen" yaml:"screen"`
	Zotero ZoteroConfig `json:"zotero" yaml:"zotero"`
	Store  StoreConfig  `json:"store" yaml:"store"`

	// CatalogPath points at a YAML term catalog. Empty means the built-in
	// Nechako catalog.
	CatalogPath string `json:"catalog_path,omitempty" yaml:"catalog_path,omitempty"`

	// BaselinePath points at the baseline corpus YAML used for level-5
	// dedup and recall validation. Empty disables both.
	BaselinePath string `json:"baseline_path,omitempty" yaml:"baseline_path,omitempty"`

	// RunTimeout aborts pending provider calls when exceeded; segments
	// already fetched still flow through the rest of the pipeline.
	RunTimeout time.Duration `json:"run_timeout" yaml:"run_timeout"`
}
