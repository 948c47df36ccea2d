// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the saturation-search pipeline.
package types

// Record is a bibliographic entry returned by a search provider. Records are
// value types: every pipeline stage that changes one works on its own copy,
// never on a record owned by an earlier stage.
type Record struct {
	// SourceID is the provider-native identifier (Scopus EID, WoS UID).
	SourceID string `json:"source_id" yaml:"source_id"`

	// DOI is the bare DOI (no https://doi.org/ prefix), empty when unknown.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// PMID is the PubMed identifier, empty when unknown.
	PMID string `json:"pmid,omitempty" yaml:"pmid,omitempty"`

	// Title is the article title as returned by the provider.
	Title string `json:"title" yaml:"title"`

	// Authors lists the article authors in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// Year is the publication year, 0 when unknown.
	Year int `json:"year,omitempty" yaml:"year,omitempty"`

	// Journal is the publication venue, empty when unknown.
	Journal string `json:"journal,omitempty" yaml:"journal,omitempty"`

	// Abstract is the article abstract, empty when unavailable.
	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	// Language is the declared publication language, empty when the
	// provider does not report one.
	Language string `json:"language,omitempty" yaml:"language,omitempty"`

	// Provenance identifies which provider found this record (e.g. "scopus").
	Provenance string `json:"provenance" yaml:"provenance"`

	// PreviouslyKnown is set by the deduplicator when the record matches
	// the baseline corpus. The record stays in the output either way.
	PreviouslyKnown bool `json:"previously_known,omitempty" yaml:"previously_known,omitempty"`
}

// Completeness counts the populated metadata fields. The deduplicator keeps
// the more complete of two records representing the same work.
func (r Record) Completeness() int {
	n := 0
	for _, s := range []string{r.SourceID, r.DOI, r.PMID, r.Title, r.Journal, r.Abstract, r.Language} {
		if s != "" {
			n++
		}
	}
	if len(r.Authors) > 0 {
		n++
	}
	if r.Year != 0 {
		n++
	}
	return n
}

// HasIdentifier reports whether the record carries a DOI or PMID.
func (r Record) HasIdentifier() bool {
	return r.DOI != "" || r.PMID != ""
}
