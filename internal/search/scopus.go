// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/ahzs645/saturationsearch/internal/httputil"
	"github.com/ahzs645/saturationsearch/pkg/types"
)

// scopusSearchBase is the Scopus Search API endpoint. Declared as a var so
// tests can substitute an httptest server.
var scopusSearchBase = "https://api.elsevier.com/content/search/scopus"

// scopusCharBudget is Scopus's documented query length limit.
const scopusCharBudget = 7000

// ScopusProvider queries the Elsevier Scopus Search API.
type ScopusProvider struct {
	Client *http.Client
	APIKey string
	Cfg    types.ProviderConfig
}

// Name returns the provider identifier.
func (p *ScopusProvider) Name() string { return "scopus" }

// CharBudget returns the query length limit checked by the planner.
func (p *ScopusProvider) CharBudget() int {
	if p.Cfg.CharBudget > 0 {
		return p.Cfg.CharBudget
	}
	return scopusCharBudget
}

// Search runs one page of a Scopus query. The page token is the opensearch
// start index.
func (p *ScopusProvider) Search(ctx context.Context, query string, dr DateRange, pageToken string) (Page, error) {
	start := 0
	if pageToken != "" {
		var err error
		start, err = strconv.Atoi(pageToken)
		if err != nil {
			return Page{}, fmt.Errorf("bad scopus page token %q: %w", pageToken, err)
		}
	}

	count := p.Cfg.PageSize
	if count <= 0 {
		count = 25
	}

	params := url.Values{
		"query": {formatScopusQuery(query, dr)},
		"start": {strconv.Itoa(start)},
		"count": {strconv.Itoa(count)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, scopusSearchBase+"?"+params.Encode(), nil)
	if err != nil {
		return Page{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-ELS-APIKey", p.APIKey)
	if p.Cfg.UserAgent != "" {
		req.Header.Set("User-Agent", p.Cfg.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, p.Client, req, 0)
	if err != nil {
		return Page{}, fmt.Errorf("Scopus API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Page{}, fmt.Errorf("Scopus API returned HTTP %d", resp.StatusCode)
	}

	var sr scopusResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return Page{}, fmt.Errorf("parsing Scopus response: %w", err)
	}

	page := Page{}
	for _, entry := range sr.SearchResults.Entries {
		page.Records = append(page.Records, entry.toRecord())
	}

	total, _ := strconv.Atoi(sr.SearchResults.TotalResults)
	next := start + len(sr.SearchResults.Entries)
	if len(sr.SearchResults.Entries) > 0 && next < total {
		page.NextPageToken = strconv.Itoa(next)
	}
	return page, nil
}

// formatScopusQuery renders the generic OR-join of quoted terms into
// Scopus TITLE-ABS-KEY syntax and appends the date and language filters.
func formatScopusQuery(query string, dr DateRange) string {
	terms := strings.Split(query, " OR ")
	formatted := make([]string, len(terms))
	for i, t := range terms {
		formatted[i] = "TITLE-ABS-KEY(" + t + ")"
	}
	q := "(" + strings.Join(formatted, " OR ") + ")"

	if !dr.From.IsZero() {
		q += fmt.Sprintf(" AND PUBYEAR > %d", dr.From.Year()-1)
	}
	if !dr.To.IsZero() {
		q += fmt.Sprintf(" AND PUBYEAR < %d", dr.To.Year()+1)
	}
	q += " AND LANGUAGE(english)"
	return q
}

// Scopus API JSON structures.
type scopusResponse struct {
	SearchResults scopusSearchResults `json:"search-results"`
}

type scopusSearchResults struct {
	TotalResults string        `json:"opensearch:totalResults"`
	Entries      []scopusEntry `json:"entry"`
}

type scopusEntry struct {
	EID             string         `json:"eid"`
	Title           string         `json:"dc:title"`
	Creator         string         `json:"dc:creator"`
	Description     string         `json:"dc:description"`
	PublicationName string         `json:"prism:publicationName"`
	CoverDate       string         `json:"prism:coverDate"`
	DOI             string         `json:"prism:doi"`
	PubmedID        string         `json:"pubmed-id"`
	Authors         []scopusAuthor `json:"author"`
}

type scopusAuthor struct {
	AuthName string `json:"authname"`
}

func (e scopusEntry) toRecord() types.Record {
	r := types.Record{
		SourceID:   e.EID,
		DOI:        strings.TrimPrefix(e.DOI, "https://doi.org/"),
		PMID:       e.PubmedID,
		Title:      e.Title,
		Journal:    e.PublicationName,
		Abstract:   e.Description,
		Provenance: "scopus",
	}
	for _, a := range e.Authors {
		if a.AuthName != "" {
			r.Authors = append(r.Authors, a.AuthName)
		}
	}
	if len(r.Authors) == 0 && e.Creator != "" {
		r.Authors = []string{e.Creator}
	}
	// prism:coverDate is YYYY-MM-DD; the year prefix is all we keep.
	if len(e.CoverDate) >= 4 {
		if y, err := strconv.Atoi(e.CoverDate[:4]); err == nil {
			r.Year = y
		}
	}
	return r
}
