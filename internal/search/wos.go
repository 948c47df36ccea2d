// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/ahzs645/saturationsearch/internal/httputil"
	"github.com/ahzs645/saturationsearch/pkg/types"
)

// wosDocumentsBase is the Web of Science Starter API documents endpoint.
// Declared as a var so tests can substitute an httptest server.
var wosDocumentsBase = "https://api.clarivate.com/apis/wos-starter/v1/documents"

// wosCharBudget is the Web of Science query length limit.
const wosCharBudget = 8000

// WoSProvider queries the Clarivate Web of Science Starter API.
type WoSProvider struct {
	Client *http.Client
	APIKey string
	Cfg    types.ProviderConfig
}

// Name returns the provider identifier.
func (p *WoSProvider) Name() string { return "wos" }

// CharBudget returns the query length limit checked by the planner.
func (p *WoSProvider) CharBudget() int {
	if p.Cfg.CharBudget > 0 {
		return p.Cfg.CharBudget
	}
	return wosCharBudget
}

// Search runs one page of a Web of Science query. The page token is the
// 1-based page number.
func (p *WoSProvider) Search(ctx context.Context, query string, dr DateRange, pageToken string) (Page, error) {
	pageNum := 1
	if pageToken != "" {
		var err error
		pageNum, err = strconv.Atoi(pageToken)
		if err != nil {
			return Page{}, fmt.Errorf("bad wos page token %q: %w", pageToken, err)
		}
	}

	limit := p.Cfg.PageSize
	if limit <= 0 {
		limit = 50
	}

	params := url.Values{
		"db":    {"WOS"},
		"q":     {formatWoSQuery(query, dr)},
		"limit": {strconv.Itoa(limit)},
		"page":  {strconv.Itoa(pageNum)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, wosDocumentsBase+"?"+params.Encode(), nil)
	if err != nil {
		return Page{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-ApiKey", p.APIKey)
	if p.Cfg.UserAgent != "" {
		req.Header.Set("User-Agent", p.Cfg.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, p.Client, req, 0)
	if err != nil {
		return Page{}, fmt.Errorf("Web of Science API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Page{}, fmt.Errorf("Web of Science API returned HTTP %d", resp.StatusCode)
	}

	var wr wosResponse
	if err := json.NewDecoder(resp.Body).Decode(&wr); err != nil {
		return Page{}, fmt.Errorf("parsing Web of Science response: %w", err)
	}

	page := Page{}
	for _, hit := range wr.Hits {
		page.Records = append(page.Records, hit.toRecord())
	}

	fetched := (pageNum-1)*limit + len(wr.Hits)
	if len(wr.Hits) > 0 && fetched < wr.Metadata.Total {
		page.NextPageToken = strconv.Itoa(pageNum + 1)
	}
	return page, nil
}

// formatWoSQuery renders the generic OR-join into Web of Science advanced
// search syntax: a topic-set clause plus a publication-year range.
func formatWoSQuery(query string, dr DateRange) string {
	q := "TS=(" + query + ")"
	switch {
	case !dr.From.IsZero() && !dr.To.IsZero():
		q += fmt.Sprintf(" AND PY=(%d-%d)", dr.From.Year(), dr.To.Year())
	case !dr.From.IsZero():
		q += fmt.Sprintf(" AND PY=(%d-%d)", dr.From.Year(), 9999)
	case !dr.To.IsZero():
		q += fmt.Sprintf(" AND PY=(%d-%d)", 1900, dr.To.Year())
	}
	return q
}

// Web of Science Starter API JSON structures.
type wosResponse struct {
	Metadata wosMetadata `json:"metadata"`
	Hits     []wosHit    `json:"hits"`
}

type wosMetadata struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

type wosHit struct {
	UID         string         `json:"uid"`
	Title       string         `json:"title"`
	Source      wosSource      `json:"source"`
	Names       wosNames       `json:"names"`
	Identifiers wosIdentifiers `json:"identifiers"`
}

type wosSource struct {
	SourceTitle string `json:"sourceTitle"`
	PublishYear int    `json:"publishYear"`
}

type wosNames struct {
	Authors []wosAuthor `json:"authors"`
}

type wosAuthor struct {
	DisplayName string `json:"displayName"`
}

type wosIdentifiers struct {
	DOI  string `json:"doi"`
	PMID string `json:"pmid"`
}

func (h wosHit) toRecord() types.Record {
	r := types.Record{
		SourceID:   h.UID,
		DOI:        h.Identifiers.DOI,
		PMID:       h.Identifiers.PMID,
		Title:      h.Title,
		Journal:    h.Source.SourceTitle,
		Year:       h.Source.PublishYear,
		Provenance: "wos",
	}
	for _, a := range h.Names.Authors {
		if a.DisplayName != "" {
			r.Authors = append(r.Authors, a.DisplayName)
		}
	}
	return r
}
