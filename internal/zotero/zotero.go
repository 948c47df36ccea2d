// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package zotero is a minimal client for the Zotero Web API v3, covering
// the collection and item operations the delivery stage needs.
package zotero

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/ahzs645/saturationsearch/internal/httputil"
	"github.com/ahzs645/saturationsearch/pkg/types"
)

// apiBase is the Zotero Web API root. Declared as a var so tests can
// substitute an httptest server.
var apiBase = "https://api.zotero.org"

// Client talks to one Zotero group or user library.
type Client struct {
	client    *http.Client
	apiKey    string
	prefix    string
	userAgent string
}

// NewClient validates the library configuration and returns a Client.
func NewClient(cfg types.ZoteroConfig) (*Client, error) {
	if cfg.LibraryID == "" {
		return nil, fmt.Errorf("zotero library ID is required")
	}
	libType := cfg.LibraryType
	if libType == "" {
		libType = "group"
	}
	if libType != "group" && libType != "user" {
		return nil, fmt.Errorf("zotero library type must be \"group\" or \"user\", got %q", libType)
	}

	client := &http.Client{}
	if cfg.Timeout > 0 {
		client.Timeout = cfg.Timeout
	}
	return &Client{
		client:    client,
		apiKey:    cfg.APIKey,
		prefix:    fmt.Sprintf("/%ss/%s", libType, cfg.LibraryID),
		userAgent: cfg.UserAgent,
	}, nil
}

// writeResponse is the envelope Zotero returns for batch writes.
type writeResponse struct {
	Success map[string]string            `json:"success"`
	Failed  map[string]writeFailedDetail `json:"failed"`
}

type writeFailedDetail struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// CreateCollection creates a collection and returns its key.
func (c *Client) CreateCollection(ctx context.Context, name string) (string, error) {
	body := []map[string]any{{"name": name}}
	var wr writeResponse
	if err := c.do(ctx, http.MethodPost, "/collections", 0, body, &wr); err != nil {
		return "", fmt.Errorf("creating collection %q: %w", name, err)
	}
	key, ok := wr.Success["0"]
	if !ok {
		return "", fmt.Errorf("creating collection %q: %s", name, wr.failure())
	}
	return key, nil
}

// AddItem creates a journal-article item inside the given collection and
// returns its key.
func (c *Client) AddItem(ctx context.Context, collectionKey string, rec types.Record) (string, error) {
	var wr writeResponse
	if err := c.do(ctx, http.MethodPost, "/items", 0, []map[string]any{itemData(collectionKey, rec)}, &wr); err != nil {
		return "", fmt.Errorf("adding item %q: %w", rec.Title, err)
	}
	key, ok := wr.Success["0"]
	if !ok {
		return "", fmt.Errorf("adding item %q: %s", rec.Title, wr.failure())
	}
	return key, nil
}

// AddTags appends tags to an existing item, preserving the ones already
// there. Zotero requires the item's current version on modification, so
// this is a read-modify-write.
func (c *Client) AddTags(ctx context.Context, itemKey string, tags []string) error {
	if len(tags) == 0 {
		return nil
	}

	var item struct {
		Version int `json:"version"`
		Data    struct {
			Tags []map[string]any `json:"tags"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/items/"+itemKey, 0, nil, &item); err != nil {
		return fmt.Errorf("fetching item %s: %w", itemKey, err)
	}

	existing := make(map[string]bool, len(item.Data.Tags))
	merged := item.Data.Tags
	for _, t := range item.Data.Tags {
		if s, ok := t["tag"].(string); ok {
			existing[s] = true
		}
	}
	for _, tag := range tags {
		if !existing[tag] {
			merged = append(merged, map[string]any{"tag": tag})
		}
	}

	patch := map[string]any{"tags": merged}
	if err := c.do(ctx, http.MethodPatch, "/items/"+itemKey, item.Version, patch, nil); err != nil {
		return fmt.Errorf("tagging item %s: %w", itemKey, err)
	}
	return nil
}

// itemData renders a record as a Zotero journal-article item.
func itemData(collectionKey string, rec types.Record) map[string]any {
	creators := make([]map[string]string, 0, len(rec.Authors))
	for _, a := range rec.Authors {
		creators = append(creators, map[string]string{
			"creatorType": "author",
			"name":        a,
		})
	}

	data := map[string]any{
		"itemType":         "journalArticle",
		"title":            rec.Title,
		"creators":         creators,
		"publicationTitle": rec.Journal,
		"abstractNote":     rec.Abstract,
		"DOI":              rec.DOI,
		"collections":      []string{collectionKey},
	}
	if rec.Year != 0 {
		data["date"] = strconv.Itoa(rec.Year)
	}

	var extra []string
	if rec.PMID != "" {
		extra = append(extra, "PMID: "+rec.PMID)
	}
	if rec.SourceID != "" {
		extra = append(extra, "Source ID: "+rec.SourceID)
	}
	if rec.Provenance != "" {
		extra = append(extra, "Found via: "+rec.Provenance)
	}
	if len(extra) > 0 {
		data["extra"] = strings.Join(extra, "\n")
	}
	return data
}

// do performs one API call. A non-zero version is sent as the
// If-Unmodified-Since-Version precondition.
func (c *Client) do(ctx context.Context, method, path string, version int, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiBase+c.prefix+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Zotero-API-Version", "3")
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Zotero-API-Key", c.apiKey)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if version > 0 {
		req.Header.Set("If-Unmodified-Since-Version", strconv.Itoa(version))
	}

	resp, err := httputil.DoWithRetry(ctx, c.client, req, 0)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("Zotero API returned HTTP %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parsing Zotero response: %w", err)
	}
	return nil
}

func (wr writeResponse) failure() string {
	for _, f := range wr.Failed {
		return fmt.Sprintf("write rejected (%d): %s", f.Code, f.Message)
	}
	return "write produced no key"
}
