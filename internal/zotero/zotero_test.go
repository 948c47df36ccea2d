// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package zotero

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahzs645/saturationsearch/pkg/types"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	orig := apiBase
	apiBase = server.URL
	t.Cleanup(func() { apiBase = orig })

	c, err := NewClient(types.ZoteroConfig{
		APIKey:      "zotero-key",
		LibraryID:   "5748231",
		LibraryType: "group",
	})
	require.NoError(t, err)
	return c
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient(types.ZoteroConfig{})
	assert.Error(t, err, "missing library ID")

	_, err = NewClient(types.ZoteroConfig{LibraryID: "1", LibraryType: "shelf"})
	assert.Error(t, err, "bad library type")

	c, err := NewClient(types.ZoteroConfig{LibraryID: "42"})
	require.NoError(t, err)
	assert.Equal(t, "/groups/42", c.prefix, "library type defaults to group")
}

func TestCreateCollection(t *testing.T) {
	var gotPath, gotKey string
	var gotBody []map[string]any
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("Zotero-API-Key")
		json.NewDecoder(r.Body).Decode(&gotBody)
		fmt.Fprint(w, `{"success": {"0": "COLL1234"}, "failed": {}}`)
	}))

	key, err := c.CreateCollection(context.Background(), "SearchResults202608")
	require.NoError(t, err)

	assert.Equal(t, "COLL1234", key)
	assert.Equal(t, "/groups/5748231/collections", gotPath)
	assert.Equal(t, "zotero-key", gotKey)
	require.Len(t, gotBody, 1)
	assert.Equal(t, "SearchResults202608", gotBody[0]["name"])
}

func TestAddItem(t *testing.T) {
	var gotBody []map[string]any
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		fmt.Fprint(w, `{"success": {"0": "ITEM5678"}, "failed": {}}`)
	}))

	key, err := c.AddItem(context.Background(), "COLL1234", types.Record{
		SourceID:   "2-s2.0-001",
		DOI:        "10.1139/f96-001",
		PMID:       "8675309",
		Title:      "Salmon habitat in the Nechako River",
		Authors:    []string{"Hartman G.", "Scrivener J."},
		Year:       1996,
		Journal:    "Canadian Journal of Fisheries",
		Provenance: "scopus",
	})
	require.NoError(t, err)
	assert.Equal(t, "ITEM5678", key)

	require.Len(t, gotBody, 1)
	item := gotBody[0]
	assert.Equal(t, "journalArticle", item["itemType"])
	assert.Equal(t, "Salmon habitat in the Nechako River", item["title"])
	assert.Equal(t, "1996", item["date"])
	assert.Equal(t, []any{"COLL1234"}, item["collections"])
	assert.Contains(t, item["extra"], "PMID: 8675309")
	assert.Contains(t, item["extra"], "Found via: scopus")
}

func TestAddItemRejected(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success": {}, "failed": {"0": {"code": 400, "message": "Invalid creator"}}}`)
	}))

	_, err := c.AddItem(context.Background(), "COLL1234", types.Record{Title: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid creator")
}

func TestAddTagsMergesExisting(t *testing.T) {
	var patchVersion string
	var patched map[string]any
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			fmt.Fprint(w, `{"key": "ITEM5678", "version": 12,
				"data": {"tags": [{"tag": "Environment"}]}}`)
		case http.MethodPatch:
			patchVersion = r.Header.Get("If-Unmodified-Since-Version")
			json.NewDecoder(r.Body).Decode(&patched)
			w.WriteHeader(http.StatusNoContent)
		}
	}))

	err := c.AddTags(context.Background(), "ITEM5678", []string{"Environment", "previously known"})
	require.NoError(t, err)

	assert.Equal(t, "12", patchVersion)
	tags := patched["tags"].([]any)
	require.Len(t, tags, 2, "existing tag kept once, new tag appended")
}

func TestAddTagsNoopWithoutTags(t *testing.T) {
	calls := 0
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))

	require.NoError(t, c.AddTags(context.Background(), "ITEM5678", nil))
	assert.Zero(t, calls)
}

func TestServerErrorSurfaces(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))

	_, err := c.CreateCollection(context.Background(), "SearchResults202608")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}
