package paging

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testPage struct {
	Items     []string `json:"items"`
	SkipToken string   `json:"$skipToken,omitempty"`
	NextLink  string   `json:"nextLink,omitempty"`
}

func collectPages(t *testing.T, f *Fetcher, req Request) ([]string, Cursor, error) {
	t.Helper()
	var items []string
	cursor, err := f.Pages(context.Background(), req, func(body []byte) (Continuation, error) {
		var page testPage
		require.NoError(t, json.Unmarshal(body, &page))
		items = append(items, page.Items...)
		return Continuation{SkipToken: page.SkipToken, NextLink: page.NextLink}, nil
	})
	return items, cursor, err
}

func TestPages_SkipTokenContinuation(t *testing.T) {
	var requests []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests = append(requests, r.Method)
		switch r.Method {
		case http.MethodGet:
			_ = json.NewEncoder(w).Encode(testPage{Items: []string{"a", "b"}, SkipToken: "t1"})
		case http.MethodPost:
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "t1", body["$skipToken"])
			_ = json.NewEncoder(w).Encode(testPage{Items: []string{"c"}})
		}
	}))
	defer server.Close()

	fetcher := NewFetcher(Options{Client: server.Client()})
	items, cursor, err := collectPages(t, fetcher, Request{URL: server.URL})

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, items)
	assert.Equal(t, 2, cursor.Pages)
	assert.False(t, cursor.Truncated)
	assert.Equal(t, []string{"GET", "POST"}, requests)
}

func TestPages_NextLinkContinuation(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		switch r.URL.Path {
		case "/first":
			_ = json.NewEncoder(w).Encode(testPage{Items: []string{"a"}, NextLink: server.URL + "/second"})
		case "/second":
			_ = json.NewEncoder(w).Encode(testPage{Items: []string{"b"}})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	fetcher := NewFetcher(Options{Client: server.Client()})
	items, cursor, err := collectPages(t, fetcher, Request{URL: server.URL + "/first"})

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, items)
	assert.Equal(t, 2, cursor.Pages)
}

func TestPages_TruncatesAtPageCap(t *testing.T) {
	pages := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pages++
		// Always hand back a continuation so only the cap can stop the walk.
		_ = json.NewEncoder(w).Encode(testPage{
			Items:     []string{fmt.Sprintf("item-%d", pages)},
			SkipToken: fmt.Sprintf("t%d", pages),
		})
	}))
	defer server.Close()

	fetcher := NewFetcher(Options{Client: server.Client(), MaxPages: 3})
	items, cursor, err := collectPages(t, fetcher, Request{URL: server.URL})

	require.NoError(t, err)
	assert.Len(t, items, 3)
	assert.Equal(t, 3, cursor.Pages)
	assert.True(t, cursor.Truncated)
}

func TestPages_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "denied", http.StatusForbidden)
	}))
	defer server.Close()

	fetcher := NewFetcher(Options{Client: server.Client()})
	items, cursor, err := collectPages(t, fetcher, Request{URL: server.URL})

	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusForbidden))
	assert.False(t, IsStatus(err, http.StatusNotFound))
	assert.Empty(t, items)
	assert.Equal(t, 0, cursor.Pages)
}

func TestPages_InitialPostBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Usage", body["type"])
		_ = json.NewEncoder(w).Encode(testPage{Items: []string{"a"}})
	}))
	defer server.Close()

	fetcher := NewFetcher(Options{Client: server.Client()})
	items, _, err := collectPages(t, fetcher, Request{
		Method: http.MethodPost,
		URL:    server.URL,
		Body:   map[string]string{"type": "Usage"},
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, items)
}

func TestPages_AuthorizeAppliedToEveryCall(t *testing.T) {
	var seen []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("Authorization"))
		if len(seen) == 1 {
			_ = json.NewEncoder(w).Encode(testPage{SkipToken: "t1"})
			return
		}
		_ = json.NewEncoder(w).Encode(testPage{})
	}))
	defer server.Close()

	fetcher := NewFetcher(Options{Client: server.Client()})
	_, _, err := collectPages(t, fetcher, Request{
		URL: server.URL,
		Authorize: func(req *http.Request) error {
			req.Header.Set("Authorization", "Bearer test-token")
			return nil
		},
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"Bearer test-token", "Bearer test-token"}, seen)
}
