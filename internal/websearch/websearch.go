// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package websearch queries the Tavily web search API and returns
// normalized hits. Failures surface as errors so the orchestrator can
// decide whether to skip the query; there is no local retry.
package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pdiddy/finbrief/pkg/types"
)

// tavilyAPIBase is the Tavily search endpoint. Declared as a var so
// tests can substitute an httptest server.
var tavilyAPIBase = "https://api.tavily.com/search"

// snippetMaxChars caps how much of a hit's content is kept.
const snippetMaxChars = 400

// Client calls the Tavily search API.
type Client struct {
	APIKey string
	Client *http.Client
}

// New constructs a web search client. A zero timeout defaults to 30s.
func New(cfg types.WebSearchConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		APIKey: cfg.APIKey,
		Client: &http.Client{Timeout: timeout},
	}
}

// Tavily API JSON structures.
type tavilyRequest struct {
	APIKey      string `json:"api_key"`
	Query       string `json:"query"`
	MaxResults  int    `json:"max_results"`
	SearchDepth string `json:"search_depth"`
}

type tavilyResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

// Search posts a query to Tavily and returns at most maxResults hits
// with snippets capped at 400 characters.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]types.SearchHit, error) {
	payload, err := json.Marshal(tavilyRequest{
		APIKey:      c.APIKey,
		Query:       query,
		MaxResults:  maxResults,
		SearchDepth: "advanced",
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tavilyAPIBase, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Tavily search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("Tavily API returned %d: %s", resp.StatusCode, string(body))
	}

	var tr tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, fmt.Errorf("parsing Tavily response: %w", err)
	}

	hits := make([]types.SearchHit, 0, len(tr.Results))
	for _, r := range tr.Results {
		hits = append(hits, types.SearchHit{
			Title:   r.Title,
			URL:     r.URL,
			Snippet: truncateRunes(r.Content, snippetMaxChars),
		})
		if len(hits) >= maxResults {
			break
		}
	}
	return hits, nil
}

// truncateRunes cuts s to at most max runes without splitting a
// multi-byte character.
func truncateRunes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
