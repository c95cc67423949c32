// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scholar

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pdiddy/finbrief/pkg/types"
)

// semanticAPIBase is the Semantic Scholar paper search endpoint.
// Declared as a var so tests can substitute an httptest server.
var semanticAPIBase = "https://api.semanticscholar.org/graph/v1/paper/search"

const semanticFields = "title,authors,year,abstract,citationCount,externalIds,venue,url"

// searchSemantic queries the Semantic Scholar API. Without an API key
// the free tier rate-limits aggressively; 429s are retried by the caller.
func (c *Client) searchSemantic(ctx context.Context, query string, maxResults int) ([]types.AcademicPaper, error) {
	if maxResults <= 0 {
		maxResults = 5
	}
	if maxResults > 100 {
		maxResults = 100
	}

	params := url.Values{
		"query":  {query},
		"limit":  {fmt.Sprintf("%d", maxResults)},
		"fields": {semanticFields},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, semanticAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent())
	if c.cfg.SemanticScholarAPIKey != "" {
		req.Header.Set("x-api-key", c.cfg.SemanticScholarAPIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Semantic Scholar API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Semantic Scholar API returned HTTP %d", resp.StatusCode)
	}

	var sr semanticResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("parsing Semantic Scholar response: %w", err)
	}

	var papers []types.AcademicPaper
	for _, item := range sr.Data {
		p := types.AcademicPaper{
			Title:         item.Title,
			Year:          item.Year,
			Abstract:      item.Abstract,
			CitationCount: item.CitationCount,
			DOI:           item.ExternalIDs.DOI,
			URL:           item.URL,
			Source:        types.SourceSemanticScholar,
			Venue:         item.Venue,
		}

		for _, a := range item.Authors {
			if a.Name != "" {
				p.Authors = append(p.Authors, a.Name)
			}
		}

		if p.URL == "" {
			p.URL = "https://www.semanticscholar.org/paper/" + item.PaperID
		}

		papers = append(papers, p)
	}
	return papers, nil
}

// Semantic Scholar API JSON structures.
type semanticResponse struct {
	Total int             `json:"total"`
	Data  []semanticPaper `json:"data"`
}

type semanticPaper struct {
	PaperID       string              `json:"paperId"`
	Title         string              `json:"title"`
	Abstract      string              `json:"abstract"`
	Year          int                 `json:"year"`
	CitationCount int                 `json:"citationCount"`
	Venue         string              `json:"venue"`
	URL           string              `json:"url"`
	Authors       []semanticAuthor    `json:"authors"`
	ExternalIDs   semanticExternalIDs `json:"externalIds"`
}

type semanticAuthor struct {
	AuthorID string `json:"authorId"`
	Name     string `json:"name"`
}

type semanticExternalIDs struct {
	DOI      string `json:"DOI"`
	ArXiv    string `json:"ArXiv"`
	CorpusID int    `json:"CorpusId"`
}
