// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scholar

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/pdiddy/finbrief/pkg/types"
)

// openAlexAPIBase is the OpenAlex Works search endpoint. Declared as a
// var so tests can substitute an httptest server.
var openAlexAPIBase = "https://api.openalex.org/works"

// maxOpenAlexAuthors caps the author list carried per paper.
const maxOpenAlexAuthors = 10

// searchOpenAlex queries the OpenAlex API, most-cited first.
func (c *Client) searchOpenAlex(ctx context.Context, query string, maxResults int) ([]types.AcademicPaper, error) {
	if maxResults <= 0 {
		maxResults = 5
	}
	if maxResults > 50 {
		maxResults = 50
	}

	params := url.Values{
		"search":   {query},
		"per_page": {fmt.Sprintf("%d", maxResults)},
		"sort":     {"cited_by_count:desc"},
	}
	if c.cfg.OpenAlexEmail != "" {
		params.Set("mailto", c.cfg.OpenAlexEmail)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, openAlexAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("OpenAlex API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OpenAlex API returned HTTP %d", resp.StatusCode)
	}

	var oar openAlexResponse
	if err := json.NewDecoder(resp.Body).Decode(&oar); err != nil {
		return nil, fmt.Errorf("parsing OpenAlex response: %w", err)
	}

	var papers []types.AcademicPaper
	for _, work := range oar.Results {
		p := types.AcademicPaper{
			Title:         work.Title,
			Year:          work.PublicationYear,
			Abstract:      reconstructAbstract(work.AbstractInvertedIndex),
			CitationCount: work.CitedByCount,
			Source:        types.SourceOpenAlex,
			Venue:         work.PrimaryLocation.Source.DisplayName,
		}
		if p.Title == "" {
			p.Title = work.DisplayName
		}

		for _, authorship := range work.Authorships {
			if authorship.Author.DisplayName == "" {
				continue
			}
			p.Authors = append(p.Authors, authorship.Author.DisplayName)
			if len(p.Authors) >= maxOpenAlexAuthors {
				break
			}
		}

		// OpenAlex returns the DOI as a full https://doi.org/ URL.
		if work.DOI != "" {
			p.DOI = strings.TrimPrefix(work.DOI, "https://doi.org/")
			p.URL = work.DOI
		} else {
			p.URL = work.ID
		}

		papers = append(papers, p)
	}
	return papers, nil
}

// reconstructAbstract converts OpenAlex's abstract_inverted_index back
// to plain text. The index maps each word to the positions where it
// appears; sorting all (position, word) pairs ascending recovers the
// original order.
func reconstructAbstract(invertedIndex map[string][]int) string {
	if len(invertedIndex) == 0 {
		return ""
	}

	type posWord struct {
		pos  int
		word string
	}
	var pairs []posWord
	for word, positions := range invertedIndex {
		for _, pos := range positions {
			pairs = append(pairs, posWord{pos: pos, word: word})
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].pos < pairs[j].pos
	})

	words := make([]string, len(pairs))
	for i, p := range pairs {
		words[i] = p.word
	}
	return strings.Join(words, " ")
}

// OpenAlex API JSON structures.
type openAlexResponse struct {
	Results []openAlexWork `json:"results"`
}

type openAlexWork struct {
	ID                    string               `json:"id"`
	Title                 string               `json:"title"`
	DisplayName           string               `json:"display_name"`
	DOI                   string               `json:"doi"`
	PublicationYear       int                  `json:"publication_year"`
	CitedByCount          int                  `json:"cited_by_count"`
	Authorships           []openAlexAuthorship `json:"authorships"`
	AbstractInvertedIndex map[string][]int     `json:"abstract_inverted_index"`
	PrimaryLocation       openAlexLocation     `json:"primary_location"`
}

type openAlexAuthorship struct {
	Author openAlexAuthor `json:"author"`
}

type openAlexAuthor struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type openAlexLocation struct {
	Source openAlexSource `json:"source"`
}

type openAlexSource struct {
	DisplayName string `json:"display_name"`
}
