// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scholar

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pdiddy/finbrief/pkg/types"
)

// --- reconstructAbstract ---

func TestReconstructAbstract(t *testing.T) {
	tests := []struct {
		name  string
		index map[string][]int
		want  string
	}{
		{"nil map", nil, ""},
		{"empty map", map[string][]int{}, ""},
		{"single word", map[string][]int{"hello": {0}}, "hello"},
		{
			"repeated word ascending by position",
			map[string][]int{"the": {0, 3}, "cat": {1}, "sat": {2}},
			"the cat sat the",
		},
		{
			"word appearing twice",
			map[string][]int{"the": {0, 2}, "cat": {1}},
			"the cat the",
		},
		{
			"ordered sentence",
			map[string][]int{
				"Credit":  {0},
				"spreads": {1},
				"widen":   {2},
				"during":  {3},
				"stress":  {4},
			},
			"Credit spreads widen during stress",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := reconstructAbstract(tt.index); got != tt.want {
				t.Errorf("reconstructAbstract() = %q, want %q", got, tt.want)
			}
		})
	}
}

// --- searchOpenAlex ---

const sampleOpenAlexJSON = `{
  "results": [
    {
      "id": "https://openalex.org/W2741809807",
      "title": "Monetary Policy and Credit Spreads",
      "doi": "https://doi.org/10.1000/demo.1",
      "publication_year": 2019,
      "cited_by_count": 321,
      "authorships": [
        {"author": {"id": "A1", "display_name": "Jane Econ"}},
        {"author": {"id": "A2", "display_name": "Bo Finance"}}
      ],
      "abstract_inverted_index": {"We": [0], "study": [1], "spreads": [2]},
      "primary_location": {"source": {"display_name": "Journal of Finance"}}
    },
    {
      "id": "https://openalex.org/W3210812345",
      "title": "",
      "display_name": "Untitled Working Paper",
      "doi": "",
      "publication_year": 2021,
      "cited_by_count": 4,
      "authorships": [],
      "abstract_inverted_index": {},
      "primary_location": {"source": {"display_name": ""}}
    }
  ]
}`

func TestSearchOpenAlex(t *testing.T) {
	var gotQuery, gotMailto string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("search")
		gotMailto = r.URL.Query().Get("mailto")
		if sort := r.URL.Query().Get("sort"); sort != "cited_by_count:desc" {
			t.Errorf("sort = %q", sort)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, sampleOpenAlexJSON)
	}))
	defer ts.Close()

	old := openAlexAPIBase
	openAlexAPIBase = ts.URL
	defer func() { openAlexAPIBase = old }()

	c := New(types.ScholarConfig{OpenAlexEmail: "research@example.edu"})
	papers, err := c.searchOpenAlex(context.Background(), "credit spreads", 5)
	if err != nil {
		t.Fatalf("searchOpenAlex: %v", err)
	}

	if gotQuery != "credit spreads" {
		t.Errorf("search param = %q", gotQuery)
	}
	if gotMailto != "research@example.edu" {
		t.Errorf("mailto param = %q", gotMailto)
	}

	if len(papers) != 2 {
		t.Fatalf("got %d papers", len(papers))
	}

	p := papers[0]
	if p.DOI != "10.1000/demo.1" {
		t.Errorf("DOI prefix not stripped: %q", p.DOI)
	}
	if p.URL != "https://doi.org/10.1000/demo.1" {
		t.Errorf("URL = %q", p.URL)
	}
	if p.Abstract != "We study spreads" {
		t.Errorf("abstract = %q", p.Abstract)
	}
	if p.Venue != "Journal of Finance" {
		t.Errorf("venue = %q", p.Venue)
	}
	if p.CitationCount != 321 || p.Year != 2019 {
		t.Errorf("citation/year = %d/%d", p.CitationCount, p.Year)
	}
	if p.Source != types.SourceOpenAlex {
		t.Errorf("source = %q", p.Source)
	}
	if len(p.Authors) != 2 || p.Authors[0] != "Jane Econ" {
		t.Errorf("authors = %v", p.Authors)
	}

	// DOI-less work falls back to display_name and the OpenAlex ID URL.
	q := papers[1]
	if q.Title != "Untitled Working Paper" {
		t.Errorf("fallback title = %q", q.Title)
	}
	if q.DOI != "" || q.URL != "https://openalex.org/W3210812345" {
		t.Errorf("fallback DOI/URL = %q/%q", q.DOI, q.URL)
	}
}

func TestSearchOpenAlex_AuthorsCapped(t *testing.T) {
	authorships := ""
	for i := 0; i < 15; i++ {
		if i > 0 {
			authorships += ","
		}
		authorships += fmt.Sprintf(`{"author": {"id": "A%d", "display_name": "Author %d"}}`, i, i)
	}
	body := fmt.Sprintf(`{"results": [{"id": "W1", "title": "Many Authors", "authorships": [%s]}]}`, authorships)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, body)
	}))
	defer ts.Close()

	old := openAlexAPIBase
	openAlexAPIBase = ts.URL
	defer func() { openAlexAPIBase = old }()

	c := New(types.ScholarConfig{})
	papers, err := c.searchOpenAlex(context.Background(), "q", 5)
	if err != nil {
		t.Fatalf("searchOpenAlex: %v", err)
	}
	if len(papers[0].Authors) != maxOpenAlexAuthors {
		t.Errorf("got %d authors, want %d", len(papers[0].Authors), maxOpenAlexAuthors)
	}
}

func TestSearchOpenAlex_HTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer ts.Close()

	old := openAlexAPIBase
	openAlexAPIBase = ts.URL
	defer func() { openAlexAPIBase = old }()

	c := New(types.ScholarConfig{})
	if _, err := c.searchOpenAlex(context.Background(), "q", 5); err == nil {
		t.Fatal("expected error on HTTP 403")
	}
}
