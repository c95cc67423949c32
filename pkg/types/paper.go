// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Paper sources.
const (
	SourceSemanticScholar = "semantic_scholar"
	SourceOpenAlex        = "openalex"
)

// AcademicPaper is the normalized representation of a paper returned by
// an academic metadata provider. Papers with a non-empty DOI are
// identified by it; papers without one are identified by (title, source)
// and are never deduplicated against anything.
type AcademicPaper struct {
	Title         string   `json:"title" yaml:"title"`
	Authors       []string `json:"authors" yaml:"authors"`
	Year          int      `json:"year,omitempty" yaml:"year,omitempty"`
	Abstract      string   `json:"abstract,omitempty" yaml:"abstract,omitempty"`
	CitationCount int      `json:"citation_count" yaml:"citation_count"`
	DOI           string   `json:"doi,omitempty" yaml:"doi,omitempty"`
	URL           string   `json:"url" yaml:"url"`

	// Source identifies which provider found this paper
	// (semantic_scholar or openalex).
	Source string `json:"source" yaml:"source"`

	Venue string `json:"venue,omitempty" yaml:"venue,omitempty"`
}

// Reference returns the citation key for the references list: the DOI
// when present, the URL otherwise.
func (p AcademicPaper) Reference() string {
	if p.DOI != "" {
		return p.DOI
	}
	return p.URL
}
