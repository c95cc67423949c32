// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the finbrief pipeline.
// See docs/ARCHITECTURE.md § Data Structures.
package types

// Plan is the query plan derived once per research topic. It is immutable
// after creation; only the first MaxPlanQueries queries are executed.
type Plan struct {
	// SubQuestions decompose the topic into answerable questions.
	SubQuestions []string `json:"sub_questions" yaml:"sub_questions"`

	// Queries are focused web search queries with financial/credit/policy terms.
	Queries []string `json:"queries" yaml:"queries"`
}

// MaxPlanQueries caps how many planned queries a research run executes.
const MaxPlanQueries = 6

// SearchHit is one web search result. Hits are transient and never
// persisted beyond the research call that produced them.
type SearchHit struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Note is a structured, provenance-tagged extraction from one fetched
// document. Created by the note extractor and consumed read-only by the
// brief builder. Trimmed and Excerpt are set only by the budget manager
// once a note has been budget-truncated.
type Note struct {
	SourceURL  string   `json:"source_url" yaml:"source_url"`
	KeyClaims  []string `json:"key_claims" yaml:"key_claims"`
	DataPoints []string `json:"data_points" yaml:"data_points"`
	Quotes     []string `json:"quotes" yaml:"quotes"`

	Trimmed bool   `json:"_trimmed,omitempty" yaml:"_trimmed,omitempty"`
	Excerpt string `json:"_excerpt,omitempty" yaml:"_excerpt,omitempty"`
}

// ResearchResult is the final output of one orchestration run. It is
// immutable once returned.
//
// References is always the sorted, duplicate-free union of every URL/DOI
// that contributed a note or literature paper actually used. Notes mirror
// insertion order: literature note (if included), uploaded-context note
// (if any), then per-fetched-URL notes in query iteration order.
type ResearchResult struct {
	Plan               Plan     `json:"plan"`
	Notes              []Note   `json:"notes"`
	Brief              string   `json:"brief"`
	References         []string `json:"references"`
	LiteratureIncluded bool     `json:"literature_included"`
}
