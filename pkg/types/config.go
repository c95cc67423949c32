// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "finbrief/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// WebSearchConfig holds settings for the web search stage.
type WebSearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// APIKey is the Tavily API key.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxResults is the maximum number of hits per query (default 5).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// ScholarConfig holds settings for the academic search stage.
type ScholarConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxPerSource is the number of papers requested from each provider (default 5).
	MaxPerSource int `json:"max_per_source" yaml:"max_per_source"`

	// SemanticScholarAPIKey raises the Semantic Scholar rate limit. Optional.
	SemanticScholarAPIKey string `json:"semantic_scholar_api_key,omitempty" yaml:"semantic_scholar_api_key,omitempty"`

	// OpenAlexEmail joins the OpenAlex polite pool. Optional.
	OpenAlexEmail string `json:"openalex_email,omitempty" yaml:"openalex_email,omitempty"`
}

// FetchConfig holds settings for the content fetcher.
type FetchConfig struct {
	HTTPConfig `yaml:",inline"`
}

// AIConfig holds shared settings for stages that call the LLM.
type AIConfig struct {
	// Model is the model used for planning and synthesis calls.
	Model string `json:"model" yaml:"model"`

	// FastModel is the cheaper model used for per-document note extraction
	// and topic translation.
	FastModel string `json:"fast_model" yaml:"fast_model"`

	// APIKey is the authentication key for the LLM API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
}

// ResearchConfig holds settings for the orchestrator.
type ResearchConfig struct {
	AIConfig `yaml:",inline"`

	// MaxResultsPerQuery caps web hits fetched per planned query (default 5).
	MaxResultsPerQuery int `json:"max_results_per_query" yaml:"max_results_per_query"`

	// ExtractDelay is the fixed pause between note extraction calls. This
	// is a rate-shaping policy knob, not a correctness requirement
	// (default 1s).
	ExtractDelay time.Duration `json:"extract_delay" yaml:"extract_delay"`
}

// LiteratureConfig holds settings for the literature review stage.
type LiteratureConfig struct {
	AIConfig `yaml:",inline"`

	// MaxPapersPerSource caps papers per academic provider (default 5).
	MaxPapersPerSource int `json:"max_papers_per_source" yaml:"max_papers_per_source"`

	// Language is the output language code for synthesis and display
	// (default "mn").
	Language string `json:"language" yaml:"language"`
}

// StoreConfig holds settings for the review store.
type StoreConfig struct {
	// DataDir is the directory holding finbrief.db (default "data").
	DataDir string `json:"data_dir" yaml:"data_dir"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	WebSearch  WebSearchConfig  `json:"web_search" yaml:"web_search"`
	Scholar    ScholarConfig    `json:"scholar" yaml:"scholar"`
	Fetch      FetchConfig      `json:"fetch" yaml:"fetch"`
	Research   ResearchConfig   `json:"research" yaml:"research"`
	Literature LiteratureConfig `json:"literature" yaml:"literature"`
	Store      StoreConfig      `json:"store" yaml:"store"`
}
