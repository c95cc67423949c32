// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scholar queries academic metadata APIs and returns unified,
// deduplicated papers. OpenAlex is queried first (unauthenticated,
// generous rate limit), then Semantic Scholar; a failure in one source
// never aborts the other.
package scholar

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pdiddy/finbrief/internal/retry"
	"github.com/pdiddy/finbrief/pkg/types"
)

// Per-source retry presets. Package vars so tests can shrink the delays.
var (
	openAlexRetry = retry.Config{MaxRetries: 3, InitialDelay: 1 * time.Second, BackoffFactor: 2.0}
	semanticRetry = retry.Config{MaxRetries: 3, InitialDelay: 2 * time.Second, BackoffFactor: 2.0}
)

// Client is the unified academic search interface over both providers.
type Client struct {
	cfg  types.ScholarConfig
	http *http.Client
}

// New constructs an academic search client. A zero timeout defaults to 30s.
func New(cfg types.ScholarConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: timeout},
	}
}

func (c *Client) userAgent() string {
	if c.cfg.UserAgent != "" {
		return c.cfg.UserAgent
	}
	if c.cfg.OpenAlexEmail != "" {
		return fmt.Sprintf("finbrief/0.1 (mailto:%s)", c.cfg.OpenAlexEmail)
	}
	return "finbrief/0.1"
}

// Output holds combined search results and per-source failure notes.
type Output struct {
	Papers       []types.AcademicPaper
	DupsRemoved  int
	SourceErrors []string
}

// Search queries the requested sources in order and deduplicates the
// combined results by DOI. A nil sources slice means both providers.
// Each source call is retried independently; after retries are
// exhausted the source is logged to w and skipped.
func (c *Client) Search(ctx context.Context, query string, maxPerSource int, sources []string, w io.Writer) Output {
	if w == nil {
		w = io.Discard
	}
	if len(sources) == 0 {
		sources = []string{types.SourceOpenAlex, types.SourceSemanticScholar}
	}

	var all []types.AcademicPaper
	var sourceErrors []string

	for _, source := range sources {
		var papers []types.AcademicPaper
		var err error

		switch source {
		case types.SourceOpenAlex:
			cfg := openAlexRetry
			cfg.Log = w
			papers, err = retry.Do(ctx, cfg, func() ([]types.AcademicPaper, error) {
				return c.searchOpenAlex(ctx, query, maxPerSource)
			})
		case types.SourceSemanticScholar:
			cfg := semanticRetry
			cfg.Log = w
			papers, err = retry.Do(ctx, cfg, func() ([]types.AcademicPaper, error) {
				return c.searchSemantic(ctx, query, maxPerSource)
			})
		default:
			err = fmt.Errorf("unknown academic source %q", source)
		}

		if err != nil {
			msg := fmt.Sprintf("%s: %v", source, err)
			sourceErrors = append(sourceErrors, msg)
			fmt.Fprintf(w, "warning: %s search failed, continuing: %v\n", source, err)
			continue
		}
		all = append(all, papers...)
	}

	deduped, removed := dedupeByDOI(all)
	return Output{Papers: deduped, DupsRemoved: removed, SourceErrors: sourceErrors}
}

// dedupeByDOI keeps the first paper seen for each non-empty DOI. DOIs
// are compared exactly, with no case or whitespace normalization.
// Papers without a DOI cannot be deduplicated and are always kept.
func dedupeByDOI(papers []types.AcademicPaper) ([]types.AcademicPaper, int) {
	seen := make(map[string]bool)
	var unique []types.AcademicPaper
	removed := 0

	for _, p := range papers {
		if p.DOI == "" {
			unique = append(unique, p)
			continue
		}
		if seen[p.DOI] {
			removed++
			continue
		}
		seen[p.DOI] = true
		unique = append(unique, p)
	}
	return unique, removed
}
