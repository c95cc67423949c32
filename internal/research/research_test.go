// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/finbrief/internal/llm"
	"github.com/pdiddy/finbrief/internal/prompts"
	"github.com/pdiddy/finbrief/pkg/types"
)

type webFunc func(ctx context.Context, query string, maxResults int) ([]types.SearchHit, error)

func (f webFunc) Search(ctx context.Context, query string, maxResults int) ([]types.SearchHit, error) {
	return f(ctx, query, maxResults)
}

type fetchFunc func(ctx context.Context, url string) string

func (f fetchFunc) Fetch(ctx context.Context, url string) string {
	return f(ctx, url)
}

func longText(seed string) string {
	return strings.Repeat(seed+" ", 100)
}

// plannerAndBrief returns an LLM mock that answers the planner call
// with the given plan JSON and every later call with the brief text.
func plannerAndBrief(planJSON, brief string) llm.Client {
	call := 0
	return llm.Func(func(ctx context.Context, model, prompt string) (string, error) {
		call++
		if call == 1 {
			return planJSON, nil
		}
		return brief, nil
	})
}

func newOrchestrator(client llm.Client, web WebSearcher, fetcher Fetcher) *Orchestrator {
	return &Orchestrator{
		LLM:     client,
		Web:     web,
		Fetcher: fetcher,
		Prompts: prompts.Default(),
		Config:  types.ResearchConfig{AIConfig: types.AIConfig{Model: "m", FastModel: "f"}},
		Extract: func(ctx context.Context, text, url string) types.Note {
			return types.Note{SourceURL: url, KeyClaims: []string{"claim from " + url}}
		},
	}
}

func TestRun_FullPipeline(t *testing.T) {
	web := webFunc(func(ctx context.Context, query string, maxResults int) ([]types.SearchHit, error) {
		assert.Equal(t, 5, maxResults)
		return []types.SearchHit{
			{Title: "A", URL: "https://example.com/a"},
			{Title: "no url"},
			{Title: "B", URL: "https://example.com/b"},
		}, nil
	})
	fetcher := fetchFunc(func(ctx context.Context, url string) string {
		if url == "https://example.com/b" {
			return "too short"
		}
		return longText("Spreads widened.")
	})

	o := newOrchestrator(plannerAndBrief(`{"sub_questions": ["q1"], "queries": ["credit spreads 2026"]}`, "# Brief"), web, fetcher)
	result, err := o.Run(context.Background(), Request{Topic: "credit spreads"}, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, []string{"q1"}, result.Plan.SubQuestions)
	assert.Equal(t, "# Brief", result.Brief)
	assert.False(t, result.LiteratureIncluded)

	// URL-less hits and short fetches are skipped.
	require.Len(t, result.Notes, 1)
	assert.Equal(t, "https://example.com/a", result.Notes[0].SourceURL)
	assert.Equal(t, []string{"https://example.com/a"}, result.References)
}

func TestRun_EmptyTopicRejectedBeforeNetwork(t *testing.T) {
	searched := false
	web := webFunc(func(ctx context.Context, query string, maxResults int) ([]types.SearchHit, error) {
		searched = true
		return nil, nil
	})

	o := newOrchestrator(plannerAndBrief(`{}`, ""), web, fetchFunc(func(ctx context.Context, url string) string { return "" }))
	_, err := o.Run(context.Background(), Request{}, io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid request")
	assert.False(t, searched)
}

func TestRun_PlannerFailureUsesFallbackQuery(t *testing.T) {
	client := llm.Func(func(ctx context.Context, model, prompt string) (string, error) {
		if strings.Contains(prompt, "Decompose") {
			return "", errors.New("invalid request")
		}
		return "brief", nil
	})

	var gotQueries []string
	web := webFunc(func(ctx context.Context, query string, maxResults int) ([]types.SearchHit, error) {
		gotQueries = append(gotQueries, query)
		return nil, nil
	})

	o := newOrchestrator(client, web, fetchFunc(func(ctx context.Context, url string) string { return "" }))
	result, err := o.Run(context.Background(), Request{Topic: "bond vigilantes"}, io.Discard)
	require.NoError(t, err)

	require.Len(t, gotQueries, 1)
	assert.Equal(t, "bond vigilantes financial markets credit policy analysis", gotQueries[0])
	assert.Equal(t, gotQueries, result.Plan.Queries)
}

func TestRun_UnparseablePlanUsesFallbackQuery(t *testing.T) {
	var gotQueries []string
	web := webFunc(func(ctx context.Context, query string, maxResults int) ([]types.SearchHit, error) {
		gotQueries = append(gotQueries, query)
		return nil, nil
	})

	o := newOrchestrator(plannerAndBrief("Sure, here is my plan in prose.", "brief"), web,
		fetchFunc(func(ctx context.Context, url string) string { return "" }))
	_, err := o.Run(context.Background(), Request{Topic: "topic"}, io.Discard)
	require.NoError(t, err)

	require.Len(t, gotQueries, 1)
	assert.Equal(t, "topic financial markets credit policy analysis", gotQueries[0])
}

func TestRun_QueryCapAtSix(t *testing.T) {
	queries := make([]string, 10)
	for i := range queries {
		queries[i] = fmt.Sprintf("q%d", i)
	}
	planJSON := fmt.Sprintf(`{"queries": ["%s"]}`, strings.Join(queries, `", "`))

	var executed []string
	web := webFunc(func(ctx context.Context, query string, maxResults int) ([]types.SearchHit, error) {
		executed = append(executed, query)
		return nil, nil
	})

	o := newOrchestrator(plannerAndBrief(planJSON, "brief"), web,
		fetchFunc(func(ctx context.Context, url string) string { return "" }))
	_, err := o.Run(context.Background(), Request{Topic: "t"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, []string{"q0", "q1", "q2", "q3", "q4", "q5"}, executed)
}

func TestRun_FailedSearchSkipsQuery(t *testing.T) {
	web := webFunc(func(ctx context.Context, query string, maxResults int) ([]types.SearchHit, error) {
		if query == "bad" {
			return nil, errors.New("HTTP 500")
		}
		return []types.SearchHit{{URL: "https://example.com/ok"}}, nil
	})

	var log strings.Builder
	o := newOrchestrator(plannerAndBrief(`{"queries": ["bad", "good"]}`, "brief"), web,
		fetchFunc(func(ctx context.Context, url string) string { return longText("text") }))
	result, err := o.Run(context.Background(), Request{Topic: "t"}, &log)
	require.NoError(t, err)

	assert.Equal(t, []string{"https://example.com/ok"}, result.References)
	assert.Contains(t, log.String(), `search failed for "bad"`)
}

func TestRun_ReferencesSortedAndDeduplicated(t *testing.T) {
	web := webFunc(func(ctx context.Context, query string, maxResults int) ([]types.SearchHit, error) {
		return []types.SearchHit{
			{URL: "https://z.example"},
			{URL: "https://a.example"},
			{URL: "https://z.example"},
		}, nil
	})

	o := newOrchestrator(plannerAndBrief(`{"queries": ["q"]}`, "brief"), web,
		fetchFunc(func(ctx context.Context, url string) string { return longText("text") }))
	result, err := o.Run(context.Background(), Request{Topic: "t"}, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, []string{"https://a.example", "https://z.example"}, result.References)
	// Every fetched URL still produced its own note.
	assert.Len(t, result.Notes, 3)
}

func TestRun_UploadedContextNoteWithoutReference(t *testing.T) {
	web := webFunc(func(ctx context.Context, query string, maxResults int) ([]types.SearchHit, error) {
		return []types.SearchHit{{URL: "https://example.com/a"}}, nil
	})

	o := newOrchestrator(plannerAndBrief(`{"queries": ["q"]}`, "brief"), web,
		fetchFunc(func(ctx context.Context, url string) string { return longText("text") }))
	result, err := o.Run(context.Background(),
		Request{Topic: "t", AdditionalContext: "Uploaded memo text."}, io.Discard)
	require.NoError(t, err)

	require.Len(t, result.Notes, 2)
	assert.Equal(t, UploadedContextSource, result.Notes[0].SourceURL)
	assert.Equal(t, "https://example.com/a", result.Notes[1].SourceURL)
	assert.Equal(t, []string{"https://example.com/a"}, result.References)
}

func approvedReview() types.LiteratureReview {
	return types.LiteratureReview{
		Papers: []types.AcademicPaper{
			{Title: "P1", DOI: "10.1/p1"},
			{Title: "P2", URL: "https://example.com/p2"},
		},
		Summary:     "Consensus view.",
		Themes:      []string{"theme"},
		Gaps:        []string{"gap"},
		State:       types.StateApproved,
		SearchQuery: "q",
	}
}

func TestRunWithLiterature_ApprovedReviewLeads(t *testing.T) {
	web := webFunc(func(ctx context.Context, query string, maxResults int) ([]types.SearchHit, error) {
		return []types.SearchHit{{URL: "https://example.com/web"}}, nil
	})

	o := newOrchestrator(plannerAndBrief(`{"queries": ["q"]}`, "brief"), web,
		fetchFunc(func(ctx context.Context, url string) string { return longText("text") }))
	result, err := o.RunWithLiterature(context.Background(), Request{Topic: "t"}, approvedReview(), io.Discard)
	require.NoError(t, err)

	assert.True(t, result.LiteratureIncluded)
	require.NotEmpty(t, result.Notes)

	lit := result.Notes[0]
	assert.Equal(t, LiteratureSource, lit.SourceURL)
	assert.Equal(t, []string{"theme"}, lit.KeyClaims)
	assert.Equal(t, []string{"gap"}, lit.DataPoints)
	require.Len(t, lit.Quotes, 1)
	assert.Contains(t, lit.Quotes[0], "Consensus view.")

	// Paper references (DOI preferred, URL fallback) join the web URL.
	assert.Equal(t, []string{"10.1/p1", "https://example.com/p2", "https://example.com/web"}, result.References)
}

func TestRunWithLiterature_UnapprovedContributesNothing(t *testing.T) {
	web := webFunc(func(ctx context.Context, query string, maxResults int) ([]types.SearchHit, error) {
		return []types.SearchHit{{URL: "https://example.com/web"}}, nil
	})

	for _, state := range []types.ReviewState{types.StateGenerated, types.StateRejected} {
		review := approvedReview()
		review.State = state

		o := newOrchestrator(plannerAndBrief(`{"queries": ["q"]}`, "brief"), web,
			fetchFunc(func(ctx context.Context, url string) string { return longText("text") }))
		result, err := o.RunWithLiterature(context.Background(), Request{Topic: "t"}, review, io.Discard)
		require.NoError(t, err)

		assert.False(t, result.LiteratureIncluded, "state %s", state)
		for _, n := range result.Notes {
			assert.NotEqual(t, LiteratureSource, n.SourceURL)
		}
		assert.Equal(t, []string{"https://example.com/web"}, result.References)
	}
}

func TestRun_ZeroNotesStillBuildsBrief(t *testing.T) {
	var briefPrompt string
	client := llm.Func(func(ctx context.Context, model, prompt string) (string, error) {
		if strings.Contains(prompt, "Decompose") {
			return `{"queries": ["q"]}`, nil
		}
		briefPrompt = prompt
		return "", nil
	})
	web := webFunc(func(ctx context.Context, query string, maxResults int) ([]types.SearchHit, error) {
		return nil, nil
	})

	o := newOrchestrator(client, web, fetchFunc(func(ctx context.Context, url string) string { return "" }))
	result, err := o.Run(context.Background(), Request{Topic: "t"}, io.Discard)
	require.NoError(t, err)

	assert.Empty(t, result.Brief)
	assert.Empty(t, result.Notes)
	assert.Empty(t, result.References)
	assert.Contains(t, briefPrompt, "NOTES (JSON)")
}

func TestRun_BriefFailureDegradesToEmptyBrief(t *testing.T) {
	client := llm.Func(func(ctx context.Context, model, prompt string) (string, error) {
		if strings.Contains(prompt, "Decompose") {
			return `{"queries": ["q"]}`, nil
		}
		// Non-retryable, so the retry wrapper gives up immediately.
		return "", errors.New("invalid argument")
	})
	web := webFunc(func(ctx context.Context, query string, maxResults int) ([]types.SearchHit, error) {
		return []types.SearchHit{{URL: "https://example.com/a"}}, nil
	})

	var log strings.Builder
	o := newOrchestrator(client, web, fetchFunc(func(ctx context.Context, url string) string { return longText("text") }))
	result, err := o.Run(context.Background(), Request{Topic: "t"}, &log)
	require.NoError(t, err)

	// Notes and references survive the failed synthesis.
	assert.Empty(t, result.Brief)
	require.Len(t, result.Notes, 1)
	assert.Equal(t, []string{"https://example.com/a"}, result.References)
	assert.Contains(t, log.String(), "brief synthesis failed")
}

func TestRequestValidate(t *testing.T) {
	assert.Error(t, Request{}.Validate())
	assert.NoError(t, Request{Topic: "t"}.Validate())
}
