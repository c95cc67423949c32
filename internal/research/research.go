// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package research orchestrates one research run: plan queries, search
// the web, fetch and extract notes, budget them, and synthesize a
// brief. The run is a single logical thread; every external call is
// sequential and every per-item failure degrades to a skip.
package research

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/template"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/pdiddy/finbrief/internal/budget"
	"github.com/pdiddy/finbrief/internal/llm"
	"github.com/pdiddy/finbrief/internal/notes"
	"github.com/pdiddy/finbrief/internal/prompts"
	"github.com/pdiddy/finbrief/internal/retry"
	"github.com/pdiddy/finbrief/pkg/types"
)

// UploadedContextSource is the pseudo-source recorded on the note built
// from caller-supplied context. It never appears in references.
const UploadedContextSource = "uploaded://context"

// LiteratureSource is the pseudo-source recorded on the note built from
// an approved literature review.
const LiteratureSource = "literature://review"

// minFetchedChars is the threshold below which fetched text is treated
// as a paywall stub or error page and skipped.
const minFetchedChars = 400

// maxResultsPerQuery is the default hit cap per planned query.
const maxResultsPerQuery = 5

// litSummaryExcerptChars bounds the review summary carried into the
// literature note.
const litSummaryExcerptChars = 1500

// WebSearcher is the web search capability. Satisfied by
// *websearch.Client.
type WebSearcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]types.SearchHit, error)
}

// Fetcher is the document download capability. Satisfied by
// *fetch.Fetcher.
type Fetcher interface {
	Fetch(ctx context.Context, url string) string
}

// NoteExtractor turns one fetched document into a note. The default is
// notes.Extract over the orchestrator's LLM client.
type NoteExtractor func(ctx context.Context, text, url string) types.Note

// Orchestrator wires the stages of a research run.
type Orchestrator struct {
	LLM     llm.Client
	Web     WebSearcher
	Fetcher Fetcher
	Prompts prompts.Prompts
	Config  types.ResearchConfig

	// Extract overrides the note extraction stage. Nil means
	// notes.Extract with the orchestrator's LLM and config.
	Extract NoteExtractor
}

// Request is the caller's input to a research run.
type Request struct {
	// Topic is the research question. Required.
	Topic string

	// AdditionalContext is optional caller-supplied reference material
	// (uploaded documents, prior findings). It becomes a note but never
	// a reference.
	AdditionalContext string

	// Language is the output language code passed through to result
	// consumers; the brief itself follows the notes' language.
	Language string
}

// Validate rejects requests that would waste network calls.
func (r Request) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Topic, validation.Required),
	)
}

var plannerPromptTmpl = template.Must(template.New("planner").Parse(`{{.DomainGuard}}

Task: Decompose the finance research topic into sub-questions and web search queries.
Output JSON with:
- sub_questions: [ ... ]
- queries: [ ... ]  // 3-6 focused queries with financial/credit/policy terms
Topic: {{.Topic}}
`))

// Run executes the full pipeline for a request without literature.
func (o *Orchestrator) Run(ctx context.Context, req Request, w io.Writer) (types.ResearchResult, error) {
	return o.run(ctx, req, nil, nil, false, w)
}

// RunWithLiterature executes the pipeline with an approved literature
// review merged in: its note leads the notes list and its papers join
// the references. An unapproved review contributes nothing and the
// result reports LiteratureIncluded=false.
func (o *Orchestrator) RunWithLiterature(ctx context.Context, req Request, review types.LiteratureReview, w io.Writer) (types.ResearchResult, error) {
	if !review.Approved() {
		return o.run(ctx, req, nil, nil, false, w)
	}

	litNote := literatureNote(review)
	var litRefs []string
	for _, paper := range review.Papers {
		if ref := paper.Reference(); ref != "" {
			litRefs = append(litRefs, ref)
		}
	}
	return o.run(ctx, req, []types.Note{litNote}, litRefs, true, w)
}

func (o *Orchestrator) run(ctx context.Context, req Request, leadNotes []types.Note, leadRefs []string, litIncluded bool, w io.Writer) (types.ResearchResult, error) {
	if w == nil {
		w = io.Discard
	}
	if err := req.Validate(); err != nil {
		return types.ResearchResult{}, fmt.Errorf("invalid request: %w", err)
	}

	plan := o.plan(ctx, req.Topic, w)
	queries := plan.Queries
	if len(queries) == 0 {
		queries = []string{fallbackQuery(req.Topic)}
	}
	if len(queries) > types.MaxPlanQueries {
		queries = queries[:types.MaxPlanQueries]
	}

	allNotes := append([]types.Note{}, leadNotes...)
	refs := append([]string{}, leadRefs...)

	if req.AdditionalContext != "" {
		allNotes = append(allNotes, o.extract(ctx, req.AdditionalContext, UploadedContextSource, w))
	}

	maxResults := o.Config.MaxResultsPerQuery
	if maxResults <= 0 {
		maxResults = maxResultsPerQuery
	}

	for _, query := range queries {
		hits, err := o.Web.Search(ctx, query, maxResults)
		if err != nil {
			fmt.Fprintf(w, "warning: search failed for %q, continuing: %v\n", query, err)
			continue
		}
		for _, hit := range hits {
			if hit.URL == "" {
				continue
			}
			text := o.Fetcher.Fetch(ctx, hit.URL)
			if len([]rune(text)) < minFetchedChars {
				continue
			}
			allNotes = append(allNotes, o.extract(ctx, text, hit.URL, w))
			refs = append(refs, hit.URL)

			if err := o.pause(ctx); err != nil {
				return types.ResearchResult{}, err
			}
		}
	}

	brief, err := o.buildBrief(ctx, allNotes, w)
	if err != nil {
		// The run still completes: notes and references stand on their
		// own even when the synthesis call is exhausted.
		fmt.Fprintf(w, "warning: brief synthesis failed, returning empty brief: %v\n", err)
		brief = ""
	}

	return types.ResearchResult{
		Plan:               plan,
		Notes:              allNotes,
		Brief:              brief,
		References:         sortedUnique(refs),
		LiteratureIncluded: litIncluded,
	}, nil
}

// plan derives the query plan, falling back to a single deterministic
// query when the model call or its JSON cannot be used. Planning never
// dead-ends a run.
func (o *Orchestrator) plan(ctx context.Context, topic string, w io.Writer) types.Plan {
	fallback := types.Plan{Queries: []string{fallbackQuery(topic)}}

	var buf bytes.Buffer
	err := plannerPromptTmpl.Execute(&buf, struct{ DomainGuard, Topic string }{o.Prompts.DomainGuard, topic})
	if err != nil {
		return fallback
	}

	rcfg := retry.LLM()
	rcfg.Log = w
	raw, err := retry.Do(ctx, rcfg, func() (string, error) {
		return o.LLM.Generate(ctx, o.Config.Model, buf.String())
	})
	if err != nil {
		fmt.Fprintf(w, "warning: planner failed, using fallback query: %v\n", err)
		return fallback
	}

	var plan types.Plan
	if err := llm.Coerce(raw, &plan); err != nil {
		fmt.Fprintf(w, "warning: unparseable plan, using fallback query\n")
		return fallback
	}
	return plan
}

func fallbackQuery(topic string) string {
	return topic + " financial markets credit policy analysis"
}

func (o *Orchestrator) extract(ctx context.Context, text, url string, w io.Writer) types.Note {
	if o.Extract != nil {
		return o.Extract(ctx, text, url)
	}
	return notes.Extract(ctx, o.LLM, o.Config.AIConfig, text, url, w)
}

// pause applies the configured delay between note extractions. This is
// rate shaping toward the model API, not a correctness requirement.
func (o *Orchestrator) pause(ctx context.Context) error {
	if o.Config.ExtractDelay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(o.Config.ExtractDelay):
		return nil
	}
}

// buildBrief synthesizes the budget-truncated notes into the research
// brief. An empty brief is a valid outcome for an empty-evidence run;
// the caller degrades a synthesis error to an empty brief as well.
func (o *Orchestrator) buildBrief(ctx context.Context, allNotes []types.Note, w io.Writer) (string, error) {
	safe := budget.TruncateNotes(allNotes)
	data, err := json.Marshal(safe)
	if err != nil {
		return "", fmt.Errorf("serializing notes: %w", err)
	}

	notesJSON := string(data)
	if clamped := budget.ClampJSON(notesJSON); clamped != notesJSON {
		notesJSON = clamped + "…[truncated]"
		fmt.Fprintf(w, "warning: notes clipped to stay under model token limit\n")
	}

	prompt := fmt.Sprintf("%s\n\n"+
		"Synthesize the following structured notes into a concise research brief with numbered references.\n"+
		"Rules: Only use facts from notes. Identify disagreements. Output markdown.\n\n"+
		"NOTES (JSON):\n%s", o.Prompts.DomainGuard, notesJSON)

	if est := budget.EstimateTokens(prompt); est > budget.SoftCapTokens {
		fmt.Fprintf(w, "warning: brief prompt estimated at %d tokens\n", est)
	}

	rcfg := retry.LLM()
	rcfg.Log = w
	return retry.Do(ctx, rcfg, func() (string, error) {
		return o.LLM.Generate(ctx, o.Config.Model, prompt)
	})
}

// literatureNote condenses an approved review into one leading note.
func literatureNote(review types.LiteratureReview) types.Note {
	summary := review.Summary
	if runes := []rune(summary); len(runes) > litSummaryExcerptChars {
		summary = string(runes[:litSummaryExcerptChars]) + "…[truncated]"
	}
	note := types.Note{
		SourceURL:  LiteratureSource,
		KeyClaims:  review.Themes,
		DataPoints: review.Gaps,
	}
	if summary != "" {
		note.Quotes = []string{summary}
	}
	return note
}

// sortedUnique returns the sorted, duplicate-free reference list.
func sortedUnique(refs []string) []string {
	seen := make(map[string]bool, len(refs))
	var out []string
	for _, r := range refs {
		if r == "" || seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}
