// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package literature searches academic databases and synthesizes the
// results into a reviewable summary. Reviews come out unapproved; the
// approval decision belongs to the caller, never to this package.
package literature

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/pdiddy/finbrief/internal/llm"
	"github.com/pdiddy/finbrief/internal/retry"
	"github.com/pdiddy/finbrief/internal/scholar"
	"github.com/pdiddy/finbrief/pkg/types"
)

// maxPapersJSONChars bounds the serialized papers block in the
// synthesis prompt.
const maxPapersJSONChars = 15000

// maxAbstractChars bounds abstracts in the display rendering.
const maxAbstractChars = 400

// Searcher is the academic search capability the synthesizer consumes.
// Satisfied by *scholar.Client.
type Searcher interface {
	Search(ctx context.Context, query string, maxPerSource int, sources []string, w io.Writer) scholar.Output
}

// Synthesizer runs the literature review phase.
type Synthesizer struct {
	LLM         llm.Client
	Scholar     Searcher
	Config      types.LiteratureConfig
	DomainGuard string
}

var translationPromptTmpl = template.Must(template.New("translate").Parse(`Translate the following research topic to English for academic database search.

Topic: {{.Topic}}

Requirements:
- Output ONLY the English translation, nothing else
- Use standard academic/finance terminology
- Keep it concise (suitable for database search query)
- If already in English, return as-is with minor improvements for search

English search query:`))

var synthesisPromptTmpl = template.Must(template.New("synthesize").Parse(`{{.DomainGuard}}

You are an academic literature review specialist for finance research.

Given the following academic papers on the topic "{{.Topic}}", synthesize a comprehensive literature review.

IMPORTANT: Write ALL output in {{.LanguageName}} ({{.LanguageCode}}).

PAPERS (JSON):
{{.PapersJSON}}

Your output must be valid JSON with these keys:
1. "summary": A markdown-formatted literature review (500-800 words) in {{.LanguageName}} that:
   - Organizes papers by theme/methodology
   - Highlights consensus findings
   - Notes contradictions or debates
   - Uses inline citations like (Author et al., Year)

2. "themes": A list of 3-5 key themes across the papers (in {{.LanguageName}})

3. "gaps": A list of 2-4 identified research gaps or under-explored areas (in {{.LanguageName}})

Format your response as JSON only, no markdown fences.`))

// Run executes the review phase: translate the topic to an English
// search query, query the academic sources, and synthesize the papers
// into a summary with themes and gaps. A topic with no matching papers
// yields a canned review rather than an error. The returned review is
// always in the Generated state.
func (s *Synthesizer) Run(ctx context.Context, topic string, w io.Writer) (types.LiteratureReview, error) {
	if w == nil {
		w = io.Discard
	}

	query, err := s.translateTopic(ctx, topic, w)
	if err != nil {
		return types.LiteratureReview{}, fmt.Errorf("translating topic: %w", err)
	}

	maxPerSource := s.Config.MaxPapersPerSource
	if maxPerSource <= 0 {
		maxPerSource = 5
	}
	out := s.Scholar.Search(ctx, query, maxPerSource, nil, w)

	if len(out.Papers) == 0 {
		fmt.Fprintf(w, "no academic papers found for search query: %s\n", query)
		return types.LiteratureReview{
			Summary:     fmt.Sprintf("No academic papers were found for this topic (searched: '%s'). The research will proceed with web sources only.", query),
			Gaps:        []string{"Unable to identify gaps - no academic papers found"},
			State:       types.StateGenerated,
			SearchQuery: query,
		}, nil
	}

	summary, themes, gaps, err := s.synthesize(ctx, topic, out.Papers, w)
	if err != nil {
		return types.LiteratureReview{}, fmt.Errorf("synthesizing literature: %w", err)
	}

	return types.LiteratureReview{
		Papers:      out.Papers,
		Summary:     summary,
		Themes:      themes,
		Gaps:        gaps,
		State:       types.StateGenerated,
		SearchQuery: query,
	}, nil
}

// translateTopic asks the model for an English search query. Stray
// quotes around the answer are stripped; an empty answer falls back to
// the topic itself.
func (s *Synthesizer) translateTopic(ctx context.Context, topic string, w io.Writer) (string, error) {
	var buf bytes.Buffer
	if err := translationPromptTmpl.Execute(&buf, struct{ Topic string }{topic}); err != nil {
		return "", err
	}

	rcfg := retry.LLM()
	rcfg.Log = w
	raw, err := retry.Do(ctx, rcfg, func() (string, error) {
		return s.LLM.Generate(ctx, s.model(), buf.String())
	})
	if err != nil {
		return "", err
	}

	translated := strings.Trim(strings.TrimSpace(raw), `"'`)
	if translated == "" {
		translated = topic
	}
	fmt.Fprintf(w, "translated topic for search: %q -> %q\n", topic, translated)
	return translated, nil
}

// synthesisResponse is the JSON shape the synthesis prompt demands.
type synthesisResponse struct {
	Summary string   `json:"summary"`
	Themes  []string `json:"themes"`
	Gaps    []string `json:"gaps"`
}

func (s *Synthesizer) synthesize(ctx context.Context, topic string, papers []types.AcademicPaper, w io.Writer) (string, []string, []string, error) {
	lang := labelsFor(s.Config.Language)

	papersJSON, err := json.MarshalIndent(papers, "", "  ")
	if err != nil {
		return "", nil, nil, fmt.Errorf("serializing papers: %w", err)
	}
	block := string(papersJSON)
	if runes := []rune(block); len(runes) > maxPapersJSONChars {
		block = string(runes[:maxPapersJSONChars]) + "\n... [truncated]"
	}

	var buf bytes.Buffer
	err = synthesisPromptTmpl.Execute(&buf, struct {
		DomainGuard, Topic, LanguageName, LanguageCode, PapersJSON string
	}{s.DomainGuard, topic, lang.Name, s.languageCode(), block})
	if err != nil {
		return "", nil, nil, err
	}

	fmt.Fprintf(w, "synthesizing literature review for %d papers\n", len(papers))

	rcfg := retry.LLM()
	rcfg.Log = w
	raw, err := retry.Do(ctx, rcfg, func() (string, error) {
		return s.LLM.Generate(ctx, s.model(), buf.String())
	})
	if err != nil {
		return "", nil, nil, err
	}

	var resp synthesisResponse
	if err := llm.Coerce(raw, &resp); err != nil || resp.Summary == "" {
		// Unparseable or summary-less output still carries signal; keep
		// the raw text as the summary.
		resp.Summary = raw
		if resp.Summary == "" {
			resp.Summary = "Unable to synthesize literature review."
		}
	}
	return resp.Summary, resp.Themes, resp.Gaps, nil
}

func (s *Synthesizer) model() string {
	if s.Config.FastModel != "" {
		return s.Config.FastModel
	}
	return s.Config.Model
}

func (s *Synthesizer) languageCode() string {
	if s.Config.Language == "" {
		return "mn"
	}
	return s.Config.Language
}
