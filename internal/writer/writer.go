// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package writer turns a research brief into the final report. It is a
// pure prompt-assembly pass; the brief goes in verbatim and the model
// is told which sources it may cite.
package writer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"text/template"

	"github.com/pdiddy/finbrief/internal/literature"
	"github.com/pdiddy/finbrief/internal/llm"
	"github.com/pdiddy/finbrief/internal/prompts"
	"github.com/pdiddy/finbrief/internal/retry"
	"github.com/pdiddy/finbrief/pkg/types"
)

var reportPromptTmpl = template.Must(template.New("report").Parse(`{{.DomainGuard}}

{{.Tone}}

{{.Structure}}
{{if .LanguageName}}
IMPORTANT: Write ALL output in {{.LanguageName}} ({{.LanguageCode}}).
{{end}}
Research Question:
{{.Question}}

Deep Research Brief (verbatim):
{{.Brief}}

References (use numbered inline citations [1], [2], ... mapped to this list; do NOT invent new sources):
{{.Sources}}

Write the final report now.`))

// Draft produces the final report markdown from a brief and its
// references. One retried LLM call; the returned text is the report.
func Draft(ctx context.Context, client llm.Client, cfg types.AIConfig, p prompts.Prompts, question, brief string, references []string, language string, w io.Writer) (string, error) {
	if w == nil {
		w = io.Discard
	}

	var sources bytes.Buffer
	for i, ref := range references {
		fmt.Fprintf(&sources, "[%d] %s\n", i+1, ref)
	}

	languageName := ""
	if language != "" {
		languageName = literature.LanguageName(language)
	}

	var buf bytes.Buffer
	err := reportPromptTmpl.Execute(&buf, struct {
		DomainGuard, Tone, Structure, LanguageName, LanguageCode, Question, Brief, Sources string
	}{p.DomainGuard, p.WriterTone, p.WriterStructure, languageName, language, question, brief, sources.String()})
	if err != nil {
		return "", fmt.Errorf("rendering report prompt: %w", err)
	}

	rcfg := retry.LLM()
	rcfg.Log = w
	report, err := retry.Do(ctx, rcfg, func() (string, error) {
		return client.Generate(ctx, cfg.Model, buf.String())
	})
	if err != nil {
		return "", fmt.Errorf("drafting report: %w", err)
	}
	return report, nil
}
