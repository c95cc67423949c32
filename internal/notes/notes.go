// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package notes turns fetched document text into structured research
// notes, one LLM call per document.
package notes

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"text/template"

	"github.com/pdiddy/finbrief/internal/llm"
	"github.com/pdiddy/finbrief/internal/retry"
	"github.com/pdiddy/finbrief/pkg/types"
)

// maxInputRunes bounds the document text included in the prompt.
// Anything past this point is dropped, not summarized.
const maxInputRunes = 8000

// notesPromptTmpl instructs the model to return compact JSON only.
// Field names must match the json tags on types.Note.
var notesPromptTmpl = template.Must(template.New("notes").Parse(`You are a financial research analyst. Extract structured notes from the following document.

Return a JSON object with exactly these fields:
- key_claims: an array of the document's main factual assertions, each a single sentence
- data_points: an array of concrete figures, rates, or dates mentioned, each with its context
- quotes: an array of short verbatim quotes worth citing

Respond with compact JSON only. No markdown fences, no commentary.

Source URL: {{.URL}}

Document text:
{{.Text}}
`))

// Extract derives a structured note from one document. The text is
// truncated to the first 8000 characters before prompting. The LLM call
// is retried on transient failures; if the call ultimately fails or the
// response cannot be coerced to JSON, an empty note is returned so one
// bad document never aborts a run. SourceURL is always set from the
// argument, never trusted from the model.
func Extract(ctx context.Context, client llm.Client, cfg types.AIConfig, text, sourceURL string, w io.Writer) types.Note {
	if w == nil {
		w = io.Discard
	}

	note := types.Note{SourceURL: sourceURL}

	runes := []rune(text)
	if len(runes) > maxInputRunes {
		text = string(runes[:maxInputRunes])
	}

	prompt, err := renderPrompt(text, sourceURL)
	if err != nil {
		fmt.Fprintf(w, "warning: note prompt for %s: %v\n", sourceURL, err)
		return note
	}

	model := cfg.FastModel
	if model == "" {
		model = cfg.Model
	}

	rcfg := retry.LLM()
	rcfg.Log = w
	raw, err := retry.Do(ctx, rcfg, func() (string, error) {
		return client.Generate(ctx, model, prompt)
	})
	if err != nil {
		fmt.Fprintf(w, "warning: note extraction for %s failed: %v\n", sourceURL, err)
		return note
	}

	var parsed types.Note
	if err := llm.Coerce(raw, &parsed); err != nil {
		fmt.Fprintf(w, "warning: unparseable note response for %s: %v\n", sourceURL, err)
		return note
	}

	parsed.SourceURL = sourceURL
	parsed.Trimmed = false
	parsed.Excerpt = ""
	return parsed
}

func renderPrompt(text, sourceURL string) (string, error) {
	var buf bytes.Buffer
	err := notesPromptTmpl.Execute(&buf, struct{ Text, URL string }{Text: text, URL: sourceURL})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
