// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm provides the text-completion port the pipeline calls, a
// Gemini REST implementation, and lenient decoding of model JSON output.
package llm

import (
	"context"
	"fmt"
	"strings"
)

// Client is the single-turn completion capability consumed by the
// planner, note extractor, literature synthesizer, and writer. Errors
// must preserve provider status markers (429, 503, UNAVAILABLE,
// RESOURCE_EXHAUSTED, overloaded) in their text so the retry layer can
// classify them.
type Client interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// Func adapts a function to the Client interface. Tests use this to
// supply canned model output.
type Func func(ctx context.Context, model, prompt string) (string, error)

// Generate calls f.
func (f Func) Generate(ctx context.Context, model, prompt string) (string, error) {
	return f(ctx, model, prompt)
}

// PartKind tags one variant of a model response part.
type PartKind string

const (
	PartText             PartKind = "text"
	PartFunctionCall     PartKind = "function_call"
	PartFunctionResponse PartKind = "function_response"
	PartThought          PartKind = "thought"
	PartBinary           PartKind = "binary"
)

// Part is a tagged union over the shapes a model response part can take.
// Exactly the fields relevant to Kind are populated.
type Part struct {
	Kind PartKind

	// Text payload for text and thought parts.
	Text string

	// Name and Args for function_call parts; Name and Response for
	// function_response parts.
	Name     string
	Args     map[string]any
	Response map[string]any

	// MIMEType and Data for binary parts.
	MIMEType string
	Data     []byte
}

// Render produces the display form of a part. Thought parts render empty:
// they are model-internal and never surface in output text.
func (p Part) Render() string {
	switch p.Kind {
	case PartText:
		return p.Text
	case PartThought:
		return ""
	case PartFunctionCall:
		return fmt.Sprintf("[function call %s(%d args)]", p.Name, len(p.Args))
	case PartFunctionResponse:
		return fmt.Sprintf("[function response %s]", p.Name)
	case PartBinary:
		return fmt.Sprintf("[binary %s, %d bytes]", p.MIMEType, len(p.Data))
	default:
		return ""
	}
}

// JoinText concatenates the rendered text parts, skipping every other
// variant. This is the "response text" a completion call returns.
func JoinText(parts []Part) string {
	var b strings.Builder
	for _, p := range parts {
		if p.Kind == PartText {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}
