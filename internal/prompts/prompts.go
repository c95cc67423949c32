// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package prompts holds the shared prompt texts injected into every
// model call. Prompts are loaded once at startup and passed by value;
// nothing in the pipeline reads prompt files on its own.
package prompts

import (
	"os"
	"path/filepath"
	"strings"
)

// Prompts carries the three shared prompt texts.
type Prompts struct {
	// DomainGuard restricts every model call to the finance domain.
	DomainGuard string

	// WriterTone sets the register of the final report.
	WriterTone string

	// WriterStructure fixes the section layout of the final report.
	WriterStructure string
}

const defaultDomainGuard = `You are a finance research assistant. Stay strictly within finance, banking, credit markets, monetary policy, and macroeconomics. If asked about anything outside this domain, state that it is out of scope. Never give personalized investment advice. Attribute every factual statement to a source.`

const defaultWriterTone = `Write in the measured, evidence-first register of a sell-side research desk. No hype, no hedging filler. Prefer concrete figures with units and dates over qualitative claims. Flag uncertainty and disagreement between sources explicitly.`

const defaultWriterStructure = `Structure the report as:
1. Executive Summary (3-5 bullet points)
2. Background and Context
3. Key Findings (organized by theme, with numbered citations)
4. Data and Evidence
5. Risks and Open Questions
6. References`

// Default returns the embedded prompt texts.
func Default() Prompts {
	return Prompts{
		DomainGuard:     defaultDomainGuard,
		WriterTone:      defaultWriterTone,
		WriterStructure: defaultWriterStructure,
	}
}

// Load reads prompt overrides from dir (domain_guard.txt,
// writer_tone.txt, writer_structure.txt). A missing or empty file keeps
// the embedded default; Load never fails.
func Load(dir string) Prompts {
	p := Default()
	if dir == "" {
		return p
	}
	if text := readPrompt(filepath.Join(dir, "domain_guard.txt")); text != "" {
		p.DomainGuard = text
	}
	if text := readPrompt(filepath.Join(dir, "writer_tone.txt")); text != "" {
		p.WriterTone = text
	}
	if text := readPrompt(filepath.Join(dir, "writer_structure.txt")); text != "" {
		p.WriterStructure = text
	}
	return p
}

func readPrompt(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
