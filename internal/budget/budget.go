// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package budget keeps the serialized research notes within the token
// window of the synthesis prompt. Estimation is deliberately crude: a
// flat characters-per-token ratio, no tokenizer dependency.
package budget

import (
	"encoding/json"

	"github.com/pdiddy/finbrief/pkg/types"
)

const (
	// AvgCharsPerToken is the assumed character-to-token ratio.
	AvgCharsPerToken = 4.0

	// SoftCapTokens is the budget below which notes pass untouched.
	SoftCapTokens = 11000

	// HardCapTokens is the absolute ceiling. Notes past it are dropped.
	HardCapTokens = 12000

	// NoteExcerptThreshold is the serialized size, in characters, above
	// which an individual note is replaced by an excerpt.
	NoteExcerptThreshold = 2500

	// MaxNotesChars bounds the final serialized notes JSON.
	MaxNotesChars = int(SoftCapTokens * AvgCharsPerToken)
)

const truncationMarker = "…[truncated]"

// EstimateTokens approximates the token count of s.
func EstimateTokens(s string) int {
	return int(float64(len([]rune(s))) / AvgCharsPerToken)
}

// TruncateNotes fits notes under the token budget. If the serialized
// whole is within the soft cap the input is returned unchanged.
// Otherwise notes are re-added in order, oversized ones replaced by an
// excerpt stub, and accumulation stops once the running serialization
// crosses the hard cap; later notes are dropped. Never errors, and a
// second application of the result is a no-op under the soft cap.
func TruncateNotes(notes []types.Note) []types.Note {
	if EstimateTokens(serialize(notes)) <= SoftCapTokens {
		return notes
	}

	var kept []types.Note
	for _, note := range notes {
		kept = append(kept, excerptIfOversized(note))
		if EstimateTokens(serialize(kept)) > HardCapTokens {
			break
		}
	}
	return kept
}

// excerptIfOversized replaces a note whose serialized form exceeds the
// threshold with a stub keeping only its provenance and an excerpt of
// the serialized content.
func excerptIfOversized(note types.Note) types.Note {
	raw := serializeOne(note)
	runes := []rune(raw)
	if len(runes) <= NoteExcerptThreshold {
		return note
	}
	return types.Note{
		SourceURL: note.SourceURL,
		Trimmed:   true,
		Excerpt:   string(runes[:NoteExcerptThreshold]) + truncationMarker,
	}
}

// ClampJSON bounds the serialized notes JSON before prompt assembly.
// This is the last line of defense; TruncateNotes should already have
// brought the payload under budget.
func ClampJSON(s string) string {
	runes := []rune(s)
	if len(runes) <= MaxNotesChars {
		return s
	}
	return string(runes[:MaxNotesChars])
}

func serialize(notes []types.Note) string {
	data, err := json.Marshal(notes)
	if err != nil {
		return ""
	}
	return string(data)
}

func serializeOne(note types.Note) string {
	data, err := json.Marshal(note)
	if err != nil {
		return ""
	}
	return string(data)
}
