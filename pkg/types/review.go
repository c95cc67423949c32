// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "fmt"

// ReviewState tracks a literature review through the two-phase approval
// workflow. The synthesizer always produces a review in StateGenerated;
// only the boundary layer (CLI, review store) transitions it.
type ReviewState string

const (
	StateGenerated ReviewState = "generated"
	StateApproved  ReviewState = "approved"
	StateRejected  ReviewState = "rejected"
)

// ReviewDecision is the external actor's verdict on a generated review.
type ReviewDecision string

const (
	DecisionApprove ReviewDecision = "approve"
	DecisionReject  ReviewDecision = "reject"
)

// Transition applies a decision to a review state. Only a generated
// review may transition; approved and rejected are terminal.
func Transition(state ReviewState, decision ReviewDecision) (ReviewState, error) {
	if state != StateGenerated {
		return state, fmt.Errorf("review already %s: no further transitions allowed", state)
	}
	switch decision {
	case DecisionApprove:
		return StateApproved, nil
	case DecisionReject:
		return StateRejected, nil
	default:
		return state, fmt.Errorf("unknown review decision %q", decision)
	}
}

// LiteratureReview is the academic-paper-backed synthesis produced before
// or alongside the main brief. A review contributes to research output
// only after an external approval flips its state to approved; the
// orchestrator never mutates a review.
type LiteratureReview struct {
	Papers  []AcademicPaper `json:"papers" yaml:"papers"`
	Summary string          `json:"summary" yaml:"summary"`
	Themes  []string        `json:"themes" yaml:"themes"`
	Gaps    []string        `json:"gaps" yaml:"gaps"`
	State   ReviewState     `json:"state" yaml:"state"`

	// SearchQuery is the English query used for the academic search.
	SearchQuery string `json:"search_query" yaml:"search_query"`
}

// Approved reports whether the review passed the external approval gate.
// Literature-merge logic must branch only on this.
func (r LiteratureReview) Approved() bool {
	return r.State == StateApproved
}
