package types

import (
	"fmt"
	"time"
)

// Decision is the verifier's per-issue conclusion about the latest evidence
type Decision string

const (
	// DecisionConfirmFixed means the miss streak reached the confirmation
	// threshold and the issue is considered resolved with high confidence.
	DecisionConfirmFixed Decision = "confirm_fixed"
	// DecisionConfirmPresent means the current pass re-detected the issue.
	DecisionConfirmPresent Decision = "confirm_present"
	// DecisionInconclusive means the pass did not re-detect the issue but the
	// streak is still below the threshold, or the issue was out of scope.
	DecisionInconclusive Decision = "inconclusive"
)

// IsValid checks if the decision value is valid
func (d Decision) IsValid() bool {
	switch d {
	case DecisionConfirmFixed, DecisionConfirmPresent, DecisionInconclusive:
		return true
	}
	return false
}

// Action is the verifier's recommendation to the issue tracker client
type Action string

const (
	ActionClose    Action = "close"
	ActionKeepOpen Action = "keep_open"
	// ActionEscalate is reserved for repeated critical findings. The tracker
	// client decides what escalation means on the hosting platform.
	ActionEscalate Action = "escalate"
)

// IsValid checks if the action value is valid
func (a Action) IsValid() bool {
	switch a {
	case ActionClose, ActionKeepOpen, ActionEscalate:
		return true
	}
	return false
}

// VerificationResult is the verifier's output for one evaluated FlaggedIssue.
// Issue is a copy of the input issue with counters, status, and
// last_checked_at already updated; the tracker client persists it.
type VerificationResult struct {
	IssueID           string       `json:"issue_id"`
	Decision          Decision     `json:"decision"`
	RecommendedAction Action       `json:"recommended_action"`
	Issue             FlaggedIssue `json:"issue"`
	// Skipped is true when the issue's file was not part of the review scope
	// and the counters were left untouched.
	Skipped   bool      `json:"skipped,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// Validate checks if the verification result has valid values
func (r *VerificationResult) Validate() error {
	if r.IssueID == "" {
		return fmt.Errorf("issue_id is required")
	}
	if !r.Decision.IsValid() {
		return fmt.Errorf("invalid decision: %s", r.Decision)
	}
	if !r.RecommendedAction.IsValid() {
		return fmt.Errorf("invalid recommended action: %s", r.RecommendedAction)
	}
	if r.Decision == DecisionConfirmFixed && r.RecommendedAction != ActionClose {
		return fmt.Errorf("confirm_fixed must recommend close (got %s)", r.RecommendedAction)
	}
	if r.Decision == DecisionInconclusive && r.RecommendedAction == ActionClose {
		return fmt.Errorf("inconclusive decision cannot recommend close")
	}
	if err := r.Issue.Validate(); err != nil {
		return fmt.Errorf("invalid updated issue: %w", err)
	}
	return nil
}
