// Package verify implements the fix-verification state tracker.
//
// An AI review pass is noisy evidence: the same issue may be reworded,
// missed, or rediscovered between passes. Rather than closing a tracked
// issue the first time a review fails to mention it, the verifier requires
// a configurable number of consecutive non-detections (default 3) before
// recommending closure. A single re-detection resets the streak.
//
// Evaluate is pure and total over validated input: it holds no state
// between calls, performs no I/O, and never fails. All tracked state lives
// in the FlaggedIssue records the caller supplies and round-trips back
// through the issue tracker client.
package verify

import (
	"time"

	"github.com/recheck-ci/recheck/internal/types"
)

// DefaultThreshold is the number of consecutive misses required before an
// issue is confirmed fixed and recommended for closure.
const DefaultThreshold = 3

// Options configures a single verification pass
type Options struct {
	// Threshold is the number of consecutive non-detections required to
	// close an issue. Values below 1 fall back to DefaultThreshold.
	Threshold int

	// Now is the pass timestamp stamped onto every evaluated issue.
	// Zero means time.Now().
	Now time.Time

	// ReviewedFiles, when non-nil, restricts verification to issues whose
	// file was actually part of this review pass. Issues outside the set
	// are reported as skipped with counters untouched: absence from a
	// review that never looked at the file is not evidence of a fix.
	ReviewedFiles map[string]bool

	// SkipEmptyPass, when set, turns a pass with zero findings and zero
	// reviewed files into a no-op. Such passes usually mean the upstream
	// extraction or review failed entirely, not that every issue was fixed.
	// Off by default: the threshold itself is the accepted safety margin
	// against spurious closure from failed passes.
	SkipEmptyPass bool

	// EscalateAfter, when positive, recommends escalation for a critical
	// issue that has been confirmed present in this many consecutive
	// passes. Zero disables escalation.
	EscalateAfter int
}

// Evaluate runs one verification pass over the open issues against the
// findings of a fresh AI review. It returns one VerificationResult per
// evaluated issue, carrying the updated counters and the recommended
// tracker action. Issues already closed are not evaluated.
//
// Duplicate findings with the same fingerprint collapse to a single match;
// they never inflate or deflate counters.
func Evaluate(openIssues []types.FlaggedIssue, newFindings []types.Finding, opts Options) []types.VerificationResult {
	threshold := opts.Threshold
	if threshold < 1 {
		threshold = DefaultThreshold
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	if opts.SkipEmptyPass && len(newFindings) == 0 && len(opts.ReviewedFiles) == 0 {
		return nil
	}

	// Collapse duplicate reports up front.
	detected := make(map[string]bool, len(newFindings))
	for _, f := range newFindings {
		detected[f.Fingerprint] = true
	}

	var results []types.VerificationResult
	for _, issue := range openIssues {
		if issue.Status == types.StatusClosed {
			continue
		}
		results = append(results, evaluateOne(issue, detected, threshold, now, opts))
	}
	return results
}

// evaluateOne applies the confirmation policy to a single issue. The issue
// is passed by value: the caller's record is never mutated.
func evaluateOne(issue types.FlaggedIssue, detected map[string]bool, threshold int, now time.Time, opts Options) types.VerificationResult {
	issue.LastCheckedAt = now

	// Scope gate: only verify issues whose file this pass actually reviewed.
	if opts.ReviewedFiles != nil && !opts.ReviewedFiles[issue.FilePath] {
		return types.VerificationResult{
			IssueID:           issue.ID,
			Decision:          types.DecisionInconclusive,
			RecommendedAction: types.ActionKeepOpen,
			Issue:             issue,
			Skipped:           true,
			CheckedAt:         now,
		}
	}

	if detected[issue.Fingerprint] {
		// Live re-detection invalidates any prior belief the issue was
		// fixed: both streaks restart from this pass.
		issue.MissCount = 0
		issue.ConfirmationCount++
		issue.Status = types.StatusOpen

		action := types.ActionKeepOpen
		if opts.EscalateAfter > 0 && issue.Severity == types.SeverityCritical && issue.ConfirmationCount >= opts.EscalateAfter {
			action = types.ActionEscalate
		}
		return types.VerificationResult{
			IssueID:           issue.ID,
			Decision:          types.DecisionConfirmPresent,
			RecommendedAction: action,
			Issue:             issue,
			CheckedAt:         now,
		}
	}

	// Not re-detected: the miss streak is the counter that gates closure.
	issue.ConfirmationCount = 0
	issue.MissCount++

	if issue.MissCount >= threshold {
		issue.Status = types.StatusClosed
		return types.VerificationResult{
			IssueID:           issue.ID,
			Decision:          types.DecisionConfirmFixed,
			RecommendedAction: types.ActionClose,
			Issue:             issue,
			CheckedAt:         now,
		}
	}

	issue.Status = types.StatusPendingClose
	return types.VerificationResult{
		IssueID:           issue.ID,
		Decision:          types.DecisionInconclusive,
		RecommendedAction: types.ActionKeepOpen,
		Issue:             issue,
		CheckedAt:         now,
	}
}
