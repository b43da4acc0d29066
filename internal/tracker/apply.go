package tracker

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/recheck-ci/recheck/internal/types"
)

// ApplySummary counts the tracker-side effects of one verification pass
type ApplySummary struct {
	Closed    int
	Tracking  int
	Reset     int // confirmed present with a running miss streak cleared
	Present   int // confirmed present in total, streak or not
	Skipped   int
	Escalated int
}

// ApplyResults persists a pass's VerificationResults back to the tracker:
// counter labels, progress/reset comments, closures, and escalations.
// prior holds the issues as they were fetched before the pass; the old
// counter labels are derived from it.
//
// A failure on one issue does not abort the pass: every issue is
// attempted, warnings go to stderr, and the first error is returned at
// the end so the CI job still fails visibly.
func (c *Client) ApplyResults(ctx context.Context, prior []types.FlaggedIssue, results []types.VerificationResult, threshold int) (*ApplySummary, error) {
	prevMisses := make(map[string]int, len(prior))
	prevConfirms := make(map[string]int, len(prior))
	for _, issue := range prior {
		prevMisses[issue.ID] = issue.MissCount
		prevConfirms[issue.ID] = issue.ConfirmationCount
	}

	summary := &ApplySummary{}
	var firstErr error

	keep := func(err error) {
		if err == nil {
			return
		}
		if firstErr == nil {
			firstErr = err
		}
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}

	for _, r := range results {
		number, err := strconv.Atoi(r.IssueID)
		if err != nil {
			keep(fmt.Errorf("unexpected issue ID %q: %w", r.IssueID, err))
			continue
		}

		if r.Skipped {
			summary.Skipped++
			continue
		}

		old := prevMisses[r.IssueID]
		oldSeen := prevConfirms[r.IssueID]

		switch r.RecommendedAction {
		case types.ActionClose:
			// Move the counter label to its final value before closing so
			// the closed issue shows the full streak, not a stale count.
			keep(c.UpdateNotSeenLabel(ctx, number, r.Issue.MissCount, old))
			keep(c.UpdateSeenLabel(ctx, number, 0, oldSeen))
			keep(c.Comment(ctx, number, ClosureComment(threshold)))
			if err := c.CloseIssue(ctx, number); err != nil {
				keep(err)
				continue
			}
			summary.Closed++

		case types.ActionEscalate:
			keep(c.UpdateNotSeenLabel(ctx, number, 0, old))
			keep(c.UpdateSeenLabel(ctx, number, r.Issue.ConfirmationCount, oldSeen))
			keep(c.AddLabel(ctx, number, LabelEscalated))
			keep(c.Comment(ctx, number, EscalationComment(r.Issue.ConfirmationCount)))
			summary.Escalated++
			summary.Present++

		case types.ActionKeepOpen:
			if r.Decision == types.DecisionConfirmPresent {
				summary.Present++
				keep(c.UpdateSeenLabel(ctx, number, r.Issue.ConfirmationCount, oldSeen))
				// A running miss streak additionally gets cleared and the
				// reset called out in a comment.
				if old > 0 {
					keep(c.UpdateNotSeenLabel(ctx, number, 0, old))
					keep(c.Comment(ctx, number, ResetComment(old, threshold)))
					summary.Reset++
				}
			} else {
				keep(c.UpdateNotSeenLabel(ctx, number, r.Issue.MissCount, old))
				keep(c.UpdateSeenLabel(ctx, number, 0, oldSeen))
				keep(c.Comment(ctx, number, ProgressComment(r.Issue.MissCount, threshold)))
				summary.Tracking++
			}
		}
	}

	return summary, firstErr
}
