package verify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recheck-ci/recheck/internal/types"
)

func openIssue(id, fp string) types.FlaggedIssue {
	return types.FlaggedIssue{
		ID:          id,
		Fingerprint: fp,
		FilePath:    "src/app.tsx",
		Title:       "Missing cleanup in effect",
		Status:      types.StatusOpen,
		CreatedAt:   time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC),
	}
}

func finding(fp string) types.Finding {
	return types.Finding{
		Fingerprint: fp,
		FilePath:    "src/app.tsx",
		Title:       "Missing cleanup in effect",
		Severity:    types.SeverityCritical,
	}
}

func TestEvaluateMissIncrementsCounter(t *testing.T) {
	issues := []types.FlaggedIssue{openIssue("A", "f1")}

	results := Evaluate(issues, nil, Options{Threshold: 3})
	require.Len(t, results, 1)

	r := results[0]
	assert.Equal(t, "A", r.IssueID)
	assert.Equal(t, types.DecisionInconclusive, r.Decision)
	assert.Equal(t, types.ActionKeepOpen, r.RecommendedAction)
	assert.Equal(t, 1, r.Issue.MissCount)
	assert.Equal(t, 0, r.Issue.ConfirmationCount)
	assert.Equal(t, types.StatusPendingClose, r.Issue.Status)
}

func TestEvaluateMatchResetsMissCount(t *testing.T) {
	issue := openIssue("A", "f1")
	issue.MissCount = 2
	issue.Status = types.StatusPendingClose

	results := Evaluate([]types.FlaggedIssue{issue}, []types.Finding{finding("f1")}, Options{Threshold: 3})
	require.Len(t, results, 1)

	r := results[0]
	assert.Equal(t, types.DecisionConfirmPresent, r.Decision)
	assert.Equal(t, types.ActionKeepOpen, r.RecommendedAction)
	assert.Equal(t, 0, r.Issue.MissCount, "re-detection must reset the miss streak regardless of prior value")
	assert.Equal(t, types.StatusOpen, r.Issue.Status)
}

func TestEvaluateClosesAtThreshold(t *testing.T) {
	// Scenario: fresh issue, never re-detected across three passes.
	issue := openIssue("A", "f1")

	for pass := 1; pass <= 3; pass++ {
		results := Evaluate([]types.FlaggedIssue{issue}, nil, Options{Threshold: 3})
		require.Len(t, results, 1)
		issue = results[0].Issue

		assert.Equal(t, pass, issue.MissCount, "pass %d", pass)
		if pass < 3 {
			assert.Equal(t, types.DecisionInconclusive, results[0].Decision, "pass %d must not close early", pass)
			assert.Equal(t, types.ActionKeepOpen, results[0].RecommendedAction)
		} else {
			assert.Equal(t, types.DecisionConfirmFixed, results[0].Decision)
			assert.Equal(t, types.ActionClose, results[0].RecommendedAction)
			assert.Equal(t, types.StatusClosed, issue.Status)
		}
	}

	// Closed issues are no longer eligible for evaluation.
	results := Evaluate([]types.FlaggedIssue{issue}, nil, Options{Threshold: 3})
	assert.Empty(t, results)
}

func TestEvaluatePersistsThenVanishes(t *testing.T) {
	// Pass 1 detects the issue, passes 2-3 do not. Two misses is still
	// below the threshold, so the issue stays open.
	issue := openIssue("A", "f1")

	results := Evaluate([]types.FlaggedIssue{issue}, []types.Finding{finding("f1")}, Options{Threshold: 3})
	require.Len(t, results, 1)
	issue = results[0].Issue
	assert.Equal(t, 0, issue.MissCount)

	for pass := 1; pass <= 2; pass++ {
		results = Evaluate([]types.FlaggedIssue{issue}, nil, Options{Threshold: 3})
		require.Len(t, results, 1)
		issue = results[0].Issue
		assert.Equal(t, pass, issue.MissCount)
		assert.Equal(t, types.DecisionInconclusive, results[0].Decision)
	}
	assert.NotEqual(t, types.StatusClosed, issue.Status)
}

func TestEvaluateNoPrematureClosure(t *testing.T) {
	// miss, miss, confirmed-present, miss: the re-detection resets the
	// streak, so the final miss leaves the count at 1, far from closure.
	issue := openIssue("A", "f1")
	passes := [][]types.Finding{nil, nil, {finding("f1")}, nil}

	for i, findings := range passes {
		results := Evaluate([]types.FlaggedIssue{issue}, findings, Options{Threshold: 3})
		require.Len(t, results, 1, "pass %d", i+1)
		issue = results[0].Issue
		assert.NotEqual(t, types.StatusClosed, issue.Status, "pass %d", i+1)
	}
	assert.Equal(t, 1, issue.MissCount)
}

func TestEvaluateDuplicateFindingsCollapse(t *testing.T) {
	issue := openIssue("A", "f1")
	issue.MissCount = 2
	issue.Status = types.StatusPendingClose

	dupes := []types.Finding{finding("f1"), finding("f1")}
	results := Evaluate([]types.FlaggedIssue{issue}, dupes, Options{Threshold: 3})
	require.Len(t, results, 1)

	assert.Equal(t, types.DecisionConfirmPresent, results[0].Decision)
	assert.Equal(t, 0, results[0].Issue.MissCount)
	assert.Equal(t, 1, results[0].Issue.ConfirmationCount, "duplicates must count as a single detection")
}

func TestEvaluateIdempotent(t *testing.T) {
	issues := []types.FlaggedIssue{openIssue("A", "f1"), openIssue("B", "f2")}
	findings := []types.Finding{finding("f1")}
	now := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	opts := Options{Threshold: 3, Now: now}

	first := Evaluate(issues, findings, opts)
	second := Evaluate(issues, findings, opts)
	assert.Equal(t, first, second)
}

func TestEvaluateStampsLastChecked(t *testing.T) {
	now := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	issues := []types.FlaggedIssue{openIssue("A", "f1"), openIssue("B", "f2")}
	findings := []types.Finding{finding("f1")}

	results := Evaluate(issues, findings, Options{Threshold: 3, Now: now})
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, now, r.Issue.LastCheckedAt, "every evaluated issue gets the pass timestamp")
		assert.Equal(t, now, r.CheckedAt)
	}
}

func TestEvaluateScopeGateSkipsUnreviewedFiles(t *testing.T) {
	reviewed := openIssue("A", "f1")
	unreviewed := openIssue("B", "f2")
	unreviewed.FilePath = "src/other.tsx"
	unreviewed.MissCount = 2
	unreviewed.Status = types.StatusPendingClose

	opts := Options{
		Threshold:     3,
		ReviewedFiles: map[string]bool{"src/app.tsx": true},
	}
	results := Evaluate([]types.FlaggedIssue{reviewed, unreviewed}, nil, opts)
	require.Len(t, results, 2)

	assert.False(t, results[0].Skipped)
	assert.Equal(t, 1, results[0].Issue.MissCount)

	assert.True(t, results[1].Skipped, "issue outside review scope must be skipped")
	assert.Equal(t, types.DecisionInconclusive, results[1].Decision)
	assert.Equal(t, 2, results[1].Issue.MissCount, "skipped issues keep their counters")
	assert.Equal(t, types.StatusPendingClose, results[1].Issue.Status)
}

func TestEvaluateSkipEmptyPass(t *testing.T) {
	issues := []types.FlaggedIssue{openIssue("A", "f1")}

	// Guard enabled: a wholly empty pass is a no-op.
	results := Evaluate(issues, nil, Options{Threshold: 3, SkipEmptyPass: true})
	assert.Empty(t, results)

	// Guard disabled (default): empty passes accrue misses.
	results = Evaluate(issues, nil, Options{Threshold: 3})
	require.Len(t, results, 1)
	assert.Equal(t, 1, results[0].Issue.MissCount)

	// Guard enabled but the pass did review files: misses still accrue,
	// the review simply found nothing in them.
	opts := Options{Threshold: 3, SkipEmptyPass: true, ReviewedFiles: map[string]bool{"src/app.tsx": true}}
	results = Evaluate(issues, nil, opts)
	require.Len(t, results, 1)
	assert.Equal(t, 1, results[0].Issue.MissCount)
}

func TestEvaluateThresholdDefaultsWhenInvalid(t *testing.T) {
	issue := openIssue("A", "f1")
	issue.MissCount = DefaultThreshold - 1

	results := Evaluate([]types.FlaggedIssue{issue}, nil, Options{Threshold: 0})
	require.Len(t, results, 1)
	assert.Equal(t, types.DecisionConfirmFixed, results[0].Decision)
}

func TestEvaluateThresholdOne(t *testing.T) {
	results := Evaluate([]types.FlaggedIssue{openIssue("A", "f1")}, nil, Options{Threshold: 1})
	require.Len(t, results, 1)
	assert.Equal(t, types.DecisionConfirmFixed, results[0].Decision)
	assert.Equal(t, types.ActionClose, results[0].RecommendedAction)
}

func TestEvaluateEscalation(t *testing.T) {
	issue := openIssue("A", "f1")
	issue.Severity = types.SeverityCritical
	issue.ConfirmationCount = 2

	// Disabled by default: repeated detections just keep the issue open.
	results := Evaluate([]types.FlaggedIssue{issue}, []types.Finding{finding("f1")}, Options{Threshold: 3})
	require.Len(t, results, 1)
	assert.Equal(t, types.ActionKeepOpen, results[0].RecommendedAction)

	// Enabled: the third consecutive detection of a critical issue escalates.
	results = Evaluate([]types.FlaggedIssue{issue}, []types.Finding{finding("f1")}, Options{Threshold: 3, EscalateAfter: 3})
	require.Len(t, results, 1)
	assert.Equal(t, types.ActionEscalate, results[0].RecommendedAction)
	assert.Equal(t, types.DecisionConfirmPresent, results[0].Decision)

	// Non-critical issues never escalate.
	issue.Severity = types.SeverityHigh
	results = Evaluate([]types.FlaggedIssue{issue}, []types.Finding{finding("f1")}, Options{Threshold: 3, EscalateAfter: 3})
	require.Len(t, results, 1)
	assert.Equal(t, types.ActionKeepOpen, results[0].RecommendedAction)
}

func TestEvaluateInputNotMutated(t *testing.T) {
	issues := []types.FlaggedIssue{openIssue("A", "f1")}
	_ = Evaluate(issues, nil, Options{Threshold: 3})

	assert.Equal(t, 0, issues[0].MissCount, "caller's records must not be mutated")
	assert.True(t, issues[0].LastCheckedAt.IsZero())
}

func TestEvaluateResultsValidate(t *testing.T) {
	issues := []types.FlaggedIssue{openIssue("A", "f1"), openIssue("B", "f2")}
	findings := []types.Finding{finding("f2")}

	for _, r := range Evaluate(issues, findings, Options{Threshold: 3}) {
		assert.NoError(t, r.Validate(), "result for %s", r.IssueID)
	}
}
