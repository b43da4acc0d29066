package tracker

import (
	"fmt"
	"strings"

	"github.com/recheck-ci/recheck/internal/types"
)

// IssueTitle builds the tracker title for a finding. The [AI] prefix and
// severity marker make AI-filed issues recognizable in issue lists, and
// the fingerprint package knows to strip them before hashing.
func IssueTitle(f *types.Finding) string {
	marker := "🔵"
	switch f.Severity {
	case types.SeverityCritical:
		marker = "🔴"
	case types.SeverityHigh, types.SeverityMedium:
		marker = "🟡"
	}
	return fmt.Sprintf("[AI] %s %s", marker, f.Title)
}

// IssueBody builds the tracker body for a finding. The **File:** line and
// the AI-ID marker are load-bearing: ListFlaggedIssues parses them back
// out, so their format must stay stable across releases.
func IssueBody(f *types.Finding) string {
	var b strings.Builder

	b.WriteString("## 🤖 AI-Detected Issue\n\n")
	fmt.Fprintf(&b, "**File:** `%s`\n\n", f.FilePath)
	if f.LineStart > 0 {
		if f.LineEnd > f.LineStart {
			fmt.Fprintf(&b, "**Lines:** %d-%d\n\n", f.LineStart, f.LineEnd)
		} else {
			fmt.Fprintf(&b, "**Lines:** %d\n\n", f.LineStart)
		}
	}
	fmt.Fprintf(&b, "**Problem:**\n%s\n", f.Description)

	if f.CurrentCode != "" {
		fmt.Fprintf(&b, "\n**Current Code:**\n```\n%s\n```\n", f.CurrentCode)
	}
	if f.Suggestion != "" {
		fmt.Fprintf(&b, "\n**Suggested Fix:**\n```\n%s\n```\n", f.Suggestion)
	}
	if f.Reasoning != "" {
		fmt.Fprintf(&b, "\n**Why this matters:**\n%s\n", f.Reasoning)
	}

	b.WriteString("\n---\n\n")
	fmt.Fprintf(&b, "- 🔎 Severity: %s\n", f.Severity)
	if f.Category != "" {
		fmt.Fprintf(&b, "- 🏷 Category: %s\n", f.Category)
	}
	fmt.Fprintf(&b, "- 🆔 AI-ID: %s\n", f.Fingerprint)
	b.WriteString("\nThis issue will be re-verified on every review pass and auto-closed once the fix is confirmed across consecutive reviews.\n")

	return b.String()
}

// ClosureComment is posted when an issue reaches the confirmation
// threshold and gets auto-closed.
func ClosureComment(threshold int) string {
	var b strings.Builder
	b.WriteString("## ✅ Issue Verified as Fixed\n\n")
	fmt.Fprintf(&b, "This issue was not detected in **%d consecutive review passes** and has been auto-closed.\n\n", threshold)
	b.WriteString("**If this closure is incorrect:** reopen the issue with a pointer to the code that still shows the problem. The next review pass will start tracking it again from zero.\n")
	return b.String()
}

// ProgressComment is posted when a pass misses the issue but the streak is
// still below the threshold.
func ProgressComment(count, threshold int) string {
	remaining := threshold - count
	noun := "confirmations"
	if remaining == 1 {
		noun = "confirmation"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "⏳ **Verification progress: %d/%d**\n\n", count, threshold)
	b.WriteString("This issue was not detected in the latest review pass.\n\n")
	fmt.Fprintf(&b, "- Not detected in %d more consecutive %s → auto-closes\n", remaining, noun)
	b.WriteString("- Detected again → counter resets\n")
	return b.String()
}

// ResetComment is posted when a pass re-detects an issue that had a miss
// streak going.
func ResetComment(oldCount, threshold int) string {
	var b strings.Builder
	b.WriteString("⚠️ **Issue still detected — counter reset**\n\n")
	fmt.Fprintf(&b, "The latest review pass found this issue again. Previous progress was %d/%d; the counter is back to 0.\n", oldCount, threshold)
	return b.String()
}

// EscalationComment is posted when the verifier recommends escalation for
// a repeatedly confirmed critical issue.
func EscalationComment(confirmations int) string {
	var b strings.Builder
	b.WriteString("🚨 **Escalated**\n\n")
	fmt.Fprintf(&b, "This critical issue has been re-confirmed in %d consecutive review passes without a fix. It likely needs human attention.\n", confirmations)
	return b.String()
}
