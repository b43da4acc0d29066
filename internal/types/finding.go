package types

import (
	"fmt"
	"strings"
)

// Finding represents a single problem reported by one AI review pass.
// Findings are fingerprint-comparable with FlaggedIssues: the verifier
// matches them by exact fingerprint equality, so the same fingerprint
// strategy must be applied on both sides.
type Finding struct {
	Fingerprint string   `json:"fingerprint" validate:"required"`
	FilePath    string   `json:"file_path" validate:"required"`
	Title       string   `json:"title" validate:"required"`
	Description string   `json:"description"`
	Category    string   `json:"category,omitempty"`   // e.g. "memory-leak", "race-condition", "security"
	Severity    Severity `json:"severity" validate:"required"`
	LineStart   int      `json:"line_start,omitempty"`
	LineEnd     int      `json:"line_end,omitempty"`
	CurrentCode string   `json:"current_code,omitempty"`
	Suggestion  string   `json:"suggestion,omitempty"`
	Reasoning   string   `json:"reasoning,omitempty"`
}

// Validate checks if the finding has valid field values
func (f *Finding) Validate() error {
	if strings.TrimSpace(f.Fingerprint) == "" {
		return fmt.Errorf("fingerprint is required")
	}
	if strings.TrimSpace(f.FilePath) == "" {
		return fmt.Errorf("file_path is required")
	}
	if strings.TrimSpace(f.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if !f.Severity.IsValid() {
		return fmt.Errorf("invalid severity: %s", f.Severity)
	}
	if f.LineStart < 0 || f.LineEnd < 0 {
		return fmt.Errorf("line range cannot be negative")
	}
	if f.LineEnd > 0 && f.LineStart > f.LineEnd {
		return fmt.Errorf("line_start (%d) cannot be after line_end (%d)", f.LineStart, f.LineEnd)
	}
	return nil
}

// ReviewReport is the structured output of one AI review pass: the findings
// plus the set of files the reviewer actually looked at. ReviewedFiles lets
// the verifier skip issues whose file was outside this pass's scope.
type ReviewReport struct {
	Findings      []Finding `json:"findings"`
	ReviewedFiles []string  `json:"reviewed_files"`
	Summary       string    `json:"summary,omitempty"`
}

// CriticalFindings returns only the findings with critical severity.
// Issue filing is limited to critical findings; lower severities surface
// in the review comment but are not tracked.
func (r *ReviewReport) CriticalFindings() []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Severity == SeverityCritical {
			out = append(out, f)
		}
	}
	return out
}
