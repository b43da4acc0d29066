package types

import (
	"strings"
	"testing"
	"time"
)

func validIssue() FlaggedIssue {
	return FlaggedIssue{
		ID:          "42",
		Fingerprint: "a1b2c3d4",
		FilePath:    "src/app.tsx",
		Title:       "Missing cleanup",
		Status:      StatusOpen,
		CreatedAt:   time.Now(),
	}
}

func TestFlaggedIssueValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*FlaggedIssue)
		wantErr string
	}{
		{"valid", func(i *FlaggedIssue) {}, ""},
		{"missing id", func(i *FlaggedIssue) { i.ID = " " }, "id is required"},
		{"missing fingerprint", func(i *FlaggedIssue) { i.Fingerprint = "" }, "fingerprint is required"},
		{"bad status", func(i *FlaggedIssue) { i.Status = "weird" }, "invalid status"},
		{"bad severity", func(i *FlaggedIssue) { i.Severity = "urgent" }, "invalid severity"},
		{"negative miss count", func(i *FlaggedIssue) { i.MissCount = -1 }, "cannot be negative"},
		{"negative confirmation count", func(i *FlaggedIssue) { i.ConfirmationCount = -2 }, "cannot be negative"},
		{"both counters set", func(i *FlaggedIssue) { i.ConfirmationCount = 1; i.MissCount = 2 }, "cannot both be non-zero"},
		{"severity optional", func(i *FlaggedIssue) { i.Severity = SeverityCritical }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issue := validIssue()
			tt.modify(&issue)
			err := issue.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("expected valid, got: %v", err)
				}
			} else {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("expected error containing %q, got: %v", tt.wantErr, err)
				}
			}
		})
	}
}

func TestFindingValidate(t *testing.T) {
	f := Finding{Fingerprint: "a1b2c3d4", FilePath: "src/app.tsx", Title: "Bug", Severity: SeverityHigh}
	if err := f.Validate(); err != nil {
		t.Fatalf("expected valid finding, got: %v", err)
	}

	bad := f
	bad.Severity = "blocker"
	if err := bad.Validate(); err == nil {
		t.Error("expected invalid severity error")
	}

	bad = f
	bad.LineStart = 10
	bad.LineEnd = 5
	if err := bad.Validate(); err == nil {
		t.Error("expected inverted line range error")
	}
}

func TestVerificationResultValidate(t *testing.T) {
	r := VerificationResult{
		IssueID:           "42",
		Decision:          DecisionConfirmFixed,
		RecommendedAction: ActionClose,
		Issue:             validIssue(),
	}
	if err := r.Validate(); err != nil {
		t.Fatalf("expected valid result, got: %v", err)
	}

	// confirm_fixed must pair with close.
	r.RecommendedAction = ActionKeepOpen
	if err := r.Validate(); err == nil {
		t.Error("expected decision/action mismatch error")
	}

	// inconclusive can never close.
	r.Decision = DecisionInconclusive
	r.RecommendedAction = ActionClose
	if err := r.Validate(); err == nil {
		t.Error("expected inconclusive close rejection")
	}
}

func TestEnumValidity(t *testing.T) {
	for _, s := range []IssueStatus{StatusOpen, StatusPendingClose, StatusClosed} {
		if !s.IsValid() {
			t.Errorf("status %s should be valid", s)
		}
	}
	if IssueStatus("archived").IsValid() {
		t.Error("unknown status should be invalid")
	}

	for _, s := range []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow} {
		if !s.IsValid() {
			t.Errorf("severity %s should be valid", s)
		}
	}
	if Severity("").IsValid() {
		t.Error("empty severity should be invalid")
	}
}

func TestCriticalFindings(t *testing.T) {
	report := ReviewReport{
		Findings: []Finding{
			{Fingerprint: "a", FilePath: "x", Title: "t1", Severity: SeverityCritical},
			{Fingerprint: "b", FilePath: "x", Title: "t2", Severity: SeverityLow},
			{Fingerprint: "c", FilePath: "y", Title: "t3", Severity: SeverityCritical},
		},
	}
	crit := report.CriticalFindings()
	if len(crit) != 2 {
		t.Fatalf("expected 2 critical findings, got %d", len(crit))
	}
	if crit[0].Fingerprint != "a" || crit[1].Fingerprint != "c" {
		t.Error("critical findings out of order")
	}
}
