package types

import (
	"fmt"
	"strings"
	"time"
)

// FlaggedIssue represents a tracked issue created from an earlier AI review
// finding. The issue tracker is the system of record for every field here:
// the verifier receives FlaggedIssues by value, returns updated counters in
// VerificationResults, and the tracker client persists them back (as labels
// and comments on the hosting platform).
type FlaggedIssue struct {
	ID                string      `json:"id" validate:"required"`
	Fingerprint       string      `json:"fingerprint" validate:"required"`
	FilePath          string      `json:"file_path"`
	Title             string      `json:"title"`
	Severity          Severity    `json:"severity,omitempty"`
	Status            IssueStatus `json:"status"`
	ConfirmationCount int         `json:"confirmation_count"` // consecutive passes that re-detected the issue
	MissCount         int         `json:"miss_count"`         // consecutive passes that did not
	CreatedAt         time.Time   `json:"created_at"`
	LastCheckedAt     time.Time   `json:"last_checked_at,omitempty"`
}

// Validate checks if the flagged issue has valid field values
func (i *FlaggedIssue) Validate() error {
	if strings.TrimSpace(i.ID) == "" {
		return fmt.Errorf("id is required")
	}
	if strings.TrimSpace(i.Fingerprint) == "" {
		return fmt.Errorf("fingerprint is required")
	}
	if !i.Status.IsValid() {
		return fmt.Errorf("invalid status: %s", i.Status)
	}
	if i.Severity != "" && !i.Severity.IsValid() {
		return fmt.Errorf("invalid severity: %s", i.Severity)
	}
	if i.ConfirmationCount < 0 {
		return fmt.Errorf("confirmation_count cannot be negative (got %d)", i.ConfirmationCount)
	}
	if i.MissCount < 0 {
		return fmt.Errorf("miss_count cannot be negative (got %d)", i.MissCount)
	}
	// The counters are mutually exclusive drivers: a pass either re-detects
	// the issue or it doesn't, so at most one streak can be running.
	if i.ConfirmationCount > 0 && i.MissCount > 0 {
		return fmt.Errorf("confirmation_count (%d) and miss_count (%d) cannot both be non-zero",
			i.ConfirmationCount, i.MissCount)
	}
	return nil
}

// IssueStatus represents the lifecycle state of a flagged issue
//
// Transitions are monotonic forward (open → pending_close → closed).
// A fresh detection of a closed issue's fingerprint starts a new
// FlaggedIssue lifecycle rather than reopening this one.
type IssueStatus string

const (
	StatusOpen         IssueStatus = "open"
	StatusPendingClose IssueStatus = "pending_close"
	StatusClosed       IssueStatus = "closed"
)

// IsValid checks if the status value is valid
func (s IssueStatus) IsValid() bool {
	switch s {
	case StatusOpen, StatusPendingClose, StatusClosed:
		return true
	}
	return false
}

// Severity categorizes how serious a finding is
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// IsValid checks if the severity value is valid
func (s Severity) IsValid() bool {
	switch s {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow:
		return true
	}
	return false
}
