// Package storage defines the pass-history archive.
//
// The issue tracker remains the system of record for FlaggedIssue state;
// the archive only records what each verification pass observed and
// decided, for auditing and the history CLI. Losing the archive loses
// history, never correctness.
package storage

import (
	"context"
	"time"

	"github.com/recheck-ci/recheck/internal/types"
)

// PassRecord summarizes one verification pass
type PassRecord struct {
	ID            string    `json:"id"` // uuid
	Repo          string    `json:"repo"`
	RanAt         time.Time `json:"ran_at"`
	Threshold     int       `json:"threshold"`
	FindingCount  int       `json:"finding_count"`
	ReviewedFiles int       `json:"reviewed_files"`
	Closed        int       `json:"closed"`
	Tracking      int       `json:"tracking"`
	Present       int       `json:"present"`
	Reset         int       `json:"reset"`
	Skipped       int       `json:"skipped"`
	Escalated     int       `json:"escalated"`
}

// Store archives verification passes and their per-issue results
type Store interface {
	// RecordPass stores a pass summary together with its results.
	RecordPass(ctx context.Context, pass *PassRecord, results []types.VerificationResult) error

	// ListPasses returns the most recent passes, newest first.
	ListPasses(ctx context.Context, limit int) ([]PassRecord, error)

	// PassResults returns the per-issue results of one pass.
	PassResults(ctx context.Context, passID string) ([]types.VerificationResult, error)

	// Close releases the underlying database handle.
	Close() error
}
