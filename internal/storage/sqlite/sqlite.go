// Package sqlite implements the pass-history archive on SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/recheck-ci/recheck/internal/storage"
	"github.com/recheck-ci/recheck/internal/types"
)

// SQLiteStore implements storage.Store using SQLite
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLite archive backend
func New(path string) (*SQLiteStore, error) {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite3", "file:"+path+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Initialize schema
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// RecordPass stores a pass summary together with its per-issue results.
// A missing pass ID is filled in with a fresh UUID. The whole pass is
// written in one transaction so a partial pass never appears in history.
func (s *SQLiteStore) RecordPass(ctx context.Context, pass *storage.PassRecord, results []types.VerificationResult) error {
	if pass == nil {
		return fmt.Errorf("pass record cannot be nil")
	}
	if pass.ID == "" {
		pass.ID = uuid.New().String()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO verification_passes
			(id, repo, ran_at, threshold, finding_count, reviewed_files,
			 closed, tracking, present, reset, skipped, escalated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, pass.ID, pass.Repo, pass.RanAt, pass.Threshold, pass.FindingCount, pass.ReviewedFiles,
		pass.Closed, pass.Tracking, pass.Present, pass.Reset, pass.Skipped, pass.Escalated)
	if err != nil {
		return fmt.Errorf("failed to insert pass %s: %w", pass.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO pass_results
			(pass_id, issue_id, fingerprint, file_path, title, severity,
			 decision, action, status, confirmation_count, miss_count, skipped, checked_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare result insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range results {
		_, err = stmt.ExecContext(ctx, pass.ID, r.IssueID, r.Issue.Fingerprint, r.Issue.FilePath,
			r.Issue.Title, string(r.Issue.Severity), string(r.Decision), string(r.RecommendedAction),
			string(r.Issue.Status), r.Issue.ConfirmationCount, r.Issue.MissCount, r.Skipped, r.CheckedAt)
		if err != nil {
			return fmt.Errorf("failed to insert result for issue %s: %w", r.IssueID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit pass %s: %w", pass.ID, err)
	}
	return nil
}

// ListPasses returns the most recent passes, newest first.
func (s *SQLiteStore) ListPasses(ctx context.Context, limit int) ([]storage.PassRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, repo, ran_at, threshold, finding_count, reviewed_files,
		       closed, tracking, present, reset, skipped, escalated
		FROM verification_passes
		ORDER BY ran_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query passes: %w", err)
	}
	defer rows.Close()

	var passes []storage.PassRecord
	for rows.Next() {
		var p storage.PassRecord
		err := rows.Scan(&p.ID, &p.Repo, &p.RanAt, &p.Threshold, &p.FindingCount, &p.ReviewedFiles,
			&p.Closed, &p.Tracking, &p.Present, &p.Reset, &p.Skipped, &p.Escalated)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pass: %w", err)
		}
		passes = append(passes, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate passes: %w", err)
	}
	return passes, nil
}

// PassResults returns the per-issue results of one pass, oldest issue first.
func (s *SQLiteStore) PassResults(ctx context.Context, passID string) ([]types.VerificationResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT issue_id, fingerprint, file_path, title, severity,
		       decision, action, status, confirmation_count, miss_count, skipped, checked_at
		FROM pass_results
		WHERE pass_id = ?
		ORDER BY issue_id
	`, passID)
	if err != nil {
		return nil, fmt.Errorf("failed to query results for pass %s: %w", passID, err)
	}
	defer rows.Close()

	var results []types.VerificationResult
	for rows.Next() {
		var r types.VerificationResult
		var severity, decision, action, status string
		err := rows.Scan(&r.IssueID, &r.Issue.Fingerprint, &r.Issue.FilePath, &r.Issue.Title, &severity,
			&decision, &action, &status, &r.Issue.ConfirmationCount, &r.Issue.MissCount, &r.Skipped, &r.CheckedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		r.Issue.ID = r.IssueID
		r.Issue.Severity = types.Severity(severity)
		r.Issue.Status = types.IssueStatus(status)
		r.Issue.LastCheckedAt = r.CheckedAt
		r.Decision = types.Decision(decision)
		r.RecommendedAction = types.Action(action)
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate results: %w", err)
	}
	return results, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
