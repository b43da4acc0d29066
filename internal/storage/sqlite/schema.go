package sqlite

const schema = `
-- Verification passes table
CREATE TABLE IF NOT EXISTS verification_passes (
    id TEXT PRIMARY KEY,
    repo TEXT NOT NULL,
    ran_at DATETIME NOT NULL,
    threshold INTEGER NOT NULL,
    finding_count INTEGER NOT NULL DEFAULT 0,
    reviewed_files INTEGER NOT NULL DEFAULT 0,
    closed INTEGER NOT NULL DEFAULT 0,
    tracking INTEGER NOT NULL DEFAULT 0,
    present INTEGER NOT NULL DEFAULT 0,
    reset INTEGER NOT NULL DEFAULT 0,
    skipped INTEGER NOT NULL DEFAULT 0,
    escalated INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_passes_repo ON verification_passes(repo);
CREATE INDEX IF NOT EXISTS idx_passes_ran_at ON verification_passes(ran_at);

-- Per-issue results table
CREATE TABLE IF NOT EXISTS pass_results (
    pass_id TEXT NOT NULL,
    issue_id TEXT NOT NULL,
    fingerprint TEXT NOT NULL,
    file_path TEXT NOT NULL,
    title TEXT NOT NULL,
    severity TEXT NOT NULL,
    decision TEXT NOT NULL,
    action TEXT NOT NULL,
    status TEXT NOT NULL,
    confirmation_count INTEGER NOT NULL DEFAULT 0,
    miss_count INTEGER NOT NULL DEFAULT 0,
    skipped INTEGER NOT NULL DEFAULT 0,
    checked_at DATETIME NOT NULL,
    PRIMARY KEY (pass_id, issue_id),
    FOREIGN KEY (pass_id) REFERENCES verification_passes(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_results_fingerprint ON pass_results(fingerprint);
`
