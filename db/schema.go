// Copyright (c) 2025 Hartline Specialty.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
//
// The DDL is kept portable between Postgres and SQLite: no server-side
// defaults for timestamps (handlers write created_at explicitly) and no
// driver-specific column types. JSON payloads are stored as TEXT.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// SQLiteDSN appends the foreign-key pragma to a modernc.org/sqlite DSN.
// SQLite applies pragmas per connection, so the DSN is the only place that
// reaches every pooled connection; without it the ON DELETE CASCADE clauses
// below are silently ignored.
func SQLiteDSN(url string) string {
	sep := "?"
	if strings.Contains(url, "?") {
		sep = "&"
	}
	return url + sep + "_pragma=foreign_keys(1)"
}

const schema = `
-- Submissions
CREATE TABLE IF NOT EXISTS submission (
    id TEXT PRIMARY KEY,
    applicant_name TEXT NOT NULL,
    revenue BIGINT NOT NULL DEFAULT 0,
    naics_code TEXT NOT NULL DEFAULT '',
    naics_title TEXT NOT NULL DEFAULT '',
    business_summary TEXT,
    bullet_points TEXT,
    nist_controls TEXT,
    ai_recommendation TEXT,
    decision_tag TEXT,
    decision_reason TEXT,
    decided_by TEXT,
    decided_at TIMESTAMP,
    hazard_override INTEGER,
    control_adjustment REAL,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_submission_naics ON submission(naics_code);
CREATE INDEX IF NOT EXISTS idx_submission_decision ON submission(decision_tag);

-- Quote options
CREATE TABLE IF NOT EXISTS quote_option (
    id TEXT PRIMARY KEY,
    submission_id TEXT NOT NULL REFERENCES submission(id) ON DELETE CASCADE,
    retention BIGINT NOT NULL,
    policy_form TEXT NOT NULL,
    effective_date TIMESTAMP NOT NULL,
    expiration_date TIMESTAMP NOT NULL,
    sold_premium BIGINT NOT NULL DEFAULT 0,
    risk_adjusted_premium BIGINT NOT NULL DEFAULT 0,
    bound BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_quote_option_submission ON quote_option(submission_id);

-- Tower layers (ordered by position within a quote option)
CREATE TABLE IF NOT EXISTS tower_layer (
    id TEXT PRIMARY KEY,
    quote_id TEXT NOT NULL REFERENCES quote_option(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    carrier TEXT NOT NULL,
    limit_amount BIGINT NOT NULL,
    attachment BIGINT NOT NULL,
    premium BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tower_layer_quote ON tower_layer(quote_id);

-- Policies (materialized when a quote option is bound)
CREATE TABLE IF NOT EXISTS policy (
    id TEXT PRIMARY KEY,
    submission_id TEXT NOT NULL REFERENCES submission(id) ON DELETE CASCADE,
    quote_id TEXT NOT NULL REFERENCES quote_option(id) ON DELETE CASCADE,
    policy_number TEXT NOT NULL UNIQUE,
    base_premium BIGINT NOT NULL,
    effective_date TIMESTAMP NOT NULL,
    expiration_date TIMESTAMP NOT NULL,
    status TEXT NOT NULL DEFAULT 'bound' CHECK (status IN ('bound', 'issued')),
    issued_at TIMESTAMP,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_policy_submission ON policy(submission_id);

-- Endorsements
CREATE TABLE IF NOT EXISTS endorsement (
    id TEXT PRIMARY KEY,
    policy_id TEXT NOT NULL REFERENCES policy(id) ON DELETE CASCADE,
    type TEXT NOT NULL,
    effective_date TIMESTAMP NOT NULL,
    description TEXT NOT NULL,
    change_details TEXT,
    premium_change BIGINT NOT NULL DEFAULT 0,
    status TEXT NOT NULL DEFAULT 'draft' CHECK (status IN ('draft', 'issued', 'void')),
    reinstates_id TEXT,
    notes TEXT,
    created_at TIMESTAMP NOT NULL,
    issued_at TIMESTAMP,
    voided_at TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_endorsement_policy ON endorsement(policy_id);
CREATE INDEX IF NOT EXISTS idx_endorsement_status ON endorsement(policy_id, status);

-- Subjectivities
CREATE TABLE IF NOT EXISTS subjectivity (
    id TEXT PRIMARY KEY,
    policy_id TEXT NOT NULL REFERENCES policy(id) ON DELETE CASCADE,
    text TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'received', 'waived')),
    created_at TIMESTAMP NOT NULL,
    resolved_at TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_subjectivity_policy ON subjectivity(policy_id);

-- Subjectivity templates (seeded onto new policies at bind time)
CREATE TABLE IF NOT EXISTS subjectivity_template (
    id TEXT PRIMARY KEY,
    text TEXT NOT NULL,
    position TEXT NOT NULL DEFAULT 'either' CHECK (position IN ('primary', 'excess', 'either')),
    created_at TIMESTAMP NOT NULL
);

-- Comparables (read-only benchmarking snapshots)
CREATE TABLE IF NOT EXISTS comparable (
    id TEXT PRIMARY KEY,
    submission_id TEXT NOT NULL REFERENCES submission(id) ON DELETE CASCADE,
    company TEXT NOT NULL,
    industry TEXT NOT NULL,
    revenue BIGINT NOT NULL,
    layer TEXT NOT NULL,
    limit_amount BIGINT NOT NULL,
    attachment BIGINT NOT NULL,
    rate_per_million REAL NOT NULL,
    exposure_similarity REAL NOT NULL,
    controls_similarity REAL NOT NULL,
    stage TEXT NOT NULL,
    quoted_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_comparable_submission ON comparable(submission_id);

-- Coverage catalog mappings
CREATE TABLE IF NOT EXISTS coverage_mapping (
    id TEXT PRIMARY KEY,
    carrier TEXT NOT NULL,
    original_text TEXT NOT NULL,
    normalized_tags TEXT NOT NULL DEFAULT '[]',
    status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'approved', 'rejected')),
    created_at TIMESTAMP NOT NULL,
    reviewed_at TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_coverage_mapping_status ON coverage_mapping(status);
CREATE INDEX IF NOT EXISTS idx_coverage_mapping_carrier ON coverage_mapping(carrier);

-- Document library
CREATE TABLE IF NOT EXISTS document_entry (
    id TEXT PRIMARY KEY,
    code TEXT NOT NULL UNIQUE,
    title TEXT NOT NULL,
    doc_type TEXT NOT NULL,
    category TEXT NOT NULL,
    position TEXT NOT NULL DEFAULT 'either' CHECK (position IN ('primary', 'excess', 'either')),
    status TEXT NOT NULL DEFAULT 'draft' CHECK (status IN ('draft', 'active', 'archived')),
    version INTEGER NOT NULL DEFAULT 1,
    content_template TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_document_entry_status ON document_entry(status);
CREATE INDEX IF NOT EXISTS idx_document_entry_category ON document_entry(category);

-- Generated documents (rendered templates attached to a policy)
CREATE TABLE IF NOT EXISTS generated_document (
    id TEXT PRIMARY KEY,
    policy_id TEXT NOT NULL REFERENCES policy(id) ON DELETE CASCADE,
    entry_id TEXT NOT NULL REFERENCES document_entry(id) ON DELETE CASCADE,
    title TEXT NOT NULL,
    content TEXT NOT NULL,
    generated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_generated_document_policy ON generated_document(policy_id);

-- Loss history
CREATE TABLE IF NOT EXISTS loss_event (
    id TEXT PRIMARY KEY,
    submission_id TEXT NOT NULL REFERENCES submission(id) ON DELETE CASCADE,
    occurred_on TIMESTAMP NOT NULL,
    description TEXT NOT NULL,
    paid BIGINT NOT NULL DEFAULT 0,
    reserved BIGINT NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_loss_event_submission ON loss_event(submission_id);

-- Workflow reviewers
CREATE TABLE IF NOT EXISTS reviewer (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    token TEXT NOT NULL UNIQUE,
    created_at TIMESTAMP NOT NULL
);

-- Workflow claims
CREATE TABLE IF NOT EXISTS review_claim (
    submission_id TEXT NOT NULL REFERENCES submission(id) ON DELETE CASCADE,
    reviewer_id TEXT NOT NULL REFERENCES reviewer(id) ON DELETE CASCADE,
    claimed_at TIMESTAMP NOT NULL,
    PRIMARY KEY (submission_id, reviewer_id)
);

CREATE INDEX IF NOT EXISTS idx_review_claim_reviewer ON review_claim(reviewer_id);

-- Workflow votes (one vote per reviewer per submission, updatable)
CREATE TABLE IF NOT EXISTS review_vote (
    submission_id TEXT NOT NULL REFERENCES submission(id) ON DELETE CASCADE,
    reviewer_id TEXT NOT NULL REFERENCES reviewer(id) ON DELETE CASCADE,
    vote TEXT NOT NULL CHECK (vote IN ('approve', 'decline', 'refer')),
    comment TEXT,
    voted_at TIMESTAMP NOT NULL,
    PRIMARY KEY (submission_id, reviewer_id)
);

CREATE INDEX IF NOT EXISTS idx_review_vote_reviewer ON review_vote(reviewer_id);
`
