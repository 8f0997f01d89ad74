// Copyright (c) 2025 Hartline Specialty.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db owns schema creation for the portal database.

# Schema

Core underwriting tables:

  - submission: applicant, financials, narrative, decision, rating overrides
  - quote_option / tower_layer: quoted programs and their ordered layers
  - policy: materialization of a bound quote option
  - endorsement: mid-term changes with a draft/issued/void lifecycle
  - subjectivity / subjectivity_template: conditions blocking issuance

Supporting tables:

  - comparable: read-only pricing benchmarks
  - coverage_mapping: carrier coverage text normalization queue
  - document_entry / generated_document: versioned templates and renders
  - loss_event: loss history per submission
  - reviewer / review_claim / review_vote: the vote-queue workflow

# Portability

The same DDL runs on Postgres (lib/pq) and SQLite (modernc.org/sqlite).
Timestamps are always written by the application, never defaulted by the
server, so inserts behave identically on both drivers.

# Key Constraints

  - policy.policy_number (unique)
  - document_entry.code (unique)
  - reviewer.name, reviewer.token (unique)
  - review_vote primary key (submission_id, reviewer_id) makes votes upserts
*/
package db
