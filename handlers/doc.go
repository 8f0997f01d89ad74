// Copyright (c) 2025 Hartline Specialty.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the underwriting portal API.

# Handler Types

Each handler is a struct with database and config dependencies:

  - SubmissionHandler: Submission intake, search, decisions, loss history
  - QuoteHandler: Quote options, tower layers, bind/unbind
  - PolicyHandler: Policy aggregate, issuance, document generation
  - EndorsementHandler: Endorsement lifecycle and pricing
  - PricingHandler: Premium grid, coverage-change guidance, renewal comparison
  - SubjectivityHandler: Subjectivity resolution and templates
  - ComparableHandler: Benchmarking comparables with filter/sort
  - CoverageHandler: Coverage catalog curation with cached stats
  - DocumentHandler: Document library entries
  - WorkflowHandler: Reviewer queue, claims, and votes

Handlers are created via constructor functions that accept *sql.DB and Config:

	endorsementHandler := handlers.NewEndorsementHandler(db, cfg)

# Endorsement Lifecycle

Endorsements progress draft → issued → void, with void → issued as the
reinstatement path and deletion allowed only from draft:

	POST /policies/{id}/endorsements         → CreateEndorsement (draft)
	POST /policies/{id}/endorsements/preview → PreviewEndorsement (no write)
	POST /endorsements/{id}/issue            → IssueEndorsement
	POST /endorsements/{id}/void             → VoidEndorsement
	POST /endorsements/{id}/reinstate        → ReinstateEndorsement
	DELETE /endorsements/{id}                → DeleteEndorsement (draft only)

Premium arithmetic lives in the rating package; handlers only translate
requests into rating inputs and persist the results.

# Binding Flow

A submission carries quote options; binding one materializes the policy:

	POST /submissions/{id}/quotes → CreateQuote
	POST /quotes/{id}/bind        → BindQuote (unbinds siblings, seeds subjectivities)
	POST /policies/{id}/issue     → IssuePolicy (blocked by pending subjectivities)

Admin operations require the X-Admin-Key header.

# Review Workflow

Reviewers register for a token and work the shared queue:

	POST /workflow/register                  → RegisterReviewer (returns reviewer_token)
	POST /workflow/submissions/{id}/claim    → ClaimSubmission
	POST /workflow/submissions/{id}/vote     → Vote (create or update)
	GET  /workflow/my-work                   → MyWork

Reviewer operations require the X-Reviewer-Token header.
*/
package handlers
