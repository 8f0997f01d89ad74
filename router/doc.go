// Copyright (c) 2025 Hartline Specialty.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the underwriting portal API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(db, cfg, tables)

# Endpoints

Health:

	GET /health

Submissions (public read, admin decision):

	POST  /submissions                  - Intake a submission
	GET   /submissions                  - Search (q, tag, naics)
	GET   /submissions/{id}             - Fetch one
	PATCH /submissions/{id}             - Partial update
	POST  /submissions/{id}/decision    - Record decision (admin)
	GET   /submissions/{id}/losses      - Loss history
	POST  /submissions/{id}/losses      - Add loss event
	GET   /submissions/{id}/comparables - Benchmarking comparables
	GET   /submissions/{id}/pricing-grid - Four-limit premium grid

Quotes and policies (bind/issue are admin):

	POST /submissions/{id}/quotes  - Create quote option with tower
	POST /quotes/{id}/bind         - Bind, materialize policy
	POST /quotes/{id}/unbind       - Unbind (not after issuance)
	GET  /policies/{id}            - Full aggregate
	POST /policies/{id}/issue      - Issue (blocked by pending subjectivities)
	POST /policies/{id}/documents  - Render document templates
	GET  /policies/{id}/pricing-guidance   - Coverage-change guidance
	GET  /policies/{id}/renewal-comparison - Expiring vs proposed option

Endorsements (transitions are admin):

	POST   /policies/{id}/endorsements         - Create draft
	POST   /policies/{id}/endorsements/preview - Price without persisting
	GET    /policies/{id}/endorsements         - List
	POST   /endorsements/{id}/issue            - Issue
	POST   /endorsements/{id}/void             - Void
	POST   /endorsements/{id}/reinstate        - Reinstate (void only)
	DELETE /endorsements/{id}                  - Delete (draft only)

Coverage catalog, document library, subjectivity templates: list/read
endpoints are public, mutations require X-Admin-Key.

Review workflow (requires X-Reviewer-Token except register/queue):

	POST /workflow/register                - Register, returns token
	GET  /workflow/queue                   - Undecided submissions
	POST /workflow/submissions/{id}/claim  - Claim for review
	POST /workflow/submissions/{id}/vote   - Record or update vote
	GET  /workflow/submissions/{id}/summary - Vote tallies
	GET  /workflow/my-work                 - Caller's claims and votes

# Handler Initialization

The router creates handler instances with dependency injection:

	endorsementHandler := handlers.NewEndorsementHandler(db, cfg)
	pricingHandler := handlers.NewPricingHandler(db, cfg, tables)

All handlers receive the database connection and configuration; the
pricing handler additionally receives the loaded rating tables.
*/
package router
