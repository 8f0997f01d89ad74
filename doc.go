// Copyright (c) 2025 Hartline Specialty.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the underwriting portal API server.

The portal backs a cyber-insurance underwriting desk: submission intake and
triage, quoting with tower layers, policy binding and issuance, the
endorsement lifecycle with pro-rata pricing, a coverage catalog, a document
library, and a shared review workflow.

# Starting the Server

The server requires environment variables or CLI flags for configuration:

	DATABASE_URL=postgres://... DATABASE_TYPE=postgres go run main.go

Or with flags:

	go run main.go -p 8480 -t sqlite -d "file:uwportal.db"

A .env file in the working directory is loaded if present.

# Configuration

Required settings:

  - DATABASE_URL (-d): Connection string for the selected driver
  - ADMIN_KEY_SALT (--admin-salt): Secret for the admin key HMAC
  - POLICY_NUMBER_SALT (--policy-salt): Secret for policy number generation

Optional settings:

  - PORT (-p): Server port (default: 8480)
  - DATABASE_TYPE (-t): "sqlite" (default) or "postgres"
  - RATING_CONFIG (-rating): YAML file overriding the built-in rating tables

# Architecture

The server uses a handler-based architecture with dependency injection:

  - handlers: HTTP request handlers (submissions, quotes, policies,
    endorsements, pricing, comparables, coverage, documents, workflow)
  - rating: Endorsement pricing and the annual premium tables
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, admin gate, JSON helpers
  - models: Request/response types and status lifecycles
  - auth: Key, token, and policy number generation
  - db: Schema creation
  - cliparse: Configuration parsing
  - format: Currency and date rendering
  - debounce: Most-recent-wins deferred triggers

See package documentation for each component.
*/
package main
