// Copyright (c) 2025 Hartline Specialty.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines the request, response, and domain types shared across
the portal API, along with the status lifecycles of every status-bearing
entity.

# Lifecycles

Each lifecycle is expressed as a central transition table consulted by the
handlers, so the legal moves live in one place:

  - Endorsement: draft → {issued, deleted}; issued → {void}; void → {issued}
  - Coverage mapping: pending → {approved, rejected}; rejected → {pending, deleted}
  - Document entry: draft → active → archived

Subjectivities (pending → received|waived) have no branching beyond a single
resolution step and are checked inline.

# Conventions

Monetary amounts are whole dollars in int64. Signed amounts (endorsement
premium change) are negative for return premium. Optional columns map to
pointer fields and are omitted from JSON when nil.
*/
package models
