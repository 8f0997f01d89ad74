// Copyright (c) 2025 Hartline Specialty.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides key and token primitives for the portal API.

# Admin Key

Underwriting mutations (binding, issuing, catalog and library curation)
require the X-Admin-Key header. The key is an HMAC over a fixed label keyed
by ADMIN_KEY_SALT, so it is derived, never stored:

	key := auth.GenerateAdminKey(cfg.AdminKeySalt)
	err := auth.ValidateAdminKey(header, cfg.AdminKeySalt)

# Reviewer Tokens

Workflow reviewers register once and receive a random 192-bit token,
presented via X-Reviewer-Token on claim/vote/my-work calls.

# Policy Numbers

Policy numbers are deterministic HMAC-derived base62 strings with a CYB-
prefix, stable for a given policy ID and salt.
*/
package auth
