// Copyright (c) 2025 Hartline Specialty.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP plumbing shared by all handlers.

  - WithLogging: slog request/completion logging
  - RequireAdmin: X-Admin-Key validation for underwriting mutations
  - JSONResponse / ErrorResponse: canonical response encoding
  - ParseJSONBody: request body decoding
  - CORS: cross-origin support for the browser frontend
  - GetClientIP: proxy-aware client address extraction
*/
package middleware
