// Copyright (c) 2025 Hartline Specialty.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package rating contains the portal's premium arithmetic: endorsement pricing
and the annual rating plan. Everything here is a pure function of explicit
dates, rates, and payloads; there is no database or HTTP dependency, so the
whole package is unit-testable in isolation.

# Endorsement Pricing

Compute takes a tagged Input (one payload per endorsement type) and returns
the signed premium change plus a generated description:

	out, err := rating.Compute(rating.Input{
		Type:             rating.TypeCancellation,
		PolicyExpiration: expiration,
		AnnualRate:       36500,
		Cancellation:     &models.CancellationDetails{...},
	})

Validation failures are *ValidationError values with a field name and a
message intended for verbatim display.

The shared pro-rata rule is round(rate * days / 365). Day counts use
DaysBetween, which normalizes both dates to midnight UTC and counts whole
calendar days, so local-time DST offsets can never skew the count.

# Rating Plan

Tables produces an annual premium from hazard class, revenue, limit, and
retention. The plan loads from YAML (RATING_CONFIG) over built-in defaults
and backs the submission pricing grid and the coverage-change pricing
guidance lookup.
*/
package rating
