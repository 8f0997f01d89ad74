// Copyright (c) 2025 Hartline Specialty.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package format holds the pure display helpers used in generated
// endorsement descriptions and rendered policy documents.
package format

import (
	"fmt"
	"math"
	"time"

	"github.com/dustin/go-humanize"
)

// Currency formats a whole-dollar amount, e.g. $1,234,567 or -$9,000.
func Currency(amount int64) string {
	if amount < 0 {
		return "-$" + humanize.Comma(-amount)
	}
	return "$" + humanize.Comma(amount)
}

// SignedCurrency formats like Currency but keeps an explicit plus sign on
// positive amounts, for premium deltas.
func SignedCurrency(amount int64) string {
	if amount > 0 {
		return "+$" + humanize.Comma(amount)
	}
	return Currency(amount)
}

// CompactCurrency abbreviates to $1.2M / $350K style for dense tables.
func CompactCurrency(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}

	switch {
	case amount >= 1_000_000:
		return sign + "$" + trimTrailingZero(float64(amount)/1_000_000) + "M"
	case amount >= 1_000:
		return sign + "$" + trimTrailingZero(float64(amount)/1_000) + "K"
	default:
		return sign + "$" + humanize.Comma(amount)
	}
}

func trimTrailingZero(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.1f", v)
}

// Date formats a date in US style, e.g. Mar 15, 2026.
func Date(t time.Time) string {
	return t.Format("Jan 2, 2006")
}

// DateTime formats a timestamp in US style with time of day.
func DateTime(t time.Time) string {
	return t.Format("Jan 2, 2006 3:04 PM")
}
