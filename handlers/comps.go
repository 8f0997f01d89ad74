// Copyright (c) 2025 Hartline Specialty.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"sort"
	"strings"

	"github.com/hartline/uwportal/models"
)

// CompFilter narrows a pre-filtered comparable set. Zero values mean the
// dimension is not filtered.
type CompFilter struct {
	Stage          string
	Industry       string
	MinSimilarity  float64
	MinControlsSim float64
}

// Sortable comparable columns.
const (
	SortCompany        = "company"
	SortDate           = "date"
	SortRevenue        = "revenue"
	SortRatePerMillion = "rate-per-million"
	SortLimit          = "limit"
	SortSimilarity     = "similarity"
	SortControlsSim    = "controls-similarity"
)

func ValidSortColumn(column string) bool {
	switch column {
	case SortCompany, SortDate, SortRevenue, SortRatePerMillion,
		SortLimit, SortSimilarity, SortControlsSim:
		return true
	}
	return false
}

// FilterComparables keeps comparables matching every set dimension. The
// industry filter is a case-insensitive substring match.
func FilterComparables(comps []models.Comparable, filter CompFilter) []models.Comparable {
	industry := strings.ToLower(filter.Industry)

	kept := []models.Comparable{}
	for _, c := range comps {
		if filter.Stage != "" && c.Stage != filter.Stage {
			continue
		}
		if industry != "" && !strings.Contains(strings.ToLower(c.Industry), industry) {
			continue
		}
		if c.ExposureSimilarity < filter.MinSimilarity {
			continue
		}
		if c.ControlsSimilarity < filter.MinControlsSim {
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

// SortComparables orders in place by the named column. The sort is stable,
// so rows with equal keys keep their insertion order in either direction.
func SortComparables(comps []models.Comparable, column string, descending bool) {
	less := func(a, b models.Comparable) bool { return false }

	switch column {
	case SortCompany:
		less = func(a, b models.Comparable) bool { return a.Company < b.Company }
	case SortDate:
		less = func(a, b models.Comparable) bool { return a.QuotedAt.Before(b.QuotedAt) }
	case SortRevenue:
		less = func(a, b models.Comparable) bool { return a.Revenue < b.Revenue }
	case SortRatePerMillion:
		less = func(a, b models.Comparable) bool { return a.RatePerMillion < b.RatePerMillion }
	case SortLimit:
		less = func(a, b models.Comparable) bool { return a.Limit < b.Limit }
	case SortSimilarity:
		less = func(a, b models.Comparable) bool { return a.ExposureSimilarity < b.ExposureSimilarity }
	case SortControlsSim:
		less = func(a, b models.Comparable) bool { return a.ControlsSimilarity < b.ControlsSimilarity }
	}

	sort.SliceStable(comps, func(i, j int) bool {
		if descending {
			return less(comps[j], comps[i])
		}
		return less(comps[i], comps[j])
	})
}
