// Copyright (c) 2025 Hartline Specialty.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"encoding/json"
	"time"

	"github.com/hartline/uwportal/rating"
)

// marshalList serializes a string slice for a TEXT column. A nil slice
// stores as an empty JSON array so scans never see NULL surprises.
func marshalList(items []string) string {
	if items == nil {
		items = []string{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return "[]"
	}
	return string(raw)
}

// unmarshalList restores a string slice from a nullable TEXT column.
func unmarshalList(raw *string) []string {
	if raw == nil || *raw == "" {
		return nil
	}
	var items []string
	if err := json.Unmarshal([]byte(*raw), &items); err != nil {
		return nil
	}
	return items
}

// parseDate parses a YYYY-MM-DD request field.
func parseDate(value string) (time.Time, error) {
	return time.Parse(rating.DateLayout, value)
}
