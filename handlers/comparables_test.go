// Copyright (c) 2025 Hartline Specialty.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hartline/uwportal/models"
	"github.com/hartline/uwportal/testutil"
)

type compRow struct {
	company    string
	revenue    int64
	layer      string
	attachment int64
	similarity float64
	stage      string
	quotedAgo  int // days before now
}

func insertComparable(t *testing.T, db *sql.DB, submissionID string, row compRow) {
	t.Helper()

	_, err := db.Exec(`
		INSERT INTO comparable (id, submission_id, company, industry, revenue, layer,
			limit_amount, attachment, rate_per_million, exposure_similarity,
			controls_similarity, stage, quoted_at)
		VALUES ($1, $2, $3, 'Technology', $4, $5, 2000000, $6, 4500, $7, 0.8, $8, $9)
	`, uuid.NewString(), submissionID, row.company, row.revenue, row.layer,
		row.attachment, row.similarity, row.stage, time.Now().AddDate(0, 0, -row.quotedAgo))
	if err != nil {
		t.Fatalf("failed to insert comparable: %v", err)
	}
}

func TestListComparables(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := NewComparableHandler(db, testutil.GetTestConfig())

	// Fixture submission revenue is 50M; default tolerance keeps 25M-75M
	submissionID := testutil.CreateTestSubmission(t, db, "Acme Robotics")

	insertComparable(t, db, submissionID, compRow{
		company: "Close Match", revenue: 48_000_000, layer: "primary",
		attachment: 0, similarity: 0.9, stage: "bound", quotedAgo: 30})
	insertComparable(t, db, submissionID, compRow{
		company: "Too Big", revenue: 200_000_000, layer: "primary",
		attachment: 0, similarity: 0.9, stage: "bound", quotedAgo: 30})
	insertComparable(t, db, submissionID, compRow{
		company: "Stale Quote", revenue: 48_000_000, layer: "primary",
		attachment: 0, similarity: 0.9, stage: "bound", quotedAgo: 700})
	insertComparable(t, db, submissionID, compRow{
		company: "Excess Layer", revenue: 52_000_000, layer: "excess",
		attachment: 2_000_000, similarity: 0.6, stage: "quoted", quotedAgo: 30})

	list := func(query string) []models.Comparable {
		req := testutil.MakeRequest("GET", "/submissions/"+submissionID+"/comparables"+query, nil, nil)
		req.SetPathValue("id", submissionID)
		w := httptest.NewRecorder()
		handler.ListComparables(w, req)
		testutil.AssertStatus(t, w, 200)
		var comps []models.Comparable
		testutil.AssertJSON(t, w, &comps)
		return comps
	}

	// Revenue tolerance and quote-date window drop Too Big and Stale Quote
	if got := list(""); len(got) != 2 {
		t.Errorf("default listing returned %d comparables, want 2", len(got))
	}
	if got := list("?layer=excess"); len(got) != 1 || got[0].Company != "Excess Layer" {
		t.Errorf("layer filter returned %d comparables", len(got))
	}
	if got := list("?min_similarity=0.8"); len(got) != 1 || got[0].Company != "Close Match" {
		t.Errorf("similarity filter returned %d comparables", len(got))
	}
	if got := list("?stage=quoted"); len(got) != 1 || got[0].Company != "Excess Layer" {
		t.Errorf("stage filter returned %d comparables", len(got))
	}
	if got := list("?attachment_min=1000000"); len(got) != 1 || got[0].Company != "Excess Layer" {
		t.Errorf("attachment filter returned %d comparables", len(got))
	}

	// Wider tolerance and window pull the outliers back in
	if got := list("?revenue_tolerance=5&days=1000"); len(got) != 4 {
		t.Errorf("widened listing returned %d comparables, want 4", len(got))
	}

	// Sorted by company ascending
	got := list("?revenue_tolerance=5&sort=company")
	if len(got) != 3 || got[0].Company != "Close Match" || got[2].Company != "Too Big" {
		t.Errorf("sorted listing = %+v", got)
	}
}

func TestListComparablesValidation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := NewComparableHandler(db, testutil.GetTestConfig())

	submissionID := testutil.CreateTestSubmission(t, db, "Acme Robotics")

	tests := []struct {
		name  string
		id    string
		query string
		want  int
	}{
		{"unknown submission", "missing", "", 404},
		{"bad days", submissionID, "?days=-5", 400},
		{"bad tolerance", submissionID, "?revenue_tolerance=lots", 400},
		{"bad sort column", submissionID, "?sort=premium", 400},
		{"bad min similarity", submissionID, "?min_similarity=high", 400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.MakeRequest("GET", "/submissions/"+tt.id+"/comparables"+tt.query, nil, nil)
			req.SetPathValue("id", tt.id)
			w := httptest.NewRecorder()
			handler.ListComparables(w, req)
			testutil.AssertStatus(t, w, tt.want)
		})
	}
}
