// Copyright (c) 2025 Hartline Specialty.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hartline/uwportal/models"
	"github.com/hartline/uwportal/testutil"
)

func createMapping(t *testing.T, handler *CoverageHandler, carrier, text string, tags []string) models.CoverageMapping {
	t.Helper()

	req := testutil.MakeRequest("POST", "/coverage", models.CreateCoverageMappingRequest{
		Carrier:        carrier,
		OriginalText:   text,
		NormalizedTags: tags,
	}, nil)
	w := httptest.NewRecorder()
	handler.CreateMapping(w, req)
	testutil.AssertStatus(t, w, 201)

	var mapping models.CoverageMapping
	testutil.AssertJSON(t, w, &mapping)
	return mapping
}

func mappingAction(t *testing.T, handler *CoverageHandler, id, action string) *httptest.ResponseRecorder {
	t.Helper()

	req := testutil.MakeRequest("POST", "/coverage/"+id+"/"+action, nil, nil)
	req.SetPathValue("id", id)
	w := httptest.NewRecorder()
	switch action {
	case "approve":
		handler.ApproveMapping(w, req)
	case "reject":
		handler.RejectMapping(w, req)
	case "reset":
		handler.ResetMapping(w, req)
	}
	return w
}

func TestCoverageMappingLifecycle(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := NewCoverageHandler(db, testutil.GetTestConfig())

	mapping := createMapping(t, handler, "Resecure Re", "Cyber extortion and ransom payments", []string{"extortion"})
	if mapping.Status != models.CoveragePending {
		t.Errorf("new mapping status = %q, want pending", mapping.Status)
	}

	// pending -> rejected -> pending -> approved
	testutil.AssertStatus(t, mappingAction(t, handler, mapping.ID, "reject"), 200)
	testutil.AssertStatus(t, mappingAction(t, handler, mapping.ID, "reset"), 200)
	testutil.AssertStatus(t, mappingAction(t, handler, mapping.ID, "approve"), 200)

	// approved is terminal for curation actions
	w := mappingAction(t, handler, mapping.ID, "reject")
	testutil.AssertStatus(t, w, 409)

	var reviewedAt *string
	if err := db.QueryRow(`SELECT reviewed_at FROM coverage_mapping WHERE id = $1`, mapping.ID).Scan(&reviewedAt); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if reviewedAt == nil {
		t.Error("reviewed_at not set on approval")
	}
}

func TestDeleteMappingRequiresRejected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := NewCoverageHandler(db, testutil.GetTestConfig())

	mapping := createMapping(t, handler, "Resecure Re", "Social engineering fraud", nil)

	del := func() *httptest.ResponseRecorder {
		req := testutil.MakeRequest("DELETE", "/coverage/"+mapping.ID, nil, nil)
		req.SetPathValue("id", mapping.ID)
		w := httptest.NewRecorder()
		handler.DeleteMapping(w, req)
		return w
	}

	w := del()
	testutil.AssertStatus(t, w, 409)
	var errResp models.ErrorResponse
	testutil.AssertJSON(t, w, &errResp)
	if errResp.Message != "Only rejected mappings can be deleted" {
		t.Errorf("unexpected message %q", errResp.Message)
	}

	testutil.AssertStatus(t, mappingAction(t, handler, mapping.ID, "reject"), 200)
	testutil.AssertStatus(t, del(), 204)

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM coverage_mapping`).Scan(&count); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if count != 0 {
		t.Error("mapping still present after delete")
	}
}

func TestCoverageStats(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := NewCoverageHandler(db, testutil.GetTestConfig())

	a := createMapping(t, handler, "Resecure Re", "Network interruption", nil)
	createMapping(t, handler, "Northgate", "Dependent business interruption", nil)
	testutil.AssertStatus(t, mappingAction(t, handler, a.ID, "approve"), 200)

	// Let the debounced recompute settle, then the cached snapshot should
	// reflect every mutation above
	time.Sleep(500 * time.Millisecond)

	req := testutil.MakeRequest("GET", "/coverage/stats", nil, nil)
	w := httptest.NewRecorder()
	handler.GetStats(w, req)
	testutil.AssertStatus(t, w, 200)

	var stats models.CoverageStats
	testutil.AssertJSON(t, w, &stats)
	if stats.Total != 2 {
		t.Errorf("total = %d, want 2", stats.Total)
	}
	if stats.Approved != 1 || stats.Pending != 1 {
		t.Errorf("approved = %d, pending = %d", stats.Approved, stats.Pending)
	}
	if stats.Carriers != 2 {
		t.Errorf("carriers = %d, want 2", stats.Carriers)
	}
}

func TestCoverageStatsLazyFirstCompute(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := NewCoverageHandler(db, testutil.GetTestConfig())

	// No mutations yet, so the first read computes from scratch
	req := testutil.MakeRequest("GET", "/coverage/stats", nil, nil)
	w := httptest.NewRecorder()
	handler.GetStats(w, req)
	testutil.AssertStatus(t, w, 200)

	var stats models.CoverageStats
	testutil.AssertJSON(t, w, &stats)
	if stats.Total != 0 {
		t.Errorf("total = %d, want 0", stats.Total)
	}
	if stats.ComputedAt.IsZero() {
		t.Error("computed_at not set")
	}
}

func TestCoverageLookupAndTags(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := NewCoverageHandler(db, testutil.GetTestConfig())

	a := createMapping(t, handler, "Resecure Re", "Cyber extortion and ransom payments", []string{"extortion", "ransomware"})
	b := createMapping(t, handler, "Resecure Re", "Funds transfer fraud", []string{"fraud"})
	createMapping(t, handler, "Northgate", "Cyber extortion coverage", []string{"extortion"})
	testutil.AssertStatus(t, mappingAction(t, handler, a.ID, "approve"), 200)
	testutil.AssertStatus(t, mappingAction(t, handler, b.ID, "approve"), 200)

	// carrier is mandatory
	req := testutil.MakeRequest("GET", "/coverage/lookup", nil, nil)
	w := httptest.NewRecorder()
	handler.Lookup(w, req)
	testutil.AssertStatus(t, w, 400)

	req = testutil.MakeRequest("GET", "/coverage/lookup?carrier=Resecure+Re&q=EXTORTION", nil, nil)
	w = httptest.NewRecorder()
	handler.Lookup(w, req)
	testutil.AssertStatus(t, w, 200)

	var mappings []models.CoverageMapping
	testutil.AssertJSON(t, w, &mappings)
	if len(mappings) != 1 || mappings[0].ID != a.ID {
		t.Errorf("lookup returned %d mappings", len(mappings))
	}

	// Tag counts only cover approved mappings, so the pending Northgate
	// extortion row does not contribute
	req = testutil.MakeRequest("GET", "/coverage/tags", nil, nil)
	w = httptest.NewRecorder()
	handler.GetTags(w, req)
	testutil.AssertStatus(t, w, 200)

	var counts map[string]int
	testutil.AssertJSON(t, w, &counts)
	if counts["extortion"] != 1 || counts["fraud"] != 1 {
		t.Errorf("tag counts = %v", counts)
	}

	// Pending queue holds just the unreviewed mapping
	req = testutil.MakeRequest("GET", "/coverage/pending", nil, nil)
	w = httptest.NewRecorder()
	handler.GetPending(w, req)
	testutil.AssertStatus(t, w, 200)

	mappings = nil
	testutil.AssertJSON(t, w, &mappings)
	if len(mappings) != 1 {
		t.Errorf("pending queue has %d mappings, want 1", len(mappings))
	}

	req = testutil.MakeRequest("GET", "/coverage/carriers", nil, nil)
	w = httptest.NewRecorder()
	handler.GetCarriers(w, req)
	testutil.AssertStatus(t, w, 200)

	var carriers []string
	testutil.AssertJSON(t, w, &carriers)
	if len(carriers) != 2 {
		t.Errorf("carriers = %v", carriers)
	}
}

func TestUpdateCoverageTags(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := NewCoverageHandler(db, testutil.GetTestConfig())

	mapping := createMapping(t, handler, "Resecure Re", "Media liability", []string{"media"})

	req := testutil.MakeRequest("PUT", "/coverage/"+mapping.ID+"/tags",
		models.UpdateCoverageTagsRequest{NormalizedTags: []string{"media-liability", "defamation"}}, nil)
	req.SetPathValue("id", mapping.ID)
	w := httptest.NewRecorder()
	handler.UpdateTags(w, req)
	testutil.AssertStatus(t, w, 204)

	var raw string
	if err := db.QueryRow(`SELECT normalized_tags FROM coverage_mapping WHERE id = $1`, mapping.ID).Scan(&raw); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if raw != `["media-liability","defamation"]` {
		t.Errorf("stored tags = %s", raw)
	}

	req = testutil.MakeRequest("PUT", "/coverage/missing/tags",
		models.UpdateCoverageTagsRequest{NormalizedTags: []string{"x"}}, nil)
	req.SetPathValue("id", "missing")
	w = httptest.NewRecorder()
	handler.UpdateTags(w, req)
	testutil.AssertStatus(t, w, 404)
}
