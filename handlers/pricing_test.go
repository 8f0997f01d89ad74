// Copyright (c) 2025 Hartline Specialty.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http/httptest"
	"testing"

	"github.com/hartline/uwportal/models"
	"github.com/hartline/uwportal/rating"
	"github.com/hartline/uwportal/testutil"
)

func testTables(t *testing.T) rating.Tables {
	t.Helper()
	tables, err := rating.LoadTables("")
	if err != nil {
		t.Fatalf("failed to load rating tables: %v", err)
	}
	return tables
}

func TestPricingGrid(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	tables := testTables(t)
	handler := NewPricingHandler(db, cfg, tables)

	submissionID := testutil.CreateTestSubmission(t, db, "Acme Robotics")

	req := testutil.MakeRequest("GET", "/submissions/"+submissionID+"/pricing-grid", nil, nil)
	req.SetPathValue("id", submissionID)
	w := httptest.NewRecorder()
	handler.PricingGrid(w, req)
	testutil.AssertStatus(t, w, 200)

	var cells []models.PricingGridCell
	testutil.AssertJSON(t, w, &cells)
	if len(cells) != len(rating.GridLimits) {
		t.Fatalf("got %d cells, want %d", len(cells), len(rating.GridLimits))
	}

	// The fixture submission has no overrides, so each cell should match a
	// direct table rating at the default retention
	hazard := rating.HazardClass("5415")
	for i, limit := range rating.GridLimits {
		want := tables.AnnualPremium(hazard, 50000000, limit, defaultGridRetention, 0)
		if cells[i].Limit != limit {
			t.Errorf("cells[%d].Limit = %d, want %d", i, cells[i].Limit, limit)
		}
		if cells[i].AnnualPremium != want {
			t.Errorf("cells[%d].AnnualPremium = %d, want %d", i, cells[i].AnnualPremium, want)
		}
	}

	// Premiums should rise with limit
	for i := 1; i < len(cells); i++ {
		if cells[i].AnnualPremium <= cells[i-1].AnnualPremium {
			t.Errorf("premium not increasing: %d then %d", cells[i-1].AnnualPremium, cells[i].AnnualPremium)
		}
	}
}

func TestPricingGridValidation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := NewPricingHandler(db, testutil.GetTestConfig(), testTables(t))

	req := testutil.MakeRequest("GET", "/submissions/missing/pricing-grid", nil, nil)
	req.SetPathValue("id", "missing")
	w := httptest.NewRecorder()
	handler.PricingGrid(w, req)
	testutil.AssertStatus(t, w, 404)

	submissionID := testutil.CreateTestSubmission(t, db, "Acme Robotics")
	req = testutil.MakeRequest("GET", "/submissions/"+submissionID+"/pricing-grid?retention=abc", nil, nil)
	req.SetPathValue("id", submissionID)
	w = httptest.NewRecorder()
	handler.PricingGrid(w, req)
	testutil.AssertStatus(t, w, 400)
}

func TestPricingGridHonorsOverrides(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	tables := testTables(t)
	handler := NewPricingHandler(db, cfg, tables)

	submissionID := testutil.CreateTestSubmission(t, db, "Acme Robotics")
	if _, err := db.Exec(`
		UPDATE submission SET hazard_override = 5, control_adjustment = -0.10 WHERE id = $1
	`, submissionID); err != nil {
		t.Fatalf("failed to set overrides: %v", err)
	}

	req := testutil.MakeRequest("GET", "/submissions/"+submissionID+"/pricing-grid?retention=50000", nil, nil)
	req.SetPathValue("id", submissionID)
	w := httptest.NewRecorder()
	handler.PricingGrid(w, req)
	testutil.AssertStatus(t, w, 200)

	var cells []models.PricingGridCell
	testutil.AssertJSON(t, w, &cells)
	want := tables.AnnualPremium(5, 50000000, rating.GridLimits[0], 50000, -0.10)
	if cells[0].AnnualPremium != want {
		t.Errorf("cells[0].AnnualPremium = %d, want %d with overrides", cells[0].AnnualPremium, want)
	}
}

func TestPricingGuidance(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	tables := testTables(t)
	handler := NewPricingHandler(db, cfg, tables)

	policyID, _, _ := testutil.CreateTestPolicy(t, db, cfg, 36500)

	req := testutil.MakeRequest("GET", "/policies/"+policyID+
		"/pricing-guidance?current_limit=1000000&new_limit=2000000&current_retention=25000&new_retention=25000", nil, nil)
	req.SetPathValue("id", policyID)
	w := httptest.NewRecorder()
	handler.PricingGuidance(w, req)
	testutil.AssertStatus(t, w, 200)

	var resp models.PricingGuidanceResponse
	testutil.AssertJSON(t, w, &resp)

	hazard := rating.HazardClass("5415")
	wantCurrent := tables.AnnualPremium(hazard, 50000000, 1000000, 25000, 0)
	wantProposed := tables.AnnualPremium(hazard, 50000000, 2000000, 25000, 0)
	if resp.CurrentAnnualPremium != wantCurrent {
		t.Errorf("current = %d, want %d", resp.CurrentAnnualPremium, wantCurrent)
	}
	if resp.ProposedAnnualPremium != wantProposed {
		t.Errorf("proposed = %d, want %d", resp.ProposedAnnualPremium, wantProposed)
	}
	if resp.IncrementalAnnual != wantProposed-wantCurrent {
		t.Errorf("incremental = %d", resp.IncrementalAnnual)
	}

	// All four coverage parameters are mandatory
	req = testutil.MakeRequest("GET", "/policies/"+policyID+"/pricing-guidance?current_limit=1000000", nil, nil)
	req.SetPathValue("id", policyID)
	w = httptest.NewRecorder()
	handler.PricingGuidance(w, req)
	testutil.AssertStatus(t, w, 400)
}

func TestRenewalComparison(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewPricingHandler(db, cfg, testTables(t))

	policyID, submissionID, _ := testutil.CreateTestPolicy(t, db, cfg, 36500)
	renewalID := testutil.CreateTestQuote(t, db, submissionID, 42000, false)

	req := testutil.MakeRequest("GET", "/policies/"+policyID+"/renewal-comparison?quote_id="+renewalID, nil, nil)
	req.SetPathValue("id", policyID)
	w := httptest.NewRecorder()
	handler.RenewalComparison(w, req)
	testutil.AssertStatus(t, w, 200)

	var resp models.RenewalComparisonResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.ExpiringPremium != 36500 || resp.ProposedPremium != 42000 {
		t.Errorf("premiums = %d / %d", resp.ExpiringPremium, resp.ProposedPremium)
	}
	if resp.PremiumDelta != 5500 {
		t.Errorf("delta = %d, want 5500", resp.PremiumDelta)
	}
	// Same tower and retention, so the only change line is the premium move
	if len(resp.Changes) != 1 || resp.Changes[0] != "Premium +$5,500" {
		t.Errorf("changes = %v", resp.Changes)
	}
	if resp.ExpiringLimit != 2000000 || resp.ProposedLimit != 2000000 {
		t.Errorf("limits = %d / %d", resp.ExpiringLimit, resp.ProposedLimit)
	}
}

func TestRenewalComparisonRejectsForeignQuote(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewPricingHandler(db, cfg, testTables(t))

	policyID, _, _ := testutil.CreateTestPolicy(t, db, cfg, 36500)
	otherSubmission := testutil.CreateTestSubmission(t, db, "Beta Logistics")
	foreignQuote := testutil.CreateTestQuote(t, db, otherSubmission, 30000, false)

	req := testutil.MakeRequest("GET", "/policies/"+policyID+"/renewal-comparison?quote_id="+foreignQuote, nil, nil)
	req.SetPathValue("id", policyID)
	w := httptest.NewRecorder()
	handler.RenewalComparison(w, req)
	testutil.AssertStatus(t, w, 400)

	var errResp models.ErrorResponse
	testutil.AssertJSON(t, w, &errResp)
	if errResp.Message != "Quote option belongs to a different submission" {
		t.Errorf("unexpected message %q", errResp.Message)
	}

	// Missing quote_id is a validation error, not a lookup miss
	req = testutil.MakeRequest("GET", "/policies/"+policyID+"/renewal-comparison", nil, nil)
	req.SetPathValue("id", policyID)
	w = httptest.NewRecorder()
	handler.RenewalComparison(w, req)
	testutil.AssertStatus(t, w, 400)
}
