// Copyright (c) 2025 Hartline Specialty.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hartline/uwportal/models"
	"github.com/hartline/uwportal/testutil"
)

func TestCreateQuote(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewQuoteHandler(db, cfg)

	submissionID := testutil.CreateTestSubmission(t, db, "Acme Robotics")

	req := testutil.MakeRequest("POST", "/submissions/"+submissionID+"/quotes", models.CreateQuoteRequest{
		Retention:      50000,
		PolicyForm:     "primary-form-a",
		EffectiveDate:  "2026-04-01",
		ExpirationDate: "2027-04-01",
		SoldPremium:    42000,
		RiskAdjusted:   45000,
		Layers: []models.TowerLayerInput{
			{Carrier: "Hartline", Limit: 2000000, Attachment: 0, Premium: 30000},
			{Carrier: "Resecure Re", Limit: 3000000, Attachment: 2000000, Premium: 12000},
		},
	}, nil)
	req.SetPathValue("id", submissionID)
	w := httptest.NewRecorder()
	handler.CreateQuote(w, req)
	testutil.AssertStatus(t, w, 201)

	var created models.CreateQuoteResponse
	testutil.AssertJSON(t, w, &created)

	req = testutil.MakeRequest("GET", "/submissions/"+submissionID+"/quotes", nil, nil)
	req.SetPathValue("id", submissionID)
	w = httptest.NewRecorder()
	handler.ListQuotes(w, req)
	testutil.AssertStatus(t, w, 200)

	var quotes []models.QuoteOption
	testutil.AssertJSON(t, w, &quotes)
	if len(quotes) != 1 {
		t.Fatalf("got %d quotes, want 1", len(quotes))
	}
	if len(quotes[0].Layers) != 2 {
		t.Fatalf("got %d layers, want 2", len(quotes[0].Layers))
	}
	if quotes[0].Layers[1].Attachment != 2000000 {
		t.Errorf("layer order not preserved: %+v", quotes[0].Layers)
	}
	if quotes[0].Bound {
		t.Error("new quote should start unbound")
	}
}

func TestCreateQuoteValidation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewQuoteHandler(db, cfg)

	submissionID := testutil.CreateTestSubmission(t, db, "Acme Robotics")
	layer := []models.TowerLayerInput{{Carrier: "Hartline", Limit: 1000000, Premium: 10000}}

	tests := []struct {
		name    string
		id      string
		request models.CreateQuoteRequest
		status  int
	}{
		{
			name: "missing policy form",
			id:   submissionID,
			request: models.CreateQuoteRequest{
				EffectiveDate: "2026-04-01", ExpirationDate: "2027-04-01", Layers: layer,
			},
			status: 400,
		},
		{
			name: "no layers",
			id:   submissionID,
			request: models.CreateQuoteRequest{
				PolicyForm: "primary-form-a", EffectiveDate: "2026-04-01", ExpirationDate: "2027-04-01",
			},
			status: 400,
		},
		{
			name: "expiration before effective",
			id:   submissionID,
			request: models.CreateQuoteRequest{
				PolicyForm: "primary-form-a", EffectiveDate: "2027-04-01", ExpirationDate: "2026-04-01", Layers: layer,
			},
			status: 400,
		},
		{
			name: "unknown submission",
			id:   "missing",
			request: models.CreateQuoteRequest{
				PolicyForm: "primary-form-a", EffectiveDate: "2026-04-01", ExpirationDate: "2027-04-01", Layers: layer,
			},
			status: 404,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.MakeRequest("POST", "/submissions/"+tt.id+"/quotes", tt.request, nil)
			req.SetPathValue("id", tt.id)
			w := httptest.NewRecorder()
			handler.CreateQuote(w, req)
			testutil.AssertStatus(t, w, tt.status)
		})
	}
}

func TestBindQuote(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewQuoteHandler(db, cfg)

	// Templates for both placements; the primary bind should only pick up
	// primary and either
	for _, tpl := range []struct{ text, position string }{
		{"Signed application", "either"},
		{"Primary wording review", "primary"},
		{"Underlying schedule", "excess"},
	} {
		_, err := db.Exec(`
			INSERT INTO subjectivity_template (id, text, position, created_at)
			VALUES ($1, $2, $3, $4)
		`, uuid.NewString(), tpl.text, tpl.position, time.Now())
		if err != nil {
			t.Fatalf("failed to insert template: %v", err)
		}
	}

	submissionID := testutil.CreateTestSubmission(t, db, "Acme Robotics")
	quoteID := testutil.CreateTestQuote(t, db, submissionID, 42000, false)
	siblingID := testutil.CreateTestQuote(t, db, submissionID, 39000, false)

	req := testutil.MakeRequest("POST", "/quotes/"+quoteID+"/bind", nil, nil)
	req.SetPathValue("id", quoteID)
	w := httptest.NewRecorder()
	handler.BindQuote(w, req)
	testutil.AssertStatus(t, w, 200)

	var resp models.BindQuoteResponse
	testutil.AssertJSON(t, w, &resp)
	if !strings.HasPrefix(resp.PolicyNumber, "CYB-") {
		t.Errorf("policy number %q missing CYB- prefix", resp.PolicyNumber)
	}

	var basePremium int64
	var status string
	err := db.QueryRow(`SELECT base_premium, status FROM policy WHERE id = $1`, resp.PolicyID).Scan(&basePremium, &status)
	if err != nil {
		t.Fatalf("policy not materialized: %v", err)
	}
	if basePremium != 42000 {
		t.Errorf("base_premium = %d, want 42000", basePremium)
	}
	if status != models.PolicyBound {
		t.Errorf("status = %q, want bound", status)
	}

	var siblingBound bool
	if err := db.QueryRow(`SELECT bound FROM quote_option WHERE id = $1`, siblingID).Scan(&siblingBound); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if siblingBound {
		t.Error("sibling quote should remain unbound")
	}

	subjectivities, err := loadSubjectivities(db, resp.PolicyID)
	if err != nil {
		t.Fatalf("failed to load subjectivities: %v", err)
	}
	if len(subjectivities) != 2 {
		t.Fatalf("seeded %d subjectivities, want 2 (primary + either)", len(subjectivities))
	}
	for _, s := range subjectivities {
		if s.Status != models.SubjectivityPending {
			t.Errorf("seeded subjectivity status = %q, want pending", s.Status)
		}
		if s.Text == "Underlying schedule" {
			t.Error("excess-only template seeded on a primary placement")
		}
	}
}

func TestBindQuoteConflicts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewQuoteHandler(db, cfg)

	submissionID := testutil.CreateTestSubmission(t, db, "Acme Robotics")
	quoteID := testutil.CreateTestQuote(t, db, submissionID, 42000, false)

	bind := func(id string) *httptest.ResponseRecorder {
		req := testutil.MakeRequest("POST", "/quotes/"+id+"/bind", nil, nil)
		req.SetPathValue("id", id)
		w := httptest.NewRecorder()
		handler.BindQuote(w, req)
		return w
	}

	testutil.AssertStatus(t, bind(quoteID), 200)

	w := bind(quoteID)
	testutil.AssertStatus(t, w, 409)
	var errResp models.ErrorResponse
	testutil.AssertJSON(t, w, &errResp)
	if errResp.Message != "Quote is already bound" {
		t.Errorf("unexpected message %q", errResp.Message)
	}

	// A second option on the same submission cannot bind while the policy exists
	otherID := testutil.CreateTestQuote(t, db, submissionID, 39000, false)
	w = bind(otherID)
	testutil.AssertStatus(t, w, 409)
	testutil.AssertJSON(t, w, &errResp)
	if errResp.Message != "Submission already has a bound policy" {
		t.Errorf("unexpected message %q", errResp.Message)
	}
}

func TestUnbindQuote(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewQuoteHandler(db, cfg)

	policyID, _, quoteID := testutil.CreateTestPolicy(t, db, cfg, 36500)

	// The policy delete must take its dependents with it
	testutil.CreateTestEndorsement(t, db, policyID, "issued", 5000)
	testutil.CreateTestSubjectivity(t, db, policyID, "pending")
	entryID := uuid.NewString()
	if _, err := db.Exec(`
		INSERT INTO document_entry (id, code, title, doc_type, category, position,
			content_template, status, version, created_at, updated_at)
		VALUES ($1, 'DEC-100', 'Declarations', 'form', 'declarations', 'either', 'Body', 'active', 1, $2, $2)
	`, entryID, time.Now()); err != nil {
		t.Fatalf("failed to insert document entry: %v", err)
	}
	if _, err := db.Exec(`
		INSERT INTO generated_document (id, policy_id, entry_id, title, content, generated_at)
		VALUES ($1, $2, $3, 'Declarations', 'Body', $4)
	`, uuid.NewString(), policyID, entryID, time.Now()); err != nil {
		t.Fatalf("failed to insert generated document: %v", err)
	}

	req := testutil.MakeRequest("POST", "/quotes/"+quoteID+"/unbind", nil, nil)
	req.SetPathValue("id", quoteID)
	w := httptest.NewRecorder()
	handler.UnbindQuote(w, req)
	testutil.AssertStatus(t, w, 204)

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM policy WHERE id = $1`, policyID).Scan(&count); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if count != 0 {
		t.Error("policy still present after unbind")
	}

	for _, table := range []string{"endorsement", "subjectivity", "generated_document"} {
		if err := db.QueryRow(`SELECT COUNT(*) FROM `+table+` WHERE policy_id = $1`, policyID).Scan(&count); err != nil {
			t.Fatalf("query failed: %v", err)
		}
		if count != 0 {
			t.Errorf("%s rows left behind after unbind: %d", table, count)
		}
	}

	var bound bool
	if err := db.QueryRow(`SELECT bound FROM quote_option WHERE id = $1`, quoteID).Scan(&bound); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if bound {
		t.Error("quote still bound after unbind")
	}

	// Unbinding again conflicts
	w = httptest.NewRecorder()
	req = testutil.MakeRequest("POST", "/quotes/"+quoteID+"/unbind", nil, nil)
	req.SetPathValue("id", quoteID)
	handler.UnbindQuote(w, req)
	testutil.AssertStatus(t, w, 409)
}

func TestUnbindIssuedPolicyConflicts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewQuoteHandler(db, cfg)

	policyID, _, quoteID := testutil.CreateTestPolicy(t, db, cfg, 36500)
	if _, err := db.Exec(`UPDATE policy SET status = 'issued', issued_at = $1 WHERE id = $2`, time.Now(), policyID); err != nil {
		t.Fatalf("failed to issue policy: %v", err)
	}

	req := testutil.MakeRequest("POST", "/quotes/"+quoteID+"/unbind", nil, nil)
	req.SetPathValue("id", quoteID)
	w := httptest.NewRecorder()
	handler.UnbindQuote(w, req)
	testutil.AssertStatus(t, w, 409)

	var errResp models.ErrorResponse
	testutil.AssertJSON(t, w, &errResp)
	if errResp.Message != "Cannot unbind an issued policy" {
		t.Errorf("unexpected message %q", errResp.Message)
	}
}
