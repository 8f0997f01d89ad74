// Copyright (c) 2025 Hartline Specialty.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/hartline/uwportal/auth"
	"github.com/hartline/uwportal/cliparse"
	"github.com/hartline/uwportal/db"
)

// SetupTestDB creates a fresh SQLite database with the full schema in the
// test's temp directory. The single connection keeps the driver honest
// about transactional tests.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "uwportal_test.db")
	conn, err := sql.Open("sqlite", db.SQLiteDSN("file:"+path))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:             8480,
		DatabaseURL:      "file:test.db",
		DatabaseType:     cliparse.DatabaseSQLite,
		AdminKeySalt:     "test-admin-salt",
		PolicyNumberSalt: "test-policy-salt",
	}
}

// AdminKey returns the admin key matching GetTestConfig.
func AdminKey(cfg cliparse.Config) string {
	return auth.GenerateAdminKey(cfg.AdminKeySalt)
}

// CreateTestSubmission inserts a submission and returns its ID.
func CreateTestSubmission(t *testing.T, conn *sql.DB, applicantName string) string {
	t.Helper()

	submissionID := uuid.NewString()
	_, err := conn.Exec(`
		INSERT INTO submission (id, applicant_name, revenue, naics_code, naics_title, created_at)
		VALUES ($1, $2, 50000000, '5415', 'Computer Systems Design', $3)
	`, submissionID, applicantName, time.Now())
	if err != nil {
		t.Fatalf("Failed to create test submission: %v", err)
	}

	return submissionID
}

// CreateTestQuote inserts a quote option with a single primary layer and
// returns the quote ID.
func CreateTestQuote(t *testing.T, conn *sql.DB, submissionID string, soldPremium int64, bound bool) string {
	t.Helper()

	quoteID := uuid.NewString()
	effective := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := conn.Exec(`
		INSERT INTO quote_option (id, submission_id, retention, policy_form,
			effective_date, expiration_date, sold_premium, risk_adjusted_premium, bound, created_at)
		VALUES ($1, $2, 25000, 'primary-form-a', $3, $4, $5, $5, $6, $7)
	`, quoteID, submissionID, effective, effective.AddDate(1, 0, 0), soldPremium, bound, time.Now())
	if err != nil {
		t.Fatalf("Failed to create test quote: %v", err)
	}

	_, err = conn.Exec(`
		INSERT INTO tower_layer (id, quote_id, position, carrier, limit_amount, attachment, premium)
		VALUES ($1, $2, 0, 'Hartline', 2000000, 0, $3)
	`, uuid.NewString(), quoteID, soldPremium)
	if err != nil {
		t.Fatalf("Failed to create test tower layer: %v", err)
	}

	return quoteID
}

// CreateTestPolicy inserts a bound policy over a fresh submission and quote.
// The policy year runs 2026-01-01 through 2027-01-01.
func CreateTestPolicy(t *testing.T, conn *sql.DB, cfg cliparse.Config, basePremium int64) (policyID, submissionID, quoteID string) {
	t.Helper()

	submissionID = CreateTestSubmission(t, conn, "Test Applicant")
	quoteID = CreateTestQuote(t, conn, submissionID, basePremium, true)

	policyID = uuid.NewString()
	effective := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := conn.Exec(`
		INSERT INTO policy (id, submission_id, quote_id, policy_number, base_premium,
			effective_date, expiration_date, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'bound', $8)
	`, policyID, submissionID, quoteID, auth.GeneratePolicyNumber(policyID, cfg.PolicyNumberSalt),
		basePremium, effective, effective.AddDate(1, 0, 0), time.Now())
	if err != nil {
		t.Fatalf("Failed to create test policy: %v", err)
	}

	return policyID, submissionID, quoteID
}

// CreateTestEndorsement inserts an endorsement in the given status and
// returns its ID.
func CreateTestEndorsement(t *testing.T, conn *sql.DB, policyID, status string, premiumChange int64) string {
	t.Helper()

	endorsementID := uuid.NewString()
	var issuedAt *time.Time
	if status == "issued" || status == "void" {
		now := time.Now()
		issuedAt = &now
	}
	var voidedAt *time.Time
	if status == "void" {
		now := time.Now()
		voidedAt = &now
	}

	_, err := conn.Exec(`
		INSERT INTO endorsement (id, policy_id, type, effective_date, description,
			premium_change, status, created_at, issued_at, voided_at)
		VALUES ($1, $2, 'other', $3, 'Test endorsement', $4, $5, $6, $7, $8)
	`, endorsementID, policyID, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		premiumChange, status, time.Now(), issuedAt, voidedAt)
	if err != nil {
		t.Fatalf("Failed to create test endorsement: %v", err)
	}

	return endorsementID
}

// CreateTestSubjectivity inserts a subjectivity and returns its ID.
func CreateTestSubjectivity(t *testing.T, conn *sql.DB, policyID, status string) string {
	t.Helper()

	subjectivityID := uuid.NewString()
	var resolvedAt *time.Time
	if status != "pending" {
		now := time.Now()
		resolvedAt = &now
	}
	_, err := conn.Exec(`
		INSERT INTO subjectivity (id, policy_id, text, status, created_at, resolved_at)
		VALUES ($1, $2, 'Signed application', $3, $4, $5)
	`, subjectivityID, policyID, status, time.Now(), resolvedAt)
	if err != nil {
		t.Fatalf("Failed to create test subjectivity: %v", err)
	}

	return subjectivityID
}

// CreateTestReviewer registers a reviewer directly and returns its token.
func CreateTestReviewer(t *testing.T, conn *sql.DB, name string) string {
	t.Helper()

	token, err := auth.GenerateReviewerToken()
	if err != nil {
		t.Fatalf("Failed to generate reviewer token: %v", err)
	}
	_, err = conn.Exec(`
		INSERT INTO reviewer (id, name, token, created_at)
		VALUES ($1, $2, $3, $4)
	`, uuid.NewString(), name, token, time.Now())
	if err != nil {
		t.Fatalf("Failed to create test reviewer: %v", err)
	}

	return token
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
