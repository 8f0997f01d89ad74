// Copyright (c) 2025 Hartline Specialty.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http/httptest"
	"testing"

	"github.com/hartline/uwportal/models"
	"github.com/hartline/uwportal/testutil"
)

func createDocumentEntry(t *testing.T, handler *DocumentHandler, code string) models.DocumentEntry {
	t.Helper()

	req := testutil.MakeRequest("POST", "/documents", models.DocumentEntryRequest{
		Code:            code,
		Title:           "Declarations Page",
		DocType:         "form",
		Category:        "declarations",
		Position:        "primary",
		ContentTemplate: "Policy {{policy_number}}",
	}, nil)
	w := httptest.NewRecorder()
	handler.CreateEntry(w, req)
	testutil.AssertStatus(t, w, 201)

	var entry models.DocumentEntry
	testutil.AssertJSON(t, w, &entry)
	return entry
}

func documentAction(t *testing.T, handler *DocumentHandler, id, action string) *httptest.ResponseRecorder {
	t.Helper()

	req := testutil.MakeRequest("POST", "/documents/"+id+"/"+action, nil, nil)
	req.SetPathValue("id", id)
	w := httptest.NewRecorder()
	switch action {
	case "activate":
		handler.ActivateEntry(w, req)
	case "archive":
		handler.ArchiveEntry(w, req)
	}
	return w
}

func TestCreateDocumentEntry(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := NewDocumentHandler(db, testutil.GetTestConfig())

	entry := createDocumentEntry(t, handler, "DEC-100")
	if entry.Status != models.DocumentDraft {
		t.Errorf("status = %q, want draft", entry.Status)
	}
	if entry.Version != 1 {
		t.Errorf("version = %d, want 1", entry.Version)
	}

	// Codes are unique across the library
	req := testutil.MakeRequest("POST", "/documents", models.DocumentEntryRequest{
		Code:     "DEC-100",
		Title:    "Duplicate",
		DocType:  "form",
		Category: "declarations",
		Position: "either",
	}, nil)
	w := httptest.NewRecorder()
	handler.CreateEntry(w, req)
	testutil.AssertStatus(t, w, 409)

	var errResp models.ErrorResponse
	testutil.AssertJSON(t, w, &errResp)
	if errResp.Message != "A document with this code already exists" {
		t.Errorf("unexpected message %q", errResp.Message)
	}
}

func TestCreateDocumentEntryValidation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := NewDocumentHandler(db, testutil.GetTestConfig())

	tests := []struct {
		name    string
		request models.DocumentEntryRequest
		message string
	}{
		{
			name:    "missing code",
			request: models.DocumentEntryRequest{Title: "T", DocType: "form", Category: "c", Position: "either"},
			message: "Code and title are required",
		},
		{
			name:    "missing category",
			request: models.DocumentEntryRequest{Code: "X-1", Title: "T", DocType: "form", Position: "either"},
			message: "Document type and category are required",
		},
		{
			name:    "bad position",
			request: models.DocumentEntryRequest{Code: "X-1", Title: "T", DocType: "form", Category: "c", Position: "tower"},
			message: "Position must be primary, excess, or either",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.MakeRequest("POST", "/documents", tt.request, nil)
			w := httptest.NewRecorder()
			handler.CreateEntry(w, req)

			testutil.AssertStatus(t, w, 400)

			var errResp models.ErrorResponse
			testutil.AssertJSON(t, w, &errResp)
			if errResp.Message != tt.message {
				t.Errorf("message = %q, want %q", errResp.Message, tt.message)
			}
		})
	}
}

func TestUpdateDocumentEntry(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := NewDocumentHandler(db, testutil.GetTestConfig())

	entry := createDocumentEntry(t, handler, "DEC-100")

	update := models.DocumentEntryRequest{
		Code:            "DEC-100",
		Title:           "Declarations Page v2",
		DocType:         "form",
		Category:        "declarations",
		Position:        "either",
		ContentTemplate: "Policy {{policy_number}} for {{insured_name}}",
	}
	req := testutil.MakeRequest("PUT", "/documents/"+entry.ID, update, nil)
	req.SetPathValue("id", entry.ID)
	w := httptest.NewRecorder()
	handler.UpdateEntry(w, req)
	testutil.AssertStatus(t, w, 200)

	var updated models.DocumentEntry
	testutil.AssertJSON(t, w, &updated)
	if updated.Version != 2 {
		t.Errorf("version = %d, want 2 after edit", updated.Version)
	}
	if updated.Title != "Declarations Page v2" {
		t.Errorf("title = %q", updated.Title)
	}

	// Activation freezes the entry
	testutil.AssertStatus(t, documentAction(t, handler, entry.ID, "activate"), 200)

	req = testutil.MakeRequest("PUT", "/documents/"+entry.ID, update, nil)
	req.SetPathValue("id", entry.ID)
	w = httptest.NewRecorder()
	handler.UpdateEntry(w, req)
	testutil.AssertStatus(t, w, 409)

	var errResp models.ErrorResponse
	testutil.AssertJSON(t, w, &errResp)
	if errResp.Message != "Only draft documents can be edited" {
		t.Errorf("unexpected message %q", errResp.Message)
	}
}

func TestDocumentEntryTransitions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := NewDocumentHandler(db, testutil.GetTestConfig())

	entry := createDocumentEntry(t, handler, "END-200")

	// draft cannot be archived directly
	testutil.AssertStatus(t, documentAction(t, handler, entry.ID, "archive"), 409)

	testutil.AssertStatus(t, documentAction(t, handler, entry.ID, "activate"), 200)
	testutil.AssertStatus(t, documentAction(t, handler, entry.ID, "archive"), 200)

	// archived is terminal
	testutil.AssertStatus(t, documentAction(t, handler, entry.ID, "activate"), 409)

	w := documentAction(t, handler, "missing", "activate")
	testutil.AssertStatus(t, w, 404)
}

func TestListDocumentEntries(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := NewDocumentHandler(db, testutil.GetTestConfig())

	createDocumentEntry(t, handler, "DEC-100")

	req := testutil.MakeRequest("POST", "/documents", models.DocumentEntryRequest{
		Code:     "EXC-300",
		Title:    "Excess Follow Form",
		DocType:  "form",
		Category: "wording",
		Position: "excess",
	}, nil)
	w := httptest.NewRecorder()
	handler.CreateEntry(w, req)
	testutil.AssertStatus(t, w, 201)

	req = testutil.MakeRequest("GET", "/documents?category=wording", nil, nil)
	w = httptest.NewRecorder()
	handler.ListEntries(w, req)
	testutil.AssertStatus(t, w, 200)

	var entries []models.DocumentEntry
	testutil.AssertJSON(t, w, &entries)
	if len(entries) != 1 || entries[0].Code != "EXC-300" {
		t.Errorf("category filter returned %d entries", len(entries))
	}

	req = testutil.MakeRequest("GET", "/documents/categories", nil, nil)
	w = httptest.NewRecorder()
	handler.ListCategories(w, req)
	testutil.AssertStatus(t, w, 200)

	var categories []string
	testutil.AssertJSON(t, w, &categories)
	if len(categories) != 2 {
		t.Errorf("categories = %v", categories)
	}
}
