// Copyright (c) 2025 Hartline Specialty.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/hartline/uwportal/cliparse"
	"github.com/hartline/uwportal/middleware"
	"github.com/hartline/uwportal/models"
)

type DocumentHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewDocumentHandler(db *sql.DB, cfg cliparse.Config) *DocumentHandler {
	return &DocumentHandler{db: db, cfg: cfg}
}

const documentColumns = "id, code, title, doc_type, category, position, status, version, content_template, created_at, updated_at"

func scanDocument(s rowScanner) (models.DocumentEntry, error) {
	var d models.DocumentEntry
	err := s.Scan(&d.ID, &d.Code, &d.Title, &d.DocType, &d.Category,
		&d.Position, &d.Status, &d.Version, &d.ContentTemplate,
		&d.CreatedAt, &d.UpdatedAt)
	return d, err
}

// isUniqueViolation covers both drivers: lib/pq exposes a typed error,
// sqlite reports constraint failures in the message.
func isUniqueViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == "23505"
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// ListEntries handles GET /documents
// Optional ?category= filter.
func (h *DocumentHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	var rows *sql.Rows
	var err error
	if category := r.URL.Query().Get("category"); category != "" {
		rows, err = h.db.Query(`
			SELECT `+documentColumns+` FROM document_entry
			WHERE category = $1 ORDER BY code
		`, category)
	} else {
		rows, err = h.db.Query(`SELECT ` + documentColumns + ` FROM document_entry ORDER BY code`)
	}
	if err != nil {
		slog.Error("failed to query document entries", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	entries := []models.DocumentEntry{}
	for rows.Next() {
		entry, err := scanDocument(rows)
		if err != nil {
			slog.Error("failed to scan document entry", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		entries = append(entries, entry)
	}

	middleware.JSONResponse(w, http.StatusOK, entries)
}

// ListCategories handles GET /documents/categories
func (h *DocumentHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.Query(`SELECT DISTINCT category FROM document_entry ORDER BY category`)
	if err != nil {
		slog.Error("failed to query document categories", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	categories := []string{}
	for rows.Next() {
		var category string
		if err := rows.Scan(&category); err != nil {
			slog.Error("failed to scan document category", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		categories = append(categories, category)
	}

	middleware.JSONResponse(w, http.StatusOK, categories)
}

func validEntryRequest(req models.DocumentEntryRequest) (string, bool) {
	if strings.TrimSpace(req.Code) == "" || strings.TrimSpace(req.Title) == "" {
		return "Code and title are required", false
	}
	if strings.TrimSpace(req.DocType) == "" || strings.TrimSpace(req.Category) == "" {
		return "Document type and category are required", false
	}
	if !models.ValidDocumentPosition(req.Position) {
		return "Position must be primary, excess, or either", false
	}
	return "", true
}

// CreateEntry handles POST /documents
// New entries start in draft at version 1.
func (h *DocumentHandler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	var req models.DocumentEntryRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if msg, ok := validEntryRequest(req); !ok {
		middleware.ErrorResponse(w, http.StatusBadRequest, msg)
		return
	}

	now := time.Now()
	entry := models.DocumentEntry{
		ID:              uuid.NewString(),
		Code:            strings.TrimSpace(req.Code),
		Title:           strings.TrimSpace(req.Title),
		DocType:         req.DocType,
		Category:        req.Category,
		Position:        req.Position,
		Status:          models.DocumentDraft,
		Version:         1,
		ContentTemplate: req.ContentTemplate,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	_, err := h.db.Exec(`
		INSERT INTO document_entry (id, code, title, doc_type, category, position,
			status, version, content_template, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, entry.ID, entry.Code, entry.Title, entry.DocType, entry.Category, entry.Position,
		entry.Status, entry.Version, entry.ContentTemplate, entry.CreatedAt, entry.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			middleware.ErrorResponse(w, http.StatusConflict, "A document with this code already exists")
			return
		}
		slog.Error("failed to insert document entry", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create document")
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, entry)
}

// UpdateEntry handles PUT /documents/{id}
// Only drafts are editable; each edit bumps the version.
func (h *DocumentHandler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	entryID := r.PathValue("id")
	if entryID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "document_id is required")
		return
	}

	var req models.DocumentEntryRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if msg, ok := validEntryRequest(req); !ok {
		middleware.ErrorResponse(w, http.StatusBadRequest, msg)
		return
	}

	var status string
	err := h.db.QueryRow(`SELECT status FROM document_entry WHERE id = $1`, entryID).Scan(&status)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Document not found")
		return
	}
	if err != nil {
		slog.Error("failed to query document entry", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if status != models.DocumentDraft {
		middleware.ErrorResponse(w, http.StatusConflict, "Only draft documents can be edited")
		return
	}

	_, err = h.db.Exec(`
		UPDATE document_entry
		SET code = $1, title = $2, doc_type = $3, category = $4, position = $5,
		    content_template = $6, version = version + 1, updated_at = $7
		WHERE id = $8
	`, strings.TrimSpace(req.Code), strings.TrimSpace(req.Title), req.DocType,
		req.Category, req.Position, req.ContentTemplate, time.Now(), entryID)
	if err != nil {
		if isUniqueViolation(err) {
			middleware.ErrorResponse(w, http.StatusConflict, "A document with this code already exists")
			return
		}
		slog.Error("failed to update document entry", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update document")
		return
	}

	row := h.db.QueryRow(`SELECT `+documentColumns+` FROM document_entry WHERE id = $1`, entryID)
	entry, err := scanDocument(row)
	if err != nil {
		slog.Error("failed to reread document entry", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, entry)
}

// transition moves an entry between statuses after checking the document
// transition table.
func (h *DocumentHandler) transition(w http.ResponseWriter, entryID, to string) {
	var current string
	err := h.db.QueryRow(`SELECT status FROM document_entry WHERE id = $1`, entryID).Scan(&current)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Document not found")
		return
	}
	if err != nil {
		slog.Error("failed to query document entry", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if !models.CanTransitionDocument(current, to) {
		middleware.ErrorResponse(w, http.StatusConflict, "Cannot move document from "+current+" to "+to)
		return
	}

	_, err = h.db.Exec(`
		UPDATE document_entry SET status = $1, updated_at = $2 WHERE id = $3
	`, to, time.Now(), entryID)
	if err != nil {
		slog.Error("failed to transition document entry", "error", err, "document_id", entryID, "to", to)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update document")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, map[string]string{"status": to})
}

// ActivateEntry handles POST /documents/{id}/activate
func (h *DocumentHandler) ActivateEntry(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r.PathValue("id"), models.DocumentActive)
}

// ArchiveEntry handles POST /documents/{id}/archive
// Archived entries stop participating in policy document generation.
func (h *DocumentHandler) ArchiveEntry(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r.PathValue("id"), models.DocumentArchived)
}
