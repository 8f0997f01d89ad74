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

	"github.com/hartline/uwportal/cliparse"
	"github.com/hartline/uwportal/middleware"
	"github.com/hartline/uwportal/models"
)

type SubjectivityHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewSubjectivityHandler(db *sql.DB, cfg cliparse.Config) *SubjectivityHandler {
	return &SubjectivityHandler{db: db, cfg: cfg}
}

// AddSubjectivity handles POST /policies/{id}/subjectivities
func (h *SubjectivityHandler) AddSubjectivity(w http.ResponseWriter, r *http.Request) {
	policyID := r.PathValue("id")
	if policyID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "policy_id is required")
		return
	}

	var req models.AddSubjectivityRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Subjectivity text is required")
		return
	}

	var exists int
	err := h.db.QueryRow(`SELECT COUNT(*) FROM policy WHERE id = $1`, policyID).Scan(&exists)
	if err != nil {
		slog.Error("failed to query policy", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if exists == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "Policy not found")
		return
	}

	subjectivity := models.Subjectivity{
		ID:        uuid.NewString(),
		PolicyID:  policyID,
		Text:      strings.TrimSpace(req.Text),
		Status:    models.SubjectivityPending,
		CreatedAt: time.Now(),
	}
	_, err = h.db.Exec(`
		INSERT INTO subjectivity (id, policy_id, text, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, subjectivity.ID, subjectivity.PolicyID, subjectivity.Text,
		subjectivity.Status, subjectivity.CreatedAt)
	if err != nil {
		slog.Error("failed to insert subjectivity", "error", err, "policy_id", policyID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to add subjectivity")
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, subjectivity)
}

// resolve moves a pending subjectivity to received or waived. Resolved
// subjectivities cannot be resolved again.
func (h *SubjectivityHandler) resolve(w http.ResponseWriter, subjectivityID, to string) {
	var current string
	err := h.db.QueryRow(`SELECT status FROM subjectivity WHERE id = $1`, subjectivityID).Scan(&current)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Subjectivity not found")
		return
	}
	if err != nil {
		slog.Error("failed to query subjectivity", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if current != models.SubjectivityPending {
		middleware.ErrorResponse(w, http.StatusConflict, "Subjectivity is already "+current)
		return
	}

	_, err = h.db.Exec(`
		UPDATE subjectivity SET status = $1, resolved_at = $2 WHERE id = $3
	`, to, time.Now(), subjectivityID)
	if err != nil {
		slog.Error("failed to resolve subjectivity", "error", err, "subjectivity_id", subjectivityID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update subjectivity")
		return
	}

	slog.Info("subjectivity resolved", "subjectivity_id", subjectivityID, "status", to)

	middleware.JSONResponse(w, http.StatusOK, map[string]string{"status": to})
}

// ReceiveSubjectivity handles POST /subjectivities/{id}/receive
func (h *SubjectivityHandler) ReceiveSubjectivity(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r.PathValue("id"), models.SubjectivityReceived)
}

// WaiveSubjectivity handles POST /subjectivities/{id}/waive
func (h *SubjectivityHandler) WaiveSubjectivity(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r.PathValue("id"), models.SubjectivityWaived)
}

// ListTemplates handles GET /subjectivity-templates
func (h *SubjectivityHandler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.Query(`
		SELECT id, text, position, created_at FROM subjectivity_template ORDER BY created_at
	`)
	if err != nil {
		slog.Error("failed to query subjectivity templates", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	templates := []models.SubjectivityTemplate{}
	for rows.Next() {
		var t models.SubjectivityTemplate
		if err := rows.Scan(&t.ID, &t.Text, &t.Position, &t.CreatedAt); err != nil {
			slog.Error("failed to scan subjectivity template", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		templates = append(templates, t)
	}

	middleware.JSONResponse(w, http.StatusOK, templates)
}

func validTemplateRequest(req models.SubjectivityTemplateRequest) (string, bool) {
	if strings.TrimSpace(req.Text) == "" {
		return "Template text is required", false
	}
	if !models.ValidDocumentPosition(req.Position) {
		return "Position must be primary, excess, or either", false
	}
	return "", true
}

// CreateTemplate handles POST /subjectivity-templates
// New templates seed pending subjectivities on future binds; existing
// policies are not touched.
func (h *SubjectivityHandler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	var req models.SubjectivityTemplateRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if msg, ok := validTemplateRequest(req); !ok {
		middleware.ErrorResponse(w, http.StatusBadRequest, msg)
		return
	}

	template := models.SubjectivityTemplate{
		ID:        uuid.NewString(),
		Text:      strings.TrimSpace(req.Text),
		Position:  req.Position,
		CreatedAt: time.Now(),
	}
	_, err := h.db.Exec(`
		INSERT INTO subjectivity_template (id, text, position, created_at)
		VALUES ($1, $2, $3, $4)
	`, template.ID, template.Text, template.Position, template.CreatedAt)
	if err != nil {
		slog.Error("failed to insert subjectivity template", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create template")
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, template)
}

// UpdateTemplate handles PUT /subjectivity-templates/{id}
func (h *SubjectivityHandler) UpdateTemplate(w http.ResponseWriter, r *http.Request) {
	templateID := r.PathValue("id")
	if templateID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "template_id is required")
		return
	}

	var req models.SubjectivityTemplateRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if msg, ok := validTemplateRequest(req); !ok {
		middleware.ErrorResponse(w, http.StatusBadRequest, msg)
		return
	}

	result, err := h.db.Exec(`
		UPDATE subjectivity_template SET text = $1, position = $2 WHERE id = $3
	`, strings.TrimSpace(req.Text), req.Position, templateID)
	if err != nil {
		slog.Error("failed to update subjectivity template", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update template")
		return
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "Template not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteTemplate handles DELETE /subjectivity-templates/{id}
func (h *SubjectivityHandler) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	templateID := r.PathValue("id")
	if templateID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "template_id is required")
		return
	}

	result, err := h.db.Exec(`DELETE FROM subjectivity_template WHERE id = $1`, templateID)
	if err != nil {
		slog.Error("failed to delete subjectivity template", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to delete template")
		return
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "Template not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
