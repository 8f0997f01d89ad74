// Copyright (c) 2025 Hartline Specialty.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/hartline/uwportal/cliparse"
	"github.com/hartline/uwportal/middleware"
	"github.com/hartline/uwportal/models"
)

type SubmissionHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewSubmissionHandler(db *sql.DB, cfg cliparse.Config) *SubmissionHandler {
	return &SubmissionHandler{db: db, cfg: cfg}
}

const submissionColumns = `id, applicant_name, revenue, naics_code, naics_title,
	business_summary, bullet_points, nist_controls, ai_recommendation,
	decision_tag, decision_reason, decided_by, decided_at,
	hazard_override, control_adjustment, created_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSubmission(row rowScanner) (models.Submission, error) {
	var s models.Submission
	var bulletPoints, nistControls *string
	err := row.Scan(
		&s.ID, &s.ApplicantName, &s.Revenue, &s.NAICSCode, &s.NAICSTitle,
		&s.BusinessSummary, &bulletPoints, &nistControls, &s.AIRecommendation,
		&s.DecisionTag, &s.DecisionReason, &s.DecidedBy, &s.DecidedAt,
		&s.HazardOverride, &s.ControlAdjustment, &s.CreatedAt,
	)
	if err != nil {
		return models.Submission{}, err
	}
	s.BulletPoints = unmarshalList(bulletPoints)
	s.NISTControls = unmarshalList(nistControls)
	return s, nil
}

// CreateSubmission handles POST /submissions
func (h *SubmissionHandler) CreateSubmission(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ApplicantName string `json:"applicant_name"`
		Revenue       int64  `json:"revenue"`
		NAICSCode     string `json:"naics_code"`
		NAICSTitle    string `json:"naics_title"`
	}
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.ApplicantName == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "applicant_name is required")
		return
	}

	id := uuid.NewString()
	_, err := h.db.Exec(`
		INSERT INTO submission (id, applicant_name, revenue, naics_code, naics_title, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, id, req.ApplicantName, req.Revenue, req.NAICSCode, req.NAICSTitle, time.Now())

	if err != nil {
		slog.Error("failed to insert submission", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create submission")
		return
	}

	slog.Info("submission created", "submission_id", id, "applicant", req.ApplicantName)

	middleware.JSONResponse(w, http.StatusCreated, map[string]string{"submission_id": id})
}

// GetSubmission handles GET /submissions/{id}
func (h *SubmissionHandler) GetSubmission(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "submission_id is required")
		return
	}

	row := h.db.QueryRow(`SELECT `+submissionColumns+` FROM submission WHERE id = $1`, id)
	submission, err := scanSubmission(row)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Submission not found")
		return
	}
	if err != nil {
		slog.Error("failed to query submission", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, submission)
}

// SearchSubmissions handles GET /submissions
// Optional filters: q (applicant substring), tag (decision tag), naics
// (code prefix), limit.
func (h *SubmissionHandler) SearchSubmissions(w http.ResponseWriter, r *http.Request) {
	qb := sq.Select(submissionColumns).
		From("submission").
		OrderBy("created_at DESC").
		PlaceholderFormat(sq.Dollar)

	if q := r.URL.Query().Get("q"); q != "" {
		qb = qb.Where("LOWER(applicant_name) LIKE LOWER(?)", "%"+q+"%")
	}
	if tag := r.URL.Query().Get("tag"); tag != "" {
		qb = qb.Where(sq.Eq{"decision_tag": tag})
	}
	if naics := r.URL.Query().Get("naics"); naics != "" {
		qb = qb.Where("naics_code LIKE ?", naics+"%")
	}

	limit := uint64(50)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.ParseUint(raw, 10, 32); err == nil && parsed > 0 && parsed <= 200 {
			limit = parsed
		}
	}
	qb = qb.Limit(limit)

	query, args, err := qb.ToSql()
	if err != nil {
		slog.Error("failed to build search query", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	rows, err := h.db.Query(query, args...)
	if err != nil {
		slog.Error("failed to search submissions", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	submissions := []models.Submission{}
	for rows.Next() {
		submission, err := scanSubmission(rows)
		if err != nil {
			slog.Error("failed to scan submission", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		submissions = append(submissions, submission)
	}

	middleware.JSONResponse(w, http.StatusOK, submissions)
}

// UpdateSubmission handles PATCH /submissions/{id}
// Only fields present in the body are written; everything else is untouched.
func (h *SubmissionHandler) UpdateSubmission(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "submission_id is required")
		return
	}

	var req models.UpdateSubmissionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	qb := sq.Update("submission").Where(sq.Eq{"id": id}).PlaceholderFormat(sq.Dollar)
	touched := false

	if req.ApplicantName != nil {
		if *req.ApplicantName == "" {
			middleware.ErrorResponse(w, http.StatusBadRequest, "applicant_name cannot be empty")
			return
		}
		qb = qb.Set("applicant_name", *req.ApplicantName)
		touched = true
	}
	if req.Revenue != nil {
		qb = qb.Set("revenue", *req.Revenue)
		touched = true
	}
	if req.NAICSCode != nil {
		qb = qb.Set("naics_code", *req.NAICSCode)
		touched = true
	}
	if req.NAICSTitle != nil {
		qb = qb.Set("naics_title", *req.NAICSTitle)
		touched = true
	}
	if req.BusinessSummary != nil {
		qb = qb.Set("business_summary", *req.BusinessSummary)
		touched = true
	}
	if req.BulletPoints != nil {
		qb = qb.Set("bullet_points", marshalList(req.BulletPoints))
		touched = true
	}
	if req.NISTControls != nil {
		qb = qb.Set("nist_controls", marshalList(req.NISTControls))
		touched = true
	}
	if req.AIRecommendation != nil {
		qb = qb.Set("ai_recommendation", *req.AIRecommendation)
		touched = true
	}
	if req.HazardOverride != nil {
		if *req.HazardOverride < 1 || *req.HazardOverride > 5 {
			middleware.ErrorResponse(w, http.StatusBadRequest, "hazard_override must be between 1 and 5")
			return
		}
		qb = qb.Set("hazard_override", *req.HazardOverride)
		touched = true
	}
	if req.ControlAdjustment != nil {
		qb = qb.Set("control_adjustment", *req.ControlAdjustment)
		touched = true
	}

	if !touched {
		middleware.ErrorResponse(w, http.StatusBadRequest, "No fields to update")
		return
	}

	query, args, err := qb.ToSql()
	if err != nil {
		slog.Error("failed to build update query", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	result, err := h.db.Exec(query, args...)
	if err != nil {
		slog.Error("failed to update submission", "error", err, "submission_id", id)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update submission")
		return
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "Submission not found")
		return
	}

	slog.Info("submission updated", "submission_id", id)

	row := h.db.QueryRow(`SELECT `+submissionColumns+` FROM submission WHERE id = $1`, id)
	submission, err := scanSubmission(row)
	if err != nil {
		slog.Error("failed to re-read submission", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, submission)
}

// RecordDecision handles POST /submissions/{id}/decision
func (h *SubmissionHandler) RecordDecision(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "submission_id is required")
		return
	}

	var req models.DecisionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Tag == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "tag is required")
		return
	}
	if req.Decider == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "decider is required")
		return
	}

	result, err := h.db.Exec(`
		UPDATE submission
		SET decision_tag = $1, decision_reason = $2, decided_by = $3, decided_at = $4
		WHERE id = $5
	`, req.Tag, req.Reason, req.Decider, time.Now(), id)

	if err != nil {
		slog.Error("failed to record decision", "error", err, "submission_id", id)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to record decision")
		return
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "Submission not found")
		return
	}

	slog.Info("decision recorded", "submission_id", id, "tag", req.Tag, "decider", req.Decider)

	w.WriteHeader(http.StatusNoContent)
}

// ListLosses handles GET /submissions/{id}/losses
func (h *SubmissionHandler) ListLosses(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "submission_id is required")
		return
	}

	rows, err := h.db.Query(`
		SELECT id, submission_id, occurred_on, description, paid, reserved, created_at
		FROM loss_event
		WHERE submission_id = $1
		ORDER BY occurred_on DESC
	`, id)
	if err != nil {
		slog.Error("failed to query losses", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	losses := []models.LossEvent{}
	for rows.Next() {
		var loss models.LossEvent
		if err := rows.Scan(&loss.ID, &loss.SubmissionID, &loss.OccurredOn,
			&loss.Description, &loss.Paid, &loss.Reserved, &loss.CreatedAt); err != nil {
			slog.Error("failed to scan loss", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		losses = append(losses, loss)
	}

	middleware.JSONResponse(w, http.StatusOK, losses)
}

// AddLoss handles POST /submissions/{id}/losses
func (h *SubmissionHandler) AddLoss(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "submission_id is required")
		return
	}

	var req models.AddLossRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Description == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "description is required")
		return
	}
	occurredOn, err := parseDate(req.OccurredOn)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "occurred_on must be YYYY-MM-DD")
		return
	}

	// Confirm the submission exists before attaching history to it
	var exists string
	err = h.db.QueryRow(`SELECT id FROM submission WHERE id = $1`, id).Scan(&exists)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Submission not found")
		return
	}
	if err != nil {
		slog.Error("failed to query submission", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	lossID := uuid.NewString()
	_, err = h.db.Exec(`
		INSERT INTO loss_event (id, submission_id, occurred_on, description, paid, reserved, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, lossID, id, occurredOn, req.Description, req.Paid, req.Reserved, time.Now())

	if err != nil {
		slog.Error("failed to insert loss", "error", err, "submission_id", id)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to add loss")
		return
	}

	slog.Info("loss recorded", "submission_id", id, "loss_id", lossID)

	middleware.JSONResponse(w, http.StatusCreated, map[string]string{"loss_id": lossID})
}
