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
	"github.com/hartline/uwportal/format"
	"github.com/hartline/uwportal/middleware"
	"github.com/hartline/uwportal/models"
)

type PolicyHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewPolicyHandler(db *sql.DB, cfg cliparse.Config) *PolicyHandler {
	return &PolicyHandler{db: db, cfg: cfg}
}

func loadPolicy(db *sql.DB, policyID string) (models.Policy, error) {
	var p models.Policy
	err := db.QueryRow(`
		SELECT id, submission_id, quote_id, policy_number, base_premium,
		       effective_date, expiration_date, status, issued_at, created_at
		FROM policy WHERE id = $1
	`, policyID).Scan(
		&p.ID, &p.SubmissionID, &p.QuoteID, &p.PolicyNumber, &p.BasePremium,
		&p.EffectiveDate, &p.ExpirationDate, &p.Status, &p.IssuedAt, &p.CreatedAt,
	)
	return p, err
}

func loadSubjectivities(db *sql.DB, policyID string) ([]models.Subjectivity, error) {
	rows, err := db.Query(`
		SELECT id, policy_id, text, status, created_at, resolved_at
		FROM subjectivity
		WHERE policy_id = $1
		ORDER BY created_at
	`, policyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subjectivities := []models.Subjectivity{}
	for rows.Next() {
		var s models.Subjectivity
		if err := rows.Scan(&s.ID, &s.PolicyID, &s.Text, &s.Status,
			&s.CreatedAt, &s.ResolvedAt); err != nil {
			return nil, err
		}
		subjectivities = append(subjectivities, s)
	}

	return subjectivities, rows.Err()
}

// GetPolicy handles GET /policies/{id}
// Returns the full aggregate: submission, bound option with tower,
// subjectivities, endorsements, and the effective premium.
func (h *PolicyHandler) GetPolicy(w http.ResponseWriter, r *http.Request) {
	policyID := r.PathValue("id")
	if policyID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "policy_id is required")
		return
	}

	policy, err := loadPolicy(h.db, policyID)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Policy not found")
		return
	}
	if err != nil {
		slog.Error("failed to query policy", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	row := h.db.QueryRow(`SELECT `+submissionColumns+` FROM submission WHERE id = $1`, policy.SubmissionID)
	submission, err := scanSubmission(row)
	if err != nil {
		slog.Error("failed to query submission", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	var option models.QuoteOption
	err = h.db.QueryRow(`
		SELECT id, submission_id, retention, policy_form, effective_date, expiration_date,
		       sold_premium, risk_adjusted_premium, bound, created_at
		FROM quote_option WHERE id = $1
	`, policy.QuoteID).Scan(&option.ID, &option.SubmissionID, &option.Retention,
		&option.PolicyForm, &option.EffectiveDate, &option.ExpirationDate,
		&option.SoldPremium, &option.RiskAdjusted, &option.Bound, &option.CreatedAt)
	if err != nil {
		slog.Error("failed to query bound option", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	option.Layers, err = loadTowerLayers(h.db, option.ID)
	if err != nil {
		slog.Error("failed to query tower layers", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	subjectivities, err := loadSubjectivities(h.db, policyID)
	if err != nil {
		slog.Error("failed to query subjectivities", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	endorsements, err := loadEndorsements(h.db, policyID)
	if err != nil {
		slog.Error("failed to query endorsements", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	// Voided endorsements drop out of the aggregate; only issued ones count
	effectivePremium := policy.BasePremium
	for _, e := range endorsements {
		if e.Status == models.EndorsementIssued {
			effectivePremium += e.PremiumChange
		}
	}

	middleware.JSONResponse(w, http.StatusOK, models.PolicyAggregate{
		Policy:           policy,
		Submission:       submission,
		BoundOption:      option,
		Subjectivities:   subjectivities,
		Endorsements:     endorsements,
		EffectivePremium: effectivePremium,
	})
}

// IssuePolicy handles POST /policies/{id}/issue
// Issuance is blocked while any subjectivity is still pending.
func (h *PolicyHandler) IssuePolicy(w http.ResponseWriter, r *http.Request) {
	policyID := r.PathValue("id")
	if policyID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "policy_id is required")
		return
	}

	var status string
	err := h.db.QueryRow(`SELECT status FROM policy WHERE id = $1`, policyID).Scan(&status)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Policy not found")
		return
	}
	if err != nil {
		slog.Error("failed to query policy", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if status != models.PolicyBound {
		middleware.ErrorResponse(w, http.StatusConflict, "Policy is already issued")
		return
	}

	var pending int
	err = h.db.QueryRow(`
		SELECT COUNT(*) FROM subjectivity
		WHERE policy_id = $1 AND status = $2
	`, policyID, models.SubjectivityPending).Scan(&pending)
	if err != nil {
		slog.Error("failed to count pending subjectivities", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if pending > 0 {
		middleware.ErrorResponse(w, http.StatusConflict, "Cannot issue policy with pending subjectivities")
		return
	}

	issuedAt := time.Now()
	_, err = h.db.Exec(`
		UPDATE policy SET status = $1, issued_at = $2 WHERE id = $3
	`, models.PolicyIssued, issuedAt, policyID)
	if err != nil {
		slog.Error("failed to issue policy", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to issue policy")
		return
	}

	slog.Info("policy issued", "policy_id", policyID)

	middleware.JSONResponse(w, http.StatusOK, map[string]interface{}{
		"status":    models.PolicyIssued,
		"issued_at": issuedAt,
	})
}

// GenerateDocuments handles POST /policies/{id}/documents
// Renders every active library template matching the policy's placement.
func (h *PolicyHandler) GenerateDocuments(w http.ResponseWriter, r *http.Request) {
	policyID := r.PathValue("id")
	if policyID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "policy_id is required")
		return
	}

	policy, err := loadPolicy(h.db, policyID)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Policy not found")
		return
	}
	if err != nil {
		slog.Error("failed to query policy", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	var applicantName string
	err = h.db.QueryRow(`SELECT applicant_name FROM submission WHERE id = $1`, policy.SubmissionID).Scan(&applicantName)
	if err != nil {
		slog.Error("failed to query submission", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	layers, err := loadTowerLayers(h.db, policy.QuoteID)
	if err != nil {
		slog.Error("failed to query tower layers", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	position := models.PositionExcess
	for _, layer := range layers {
		if layer.Attachment == 0 {
			position = models.PositionPrimary
			break
		}
	}

	rows, err := h.db.Query(`
		SELECT id, title, content_template FROM document_entry
		WHERE status = $1 AND (position = $2 OR position = $3)
		ORDER BY code
	`, models.DocumentActive, position, models.PositionEither)
	if err != nil {
		slog.Error("failed to query document entries", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	type entry struct {
		id, title, template string
	}
	var entries []entry
	for rows.Next() {
		var e entry
		if err := rows.Scan(&e.id, &e.title, &e.template); err != nil {
			slog.Error("failed to scan document entry", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		entries = append(entries, e)
	}

	replacer := strings.NewReplacer(
		"{{policy_number}}", policy.PolicyNumber,
		"{{insured_name}}", applicantName,
		"{{effective_date}}", format.Date(policy.EffectiveDate),
		"{{expiration_date}}", format.Date(policy.ExpirationDate),
		"{{premium}}", format.Currency(policy.BasePremium),
	)

	now := time.Now()
	generated := []models.GeneratedDocument{}
	for _, e := range entries {
		doc := models.GeneratedDocument{
			ID:          uuid.NewString(),
			PolicyID:    policyID,
			EntryID:     e.id,
			Title:       e.title,
			Content:     replacer.Replace(e.template),
			GeneratedAt: now,
		}
		_, err = h.db.Exec(`
			INSERT INTO generated_document (id, policy_id, entry_id, title, content, generated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, doc.ID, doc.PolicyID, doc.EntryID, doc.Title, doc.Content, doc.GeneratedAt)
		if err != nil {
			slog.Error("failed to insert generated document", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to generate documents")
			return
		}
		generated = append(generated, doc)
	}

	slog.Info("documents generated", "policy_id", policyID, "count", len(generated))

	middleware.JSONResponse(w, http.StatusCreated, generated)
}

// ListGeneratedDocuments handles GET /policies/{id}/documents
func (h *PolicyHandler) ListGeneratedDocuments(w http.ResponseWriter, r *http.Request) {
	policyID := r.PathValue("id")
	if policyID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "policy_id is required")
		return
	}

	rows, err := h.db.Query(`
		SELECT id, policy_id, entry_id, title, content, generated_at
		FROM generated_document
		WHERE policy_id = $1
		ORDER BY generated_at DESC
	`, policyID)
	if err != nil {
		slog.Error("failed to query generated documents", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	docs := []models.GeneratedDocument{}
	for rows.Next() {
		var d models.GeneratedDocument
		if err := rows.Scan(&d.ID, &d.PolicyID, &d.EntryID, &d.Title, &d.Content, &d.GeneratedAt); err != nil {
			slog.Error("failed to scan generated document", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		docs = append(docs, d)
	}

	middleware.JSONResponse(w, http.StatusOK, docs)
}
