// Copyright (c) 2025 Hartline Specialty.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/hartline/uwportal/auth"
	"github.com/hartline/uwportal/cliparse"
	"github.com/hartline/uwportal/middleware"
	"github.com/hartline/uwportal/models"
)

type QuoteHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewQuoteHandler(db *sql.DB, cfg cliparse.Config) *QuoteHandler {
	return &QuoteHandler{db: db, cfg: cfg}
}

// CreateQuote handles POST /submissions/{id}/quotes
func (h *QuoteHandler) CreateQuote(w http.ResponseWriter, r *http.Request) {
	submissionID := r.PathValue("id")
	if submissionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "submission_id is required")
		return
	}

	var req models.CreateQuoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.PolicyForm == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "policy_form is required")
		return
	}
	if len(req.Layers) == 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "At least one tower layer is required")
		return
	}
	effectiveDate, err := parseDate(req.EffectiveDate)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "effective_date must be YYYY-MM-DD")
		return
	}
	expirationDate, err := parseDate(req.ExpirationDate)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "expiration_date must be YYYY-MM-DD")
		return
	}
	if !expirationDate.After(effectiveDate) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "expiration_date must be after effective_date")
		return
	}

	var exists string
	err = h.db.QueryRow(`SELECT id FROM submission WHERE id = $1`, submissionID).Scan(&exists)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Submission not found")
		return
	}
	if err != nil {
		slog.Error("failed to query submission", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	quoteID := uuid.NewString()
	now := time.Now()

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO quote_option (id, submission_id, retention, policy_form,
			effective_date, expiration_date, sold_premium, risk_adjusted_premium, bound, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, quoteID, submissionID, req.Retention, req.PolicyForm,
		effectiveDate, expirationDate, req.SoldPremium, req.RiskAdjusted, false, now)

	if err != nil {
		slog.Error("failed to insert quote option", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create quote")
		return
	}

	for i, layer := range req.Layers {
		if layer.Carrier == "" || layer.Limit <= 0 {
			middleware.ErrorResponse(w, http.StatusBadRequest, "Each layer needs a carrier and a positive limit")
			return
		}
		_, err = tx.Exec(`
			INSERT INTO tower_layer (id, quote_id, position, carrier, limit_amount, attachment, premium)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, uuid.NewString(), quoteID, i, layer.Carrier, layer.Limit, layer.Attachment, layer.Premium)
		if err != nil {
			slog.Error("failed to insert tower layer", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create quote")
			return
		}
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create quote")
		return
	}

	slog.Info("quote created", "submission_id", submissionID, "quote_id", quoteID)

	middleware.JSONResponse(w, http.StatusCreated, models.CreateQuoteResponse{QuoteID: quoteID})
}

// ListQuotes handles GET /submissions/{id}/quotes
func (h *QuoteHandler) ListQuotes(w http.ResponseWriter, r *http.Request) {
	submissionID := r.PathValue("id")
	if submissionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "submission_id is required")
		return
	}

	rows, err := h.db.Query(`
		SELECT id, submission_id, retention, policy_form, effective_date, expiration_date,
		       sold_premium, risk_adjusted_premium, bound, created_at
		FROM quote_option
		WHERE submission_id = $1
		ORDER BY created_at
	`, submissionID)
	if err != nil {
		slog.Error("failed to query quotes", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	quotes := []models.QuoteOption{}
	for rows.Next() {
		var q models.QuoteOption
		if err := rows.Scan(&q.ID, &q.SubmissionID, &q.Retention, &q.PolicyForm,
			&q.EffectiveDate, &q.ExpirationDate, &q.SoldPremium, &q.RiskAdjusted,
			&q.Bound, &q.CreatedAt); err != nil {
			slog.Error("failed to scan quote", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		quotes = append(quotes, q)
	}

	for i := range quotes {
		layers, err := loadTowerLayers(h.db, quotes[i].ID)
		if err != nil {
			slog.Error("failed to query tower layers", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		quotes[i].Layers = layers
	}

	middleware.JSONResponse(w, http.StatusOK, quotes)
}

func loadTowerLayers(db *sql.DB, quoteID string) ([]models.TowerLayer, error) {
	rows, err := db.Query(`
		SELECT id, quote_id, position, carrier, limit_amount, attachment, premium
		FROM tower_layer
		WHERE quote_id = $1
		ORDER BY position
	`, quoteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	layers := []models.TowerLayer{}
	for rows.Next() {
		var l models.TowerLayer
		if err := rows.Scan(&l.ID, &l.QuoteID, &l.Position, &l.Carrier,
			&l.Limit, &l.Attachment, &l.Premium); err != nil {
			return nil, err
		}
		layers = append(layers, l)
	}

	return layers, rows.Err()
}

// BindQuote handles POST /quotes/{id}/bind
// Binds the option, unbinds any sibling, materializes the policy, and seeds
// subjectivities from the matching templates, all in one transaction.
func (h *QuoteHandler) BindQuote(w http.ResponseWriter, r *http.Request) {
	quoteID := r.PathValue("id")
	if quoteID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "quote_id is required")
		return
	}

	var submissionID string
	var soldPremium int64
	var effectiveDate, expirationDate time.Time
	var bound bool
	err := h.db.QueryRow(`
		SELECT submission_id, sold_premium, effective_date, expiration_date, bound
		FROM quote_option WHERE id = $1
	`, quoteID).Scan(&submissionID, &soldPremium, &effectiveDate, &expirationDate, &bound)

	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Quote not found")
		return
	}
	if err != nil {
		slog.Error("failed to query quote", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if bound {
		middleware.ErrorResponse(w, http.StatusConflict, "Quote is already bound")
		return
	}

	// A submission carries at most one policy at a time
	var existingPolicy string
	err = h.db.QueryRow(`SELECT id FROM policy WHERE submission_id = $1`, submissionID).Scan(&existingPolicy)
	if err == nil {
		middleware.ErrorResponse(w, http.StatusConflict, "Submission already has a bound policy")
		return
	}
	if err != sql.ErrNoRows {
		slog.Error("failed to query policy", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	layers, err := loadTowerLayers(h.db, quoteID)
	if err != nil {
		slog.Error("failed to query tower layers", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	// Attachment of the bottom layer decides primary vs excess placement
	position := models.PositionExcess
	for _, layer := range layers {
		if layer.Attachment == 0 {
			position = models.PositionPrimary
			break
		}
	}

	policyID := uuid.NewString()
	policyNumber := auth.GeneratePolicyNumber(policyID, h.cfg.PolicyNumberSalt)
	now := time.Now()

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	// Unbind any sibling option, then bind this one
	_, err = tx.Exec(`UPDATE quote_option SET bound = $1 WHERE submission_id = $2`, false, submissionID)
	if err == nil {
		_, err = tx.Exec(`UPDATE quote_option SET bound = $1 WHERE id = $2`, true, quoteID)
	}
	if err != nil {
		slog.Error("failed to bind quote", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to bind quote")
		return
	}

	_, err = tx.Exec(`
		INSERT INTO policy (id, submission_id, quote_id, policy_number, base_premium,
			effective_date, expiration_date, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, policyID, submissionID, quoteID, policyNumber, soldPremium,
		effectiveDate, expirationDate, models.PolicyBound, now)

	if err != nil {
		slog.Error("failed to insert policy", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to bind quote")
		return
	}

	// Seed pending subjectivities from templates matching the placement
	templateRows, err := tx.Query(`
		SELECT text FROM subjectivity_template
		WHERE position = $1 OR position = $2
		ORDER BY created_at
	`, position, models.PositionEither)
	if err != nil {
		slog.Error("failed to query subjectivity templates", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to bind quote")
		return
	}

	var texts []string
	for templateRows.Next() {
		var text string
		if err := templateRows.Scan(&text); err != nil {
			templateRows.Close()
			slog.Error("failed to scan subjectivity template", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to bind quote")
			return
		}
		texts = append(texts, text)
	}
	templateRows.Close()

	for _, text := range texts {
		_, err = tx.Exec(`
			INSERT INTO subjectivity (id, policy_id, text, status, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`, uuid.NewString(), policyID, text, models.SubjectivityPending, now)
		if err != nil {
			slog.Error("failed to seed subjectivity", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to bind quote")
			return
		}
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to bind quote")
		return
	}

	slog.Info("quote bound", "quote_id", quoteID, "policy_id", policyID, "policy_number", policyNumber)

	middleware.JSONResponse(w, http.StatusOK, models.BindQuoteResponse{
		PolicyID:     policyID,
		PolicyNumber: policyNumber,
	})
}

// UnbindQuote handles POST /quotes/{id}/unbind
// Reverses a bind that has not been issued yet; the materialized policy and
// its dependents are removed.
func (h *QuoteHandler) UnbindQuote(w http.ResponseWriter, r *http.Request) {
	quoteID := r.PathValue("id")
	if quoteID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "quote_id is required")
		return
	}

	var bound bool
	err := h.db.QueryRow(`SELECT bound FROM quote_option WHERE id = $1`, quoteID).Scan(&bound)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Quote not found")
		return
	}
	if err != nil {
		slog.Error("failed to query quote", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if !bound {
		middleware.ErrorResponse(w, http.StatusConflict, "Quote is not bound")
		return
	}

	var policyID, policyStatus string
	err = h.db.QueryRow(`SELECT id, status FROM policy WHERE quote_id = $1`, quoteID).Scan(&policyID, &policyStatus)
	if err != nil && err != sql.ErrNoRows {
		slog.Error("failed to query policy", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if err == nil && policyStatus == models.PolicyIssued {
		middleware.ErrorResponse(w, http.StatusConflict, "Cannot unbind an issued policy")
		return
	}

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	if policyID != "" {
		if _, err := tx.Exec(`DELETE FROM policy WHERE id = $1`, policyID); err != nil {
			slog.Error("failed to delete policy", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to unbind quote")
			return
		}
	}

	if _, err := tx.Exec(`UPDATE quote_option SET bound = $1 WHERE id = $2`, false, quoteID); err != nil {
		slog.Error("failed to unbind quote", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to unbind quote")
		return
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to unbind quote")
		return
	}

	slog.Info("quote unbound", "quote_id", quoteID, "policy_id", policyID)

	w.WriteHeader(http.StatusNoContent)
}
