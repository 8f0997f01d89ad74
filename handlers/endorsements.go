// Copyright (c) 2025 Hartline Specialty.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/hartline/uwportal/cliparse"
	"github.com/hartline/uwportal/middleware"
	"github.com/hartline/uwportal/models"
	"github.com/hartline/uwportal/rating"
)

type EndorsementHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewEndorsementHandler(db *sql.DB, cfg cliparse.Config) *EndorsementHandler {
	return &EndorsementHandler{db: db, cfg: cfg}
}

func loadEndorsements(db *sql.DB, policyID string) ([]models.Endorsement, error) {
	rows, err := db.Query(`
		SELECT id, policy_id, type, effective_date, description, change_details,
		       premium_change, status, reinstates_id, notes, created_at, issued_at, voided_at
		FROM endorsement
		WHERE policy_id = $1
		ORDER BY created_at
	`, policyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	endorsements := []models.Endorsement{}
	for rows.Next() {
		var e models.Endorsement
		var details *string
		if err := rows.Scan(&e.ID, &e.PolicyID, &e.Type, &e.EffectiveDate,
			&e.Description, &details, &e.PremiumChange, &e.Status,
			&e.ReinstatesID, &e.Notes, &e.CreatedAt, &e.IssuedAt, &e.VoidedAt); err != nil {
			return nil, err
		}
		if details != nil {
			e.ChangeDetails = json.RawMessage(*details)
		}
		endorsements = append(endorsements, e)
	}

	return endorsements, rows.Err()
}

// erpStoredDetails keeps the bundled cancellation return alongside the ERP
// payload in change_details, since it is not part of the premium_change.
type erpStoredDetails struct {
	models.ERPDetails
	CancellationReturn int64 `json:"cancellation_return,omitempty"`
}

// buildInput assembles the rating input for a request against a policy.
// An omitted annual_rate falls back to the policy's base premium for the
// date-based types; coverage_change and other always rate what the
// underwriter entered.
func buildInput(req models.CreateEndorsementRequest, policy models.Policy) (rating.Input, error) {
	effectiveDate, err := parseDate(req.EffectiveDate)
	if err != nil {
		return rating.Input{}, errors.New("effective_date must be YYYY-MM-DD")
	}

	annualRate := req.AnnualRate
	if annualRate == 0 {
		switch req.Type {
		case rating.TypeExtension, rating.TypeCancellation, rating.TypeERP:
			annualRate = policy.BasePremium
		}
	}

	return rating.Input{
		Type:             req.Type,
		EffectiveDate:    effectiveDate,
		PolicyExpiration: policy.ExpirationDate,
		AnnualRate:       annualRate,
		FlatOverride:     req.FlatOverride,
		Extension:        req.Extension,
		NameChange:       req.NameChange,
		AddressChange:    req.AddressChange,
		Reinstatement:    req.Reinstatement,
		Cancellation:     req.Cancellation,
		ERP:              req.ERP,
		Coverage:         req.Coverage,
		Other:            req.Other,
	}, nil
}

func marshalChangeDetails(req models.CreateEndorsementRequest, out rating.Computed) (string, error) {
	var details interface{}
	switch req.Type {
	case rating.TypeExtension:
		details = req.Extension
	case rating.TypeNameChange:
		details = req.NameChange
	case rating.TypeAddressChange:
		details = req.AddressChange
	case rating.TypeReinstatement:
		details = req.Reinstatement
	case rating.TypeCancellation:
		details = req.Cancellation
	case rating.TypeERP:
		details = erpStoredDetails{ERPDetails: *req.ERP, CancellationReturn: out.CancellationReturn}
	case rating.TypeCoverageChange:
		details = req.Coverage
	case rating.TypeOther:
		details = req.Other
	}

	raw, err := json.Marshal(details)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// computeForPolicy runs validation and pricing for a request against the
// stored policy. Validation failures surface as 400s with the exact field
// message; nothing is written.
func (h *EndorsementHandler) computeForPolicy(w http.ResponseWriter, policyID string, req models.CreateEndorsementRequest) (rating.Computed, models.Policy, bool) {
	if !rating.ValidType(req.Type) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Unknown endorsement type")
		return rating.Computed{}, models.Policy{}, false
	}

	policy, err := loadPolicy(h.db, policyID)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Policy not found")
		return rating.Computed{}, models.Policy{}, false
	}
	if err != nil {
		slog.Error("failed to query policy", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return rating.Computed{}, models.Policy{}, false
	}

	input, err := buildInput(req, policy)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return rating.Computed{}, models.Policy{}, false
	}

	out, err := rating.Compute(input)
	if err != nil {
		var vErr *rating.ValidationError
		if errors.As(err, &vErr) {
			middleware.ErrorResponse(w, http.StatusBadRequest, vErr.Message)
		} else {
			slog.Error("failed to compute endorsement", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to compute endorsement")
		}
		return rating.Computed{}, models.Policy{}, false
	}

	return out, policy, true
}

// PreviewEndorsement handles POST /policies/{id}/endorsements/preview
// Computes premium and description without persisting anything, so the
// portal can show the computed value live while the form is edited.
func (h *EndorsementHandler) PreviewEndorsement(w http.ResponseWriter, r *http.Request) {
	policyID := r.PathValue("id")
	if policyID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "policy_id is required")
		return
	}

	var req models.CreateEndorsementRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	out, _, ok := h.computeForPolicy(w, policyID, req)
	if !ok {
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.EndorsementPreviewResponse{
		PremiumChange:      out.PremiumChange,
		ComputedPremium:    out.ComputedPremium,
		CancellationReturn: out.CancellationReturn,
		Description:        out.Description,
		DaysBasis:          out.DaysBasis,
	})
}

// CreateEndorsement handles POST /policies/{id}/endorsements
// Every endorsement starts in draft.
func (h *EndorsementHandler) CreateEndorsement(w http.ResponseWriter, r *http.Request) {
	policyID := r.PathValue("id")
	if policyID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "policy_id is required")
		return
	}

	var req models.CreateEndorsementRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	out, policy, ok := h.computeForPolicy(w, policyID, req)
	if !ok {
		return
	}

	if req.ReinstatesID != nil {
		var refPolicyID string
		err := h.db.QueryRow(`SELECT policy_id FROM endorsement WHERE id = $1`, *req.ReinstatesID).Scan(&refPolicyID)
		if err == sql.ErrNoRows || (err == nil && refPolicyID != policyID) {
			middleware.ErrorResponse(w, http.StatusBadRequest, "reinstates_id does not reference an endorsement on this policy")
			return
		}
		if err != nil {
			slog.Error("failed to query referenced endorsement", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
	}

	details, err := marshalChangeDetails(req, out)
	if err != nil {
		slog.Error("failed to marshal change details", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create endorsement")
		return
	}

	effectiveDate, _ := parseDate(req.EffectiveDate)

	var notes *string
	if req.Notes != "" {
		notes = &req.Notes
	}

	endorsementID := uuid.NewString()
	_, err = h.db.Exec(`
		INSERT INTO endorsement (id, policy_id, type, effective_date, description,
			change_details, premium_change, status, reinstates_id, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, endorsementID, policy.ID, req.Type, effectiveDate, out.Description,
		details, out.PremiumChange, models.EndorsementDraft, req.ReinstatesID, notes, time.Now())

	if err != nil {
		slog.Error("failed to insert endorsement", "error", err, "policy_id", policyID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create endorsement")
		return
	}

	slog.Info("endorsement created", "policy_id", policyID, "endorsement_id", endorsementID,
		"type", req.Type, "premium_change", out.PremiumChange)

	middleware.JSONResponse(w, http.StatusCreated, map[string]interface{}{
		"endorsement_id": endorsementID,
		"premium_change": out.PremiumChange,
		"description":    out.Description,
		"status":         models.EndorsementDraft,
	})
}

// ListEndorsements handles GET /policies/{id}/endorsements
func (h *EndorsementHandler) ListEndorsements(w http.ResponseWriter, r *http.Request) {
	policyID := r.PathValue("id")
	if policyID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "policy_id is required")
		return
	}

	endorsements, err := loadEndorsements(h.db, policyID)
	if err != nil {
		slog.Error("failed to query endorsements", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, endorsements)
}

// transition moves an endorsement between statuses after checking the
// central transition table. The from status pins each route to a single
// edge, so issuing cannot double as a reinstate.
func (h *EndorsementHandler) transition(w http.ResponseWriter, endorsementID, from, to string) {
	var current string
	err := h.db.QueryRow(`SELECT status FROM endorsement WHERE id = $1`, endorsementID).Scan(&current)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Endorsement not found")
		return
	}
	if err != nil {
		slog.Error("failed to query endorsement", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if current != from || !models.CanTransitionEndorsement(current, to) {
		middleware.ErrorResponse(w, http.StatusConflict, "Cannot move endorsement from "+current+" to "+to)
		return
	}

	now := time.Now()
	switch to {
	case models.EndorsementIssued:
		_, err = h.db.Exec(`
			UPDATE endorsement SET status = $1, issued_at = $2, voided_at = NULL WHERE id = $3
		`, models.EndorsementIssued, now, endorsementID)
	case models.EndorsementVoid:
		_, err = h.db.Exec(`
			UPDATE endorsement SET status = $1, voided_at = $2 WHERE id = $3
		`, models.EndorsementVoid, now, endorsementID)
	}

	if err != nil {
		slog.Error("failed to transition endorsement", "error", err, "endorsement_id", endorsementID, "to", to)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update endorsement")
		return
	}

	slog.Info("endorsement transitioned", "endorsement_id", endorsementID, "from", current, "to", to)

	middleware.JSONResponse(w, http.StatusOK, map[string]string{"status": to})
}

// IssueEndorsement handles POST /endorsements/{id}/issue
// Only drafts can be issued; a void endorsement returns through reinstate.
func (h *EndorsementHandler) IssueEndorsement(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r.PathValue("id"), models.EndorsementDraft, models.EndorsementIssued)
}

// VoidEndorsement handles POST /endorsements/{id}/void
// Voiding reverses the premium impact in the policy aggregate; the row stays
// for the audit trail.
func (h *EndorsementHandler) VoidEndorsement(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r.PathValue("id"), models.EndorsementIssued, models.EndorsementVoid)
}

// ReinstateEndorsement handles POST /endorsements/{id}/reinstate
// A void endorsement returns to issued.
func (h *EndorsementHandler) ReinstateEndorsement(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r.PathValue("id"), models.EndorsementVoid, models.EndorsementIssued)
}

// DeleteEndorsement handles DELETE /endorsements/{id}
// Only drafts can be deleted; issued and void endorsements are permanent.
func (h *EndorsementHandler) DeleteEndorsement(w http.ResponseWriter, r *http.Request) {
	endorsementID := r.PathValue("id")
	if endorsementID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "endorsement_id is required")
		return
	}

	var current string
	err := h.db.QueryRow(`SELECT status FROM endorsement WHERE id = $1`, endorsementID).Scan(&current)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Endorsement not found")
		return
	}
	if err != nil {
		slog.Error("failed to query endorsement", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if !models.CanTransitionEndorsement(current, models.EndorsementDeleted) {
		middleware.ErrorResponse(w, http.StatusConflict, "Only draft endorsements can be deleted")
		return
	}

	_, err = h.db.Exec(`DELETE FROM endorsement WHERE id = $1`, endorsementID)
	if err != nil {
		slog.Error("failed to delete endorsement", "error", err, "endorsement_id", endorsementID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to delete endorsement")
		return
	}

	slog.Info("endorsement deleted", "endorsement_id", endorsementID)

	w.WriteHeader(http.StatusNoContent)
}
