// Copyright (c) 2025 Hartline Specialty.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/hartline/uwportal/cliparse"
	"github.com/hartline/uwportal/format"
	"github.com/hartline/uwportal/middleware"
	"github.com/hartline/uwportal/models"
	"github.com/hartline/uwportal/rating"
)

type PricingHandler struct {
	db     *sql.DB
	cfg    cliparse.Config
	tables rating.Tables
}

func NewPricingHandler(db *sql.DB, cfg cliparse.Config, tables rating.Tables) *PricingHandler {
	return &PricingHandler{db: db, cfg: cfg, tables: tables}
}

const defaultGridRetention = 25_000

// hazardFor returns the submission's effective hazard class, preferring the
// underwriter override when one is set.
func hazardFor(s models.Submission) int {
	if s.HazardOverride != nil {
		return *s.HazardOverride
	}
	return rating.HazardClass(s.NAICSCode)
}

func controlAdjustmentFor(s models.Submission) float64 {
	if s.ControlAdjustment != nil {
		return *s.ControlAdjustment
	}
	return 0
}

// priceCell reads the submission fresh and prices one grid limit. Each cell
// is its own read so the grid behaves as a batch of independent calls.
func (h *PricingHandler) priceCell(submissionID string, limit, retention int64) (models.PricingGridCell, error) {
	row := h.db.QueryRow(`SELECT `+submissionColumns+` FROM submission WHERE id = $1`, submissionID)
	submission, err := scanSubmission(row)
	if err != nil {
		return models.PricingGridCell{}, err
	}

	premium := h.tables.AnnualPremium(hazardFor(submission), submission.Revenue,
		limit, retention, controlAdjustmentFor(submission))

	return models.PricingGridCell{Limit: limit, AnnualPremium: premium}, nil
}

// PricingGrid handles GET /submissions/{id}/pricing-grid
// Prices the standard limits sequentially. The first failure aborts the
// batch and no partial grid is returned.
func (h *PricingHandler) PricingGrid(w http.ResponseWriter, r *http.Request) {
	submissionID := r.PathValue("id")
	if submissionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "submission_id is required")
		return
	}

	retention := int64(defaultGridRetention)
	if raw := r.URL.Query().Get("retention"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 0 {
			middleware.ErrorResponse(w, http.StatusBadRequest, "retention must be a non-negative integer")
			return
		}
		retention = parsed
	}

	var exists int
	err := h.db.QueryRow(`SELECT COUNT(*) FROM submission WHERE id = $1`, submissionID).Scan(&exists)
	if err != nil {
		slog.Error("failed to query submission", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if exists == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "Submission not found")
		return
	}

	cells := make([]models.PricingGridCell, 0, len(rating.GridLimits))
	for _, limit := range rating.GridLimits {
		cell, err := h.priceCell(submissionID, limit, retention)
		if err != nil {
			slog.Error("pricing grid aborted", "error", err,
				"submission_id", submissionID, "limit", limit, "computed", len(cells))
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to compute pricing grid")
			return
		}
		cells = append(cells, cell)
	}

	middleware.JSONResponse(w, http.StatusOK, cells)
}

// PricingGuidance handles GET /policies/{id}/pricing-guidance
// Rates the current and proposed coverage configurations independently and
// returns the incremental annual difference. Advisory only; nothing here is
// applied to the policy.
func (h *PricingHandler) PricingGuidance(w http.ResponseWriter, r *http.Request) {
	policyID := r.PathValue("id")
	if policyID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "policy_id is required")
		return
	}

	query := r.URL.Query()
	params := map[string]int64{}
	for _, name := range []string{"current_limit", "new_limit", "current_retention", "new_retention"} {
		raw := query.Get(name)
		if raw == "" {
			middleware.ErrorResponse(w, http.StatusBadRequest, name+" is required")
			return
		}
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 0 {
			middleware.ErrorResponse(w, http.StatusBadRequest, name+" must be a non-negative integer")
			return
		}
		params[name] = parsed
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

	hazard := hazardFor(submission)
	adjustment := controlAdjustmentFor(submission)

	current := h.tables.AnnualPremium(hazard, submission.Revenue,
		params["current_limit"], params["current_retention"], adjustment)
	proposed := h.tables.AnnualPremium(hazard, submission.Revenue,
		params["new_limit"], params["new_retention"], adjustment)

	middleware.JSONResponse(w, http.StatusOK, models.PricingGuidanceResponse{
		CurrentAnnualPremium:  current,
		ProposedAnnualPremium: proposed,
		IncrementalAnnual:     proposed - current,
	})
}

func towerLimit(layers []models.TowerLayer) int64 {
	var total int64
	for _, layer := range layers {
		total += layer.Limit
	}
	return total
}

// RenewalComparison handles GET /policies/{id}/renewal-comparison
// Puts the expiring bound option next to a proposed renewal option from the
// same submission.
func (h *PricingHandler) RenewalComparison(w http.ResponseWriter, r *http.Request) {
	policyID := r.PathValue("id")
	if policyID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "policy_id is required")
		return
	}

	quoteID := r.URL.Query().Get("quote_id")
	if quoteID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "quote_id is required")
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

	var expiring, proposed models.QuoteOption
	for _, target := range []struct {
		id     string
		option *models.QuoteOption
	}{
		{policy.QuoteID, &expiring},
		{quoteID, &proposed},
	} {
		err = h.db.QueryRow(`
			SELECT id, submission_id, retention, policy_form, effective_date, expiration_date,
			       sold_premium, risk_adjusted_premium, bound, created_at
			FROM quote_option WHERE id = $1
		`, target.id).Scan(&target.option.ID, &target.option.SubmissionID,
			&target.option.Retention, &target.option.PolicyForm,
			&target.option.EffectiveDate, &target.option.ExpirationDate,
			&target.option.SoldPremium, &target.option.RiskAdjusted,
			&target.option.Bound, &target.option.CreatedAt)
		if err == sql.ErrNoRows {
			middleware.ErrorResponse(w, http.StatusNotFound, "Quote option not found")
			return
		}
		if err != nil {
			slog.Error("failed to query quote option", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}

		target.option.Layers, err = loadTowerLayers(h.db, target.id)
		if err != nil {
			slog.Error("failed to query tower layers", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
	}

	if proposed.SubmissionID != policy.SubmissionID {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Quote option belongs to a different submission")
		return
	}

	expiringLimit := towerLimit(expiring.Layers)
	proposedLimit := towerLimit(proposed.Layers)

	changes := []string{}
	if proposedLimit != expiringLimit {
		changes = append(changes, "Limit "+format.CompactCurrency(expiringLimit)+" -> "+format.CompactCurrency(proposedLimit))
	}
	if proposed.Retention != expiring.Retention {
		changes = append(changes, "Retention "+format.CompactCurrency(expiring.Retention)+" -> "+format.CompactCurrency(proposed.Retention))
	}
	if proposed.PolicyForm != expiring.PolicyForm {
		changes = append(changes, "Form "+expiring.PolicyForm+" -> "+proposed.PolicyForm)
	}
	if proposed.SoldPremium != expiring.SoldPremium {
		changes = append(changes, "Premium "+format.SignedCurrency(proposed.SoldPremium-expiring.SoldPremium))
	}

	middleware.JSONResponse(w, http.StatusOK, models.RenewalComparisonResponse{
		ExpiringLimit:     expiringLimit,
		ProposedLimit:     proposedLimit,
		ExpiringRetention: expiring.Retention,
		ProposedRetention: proposed.Retention,
		ExpiringPremium:   expiring.SoldPremium,
		ProposedPremium:   proposed.SoldPremium,
		PremiumDelta:      proposed.SoldPremium - expiring.SoldPremium,
		Changes:           changes,
	})
}
