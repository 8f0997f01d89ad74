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

	"github.com/hartline/uwportal/cliparse"
	"github.com/hartline/uwportal/middleware"
	"github.com/hartline/uwportal/models"
)

type ComparableHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewComparableHandler(db *sql.DB, cfg cliparse.Config) *ComparableHandler {
	return &ComparableHandler{db: db, cfg: cfg}
}

const (
	defaultCompWindowDays = 365
	defaultRevTolerance   = 0.5
)

func parseFloatParam(query string, fallback float64) (float64, bool) {
	if query == "" {
		return fallback, true
	}
	parsed, err := strconv.ParseFloat(query, 64)
	if err != nil {
		return 0, false
	}
	return parsed, true
}

// ListComparables handles GET /submissions/{id}/comparables
// The database pre-filters on layer, quote-date window, revenue tolerance
// around the submission, and attachment range. Stage, industry substring,
// and minimum similarity refinement plus sorting run on the result set.
func (h *ComparableHandler) ListComparables(w http.ResponseWriter, r *http.Request) {
	submissionID := r.PathValue("id")
	if submissionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "submission_id is required")
		return
	}

	row := h.db.QueryRow(`SELECT `+submissionColumns+` FROM submission WHERE id = $1`, submissionID)
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

	query := r.URL.Query()

	windowDays := defaultCompWindowDays
	if raw := query.Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			middleware.ErrorResponse(w, http.StatusBadRequest, "days must be a positive integer")
			return
		}
		windowDays = parsed
	}

	tolerance, ok := parseFloatParam(query.Get("revenue_tolerance"), defaultRevTolerance)
	if !ok || tolerance < 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "revenue_tolerance must be a non-negative number")
		return
	}

	builder := sq.Select(
		"id", "submission_id", "company", "industry", "revenue", "layer",
		"limit_amount", "attachment", "rate_per_million",
		"exposure_similarity", "controls_similarity", "stage", "quoted_at").
		From("comparable").
		Where(sq.GtOrEq{"quoted_at": time.Now().AddDate(0, 0, -windowDays)}).
		PlaceholderFormat(sq.Dollar)

	if layer := query.Get("layer"); layer != "" {
		builder = builder.Where(sq.Eq{"layer": layer})
	}

	if tolerance > 0 && submission.Revenue > 0 {
		low := int64(float64(submission.Revenue) * (1 - tolerance))
		high := int64(float64(submission.Revenue) * (1 + tolerance))
		builder = builder.Where(sq.GtOrEq{"revenue": low}).Where(sq.LtOrEq{"revenue": high})
	}

	if raw := query.Get("attachment_min"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, "attachment_min must be an integer")
			return
		}
		builder = builder.Where(sq.GtOrEq{"attachment": parsed})
	}
	if raw := query.Get("attachment_max"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, "attachment_max must be an integer")
			return
		}
		builder = builder.Where(sq.LtOrEq{"attachment": parsed})
	}

	sqlText, args, err := builder.OrderBy("quoted_at DESC").ToSql()
	if err != nil {
		slog.Error("failed to build comparables query", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	rows, err := h.db.Query(sqlText, args...)
	if err != nil {
		slog.Error("failed to query comparables", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	comps := []models.Comparable{}
	for rows.Next() {
		var c models.Comparable
		if err := rows.Scan(&c.ID, &c.SubmissionID, &c.Company, &c.Industry,
			&c.Revenue, &c.Layer, &c.Limit, &c.Attachment, &c.RatePerMillion,
			&c.ExposureSimilarity, &c.ControlsSimilarity, &c.Stage, &c.QuotedAt); err != nil {
			slog.Error("failed to scan comparable", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		comps = append(comps, c)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to read comparables", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	minSim, ok := parseFloatParam(query.Get("min_similarity"), 0)
	if !ok {
		middleware.ErrorResponse(w, http.StatusBadRequest, "min_similarity must be a number")
		return
	}
	minControls, ok := parseFloatParam(query.Get("min_controls_similarity"), 0)
	if !ok {
		middleware.ErrorResponse(w, http.StatusBadRequest, "min_controls_similarity must be a number")
		return
	}

	comps = FilterComparables(comps, CompFilter{
		Stage:          query.Get("stage"),
		Industry:       query.Get("industry"),
		MinSimilarity:  minSim,
		MinControlsSim: minControls,
	})

	if column := query.Get("sort"); column != "" {
		if !ValidSortColumn(column) {
			middleware.ErrorResponse(w, http.StatusBadRequest, "Unknown sort column")
			return
		}
		SortComparables(comps, column, query.Get("dir") == "desc")
	}

	middleware.JSONResponse(w, http.StatusOK, comps)
}
