// Copyright (c) 2025 Hartline Specialty.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/hartline/uwportal/cliparse"
	"github.com/hartline/uwportal/debounce"
	"github.com/hartline/uwportal/middleware"
	"github.com/hartline/uwportal/models"
)

// CoverageHandler serves the catalog curation surface. The stats snapshot
// is cached in memory; catalog mutations schedule a recompute through the
// debouncer so a burst of curation actions folds into one recount.
type CoverageHandler struct {
	db        *sql.DB
	cfg       cliparse.Config
	debouncer *debounce.Debouncer

	mu       sync.RWMutex
	stats    models.CoverageStats
	hasStats bool
}

func NewCoverageHandler(db *sql.DB, cfg cliparse.Config) *CoverageHandler {
	return &CoverageHandler{
		db:        db,
		cfg:       cfg,
		debouncer: debounce.New(debounce.DefaultDelay),
	}
}

func (h *CoverageHandler) computeStats() (models.CoverageStats, error) {
	var stats models.CoverageStats
	err := h.db.QueryRow(`
		SELECT COUNT(*),
		       COUNT(CASE WHEN status = 'pending' THEN 1 END),
		       COUNT(CASE WHEN status = 'approved' THEN 1 END),
		       COUNT(CASE WHEN status = 'rejected' THEN 1 END),
		       COUNT(DISTINCT carrier)
		FROM coverage_mapping
	`).Scan(&stats.Total, &stats.Pending, &stats.Approved, &stats.Rejected, &stats.Carriers)
	if err != nil {
		return models.CoverageStats{}, err
	}
	stats.ComputedAt = time.Now()
	return stats, nil
}

// scheduleStats queues a snapshot recompute. Later calls within the window
// cancel earlier pending ones.
func (h *CoverageHandler) scheduleStats() {
	h.debouncer.Trigger(func() {
		stats, err := h.computeStats()
		if err != nil {
			slog.Error("failed to recompute coverage stats", "error", err)
			return
		}
		h.mu.Lock()
		h.stats = stats
		h.hasStats = true
		h.mu.Unlock()
	})
}

// GetStats handles GET /coverage/stats
func (h *CoverageHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	stats, ok := h.stats, h.hasStats
	h.mu.RUnlock()

	if !ok {
		fresh, err := h.computeStats()
		if err != nil {
			slog.Error("failed to compute coverage stats", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		h.mu.Lock()
		h.stats = fresh
		h.hasStats = true
		h.mu.Unlock()
		stats = fresh
	}

	middleware.JSONResponse(w, http.StatusOK, stats)
}

// GetTags handles GET /coverage/tags
// Tag frequency across approved mappings.
func (h *CoverageHandler) GetTags(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.Query(`
		SELECT normalized_tags FROM coverage_mapping WHERE status = $1
	`, models.CoverageApproved)
	if err != nil {
		slog.Error("failed to query coverage tags", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var raw *string
		if err := rows.Scan(&raw); err != nil {
			slog.Error("failed to scan coverage tags", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		for _, tag := range unmarshalList(raw) {
			counts[tag]++
		}
	}

	middleware.JSONResponse(w, http.StatusOK, counts)
}

func scanMappings(rows *sql.Rows) ([]models.CoverageMapping, error) {
	mappings := []models.CoverageMapping{}
	for rows.Next() {
		var m models.CoverageMapping
		var tags *string
		if err := rows.Scan(&m.ID, &m.Carrier, &m.OriginalText, &tags,
			&m.Status, &m.CreatedAt, &m.ReviewedAt); err != nil {
			return nil, err
		}
		m.NormalizedTags = unmarshalList(tags)
		mappings = append(mappings, m)
	}
	return mappings, rows.Err()
}

const mappingColumns = "id, carrier, original_text, normalized_tags, status, created_at, reviewed_at"

// GetPending handles GET /coverage/pending
func (h *CoverageHandler) GetPending(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.Query(`
		SELECT `+mappingColumns+` FROM coverage_mapping
		WHERE status = $1 ORDER BY created_at
	`, models.CoveragePending)
	if err != nil {
		slog.Error("failed to query pending mappings", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	mappings, err := scanMappings(rows)
	if err != nil {
		slog.Error("failed to scan pending mappings", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, mappings)
}

// GetCarriers handles GET /coverage/carriers
func (h *CoverageHandler) GetCarriers(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.Query(`SELECT DISTINCT carrier FROM coverage_mapping ORDER BY carrier`)
	if err != nil {
		slog.Error("failed to query carriers", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	carriers := []string{}
	for rows.Next() {
		var carrier string
		if err := rows.Scan(&carrier); err != nil {
			slog.Error("failed to scan carrier", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		carriers = append(carriers, carrier)
	}

	middleware.JSONResponse(w, http.StatusOK, carriers)
}

// Lookup handles GET /coverage/lookup?carrier=&q=
// Finds approved mappings for a carrier whose original text contains the
// search phrase.
func (h *CoverageHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	carrier := r.URL.Query().Get("carrier")
	if carrier == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "carrier is required")
		return
	}

	builder := sq.Select(mappingColumns).
		From("coverage_mapping").
		Where(sq.Eq{"carrier": carrier, "status": models.CoverageApproved}).
		OrderBy("created_at").
		PlaceholderFormat(sq.Dollar)

	if q := r.URL.Query().Get("q"); q != "" {
		builder = builder.Where(sq.Like{"LOWER(original_text)": "%" + strings.ToLower(q) + "%"})
	}

	sqlText, args, err := builder.ToSql()
	if err != nil {
		slog.Error("failed to build lookup query", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	rows, err := h.db.Query(sqlText, args...)
	if err != nil {
		slog.Error("failed to query coverage lookup", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	mappings, err := scanMappings(rows)
	if err != nil {
		slog.Error("failed to scan coverage lookup", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, mappings)
}

// CreateMapping handles POST /coverage
func (h *CoverageHandler) CreateMapping(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCoverageMappingRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if strings.TrimSpace(req.Carrier) == "" || strings.TrimSpace(req.OriginalText) == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Carrier and original text are required")
		return
	}

	mapping := models.CoverageMapping{
		ID:             uuid.NewString(),
		Carrier:        strings.TrimSpace(req.Carrier),
		OriginalText:   strings.TrimSpace(req.OriginalText),
		NormalizedTags: req.NormalizedTags,
		Status:         models.CoveragePending,
		CreatedAt:      time.Now(),
	}
	_, err := h.db.Exec(`
		INSERT INTO coverage_mapping (id, carrier, original_text, normalized_tags, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, mapping.ID, mapping.Carrier, mapping.OriginalText,
		marshalList(mapping.NormalizedTags), mapping.Status, mapping.CreatedAt)
	if err != nil {
		slog.Error("failed to insert coverage mapping", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create mapping")
		return
	}

	h.scheduleStats()

	middleware.JSONResponse(w, http.StatusCreated, mapping)
}

// transition moves a mapping between statuses after checking the catalog
// transition table.
func (h *CoverageHandler) transition(w http.ResponseWriter, mappingID, to string) {
	var current string
	err := h.db.QueryRow(`SELECT status FROM coverage_mapping WHERE id = $1`, mappingID).Scan(&current)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Mapping not found")
		return
	}
	if err != nil {
		slog.Error("failed to query coverage mapping", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if !models.CanTransitionCoverage(current, to) {
		middleware.ErrorResponse(w, http.StatusConflict, "Cannot move mapping from "+current+" to "+to)
		return
	}

	var reviewedAt *time.Time
	if to == models.CoverageApproved || to == models.CoverageRejected {
		now := time.Now()
		reviewedAt = &now
	}

	_, err = h.db.Exec(`
		UPDATE coverage_mapping SET status = $1, reviewed_at = $2 WHERE id = $3
	`, to, reviewedAt, mappingID)
	if err != nil {
		slog.Error("failed to transition coverage mapping", "error", err, "mapping_id", mappingID, "to", to)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update mapping")
		return
	}

	h.scheduleStats()

	middleware.JSONResponse(w, http.StatusOK, map[string]string{"status": to})
}

// ApproveMapping handles POST /coverage/{id}/approve
func (h *CoverageHandler) ApproveMapping(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r.PathValue("id"), models.CoverageApproved)
}

// RejectMapping handles POST /coverage/{id}/reject
func (h *CoverageHandler) RejectMapping(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r.PathValue("id"), models.CoverageRejected)
}

// ResetMapping handles POST /coverage/{id}/reset
// Returns a rejected mapping to the review queue.
func (h *CoverageHandler) ResetMapping(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r.PathValue("id"), models.CoveragePending)
}

// UpdateTags handles PUT /coverage/{id}/tags
func (h *CoverageHandler) UpdateTags(w http.ResponseWriter, r *http.Request) {
	mappingID := r.PathValue("id")
	if mappingID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "mapping_id is required")
		return
	}

	var req models.UpdateCoverageTagsRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	result, err := h.db.Exec(`
		UPDATE coverage_mapping SET normalized_tags = $1 WHERE id = $2
	`, marshalList(req.NormalizedTags), mappingID)
	if err != nil {
		slog.Error("failed to update coverage tags", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update tags")
		return
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "Mapping not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteMapping handles DELETE /coverage/{id}
// Only rejected mappings can be removed.
func (h *CoverageHandler) DeleteMapping(w http.ResponseWriter, r *http.Request) {
	mappingID := r.PathValue("id")
	if mappingID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "mapping_id is required")
		return
	}

	var current string
	err := h.db.QueryRow(`SELECT status FROM coverage_mapping WHERE id = $1`, mappingID).Scan(&current)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Mapping not found")
		return
	}
	if err != nil {
		slog.Error("failed to query coverage mapping", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if !models.CanTransitionCoverage(current, models.CoverageDeleted) {
		middleware.ErrorResponse(w, http.StatusConflict, "Only rejected mappings can be deleted")
		return
	}

	_, err = h.db.Exec(`DELETE FROM coverage_mapping WHERE id = $1`, mappingID)
	if err != nil {
		slog.Error("failed to delete coverage mapping", "error", err, "mapping_id", mappingID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to delete mapping")
		return
	}

	h.scheduleStats()

	w.WriteHeader(http.StatusNoContent)
}
