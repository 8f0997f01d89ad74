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

	"github.com/hartline/uwportal/auth"
	"github.com/hartline/uwportal/cliparse"
	"github.com/hartline/uwportal/middleware"
	"github.com/hartline/uwportal/models"
)

// WorkflowHandler runs the shared review queue: reviewers register for a
// token, claim submissions, and record one updatable vote each.
type WorkflowHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewWorkflowHandler(db *sql.DB, cfg cliparse.Config) *WorkflowHandler {
	return &WorkflowHandler{db: db, cfg: cfg}
}

// reviewerFromToken resolves the X-Reviewer-Token header to a reviewer row.
func (h *WorkflowHandler) reviewerFromToken(r *http.Request) (id, name string, err error) {
	token := r.Header.Get("X-Reviewer-Token")
	if token == "" {
		return "", "", sql.ErrNoRows
	}
	err = h.db.QueryRow(`SELECT id, name FROM reviewer WHERE token = $1`, token).Scan(&id, &name)
	return id, name, err
}

// RegisterReviewer handles POST /workflow/register
// Registering the same name again rotates the token.
func (h *WorkflowHandler) RegisterReviewer(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterReviewerRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	name := strings.TrimSpace(req.ReviewerName)
	if name == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Reviewer name is required")
		return
	}

	token, err := auth.GenerateReviewerToken()
	if err != nil {
		slog.Error("failed to generate reviewer token", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to register reviewer")
		return
	}

	var existingID string
	err = h.db.QueryRow(`SELECT id FROM reviewer WHERE name = $1`, name).Scan(&existingID)
	switch {
	case err == sql.ErrNoRows:
		_, err = h.db.Exec(`
			INSERT INTO reviewer (id, name, token, created_at)
			VALUES ($1, $2, $3, $4)
		`, uuid.NewString(), name, token, time.Now())
	case err == nil:
		_, err = h.db.Exec(`UPDATE reviewer SET token = $1 WHERE id = $2`, token, existingID)
	}
	if err != nil {
		slog.Error("failed to register reviewer", "error", err, "reviewer", name)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to register reviewer")
		return
	}

	slog.Info("reviewer registered", "reviewer", name)

	middleware.JSONResponse(w, http.StatusCreated, models.RegisterReviewerResponse{ReviewerToken: token})
}

// GetQueue handles GET /workflow/queue
// Undecided submissions, oldest first, with current claim and vote counts.
func (h *WorkflowHandler) GetQueue(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.Query(`
		SELECT s.id, s.applicant_name, s.revenue, s.naics_code, s.created_at,
		       (SELECT COUNT(*) FROM review_claim c WHERE c.submission_id = s.id),
		       (SELECT COUNT(*) FROM review_vote v WHERE v.submission_id = s.id)
		FROM submission s
		WHERE s.decision_tag IS NULL
		ORDER BY s.created_at
	`)
	if err != nil {
		slog.Error("failed to query review queue", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	type queueItem struct {
		SubmissionID  string    `json:"submission_id"`
		ApplicantName string    `json:"applicant_name"`
		Revenue       int64     `json:"revenue"`
		NAICSCode     string    `json:"naics_code"`
		CreatedAt     time.Time `json:"created_at"`
		Claims        int       `json:"claims"`
		Votes         int       `json:"votes"`
	}
	queue := []queueItem{}
	for rows.Next() {
		var item queueItem
		if err := rows.Scan(&item.SubmissionID, &item.ApplicantName, &item.Revenue,
			&item.NAICSCode, &item.CreatedAt, &item.Claims, &item.Votes); err != nil {
			slog.Error("failed to scan queue item", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		queue = append(queue, item)
	}

	middleware.JSONResponse(w, http.StatusOK, queue)
}

// ClaimSubmission handles POST /workflow/submissions/{id}/claim
// Claiming twice is a no-op.
func (h *WorkflowHandler) ClaimSubmission(w http.ResponseWriter, r *http.Request) {
	submissionID := r.PathValue("id")
	if submissionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "submission_id is required")
		return
	}

	reviewerID, reviewerName, err := h.reviewerFromToken(r)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Valid reviewer token required")
		return
	}
	if err != nil {
		slog.Error("failed to resolve reviewer token", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	var exists int
	err = h.db.QueryRow(`SELECT COUNT(*) FROM submission WHERE id = $1`, submissionID).Scan(&exists)
	if err != nil {
		slog.Error("failed to query submission", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if exists == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "Submission not found")
		return
	}

	var claimed int
	err = h.db.QueryRow(`
		SELECT COUNT(*) FROM review_claim WHERE submission_id = $1 AND reviewer_id = $2
	`, submissionID, reviewerID).Scan(&claimed)
	if err != nil {
		slog.Error("failed to query claim", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if claimed == 0 {
		_, err = h.db.Exec(`
			INSERT INTO review_claim (submission_id, reviewer_id, claimed_at)
			VALUES ($1, $2, $3)
		`, submissionID, reviewerID, time.Now())
		if err != nil {
			slog.Error("failed to insert claim", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to claim submission")
			return
		}
		slog.Info("submission claimed", "submission_id", submissionID, "reviewer", reviewerName)
	}

	middleware.JSONResponse(w, http.StatusOK, map[string]string{
		"submission_id": submissionID,
		"reviewer":      reviewerName,
	})
}

// Vote handles POST /workflow/submissions/{id}/vote
// One vote per reviewer per submission; voting again replaces the earlier
// vote.
func (h *WorkflowHandler) Vote(w http.ResponseWriter, r *http.Request) {
	submissionID := r.PathValue("id")
	if submissionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "submission_id is required")
		return
	}

	reviewerID, reviewerName, err := h.reviewerFromToken(r)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Valid reviewer token required")
		return
	}
	if err != nil {
		slog.Error("failed to resolve reviewer token", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	var req models.VoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if !models.ValidVote(req.Vote) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Vote must be approve, decline, or refer")
		return
	}

	var exists int
	err = h.db.QueryRow(`SELECT COUNT(*) FROM submission WHERE id = $1`, submissionID).Scan(&exists)
	if err != nil {
		slog.Error("failed to query submission", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if exists == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "Submission not found")
		return
	}

	var comment *string
	if req.Comment != "" {
		comment = &req.Comment
	}

	var existing int
	err = h.db.QueryRow(`
		SELECT COUNT(*) FROM review_vote WHERE submission_id = $1 AND reviewer_id = $2
	`, submissionID, reviewerID).Scan(&existing)
	if err != nil {
		slog.Error("failed to query vote", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	now := time.Now()
	if existing == 0 {
		_, err = h.db.Exec(`
			INSERT INTO review_vote (submission_id, reviewer_id, vote, comment, voted_at)
			VALUES ($1, $2, $3, $4, $5)
		`, submissionID, reviewerID, req.Vote, comment, now)
	} else {
		_, err = h.db.Exec(`
			UPDATE review_vote SET vote = $1, comment = $2, voted_at = $3
			WHERE submission_id = $4 AND reviewer_id = $5
		`, req.Vote, comment, now, submissionID, reviewerID)
	}
	if err != nil {
		slog.Error("failed to record vote", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to record vote")
		return
	}

	slog.Info("vote recorded", "submission_id", submissionID, "reviewer", reviewerName, "vote", req.Vote)

	middleware.JSONResponse(w, http.StatusOK, models.ReviewVote{
		SubmissionID: submissionID,
		Reviewer:     reviewerName,
		Vote:         req.Vote,
		Comment:      comment,
		VotedAt:      now,
	})
}

// VoteSummary handles GET /workflow/submissions/{id}/summary
func (h *WorkflowHandler) VoteSummary(w http.ResponseWriter, r *http.Request) {
	submissionID := r.PathValue("id")
	if submissionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "submission_id is required")
		return
	}

	rows, err := h.db.Query(`
		SELECT v.submission_id, rv.name, v.vote, v.comment, v.voted_at
		FROM review_vote v
		JOIN reviewer rv ON rv.id = v.reviewer_id
		WHERE v.submission_id = $1
		ORDER BY v.voted_at
	`, submissionID)
	if err != nil {
		slog.Error("failed to query votes", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	tallies := map[string]int{
		models.VoteApprove: 0,
		models.VoteDecline: 0,
		models.VoteRefer:   0,
	}
	votes := []models.ReviewVote{}
	for rows.Next() {
		var v models.ReviewVote
		if err := rows.Scan(&v.SubmissionID, &v.Reviewer, &v.Vote, &v.Comment, &v.VotedAt); err != nil {
			slog.Error("failed to scan vote", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		tallies[v.Vote]++
		votes = append(votes, v)
	}

	middleware.JSONResponse(w, http.StatusOK, models.VoteSummaryResponse{
		SubmissionID: submissionID,
		Tallies:      tallies,
		Votes:        votes,
	})
}

// MyWork handles GET /workflow/my-work
// Everything the calling reviewer has claimed or voted on.
func (h *WorkflowHandler) MyWork(w http.ResponseWriter, r *http.Request) {
	reviewerID, reviewerName, err := h.reviewerFromToken(r)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Valid reviewer token required")
		return
	}
	if err != nil {
		slog.Error("failed to resolve reviewer token", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	claimRows, err := h.db.Query(`
		SELECT submission_id, claimed_at FROM review_claim
		WHERE reviewer_id = $1 ORDER BY claimed_at
	`, reviewerID)
	if err != nil {
		slog.Error("failed to query claims", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer claimRows.Close()

	claims := []models.ReviewClaim{}
	for claimRows.Next() {
		claim := models.ReviewClaim{Reviewer: reviewerName}
		if err := claimRows.Scan(&claim.SubmissionID, &claim.ClaimedAt); err != nil {
			slog.Error("failed to scan claim", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		claims = append(claims, claim)
	}

	voteRows, err := h.db.Query(`
		SELECT submission_id, vote, comment, voted_at FROM review_vote
		WHERE reviewer_id = $1 ORDER BY voted_at
	`, reviewerID)
	if err != nil {
		slog.Error("failed to query votes", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer voteRows.Close()

	votes := []models.ReviewVote{}
	for voteRows.Next() {
		vote := models.ReviewVote{Reviewer: reviewerName}
		if err := voteRows.Scan(&vote.SubmissionID, &vote.Vote, &vote.Comment, &vote.VotedAt); err != nil {
			slog.Error("failed to scan vote", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		votes = append(votes, vote)
	}

	middleware.JSONResponse(w, http.StatusOK, models.MyWorkResponse{
		Reviewer: reviewerName,
		Claims:   claims,
		Votes:    votes,
	})
}
