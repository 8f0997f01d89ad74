// Copyright (c) 2025 Hartline Specialty.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/hartline/uwportal/cliparse"
	"github.com/hartline/uwportal/handlers"
	"github.com/hartline/uwportal/middleware"
	"github.com/hartline/uwportal/rating"
)

func NewRouter(db *sql.DB, cfg cliparse.Config, tables rating.Tables) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	submissionHandler := handlers.NewSubmissionHandler(db, cfg)
	quoteHandler := handlers.NewQuoteHandler(db, cfg)
	policyHandler := handlers.NewPolicyHandler(db, cfg)
	endorsementHandler := handlers.NewEndorsementHandler(db, cfg)
	pricingHandler := handlers.NewPricingHandler(db, cfg, tables)
	subjectivityHandler := handlers.NewSubjectivityHandler(db, cfg)
	comparableHandler := handlers.NewComparableHandler(db, cfg)
	coverageHandler := handlers.NewCoverageHandler(db, cfg)
	documentHandler := handlers.NewDocumentHandler(db, cfg)
	workflowHandler := handlers.NewWorkflowHandler(db, cfg)

	admin := func(next http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(middleware.RequireAdmin(cfg.AdminKeySalt, next))
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Submissions
	mux.HandleFunc("POST /submissions", middleware.WithLogging(submissionHandler.CreateSubmission))
	mux.HandleFunc("GET /submissions", middleware.WithLogging(submissionHandler.SearchSubmissions))
	mux.HandleFunc("GET /submissions/{id}", middleware.WithLogging(submissionHandler.GetSubmission))
	mux.HandleFunc("PATCH /submissions/{id}", middleware.WithLogging(submissionHandler.UpdateSubmission))
	mux.HandleFunc("POST /submissions/{id}/decision", admin(submissionHandler.RecordDecision))
	mux.HandleFunc("GET /submissions/{id}/losses", middleware.WithLogging(submissionHandler.ListLosses))
	mux.HandleFunc("POST /submissions/{id}/losses", middleware.WithLogging(submissionHandler.AddLoss))
	mux.HandleFunc("GET /submissions/{id}/comparables", middleware.WithLogging(comparableHandler.ListComparables))
	mux.HandleFunc("GET /submissions/{id}/pricing-grid", middleware.WithLogging(pricingHandler.PricingGrid))

	// Quotes
	mux.HandleFunc("POST /submissions/{id}/quotes", middleware.WithLogging(quoteHandler.CreateQuote))
	mux.HandleFunc("GET /submissions/{id}/quotes", middleware.WithLogging(quoteHandler.ListQuotes))
	mux.HandleFunc("POST /quotes/{id}/bind", admin(quoteHandler.BindQuote))
	mux.HandleFunc("POST /quotes/{id}/unbind", admin(quoteHandler.UnbindQuote))

	// Policy aggregate
	mux.HandleFunc("GET /policies/{id}", middleware.WithLogging(policyHandler.GetPolicy))
	mux.HandleFunc("POST /policies/{id}/issue", admin(policyHandler.IssuePolicy))
	mux.HandleFunc("POST /policies/{id}/documents", admin(policyHandler.GenerateDocuments))
	mux.HandleFunc("GET /policies/{id}/documents", middleware.WithLogging(policyHandler.ListGeneratedDocuments))
	mux.HandleFunc("GET /policies/{id}/pricing-guidance", middleware.WithLogging(pricingHandler.PricingGuidance))
	mux.HandleFunc("GET /policies/{id}/renewal-comparison", middleware.WithLogging(pricingHandler.RenewalComparison))

	// Endorsements
	mux.HandleFunc("POST /policies/{id}/endorsements", middleware.WithLogging(endorsementHandler.CreateEndorsement))
	mux.HandleFunc("GET /policies/{id}/endorsements", middleware.WithLogging(endorsementHandler.ListEndorsements))
	mux.HandleFunc("POST /policies/{id}/endorsements/preview", middleware.WithLogging(endorsementHandler.PreviewEndorsement))
	mux.HandleFunc("POST /endorsements/{id}/issue", admin(endorsementHandler.IssueEndorsement))
	mux.HandleFunc("POST /endorsements/{id}/void", admin(endorsementHandler.VoidEndorsement))
	mux.HandleFunc("POST /endorsements/{id}/reinstate", admin(endorsementHandler.ReinstateEndorsement))
	mux.HandleFunc("DELETE /endorsements/{id}", admin(endorsementHandler.DeleteEndorsement))

	// Subjectivities
	mux.HandleFunc("POST /policies/{id}/subjectivities", middleware.WithLogging(subjectivityHandler.AddSubjectivity))
	mux.HandleFunc("POST /subjectivities/{id}/receive", middleware.WithLogging(subjectivityHandler.ReceiveSubjectivity))
	mux.HandleFunc("POST /subjectivities/{id}/waive", middleware.WithLogging(subjectivityHandler.WaiveSubjectivity))
	mux.HandleFunc("GET /subjectivity-templates", middleware.WithLogging(subjectivityHandler.ListTemplates))
	mux.HandleFunc("POST /subjectivity-templates", admin(subjectivityHandler.CreateTemplate))
	mux.HandleFunc("PUT /subjectivity-templates/{id}", admin(subjectivityHandler.UpdateTemplate))
	mux.HandleFunc("DELETE /subjectivity-templates/{id}", admin(subjectivityHandler.DeleteTemplate))

	// Coverage catalog
	mux.HandleFunc("GET /coverage/stats", middleware.WithLogging(coverageHandler.GetStats))
	mux.HandleFunc("GET /coverage/tags", middleware.WithLogging(coverageHandler.GetTags))
	mux.HandleFunc("GET /coverage/pending", middleware.WithLogging(coverageHandler.GetPending))
	mux.HandleFunc("GET /coverage/carriers", middleware.WithLogging(coverageHandler.GetCarriers))
	mux.HandleFunc("GET /coverage/lookup", middleware.WithLogging(coverageHandler.Lookup))
	mux.HandleFunc("POST /coverage", admin(coverageHandler.CreateMapping))
	mux.HandleFunc("POST /coverage/{id}/approve", admin(coverageHandler.ApproveMapping))
	mux.HandleFunc("POST /coverage/{id}/reject", admin(coverageHandler.RejectMapping))
	mux.HandleFunc("POST /coverage/{id}/reset", admin(coverageHandler.ResetMapping))
	mux.HandleFunc("PUT /coverage/{id}/tags", admin(coverageHandler.UpdateTags))
	mux.HandleFunc("DELETE /coverage/{id}", admin(coverageHandler.DeleteMapping))

	// Document library
	mux.HandleFunc("GET /documents", middleware.WithLogging(documentHandler.ListEntries))
	mux.HandleFunc("GET /documents/categories", middleware.WithLogging(documentHandler.ListCategories))
	mux.HandleFunc("POST /documents", admin(documentHandler.CreateEntry))
	mux.HandleFunc("PUT /documents/{id}", admin(documentHandler.UpdateEntry))
	mux.HandleFunc("POST /documents/{id}/activate", admin(documentHandler.ActivateEntry))
	mux.HandleFunc("POST /documents/{id}/archive", admin(documentHandler.ArchiveEntry))

	// Review workflow
	mux.HandleFunc("POST /workflow/register", middleware.WithLogging(workflowHandler.RegisterReviewer))
	mux.HandleFunc("GET /workflow/queue", middleware.WithLogging(workflowHandler.GetQueue))
	mux.HandleFunc("POST /workflow/submissions/{id}/claim", middleware.WithLogging(workflowHandler.ClaimSubmission))
	mux.HandleFunc("POST /workflow/submissions/{id}/vote", middleware.WithLogging(workflowHandler.Vote))
	mux.HandleFunc("GET /workflow/submissions/{id}/summary", middleware.WithLogging(workflowHandler.VoteSummary))
	mux.HandleFunc("GET /workflow/my-work", middleware.WithLogging(workflowHandler.MyWork))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("uwportal API v1"))
	})

	return mux
}
