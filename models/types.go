// Copyright (c) 2025 Hartline Specialty.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"encoding/json"
	"time"
)

// Request types

type UpdateSubmissionRequest struct {
	ApplicantName     *string  `json:"applicant_name,omitempty"`
	Revenue           *int64   `json:"revenue,omitempty"`
	NAICSCode         *string  `json:"naics_code,omitempty"`
	NAICSTitle        *string  `json:"naics_title,omitempty"`
	BusinessSummary   *string  `json:"business_summary,omitempty"`
	BulletPoints      []string `json:"bullet_points,omitempty"`
	NISTControls      []string `json:"nist_controls,omitempty"`
	AIRecommendation  *string  `json:"ai_recommendation,omitempty"`
	HazardOverride    *int     `json:"hazard_override,omitempty"`
	ControlAdjustment *float64 `json:"control_adjustment,omitempty"`
}

type DecisionRequest struct {
	Tag     string `json:"tag"`
	Reason  string `json:"reason"`
	Decider string `json:"decider"`
}

type AddLossRequest struct {
	OccurredOn  string `json:"occurred_on"`
	Description string `json:"description"`
	Paid        int64  `json:"paid"`
	Reserved    int64  `json:"reserved"`
}

type CreateQuoteRequest struct {
	Retention      int64             `json:"retention"`
	PolicyForm     string            `json:"policy_form"`
	EffectiveDate  string            `json:"effective_date"`
	ExpirationDate string            `json:"expiration_date"`
	SoldPremium    int64             `json:"sold_premium"`
	RiskAdjusted   int64             `json:"risk_adjusted_premium"`
	Layers         []TowerLayerInput `json:"layers"`
}

type TowerLayerInput struct {
	Carrier    string `json:"carrier"`
	Limit      int64  `json:"limit"`
	Attachment int64  `json:"attachment"`
	Premium    int64  `json:"premium"`
}

// CreateEndorsementRequest carries the tagged per-type payload. Exactly one
// detail block should be present, matching the declared type.
type CreateEndorsementRequest struct {
	Type          string  `json:"type"`
	EffectiveDate string  `json:"effective_date"`
	AnnualRate    int64   `json:"annual_rate"`
	FlatOverride  *int64  `json:"flat_override,omitempty"`
	Notes         string  `json:"notes,omitempty"`
	ReinstatesID  *string `json:"reinstates_id,omitempty"`

	Extension     *ExtensionDetails     `json:"extension,omitempty"`
	NameChange    *NameChangeDetails    `json:"name_change,omitempty"`
	AddressChange *AddressChangeDetails `json:"address_change,omitempty"`
	Reinstatement *ReinstatementDetails `json:"reinstatement,omitempty"`
	Cancellation  *CancellationDetails  `json:"cancellation,omitempty"`
	ERP           *ERPDetails           `json:"erp,omitempty"`
	Coverage      *CoverageDetails      `json:"coverage_change,omitempty"`
	Other         *OtherDetails         `json:"other,omitempty"`
}

type ExtensionDetails struct {
	NewExpirationDate string `json:"new_expiration_date"`
}

type NameChangeDetails struct {
	NewName string `json:"new_name"`
}

type AddressChangeDetails struct {
	Street string `json:"street"`
	City   string `json:"city"`
	State  string `json:"state"`
	Zip    string `json:"zip"`
}

type ReinstatementDetails struct {
	LapseDays int `json:"lapse_days"`
}

type CancellationDetails struct {
	Reason            string `json:"reason"`
	NewExpirationDate string `json:"new_expiration_date"`
}

type ERPDetails struct {
	Duration     string               `json:"duration"`
	Percentage   float64              `json:"percentage"`
	Cancellation *CancellationDetails `json:"cancellation,omitempty"`
}

type CoverageDetails struct {
	CurrentLimit     int64    `json:"current_limit"`
	NewLimit         int64    `json:"new_limit"`
	CurrentRetention int64    `json:"current_retention"`
	NewRetention     int64    `json:"new_retention"`
	AddedCoverages   []string `json:"added_coverages,omitempty"`
	RemovedCoverages []string `json:"removed_coverages,omitempty"`
}

type OtherDetails struct {
	Description string `json:"description"`
}

type AddSubjectivityRequest struct {
	Text string `json:"text"`
}

type SubjectivityTemplateRequest struct {
	Text     string `json:"text"`
	Position string `json:"position"`
}

type CreateCoverageMappingRequest struct {
	Carrier        string   `json:"carrier"`
	OriginalText   string   `json:"original_text"`
	NormalizedTags []string `json:"normalized_tags"`
}

type UpdateCoverageTagsRequest struct {
	NormalizedTags []string `json:"normalized_tags"`
}

type DocumentEntryRequest struct {
	Code            string `json:"code"`
	Title           string `json:"title"`
	DocType         string `json:"doc_type"`
	Category        string `json:"category"`
	Position        string `json:"position"`
	ContentTemplate string `json:"content_template"`
}

type RegisterReviewerRequest struct {
	ReviewerName string `json:"reviewer_name"`
}

type VoteRequest struct {
	Vote    string `json:"vote"`
	Comment string `json:"comment,omitempty"`
}

// Response types

type CreateQuoteResponse struct {
	QuoteID string `json:"quote_id"`
}

type BindQuoteResponse struct {
	PolicyID     string `json:"policy_id"`
	PolicyNumber string `json:"policy_number"`
}

type EndorsementPreviewResponse struct {
	PremiumChange      int64  `json:"premium_change"`
	ComputedPremium    int64  `json:"computed_premium"`
	CancellationReturn int64  `json:"cancellation_return,omitempty"`
	Description        string `json:"description"`
	DaysBasis          int    `json:"days_basis"`
}

type PricingGuidanceResponse struct {
	CurrentAnnualPremium  int64 `json:"current_annual_premium"`
	ProposedAnnualPremium int64 `json:"proposed_annual_premium"`
	IncrementalAnnual     int64 `json:"incremental_annual"`
}

type PricingGridCell struct {
	Limit         int64 `json:"limit"`
	AnnualPremium int64 `json:"annual_premium"`
}

type RegisterReviewerResponse struct {
	ReviewerToken string `json:"reviewer_token"`
}

type VoteSummaryResponse struct {
	SubmissionID string         `json:"submission_id"`
	Tallies      map[string]int `json:"tallies"`
	Votes        []ReviewVote   `json:"votes"`
}

type MyWorkResponse struct {
	Reviewer string        `json:"reviewer"`
	Claims   []ReviewClaim `json:"claims"`
	Votes    []ReviewVote  `json:"votes"`
}

type RenewalComparisonResponse struct {
	ExpiringLimit     int64    `json:"expiring_limit"`
	ProposedLimit     int64    `json:"proposed_limit"`
	ExpiringRetention int64    `json:"expiring_retention"`
	ProposedRetention int64    `json:"proposed_retention"`
	ExpiringPremium   int64    `json:"expiring_premium"`
	ProposedPremium   int64    `json:"proposed_premium"`
	PremiumDelta      int64    `json:"premium_delta"`
	Changes           []string `json:"changes"`
}

// Domain types

type Submission struct {
	ID                string     `json:"id"`
	ApplicantName     string     `json:"applicant_name"`
	Revenue           int64      `json:"revenue"`
	NAICSCode         string     `json:"naics_code"`
	NAICSTitle        string     `json:"naics_title"`
	BusinessSummary   *string    `json:"business_summary,omitempty"`
	BulletPoints      []string   `json:"bullet_points,omitempty"`
	NISTControls      []string   `json:"nist_controls,omitempty"`
	AIRecommendation  *string    `json:"ai_recommendation,omitempty"`
	DecisionTag       *string    `json:"decision_tag,omitempty"`
	DecisionReason    *string    `json:"decision_reason,omitempty"`
	DecidedBy         *string    `json:"decided_by,omitempty"`
	DecidedAt         *time.Time `json:"decided_at,omitempty"`
	HazardOverride    *int       `json:"hazard_override,omitempty"`
	ControlAdjustment *float64   `json:"control_adjustment,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

type QuoteOption struct {
	ID             string       `json:"id"`
	SubmissionID   string       `json:"submission_id"`
	Retention      int64        `json:"retention"`
	PolicyForm     string       `json:"policy_form"`
	EffectiveDate  time.Time    `json:"effective_date"`
	ExpirationDate time.Time    `json:"expiration_date"`
	SoldPremium    int64        `json:"sold_premium"`
	RiskAdjusted   int64        `json:"risk_adjusted_premium"`
	Bound          bool         `json:"bound"`
	Layers         []TowerLayer `json:"layers,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
}

type TowerLayer struct {
	ID         string `json:"id"`
	QuoteID    string `json:"quote_id"`
	Position   int    `json:"position"`
	Carrier    string `json:"carrier"`
	Limit      int64  `json:"limit"`
	Attachment int64  `json:"attachment"`
	Premium    int64  `json:"premium"`
}

type Policy struct {
	ID             string     `json:"id"`
	SubmissionID   string     `json:"submission_id"`
	QuoteID        string     `json:"quote_id"`
	PolicyNumber   string     `json:"policy_number"`
	BasePremium    int64      `json:"base_premium"`
	EffectiveDate  time.Time  `json:"effective_date"`
	ExpirationDate time.Time  `json:"expiration_date"`
	Status         string     `json:"status"`
	IssuedAt       *time.Time `json:"issued_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// PolicyAggregate is the joined read model the portal renders from.
// EffectivePremium is base premium plus the premium change of every
// issued endorsement; drafts and voids do not count.
type PolicyAggregate struct {
	Policy           Policy         `json:"policy"`
	Submission       Submission     `json:"submission"`
	BoundOption      QuoteOption    `json:"bound_option"`
	Subjectivities   []Subjectivity `json:"subjectivities"`
	Endorsements     []Endorsement  `json:"endorsements"`
	EffectivePremium int64          `json:"effective_premium"`
}

type Endorsement struct {
	ID            string          `json:"id"`
	PolicyID      string          `json:"policy_id"`
	Type          string          `json:"type"`
	EffectiveDate time.Time       `json:"effective_date"`
	Description   string          `json:"description"`
	ChangeDetails json.RawMessage `json:"change_details,omitempty"`
	PremiumChange int64           `json:"premium_change"`
	Status        string          `json:"status"`
	ReinstatesID  *string         `json:"reinstates_id,omitempty"`
	Notes         *string         `json:"notes,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	IssuedAt      *time.Time      `json:"issued_at,omitempty"`
	VoidedAt      *time.Time      `json:"voided_at,omitempty"`
}

type Subjectivity struct {
	ID         string     `json:"id"`
	PolicyID   string     `json:"policy_id"`
	Text       string     `json:"text"`
	Status     string     `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

type SubjectivityTemplate struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Position  string    `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

type Comparable struct {
	ID                 string    `json:"id"`
	SubmissionID       string    `json:"submission_id"`
	Company            string    `json:"company"`
	Industry           string    `json:"industry"`
	Revenue            int64     `json:"revenue"`
	Layer              string    `json:"layer"`
	Limit              int64     `json:"limit"`
	Attachment         int64     `json:"attachment"`
	RatePerMillion     float64   `json:"rate_per_million"`
	ExposureSimilarity float64   `json:"exposure_similarity"`
	ControlsSimilarity float64   `json:"controls_similarity"`
	Stage              string    `json:"stage"`
	QuotedAt           time.Time `json:"quoted_at"`
}

type CoverageMapping struct {
	ID             string     `json:"id"`
	Carrier        string     `json:"carrier"`
	OriginalText   string     `json:"original_text"`
	NormalizedTags []string   `json:"normalized_tags"`
	Status         string     `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	ReviewedAt     *time.Time `json:"reviewed_at,omitempty"`
}

type CoverageStats struct {
	Total      int       `json:"total"`
	Pending    int       `json:"pending"`
	Approved   int       `json:"approved"`
	Rejected   int       `json:"rejected"`
	Carriers   int       `json:"carriers"`
	ComputedAt time.Time `json:"computed_at"`
}

type DocumentEntry struct {
	ID              string    `json:"id"`
	Code            string    `json:"code"`
	Title           string    `json:"title"`
	DocType         string    `json:"doc_type"`
	Category        string    `json:"category"`
	Position        string    `json:"position"`
	Status          string    `json:"status"`
	Version         int       `json:"version"`
	ContentTemplate string    `json:"content_template,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type GeneratedDocument struct {
	ID          string    `json:"id"`
	PolicyID    string    `json:"policy_id"`
	EntryID     string    `json:"entry_id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	GeneratedAt time.Time `json:"generated_at"`
}

type LossEvent struct {
	ID           string    `json:"id"`
	SubmissionID string    `json:"submission_id"`
	OccurredOn   time.Time `json:"occurred_on"`
	Description  string    `json:"description"`
	Paid         int64     `json:"paid"`
	Reserved     int64     `json:"reserved"`
	CreatedAt    time.Time `json:"created_at"`
}

type ReviewVote struct {
	SubmissionID string    `json:"submission_id"`
	Reviewer     string    `json:"reviewer"`
	Vote         string    `json:"vote"`
	Comment      *string   `json:"comment,omitempty"`
	VotedAt      time.Time `json:"voted_at"`
}

type ReviewClaim struct {
	SubmissionID string    `json:"submission_id"`
	Reviewer     string    `json:"reviewer"`
	ClaimedAt    time.Time `json:"claimed_at"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
