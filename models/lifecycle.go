// Copyright (c) 2025 Hartline Specialty.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

// Endorsement status constants
const (
	EndorsementDraft  = "draft"
	EndorsementIssued = "issued"
	EndorsementVoid   = "void"

	// EndorsementDeleted is a virtual state used by the transition table.
	// Deleted endorsements are removed from storage, not marked.
	EndorsementDeleted = "deleted"
)

// Subjectivity status constants
const (
	SubjectivityPending  = "pending"
	SubjectivityReceived = "received"
	SubjectivityWaived   = "waived"
)

// Coverage mapping status constants
const (
	CoveragePending  = "pending"
	CoverageApproved = "approved"
	CoverageRejected = "rejected"
	CoverageDeleted  = "deleted"
)

// Document entry status constants
const (
	DocumentDraft    = "draft"
	DocumentActive   = "active"
	DocumentArchived = "archived"
)

// Document position constants
const (
	PositionPrimary = "primary"
	PositionExcess  = "excess"
	PositionEither  = "either"
)

// Policy status constants
const (
	PolicyBound  = "bound"
	PolicyIssued = "issued"
)

// Workflow vote constants
const (
	VoteApprove = "approve"
	VoteDecline = "decline"
	VoteRefer   = "refer"
)

// endorsementTransitions is the closed transition set for endorsements:
// drafts may be issued or deleted, issued endorsements may only be voided,
// and voided endorsements may only be reinstated (back to issued).
var endorsementTransitions = map[string][]string{
	EndorsementDraft:  {EndorsementIssued, EndorsementDeleted},
	EndorsementIssued: {EndorsementVoid},
	EndorsementVoid:   {EndorsementIssued},
}

// coverageTransitions: pending mappings are approved or rejected; rejected
// mappings may be reset to pending or deleted; approved is terminal.
var coverageTransitions = map[string][]string{
	CoveragePending:  {CoverageApproved, CoverageRejected},
	CoverageRejected: {CoveragePending, CoverageDeleted},
}

// documentTransitions is strictly one-way: draft -> active -> archived.
var documentTransitions = map[string][]string{
	DocumentDraft:  {DocumentActive},
	DocumentActive: {DocumentArchived},
}

func canTransition(table map[string][]string, from, to string) bool {
	for _, next := range table[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CanTransitionEndorsement reports whether an endorsement may move from one
// status to another. All handlers consult this table rather than comparing
// statuses inline.
func CanTransitionEndorsement(from, to string) bool {
	return canTransition(endorsementTransitions, from, to)
}

// CanTransitionCoverage reports whether a coverage mapping may move between
// the given statuses.
func CanTransitionCoverage(from, to string) bool {
	return canTransition(coverageTransitions, from, to)
}

// CanTransitionDocument reports whether a document entry may move between
// the given statuses.
func CanTransitionDocument(from, to string) bool {
	return canTransition(documentTransitions, from, to)
}

// ValidVote reports whether v is a recognized workflow vote.
func ValidVote(v string) bool {
	return v == VoteApprove || v == VoteDecline || v == VoteRefer
}

// ValidDocumentPosition reports whether p is a recognized attachment position.
func ValidDocumentPosition(p string) bool {
	return p == PositionPrimary || p == PositionExcess || p == PositionEither
}
