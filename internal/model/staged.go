package model

import "time"

// Domain identifies one of the four staged matching domains.
type Domain string

const (
	DomainSpeaker          Domain = "speaker"
	DomainConferenceMember Domain = "conference_member"
	DomainGroupMember      Domain = "group_member"
	DomainProposalJudge    Domain = "proposal_judge"
)

// AllDomains lists the staged matching domains in display order.
var AllDomains = []Domain{
	DomainSpeaker,
	DomainConferenceMember,
	DomainGroupMember,
	DomainProposalJudge,
}

// Valid reports whether d is a known domain.
func (d Domain) Valid() bool {
	switch d {
	case DomainSpeaker, DomainConferenceMember, DomainGroupMember, DomainProposalJudge:
		return true
	}
	return false
}

// StagedEntity is one name-bearing record harvested from an external source,
// staged for matching against canonical politicians.
type StagedEntity struct {
	ID          int64     `json:"id"`
	SubjectID   int64     `json:"subject_id"`
	SourceName  string    `json:"source_name"`
	SourceParty string    `json:"source_party,omitempty"`
	SourceRole  string    `json:"source_role,omitempty"`
	SourceURL   string    `json:"source_url"`
	ExtractedAt time.Time `json:"extracted_at"`

	// Matching state, mutated only by the lifecycle manager.
	MatchingStatus      MatchStatus `json:"matching_status"`
	MatchedPoliticianID *int64      `json:"matched_politician_id,omitempty"`
	MatchingConfidence  *float64    `json:"matching_confidence,omitempty"`
	MatchingNotes       string      `json:"matching_notes,omitempty"`
	MatchRunID          string      `json:"match_run_id,omitempty"`
}

// MatchCounts aggregates the outcome of one matching pass over a batch.
type MatchCounts struct {
	Matched     int `json:"matched"`
	NeedsReview int `json:"needs_review"`
	NoMatch     int `json:"no_match"`
	Errors      int `json:"errors"`
}

// Total returns the number of records the pass attempted.
func (c MatchCounts) Total() int {
	return c.Matched + c.NeedsReview + c.NoMatch + c.Errors
}

// PromoteCounts aggregates the outcome of one promotion pass.
type PromoteCounts struct {
	Created int     `json:"created"`
	Skipped int     `json:"skipped"`
	IDs     []int64 `json:"created_ids,omitempty"`
}
