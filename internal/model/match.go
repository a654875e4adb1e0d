package model

// MatchStatus is the workflow status of a staged record or match result.
type MatchStatus string

const (
	StatusPending     MatchStatus = "pending"
	StatusMatched     MatchStatus = "matched"
	StatusNeedsReview MatchStatus = "needs_review"
	StatusNoMatch     MatchStatus = "no_match"
)

// MatchMethod records which stage of the pipeline produced a result.
type MatchMethod string

const (
	MethodExisting  MatchMethod = "existing"
	MethodRuleBased MatchMethod = "rule-based"
	MethodModel     MatchMethod = "model-based"
	MethodNone      MatchMethod = "none"
)

// Confidence thresholds converting a continuous score into a workflow status.
// These are applied identically at every matching call site.
const (
	MatchedThreshold     = 0.7
	NeedsReviewThreshold = 0.5
)

// MatchResult is the uniform return contract of all matchers.
type MatchResult struct {
	Matched        bool        `json:"matched"`
	PoliticianID   *int64      `json:"politician_id,omitempty"`
	PoliticianName string      `json:"politician_name,omitempty"`
	Confidence     float64     `json:"confidence"`
	Status         MatchStatus `json:"status"`
	Reason         string      `json:"reason"`
	Method         MatchMethod `json:"method"`
}

// StatusForConfidence maps a confidence score onto a workflow status:
// >= 0.7 matched, >= 0.5 needs_review, otherwise no_match.
func StatusForConfidence(confidence float64) MatchStatus {
	switch {
	case confidence >= MatchedThreshold:
		return StatusMatched
	case confidence >= NeedsReviewThreshold:
		return StatusNeedsReview
	default:
		return StatusNoMatch
	}
}

// NoMatch builds a zero-confidence no_match result with the given reason.
func NoMatch(reason string) MatchResult {
	return MatchResult{
		Matched:    false,
		Confidence: 0.0,
		Status:     StatusNoMatch,
		Reason:     reason,
		Method:     MethodNone,
	}
}
