package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatusForConfidence(t *testing.T) {
	tests := []struct {
		confidence float64
		want       MatchStatus
	}{
		{1.0, StatusMatched},
		{0.7, StatusMatched},
		{0.69, StatusNeedsReview},
		{0.5, StatusNeedsReview},
		{0.49, StatusNoMatch},
		{0.0, StatusNoMatch},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusForConfidence(tt.confidence), "confidence %.2f", tt.confidence)
	}
}

func TestNoMatch(t *testing.T) {
	r := NoMatch("no candidates found")
	assert.False(t, r.Matched)
	assert.Nil(t, r.PoliticianID)
	assert.Zero(t, r.Confidence)
	assert.Equal(t, StatusNoMatch, r.Status)
	assert.Equal(t, MethodNone, r.Method)
	assert.Equal(t, "no candidates found", r.Reason)
}

func TestDomainValid(t *testing.T) {
	for _, d := range AllDomains {
		assert.True(t, d.Valid(), "domain %s", d)
	}
	assert.False(t, Domain("politician").Valid())
	assert.False(t, Domain("").Valid())
}

func TestMatchCountsTotal(t *testing.T) {
	c := MatchCounts{Matched: 3, NeedsReview: 2, NoMatch: 1, Errors: 1}
	assert.Equal(t, 7, c.Total())
	assert.Zero(t, MatchCounts{}.Total())
}

func TestRelationshipActive(t *testing.T) {
	rel := Relationship{StartDate: time.Now()}
	assert.True(t, rel.Active())

	end := time.Now()
	rel.EndDate = &end
	assert.False(t, rel.Active())
}
