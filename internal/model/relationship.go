package model

import "time"

// Relationship is a permanent politician relationship created by promotion:
// a conference membership, group membership, speaker link or judge record.
// Active relationships have a nil EndDate.
type Relationship struct {
	ID           int64      `json:"id"`
	PoliticianID int64      `json:"politician_id"`
	SubjectID    int64      `json:"subject_id"`
	Role         string     `json:"role,omitempty"`
	StartDate    time.Time  `json:"start_date"`
	EndDate      *time.Time `json:"end_date,omitempty"`
	CreatedBy    string     `json:"created_by,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Active reports whether the relationship is currently in effect.
func (r Relationship) Active() bool {
	return r.EndDate == nil
}
