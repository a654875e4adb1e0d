package model

import "time"

// ProcessingStatus is the lifecycle state of a processing history record.
type ProcessingStatus string

const (
	ProcessingPending    ProcessingStatus = "pending"
	ProcessingInProgress ProcessingStatus = "in_progress"
	ProcessingCompleted  ProcessingStatus = "completed"
	ProcessingFailed     ProcessingStatus = "failed"
)

// ProcessingRecord is the audit trail of a single model invocation.
// Records are append-only: created in_progress before the call, transitioned
// to completed or failed exactly once afterward, never mutated again.
type ProcessingRecord struct {
	ID               int64            `json:"id"`
	ProcessingType   string           `json:"processing_type"`
	ModelName        string           `json:"model_name"`
	ModelVersion     string           `json:"model_version,omitempty"`
	PromptTemplateID string           `json:"prompt_template_id,omitempty"`
	PromptVariables  map[string]any   `json:"prompt_variables,omitempty"`
	SubjectType      string           `json:"subject_type"`
	SubjectID        int64            `json:"subject_id"`
	Status           ProcessingStatus `json:"status"`
	Result           map[string]any   `json:"result,omitempty"`
	ErrorMessage     string           `json:"error_message,omitempty"`
	StartedAt        time.Time        `json:"started_at"`
	CompletedAt      *time.Time       `json:"completed_at,omitempty"`
	CreatedBy        string           `json:"created_by,omitempty"`
}
