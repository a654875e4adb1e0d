// Package gateway is the language-model boundary of the matching pipeline.
// It accepts a structured match request and returns a parsed decision, or
// one of two distinguishable failures: the model answered outside the
// required schema (recoverable), or the service itself failed (propagates).
package gateway

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"

	"github.com/seiji-watch/polimatch/internal/model"
)

// MatchRequest is the structured input for one disambiguation call.
type MatchRequest struct {
	RawName    string
	EntityType string // hint: "speaker", "conference_member", ...
	PartyHint  string
	Candidates []model.Politician
}

// Decision is the structured output the model must produce.
type Decision struct {
	Matched        bool    `json:"matched"`
	PoliticianID   *int64  `json:"politician_id"`
	PoliticianName string  `json:"politician_name"`
	PartyName      string  `json:"party_name"`
	Confidence     float64 `json:"confidence"`
	Reason         string  `json:"reason"`
}

// Gateway produces a match decision for a request.
type Gateway interface {
	Decide(ctx context.Context, req MatchRequest) (*Decision, error)
	// ModelName identifies the underlying model for audit records.
	ModelName() string
}

// ErrStructuredOutput marks a response the model produced outside the
// required schema. Callers treat this as an expected, recoverable outcome,
// never as an application error.
var ErrStructuredOutput = errors.New("gateway: model did not produce structured output")

// ServiceError marks a failure of the external service itself (network,
// auth, quota, unexpected SDK errors). It propagates to the caller so a
// transient outage is never recorded as a confident no-match.
type ServiceError struct {
	Err error
}

func (e *ServiceError) Error() string {
	return "gateway: external service failure: " + e.Err.Error()
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError wraps err as an external-service failure.
func NewServiceError(err error) *ServiceError {
	return &ServiceError{Err: err}
}

// IsStructuredOutputErr reports whether err is a structured-output failure.
func IsStructuredOutputErr(err error) bool {
	return errors.Is(err, ErrStructuredOutput)
}

// IsServiceErr reports whether err is an external-service failure.
func IsServiceErr(err error) bool {
	var se *ServiceError
	return errors.As(err, &se)
}

// structuredOutputErr builds an ErrStructuredOutput with detail.
func structuredOutputErr(detail string) error {
	return eris.Wrap(ErrStructuredOutput, detail)
}
