// Package history records every model invocation as an auditable row:
// in_progress before the call, completed or failed after, regardless of
// outcome. The recorder is fully optional; without a sink it is a
// transparent pass-through.
package history

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/seiji-watch/polimatch/internal/model"
)

// Sink persists processing history records.
type Sink interface {
	Create(ctx context.Context, rec *model.ProcessingRecord) error
	Update(ctx context.Context, rec *model.ProcessingRecord) error
	GetBySubject(ctx context.Context, subjectType string, subjectID int64) ([]model.ProcessingRecord, error)
}

// Invocation describes the model call being recorded.
type Invocation struct {
	ProcessingType   string
	ModelName        string
	ModelVersion     string
	PromptTemplateID string
	PromptVariables  map[string]any
	SubjectType      string
	SubjectID        int64
	CreatedBy        string
}

// Recorder wraps model invocations with audit records. A nil Recorder or a
// Recorder without a sink simply runs the wrapped call.
type Recorder struct {
	sink Sink
	log  *zap.Logger
	// now is swapped in tests.
	now func() time.Time
}

// NewRecorder creates a Recorder on a sink. sink may be nil.
func NewRecorder(sink Sink) *Recorder {
	return &Recorder{
		sink: sink,
		log:  zap.L().With(zap.String("component", "history_recorder")),
		now:  time.Now,
	}
}

// Record runs invoke, bracketing it with an audit record. Rules:
//   - a failure to persist the initial record is logged and the call runs
//     without history, never aborted;
//   - on success the record transitions to completed with a result summary;
//   - on error (including context cancellation while the call is in flight)
//     the record transitions to failed, best-effort, and the original error
//     is returned unchanged;
//   - a history-persistence failure never masks the wrapped call's outcome.
func (r *Recorder) Record(ctx context.Context, inv Invocation, invoke func(ctx context.Context) (model.MatchResult, error)) (model.MatchResult, error) {
	if r == nil || r.sink == nil {
		return invoke(ctx)
	}

	rec := &model.ProcessingRecord{
		ProcessingType:   inv.ProcessingType,
		ModelName:        inv.ModelName,
		ModelVersion:     inv.ModelVersion,
		PromptTemplateID: inv.PromptTemplateID,
		PromptVariables:  inv.PromptVariables,
		SubjectType:      inv.SubjectType,
		SubjectID:        inv.SubjectID,
		Status:           model.ProcessingInProgress,
		StartedAt:        r.now(),
		CreatedBy:        inv.CreatedBy,
	}

	recorded := true
	if err := r.sink.Create(ctx, rec); err != nil {
		r.log.Warn("failed to create history record, continuing without history",
			zap.String("processing_type", inv.ProcessingType),
			zap.Int64("subject_id", inv.SubjectID),
			zap.Error(err),
		)
		recorded = false
	}

	result, invokeErr := invoke(ctx)

	if recorded {
		completed := r.now()
		rec.CompletedAt = &completed
		if invokeErr != nil {
			rec.Status = model.ProcessingFailed
			rec.ErrorMessage = invokeErr.Error()
		} else {
			rec.Status = model.ProcessingCompleted
			rec.Result = summarizeResult(result)
		}
		// Use a detached context so cancellation of the call still lets the
		// failure record land.
		updateCtx := ctx
		if ctx.Err() != nil {
			var cancel context.CancelFunc
			updateCtx, cancel = context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
		}
		if err := r.sink.Update(updateCtx, rec); err != nil {
			r.log.Warn("failed to update history record",
				zap.Int64("record_id", rec.ID),
				zap.Error(err),
			)
		}
	}

	return result, invokeErr
}

// summarizeResult extracts the salient scalar fields of a match result for
// the audit row.
func summarizeResult(result model.MatchResult) map[string]any {
	summary := map[string]any{
		"result_type": "match_result",
		"matched":     result.Matched,
		"confidence":  result.Confidence,
		"status":      string(result.Status),
		"method":      string(result.Method),
	}
	if result.PoliticianID != nil {
		summary["politician_id"] = *result.PoliticianID
	}
	return summary
}
