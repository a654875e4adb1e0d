package matching

import (
	"context"

	"github.com/seiji-watch/polimatch/internal/history"
	"github.com/seiji-watch/polimatch/internal/model"
)

// RecordedResolver brackets another resolver's model-backed work with audit
// records. The orchestrator records its own model calls; this wrapper exists
// for resolvers that drive the model directly, like the agentic matcher.
type RecordedResolver struct {
	inner          Resolver
	recorder       *history.Recorder
	processingType string
	modelName      string
	subjectType    string
}

// NewRecordedResolver wraps inner. recorder may be nil, in which case the
// wrapper is transparent.
func NewRecordedResolver(inner Resolver, recorder *history.Recorder, processingType, modelName, subjectType string) *RecordedResolver {
	return &RecordedResolver{
		inner:          inner,
		recorder:       recorder,
		processingType: processingType,
		modelName:      modelName,
		subjectType:    subjectType,
	}
}

// Resolve records one audit entry around the inner resolution. Entities that
// already carry a match resolve without touching the model, so they are not
// recorded.
func (r *RecordedResolver) Resolve(ctx context.Context, entity *model.StagedEntity) (model.MatchResult, error) {
	if r.recorder == nil || entity.MatchedPoliticianID != nil {
		return r.inner.Resolve(ctx, entity)
	}

	return r.recorder.Record(ctx, history.Invocation{
		ProcessingType: r.processingType,
		ModelName:      r.modelName,
		PromptVariables: map[string]any{
			"source_name":  entity.SourceName,
			"source_party": entity.SourceParty,
			"source_role":  entity.SourceRole,
		},
		SubjectType: r.subjectType,
		SubjectID:   entity.SubjectID,
		CreatedBy:   "polimatch",
	}, func(ctx context.Context) (model.MatchResult, error) {
		return r.inner.Resolve(ctx, entity)
	})
}
