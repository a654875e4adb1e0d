package matching

import (
	"context"

	"go.uber.org/zap"

	"github.com/seiji-watch/polimatch/internal/gateway"
	"github.com/seiji-watch/polimatch/internal/history"
	"github.com/seiji-watch/polimatch/internal/model"
	"github.com/seiji-watch/polimatch/internal/politician"
)

// DefaultRuleAcceptThreshold is the minimum rule-based confidence accepted
// without escalating to the model. 0.8 admits honorific-stripped matches
// (0.85) while still sending genuinely ambiguous names to the model; it is
// applied uniformly across all matching domains.
const DefaultRuleAcceptThreshold = 0.8

// Resolver resolves one staged entity to a match result.
type Resolver interface {
	Resolve(ctx context.Context, entity *model.StagedEntity) (model.MatchResult, error)
}

// Orchestrator composes the rule-based fast path with model-backed
// escalation for one matching domain. Control flow is identical across
// domains; only the candidate narrowing and audit tagging differ.
type Orchestrator struct {
	domain        model.Domain
	candidates    politician.CandidateStore
	modelMatcher  *ModelMatcher
	recorder      *history.Recorder
	ruleThreshold float64
	// partyFilter narrows candidates by the extracted party label before
	// matching. Enabled for proposal judges, where rosters span parties.
	partyFilter bool
	modelName   string
	log         *zap.Logger
}

// OrchestratorConfig configures an Orchestrator.
type OrchestratorConfig struct {
	Domain              model.Domain
	Candidates          politician.CandidateStore
	ModelMatcher        *ModelMatcher
	Recorder            *history.Recorder
	RuleAcceptThreshold float64
	PartyFilter         bool
	ModelName           string
}

// NewOrchestrator creates an Orchestrator for one domain.
func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	if cfg.RuleAcceptThreshold <= 0 {
		cfg.RuleAcceptThreshold = DefaultRuleAcceptThreshold
	}
	return &Orchestrator{
		domain:        cfg.Domain,
		candidates:    cfg.Candidates,
		modelMatcher:  cfg.ModelMatcher,
		recorder:      cfg.Recorder,
		ruleThreshold: cfg.RuleAcceptThreshold,
		partyFilter:   cfg.PartyFilter,
		modelName:     cfg.ModelName,
		log: zap.L().With(
			zap.String("component", "match_orchestrator"),
			zap.String("domain", string(cfg.Domain)),
		),
	}
}

// Resolve resolves one staged entity. An already-matched entity returns an
// "existing" result without further work; otherwise rules run first and the
// model is only consulted when no rule clears the acceptance threshold.
// External-service errors propagate uncaught; batch callers isolate them
// per record.
func (o *Orchestrator) Resolve(ctx context.Context, entity *model.StagedEntity) (model.MatchResult, error) {
	// Idempotent re-run guard.
	if entity.MatchedPoliticianID != nil {
		id := *entity.MatchedPoliticianID
		return model.MatchResult{
			Matched:      true,
			PoliticianID: &id,
			Confidence:   1.0,
			Status:       model.StatusMatched,
			Reason:       "previously matched",
			Method:       model.MethodExisting,
		}, nil
	}

	candidates, err := o.fetchCandidates(ctx, entity)
	if err != nil {
		return model.MatchResult{}, err
	}

	if rule := TryRuleMatch(entity.SourceName, entity.SourceParty, candidates); rule != nil {
		if rule.Confidence >= o.ruleThreshold {
			o.log.Debug("rule-based match accepted",
				zap.String("source_name", entity.SourceName),
				zap.Float64("confidence", rule.Confidence),
			)
			return *rule, nil
		}
		// Below the acceptance threshold the rule hit is discarded and the
		// model decides with the full candidate context.
	}

	invoke := func(ctx context.Context) (model.MatchResult, error) {
		return o.modelMatcher.Match(ctx, entity.SourceName, string(o.domain), entity.SourceParty, candidates)
	}

	if o.recorder == nil {
		return invoke(ctx)
	}
	return o.recorder.Record(ctx, history.Invocation{
		ProcessingType:   string(o.domain) + "_matching",
		ModelName:        o.modelName,
		PromptTemplateID: gateway.PromptTemplateID,
		PromptVariables: gateway.PromptVariables(gateway.MatchRequest{
			RawName:    entity.SourceName,
			EntityType: string(o.domain),
			PartyHint:  entity.SourceParty,
			Candidates: candidates,
		}),
		SubjectType: string(o.domain),
		SubjectID:   entity.SubjectID,
		CreatedBy:   "polimatch",
	}, invoke)
}

// fetchCandidates searches by normalized name and falls back to the bounded
// full roster when the search is too narrow to return anything.
func (o *Orchestrator) fetchCandidates(ctx context.Context, entity *model.StagedEntity) ([]model.Politician, error) {
	pattern := NormalizeName(entity.SourceName)

	candidates, err := o.candidates.SearchByName(ctx, pattern)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		candidates, err = o.candidates.GetAllForMatching(ctx)
		if err != nil {
			return nil, err
		}
	}

	if o.partyFilter {
		candidates = FilterByParty(candidates, entity.SourceParty)
	}
	return candidates, nil
}
