package matching

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/seiji-watch/polimatch/internal/gateway"
	"github.com/seiji-watch/polimatch/internal/model"
)

// ModelMatcher escalates an unresolved name to the language model gateway.
// It never returns a nil result: recoverable failures become a zero
// confidence no_match; only external-service failures propagate as errors.
type ModelMatcher struct {
	gw            gateway.Gateway
	maxCandidates int
	roleMap       RoleMap
	log           *zap.Logger
}

// NewModelMatcher creates a ModelMatcher. roleMap may be nil.
func NewModelMatcher(gw gateway.Gateway, maxCandidates int, roleMap RoleMap) *ModelMatcher {
	if maxCandidates <= 0 {
		maxCandidates = DefaultMaxCandidates
	}
	return &ModelMatcher{
		gw:            gw,
		maxCandidates: maxCandidates,
		roleMap:       roleMap,
		log:           zap.L().With(zap.String("component", "model_matcher")),
	}
}

// Match resolves a raw name against candidates via the model. A role-only
// placeholder ("議長", "委員長", ...) short-circuits to no_match without a
// model call unless the role map resolves it to a personal name first.
func (m *ModelMatcher) Match(ctx context.Context, rawName, entityType, partyHint string, candidates []model.Politician) (model.MatchResult, error) {
	name := rawName
	if IsRolePlaceholder(name) {
		resolved := m.roleMap.Resolve(name)
		if resolved == "" {
			return model.NoMatch(fmt.Sprintf("role-only placeholder %q cannot identify an individual", rawName)), nil
		}
		m.log.Debug("resolved role placeholder",
			zap.String("placeholder", rawName),
			zap.String("resolved", resolved),
		)
		name = resolved
	}

	if len(candidates) == 0 {
		return model.NoMatch("no candidates available"), nil
	}

	ranked := RankCandidates(name, partyHint, candidates, m.maxCandidates)
	if len(ranked) == 0 {
		return model.NoMatch("no relevant candidates after ranking"), nil
	}

	decision, err := m.gw.Decide(ctx, gateway.MatchRequest{
		RawName:    name,
		EntityType: entityType,
		PartyHint:  partyHint,
		Candidates: ranked,
	})
	if err != nil {
		if gateway.IsStructuredOutputErr(err) {
			// Expected, recoverable outcome: the model answered in free text.
			return model.NoMatch("model did not return structured output"), nil
		}
		if gateway.IsServiceErr(err) {
			return model.MatchResult{}, err
		}
		return model.MatchResult{}, gateway.NewServiceError(err)
	}

	return applyDecisionThresholds(decision), nil
}

// rejectedConfidenceCap keeps an explicit model rejection below the review
// threshold: the recorded confidence reflects the strongest rejected
// candidate, not a reason to re-review.
const rejectedConfidenceCap = 0.49

// applyDecisionThresholds converts a decision into a MatchResult under the
// confidence-threshold policy. A sub-threshold claim has its politician ID
// nulled so a low-confidence result can never be promoted.
func applyDecisionThresholds(d *gateway.Decision) model.MatchResult {
	confidence := d.Confidence
	if !d.Matched && confidence > rejectedConfidenceCap {
		confidence = rejectedConfidenceCap
	}

	result := model.MatchResult{
		Confidence: confidence,
		Status:     model.StatusForConfidence(confidence),
		Reason:     d.Reason,
		Method:     model.MethodModel,
	}
	if result.Reason == "" {
		result.Reason = "model decision without rationale"
	}

	if result.Status == model.StatusMatched && d.Matched && d.PoliticianID != nil {
		id := *d.PoliticianID
		result.Matched = true
		result.PoliticianID = &id
		result.PoliticianName = d.PoliticianName
	}

	return result
}
