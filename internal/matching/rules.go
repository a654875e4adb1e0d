package matching

import (
	"fmt"

	"github.com/seiji-watch/polimatch/internal/model"
)

// Fixed confidences for the deterministic rules, in precedence order.
const (
	confExactNameParty  = 1.0
	confUniqueExactName = 0.9
	confStrippedExact   = 0.85
)

// TryRuleMatch runs the deterministic fast path against a candidate pool.
// Rules fire in order, first hit wins:
//
//  1. exact name + party hint match → 1.0
//  2. unique exact name match (party ignored) → 0.9
//  3. honorific-stripped exact match, when stripping changed the name → 0.85
//
// Returns nil when no rule fires; a nil return always means "escalate to the
// model", never needs_review or no_match.
func TryRuleMatch(rawName, partyHint string, candidates []model.Politician) *model.MatchResult {
	// Rule 1: exact name + party.
	if partyHint != "" {
		for _, c := range candidates {
			if c.Name == rawName && c.PartyName == partyHint {
				return ruleResult(c, confExactNameParty,
					fmt.Sprintf("exact name and party match (%s)", partyHint))
			}
		}
	}

	// Rule 2: unique exact name.
	var exact []model.Politician
	for _, c := range candidates {
		if c.Name == rawName {
			exact = append(exact, c)
		}
	}
	if len(exact) == 1 {
		return ruleResult(exact[0], confUniqueExactName, "unique exact name match")
	}

	// Rule 3: honorific-stripped exact match.
	normalized := NormalizeName(rawName)
	if normalized != rawName {
		for _, c := range candidates {
			if c.Name == normalized {
				return ruleResult(c, confStrippedExact,
					fmt.Sprintf("exact match after honorific stripping (%q → %q)", rawName, normalized))
			}
		}
	}

	return nil
}

func ruleResult(c model.Politician, confidence float64, reason string) *model.MatchResult {
	id := c.ID
	return &model.MatchResult{
		Matched:        true,
		PoliticianID:   &id,
		PoliticianName: c.Name,
		Confidence:     confidence,
		Status:         model.StatusMatched,
		Reason:         reason,
		Method:         model.MethodRuleBased,
	}
}
