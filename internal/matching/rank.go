package matching

import (
	"sort"
	"strings"

	"github.com/seiji-watch/polimatch/internal/model"
)

// DefaultMaxCandidates bounds the candidate list sent to the model.
const DefaultMaxCandidates = 20

// RankCandidates scores candidates for relevance to a raw extracted name and
// returns at most max of them, highest score first. This is a relevance
// heuristic to bound prompt size, not a match decision. Candidates scoring
// zero are dropped; ties keep the original candidate order.
func RankCandidates(rawName, partyHint string, candidates []model.Politician, max int) []model.Politician {
	if max <= 0 {
		max = DefaultMaxCandidates
	}

	normalized := NormalizeName(rawName)

	type scored struct {
		idx   int
		score int
	}
	var kept []scored
	for i, c := range candidates {
		s := scoreCandidate(rawName, normalized, partyHint, c)
		if s > 0 {
			kept = append(kept, scored{idx: i, score: s})
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].score > kept[j].score
	})

	if len(kept) > max {
		kept = kept[:max]
	}

	out := make([]model.Politician, len(kept))
	for i, s := range kept {
		out[i] = candidates[s.idx]
	}
	return out
}

// scoreCandidate applies the additive relevance rubric:
// +10 exact name, +8 honorific-stripped match, +5 substring either direction,
// +3 party-hint match, +2 per shared name token, +1 if length difference <= 2.
func scoreCandidate(rawName, normalized, partyHint string, c model.Politician) int {
	score := 0

	if c.Name == rawName {
		score += 10
	} else if c.Name == normalized {
		score += 8
	}

	if c.Name != rawName &&
		(strings.Contains(c.Name, normalized) || strings.Contains(normalized, c.Name)) {
		score += 5
	}

	if partyHint != "" && c.PartyName == partyHint {
		score += 3
	}

	candTokens := strings.Fields(c.Name)
	for _, t := range strings.Fields(normalized) {
		for _, ct := range candTokens {
			if t == ct {
				score += 2
				break
			}
		}
	}

	diff := len([]rune(c.Name)) - len([]rune(normalized))
	if diff < 0 {
		diff = -diff
	}
	if diff <= 2 {
		score++
	}

	return score
}

// FilterByParty narrows candidates to those matching the party hint. When the
// hint is empty, or narrowing leaves nothing, the full set is returned
// unchanged so a wrong or unknown party label cannot hide the right person.
func FilterByParty(candidates []model.Politician, partyHint string) []model.Politician {
	if partyHint == "" {
		return candidates
	}

	var narrowed []model.Politician
	for _, c := range candidates {
		if c.PartyName == partyHint {
			narrowed = append(narrowed, c)
		}
	}
	if len(narrowed) == 0 {
		return candidates
	}
	return narrowed
}
