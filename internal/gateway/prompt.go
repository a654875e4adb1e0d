package gateway

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/seiji-watch/polimatch/internal/model"
)

// PromptTemplateID identifies the match prompt contract in history records.
// Bump when the prompt or output schema changes.
const PromptTemplateID = "politician_match_v2"

const matchSystemText = `You are a research assistant resolving names extracted from Japanese parliamentary records to canonical politician records. Names may carry honorifics, party labels, role titles, or OCR noise. Decide whether the extracted name identifies one of the listed candidates. Return only a valid JSON object, no prose.`

const matchPromptTemplate = `Extracted name: %s
Entity type: %s
Party affiliation hint: %s

Candidate politicians:
%s

Decide whether the extracted name refers to exactly one candidate. Consider
honorifics, kana readings, party affiliation and name variants. If no
candidate is a plausible match, say so with matched=false.

Return a valid JSON object:
{"matched": <bool>, "politician_id": <candidate id or null>, "politician_name": <string or null>, "party_name": <string or null>, "confidence": <0.0-1.0>, "reason": "<brief explanation>"}`

// BuildMatchPrompt renders the user prompt for a match request.
func BuildMatchPrompt(req MatchRequest) string {
	entityType := req.EntityType
	if entityType == "" {
		entityType = "unknown"
	}
	partyHint := req.PartyHint
	if partyHint == "" {
		partyHint = "none"
	}
	return fmt.Sprintf(matchPromptTemplate,
		req.RawName, entityType, partyHint, formatCandidates(req.Candidates))
}

// formatCandidates renders candidates as a compact JSON-lines block.
func formatCandidates(candidates []model.Politician) string {
	var b strings.Builder
	for _, c := range candidates {
		entry := map[string]any{
			"id":   c.ID,
			"name": c.Name,
		}
		if c.NameKana != "" {
			entry["kana"] = c.NameKana
		}
		if c.PartyName != "" {
			entry["party"] = c.PartyName
		}
		if c.District != "" {
			entry["district"] = c.District
		}
		if c.Prefecture != "" {
			entry["prefecture"] = c.Prefecture
		}
		line, _ := json.Marshal(entry)
		b.Write(line)
		b.WriteString("\n")
	}
	return b.String()
}

// PromptVariables summarizes the prompt inputs for the audit trail.
func PromptVariables(req MatchRequest) map[string]any {
	return map[string]any{
		"raw_name":        req.RawName,
		"entity_type":     req.EntityType,
		"party_hint":      req.PartyHint,
		"candidate_count": len(req.Candidates),
	}
}
