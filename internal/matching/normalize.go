// Package matching implements the entity resolution pipeline: name
// normalization, candidate ranking, rule-based and model-backed matching,
// and the per-domain orchestrator.
package matching

import (
	"regexp"
	"strings"

	"golang.org/x/text/width"
)

// honorifics lists the trailing title tokens stripped during normalization.
// Closed set; matched after width folding so full-width variants hit too.
var honorifics = []string{
	"議員",
	"先生",
	"さん",
	"君",
	"氏",
	"様",
}

var multiSpaceRe = regexp.MustCompile(`[\s\x{3000}]+`)

// NormalizeName standardizes an extracted speaker/member name for matching by:
//  1. Folding full-width/half-width variants to canonical width
//  2. Trimming surrounding whitespace (including ideographic space)
//  3. Stripping one trailing honorific (議員, 氏, さん, 様, 先生, 君)
//  4. Collapsing internal whitespace runs to a single space
//
// Deterministic, no I/O. Never returns "" for non-empty input: if stripping
// would empty the name (the whole token was an honorific), the trimmed
// original is returned instead.
func NormalizeName(name string) string {
	folded := width.Fold.String(name)
	trimmed := strings.TrimSpace(folded)
	if trimmed == "" {
		return strings.TrimSpace(name)
	}

	stripped := trimmed
	for _, h := range honorifics {
		if strings.HasSuffix(stripped, h) {
			stripped = strings.TrimSpace(strings.TrimSuffix(stripped, h))
			break
		}
	}

	stripped = multiSpaceRe.ReplaceAllString(stripped, " ")

	if stripped == "" {
		return trimmed
	}
	return stripped
}
