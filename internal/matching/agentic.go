package matching

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/seiji-watch/polimatch/internal/gateway"
	"github.com/seiji-watch/polimatch/internal/model"
	"github.com/seiji-watch/polimatch/internal/politician"
	"github.com/seiji-watch/polimatch/pkg/anthropic"
)

// DefaultAgenticMaxTurns bounds the tool-use loop.
const DefaultAgenticMaxTurns = 5

const agenticSystemText = `You are resolving a name extracted from Japanese parliamentary records to a canonical politician record. Use the search_politicians tool to find candidates (try name variants: with and without honorifics, kana readings, surname only). Inspect promising candidates with get_politician. When you have decided, call record_match exactly once with your conclusion. If no politician plausibly matches, call record_match with matched=false.`

const agenticPromptTemplate = `Resolve this extracted name to a politician, or conclude no match exists.

Extracted name: %s
Entity type: %s
Party affiliation hint: %s`

// AgenticMatcher resolves names through an Anthropic tool-use loop instead
// of a single-shot candidate list: the model drives candidate-store searches
// itself and commits its conclusion through a record_match tool call. Useful
// for noisy names where up-front name search finds nothing worth ranking.
type AgenticMatcher struct {
	client     anthropic.Client
	candidates politician.CandidateStore
	modelName  string
	maxTokens  int64
	maxTurns   int
	roleMap    RoleMap
	log        *zap.Logger
}

// NewAgenticMatcher creates an AgenticMatcher.
func NewAgenticMatcher(client anthropic.Client, candidates politician.CandidateStore, modelName string, maxTokens int64, maxTurns int, roleMap RoleMap) *AgenticMatcher {
	if maxTurns <= 0 {
		maxTurns = DefaultAgenticMaxTurns
	}
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &AgenticMatcher{
		client:     client,
		candidates: candidates,
		modelName:  modelName,
		maxTokens:  maxTokens,
		maxTurns:   maxTurns,
		roleMap:    roleMap,
		log:        zap.L().With(zap.String("component", "agentic_matcher")),
	}
}

// ModelName identifies the underlying model for audit records.
func (a *AgenticMatcher) ModelName() string {
	return a.modelName
}

func (a *AgenticMatcher) tools() []anthropic.Tool {
	return []anthropic.Tool{
		{
			Name:        "search_politicians",
			Description: "Search politicians by partial name or kana reading. Returns id, name, party, district per hit.",
			InputSchema: map[string]any{
				"pattern": map[string]any{"type": "string", "description": "name fragment to search for"},
			},
			Required: []string{"pattern"},
		},
		{
			Name:        "get_politician",
			Description: "Fetch one politician record by id.",
			InputSchema: map[string]any{
				"id": map[string]any{"type": "integer"},
			},
			Required: []string{"id"},
		},
		{
			Name:        "record_match",
			Description: "Commit the final match decision. Call exactly once.",
			InputSchema: map[string]any{
				"matched":       map[string]any{"type": "boolean"},
				"politician_id": map[string]any{"type": "integer", "description": "required when matched is true"},
				"confidence":    map[string]any{"type": "number", "description": "0.0-1.0"},
				"reason":        map[string]any{"type": "string"},
			},
			Required: []string{"matched", "confidence", "reason"},
		},
	}
}

// Resolve runs the tool loop for one staged entity. Service failures
// propagate as gateway.ServiceError; a loop that ends without a record_match
// call degrades to a zero-confidence no_match.
func (a *AgenticMatcher) Resolve(ctx context.Context, entity *model.StagedEntity) (model.MatchResult, error) {
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

	name := entity.SourceName
	if IsRolePlaceholder(name) {
		resolved := a.roleMap.Resolve(name)
		if resolved == "" {
			return model.NoMatch(fmt.Sprintf("role-only placeholder %q cannot identify an individual", name)), nil
		}
		name = resolved
	}

	partyHint := entity.SourceParty
	if partyHint == "" {
		partyHint = "none"
	}

	messages := []anthropic.Message{
		{Role: "user", Content: fmt.Sprintf(agenticPromptTemplate, name, "staged entity", partyHint)},
	}

	for turn := 0; turn < a.maxTurns; turn++ {
		resp, err := a.client.CreateMessage(ctx, anthropic.MessageRequest{
			Model:     a.modelName,
			MaxTokens: a.maxTokens,
			System:    []anthropic.SystemBlock{{Text: agenticSystemText, CacheControl: &anthropic.CacheControl{TTL: "5m"}}},
			Messages:  messages,
			Tools:     a.tools(),
		})
		if err != nil {
			return model.MatchResult{}, gateway.NewServiceError(err)
		}
		resp.Usage.LogCost(a.modelName, "agentic_match")

		uses := resp.ToolUses()
		if len(uses) == 0 {
			// Model stopped calling tools without committing a decision.
			return model.NoMatch("agent ended without a record_match decision"), nil
		}

		// Replay the assistant turn, then answer each tool call.
		assistant := anthropic.Message{Role: "assistant"}
		for _, b := range resp.Content {
			switch b.Type {
			case "text":
				if strings.TrimSpace(b.Text) != "" {
					assistant.Blocks = append(assistant.Blocks, anthropic.Block{Type: "text", Text: b.Text})
				}
			case "tool_use":
				assistant.Blocks = append(assistant.Blocks, anthropic.Block{
					Type: "tool_use", ToolUseID: b.ID, ToolName: b.Name, ToolInput: b.Input,
				})
			}
		}

		results := anthropic.Message{Role: "user"}
		for _, use := range uses {
			if use.Name == "record_match" {
				return a.finishDecision(ctx, use.Input)
			}
			out, toolErr := a.runTool(ctx, use.Name, use.Input)
			if toolErr != nil {
				return model.MatchResult{}, toolErr
			}
			results.Blocks = append(results.Blocks, anthropic.Block{
				Type: "tool_result", ResultForID: use.ID, ResultText: out,
			})
		}

		messages = append(messages, assistant, results)
	}

	return model.NoMatch(fmt.Sprintf("agent exceeded %d turns without a decision", a.maxTurns)), nil
}

// runTool executes a search/lookup tool against the candidate store.
// Store failures propagate; malformed tool input is reported back to the
// model as a tool error string so it can correct itself.
func (a *AgenticMatcher) runTool(ctx context.Context, name string, input json.RawMessage) (string, error) {
	switch name {
	case "search_politicians":
		var args struct {
			Pattern string `json:"pattern"`
		}
		if err := json.Unmarshal(input, &args); err != nil || args.Pattern == "" {
			return `{"error": "pattern is required"}`, nil
		}
		hits, err := a.candidates.SearchByName(ctx, NormalizeName(args.Pattern))
		if err != nil {
			return "", gateway.NewServiceError(err)
		}
		return encodeToolResult(hits), nil

	case "get_politician":
		var args struct {
			ID int64 `json:"id"`
		}
		if err := json.Unmarshal(input, &args); err != nil || args.ID == 0 {
			return `{"error": "id is required"}`, nil
		}
		p, err := a.candidates.GetByID(ctx, args.ID)
		if err != nil {
			return "", gateway.NewServiceError(err)
		}
		if p == nil {
			return `{"error": "not found"}`, nil
		}
		return encodeToolResult(p), nil

	default:
		return `{"error": "unknown tool"}`, nil
	}
}

// finishDecision validates a record_match call and applies the threshold
// policy. A claimed id that does not exist degrades to no_match rather than
// failing the record.
func (a *AgenticMatcher) finishDecision(ctx context.Context, input json.RawMessage) (model.MatchResult, error) {
	var args struct {
		Matched      bool    `json:"matched"`
		PoliticianID *int64  `json:"politician_id"`
		Confidence   float64 `json:"confidence"`
		Reason       string  `json:"reason"`
	}
	if err := json.Unmarshal(input, &args); err != nil {
		return model.NoMatch("model did not return structured output"), nil
	}

	decision := &gateway.Decision{
		Matched:      args.Matched,
		PoliticianID: args.PoliticianID,
		Confidence:   args.Confidence,
		Reason:       args.Reason,
	}

	if decision.Matched {
		if decision.PoliticianID == nil {
			return model.NoMatch("agent claimed a match without a politician id"), nil
		}
		p, err := a.candidates.GetByID(ctx, *decision.PoliticianID)
		if err != nil {
			return model.MatchResult{}, gateway.NewServiceError(err)
		}
		if p == nil {
			a.log.Warn("agent recorded a nonexistent politician id",
				zap.Int64("politician_id", *decision.PoliticianID))
			return model.NoMatch("agent recorded a nonexistent politician id"), nil
		}
		decision.PoliticianName = p.Name
	}

	return applyDecisionThresholds(decision), nil
}

func encodeToolResult(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return `{"error": "encode failure"}`
	}
	return string(data)
}
