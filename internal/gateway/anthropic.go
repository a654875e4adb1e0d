package gateway

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/seiji-watch/polimatch/internal/resilience"
	"github.com/seiji-watch/polimatch/pkg/anthropic"
)

// AnthropicGateway implements Gateway on the Anthropic Messages API. Every
// call is gated by a token-bucket limiter and a bounded-concurrency
// semaphore; transient failures are retried before surfacing as a
// ServiceError.
type AnthropicGateway struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	limiter   *rate.Limiter
	sem       *semaphore.Weighted
	retry     resilience.RetryConfig
}

// AnthropicGatewayConfig configures an AnthropicGateway.
type AnthropicGatewayConfig struct {
	Model          string
	MaxTokens      int64
	RequestsPerSec float64
	MaxConcurrent  int64
}

// NewAnthropicGateway creates a gateway on an Anthropic client.
func NewAnthropicGateway(client anthropic.Client, cfg AnthropicGatewayConfig) *AnthropicGateway {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}
	if cfg.RequestsPerSec <= 0 {
		cfg.RequestsPerSec = 2.0
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 4
	}
	return &AnthropicGateway{
		client:    client,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		limiter:   rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), 1),
		sem:       semaphore.NewWeighted(cfg.MaxConcurrent),
		retry:     resilience.DefaultRetryConfig(),
	}
}

// ModelName identifies the underlying model for audit records.
func (g *AnthropicGateway) ModelName() string {
	return g.model
}

// Decide sends the structured match request and parses the decision.
// Failures split into ErrStructuredOutput (unparseable answer, recoverable)
// and ServiceError (everything else, propagates).
func (g *AnthropicGateway) Decide(ctx context.Context, req MatchRequest) (*Decision, error) {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return nil, NewServiceError(err)
	}
	defer g.sem.Release(1)

	if err := g.limiter.Wait(ctx); err != nil {
		return nil, NewServiceError(err)
	}

	msgReq := anthropic.MessageRequest{
		Model:     g.model,
		MaxTokens: g.maxTokens,
		System: []anthropic.SystemBlock{
			// The system text is identical across calls, so let the API cache it.
			{Text: matchSystemText, CacheControl: &anthropic.CacheControl{TTL: "5m"}},
		},
		Messages: []anthropic.Message{
			{Role: "user", Content: BuildMatchPrompt(req)},
		},
	}

	var resp *anthropic.MessageResponse
	err := resilience.Do(ctx, g.retry, func(ctx context.Context) error {
		var callErr error
		resp, callErr = g.client.CreateMessage(ctx, msgReq)
		return callErr
	})
	if err != nil {
		return nil, NewServiceError(err)
	}

	resp.Usage.LogCost(g.model, "match")

	decision, err := parseDecision(resp.Text(), req)
	if err != nil {
		zap.L().Warn("gateway: unparseable model output",
			zap.String("raw_name", req.RawName),
			zap.Error(err),
		)
		return nil, err
	}
	return decision, nil
}

// parseDecision parses and validates the model's JSON answer against the
// request. Any shape violation is a structured-output failure, including a
// claimed match whose politician_id is absent from the candidate list.
func parseDecision(text string, req MatchRequest) (*Decision, error) {
	cleaned := cleanJSON(text)

	var d Decision
	if err := json.Unmarshal([]byte(cleaned), &d); err != nil {
		return nil, structuredOutputErr("parse decision JSON: " + err.Error())
	}

	if d.Confidence < 0 {
		d.Confidence = 0
	}
	if d.Confidence > 1 {
		d.Confidence = 1
	}

	if d.Matched {
		if d.PoliticianID == nil {
			return nil, structuredOutputErr("matched=true without politician_id")
		}
		found := false
		for _, c := range req.Candidates {
			if c.ID == *d.PoliticianID {
				found = true
				if d.PoliticianName == "" {
					d.PoliticianName = c.Name
				}
				break
			}
		}
		if !found {
			return nil, structuredOutputErr("politician_id not in candidate list")
		}
	}

	return &d, nil
}

// cleanJSON strips Markdown code fences and surrounding prose, keeping the
// outermost JSON object.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		return text[start : end+1]
	}
	return text
}
