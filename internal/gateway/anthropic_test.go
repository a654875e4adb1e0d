package gateway

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seiji-watch/polimatch/internal/model"
	"github.com/seiji-watch/polimatch/pkg/anthropic"
)

type stubClient struct {
	resp *anthropic.MessageResponse
	err  error
}

func (c *stubClient) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	return c.resp, c.err
}

func textResp(s string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: s}},
	}
}

func reqWith(candidates ...model.Politician) MatchRequest {
	return MatchRequest{RawName: "山田太郎", EntityType: "speaker", Candidates: candidates}
}

func TestDecide_ParsesDecision(t *testing.T) {
	client := &stubClient{resp: textResp(`{"matched": true, "politician_id": 7, "confidence": 0.9, "reason": "exact"}`)}
	g := NewAnthropicGateway(client, AnthropicGatewayConfig{Model: "test-model"})

	d, err := g.Decide(context.Background(), reqWith(model.Politician{ID: 7, Name: "山田太郎"}))
	require.NoError(t, err)
	assert.True(t, d.Matched)
	require.NotNil(t, d.PoliticianID)
	assert.Equal(t, int64(7), *d.PoliticianID)
	// Name backfilled from the candidate list when the model omits it.
	assert.Equal(t, "山田太郎", d.PoliticianName)
}

func TestDecide_FencedJSON(t *testing.T) {
	client := &stubClient{resp: textResp("```json\n{\"matched\": false, \"confidence\": 0.1, \"reason\": \"none fit\"}\n```")}
	g := NewAnthropicGateway(client, AnthropicGatewayConfig{Model: "test-model"})

	d, err := g.Decide(context.Background(), reqWith())
	require.NoError(t, err)
	assert.False(t, d.Matched)
}

func TestDecide_ProseIsStructuredOutputFailure(t *testing.T) {
	client := &stubClient{resp: textResp("I believe this is Taro Yamada but cannot be sure.")}
	g := NewAnthropicGateway(client, AnthropicGatewayConfig{Model: "test-model"})

	_, err := g.Decide(context.Background(), reqWith())
	require.Error(t, err)
	assert.True(t, IsStructuredOutputErr(err))
	assert.False(t, IsServiceErr(err))
}

func TestDecide_MatchedWithoutID(t *testing.T) {
	client := &stubClient{resp: textResp(`{"matched": true, "confidence": 0.9, "reason": "sure"}`)}
	g := NewAnthropicGateway(client, AnthropicGatewayConfig{Model: "test-model"})

	_, err := g.Decide(context.Background(), reqWith(model.Politician{ID: 7, Name: "山田太郎"}))
	require.Error(t, err)
	assert.True(t, IsStructuredOutputErr(err))
}

func TestDecide_IDOutsideCandidateList(t *testing.T) {
	client := &stubClient{resp: textResp(`{"matched": true, "politician_id": 999, "confidence": 0.9, "reason": "hallucinated"}`)}
	g := NewAnthropicGateway(client, AnthropicGatewayConfig{Model: "test-model"})

	_, err := g.Decide(context.Background(), reqWith(model.Politician{ID: 7, Name: "山田太郎"}))
	require.Error(t, err)
	assert.True(t, IsStructuredOutputErr(err))
}

func TestDecide_APIErrorIsServiceError(t *testing.T) {
	client := &stubClient{err: errors.New("invalid x-api-key")}
	g := NewAnthropicGateway(client, AnthropicGatewayConfig{Model: "test-model"})

	_, err := g.Decide(context.Background(), reqWith())
	require.Error(t, err)
	assert.True(t, IsServiceErr(err))
	assert.False(t, IsStructuredOutputErr(err))
}

func TestParseDecision_ClampsConfidence(t *testing.T) {
	d, err := parseDecision(`{"matched": false, "confidence": 1.7, "reason": "x"}`, MatchRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1.0, d.Confidence)

	d, err = parseDecision(`{"matched": false, "confidence": -0.3, "reason": "x"}`, MatchRequest{})
	require.NoError(t, err)
	assert.Equal(t, 0.0, d.Confidence)
}

func TestCleanJSON(t *testing.T) {
	cases := map[string]string{
		`{"a":1}`:                          `{"a":1}`,
		"```json\n{\"a\":1}\n```":          `{"a":1}`,
		"```\n{\"a\":1}\n```":              `{"a":1}`,
		"Sure, here you go: {\"a\":1} ok?": `{"a":1}`,
		"   {\"a\":1}   ":                  `{"a":1}`,
	}
	for in, want := range cases {
		assert.Equal(t, want, cleanJSON(in), "input %q", in)
	}
}

func TestBuildMatchPrompt(t *testing.T) {
	p := BuildMatchPrompt(MatchRequest{
		RawName:    "山田太郎議員",
		EntityType: "speaker",
		PartyHint:  "自民",
		Candidates: []model.Politician{{ID: 7, Name: "山田太郎", PartyName: "自民", NameKana: "やまだたろう"}},
	})

	assert.Contains(t, p, "山田太郎議員")
	assert.Contains(t, p, "speaker")
	assert.Contains(t, p, `"id":7`)
	assert.Contains(t, p, "やまだたろう")
}

func TestBuildMatchPrompt_Defaults(t *testing.T) {
	p := BuildMatchPrompt(MatchRequest{RawName: "山田"})
	assert.Contains(t, p, "Entity type: unknown")
	assert.Contains(t, p, "Party affiliation hint: none")
}

func TestPromptVariables(t *testing.T) {
	v := PromptVariables(reqWith(model.Politician{ID: 7}))
	assert.Equal(t, "山田太郎", v["raw_name"])
	assert.Equal(t, 1, v["candidate_count"])
}
