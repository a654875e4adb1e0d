package matching

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seiji-watch/polimatch/internal/gateway"
	"github.com/seiji-watch/polimatch/internal/model"
	"github.com/seiji-watch/polimatch/pkg/anthropic"
)

// scriptedClient replays canned responses in order.
type scriptedClient struct {
	responses []*anthropic.MessageResponse
	err       error
	calls     int
	requests  []anthropic.MessageRequest
}

func (c *scriptedClient) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	c.requests = append(c.requests, req)
	if c.err != nil {
		return nil, c.err
	}
	if c.calls >= len(c.responses) {
		return nil, errors.New("scripted client: out of responses")
	}
	i := c.calls
	c.calls++
	return c.responses[i], nil
}

func toolUse(id, name, input string) anthropic.ContentBlock {
	return anthropic.ContentBlock{Type: "tool_use", ID: id, Name: name, Input: json.RawMessage(input)}
}

func textBlock(s string) anthropic.ContentBlock {
	return anthropic.ContentBlock{Type: "text", Text: s}
}

func respOf(blocks ...anthropic.ContentBlock) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{Content: blocks, StopReason: "tool_use"}
}

func TestAgenticMatcher_SearchThenRecord(t *testing.T) {
	store := &mockCandidateStore{searchResult: []model.Politician{pol(7, "山田太郎", "自民")}}
	client := &scriptedClient{responses: []*anthropic.MessageResponse{
		respOf(textBlock("searching"), toolUse("t1", "search_politicians", `{"pattern":"山田太郎"}`)),
		respOf(toolUse("t2", "record_match", `{"matched":true,"politician_id":7,"confidence":0.88,"reason":"single exact hit"}`)),
	}}
	a := NewAgenticMatcher(client, store, "test-model", 512, 5, nil)

	r, err := a.Resolve(context.Background(), staged("山田太郎議員", "自民"))
	require.NoError(t, err)
	assert.True(t, r.Matched)
	require.NotNil(t, r.PoliticianID)
	assert.Equal(t, int64(7), *r.PoliticianID)
	assert.Equal(t, model.StatusMatched, r.Status)
	assert.Equal(t, 2, client.calls)
	assert.Equal(t, 1, store.searchCalls)

	// Second request must replay the tool call and its result.
	second := client.requests[1]
	require.Len(t, second.Messages, 3)
	assert.Equal(t, "assistant", second.Messages[1].Role)
	assert.Equal(t, "user", second.Messages[2].Role)
}

func TestAgenticMatcher_ImmediateRecord(t *testing.T) {
	store := &mockCandidateStore{searchResult: []model.Politician{pol(7, "山田太郎", "")}}
	client := &scriptedClient{responses: []*anthropic.MessageResponse{
		respOf(toolUse("t1", "record_match", `{"matched":false,"confidence":0.2,"reason":"no plausible candidate"}`)),
	}}
	a := NewAgenticMatcher(client, store, "test-model", 512, 5, nil)

	r, err := a.Resolve(context.Background(), staged("読めない名前", ""))
	require.NoError(t, err)
	assert.Equal(t, model.StatusNoMatch, r.Status)
	assert.False(t, r.Matched)
}

func TestAgenticMatcher_NoToolUseEndsLoop(t *testing.T) {
	client := &scriptedClient{responses: []*anthropic.MessageResponse{
		respOf(textBlock("I think it is probably 山田太郎.")),
	}}
	a := NewAgenticMatcher(client, &mockCandidateStore{}, "test-model", 512, 5, nil)

	r, err := a.Resolve(context.Background(), staged("山田太郎", ""))
	require.NoError(t, err)
	assert.Equal(t, model.StatusNoMatch, r.Status)
	assert.Equal(t, 1, client.calls)
}

func TestAgenticMatcher_TurnLimitExhausted(t *testing.T) {
	search := respOf(toolUse("t1", "search_politicians", `{"pattern":"山田"}`))
	client := &scriptedClient{responses: []*anthropic.MessageResponse{search, search}}
	a := NewAgenticMatcher(client, &mockCandidateStore{}, "test-model", 512, 2, nil)

	r, err := a.Resolve(context.Background(), staged("山田太郎", ""))
	require.NoError(t, err)
	assert.Equal(t, model.StatusNoMatch, r.Status)
	assert.Equal(t, 2, client.calls)
}

func TestAgenticMatcher_NonexistentIDDegrades(t *testing.T) {
	client := &scriptedClient{responses: []*anthropic.MessageResponse{
		respOf(toolUse("t1", "record_match", `{"matched":true,"politician_id":999,"confidence":0.9,"reason":"made up"}`)),
	}}
	a := NewAgenticMatcher(client, &mockCandidateStore{}, "test-model", 512, 5, nil)

	r, err := a.Resolve(context.Background(), staged("山田太郎", ""))
	require.NoError(t, err)
	assert.Equal(t, model.StatusNoMatch, r.Status)
	assert.False(t, r.Matched)
}

func TestAgenticMatcher_SubThresholdClaimLosesID(t *testing.T) {
	store := &mockCandidateStore{searchResult: []model.Politician{pol(7, "山田太郎", "")}}
	client := &scriptedClient{responses: []*anthropic.MessageResponse{
		respOf(toolUse("t1", "record_match", `{"matched":true,"politician_id":7,"confidence":0.6,"reason":"partial"}`)),
	}}
	a := NewAgenticMatcher(client, store, "test-model", 512, 5, nil)

	r, err := a.Resolve(context.Background(), staged("山田太", ""))
	require.NoError(t, err)
	assert.Equal(t, model.StatusNeedsReview, r.Status)
	assert.Nil(t, r.PoliticianID)
}

func TestAgenticMatcher_APIErrorIsServiceError(t *testing.T) {
	client := &scriptedClient{err: errors.New("overloaded")}
	a := NewAgenticMatcher(client, &mockCandidateStore{}, "test-model", 512, 5, nil)

	_, err := a.Resolve(context.Background(), staged("山田太郎", ""))
	require.Error(t, err)
	assert.True(t, gateway.IsServiceErr(err))
}

func TestAgenticMatcher_PlaceholderShortCircuits(t *testing.T) {
	client := &scriptedClient{}
	a := NewAgenticMatcher(client, &mockCandidateStore{}, "test-model", 512, 5, nil)

	r, err := a.Resolve(context.Background(), staged("委員長", ""))
	require.NoError(t, err)
	assert.Equal(t, model.StatusNoMatch, r.Status)
	assert.Zero(t, client.calls)
}

func TestAgenticMatcher_ExistingMatchShortCircuits(t *testing.T) {
	client := &scriptedClient{}
	a := NewAgenticMatcher(client, &mockCandidateStore{}, "test-model", 512, 5, nil)

	e := staged("山田太郎", "")
	e.MatchedPoliticianID = ptr(7)

	r, err := a.Resolve(context.Background(), e)
	require.NoError(t, err)
	assert.Equal(t, model.MethodExisting, r.Method)
	assert.Zero(t, client.calls)
}
