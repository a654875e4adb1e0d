package history

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seiji-watch/polimatch/internal/model"
)

// mockSink records sink calls and can fail selectively.
type mockSink struct {
	createErr error
	updateErr error

	created *model.ProcessingRecord
	updated *model.ProcessingRecord
}

func (m *mockSink) Create(ctx context.Context, rec *model.ProcessingRecord) error {
	if m.createErr != nil {
		return m.createErr
	}
	rec.ID = 101
	copied := *rec
	m.created = &copied
	return nil
}

func (m *mockSink) Update(ctx context.Context, rec *model.ProcessingRecord) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	copied := *rec
	m.updated = &copied
	return nil
}

func (m *mockSink) GetBySubject(ctx context.Context, subjectType string, subjectID int64) ([]model.ProcessingRecord, error) {
	return nil, nil
}

func inv() Invocation {
	return Invocation{
		ProcessingType: "speaker_matching",
		ModelName:      "test-model",
		SubjectType:    "conference",
		SubjectID:      42,
		CreatedBy:      "polimatch",
	}
}

func okInvoke(r model.MatchResult) func(context.Context) (model.MatchResult, error) {
	return func(context.Context) (model.MatchResult, error) { return r, nil }
}

func TestRecord_Success(t *testing.T) {
	sink := &mockSink{}
	rec := NewRecorder(sink)

	id := int64(7)
	want := model.MatchResult{
		Matched:      true,
		PoliticianID: &id,
		Confidence:   0.9,
		Status:       model.StatusMatched,
		Method:       model.MethodModel,
	}

	got, err := rec.Record(context.Background(), inv(), okInvoke(want))
	require.NoError(t, err)
	assert.Equal(t, want, got)

	require.NotNil(t, sink.created)
	assert.Equal(t, model.ProcessingInProgress, sink.created.Status)

	require.NotNil(t, sink.updated)
	assert.Equal(t, model.ProcessingCompleted, sink.updated.Status)
	assert.NotNil(t, sink.updated.CompletedAt)
	assert.Equal(t, true, sink.updated.Result["matched"])
	assert.Equal(t, 0.9, sink.updated.Result["confidence"])
	assert.Equal(t, int64(7), sink.updated.Result["politician_id"])
}

func TestRecord_InvokeErrorReRaised(t *testing.T) {
	sink := &mockSink{}
	rec := NewRecorder(sink)

	boom := errors.New("model exploded")
	_, err := rec.Record(context.Background(), inv(), func(context.Context) (model.MatchResult, error) {
		return model.MatchResult{}, boom
	})

	require.ErrorIs(t, err, boom)
	require.NotNil(t, sink.updated)
	assert.Equal(t, model.ProcessingFailed, sink.updated.Status)
	assert.Equal(t, "model exploded", sink.updated.ErrorMessage)
}

func TestRecord_CreateFailureDoesNotAbort(t *testing.T) {
	sink := &mockSink{createErr: errors.New("db down")}
	rec := NewRecorder(sink)

	want := model.NoMatch("nothing fits")
	got, err := rec.Record(context.Background(), inv(), okInvoke(want))
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Nil(t, sink.updated, "no update without a created record")
}

func TestRecord_UpdateFailureNeverMasksOutcome(t *testing.T) {
	sink := &mockSink{updateErr: errors.New("db down")}
	rec := NewRecorder(sink)

	want := model.NoMatch("nothing fits")
	got, err := rec.Record(context.Background(), inv(), okInvoke(want))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRecord_UpdateFailureNeverMasksInvokeError(t *testing.T) {
	sink := &mockSink{updateErr: errors.New("db down")}
	rec := NewRecorder(sink)

	boom := errors.New("model exploded")
	_, err := rec.Record(context.Background(), inv(), func(context.Context) (model.MatchResult, error) {
		return model.MatchResult{}, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestRecord_NilRecorderPassesThrough(t *testing.T) {
	var rec *Recorder
	want := model.NoMatch("x")
	got, err := rec.Record(context.Background(), inv(), okInvoke(want))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRecord_NoSinkPassesThrough(t *testing.T) {
	rec := NewRecorder(nil)
	want := model.NoMatch("x")
	got, err := rec.Record(context.Background(), inv(), okInvoke(want))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRecord_CancelledContextStillRecordsFailure(t *testing.T) {
	sink := &mockSink{}
	rec := NewRecorder(sink)

	ctx, cancel := context.WithCancel(context.Background())

	_, err := rec.Record(ctx, inv(), func(ctx context.Context) (model.MatchResult, error) {
		cancel()
		return model.MatchResult{}, ctx.Err()
	})
	require.Error(t, err)
	require.NotNil(t, sink.updated)
	assert.Equal(t, model.ProcessingFailed, sink.updated.Status)
}
