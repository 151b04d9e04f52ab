// ABOUTME: Tests for completion calls, message assembly, and retry behavior
// ABOUTME: Uses a scripted model stub instead of a live provider

package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/attack-capital/chat-relay/internal/config"
	"github.com/attack-capital/chat-relay/internal/memory"
)

// stubModel plays back a scripted sequence of results, one per call.
type stubModel struct {
	calls    int
	messages [][]llms.MessageContent
	script   []stubResult
}

type stubResult struct {
	content string
	err     error
}

func (s *stubModel) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	s.messages = append(s.messages, messages)
	idx := s.calls
	s.calls++
	if idx >= len(s.script) {
		idx = len(s.script) - 1
	}
	res := s.script[idx]
	if res.err != nil {
		return nil, res.err
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: res.content}},
	}, nil
}

func (s *stubModel) Call(_ context.Context, _ string, _ ...llms.CallOption) (string, error) {
	return "", errors.New("not implemented")
}

func TestComplete_ReturnsReply(t *testing.T) {
	model := &stubModel{script: []stubResult{{content: "Hi there!"}}}
	client := NewWithModel(model, time.Second, nil)

	reply, err := client.Complete(context.Background(), "You are helpful.", nil, "hello")
	require.NoError(t, err)
	assert.Equal(t, "Hi there!", reply)
	assert.Equal(t, 1, model.calls)
}

func TestComplete_MessageOrdering(t *testing.T) {
	model := &stubModel{script: []stubResult{{content: "ok"}}}
	client := NewWithModel(model, time.Second, nil)

	// Most recent first, as the memory store returns history.
	history := []memory.Turn{
		{Role: memory.RoleAssistant, Text: "second reply"},
		{Role: memory.RoleUser, Text: "second question"},
		{Role: memory.RoleAssistant, Text: "first reply"},
		{Role: memory.RoleUser, Text: "first question"},
	}

	_, err := client.Complete(context.Background(), "persona prompt", history, "third question")
	require.NoError(t, err)
	require.Len(t, model.messages, 1)

	sent := model.messages[0]
	require.Len(t, sent, 6)

	assert.Equal(t, llms.ChatMessageTypeSystem, sent[0].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, sent[1].Role)
	assert.Equal(t, llms.TextParts(llms.ChatMessageTypeHuman, "first question").Parts, sent[1].Parts)
	assert.Equal(t, llms.ChatMessageTypeAI, sent[2].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, sent[3].Role)
	assert.Equal(t, llms.ChatMessageTypeAI, sent[4].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, sent[5].Role)
	assert.Equal(t, llms.TextParts(llms.ChatMessageTypeHuman, "third question").Parts, sent[5].Parts)
}

func TestComplete_NoSystemPromptOmitted(t *testing.T) {
	model := &stubModel{script: []stubResult{{content: "ok"}}}
	client := NewWithModel(model, time.Second, nil)

	_, err := client.Complete(context.Background(), "", nil, "hi")
	require.NoError(t, err)
	require.Len(t, model.messages[0], 1)
	assert.Equal(t, llms.ChatMessageTypeHuman, model.messages[0][0].Role)
}

func TestComplete_RetriesOnceOnTransient(t *testing.T) {
	model := &stubModel{script: []stubResult{
		{err: errors.New("503 service unavailable")},
		{content: "recovered"},
	}}
	client := NewWithModel(model, 5*time.Second, nil)

	reply, err := client.Complete(context.Background(), "p", nil, "hi")
	require.NoError(t, err)
	assert.Equal(t, "recovered", reply)
	assert.Equal(t, 2, model.calls)
}

func TestComplete_GivesUpAfterOneRetry(t *testing.T) {
	model := &stubModel{script: []stubResult{
		{err: errors.New("connection refused")},
		{err: errors.New("connection refused")},
	}}
	client := NewWithModel(model, 5*time.Second, nil)

	_, err := client.Complete(context.Background(), "p", nil, "hi")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProvider)
	assert.Equal(t, 2, model.calls)
}

func TestComplete_PermanentErrorNotRetried(t *testing.T) {
	model := &stubModel{script: []stubResult{
		{err: errors.New("401 invalid api key")},
	}}
	client := NewWithModel(model, time.Second, nil)

	_, err := client.Complete(context.Background(), "p", nil, "hi")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProvider)
	assert.Equal(t, 1, model.calls)
}

func TestComplete_RateLimitError(t *testing.T) {
	model := &stubModel{script: []stubResult{
		{err: errors.New("429 too many requests")},
		{err: errors.New("429 too many requests")},
	}}
	client := NewWithModel(model, 5*time.Second, nil)

	_, err := client.Complete(context.Background(), "p", nil, "hi")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestComplete_EmptyChoices(t *testing.T) {
	client := NewWithModel(&emptyModel{}, time.Second, nil)

	_, err := client.Complete(context.Background(), "p", nil, "hi")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProvider)
}

type emptyModel struct{}

func (emptyModel) GenerateContent(_ context.Context, _ []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	return &llms.ContentResponse{}, nil
}

func (emptyModel) Call(_ context.Context, _ string, _ ...llms.CallOption) (string, error) {
	return "", errors.New("not implemented")
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New(context.Background(), config.LLMConfig{Provider: "wat"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown llm provider")
}
