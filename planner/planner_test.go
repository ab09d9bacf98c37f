package planner

import (
	"context"
	"errors"
	"testing"

	"github.com/showrunner-ai/showrunner/agent"
	"github.com/showrunner-ai/showrunner/core"
	"github.com/showrunner-ai/showrunner/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type uploadAgent struct{}

func (uploadAgent) Describe() core.Descriptor {
	return core.Descriptor{
		Name:        "upload",
		Description: "Upload media from a URL.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"source": map[string]any{"type": "string"},
			},
			"required": []string{"source"},
		},
	}
}

func (uploadAgent) Run(context.Context, map[string]any, agent.ProgressSink) (*agent.Result, error) {
	return &agent.Result{Content: core.TextContent{Text: "done"}}, nil
}

func newRegistry(t *testing.T) *agent.Registry {
	t.Helper()
	reg := agent.NewRegistry(nil)
	require.NoError(t, reg.Register(uploadAgent{}))
	return reg
}

func TestDefaultInstructionsAdvertiseReferences(t *testing.T) {
	// The resolver only sees what the model is told to emit.
	assert.Contains(t, DefaultInstructions, "ref:last/media_id")
	assert.Contains(t, DefaultInstructions, "ref:last/url")
	assert.Contains(t, DefaultInstructions, "ref:turn/")
}

func TestDecideDirectAnswer(t *testing.T) {
	mock := llm.NewMockClient()
	p := New(mock, newRegistry(t))

	dec, err := p.Decide(context.Background(), nil, false, "what can you do?")
	require.NoError(t, err)
	assert.Nil(t, dec.Plan)
	assert.NotEmpty(t, dec.Text)

	reqs := mock.PlanRequests()
	require.Len(t, reqs, 1)
	assert.Equal(t, DefaultInstructions, reqs[0].Instructions)
	require.Len(t, reqs[0].Agents, 1)
	assert.Equal(t, "upload", reqs[0].Agents[0].Name)
}

func TestDecideValidPlan(t *testing.T) {
	mock := llm.NewMockClient()
	mock.QueueDecision(&llm.Decision{Plan: &core.Plan{Steps: []core.Step{
		{Agent: "upload", Args: map[string]any{"source": "https://x/v.mp4"}},
	}}})
	p := New(mock, newRegistry(t))

	dec, err := p.Decide(context.Background(), nil, false, "upload it")
	require.NoError(t, err)
	require.NotNil(t, dec.Plan)
	assert.Equal(t, "https://x/v.mp4", dec.Plan.Steps[0].Args["source"])
}

func TestDecideUnknownAgentRetriesThenAborts(t *testing.T) {
	bad := &llm.Decision{Plan: &core.Plan{Steps: []core.Step{
		{Agent: "clipper", Args: map[string]any{}},
	}}}
	mock := llm.NewMockClient()
	mock.QueueDecision(bad)
	mock.QueueDecision(bad)
	p := New(mock, newRegistry(t))

	_, err := p.Decide(context.Background(), nil, false, "clip it")
	var pErr *PlanningError
	require.ErrorAs(t, err, &pErr)
	assert.Equal(t, 2, pErr.Attempts)
	assert.Contains(t, pErr.Reason, "unknown agent")

	reqs := mock.PlanRequests()
	require.Len(t, reqs, 2)
	assert.Empty(t, reqs[0].Correction)
	assert.Contains(t, reqs[1].Correction, "unknown agent")
}

func TestDecideCorrectedPlanAccepted(t *testing.T) {
	mock := llm.NewMockClient()
	mock.QueueDecision(&llm.Decision{Plan: &core.Plan{Steps: []core.Step{
		{Agent: "upload", Args: map[string]any{}},
	}}})
	mock.QueueDecision(&llm.Decision{Plan: &core.Plan{Steps: []core.Step{
		{Agent: "upload", Args: map[string]any{"source": "https://x"}},
	}}})
	p := New(mock, newRegistry(t))

	dec, err := p.Decide(context.Background(), nil, false, "upload it")
	require.NoError(t, err)
	require.NotNil(t, dec.Plan)
	assert.Len(t, mock.PlanRequests(), 2)
}

func TestDecideProviderErrorNotRetried(t *testing.T) {
	cause := errors.New("rate limited")
	mock := llm.NewMockClient()
	mock.QueueError(&llm.ProviderError{Provider: "mock", Err: cause})
	p := New(mock, newRegistry(t))

	_, err := p.Decide(context.Background(), nil, false, "upload it")
	var pErr *PlanningError
	require.ErrorAs(t, err, &pErr)
	assert.Equal(t, 1, pErr.Attempts)
	assert.ErrorIs(t, err, cause)
	assert.Len(t, mock.PlanRequests(), 1)
}

func TestDecideMalformedPlanRetried(t *testing.T) {
	mock := llm.NewMockClient()
	mock.QueueError(&llm.MalformedPlanError{Provider: "mock", Reason: "undecodable arguments"})
	mock.QueueDecision(&llm.Decision{Text: "here you go"})
	p := New(mock, newRegistry(t))

	dec, err := p.Decide(context.Background(), nil, false, "upload it")
	require.NoError(t, err)
	assert.Equal(t, "here you go", dec.Text)

	reqs := mock.PlanRequests()
	require.Len(t, reqs, 2)
	assert.Contains(t, reqs[1].Correction, "undecodable")
}

func TestDecideResolvesReferences(t *testing.T) {
	turn := core.NewTurn("upload my video")
	turn.Messages = append(turn.Messages, core.NewMessage("upload", core.MessageSuccess, core.MediaReference{
		MediaID: "m-42", Kind: "video", URL: "https://cdn/m-42",
	}))

	mock := llm.NewMockClient()
	mock.QueueDecision(&llm.Decision{Plan: &core.Plan{Steps: []core.Step{
		{Agent: "upload", Args: map[string]any{"source": "ref:last/url"}},
	}}})
	p := New(mock, newRegistry(t))

	dec, err := p.Decide(context.Background(), []core.Turn{turn}, false, "re-upload that video")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/m-42", dec.Plan.Steps[0].Args["source"])
}

func TestDecideUnresolvedReferenceIsPlanningError(t *testing.T) {
	mock := llm.NewMockClient()
	bad := &llm.Decision{Plan: &core.Plan{Steps: []core.Step{
		{Agent: "upload", Args: map[string]any{"source": "ref:last/url"}},
	}}}
	mock.QueueDecision(bad)
	mock.QueueDecision(bad)
	p := New(mock, newRegistry(t))

	_, err := p.Decide(context.Background(), nil, false, "re-upload that video")
	var pErr *PlanningError
	require.ErrorAs(t, err, &pErr)
	assert.Contains(t, pErr.Reason, "unresolved reference")
}
