package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/showrunner-ai/showrunner/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessagesOrderAndRoles(t *testing.T) {
	turn := core.NewTurn("upload my keynote")
	turn.Messages = append(turn.Messages, core.NewMessage("upload", core.MessageSuccess, core.MediaReference{
		MediaID: "m-1", Kind: "video", Title: "Keynote",
	}))

	req := Request{
		Instructions: "You are the orchestrator.",
		History:      []core.Turn{turn},
		Input:        "now clip the intro",
	}

	msgs := Messages(req)
	require.Len(t, msgs, 4)
	assert.Equal(t, "system", msgs[0].Role)
	assert.Equal(t, "user", msgs[1].Role)
	assert.Equal(t, "upload my keynote", msgs[1].Text)
	assert.Equal(t, "assistant", msgs[2].Role)
	assert.Contains(t, msgs[2].Text, "media_id=m-1")
	assert.Equal(t, "user", msgs[3].Role)
	assert.Equal(t, "now clip the intro", msgs[3].Text)
}

func TestMessagesCorrectionAndTruncation(t *testing.T) {
	req := Request{
		Input:      "do it",
		Truncated:  true,
		Correction: "unknown agent \"clipper\"",
	}
	msgs := Messages(req)
	require.Len(t, msgs, 3)
	assert.Contains(t, msgs[0].Text, "truncated")
	assert.Contains(t, msgs[1].Text, "unknown agent")
	assert.Equal(t, "do it", msgs[2].Text)
}

func TestRenderContent(t *testing.T) {
	assert.Equal(t, "hello", RenderContent(core.TextContent{Text: "hello"}))
	assert.Contains(t, RenderContent(core.SearchResults{
		Query: "goal",
		Hits:  []core.SearchHit{{MediaID: "m-2", Start: 3, End: 9, Snippet: "crowd cheering"}},
	}), "media_id=m-2")
	assert.Contains(t, RenderContent(core.ErrorContent{Kind: "agent", Message: "boom"}), "boom")
}

func TestDecodeArgs(t *testing.T) {
	args, err := DecodeArgs([]byte(`{"source":"https://x","limit":3}`))
	require.NoError(t, err)
	assert.Equal(t, "https://x", args["source"])
	assert.Equal(t, float64(3), args["limit"])

	args, err = DecodeArgs(nil)
	require.NoError(t, err)
	assert.Empty(t, args)

	args, err = DecodeArgs([]byte(`null`))
	require.NoError(t, err)
	assert.NotNil(t, args)

	_, err = DecodeArgs([]byte(`{"broken"`))
	assert.Error(t, err)
}

func TestMockClientScriptedDecisions(t *testing.T) {
	mock := NewMockClient()
	mock.QueueDecision(&Decision{Plan: &core.Plan{Steps: []core.Step{{Agent: "upload", Args: map[string]any{"source": "x"}}}}})
	mock.QueueError(&ProviderError{Provider: "mock", Err: errors.New("down")})

	d, err := mock.Plan(context.Background(), Request{Input: "upload x"})
	require.NoError(t, err)
	require.NotNil(t, d.Plan)
	assert.Equal(t, "upload", d.Plan.Steps[0].Agent)

	_, err = mock.Plan(context.Background(), Request{Input: "again"})
	var pErr *ProviderError
	assert.True(t, errors.As(err, &pErr))

	// Exhausted script falls back to a direct answer.
	d, err = mock.Plan(context.Background(), Request{Input: "hello"})
	require.NoError(t, err)
	assert.Nil(t, d.Plan)
	assert.Contains(t, d.Text, "hello")

	assert.Len(t, mock.PlanRequests(), 3)
}
