package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/showrunner-ai/showrunner/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAgent struct {
	desc core.Descriptor
	run  func(ctx context.Context, args map[string]any, progress ProgressSink) (*Result, error)
}

func (s *stubAgent) Describe() core.Descriptor { return s.desc }

func (s *stubAgent) Run(ctx context.Context, args map[string]any, progress ProgressSink) (*Result, error) {
	return s.run(ctx, args, progress)
}

func echoAgent(name string) *stubAgent {
	return &stubAgent{
		desc: core.Descriptor{
			Name:        name,
			Description: "Echo the given text",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"text": map[string]any{"type": "string"},
					"mode": map[string]any{"type": "string", "default": "plain"},
				},
				"required": []any{"text"},
			},
		},
		run: func(_ context.Context, args map[string]any, progress ProgressSink) (*Result, error) {
			progress("echoing", nil)
			text, _ := args["text"].(string)
			mode, _ := args["mode"].(string)
			return &Result{Content: core.TextContent{Text: mode + ":" + text}}, nil
		},
	}
}

func TestRegistryRegisterAndLookup(t *testing.T) {
	reg := NewRegistry(nil)
	require.NoError(t, reg.Register(echoAgent("echo")))

	_, ok := reg.Lookup("echo")
	assert.True(t, ok)
	_, ok = reg.Lookup("missing")
	assert.False(t, ok)

	err := reg.Register(echoAgent("echo"))
	assert.Error(t, err, "duplicate registration must fail")
}

func TestRegistryDescriptorsOrder(t *testing.T) {
	reg := NewRegistry(nil)
	require.NoError(t, reg.Register(echoAgent("upload")))
	require.NoError(t, reg.Register(echoAgent("search")))
	require.NoError(t, reg.Register(echoAgent("stream")))

	descs := reg.Descriptors()
	require.Len(t, descs, 3)
	assert.Equal(t, "upload", descs[0].Name)
	assert.Equal(t, "search", descs[1].Name)
	assert.Equal(t, "stream", descs[2].Name)
}

func TestRegistryDispatchAppliesDefaultsAndProgress(t *testing.T) {
	reg := NewRegistry(nil)
	require.NoError(t, reg.Register(echoAgent("echo")))

	var updates []string
	sink := func(text string, _ map[string]any) { updates = append(updates, text) }

	res, err := reg.Dispatch(context.Background(), "echo", map[string]any{"text": "hi"}, sink)
	require.NoError(t, err)

	tc, ok := res.Content.(core.TextContent)
	require.True(t, ok)
	assert.Equal(t, "plain:hi", tc.Text)
	assert.Equal(t, []string{"echoing"}, updates)
}

func TestRegistryDispatchValidation(t *testing.T) {
	reg := NewRegistry(nil)
	require.NoError(t, reg.Register(echoAgent("echo")))

	_, err := reg.Dispatch(context.Background(), "echo", map[string]any{}, nil)
	require.Error(t, err)
	var aErr *Error
	require.True(t, errors.As(err, &aErr))
	assert.Equal(t, KindInvalidArgument, aErr.Kind)

	_, err = reg.Dispatch(context.Background(), "missing", map[string]any{}, nil)
	require.Error(t, err)
	require.True(t, errors.As(err, &aErr))
	assert.Equal(t, KindInvalidArgument, aErr.Kind)
}

func TestRegistryDispatchWrapsPlainErrors(t *testing.T) {
	reg := NewRegistry(nil)
	boom := errors.New("webhook returned 502")
	require.NoError(t, reg.Register(&stubAgent{
		desc: core.Descriptor{Name: "share", Description: "Share", Parameters: map[string]any{"type": "object", "properties": map[string]any{}}},
		run: func(context.Context, map[string]any, ProgressSink) (*Result, error) {
			return nil, boom
		},
	}))

	_, err := reg.Dispatch(context.Background(), "share", map[string]any{}, nil)
	var aErr *Error
	require.True(t, errors.As(err, &aErr))
	assert.Equal(t, KindExternalService, aErr.Kind)
	assert.True(t, errors.Is(err, boom))
}

func TestRegistryDispatchRecoversPanic(t *testing.T) {
	reg := NewRegistry(nil)
	require.NoError(t, reg.Register(&stubAgent{
		desc: core.Descriptor{Name: "flaky", Description: "Flaky", Parameters: map[string]any{"type": "object", "properties": map[string]any{}}},
		run: func(context.Context, map[string]any, ProgressSink) (*Result, error) {
			panic("nil deref")
		},
	}))

	_, err := reg.Dispatch(context.Background(), "flaky", map[string]any{}, nil)
	var aErr *Error
	require.True(t, errors.As(err, &aErr))
	assert.Equal(t, KindInternal, aErr.Kind)
	assert.Contains(t, aErr.Message, "nil deref")
}
