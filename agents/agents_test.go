package agents

import (
	"context"
	"errors"
	"testing"

	"github.com/showrunner-ai/showrunner/agent"
	"github.com/showrunner-ai/showrunner/core"
	"github.com/showrunner-ai/showrunner/llm"
	"github.com/showrunner-ai/showrunner/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePlatform is a scripted platform.Client.
type fakePlatform struct {
	uploadMedia   *platform.Media
	uploadErr     error
	searchResults []platform.SearchResult
	searchErr     error
	streamURL     string
	streamErr     error
	transcript    string
	transcriptErr error

	lastQuery string
	lastLimit int
}

func (f *fakePlatform) Upload(_ context.Context, source, kind string) (*platform.Media, error) {
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	return f.uploadMedia, nil
}

func (f *fakePlatform) Search(_ context.Context, query, mediaID string, limit int) ([]platform.SearchResult, error) {
	f.lastQuery = query
	f.lastLimit = limit
	return f.searchResults, f.searchErr
}

func (f *fakePlatform) StreamURL(context.Context, string, float64, float64) (string, error) {
	return f.streamURL, f.streamErr
}

func (f *fakePlatform) Transcript(context.Context, string) (string, error) {
	return f.transcript, f.transcriptErr
}

func TestUploadAgent(t *testing.T) {
	fake := &fakePlatform{uploadMedia: &platform.Media{
		ID: "m-1", Kind: "video", URL: "https://cdn/m-1", Length: 120,
	}}
	a := NewUploadAgent(fake)

	var progressed []string
	result, err := a.Run(context.Background(), map[string]any{
		"source": "https://x/v.mp4",
		"title":  "My keynote",
	}, func(text string, _ map[string]any) { progressed = append(progressed, text) })
	require.NoError(t, err)

	ref, ok := result.Content.(core.MediaReference)
	require.True(t, ok)
	assert.Equal(t, "m-1", ref.MediaID)
	assert.Equal(t, "My keynote", ref.Title)
	assert.NotEmpty(t, progressed)
}

func TestUploadAgentValidation(t *testing.T) {
	a := NewUploadAgent(&fakePlatform{})
	_, err := a.Run(context.Background(), map[string]any{}, agent.NopSink)
	var agentErr *agent.Error
	require.ErrorAs(t, err, &agentErr)
	assert.Equal(t, agent.KindInvalidArgument, agentErr.Kind)
}

func TestUploadAgentExternalFailure(t *testing.T) {
	cause := errors.New("ingest service unavailable")
	a := NewUploadAgent(&fakePlatform{uploadErr: cause})
	_, err := a.Run(context.Background(), map[string]any{"source": "https://x"}, agent.NopSink)
	var agentErr *agent.Error
	require.ErrorAs(t, err, &agentErr)
	assert.Equal(t, agent.KindExternalService, agentErr.Kind)
	assert.ErrorIs(t, err, cause)
}

func TestSearchAgent(t *testing.T) {
	fake := &fakePlatform{searchResults: []platform.SearchResult{
		{MediaID: "m-1", Start: 10, End: 25, Snippet: "crowd laughing", Score: 0.92},
	}}
	a := NewSearchAgent(fake)

	result, err := a.Run(context.Background(), map[string]any{
		"query": "funniest scene",
		"limit": float64(3),
	}, agent.NopSink)
	require.NoError(t, err)

	hits, ok := result.Content.(core.SearchResults)
	require.True(t, ok)
	require.Len(t, hits.Hits, 1)
	assert.Equal(t, "funniest scene", hits.Query)
	assert.Equal(t, 3, fake.lastLimit)
	assert.Empty(t, result.Warning)
}

func TestSearchAgentEmptyResultIsWarning(t *testing.T) {
	a := NewSearchAgent(&fakePlatform{})
	result, err := a.Run(context.Background(), map[string]any{"query": "nothing"}, agent.NopSink)
	require.NoError(t, err)
	assert.Equal(t, "no matching moments found", result.Warning)
}

func TestStreamAgent(t *testing.T) {
	a := NewStreamAgent(&fakePlatform{streamURL: "https://play/m-1?t=10-32"})

	result, err := a.Run(context.Background(), map[string]any{
		"media_id": "m-1",
		"start":    float64(10),
		"end":      float64(32),
	}, agent.NopSink)
	require.NoError(t, err)

	ref, ok := result.Content.(core.MediaReference)
	require.True(t, ok)
	assert.Equal(t, "https://play/m-1?t=10-32", ref.URL)
	assert.Equal(t, float64(22), ref.Length)
}

func TestStreamAgentSchemaFromStruct(t *testing.T) {
	desc := NewStreamAgent(&fakePlatform{}).Describe()
	props, ok := desc.Parameters["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "media_id")
	assert.Contains(t, props, "start")
	required, ok := desc.Parameters["required"].([]string)
	require.True(t, ok)
	assert.Equal(t, []string{"media_id"}, required)
}

func TestSummarizeAgent(t *testing.T) {
	fake := &fakePlatform{transcript: "welcome to the show"}
	model := llm.NewMockClient()
	model.SetSummary("A short welcome.", nil)
	a := NewSummarizeAgent(fake, model)

	result, err := a.Run(context.Background(), map[string]any{"media_id": "m-1"}, agent.NopSink)
	require.NoError(t, err)
	text, ok := result.Content.(core.TextContent)
	require.True(t, ok)
	assert.Equal(t, "A short welcome.", text.Text)
}

func TestSummarizeAgentEmptyTranscript(t *testing.T) {
	a := NewSummarizeAgent(&fakePlatform{}, llm.NewMockClient())
	result, err := a.Run(context.Background(), map[string]any{"media_id": "m-1"}, agent.NopSink)
	require.NoError(t, err)
	assert.Equal(t, "empty transcript", result.Warning)
}

func TestRegisterAll(t *testing.T) {
	reg := agent.NewRegistry(nil)
	require.NoError(t, RegisterAll(reg, &fakePlatform{}, llm.NewMockClient()))

	descs := reg.Descriptors()
	names := make([]string, len(descs))
	for i, d := range descs {
		names[i] = d.Name
	}
	assert.Equal(t, []string{"upload", "search", "stream", "summarize"}, names)
}
