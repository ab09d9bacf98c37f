package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageJSONDiscriminatesContent(t *testing.T) {
	msg := NewMessage("upload", MessageSuccess, MediaReference{
		MediaID: "m-42",
		Kind:    "video",
		URL:     "https://example.com/m-42.m3u8",
		Title:   "Launch keynote",
	})

	data, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"kind":"media_reference"`)

	var decoded Message
	require.NoError(t, json.Unmarshal(data, &decoded))

	ref, ok := decoded.Content.(MediaReference)
	require.True(t, ok, "expected MediaReference, got %T", decoded.Content)
	assert.Equal(t, "m-42", ref.MediaID)
	assert.Equal(t, msg.ID, decoded.ID)
	assert.Equal(t, MessageSuccess, decoded.Status)
}

func TestMessageJSONSearchResults(t *testing.T) {
	msg := NewMessage("search", MessageSuccess, SearchResults{
		Query: "funniest scene",
		Hits: []SearchHit{
			{MediaID: "m-1", Snippet: "crowd laughing", Start: 12.5, End: 31.0, Score: 0.92},
		},
	})

	data, err := json.Marshal(msg)
	require.NoError(t, err)

	var decoded Message
	require.NoError(t, json.Unmarshal(data, &decoded))

	res, ok := decoded.Content.(SearchResults)
	require.True(t, ok)
	require.Len(t, res.Hits, 1)
	assert.Equal(t, "funniest scene", res.Query)
	assert.InDelta(t, 12.5, res.Hits[0].Start, 1e-9)
}

func TestMessageJSONErrorContent(t *testing.T) {
	msg := NewErrorMessage("share", "agent", "slack webhook returned 502")

	data, err := json.Marshal(msg)
	require.NoError(t, err)

	var decoded Message
	require.NoError(t, json.Unmarshal(data, &decoded))

	ec, ok := decoded.Content.(ErrorContent)
	require.True(t, ok)
	assert.Equal(t, "agent", ec.Kind)
	assert.Equal(t, MessageError, decoded.Status)
}

func TestMessageJSONUnknownKind(t *testing.T) {
	var decoded Message
	err := json.Unmarshal([]byte(`{"id":"x","content":{"kind":"bogus","payload":{}}}`), &decoded)
	assert.Error(t, err)
}

func TestMessageMarshalWithoutContent(t *testing.T) {
	msg := Message{ID: "x", Agent: "assistant", Status: MessagePending}
	_, err := json.Marshal(msg)
	assert.Error(t, err)
}
