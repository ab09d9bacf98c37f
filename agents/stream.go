package agents

import (
	"context"

	"github.com/showrunner-ai/showrunner/agent"
	"github.com/showrunner-ai/showrunner/core"
	"github.com/showrunner-ai/showrunner/internal/schema"
	"github.com/showrunner-ai/showrunner/platform"
)

// StreamAgent produces a playback URL for an asset or a fragment of it.
type StreamAgent struct {
	client platform.Client
}

// NewStreamAgent constructs the stream agent.
func NewStreamAgent(client platform.Client) *StreamAgent {
	return &StreamAgent{client: client}
}

type streamArgs struct {
	MediaID string   `json:"media_id" description:"Asset to stream"`
	Start   *float64 `json:"start,omitempty" description:"Fragment start in seconds"`
	End     *float64 `json:"end,omitempty" description:"Fragment end in seconds"`
}

// Describe implements agent.Agent.
func (a *StreamAgent) Describe() core.Descriptor {
	return core.Descriptor{
		Name:        "stream",
		Description: "Generate a playback URL for an uploaded asset, optionally for a time range.",
		Parameters:  schema.FromStruct(streamArgs{}),
	}
}

// Run implements agent.Agent.
func (a *StreamAgent) Run(ctx context.Context, args map[string]any, progress agent.ProgressSink) (*agent.Result, error) {
	mediaID, _ := args["media_id"].(string)
	if mediaID == "" {
		return nil, agent.NewInvalidArgument("stream", "media_id must be non-empty")
	}
	var start, end float64
	if v, ok := args["start"].(float64); ok {
		start = v
	}
	if v, ok := args["end"].(float64); ok {
		end = v
	}

	progress("Preparing stream...", nil)

	url, err := a.client.StreamURL(ctx, mediaID, start, end)
	if err != nil {
		return nil, agent.NewExternalFailure("stream", err)
	}

	return &agent.Result{Content: core.MediaReference{
		MediaID: mediaID,
		Kind:    "stream",
		URL:     url,
		Length:  end - start,
	}}, nil
}
