// Package agents provides the built-in media agents registered at startup:
// upload, search, stream and summarize. Each one is a thin wrapper over the
// platform client; the heavy lifting happens service-side.
package agents

import (
	"context"
	"fmt"

	"github.com/showrunner-ai/showrunner/agent"
	"github.com/showrunner-ai/showrunner/core"
	"github.com/showrunner-ai/showrunner/platform"
)

// UploadAgent ingests media from a URL into the platform.
type UploadAgent struct {
	client platform.Client
}

// NewUploadAgent constructs the upload agent.
func NewUploadAgent(client platform.Client) *UploadAgent {
	return &UploadAgent{client: client}
}

// Describe implements agent.Agent.
func (a *UploadAgent) Describe() core.Descriptor {
	return core.Descriptor{
		Name:        "upload",
		Description: "Upload video or audio from a URL so later steps can search, stream or summarize it.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"source": map[string]any{
					"type":        "string",
					"description": "Public URL of the media to ingest",
				},
				"kind": map[string]any{
					"type":        "string",
					"enum":        []string{"video", "audio"},
					"default":     "video",
					"description": "Media kind",
				},
				"title": map[string]any{
					"type":        "string",
					"description": "Optional display title",
				},
			},
			"required": []string{"source"},
		},
	}
}

// Run implements agent.Agent.
func (a *UploadAgent) Run(ctx context.Context, args map[string]any, progress agent.ProgressSink) (*agent.Result, error) {
	source, _ := args["source"].(string)
	if source == "" {
		return nil, agent.NewInvalidArgument("upload", "source must be a non-empty URL")
	}
	kind, _ := args["kind"].(string)

	progress(fmt.Sprintf("Uploading %s...", source), nil)

	media, err := a.client.Upload(ctx, source, kind)
	if err != nil {
		return nil, agent.NewExternalFailure("upload", err)
	}

	title := media.Title
	if t, _ := args["title"].(string); t != "" {
		title = t
	}

	return &agent.Result{Content: core.MediaReference{
		MediaID: media.ID,
		Kind:    media.Kind,
		URL:     media.URL,
		Title:   title,
		Length:  media.Length,
	}}, nil
}
