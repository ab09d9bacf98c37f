package agents

import (
	"context"

	"github.com/showrunner-ai/showrunner/agent"
	"github.com/showrunner-ai/showrunner/core"
	"github.com/showrunner-ai/showrunner/llm"
	"github.com/showrunner-ai/showrunner/platform"
)

// SummarizeAgent condenses an asset's transcript with the language model.
type SummarizeAgent struct {
	client platform.Client
	model  llm.Client
}

// NewSummarizeAgent constructs the summarize agent.
func NewSummarizeAgent(client platform.Client, model llm.Client) *SummarizeAgent {
	return &SummarizeAgent{client: client, model: model}
}

// Describe implements agent.Agent.
func (a *SummarizeAgent) Describe() core.Descriptor {
	return core.Descriptor{
		Name:        "summarize",
		Description: "Summarize the spoken content of an uploaded asset.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"media_id": map[string]any{
					"type":        "string",
					"description": "Asset to summarize",
				},
				"style": map[string]any{
					"type":        "string",
					"enum":        []string{"brief", "detailed", "bullets"},
					"default":     "brief",
					"description": "Summary style",
				},
			},
			"required": []string{"media_id"},
		},
	}
}

// Run implements agent.Agent.
func (a *SummarizeAgent) Run(ctx context.Context, args map[string]any, progress agent.ProgressSink) (*agent.Result, error) {
	mediaID, _ := args["media_id"].(string)
	if mediaID == "" {
		return nil, agent.NewInvalidArgument("summarize", "media_id must be non-empty")
	}
	style, _ := args["style"].(string)

	progress("Fetching transcript...", nil)

	transcript, err := a.client.Transcript(ctx, mediaID)
	if err != nil {
		return nil, agent.NewExternalFailure("summarize", err)
	}
	if transcript == "" {
		return &agent.Result{
			Content: core.TextContent{Text: "The asset has no spoken content to summarize."},
			Warning: "empty transcript",
		}, nil
	}

	progress("Summarizing...", nil)

	instructions := "Summarize the following transcript. Style: " + style + "."
	text, err := a.model.Complete(ctx, llm.Request{Instructions: instructions, Input: transcript})
	if err != nil {
		return nil, agent.NewExternalFailure("summarize", err)
	}

	return &agent.Result{Content: core.TextContent{Text: text}}, nil
}
