package agents

import (
	"context"
	"fmt"

	"github.com/showrunner-ai/showrunner/agent"
	"github.com/showrunner-ai/showrunner/core"
	"github.com/showrunner-ai/showrunner/platform"
)

// SearchAgent finds moments in indexed media by semantic query.
type SearchAgent struct {
	client platform.Client
}

// NewSearchAgent constructs the search agent.
func NewSearchAgent(client platform.Client) *SearchAgent {
	return &SearchAgent{client: client}
}

// Describe implements agent.Agent.
func (a *SearchAgent) Describe() core.Descriptor {
	return core.Descriptor{
		Name:        "search",
		Description: "Search indexed media for moments matching a query. Returns timed fragments.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "What to look for, in natural language",
				},
				"media_id": map[string]any{
					"type":        "string",
					"description": "Restrict the search to one asset; empty searches everything",
				},
				"limit": map[string]any{
					"type":        "integer",
					"default":     5,
					"description": "Maximum number of fragments to return",
				},
			},
			"required": []string{"query"},
		},
	}
}

// Run implements agent.Agent.
func (a *SearchAgent) Run(ctx context.Context, args map[string]any, progress agent.ProgressSink) (*agent.Result, error) {
	query, _ := args["query"].(string)
	if query == "" {
		return nil, agent.NewInvalidArgument("search", "query must be non-empty")
	}
	mediaID, _ := args["media_id"].(string)
	limit := 5
	if v, ok := args["limit"].(float64); ok && v > 0 {
		limit = int(v)
	} else if v, ok := args["limit"].(int); ok && v > 0 {
		limit = v
	}

	progress(fmt.Sprintf("Searching for %q...", query), nil)

	results, err := a.client.Search(ctx, query, mediaID, limit)
	if err != nil {
		return nil, agent.NewExternalFailure("search", err)
	}

	hits := make([]core.SearchHit, len(results))
	for i, r := range results {
		hits[i] = core.SearchHit{
			MediaID: r.MediaID,
			Snippet: r.Snippet,
			Start:   r.Start,
			End:     r.End,
			Score:   r.Score,
		}
	}

	result := &agent.Result{Content: core.SearchResults{Query: query, Hits: hits}}
	if len(hits) == 0 {
		result.Warning = "no matching moments found"
	}
	return result, nil
}
