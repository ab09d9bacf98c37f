// Package anthropic adapts the Anthropic Messages API (with tool use) to the
// llm.Client planner contract.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/showrunner-ai/showrunner/core"
	"github.com/showrunner-ai/showrunner/llm"
)

// Options configure the Anthropic client adapter (model id, temperature, max
// tokens, API key).
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
}

// Client wraps the Anthropic Messages API behind llm.Client.
type Client struct {
	client *anthropic.Client
	opts   Options
}

// NewClient creates a new Anthropic planner client using the official SDK.
func NewClient(optFns ...func(o *Options)) *Client {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)

	return &Client{client: &client, opts: opts}
}

// NewClientFromSDK creates a planner client from an existing SDK client.
func NewClientFromSDK(client *anthropic.Client, optFns ...func(o *Options)) *Client {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Client{client: client, opts: opts}
}

// Name implements llm.Client.
func (c *Client) Name() string { return "anthropic" }

// Plan implements llm.Client. tool_use blocks become plan steps; multiple
// blocks in one response are a parallel batch and marked independent.
func (c *Client) Plan(ctx context.Context, req llm.Request) (*llm.Decision, error) {
	params := c.buildParams(req)

	if len(req.Agents) > 0 {
		tools := make([]anthropic.ToolUnionParam, 0, len(req.Agents))
		for _, desc := range req.Agents {
			properties, _ := desc.Parameters["properties"]
			required := requiredFields(desc.Parameters)
			tools = append(tools, anthropic.ToolUnionParam{
				OfTool: &anthropic.ToolParam{
					Name:        desc.Name,
					Description: anthropic.String(desc.Description),
					InputSchema: anthropic.ToolInputSchemaParam{
						Properties: properties,
						Required:   required,
					},
				},
			})
		}
		params.Tools = tools
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, &llm.ProviderError{Provider: c.Name(), Err: err}
	}

	var text strings.Builder
	var steps []core.Step
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			text.WriteString(block.AsText().Text)
		case "tool_use":
			tb := block.AsToolUse()
			raw, mErr := json.Marshal(tb.Input)
			if mErr != nil {
				return nil, &llm.MalformedPlanError{
					Provider: c.Name(),
					Reason:   fmt.Sprintf("tool use %s: %v", tb.Name, mErr),
				}
			}
			args, dErr := llm.DecodeArgs(raw)
			if dErr != nil {
				return nil, &llm.MalformedPlanError{
					Provider: c.Name(),
					Reason:   fmt.Sprintf("tool use %s: %v", tb.Name, dErr),
				}
			}
			steps = append(steps, core.Step{Agent: tb.Name, Args: args})
		}
	}

	decision := &llm.Decision{Text: text.String()}
	if len(steps) > 0 {
		if len(steps) > 1 {
			for i := range steps {
				steps[i].Independent = true
			}
		}
		decision.Plan = &core.Plan{Steps: steps}
	}
	return decision, nil
}

// Complete implements llm.Client with a plain (tool-free) completion.
func (c *Client) Complete(ctx context.Context, req llm.Request) (string, error) {
	resp, err := c.client.Messages.New(ctx, c.buildParams(req))
	if err != nil {
		return "", &llm.ProviderError{Provider: c.Name(), Err: err}
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.AsText().Text)
		}
	}
	return text.String(), nil
}

func (c *Client) buildParams(req llm.Request) anthropic.MessageNewParams {
	var system []anthropic.TextBlockParam
	var messages []anthropic.MessageParam
	for _, m := range llm.Messages(req) {
		switch m.Role {
		case "system":
			system = append(system, anthropic.TextBlockParam{Text: m.Text})
		case "assistant":
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Text)))
		default:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Text)))
		}
	}

	params := anthropic.MessageNewParams{
		Model:       c.opts.Model,
		Messages:    messages,
		MaxTokens:   c.opts.MaxTokens,
		Temperature: anthropic.Float(c.opts.Temperature),
	}
	if len(system) > 0 {
		params.System = system
	}
	return params
}

func requiredFields(spec map[string]any) []string {
	switch req := spec["required"].(type) {
	case []string:
		return req
	case []any:
		fields := make([]string, 0, len(req))
		for _, v := range req {
			if s, ok := v.(string); ok {
				fields = append(fields, s)
			}
		}
		return fields
	default:
		return nil
	}
}
