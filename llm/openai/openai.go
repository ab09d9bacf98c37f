// Package openai adapts the OpenAI Chat Completions API (with function/tool
// calling) to the llm.Client planner contract.
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/showrunner-ai/showrunner/core"
	"github.com/showrunner-ai/showrunner/llm"
)

// Options configure the OpenAI client adapter. Fields mirror a subset of
// Chat Completion parameters intentionally kept minimal.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
}

// Client wraps the OpenAI Chat Completions API behind llm.Client.
type Client struct {
	client *openai.Client
	opts   Options
}

// NewClient creates a new OpenAI planner client using the official SDK
// client (API key from the environment).
func NewClient(optFns ...func(o *Options)) *Client {
	client := openai.NewClient()
	return NewClientFromSDK(&client, optFns...)
}

// NewClientFromSDK creates a planner client from an existing SDK client.
func NewClientFromSDK(client *openai.Client, optFns ...func(o *Options)) *Client {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Client{client: client, opts: opts}
}

// Name implements llm.Client.
func (c *Client) Name() string { return "openai" }

// Plan implements llm.Client. A response carrying tool calls becomes a plan;
// multiple tool calls in one response are treated as a parallel batch and
// marked independent. A plain assistant message becomes a direct answer.
func (c *Client) Plan(ctx context.Context, req llm.Request) (*llm.Decision, error) {
	params := c.buildParams(req)

	if len(req.Agents) > 0 {
		tools := make([]openai.ChatCompletionToolParam, len(req.Agents))
		for i, desc := range req.Agents {
			tools[i] = openai.ChatCompletionToolParam{
				Type: "function",
				Function: openai.FunctionDefinitionParam{
					Name:        desc.Name,
					Description: openai.String(desc.Description),
					Parameters:  desc.Parameters,
				},
			}
		}
		params.Tools = tools
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, &llm.ProviderError{Provider: c.Name(), Err: err}
	}
	if len(resp.Choices) == 0 {
		return nil, &llm.MalformedPlanError{Provider: c.Name(), Reason: "no choices returned"}
	}

	choice := resp.Choices[0]
	decision := &llm.Decision{Text: choice.Message.Content}
	if len(choice.Message.ToolCalls) == 0 {
		return decision, nil
	}

	independent := len(choice.Message.ToolCalls) > 1
	steps := make([]core.Step, 0, len(choice.Message.ToolCalls))
	for _, tc := range choice.Message.ToolCalls {
		args, err := llm.DecodeArgs([]byte(tc.Function.Arguments))
		if err != nil {
			return nil, &llm.MalformedPlanError{
				Provider: c.Name(),
				Reason:   fmt.Sprintf("tool call %s: %v", tc.Function.Name, err),
			}
		}
		steps = append(steps, core.Step{
			Agent:       tc.Function.Name,
			Args:        args,
			Independent: independent,
		})
	}
	decision.Plan = &core.Plan{Steps: steps}
	return decision, nil
}

// Complete implements llm.Client with a plain (tool-free) completion.
func (c *Client) Complete(ctx context.Context, req llm.Request) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, c.buildParams(req))
	if err != nil {
		return "", &llm.ProviderError{Provider: c.Name(), Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &llm.ProviderError{Provider: c.Name(), Err: fmt.Errorf("no choices returned")}
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *Client) buildParams(req llm.Request) openai.ChatCompletionNewParams {
	var messages []openai.ChatCompletionMessageParamUnion
	for _, m := range llm.Messages(req) {
		switch m.Role {
		case "system":
			messages = append(messages, openai.SystemMessage(m.Text))
		case "assistant":
			messages = append(messages, openai.AssistantMessage(m.Text))
		default:
			messages = append(messages, openai.UserMessage(m.Text))
		}
	}
	return openai.ChatCompletionNewParams{
		Messages:            messages,
		Model:               c.opts.Model,
		Temperature:         openai.Float(c.opts.Temperature),
		MaxCompletionTokens: openai.Int(c.opts.MaxCompletionTokens),
	}
}
