package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/showrunner-ai/showrunner/core"
)

// Request captures the normalized planner input handed to a provider.
type Request struct {
	// Instructions is the system prompt (behavior rules + capability notes).
	Instructions string
	// History is the bounded context window of committed turns, oldest first.
	History []core.Turn
	// Truncated reports that the newest turn had to be trimmed to fit the
	// context budget; providers surface this to the model.
	Truncated bool
	// Input is the current user message.
	Input string
	// Agents advertises the registry's capabilities as callable tools.
	Agents []core.Descriptor
	// Correction is set on corrected-plan retries and describes why the
	// previous plan was rejected.
	Correction string
}

// Decision is the provider's answer: a direct textual reply when Plan is
// nil, otherwise an ordered plan of agent invocations (Text may still carry
// commentary).
type Decision struct {
	Text string
	Plan *core.Plan
}

// ProviderError signals a failed provider call (network, auth, rate limit) as
// opposed to a well-formed call that produced an unusable plan.
type ProviderError struct {
	Provider string
	Err      error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	return fmt.Sprintf("llm provider %s: %v", e.Provider, e.Err)
}

// Unwrap exposes the wrapped cause.
func (e *ProviderError) Unwrap() error { return e.Err }

// MalformedPlanError signals a schema-invalid provider response (undecodable
// tool arguments, empty choices). Distinct from ProviderError so callers can
// retry with a correction instead of failing the provider.
type MalformedPlanError struct {
	Provider string
	Reason   string
}

// Error implements the error interface.
func (e *MalformedPlanError) Error() string {
	return fmt.Sprintf("llm provider %s returned malformed plan: %s", e.Provider, e.Reason)
}

// Client is the language-model contract consumed by the planner.
type Client interface {
	// Plan turns context + input into a Decision. Failures are either
	// *ProviderError or *MalformedPlanError.
	Plan(ctx context.Context, req Request) (*Decision, error)

	// Complete generates a plain text completion for the request, used for
	// turn summaries. Tools are not advertised.
	Complete(ctx context.Context, req Request) (string, error)

	// Name identifies the provider ("openai", "anthropic", "mock").
	Name() string
}

// ChatMessage is a provider-agnostic role/text pair produced from a Request.
type ChatMessage struct {
	Role string // "system", "user", "assistant"
	Text string
}

// Messages flattens a Request into ordered chat messages: instructions,
// history turn pairs, the current input and any correction note. Providers
// convert these into their SDK's message types.
func Messages(req Request) []ChatMessage {
	msgs := make([]ChatMessage, 0, len(req.History)*2+3)
	if req.Instructions != "" {
		msgs = append(msgs, ChatMessage{Role: "system", Text: req.Instructions})
	}
	for _, turn := range req.History {
		msgs = append(msgs, ChatMessage{Role: "user", Text: turn.Input})
		if reply := RenderTurnOutput(turn); reply != "" {
			msgs = append(msgs, ChatMessage{Role: "assistant", Text: reply})
		}
	}
	if req.Truncated {
		msgs = append(msgs, ChatMessage{
			Role: "system",
			Text: "Note: the preceding conversation was truncated to fit the context budget.",
		})
	}
	if req.Correction != "" {
		msgs = append(msgs, ChatMessage{
			Role: "system",
			Text: "The previous plan was rejected: " + req.Correction + ". Produce a corrected plan.",
		})
	}
	msgs = append(msgs, ChatMessage{Role: "user", Text: req.Input})
	return msgs
}

// RenderTurnOutput renders a committed turn's messages as assistant-visible
// text. Media references keep their IDs so the model can address prior
// outputs deterministically.
func RenderTurnOutput(turn core.Turn) string {
	var b strings.Builder
	for _, msg := range turn.Messages {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(RenderContent(msg.Content))
	}
	return b.String()
}

// RenderContent renders one content payload as text for model consumption.
func RenderContent(c core.Content) string {
	switch v := c.(type) {
	case core.TextContent:
		return v.Text
	case core.MediaReference:
		return fmt.Sprintf("[%s media_id=%s title=%q url=%s]", v.Kind, v.MediaID, v.Title, v.URL)
	case core.SearchResults:
		var b strings.Builder
		fmt.Fprintf(&b, "[search results for %q]", v.Query)
		for _, hit := range v.Hits {
			fmt.Fprintf(&b, "\n- media_id=%s start=%.1f end=%.1f %s", hit.MediaID, hit.Start, hit.End, hit.Snippet)
		}
		return b.String()
	case core.ErrorContent:
		return fmt.Sprintf("[error %s: %s]", v.Kind, v.Message)
	default:
		return ""
	}
}

// DecodeArgs decodes a provider's serialized tool-call arguments. An empty
// payload decodes to an empty argument map.
func DecodeArgs(raw []byte) (map[string]any, error) {
	if len(raw) == 0 {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("decode tool arguments: %w", err)
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}
