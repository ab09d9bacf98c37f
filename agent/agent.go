package agent

import (
	"context"
	"fmt"

	"github.com/showrunner-ai/showrunner/core"
)

// ProgressSink receives incremental, non-terminal status updates emitted by a
// running agent. Implementations must be safe to call from the agent's
// goroutine; delivery is fire-and-forget.
type ProgressSink func(text string, payload map[string]any)

// NopSink discards progress updates.
func NopSink(string, map[string]any) {}

// Result is the terminal success payload of an agent run. A non-empty
// Warning flags a degraded outcome: the step still counts as succeeded but
// the resulting message carries the warning.
type Result struct {
	Content core.Content
	Warning string
}

// Agent is a self-contained task executor with a declared parameter schema.
//
// Implementations should:
//   - Provide clear, descriptive names (snake_case recommended) and
//     descriptions; both are shown to the language model
//   - Declare a minimal JSON schema for parameters
//   - Respect context cancellation on long external calls
//   - Emit progress through the sink rather than blocking silently
//   - Be safe for concurrent use
type Agent interface {
	// Describe returns the agent's capability advertisement.
	Describe() core.Descriptor

	// Run executes the agent with validated arguments. Zero or more progress
	// updates may be pushed to the sink before the terminal result or error.
	Run(ctx context.Context, args map[string]any, progress ProgressSink) (*Result, error)
}

// ErrorKind categorizes agent failures.
type ErrorKind string

const (
	// KindInvalidArgument signals arguments that failed schema or semantic checks.
	KindInvalidArgument ErrorKind = "invalid_argument"
	// KindExternalService signals a failed platform or LLM call inside the agent.
	KindExternalService ErrorKind = "external_service"
	// KindInternal signals an unexpected agent fault (including recovered panics).
	KindInternal ErrorKind = "internal"
)

// Error is the uniform failure type agents signal from Run.
type Error struct {
	Agent   string    `json:"agent"`
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("agent %s: %s: %s", e.Agent, e.Kind, e.Message)
}

// Unwrap exposes the wrapped cause for errors.Is/As.
func (e *Error) Unwrap() error { return e.Err }

// NewInvalidArgument creates an invalid-argument agent error.
func NewInvalidArgument(agent, message string) *Error {
	return &Error{Agent: agent, Kind: KindInvalidArgument, Message: message}
}

// NewExternalFailure wraps a failed external call.
func NewExternalFailure(agent string, err error) *Error {
	return &Error{Agent: agent, Kind: KindExternalService, Message: err.Error(), Err: err}
}
