// Package planner turns conversation context and user input into a validated
// execution plan, querying a language-model client and checking every
// returned step against the agent registry before the engine dispatches it.
package planner

import (
	"context"
	"errors"
	"fmt"

	"github.com/showrunner-ai/showrunner/agent"
	"github.com/showrunner-ai/showrunner/core"
	"github.com/showrunner-ai/showrunner/llm"
	"github.com/showrunner-ai/showrunner/logging"
)

// DefaultInstructions is the system prompt sent with every planning call.
const DefaultInstructions = `You are Showrunner, an orchestrator for media workflows. You decide how to
fulfill the user's request using the tools advertised to you. Rules:
- If the request needs no tool, answer directly and concisely.
- Otherwise return tool calls in the order they must run; a call that
  consumes another call's output must come after it.
- Only reference media by identifiers present in the conversation.
- To reuse a media result from earlier in the conversation, pass the string
  "ref:last/media_id" or "ref:last/url" for the most recent media output, or
  "ref:turn/<turn index>/message/<message index>/<media_id|url>" to address a
  specific earlier output. These are resolved before any tool runs.
- Never invent tool names or arguments outside the advertised schemas.`

// DefaultRetries is the default number of corrected-plan retries after an
// invalid plan.
const DefaultRetries = 1

// PlanningError reports that no valid plan could be obtained: the provider
// failed, or every attempt (initial plus corrected retries) produced an
// invalid plan.
type PlanningError struct {
	// Reason describes the final rejection.
	Reason string
	// Attempts is the number of provider calls made.
	Attempts int
	// Err is the underlying cause, when one exists.
	Err error
}

// Error implements the error interface.
func (e *PlanningError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("planning failed after %d attempt(s): %s: %v", e.Attempts, e.Reason, e.Err)
	}
	return fmt.Sprintf("planning failed after %d attempt(s): %s", e.Attempts, e.Reason)
}

// Unwrap exposes the wrapped cause.
func (e *PlanningError) Unwrap() error { return e.Err }

// Planner validates language-model decisions against the agent registry and
// resolves history references in step arguments.
type Planner struct {
	client       llm.Client
	registry     *agent.Registry
	instructions string
	retries      int
	logger       logging.Logger
}

// Option configures a Planner.
type Option func(*Planner)

// WithInstructions overrides the system prompt.
func WithInstructions(text string) Option {
	return func(p *Planner) { p.instructions = text }
}

// WithRetries sets the corrected-plan retry bound. Negative values are
// treated as zero.
func WithRetries(n int) Option {
	return func(p *Planner) {
		if n < 0 {
			n = 0
		}
		p.retries = n
	}
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(p *Planner) { p.logger = l }
}

// New constructs a Planner over the given model client and registry.
func New(client llm.Client, registry *agent.Registry, opts ...Option) *Planner {
	p := &Planner{
		client:       client,
		registry:     registry,
		instructions: DefaultInstructions,
		retries:      DefaultRetries,
		logger:       logging.NoOpLogger{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Decide queries the model and returns either a direct answer or a fully
// validated plan whose reference placeholders have been resolved against the
// session history. Invalid plans are retried with a correction note up to the
// configured bound; exhaustion or provider failure yields a *PlanningError.
func (p *Planner) Decide(ctx context.Context, history []core.Turn, truncated bool, input string) (*llm.Decision, error) {
	refs := NewRefIndex(history)
	req := llm.Request{
		Instructions: p.instructions,
		History:      history,
		Truncated:    truncated,
		Input:        input,
		Agents:       p.registry.Descriptors(),
	}

	attempts := 0
	for {
		attempts++
		dec, err := p.client.Plan(ctx, req)
		if err != nil {
			var malformed *llm.MalformedPlanError
			if errors.As(err, &malformed) && attempts <= p.retries {
				p.logger.Warn("malformed plan, retrying provider=%s: %s", p.client.Name(), malformed.Reason)
				req.Correction = malformed.Reason
				continue
			}
			return nil, &PlanningError{Reason: "provider call failed", Attempts: attempts, Err: err}
		}
		if dec.Plan == nil {
			return dec, nil
		}

		reason := p.validate(dec.Plan, refs)
		if reason == "" {
			p.logger.Info("plan accepted steps=%d attempts=%d", len(dec.Plan.Steps), attempts)
			return dec, nil
		}
		if attempts <= p.retries {
			p.logger.Warn("plan rejected, retrying: %s", reason)
			req.Correction = reason
			continue
		}
		return nil, &PlanningError{Reason: reason, Attempts: attempts}
	}
}

// validate checks every step and resolves its references in place. It returns
// an empty string when the plan is valid, otherwise the rejection reason.
func (p *Planner) validate(plan *core.Plan, refs *RefIndex) string {
	if len(plan.Steps) == 0 {
		return "plan contains no steps"
	}
	for i := range plan.Steps {
		step := &plan.Steps[i]
		resolved, err := refs.Resolve(step.Args)
		if err != nil {
			return fmt.Sprintf("step %d (%s): %v", i, step.Agent, err)
		}
		if err := p.registry.Validate(step.Agent, resolved); err != nil {
			return fmt.Sprintf("step %d: %v", i, err)
		}
		step.Args = resolved
	}
	return ""
}
