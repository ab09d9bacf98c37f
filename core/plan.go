package core

import "time"

// Step is one plan entry: an agent identifier plus arguments that must
// validate against the agent's parameter schema before dispatch.
type Step struct {
	Agent string         `json:"agent"`
	Args  map[string]any `json:"args"`
	// Independent marks the step as safe to dispatch concurrently with
	// adjacent independent steps. Terminal events are still relayed in plan
	// order regardless of completion order.
	Independent bool `json:"independent,omitempty"`
	// Reason is optional planner-provided rationale, for observability.
	Reason string `json:"reason,omitempty"`
}

// Plan is the ordered list of agent invocations decided for a turn. At most
// one plan is active per turn.
type Plan struct {
	Steps []Step `json:"steps"`
}

// StepRecord tracks one step's execution. It exists only for the duration of
// a turn and is folded into the turn's messages at finalize.
type StepRecord struct {
	Index   int
	Step    Step
	Status  StepStatus
	Started time.Time
	Ended   time.Time

	// Result payload on success; Warning flags a degraded (partial) outcome.
	Output  Content
	Warning string

	// Err holds the failure description for failed/skipped/cancelled steps.
	Err string

	// Buffered terminal event, flushed in plan order by the executor.
	terminal *Event
}

// SetTerminalEvent buffers the step's terminal event until the executor
// flushes preceding steps.
func (r *StepRecord) SetTerminalEvent(ev Event) { r.terminal = &ev }

// TerminalEvent returns the buffered terminal event, if set.
func (r *StepRecord) TerminalEvent() (Event, bool) {
	if r.terminal == nil {
		return Event{}, false
	}
	return *r.terminal, true
}
