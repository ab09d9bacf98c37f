package core

import "time"

// EventKind categorizes events relayed to the output channel.
type EventKind string

const (
	// EventTurnStarted is emitted when the engine accepts a user input.
	EventTurnStarted EventKind = "turn_started"
	// EventPlanReady is emitted once a validated plan exists.
	EventPlanReady EventKind = "plan_ready"
	// EventStepStarted is emitted when a step is dispatched to its agent.
	EventStepStarted EventKind = "step_started"
	// EventStepProgress is a non-terminal update emitted by a running agent.
	// Progress events are relayed immediately; consumers must tolerate
	// reordering relative to other steps.
	EventStepProgress EventKind = "step_progress"
	// EventStepSucceeded is the terminal success event for a step.
	EventStepSucceeded EventKind = "step_succeeded"
	// EventStepFailed is the terminal failure event for a step.
	EventStepFailed EventKind = "step_failed"
	// EventStepSkipped marks a step dropped because an upstream step failed.
	EventStepSkipped EventKind = "step_skipped"
	// EventStepCancelled marks a step discarded by turn cancellation.
	EventStepCancelled EventKind = "step_cancelled"
	// EventTurnCommitted is emitted after the turn is persisted.
	EventTurnCommitted EventKind = "turn_committed"
	// EventTurnAborted is emitted when planning failed or the turn was
	// cancelled before commit.
	EventTurnAborted EventKind = "turn_aborted"
)

// Event is the unit of communication between the engine and external
// consumers. After emission it should be treated as immutable. Delivery is
// fire-and-forget, at-least-once; only terminal step events are guaranteed to
// arrive in plan order.
type Event struct {
	ID        string         `json:"id"`
	SessionID string         `json:"session_id"`
	TurnID    string         `json:"turn_id"`
	Kind      EventKind      `json:"kind"`
	StepIndex int            `json:"step_index"` // -1 for turn-level events
	Agent     string         `json:"agent,omitempty"`
	Text      string         `json:"text,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// NewEvent creates a turn-level event.
func NewEvent(sessionID, turnID string, kind EventKind) Event {
	return Event{
		ID:        NewID(),
		SessionID: sessionID,
		TurnID:    turnID,
		Kind:      kind,
		StepIndex: -1,
		Timestamp: time.Now().UTC(),
	}
}

// NewStepEvent creates an event bound to a plan step.
func NewStepEvent(sessionID, turnID string, kind EventKind, stepIndex int, agent string) Event {
	ev := NewEvent(sessionID, turnID, kind)
	ev.StepIndex = stepIndex
	ev.Agent = agent
	return ev
}

// IsTerminalStep reports whether the event is a terminal step event, the
// only kind with an ordering guarantee.
func (e Event) IsTerminalStep() bool {
	switch e.Kind {
	case EventStepSucceeded, EventStepFailed, EventStepSkipped, EventStepCancelled:
		return true
	default:
		return false
	}
}
