package core

import "github.com/google/uuid"

// NewID generates a unique identifier for sessions, turns, steps and events.
func NewID() string { return uuid.NewString() }

// MessageStatus tracks the lifecycle of a single output message.
type MessageStatus string

const (
	// MessagePending means the message has been created but no work started.
	MessagePending MessageStatus = "pending"
	// MessageInProgress means the producing step is currently running.
	MessageInProgress MessageStatus = "in_progress"
	// MessageSuccess is the terminal success status.
	MessageSuccess MessageStatus = "success"
	// MessageError is the terminal failure status.
	MessageError MessageStatus = "error"
)

// StepStatus tracks a Step through the executor's state machine:
// pending -> dispatched -> (progress)* -> succeeded | failed | skipped | cancelled.
type StepStatus string

const (
	// StepPending means the step has not been handed to its agent yet.
	StepPending StepStatus = "pending"
	// StepDispatched means the agent is running; progress events may arrive.
	StepDispatched StepStatus = "dispatched"
	// StepSucceeded is the terminal success status.
	StepSucceeded StepStatus = "succeeded"
	// StepFailed is the terminal failure status.
	StepFailed StepStatus = "failed"
	// StepSkipped marks a step that was never dispatched because an upstream
	// step failed.
	StepSkipped StepStatus = "skipped"
	// StepCancelled marks a step whose turn was cancelled; an in-flight step
	// runs to completion but its result is discarded from the committed turn.
	StepCancelled StepStatus = "cancelled"
)

// Terminal reports whether the status is a terminal state of the step machine.
func (s StepStatus) Terminal() bool {
	switch s {
	case StepSucceeded, StepFailed, StepSkipped, StepCancelled:
		return true
	default:
		return false
	}
}

// TurnStatus is the overall outcome attached to a committed turn.
type TurnStatus string

const (
	// TurnSuccess means every dispatched step succeeded.
	TurnSuccess TurnStatus = "success"
	// TurnPartial means some steps succeeded and some failed or were skipped.
	TurnPartial TurnStatus = "partial"
	// TurnError means the turn produced no successful step results.
	TurnError TurnStatus = "error"
	// TurnAborted means planning failed or the turn was cancelled before any
	// result could be produced.
	TurnAborted TurnStatus = "aborted"
)
