// Package core provides the foundational domain types and contracts used by
// Showrunner. It defines:
//
//   - Sessions (append-only conversational histories made of committed Turns)
//   - Turns and Messages (one user input plus its ordered, typed outputs)
//   - Plans, Steps and StepRecords (the unit of agent orchestration)
//   - Events (incremental progress records pushed to the output channel)
//   - Descriptors (agent capability advertisements with parameter schemas)
//   - Pluggable contracts for session persistence
//
// The package intentionally keeps implementation concerns (persistence
// backends, the reasoning engine, concrete agents, LLM providers) out of
// scope, exposing small interfaces so higher layers can be wired with custom
// backends without changing callers.
package core
