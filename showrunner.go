// Package showrunner provides a high-level façade over the reasoning engine
// and its services (planner, agent registry, session stores, logging). Most
// applications interact with this package by:
//  1. Creating a Showrunner via New() with a language model client
//  2. Registering agents (the built-in media agents or custom ones)
//  3. Sending user input asynchronously (Chat) or synchronously (ChatSync)
//
// The façade delegates orchestration to engine.Engine while keeping setup
// ergonomics concise. Defaults are safe for local development; production
// deployments supply a durable session store and a structured logger.
package showrunner

import (
	"context"

	"github.com/showrunner-ai/showrunner/agent"
	"github.com/showrunner-ai/showrunner/core"
	"github.com/showrunner-ai/showrunner/engine"
	"github.com/showrunner-ai/showrunner/llm"
	"github.com/showrunner-ai/showrunner/logging"
)

// Showrunner is the high-level façade aggregating engine, registry and
// stores.
type Showrunner struct {
	registry *agent.Registry
	engine   *engine.Engine
}

// New creates a Showrunner over the given language model client. Engine
// options configure context budget, retries, timeouts, concurrency and the
// session store; any unset service falls back to an in-memory default.
func New(client llm.Client, optFns ...engine.Option) *Showrunner {
	registry := agent.NewRegistry(logging.NoOpLogger{})
	return &Showrunner{
		registry: registry,
		engine:   engine.New(client, registry, optFns...),
	}
}

// RegisterAgent adds an agent to the capability table. All agents must be
// registered before the first turn runs.
func (s *Showrunner) RegisterAgent(a agent.Agent) error {
	return s.registry.Register(a)
}

// Registry exposes the agent registry, for listing capabilities.
func (s *Showrunner) Registry() *agent.Registry { return s.registry }

// Store exposes the session store, for read access to committed turns.
func (s *Showrunner) Store() core.SessionStore { return s.engine.Store() }

// Chat starts an asynchronous turn, returning the turn ID, an event stream
// and an error channel carrying at most one infrastructure failure.
func (s *Showrunner) Chat(
	ctx context.Context,
	sessionID, input string,
) (string, <-chan core.Event, <-chan error, error) {
	return s.engine.RunTurn(ctx, sessionID, input)
}

// ChatSync runs a turn to completion and returns the committed turn.
func (s *Showrunner) ChatSync(ctx context.Context, sessionID, input string) (*core.Turn, error) {
	return s.engine.RunTurnSync(ctx, sessionID, input)
}

// Cancel requests cancellation of an active turn.
func (s *Showrunner) Cancel(turnID string) error {
	return s.engine.Cancel(turnID)
}
