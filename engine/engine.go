// Package engine runs the reasoning loop: it builds a bounded context window
// over the session history, asks the planner for a decision, executes the
// resulting plan step by step and commits the finished turn.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/showrunner-ai/showrunner/agent"
	"github.com/showrunner-ai/showrunner/channel"
	"github.com/showrunner-ai/showrunner/core"
	"github.com/showrunner-ai/showrunner/llm"
	"github.com/showrunner-ai/showrunner/logging"
	"github.com/showrunner-ai/showrunner/planner"
	"github.com/showrunner-ai/showrunner/session"
)

// Metrics receives turn and step observations. Implementations must be safe
// for concurrent use.
type Metrics interface {
	ObserveTurn(status core.TurnStatus, d time.Duration)
	ObserveStep(agentName string, status core.StepStatus, d time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) ObserveTurn(core.TurnStatus, time.Duration)          {}
func (noopMetrics) ObserveStep(string, core.StepStatus, time.Duration) {}

// OutcomePolicy maps a finished turn's terminal step counts to its committed
// status. Cancellation is decided before the policy runs and always aborts.
type OutcomePolicy func(succeeded, failed int) core.TurnStatus

// DefaultOutcome treats a failure-free turn as success, a mixed turn as
// partial and a turn with failures but no successes as error.
func DefaultOutcome(succeeded, failed int) core.TurnStatus {
	switch {
	case failed == 0:
		return core.TurnSuccess
	case succeeded > 0:
		return core.TurnPartial
	default:
		return core.TurnError
	}
}

// Options configures an Engine.
type Options struct {
	// ContextBudget bounds the planner context window, in characters.
	ContextBudget int
	// PlanRetries bounds corrected-plan retries after an invalid plan.
	PlanRetries int
	// AgentTimeout bounds a single agent invocation (0 = unbounded).
	AgentTimeout time.Duration
	// ConcurrentSteps allows adjacent independent steps to run in parallel.
	ConcurrentSteps bool
	// EventBufferSize sizes each turn's event stream.
	EventBufferSize int
	// SessionStore persists committed turns.
	SessionStore core.SessionStore
	// Truncation trims an oversized newest turn.
	Truncation TruncationPolicy
	// Outcome maps terminal step counts to the committed turn status.
	Outcome OutcomePolicy
	// Instructions overrides the planner system prompt.
	Instructions string
	// Logger receives engine diagnostics.
	Logger logging.Logger
	// Metrics receives turn and step observations.
	Metrics Metrics
}

// Option mutates engine Options.
type Option func(*Options)

// WithContextBudget sets the context window budget in characters.
func WithContextBudget(n int) Option {
	return func(o *Options) { o.ContextBudget = n }
}

// WithPlanRetries sets the corrected-plan retry bound.
func WithPlanRetries(n int) Option {
	return func(o *Options) { o.PlanRetries = n }
}

// WithAgentTimeout bounds a single agent invocation.
func WithAgentTimeout(d time.Duration) Option {
	return func(o *Options) { o.AgentTimeout = d }
}

// WithConcurrentSteps enables parallel dispatch of independent steps.
func WithConcurrentSteps(enabled bool) Option {
	return func(o *Options) { o.ConcurrentSteps = enabled }
}

// WithEventBufferSize sizes each turn's event stream.
func WithEventBufferSize(n int) Option {
	return func(o *Options) { o.EventBufferSize = n }
}

// WithSessionStore sets the session store.
func WithSessionStore(store core.SessionStore) Option {
	return func(o *Options) { o.SessionStore = store }
}

// WithTruncation sets the truncation policy.
func WithTruncation(p TruncationPolicy) Option {
	return func(o *Options) { o.Truncation = p }
}

// WithOutcomePolicy overrides how terminal step counts map to a turn status.
func WithOutcomePolicy(p OutcomePolicy) Option {
	return func(o *Options) { o.Outcome = p }
}

// WithInstructions overrides the planner system prompt.
func WithInstructions(text string) Option {
	return func(o *Options) { o.Instructions = text }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m Metrics) Option {
	return func(o *Options) { o.Metrics = m }
}

// Engine coordinates planner, registry and session store for one process.
// Sessions are independent; turns within one session run under a
// single-writer lock.
type Engine struct {
	client   llm.Client
	registry *agent.Registry
	planner  *planner.Planner
	store    core.SessionStore
	logger   logging.Logger
	metrics  Metrics

	contextBudget   int
	agentTimeout    time.Duration
	concurrentSteps bool
	eventBufferSize int
	truncation      TruncationPolicy
	outcome         OutcomePolicy

	mu           sync.Mutex
	sessionLocks map[string]*sync.Mutex
	activeTurns  map[string]context.CancelFunc
}

// New constructs an Engine over the given model client and agent registry.
func New(client llm.Client, registry *agent.Registry, optFns ...Option) *Engine {
	opts := Options{
		ContextBudget:   16000,
		PlanRetries:     planner.DefaultRetries,
		EventBufferSize: 100,
		SessionStore:    session.NewInMemoryStore(),
		Truncation:      DefaultTruncation,
		Outcome:         DefaultOutcome,
		Instructions:    planner.DefaultInstructions,
		Logger:          logging.NoOpLogger{},
		Metrics:         noopMetrics{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	p := planner.New(client, registry,
		planner.WithRetries(opts.PlanRetries),
		planner.WithInstructions(opts.Instructions),
		planner.WithLogger(opts.Logger),
	)

	return &Engine{
		client:          client,
		registry:        registry,
		planner:         p,
		store:           opts.SessionStore,
		logger:          opts.Logger,
		metrics:         opts.Metrics,
		contextBudget:   opts.ContextBudget,
		agentTimeout:    opts.AgentTimeout,
		concurrentSteps: opts.ConcurrentSteps,
		eventBufferSize: opts.EventBufferSize,
		truncation:      opts.Truncation,
		outcome:         opts.Outcome,
		sessionLocks:    make(map[string]*sync.Mutex),
		activeTurns:     make(map[string]context.CancelFunc),
	}
}

// Store exposes the session store for read access to committed turns.
func (e *Engine) Store() core.SessionStore { return e.store }

// RunTurn starts an asynchronous turn for the given session. It returns the
// turn ID, an event stream closed when the turn reaches a terminal state, and
// an error channel that carries at most one infrastructure failure.
func (e *Engine) RunTurn(
	ctx context.Context,
	sessionID, input string,
) (string, <-chan core.Event, <-chan error, error) {
	sess, err := e.store.Create(ctx, sessionID)
	if err != nil {
		return "", nil, nil, &InfrastructureError{Op: "session load", Err: err}
	}

	turn := core.NewTurn(input)
	stream := channel.NewStream(e.eventBufferSize)
	errorsCh := make(chan error, 1)

	ctx, cancel := context.WithCancel(ctx)
	e.mu.Lock()
	e.activeTurns[turn.ID] = cancel
	lock := e.sessionLocks[sessionID]
	if lock == nil {
		lock = &sync.Mutex{}
		e.sessionLocks[sessionID] = lock
	}
	e.mu.Unlock()

	go func() {
		defer func() {
			stream.Close()
			close(errorsCh)
			cancel()
			e.mu.Lock()
			delete(e.activeTurns, turn.ID)
			e.mu.Unlock()
		}()

		lock.Lock()
		defer lock.Unlock()

		// The session snapshot may be stale by the time the lock is held;
		// reload so the context window sees turns committed in between.
		if fresh, err := e.store.Load(context.WithoutCancel(ctx), sessionID); err == nil {
			sess = fresh
		}

		exec := &executor{engine: e, session: sess, turn: &turn, input: input, sink: stream}
		if err := exec.run(ctx); err != nil {
			e.logger.Error("turn failed turn=%s: %v", turn.ID, err)
			errorsCh <- err
		}
	}()

	return turn.ID, stream.Events(), errorsCh, nil
}

// Cancel requests cancellation of an active turn. The in-flight step runs to
// completion; its result and all remaining steps are marked cancelled.
func (e *Engine) Cancel(turnID string) error {
	e.mu.Lock()
	cancel, ok := e.activeTurns[turnID]
	e.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrTurnNotFound, turnID)
	}
	cancel()
	return nil
}

// RunTurnSync runs a turn to completion, discarding progress events, and
// returns the committed turn.
func (e *Engine) RunTurnSync(ctx context.Context, sessionID, input string) (*core.Turn, error) {
	turnID, events, errs, err := e.RunTurn(ctx, sessionID, input)
	if err != nil {
		return nil, err
	}
	for range events {
	}
	if err := <-errs; err != nil {
		return nil, err
	}

	sess, err := e.store.Load(ctx, sessionID)
	if err != nil {
		return nil, &InfrastructureError{Op: "session load", Err: err}
	}
	for _, turn := range sess.GetTurns() {
		if turn.ID == turnID {
			return &turn, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrTurnNotFound, turnID)
}
