package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/showrunner-ai/showrunner/agent"
	"github.com/showrunner-ai/showrunner/channel"
	"github.com/showrunner-ai/showrunner/core"
	"github.com/showrunner-ai/showrunner/llm"
)

// executor drives one turn through the state machine: planning, step
// execution, finalizing, commit. It owns the turn exclusively until commit.
type executor struct {
	engine  *Engine
	session *core.Session
	turn    *core.Turn
	input   string
	sink    channel.Sink

	records   []*core.StepRecord
	kindMu    sync.Mutex
	errKinds  map[int]string
	nextFlush int
	started   time.Time
}

func (x *executor) setErrKind(index int, kind string) {
	x.kindMu.Lock()
	x.errKinds[index] = kind
	x.kindMu.Unlock()
}

func (x *executor) errKind(index int) string {
	x.kindMu.Lock()
	defer x.kindMu.Unlock()
	if kind, ok := x.errKinds[index]; ok {
		return kind
	}
	return "agent_execution"
}

// run executes the whole turn. Only infrastructure failures are returned;
// planning and agent failures end in a committed or aborted turn instead.
func (x *executor) run(ctx context.Context) error {
	x.started = time.Now()
	x.emit(ctx, core.NewEvent(x.session.ID, x.turn.ID, core.EventTurnStarted))

	window := BuildWindow(x.session.GetTurns(), x.engine.contextBudget, x.engine.truncation)

	dec, err := x.engine.planner.Decide(ctx, window.Turns, window.Truncated, x.input)
	if err != nil {
		return x.abort(ctx, err)
	}

	if dec.Plan == nil {
		x.turn.Messages = []core.Message{core.NewTextMessage("assistant", dec.Text)}
		x.turn.Status = core.TurnSuccess
		return x.commit(ctx)
	}

	x.emitPlanReady(ctx, dec.Plan)

	x.errKinds = make(map[int]string)
	x.records = make([]*core.StepRecord, len(dec.Plan.Steps))
	for i, step := range dec.Plan.Steps {
		x.records[i] = &core.StepRecord{Index: i, Step: step, Status: core.StepPending}
	}

	cancelled := x.execute(ctx)
	return x.finalize(ctx, dec, cancelled)
}

// execute dispatches the plan's steps. Steps run in plan order; consecutive
// independent steps run concurrently when enabled. It reports whether the
// turn was cancelled mid-plan.
func (x *executor) execute(ctx context.Context) bool {
	failed := false
	i := 0
	for i < len(x.records) {
		if ctx.Err() != nil {
			x.markRemaining(i, core.StepCancelled, "turn cancelled")
			x.flush(ctx)
			return true
		}
		if failed {
			x.markRemaining(i, core.StepSkipped, "not executed: an earlier step failed")
			x.flush(ctx)
			return false
		}

		batch := x.nextBatch(i)
		if len(batch) == 1 {
			x.runStep(ctx, batch[0])
		} else {
			var g errgroup.Group
			for _, rec := range batch {
				rec := rec
				g.Go(func() error {
					x.runStep(ctx, rec)
					return nil
				})
			}
			_ = g.Wait()
		}

		interrupted := ctx.Err() != nil
		for _, rec := range batch {
			if interrupted {
				// An in-flight step ran to completion despite the
				// cancellation; its result is discarded from the turn.
				rec.Status = core.StepCancelled
				rec.Err = "turn cancelled"
				rec.Output = nil
				rec.Warning = ""
				rec.SetTerminalEvent(x.terminalEvent(rec))
			}
			if rec.Status == core.StepFailed {
				failed = true
			}
		}
		x.flush(ctx)

		if interrupted {
			x.markRemaining(i+len(batch), core.StepCancelled, "turn cancelled")
			x.flush(ctx)
			return true
		}
		i += len(batch)
	}
	return false
}

// nextBatch returns the records dispatched together starting at index i: a
// run of consecutive independent steps when concurrency is enabled, otherwise
// a single step.
func (x *executor) nextBatch(i int) []*core.StepRecord {
	if !x.engine.concurrentSteps || !x.records[i].Step.Independent {
		return x.records[i : i+1]
	}
	j := i
	for j < len(x.records) && x.records[j].Step.Independent {
		j++
	}
	return x.records[i:j]
}

// runStep dispatches one step to its agent and buffers the terminal event.
func (x *executor) runStep(ctx context.Context, rec *core.StepRecord) {
	rec.Status = core.StepDispatched
	rec.Started = time.Now().UTC()
	x.emit(ctx, core.NewStepEvent(x.session.ID, x.turn.ID, core.EventStepStarted, rec.Index, rec.Step.Agent))

	sink := func(text string, payload map[string]any) {
		ev := core.NewStepEvent(x.session.ID, x.turn.ID, core.EventStepProgress, rec.Index, rec.Step.Agent)
		ev.Text = text
		ev.Payload = payload
		x.emit(ctx, ev)
	}

	// The agent runs to completion even if the turn is cancelled; agents may
	// be mid-way through non-idempotent external operations.
	runCtx := context.WithoutCancel(ctx)
	if x.engine.agentTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(runCtx, x.engine.agentTimeout)
		defer cancel()
	}

	result, err := x.engine.registry.Dispatch(runCtx, rec.Step.Agent, rec.Step.Args, sink)
	rec.Ended = time.Now().UTC()

	if err != nil {
		rec.Status = core.StepFailed
		rec.Err = err.Error()
		var agentErr *agent.Error
		if errors.As(err, &agentErr) {
			x.setErrKind(rec.Index, string(agentErr.Kind))
		}
	} else {
		rec.Status = core.StepSucceeded
		rec.Output = result.Content
		rec.Warning = result.Warning
	}
	rec.SetTerminalEvent(x.terminalEvent(rec))
	x.engine.metrics.ObserveStep(rec.Step.Agent, rec.Status, rec.Ended.Sub(rec.Started))
}

// markRemaining sets every record from index on to the given terminal status.
func (x *executor) markRemaining(from int, status core.StepStatus, reason string) {
	for _, rec := range x.records[from:] {
		if rec.Status.Terminal() {
			continue
		}
		rec.Status = status
		rec.Err = reason
		rec.SetTerminalEvent(x.terminalEvent(rec))
		x.engine.metrics.ObserveStep(rec.Step.Agent, status, 0)
	}
}

// flush relays buffered terminal events in plan order. A step's terminal
// event is held until every earlier step has reached a terminal state.
func (x *executor) flush(ctx context.Context) {
	for x.nextFlush < len(x.records) {
		ev, ok := x.records[x.nextFlush].TerminalEvent()
		if !ok {
			return
		}
		x.emit(ctx, ev)
		x.nextFlush++
	}
}

func (x *executor) terminalEvent(rec *core.StepRecord) core.Event {
	var kind core.EventKind
	switch rec.Status {
	case core.StepSucceeded:
		kind = core.EventStepSucceeded
	case core.StepFailed:
		kind = core.EventStepFailed
	case core.StepSkipped:
		kind = core.EventStepSkipped
	default:
		kind = core.EventStepCancelled
	}
	ev := core.NewStepEvent(x.session.ID, x.turn.ID, kind, rec.Index, rec.Step.Agent)
	if rec.Err != "" {
		ev.Text = rec.Err
	}
	if rec.Warning != "" {
		ev.Payload = map[string]any{"warning": rec.Warning}
	}
	return ev
}

// finalize folds step records into messages, attaches the turn status,
// commits and emits the terminal turn event.
func (x *executor) finalize(ctx context.Context, dec *llm.Decision, cancelled bool) error {
	messages := make([]core.Message, 0, len(x.records)+1)
	succeeded, failedCount := 0, 0
	for _, rec := range x.records {
		messages = append(messages, x.stepMessage(rec))
		switch rec.Status {
		case core.StepSucceeded:
			succeeded++
		case core.StepFailed:
			failedCount++
		}
	}

	status := core.TurnAborted
	if !cancelled {
		status = x.engine.outcome(succeeded, failedCount)
	}

	if summary := x.summarize(ctx, status, messages); summary != "" {
		messages = append(messages, core.NewTextMessage("assistant", summary))
	}

	x.turn.Messages = messages
	x.turn.Status = status
	return x.commit(ctx)
}

// stepMessage converts one terminal step record into a user-visible message.
func (x *executor) stepMessage(rec *core.StepRecord) core.Message {
	switch rec.Status {
	case core.StepSucceeded:
		msg := core.NewMessage(rec.Step.Agent, core.MessageSuccess, rec.Output)
		msg.Warning = rec.Warning
		return msg
	case core.StepFailed:
		return core.NewErrorMessage(rec.Step.Agent, x.errKind(rec.Index), rec.Err)
	case core.StepSkipped:
		return core.NewErrorMessage(rec.Step.Agent, "skipped", rec.Err)
	default:
		return core.NewErrorMessage(rec.Step.Agent, "cancelled", rec.Err)
	}
}

// summarize asks the model for a closing summary of the executed steps. The
// summary is best-effort: provider failures fall back to a canned line so the
// turn still ends with an explanatory message.
func (x *executor) summarize(ctx context.Context, status core.TurnStatus, stepMessages []core.Message) string {
	if len(x.records) == 0 {
		return ""
	}

	synthetic := core.Turn{Input: x.input, Messages: stepMessages}

	req := llm.Request{
		Instructions: "Summarize for the user, in one or two sentences, what was done and what failed. Do not invent results.",
		History:      []core.Turn{synthetic},
		Input:        "Summarize the outcome of my request.",
	}
	text, err := x.engine.client.Complete(context.WithoutCancel(ctx), req)
	if err != nil || text == "" {
		x.engine.logger.Warn("summary generation failed turn=%s: %v", x.turn.ID, err)
		switch status {
		case core.TurnSuccess:
			return "All requested steps completed."
		case core.TurnAborted:
			return "The request was cancelled before all steps completed."
		default:
			return "Some steps did not complete; see the messages above."
		}
	}
	return text
}

// abort commits a turn that never reached execution, carrying the planning
// failure as its only message.
func (x *executor) abort(ctx context.Context, cause error) error {
	x.engine.logger.Warn("turn aborted turn=%s: %v", x.turn.ID, cause)
	x.turn.Messages = []core.Message{
		core.NewErrorMessage("assistant", "planning", cause.Error()),
	}
	x.turn.Status = core.TurnAborted
	return x.commit(ctx)
}

// commit persists the turn and emits the terminal turn event. Store failures
// are infrastructure errors: nothing is committed and the caller should retry
// the whole turn.
func (x *executor) commit(ctx context.Context) error {
	// Commit must complete even when the turn was cancelled.
	commitCtx := context.WithoutCancel(ctx)
	if err := x.engine.store.Commit(commitCtx, x.session.ID, *x.turn); err != nil {
		return &InfrastructureError{Op: "session commit", Err: err}
	}

	kind := core.EventTurnCommitted
	if x.turn.Status == core.TurnAborted {
		kind = core.EventTurnAborted
	}
	ev := core.NewEvent(x.session.ID, x.turn.ID, kind)
	ev.Payload = map[string]any{"status": string(x.turn.Status)}
	x.emit(ctx, ev)

	x.engine.metrics.ObserveTurn(x.turn.Status, time.Since(x.started))
	x.engine.logger.Info("turn committed turn=%s status=%s", x.turn.ID, x.turn.Status)
	return nil
}

// emit relays one event. Delivery is fire-and-forget; a refused emission is
// logged and dropped rather than failing the turn.
func (x *executor) emit(ctx context.Context, ev core.Event) {
	if err := x.sink.Emit(ctx, ev); err != nil {
		x.engine.logger.Warn("event dropped kind=%s turn=%s: %v", ev.Kind, ev.TurnID, err)
	}
}

func (x *executor) emitPlanReady(ctx context.Context, plan *core.Plan) {
	ev := core.NewEvent(x.session.ID, x.turn.ID, core.EventPlanReady)
	steps := make([]map[string]any, len(plan.Steps))
	for i, step := range plan.Steps {
		steps[i] = map[string]any{"agent": step.Agent, "independent": step.Independent}
	}
	ev.Payload = map[string]any{"steps": steps}
	x.emit(ctx, ev)
}
