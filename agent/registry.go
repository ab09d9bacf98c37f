package agent

import (
	"context"
	"fmt"
	"sync"

	"github.com/showrunner-ai/showrunner/core"
	"github.com/showrunner-ai/showrunner/internal/schema"
	"github.com/showrunner-ai/showrunner/logging"
)

// Registry is the static capability table mapping agent names to
// implementations. It is populated once at process start from a closed,
// explicitly enumerated set of agents and is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	agents map[string]Agent
	order  []string
	logger logging.Logger
}

// NewRegistry constructs an empty registry. A nil logger disables logging.
func NewRegistry(logger logging.Logger) *Registry {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Registry{agents: make(map[string]Agent), logger: logger}
}

// Register adds an agent under its descriptor name. Registering a duplicate
// name is an error; the capability table is closed once wiring completes.
func (r *Registry) Register(a Agent) error {
	desc := a.Describe()
	if desc.Name == "" {
		return fmt.Errorf("agent descriptor has empty name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.agents[desc.Name]; exists {
		return fmt.Errorf("agent %q already registered", desc.Name)
	}
	r.agents[desc.Name] = a
	r.order = append(r.order, desc.Name)
	r.logger.Debug("registry.register agent=%s", desc.Name)
	return nil
}

// Lookup returns the agent registered under name.
func (r *Registry) Lookup(name string) (Agent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.agents[name]
	return a, ok
}

// Descriptors returns capability advertisements in registration order,
// suitable for handing to the language model client.
func (r *Registry) Descriptors() []core.Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	descs := make([]core.Descriptor, 0, len(r.order))
	for _, name := range r.order {
		descs = append(descs, r.agents[name].Describe())
	}
	return descs
}

// Validate checks a step's arguments against the named agent's parameter
// schema without dispatching. Unknown agents and schema violations return
// *Error with kind invalid_argument.
func (r *Registry) Validate(name string, args map[string]any) error {
	a, ok := r.Lookup(name)
	if !ok {
		return &Error{Agent: name, Kind: KindInvalidArgument, Message: "unknown agent"}
	}
	if err := schema.Validate(args, a.Describe().Parameters); err != nil {
		return &Error{Agent: name, Kind: KindInvalidArgument, Message: err.Error(), Err: err}
	}
	return nil
}

// Dispatch validates arguments, applies schema defaults and runs the agent.
// Panics inside agents are recovered and surfaced as internal agent errors so
// one faulty agent never takes down the engine.
func (r *Registry) Dispatch(
	ctx context.Context,
	name string,
	args map[string]any,
	progress ProgressSink,
) (result *Result, err error) {
	a, ok := r.Lookup(name)
	if !ok {
		return nil, &Error{Agent: name, Kind: KindInvalidArgument, Message: "unknown agent"}
	}

	params := a.Describe().Parameters
	if vErr := schema.Validate(args, params); vErr != nil {
		return nil, &Error{Agent: name, Kind: KindInvalidArgument, Message: vErr.Error(), Err: vErr}
	}
	args = schema.ApplyDefaults(args, params)

	if progress == nil {
		progress = NopSink
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("registry.dispatch panic agent=%s: %v", name, rec)
			result = nil
			err = &Error{Agent: name, Kind: KindInternal, Message: fmt.Sprintf("panic: %v", rec)}
		}
	}()

	result, err = a.Run(ctx, args, progress)
	if err != nil {
		if _, ok := err.(*Error); ok {
			return nil, err
		}
		return nil, &Error{Agent: name, Kind: KindExternalService, Message: err.Error(), Err: err}
	}
	if result == nil {
		return nil, &Error{Agent: name, Kind: KindInternal, Message: "agent returned nil result"}
	}
	return result, nil
}
