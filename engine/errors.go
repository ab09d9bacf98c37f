package engine

import "fmt"

// InfrastructureError reports that the session store or output channel
// failed. Nothing was committed for the turn; the caller should retry the
// whole turn.
type InfrastructureError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *InfrastructureError) Error() string {
	return fmt.Sprintf("infrastructure failure during %s: %v", e.Op, e.Err)
}

// Unwrap exposes the wrapped cause.
func (e *InfrastructureError) Unwrap() error { return e.Err }

// ErrTurnNotFound is returned by Cancel for unknown or already finished
// turns.
var ErrTurnNotFound = fmt.Errorf("turn not found")
