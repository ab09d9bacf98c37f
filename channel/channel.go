// Package channel carries turn and step events from the engine to consumers:
// an ordered stream per turn, closed when the turn reaches a terminal state.
package channel

import (
	"context"

	"github.com/showrunner-ai/showrunner/core"
)

// Sink receives events as the engine produces them. Emit must not block
// indefinitely; implementations are expected to honor ctx cancellation.
type Sink interface {
	Emit(ctx context.Context, event core.Event) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, event core.Event) error

// Emit implements Sink.
func (f SinkFunc) Emit(ctx context.Context, event core.Event) error {
	return f(ctx, event)
}

// Discard is a Sink that drops every event.
var Discard Sink = SinkFunc(func(context.Context, core.Event) error { return nil })

// Stream is a buffered single-producer event channel. The engine emits into
// it, the caller receives from Events until Close.
type Stream struct {
	ch chan core.Event
}

// NewStream creates a stream with the given buffer size. Sizes below one are
// raised to one so Emit never blocks on a zero-capacity channel at close.
func NewStream(buffer int) *Stream {
	if buffer < 1 {
		buffer = 1
	}
	return &Stream{ch: make(chan core.Event, buffer)}
}

// Emit implements Sink. It blocks when the buffer is full until the consumer
// drains or ctx is done. Buffer space is tried first so a cancelled turn can
// still flush its terminal events.
func (s *Stream) Emit(ctx context.Context, event core.Event) error {
	select {
	case s.ch <- event:
		return nil
	default:
	}
	select {
	case s.ch <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Events returns the receive side of the stream.
func (s *Stream) Events() <-chan core.Event { return s.ch }

// Close closes the stream. Only the producer may call it, exactly once.
func (s *Stream) Close() { close(s.ch) }
