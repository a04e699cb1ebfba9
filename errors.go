package emitter

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument is the sentinel for structural errors on the
// subscribe path. Match with errors.Is.
var ErrInvalidArgument = errors.New("invalid argument")

var (
	// ErrEmptyEventName is returned when the event name is empty.
	ErrEmptyEventName = fmt.Errorf("%w: empty event name", ErrInvalidArgument)

	// ErrNilHandler is returned when the handler is nil.
	ErrNilHandler = fmt.Errorf("%w: nil handler", ErrInvalidArgument)
)

// SubscriberError reports a handler that returned an error or panicked
// during an emit. It is delivered to the bus error sink and never aborts
// the emit that produced it.
type SubscriberError struct {
	// Event is the event name being emitted.
	Event string

	// SubscriptionID identifies the failing registration.
	SubscriptionID string

	// Err is the handler's error, or a wrapped recovered panic value.
	Err error
}

func (e *SubscriberError) Error() string {
	return fmt.Sprintf("subscriber %s failed on event %q: %v", e.SubscriptionID, e.Event, e.Err)
}

func (e *SubscriberError) Unwrap() error {
	return e.Err
}

// panicError wraps a value recovered from a panicking handler.
type panicError struct {
	value any
}

func (e *panicError) Error() string {
	return fmt.Sprintf("handler panic: %v", e.value)
}
